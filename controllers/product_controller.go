package controllers

import (
	"mime/multipart"
	"net/http"

	apperrors "catalog-service/common/errors"
	"catalog-service/services"

	"github.com/gin-gonic/gin"
)

type ProductController struct {
	service   services.ProductService
	validator *RequestValidator
}

func NewProductController(s services.ProductService, v *RequestValidator) *ProductController {
	return &ProductController{service: s, validator: v}
}

func (ctrl *ProductController) CreateProduct(c *gin.Context) {
	var in services.ProductInput
	if appErr := ctrl.validator.BindJSON(c, &in); appErr != nil {
		abort(c, appErr)
		return
	}
	product, appErr := ctrl.service.CreateProduct(c.Request.Context(), in)
	if appErr != nil {
		abort(c, appErr)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// GetProducts lists products with filters, sort and pagination.
func (ctrl *ProductController) GetProducts(c *gin.Context) {
	params, appErr := ctrl.validator.ParseProductFilters(c)
	if appErr != nil {
		abort(c, appErr)
		return
	}
	page, appErr := ctrl.service.ListProducts(c.Request.Context(), params)
	if appErr != nil {
		abort(c, appErr)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (ctrl *ProductController) GetProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	product, appErr := ctrl.service.GetProduct(c.Request.Context(), id)
	if appErr != nil {
		abort(c, appErr)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (ctrl *ProductController) UpdateProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var patch services.ProductPatch
	if appErr := ctrl.validator.BindJSON(c, &patch); appErr != nil {
		abort(c, appErr)
		return
	}
	product, appErr := ctrl.service.UpdateProduct(c.Request.Context(), id, patch)
	if appErr != nil {
		abort(c, appErr)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (ctrl *ProductController) DeleteProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if appErr := ctrl.service.DeleteProduct(c.Request.Context(), id); appErr != nil {
		abort(c, appErr)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: services.MsgProductDeleted})
}

// CreateProductWithUploads takes the product fields as form values plus
// optional images and specSheets files.
func (ctrl *ProductController) CreateProductWithUploads(c *gin.Context) {
	form, appErr := ctrl.requireMultipart(c)
	if appErr != nil {
		abort(c, appErr)
		return
	}
	in, appErr := newProductForm(form).input()
	if appErr != nil {
		abort(c, appErr)
		return
	}
	if appErr := ctrl.validator.Struct(&in); appErr != nil {
		abort(c, appErr)
		return
	}

	images, specSheets := uploadedFiles(form)
	product, appErr := ctrl.service.CreateProductWithUploads(c.Request.Context(), in, images, specSheets)
	if appErr != nil {
		abort(c, appErr)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (ctrl *ProductController) UpdateProductWithUploads(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	form, appErr := ctrl.requireMultipart(c)
	if appErr != nil {
		abort(c, appErr)
		return
	}
	patch, appErr := newProductForm(form).patch()
	if appErr != nil {
		abort(c, appErr)
		return
	}

	images, specSheets := uploadedFiles(form)
	product, appErr := ctrl.service.UpdateProductWithUploads(c.Request.Context(), id, patch, images, specSheets)
	if appErr != nil {
		abort(c, appErr)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (ctrl *ProductController) requireMultipart(c *gin.Context) (*multipart.Form, *apperrors.Error) {
	form, appErr := ctrl.validator.multipartForm(c)
	if appErr != nil {
		return nil, appErr
	}
	if form == nil {
		return nil, apperrors.Validation("Expected multipart form data")
	}
	return form, nil
}

func uploadedFiles(form *multipart.Form) ([]services.FileUpload, []services.FileUpload) {
	return services.FilesFromHeaders(form.File[services.ProductImages.Field]),
		services.FilesFromHeaders(form.File[services.SpecSheets.Field])
}

// DeleteProductImage removes ?url= from the product images.
func (ctrl *ProductController) DeleteProductImage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	product, appErr := ctrl.service.DeleteProductImage(c.Request.Context(), id, c.Query("url"))
	if appErr != nil {
		abort(c, appErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Image deleted successfully", "product": product})
}

func (ctrl *ProductController) DeleteProductSpecSheet(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	product, appErr := ctrl.service.DeleteProductSpecSheet(c.Request.Context(), id, c.Query("url"))
	if appErr != nil {
		abort(c, appErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Spec sheet deleted successfully", "product": product})
}
