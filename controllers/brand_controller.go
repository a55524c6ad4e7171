package controllers

import (
	"net/http"
	"strings"

	apperrors "catalog-service/common/errors"
	"catalog-service/services"

	"github.com/gin-gonic/gin"
)

type BrandController struct {
	service   services.BrandService
	validator *RequestValidator
}

func NewBrandController(s services.BrandService, v *RequestValidator) *BrandController {
	return &BrandController{service: s, validator: v}
}

func (ctrl *BrandController) CreateBrand(c *gin.Context) {
	var req services.BrandRequest
	if appErr := ctrl.validator.BindJSON(c, &req); appErr != nil {
		abort(c, appErr)
		return
	}
	brand, appErr := ctrl.service.CreateBrand(c.Request.Context(), req)
	if appErr != nil {
		abort(c, appErr)
		return
	}
	c.JSON(http.StatusCreated, brand)
}

// CreateBrandWithImage accepts a multipart form with name and an optional
// image file.
func (ctrl *BrandController) CreateBrandWithImage(c *gin.Context) {
	image, appErr := ctrl.brandImage(c)
	if appErr != nil {
		abort(c, appErr)
		return
	}

	req := services.BrandRequest{Name: strings.TrimSpace(c.PostForm("name"))}
	if appErr := ctrl.validator.Struct(&req); appErr != nil {
		abort(c, appErr)
		return
	}

	brand, appErr := ctrl.service.CreateBrandWithImage(c.Request.Context(), req, image)
	if appErr != nil {
		abort(c, appErr)
		return
	}
	c.JSON(http.StatusCreated, brand)
}

func (ctrl *BrandController) brandImage(c *gin.Context) (*services.FileUpload, *apperrors.Error) {
	files, appErr := ctrl.validator.MultipartFiles(c, services.BrandImage.Field)
	if appErr != nil {
		return nil, appErr
	}
	if len(files) == 0 {
		return nil, nil
	}
	if len(files) > 1 {
		return nil, services.BrandImage.Check(files)
	}
	return &files[0], nil
}

func (ctrl *BrandController) GetBrands(c *gin.Context) {
	brands, appErr := ctrl.service.ListBrands(c.Request.Context(), ctrl.validator.ParseListFilter(c))
	if appErr != nil {
		abort(c, appErr)
		return
	}
	c.JSON(http.StatusOK, brands)
}

func (ctrl *BrandController) GetBrand(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	brand, appErr := ctrl.service.GetBrand(c.Request.Context(), id)
	if appErr != nil {
		abort(c, appErr)
		return
	}
	c.JSON(http.StatusOK, brand)
}

func (ctrl *BrandController) UpdateBrand(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req services.BrandUpdateRequest
	if appErr := ctrl.validator.BindJSON(c, &req); appErr != nil {
		abort(c, appErr)
		return
	}
	brand, appErr := ctrl.service.UpdateBrand(c.Request.Context(), id, req)
	if appErr != nil {
		abort(c, appErr)
		return
	}
	c.JSON(http.StatusOK, brand)
}

func (ctrl *BrandController) UpdateBrandWithImage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	image, appErr := ctrl.brandImage(c)
	if appErr != nil {
		abort(c, appErr)
		return
	}

	var req services.BrandUpdateRequest
	if name, ok := c.GetPostForm("name"); ok {
		req.Name = &name
	}
	brand, appErr := ctrl.service.UpdateBrandWithImage(c.Request.Context(), id, req, image)
	if appErr != nil {
		abort(c, appErr)
		return
	}
	c.JSON(http.StatusOK, brand)
}

func (ctrl *BrandController) DeleteBrand(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if appErr := ctrl.service.DeleteBrand(c.Request.Context(), id); appErr != nil {
		abort(c, appErr)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: services.MsgBrandDeleted})
}
