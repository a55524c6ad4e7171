package controllers

import (
	"net/http"
	"strings"

	"catalog-service/blobstore"
	apperrors "catalog-service/common/errors"
	"catalog-service/services"

	"github.com/gin-gonic/gin"
)

type UploadController struct {
	service   services.UploadService
	validator *RequestValidator
}

func NewUploadController(s services.UploadService, v *RequestValidator) *UploadController {
	return &UploadController{service: s, validator: v}
}

func (ctrl *UploadController) UploadProductImages(c *gin.Context) {
	ctrl.upload(c, services.ProductImages, "productName", "Images uploaded successfully")
}

func (ctrl *UploadController) UploadSpecSheets(c *gin.Context) {
	ctrl.upload(c, services.SpecSheets, "productName", "Spec sheets uploaded successfully")
}

func (ctrl *UploadController) UploadBrandImage(c *gin.Context) {
	ctrl.upload(c, services.BrandImage, "brandName", "Brand image uploaded successfully")
}

// upload stores the files of kind.Field. nameField names the form value
// used in the generated public ids.
func (ctrl *UploadController) upload(c *gin.Context, kind services.UploadKind, nameField, message string) {
	files, appErr := ctrl.validator.MultipartFiles(c, kind.Field)
	if appErr != nil {
		abort(c, appErr)
		return
	}
	if len(files) == 0 {
		abort(c, apperrors.Validation(kind.EmptyMessage))
		return
	}

	uploaded, appErr := ctrl.service.Upload(c.Request.Context(), kind, c.PostForm(nameField), files)
	if appErr != nil {
		abort(c, appErr)
		return
	}
	c.JSON(http.StatusOK, UploadResponse{Message: message, Files: uploaded})
}

// DeleteFile removes a blob. The public id may contain slashes.
func (ctrl *UploadController) DeleteFile(c *gin.Context) {
	publicID := strings.TrimPrefix(c.Param("publicId"), "/")
	rt := blobstore.ParseResourceType(c.Query("resourceType"))
	if appErr := ctrl.service.Delete(c.Request.Context(), publicID, rt); appErr != nil {
		abort(c, appErr)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "File deleted successfully"})
}
