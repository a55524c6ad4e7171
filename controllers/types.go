package controllers

import (
	apperrors "catalog-service/common/errors"
	"catalog-service/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageResponse is the body of delete endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}

// UploadResponse is returned by the upload endpoints.
type UploadResponse struct {
	Message string                  `json:"message"`
	Files   []services.UploadedFile `json:"files"`
}

// abort hands the error to errors.ErrorMiddleware.
func abort(c *gin.Context, appErr *apperrors.Error) {
	_ = c.Error(appErr)
	c.Abort()
}

// pathID parses the :id parameter, aborting with 400 when malformed.
func pathID(c *gin.Context) (primitive.ObjectID, bool) {
	id, appErr := services.ParseID(c.Param("id"))
	if appErr != nil {
		abort(c, appErr)
		return primitive.NilObjectID, false
	}
	return id, true
}
