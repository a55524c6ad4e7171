package controllers

import (
	"net/http"

	apperrors "catalog-service/common/errors"
	"catalog-service/services"

	"github.com/gin-gonic/gin"
)

// BulkCreateRequest is the body of POST /products/bulk.
type BulkCreateRequest struct {
	Products []services.ProductInput `json:"products"`
}

// BulkUpdateRequest is the body of PUT /products/bulk.
type BulkUpdateRequest struct {
	Updates []services.ProductPatch `json:"updates"`
}

// BulkController handles bulk product operations
type BulkController struct {
	service   services.BulkService
	validator *RequestValidator
}

func NewBulkController(s services.BulkService, v *RequestValidator) *BulkController {
	return &BulkController{service: s, validator: v}
}

// BulkCreateProducts inserts a batch. 207 reports a partial success. With
// ?async=true the batch is queued and a job id is returned.
func (h *BulkController) BulkCreateProducts(c *gin.Context) {
	var req BulkCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, apperrors.Validation("Invalid request body: "+err.Error()))
		return
	}

	async, appErr := h.validator.ParseBool(c, "async")
	if appErr != nil {
		abort(c, appErr)
		return
	}
	if async {
		job, appErr := h.service.SubmitBulkCreate(c.Request.Context(), req.Products)
		if appErr != nil {
			abort(c, appErr)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"jobId": job.ID, "message": "Bulk create queued"})
		return
	}

	result, appErr := h.service.BulkCreate(c.Request.Context(), req.Products)
	if appErr != nil {
		abort(c, appErr)
		return
	}
	status := http.StatusCreated
	if result.Partial() {
		status = http.StatusMultiStatus
	}
	c.JSON(status, result)
}

func (h *BulkController) BulkUpdateProducts(c *gin.Context) {
	var req BulkUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, apperrors.Validation("Invalid request body: "+err.Error()))
		return
	}

	result, appErr := h.service.BulkUpdate(c.Request.Context(), req.Updates)
	if appErr != nil {
		abort(c, appErr)
		return
	}
	status := http.StatusOK
	if result.Partial() {
		status = http.StatusMultiStatus
	}
	c.JSON(status, result)
}

// GetBulkJob returns the state of an async bulk create.
func (h *BulkController) GetBulkJob(c *gin.Context) {
	job, appErr := h.service.GetBulkJob(c.Request.Context(), c.Param("id"))
	if appErr != nil {
		abort(c, appErr)
		return
	}
	c.JSON(http.StatusOK, job)
}
