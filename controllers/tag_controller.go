package controllers

import (
	"net/http"

	"catalog-service/services"

	"github.com/gin-gonic/gin"
)

type TagController struct {
	service   services.TagService
	validator *RequestValidator
}

func NewTagController(s services.TagService, v *RequestValidator) *TagController {
	return &TagController{service: s, validator: v}
}

func (ctrl *TagController) CreateTag(c *gin.Context) {
	var req services.TagRequest
	if appErr := ctrl.validator.BindJSON(c, &req); appErr != nil {
		abort(c, appErr)
		return
	}
	tag, appErr := ctrl.service.CreateTag(c.Request.Context(), req)
	if appErr != nil {
		abort(c, appErr)
		return
	}
	c.JSON(http.StatusCreated, tag)
}

func (ctrl *TagController) GetTags(c *gin.Context) {
	tags, appErr := ctrl.service.ListTags(c.Request.Context(), ctrl.validator.ParseListFilter(c))
	if appErr != nil {
		abort(c, appErr)
		return
	}
	c.JSON(http.StatusOK, tags)
}

func (ctrl *TagController) GetTag(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	tag, appErr := ctrl.service.GetTag(c.Request.Context(), id)
	if appErr != nil {
		abort(c, appErr)
		return
	}
	c.JSON(http.StatusOK, tag)
}

func (ctrl *TagController) UpdateTag(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req services.TagUpdateRequest
	if appErr := ctrl.validator.BindJSON(c, &req); appErr != nil {
		abort(c, appErr)
		return
	}
	tag, appErr := ctrl.service.UpdateTag(c.Request.Context(), id, req)
	if appErr != nil {
		abort(c, appErr)
		return
	}
	c.JSON(http.StatusOK, tag)
}

func (ctrl *TagController) DeleteTag(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if appErr := ctrl.service.DeleteTag(c.Request.Context(), id); appErr != nil {
		abort(c, appErr)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: services.MsgTagDeleted})
}
