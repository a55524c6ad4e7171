package controllers

import (
	"net/http"

	"catalog-service/services"

	"github.com/gin-gonic/gin"
)

type CategoryController struct {
	service   services.CategoryService
	validator *RequestValidator
}

func NewCategoryController(s services.CategoryService, v *RequestValidator) *CategoryController {
	return &CategoryController{service: s, validator: v}
}

func (ctrl *CategoryController) CreateCategory(c *gin.Context) {
	var req services.CategoryCreateRequest
	if appErr := ctrl.validator.BindJSON(c, &req); appErr != nil {
		abort(c, appErr)
		return
	}

	category, appErr := ctrl.service.CreateCategory(c.Request.Context(), req)
	if appErr != nil {
		abort(c, appErr)
		return
	}
	c.JSON(http.StatusCreated, category)
}

// GetCategories lists categories. includeHierarchy=true attaches the direct
// subcategories of each one.
func (ctrl *CategoryController) GetCategories(c *gin.Context) {
	hierarchy, appErr := ctrl.validator.ParseBool(c, "includeHierarchy")
	if appErr != nil {
		abort(c, appErr)
		return
	}

	categories, appErr := ctrl.service.ListCategories(c.Request.Context(), ctrl.validator.ParseListFilter(c), hierarchy)
	if appErr != nil {
		abort(c, appErr)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (ctrl *CategoryController) GetParentCategories(c *gin.Context) {
	categories, appErr := ctrl.service.ListParentCategories(c.Request.Context(), ctrl.validator.ParseListFilter(c))
	if appErr != nil {
		abort(c, appErr)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (ctrl *CategoryController) GetCategoryTree(c *gin.Context) {
	tree, appErr := ctrl.service.GetCategoryTree(c.Request.Context())
	if appErr != nil {
		abort(c, appErr)
		return
	}
	c.JSON(http.StatusOK, tree)
}

func (ctrl *CategoryController) GetCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	category, appErr := ctrl.service.GetCategory(c.Request.Context(), id)
	if appErr != nil {
		abort(c, appErr)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (ctrl *CategoryController) GetSubcategories(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	children, appErr := ctrl.service.ListSubcategories(c.Request.Context(), id, ctrl.validator.ParseListFilter(c))
	if appErr != nil {
		abort(c, appErr)
		return
	}
	c.JSON(http.StatusOK, children)
}

func (ctrl *CategoryController) UpdateCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req services.CategoryUpdateRequest
	if appErr := ctrl.validator.BindJSON(c, &req); appErr != nil {
		abort(c, appErr)
		return
	}

	category, appErr := ctrl.service.UpdateCategory(c.Request.Context(), id, req)
	if appErr != nil {
		abort(c, appErr)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (ctrl *CategoryController) DeleteCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if appErr := ctrl.service.DeleteCategory(c.Request.Context(), id); appErr != nil {
		abort(c, appErr)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: services.MsgCategoryDeleted})
}
