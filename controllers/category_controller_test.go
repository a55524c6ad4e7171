package controllers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	apperrors "catalog-service/common/errors"
	"catalog-service/models"
	"catalog-service/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreateCategory(t *testing.T) {
	svcs := newTestServices()
	var got services.CategoryCreateRequest
	svcs.category.createFn = func(_ context.Context, req services.CategoryCreateRequest) (*models.Category, *apperrors.Error) {
		got = req
		return &models.Category{ID: primitive.NewObjectID(), Name: req.Name, Level: models.LevelRoot}, nil
	}
	r := svcs.router()

	w := doJSON(r, http.MethodPost, "/categories", map[string]string{"name": "Lighting"})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Lighting", got.Name)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Lighting", body["name"])
	assert.Nil(t, body["parent"])
	assert.Equal(t, float64(0), body["level"])
}

func TestCreateCategory_Errors(t *testing.T) {
	svcs := newTestServices()
	svcs.category.createFn = func(_ context.Context, req services.CategoryCreateRequest) (*models.Category, *apperrors.Error) {
		return nil, apperrors.Validation(services.MsgParentIsSubcategory)
	}
	r := svcs.router()

	t.Run("missing name", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/categories", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "name is required", errorBody(w))
	})

	t.Run("malformed body", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/categories", "{")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, errorBody(w), "Invalid request body")
	})

	t.Run("hierarchy violation", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/categories", map[string]string{"name": "Android", "parent": primitive.NewObjectID().Hex()})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, services.MsgParentIsSubcategory, errorBody(w))
	})
}

func TestGetCategories_Query(t *testing.T) {
	svcs := newTestServices()
	var gotFilter services.ListFilter
	var gotHierarchy bool
	svcs.category.listFn = func(_ context.Context, filter services.ListFilter, includeHierarchy bool) ([]models.Category, *apperrors.Error) {
		gotFilter, gotHierarchy = filter, includeHierarchy
		return []models.Category{}, nil
	}
	r := svcs.router()

	w := doJSON(r, http.MethodGet, "/categories?search=led&sortBy=createdAt&sortOrder=desc&includeHierarchy=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, services.ListFilter{Search: "led", SortBy: "createdAt", SortOrder: "desc"}, gotFilter)
	assert.True(t, gotHierarchy)
	assert.JSONEq(t, "[]", w.Body.String())

	w = doJSON(r, http.MethodGet, "/categories?includeHierarchy=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCategoryStaticRoutes(t *testing.T) {
	svcs := newTestServices()
	var called []string
	svcs.category.parentsFn = func(context.Context, services.ListFilter) ([]models.Category, *apperrors.Error) {
		called = append(called, "parents")
		return []models.Category{}, nil
	}
	svcs.category.treeFn = func(context.Context) ([]models.Category, *apperrors.Error) {
		called = append(called, "tree")
		return []models.Category{}, nil
	}
	r := svcs.router()

	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, "/categories/parents", nil).Code)
	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, "/categories/tree", nil).Code)
	assert.Equal(t, []string{"parents", "tree"}, called)
}

func TestGetSubcategories(t *testing.T) {
	svcs := newTestServices()
	parent := primitive.NewObjectID()
	svcs.category.subsFn = func(_ context.Context, parentID primitive.ObjectID, _ services.ListFilter) ([]models.Category, *apperrors.Error) {
		if parentID != parent {
			return []models.Category{}, nil
		}
		return []models.Category{{ID: primitive.NewObjectID(), Name: "LED", Parent: &parent, Level: 1}}, nil
	}
	r := svcs.router()

	w := doJSON(r, http.MethodGet, "/categories/"+parent.Hex()+"/subcategories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body []models.Category
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "LED", body[0].Name)

	w = doJSON(r, http.MethodGet, "/categories/"+primitive.NewObjectID().Hex()+"/subcategories", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestUpdateCategory_ParentNullAndAbsent(t *testing.T) {
	svcs := newTestServices()
	var got services.CategoryUpdateRequest
	svcs.category.updateFn = func(_ context.Context, id primitive.ObjectID, req services.CategoryUpdateRequest) (*models.Category, *apperrors.Error) {
		got = req
		return &models.Category{ID: id}, nil
	}
	r := svcs.router()
	id := primitive.NewObjectID().Hex()

	w := doJSON(r, http.MethodPut, "/categories/"+id, `{"parent": null}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, got.Parent.Set)
	assert.Nil(t, got.Parent.Value)

	w = doJSON(r, http.MethodPut, "/categories/"+id, `{"name": "Renamed"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, got.Parent.Set)
	require.NotNil(t, got.Name)
	assert.Equal(t, "Renamed", *got.Name)
}

func TestDeleteCategory(t *testing.T) {
	svcs := newTestServices()
	blocked := primitive.NewObjectID()
	svcs.category.deleteFn = func(_ context.Context, id primitive.ObjectID) *apperrors.Error {
		if id == blocked {
			return apperrors.Validation(services.MsgDeleteHasChildren)
		}
		return nil
	}
	r := svcs.router()

	w := doJSON(r, http.MethodDelete, "/categories/"+blocked.Hex(), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, services.MsgDeleteHasChildren, errorBody(w))

	w = doJSON(r, http.MethodDelete, "/categories/"+primitive.NewObjectID().Hex(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Category deleted successfully"}`, w.Body.String())

	w = doJSON(r, http.MethodDelete, "/categories/not-an-id", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, services.MsgInvalidID, errorBody(w))
}
