package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "catalog-service/common/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestConstructors(t *testing.T) {
	cause := stderrors.New("E11000 duplicate key")

	assert.Equal(t, http.StatusBadRequest, apperrors.Validation("bad").Code)
	assert.Equal(t, http.StatusNotFound, apperrors.NotFound("gone").Code)

	dup := apperrors.Duplicate("Tag name already exists", cause)
	assert.Equal(t, http.StatusBadRequest, dup.Code)
	assert.ErrorIs(t, dup, cause)

	internal := apperrors.Internal(stderrors.New("connection reset"))
	assert.Equal(t, http.StatusInternalServerError, internal.Code)
	assert.Equal(t, "connection reset", internal.Message)
}

func TestAs(t *testing.T) {
	appErr := apperrors.NotFound("Product not found")
	wrapped := fmt.Errorf("handler: %w", appErr)
	assert.Same(t, appErr, apperrors.As(wrapped))

	plain := apperrors.As(stderrors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, plain.Code)
	assert.Equal(t, "boom", plain.Message)
}

func TestErrorMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(apperrors.ErrorMiddleware())
	r.GET("/app", func(c *gin.Context) {
		_ = c.Error(apperrors.NotFound("Brand not found"))
		c.Abort()
	})
	r.GET("/raw", func(c *gin.Context) {
		_ = c.Error(stderrors.New("socket closed"))
	})
	r.GET("/written", func(c *gin.Context) {
		_ = c.Error(apperrors.Validation("ignored"))
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{"/app", http.StatusNotFound, `{"error":"Brand not found"}`},
		{"/raw", http.StatusInternalServerError, `{"error":"socket closed"}`},
		{"/written", http.StatusOK, `{"ok":true}`},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}
