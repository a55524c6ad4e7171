package controllers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"reflect"
	"strconv"
	"strings"

	apperrors "catalog-service/common/errors"
	"catalog-service/services"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Multipart bodies are capped above the largest allowed batch.
const MaxMultipartMemory = 32 << 20

// RequestValidator handles all input validation
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New()
	// Report JSON field names instead of Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return &RequestValidator{validate: v}
}

// BindJSON decodes the body into req and runs its validate tags.
func (rv *RequestValidator) BindJSON(c *gin.Context, req interface{}) *apperrors.Error {
	if err := c.ShouldBindJSON(req); err != nil {
		return apperrors.Validation("Invalid request body: " + err.Error())
	}
	return rv.Struct(req)
}

// Struct validates req and reports the first failing field.
func (rv *RequestValidator) Struct(req interface{}) *apperrors.Error {
	err := rv.validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperrors.Validation(err.Error())
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return apperrors.Validation(fmt.Sprintf("%s is required", fe.Field()))
	case "gte":
		return apperrors.Validation(fmt.Sprintf("%s must be greater than or equal to %s", fe.Field(), fe.Param()))
	default:
		return apperrors.Validation(fmt.Sprintf("%s is invalid", fe.Field()))
	}
}

// ParsePagination validates and parses pagination parameters
func (rv *RequestValidator) ParsePagination(c *gin.Context) (int, int, *apperrors.Error) {
	page, err := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(services.DefaultPage)))
	if err != nil || page < 1 || page > services.MaxPage {
		return 0, 0, apperrors.Validation("Invalid page number")
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(services.DefaultLimit)))
	if err != nil || limit < 1 {
		return 0, 0, apperrors.Validation("Invalid limit")
	}
	if limit > services.MaxLimit {
		limit = services.MaxLimit
	}
	return page, limit, nil
}

// ParseListFilter reads search, sortBy and sortOrder.
func (rv *RequestValidator) ParseListFilter(c *gin.Context) services.ListFilter {
	return services.ListFilter{
		Search:    strings.TrimSpace(c.Query("search")),
		SortBy:    strings.TrimSpace(c.Query("sortBy")),
		SortOrder: strings.TrimSpace(c.Query("sortOrder")),
	}
}

// ParseProductFilters validates and parses the product listing parameters.
func (rv *RequestValidator) ParseProductFilters(c *gin.Context) (services.ListProductsParams, *apperrors.Error) {
	page, limit, appErr := rv.ParsePagination(c)
	if appErr != nil {
		return services.ListProductsParams{}, appErr
	}

	params := services.ListProductsParams{
		Search:    strings.TrimSpace(c.Query("search")),
		Category:  strings.TrimSpace(c.Query("category")),
		Brand:     strings.TrimSpace(c.Query("brand")),
		Tags:      c.QueryArray("tags"),
		Page:      page,
		Limit:     limit,
		SortBy:    strings.TrimSpace(c.Query("sortBy")),
		SortOrder: strings.TrimSpace(c.Query("sortOrder")),
	}

	var err error
	if params.MinPrice, err = parseOptionalFloat(c.Query("minPrice")); err != nil {
		return params, apperrors.Validation("Invalid minPrice value")
	}
	if params.MaxPrice, err = parseOptionalFloat(c.Query("maxPrice")); err != nil {
		return params, apperrors.Validation("Invalid maxPrice value")
	}

	if raw := strings.TrimSpace(c.Query("specialOnly")); raw != "" {
		special, err := strconv.ParseBool(raw)
		if err != nil {
			return params, apperrors.Validation("Invalid boolean value for 'specialOnly'")
		}
		params.SpecialOnly = special
	}
	return params, nil
}

func parseOptionalFloat(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ParseBool reads an optional boolean query flag.
func (rv *RequestValidator) ParseBool(c *gin.Context, key string) (bool, *apperrors.Error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperrors.Validation(fmt.Sprintf("Invalid boolean value for '%s'", key))
	}
	return v, nil
}

// MultipartFiles returns the files sent under field. A body that is not
// multipart yields no files.
func (rv *RequestValidator) MultipartFiles(c *gin.Context, field string) ([]services.FileUpload, *apperrors.Error) {
	form, appErr := rv.multipartForm(c)
	if appErr != nil || form == nil {
		return nil, appErr
	}
	return services.FilesFromHeaders(form.File[field]), nil
}

func (rv *RequestValidator) multipartForm(c *gin.Context) (*multipart.Form, *apperrors.Error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperrors.Validation("Invalid multipart form: " + err.Error())
	}
	return form, nil
}
