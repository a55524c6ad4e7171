package services

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
)

// ListFilter is the search and sort input shared by category, brand and tag
// listings.
type ListFilter struct {
	Search    string
	SortBy    string
	SortOrder string
}

// OptionalID distinguishes an absent JSON field from an explicit null.
type OptionalID struct {
	Set   bool
	Value *string
}

func (o *OptionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// CategoryCreateRequest is the request payload for creating a category
type CategoryCreateRequest struct {
	Name   string `json:"name" validate:"required"`
	Parent string `json:"parent"`
}

// CategoryUpdateRequest changes the name, the parent or both. A null parent
// turns the category into a root.
type CategoryUpdateRequest struct {
	Name   *string    `json:"name"`
	Parent OptionalID `json:"parent"`
}

type BrandRequest struct {
	Name  string `json:"name" validate:"required"`
	Image string `json:"image"`
}

type BrandUpdateRequest struct {
	Name  *string `json:"name"`
	Image *string `json:"image"`
}

type TagRequest struct {
	Name string `json:"name" validate:"required"`
}

type TagUpdateRequest struct {
	Name *string `json:"name"`
}

// ProductInput is the full payload of a product create. Reference fields
// carry hex ids.
type ProductInput struct {
	Name                 string   `json:"name" validate:"required"`
	ModelCode            string   `json:"modelCode"`
	Description          string   `json:"description"`
	Features             []string `json:"features"`
	Images               []string `json:"images"`
	SpecSheets           []string `json:"specSheets"`
	Category             string   `json:"category"`
	Brand                string   `json:"brand"`
	Tags                 []string `json:"tags"`
	Sizes                []string `json:"sizes"`
	Colors               []string `json:"colors"`
	Shapes               []string `json:"shapes"`
	Price                float64  `json:"price" validate:"gte=0"`
	MRP                  float64  `json:"mrp" validate:"gte=0"`
	RedistributionPrice  float64  `json:"redistributionPrice" validate:"gte=0"`
	SpecialPrice         float64  `json:"specialPrice" validate:"gte=0"`
	IsSpecialPriceActive bool     `json:"isSpecialPriceActive"`
	ActivePriceType      string   `json:"activePriceType"`
}

// ProductPatch is a partial product update. Only non-nil fields change.
// Category and Brand accept null to clear the reference.
type ProductPatch struct {
	ID                   string     `json:"id,omitempty"`
	Name                 *string    `json:"name"`
	ModelCode            *string    `json:"modelCode"`
	Description          *string    `json:"description"`
	Features             *[]string  `json:"features"`
	Images               *[]string  `json:"images"`
	SpecSheets           *[]string  `json:"specSheets"`
	Category             OptionalID `json:"category"`
	Brand                OptionalID `json:"brand"`
	Tags                 *[]string  `json:"tags"`
	Sizes                *[]string  `json:"sizes"`
	Colors               *[]string  `json:"colors"`
	Shapes               *[]string  `json:"shapes"`
	Price                *float64   `json:"price"`
	MRP                  *float64   `json:"mrp"`
	RedistributionPrice  *float64   `json:"redistributionPrice"`
	SpecialPrice         *float64   `json:"specialPrice"`
	IsSpecialPriceActive *bool      `json:"isSpecialPriceActive"`
	ActivePriceType      *string    `json:"activePriceType"`
}

// ListProductsParams contains parameters for listing products with filters
type ListProductsParams struct {
	Search      string
	Category    string
	Brand       string
	Tags        []string
	MinPrice    *float64
	MaxPrice    *float64
	SpecialOnly bool
	Page        int
	Limit       int
	SortBy      string
	SortOrder   string
}

// FileUpload is one file received from a client.
type FileUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// FilesFromHeaders adapts multipart file headers.
func FilesFromHeaders(headers []*multipart.FileHeader) []FileUpload {
	files := make([]FileUpload, 0, len(headers))
	for _, fh := range headers {
		fh := fh
		files = append(files, FileUpload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		})
	}
	return files
}

// UploadedFile describes a stored upload.
type UploadedFile struct {
	URL          string `json:"url"`
	PublicID     string `json:"publicId"`
	OriginalName string `json:"originalName"`
}
