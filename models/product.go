package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PriceType names the price a product is currently sold at.
type PriceType string

const (
	PriceTypePrice      PriceType = "price"
	PriceTypeMRP        PriceType = "mrp"
	PriceTypeDiscounted PriceType = "discountedPrice"
	PriceTypeMinimum    PriceType = "minimumPrice"
)

// SpecialPriceTypes are the price types that count as a special offer.
var SpecialPriceTypes = []PriceType{PriceTypeDiscounted, PriceTypeMinimum}

// Valid reports whether t is one of the known price types.
func (t PriceType) Valid() bool {
	switch t {
	case PriceTypePrice, PriceTypeMRP, PriceTypeDiscounted, PriceTypeMinimum:
		return true
	}
	return false
}

// Product is the stored shape of a catalog product. References to category,
// brand and tags are kept as ids.
type Product struct {
	ID                   primitive.ObjectID   `json:"_id,omitempty" bson:"_id,omitempty"`
	Name                 string               `json:"name" bson:"name"`
	ModelCode            string               `json:"modelCode,omitempty" bson:"modelCode,omitempty"`
	Description          string               `json:"description,omitempty" bson:"description,omitempty"`
	Features             []string             `json:"features" bson:"features"`
	Images               []string             `json:"images" bson:"images"`
	SpecSheets           []string             `json:"specSheets" bson:"specSheets"`
	Category             *primitive.ObjectID  `json:"category" bson:"category,omitempty"`
	Brand                *primitive.ObjectID  `json:"brand" bson:"brand,omitempty"`
	Tags                 []primitive.ObjectID `json:"tags" bson:"tags"`
	Sizes                []string             `json:"sizes" bson:"sizes"`
	Colors               []string             `json:"colors" bson:"colors"`
	Shapes               []string             `json:"shapes" bson:"shapes"`
	Price                float64              `json:"price" bson:"price"`
	MRP                  float64              `json:"mrp" bson:"mrp"`
	RedistributionPrice  float64              `json:"redistributionPrice" bson:"redistributionPrice"`
	SpecialPrice         float64              `json:"specialPrice" bson:"specialPrice"`
	IsSpecialPriceActive bool                 `json:"isSpecialPriceActive" bson:"isSpecialPriceActive"`
	ActivePriceType      PriceType            `json:"activePriceType" bson:"activePriceType"`
	CreatedAt            time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt            time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// Ref is a populated reference: the id of another document plus its name.
type Ref struct {
	ID   primitive.ObjectID `json:"_id" bson:"_id"`
	Name string             `json:"name" bson:"name"`
}

// ProductDetail is a product as returned by read endpoints, with category,
// brand and tags resolved to their names.
type ProductDetail struct {
	ID                   primitive.ObjectID `json:"_id" bson:"_id"`
	Name                 string             `json:"name" bson:"name"`
	ModelCode            string             `json:"modelCode,omitempty" bson:"modelCode,omitempty"`
	Description          string             `json:"description,omitempty" bson:"description,omitempty"`
	Features             []string           `json:"features" bson:"features"`
	Images               []string           `json:"images" bson:"images"`
	SpecSheets           []string           `json:"specSheets" bson:"specSheets"`
	Category             *Ref               `json:"category" bson:"category,omitempty"`
	Brand                *Ref               `json:"brand" bson:"brand,omitempty"`
	Tags                 []Ref              `json:"tags" bson:"tags"`
	Sizes                []string           `json:"sizes" bson:"sizes"`
	Colors               []string           `json:"colors" bson:"colors"`
	Shapes               []string           `json:"shapes" bson:"shapes"`
	Price                float64            `json:"price" bson:"price"`
	MRP                  float64            `json:"mrp" bson:"mrp"`
	RedistributionPrice  float64            `json:"redistributionPrice" bson:"redistributionPrice"`
	SpecialPrice         float64            `json:"specialPrice" bson:"specialPrice"`
	IsSpecialPriceActive bool               `json:"isSpecialPriceActive" bson:"isSpecialPriceActive"`
	ActivePriceType      PriceType          `json:"activePriceType" bson:"activePriceType"`
	CreatedAt            time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt            time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Pagination describes the position of a page inside a filtered result set.
type Pagination struct {
	CurrentPage   int   `json:"currentPage"`
	TotalPages    int   `json:"totalPages"`
	TotalProducts int64 `json:"totalProducts"`
	Limit         int   `json:"limit"`
	HasNextPage   bool  `json:"hasNextPage"`
	HasPrevPage   bool  `json:"hasPrevPage"`
	NextPage      *int  `json:"nextPage"`
	PrevPage      *int  `json:"prevPage"`
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Products   []ProductDetail `json:"products"`
	Pagination Pagination      `json:"pagination"`
}
