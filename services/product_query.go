package services

import (
	"context"
	"math"
	"strings"

	"catalog-service/models"
	"catalog-service/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Paging defaults.
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
	// MaxPage keeps (page-1)*limit far below the int64 range of $skip.
	MaxPage = math.MaxInt32
)

// productFilter adds one recognised filter to the query. Unset parameters
// leave the query untouched.
type productFilter func(ctx context.Context, p ListProductsParams, query bson.M) error

// productSortFields is the closed set of sortable keys.
var productSortFields = map[string]string{
	"price":    "price",
	"name":     "name",
	"brand":    "brand",
	"category": "category",
}

// ProductQueryBuilder turns listing parameters into a filter, sort and page
// window over the products collection.
type ProductQueryBuilder struct {
	categories repository.CategoryRepo
	filters    []productFilter
}

func NewProductQueryBuilder(categories repository.CategoryRepo) *ProductQueryBuilder {
	b := &ProductQueryBuilder{categories: categories}
	b.filters = []productFilter{
		searchFilter,
		b.categoryFilter,
		brandFilter,
		tagsFilter,
		priceFilter,
		specialOnlyFilter,
	}
	return b
}

// Build returns the repository options for p. Page and Limit must already be
// validated.
func (b *ProductQueryBuilder) Build(ctx context.Context, p ListProductsParams) (repository.ListOptions, error) {
	query := bson.M{}
	for _, apply := range b.filters {
		if err := apply(ctx, p, query); err != nil {
			return repository.ListOptions{}, err
		}
	}

	page, limit := normalizePaging(p.Page, p.Limit)
	return repository.ListOptions{
		Filter: query,
		Sort:   productSort(p.SortBy, p.SortOrder),
		Skip:   int64((page - 1) * limit),
		Limit:  int64(limit),
	}, nil
}

func normalizePaging(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

func searchFilter(_ context.Context, p ListProductsParams, query bson.M) error {
	search := strings.TrimSpace(p.Search)
	if search == "" {
		return nil
	}
	re := literalRegex(search)
	query["$or"] = bson.A{
		bson.M{"name": re},
		bson.M{"modelCode": re},
	}
	return nil
}

// categoryFilter matches the category and its direct children. Subcategories
// have no children, so one level covers the whole subtree.
func (b *ProductQueryBuilder) categoryFilter(ctx context.Context, p ListProductsParams, query bson.M) error {
	raw := strings.TrimSpace(p.Category)
	if raw == "" {
		return nil
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		query["category"] = raw
		return nil
	}

	children, err := b.categories.FindChildren(ctx, []primitive.ObjectID{id}, nil)
	if err != nil {
		return err
	}
	ids := make([]primitive.ObjectID, 0, len(children)+1)
	ids = append(ids, id)
	for _, child := range children {
		ids = append(ids, child.ID)
	}
	query["category"] = bson.M{"$in": ids}
	return nil
}

func brandFilter(_ context.Context, p ListProductsParams, query bson.M) error {
	raw := strings.TrimSpace(p.Brand)
	if raw == "" {
		return nil
	}
	query["brand"] = idOrLiteral(raw)
	return nil
}

func tagsFilter(_ context.Context, p ListProductsParams, query bson.M) error {
	var values bson.A
	for _, t := range p.Tags {
		for _, part := range strings.Split(t, ",") {
			if part = strings.TrimSpace(part); part != "" {
				values = append(values, idOrLiteral(part))
			}
		}
	}
	if len(values) > 0 {
		query["tags"] = bson.M{"$in": values}
	}
	return nil
}

func priceFilter(_ context.Context, p ListProductsParams, query bson.M) error {
	bounds := bson.M{}
	if p.MinPrice != nil {
		bounds["$gte"] = *p.MinPrice
	}
	if p.MaxPrice != nil {
		bounds["$lte"] = *p.MaxPrice
	}
	if len(bounds) > 0 {
		query["price"] = bounds
	}
	return nil
}

func specialOnlyFilter(_ context.Context, p ListProductsParams, query bson.M) error {
	if p.SpecialOnly {
		query["activePriceType"] = bson.M{"$in": models.SpecialPriceTypes}
	}
	return nil
}

// idOrLiteral keeps a malformed id as a string so it matches nothing.
func idOrLiteral(s string) interface{} {
	if id, err := primitive.ObjectIDFromHex(s); err == nil {
		return id
	}
	return s
}

// productSort orders by a recognised key, tie-broken by _id so pages are
// stable. Unrecognised keys sort newest first.
func productSort(sortBy, sortOrder string) bson.D {
	field, ok := productSortFields[strings.TrimSpace(sortBy)]
	if !ok {
		return bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
	}
	dir := sortDirection(sortOrder)
	return bson.D{{Key: field, Value: dir}, {Key: "_id", Value: dir}}
}

// NewPagination computes the page metadata for total matches.
func NewPagination(page, limit int, total int64) models.Pagination {
	page, limit = normalizePaging(page, limit)
	totalPages := int((total + int64(limit) - 1) / int64(limit))

	p := models.Pagination{
		CurrentPage:   page,
		TotalPages:    totalPages,
		TotalProducts: total,
		Limit:         limit,
		HasNextPage:   page < totalPages,
		HasPrevPage:   page > 1,
	}
	if p.HasNextPage {
		next := page + 1
		p.NextPage = &next
	}
	if p.HasPrevPage {
		prev := page - 1
		p.PrevPage = &prev
	}
	return p
}
