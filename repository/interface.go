package repository

import (
	"context"
	"errors"

	"catalog-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotFound is returned when no document matches the id.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicateKey is returned when a write violates a unique index.
	ErrDuplicateKey = errors.New("duplicate key")
)

// ListOptions carries a prepared filter, sort and page window for a Find.
// Zero Limit means no limit.
type ListOptions struct {
	Filter bson.M
	Sort   bson.D
	Skip   int64
	Limit  int64
}

// CategoryRepo defines the operations used for category management.
type CategoryRepo interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error)
	Find(ctx context.Context, opts ListOptions) ([]models.Category, error)
	// FindChildren returns the direct children of all given parents.
	FindChildren(ctx context.Context, parentIDs []primitive.ObjectID, sort bson.D) ([]models.Category, error)
	HasChildren(ctx context.Context, id primitive.ObjectID) (bool, error)
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Category, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	EnsureIndexes(ctx context.Context) error
}

type BrandRepo interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Brand, error)
	Find(ctx context.Context, opts ListOptions) ([]models.Brand, error)
	Create(ctx context.Context, brand *models.Brand) error
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Brand, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	EnsureIndexes(ctx context.Context) error
}

type TagRepo interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Tag, error)
	Find(ctx context.Context, opts ListOptions) ([]models.Tag, error)
	Create(ctx context.Context, tag *models.Tag) error
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Tag, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	EnsureIndexes(ctx context.Context) error
}

// ProductUpdate is one partial update: fields to $set, fields to $unset and
// values to append to array fields.
type ProductUpdate struct {
	ID    primitive.ObjectID
	Set   bson.M
	Unset []string
	Push  map[string][]string
}

// InsertOutcome reports an unordered multi-insert. Failed maps the position
// in the submitted slice to the store's error message.
type InsertOutcome struct {
	InsertedIDs []primitive.ObjectID
	Failed      map[int]string
}

// UpdateOutcome reports an unordered multi-update.
type UpdateOutcome struct {
	MatchedCount  int64
	ModifiedCount int64
	Failed        map[int]string
}

// ProductRepo defines the operations used by the product and bulk services.
type ProductRepo interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	// FindDetail returns the product with category, brand and tags populated.
	FindDetail(ctx context.Context, id primitive.ObjectID) (*models.ProductDetail, error)
	FindDetails(ctx context.Context, opts ListOptions) ([]models.ProductDetail, error)
	Count(ctx context.Context, filter bson.M) (int64, error)
	Create(ctx context.Context, product *models.Product) error
	// CreateMany inserts unordered. Individual write failures are reported in
	// the outcome; the returned error is only set for failures of the whole call.
	CreateMany(ctx context.Context, products []*models.Product) (*InsertOutcome, error)
	Update(ctx context.Context, update ProductUpdate) error
	UpdateMany(ctx context.Context, updates []ProductUpdate) (*UpdateOutcome, error)
	// PullFile removes url from the given array field.
	PullFile(ctx context.Context, id primitive.ObjectID, field, url string) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	EnsureIndexes(ctx context.Context) error
}
