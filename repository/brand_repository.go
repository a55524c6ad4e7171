package repository

import (
	"context"
	"fmt"

	"catalog-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type BrandRepository struct {
	collection *mongo.Collection
}

func NewBrandRepository(db *mongo.Database) *BrandRepository {
	return &BrandRepository{collection: db.Collection(BrandsCollection)}
}

func (r *BrandRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Brand, error) {
	var brand models.Brand
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&brand); err != nil {
		return nil, translateWriteErr("find brand", err)
	}
	return &brand, nil
}

func (r *BrandRepository) Find(ctx context.Context, opts ListOptions) ([]models.Brand, error) {
	cursor, err := r.collection.Find(ctx, filterOrAll(opts.Filter), findOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("find brands: %w", err)
	}
	defer cursor.Close(ctx)

	brands := []models.Brand{}
	if err = cursor.All(ctx, &brands); err != nil {
		return nil, fmt.Errorf("decode brands: %w", err)
	}
	return brands, nil
}

func (r *BrandRepository) Create(ctx context.Context, brand *models.Brand) error {
	if brand.ID.IsZero() {
		brand.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, brand)
	return translateWriteErr("insert brand", err)
}

func (r *BrandRepository) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Brand, error) {
	var brand models.Brand
	if err := updateOne(ctx, r.collection, id, set, &brand); err != nil {
		return nil, err
	}
	return &brand, nil
}

func (r *BrandRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteOne(ctx, r.collection, id)
}

func (r *BrandRepository) EnsureIndexes(ctx context.Context) error {
	if _, err := r.collection.Indexes().CreateOne(ctx, uniqueNameIndex()); err != nil {
		return fmt.Errorf("create brand indexes: %w", err)
	}
	return nil
}
