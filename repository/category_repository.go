package repository

import (
	"context"
	"fmt"

	"catalog-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CategoryRepository struct {
	collection *mongo.Collection
}

func NewCategoryRepository(db *mongo.Database) *CategoryRepository {
	return &CategoryRepository{
		collection: db.Collection(CategoriesCollection),
	}
}

func (r *CategoryRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	var category models.Category
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&category)
	if err != nil {
		return nil, translateWriteErr("find category", err)
	}
	return &category, nil
}

func (r *CategoryRepository) Find(ctx context.Context, opts ListOptions) ([]models.Category, error) {
	cursor, err := r.collection.Find(ctx, filterOrAll(opts.Filter), findOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("find categories: %w", err)
	}
	defer cursor.Close(ctx)

	categories := []models.Category{}
	if err = cursor.All(ctx, &categories); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	return categories, nil
}

func (r *CategoryRepository) FindChildren(ctx context.Context, parentIDs []primitive.ObjectID, sort bson.D) ([]models.Category, error) {
	if len(parentIDs) == 0 {
		return []models.Category{}, nil
	}
	return r.Find(ctx, ListOptions{
		Filter: bson.M{"parent": bson.M{"$in": parentIDs}},
		Sort:   sort,
	})
}

func (r *CategoryRepository) HasChildren(ctx context.Context, id primitive.ObjectID) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"parent": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count subcategories: %w", err)
	}
	return count > 0, nil
}

func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	if category.ID.IsZero() {
		category.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, category)
	return translateWriteErr("insert category", err)
}

func (r *CategoryRepository) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Category, error) {
	var category models.Category
	if err := updateOne(ctx, r.collection, id, set, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteOne(ctx, r.collection, id)
}

func (r *CategoryRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		uniqueNameIndex(),
		{Keys: bson.D{{Key: "parent", Value: 1}}, Options: options.Index().SetName("idx_parent")},
	})
	if err != nil {
		return fmt.Errorf("create category indexes: %w", err)
	}
	return nil
}
