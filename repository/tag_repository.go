package repository

import (
	"context"
	"fmt"

	"catalog-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type TagRepository struct {
	collection *mongo.Collection
}

func NewTagRepository(db *mongo.Database) *TagRepository {
	return &TagRepository{collection: db.Collection(TagsCollection)}
}

func (r *TagRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Tag, error) {
	var tag models.Tag
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&tag); err != nil {
		return nil, translateWriteErr("find tag", err)
	}
	return &tag, nil
}

func (r *TagRepository) Find(ctx context.Context, opts ListOptions) ([]models.Tag, error) {
	cursor, err := r.collection.Find(ctx, filterOrAll(opts.Filter), findOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("find tags: %w", err)
	}
	defer cursor.Close(ctx)

	tags := []models.Tag{}
	if err = cursor.All(ctx, &tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	return tags, nil
}

func (r *TagRepository) Create(ctx context.Context, tag *models.Tag) error {
	if tag.ID.IsZero() {
		tag.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, tag)
	return translateWriteErr("insert tag", err)
}

func (r *TagRepository) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Tag, error) {
	var tag models.Tag
	if err := updateOne(ctx, r.collection, id, set, &tag); err != nil {
		return nil, err
	}
	return &tag, nil
}

func (r *TagRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteOne(ctx, r.collection, id)
}

func (r *TagRepository) EnsureIndexes(ctx context.Context) error {
	if _, err := r.collection.Indexes().CreateOne(ctx, uniqueNameIndex()); err != nil {
		return fmt.Errorf("create tag indexes: %w", err)
	}
	return nil
}
