package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ProductRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{
		collection: db.Collection(ProductsCollection),
	}
}

func (r *ProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		return nil, translateWriteErr("find product", err)
	}
	return &product, nil
}

func (r *ProductRepository) FindDetail(ctx context.Context, id primitive.ObjectID) (*models.ProductDetail, error) {
	details, err := r.FindDetails(ctx, ListOptions{Filter: bson.M{"_id": id}, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return nil, ErrNotFound
	}
	return &details[0], nil
}

// FindDetails runs the filter, sort and page window first and then joins the
// referenced category, brand and tags of the remaining documents.
func (r *ProductRepository) FindDetails(ctx context.Context, opts ListOptions) ([]models.ProductDetail, error) {
	pipeline := mongo.Pipeline{{{Key: "$match", Value: filterOrAll(opts.Filter)}}}
	if len(opts.Sort) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$sort", Value: opts.Sort}})
	}
	if opts.Skip > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$skip", Value: opts.Skip}})
	}
	if opts.Limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: opts.Limit}})
	}
	pipeline = append(pipeline, populateStages()...)

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate products: %w", err)
	}
	defer cursor.Close(ctx)

	products := []models.ProductDetail{}
	if err = cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

func populateStages() []bson.D {
	lookup := func(from, field string) bson.D {
		return bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: from},
			{Key: "localField", Value: field},
			{Key: "foreignField", Value: "_id"},
			{Key: "pipeline", Value: bson.A{bson.D{{Key: "$project", Value: bson.D{{Key: "name", Value: 1}}}}}},
			{Key: "as", Value: field},
		}}}
	}
	unwind := func(field string) bson.D {
		return bson.D{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$" + field},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}}
	}
	return []bson.D{
		lookup(CategoriesCollection, "category"),
		unwind("category"),
		lookup(BrandsCollection, "brand"),
		unwind("brand"),
		lookup(TagsCollection, "tags"),
	}
}

func (r *ProductRepository) Count(ctx context.Context, filter bson.M) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, filterOrAll(filter))
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return count, nil
}

func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, product)
	return translateWriteErr("insert product", err)
}

func (r *ProductRepository) CreateMany(ctx context.Context, products []*models.Product) (*InsertOutcome, error) {
	outcome := &InsertOutcome{InsertedIDs: []primitive.ObjectID{}, Failed: map[int]string{}}
	if len(products) == 0 {
		return outcome, nil
	}

	docs := make([]interface{}, len(products))
	for i, p := range products {
		if p.ID.IsZero() {
			p.ID = primitive.NewObjectID()
		}
		docs[i] = p
	}

	_, err := r.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil {
		var bwe mongo.BulkWriteException
		if !errors.As(err, &bwe) || len(bwe.WriteErrors) == 0 {
			return nil, fmt.Errorf("insert products: %w", err)
		}
		for _, we := range bwe.WriteErrors {
			outcome.Failed[we.Index] = we.Message
		}
	}

	for i, p := range products {
		if _, failed := outcome.Failed[i]; !failed {
			outcome.InsertedIDs = append(outcome.InsertedIDs, p.ID)
		}
	}
	return outcome, nil
}

func (r *ProductRepository) Update(ctx context.Context, update ProductUpdate) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": update.ID}, updateDocument(update))
	if err != nil {
		return translateWriteErr("update product", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProductRepository) UpdateMany(ctx context.Context, updates []ProductUpdate) (*UpdateOutcome, error) {
	outcome := &UpdateOutcome{Failed: map[int]string{}}
	if len(updates) == 0 {
		return outcome, nil
	}

	writes := make([]mongo.WriteModel, len(updates))
	for i, u := range updates {
		writes[i] = mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": u.ID}).
			SetUpdate(updateDocument(u)).
			SetUpsert(false)
	}

	res, err := r.collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if err != nil {
		var bwe mongo.BulkWriteException
		if !errors.As(err, &bwe) || len(bwe.WriteErrors) == 0 {
			return nil, fmt.Errorf("bulk update products: %w", err)
		}
		for _, we := range bwe.WriteErrors {
			outcome.Failed[we.Index] = we.Message
		}
	}
	if res != nil {
		outcome.MatchedCount = res.MatchedCount
		outcome.ModifiedCount = res.ModifiedCount
	}
	return outcome, nil
}

func updateDocument(u ProductUpdate) bson.M {
	set := bson.M{}
	for k, v := range u.Set {
		set[k] = v
	}
	set["updatedAt"] = time.Now().UTC()

	doc := bson.M{"$set": set}
	if len(u.Unset) > 0 {
		unset := bson.M{}
		for _, field := range u.Unset {
			unset[field] = ""
		}
		doc["$unset"] = unset
	}
	if len(u.Push) > 0 {
		push := bson.M{}
		for field, values := range u.Push {
			push[field] = bson.M{"$each": values}
		}
		doc["$push"] = push
	}
	return doc
}

func (r *ProductRepository) PullFile(ctx context.Context, id primitive.ObjectID, field, url string) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$pull": bson.M{field: url},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("pull %s: %w", field, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteOne(ctx, r.collection, id)
}

func (r *ProductRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			// Products without a model code must not collide with each other.
			Keys: bson.D{{Key: "modelCode", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("uniq_model_code").
				SetPartialFilterExpression(bson.M{"modelCode": bson.M{"$type": "string"}}),
		},
		{Keys: bson.D{{Key: "category", Value: 1}}, Options: options.Index().SetName("idx_category")},
		{Keys: bson.D{{Key: "brand", Value: 1}}, Options: options.Index().SetName("idx_brand")},
		{Keys: bson.D{{Key: "tags", Value: 1}}, Options: options.Index().SetName("idx_tags")},
		{Keys: bson.D{{Key: "price", Value: 1}}, Options: options.Index().SetName("idx_price")},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}, Options: options.Index().SetName("idx_created_at")},
	})
	if err != nil {
		return fmt.Errorf("create product indexes: %w", err)
	}
	return nil
}
