package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"catalog-service/blobstore"
	apperrors "catalog-service/common/errors"
	"catalog-service/common/logger"
	"catalog-service/models"
	awspkg "catalog-service/pkg/aws"
	"catalog-service/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	MsgProductNotFound      = "Product not found"
	MsgModelCodeExists      = "Product with this model code already exists"
	MsgProductNameRequired  = "Product name is required"
	MsgProductDeleted       = "Product deleted successfully"
	MsgImageURLRequired     = "Image URL is required"
	MsgSpecSheetURLRequired = "Spec sheet URL is required"
)

// ProductService defines the product operations.
type ProductService interface {
	CreateProduct(ctx context.Context, in ProductInput) (*models.ProductDetail, *apperrors.Error)
	CreateProductWithUploads(ctx context.Context, in ProductInput, images, specSheets []FileUpload) (*models.ProductDetail, *apperrors.Error)
	GetProduct(ctx context.Context, id primitive.ObjectID) (*models.ProductDetail, *apperrors.Error)
	ListProducts(ctx context.Context, params ListProductsParams) (*models.ProductPage, *apperrors.Error)
	UpdateProduct(ctx context.Context, id primitive.ObjectID, patch ProductPatch) (*models.ProductDetail, *apperrors.Error)
	UpdateProductWithUploads(ctx context.Context, id primitive.ObjectID, patch ProductPatch, images, specSheets []FileUpload) (*models.ProductDetail, *apperrors.Error)
	DeleteProduct(ctx context.Context, id primitive.ObjectID) *apperrors.Error
	DeleteProductImage(ctx context.Context, id primitive.ObjectID, url string) (*models.ProductDetail, *apperrors.Error)
	DeleteProductSpecSheet(ctx context.Context, id primitive.ObjectID, url string) (*models.ProductDetail, *apperrors.Error)
}

type productServiceImpl struct {
	repo    repository.ProductRepo
	query   *ProductQueryBuilder
	uploads UploadService
	events  EventPublisher
	metrics *awspkg.MetricsClient
	logger  *zap.Logger
}

func NewProductService(
	repo repository.ProductRepo,
	query *ProductQueryBuilder,
	uploads UploadService,
	events EventPublisher,
	metrics *awspkg.MetricsClient,
	logger *zap.Logger,
) ProductService {
	return &productServiceImpl{
		repo:    repo,
		query:   query,
		uploads: uploads,
		events:  events,
		metrics: metrics,
		logger:  logger,
	}
}

func (s *productServiceImpl) CreateProduct(ctx context.Context, in ProductInput) (*models.ProductDetail, *apperrors.Error) {
	product, msg := buildProduct(in, time.Now().UTC())
	if msg != "" {
		return nil, apperrors.Validation(msg)
	}

	if err := s.repo.Create(ctx, product); err != nil {
		if !errors.Is(err, repository.ErrDuplicateKey) {
			logger.FromContext(ctx, s.logger).Error("Failed to create product", zap.Error(err))
		}
		return nil, storeError(err, MsgProductNotFound, MsgModelCodeExists)
	}

	s.events.Publish(ctx, EventProductCreated, product.ID.Hex())
	recordMetric(s.metrics, awspkg.MetricProductsCreated, 1)
	logger.FromContext(ctx, s.logger).Info("Product created", zap.String("id", product.ID.Hex()))
	return s.GetProduct(ctx, product.ID)
}

func (s *productServiceImpl) CreateProductWithUploads(ctx context.Context, in ProductInput, images, specSheets []FileUpload) (*models.ProductDetail, *apperrors.Error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperrors.Validation(MsgProductNameRequired)
	}
	if appErr := checkUploads(images, specSheets); appErr != nil {
		return nil, appErr
	}

	imageURLs, specURLs, appErr := s.uploadFiles(ctx, in.Name, images, specSheets)
	if appErr != nil {
		return nil, appErr
	}
	in.Images = append(in.Images, imageURLs...)
	in.SpecSheets = append(in.SpecSheets, specURLs...)
	return s.CreateProduct(ctx, in)
}

// checkUploads validates both batches so nothing is stored when either is
// rejected.
func checkUploads(images, specSheets []FileUpload) *apperrors.Error {
	if appErr := ProductImages.Check(images); appErr != nil {
		return appErr
	}
	return SpecSheets.Check(specSheets)
}

func (s *productServiceImpl) uploadFiles(ctx context.Context, name string, images, specSheets []FileUpload) ([]string, []string, *apperrors.Error) {
	var imageURLs, specURLs []string
	if len(images) > 0 {
		files, appErr := s.uploads.Upload(ctx, ProductImages, name, images)
		if appErr != nil {
			return nil, nil, appErr
		}
		imageURLs = fileURLs(files)
	}
	if len(specSheets) > 0 {
		files, appErr := s.uploads.Upload(ctx, SpecSheets, name, specSheets)
		if appErr != nil {
			return nil, nil, appErr
		}
		specURLs = fileURLs(files)
	}
	return imageURLs, specURLs, nil
}

func fileURLs(files []UploadedFile) []string {
	urls := make([]string, len(files))
	for i, f := range files {
		urls[i] = f.URL
	}
	return urls
}

func (s *productServiceImpl) GetProduct(ctx context.Context, id primitive.ObjectID) (*models.ProductDetail, *apperrors.Error) {
	product, err := s.repo.FindDetail(ctx, id)
	if err != nil {
		return nil, storeError(err, MsgProductNotFound, MsgModelCodeExists)
	}
	return product, nil
}

// ListProducts counts the unpaginated matches with the same filter used for
// the page.
func (s *productServiceImpl) ListProducts(ctx context.Context, params ListProductsParams) (*models.ProductPage, *apperrors.Error) {
	opts, err := s.query.Build(ctx, params)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	total, err := s.repo.Count(ctx, opts.Filter)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	products, err := s.repo.FindDetails(ctx, opts)
	if err != nil {
		logger.FromContext(ctx, s.logger).Error("Failed to list products", zap.Error(err))
		return nil, apperrors.Internal(err)
	}

	return &models.ProductPage{
		Products:   products,
		Pagination: NewPagination(params.Page, params.Limit, total),
	}, nil
}

func (s *productServiceImpl) UpdateProduct(ctx context.Context, id primitive.ObjectID, patch ProductPatch) (*models.ProductDetail, *apperrors.Error) {
	update, msg := buildUpdate(id, patch)
	if msg != "" {
		return nil, apperrors.Validation(msg)
	}
	return s.applyUpdate(ctx, update)
}

func (s *productServiceImpl) applyUpdate(ctx context.Context, update repository.ProductUpdate) (*models.ProductDetail, *apperrors.Error) {
	if err := s.repo.Update(ctx, update); err != nil {
		if !errors.Is(err, repository.ErrNotFound) && !errors.Is(err, repository.ErrDuplicateKey) {
			logger.FromContext(ctx, s.logger).Error("Failed to update product", zap.String("id", update.ID.Hex()), zap.Error(err))
		}
		return nil, storeError(err, MsgProductNotFound, MsgModelCodeExists)
	}
	s.events.Publish(ctx, EventProductUpdated, update.ID.Hex())
	return s.GetProduct(ctx, update.ID)
}

// UpdateProductWithUploads appends the uploaded files to the stored lists.
// When the patch replaces a list, the uploads are appended to the new list.
func (s *productServiceImpl) UpdateProductWithUploads(ctx context.Context, id primitive.ObjectID, patch ProductPatch, images, specSheets []FileUpload) (*models.ProductDetail, *apperrors.Error) {
	update, msg := buildUpdate(id, patch)
	if msg != "" {
		return nil, apperrors.Validation(msg)
	}
	if appErr := checkUploads(images, specSheets); appErr != nil {
		return nil, appErr
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, MsgProductNotFound, MsgModelCodeExists)
	}
	name := current.Name
	if patch.Name != nil && strings.TrimSpace(*patch.Name) != "" {
		name = *patch.Name
	}

	imageURLs, specURLs, appErr := s.uploadFiles(ctx, name, images, specSheets)
	if appErr != nil {
		return nil, appErr
	}
	appendUploaded(&update, "images", imageURLs)
	appendUploaded(&update, "specSheets", specURLs)
	return s.applyUpdate(ctx, update)
}

func appendUploaded(update *repository.ProductUpdate, field string, urls []string) {
	if len(urls) == 0 {
		return
	}
	if replaced, ok := update.Set[field].([]string); ok {
		update.Set[field] = append(replaced, urls...)
		return
	}
	if update.Push == nil {
		update.Push = map[string][]string{}
	}
	update.Push[field] = urls
}

func (s *productServiceImpl) DeleteProduct(ctx context.Context, id primitive.ObjectID) *apperrors.Error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, MsgProductNotFound, MsgModelCodeExists)
	}
	s.events.Publish(ctx, EventProductDeleted, id.Hex())
	recordMetric(s.metrics, awspkg.MetricProductsDeleted, 1)
	logger.FromContext(ctx, s.logger).Info("Product deleted", zap.String("id", id.Hex()))
	return nil
}

func (s *productServiceImpl) DeleteProductImage(ctx context.Context, id primitive.ObjectID, url string) (*models.ProductDetail, *apperrors.Error) {
	return s.removeFile(ctx, id, "images", url, blobstore.ResourceImage, MsgImageURLRequired, "Image not found on product")
}

func (s *productServiceImpl) DeleteProductSpecSheet(ctx context.Context, id primitive.ObjectID, url string) (*models.ProductDetail, *apperrors.Error) {
	return s.removeFile(ctx, id, "specSheets", url, blobstore.ResourceRaw, MsgSpecSheetURLRequired, "Spec sheet not found on product")
}

// removeFile drops the reference first and then deletes the blob best effort.
func (s *productServiceImpl) removeFile(ctx context.Context, id primitive.ObjectID, field, url string, rt blobstore.ResourceType, requiredMsg, missingMsg string) (*models.ProductDetail, *apperrors.Error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, apperrors.Validation(requiredMsg)
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, MsgProductNotFound, MsgModelCodeExists)
	}
	list := product.Images
	if field == "specSheets" {
		list = product.SpecSheets
	}
	if !contains(list, url) {
		return nil, apperrors.NotFound(missingMsg)
	}

	if err := s.repo.PullFile(ctx, id, field, url); err != nil {
		return nil, storeError(err, MsgProductNotFound, MsgModelCodeExists)
	}
	s.uploads.DeleteURL(ctx, url, rt)
	s.events.Publish(ctx, EventProductUpdated, id.Hex())
	return s.GetProduct(ctx, id)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// buildProduct validates a create payload. A non-empty message describes the
// first problem found.
func buildProduct(in ProductInput, now time.Time) (*models.Product, string) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, MsgProductNameRequired
	}
	if msg := checkPrices(in.Price, in.MRP, in.RedistributionPrice, in.SpecialPrice); msg != "" {
		return nil, msg
	}

	priceType := models.PriceTypePrice
	if t := strings.TrimSpace(in.ActivePriceType); t != "" {
		priceType = models.PriceType(t)
		if !priceType.Valid() {
			return nil, fmt.Sprintf("Invalid activePriceType: %s", t)
		}
	}

	category, msg := optionalRef("category", in.Category)
	if msg != "" {
		return nil, msg
	}
	brand, msg := optionalRef("brand", in.Brand)
	if msg != "" {
		return nil, msg
	}
	tags, msg := parseTagIDs(in.Tags)
	if msg != "" {
		return nil, msg
	}

	return &models.Product{
		Name:                 name,
		ModelCode:            strings.TrimSpace(in.ModelCode),
		Description:          in.Description,
		Features:             trimAll(in.Features),
		Images:               trimAll(in.Images),
		SpecSheets:           trimAll(in.SpecSheets),
		Category:             category,
		Brand:                brand,
		Tags:                 tags,
		Sizes:                trimAll(in.Sizes),
		Colors:               trimAll(in.Colors),
		Shapes:               trimAll(in.Shapes),
		Price:                in.Price,
		MRP:                  in.MRP,
		RedistributionPrice:  in.RedistributionPrice,
		SpecialPrice:         in.SpecialPrice,
		IsSpecialPriceActive: in.IsSpecialPriceActive,
		ActivePriceType:      priceType,
		CreatedAt:            now,
		UpdatedAt:            now,
	}, ""
}

func checkPrices(prices ...float64) string {
	for _, p := range prices {
		if p < 0 {
			return "Prices must not be negative"
		}
	}
	return ""
}

func optionalRef(field, raw string) (*primitive.ObjectID, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ""
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return nil, fmt.Sprintf("Invalid %s id: %s", field, raw)
	}
	return &id, ""
}

func parseTagIDs(raw []string) ([]primitive.ObjectID, string) {
	ids := make([]primitive.ObjectID, 0, len(raw))
	seen := make(map[primitive.ObjectID]bool, len(raw))
	for _, t := range trimAll(raw) {
		id, err := primitive.ObjectIDFromHex(t)
		if err != nil {
			return nil, fmt.Sprintf("Invalid tag id: %s", t)
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, ""
}

// buildUpdate turns a patch into a partial update. Only the named fields
// change.
func buildUpdate(id primitive.ObjectID, p ProductPatch) (repository.ProductUpdate, string) {
	u := repository.ProductUpdate{ID: id, Set: bson.M{}}

	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return u, MsgProductNameRequired
		}
		u.Set["name"] = name
	}
	if p.ModelCode != nil {
		if code := strings.TrimSpace(*p.ModelCode); code != "" {
			u.Set["modelCode"] = code
		} else {
			u.Unset = append(u.Unset, "modelCode")
		}
	}
	if p.Description != nil {
		u.Set["description"] = *p.Description
	}

	lists := []struct {
		field  string
		values *[]string
	}{
		{"features", p.Features},
		{"images", p.Images},
		{"specSheets", p.SpecSheets},
		{"sizes", p.Sizes},
		{"colors", p.Colors},
		{"shapes", p.Shapes},
	}
	for _, l := range lists {
		if l.values != nil {
			u.Set[l.field] = trimAll(*l.values)
		}
	}

	refs := []struct {
		field string
		value OptionalID
	}{
		{"category", p.Category},
		{"brand", p.Brand},
	}
	for _, r := range refs {
		if !r.value.Set {
			continue
		}
		var raw string
		if r.value.Value != nil {
			raw = *r.value.Value
		}
		ref, msg := optionalRef(r.field, raw)
		if msg != "" {
			return u, msg
		}
		if ref == nil {
			u.Unset = append(u.Unset, r.field)
		} else {
			u.Set[r.field] = *ref
		}
	}

	if p.Tags != nil {
		tags, msg := parseTagIDs(*p.Tags)
		if msg != "" {
			return u, msg
		}
		u.Set["tags"] = tags
	}

	prices := []struct {
		field string
		value *float64
	}{
		{"price", p.Price},
		{"mrp", p.MRP},
		{"redistributionPrice", p.RedistributionPrice},
		{"specialPrice", p.SpecialPrice},
	}
	for _, pr := range prices {
		if pr.value == nil {
			continue
		}
		if *pr.value < 0 {
			return u, "Prices must not be negative"
		}
		u.Set[pr.field] = *pr.value
	}

	if p.IsSpecialPriceActive != nil {
		u.Set["isSpecialPriceActive"] = *p.IsSpecialPriceActive
	}
	if p.ActivePriceType != nil {
		t := models.PriceType(strings.TrimSpace(*p.ActivePriceType))
		if !t.Valid() {
			return u, fmt.Sprintf("Invalid activePriceType: %s", *p.ActivePriceType)
		}
		u.Set["activePriceType"] = t
	}
	return u, ""
}
