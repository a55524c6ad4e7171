package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	apperrors "catalog-service/common/errors"
	"catalog-service/common/logger"
	"catalog-service/models"
	awspkg "catalog-service/pkg/aws"
	"catalog-service/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	MsgBulkCreateEmpty = "Products array is required and must not be empty"
	MsgBulkUpdateEmpty = "Updates array is required and must not be empty"
	MsgBulkMissingID   = "Each update must include an id field"
	MsgJobNotFound     = "Bulk job not found"
	MsgAsyncDisabled   = "Async bulk import is not available"
)

// BulkService applies batches of product inserts and updates. One failing
// item never stops the others.
type BulkService interface {
	BulkCreate(ctx context.Context, items []ProductInput) (*models.BulkCreateResult, *apperrors.Error)
	BulkUpdate(ctx context.Context, updates []ProductPatch) (*models.BulkUpdateResult, *apperrors.Error)
	// SubmitBulkCreate queues the batch for the background worker.
	SubmitBulkCreate(ctx context.Context, items []ProductInput) (*models.BulkJob, *apperrors.Error)
	GetBulkJob(ctx context.Context, id string) (*models.BulkJob, *apperrors.Error)
}

type bulkServiceImpl struct {
	repo    repository.ProductRepo
	jobs    JobQueue
	events  EventPublisher
	metrics *awspkg.MetricsClient
	logger  *zap.Logger
}

// NewBulkService creates the bulk handler. jobs may be nil, which disables
// the async mode.
func NewBulkService(repo repository.ProductRepo, jobs JobQueue, events EventPublisher, metrics *awspkg.MetricsClient, logger *zap.Logger) BulkService {
	return &bulkServiceImpl{repo: repo, jobs: jobs, events: events, metrics: metrics, logger: logger}
}

func (s *bulkServiceImpl) BulkCreate(ctx context.Context, items []ProductInput) (*models.BulkCreateResult, *apperrors.Error) {
	if len(items) == 0 {
		return nil, apperrors.Validation(MsgBulkCreateEmpty)
	}

	result := &models.BulkCreateResult{
		InsertedProducts: []primitive.ObjectID{},
		Errors:           []models.ItemError{},
	}

	now := time.Now().UTC()
	products := make([]*models.Product, 0, len(items))
	origin := make([]int, 0, len(items))
	for i, item := range items {
		product, msg := buildProduct(item, now)
		if msg != "" {
			result.Errors = append(result.Errors, models.ItemError{Index: i, Error: msg})
			continue
		}
		products = append(products, product)
		origin = append(origin, i)
	}

	if len(products) > 0 {
		outcome, err := s.repo.CreateMany(ctx, products)
		if err != nil {
			logger.FromContext(ctx, s.logger).Error("Bulk insert failed", zap.Int("items", len(products)), zap.Error(err))
			return nil, apperrors.Internal(err)
		}
		for pos, msg := range outcome.Failed {
			result.Errors = append(result.Errors, models.ItemError{
				Index: origin[pos],
				Error: writeErrorMessage(msg, "modelCode", products[pos].ModelCode),
			})
		}
		result.InsertedProducts = append(result.InsertedProducts, outcome.InsertedIDs...)
	}

	sort.Slice(result.Errors, func(a, b int) bool { return result.Errors[a].Index < result.Errors[b].Index })
	result.SuccessCount = len(result.InsertedProducts)
	result.FailedCount = len(result.Errors)
	if result.Partial() {
		result.Message = "Bulk operation completed with some failures"
	} else {
		result.Message = fmt.Sprintf("Successfully created %d products", result.SuccessCount)
	}

	if result.SuccessCount > 0 {
		ids := make([]string, len(result.InsertedProducts))
		for i, id := range result.InsertedProducts {
			ids[i] = id.Hex()
		}
		s.events.Publish(ctx, EventProductsBulkCreated, ids...)
	}
	recordMetric(s.metrics, awspkg.MetricBulkItemsInserted, result.SuccessCount)
	recordMetric(s.metrics, awspkg.MetricBulkItemsFailed, result.FailedCount)
	logger.FromContext(ctx, s.logger).Info("Bulk create finished",
		zap.Int("inserted", result.SuccessCount), zap.Int("failed", result.FailedCount))
	return result, nil
}

// writeErrorMessage rewrites a duplicate key message so it names the field.
func writeErrorMessage(msg, field, value string) string {
	if strings.Contains(msg, "E11000") {
		return fmt.Sprintf("Duplicate %s: %s", field, value)
	}
	return msg
}

func (s *bulkServiceImpl) BulkUpdate(ctx context.Context, patches []ProductPatch) (*models.BulkUpdateResult, *apperrors.Error) {
	if len(patches) == 0 {
		return nil, apperrors.Validation(MsgBulkUpdateEmpty)
	}
	for _, p := range patches {
		if strings.TrimSpace(p.ID) == "" {
			return nil, apperrors.Validation(MsgBulkMissingID)
		}
	}

	result := &models.BulkUpdateResult{Errors: []models.ItemError{}}
	updates := make([]repository.ProductUpdate, 0, len(patches))
	origin := make([]int, 0, len(patches))
	for i, p := range patches {
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(p.ID))
		if err != nil {
			result.Errors = append(result.Errors, models.ItemError{Index: i, Error: MsgInvalidID})
			continue
		}
		update, msg := buildUpdate(id, p)
		if msg != "" {
			result.Errors = append(result.Errors, models.ItemError{Index: i, Error: msg})
			continue
		}
		updates = append(updates, update)
		origin = append(origin, i)
	}

	if len(updates) > 0 {
		outcome, err := s.repo.UpdateMany(ctx, updates)
		if err != nil {
			logger.FromContext(ctx, s.logger).Error("Bulk update failed", zap.Int("items", len(updates)), zap.Error(err))
			return nil, apperrors.Internal(err)
		}
		for pos, msg := range outcome.Failed {
			code, _ := updates[pos].Set["modelCode"].(string)
			result.Errors = append(result.Errors, models.ItemError{
				Index: origin[pos],
				Error: writeErrorMessage(msg, "modelCode", code),
			})
		}
		result.MatchedCount = outcome.MatchedCount
		result.ModifiedCount = outcome.ModifiedCount
	}

	sort.Slice(result.Errors, func(a, b int) bool { return result.Errors[a].Index < result.Errors[b].Index })
	if result.Partial() {
		result.Message = "Bulk update completed with some failures"
	} else {
		result.Message = "Bulk update completed"
	}
	logger.FromContext(ctx, s.logger).Info("Bulk update finished",
		zap.Int64("matched", result.MatchedCount),
		zap.Int64("modified", result.ModifiedCount),
		zap.Int("failed", len(result.Errors)))
	return result, nil
}

func (s *bulkServiceImpl) SubmitBulkCreate(ctx context.Context, items []ProductInput) (*models.BulkJob, *apperrors.Error) {
	if len(items) == 0 {
		return nil, apperrors.Validation(MsgBulkCreateEmpty)
	}
	if s.jobs == nil {
		return nil, apperrors.New(http.StatusServiceUnavailable, MsgAsyncDisabled, nil)
	}
	job, err := s.jobs.Enqueue(ctx, items)
	if err != nil {
		logger.FromContext(ctx, s.logger).Error("Failed to queue bulk job", zap.Error(err))
		return nil, apperrors.Internal(err)
	}
	return job, nil
}

func (s *bulkServiceImpl) GetBulkJob(ctx context.Context, id string) (*models.BulkJob, *apperrors.Error) {
	if s.jobs == nil {
		return nil, apperrors.New(http.StatusServiceUnavailable, MsgAsyncDisabled, nil)
	}
	job, err := s.jobs.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			return nil, apperrors.NotFound(MsgJobNotFound)
		}
		return nil, apperrors.Internal(err)
	}
	return job, nil
}
