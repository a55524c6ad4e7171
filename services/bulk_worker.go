package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"catalog-service/common/logger"
	"catalog-service/models"
	awspkg "catalog-service/pkg/aws"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	bulkQueueKey = "catalog:bulk:queue"
	bulkJobTTL   = 24 * time.Hour
	// finishTimeout bounds the final save, which must outlive a cancelled
	// worker context.
	finishTimeout = 5 * time.Second
)

// ErrJobNotFound is returned for unknown or expired jobs.
var ErrJobNotFound = errors.New("bulk job not found")

// JobQueue holds asynchronous bulk create jobs.
type JobQueue interface {
	Enqueue(ctx context.Context, items []ProductInput) (*models.BulkJob, error)
	Get(ctx context.Context, id string) (*models.BulkJob, error)
}

// RedisJobQueue keeps job records and payloads in Redis and the pending job
// ids in a list consumed with BLPOP.
type RedisJobQueue struct {
	rdb *redis.Client
}

func NewRedisJobQueue(rdb *redis.Client) *RedisJobQueue {
	return &RedisJobQueue{rdb: rdb}
}

func jobKey(id string) string     { return fmt.Sprintf("catalog:bulk:job:%s", id) }
func payloadKey(id string) string { return fmt.Sprintf("catalog:bulk:payload:%s", id) }

func (q *RedisJobQueue) Enqueue(ctx context.Context, items []ProductInput) (*models.BulkJob, error) {
	job := &models.BulkJob{ID: uuid.New().String(), Status: models.JobQueued}

	payload, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode bulk payload: %w", err)
	}
	if err := q.rdb.Set(ctx, payloadKey(job.ID), payload, bulkJobTTL).Err(); err != nil {
		return nil, fmt.Errorf("store bulk payload: %w", err)
	}
	if err := q.save(ctx, job); err != nil {
		return nil, err
	}
	if err := q.rdb.RPush(ctx, bulkQueueKey, job.ID).Err(); err != nil {
		return nil, fmt.Errorf("queue bulk job: %w", err)
	}
	return job, nil
}

func (q *RedisJobQueue) Get(ctx context.Context, id string) (*models.BulkJob, error) {
	val, err := q.rdb.Get(ctx, jobKey(id)).Result()
	if err == redis.Nil {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read bulk job: %w", err)
	}
	var job models.BulkJob
	if err := json.Unmarshal([]byte(val), &job); err != nil {
		return nil, fmt.Errorf("decode bulk job: %w", err)
	}
	return &job, nil
}

func (q *RedisJobQueue) save(ctx context.Context, job *models.BulkJob) error {
	b, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode bulk job: %w", err)
	}
	if err := q.rdb.Set(ctx, jobKey(job.ID), b, bulkJobTTL).Err(); err != nil {
		return fmt.Errorf("store bulk job: %w", err)
	}
	return nil
}

// next blocks until a job id is queued and returns it with its payload.
func (q *RedisJobQueue) next(ctx context.Context) (string, []ProductInput, error) {
	res, err := q.rdb.BLPop(ctx, 0, bulkQueueKey).Result()
	if err != nil {
		return "", nil, err
	}
	if len(res) < 2 {
		return "", nil, nil
	}
	id := res[1]

	val, err := q.rdb.Get(ctx, payloadKey(id)).Result()
	if err != nil {
		return id, nil, fmt.Errorf("read bulk payload: %w", err)
	}
	var items []ProductInput
	if err := json.Unmarshal([]byte(val), &items); err != nil {
		return id, nil, fmt.Errorf("decode bulk payload: %w", err)
	}
	return id, items, nil
}

// StartBulkWorker consumes queued bulk create jobs until ctx is cancelled.
func StartBulkWorker(ctx context.Context, queue *RedisJobQueue, bulk BulkService, metrics *awspkg.MetricsClient, log *zap.Logger) {
	if queue == nil || bulk == nil {
		log.Warn("bulk worker not started: missing dependencies")
		return
	}

	go func() {
		log.Info("bulk worker started", zap.String("queue", bulkQueueKey))
		for {
			select {
			case <-ctx.Done():
				log.Info("bulk worker stopping")
				return
			default:
			}

			id, items, err := queue.next(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if id == "" {
					log.Error("redis BLPop failed", zap.Error(err))
					time.Sleep(500 * time.Millisecond)
					continue
				}
				log.Error("failed to load bulk job", zap.String("job", id), zap.Error(err))
				queue.finish(log, &models.BulkJob{ID: id, Status: models.JobFailed, Error: err.Error()})
				continue
			}
			if id == "" {
				continue
			}
			runBulkJob(ctx, queue, bulk, metrics, log, id, items)
		}
	}()
}

func runBulkJob(ctx context.Context, queue *RedisJobQueue, bulk BulkService, metrics *awspkg.MetricsClient, log *zap.Logger, id string, items []ProductInput) {
	jobCtx := logger.WithRequestID(ctx, id)
	if err := queue.save(jobCtx, &models.BulkJob{ID: id, Status: models.JobProcessing}); err != nil {
		log.Warn("failed to mark bulk job processing", zap.String("job", id), zap.Error(err))
	}

	job := &models.BulkJob{ID: id}
	result, appErr := bulk.BulkCreate(jobCtx, items)
	if appErr != nil {
		log.Error("bulk job failed", zap.String("job", id), zap.Error(appErr))
		job.Status = models.JobFailed
		job.Error = appErr.Message
	} else {
		job.Status = models.JobDone
		job.Result = result
	}
	queue.finish(log, job)
	recordMetric(metrics, awspkg.MetricBulkJobsProcessed, 1)
}

// finish stores the final job state and drops the payload. It runs on its own
// context so a job interrupted by shutdown is still recorded as failed.
func (q *RedisJobQueue) finish(log *zap.Logger, job *models.BulkJob) {
	ctx, cancel := context.WithTimeout(context.Background(), finishTimeout)
	defer cancel()

	if err := q.save(ctx, job); err != nil {
		log.Error("failed to store bulk job result", zap.String("job", job.ID), zap.Error(err))
	}
	q.rdb.Del(ctx, payloadKey(job.ID))
}
