package main

import (
	"context"
	"net/http"
	"time"

	"catalog-service/blobstore"
	apperrors "catalog-service/common/errors"
	"catalog-service/common/logger"
	"catalog-service/common/middleware"
	"catalog-service/controllers"
	"catalog-service/database"
	awspkg "catalog-service/pkg/aws"
	"catalog-service/routes"
	"catalog-service/services"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const requestTimeout = 30 * time.Second

// newServer wires repositories, services and controllers into the router.
// The returned func stops background helpers.
func (a *app) newServer(workerCtx context.Context, rp repos, store blobstore.Store, rdb *redis.Client) (http.Handler, func()) {
	log := a.log

	var events services.EventPublisher
	if a.cfg.EventsTopicArn != "" && a.awsCfg != nil {
		events = services.NewEventPublisher(awspkg.NewSNSClient(*a.awsCfg), a.cfg.EventsTopicArn, log)
	} else {
		events = services.NewEventPublisher(nil, "", log)
	}

	var (
		jobs  services.JobQueue
		queue *services.RedisJobQueue
	)
	if rdb != nil {
		queue = services.NewRedisJobQueue(rdb)
		jobs = queue
	}

	uploadService := services.NewUploadService(store, a.metrics, log)
	categoryService := services.NewCategoryService(rp.categories, log)
	brandService := services.NewBrandService(rp.brands, uploadService, log)
	tagService := services.NewTagService(rp.tags, log)
	query := services.NewProductQueryBuilder(rp.categories)
	productService := services.NewProductService(rp.products, query, uploadService, events, a.metrics, log)
	bulkService := services.NewBulkService(rp.products, jobs, events, a.metrics, log)

	if queue != nil {
		services.StartBulkWorker(workerCtx, queue, bulkService, a.metrics, log)
	}

	v := controllers.NewRequestValidator()
	ctrls := routes.Controllers{
		Category: controllers.NewCategoryController(categoryService, v),
		Brand:    controllers.NewBrandController(brandService, v),
		Tag:      controllers.NewTagController(tagService, v),
		Product:  controllers.NewProductController(productService, v),
		Bulk:     controllers.NewBulkController(bulkService, v),
		Upload:   controllers.NewUploadController(uploadService, v),
	}

	limiter := middleware.NewRateLimiter(rate.Limit(20), 40, 10*time.Minute)
	done := make(chan struct{})
	go limiter.RunCleanup(done)

	if a.cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.MaxMultipartMemory = controllers.MaxMultipartMemory
	r.Use(
		logger.RequestID(),
		middleware.RequestLogger(log),
		gin.Recovery(),
		middleware.SecurityHeaders(),
		middleware.CORSMiddleware(a.cfg.AllowedOrigins),
		middleware.RateLimitMiddleware(limiter),
		middleware.MetricsMiddleware(a.metrics, serviceName),
		middleware.Timeout(requestTimeout),
		apperrors.ErrorMiddleware(),
	)

	r.GET("/health", healthHandler(log))
	routes.RegisterRoutes(r, ctrls)

	return r, func() { close(done) }
}

func healthHandler(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := database.Ping(ctx); err != nil {
			log.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DOWN", "mongo": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	}
}
