package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog-service/blobstore"
	"catalog-service/common/logger"
	"catalog-service/database"
	awspkg "catalog-service/pkg/aws"
	"catalog-service/repository"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const serviceName = "catalog-service"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Catalog REST service for products, categories, brands and tags",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP server",
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "ensure-indexes",
			Short: "Create the MongoDB indexes and exit",
			RunE:  runEnsureIndexes,
		},
	)
	return root
}

// app holds the process-wide clients built at startup.
type app struct {
	cfg     *Config
	log     *zap.Logger
	awsCfg  *sdkaws.Config
	metrics *awspkg.MetricsClient
	logs    *awspkg.CloudWatchLogsClient
}

func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := LoadConfig(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		return nil, err
	}
	a := &app{cfg: cfg}

	if cfg.NeedsAWS() {
		awsCfg, err := awspkg.LoadAWSConfig(ctx)
		if err != nil {
			return nil, err
		}
		a.awsCfg = &awsCfg
		a.metrics = awspkg.NewMetricsClient(awsCfg)
	}

	var extra io.Writer
	if cfg.CloudWatch && a.awsCfg != nil {
		cwl, err := awspkg.NewCloudWatchLogsClient(ctx, *a.awsCfg, serviceName)
		if err != nil {
			fmt.Fprintln(os.Stderr, "CloudWatch Logs disabled:", err)
		} else if cwl.IsEnabled() {
			a.logs = cwl
			extra = cwl
			go cwl.Run(ctx, 5*time.Second)
		}
	}

	log, err := logger.New(cfg.Env, extra)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	zap.ReplaceGlobals(log)
	a.log = log

	if err := database.ConnectWithConfig(cfg.MongoURI, cfg.MongoDB); err != nil {
		log.Error("Failed to connect to MongoDB", zap.Error(err))
		return nil, err
	}
	return a, nil
}

func (a *app) close() {
	if err := database.Close(); err != nil {
		a.log.Error("Failed to close MongoDB", zap.Error(err))
	}
	_ = a.log.Sync()

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.logs.Flush(flushCtx); err != nil {
		fmt.Fprintln(os.Stderr, "CloudWatch flush failed:", err)
	}
}

type repos struct {
	categories *repository.CategoryRepository
	brands     *repository.BrandRepository
	tags       *repository.TagRepository
	products   *repository.ProductRepository
}

func newRepos() repos {
	return repos{
		categories: repository.NewCategoryRepository(database.DB),
		brands:     repository.NewBrandRepository(database.DB),
		tags:       repository.NewTagRepository(database.DB),
		products:   repository.NewProductRepository(database.DB),
	}
}

func (r repos) ensureIndexes(ctx context.Context) error {
	return database.EnsureIndexes(ctx, r.categories, r.brands, r.tags, r.products)
}

func runEnsureIndexes(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	if err := newRepos().ensureIndexes(ctx); err != nil {
		a.log.Error("Failed to ensure indexes", zap.Error(err))
		return err
	}
	a.log.Info("Indexes ensured", zap.String("database", a.cfg.MongoDB))
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	rp := newRepos()
	indexCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	if err := rp.ensureIndexes(indexCtx); err != nil {
		a.log.Warn("Failed to ensure indexes", zap.Error(err))
	}
	cancel()

	store, err := a.newBlobStore()
	if err != nil {
		a.log.Error("Failed to initialize blob store", zap.Error(err))
		return err
	}

	rdb := a.newRedis(ctx)
	if rdb != nil {
		defer func() {
			if err := rdb.Close(); err != nil {
				a.log.Error("Failed to close Redis", zap.Error(err))
			}
		}()
	}

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()

	handler, cleanup := a.newServer(workerCtx, rp, store, rdb)
	defer cleanup()

	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.log.Info("Catalog Service starting", zap.String("port", a.cfg.Port), zap.String("blob_store", a.cfg.BlobStore))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			a.log.Error("Failed to start server", zap.Error(err))
			return err
		}
	case <-ctx.Done():
	}
	a.log.Info("Shutting down Catalog Service...")
	stopWorker()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("Server forced to shutdown", zap.Error(err))
		return err
	}
	a.log.Info("Catalog Service stopped gracefully")
	return nil
}

func (a *app) newBlobStore() (blobstore.Store, error) {
	switch a.cfg.BlobStore {
	case BlobStoreS3:
		client := awspkg.NewS3Client(*a.awsCfg, a.cfg.S3Endpoint)
		return blobstore.NewS3Store(client, a.cfg.S3Bucket, a.cfg.S3PublicURL), nil
	default:
		return blobstore.NewCloudinaryStore(a.cfg.CloudinaryURL)
	}
}

// newRedis connects to REDIS_URL. Without Redis the async bulk mode is off.
func (a *app) newRedis(ctx context.Context) *redis.Client {
	if a.cfg.RedisURL == "" {
		a.log.Info("REDIS_URL not set, async bulk create disabled")
		return nil
	}
	opts, err := redis.ParseURL(a.cfg.RedisURL)
	if err != nil {
		a.log.Warn("Failed to parse REDIS_URL, async bulk create disabled", zap.Error(err))
		return nil
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		a.log.Warn("Redis unreachable, async bulk create disabled", zap.Error(err))
		_ = rdb.Close()
		return nil
	}
	return rdb
}
