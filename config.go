package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	awspkg "catalog-service/pkg/aws"

	"github.com/joho/godotenv"
)

// Blob store backends.
const (
	BlobStoreCloudinary = "cloudinary"
	BlobStoreS3         = "s3"
)

// Config holds all environment variables for the catalog-service.
type Config struct {
	Port     string
	Env      string
	MongoURI string
	MongoDB  string
	RedisURL string

	BlobStore      string
	CloudinaryURL  string
	S3Bucket       string
	S3PublicURL    string
	S3Endpoint     string
	EventsTopicArn string
	AllowedOrigins []string
	UseSecrets     bool
	// CloudWatch enables log shipping and metrics.
	CloudWatch bool
}

// LoadConfig loads .env (when present) and the environment into Config and
// validates it. If AWS_USE_SECRETS=true the Mongo URI and Cloudinary URL are
// read from Secrets Manager, falling back to the environment on failure.
func LoadConfig(ctx context.Context) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "8083"),
		Env:            getEnv("APP_ENV", "development"),
		MongoURI:       os.Getenv("MONGO_URI"),
		MongoDB:        getEnv("MONGO_DB", "catalog"),
		RedisURL:       os.Getenv("REDIS_URL"),
		BlobStore:      strings.ToLower(getEnv("BLOB_STORE", BlobStoreCloudinary)),
		CloudinaryURL:  os.Getenv("CLOUDINARY_URL"),
		S3Bucket:       os.Getenv("AWS_S3_BUCKET"),
		S3PublicURL:    os.Getenv("AWS_S3_PUBLIC_URL"),
		S3Endpoint:     getEnv("AWS_S3_ENDPOINT", os.Getenv("AWS_ENDPOINT")),
		EventsTopicArn: os.Getenv("CATALOG_EVENTS_TOPIC_ARN"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),
		UseSecrets:     os.Getenv("AWS_USE_SECRETS") == "true",
		CloudWatch:     os.Getenv("CLOUDWATCH_ENABLED") == "true",
	}

	if cfg.UseSecrets {
		if awsCfg, err := awspkg.LoadAWSConfig(ctx); err == nil {
			sm := awspkg.NewSecretsClient(awsCfg)
			cfg.MongoURI = sm.Resolve(ctx, "catalog/MONGO_URI", cfg.MongoURI)
			cfg.CloudinaryURL = sm.Resolve(ctx, "catalog/CLOUDINARY_URL", cfg.CloudinaryURL)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the required settings for the chosen blob store.
func (c *Config) Validate() error {
	if c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	switch c.BlobStore {
	case BlobStoreCloudinary:
		if c.CloudinaryURL == "" {
			return fmt.Errorf("CLOUDINARY_URL is required when BLOB_STORE=%s", BlobStoreCloudinary)
		}
	case BlobStoreS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("AWS_S3_BUCKET is required when BLOB_STORE=%s", BlobStoreS3)
		}
	default:
		return fmt.Errorf("unsupported BLOB_STORE %q", c.BlobStore)
	}
	return nil
}

// NeedsAWS reports whether any AWS client has to be built.
func (c *Config) NeedsAWS() bool {
	return c.BlobStore == BlobStoreS3 || c.EventsTopicArn != "" || c.CloudWatch
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
