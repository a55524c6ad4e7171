package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"catalog-service/blobstore"
	apperrors "catalog-service/common/errors"
	"catalog-service/common/logger"
	awspkg "catalog-service/pkg/aws"

	"go.uber.org/zap"
)

const mb = 1 << 20

// UploadKind is the set of rules for one kind of upload.
type UploadKind struct {
	Field        string
	Folder       string
	ResourceType blobstore.ResourceType
	MaxSize      int64
	MaxFiles     int
	Extensions   []string
	// EmptyMessage is returned when no file was sent.
	EmptyMessage string
	// WithFilename adds the original file name to the public id.
	WithFilename bool
	DefaultName  string
}

var (
	ProductImages = UploadKind{
		Field:        "images",
		Folder:       blobstore.FolderProductImages,
		ResourceType: blobstore.ResourceImage,
		MaxSize:      5 * mb,
		MaxFiles:     5,
		Extensions:   []string{"jpg", "jpeg", "png", "webp", "gif"},
		EmptyMessage: "No images uploaded",
		DefaultName:  "unknown-product",
	}
	SpecSheets = UploadKind{
		Field:        "specSheets",
		Folder:       blobstore.FolderSpecSheets,
		ResourceType: blobstore.ResourceRaw,
		MaxSize:      10 * mb,
		MaxFiles:     3,
		Extensions:   []string{"pdf", "doc", "docx", "jpg", "jpeg", "png"},
		EmptyMessage: "No spec sheets uploaded",
		WithFilename: true,
		DefaultName:  "unknown-product",
	}
	BrandImage = UploadKind{
		Field:        "image",
		Folder:       blobstore.FolderBrandImages,
		ResourceType: blobstore.ResourceImage,
		MaxSize:      2 * mb,
		MaxFiles:     1,
		Extensions:   []string{"jpg", "jpeg", "png", "webp", "svg"},
		EmptyMessage: "No image uploaded",
		DefaultName:  "unknown-brand",
	}
)

// Allows reports whether the file extension is accepted.
func (k UploadKind) Allows(filename string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	for _, allowed := range k.Extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// Check validates the batch before anything is uploaded.
func (k UploadKind) Check(files []FileUpload) *apperrors.Error {
	if len(files) > k.MaxFiles {
		return apperrors.Validation(fmt.Sprintf("Too many files for %s: at most %d allowed", k.Field, k.MaxFiles))
	}
	for _, f := range files {
		if !k.Allows(f.Filename) {
			return apperrors.Validation(fmt.Sprintf("File %s has an unsupported format. Allowed: %s", f.Filename, strings.Join(k.Extensions, ", ")))
		}
		if f.Size > k.MaxSize {
			return apperrors.Validation(fmt.Sprintf("File %s exceeds the %dMB limit", f.Filename, k.MaxSize/mb))
		}
	}
	return nil
}

// UploadService moves client files into the blob store.
type UploadService interface {
	// Upload stores the files one after another. Files stored before a
	// failure stay in the store.
	Upload(ctx context.Context, kind UploadKind, name string, files []FileUpload) ([]UploadedFile, *apperrors.Error)
	// Delete removes a blob by public id. Nothing deleted is a 404.
	Delete(ctx context.Context, publicID string, resourceType blobstore.ResourceType) *apperrors.Error
	// DeleteURL removes the blob behind url, logging instead of failing.
	DeleteURL(ctx context.Context, url string, resourceType blobstore.ResourceType)
}

type uploadServiceImpl struct {
	store   blobstore.Store
	metrics *awspkg.MetricsClient
	logger  *zap.Logger
	now     func() time.Time
}

func NewUploadService(store blobstore.Store, metrics *awspkg.MetricsClient, logger *zap.Logger) UploadService {
	return &uploadServiceImpl{store: store, metrics: metrics, logger: logger, now: time.Now}
}

func (s *uploadServiceImpl) Upload(ctx context.Context, kind UploadKind, name string, files []FileUpload) ([]UploadedFile, *apperrors.Error) {
	if appErr := kind.Check(files); appErr != nil {
		return nil, appErr
	}
	if strings.TrimSpace(name) == "" {
		name = kind.DefaultName
	}

	log := logger.FromContext(ctx, s.logger)
	uploaded := make([]UploadedFile, 0, len(files))
	for i, f := range files {
		parts := []string{name}
		if kind.WithFilename {
			parts = append(parts, blobstore.BaseName(f.Filename))
		}
		if len(files) > 1 {
			parts = append(parts, strconv.Itoa(i+1))
		}

		obj, err := s.uploadOne(ctx, kind, blobstore.NewPublicID(s.now(), parts...), f)
		if err != nil {
			log.Error("Blob upload failed",
				zap.String("folder", kind.Folder),
				zap.String("file", f.Filename),
				zap.Int("already_uploaded", len(uploaded)),
				zap.Error(err))
			return nil, apperrors.Internal(err)
		}
		uploaded = append(uploaded, UploadedFile{URL: obj.URL, PublicID: obj.PublicID, OriginalName: f.Filename})
	}

	recordMetric(s.metrics, awspkg.MetricBlobUploads, len(uploaded))
	log.Info("Files uploaded", zap.String("folder", kind.Folder), zap.Int("count", len(uploaded)))
	return uploaded, nil
}

func (s *uploadServiceImpl) uploadOne(ctx context.Context, kind UploadKind, publicID string, f FileUpload) (*blobstore.Object, error) {
	body, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Filename, err)
	}
	defer body.Close()

	return s.store.Upload(ctx, blobstore.UploadInput{
		Folder:       kind.Folder,
		PublicID:     publicID,
		ResourceType: kind.ResourceType,
		Filename:     f.Filename,
		ContentType:  f.ContentType,
		Size:         f.Size,
		Body:         body,
	})
}

func (s *uploadServiceImpl) Delete(ctx context.Context, publicID string, resourceType blobstore.ResourceType) *apperrors.Error {
	publicID = strings.Trim(publicID, "/ ")
	if publicID == "" {
		return apperrors.Validation("Public ID is required")
	}
	deleted, err := s.store.Delete(ctx, publicID, resourceType)
	if err != nil {
		logger.FromContext(ctx, s.logger).Error("Blob delete failed", zap.String("public_id", publicID), zap.Error(err))
		return apperrors.Internal(err)
	}
	if !deleted {
		return apperrors.NotFound("File not found")
	}
	return nil
}

func (s *uploadServiceImpl) DeleteURL(ctx context.Context, url string, resourceType blobstore.ResourceType) {
	if url == "" {
		return
	}
	log := logger.FromContext(ctx, s.logger)
	publicID, err := s.store.PublicIDFromURL(url)
	if err != nil {
		log.Warn("Cannot derive public id from url", zap.String("url", url), zap.Error(err))
		recordMetric(s.metrics, awspkg.MetricBlobDeleteFailures, 1)
		return
	}
	deleted, err := s.store.Delete(ctx, publicID, resourceType)
	if err != nil || !deleted {
		log.Warn("Blob not deleted", zap.String("public_id", publicID), zap.Bool("found", deleted), zap.Error(err))
		recordMetric(s.metrics, awspkg.MetricBlobDeleteFailures, 1)
	}
}
