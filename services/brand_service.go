package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"catalog-service/blobstore"
	apperrors "catalog-service/common/errors"
	"catalog-service/common/logger"
	"catalog-service/models"
	"catalog-service/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	MsgBrandNotFound     = "Brand not found"
	MsgBrandNameExists   = "Brand name already exists"
	MsgBrandNameRequired = "Brand name is required"
	MsgBrandDeleted      = "Brand deleted successfully"
)

var namedSortFields = map[string]string{
	"name":      "name",
	"createdAt": "createdAt",
	"updatedAt": "updatedAt",
}

// BrandService defines the brand operations. The WithImage variants upload
// the logo first and store its URL.
type BrandService interface {
	CreateBrand(ctx context.Context, req BrandRequest) (*models.Brand, *apperrors.Error)
	CreateBrandWithImage(ctx context.Context, req BrandRequest, image *FileUpload) (*models.Brand, *apperrors.Error)
	ListBrands(ctx context.Context, filter ListFilter) ([]models.Brand, *apperrors.Error)
	GetBrand(ctx context.Context, id primitive.ObjectID) (*models.Brand, *apperrors.Error)
	UpdateBrand(ctx context.Context, id primitive.ObjectID, req BrandUpdateRequest) (*models.Brand, *apperrors.Error)
	UpdateBrandWithImage(ctx context.Context, id primitive.ObjectID, req BrandUpdateRequest, image *FileUpload) (*models.Brand, *apperrors.Error)
	DeleteBrand(ctx context.Context, id primitive.ObjectID) *apperrors.Error
}

type brandServiceImpl struct {
	repo    repository.BrandRepo
	uploads UploadService
	logger  *zap.Logger
}

func NewBrandService(repo repository.BrandRepo, uploads UploadService, logger *zap.Logger) BrandService {
	return &brandServiceImpl{repo: repo, uploads: uploads, logger: logger}
}

func (s *brandServiceImpl) CreateBrand(ctx context.Context, req BrandRequest) (*models.Brand, *apperrors.Error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.Validation(MsgBrandNameRequired)
	}

	now := time.Now().UTC()
	brand := &models.Brand{
		Name:      name,
		Image:     strings.TrimSpace(req.Image),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, brand); err != nil {
		if !errors.Is(err, repository.ErrDuplicateKey) {
			logger.FromContext(ctx, s.logger).Error("Failed to create brand", zap.Error(err))
		}
		return nil, storeError(err, MsgBrandNotFound, MsgBrandNameExists)
	}
	return brand, nil
}

func (s *brandServiceImpl) CreateBrandWithImage(ctx context.Context, req BrandRequest, image *FileUpload) (*models.Brand, *apperrors.Error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperrors.Validation(MsgBrandNameRequired)
	}
	if image != nil {
		url, appErr := s.uploadImage(ctx, req.Name, *image)
		if appErr != nil {
			return nil, appErr
		}
		req.Image = url
	}
	return s.CreateBrand(ctx, req)
}

func (s *brandServiceImpl) uploadImage(ctx context.Context, name string, image FileUpload) (string, *apperrors.Error) {
	files, appErr := s.uploads.Upload(ctx, BrandImage, name, []FileUpload{image})
	if appErr != nil {
		return "", appErr
	}
	return files[0].URL, nil
}

func (s *brandServiceImpl) ListBrands(ctx context.Context, filter ListFilter) ([]models.Brand, *apperrors.Error) {
	brands, err := s.repo.Find(ctx, repository.ListOptions{
		Filter: nameSearch(filter.Search),
		Sort:   listSort(filter, namedSortFields),
	})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return brands, nil
}

func (s *brandServiceImpl) GetBrand(ctx context.Context, id primitive.ObjectID) (*models.Brand, *apperrors.Error) {
	brand, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, MsgBrandNotFound, MsgBrandNameExists)
	}
	return brand, nil
}

func (s *brandServiceImpl) UpdateBrand(ctx context.Context, id primitive.ObjectID, req BrandUpdateRequest) (*models.Brand, *apperrors.Error) {
	set := bson.M{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperrors.Validation(MsgBrandNameRequired)
		}
		set["name"] = name
	}
	if req.Image != nil {
		set["image"] = strings.TrimSpace(*req.Image)
	}
	if len(set) == 0 {
		return s.GetBrand(ctx, id)
	}

	brand, err := s.repo.Update(ctx, id, set)
	if err != nil {
		return nil, storeError(err, MsgBrandNotFound, MsgBrandNameExists)
	}
	return brand, nil
}

// UpdateBrandWithImage replaces the logo. The previous image is removed from
// the blob store once the new URL is saved.
func (s *brandServiceImpl) UpdateBrandWithImage(ctx context.Context, id primitive.ObjectID, req BrandUpdateRequest, image *FileUpload) (*models.Brand, *apperrors.Error) {
	current, appErr := s.GetBrand(ctx, id)
	if appErr != nil {
		return nil, appErr
	}
	if image == nil {
		return s.UpdateBrand(ctx, id, req)
	}

	name := current.Name
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		name = *req.Name
	}
	url, appErr := s.uploadImage(ctx, name, *image)
	if appErr != nil {
		return nil, appErr
	}
	req.Image = &url

	updated, appErr := s.UpdateBrand(ctx, id, req)
	if appErr != nil {
		return nil, appErr
	}
	if current.Image != "" && current.Image != url {
		s.uploads.DeleteURL(ctx, current.Image, blobstore.ResourceImage)
	}
	return updated, nil
}

func (s *brandServiceImpl) DeleteBrand(ctx context.Context, id primitive.ObjectID) *apperrors.Error {
	brand, appErr := s.GetBrand(ctx, id)
	if appErr != nil {
		return appErr
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, MsgBrandNotFound, MsgBrandNameExists)
	}
	s.uploads.DeleteURL(ctx, brand.Image, blobstore.ResourceImage)
	logger.FromContext(ctx, s.logger).Info("Brand deleted", zap.String("id", id.Hex()))
	return nil
}
