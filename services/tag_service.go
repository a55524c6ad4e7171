package services

import (
	"context"
	"strings"
	"time"

	apperrors "catalog-service/common/errors"
	"catalog-service/models"
	"catalog-service/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	MsgTagNotFound     = "Tag not found"
	MsgTagNameExists   = "Tag name already exists"
	MsgTagNameRequired = "Tag name is required"
	MsgTagDeleted      = "Tag deleted successfully"
)

type TagService interface {
	CreateTag(ctx context.Context, req TagRequest) (*models.Tag, *apperrors.Error)
	ListTags(ctx context.Context, filter ListFilter) ([]models.Tag, *apperrors.Error)
	GetTag(ctx context.Context, id primitive.ObjectID) (*models.Tag, *apperrors.Error)
	UpdateTag(ctx context.Context, id primitive.ObjectID, req TagUpdateRequest) (*models.Tag, *apperrors.Error)
	DeleteTag(ctx context.Context, id primitive.ObjectID) *apperrors.Error
}

type tagServiceImpl struct {
	repo   repository.TagRepo
	logger *zap.Logger
}

func NewTagService(repo repository.TagRepo, logger *zap.Logger) TagService {
	return &tagServiceImpl{repo: repo, logger: logger}
}

func (s *tagServiceImpl) CreateTag(ctx context.Context, req TagRequest) (*models.Tag, *apperrors.Error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.Validation(MsgTagNameRequired)
	}
	now := time.Now().UTC()
	tag := &models.Tag{Name: name, CreatedAt: now, UpdatedAt: now}
	if err := s.repo.Create(ctx, tag); err != nil {
		return nil, storeError(err, MsgTagNotFound, MsgTagNameExists)
	}
	return tag, nil
}

func (s *tagServiceImpl) ListTags(ctx context.Context, filter ListFilter) ([]models.Tag, *apperrors.Error) {
	tags, err := s.repo.Find(ctx, repository.ListOptions{
		Filter: nameSearch(filter.Search),
		Sort:   listSort(filter, namedSortFields),
	})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return tags, nil
}

func (s *tagServiceImpl) GetTag(ctx context.Context, id primitive.ObjectID) (*models.Tag, *apperrors.Error) {
	tag, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, MsgTagNotFound, MsgTagNameExists)
	}
	return tag, nil
}

func (s *tagServiceImpl) UpdateTag(ctx context.Context, id primitive.ObjectID, req TagUpdateRequest) (*models.Tag, *apperrors.Error) {
	if req.Name == nil {
		return s.GetTag(ctx, id)
	}
	name := strings.TrimSpace(*req.Name)
	if name == "" {
		return nil, apperrors.Validation(MsgTagNameRequired)
	}
	tag, err := s.repo.Update(ctx, id, bson.M{"name": name})
	if err != nil {
		return nil, storeError(err, MsgTagNotFound, MsgTagNameExists)
	}
	return tag, nil
}

func (s *tagServiceImpl) DeleteTag(ctx context.Context, id primitive.ObjectID) *apperrors.Error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, MsgTagNotFound, MsgTagNameExists)
	}
	s.logger.Info("Tag deleted", zap.String("id", id.Hex()))
	return nil
}
