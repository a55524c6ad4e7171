package services

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "catalog-service/common/errors"
	"catalog-service/common/logger"
	"catalog-service/models"
	"catalog-service/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Hierarchy errors.
const (
	MsgCategoryNotFound       = "Category not found"
	MsgParentNotFound         = "Parent category not found"
	MsgParentIsSubcategory    = "Cannot create subcategory of a subcategory. Only 2 levels are allowed."
	MsgNewParentIsSubcategory = "Cannot set parent to a subcategory. Only 2 levels are allowed."
	MsgSelfParent             = "Category cannot be its own parent"
	MsgParentHasChildren      = "Category with subcategories cannot become a subcategory itself"
	MsgDeleteHasChildren      = "Cannot delete category that has subcategories. Delete subcategories first."
	MsgCategoryNameExists     = "Category name already exists"
	MsgCategoryNameRequired   = "Category name is required"
	MsgCategoryDeleted        = "Category deleted successfully"
)

var categorySortFields = map[string]string{
	"name":      "name",
	"createdAt": "createdAt",
	"updatedAt": "updatedAt",
	"level":     "level",
}

var byName = bson.D{{Key: "name", Value: 1}}

// CategoryService keeps categories in a tree of at most two levels: roots
// and their direct subcategories.
type CategoryService interface {
	CreateCategory(ctx context.Context, req CategoryCreateRequest) (*models.Category, *apperrors.Error)
	UpdateCategory(ctx context.Context, id primitive.ObjectID, req CategoryUpdateRequest) (*models.Category, *apperrors.Error)
	DeleteCategory(ctx context.Context, id primitive.ObjectID) *apperrors.Error
	GetCategory(ctx context.Context, id primitive.ObjectID) (*models.Category, *apperrors.Error)
	ListCategories(ctx context.Context, filter ListFilter, includeHierarchy bool) ([]models.Category, *apperrors.Error)
	ListParentCategories(ctx context.Context, filter ListFilter) ([]models.Category, *apperrors.Error)
	ListSubcategories(ctx context.Context, parentID primitive.ObjectID, filter ListFilter) ([]models.Category, *apperrors.Error)
	GetCategoryTree(ctx context.Context) ([]models.Category, *apperrors.Error)
}

type categoryServiceImpl struct {
	repo   repository.CategoryRepo
	logger *zap.Logger
}

func NewCategoryService(repo repository.CategoryRepo, logger *zap.Logger) CategoryService {
	return &categoryServiceImpl{repo: repo, logger: logger}
}

func (s *categoryServiceImpl) CreateCategory(ctx context.Context, req CategoryCreateRequest) (*models.Category, *apperrors.Error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.Validation(MsgCategoryNameRequired)
	}

	var parentID *primitive.ObjectID
	if p := strings.TrimSpace(req.Parent); p != "" {
		parent, appErr := s.loadParent(ctx, p)
		if appErr != nil {
			return nil, appErr
		}
		if !parent.IsRoot() {
			return nil, apperrors.Validation(MsgParentIsSubcategory)
		}
		parentID = &parent.ID
	}

	now := time.Now().UTC()
	category := &models.Category{
		Name:      name,
		Parent:    parentID,
		Level:     models.LevelFor(parentID),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, category); err != nil {
		if !errors.Is(err, repository.ErrDuplicateKey) {
			logger.FromContext(ctx, s.logger).Error("Failed to create category", zap.Error(err))
		}
		return nil, storeError(err, MsgCategoryNotFound, MsgCategoryNameExists)
	}

	logger.FromContext(ctx, s.logger).Info("Category created",
		zap.String("id", category.ID.Hex()), zap.Int("level", category.Level))
	return category, nil
}

// loadParent resolves a parent id. A malformed id is reported the same way
// as a missing parent.
func (s *categoryServiceImpl) loadParent(ctx context.Context, hex string) (*models.Category, *apperrors.Error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return nil, apperrors.Validation(MsgParentNotFound)
	}
	parent, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Validation(MsgParentNotFound)
		}
		return nil, apperrors.Internal(err)
	}
	return parent, nil
}

func (s *categoryServiceImpl) UpdateCategory(ctx context.Context, id primitive.ObjectID, req CategoryUpdateRequest) (*models.Category, *apperrors.Error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, MsgCategoryNotFound, MsgCategoryNameExists)
	}

	set := bson.M{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperrors.Validation(MsgCategoryNameRequired)
		}
		set["name"] = name
	}

	if req.Parent.Set {
		var parentID *primitive.ObjectID
		if req.Parent.Value != nil && strings.TrimSpace(*req.Parent.Value) != "" {
			// Compare parsed ids: hex input may be upper case.
			if pid, err := primitive.ObjectIDFromHex(strings.TrimSpace(*req.Parent.Value)); err == nil && pid == id {
				return nil, apperrors.Validation(MsgSelfParent)
			}
			parent, appErr := s.loadParent(ctx, strings.TrimSpace(*req.Parent.Value))
			if appErr != nil {
				return nil, appErr
			}
			if !parent.IsRoot() {
				return nil, apperrors.Validation(MsgNewParentIsSubcategory)
			}
			hasChildren, err := s.repo.HasChildren(ctx, current.ID)
			if err != nil {
				return nil, apperrors.Internal(err)
			}
			if hasChildren {
				return nil, apperrors.Validation(MsgParentHasChildren)
			}
			parentID = &parent.ID
		}
		set["parent"] = parentID
		set["level"] = models.LevelFor(parentID)
	}

	if len(set) == 0 {
		return current, nil
	}

	updated, err := s.repo.Update(ctx, id, set)
	if err != nil {
		if !errors.Is(err, repository.ErrDuplicateKey) && !errors.Is(err, repository.ErrNotFound) {
			logger.FromContext(ctx, s.logger).Error("Failed to update category", zap.String("id", id.Hex()), zap.Error(err))
		}
		return nil, storeError(err, MsgCategoryNotFound, MsgCategoryNameExists)
	}
	return updated, nil
}

func (s *categoryServiceImpl) DeleteCategory(ctx context.Context, id primitive.ObjectID) *apperrors.Error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return storeError(err, MsgCategoryNotFound, MsgCategoryNameExists)
	}

	hasChildren, err := s.repo.HasChildren(ctx, id)
	if err != nil {
		return apperrors.Internal(err)
	}
	if hasChildren {
		return apperrors.Validation(MsgDeleteHasChildren)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, MsgCategoryNotFound, MsgCategoryNameExists)
	}
	logger.FromContext(ctx, s.logger).Info("Category deleted", zap.String("id", id.Hex()))
	return nil
}

func (s *categoryServiceImpl) GetCategory(ctx context.Context, id primitive.ObjectID) (*models.Category, *apperrors.Error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, MsgCategoryNotFound, MsgCategoryNameExists)
	}
	children, err := s.repo.FindChildren(ctx, []primitive.ObjectID{id}, byName)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	category.Subcategories = children
	one := []models.Category{*category}
	if err := s.populateParents(ctx, one); err != nil {
		return nil, apperrors.Internal(err)
	}
	return &one[0], nil
}

func (s *categoryServiceImpl) ListCategories(ctx context.Context, filter ListFilter, includeHierarchy bool) ([]models.Category, *apperrors.Error) {
	categories, err := s.repo.Find(ctx, repository.ListOptions{
		Filter: nameSearch(filter.Search),
		Sort:   listSort(filter, categorySortFields),
	})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if err := s.populateParents(ctx, categories); err != nil {
		return nil, apperrors.Internal(err)
	}
	if !includeHierarchy {
		return categories, nil
	}
	if err := s.attachChildren(ctx, categories); err != nil {
		return nil, apperrors.Internal(err)
	}
	return categories, nil
}

func (s *categoryServiceImpl) ListParentCategories(ctx context.Context, filter ListFilter) ([]models.Category, *apperrors.Error) {
	query := nameSearch(filter.Search)
	query["parent"] = nil
	roots, err := s.repo.Find(ctx, repository.ListOptions{
		Filter: query,
		Sort:   listSort(filter, categorySortFields),
	})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if err := s.attachChildren(ctx, roots); err != nil {
		return nil, apperrors.Internal(err)
	}
	return roots, nil
}

func (s *categoryServiceImpl) ListSubcategories(ctx context.Context, parentID primitive.ObjectID, filter ListFilter) ([]models.Category, *apperrors.Error) {
	query := nameSearch(filter.Search)
	query["parent"] = parentID
	children, err := s.repo.Find(ctx, repository.ListOptions{
		Filter: query,
		Sort:   listSort(filter, categorySortFields),
	})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if err := s.populateParents(ctx, children); err != nil {
		return nil, apperrors.Internal(err)
	}
	return children, nil
}

func (s *categoryServiceImpl) GetCategoryTree(ctx context.Context) ([]models.Category, *apperrors.Error) {
	roots, err := s.repo.Find(ctx, repository.ListOptions{
		Filter: bson.M{"parent": nil},
		Sort:   byName,
	})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if err := s.attachChildren(ctx, roots); err != nil {
		return nil, apperrors.Internal(err)
	}
	return roots, nil
}

// attachChildren loads the direct children of every category in one query.
// Subcategories have no children, so one level is the whole tree.
func (s *categoryServiceImpl) attachChildren(ctx context.Context, categories []models.Category) error {
	if len(categories) == 0 {
		return nil
	}
	ids := make([]primitive.ObjectID, len(categories))
	for i := range categories {
		ids[i] = categories[i].ID
	}
	children, err := s.repo.FindChildren(ctx, ids, byName)
	if err != nil {
		return err
	}

	byParent := make(map[primitive.ObjectID][]models.Category, len(categories))
	for _, child := range children {
		if child.Parent != nil {
			byParent[*child.Parent] = append(byParent[*child.Parent], child)
		}
	}
	for i := range categories {
		subs := byParent[categories[i].ID]
		if subs == nil {
			subs = []models.Category{}
		}
		categories[i].Subcategories = subs
	}
	return nil
}

// populateParents resolves every parent id to {_id, name} in one query. A
// dangling parent keeps its bare id.
func (s *categoryServiceImpl) populateParents(ctx context.Context, categories []models.Category) error {
	seen := make(map[primitive.ObjectID]bool)
	ids := []primitive.ObjectID{}
	for _, c := range categories {
		if c.Parent != nil && !seen[*c.Parent] {
			seen[*c.Parent] = true
			ids = append(ids, *c.Parent)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	parents, err := s.repo.Find(ctx, repository.ListOptions{Filter: bson.M{"_id": bson.M{"$in": ids}}})
	if err != nil {
		return err
	}
	names := make(map[primitive.ObjectID]string, len(parents))
	for _, p := range parents {
		names[p.ID] = p.Name
	}
	for i := range categories {
		if p := categories[i].Parent; p != nil {
			if name, ok := names[*p]; ok {
				categories[i].ParentRef = &models.Ref{ID: *p, Name: name}
			}
		}
	}
	return nil
}
