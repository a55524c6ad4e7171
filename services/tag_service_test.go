package services_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"catalog-service/models"
	"catalog-service/repository"
	"catalog-service/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// mockTagRepo is an in-memory implementation of repository.TagRepo.
type mockTagRepo struct {
	tags     map[primitive.ObjectID]*models.Tag
	lastOpts repository.ListOptions
}

func (m *mockTagRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Tag, error) {
	tag, ok := m.tags[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *tag
	return &cp, nil
}

func (m *mockTagRepo) Find(_ context.Context, opts repository.ListOptions) ([]models.Tag, error) {
	m.lastOpts = opts
	out := []models.Tag{}
	for _, tag := range m.tags {
		out = append(out, *tag)
	}
	return out, nil
}

func (m *mockTagRepo) Create(_ context.Context, tag *models.Tag) error {
	for _, existing := range m.tags {
		if existing.Name == tag.Name {
			return fmt.Errorf("insert tag: %w", repository.ErrDuplicateKey)
		}
	}
	tag.ID = primitive.NewObjectID()
	cp := *tag
	m.tags[tag.ID] = &cp
	return nil
}

func (m *mockTagRepo) Update(_ context.Context, id primitive.ObjectID, set bson.M) (*models.Tag, error) {
	tag, ok := m.tags[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if name, ok := set["name"].(string); ok {
		tag.Name = name
	}
	cp := *tag
	return &cp, nil
}

func (m *mockTagRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := m.tags[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.tags, id)
	return nil
}

func (m *mockTagRepo) EnsureIndexes(context.Context) error { return nil }

func TestTagService_CRUD(t *testing.T) {
	repo := &mockTagRepo{tags: map[primitive.ObjectID]*models.Tag{}}
	svc := services.NewTagService(repo, testLogger())
	ctx := context.Background()

	tag, appErr := svc.CreateTag(ctx, services.TagRequest{Name: " outdoor "})
	require.Nil(t, appErr)
	assert.Equal(t, "outdoor", tag.Name)

	_, appErr = svc.CreateTag(ctx, services.TagRequest{Name: "outdoor"})
	require.NotNil(t, appErr)
	assert.Equal(t, services.MsgTagNameExists, appErr.Message)

	got, appErr := svc.GetTag(ctx, tag.ID)
	require.Nil(t, appErr)
	assert.Equal(t, tag.ID, got.ID)

	updated, appErr := svc.UpdateTag(ctx, tag.ID, services.TagUpdateRequest{Name: strPtr("indoor")})
	require.Nil(t, appErr)
	assert.Equal(t, "indoor", updated.Name)

	_, appErr = svc.UpdateTag(ctx, tag.ID, services.TagUpdateRequest{Name: strPtr("  ")})
	require.NotNil(t, appErr)
	assert.Equal(t, services.MsgTagNameRequired, appErr.Message)

	require.Nil(t, svc.DeleteTag(ctx, tag.ID))
	appErr = svc.DeleteTag(ctx, tag.ID)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusNotFound, appErr.Code)
}

func TestTagService_ListSortFallsBackToName(t *testing.T) {
	repo := &mockTagRepo{tags: map[primitive.ObjectID]*models.Tag{}}
	svc := services.NewTagService(repo, testLogger())

	_, appErr := svc.ListTags(context.Background(), services.ListFilter{Search: "led", SortBy: "bogus", SortOrder: "desc"})
	require.Nil(t, appErr)
	assert.Equal(t, bson.D{{Key: "name", Value: -1}}, repo.lastOpts.Sort)
	assert.Equal(t, primitive.Regex{Pattern: "led", Options: "i"}, repo.lastOpts.Filter["name"])

	_, appErr = svc.ListTags(context.Background(), services.ListFilter{SortBy: "createdAt"})
	require.Nil(t, appErr)
	assert.Equal(t, bson.D{{Key: "createdAt", Value: 1}}, repo.lastOpts.Sort)
}
