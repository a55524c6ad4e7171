package services_test

import (
	"context"
	"net/http"
	"testing"

	"catalog-service/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newBrandService() (services.BrandService, *fakeBrandRepo, *fakeStore) {
	repo := newFakeBrandRepo()
	store := newFakeStore()
	uploads := services.NewUploadService(store, nil, testLogger())
	return services.NewBrandService(repo, uploads, testLogger()), repo, store
}

func TestCreateBrand(t *testing.T) {
	svc, _, _ := newBrandService()
	ctx := context.Background()

	brand, appErr := svc.CreateBrand(ctx, services.BrandRequest{Name: " Philips "})
	require.Nil(t, appErr)
	assert.Equal(t, "Philips", brand.Name)

	_, appErr = svc.CreateBrand(ctx, services.BrandRequest{Name: "Philips"})
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.Code)
	assert.Equal(t, services.MsgBrandNameExists, appErr.Message)

	_, appErr = svc.CreateBrand(ctx, services.BrandRequest{Name: ""})
	require.NotNil(t, appErr)
	assert.Equal(t, services.MsgBrandNameRequired, appErr.Message)
}

func TestCreateBrandWithImage(t *testing.T) {
	svc, _, store := newBrandService()
	img := file("logo.png", "png")

	brand, appErr := svc.CreateBrandWithImage(context.Background(), services.BrandRequest{Name: "Osram"}, &img)
	require.Nil(t, appErr)
	assert.Contains(t, brand.Image, "https://cdn.test/Brand Images/Osram_")
	require.Len(t, store.uploads, 1)
}

func TestUpdateBrandWithImage_ReplacesOldImage(t *testing.T) {
	svc, _, store := newBrandService()
	ctx := context.Background()
	first := file("v1.png", "1")
	brand, appErr := svc.CreateBrandWithImage(ctx, services.BrandRequest{Name: "Osram"}, &first)
	require.Nil(t, appErr)
	oldImage := brand.Image

	second := file("v2.png", "2")
	updated, appErr := svc.UpdateBrandWithImage(ctx, brand.ID, services.BrandUpdateRequest{Name: strPtr("Osram Lighting")}, &second)
	require.Nil(t, appErr)
	assert.Equal(t, "Osram Lighting", updated.Name)
	assert.NotEqual(t, oldImage, updated.Image)
	require.Len(t, store.deleted, 1)
	assert.Contains(t, oldImage, store.deleted[0])
}

func TestUpdateBrand_Partial(t *testing.T) {
	svc, _, _ := newBrandService()
	ctx := context.Background()
	brand, _ := svc.CreateBrand(ctx, services.BrandRequest{Name: "Havells", Image: "https://img.test/h.png"})

	updated, appErr := svc.UpdateBrand(ctx, brand.ID, services.BrandUpdateRequest{Name: strPtr("Havells India")})
	require.Nil(t, appErr)
	assert.Equal(t, "Havells India", updated.Name)
	assert.Equal(t, "https://img.test/h.png", updated.Image)

	_, appErr = svc.UpdateBrand(ctx, primitive.NewObjectID(), services.BrandUpdateRequest{Name: strPtr("x")})
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusNotFound, appErr.Code)
}

func TestDeleteBrand_RemovesImage(t *testing.T) {
	svc, repo, store := newBrandService()
	ctx := context.Background()
	img := file("logo.png", "png")
	brand, _ := svc.CreateBrandWithImage(ctx, services.BrandRequest{Name: "Wipro"}, &img)

	require.Nil(t, svc.DeleteBrand(ctx, brand.ID))
	assert.Empty(t, repo.items)
	assert.Len(t, store.deleted, 1)

	appErr := svc.DeleteBrand(ctx, brand.ID)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusNotFound, appErr.Code)
}
