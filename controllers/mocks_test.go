package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"

	"catalog-service/blobstore"
	apperrors "catalog-service/common/errors"
	"catalog-service/controllers"
	"catalog-service/models"
	"catalog-service/routes"
	"catalog-service/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- Category ---

type mockCategoryService struct {
	createFn  func(ctx context.Context, req services.CategoryCreateRequest) (*models.Category, *apperrors.Error)
	updateFn  func(ctx context.Context, id primitive.ObjectID, req services.CategoryUpdateRequest) (*models.Category, *apperrors.Error)
	deleteFn  func(ctx context.Context, id primitive.ObjectID) *apperrors.Error
	getFn     func(ctx context.Context, id primitive.ObjectID) (*models.Category, *apperrors.Error)
	listFn    func(ctx context.Context, filter services.ListFilter, includeHierarchy bool) ([]models.Category, *apperrors.Error)
	parentsFn func(ctx context.Context, filter services.ListFilter) ([]models.Category, *apperrors.Error)
	subsFn    func(ctx context.Context, parentID primitive.ObjectID, filter services.ListFilter) ([]models.Category, *apperrors.Error)
	treeFn    func(ctx context.Context) ([]models.Category, *apperrors.Error)
}

func (m *mockCategoryService) CreateCategory(ctx context.Context, req services.CategoryCreateRequest) (*models.Category, *apperrors.Error) {
	return m.createFn(ctx, req)
}

func (m *mockCategoryService) UpdateCategory(ctx context.Context, id primitive.ObjectID, req services.CategoryUpdateRequest) (*models.Category, *apperrors.Error) {
	return m.updateFn(ctx, id, req)
}

func (m *mockCategoryService) DeleteCategory(ctx context.Context, id primitive.ObjectID) *apperrors.Error {
	return m.deleteFn(ctx, id)
}

func (m *mockCategoryService) GetCategory(ctx context.Context, id primitive.ObjectID) (*models.Category, *apperrors.Error) {
	return m.getFn(ctx, id)
}

func (m *mockCategoryService) ListCategories(ctx context.Context, filter services.ListFilter, includeHierarchy bool) ([]models.Category, *apperrors.Error) {
	return m.listFn(ctx, filter, includeHierarchy)
}

func (m *mockCategoryService) ListParentCategories(ctx context.Context, filter services.ListFilter) ([]models.Category, *apperrors.Error) {
	return m.parentsFn(ctx, filter)
}

func (m *mockCategoryService) ListSubcategories(ctx context.Context, parentID primitive.ObjectID, filter services.ListFilter) ([]models.Category, *apperrors.Error) {
	return m.subsFn(ctx, parentID, filter)
}

func (m *mockCategoryService) GetCategoryTree(ctx context.Context) ([]models.Category, *apperrors.Error) {
	return m.treeFn(ctx)
}

// --- Brand ---

type mockBrandService struct {
	createFn          func(ctx context.Context, req services.BrandRequest) (*models.Brand, *apperrors.Error)
	createWithImageFn func(ctx context.Context, req services.BrandRequest, image *services.FileUpload) (*models.Brand, *apperrors.Error)
	listFn            func(ctx context.Context, filter services.ListFilter) ([]models.Brand, *apperrors.Error)
	getFn             func(ctx context.Context, id primitive.ObjectID) (*models.Brand, *apperrors.Error)
	updateFn          func(ctx context.Context, id primitive.ObjectID, req services.BrandUpdateRequest) (*models.Brand, *apperrors.Error)
	updateWithImageFn func(ctx context.Context, id primitive.ObjectID, req services.BrandUpdateRequest, image *services.FileUpload) (*models.Brand, *apperrors.Error)
	deleteFn          func(ctx context.Context, id primitive.ObjectID) *apperrors.Error
}

func (m *mockBrandService) CreateBrand(ctx context.Context, req services.BrandRequest) (*models.Brand, *apperrors.Error) {
	return m.createFn(ctx, req)
}

func (m *mockBrandService) CreateBrandWithImage(ctx context.Context, req services.BrandRequest, image *services.FileUpload) (*models.Brand, *apperrors.Error) {
	return m.createWithImageFn(ctx, req, image)
}

func (m *mockBrandService) ListBrands(ctx context.Context, filter services.ListFilter) ([]models.Brand, *apperrors.Error) {
	return m.listFn(ctx, filter)
}

func (m *mockBrandService) GetBrand(ctx context.Context, id primitive.ObjectID) (*models.Brand, *apperrors.Error) {
	return m.getFn(ctx, id)
}

func (m *mockBrandService) UpdateBrand(ctx context.Context, id primitive.ObjectID, req services.BrandUpdateRequest) (*models.Brand, *apperrors.Error) {
	return m.updateFn(ctx, id, req)
}

func (m *mockBrandService) UpdateBrandWithImage(ctx context.Context, id primitive.ObjectID, req services.BrandUpdateRequest, image *services.FileUpload) (*models.Brand, *apperrors.Error) {
	return m.updateWithImageFn(ctx, id, req, image)
}

func (m *mockBrandService) DeleteBrand(ctx context.Context, id primitive.ObjectID) *apperrors.Error {
	return m.deleteFn(ctx, id)
}

// --- Tag ---

type mockTagService struct {
	createFn func(ctx context.Context, req services.TagRequest) (*models.Tag, *apperrors.Error)
	listFn   func(ctx context.Context, filter services.ListFilter) ([]models.Tag, *apperrors.Error)
	getFn    func(ctx context.Context, id primitive.ObjectID) (*models.Tag, *apperrors.Error)
	updateFn func(ctx context.Context, id primitive.ObjectID, req services.TagUpdateRequest) (*models.Tag, *apperrors.Error)
	deleteFn func(ctx context.Context, id primitive.ObjectID) *apperrors.Error
}

func (m *mockTagService) CreateTag(ctx context.Context, req services.TagRequest) (*models.Tag, *apperrors.Error) {
	return m.createFn(ctx, req)
}

func (m *mockTagService) ListTags(ctx context.Context, filter services.ListFilter) ([]models.Tag, *apperrors.Error) {
	return m.listFn(ctx, filter)
}

func (m *mockTagService) GetTag(ctx context.Context, id primitive.ObjectID) (*models.Tag, *apperrors.Error) {
	return m.getFn(ctx, id)
}

func (m *mockTagService) UpdateTag(ctx context.Context, id primitive.ObjectID, req services.TagUpdateRequest) (*models.Tag, *apperrors.Error) {
	return m.updateFn(ctx, id, req)
}

func (m *mockTagService) DeleteTag(ctx context.Context, id primitive.ObjectID) *apperrors.Error {
	return m.deleteFn(ctx, id)
}

// --- Product ---

type mockProductService struct {
	createFn            func(ctx context.Context, in services.ProductInput) (*models.ProductDetail, *apperrors.Error)
	createWithUploadsFn func(ctx context.Context, in services.ProductInput, images, specSheets []services.FileUpload) (*models.ProductDetail, *apperrors.Error)
	getFn               func(ctx context.Context, id primitive.ObjectID) (*models.ProductDetail, *apperrors.Error)
	listFn              func(ctx context.Context, params services.ListProductsParams) (*models.ProductPage, *apperrors.Error)
	updateFn            func(ctx context.Context, id primitive.ObjectID, patch services.ProductPatch) (*models.ProductDetail, *apperrors.Error)
	updateWithUploadsFn func(ctx context.Context, id primitive.ObjectID, patch services.ProductPatch, images, specSheets []services.FileUpload) (*models.ProductDetail, *apperrors.Error)
	deleteFn            func(ctx context.Context, id primitive.ObjectID) *apperrors.Error
	deleteImageFn       func(ctx context.Context, id primitive.ObjectID, url string) (*models.ProductDetail, *apperrors.Error)
	deleteSpecSheetFn   func(ctx context.Context, id primitive.ObjectID, url string) (*models.ProductDetail, *apperrors.Error)
}

func (m *mockProductService) CreateProduct(ctx context.Context, in services.ProductInput) (*models.ProductDetail, *apperrors.Error) {
	return m.createFn(ctx, in)
}

func (m *mockProductService) CreateProductWithUploads(ctx context.Context, in services.ProductInput, images, specSheets []services.FileUpload) (*models.ProductDetail, *apperrors.Error) {
	return m.createWithUploadsFn(ctx, in, images, specSheets)
}

func (m *mockProductService) GetProduct(ctx context.Context, id primitive.ObjectID) (*models.ProductDetail, *apperrors.Error) {
	return m.getFn(ctx, id)
}

func (m *mockProductService) ListProducts(ctx context.Context, params services.ListProductsParams) (*models.ProductPage, *apperrors.Error) {
	return m.listFn(ctx, params)
}

func (m *mockProductService) UpdateProduct(ctx context.Context, id primitive.ObjectID, patch services.ProductPatch) (*models.ProductDetail, *apperrors.Error) {
	return m.updateFn(ctx, id, patch)
}

func (m *mockProductService) UpdateProductWithUploads(ctx context.Context, id primitive.ObjectID, patch services.ProductPatch, images, specSheets []services.FileUpload) (*models.ProductDetail, *apperrors.Error) {
	return m.updateWithUploadsFn(ctx, id, patch, images, specSheets)
}

func (m *mockProductService) DeleteProduct(ctx context.Context, id primitive.ObjectID) *apperrors.Error {
	return m.deleteFn(ctx, id)
}

func (m *mockProductService) DeleteProductImage(ctx context.Context, id primitive.ObjectID, url string) (*models.ProductDetail, *apperrors.Error) {
	return m.deleteImageFn(ctx, id, url)
}

func (m *mockProductService) DeleteProductSpecSheet(ctx context.Context, id primitive.ObjectID, url string) (*models.ProductDetail, *apperrors.Error) {
	return m.deleteSpecSheetFn(ctx, id, url)
}

// --- Bulk ---

type mockBulkService struct {
	createFn func(ctx context.Context, items []services.ProductInput) (*models.BulkCreateResult, *apperrors.Error)
	updateFn func(ctx context.Context, updates []services.ProductPatch) (*models.BulkUpdateResult, *apperrors.Error)
	submitFn func(ctx context.Context, items []services.ProductInput) (*models.BulkJob, *apperrors.Error)
	jobFn    func(ctx context.Context, id string) (*models.BulkJob, *apperrors.Error)
}

func (m *mockBulkService) BulkCreate(ctx context.Context, items []services.ProductInput) (*models.BulkCreateResult, *apperrors.Error) {
	return m.createFn(ctx, items)
}

func (m *mockBulkService) BulkUpdate(ctx context.Context, updates []services.ProductPatch) (*models.BulkUpdateResult, *apperrors.Error) {
	return m.updateFn(ctx, updates)
}

func (m *mockBulkService) SubmitBulkCreate(ctx context.Context, items []services.ProductInput) (*models.BulkJob, *apperrors.Error) {
	return m.submitFn(ctx, items)
}

func (m *mockBulkService) GetBulkJob(ctx context.Context, id string) (*models.BulkJob, *apperrors.Error) {
	return m.jobFn(ctx, id)
}

// --- Upload ---

type mockUploadService struct {
	uploadFn    func(ctx context.Context, kind services.UploadKind, name string, files []services.FileUpload) ([]services.UploadedFile, *apperrors.Error)
	deleteFn    func(ctx context.Context, publicID string, rt blobstore.ResourceType) *apperrors.Error
	deleteURLFn func(ctx context.Context, url string, rt blobstore.ResourceType)
}

func (m *mockUploadService) Upload(ctx context.Context, kind services.UploadKind, name string, files []services.FileUpload) ([]services.UploadedFile, *apperrors.Error) {
	return m.uploadFn(ctx, kind, name, files)
}

func (m *mockUploadService) Delete(ctx context.Context, publicID string, rt blobstore.ResourceType) *apperrors.Error {
	return m.deleteFn(ctx, publicID, rt)
}

func (m *mockUploadService) DeleteURL(ctx context.Context, url string, rt blobstore.ResourceType) {
	if m.deleteURLFn != nil {
		m.deleteURLFn(ctx, url, rt)
	}
}

// --- Router helpers ---

type testServices struct {
	category *mockCategoryService
	brand    *mockBrandService
	tag      *mockTagService
	product  *mockProductService
	bulk     *mockBulkService
	upload   *mockUploadService
}

func newTestServices() *testServices {
	return &testServices{
		category: &mockCategoryService{},
		brand:    &mockBrandService{},
		tag:      &mockTagService{},
		product:  &mockProductService{},
		bulk:     &mockBulkService{},
		upload:   &mockUploadService{},
	}
}

// router wires the mocks behind the production route table.
func (s *testServices) router() *gin.Engine {
	v := controllers.NewRequestValidator()
	r := gin.New()
	r.MaxMultipartMemory = controllers.MaxMultipartMemory
	r.Use(apperrors.ErrorMiddleware())
	routes.RegisterRoutes(r, routes.Controllers{
		Category: controllers.NewCategoryController(s.category, v),
		Brand:    controllers.NewBrandController(s.brand, v),
		Tag:      controllers.NewTagController(s.tag, v),
		Product:  controllers.NewProductController(s.product, v),
		Bulk:     controllers.NewBulkController(s.bulk, v),
		Upload:   controllers.NewUploadController(s.upload, v),
	})
	return r
}

func doJSON(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type formFile struct {
	field, name, content string
}

func doMultipart(r http.Handler, method, path string, values map[string][]string, files ...formFile) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, vals := range values {
		for _, v := range vals {
			_ = mw.WriteField(key, v)
		}
	}
	for _, f := range files {
		fw, _ := mw.CreateFormFile(f.field, f.name)
		_, _ = fw.Write([]byte(f.content))
	}
	_ = mw.Close()

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorBody(w *httptest.ResponseRecorder) string {
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return body["error"]
}
