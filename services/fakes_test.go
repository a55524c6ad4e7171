package services_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"sync"

	"catalog-service/blobstore"
	"catalog-service/models"
	"catalog-service/repository"
	"catalog-service/services"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// --- Category repository ---

type fakeCategoryRepo struct {
	items map[primitive.ObjectID]*models.Category
	// findErr is returned by every read when set.
	findErr error
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{items: map[primitive.ObjectID]*models.Category{}}
}

func (f *fakeCategoryRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Category, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	c, ok := f.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCategoryRepo) Find(_ context.Context, opts repository.ListOptions) ([]models.Category, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	out := []models.Category{}
	for _, c := range f.items {
		if matchCategory(c, opts.Filter) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func matchCategory(c *models.Category, filter bson.M) bool {
	for key, want := range filter {
		switch key {
		case "parent":
			switch w := want.(type) {
			case nil:
				if c.Parent != nil {
					return false
				}
			case primitive.ObjectID:
				if c.Parent == nil || *c.Parent != w {
					return false
				}
			case bson.M:
				ids := w["$in"].([]primitive.ObjectID)
				if c.Parent == nil || !containsID(ids, *c.Parent) {
					return false
				}
			}
		case "_id":
			ids := want.(bson.M)["$in"].([]primitive.ObjectID)
			if !containsID(ids, c.ID) {
				return false
			}
		case "name":
			re := want.(primitive.Regex)
			if !regexp.MustCompile("(?i)" + re.Pattern).MatchString(c.Name) {
				return false
			}
		}
	}
	return true
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func (f *fakeCategoryRepo) FindChildren(ctx context.Context, parentIDs []primitive.ObjectID, _ bson.D) ([]models.Category, error) {
	return f.Find(ctx, repository.ListOptions{Filter: bson.M{"parent": bson.M{"$in": parentIDs}}})
}

func (f *fakeCategoryRepo) HasChildren(_ context.Context, id primitive.ObjectID) (bool, error) {
	for _, c := range f.items {
		if c.Parent != nil && *c.Parent == id {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCategoryRepo) nameTaken(name string, except primitive.ObjectID) bool {
	for id, c := range f.items {
		if id != except && c.Name == name {
			return true
		}
	}
	return false
}

func (f *fakeCategoryRepo) Create(_ context.Context, c *models.Category) error {
	if f.nameTaken(c.Name, primitive.NilObjectID) {
		return fmt.Errorf("insert category: %w", repository.ErrDuplicateKey)
	}
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	cp := *c
	f.items[c.ID] = &cp
	return nil
}

func (f *fakeCategoryRepo) Update(_ context.Context, id primitive.ObjectID, set bson.M) (*models.Category, error) {
	c, ok := f.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if name, ok := set["name"].(string); ok {
		if f.nameTaken(name, id) {
			return nil, fmt.Errorf("update categories: %w", repository.ErrDuplicateKey)
		}
		c.Name = name
	}
	if parent, ok := set["parent"]; ok {
		c.Parent = parent.(*primitive.ObjectID)
	}
	if level, ok := set["level"].(int); ok {
		c.Level = level
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCategoryRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := f.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeCategoryRepo) EnsureIndexes(context.Context) error { return nil }

// --- Brand repository ---

type fakeBrandRepo struct {
	items map[primitive.ObjectID]*models.Brand
}

func newFakeBrandRepo() *fakeBrandRepo {
	return &fakeBrandRepo{items: map[primitive.ObjectID]*models.Brand{}}
}

func (f *fakeBrandRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Brand, error) {
	b, ok := f.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBrandRepo) Find(_ context.Context, _ repository.ListOptions) ([]models.Brand, error) {
	out := []models.Brand{}
	for _, b := range f.items {
		out = append(out, *b)
	}
	return out, nil
}

func (f *fakeBrandRepo) Create(_ context.Context, b *models.Brand) error {
	for _, existing := range f.items {
		if existing.Name == b.Name {
			return fmt.Errorf("insert brand: %w", repository.ErrDuplicateKey)
		}
	}
	b.ID = primitive.NewObjectID()
	cp := *b
	f.items[b.ID] = &cp
	return nil
}

func (f *fakeBrandRepo) Update(_ context.Context, id primitive.ObjectID, set bson.M) (*models.Brand, error) {
	b, ok := f.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if name, ok := set["name"].(string); ok {
		b.Name = name
	}
	if image, ok := set["image"].(string); ok {
		b.Image = image
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBrandRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := f.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeBrandRepo) EnsureIndexes(context.Context) error { return nil }

// --- Product repository ---

type fakeProductRepo struct {
	products map[primitive.ObjectID]*models.Product
	updates  []repository.ProductUpdate
	lastOpts repository.ListOptions
	total    int64
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: map[primitive.ObjectID]*models.Product{}}
}

func (f *fakeProductRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProductRepo) FindDetail(_ context.Context, id primitive.ObjectID) (*models.ProductDetail, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &models.ProductDetail{
		ID:         p.ID,
		Name:       p.Name,
		ModelCode:  p.ModelCode,
		Images:     p.Images,
		SpecSheets: p.SpecSheets,
		Price:      p.Price,
	}, nil
}

func (f *fakeProductRepo) FindDetails(_ context.Context, opts repository.ListOptions) ([]models.ProductDetail, error) {
	f.lastOpts = opts
	return []models.ProductDetail{}, nil
}

func (f *fakeProductRepo) Count(_ context.Context, _ bson.M) (int64, error) {
	return f.total, nil
}

func (f *fakeProductRepo) codeTaken(code string) bool {
	if code == "" {
		return false
	}
	for _, p := range f.products {
		if p.ModelCode == code {
			return true
		}
	}
	return false
}

func (f *fakeProductRepo) Create(_ context.Context, p *models.Product) error {
	if f.codeTaken(p.ModelCode) {
		return fmt.Errorf("insert product: %w", repository.ErrDuplicateKey)
	}
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	cp := *p
	f.products[p.ID] = &cp
	return nil
}

func (f *fakeProductRepo) CreateMany(ctx context.Context, products []*models.Product) (*repository.InsertOutcome, error) {
	outcome := &repository.InsertOutcome{InsertedIDs: []primitive.ObjectID{}, Failed: map[int]string{}}
	for i, p := range products {
		if f.codeTaken(p.ModelCode) {
			outcome.Failed[i] = fmt.Sprintf("E11000 duplicate key error collection: catalog.products index: uniq_model_code dup key: { modelCode: %q }", p.ModelCode)
			continue
		}
		_ = f.Create(ctx, p)
		outcome.InsertedIDs = append(outcome.InsertedIDs, p.ID)
	}
	return outcome, nil
}

func (f *fakeProductRepo) Update(_ context.Context, u repository.ProductUpdate) error {
	p, ok := f.products[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	f.updates = append(f.updates, u)
	if name, ok := u.Set["name"].(string); ok {
		p.Name = name
	}
	if images, ok := u.Set["images"].([]string); ok {
		p.Images = images
	}
	p.Images = append(p.Images, u.Push["images"]...)
	p.SpecSheets = append(p.SpecSheets, u.Push["specSheets"]...)
	return nil
}

func (f *fakeProductRepo) UpdateMany(ctx context.Context, updates []repository.ProductUpdate) (*repository.UpdateOutcome, error) {
	outcome := &repository.UpdateOutcome{Failed: map[int]string{}}
	for _, u := range updates {
		if err := f.Update(ctx, u); err == nil {
			outcome.MatchedCount++
			outcome.ModifiedCount++
		}
	}
	return outcome, nil
}

func (f *fakeProductRepo) PullFile(_ context.Context, id primitive.ObjectID, field, url string) error {
	p, ok := f.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	list := &p.Images
	if field == "specSheets" {
		list = &p.SpecSheets
	}
	kept := []string{}
	for _, v := range *list {
		if v != url {
			kept = append(kept, v)
		}
	}
	*list = kept
	return nil
}

func (f *fakeProductRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := f.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.products, id)
	return nil
}

func (f *fakeProductRepo) EnsureIndexes(context.Context) error { return nil }

// --- Blob store ---

type fakeStore struct {
	mu       sync.Mutex
	uploads  []blobstore.UploadInput
	contents map[string]string
	deleted  []string
	// failAfter makes the n-th upload (1-based) fail when non-zero.
	failAfter int
}

func newFakeStore() *fakeStore {
	return &fakeStore{contents: map[string]string{}}
}

func (s *fakeStore) Upload(_ context.Context, in blobstore.UploadInput) (*blobstore.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAfter > 0 && len(s.uploads)+1 == s.failAfter {
		return nil, fmt.Errorf("upload rejected")
	}
	body, _ := io.ReadAll(in.Body)
	s.uploads = append(s.uploads, in)
	id := in.Folder + "/" + in.PublicID
	s.contents[id] = string(body)
	return &blobstore.Object{URL: "https://cdn.test/" + id, PublicID: id}, nil
}

func (s *fakeStore) Delete(_ context.Context, publicID string, _ blobstore.ResourceType) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contents[publicID]; !ok {
		return false, nil
	}
	delete(s.contents, publicID)
	s.deleted = append(s.deleted, publicID)
	return true, nil
}

func (s *fakeStore) PublicIDFromURL(url string) (string, error) {
	if !strings.HasPrefix(url, "https://cdn.test/") {
		return "", blobstore.ErrInvalidURL
	}
	return strings.TrimPrefix(url, "https://cdn.test/"), nil
}

// --- Events ---

type recordedEvent struct {
	Type string
	IDs  []string
}

type fakeEvents struct {
	events []recordedEvent
}

func (f *fakeEvents) Publish(_ context.Context, eventType string, ids ...string) {
	f.events = append(f.events, recordedEvent{Type: eventType, IDs: ids})
}

// --- Helpers ---

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func file(name, content string) services.FileUpload {
	return services.FileUpload{
		Filename: name,
		Size:     int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewBufferString(content)), nil
		},
	}
}
