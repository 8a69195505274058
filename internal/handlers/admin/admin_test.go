package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"storefront_back_end/internal/audit"
	"storefront_back_end/internal/auth"
	"storefront_back_end/internal/models"
	"storefront_back_end/internal/services"
	"storefront_back_end/internal/store"
)

type fakeStore struct {
	products   map[uuid.UUID]models.Product
	categories map[uuid.UUID]models.Category
	orders     map[uuid.UUID]models.Order
	admins     map[uuid.UUID]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products:   map[uuid.UUID]models.Product{},
		categories: map[uuid.UUID]models.Category{},
		orders:     map[uuid.UUID]models.Order{},
		admins:     map[uuid.UUID]bool{},
	}
}

func (f *fakeStore) AdminProducts(context.Context) ([]models.Product, error) {
	var out []models.Product
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeStore) ProductByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (f *fakeStore) CreateProduct(_ context.Context, p *models.Product) error {
	for _, existing := range f.products {
		if existing.Slug == p.Slug {
			return store.ErrConflict
		}
	}
	p.ID = uuid.New()
	f.products[p.ID] = *p
	return nil
}

func (f *fakeStore) UpdateProduct(_ context.Context, id uuid.UUID, p *models.Product) (*models.Product, error) {
	before, ok := f.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	p.ID = id
	f.products[id] = *p
	return &before, nil
}

func (f *fakeStore) DeleteProduct(_ context.Context, id uuid.UUID) error {
	if _, ok := f.products[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.products, id)
	return nil
}

func (f *fakeStore) CategoriesWithCounts(context.Context) ([]models.CategoryWithCount, error) {
	var out []models.CategoryWithCount
	for _, c := range f.categories {
		out = append(out, models.CategoryWithCount{Category: c})
	}
	return out, nil
}

func (f *fakeStore) CategoryByID(_ context.Context, id uuid.UUID) (*models.Category, error) {
	c, ok := f.categories[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (f *fakeStore) CreateCategory(_ context.Context, c *models.Category) error {
	c.ID = uuid.New()
	f.categories[c.ID] = *c
	return nil
}

func (f *fakeStore) UpdateCategory(_ context.Context, id uuid.UUID, c *models.Category) error {
	if _, ok := f.categories[id]; !ok {
		return store.ErrNotFound
	}
	c.ID = id
	f.categories[id] = *c
	return nil
}

func (f *fakeStore) DeleteCategory(_ context.Context, id uuid.UUID) error {
	if _, ok := f.categories[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.categories, id)
	return nil
}

func (f *fakeStore) AllOrders(context.Context) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.orders {
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeStore) OrderByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &o, nil
}

func (f *fakeStore) UpdateOrderStatus(_ context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	o.Status = status
	f.orders[id] = o
	return &o, nil
}

func (f *fakeStore) Profiles(context.Context) ([]models.Profile, error) {
	return []models.Profile{{ID: uuid.New(), Email: "a@b.co"}}, nil
}

func (f *fakeStore) SetAdmin(_ context.Context, id uuid.UUID, admin bool) error {
	f.admins[id] = admin
	return nil
}

func (f *fakeStore) CountProducts(context.Context) (int64, error) { return int64(len(f.products)), nil }
func (f *fakeStore) CountOrders(context.Context) (int64, error)   { return int64(len(f.orders)), nil }
func (f *fakeStore) CountProfiles(context.Context) (int64, error) { return 7, nil }
func (f *fakeStore) Revenue(context.Context) (decimal.Decimal, error) {
	return decimal.RequireFromString("12345.50"), nil
}

type fakeTable[T any] struct {
	rows map[uuid.UUID]T
}

func (t *fakeTable[T]) List(context.Context) ([]T, error) {
	var out []T
	for _, v := range t.rows {
		out = append(out, v)
	}
	return out, nil
}

func (t *fakeTable[T]) Get(_ context.Context, id uuid.UUID) (*T, error) {
	v, ok := t.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &v, nil
}

func (t *fakeTable[T]) Create(_ context.Context, v *T) error {
	t.rows[uuid.New()] = *v
	return nil
}

func (t *fakeTable[T]) Update(_ context.Context, id uuid.UUID, v *T) error {
	if _, ok := t.rows[id]; !ok {
		return store.ErrNotFound
	}
	t.rows[id] = *v
	return nil
}

func (t *fakeTable[T]) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := t.rows[id]; !ok {
		return store.ErrNotFound
	}
	delete(t.rows, id)
	return nil
}

type fakeIndexer struct {
	mu      sync.Mutex
	indexed []string
	deleted []uuid.UUID
}

func (f *fakeIndexer) IndexAsync(p models.Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed = append(f.indexed, p.Slug)
}

func (f *fakeIndexer) DeleteAsync(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
}

type fakeImages struct{ uploaded []string }

func (f *fakeImages) Upload(_ context.Context, fh *multipart.FileHeader) (string, error) {
	key, _, err := services.ObjectKey(fh.Filename)
	if err != nil {
		return "", err
	}
	f.uploaded = append(f.uploaded, key)
	return key, nil
}

func (f *fakeImages) SignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	key, err := services.CleanKey(key)
	if err != nil {
		return "", err
	}
	return "https://minio.local/storefront/" + key + "?X-Amz-Signature=abc", nil
}

type memorySink struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (m *memorySink) Insert(_ context.Context, e models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *memorySink) List(context.Context, audit.Filter) ([]models.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.AuditLog(nil), m.entries...), nil
}

func (m *memorySink) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, e := range m.entries {
		out = append(out, e.Action)
	}
	return out
}

type env struct {
	store   *fakeStore
	index   *fakeIndexer
	images  *fakeImages
	sink    *memorySink
	rec     *audit.Recorder
	h       *Handler
	router  *gin.Engine
	adminID uuid.UUID
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	e := &env{
		store:   newFakeStore(),
		index:   &fakeIndexer{},
		images:  &fakeImages{},
		sink:    &memorySink{},
		adminID: uuid.New(),
	}
	e.rec = audit.NewRecorder(e.sink)
	e.h = NewHandler(Deps{
		Store:      e.store,
		Discounts:  &fakeTable[models.Discount]{rows: map[uuid.UUID]models.Discount{}},
		TaxRates:   &fakeTable[models.TaxRate]{rows: map[uuid.UUID]models.TaxRate{}},
		Warehouses: &fakeTable[models.Warehouse]{rows: map[uuid.UUID]models.Warehouse{}},
		Search:     e.index,
		Images:     e.images,
		Audit:      e.rec,
	})

	r := gin.New()
	r.GET("/api/images/*key", e.h.ServeImage)
	g := r.Group("/api/admin", func(c *gin.Context) {
		auth.SetIdentity(c, e.adminID, &auth.Claims{Email: "admin@example.com"}, "tok")
	})
	g.GET("/dashboard", e.h.Dashboard)
	g.GET("/products", e.h.ListProducts)
	g.POST("/products", e.h.CreateProduct)
	g.PUT("/products/:id", e.h.UpdateProduct)
	g.DELETE("/products/:id", e.h.DeleteProduct)
	g.POST("/categories", e.h.CreateCategory)
	g.PUT("/categories/:id", e.h.UpdateCategory)
	g.GET("/orders/:id", e.h.GetOrder)
	g.PATCH("/orders/:id/status", e.h.UpdateOrderStatus)
	g.GET("/users", e.h.ListUsers)
	g.PATCH("/users/:id/admin", e.h.SetAdmin)
	g.GET("/discounts", e.h.DiscountsAPI.List)
	g.POST("/discounts", e.h.DiscountsAPI.Create)
	g.POST("/warehouses", e.h.WarehousesAPI.Create)
	g.POST("/images", e.h.UploadImage)
	g.GET("/audit", e.h.AuditLogs)
	e.router = r
	return e
}

func (e *env) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}
