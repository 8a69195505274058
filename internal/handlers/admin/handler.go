package admin

import (
	"context"
	"mime/multipart"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"storefront_back_end/internal/audit"
	"storefront_back_end/internal/cache"
	"storefront_back_end/internal/models"
	"storefront_back_end/internal/realtime"
	"storefront_back_end/internal/services"
)

// Store is the back-office view of the database.
type Store interface {
	AdminProducts(ctx context.Context) ([]models.Product, error)
	ProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, id uuid.UUID, p *models.Product) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	CategoriesWithCounts(ctx context.Context) ([]models.CategoryWithCount, error)
	CategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	CreateCategory(ctx context.Context, c *models.Category) error
	UpdateCategory(ctx context.Context, id uuid.UUID, c *models.Category) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	AllOrders(ctx context.Context) ([]models.Order, error)
	OrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error)

	Profiles(ctx context.Context) ([]models.Profile, error)
	SetAdmin(ctx context.Context, id uuid.UUID, admin bool) error

	CountProducts(ctx context.Context) (int64, error)
	CountOrders(ctx context.Context) (int64, error)
	CountProfiles(ctx context.Context) (int64, error)
	Revenue(ctx context.Context) (decimal.Decimal, error)
}

// Indexer keeps the search index in step with product writes.
type Indexer interface {
	IndexAsync(p models.Product)
	DeleteAsync(id uuid.UUID)
}

// Images is the object storage for product pictures.
type Images interface {
	Upload(ctx context.Context, fh *multipart.FileHeader) (string, error)
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type Deps struct {
	Store      Store
	Discounts  Table[models.Discount]
	TaxRates   Table[models.TaxRate]
	Warehouses Table[models.Warehouse]
	Search     Indexer
	Images     Images
	Cache      *cache.Cache
	Hub        *realtime.Hub
	Audit      *audit.Recorder
	Mailer     *services.Mailer
	Upgrader   *websocket.Upgrader
}

type Handler struct {
	Deps

	DiscountsAPI  *Resource[models.Discount]
	TaxRatesAPI   *Resource[models.TaxRate]
	WarehousesAPI *Resource[models.Warehouse]
}

type noopIndexer struct{}

func (noopIndexer) IndexAsync(models.Product) {}
func (noopIndexer) DeleteAsync(uuid.UUID)     {}

func NewHandler(d Deps) *Handler {
	if d.Search == nil {
		d.Search = noopIndexer{}
	}
	if d.Upgrader == nil {
		d.Upgrader = realtime.NewUpgrader(nil)
	}
	return &Handler{
		Deps:          d,
		DiscountsAPI:  NewResource("Discount", audit.RESOURCE_DISCOUNT, d.Discounts, d.Audit, validateDiscount),
		TaxRatesAPI:   NewResource("Tax rate", audit.RESOURCE_TAX_RATE, d.TaxRates, d.Audit, validateTaxRate),
		WarehousesAPI: NewResource("Warehouse", audit.RESOURCE_WAREHOUSE, d.Warehouses, d.Audit, validateWarehouse),
	}
}
