package user

import (
	"context"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/gorilla/websocket"

	"storefront_back_end/internal/audit"
	"storefront_back_end/internal/auth"
	"storefront_back_end/internal/cache"
	"storefront_back_end/internal/checkout"
	"storefront_back_end/internal/config"
	"storefront_back_end/internal/models"
	"storefront_back_end/internal/realtime"
	"storefront_back_end/internal/services"
)

// Store is everything the customer-facing handlers read and write.
type Store interface {
	checkout.Store

	ProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	CartItem(ctx context.Context, userID, id uuid.UUID) (*models.CartItem, error)
	UpsertCartItem(ctx context.Context, item *models.CartItem) error
	SetCartQuantity(ctx context.Context, userID, id uuid.UUID, quantity int) error
	DeleteCartItem(ctx context.Context, userID, id uuid.UUID) error

	EnsureProfile(ctx context.Context, id uuid.UUID, email string) (*models.Profile, bool, error)
	UpsertProfile(ctx context.Context, p *models.Profile) error

	UserOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	UserOrder(ctx context.Context, userID, id uuid.UUID) (*models.Order, error)
	UserOrderByNumber(ctx context.Context, userID uuid.UUID, number string) (*models.Order, error)
	CountUserOrders(ctx context.Context, userID uuid.UUID) (int64, error)
	SetPaymentIntent(ctx context.Context, orderID uuid.UUID, intentID string) error

	Wishlist(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error)
	AddToWishlist(ctx context.Context, userID, productID uuid.UUID) (*models.WishlistItem, error)
	RemoveFromWishlist(ctx context.Context, userID, productID uuid.UUID) error
	CountWishlist(ctx context.Context, userID uuid.UUID) (int64, error)
}

// AuthClient is the hosted auth API.
type AuthClient interface {
	SignUp(ctx context.Context, email, password, fullName string) (*auth.Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*auth.Session, error)
	SignInWithIDToken(ctx context.Context, provider, idToken string) (*auth.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	UpdatePassword(ctx context.Context, accessToken, password string) error
}

// Deps wires the handler. Every backend except Store and Checkout may be nil.
type Deps struct {
	Store    Store
	Checkout *checkout.Service
	Cache    *cache.Cache
	Hub      *realtime.Hub
	Audit    *audit.Recorder
	Mailer   *services.Mailer
	Invoices *services.Invoices
	Payments *services.Payments
	Auth     AuthClient
	Sessions sessions.Store
	Upgrader *websocket.Upgrader
	Settings config.StoreSettings
	// FrontendURL is where OAuth callbacks land once the session is set.
	FrontendURL string
}

type Handler struct {
	Deps
}

func NewHandler(d Deps) *Handler {
	if d.Upgrader == nil {
		d.Upgrader = realtime.NewUpgrader(nil)
	}
	return &Handler{Deps: d}
}
