package user

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"storefront_back_end/internal/auth"
	"storefront_back_end/internal/checkout"
	"storefront_back_end/internal/models"
	"storefront_back_end/internal/pricing"
	"storefront_back_end/internal/store"
)

type fakeStore struct {
	mu        sync.Mutex
	products  map[uuid.UUID]*models.Product
	cart      []models.CartItem
	profiles  map[uuid.UUID]*models.Profile
	orders    []models.Order
	wishlist  []models.WishlistItem
	placeErr  error
	intentIDs map[uuid.UUID]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products:  map[uuid.UUID]*models.Product{},
		profiles:  map[uuid.UUID]*models.Profile{},
		intentIDs: map[uuid.UUID]string{},
	}
}

func (f *fakeStore) addProduct(name string, price int64, stock int) *models.Product {
	p := &models.Product{
		ID: uuid.New(), Name: name, Slug: name, Price: decimal.NewFromInt(price), StockQuantity: stock,
		Sizes: []string{"S", "M"}, Colors: []string{"Black"},
	}
	f.products[p.ID] = p
	return p
}

func (f *fakeStore) CartItems(_ context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.CartItem
	for _, it := range f.cart {
		if it.UserID == userID {
			it.Product = f.products[it.ProductID]
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeStore) PlaceOrder(_ context.Context, order *models.Order) error {
	if f.placeErr != nil {
		return f.placeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, *order)
	kept := f.cart[:0]
	for _, it := range f.cart {
		if it.UserID != order.UserID {
			kept = append(kept, it)
		}
	}
	f.cart = kept
	return nil
}

func (f *fakeStore) ProductByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	if p, ok := f.products[id]; ok {
		return p, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) CartItem(_ context.Context, userID, id uuid.UUID) (*models.CartItem, error) {
	for _, it := range f.cart {
		if it.ID == id && it.UserID == userID {
			it.Product = f.products[it.ProductID]
			return &it, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) UpsertCartItem(_ context.Context, item *models.CartItem) error {
	for i, it := range f.cart {
		if it.UserID == item.UserID && it.ProductID == item.ProductID && it.Size == item.Size && it.Color == item.Color {
			f.cart[i].Quantity = item.Quantity
			item.ID = it.ID
			return nil
		}
	}
	item.ID = uuid.New()
	f.cart = append(f.cart, *item)
	return nil
}

func (f *fakeStore) SetCartQuantity(_ context.Context, userID, id uuid.UUID, quantity int) error {
	for i, it := range f.cart {
		if it.ID == id && it.UserID == userID {
			f.cart[i].Quantity = quantity
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) DeleteCartItem(_ context.Context, userID, id uuid.UUID) error {
	for i, it := range f.cart {
		if it.ID == id && it.UserID == userID {
			f.cart = append(f.cart[:i], f.cart[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) EnsureProfile(_ context.Context, id uuid.UUID, email string) (*models.Profile, bool, error) {
	if p, ok := f.profiles[id]; ok {
		return p, false, nil
	}
	p := &models.Profile{ID: id, Email: email, IsAdmin: len(f.profiles) == 0}
	f.profiles[id] = p
	return p, true, nil
}

func (f *fakeStore) UpsertProfile(_ context.Context, p *models.Profile) error {
	cp := *p
	f.profiles[p.ID] = &cp
	return nil
}

func (f *fakeStore) UserOrders(_ context.Context, userID uuid.UUID) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeStore) UserOrder(_ context.Context, userID, id uuid.UUID) (*models.Order, error) {
	for _, o := range f.orders {
		if o.ID == id && o.UserID == userID {
			return &o, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) UserOrderByNumber(_ context.Context, userID uuid.UUID, number string) (*models.Order, error) {
	for _, o := range f.orders {
		if o.OrderNumber == number && o.UserID == userID {
			return &o, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) CountUserOrders(ctx context.Context, userID uuid.UUID) (int64, error) {
	orders, _ := f.UserOrders(ctx, userID)
	return int64(len(orders)), nil
}

func (f *fakeStore) SetPaymentIntent(_ context.Context, orderID uuid.UUID, intentID string) error {
	f.intentIDs[orderID] = intentID
	return nil
}

func (f *fakeStore) Wishlist(_ context.Context, userID uuid.UUID) ([]models.WishlistItem, error) {
	var out []models.WishlistItem
	for _, w := range f.wishlist {
		if w.UserID == userID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakeStore) AddToWishlist(_ context.Context, userID, productID uuid.UUID) (*models.WishlistItem, error) {
	for _, w := range f.wishlist {
		if w.UserID == userID && w.ProductID == productID {
			return nil, store.ErrConflict
		}
	}
	w := models.WishlistItem{ID: uuid.New(), UserID: userID, ProductID: productID}
	f.wishlist = append(f.wishlist, w)
	return &w, nil
}

func (f *fakeStore) RemoveFromWishlist(_ context.Context, userID, productID uuid.UUID) error {
	for i, w := range f.wishlist {
		if w.UserID == userID && w.ProductID == productID {
			f.wishlist = append(f.wishlist[:i], f.wishlist[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) CountWishlist(ctx context.Context, userID uuid.UUID) (int64, error) {
	items, _ := f.Wishlist(ctx, userID)
	return int64(len(items)), nil
}

type fakeAuth struct {
	session    *auth.Session
	err        error
	password   string
	signedOut  string
	idTokenFor string
}

func (f *fakeAuth) SignUp(_ context.Context, email, _, _ string) (*auth.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.session.User.Email = email
	return f.session, nil
}

func (f *fakeAuth) SignInWithPassword(context.Context, string, string) (*auth.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

func (f *fakeAuth) SignInWithIDToken(_ context.Context, provider, _ string) (*auth.Session, error) {
	f.idTokenFor = provider
	return f.session, f.err
}

func (f *fakeAuth) SignOut(_ context.Context, token string) error {
	f.signedOut = token
	return nil
}

func (f *fakeAuth) UpdatePassword(_ context.Context, _ string, password string) error {
	if f.err != nil {
		return f.err
	}
	f.password = password
	return nil
}

type env struct {
	store  *fakeStore
	auth   *fakeAuth
	h      *Handler
	router *gin.Engine
	userID uuid.UUID
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	fs := newFakeStore()
	fa := &fakeAuth{session: &auth.Session{AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 3600, User: auth.User{ID: uuid.New()}}}
	h := NewHandler(Deps{
		Store:    fs,
		Checkout: checkout.NewService(fs, pricing.Default()),
		Auth:     fa,
		Sessions: sessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef")),
	})
	e := &env{store: fs, auth: fa, h: h, userID: uuid.New()}

	r := gin.New()
	identify := func(c *gin.Context) {
		claims := &auth.Claims{Email: "asha@example.com", SessionID: "sess-1"}
		claims.Subject = e.userID.String()
		auth.SetIdentity(c, e.userID, claims, "raw-token")
		c.Next()
	}
	r.POST("/api/auth/signup", h.Signup)
	r.POST("/api/auth/login", h.Login)

	authed := r.Group("/api", identify)
	authed.GET("/cart", h.GetCart)
	authed.POST("/cart", h.AddToCart)
	authed.PATCH("/cart/:id", h.UpdateCartItem)
	authed.DELETE("/cart/:id", h.RemoveCartItem)
	authed.GET("/checkout", h.GetCheckout)
	authed.POST("/checkout", h.PlaceOrder)
	authed.GET("/orders/success", h.OrderSuccess)
	authed.GET("/account", h.GetAccount)
	authed.PUT("/account/profile", h.UpdateProfile)
	authed.PUT("/account/password", h.ChangePassword)
	authed.GET("/account/orders", h.ListOrders)
	authed.GET("/account/orders/:id", h.GetOrder)
	authed.GET("/wishlist", h.GetWishlist)
	authed.POST("/wishlist", h.AddToWishlist)
	authed.DELETE("/wishlist/:productId", h.RemoveFromWishlist)
	authed.POST("/auth/logout", h.Logout)

	e.router = r
	return e
}

func (e *env) do(t *testing.T, method, path string, body any, headers ...string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}
