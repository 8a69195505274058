package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront_back_end/internal/handlers/admin"
	"storefront_back_end/internal/handlers/invoice"
	"storefront_back_end/internal/handlers/payment"
	"storefront_back_end/internal/handlers/product"
	"storefront_back_end/internal/handlers/user"
	"storefront_back_end/internal/logging"
	"storefront_back_end/internal/middleware"
)

// Deps is everything the route table hands requests to.
type Deps struct {
	Catalog *product.Handler
	User    *user.Handler
	Invoice *invoice.Handler
	Payment *payment.Handler
	Admin   *admin.Handler

	Auth    *middleware.Auth
	Limits  middleware.Counter
	Admins  middleware.AdminChecker
	Origins []string

	// Health is checked by /healthz; nil reports ok.
	Health func(ctx context.Context) error
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.Use(logging.GinLogger(logging.L()))
	r.Use(middleware.CORS(d.Origins))

	r.GET("/healthz", healthz(d.Health))

	api := r.Group("/api", middleware.APIRateLimit(d.Limits))
	required := d.Auth.Required()

	// Catalog
	api.GET("/home", d.Catalog.Home)
	api.GET("/shop/:category", d.Catalog.Shop)
	api.GET("/products/:slug", d.Catalog.Product)
	api.GET("/categories", d.Catalog.Categories)
	api.GET("/search", d.Catalog.Search)
	api.GET("/images/*key", d.Admin.ServeImage)

	// Auth
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/signup", middleware.RegisterRateLimit(d.Limits), d.User.Signup)
		authGroup.POST("/login", middleware.LoginRateLimit(d.Limits), d.User.Login)
		authGroup.POST("/logout", required, d.User.Logout)
		authGroup.GET("/:provider", d.User.BeginOAuth)
		authGroup.GET("/:provider/callback", d.User.OAuthCallback)
	}

	// Stripe calls this without a user token
	api.POST("/payments/webhook", d.Payment.Webhook)

	me := api.Group("", required)
	{
		me.GET("/cart", d.User.GetCart)
		me.POST("/cart", middleware.CartRateLimit(d.Limits), d.User.AddToCart)
		me.GET("/cart/live", d.User.CartLive)
		me.PATCH("/cart/:id", d.User.UpdateCartItem)
		me.DELETE("/cart/:id", d.User.RemoveCartItem)

		me.GET("/checkout", d.User.GetCheckout)
		me.POST("/checkout", d.User.PlaceOrder)
		me.GET("/orders/success", d.User.OrderSuccess)
		me.POST("/orders/:id/pay", d.Payment.CreateIntent)

		me.GET("/account", d.User.GetAccount)
		me.PUT("/account/profile", d.User.UpdateProfile)
		me.PUT("/account/password", d.User.ChangePassword)
		me.GET("/account/orders", d.User.ListOrders)
		me.GET("/account/orders/:id", d.User.GetOrder)
		me.GET("/account/orders/:id/print", d.Invoice.Print)
		me.POST("/account/orders/:id/invoice", d.Invoice.Send)

		me.GET("/wishlist", d.User.GetWishlist)
		me.POST("/wishlist", d.User.AddToWishlist)
		me.DELETE("/wishlist/:productId", d.User.RemoveFromWishlist)
	}

	registerAdmin(api.Group("/admin", required, middleware.RequireAdmin(d.Admins)), d.Admin)
}

func registerAdmin(g *gin.RouterGroup, h *admin.Handler) {
	g.GET("/dashboard", h.Dashboard)

	g.GET("/products", h.ListProducts)
	g.POST("/products", h.CreateProduct)
	g.GET("/products/:id", h.GetProduct)
	g.PUT("/products/:id", h.UpdateProduct)
	g.DELETE("/products/:id", h.DeleteProduct)

	g.GET("/categories", h.ListCategories)
	g.POST("/categories", h.CreateCategory)
	g.GET("/categories/:id", h.GetCategory)
	g.PUT("/categories/:id", h.UpdateCategory)
	g.DELETE("/categories/:id", h.DeleteCategory)

	g.GET("/orders", h.ListOrders)
	g.GET("/orders/live", h.OrdersLive)
	g.GET("/orders/:id", h.GetOrder)
	g.PATCH("/orders/:id/status", h.UpdateOrderStatus)

	g.GET("/users", h.ListUsers)
	g.PATCH("/users/:id/admin", h.SetAdmin)

	resources := map[string]interface {
		List(*gin.Context)
		Get(*gin.Context)
		Create(*gin.Context)
		Update(*gin.Context)
		Delete(*gin.Context)
	}{
		"/discounts":  h.DiscountsAPI,
		"/tax-rates":  h.TaxRatesAPI,
		"/warehouses": h.WarehousesAPI,
	}
	for path, res := range resources {
		g.GET(path, res.List)
		g.POST(path, res.Create)
		g.GET(path+"/:id", res.Get)
		g.PUT(path+"/:id", res.Update)
		g.DELETE(path+"/:id", res.Delete)
	}

	g.POST("/images", h.UploadImage)
	g.GET("/audit", h.AuditLogs)
}

func healthz(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				logging.L().Warn("⚠️ Health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
