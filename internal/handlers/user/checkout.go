package user

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront_back_end/internal/audit"
	"storefront_back_end/internal/auth"
	"storefront_back_end/internal/cache"
	"storefront_back_end/internal/checkout"
	"storefront_back_end/internal/handlers"
	"storefront_back_end/internal/logging"
	"storefront_back_end/internal/models"
	"storefront_back_end/internal/realtime"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	IdempotencyTTL    = 24 * time.Hour
)

// GET /api/checkout
func (h *Handler) GetCheckout(c *gin.Context) {
	userID, ok := handlers.CurrentUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	summary, err := h.Checkout.Summarize(ctx, userID)
	if err != nil {
		handlers.Fail(c, err, "Cart")
		return
	}
	if len(summary.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Your cart is empty", "redirect": "/cart"})
		return
	}
	profile, _, err := h.Store.EnsureProfile(ctx, userID, auth.Email(c))
	if err != nil {
		handlers.Fail(c, err, "Profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items":   summary.Items,
		"summary": summary.Totals,
		"profile": profile,
	})
}

// POST /api/checkout
func (h *Handler) PlaceOrder(c *gin.Context) {
	userID, ok := handlers.CurrentUser(c)
	if !ok {
		return
	}
	var req checkout.Request
	if !handlers.BindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	key := strings.TrimSpace(c.GetHeader(IdempotencyHeader))
	if key != "" {
		previous, claimed, err := h.Cache.ClaimIdempotencyKey(ctx, userID.String(), key, IdempotencyTTL)
		switch {
		case errors.Is(err, cache.ErrIdempotencyUnknown):
			logging.L().Warn("⚠️ Idempotency key taken but unreadable", zap.String("user_id", userID.String()), zap.Error(err))
			c.Header("Retry-After", "5")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Could not confirm this order yet. Please try again"})
			return
		case err != nil:
			logging.L().Warn("⚠️ Idempotency check failed, continuing without it", zap.Error(err))
			key = ""
		case !claimed:
			h.replayOrder(c, userID, previous)
			return
		}
	}

	order, err := h.Checkout.PlaceOrder(ctx, userID, req)
	if err != nil {
		if key != "" {
			if rerr := h.Cache.ReleaseIdempotencyKey(ctx, userID.String(), key); rerr != nil {
				logging.L().Warn("⚠️ Idempotency release failed", zap.Error(rerr))
			}
		}
		h.Audit.RecordFailure(c, audit.ACTION_ORDER_CREATE, audit.RESOURCE_ORDER, "", err.Error())
		h.checkoutFailed(c, err)
		return
	}
	if key != "" {
		if err := h.Cache.CompleteIdempotencyKey(ctx, userID.String(), key, order.OrderNumber, IdempotencyTTL); err != nil {
			logging.L().Warn("⚠️ Idempotency store failed", zap.Error(err))
		}
	}

	logging.L().Info("✅ Order placed",
		zap.String("order_number", order.OrderNumber),
		zap.String("user_id", userID.String()),
		zap.String("total", order.TotalAmount.StringFixed(2)))

	resp := gin.H{
		"message":      "Order placed successfully",
		"order_number": order.OrderNumber,
		"order":        order,
	}
	if order.PaymentMethod == models.PaymentOnline {
		if secret := h.startPayment(ctx, order); secret != "" {
			resp["client_secret"] = secret
		}
	}

	h.Audit.Record(c, audit.ACTION_ORDER_CREATE, audit.RESOURCE_ORDER, order.ID.String(), nil, order)
	h.Hub.PublishOrder(ctx, realtime.EventOrderCreated, order)
	h.Hub.CartChanged(ctx, userID, realtime.CartCleared)
	h.sendConfirmation(order, auth.Email(c))

	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) checkoutFailed(c *gin.Context, err error) {
	switch {
	case errors.Is(err, checkout.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, checkout.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Your cart is empty", "redirect": "/cart"})
	default:
		handlers.Fail(c, err, "Order")
	}
}

// replayOrder answers a retried checkout with the order the key first produced.
func (h *Handler) replayOrder(c *gin.Context, userID uuid.UUID, previous string) {
	if previous == "" || cache.IsPending(previous) {
		c.JSON(http.StatusConflict, gin.H{"error": "This order is already being processed"})
		return
	}
	order, err := h.Store.UserOrderByNumber(c.Request.Context(), userID, previous)
	if err != nil {
		handlers.Fail(c, err, "Order")
		return
	}
	c.Header("Idempotent-Replayed", "true")
	c.JSON(http.StatusOK, gin.H{
		"message":      "Order placed successfully",
		"order_number": order.OrderNumber,
		"order":        order,
	})
}

// startPayment creates the payment intent and returns its client secret, or "" when payments are off.
func (h *Handler) startPayment(ctx context.Context, order *models.Order) string {
	if !h.Payments.Enabled() {
		logging.L().Warn("⚠️ Online payment requested but Stripe is not configured", zap.String("order_number", order.OrderNumber))
		return ""
	}
	intent, err := h.Payments.CreateIntent(order, h.Settings.Currency)
	if err != nil {
		logging.L().Error("❌ Payment intent failed", zap.String("order_number", order.OrderNumber), zap.Error(err))
		return ""
	}
	if err := h.Store.SetPaymentIntent(ctx, order.ID, intent.ID); err != nil {
		logging.L().Error("❌ Payment intent not stored", zap.String("order_number", order.OrderNumber), zap.Error(err))
	}
	order.PaymentIntentID = intent.ID
	return intent.ClientSecret
}

func (h *Handler) sendConfirmation(order *models.Order, email string) {
	if email == "" {
		return
	}
	h.Mailer.Go("order confirmation "+order.OrderNumber, func(ctx context.Context) error {
		var pdf []byte
		if h.Invoices != nil {
			var err error
			if pdf, err = h.Invoices.PDF(ctx, order, email); err != nil {
				logging.L().Warn("⚠️ Invoice PDF skipped", zap.String("order_number", order.OrderNumber), zap.Error(err))
				pdf = nil
			}
		}
		return h.Mailer.OrderConfirmation(ctx, email, order.ShippingAddress.FullName, order, pdf)
	})
}

// GET /api/orders/success?orderNumber=
func (h *Handler) OrderSuccess(c *gin.Context) {
	userID, ok := handlers.CurrentUser(c)
	if !ok {
		return
	}
	number := strings.TrimSpace(c.Query("orderNumber"))
	if number == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "orderNumber is required"})
		return
	}
	order, err := h.Store.UserOrderByNumber(c.Request.Context(), userID, number)
	if err != nil {
		handlers.Fail(c, err, "Order")
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}
