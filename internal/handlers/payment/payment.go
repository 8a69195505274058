package payment

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v83"
	"go.uber.org/zap"

	"storefront_back_end/internal/audit"
	"storefront_back_end/internal/handlers"
	"storefront_back_end/internal/logging"
	"storefront_back_end/internal/models"
	"storefront_back_end/internal/realtime"
	"storefront_back_end/internal/services"
	"storefront_back_end/internal/store"
)

const maxWebhookBytes = int64(65536)

type Orders interface {
	UserOrder(ctx context.Context, userID, id uuid.UUID) (*models.Order, error)
	SetPaymentIntent(ctx context.Context, orderID uuid.UUID, intentID string) error
	SetPaymentStatusByIntent(ctx context.Context, intentID string, status models.PaymentStatus) (*models.Order, error)
}

// Gateway is the card processor.
type Gateway interface {
	Enabled() bool
	CreateIntent(order *models.Order, currency string) (*services.Intent, error)
	ParseEvent(payload []byte, signature string) (stripe.Event, error)
}

type Handler struct {
	orders   Orders
	gateway  Gateway
	hub      *realtime.Hub
	audit    *audit.Recorder
	currency string
}

func NewHandler(orders Orders, gateway Gateway, hub *realtime.Hub, rec *audit.Recorder, currency string) *Handler {
	return &Handler{orders: orders, gateway: gateway, hub: hub, audit: rec, currency: currency}
}

// POST /api/orders/:id/pay opens a new payment intent for an unpaid online order.
func (h *Handler) CreateIntent(c *gin.Context) {
	userID, ok := handlers.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return
	}
	if !h.gateway.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Online payments are not available"})
		return
	}

	ctx := c.Request.Context()
	order, err := h.orders.UserOrder(ctx, userID, id)
	if err != nil {
		handlers.Fail(c, err, "Order")
		return
	}
	if order.PaymentMethod != models.PaymentOnline {
		c.JSON(http.StatusBadRequest, gin.H{"error": "This order is paid on delivery"})
		return
	}
	if order.PaymentStatus == models.PaymentCompleted || order.Status == models.OrderCancelled {
		c.JSON(http.StatusConflict, gin.H{"error": "This order cannot be paid"})
		return
	}

	intent, err := h.gateway.CreateIntent(order, h.currency)
	if err != nil {
		logging.L().Error("❌ Stripe error", zap.String("order_number", order.OrderNumber), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Payment provider error"})
		return
	}
	if err := h.orders.SetPaymentIntent(ctx, order.ID, intent.ID); err != nil {
		handlers.Fail(c, err, "Order")
		return
	}

	logging.L().Info("💳 PaymentIntent created",
		zap.String("intent_id", intent.ID),
		zap.String("order_number", order.OrderNumber))
	c.JSON(http.StatusOK, gin.H{"client_secret": intent.ClientSecret, "payment_intent_id": intent.ID})
}

// POST /api/payments/webhook
func (h *Handler) Webhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Payload too large"})
		return
	}

	event, err := h.gateway.ParseEvent(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		logging.L().Warn("❌ Webhook rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook"})
		return
	}

	update, ok, err := services.PaymentUpdateFrom(event)
	if err != nil {
		logging.L().Warn("❌ Webhook payload unreadable", zap.String("type", string(event.Type)), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook"})
		return
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	ctx := c.Request.Context()
	order, err := h.orders.SetPaymentStatusByIntent(ctx, update.IntentID, update.Status)
	if errors.Is(err, store.ErrNotFound) {
		// not one of ours, acknowledge so Stripe stops retrying
		logging.L().Warn("⚠️ Webhook for unknown intent", zap.String("intent_id", update.IntentID))
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	if errors.Is(err, store.ErrPaymentSettled) {
		logging.L().Info("💳 Webhook ignored, payment already completed",
			zap.String("intent_id", update.IntentID),
			zap.String("payment_status", string(update.Status)))
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	if err != nil {
		handlers.Fail(c, err, "Order")
		return
	}

	logging.L().Info("✅ Payment updated",
		zap.String("order_number", order.OrderNumber),
		zap.String("payment_status", string(update.Status)))
	h.audit.Record(c, audit.ACTION_ORDER_PAYMENT, audit.RESOURCE_ORDER, order.ID.String(), nil, gin.H{
		"payment_intent_id": update.IntentID,
		"payment_status":    update.Status,
	})
	h.hub.PublishOrder(ctx, realtime.EventOrderPayment, order)
	c.JSON(http.StatusOK, gin.H{"received": true})
}
