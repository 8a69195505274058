package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront_back_end/internal/audit"
	"storefront_back_end/internal/handlers"
	"storefront_back_end/internal/logging"
	"storefront_back_end/internal/models"
	"storefront_back_end/internal/realtime"
)

// GET /api/admin/orders
func (h *Handler) ListOrders(c *gin.Context) {
	orders, err := h.Store.AllOrders(c.Request.Context())
	if err != nil {
		handlers.Fail(c, err, "Orders")
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "total": len(orders)})
}

// GET /api/admin/orders/:id
func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return
	}
	order, err := h.Store.OrderByID(c.Request.Context(), id)
	if err != nil {
		handlers.Fail(c, err, "Order")
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func statusNames() string {
	names := make([]string, 0, len(models.OrderStatuses))
	for _, s := range models.OrderStatuses {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}

// PATCH /api/admin/orders/:id/status
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	id, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return
	}
	var input struct {
		Status models.OrderStatus `json:"status"`
	}
	if !handlers.BindJSON(c, &input) {
		return
	}
	status := models.OrderStatus(strings.ToLower(strings.TrimSpace(string(input.Status))))
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status. Must be one of: " + statusNames()})
		return
	}

	ctx := c.Request.Context()
	before, err := h.Store.OrderByID(ctx, id)
	if err != nil {
		handlers.Fail(c, err, "Order")
		return
	}
	order, err := h.Store.UpdateOrderStatus(ctx, id, status)
	if err != nil {
		handlers.Fail(c, err, "Order")
		return
	}

	logging.L().Info("📦 Order status updated",
		zap.String("order_number", order.OrderNumber),
		zap.String("from", string(before.Status)),
		zap.String("to", string(status)))
	h.Audit.Record(c, audit.ACTION_ORDER_STATUS, audit.RESOURCE_ORDER, id.String(),
		gin.H{"status": before.Status}, gin.H{"status": status})
	h.Hub.PublishOrder(ctx, realtime.EventOrderStatus, order)
	if before.Status != status {
		h.notifyCustomer(order)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order status updated", "order": order})
}

func (h *Handler) notifyCustomer(order *models.Order) {
	if order.Customer == nil || order.Customer.Email == "" {
		return
	}
	to, name := order.Customer.Email, order.Customer.FullName
	h.Mailer.Go("order status "+order.OrderNumber, func(ctx context.Context) error {
		return h.Mailer.OrderStatus(ctx, to, name, order)
	})
}

// GET /api/admin/orders/live streams order events as they happen.
func (h *Handler) OrdersLive(c *gin.Context) {
	if !h.Hub.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Live updates are unavailable"})
		return
	}
	hello := gin.H{"type": "connected", "channel": realtime.OrdersChannel}
	h.Hub.Serve(c, h.Upgrader, realtime.OrdersChannel, hello, func(_ context.Context, payload string) (any, bool) {
		if !json.Valid([]byte(payload)) {
			return nil, false
		}
		return json.RawMessage(payload), true
	})
}
