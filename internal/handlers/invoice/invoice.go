package invoice

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront_back_end/internal/auth"
	"storefront_back_end/internal/handlers"
	"storefront_back_end/internal/logging"
	"storefront_back_end/internal/models"
	"storefront_back_end/internal/services"
)

const pdfTimeout = 30 * time.Second

type Orders interface {
	UserOrder(ctx context.Context, userID, id uuid.UUID) (*models.Order, error)
}

// Renderer produces the printable invoice.
type Renderer interface {
	HTML(order *models.Order, email string) (string, error)
	PDF(ctx context.Context, order *models.Order, email string) ([]byte, error)
}

type Handler struct {
	orders   Orders
	invoices Renderer
	mailer   *services.Mailer
}

func NewHandler(orders Orders, invoices Renderer, mailer *services.Mailer) *Handler {
	return &Handler{orders: orders, invoices: invoices, mailer: mailer}
}

func (h *Handler) load(c *gin.Context) (*models.Order, bool) {
	userID, ok := handlers.CurrentUser(c)
	if !ok {
		return nil, false
	}
	id, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return nil, false
	}
	order, err := h.orders.UserOrder(c.Request.Context(), userID, id)
	if err != nil {
		handlers.Fail(c, err, "Order")
		return nil, false
	}
	return order, true
}

// GET /api/account/orders/:id/print[?format=pdf]
func (h *Handler) Print(c *gin.Context) {
	order, ok := h.load(c)
	if !ok {
		return
	}
	email := auth.Email(c)

	if c.Query("format") == "pdf" {
		ctx, cancel := context.WithTimeout(c.Request.Context(), pdfTimeout)
		defer cancel()
		pdf, err := h.invoices.PDF(ctx, order, email)
		if err != nil {
			logging.L().Error("❌ Invoice PDF failed", zap.String("order_number", order.OrderNumber), zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "PDF rendering is unavailable"})
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="invoice-%s.pdf"`, order.OrderNumber))
		c.Data(http.StatusOK, "application/pdf", pdf)
		return
	}

	html, err := h.invoices.HTML(order, email)
	if err != nil {
		handlers.Fail(c, err, "Invoice")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// POST /api/account/orders/:id/invoice sends the invoice PDF to the caller again.
func (h *Handler) Send(c *gin.Context) {
	if h.mailer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "E-mail is not configured"})
		return
	}
	order, ok := h.load(c)
	if !ok {
		return
	}
	email := auth.Email(c)
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No e-mail address on this account"})
		return
	}

	h.mailer.Go("invoice "+order.OrderNumber, func(ctx context.Context) error {
		pdf, err := h.invoices.PDF(ctx, order, email)
		if err != nil {
			return fmt.Errorf("render invoice: %w", err)
		}
		return h.mailer.OrderConfirmation(ctx, email, order.ShippingAddress.FullName, order, pdf)
	})
	c.JSON(http.StatusAccepted, gin.H{"message": "Invoice will be sent to " + email})
}
