package services

import (
	"bytes"
	"embed"
	"html/template"
	"strings"

	"github.com/shopspring/decimal"

	"storefront_back_end/internal/config"
	"storefront_back_end/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"money":         money,
	"statusLabel":   statusLabel,
	"statusIcon":    statusIcon,
	"statusMessage": statusMessage,
	"paymentLabel":  paymentLabel,
}).ParseFS(templateFS, "templates/*.html"))

// orderView is the data every order template receives.
type orderView struct {
	Title    string
	Store    config.StoreSettings
	Order    *models.Order
	Customer string
	Email    string
	BaseURL  string
	QRCode   template.URL
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func money(symbol string, amount decimal.Decimal) string {
	return symbol + amount.StringFixed(2)
}

func statusLabel(s models.OrderStatus) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

func statusIcon(s models.OrderStatus) string {
	switch s {
	case models.OrderProcessing:
		return "⚙️"
	case models.OrderShipped:
		return "📦"
	case models.OrderDelivered:
		return "🎉"
	case models.OrderCancelled:
		return "❌"
	default:
		return "📋"
	}
}

func statusMessage(s models.OrderStatus) string {
	switch s {
	case models.OrderProcessing:
		return "We are preparing your items for shipment."
	case models.OrderShipped:
		return "Your package is on its way."
	case models.OrderDelivered:
		return "Your order has been delivered. We hope you love it!"
	case models.OrderCancelled:
		return "Your order has been cancelled. Any payment taken will be refunded."
	default:
		return "We have received your order."
	}
}

func statusSubject(store string, s models.OrderStatus) string {
	switch s {
	case models.OrderShipped:
		return "📦 Your order has shipped - " + store
	case models.OrderDelivered:
		return "🎉 Your order was delivered - " + store
	case models.OrderCancelled:
		return "❌ Order cancelled - " + store
	default:
		return "📋 Order update - " + store
	}
}

func paymentLabel(m models.PaymentMethod) string {
	if m == models.PaymentOnline {
		return "Online payment"
	}
	return "Cash on delivery"
}
