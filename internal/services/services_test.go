package services

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/webhook"

	"storefront_back_end/internal/config"
	"storefront_back_end/internal/models"
)

func sampleOrder() *models.Order {
	productID := uuid.New()
	return &models.Order{
		ID:             uuid.New(),
		OrderNumber:    "ORD-1700000000000-AB12CD",
		Status:         models.OrderShipped,
		Subtotal:       decimal.NewFromInt(1200),
		ShippingAmount: decimal.Zero,
		TaxAmount:      decimal.NewFromInt(216),
		DiscountAmount: decimal.Zero,
		TotalAmount:    decimal.NewFromInt(1416),
		ShippingAddress: models.ShippingAddress{
			FullName: "Asha Rao", Address: "12 MG Road", City: "Bengaluru",
			State: "Karnataka", Pincode: "560001", Phone: "9876543210",
		},
		BillingAddress: models.ShippingAddress{FullName: "Asha Rao", City: "Bengaluru"},
		PaymentMethod:  models.PaymentCOD,
		PaymentStatus:  models.PaymentPending,
		Items: []models.OrderItem{{
			ProductID: &productID, ProductName: "Linen <Kurta>", Quantity: 2, Size: "M", Color: "Blue",
			Price: decimal.NewFromInt(600),
		}},
		CreatedAt: time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC),
	}
}

func TestBuildSearchQuery(t *testing.T) {
	q := buildSearchQuery("silk saree", 0)
	assert.Equal(t, 50, q["size"])

	data, err := json.Marshal(q)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"query":"silk saree"`)
	assert.Contains(t, string(data), `"phrase_prefix"`)
	assert.Contains(t, string(data), `"name^3"`)
}

func TestDecodeHitsSkipsForeignIDs(t *testing.T) {
	id := uuid.New()
	body := `{"hits":{"hits":[{"_id":"` + id.String() + `"},{"_id":"legacy-42"}]}}`
	ids, err := decodeHits(strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{id}, ids)
}

func TestNilSearchIndex(t *testing.T) {
	var s *SearchIndex
	_, err := s.Search(t.Context(), "x", 10)
	assert.ErrorIs(t, err, ErrSearchUnavailable)
	s.IndexAsync(models.Product{})
	s.DeleteAsync(uuid.New())
}

func TestObjectKey(t *testing.T) {
	key, contentType, err := ObjectKey("Summer Dress.JPG")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "products/"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))
	assert.Equal(t, "image/jpeg", contentType)

	_, _, err = ObjectKey("payload.exe")
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestCleanKey(t *testing.T) {
	key, err := CleanKey("/products/abc.png")
	require.NoError(t, err)
	assert.Equal(t, "products/abc.png", key)

	for _, bad := range []string{"secrets/key.pem", "products/../secrets", "products//a.png"} {
		_, err := CleanKey(bad)
		assert.ErrorIs(t, err, ErrInvalidImageKey, bad)
	}
	assert.Equal(t, "/api/images/products/abc.png", PublicPath("products/abc.png"))
}

func TestRenderMarkdownSanitizes(t *testing.T) {
	out := RenderMarkdown("**Soft** cotton\n\n<script>alert(1)</script>")
	assert.Contains(t, out, "<strong>Soft</strong>")
	assert.NotContains(t, out, "<script>")
	assert.Empty(t, RenderMarkdown(""))

	products := []models.Product{{Description: "_new_"}}
	RenderDescriptions(products)
	assert.Contains(t, products[0].DescriptionHTML, "<em>new</em>")
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(141600), MinorUnits(decimal.NewFromInt(1416)))
	assert.Equal(t, int64(1000), MinorUnits(decimal.RequireFromString("9.999")))
}

func intentEvent(eventType, intentID string) []byte {
	data, _ := json.Marshal(map[string]any{
		"id":          "evt_1",
		"object":      "event",
		"api_version": stripe.APIVersion,
		"type":        eventType,
		"data":        map[string]any{"object": map[string]any{"id": intentID, "object": "payment_intent"}},
	})
	return data
}

func TestParseEventUnsigned(t *testing.T) {
	p := NewPayments("", "")
	assert.False(t, p.Enabled())

	ev, err := p.ParseEvent(intentEvent("payment_intent.succeeded", "pi_123"), "")
	require.NoError(t, err)

	update, ok, err := PaymentUpdateFrom(ev)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "pi_123", update.IntentID)
	assert.Equal(t, models.PaymentCompleted, update.Status)

	_, err = p.ParseEvent([]byte("{"), "")
	assert.Error(t, err)
}

func TestParseEventSigned(t *testing.T) {
	p := NewPayments("", "whsec_test")
	payload := intentEvent("payment_intent.payment_failed", "pi_9")

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: payload, Secret: "whsec_test"})
	ev, err := p.ParseEvent(payload, signed.Header)
	require.NoError(t, err)
	update, ok, err := PaymentUpdateFrom(ev)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.PaymentFailed, update.Status)

	_, err = p.ParseEvent(payload, "t=1,v1=deadbeef")
	assert.Error(t, err)
}

func TestPaymentUpdateIgnoresOtherEvents(t *testing.T) {
	ev, err := NewPayments("", "").ParseEvent(intentEvent("charge.refunded", "ch_1"), "")
	require.NoError(t, err)
	_, ok, err := PaymentUpdateFrom(ev)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestCreateIntentDisabled(t *testing.T) {
	_, err := NewPayments("", "").CreateIntent(sampleOrder(), "INR")
	assert.ErrorIs(t, err, ErrPaymentsDisabled)
}

func TestOrderTemplates(t *testing.T) {
	settings := config.DefaultSettings()
	m := &Mailer{cfg: config.Config{BaseURL: "https://shop.example.com"}, settings: settings}
	order := sampleOrder()

	v := m.view(order, "", "asha@example.com")
	body, err := render("order_confirmation.html", v)
	require.NoError(t, err)
	assert.Contains(t, body, "ORD-1700000000000-AB12CD")
	assert.Contains(t, body, "Hi Asha Rao")
	assert.Contains(t, body, "₹1416.00")
	assert.Contains(t, body, "₹1200.00")
	assert.Contains(t, body, "Free")
	assert.Contains(t, body, "Linen &lt;Kurta&gt;")
	assert.Contains(t, body, "Cash on delivery")

	body, err = render("order_status.html", v)
	require.NoError(t, err)
	assert.Contains(t, body, "📦 Your order is Shipped")
	assert.Contains(t, body, "https://shop.example.com/account/orders/"+order.ID.String())
	assert.Equal(t, "📦 Your order has shipped - Storefront", statusSubject(settings.StoreName, order.Status))
}

func TestInvoiceHTML(t *testing.T) {
	html, err := NewInvoices(config.DefaultSettings()).HTML(sampleOrder(), "asha@example.com")
	require.NoError(t, err)
	assert.Contains(t, html, `src="data:image/png;base64,`)
	assert.Contains(t, html, "Invoice for order ORD-1700000000000-AB12CD")
	assert.Contains(t, html, "15 Jan 2026 10:30")
	assert.Contains(t, html, "asha@example.com")
	assert.NotContains(t, html, "Discount")
}

func TestNilMailerDropsMessages(t *testing.T) {
	m := NewMailer(config.Config{}, config.DefaultSettings())
	assert.Nil(t, m)
	assert.NoError(t, m.Send(t.Context(), "a@example.com", "s", "b"))
	m.Go("noop", nil)
	assert.Equal(t, "₹99.50", money("₹", decimal.RequireFromString("99.5")))
}
