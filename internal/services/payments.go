package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"
	"github.com/stripe/stripe-go/v83/webhook"

	"storefront_back_end/internal/models"
)

var ErrPaymentsDisabled = errors.New("online payments are not configured")

// Payments creates Stripe payment intents and reads webhook events.
type Payments struct {
	enabled       bool
	webhookSecret string
}

// NewPayments sets the global Stripe key. Without a key only webhook parsing works.
func NewPayments(secretKey, webhookSecret string) *Payments {
	if secretKey != "" {
		stripe.Key = secretKey
	}
	return &Payments{enabled: secretKey != "", webhookSecret: webhookSecret}
}

func (p *Payments) Enabled() bool {
	return p != nil && p.enabled
}

// Intent is what the client needs to confirm a card payment.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// MinorUnits converts an amount to the smallest currency unit (paise, cents).
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func (p *Payments) CreateIntent(order *models.Order, currency string) (*Intent, error) {
	if !p.Enabled() {
		return nil, ErrPaymentsDisabled
	}
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(MinorUnits(order.TotalAmount)),
		Currency: stripe.String(strings.ToLower(currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("order_id", order.ID.String())
	params.AddMetadata("order_number", order.OrderNumber)
	params.AddMetadata("user_id", order.UserID.String())

	intent, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return &Intent{ID: intent.ID, ClientSecret: intent.ClientSecret}, nil
}

// ParseEvent verifies the Stripe signature, or decodes plain JSON when no secret is configured.
func (p *Payments) ParseEvent(payload []byte, signature string) (stripe.Event, error) {
	var event stripe.Event
	if p == nil || p.webhookSecret == "" {
		if err := json.Unmarshal(payload, &event); err != nil {
			return event, fmt.Errorf("invalid event JSON: %w", err)
		}
		return event, nil
	}
	event, err := webhook.ConstructEvent(payload, signature, p.webhookSecret)
	if err != nil {
		return event, fmt.Errorf("invalid signature: %w", err)
	}
	return event, nil
}

// PaymentUpdate is the order change carried by a webhook event.
type PaymentUpdate struct {
	IntentID string
	Status   models.PaymentStatus
}

// PaymentUpdateFrom maps intent events to a payment status; other events report false.
func PaymentUpdateFrom(event stripe.Event) (PaymentUpdate, bool, error) {
	var status models.PaymentStatus
	switch event.Type {
	case "payment_intent.succeeded":
		status = models.PaymentCompleted
	case "payment_intent.payment_failed":
		status = models.PaymentFailed
	default:
		return PaymentUpdate{}, false, nil
	}
	if event.Data == nil {
		return PaymentUpdate{}, false, errors.New("event has no data")
	}
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return PaymentUpdate{}, false, fmt.Errorf("decode payment intent: %w", err)
	}
	if pi.ID == "" {
		return PaymentUpdate{}, false, errors.New("payment intent without id")
	}
	return PaymentUpdate{IntentID: pi.ID, Status: status}, true, nil
}
