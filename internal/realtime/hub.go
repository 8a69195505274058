package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront_back_end/internal/logging"
	"storefront_back_end/internal/models"
)

const OrdersChannel = "orders:events"

const (
	EventOrderCreated = "order.created"
	EventOrderStatus  = "order.status"
	EventOrderPayment = "order.payment"

	CartUpdated = "updated"
	CartCleared = "cleared"
)

func CartChannel(userID uuid.UUID) string {
	return "cart:" + userID.String()
}

// Event is what the admin live feed receives for every order change.
type Event struct {
	Type          string          `json:"type"`
	OrderID       uuid.UUID       `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	Total         decimal.Decimal `json:"total"`
	At            time.Time       `json:"at"`
}

func OrderEvent(kind string, o *models.Order) Event {
	return Event{
		Type:          kind,
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		Total:         o.TotalAmount,
		At:            time.Now().UTC(),
	}
}

// Hub fans events out through Redis pub/sub so every instance sees them.
// A nil *Hub drops everything.
type Hub struct {
	rdb *redis.Client
}

func NewHub(rdb *redis.Client) *Hub {
	if rdb == nil {
		return nil
	}
	return &Hub{rdb: rdb}
}

func (h *Hub) Enabled() bool {
	return h != nil
}

// Publish sends v on channel; strings go out raw, anything else as JSON.
func (h *Hub) Publish(ctx context.Context, channel string, v any) {
	if h == nil {
		return
	}
	var payload any = v
	if _, ok := v.(string); !ok {
		data, err := json.Marshal(v)
		if err != nil {
			logging.L().Warn("⚠️ Event encode failed", zap.String("channel", channel), zap.Error(err))
			return
		}
		payload = data
	}
	if err := h.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		logging.L().Warn("⚠️ Publish failed", zap.String("channel", channel), zap.Error(err))
	}
}

func (h *Hub) PublishOrder(ctx context.Context, kind string, o *models.Order) {
	h.Publish(ctx, OrdersChannel, OrderEvent(kind, o))
}

func (h *Hub) CartChanged(ctx context.Context, userID uuid.UUID, what string) {
	h.Publish(ctx, CartChannel(userID), what)
}

// Subscribe streams raw payloads from channel until ctx ends or stop is called.
func (h *Hub) Subscribe(ctx context.Context, channel string) (msgs <-chan string, stop func()) {
	ps := h.rdb.Subscribe(ctx, channel)
	out := make(chan string)
	done := make(chan struct{})

	go func() {
		defer close(out)
		in := ps.Channel()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case m, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- m.Payload:
				case <-done:
					return
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, func() {
		close(done)
		_ = ps.Close()
	}
}
