package realtime

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"storefront_back_end/internal/models"
)

type fakeConn struct {
	mu       sync.Mutex
	messages []any
	pings    int
	failOn   int
}

func (f *fakeConn) WriteJSON(v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn > 0 && len(f.messages)+1 == f.failOn {
		return errors.New("broken pipe")
	}
	f.messages = append(f.messages, v)
	return nil
}

func (f *fakeConn) WriteControl(messageType int, data []byte, deadline time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if messageType == websocket.PingMessage {
		f.pings++
	}
	return nil
}

func upper(ctx context.Context, payload string) (any, bool) {
	if payload == "skip" {
		return nil, false
	}
	return map[string]string{"payload": payload}, true
}

func TestPumpForwardsUntilChannelCloses(t *testing.T) {
	defer goleak.VerifyNone(t)

	msgs := make(chan string, 3)
	msgs <- "updated"
	msgs <- "skip"
	msgs <- "cleared"
	close(msgs)

	conn := &fakeConn{}
	err := Pump(context.Background(), conn, msgs, time.Hour, upper)
	require.NoError(t, err)
	assert.Equal(t, []any{
		map[string]string{"payload": "updated"},
		map[string]string{"payload": "cleared"},
	}, conn.messages)
}

func TestPumpStopsOnContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	conn := &fakeConn{}
	done := make(chan error)
	go func() {
		done <- Pump(ctx, conn, make(chan string), 5*time.Millisecond, upper)
	}()

	require.Eventually(t, func() bool {
		conn.mu.Lock()
		defer conn.mu.Unlock()
		return conn.pings > 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("pump did not stop")
	}
}

func TestPumpReturnsWriteError(t *testing.T) {
	defer goleak.VerifyNone(t)

	msgs := make(chan string, 1)
	msgs <- "updated"
	err := Pump(context.Background(), &fakeConn{failOn: 1}, msgs, time.Hour, upper)
	assert.EqualError(t, err, "broken pipe")
}

func TestOrderEvent(t *testing.T) {
	o := &models.Order{
		ID:            uuid.New(),
		OrderNumber:   "ORD-1-ABC123",
		Status:        models.OrderShipped,
		PaymentStatus: models.PaymentCompleted,
		TotalAmount:   decimal.NewFromInt(1416),
	}
	ev := OrderEvent(EventOrderStatus, o)
	assert.Equal(t, "order.status", ev.Type)
	assert.Equal(t, "shipped", ev.Status)
	assert.Equal(t, "completed", ev.PaymentStatus)
	assert.True(t, ev.Total.Equal(decimal.NewFromInt(1416)))
}

func TestNilHubIsSilent(t *testing.T) {
	var h *Hub
	assert.False(t, h.Enabled())
	h.PublishOrder(context.Background(), EventOrderCreated, &models.Order{})
	h.CartChanged(context.Background(), uuid.New(), CartUpdated)
	assert.Equal(t, "cart:00000000-0000-0000-0000-000000000000", CartChannel(uuid.Nil))
}

func TestUpgraderOrigins(t *testing.T) {
	up := NewUpgrader([]string{"https://shop.example.com"})

	r := httptest.NewRequest("GET", "/ws", nil)
	assert.True(t, up.CheckOrigin(r))
	r.Header.Set("Origin", "https://shop.example.com")
	assert.True(t, up.CheckOrigin(r))
	r.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, up.CheckOrigin(r))
}
