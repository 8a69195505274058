package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"storefront_back_end/internal/auth"
	"storefront_back_end/internal/logging"
	"storefront_back_end/internal/models"
)

const (
	ACTION_PRODUCT_CREATE       = "product.create"
	ACTION_PRODUCT_UPDATE       = "product.update"
	ACTION_PRODUCT_DELETE       = "product.delete"
	ACTION_PRODUCT_PRICE_CHANGE = "product.price_change"

	ACTION_CATEGORY_CREATE = "category.create"
	ACTION_CATEGORY_UPDATE = "category.update"
	ACTION_CATEGORY_DELETE = "category.delete"

	ACTION_ORDER_CREATE  = "order.create"
	ACTION_ORDER_STATUS  = "order.status"
	ACTION_ORDER_PAYMENT = "order.payment"

	ACTION_SETTINGS_CREATE = "settings.create"
	ACTION_SETTINGS_UPDATE = "settings.update"
	ACTION_SETTINGS_DELETE = "settings.delete"

	ACTION_IMAGE_UPLOAD = "image.upload"

	ACTION_USER_CREATE   = "user.create"
	ACTION_USER_UPDATE   = "user.update"
	ACTION_USER_PASSWORD = "user.password"
	ACTION_USER_PROMOTE  = "user.promote"

	ACTION_LOGIN_SUCCESS = "auth.login_success"
	ACTION_LOGIN_FAILED  = "auth.login_failed"
	ACTION_LOGOUT        = "auth.logout"
)

const (
	RESOURCE_PRODUCT   = "product"
	RESOURCE_CATEGORY  = "category"
	RESOURCE_ORDER     = "order"
	RESOURCE_USER      = "user"
	RESOURCE_DISCOUNT  = "discount"
	RESOURCE_TAX_RATE  = "tax_rate"
	RESOURCE_WAREHOUSE = "warehouse"
	RESOURCE_IMAGE     = "image"
	RESOURCE_AUTH      = "auth"
)

// Sink persists and reads audit rows.
type Sink interface {
	Insert(ctx context.Context, entry models.AuditLog) error
	List(ctx context.Context, f Filter) ([]models.AuditLog, error)
}

// Recorder writes audit rows in the background so requests never wait on them.
type Recorder struct {
	sink    Sink
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewRecorder returns a recorder; a nil sink makes every call a no-op.
func NewRecorder(sink Sink) *Recorder {
	return &Recorder{sink: sink, timeout: 5 * time.Second}
}

func (r *Recorder) Enabled() bool {
	return r != nil && r.sink != nil
}

// Record logs a successful action by the caller of c.
func (r *Recorder) Record(c *gin.Context, action, resource, resourceID string, oldValue, newValue any) {
	if !r.Enabled() {
		return
	}
	r.write(entryFrom(c, action, resource, resourceID, oldValue, newValue, true, ""))
}

// RecordFailure logs a refused or failed action.
func (r *Recorder) RecordFailure(c *gin.Context, action, resource, resourceID, errorMsg string) {
	if !r.Enabled() {
		return
	}
	r.write(entryFrom(c, action, resource, resourceID, nil, nil, false, errorMsg))
}

// Wait blocks until every pending write finished.
func (r *Recorder) Wait() {
	if r == nil {
		return
	}
	r.wg.Wait()
}

func (r *Recorder) List(ctx context.Context, f Filter) ([]models.AuditLog, error) {
	if !r.Enabled() {
		return []models.AuditLog{}, nil
	}
	return r.sink.List(ctx, f.Normalize())
}

func (r *Recorder) write(entry models.AuditLog) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		if err := r.sink.Insert(ctx, entry); err != nil {
			logging.L().Error("❌ Audit write failed",
				zap.String("action", entry.Action),
				zap.String("resource_id", entry.ResourceID),
				zap.Error(err))
		}
	}()
}

// entryFrom copies everything it needs out of the request before it is recycled.
func entryFrom(c *gin.Context, action, resource, resourceID string, oldValue, newValue any, success bool, errorMsg string) models.AuditLog {
	entry := models.AuditLog{
		ID:         gocql.TimeUUID(),
		UserEmail:  auth.Email(c),
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		OldValue:   encode(oldValue),
		NewValue:   encode(newValue),
		IPAddress:  c.ClientIP(),
		UserAgent:  c.GetHeader("User-Agent"),
		Success:    success,
		ErrorMsg:   errorMsg,
		Timestamp:  time.Now().UTC(),
	}
	if id, ok := auth.UserID(c); ok {
		entry.UserID = id.String()
	}
	return entry
}

func encode(v any) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
