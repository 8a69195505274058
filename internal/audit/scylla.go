package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"

	"storefront_back_end/internal/models"
)

// ScyllaSink stores audit rows in the audit keyspace, one partition per day.
type ScyllaSink struct {
	session *gocql.Session
}

func NewScyllaSink(session *gocql.Session) *ScyllaSink {
	return &ScyllaSink{session: session}
}

const insertAuditCQL = `
	INSERT INTO audit_logs (
		day, id, user_id, user_email, action, resource, resource_id,
		old_value, new_value, ip_address, user_agent, success, error_msg, timestamp
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectAuditCQL = `
	SELECT id, user_id, user_email, action, resource, resource_id,
		old_value, new_value, ip_address, user_agent, success, error_msg, timestamp
	FROM audit_logs WHERE day = ?`

func (s *ScyllaSink) Insert(ctx context.Context, e models.AuditLog) error {
	return s.session.Query(insertAuditCQL,
		Day(e.Timestamp), e.ID, e.UserID, e.UserEmail, e.Action, e.Resource, e.ResourceID,
		e.OldValue, e.NewValue, e.IPAddress, e.UserAgent, e.Success, e.ErrorMsg, e.Timestamp,
	).WithContext(ctx).Exec()
}

// List walks the day partitions newest first and filters rows until the limit is reached.
func (s *ScyllaSink) List(ctx context.Context, f Filter) ([]models.AuditLog, error) {
	logs := make([]models.AuditLog, 0, f.Limit)
	for _, day := range f.Partitions(time.Now()) {
		iter := s.session.Query(selectAuditCQL, day).WithContext(ctx).PageSize(f.Limit).Iter()

		var e models.AuditLog
		for iter.Scan(&e.ID, &e.UserID, &e.UserEmail, &e.Action, &e.Resource, &e.ResourceID,
			&e.OldValue, &e.NewValue, &e.IPAddress, &e.UserAgent, &e.Success, &e.ErrorMsg, &e.Timestamp) {
			if f.Match(e) {
				logs = append(logs, e)
				if len(logs) >= f.Limit {
					break
				}
			}
			e = models.AuditLog{}
		}
		if err := iter.Close(); err != nil {
			return nil, fmt.Errorf("read audit day %s: %w", day, err)
		}
		if len(logs) >= f.Limit {
			break
		}
	}
	return logs, nil
}
