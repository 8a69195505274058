package audit

import (
	"net/url"
	"strconv"
	"time"

	"storefront_back_end/internal/models"
)

const (
	DefaultLimit = 100
	MaxLimit     = 500
	DefaultDays  = 7
	MaxDays      = 31
)

// Filter narrows an audit listing. Empty fields match everything.
type Filter struct {
	UserID   string
	Action   string
	Resource string
	Success  *bool
	Limit    int
	Days     int
}

func ParseFilter(q url.Values) Filter {
	f := Filter{
		UserID:   q.Get("user_id"),
		Action:   q.Get("action"),
		Resource: q.Get("resource"),
	}
	if raw := q.Get("success"); raw != "" {
		if b, err := strconv.ParseBool(raw); err == nil {
			f.Success = &b
		}
	}
	f.Limit, _ = strconv.Atoi(q.Get("limit"))
	f.Days, _ = strconv.Atoi(q.Get("days"))
	return f.Normalize()
}

// Normalize clamps the limit to [1, 500] and the look-back to [1, 31] days.
func (f Filter) Normalize() Filter {
	switch {
	case f.Limit <= 0:
		f.Limit = DefaultLimit
	case f.Limit > MaxLimit:
		f.Limit = MaxLimit
	}
	switch {
	case f.Days <= 0:
		f.Days = DefaultDays
	case f.Days > MaxDays:
		f.Days = MaxDays
	}
	return f
}

func (f Filter) Match(e models.AuditLog) bool {
	if f.UserID != "" && e.UserID != f.UserID {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.Resource != "" && e.Resource != f.Resource {
		return false
	}
	if f.Success != nil && e.Success != *f.Success {
		return false
	}
	return true
}

// Day is the partition key for t.
func Day(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Partitions returns the partition keys to scan, newest first.
func (f Filter) Partitions(now time.Time) []string {
	days := make([]string, 0, f.Days)
	for i := 0; i < f.Days; i++ {
		days = append(days, Day(now.AddDate(0, 0, -i)))
	}
	return days
}
