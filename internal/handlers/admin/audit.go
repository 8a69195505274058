package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront_back_end/internal/audit"
	"storefront_back_end/internal/handlers"
)

// GET /api/admin/audit?user_id=&action=&resource=&success=&limit=&days=
func (h *Handler) AuditLogs(c *gin.Context) {
	filter := audit.ParseFilter(c.Request.URL.Query())
	logs, err := h.Audit.List(c.Request.Context(), filter)
	if err != nil {
		handlers.Fail(c, err, "Audit logs")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"logs":    logs,
		"total":   len(logs),
		"limit":   filter.Limit,
		"days":    filter.Days,
		"enabled": h.Audit.Enabled(),
	})
}
