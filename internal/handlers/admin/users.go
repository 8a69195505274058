package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront_back_end/internal/audit"
	"storefront_back_end/internal/auth"
	"storefront_back_end/internal/handlers"
	"storefront_back_end/internal/logging"
)

// GET /api/admin/users
func (h *Handler) ListUsers(c *gin.Context) {
	profiles, err := h.Store.Profiles(c.Request.Context())
	if err != nil {
		handlers.Fail(c, err, "Users")
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": profiles, "total": len(profiles)})
}

// PATCH /api/admin/users/:id/admin grants or revokes back-office access.
func (h *Handler) SetAdmin(c *gin.Context) {
	id, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return
	}
	var input struct {
		IsAdmin *bool `json:"is_admin" binding:"required"`
	}
	if !handlers.BindJSON(c, &input) {
		return
	}
	if caller, _ := auth.UserID(c); caller == id && !*input.IsAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot remove your own admin access"})
		return
	}

	if err := h.Store.SetAdmin(c.Request.Context(), id, *input.IsAdmin); err != nil {
		handlers.Fail(c, err, "User")
		return
	}
	logging.L().Info("✅ Admin flag changed", zap.String("user_id", id.String()), zap.Bool("is_admin", *input.IsAdmin))
	h.Audit.Record(c, audit.ACTION_USER_PROMOTE, audit.RESOURCE_USER, id.String(), nil, gin.H{"is_admin": *input.IsAdmin})
	c.JSON(http.StatusOK, gin.H{"message": "User updated", "is_admin": *input.IsAdmin})
}
