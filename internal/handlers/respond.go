package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront_back_end/internal/auth"
	"storefront_back_end/internal/logging"
	"storefront_back_end/internal/store"
)

// ParamUUID parses a path parameter, answering 400 when it is not a uuid.
func ParamUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// CurrentUser returns the authenticated caller, answering 401 when there is none.
func CurrentUser(c *gin.Context) (uuid.UUID, bool) {
	id, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return uuid.Nil, false
	}
	return id, true
}

// BindJSON decodes the body into dst, answering 400 on malformed input.
func BindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return false
	}
	return true
}

// Fail answers with the status matching err. what names the resource in messages.
func Fail(c *gin.Context, err error, what string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": what + " not found"})
	case errors.Is(err, store.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": what + " already exists"})
	case errors.Is(err, store.ErrInsufficientStock):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logging.L().Error("❌ Request failed",
			zap.String("path", c.FullPath()),
			zap.String("resource", what),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
	}
}
