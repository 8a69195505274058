package user

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"storefront_back_end/internal/audit"
	"storefront_back_end/internal/auth"
	"storefront_back_end/internal/handlers"
	"storefront_back_end/internal/logging"
	"storefront_back_end/internal/models"
)

const MinPasswordLength = 6

// GET /api/account
func (h *Handler) GetAccount(c *gin.Context) {
	userID, ok := handlers.CurrentUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	profile, _, err := h.Store.EnsureProfile(ctx, userID, auth.Email(c))
	if err != nil {
		handlers.Fail(c, err, "Profile")
		return
	}

	var orders, wishlist int64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		orders, err = h.Store.CountUserOrders(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		wishlist, err = h.Store.CountWishlist(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		handlers.Fail(c, err, "Account")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"profile":        profile,
		"order_count":    orders,
		"wishlist_count": wishlist,
	})
}

type profileInput struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Street   string `json:"street"`
	City     string `json:"city"`
	State    string `json:"state"`
	Pincode  string `json:"pincode"`
}

// PUT /api/account/profile
func (h *Handler) UpdateProfile(c *gin.Context) {
	userID, ok := handlers.CurrentUser(c)
	if !ok {
		return
	}
	var input profileInput
	if !handlers.BindJSON(c, &input) {
		return
	}

	ctx := c.Request.Context()
	before, _, err := h.Store.EnsureProfile(ctx, userID, auth.Email(c))
	if err != nil {
		handlers.Fail(c, err, "Profile")
		return
	}
	after := *before
	after.FullName = strings.TrimSpace(input.FullName)
	after.Phone = strings.TrimSpace(input.Phone)
	after.Address = models.Address{
		Street:  strings.TrimSpace(input.Street),
		City:    strings.TrimSpace(input.City),
		State:   strings.TrimSpace(input.State),
		Pincode: strings.TrimSpace(input.Pincode),
	}
	if err := h.Store.UpsertProfile(ctx, &after); err != nil {
		handlers.Fail(c, err, "Profile")
		return
	}

	h.Audit.Record(c, audit.ACTION_USER_UPDATE, audit.RESOURCE_USER, userID.String(), before, after)
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "profile": after})
}

type passwordInput struct {
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// PUT /api/account/password
func (h *Handler) ChangePassword(c *gin.Context) {
	userID, ok := handlers.CurrentUser(c)
	if !ok {
		return
	}
	var input passwordInput
	if !handlers.BindJSON(c, &input) {
		return
	}
	if input.NewPassword != input.ConfirmPassword {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Passwords do not match"})
		return
	}
	if len(input.NewPassword) < MinPasswordLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 6 characters"})
		return
	}

	if err := h.Auth.UpdatePassword(c.Request.Context(), auth.AccessToken(c), input.NewPassword); err != nil {
		h.Audit.RecordFailure(c, audit.ACTION_USER_PASSWORD, audit.RESOURCE_USER, userID.String(), err.Error())
		authFailed(c, err)
		return
	}

	h.Audit.Record(c, audit.ACTION_USER_PASSWORD, audit.RESOURCE_USER, userID.String(), nil, nil)
	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}

// GET /api/account/orders
func (h *Handler) ListOrders(c *gin.Context) {
	userID, ok := handlers.CurrentUser(c)
	if !ok {
		return
	}
	orders, err := h.Store.UserOrders(c.Request.Context(), userID)
	if err != nil {
		handlers.Fail(c, err, "Orders")
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

// GET /api/account/orders/:id
func (h *Handler) GetOrder(c *gin.Context) {
	userID, ok := handlers.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return
	}
	order, err := h.Store.UserOrder(c.Request.Context(), userID, id)
	if err != nil {
		handlers.Fail(c, err, "Order")
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order, "item_count": order.ItemCount()})
}

// authFailed relays hosted auth rejections and hides transport failures.
func authFailed(c *gin.Context, err error) {
	var apiErr *auth.APIError
	if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
		status := http.StatusBadRequest
		if apiErr.Status == http.StatusTooManyRequests {
			status = http.StatusTooManyRequests
		}
		c.JSON(status, gin.H{"error": apiErr.Message})
		return
	}
	logging.L().Error("❌ Auth service call failed", zap.Error(err))
	c.JSON(http.StatusBadGateway, gin.H{"error": "Authentication service unavailable"})
}
