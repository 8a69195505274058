package user

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront_back_end/internal/handlers"
	"storefront_back_end/internal/store"
)

// GET /api/wishlist
func (h *Handler) GetWishlist(c *gin.Context) {
	userID, ok := handlers.CurrentUser(c)
	if !ok {
		return
	}
	items, err := h.Store.Wishlist(c.Request.Context(), userID)
	if err != nil {
		handlers.Fail(c, err, "Wishlist")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// POST /api/wishlist
func (h *Handler) AddToWishlist(c *gin.Context) {
	userID, ok := handlers.CurrentUser(c)
	if !ok {
		return
	}
	var input struct {
		ProductID string `json:"product_id" binding:"required"`
	}
	if !handlers.BindJSON(c, &input) {
		return
	}
	productID, err := uuid.Parse(input.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product_id"})
		return
	}

	ctx := c.Request.Context()
	product, err := h.Store.ProductByID(ctx, productID)
	if err != nil {
		handlers.Fail(c, err, "Product")
		return
	}
	item, err := h.Store.AddToWishlist(ctx, userID, productID)
	if errors.Is(err, store.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": "This item is already in your wishlist!"})
		return
	}
	if err != nil {
		handlers.Fail(c, err, "Wishlist item")
		return
	}
	item.Product = product
	c.JSON(http.StatusCreated, gin.H{"message": "Added to wishlist", "item": item})
}

// DELETE /api/wishlist/:productId
func (h *Handler) RemoveFromWishlist(c *gin.Context) {
	userID, ok := handlers.CurrentUser(c)
	if !ok {
		return
	}
	productID, ok := handlers.ParamUUID(c, "productId")
	if !ok {
		return
	}
	if err := h.Store.RemoveFromWishlist(c.Request.Context(), userID, productID); err != nil {
		handlers.Fail(c, err, "Wishlist item")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Removed from wishlist"})
}
