package admin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront_back_end/internal/audit"
	"storefront_back_end/internal/logging"
	"storefront_back_end/internal/services"
)

// POST /api/admin/images (multipart field "file")
func (h *Handler) UploadImage(c *gin.Context) {
	if h.Images == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Image storage is not configured"})
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file received"})
		return
	}

	key, err := h.Images.Upload(c.Request.Context(), fh)
	switch {
	case errors.Is(err, services.ErrUnsupportedImage), errors.Is(err, services.ErrImageTooLarge):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, services.ErrStorageUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Image storage is not configured"})
		return
	case err != nil:
		logging.L().Error("❌ Image upload failed", zap.String("file", fh.Filename), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload failed"})
		return
	}

	h.Audit.Record(c, audit.ACTION_IMAGE_UPLOAD, audit.RESOURCE_IMAGE, key, nil, gin.H{"file": fh.Filename, "size": fh.Size})
	logging.L().Info("✅ Image uploaded", zap.String("key", key), zap.Int64("size", fh.Size))
	c.JSON(http.StatusCreated, gin.H{"key": key, "url": services.PublicPath(key)})
}

// GET /api/images/*key redirects to a short-lived presigned URL.
func (h *Handler) ServeImage(c *gin.Context) {
	if h.Images == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Image storage is not configured"})
		return
	}
	signed, err := h.Images.SignedURL(c.Request.Context(), c.Param("key"), services.SignedURLTTL)
	switch {
	case errors.Is(err, services.ErrInvalidImageKey):
		c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
		return
	case err != nil:
		logging.L().Error("❌ Presign failed", zap.String("key", c.Param("key")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Image unavailable"})
		return
	}
	c.Header("Cache-Control", "private, max-age=300")
	c.Redirect(http.StatusFound, signed)
}
