package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront_back_end/internal/auth"
	"storefront_back_end/internal/logging"
)

// Counter is the Redis counter API the limits are built on.
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
	Count(ctx context.Context, key string) (int64, error)
	Cooldown(ctx context.Context, key string) (time.Duration, bool)
	StartCooldown(ctx context.Context, key string, d time.Duration) error
	Reset(ctx context.Context, keys ...string) error
}

const (
	LoginMaxAttempts    = 5
	RegisterMaxAttempts = 3
	CartMaxAdds         = 20
	APIMaxRequests      = 300

	LoginCooldown    = 15 * time.Minute
	RegisterCooldown = 30 * time.Minute
	CartWindow       = time.Minute
	APIWindow        = time.Minute
)

func tooMany(c *gin.Context, msg string, retry time.Duration) {
	c.Header("Retry-After", strconv.Itoa(int(retry.Seconds())))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error":       msg,
		"retry_after": int(retry.Seconds()),
	})
}

func minutes(d time.Duration) int {
	m := int(d.Round(time.Minute).Minutes())
	if m < 1 {
		return 1
	}
	return m
}

// LoginRateLimit counts failed logins per e-mail and locks the address after too many.
func LoginRateLimit(cnt Counter) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
		if err != nil {
			c.Next()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		var input struct {
			Email string `json:"email"`
		}
		if json.Unmarshal(body, &input) != nil || input.Email == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		email := strings.ToLower(strings.TrimSpace(input.Email))
		key := "login_attempts:" + email
		cooldownKey := "login_cooldown:" + email

		if ttl, locked := cnt.Cooldown(ctx, cooldownKey); locked {
			tooMany(c, fmt.Sprintf("Too many failed attempts. Try again in %d minutes", minutes(ttl)), ttl)
			return
		}

		attempts, _ := cnt.Count(ctx, key)
		if attempts >= LoginMaxAttempts {
			_ = cnt.StartCooldown(ctx, cooldownKey, LoginCooldown)
			_ = cnt.Reset(ctx, key)
			logging.L().Warn("⚠️ Login locked", zap.String("email", email))
			tooMany(c, fmt.Sprintf("Too many failed attempts. Locked for %d minutes", minutes(LoginCooldown)), LoginCooldown)
			return
		}

		c.Next()

		switch c.Writer.Status() {
		case http.StatusUnauthorized:
			n, err := cnt.Hit(ctx, key, LoginCooldown)
			if err != nil {
				logging.L().Warn("⚠️ Rate limit counter failed", zap.Error(err))
				return
			}
			logging.L().Debug("login failure counted", zap.String("email", email), zap.Int64("attempts", n))
		case http.StatusOK:
			_ = cnt.Reset(ctx, key, cooldownKey)
		}
	}
}

// RegisterRateLimit caps successful sign-ups per client IP.
func RegisterRateLimit(cnt Counter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		ip := c.ClientIP()
		key := "register_attempts:" + ip
		cooldownKey := "register_cooldown:" + ip

		if ttl, locked := cnt.Cooldown(ctx, cooldownKey); locked {
			tooMany(c, fmt.Sprintf("Too many sign-ups. Try again in %d minutes", minutes(ttl)), ttl)
			return
		}
		attempts, _ := cnt.Count(ctx, key)
		if attempts >= RegisterMaxAttempts {
			_ = cnt.StartCooldown(ctx, cooldownKey, RegisterCooldown)
			_ = cnt.Reset(ctx, key)
			tooMany(c, fmt.Sprintf("Too many sign-ups. Try again in %d minutes", minutes(RegisterCooldown)), RegisterCooldown)
			return
		}

		c.Next()

		if c.Writer.Status() == http.StatusCreated {
			_, _ = cnt.Hit(ctx, key, RegisterCooldown)
		}
	}
}

// CartRateLimit throttles cart writes per user.
func CartRateLimit(cnt Counter) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := auth.UserID(c)
		if !ok {
			c.Next()
			return
		}
		n, err := cnt.Hit(c.Request.Context(), "cart_add:"+userID.String(), CartWindow)
		if err == nil && n > CartMaxAdds {
			tooMany(c, "Too many cart updates. Slow down a little", CartWindow)
			return
		}
		c.Next()
	}
}

// APIRateLimit is the coarse per-IP limit on the whole API.
func APIRateLimit(cnt Counter) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := cnt.Hit(c.Request.Context(), "api_requests:"+c.ClientIP(), APIWindow)
		if err != nil {
			c.Next()
			return
		}
		remaining := APIMaxRequests - n
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(APIMaxRequests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		if n > APIMaxRequests {
			tooMany(c, "Too many requests. Try again in a minute", APIWindow)
			return
		}
		c.Next()
	}
}
