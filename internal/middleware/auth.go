package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"storefront_back_end/internal/auth"
	"storefront_back_end/internal/logging"
)

const (
	SessionName     = "storefront_session"
	SessionTokenKey = "access_token"
)

type TokenVerifier interface {
	Verify(raw string) (*auth.Claims, error)
}

type Revocations interface {
	IsTokenBlacklisted(ctx context.Context, tokenID string) bool
}

// Auth resolves the caller from a Bearer header or the session cookie.
type Auth struct {
	verifier TokenVerifier
	revoked  Revocations
	sessions sessions.Store
}

func NewAuth(v TokenVerifier, r Revocations, store sessions.Store) *Auth {
	return &Auth{verifier: v, revoked: r, sessions: store}
}

// Required rejects requests without a valid, unrevoked token.
func (a *Auth) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := a.token(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		if !a.identify(c, raw) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		c.Next()
	}
}

// Optional sets the caller when a valid token is present and never rejects.
func (a *Auth) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := a.token(c); raw != "" {
			a.identify(c, raw)
		}
		c.Next()
	}
}

func (a *Auth) identify(c *gin.Context, raw string) bool {
	claims, err := a.verifier.Verify(raw)
	if err != nil {
		logging.L().Debug("❌ Token rejected", zap.Error(err), zap.String("path", c.FullPath()))
		return false
	}
	if a.revoked != nil && a.revoked.IsTokenBlacklisted(c.Request.Context(), claims.RevocationKey()) {
		logging.L().Debug("❌ Token revoked", zap.String("session_id", claims.RevocationKey()))
		return false
	}
	userID, err := claims.UserID()
	if err != nil {
		return false
	}
	auth.SetIdentity(c, userID, claims, raw)
	return true
}

func (a *Auth) token(c *gin.Context) string {
	if raw := BearerToken(c.GetHeader("Authorization")); raw != "" {
		return raw
	}
	if a.sessions == nil {
		return ""
	}
	session, err := a.sessions.Get(c.Request, SessionName)
	if err != nil {
		return ""
	}
	raw, _ := session.Values[SessionTokenKey].(string)
	return raw
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
