package auth

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// gin context keys set by the auth middleware
const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
	ContextClaims = "claims"
	ContextToken  = "access_token"
)

// SetIdentity stores the verified caller on the request context.
func SetIdentity(c *gin.Context, userID uuid.UUID, claims *Claims, rawToken string) {
	c.Set(ContextUserID, userID)
	c.Set(ContextEmail, claims.Email)
	c.Set(ContextClaims, claims)
	c.Set(ContextToken, rawToken)
}

// UserID returns the authenticated caller, if any.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}

func Email(c *gin.Context) string {
	return c.GetString(ContextEmail)
}

func ClaimsFrom(c *gin.Context) *Claims {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}

func AccessToken(c *gin.Context) string {
	return c.GetString(ContextToken)
}
