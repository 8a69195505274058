package user

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/markbates/goth/gothic"
	"go.uber.org/zap"

	"storefront_back_end/internal/audit"
	"storefront_back_end/internal/auth"
	"storefront_back_end/internal/handlers"
	"storefront_back_end/internal/logging"
	"storefront_back_end/internal/middleware"
	"storefront_back_end/internal/models"
)

type signupInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name"`
}

type loginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// POST /api/auth/signup
func (h *Handler) Signup(c *gin.Context) {
	var input signupInput
	if !handlers.BindJSON(c, &input) {
		return
	}
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.FullName = strings.TrimSpace(input.FullName)
	if _, err := mail.ParseAddress(input.Email); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email address"})
		return
	}
	if len(input.Password) < MinPasswordLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 6 characters"})
		return
	}

	ctx := c.Request.Context()
	sess, err := h.Auth.SignUp(ctx, input.Email, input.Password, input.FullName)
	if err != nil {
		authFailed(c, err)
		return
	}
	if sess.User.ID == uuid.Nil {
		logging.L().Error("❌ Sign-up answer carried no user id", zap.String("email", input.Email))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Authentication service unavailable"})
		return
	}

	profile, created, err := h.Store.EnsureProfile(ctx, sess.User.ID, input.Email)
	if err != nil {
		handlers.Fail(c, err, "Profile")
		return
	}
	if input.FullName != "" && profile.FullName == "" {
		profile.FullName = input.FullName
		if err := h.Store.UpsertProfile(ctx, profile); err != nil {
			logging.L().Warn("⚠️ Profile name not saved", zap.Error(err))
		}
	}
	if created {
		logging.L().Info("✅ Profile created", zap.String("user_id", profile.ID.String()), zap.Bool("is_admin", profile.IsAdmin))
		h.Mailer.Go("welcome", func(ctx context.Context) error {
			return h.Mailer.Welcome(ctx, input.Email, input.FullName)
		})
	}

	if sess.AccessToken != "" {
		h.saveSession(c, sess.AccessToken)
	}
	h.Audit.Record(c, audit.ACTION_USER_CREATE, audit.RESOURCE_USER, profile.ID.String(), nil, profile)

	c.JSON(http.StatusCreated, gin.H{
		"message":            "Account created successfully",
		"user":               profile,
		"access_token":       sess.AccessToken,
		"refresh_token":      sess.RefreshToken,
		"expires_in":         sess.ExpiresIn,
		"confirmation_email": sess.AccessToken == "",
	})
}

// POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	var input loginInput
	if !handlers.BindJSON(c, &input) {
		return
	}
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	sess, err := h.Auth.SignInWithPassword(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		var apiErr *auth.APIError
		if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
			h.Audit.RecordFailure(c, audit.ACTION_LOGIN_FAILED, audit.RESOURCE_AUTH, input.Email, apiErr.Message)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		authFailed(c, err)
		return
	}
	h.completeLogin(c, sess, "password")
}

// completeLogin makes sure the profile exists, stores the session and answers with the tokens.
func (h *Handler) completeLogin(c *gin.Context, sess *auth.Session, method string) {
	profile, _, err := h.Store.EnsureProfile(c.Request.Context(), sess.User.ID, sess.User.Email)
	if err != nil {
		handlers.Fail(c, err, "Profile")
		return
	}
	h.saveSession(c, sess.AccessToken)
	h.Audit.Record(c, audit.ACTION_LOGIN_SUCCESS, audit.RESOURCE_AUTH, sess.User.ID.String(), nil, gin.H{"method": method})
	logging.L().Info("✅ Login", zap.String("user_id", sess.User.ID.String()), zap.String("method", method))

	c.JSON(http.StatusOK, loginResponse(sess, profile))
}

func loginResponse(sess *auth.Session, profile *models.Profile) gin.H {
	return gin.H{
		"message":       "Login successful",
		"user":          profile,
		"access_token":  sess.AccessToken,
		"refresh_token": sess.RefreshToken,
		"expires_in":    sess.ExpiresIn,
	}
}

// POST /api/auth/logout revokes the session until the token would have expired.
func (h *Handler) Logout(c *gin.Context) {
	userID, ok := handlers.CurrentUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if claims := auth.ClaimsFrom(c); claims != nil {
		if err := h.Cache.BlacklistToken(ctx, claims.RevocationKey(), claims.Remaining(time.Now())); err != nil {
			logging.L().Warn("⚠️ Token blacklist failed", zap.Error(err))
		}
	}
	if h.Auth != nil {
		if err := h.Auth.SignOut(ctx, auth.AccessToken(c)); err != nil {
			logging.L().Warn("⚠️ Hosted sign-out failed", zap.Error(err))
		}
	}
	h.clearSession(c)
	h.Audit.Record(c, audit.ACTION_LOGOUT, audit.RESOURCE_AUTH, userID.String(), nil, nil)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// GET /api/auth/:provider
func (h *Handler) BeginOAuth(c *gin.Context) {
	if !withProvider(c) {
		return
	}
	gothic.BeginAuthHandler(c.Writer, c.Request)
}

// GET /api/auth/:provider/callback exchanges the provider id_token for a hosted session.
func (h *Handler) OAuthCallback(c *gin.Context) {
	if !withProvider(c) {
		return
	}
	provider := c.Param("provider")
	gothUser, err := gothic.CompleteUserAuth(c.Writer, c.Request)
	if err != nil {
		logging.L().Warn("❌ OAuth callback failed", zap.String("provider", provider), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Authentication with " + provider + " failed"})
		return
	}
	if gothUser.IDToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Provider did not return an id_token"})
		return
	}

	sess, err := h.Auth.SignInWithIDToken(c.Request.Context(), provider, gothUser.IDToken)
	if err != nil {
		authFailed(c, err)
		return
	}
	if sess.User.Email == "" {
		sess.User.Email = gothUser.Email
	}
	if h.FrontendURL == "" {
		h.completeLogin(c, sess, provider)
		return
	}

	if _, _, err := h.Store.EnsureProfile(c.Request.Context(), sess.User.ID, sess.User.Email); err != nil {
		handlers.Fail(c, err, "Profile")
		return
	}
	h.saveSession(c, sess.AccessToken)
	h.Audit.Record(c, audit.ACTION_LOGIN_SUCCESS, audit.RESOURCE_AUTH, sess.User.ID.String(), nil, gin.H{"method": provider})
	c.Redirect(http.StatusFound, h.FrontendURL)
}

// withProvider exposes the route's provider to gothic, which reads it from the query.
func withProvider(c *gin.Context) bool {
	provider := c.Param("provider")
	if provider == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No provider given"})
		return false
	}
	q := c.Request.URL.Query()
	q.Set("provider", provider)
	c.Request.URL.RawQuery = q.Encode()
	return true
}

func (h *Handler) saveSession(c *gin.Context, token string) {
	if h.Sessions == nil || token == "" {
		return
	}
	session, err := h.Sessions.Get(c.Request, middleware.SessionName)
	if err != nil && session == nil {
		logging.L().Warn("⚠️ Session unavailable", zap.Error(err))
		return
	}
	session.Values[middleware.SessionTokenKey] = token
	if err := session.Save(c.Request, c.Writer); err != nil {
		logging.L().Warn("⚠️ Session save failed", zap.Error(err))
	}
}

func (h *Handler) clearSession(c *gin.Context) {
	if h.Sessions == nil {
		return
	}
	session, err := h.Sessions.Get(c.Request, middleware.SessionName)
	if err != nil && session == nil {
		return
	}
	delete(session.Values, middleware.SessionTokenKey)
	session.Options.MaxAge = -1
	if err := session.Save(c.Request, c.Writer); err != nil {
		logging.L().Warn("⚠️ Session clear failed", zap.Error(err))
	}
}
