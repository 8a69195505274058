package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront_back_end/internal/auth"
	"storefront_back_end/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memCounter struct {
	mu        sync.Mutex
	counts    map[string]int64
	cooldowns map[string]time.Duration
}

func newMemCounter() *memCounter {
	return &memCounter{counts: map[string]int64{}, cooldowns: map[string]time.Duration{}}
}

func (m *memCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[key]++
	return m.counts[key], nil
}

func (m *memCounter) Count(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[key], nil
}

func (m *memCounter) Cooldown(ctx context.Context, key string) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.cooldowns[key]
	return d, ok
}

func (m *memCounter) StartCooldown(ctx context.Context, key string, d time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cooldowns[key] = d
	return nil
}

func (m *memCounter) Reset(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.counts, k)
		delete(m.cooldowns, k)
	}
	return nil
}

type revokedSet map[string]bool

func (r revokedSet) IsTokenBlacklisted(ctx context.Context, id string) bool { return r[id] }

type adminMap struct {
	admins map[uuid.UUID]bool
	err    error
}

func (a adminMap) IsAdmin(ctx context.Context, id uuid.UUID) (bool, error) {
	if a.err != nil {
		return false, a.err
	}
	return a.admins[id], nil
}

const secret = "test-secret"

func signed(t *testing.T, userID uuid.UUID) (string, *auth.Claims) {
	t.Helper()
	v := auth.NewVerifier(secret)
	raw, err := v.Sign(userID, "asha@example.com", time.Hour)
	require.NoError(t, err)
	claims, err := v.Verify(raw)
	require.NoError(t, err)
	return raw, claims
}

func whoami(c *gin.Context) {
	id, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"user": ""})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": id.String()})
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer  abc "))
	assert.Empty(t, BearerToken("Basic abc"))
	assert.Empty(t, BearerToken("abc"))
}

func TestAuthRequired(t *testing.T) {
	userID := uuid.New()
	raw, claims := signed(t, userID)
	revokedRaw, revokedClaims := signed(t, uuid.New())

	a := NewAuth(auth.NewVerifier(secret), revokedSet{revokedClaims.RevocationKey(): true}, nil)
	r := gin.New()
	r.GET("/me", a.Required(), whoami)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"revoked", "Bearer " + revokedRaw, http.StatusUnauthorized},
		{"valid", "Bearer " + raw, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.Contains(t, w.Body.String(), userID.String())
			}
		})
	}
	assert.NotEmpty(t, claims.SessionID)
}

func TestAuthReadsSessionCookie(t *testing.T) {
	userID := uuid.New()
	raw, _ := signed(t, userID)
	store := sessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef"))

	// mint the cookie with the same store
	mint := httptest.NewRecorder()
	mintReq := httptest.NewRequest(http.MethodGet, "/", nil)
	session, err := store.Get(mintReq, SessionName)
	require.NoError(t, err)
	session.Values[SessionTokenKey] = raw
	require.NoError(t, session.Save(mintReq, mint))

	a := NewAuth(auth.NewVerifier(secret), nil, store)
	r := gin.New()
	r.GET("/me", a.Required(), whoami)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	for _, c := range mint.Result().Cookies() {
		req.AddCookie(c)
	}
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID.String())
}

func TestAuthOptional(t *testing.T) {
	a := NewAuth(auth.NewVerifier(secret), nil, nil)
	r := gin.New()
	r.GET("/me", a.Optional(), whoami)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer broken")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":""}`, w.Body.String())
}

func TestRequireAdmin(t *testing.T) {
	adminID, customerID := uuid.New(), uuid.New()
	adminRaw, _ := signed(t, adminID)
	customerRaw, _ := signed(t, customerID)

	checker := adminMap{admins: map[uuid.UUID]bool{adminID: true}}
	a := NewAuth(auth.NewVerifier(secret), nil, nil)

	r := gin.New()
	r.GET("/admin", a.Required(), RequireAdmin(checker), whoami)

	do := func(token string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, do(adminRaw))
	assert.Equal(t, http.StatusForbidden, do(customerRaw))
	assert.Equal(t, http.StatusUnauthorized, do(""))

	// demotion takes effect on the next request
	checker.admins[adminID] = false
	assert.Equal(t, http.StatusForbidden, do(adminRaw))
}

func TestRequireAdminErrors(t *testing.T) {
	userID := uuid.New()
	raw, _ := signed(t, userID)
	a := NewAuth(auth.NewVerifier(secret), nil, nil)

	for err, status := range map[error]int{
		store.ErrNotFound:        http.StatusForbidden,
		errors.New("db is down"): http.StatusInternalServerError,
	} {
		r := gin.New()
		r.GET("/admin", a.Required(), RequireAdmin(adminMap{err: err}), whoami)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+raw)
		r.ServeHTTP(w, req)
		assert.Equal(t, status, w.Code, err.Error())
	}
}

func TestLoginRateLimitLocksAfterFailures(t *testing.T) {
	cnt := newMemCounter()
	r := gin.New()
	r.POST("/login", LoginRateLimit(cnt), func(c *gin.Context) {
		var in struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		_ = c.ShouldBindJSON(&in)
		if in.Password != "right" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	login := func(password string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		body := `{"email":"Asha@Example.com","password":"` + password + `"}`
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body)))
		return w
	}

	assert.Equal(t, http.StatusUnauthorized, login("wrong").Code)
	assert.Equal(t, http.StatusOK, login("right").Code)
	assert.Zero(t, cnt.counts["login_attempts:asha@example.com"])

	for i := 0; i < LoginMaxAttempts; i++ {
		assert.Equal(t, http.StatusUnauthorized, login("wrong").Code)
	}
	w := login("right")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "900", w.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusTooManyRequests, login("right").Code)
}

func TestRegisterRateLimit(t *testing.T) {
	cnt := newMemCounter()
	r := gin.New()
	r.POST("/signup", RegisterRateLimit(cnt), func(c *gin.Context) { c.Status(http.StatusCreated) })

	for i := 0; i < RegisterMaxAttempts; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/signup", nil))
		assert.Equal(t, http.StatusCreated, w.Code)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/signup", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestAPIRateLimitHeaders(t *testing.T) {
	cnt := newMemCounter()
	r := gin.New()
	r.Use(APIRateLimit(cnt))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "299", w.Header().Get("X-RateLimit-Remaining"))

	cnt.counts["api_requests:192.0.2.1"] = APIMaxRequests
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://shop.example.com"}))
	r.GET("/api/home", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/home", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://shop.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}
