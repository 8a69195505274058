package config

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
)

const sessionMaxAge = 86400 * 30

// NewSessionStore builds the cookie store shared by gothic and the auth handlers.
func NewSessionStore(cfg Config) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.MaxAge(sessionMaxAge)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   strings.HasPrefix(cfg.BaseURL, "https://"),
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// InitOAuthProviders registers the social login providers with goth.
// It returns the number of providers enabled.
func InitOAuthProviders(cfg Config, store sessions.Store) int {
	gothic.Store = store

	gothic.GetProviderName = func(req *http.Request) (string, error) {
		if provider := req.URL.Query().Get("provider"); provider != "" {
			return provider, nil
		}
		if provider := req.FormValue("provider"); provider != "" {
			return provider, nil
		}
		return "", errors.New("provider not found")
	}

	var providers []goth.Provider
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		// openid scope makes Google return the id_token the hosted auth expects
		providers = append(providers, google.New(
			cfg.GoogleClientID,
			cfg.GoogleClientSecret,
			cfg.BaseURL+"/api/auth/google/callback",
			"openid", "email", "profile",
		))
		log.Println("✅ Google OAuth enabled")
	}

	if len(providers) == 0 {
		log.Println("⚠️ No OAuth provider configured")
		return 0
	}

	goth.UseProviders(providers...)
	return len(providers)
}
