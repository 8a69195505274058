package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Session is the token pair returned by the hosted auth service.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	User         User   `json:"user"`
}

type User struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// APIError is a non-2xx answer from the hosted auth service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("auth service: %d %s", e.Status, e.Message)
}

// Client talks to the hosted auth REST API.
type Client struct {
	baseURL string
	anonKey string
	http    *http.Client
}

func NewClient(baseURL, anonKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// SignUp registers a user. The returned session is empty when e-mail confirmation is pending.
func (c *Client) SignUp(ctx context.Context, email, password, fullName string) (*Session, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
		"data":     map[string]string{"full_name": fullName},
	}
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/auth/v1/signup", "", body, &raw); err != nil {
		return nil, err
	}

	// signup answers with a session, or only the user while confirmation is pending
	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode signup: %w", err)
	}
	if session.User.ID == uuid.Nil {
		if err := json.Unmarshal(raw, &session.User); err != nil {
			return nil, fmt.Errorf("decode signup user: %w", err)
		}
	}
	return &session, nil
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	var session Session
	err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "",
		map[string]string{"email": email, "password": password}, &session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// SignInWithIDToken exchanges an OpenID Connect id token from a social provider.
func (c *Client) SignInWithIDToken(ctx context.Context, provider, idToken string) (*Session, error) {
	var session Session
	err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=id_token", "",
		map[string]string{"provider": provider, "id_token": idToken}, &session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/auth/v1/logout", accessToken, nil, nil)
}

func (c *Client) UpdatePassword(ctx context.Context, accessToken, password string) error {
	return c.do(ctx, http.MethodPut, "/auth/v1/user", accessToken, map[string]string{"password": password}, nil)
}

func (c *Client) do(ctx context.Context, method, path, accessToken string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("auth service: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(data)}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}

func errorMessage(data []byte) string {
	var payload struct {
		ErrorDescription string `json:"error_description"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		Error            string `json:"error"`
	}
	if json.Unmarshal(data, &payload) == nil {
		for _, m := range []string{payload.ErrorDescription, payload.Msg, payload.Message, payload.Error} {
			if m != "" {
				return m
			}
		}
	}
	return strings.TrimSpace(string(data))
}
