package terminal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3/client"

	"github.com/educare/track_backend/internal/service/attendance"
)

// APIError is a response the server produced. Anything else returned by
// Client is a transport failure.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server answered %d: %s", e.Status, e.Message)
}

// IsTransport reports whether err means the server was not reached.
func IsTransport(err error) bool {
	var apiErr *APIError
	return err != nil && !errors.As(err, &apiErr)
}

// Retryable reports whether the request may succeed later unchanged: the
// server was not reached, was not ready to process it, or refused our
// credentials.
func Retryable(err error) bool {
	if IsTransport(err) {
		return true
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Status {
	case http.StatusUnauthorized, http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}
	return apiErr.Status >= http.StatusInternalServerError
}

// Client talks to the Educare API as a guard account.
type Client struct {
	http     *client.Client
	email    string
	password string

	mu    sync.Mutex
	token string
}

func NewClient(baseURL, email, password string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	hc := client.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetUserAgent("educare-terminal")
	return &Client{http: hc, email: email, password: password}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

// Live reports whether /livez answers 200.
func (c *Client) Live(ctx context.Context) bool {
	resp, err := c.http.Get("/livez", client.Config{Ctx: ctx})
	if err != nil {
		return false
	}
	defer resp.Close()
	return resp.StatusCode() == http.StatusOK
}

// Login exchanges the configured credentials for an access token.
func (c *Client) Login(ctx context.Context) error {
	var out struct {
		AccessToken string `json:"access_token"`
	}
	body := map[string]string{"email": c.email, "password": c.password}
	if err := c.do(ctx, "/api/v1/auth/login", body, "", &out); err != nil {
		return err
	}
	if out.AccessToken == "" {
		return &APIError{Status: http.StatusUnauthorized, Message: "login returned no access token"}
	}
	c.mu.Lock()
	c.token = out.AccessToken
	c.mu.Unlock()
	return nil
}

// Tap records one live scan.
func (c *Client) Tap(ctx context.Context, code string, at time.Time) (*attendance.Result, error) {
	var out attendance.Result
	body := map[string]any{"code": code, "timestamp": at.UTC()}
	if err := c.authed(ctx, "/api/v1/gate/tap", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Sync replays buffered scans and returns the per-scan outcome.
func (c *Client) Sync(ctx context.Context, scans []attendance.OfflineScan) ([]attendance.SyncResult, error) {
	var out struct {
		Results []attendance.SyncResult `json:"results"`
	}
	if err := c.authed(ctx, "/api/v1/gate/sync", map[string]any{"scans": scans}, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// authed posts with the bearer token, logging in first if needed and once
// more when the token was rejected.
func (c *Client) authed(ctx context.Context, path string, body, out any) error {
	retried := false
	for {
		c.mu.Lock()
		token := c.token
		c.mu.Unlock()
		if token == "" {
			if err := c.Login(ctx); err != nil {
				return fmt.Errorf("login: %w", err)
			}
			continue
		}
		err := c.do(ctx, path, body, token, out)
		var apiErr *APIError
		if !retried && errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			retried = true
			c.mu.Lock()
			c.token = ""
			c.mu.Unlock()
			continue
		}
		return err
	}
}

func (c *Client) do(ctx context.Context, path string, body any, token string, out any) error {
	cfg := client.Config{Ctx: ctx, Body: body, Header: map[string]string{"Content-Type": "application/json"}}
	if token != "" {
		cfg.Header["Authorization"] = "Bearer " + token
	}
	resp, err := c.http.Post(path, cfg)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Close()

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return &APIError{Status: resp.StatusCode(), Message: "malformed response"}
	}
	if resp.StatusCode() >= 300 {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode())
		}
		return &APIError{Status: resp.StatusCode(), Message: msg}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}
