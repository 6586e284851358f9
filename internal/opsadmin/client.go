package opsadmin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const adminTokenHeader = "X-Admin-Token"

// Client is a thin HTTP client for the operator endpoints of the backend.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// SetToken sets the session token attached to subsequent requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) HasToken() bool {
	return c.token != ""
}

// Stats mirrors the dashboard payload of GET /api/admin/stats.
type Stats struct {
	Clients        int64 `json:"clients"`
	Influencers    int64 `json:"influencers"`
	Verified       int64 `json:"verified"`
	ActiveSessions int   `json:"active_sessions"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		buf = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set(adminTokenHeader, c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if jerr := json.NewDecoder(resp.Body).Decode(&apiErr); jerr == nil && apiErr.Error != "" {
			return fmt.Errorf("%s: %s", resp.Status, apiErr.Error)
		}
		return fmt.Errorf("request failed: %s", resp.Status)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// RequestOTP asks the server to mail a login code to the admin address.
func (c *Client) RequestOTP(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/api/admin/login/request-otp",
		map[string]string{"email": email}, nil)
}

// VerifyOTP exchanges the mailed code for a session token.
func (c *Client) VerifyOTP(ctx context.Context, email, code string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	err := c.do(ctx, http.MethodPost, "/api/admin/login/verify-otp",
		map[string]string{"email": email, "code": code}, &out)
	if err != nil {
		return "", err
	}
	return out.Token, nil
}

// Logout revokes the current session token on the server.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/admin/logout", nil, nil)
}

func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var out Stats
	if err := c.do(ctx, http.MethodGet, "/api/admin/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PresignPut returns a storage key and a presigned URL to upload to.
func (c *Client) PresignPut(ctx context.Context) (string, string, error) {
	var out struct {
		Key string `json:"key"`
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/uploads/presign-put", nil, &out); err != nil {
		return "", "", err
	}
	return out.Key, out.URL, nil
}
