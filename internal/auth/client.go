package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a thin HTTP client for the credential service. The wire
// protocol is treated as opaque: three endpoints exchange an email and
// password (or a session token) for a stable user id and a fresh token.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Token is the credential material returned by the provider.
type Token struct {
	UserID  string `json:"localId"`
	Email   string `json:"email"`
	IDToken string `json:"idToken"`
}

// NewClient creates a credential service client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SignIn exchanges an email and password for a session token.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Token, error) {
	return c.post(ctx, "/v1/accounts:signInWithPassword", map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
}

// SignUp registers a new account and returns its session token.
func (c *Client) SignUp(ctx context.Context, email, password string) (*Token, error) {
	return c.post(ctx, "/v1/accounts:signUp", map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
}

// UpdatePassword changes the password of the account behind idToken
// and returns refreshed credential material.
func (c *Client) UpdatePassword(ctx context.Context, idToken, newPassword string) (*Token, error) {
	return c.post(ctx, "/v1/accounts:update", map[string]interface{}{
		"idToken":           idToken,
		"password":          newPassword,
		"returnSecureToken": true,
	})
}

// post sends a JSON body to an endpoint and decodes the token response.
func (c *Client) post(ctx context.Context, path string, body map[string]interface{}) (*Token, error) {
	reqURL := c.baseURL + path
	if c.apiKey != "" {
		reqURL += "?key=" + url.QueryEscape(c.apiKey)
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request POST %s: %w", path, err)
	}

	respBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return nil, fmt.Errorf("reading response body: %w", readErr)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var provErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(respBody, &provErr) == nil && provErr.Error.Message != "" {
			return nil, fmt.Errorf("credential service error (%d) on %s: %s",
				resp.StatusCode, path, provErr.Error.Message)
		}
		return nil, fmt.Errorf("unexpected status %d on POST %s: %s",
			resp.StatusCode, path, strings.TrimSpace(string(respBody)))
	}

	var tok Token
	if err := json.Unmarshal(respBody, &tok); err != nil {
		return nil, fmt.Errorf("decoding token response: %w", err)
	}

	return &tok, nil
}
