package mirror

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

	"github.com/dnguyen/listsync/internal/model"
)

// Client is a thin HTTP client for an RTDB-style document tree. Nodes
// are addressed by path with a .json suffix; POST on a collection asks
// the service to mint a time-ordered key and returns it in the "name"
// field of the response.
//
// There is no retry and no backoff: a failed write surfaces its error
// to the caller verbatim and the replica is left behind.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

// NewClient creates a mirror client. baseURL is the root of the remote
// document tree; authToken, when non-empty, is sent with every request.
func NewClient(baseURL, authToken string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		authToken: authToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// PushList allocates a new key under /lists and writes the payload there.
func (c *Client) PushList(ctx context.Context, payload ListPayload) (string, error) {
	return c.push(ctx, "/lists", payload)
}

// SetList overwrites the list node at /lists/{key}.
func (c *Client) SetList(ctx context.Context, key string, payload ListPayload) error {
	return c.set(ctx, "/lists/"+key, payload)
}

// RemoveList deletes the list node at /lists/{key}.
func (c *Client) RemoveList(ctx context.Context, key string) error {
	return c.remove(ctx, "/lists/"+key)
}

// PushItem allocates a new key under /items and writes the payload there.
func (c *Client) PushItem(ctx context.Context, payload ItemPayload) (string, error) {
	return c.push(ctx, "/items", payload)
}

// SetItem overwrites the item node at /items/{key}.
func (c *Client) SetItem(ctx context.Context, key string, payload ItemPayload) error {
	return c.set(ctx, "/items/"+key, payload)
}

// RemoveItem deletes the item node at /items/{key}.
func (c *Client) RemoveItem(ctx context.Context, key string) error {
	return c.remove(ctx, "/items/"+key)
}

// GetUser reads the profile node at /users/{credentialId}. The service
// answers "null" for an absent node, which maps to (nil, nil).
func (c *Client) GetUser(ctx context.Context, credentialID string) (*model.User, error) {
	body, err := c.do(ctx, http.MethodGet, "/users/"+credentialID, nil)
	if err != nil {
		return nil, err
	}

	if len(body) == 0 || string(body) == "null" {
		return nil, nil
	}

	var user model.User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("decoding user %s: %w", credentialID, err)
	}
	return &user, nil
}

// SetUser overwrites the profile node at /users/{credentialId}.
func (c *Client) SetUser(ctx context.Context, credentialID string, user model.User) error {
	return c.set(ctx, "/users/"+credentialID, user)
}

// push POSTs a payload to a collection path and returns the key the
// service minted for it.
func (c *Client) push(ctx context.Context, path string, payload interface{}) (string, error) {
	body, err := c.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return "", err
	}

	var resp struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decoding push response for %s: %w", path, err)
	}
	if resp.Name == "" {
		return "", fmt.Errorf("mirror returned no key for %s", path)
	}
	return resp.Name, nil
}

// set PUTs a payload to a node path, replacing the node in full.
func (c *Client) set(ctx context.Context, path string, payload interface{}) error {
	_, err := c.do(ctx, http.MethodPut, path, payload)
	return err
}

// remove DELETEs a node path.
func (c *Client) remove(ctx context.Context, path string) error {
	_, err := c.do(ctx, http.MethodDelete, path, nil)
	return err
}

// do builds the request URL, attaches the auth token, and handles JSON
// encoding plus error mapping.
func (c *Client) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	reqURL := c.baseURL + path + ".json"
	if c.authToken != "" {
		reqURL += "?auth=" + url.QueryEscape(c.authToken)
	}

	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request %s %s: %w", method, path, err)
	}

	respBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return nil, fmt.Errorf("reading response body: %w", readErr)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf(
			"mirror error (%d) on %s %s: %s",
			resp.StatusCode, method, path, strings.TrimSpace(string(respBody)),
		)
	}

	return respBody, nil
}
