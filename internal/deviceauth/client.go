// ABOUTME: HTTP client for the authorization server's device-flow endpoints
// ABOUTME: Wraps the init and poll POSTs behind typed requests/responses

package deviceauth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrServerUnreachable is returned when the initial device-code
// request cannot complete. Recoverable by retrying the flow.
var ErrServerUnreachable = errors.New("authorization server unreachable")

// Poll statuses reported by the authorization server.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusExpired  = "expired"
)

// InitResponse is the result of a device-code issuance request.
type InitResponse struct {
	DeviceCode      string `json:"device_code"`
	VerificationURL string `json:"verification_url"`
}

// PollResponse reports the current state of a pending device code.
// Token, Username and AvatarURL are only set when Status is approved.
type PollResponse struct {
	Status    string `json:"status"`
	Token     string `json:"token"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

// Client talks to the remote authorization server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a device-flow client for the given server base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Init requests a new device code and verification URL.
func (c *Client) Init(ctx context.Context) (*InitResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/device/init/", nil)
	if err != nil {
		return nil, fmt.Errorf("creating init request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServerUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: init returned status %d", ErrServerUnreachable, resp.StatusCode)
	}

	var out InitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decoding init response: %v", ErrServerUnreachable, err)
	}
	if out.DeviceCode == "" || out.VerificationURL == "" {
		return nil, fmt.Errorf("%w: incomplete init response", ErrServerUnreachable)
	}

	return &out, nil
}

// Poll asks the server whether the device code has been approved.
func (c *Client) Poll(ctx context.Context, deviceCode string) (*PollResponse, error) {
	body, err := json.Marshal(map[string]string{"device_code": deviceCode})
	if err != nil {
		return nil, fmt.Errorf("encoding poll request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/device/poll/", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating poll request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("polling device code: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("poll returned status %d", resp.StatusCode)
	}

	var out PollResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding poll response: %w", err)
	}

	return &out, nil
}
