package turnstile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const verifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

var (
	ErrMissingToken       = errors.New("turnstile token is required")
	ErrVerificationFailed = errors.New("turnstile verification failed")
	ErrUnavailable        = errors.New("turnstile verification unavailable")
)

// Client verifies Cloudflare Turnstile tokens. A client with an empty
// secret is disabled and accepts every request.
type Client struct {
	secret     string
	endpoint   string
	httpClient *http.Client
}

func NewClient(secret string) *Client {
	return &Client{
		secret:     secret,
		endpoint:   verifyURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether a secret is configured.
func (c *Client) Enabled() bool { return c.secret != "" }

// Verify checks a client token against the siteverify endpoint.
func (c *Client) Verify(ctx context.Context, token string) error {
	if !c.Enabled() {
		return nil
	}
	if strings.TrimSpace(token) == "" {
		return ErrMissingToken
	}

	form := url.Values{}
	form.Set("secret", c.secret)
	form.Set("response", token)

	req, errReq := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if errReq != nil {
		return fmt.Errorf("turnstile: build request: %w", errReq)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, errDo := c.httpClient.Do(req)
	if errDo != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, errDo)
	}
	defer resp.Body.Close()

	var payload struct {
		Success bool `json:"success"`
	}
	if errDecode := json.NewDecoder(resp.Body).Decode(&payload); errDecode != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUnavailable, errDecode)
	}
	if !payload.Success {
		return ErrVerificationFailed
	}
	return nil
}
