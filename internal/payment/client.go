package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client calls the external payment-session API used by the
// alternative-account path. The API's only documented failure mode is a
// non-2xx status or transport error; there is no error body schema.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a payment-session client with a request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type sessionRequest struct {
	Total float64 `json:"total"`
	Email string  `json:"email"`
}

type sessionResponse struct {
	URL string `json:"url"`
}

// CreateSession asks the provider for a hosted payment session and returns
// the redirect URL from its response.
func (c *Client) CreateSession(ctx context.Context, total float64, email string) (string, error) {
	endpoint := fmt.Sprintf("%s/payment", c.baseURL)

	data, err := json.Marshal(sessionRequest{Total: total, Email: email})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(data)))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("payment session: http %d", resp.StatusCode)
	}

	var out sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", fmt.Errorf("payment session: empty redirect url")
	}
	return out.URL, nil
}
