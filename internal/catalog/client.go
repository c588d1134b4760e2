package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"skiphire/internal/models"

	"github.com/redis/go-redis/v9"
)

// Client calls the remote skip listing API. Responses can optionally be
// cached in redis since the listing for a location changes rarely.
type Client struct {
	baseURL    string
	httpClient *http.Client

	redis    *redis.Client
	cacheTTL time.Duration
}

// NewClient constructs a listing client with a request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// UseRedisCache configures optional Redis caching for listing responses.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// ListSkips fetches the skips available for a postcode/area pair, ordered as
// the API returns them.
func (c *Client) ListSkips(ctx context.Context, postcode, area string) ([]models.SkipOption, error) {
	endpoint := fmt.Sprintf("%s/api/skips/by-location?postcode=%s&area=%s",
		c.baseURL, url.QueryEscape(postcode), url.QueryEscape(area))
	cacheKey := fmt.Sprintf("skips:%s:%s", postcode, area)

	var skips []models.SkipOption
	if c.readCache(ctx, cacheKey, &skips) {
		return skips, nil
	}

	if err := c.doGet(ctx, endpoint, &skips); err != nil {
		return nil, err
	}
	c.writeCache(ctx, cacheKey, skips)
	return skips, nil
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.cacheTTL).Err()
}

func (c *Client) doGet(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("http %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
