package endoflife

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/eolscan/internal/logger"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 15 * time.Second

	// MaxRetries is the maximum number of retries for transient errors.
	MaxRetries = 3

	// RetryDelay is the initial delay between retries.
	RetryDelay = 250 * time.Millisecond

	// ProductTTL is how long fetched cycles are reused.
	ProductTTL = time.Hour

	// maxBodySize bounds a product document.
	maxBodySize = 4 << 20
)

type productEntry struct {
	cycles    []Cycle
	notFound  bool
	fetchedAt time.Time
}

// Client fetches product release cycles from endoflife.date.
// It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	flights singleflight.Group

	mu       sync.RWMutex
	products map[string]productEntry
	now      func() time.Time
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// NewClient creates a client for the API rooted at baseURL, issuing at most
// ratePerSecond requests per second.
func NewClient(baseURL string, ratePerSecond float64, opts ...ClientOption) *Client {
	if ratePerSecond <= 0 {
		ratePerSecond = 5
	}
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: DefaultTimeout},
		limiter:  rate.NewLimiter(rate.Limit(ratePerSecond), 1),
		products: make(map[string]productEntry),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cycles returns the release cycles of a product. Unknown products return
// ErrProductNotFound; both outcomes are cached for ProductTTL.
func (c *Client) Cycles(ctx context.Context, product string) ([]Cycle, error) {
	product = strings.ToLower(strings.TrimSpace(product))
	if product == "" {
		return nil, ErrProductNotFound
	}

	if entry, ok := c.cached(product); ok {
		if entry.notFound {
			return nil, ErrProductNotFound
		}
		return entry.cycles, nil
	}

	ch := c.flights.DoChan(product, func() (any, error) {
		// The shared fetch outlives any single caller's cancellation.
		cycles, err := c.fetch(context.WithoutCancel(ctx), product)
		switch {
		case err == nil:
			c.store(product, productEntry{cycles: cycles, fetchedAt: c.now()})
		case IsNotFound(err):
			c.store(product, productEntry{notFound: true, fetchedAt: c.now()})
		}
		return cycles, err
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.([]Cycle), nil
	}
}

func (c *Client) cached(product string) (productEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.products[product]
	if !ok || c.now().Sub(entry.fetchedAt) >= ProductTTL {
		return productEntry{}, false
	}
	return entry, true
}

func (c *Client) store(product string, entry productEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[product] = entry
}

// fetch downloads a product document, retrying transient failures.
func (c *Client) fetch(ctx context.Context, product string) ([]Cycle, error) {
	endpoint := fmt.Sprintf("%s/api/%s.json", c.baseURL, url.PathEscape(product))

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = RetryDelay
	bo.MaxElapsedTime = 0

	var cycles []Cycle
	operation := func() error {
		var err error
		cycles, err = c.get(ctx, endpoint)
		if err == nil {
			return nil
		}
		var apiErr *APIError
		if IsNotFound(err) || (errors.As(err, &apiErr) && !apiErr.IsRetryable()) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, next time.Duration) {
		logger.Debug("endoflife: retrying %s in %s: %v", product, next, err)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, MaxRetries), ctx)
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return nil, err
	}
	return cycles, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]Cycle, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrProductNotFound
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil, &APIError{StatusCode: resp.StatusCode, URL: endpoint}
	}

	var cycles []Cycle
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&cycles); err != nil {
		return nil, fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return cycles, nil
}
