// Package vtutil looks DEX files up in the VirusTotal file database by
// content hash.
package vtutil

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/deploymenttheory/go-dex-checksum/internal/logger"
	"github.com/deploymenttheory/go-dex-checksum/internal/utils/errors"

	vt "github.com/VirusTotal/vt-go"
)

// Default settings
const (
	DefaultRateLimitPerMinute = 4               // Default API request limit per minute (free tier)
	DefaultRetryCount         = 3               // Default number of retries for failed requests
	DefaultRetryDelay         = 5 * time.Second // Default delay between retries
	DefaultResultCacheTTL     = time.Hour       // Default cache TTL
)

// ClientConfig holds configuration for the VirusTotal client
type ClientConfig struct {
	APIKey           string        // VirusTotal API key
	RateLimitPerMin  int           // Rate limit for API requests per minute
	RetryCount       int           // Number of retries for failed requests
	RetryDelay       time.Duration // Delay between retries
	ResultCacheTTL   time.Duration // Time-to-live for cached results
	CustomHost       string        // Optional custom VirusTotal API host
	DisableRateLimit bool          // Option to disable rate limiting (use with caution)
}

// Client is a rate-limited, retrying wrapper around the VirusTotal client
type Client struct {
	fetch        func(u *url.URL) (*vt.Object, error)
	config       ClientConfig
	lastRequest  time.Time
	requestCount int
	mutex        sync.Mutex
	cacheMutex   sync.RWMutex
	cache        map[string]cachedReport
	now          func() time.Time
}

type cachedReport struct {
	report    *FileReport
	timestamp time.Time
}

// DefaultClientConfig returns a default configuration for the client
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		RateLimitPerMin: DefaultRateLimitPerMinute,
		RetryCount:      DefaultRetryCount,
		RetryDelay:      DefaultRetryDelay,
		ResultCacheTTL:  DefaultResultCacheTTL,
	}
}

// NewClient creates a client for apiKey with the given options applied on
// top of DefaultClientConfig
func NewClient(apiKey string, options ...func(*ClientConfig)) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: set virustotal.api_key or DEX_CHECKSUM_VIRUSTOTAL_API_KEY", errors.ErrAPIKeyMissing)
	}

	config := DefaultClientConfig()
	config.APIKey = apiKey
	for _, option := range options {
		option(&config)
	}

	if config.CustomHost != "" {
		vt.SetHost(config.CustomHost)
	}

	logger.LogDebug("VirusTotal client initialized", map[string]interface{}{
		"rateLimit": config.RateLimitPerMin,
		"retries":   config.RetryCount,
	})

	vtClient := vt.NewClient(apiKey)
	return &Client{
		fetch: func(u *url.URL) (*vt.Object, error) {
			return vtClient.GetObject(u)
		},
		config:      config,
		lastRequest: time.Now().Add(-time.Minute),
		cache:       make(map[string]cachedReport),
		now:         time.Now,
	}, nil
}

// WithRateLimit sets the rate limit for API requests
func WithRateLimit(requestsPerMinute int) func(*ClientConfig) {
	return func(c *ClientConfig) {
		if requestsPerMinute > 0 {
			c.RateLimitPerMin = requestsPerMinute
		}
	}
}

// WithRetrySettings configures retry behavior
func WithRetrySettings(count int, delay time.Duration) func(*ClientConfig) {
	return func(c *ClientConfig) {
		if count >= 0 {
			c.RetryCount = count
		}
		if delay > 0 {
			c.RetryDelay = delay
		}
	}
}

// WithCustomHost sets a custom API host
func WithCustomHost(host string) func(*ClientConfig) {
	return func(c *ClientConfig) {
		c.CustomHost = host
	}
}

// WithDisableRateLimit disables rate limiting
func WithDisableRateLimit(disable bool) func(*ClientConfig) {
	return func(c *ClientConfig) {
		c.DisableRateLimit = disable
	}
}

// checkRateLimit ensures we don't exceed the API rate limit.
// Returns the time to wait before making the next request.
func (c *Client) checkRateLimit() time.Duration {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.config.DisableRateLimit || c.config.RateLimitPerMin <= 0 {
		return 0
	}

	now := c.now()
	elapsed := now.Sub(c.lastRequest)

	// Reset counter after a minute
	if elapsed >= time.Minute {
		c.requestCount = 1
		c.lastRequest = now
		return 0
	}

	if c.requestCount >= c.config.RateLimitPerMin {
		return time.Minute - elapsed
	}

	c.requestCount++
	return 0
}

// sleep waits for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// executeWithRetry runs fn until it succeeds, retries are exhausted or ctx is
// cancelled. permanent errors stop the loop immediately.
func (c *Client) executeWithRetry(ctx context.Context, operation string, fn func() error, permanent func(error) bool) error {
	var lastErr error

	for attempt := 0; attempt <= c.config.RetryCount; attempt++ {
		if waitTime := c.checkRateLimit(); waitTime > 0 {
			logger.LogInfo("Rate limit reached, throttling requests", map[string]interface{}{
				"waitTime": waitTime.String(),
			})
			if err := sleep(ctx, waitTime); err != nil {
				return err
			}
			// the window has rolled over; count this request in the new one
			c.checkRateLimit()
		}

		err := fn()
		if err == nil {
			return nil
		}
		if permanent != nil && permanent(err) {
			return err
		}

		lastErr = err
		logger.LogWarn(fmt.Sprintf("VirusTotal API request failed (attempt %d/%d): %s",
			attempt+1, c.config.RetryCount+1, operation), map[string]interface{}{
			"error": err.Error(),
		})

		if attempt < c.config.RetryCount {
			if err := sleep(ctx, c.config.RetryDelay); err != nil {
				return err
			}
		}
	}

	return lastErr
}

// getCachedReport retrieves a cached report if available and not expired
func (c *Client) getCachedReport(key string) (*FileReport, bool) {
	c.cacheMutex.RLock()
	defer c.cacheMutex.RUnlock()

	cached, exists := c.cache[key]
	if !exists || c.now().Sub(cached.timestamp) > c.config.ResultCacheTTL {
		return nil, false
	}
	return cached.report, true
}

// cacheReport stores a report in the cache
func (c *Client) cacheReport(key string, report *FileReport) {
	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()

	c.cache[key] = cachedReport{report: report, timestamp: c.now()}
}
