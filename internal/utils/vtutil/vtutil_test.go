package vtutil

import (
	"context"
	stderrors "errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/deploymenttheory/go-dex-checksum/internal/utils/errors"

	vt "github.com/VirusTotal/vt-go"
)

const sampleSHA256 = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"

// newTestClient builds a client around a fake fetcher without touching the network
func newTestClient(fetch func(u *url.URL) (*vt.Object, error), options ...func(*ClientConfig)) *Client {
	config := DefaultClientConfig()
	config.APIKey = "test"
	config.RetryDelay = time.Millisecond
	for _, option := range options {
		option(&config)
	}
	return &Client{
		fetch:       fetch,
		config:      config,
		lastRequest: time.Now().Add(-time.Minute),
		cache:       make(map[string]cachedReport),
		now:         time.Now,
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(""); !stderrors.Is(err, errors.ErrAPIKeyMissing) {
		t.Errorf("expected ErrAPIKeyMissing, got %v", err)
	}
}

func TestDetectHashType(t *testing.T) {
	tests := map[string]string{
		strings.Repeat("a", 32): HashTypeMD5,
		strings.Repeat("B", 40): HashTypeSHA1,
		sampleSHA256:            HashTypeSHA256,
		strings.Repeat("g", 64): "",
		strings.Repeat("a", 33): "",
		"":                      "",
	}
	for hash, want := range tests {
		if got := detectHashType(hash); got != want {
			t.Errorf("detectHashType(%q) = %q, want %q", hash, got, want)
		}
	}
}

func TestLookupRejectsInvalidHash(t *testing.T) {
	c := newTestClient(func(u *url.URL) (*vt.Object, error) {
		t.Fatal("fetch called for an invalid hash")
		return nil, nil
	})
	if _, err := c.LookupFileByHash(context.Background(), "not-a-hash"); !stderrors.Is(err, errors.ErrInvalidHash) {
		t.Errorf("expected ErrInvalidHash, got %v", err)
	}
}

func TestLookupNotFoundIsNotRetried(t *testing.T) {
	calls := 0
	c := newTestClient(func(u *url.URL) (*vt.Object, error) {
		calls++
		return nil, stderrors.New("NotFoundError: File \"x\" not found")
	})

	_, err := c.LookupFileByHash(context.Background(), sampleSHA256)
	if !stderrors.Is(err, errors.ErrResourceNotFound) {
		t.Errorf("expected ErrResourceNotFound, got %v", err)
	}
	if calls != 1 {
		t.Errorf("fetch called %d times, want 1", calls)
	}
}

func TestLookupRetriesTransientErrors(t *testing.T) {
	calls := 0
	c := newTestClient(func(u *url.URL) (*vt.Object, error) {
		calls++
		if !strings.HasSuffix(u.Path, "/files/"+sampleSHA256) {
			t.Errorf("unexpected lookup URL %s", u)
		}
		return nil, stderrors.New("connection reset")
	}, WithRetrySettings(2, time.Millisecond), WithDisableRateLimit(true))

	_, err := c.LookupFileByHash(context.Background(), sampleSHA256)
	if !stderrors.Is(err, errors.ErrAPICommunicationError) {
		t.Errorf("expected ErrAPICommunicationError, got %v", err)
	}
	if calls != 3 {
		t.Errorf("fetch called %d times, want 3", calls)
	}
}

func TestLookupHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := newTestClient(func(u *url.URL) (*vt.Object, error) {
		cancel()
		return nil, stderrors.New("connection reset")
	}, WithRetrySettings(5, time.Hour))

	_, err := c.LookupFileByHash(ctx, sampleSHA256)
	if !stderrors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestCacheExpiry(t *testing.T) {
	c := newTestClient(nil)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.cacheReport("k", &FileReport{SHA256: sampleSHA256})
	if _, ok := c.getCachedReport("k"); !ok {
		t.Fatal("fresh entry missing from cache")
	}

	now = now.Add(c.config.ResultCacheTTL + time.Second)
	if _, ok := c.getCachedReport("k"); ok {
		t.Error("expired entry served from cache")
	}
}

func TestCheckRateLimit(t *testing.T) {
	c := newTestClient(nil, WithRateLimit(2))
	now := time.Now()
	c.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if wait := c.checkRateLimit(); wait != 0 {
			t.Fatalf("request %d throttled for %s", i+1, wait)
		}
	}
	if wait := c.checkRateLimit(); wait <= 0 {
		t.Error("third request in the same minute was not throttled")
	}

	now = now.Add(time.Minute)
	if wait := c.checkRateLimit(); wait != 0 {
		t.Errorf("request after window rollover throttled for %s", wait)
	}
}

func TestThreatLevel(t *testing.T) {
	tests := []struct {
		positives, total int
		want             ThreatLevel
	}{
		{0, 0, ThreatLevelUnknown},
		{0, 70, ThreatLevelClean},
		{1, 70, ThreatLevelLow},
		{5, 70, ThreatLevelMedium},
		{15, 70, ThreatLevelHigh},
		{40, 70, ThreatLevelCritical},
	}
	for _, tt := range tests {
		r := &FileReport{PositiveCount: tt.positives, TotalCount: tt.total}
		if got := r.ThreatLevel(); got != tt.want {
			t.Errorf("%s: got %s, want %s", r.DetectionRatio(), got, tt.want)
		}
	}
}

func TestAnalysisCounts(t *testing.T) {
	stats := map[string]interface{}{
		"malicious":  float64(3),
		"suspicious": float64(1),
		"undetected": float64(60),
		"bogus":      "x",
	}
	positives, total := analysisCounts(stats)
	if positives != 3 || total != 64 {
		t.Errorf("got %d/%d, want 3/64", positives, total)
	}
}
