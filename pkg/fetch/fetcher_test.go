package fetch

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/prowl/pkg/browser"
	"github.com/entrhq/prowl/pkg/config"
)

func newTestFetcher(t *testing.T, cfg *config.Config) *Fetcher {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	pool := browser.NewPoolManager(cfg, nil)
	f, err := NewFetcher(cfg, pool)
	require.NoError(t, err)
	return f
}

func TestNewFetcherRequiresPool(t *testing.T) {
	_, err := NewFetcher(config.Default(), nil)
	assert.Error(t, err)
}

func TestNewFetcherResolvesConfiguredProcessor(t *testing.T) {
	cfg := config.Default()
	cfg.HeaderProcessor = "engine_user_agent"
	f := newTestFetcher(t, cfg)
	assert.NotNil(t, f.process)
}

func TestNewFetcherRejectsUnknownProcessor(t *testing.T) {
	cfg := config.Default()
	cfg.HeaderProcessor = "does-not-exist"
	pool := browser.NewPoolManager(cfg, nil)

	_, err := NewFetcher(cfg, pool)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown header processor")
}

func TestNewFetcherCompilesAbortPatterns(t *testing.T) {
	cfg := config.Default()
	cfg.AbortPatterns = []string{"*.png"}
	f := newTestFetcher(t, cfg)

	require.NotNil(t, f.abort)
	assert.True(t, f.abort(&fakeRequest{url: "https://x.test/a.png"}))
	assert.False(t, f.abort(&fakeRequest{url: "https://x.test/a.html"}))
}

func TestNewFetcherRejectsBadAbortPattern(t *testing.T) {
	cfg := config.Default()
	cfg.AbortPatterns = []string{"[oops"}
	pool := browser.NewPoolManager(cfg, nil)

	_, err := NewFetcher(cfg, pool)
	assert.Error(t, err)
}

func TestFetchRequiresURL(t *testing.T) {
	f := newTestFetcher(t, nil)

	_, err := f.Fetch(context.Background(), nil)
	assert.Error(t, err)

	_, err = f.Fetch(context.Background(), &Request{})
	assert.Error(t, err)
}

func TestFetchValidatesActionsBeforeAcquiring(t *testing.T) {
	f := newTestFetcher(t, nil)

	req := &Request{
		URL: "https://example.com",
		Options: Options{
			Actions: []*Action{{Name: "teleport"}},
		},
	}

	_, err := f.Fetch(context.Background(), req)
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestFetchAgainstUninitializedPool(t *testing.T) {
	f := newTestFetcher(t, nil)

	_, err := f.Fetch(context.Background(), &Request{URL: "https://example.com"})
	assert.ErrorIs(t, err, browser.ErrNotInitialized)
}

func TestOptionsContextName(t *testing.T) {
	var opts *Options
	assert.Equal(t, DefaultContext, opts.contextName())

	opts = &Options{}
	assert.Equal(t, DefaultContext, opts.contextName())

	opts.Context = "mobile"
	assert.Equal(t, "mobile", opts.contextName())
}

func TestRequestMethodDefault(t *testing.T) {
	req := &Request{URL: "https://example.com"}
	assert.Equal(t, http.MethodGet, req.method())

	req.Method = http.MethodPost
	assert.Equal(t, http.MethodPost, req.method())
}

func TestHeaderProcessorAndAbortRuleOverrides(t *testing.T) {
	f := newTestFetcher(t, nil)

	custom := func(engine string, r InterceptedRequest, h http.Header) http.Header { return h }
	rule := func(r InterceptedRequest) bool { return true }

	opts := &Options{ProcessHeaders: custom, AbortRule: rule}
	assert.NotNil(t, f.headerProcessor(opts))
	assert.True(t, f.abortRule(opts)(&fakeRequest{}))

	// without overrides the configured defaults apply
	opts = &Options{}
	assert.NotNil(t, f.headerProcessor(opts))
	assert.Nil(t, f.abortRule(opts))
}
