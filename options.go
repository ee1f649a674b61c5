package spyglass

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/pelorus-marine/spyglass/internal/orchestrator"
	"github.com/pelorus-marine/spyglass/internal/token"
)

type clientConfig struct {
	logger          *zap.Logger
	httpClient      *http.Client
	tokenProvider   token.Provider
	tokenTimeout    time.Duration
	yachtID         string
	yachtSignature  string
	redisAddrs      []string
	redisPassword   string
	fileDir         string
	cacheTTL        time.Duration
	fallbackTimeout time.Duration
	fallbackLimit   int
	onState         func(State)
	clock           orchestrator.Clock
	newID           func() string
}

// Option configures a Searcher.
type Option interface {
	apply(*clientConfig)
}

type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

// WithLogger sets the logger. Default: zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) { c.logger = logger })
}

// WithHTTPClient sets the HTTP client used for all requests.
func WithHTTPClient(client *http.Client) Option {
	return optionFunc(func(c *clientConfig) { c.httpClient = client })
}

// WithTokenProvider sets the bearer-credential capability. The provider is
// bounded by timeout (default 2s); failure or expiry of the timeout means
// requests go out unauthenticated rather than hanging.
func WithTokenProvider(provider func(ctx context.Context) (string, error)) Option {
	return optionFunc(func(c *clientConfig) {
		c.tokenProvider = token.ProviderFunc(provider)
	})
}

// WithTokenTimeout overrides the credential-refresh timeout.
func WithTokenTimeout(timeout time.Duration) Option {
	return optionFunc(func(c *clientConfig) { c.tokenTimeout = timeout })
}

// WithYacht sets the yacht scope: the id sent in fallback requests and the
// signature header sent on the streaming request.
func WithYacht(id, signature string) Option {
	return optionFunc(func(c *clientConfig) {
		c.yachtID = id
		c.yachtSignature = signature
	})
}

// WithMemoryStore keeps recent queries in process memory only.
func WithMemoryStore() Option {
	return optionFunc(func(c *clientConfig) {
		c.fileDir = ""
		c.redisAddrs = nil
	})
}

// WithFileStore persists recent queries under dir.
func WithFileStore(dir string) Option {
	return optionFunc(func(c *clientConfig) { c.fileDir = dir })
}

// WithRedis persists recent queries in Redis.
func WithRedis(addrs []string, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.redisAddrs = addrs
		c.redisPassword = password
	})
}

// WithCacheTTL overrides the result-cache TTL (default 5 minutes).
func WithCacheTTL(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) { c.cacheTTL = ttl })
}

// WithFallback tunes the fallback request: result-count ceiling and the
// fixed timeout its fresh context is bound to.
func WithFallback(limit int, timeout time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.fallbackLimit = limit
		c.fallbackTimeout = timeout
	})
}

// WithOnState registers a callback invoked with a state snapshot after
// every observable change.
func WithOnState(fn func(State)) Option {
	return optionFunc(func(c *clientConfig) { c.onState = fn })
}

// WithIDGenerator overrides the random id generator used for the session
// id. Default: uuid.NewString.
func WithIDGenerator(fn func() string) Option {
	return optionFunc(func(c *clientConfig) { c.newID = fn })
}

// WithClock overrides the orchestrator's time source, for tests.
func WithClock(clock orchestrator.Clock) Option {
	return optionFunc(func(c *clientConfig) { c.clock = clock })
}
