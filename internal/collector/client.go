package collector

import (
	"crypto/sha256"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/go-github/v55/github"
	"golang.org/x/oauth2"

	"github.com/kurihiro0119/gitpeek/internal/config"
)

// ClientConfig describes how to reach the GitHub REST API for one credential scope
type ClientConfig struct {
	BaseURL   string
	Accept    string
	UserAgent string
	Token     string // empty means unauthenticated
	Timeout   time.Duration

	PageSize int
	MaxPages int // 0 means unbounded

	MinDelay time.Duration // minimum delay between requests
	MaxWait  time.Duration // longest wait for a rate limit reset, 0 means unbounded
}

// WithToken returns a copy of the configuration bound to token
func (c ClientConfig) WithToken(token string) ClientConfig {
	c.Token = token
	return c
}

// headerTransport sets the static headers every GitHub request carries
type headerTransport struct {
	accept    string
	userAgent string
	base      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if t.accept != "" {
		req.Header.Set("Accept", t.accept)
	}
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	return t.base.RoundTrip(req)
}

func newHTTPClient(cfg ClientConfig) *http.Client {
	var transport http.RoundTripper = &headerTransport{
		accept:    cfg.Accept,
		userAgent: cfg.UserAgent,
		base:      http.DefaultTransport,
	}
	if cfg.Token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}),
			Base:   transport,
		}
	}
	return &http.Client{Transport: transport, Timeout: cfg.Timeout}
}

func newGitHubClient(cfg ClientConfig) (*github.Client, error) {
	client := github.NewClient(newHTTPClient(cfg))
	if cfg.BaseURL != "" {
		baseURL, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub base URL %q: %w", cfg.BaseURL, err)
		}
		client.BaseURL = baseURL
	}
	if cfg.UserAgent != "" {
		client.UserAgent = cfg.UserAgent
	}
	return client, nil
}

// Factory hands out collectors per credential scope. The public collector is
// built once and shared. Authenticated collectors are built per call but keep
// the rate limiter of their token, so the remaining budget survives requests.
type Factory struct {
	cfg    ClientConfig
	logger *slog.Logger
	public Collector

	mu       sync.Mutex
	limiters map[[sha256.Size]byte]RateLimiter
}

// NewFactory creates a factory whose public scope uses cfg as given
func NewFactory(cfg ClientConfig, logger *slog.Logger) (*Factory, error) {
	if logger == nil {
		logger = slog.Default()
	}
	public, err := NewGitHubCollector(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &Factory{
		cfg:      cfg,
		logger:   logger,
		public:   public,
		limiters: make(map[[sha256.Size]byte]RateLimiter),
	}, nil
}

// ForToken returns the collector for token, or the public collector when token is empty
func (f *Factory) ForToken(token string) (Collector, error) {
	if token == "" {
		return f.public, nil
	}
	coll, err := newGitHubCollector(f.cfg.WithToken(token), f.limiterFor(token), f.logger)
	if err != nil {
		return nil, err
	}
	return coll, nil
}

func (f *Factory) limiterFor(token string) RateLimiter {
	digest := sha256.Sum256([]byte(token))

	f.mu.Lock()
	defer f.mu.Unlock()
	limiter, ok := f.limiters[digest]
	if !ok {
		limiter = NewRateLimiter(f.cfg.MinDelay, f.cfg.MaxWait, f.logger)
		f.limiters[digest] = limiter
	}
	return limiter
}

// ClientConfigFrom builds the public-scope client configuration from cfg
func ClientConfigFrom(cfg *config.Config) ClientConfig {
	return ClientConfig{
		BaseURL:   cfg.GitHubAPIBaseURL,
		Accept:    cfg.GitHubAccept,
		UserAgent: cfg.GitHubUserAgent,
		Token:     cfg.GitHubToken,
		Timeout:   cfg.GitHubTimeout,
		PageSize:  cfg.PageSize,
		MaxPages:  cfg.MaxPages,
		MinDelay:  cfg.MinDelay,
		MaxWait:   cfg.RateLimitMaxWait,
	}
}
