// In file: internal/hackernews/config.go

// Package hackernews is the Story Gateway: it forwards read-only requests to the
// public Hacker News APIs (the Firebase item store and the Algolia search index)
// and reshapes their JSON into a small, consistent Story record.
package hackernews

import "time"

const (
	defaultAPIBase        = "https://hacker-news.firebaseio.com/v0"
	defaultSearchURL      = "https://hn.algolia.com/api/v1/search"
	defaultDiscussionBase = "https://news.ycombinator.com/item?id="
	defaultUserAgent      = "HN-Gateway/1.0"

	defaultRankingTimeout   = 10 * time.Second
	defaultItemTimeout      = 5 * time.Second
	defaultSearchTimeout    = 10 * time.Second
	defaultOperationTimeout = 30 * time.Second
	defaultMaxConcurrency   = 10
)

// Limits applied to caller-supplied page sizes.
const (
	DefaultLimit   = 10
	MaxListLimit   = 30
	MaxSearchLimit = 20
)

// Config holds the upstream endpoints and the bounds on every outbound call.
// It is passed to New explicitly; nothing in this package reads the environment.
type Config struct {
	// APIBase is the item store root, e.g. https://hacker-news.firebaseio.com/v0.
	APIBase string `yaml:"api_base"`
	// SearchURL is the full search endpoint of the search index.
	SearchURL string `yaml:"search_url"`
	// DiscussionBase is prefixed to a story id to build its discussion link.
	DiscussionBase string `yaml:"discussion_base"`
	UserAgent      string `yaml:"user_agent"`

	RankingTimeout time.Duration `yaml:"ranking_timeout"`
	ItemTimeout    time.Duration `yaml:"item_timeout"`
	SearchTimeout  time.Duration `yaml:"search_timeout"`
	// OperationTimeout bounds a whole operation, fan-out included.
	OperationTimeout time.Duration `yaml:"operation_timeout"`

	// MaxConcurrency caps parallel item fetches for the ranking operations.
	MaxConcurrency int `yaml:"max_concurrency"`
	// RequestsPerSecond throttles outbound requests. Zero disables throttling.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// DefaultConfig returns a Config pointing at the public Hacker News APIs.
func DefaultConfig() Config {
	return Config{
		APIBase:          defaultAPIBase,
		SearchURL:        defaultSearchURL,
		DiscussionBase:   defaultDiscussionBase,
		UserAgent:        defaultUserAgent,
		RankingTimeout:   defaultRankingTimeout,
		ItemTimeout:      defaultItemTimeout,
		SearchTimeout:    defaultSearchTimeout,
		OperationTimeout: defaultOperationTimeout,
		MaxConcurrency:   defaultMaxConcurrency,
	}
}

// withDefaults fills every zero field from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.APIBase == "" {
		c.APIBase = d.APIBase
	}
	if c.SearchURL == "" {
		c.SearchURL = d.SearchURL
	}
	if c.DiscussionBase == "" {
		c.DiscussionBase = d.DiscussionBase
	}
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
	if c.RankingTimeout <= 0 {
		c.RankingTimeout = d.RankingTimeout
	}
	if c.ItemTimeout <= 0 {
		c.ItemTimeout = d.ItemTimeout
	}
	if c.SearchTimeout <= 0 {
		c.SearchTimeout = d.SearchTimeout
	}
	if c.OperationTimeout <= 0 {
		c.OperationTimeout = d.OperationTimeout
	}
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = d.MaxConcurrency
	}
	if c.MaxConcurrency > MaxListLimit {
		c.MaxConcurrency = MaxListLimit
	}
	if c.RequestsPerSecond < 0 {
		c.RequestsPerSecond = 0
	}
	return c
}

// ClampLimit forces limit into [1, upper]. Out-of-range values are clamped, never rejected.
func ClampLimit(limit, upper int) int {
	if limit < 1 {
		return 1
	}
	if limit > upper {
		return upper
	}
	return limit
}
