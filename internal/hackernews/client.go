// In file: internal/hackernews/client.go
package hackernews

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// maxBodySize caps how much of an upstream response we are willing to decode.
const maxBodySize = 4 << 20

// Gateway issues requests to the upstream APIs. It holds no per-call state and
// is safe for concurrent use.
type Gateway struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	log        logrus.FieldLogger
}

// Option customizes a Gateway.
type Option func(*Gateway)

// WithHTTPClient replaces the default HTTP client. Timeouts are still applied
// per request through the context.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.httpClient = c }
}

// WithLogger sets the logger used for upstream diagnostics.
func WithLogger(l logrus.FieldLogger) Option {
	return func(g *Gateway) { g.log = l }
}

// New creates a Gateway. Zero fields in cfg fall back to DefaultConfig.
func New(cfg Config, opts ...Option) *Gateway {
	cfg = cfg.withDefaults()

	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
		burst = cfg.MaxConcurrency
	}

	g := &Gateway{
		cfg:        cfg,
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(limit, burst),
		log:        logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Config returns the effective configuration.
func (g *Gateway) Config() Config { return g.cfg }

// =================================================================================
// Operations
// =================================================================================

// TopStories returns up to limit stories from the top ranking, in ranking order.
func (g *Gateway) TopStories(ctx context.Context, limit int) ([]Story, error) {
	return g.ranked(ctx, OpTopStories, "topstories.json", limit)
}

// NewStories returns up to limit of the newest stories, newest first.
func (g *Gateway) NewStories(ctx context.Context, limit int) ([]Story, error) {
	return g.ranked(ctx, OpNewStories, "newstories.json", limit)
}

// Story fetches a single story by id.
func (g *Gateway) Story(ctx context.Context, id int64) (*StoryDetail, error) {
	params := map[string]any{"story_id": id}
	if id <= 0 {
		return nil, ValidationError(OpStory, params, "story_id must be a positive integer, got %d", id)
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.OperationTimeout)
	defer cancel()

	raw, err := g.fetchItem(ctx, id)
	if err != nil {
		return nil, withOp(err, OpStory, params)
	}
	if raw == nil || flag(raw.Deleted) || flag(raw.Dead) {
		return nil, &Error{Kind: KindNotFound, Op: OpStory, Params: params, Msg: fmt.Sprintf("story %d not found", id)}
	}
	if str(raw.Type) != KindStory {
		return nil, &Error{Kind: KindNotStory, Op: OpStory, Params: params, Msg: fmt.Sprintf("item %d is not a story", id)}
	}

	detail := projectDetail(*raw, g.cfg.DiscussionBase)
	return &detail, nil
}

// Search queries the search index and returns at most limit stories in relevance order.
func (g *Gateway) Search(ctx context.Context, query string, limit int) ([]Story, error) {
	limit = ClampLimit(limit, MaxSearchLimit)
	query = strings.TrimSpace(query)
	params := map[string]any{"query": query, "limit": limit}
	if query == "" {
		return nil, ValidationError(OpSearch, params, "query is required")
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.OperationTimeout)
	defer cancel()

	q := url.Values{}
	q.Set("query", query)
	q.Set("tags", KindStory)
	q.Set("hitsPerPage", strconv.Itoa(limit))

	var resp rawSearchResponse
	if err := g.getJSON(ctx, g.cfg.SearchURL+"?"+q.Encode(), g.cfg.SearchTimeout, &resp); err != nil {
		return nil, withOp(err, OpSearch, params)
	}

	stories := make([]Story, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		if len(stories) == limit {
			break
		}
		stories = append(stories, projectHit(hit, g.cfg.DiscussionBase))
	}
	return stories, nil
}

// Ping checks that the item store answers. Used by health checks.
func (g *Gateway) Ping(ctx context.Context) error {
	var maxItem int64
	if err := g.getJSON(ctx, g.endpoint("maxitem.json"), g.cfg.RankingTimeout, &maxItem); err != nil {
		return withOp(err, "ping", nil)
	}
	return nil
}

// ranked implements both ranking operations: one ranking fetch, then a bounded
// fan-out of item fetches joined back in ranking order.
func (g *Gateway) ranked(ctx context.Context, op, path string, limit int) ([]Story, error) {
	limit = ClampLimit(limit, MaxListLimit)
	params := map[string]any{"limit": limit}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.OperationTimeout)
	defer cancel()

	var ids []int64
	if err := g.getJSON(ctx, g.endpoint(path), g.cfg.RankingTimeout, &ids); err != nil {
		return nil, withOp(err, op, params)
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}

	items := make([]*rawItem, len(ids))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.cfg.MaxConcurrency)
	for i, id := range ids {
		i, id := i, id
		eg.Go(func() error {
			raw, err := g.fetchItem(egCtx, id)
			if err != nil {
				return err
			}
			items[i] = raw
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, withOp(err, op, params)
	}

	stories := make([]Story, 0, len(items))
	for _, raw := range items {
		if !isListable(raw) {
			continue
		}
		stories = append(stories, projectItem(*raw, g.cfg.DiscussionBase))
	}

	g.log.WithFields(logrus.Fields{"op": op, "limit": limit, "stories": len(stories)}).Debug("ranking fetched")
	return stories, nil
}

// fetchItem returns nil, nil when the item store has no record for id.
func (g *Gateway) fetchItem(ctx context.Context, id int64) (*rawItem, error) {
	var raw *rawItem
	if err := g.getJSON(ctx, g.endpoint(fmt.Sprintf("item/%d.json", id)), g.cfg.ItemTimeout, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (g *Gateway) endpoint(path string) string {
	return strings.TrimRight(g.cfg.APIBase, "/") + "/" + path
}

// --- Shared request helper ---

// getJSON performs one bounded GET and decodes the body into out. Failures come
// back as *Error with Kind set; the caller stamps on the operation.
func (g *Gateway) getJSON(ctx context.Context, rawURL string, timeout time.Duration, out any) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := g.limiter.Wait(ctx); err != nil {
		return &Error{Kind: KindUnavailable, Err: errors.Wrap(err, "rate limiter wait")}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return &Error{Kind: KindInternal, Err: errors.Wrap(err, "build request")}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", g.cfg.UserAgent)

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.log.WithFields(logrus.Fields{"url": rawURL, "error": err}).Warn("upstream request failed")
		return &Error{Kind: KindUnavailable, Err: errors.Wrap(err, "request failed")}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		g.log.WithFields(logrus.Fields{"url": rawURL, "status": resp.StatusCode}).Warn("upstream returned non-success status")
		return &Error{
			Kind:       KindBadStatus,
			StatusCode: resp.StatusCode,
			Msg:        fmt.Sprintf("upstream returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return &Error{Kind: classifyRead(err), Err: errors.Wrap(err, "read response")}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Kind: KindMalformed, Err: errors.Wrap(err, "decode response")}
	}

	g.log.WithFields(logrus.Fields{"url": rawURL, "latency_ms": time.Since(start).Milliseconds()}).Debug("upstream request done")
	return nil
}

// classifyRead treats body read failures as transport failures.
func classifyRead(err error) Kind {
	if k := classify(err); k != KindInternal {
		return k
	}
	return KindUnavailable
}
