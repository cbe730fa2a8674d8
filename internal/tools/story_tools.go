// In file: internal/tools/story_tools.go
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/dileep-u-k/hn-gateway/internal/hackernews"
)

// --- Hacker News Story Tools ---

// StorySource is the part of the Story Gateway the tools depend on.
type StorySource interface {
	TopStories(ctx context.Context, limit int) ([]hackernews.Story, error)
	NewStories(ctx context.Context, limit int) ([]hackernews.Story, error)
	Story(ctx context.Context, id int64) (*hackernews.StoryDetail, error)
	Search(ctx context.Context, query string, limit int) ([]hackernews.Story, error)
}

// RegisterStoryTools registers the four story tools backed by src.
func RegisterStoryTools(tm *ToolManager, src StorySource) {
	tm.Register(NewTopStoriesTool(src))
	tm.Register(NewNewStoriesTool(src))
	tm.Register(NewStoryTool(src))
	tm.Register(NewSearchStoriesTool(src))
}

// TopStoriesTool lists the current front page.
type TopStoriesTool struct{ src StorySource }

var _ ToolExecutor = (*TopStoriesTool)(nil)

func NewTopStoriesTool(src StorySource) *TopStoriesTool { return &TopStoriesTool{src: src} }

func (t *TopStoriesTool) Definition() Tool {
	return NewFunctionTool(
		hackernews.OpTopStories,
		"Get top stories from Hacker News",
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"limit": intSchema("Number of stories to fetch (1-30)", 1, hackernews.MaxListLimit, hackernews.DefaultLimit),
			},
		},
	)
}

func (t *TopStoriesTool) Execute(ctx context.Context, arguments string) (any, error) {
	limit, err := parseLimit(hackernews.OpTopStories, arguments)
	if err != nil {
		return nil, err
	}
	return t.src.TopStories(ctx, limit)
}

// NewStoriesTool lists the newest submissions.
type NewStoriesTool struct{ src StorySource }

var _ ToolExecutor = (*NewStoriesTool)(nil)

func NewNewStoriesTool(src StorySource) *NewStoriesTool { return &NewStoriesTool{src: src} }

func (t *NewStoriesTool) Definition() Tool {
	return NewFunctionTool(
		hackernews.OpNewStories,
		"Get newest stories from Hacker News",
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"limit": intSchema("Number of stories to fetch (1-30)", 1, hackernews.MaxListLimit, hackernews.DefaultLimit),
			},
		},
	)
}

func (t *NewStoriesTool) Execute(ctx context.Context, arguments string) (any, error) {
	limit, err := parseLimit(hackernews.OpNewStories, arguments)
	if err != nil {
		return nil, err
	}
	return t.src.NewStories(ctx, limit)
}

// StoryTool fetches one story with its text and comment ids.
type StoryTool struct{ src StorySource }

var _ ToolExecutor = (*StoryTool)(nil)

func NewStoryTool(src StorySource) *StoryTool { return &StoryTool{src: src} }

func (t *StoryTool) Definition() Tool {
	return NewFunctionTool(
		hackernews.OpStory,
		"Get details of a specific Hacker News story by ID",
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"story_id": {
					Type:        "integer",
					Description: "The ID of the story to fetch",
				},
			},
			Required: []string{"story_id"},
		},
	)
}

func (t *StoryTool) Execute(ctx context.Context, arguments string) (any, error) {
	var args struct {
		StoryID *json.Number `json:"story_id"`
	}
	if err := decodeArgs(arguments, &args); err != nil {
		return nil, invalidArguments(hackernews.OpStory, arguments, err)
	}
	if args.StoryID == nil {
		return nil, hackernews.ValidationError(hackernews.OpStory, map[string]any{"story_id": nil}, "story_id is required")
	}
	id, ok := toInt(*args.StoryID)
	if !ok {
		return nil, hackernews.ValidationError(hackernews.OpStory, map[string]any{"story_id": args.StoryID.String()}, "story_id must be an integer")
	}
	return t.src.Story(ctx, id)
}

// SearchStoriesTool runs a full-text story search.
type SearchStoriesTool struct{ src StorySource }

var _ ToolExecutor = (*SearchStoriesTool)(nil)

func NewSearchStoriesTool(src StorySource) *SearchStoriesTool { return &SearchStoriesTool{src: src} }

func (t *SearchStoriesTool) Definition() Tool {
	return NewFunctionTool(
		hackernews.OpSearch,
		"Search for stories on Hacker News using Algolia API",
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"query": {
					Type:        "string",
					Description: "Search query string",
				},
				"limit": intSchema("Number of results to return (1-20)", 1, hackernews.MaxSearchLimit, hackernews.DefaultLimit),
			},
			Required: []string{"query"},
		},
	)
}

func (t *SearchStoriesTool) Execute(ctx context.Context, arguments string) (any, error) {
	var args struct {
		Query *string      `json:"query"`
		Limit *json.Number `json:"limit"`
	}
	if err := decodeArgs(arguments, &args); err != nil {
		return nil, invalidArguments(hackernews.OpSearch, arguments, err)
	}
	limit, err := limitOrDefault(hackernews.OpSearch, args.Limit)
	if err != nil {
		return nil, err
	}
	var query string
	if args.Query != nil {
		query = *args.Query
	}
	if strings.TrimSpace(query) == "" {
		params := map[string]any{"query": query, "limit": hackernews.ClampLimit(limit, hackernews.MaxSearchLimit)}
		return nil, hackernews.ValidationError(hackernews.OpSearch, params, "query is required")
	}
	return t.src.Search(ctx, query, limit)
}

// --- Argument helpers ---

// decodeArgs treats empty and null arguments as an empty object.
func decodeArgs(arguments string, out any) error {
	trimmed := strings.TrimSpace(arguments)
	if trimmed == "" || trimmed == "null" {
		return nil
	}
	return json.Unmarshal([]byte(trimmed), out)
}

func parseLimit(op, arguments string) (int, error) {
	var args struct {
		Limit *json.Number `json:"limit"`
	}
	if err := decodeArgs(arguments, &args); err != nil {
		return 0, invalidArguments(op, arguments, err)
	}
	return limitOrDefault(op, args.Limit)
}

// invalidArguments reports arguments that are not a JSON object of the expected shape.
func invalidArguments(op, arguments string, err error) *hackernews.Error {
	params := map[string]any{"arguments": strings.TrimSpace(arguments)}
	return hackernews.ValidationError(op, params, "invalid arguments: %v", err)
}

// limitOrDefault returns DefaultLimit when the caller omitted limit. Range
// clamping is left to the gateway.
func limitOrDefault(op string, n *json.Number) (int, error) {
	if n == nil {
		return hackernews.DefaultLimit, nil
	}
	v, ok := toLimit(*n)
	if !ok {
		return 0, hackernews.ValidationError(op, map[string]any{"limit": n.String()}, "limit must be an integer")
	}
	return v, nil
}

// toLimit accepts any integral number, exponent form included, and saturates
// it to the int32 range.
func toLimit(n json.Number) (int, bool) {
	f, err := strconv.ParseFloat(n.String(), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	if math.IsNaN(f) || f != math.Trunc(f) {
		return 0, false
	}
	switch {
	case f > math.MaxInt32:
		return math.MaxInt32, true
	case f < math.MinInt32:
		return math.MinInt32, true
	}
	return int(f), true
}

// toInt accepts integral numbers, including 5.0.
func toInt(n json.Number) (int64, bool) {
	if v, err := n.Int64(); err == nil {
		return v, true
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}
