// In file: internal/hackernews/types.go
package hackernews

// Operation names. They double as the tool names exposed to agents and appear
// in every Error payload.
const (
	OpTopStories = "get_top_stories"
	OpNewStories = "get_new_stories"
	OpStory      = "get_story"
	OpSearch     = "search_stories"
)

// KindStory is the upstream item type this gateway surfaces.
const KindStory = "story"

// Story is the reduced, consistently-shaped record returned to callers.
// It is derived from an upstream record at read time and never stored.
type Story struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	URL           string `json:"url"`
	Score         int    `json:"score"`
	Author        string `json:"author"`
	Time          int64  `json:"time"`
	Comments      int    `json:"comments"`
	Kind          string `json:"type"`
	DiscussionURL string `json:"discussion_url"`
}

// StoryDetail is what a single-story lookup returns: the Story plus its body
// text and the ids of its top-level comments.
type StoryDetail struct {
	Story
	Text string  `json:"text"`
	Kids []int64 `json:"kids"`
}

// rawItem is a partial item record from the item store. Every field is optional;
// the item store omits keys freely and returns a bare `null` for unknown ids.
type rawItem struct {
	ID          *int64  `json:"id"`
	Type        *string `json:"type"`
	By          *string `json:"by"`
	Time        *int64  `json:"time"`
	Title       *string `json:"title"`
	URL         *string `json:"url"`
	Text        *string `json:"text"`
	Score       *int    `json:"score"`
	Descendants *int    `json:"descendants"`
	Kids        []int64 `json:"kids"`
	Deleted     *bool   `json:"deleted"`
	Dead        *bool   `json:"dead"`
}

// rawSearchResponse is the subset of the search index response we read.
type rawSearchResponse struct {
	Hits []rawHit `json:"hits"`
}

// rawHit is a partial search hit. Like rawItem, nothing is guaranteed present.
type rawHit struct {
	ObjectID    *string `json:"objectID"`
	Title       *string `json:"title"`
	URL         *string `json:"url"`
	Author      *string `json:"author"`
	Points      *int    `json:"points"`
	NumComments *int    `json:"num_comments"`
	CreatedAtI  *int64  `json:"created_at_i"`
}
