// In file: internal/hackernews/project.go
package hackernews

import (
	"strconv"
	"strings"
)

// --- Projection ---
//
// Both projections are total: an absent text field becomes "", an absent number 0.
// The same defaults apply to every operation.

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func num(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func num64(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}

func flag(p *bool) bool {
	return p != nil && *p
}

// projectItem maps an item-store record onto a Story.
func projectItem(raw rawItem, discussionBase string) Story {
	id := num64(raw.ID)
	return Story{
		ID:            id,
		Title:         str(raw.Title),
		URL:           str(raw.URL),
		Score:         num(raw.Score),
		Author:        str(raw.By),
		Time:          num64(raw.Time),
		Comments:      num(raw.Descendants),
		Kind:          str(raw.Type),
		DiscussionURL: discussionURL(discussionBase, id),
	}
}

// projectDetail extends projectItem with the body text and comment ids.
func projectDetail(raw rawItem, discussionBase string) StoryDetail {
	kids := raw.Kids
	if kids == nil {
		kids = []int64{}
	}
	return StoryDetail{
		Story: projectItem(raw, discussionBase),
		Text:  str(raw.Text),
		Kids:  kids,
	}
}

// projectHit maps a search hit onto a Story. The index is queried with
// tags=story, so every hit is story-kind. A non-numeric objectID projects to 0.
func projectHit(raw rawHit, discussionBase string) Story {
	var id int64
	if raw.ObjectID != nil {
		if parsed, err := strconv.ParseInt(strings.TrimSpace(*raw.ObjectID), 10, 64); err == nil {
			id = parsed
		}
	}
	return Story{
		ID:            id,
		Title:         str(raw.Title),
		URL:           str(raw.URL),
		Score:         num(raw.Points),
		Author:        str(raw.Author),
		Time:          num64(raw.CreatedAtI),
		Comments:      num(raw.NumComments),
		Kind:          KindStory,
		DiscussionURL: discussionURL(discussionBase, id),
	}
}

// isListable reports whether an item belongs in a ranking list.
// Jobs, polls, deleted and dead items are dropped, as are null records.
func isListable(raw *rawItem) bool {
	if raw == nil || flag(raw.Deleted) || flag(raw.Dead) {
		return false
	}
	return str(raw.Type) == KindStory
}

func discussionURL(base string, id int64) string {
	if id == 0 {
		return ""
	}
	return base + strconv.FormatInt(id, 10)
}
