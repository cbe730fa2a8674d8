package hackernews

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectItem_MissingFieldsDefault(t *testing.T) {
	var raw rawItem
	require.NoError(t, json.Unmarshal([]byte(`{"id": 12, "type": "story", "extra": {"ignored": true}}`), &raw))

	got := projectItem(raw, defaultDiscussionBase)
	assert.Equal(t, Story{
		ID:            12,
		Kind:          "story",
		DiscussionURL: "https://news.ycombinator.com/item?id=12",
	}, got)
}

func TestProjectItem_EmptyRecord(t *testing.T) {
	got := projectItem(rawItem{}, defaultDiscussionBase)
	assert.Equal(t, Story{}, got)
}

func TestProjectDetail_KidsNeverNil(t *testing.T) {
	got := projectDetail(rawItem{}, defaultDiscussionBase)
	assert.NotNil(t, got.Kids)
	assert.Empty(t, got.Kids)

	out, err := json.Marshal(got)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"kids":[]`)
}

func TestProjectHit_NonNumericObjectID(t *testing.T) {
	id := "abc"
	got := projectHit(rawHit{ObjectID: &id}, defaultDiscussionBase)
	assert.Equal(t, int64(0), got.ID)
	assert.Equal(t, "", got.DiscussionURL)
	assert.Equal(t, KindStory, got.Kind)
}

func TestIsListable(t *testing.T) {
	storyType, jobType, yes := "story", "job", true
	assert.False(t, isListable(nil))
	assert.False(t, isListable(&rawItem{}))
	assert.False(t, isListable(&rawItem{Type: &jobType}))
	assert.False(t, isListable(&rawItem{Type: &storyType, Dead: &yes}))
	assert.True(t, isListable(&rawItem{Type: &storyType}))
}
