package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQuickActionsDefaults(t *testing.T) {
	assert := require.New(t)

	actions, err := LoadQuickActions("", "")
	assert.NoError(err)
	assert.Len(actions, 3)
	assert.Equal("Summary", actions[0].Label)
	assert.Equal("Sentiment", actions[1].Label)
	assert.Equal("Action Items", actions[2].Label)
}

func TestQuickActionsInlineOverride(t *testing.T) {
	assert := require.New(t)

	inline := `[{"label":"Topics","prompt":"List the topics."},{"label":"Questions","prompt":"List open questions."}]`
	actions, err := LoadQuickActions(inline, "")
	assert.NoError(err)
	assert.Len(actions, 2)
	assert.Equal("Topics", actions[0].Label)
	assert.Equal("List open questions.", actions[1].Prompt)
}

func TestQuickActionsFileOverride(t *testing.T) {
	assert := require.New(t)

	path := filepath.Join(t.TempDir(), "actions.json")
	content := `[{"label":"Recap","prompt":"Recap the meeting."}]`
	assert.NoError(os.WriteFile(path, []byte(content), 0o644))

	actions, err := LoadQuickActions("", path)
	assert.NoError(err)
	assert.Len(actions, 1)
	assert.Equal("Recap", actions[0].Label)
}

func TestQuickActionsInlineBeatsFile(t *testing.T) {
	assert := require.New(t)

	path := filepath.Join(t.TempDir(), "actions.json")
	assert.NoError(os.WriteFile(path, []byte(`[{"label":"File","prompt":"from file"}]`), 0o644))

	actions, err := LoadQuickActions(`[{"label":"Inline","prompt":"from env"}]`, path)
	assert.NoError(err)
	assert.Len(actions, 1)
	assert.Equal("Inline", actions[0].Label)
}

func TestQuickActionsMalformedJSONFails(t *testing.T) {
	assert := require.New(t)

	_, err := LoadQuickActions(`[{"label": "broken"`, "")
	assert.Error(err)

	path := filepath.Join(t.TempDir(), "actions.json")
	assert.NoError(os.WriteFile(path, []byte(`{"not":"a list"}`), 0o644))
	_, err = LoadQuickActions("", path)
	assert.Error(err)
}

func TestQuickActionsRejectsIncompleteEntries(t *testing.T) {
	assert := require.New(t)

	_, err := LoadQuickActions(`[{"label":"No Prompt"}]`, "")
	assert.Error(err)
}
