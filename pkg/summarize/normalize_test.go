package summarize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pferrors "github.com/otherjamesbrown/meetsum/pkg/errors"
	"github.com/otherjamesbrown/meetsum/pkg/writeback"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```  ", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFences(tt.in))
		})
	}
}

func TestParseResponse(t *testing.T) {
	t.Run("full reply", func(t *testing.T) {
		got, err := ParseResponse("```json\n" + `{
			"attendees": ["Ana", "Ben"],
			"key_decisions": ["Ship Friday"],
			"action_items": [
				{"task": "Write notes", "assignedTo": ["Ana"], "dueDate": "2025-01-20"},
				{"task": "Book room"},
				"Call vendor"
			],
			"discussion_highlights": ["Budget"],
			"next_steps": ["Plan Q2"]
		}` + "\n```")
		require.NoError(t, err)

		assert.Equal(t, []string{"Ana", "Ben"}, got.Attendees)
		assert.Equal(t, []string{"Ship Friday"}, got.KeyDecisions)
		assert.Equal(t, []string{"Budget"}, got.DiscussionHighlights)
		assert.Equal(t, []string{"Plan Q2"}, got.NextSteps)

		require.Len(t, got.ActionItems, 3)
		require.NotNil(t, got.ActionItems[0].DueDate)
		assert.Equal(t, "2025-01-20", *got.ActionItems[0].DueDate)
		assert.Equal(t, []string{}, got.ActionItems[1].AssignedTo)
		assert.Nil(t, got.ActionItems[1].DueDate)
		assert.Equal(t, "Call vendor", got.ActionItems[2].Task)
		assert.False(t, got.ActionItems[2].IsLegacy)
	})

	t.Run("missing and mistyped lists default to empty", func(t *testing.T) {
		got, err := ParseResponse(`{"attendees": "Ana", "action_items": {"task": "x"}}`)
		require.NoError(t, err)
		assert.Equal(t, []string{}, got.Attendees)
		assert.Empty(t, got.ActionItems)
		assert.NotNil(t, got.ActionItems)
		assert.Equal(t, []string{}, got.KeyDecisions)
		assert.Equal(t, []string{}, got.DiscussionHighlights)
		assert.Nil(t, got.NextSteps, "absent next_steps must not add a section")
	})

	t.Run("present but mistyped next_steps is empty", func(t *testing.T) {
		got, err := ParseResponse(`{"next_steps": "none"}`)
		require.NoError(t, err)
		assert.NotNil(t, got.NextSteps)
		assert.Empty(t, got.NextSteps)
	})

	t.Run("not json", func(t *testing.T) {
		_, err := ParseResponse("Here is your summary: attendees were Ana")
		require.Error(t, err)

		var pe *pferrors.LLMParseError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "Failed to parse summary from LLM response", err.Error())
		assert.Contains(t, pe.Raw, "Here is your summary")
	})
}

func TestParseResponse_RenderedNextSteps(t *testing.T) {
	on := time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC)

	got, err := ParseResponse(`{"attendees": ["Ana"], "key_decisions": ["Ship"]}`)
	require.NoError(t, err)
	assert.NotContains(t, writeback.Render(*got, on), "NEXT STEPS")

	got, err = ParseResponse(`{"attendees": ["Ana"], "next_steps": []}`)
	require.NoError(t, err)
	out := writeback.Render(*got, on)
	assert.Contains(t, out, "NEXT STEPS")
	assert.Contains(t, out, "No next steps recorded")
}
