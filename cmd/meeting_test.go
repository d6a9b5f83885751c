package cmd

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/meetsum/config"
	pferrors "github.com/otherjamesbrown/meetsum/pkg/errors"
	"github.com/otherjamesbrown/meetsum/pkg/ingest/storage"
)

func TestMeetingList_Text(t *testing.T) {
	reader := new(mockReader)
	page := &storage.MeetingPage{
		Data: []storage.MeetingListItem{{
			ID:     uuid.MustParse("6f1c2b3a-1d2e-4f5a-8b9c-0d1e2f3a4b5c"),
			Title:  "[Org][Proj] Planning",
			Date:   time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC),
			Status: storage.StatusDone,
		}},
		Meta: storage.PageMeta{Page: 2, TotalPages: 3, TotalCount: 21},
	}
	reader.On("ListMeetings", mock.Anything, 2, 10).Return(page, nil)

	out, err := execute(t, NewMeetingCommand(readerDeps(reader, config.OutputFormatText)), "list", "--page", "2", "--limit", "10")
	require.NoError(t, err)

	assert.Contains(t, out, "6f1c2b3a-1d2e-4f5a-8b9c-0d1e2f3a4b5c")
	assert.Contains(t, out, "2025-01-17")
	assert.Contains(t, out, "[Org][Proj] Planning")
	assert.Contains(t, out, "Page 2 of 3 (21 meetings)")
	reader.AssertExpectations(t)
}

func TestMeetingList_JSON(t *testing.T) {
	reader := new(mockReader)
	reader.On("ListMeetings", mock.Anything, 1, storage.DefaultPageSize).Return(&storage.MeetingPage{
		Data: []storage.MeetingListItem{},
		Meta: storage.PageMeta{Page: 1},
	}, nil)

	out, err := execute(t, NewMeetingCommand(readerDeps(reader, config.OutputFormatJSON)), "list")
	require.NoError(t, err)

	var page storage.MeetingPage
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Equal(t, 1, page.Meta.Page)
}

func TestMeetingToday_UsesConfiguredOffset(t *testing.T) {
	reader := new(mockReader)
	// 20:30 UTC on the 17th is the 18th at the default UTC+7.
	day := time.Date(2025, 1, 18, 0, 0, 0, 0, time.UTC)
	reader.On("TodaysMeetings", mock.Anything, day).Return(nil, nil)

	out, err := execute(t, NewMeetingCommand(readerDeps(reader, config.OutputFormatText)), "today")
	require.NoError(t, err)
	assert.Contains(t, out, "Meetings on 2025-01-18")
	assert.Contains(t, out, "No meetings found.")
}

func TestMeetingTranscripts(t *testing.T) {
	meetingID := uuid.New()
	date := time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC)
	items := []storage.TranscriptListItem{{
		ID: uuid.New(), MeetingID: meetingID, Date: &date, Time: "09:54:32",
		Status: storage.StatusProcess, MeetingTitle: "Planning",
	}}

	tests := []struct {
		name   string
		args   []string
		method string
	}{
		{"meeting only", []string{"transcripts", meetingID.String()}, "MeetingTranscripts"},
		{"series", []string{"transcripts", meetingID.String(), "--series"}, "SeriesTranscripts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := new(mockReader)
			reader.On(tt.method, mock.Anything, meetingID).Return(items, nil)

			out, err := execute(t, NewMeetingCommand(readerDeps(reader, config.OutputFormatText)), tt.args...)
			require.NoError(t, err)
			assert.Contains(t, out, "09:54:32")
			assert.Contains(t, out, "process")
			reader.AssertExpectations(t)
		})
	}
}

func TestMeetingTranscripts_InvalidID(t *testing.T) {
	_, err := execute(t, NewMeetingCommand(readerDeps(new(mockReader), config.OutputFormatText)), "transcripts", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid meeting ID")
}

func TestTranscriptStatus(t *testing.T) {
	id := uuid.New()
	reader := new(mockReader)
	reader.On("GetTranscriptStatus", mock.Anything, id).Return(&storage.TranscriptStatusView{
		ID: id, Filename: "Planning_2025-01-17.txt", Status: storage.StatusError,
		ErrorMsg: "LLM API error (429): slow down",
	}, nil)

	out, err := execute(t, NewTranscriptCommand(readerDeps(reader, config.OutputFormatText)), "status", id.String())
	require.NoError(t, err)
	assert.Contains(t, out, "Status:     error")
	assert.Contains(t, out, "LLM API error (429): slow down")
	assert.Contains(t, out, "Cause:      LLM service returned an error response")
	assert.Contains(t, out, "meetsum auth set-key")
}

func TestTranscriptSummary(t *testing.T) {
	id := uuid.New()
	missing := uuid.New()
	reader := new(mockReader)
	reader.On("GetSummaryByTranscriptID", mock.Anything, id).Return(&storage.Summary{
		TranscriptID: id,
		SummaryContent: storage.SummaryContent{
			Attendees:            []string{"Alice", "Bob"},
			KeyDecisions:         []string{"Ship Friday"},
			ActionItems:          []storage.ActionItem{storage.LegacyActionItem("Bob: write notes")},
			DiscussionHighlights: []string{},
		},
		CreatedAt: time.Date(2025, 1, 17, 10, 0, 0, 0, time.UTC),
	}, nil)
	reader.On("GetSummaryByTranscriptID", mock.Anything, missing).Return(nil, pferrors.ErrNotFound)

	t.Run("text renders write-back block", func(t *testing.T) {
		out, err := execute(t, NewTranscriptCommand(readerDeps(reader, config.OutputFormatText)), "summary", id.String())
		require.NoError(t, err)
		assert.Contains(t, out, "Ship Friday")
		assert.Contains(t, out, "Bob: write notes")
		assert.Contains(t, out, "No discussion highlights recorded")
	})

	t.Run("yaml", func(t *testing.T) {
		out, err := execute(t, NewTranscriptCommand(readerDeps(reader, config.OutputFormatYAML)), "summary", id.String())
		require.NoError(t, err)
		assert.Contains(t, out, "attendees:")
		assert.Contains(t, out, "Bob: write notes")
		assert.Contains(t, out, "transcript_id: "+id.String())
	})

	t.Run("missing", func(t *testing.T) {
		_, err := execute(t, NewTranscriptCommand(readerDeps(reader, config.OutputFormatText)), "summary", missing.String())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no summary for transcript")
	})
}
