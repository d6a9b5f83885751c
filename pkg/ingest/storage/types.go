package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TranscriptStatus is the processing state of a transcript.
type TranscriptStatus string

const (
	StatusPending TranscriptStatus = "pending"
	StatusProcess TranscriptStatus = "process"
	StatusDone    TranscriptStatus = "done"
	StatusError   TranscriptStatus = "error"
)

// Valid reports whether s is one of the known statuses.
func (s TranscriptStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcess, StatusDone, StatusError:
		return true
	}
	return false
}

// Terminal reports whether no further automatic transition is expected.
func (s TranscriptStatus) Terminal() bool {
	return s == StatusDone || s == StatusError
}

// Meeting is a recurring meeting series. It is immutable once created.
type Meeting struct {
	ID              uuid.UUID `json:"id"`
	ContentID       string    `json:"contentId"`
	Title           string    `json:"title"`
	NormalizedTitle string    `json:"normalizedTitle"`
	MeetingDate     time.Time `json:"date"`
	MeetingTime     string    `json:"time,omitempty"`
	Timezone        string    `json:"timezone"`
	OwnerID         uuid.UUID `json:"ownerId"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// NewMeeting holds the values for a meeting insert.
type NewMeeting struct {
	OwnerID  uuid.UUID
	Title    string
	Date     time.Time
	Time     string // "HH:MM:SS" or empty
	Timezone string
}

// Transcript is one occurrence's raw text and its processing state.
type Transcript struct {
	ID           uuid.UUID        `json:"id"`
	ContentID    string           `json:"contentId"`
	MeetingID    uuid.UUID        `json:"meetingId"`
	Filename     string           `json:"filename"`
	SourceFileID string           `json:"sourceFileId,omitempty"`
	Title        string           `json:"title,omitempty"`
	MeetingDate  *time.Time       `json:"date,omitempty"`
	MeetingTime  string           `json:"time,omitempty"`
	Content      string           `json:"-"`
	Status       TranscriptStatus `json:"status"`
	ErrorMsg     string           `json:"errorMsg,omitempty"`
	FileHash     string           `json:"fileHash"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// TranscriptMeta is the per-occurrence metadata recovered from a filename.
type TranscriptMeta struct {
	SourceFileID string
	Title        string
	MeetingDate  *time.Time
	MeetingTime  string
}

// NewTranscript holds the values for a transcript insert. New rows always
// start in StatusProcess.
type NewTranscript struct {
	MeetingID uuid.UUID
	Filename  string
	Content   string
	FileHash  string
	TranscriptMeta
}

// ActionItem is a follow-up task. Rows written before action items were
// structured hold a bare string; those keep the string in Legacy and render
// it verbatim.
type ActionItem struct {
	Task       string
	AssignedTo []string
	DueDate    *string
	Legacy     string
	IsLegacy   bool
}

// LegacyActionItem wraps a pre-structured plain-string item.
func LegacyActionItem(s string) ActionItem {
	return ActionItem{Legacy: s, IsLegacy: true}
}

type actionItemJSON struct {
	Task       string   `json:"task" yaml:"task"`
	AssignedTo []string `json:"assignedTo" yaml:"assigned_to"`
	DueDate    *string  `json:"dueDate" yaml:"due_date"`
}

// MarshalJSON writes legacy items back as plain strings.
func (a ActionItem) MarshalJSON() ([]byte, error) {
	if a.IsLegacy {
		return json.Marshal(a.Legacy)
	}
	assigned := a.AssignedTo
	if assigned == nil {
		assigned = []string{}
	}
	return json.Marshal(actionItemJSON{Task: a.Task, AssignedTo: assigned, DueDate: a.DueDate})
}

// MarshalYAML mirrors MarshalJSON for CLI output.
func (a ActionItem) MarshalYAML() (interface{}, error) {
	if a.IsLegacy {
		return a.Legacy, nil
	}
	return actionItemJSON{Task: a.Task, AssignedTo: a.AssignedTo, DueDate: a.DueDate}, nil
}

// UnmarshalJSON accepts either a plain string or a {task, assignedTo, dueDate} object.
func (a *ActionItem) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = LegacyActionItem(s)
		return nil
	}

	var obj actionItemJSON
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("action item: %w", err)
	}
	if obj.AssignedTo == nil {
		obj.AssignedTo = []string{}
	}
	*a = ActionItem{Task: obj.Task, AssignedTo: obj.AssignedTo, DueDate: obj.DueDate}
	return nil
}

// SummaryContent is the structured result of summarizing a transcript.
// A nil NextSteps means the summary carries no next-steps section at all.
type SummaryContent struct {
	Attendees            []string     `json:"attendees" yaml:"attendees"`
	KeyDecisions         []string     `json:"key_decisions" yaml:"key_decisions"`
	ActionItems          []ActionItem `json:"action_items" yaml:"action_items"`
	DiscussionHighlights []string     `json:"discussion_highlights" yaml:"discussion_highlights"`
	NextSteps            []string     `json:"next_steps,omitempty" yaml:"next_steps,omitempty"`
}

// Summary is the stored summary of one transcript. It is never mutated.
type Summary struct {
	ID             uuid.UUID `json:"id" yaml:"id"`
	TranscriptID   uuid.UUID `json:"transcriptId" yaml:"transcript_id"`
	Date           time.Time `json:"date" yaml:"date"`
	SummaryContent `yaml:",inline"`
	CreatedAt      time.Time `json:"createdAt" yaml:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" yaml:"updated_at"`
}

// NewSummary holds the values for a summary insert.
type NewSummary struct {
	TranscriptID uuid.UUID
	Date         time.Time
	SummaryContent
}
