package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// MeetingListItem is a meeting with the status of its latest transcript.
type MeetingListItem struct {
	ID           uuid.UUID        `json:"id" yaml:"id"`
	ContentID    string           `json:"contentId" yaml:"content_id"`
	Title        string           `json:"title" yaml:"title"`
	Date         time.Time        `json:"date" yaml:"date"`
	Status       TranscriptStatus `json:"status" yaml:"status"`
	TranscriptID *uuid.UUID       `json:"transcriptId" yaml:"transcript_id"`
}

// PageMeta describes one page of a paginated listing.
type PageMeta struct {
	Page       int `json:"page" yaml:"page"`
	TotalPages int `json:"totalPages" yaml:"total_pages"`
	TotalCount int `json:"totalCount" yaml:"total_count"`
}

// MeetingPage is one page of meetings.
type MeetingPage struct {
	Data []MeetingListItem `json:"data" yaml:"data"`
	Meta PageMeta          `json:"meta" yaml:"meta"`
}

// TranscriptListItem is a transcript row as shown in a meeting's history.
type TranscriptListItem struct {
	ID           uuid.UUID        `json:"id" yaml:"id"`
	ContentID    string           `json:"contentId" yaml:"content_id"`
	MeetingID    uuid.UUID        `json:"meetingId" yaml:"meeting_id"`
	Title        string           `json:"title" yaml:"title"`
	Date         *time.Time       `json:"date" yaml:"date"`
	Time         string           `json:"time,omitempty" yaml:"time,omitempty"`
	Status       TranscriptStatus `json:"status" yaml:"status"`
	CreatedAt    time.Time        `json:"createdAt" yaml:"created_at"`
	SummaryID    *uuid.UUID       `json:"summaryId" yaml:"summary_id"`
	MeetingTitle string           `json:"meetingTitle" yaml:"meeting_title"`
}

// TranscriptStatusView is the processing state of one transcript.
type TranscriptStatusView struct {
	ID        uuid.UUID        `json:"id" yaml:"id"`
	ContentID string           `json:"contentId" yaml:"content_id"`
	Filename  string           `json:"filename" yaml:"filename"`
	Status    TranscriptStatus `json:"status" yaml:"status"`
	ErrorMsg  string           `json:"errorMsg,omitempty" yaml:"error_msg,omitempty"`
	UpdatedAt time.Time        `json:"updatedAt" yaml:"updated_at"`
}

const (
	// DefaultPageSize is used when a caller passes a non-positive limit.
	DefaultPageSize = 10
	// MaxPageSize caps the page size of ListMeetings.
	MaxPageSize = 100
)

const meetingListSelect = `
	SELECT
		m.id, m.content_id, m.title, m.meeting_date,
		COALESCE(t.status, 'pending'), t.id
	FROM meetings m
	LEFT JOIN LATERAL (
		SELECT id, status
		FROM transcripts
		WHERE meeting_id = m.id
		ORDER BY created_at DESC
		LIMIT 1
	) t ON true`

// ListMeetings returns one page of meetings, newest first.
func (r *Repository) ListMeetings(ctx context.Context, page, limit int) (*MeetingPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM meetings`).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count meetings: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		meetingListSelect+` ORDER BY m.meeting_date DESC, m.created_at DESC LIMIT $1 OFFSET $2`,
		limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list meetings: %w", err)
	}
	items, err := collectMeetingItems(rows)
	if err != nil {
		return nil, err
	}

	return &MeetingPage{
		Data: items,
		Meta: PageMeta{
			Page:       page,
			TotalPages: (total + limit - 1) / limit,
			TotalCount: total,
		},
	}, nil
}

// TodaysMeetings returns meetings dated on day.
func (r *Repository) TodaysMeetings(ctx context.Context, day time.Time) ([]MeetingListItem, error) {
	rows, err := r.pool.Query(ctx,
		meetingListSelect+` WHERE m.meeting_date = $1::date ORDER BY m.created_at DESC`,
		day.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to list today's meetings: %w", err)
	}
	return collectMeetingItems(rows)
}

func collectMeetingItems(rows pgx.Rows) ([]MeetingListItem, error) {
	defer rows.Close()

	items := []MeetingListItem{}
	for rows.Next() {
		var (
			it     MeetingListItem
			status string
		)
		if err := rows.Scan(&it.ID, &it.ContentID, &it.Title, &it.Date, &status, &it.TranscriptID); err != nil {
			return nil, fmt.Errorf("failed to scan meeting: %w", err)
		}
		it.Status = TranscriptStatus(status)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate meetings: %w", err)
	}
	return items, nil
}

const transcriptListSelect = `
	SELECT
		t.id, t.content_id, t.meeting_id, COALESCE(t.title, ''), t.meeting_date,
		COALESCE(to_char(t.meeting_time, 'HH24:MI:SS'), ''), t.status, t.created_at,
		s.id, m.title
	FROM transcripts t
	LEFT JOIN summaries s ON s.transcript_id = t.id
	JOIN meetings m ON m.id = t.meeting_id`

// MeetingTranscripts returns the transcripts of one meeting, newest first.
func (r *Repository) MeetingTranscripts(ctx context.Context, meetingID uuid.UUID) ([]TranscriptListItem, error) {
	rows, err := r.pool.Query(ctx,
		transcriptListSelect+` WHERE t.meeting_id = $1
		ORDER BY t.meeting_date DESC NULLS LAST, t.created_at DESC`, meetingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list meeting transcripts: %w", err)
	}
	return collectTranscriptItems(rows)
}

// SeriesTranscripts returns the transcripts of every meeting in the same
// series as meetingID, i.e. sharing its owner and normalized title.
func (r *Repository) SeriesTranscripts(ctx context.Context, meetingID uuid.UUID) ([]TranscriptListItem, error) {
	rows, err := r.pool.Query(ctx,
		transcriptListSelect+`
		JOIN meetings anchor ON anchor.id = $1
		WHERE m.owner_id = anchor.owner_id AND m.normalized_title = anchor.normalized_title
		ORDER BY t.meeting_date DESC NULLS LAST, t.created_at DESC`, meetingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list series transcripts: %w", err)
	}
	return collectTranscriptItems(rows)
}

func collectTranscriptItems(rows pgx.Rows) ([]TranscriptListItem, error) {
	defer rows.Close()

	items := []TranscriptListItem{}
	for rows.Next() {
		var (
			it     TranscriptListItem
			status string
		)
		if err := rows.Scan(&it.ID, &it.ContentID, &it.MeetingID, &it.Title, &it.Date,
			&it.Time, &status, &it.CreatedAt, &it.SummaryID, &it.MeetingTitle); err != nil {
			return nil, fmt.Errorf("failed to scan transcript: %w", err)
		}
		it.Status = TranscriptStatus(status)
		if it.Title == "" {
			it.Title = "Transcript - " + it.CreatedAt.Format("15:04:05")
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transcripts: %w", err)
	}
	return items, nil
}

// GetTranscriptStatus returns the processing state of a transcript.
func (r *Repository) GetTranscriptStatus(ctx context.Context, id uuid.UUID) (*TranscriptStatusView, error) {
	t, err := r.GetTranscript(ctx, id)
	if err != nil {
		return nil, err
	}
	return &TranscriptStatusView{
		ID:        t.ID,
		ContentID: t.ContentID,
		Filename:  t.Filename,
		Status:    t.Status,
		ErrorMsg:  t.ErrorMsg,
		UpdatedAt: t.UpdatedAt,
	}, nil
}
