// Package storage provides the PostgreSQL ledger for meetings, transcripts and
// summaries. Unique constraints on the tables are what make concurrent scans
// safe: the losing writer gets pferrors.ErrConflict.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/otherjamesbrown/meetsum/pkg/contentid"
	pferrors "github.com/otherjamesbrown/meetsum/pkg/errors"
	"github.com/otherjamesbrown/meetsum/pkg/ingest/meeting"
	"github.com/otherjamesbrown/meetsum/pkg/logging"
)

// SystemOwnerID is the identity used for rows written by the watcher.
var SystemOwnerID = uuid.Nil

const pgUniqueViolation = "23505"

// Repository provides database operations for the transcript pipeline.
type Repository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewRepository creates a new repository.
func NewRepository(pool *pgxpool.Pool, logger logging.Logger) *Repository {
	return &Repository{
		pool:   pool,
		logger: logger.With(logging.F("component", "transcript_repository")),
	}
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// nullIfEmpty maps "" to SQL NULL.
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

const meetingColumns = `
	id, content_id, title, normalized_title, meeting_date,
	COALESCE(to_char(meeting_time, 'HH24:MI:SS'), ''), timezone, owner_id,
	created_at, updated_at`

func scanMeeting(row pgx.Row) (*Meeting, error) {
	var m Meeting
	err := row.Scan(
		&m.ID, &m.ContentID, &m.Title, &m.NormalizedTitle, &m.MeetingDate,
		&m.MeetingTime, &m.Timezone, &m.OwnerID,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// FindMeetingByTitle looks up a meeting by normalized title for an owner.
func (r *Repository) FindMeetingByTitle(ctx context.Context, ownerID uuid.UUID, normalizedTitle string) (*Meeting, error) {
	query := `SELECT ` + meetingColumns + `
		FROM meetings
		WHERE owner_id = $1 AND normalized_title = $2`

	m, err := scanMeeting(r.pool.QueryRow(ctx, query, ownerID, normalizedTitle))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, pferrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find meeting: %w", err)
	}
	return m, nil
}

// GetMeeting returns a meeting by ID.
func (r *Repository) GetMeeting(ctx context.Context, id uuid.UUID) (*Meeting, error) {
	query := `SELECT ` + meetingColumns + ` FROM meetings WHERE id = $1`

	m, err := scanMeeting(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, pferrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meeting: %w", err)
	}
	return m, nil
}

// CreateMeeting inserts a meeting. A meeting with the same normalized title
// for the owner returns ErrConflict.
func (r *Repository) CreateMeeting(ctx context.Context, nm NewMeeting) (*Meeting, error) {
	tz := nm.Timezone
	if tz == "" {
		tz = meeting.TargetZoneName
	}

	query := `
		INSERT INTO meetings (
			content_id, title, normalized_title, meeting_date, meeting_time,
			timezone, owner_id, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, NULLIF($5::text, '')::time,
			$6, $7, NOW(), NOW()
		)
		ON CONFLICT (owner_id, normalized_title) DO NOTHING
		RETURNING ` + meetingColumns

	m, err := scanMeeting(r.pool.QueryRow(ctx, query,
		contentid.NewMeeting(),
		nm.Title,
		meeting.NormalizeTitle(nm.Title),
		nm.Date,
		nm.Time,
		tz,
		nm.OwnerID,
	))
	if errors.Is(err, pgx.ErrNoRows) || isUniqueViolation(err) {
		return nil, fmt.Errorf("meeting %q: %w", nm.Title, pferrors.ErrConflict)
	}
	if err != nil {
		r.logger.Error("Failed to create meeting",
			logging.Err(err),
			logging.F("title", nm.Title))
		return nil, fmt.Errorf("failed to create meeting: %w", err)
	}

	r.logger.Debug("Meeting created",
		logging.F("meeting_id", m.ID),
		logging.F("content_id", m.ContentID),
		logging.F("title", m.Title))
	return m, nil
}

// FindOrCreateMeeting resolves the series for title, creating it with the
// first occurrence's date when it does not exist. An existing meeting keeps
// its original date. Losing a concurrent insert re-reads the winner's row.
func (r *Repository) FindOrCreateMeeting(ctx context.Context, ownerID uuid.UUID, title string, date time.Time, clock string) (*Meeting, bool, error) {
	normalized := meeting.NormalizeTitle(title)

	m, err := r.FindMeetingByTitle(ctx, ownerID, normalized)
	if err == nil {
		return m, false, nil
	}
	if !pferrors.IsNotFound(err) {
		return nil, false, err
	}

	m, err = r.CreateMeeting(ctx, NewMeeting{OwnerID: ownerID, Title: title, Date: date, Time: clock})
	if pferrors.IsConflict(err) {
		m, err = r.FindMeetingByTitle(ctx, ownerID, normalized)
		if err != nil {
			return nil, false, fmt.Errorf("failed to re-read meeting after conflict: %w", err)
		}
		return m, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}

const transcriptColumns = `
	id, content_id, meeting_id, filename, COALESCE(source_file_id, ''),
	COALESCE(title, ''), meeting_date, COALESCE(to_char(meeting_time, 'HH24:MI:SS'), ''),
	content, status, COALESCE(error_msg, ''), COALESCE(file_hash, ''),
	created_at, updated_at`

func scanTranscript(row pgx.Row) (*Transcript, error) {
	var t Transcript
	var status string
	err := row.Scan(
		&t.ID, &t.ContentID, &t.MeetingID, &t.Filename, &t.SourceFileID,
		&t.Title, &t.MeetingDate, &t.MeetingTime,
		&t.Content, &status, &t.ErrorMsg, &t.FileHash,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Status = TranscriptStatus(status)
	return &t, nil
}

func (r *Repository) findTranscript(ctx context.Context, where string, arg interface{}) (*Transcript, error) {
	query := `SELECT ` + transcriptColumns + ` FROM transcripts WHERE ` + where + ` LIMIT 1`

	t, err := scanTranscript(r.pool.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, pferrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find transcript: %w", err)
	}
	return t, nil
}

// FindTranscriptByHash returns the transcript whose content hash matches.
func (r *Repository) FindTranscriptByHash(ctx context.Context, hash string) (*Transcript, error) {
	return r.findTranscript(ctx, "file_hash = $1", hash)
}

// FindTranscriptByFilename returns the transcript recorded for filename.
func (r *Repository) FindTranscriptByFilename(ctx context.Context, filename string) (*Transcript, error) {
	return r.findTranscript(ctx, "filename = $1", filename)
}

// GetTranscript returns a transcript by ID.
func (r *Repository) GetTranscript(ctx context.Context, id uuid.UUID) (*Transcript, error) {
	return r.findTranscript(ctx, "id = $1", id)
}

// GetTranscriptByContentID returns a transcript by its short ID.
func (r *Repository) GetTranscriptByContentID(ctx context.Context, contentID string) (*Transcript, error) {
	return r.findTranscript(ctx, "content_id = $1", contentID)
}

// CreateTranscript inserts a transcript in StatusProcess. If another writer
// already recorded the filename or hash, ErrConflict is returned.
func (r *Repository) CreateTranscript(ctx context.Context, nt NewTranscript) (*Transcript, error) {
	query := `
		INSERT INTO transcripts (
			content_id, meeting_id, filename, source_file_id, title,
			meeting_date, meeting_time, content, status, file_hash,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, NULLIF($7::text, '')::time, $8, $9, $10,
			NOW(), NOW()
		)
		RETURNING ` + transcriptColumns

	t, err := scanTranscript(r.pool.QueryRow(ctx, query,
		contentid.NewTranscript(),
		nt.MeetingID,
		nt.Filename,
		nullIfEmpty(nt.SourceFileID),
		nullIfEmpty(nt.Title),
		nt.MeetingDate,
		nt.MeetingTime,
		nt.Content,
		string(StatusProcess),
		nt.FileHash,
	))
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("transcript %q: %w", nt.Filename, pferrors.ErrConflict)
	}
	if err != nil {
		r.logger.Error("Failed to create transcript",
			logging.Err(err),
			logging.F("filename", nt.Filename))
		return nil, fmt.Errorf("failed to create transcript: %w", err)
	}

	r.logger.Debug("Transcript created",
		logging.F("transcript_id", t.ID),
		logging.F("content_id", t.ContentID),
		logging.F("filename", t.Filename))
	return t, nil
}

// ResetTranscriptForRetry moves an errored transcript back to StatusProcess
// with fresh content. Only a row currently in StatusError is updated, so of
// two racing retries exactly one wins; the other gets ErrInvalidState.
func (r *Repository) ResetTranscriptForRetry(ctx context.Context, id uuid.UUID, content, hash string, meta TranscriptMeta) (*Transcript, error) {
	query := `
		UPDATE transcripts SET
			status = 'process',
			error_msg = NULL,
			content = $2,
			file_hash = $3,
			source_file_id = COALESCE($4, source_file_id),
			title = COALESCE($5, title),
			meeting_date = COALESCE($6, meeting_date),
			meeting_time = COALESCE(NULLIF($7::text, '')::time, meeting_time),
			updated_at = NOW()
		WHERE id = $1 AND status = 'error'
		RETURNING ` + transcriptColumns

	t, err := scanTranscript(r.pool.QueryRow(ctx, query,
		id,
		content,
		hash,
		nullIfEmpty(meta.SourceFileID),
		nullIfEmpty(meta.Title),
		meta.MeetingDate,
		meta.MeetingTime,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("transcript %s is not in error state: %w", id, pferrors.ErrInvalidState)
	}
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("transcript %s hash: %w", id, pferrors.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to reset transcript for retry: %w", err)
	}

	r.logger.Info("Transcript reset for retry",
		logging.F("transcript_id", id),
		logging.F("filename", t.Filename))
	return t, nil
}

// MarkTranscriptDone flips a transcript from StatusProcess to StatusDone.
func (r *Repository) MarkTranscriptDone(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE transcripts SET status = 'done', error_msg = NULL, updated_at = NOW()
		WHERE id = $1 AND status = 'process'`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark transcript done: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transcript %s is not in process state: %w", id, pferrors.ErrInvalidState)
	}
	return nil
}

// MarkTranscriptError records a failure. A transcript that already reached
// StatusDone is left untouched.
func (r *Repository) MarkTranscriptError(ctx context.Context, id uuid.UUID, msg string) error {
	query := `
		UPDATE transcripts SET status = 'error', error_msg = $2, updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'process')`

	tag, err := r.pool.Exec(ctx, query, id, msg)
	if err != nil {
		return fmt.Errorf("failed to mark transcript error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transcript %s cannot move to error: %w", id, pferrors.ErrInvalidState)
	}
	return nil
}

// UpdateTranscriptHash stores the hash of the source content after write-back.
func (r *Repository) UpdateTranscriptHash(ctx context.Context, id uuid.UUID, hash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE transcripts SET file_hash = $2, updated_at = NOW() WHERE id = $1`, id, hash)
	if isUniqueViolation(err) {
		return fmt.Errorf("transcript %s hash: %w", id, pferrors.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to update transcript hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pferrors.ErrNotFound
	}
	return nil
}

// CreateSummary stores the summary of a transcript. A second summary for the
// same transcript returns ErrConflict.
func (r *Repository) CreateSummary(ctx context.Context, ns NewSummary) (*Summary, error) {
	cols, err := marshalSummaryContent(ns.SummaryContent)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO summaries (
			transcript_id, date, attendees, key_decisions, action_items,
			discussion_highlights, next_steps, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING ` + summaryColumns

	s, err := scanSummary(r.pool.QueryRow(ctx, query,
		ns.TranscriptID, ns.Date,
		cols[0], cols[1], cols[2], cols[3], cols[4],
	))
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("summary for transcript %s: %w", ns.TranscriptID, pferrors.ErrConflict)
	}
	if err != nil {
		r.logger.Error("Failed to create summary",
			logging.Err(err),
			logging.F("transcript_id", ns.TranscriptID))
		return nil, fmt.Errorf("failed to create summary: %w", err)
	}
	return s, nil
}

// CompleteTranscript stores the summary and moves the transcript from
// StatusProcess to StatusDone in one transaction. An existing summary for the
// transcript is kept and returned instead of ns, so a transcript left in error
// with its summary already stored can still be completed.
func (r *Repository) CompleteTranscript(ctx context.Context, ns NewSummary) (*Summary, error) {
	cols, err := marshalSummaryContent(ns.SummaryContent)
	if err != nil {
		return nil, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	insert := `
		INSERT INTO summaries (
			transcript_id, date, attendees, key_decisions, action_items,
			discussion_highlights, next_steps, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (transcript_id) DO NOTHING
		RETURNING ` + summaryColumns

	s, err := scanSummary(tx.QueryRow(ctx, insert,
		ns.TranscriptID, ns.Date,
		cols[0], cols[1], cols[2], cols[3], cols[4],
	))
	if errors.Is(err, pgx.ErrNoRows) {
		s, err = scanSummary(tx.QueryRow(ctx,
			`SELECT `+summaryColumns+` FROM summaries WHERE transcript_id = $1`, ns.TranscriptID))
		if err == nil {
			r.logger.Info("Reusing stored summary",
				logging.F("transcript_id", ns.TranscriptID),
				logging.F("summary_id", s.ID))
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to store summary: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE transcripts SET status = 'done', error_msg = NULL, updated_at = NOW()
		WHERE id = $1 AND status = 'process'`, ns.TranscriptID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark transcript done: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("transcript %s is not in process state: %w", ns.TranscriptID, pferrors.ErrInvalidState)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit summary: %w", err)
	}
	return s, nil
}

// GetSummaryByTranscriptID returns the stored summary for a transcript.
func (r *Repository) GetSummaryByTranscriptID(ctx context.Context, transcriptID uuid.UUID) (*Summary, error) {
	query := `SELECT ` + summaryColumns + ` FROM summaries WHERE transcript_id = $1`

	s, err := scanSummary(r.pool.QueryRow(ctx, query, transcriptID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, pferrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}
	return s, nil
}

const summaryColumns = `
	id, transcript_id, date, attendees, key_decisions, action_items,
	discussion_highlights, next_steps, created_at, updated_at`

// marshalSummaryContent returns the five JSONB column values in table order.
// A nil NextSteps is stored as SQL NULL.
func marshalSummaryContent(c SummaryContent) ([5]interface{}, error) {
	var out [5]interface{}
	lists := []interface{}{
		nonNil(c.Attendees),
		nonNil(c.KeyDecisions),
		c.ActionItems,
		nonNil(c.DiscussionHighlights),
	}
	if c.ActionItems == nil {
		lists[2] = []ActionItem{}
	}
	for i, v := range lists {
		b, err := json.Marshal(v)
		if err != nil {
			return out, fmt.Errorf("failed to marshal summary field: %w", err)
		}
		out[i] = b
	}
	if c.NextSteps != nil {
		b, err := json.Marshal(c.NextSteps)
		if err != nil {
			return out, fmt.Errorf("failed to marshal next steps: %w", err)
		}
		out[4] = b
	}
	return out, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func scanSummary(row pgx.Row) (*Summary, error) {
	var (
		s                                       Summary
		attendees, decisions, items, highlights []byte
		nextSteps                               []byte
	)
	err := row.Scan(
		&s.ID, &s.TranscriptID, &s.Date,
		&attendees, &decisions, &items, &highlights, &nextSteps,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	content, err := unmarshalSummaryContent(attendees, decisions, items, highlights, nextSteps)
	if err != nil {
		return nil, err
	}
	s.SummaryContent = content
	return &s, nil
}

func unmarshalSummaryContent(attendees, decisions, items, highlights, nextSteps []byte) (SummaryContent, error) {
	var c SummaryContent
	fields := []struct {
		raw  []byte
		into interface{}
	}{
		{attendees, &c.Attendees},
		{decisions, &c.KeyDecisions},
		{items, &c.ActionItems},
		{highlights, &c.DiscussionHighlights},
		{nextSteps, &c.NextSteps},
	}
	for _, f := range fields {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.into); err != nil {
			return c, fmt.Errorf("failed to decode summary field: %w", err)
		}
	}
	c.Attendees = nonNil(c.Attendees)
	c.KeyDecisions = nonNil(c.KeyDecisions)
	c.DiscussionHighlights = nonNil(c.DiscussionHighlights)
	if c.ActionItems == nil {
		c.ActionItems = []ActionItem{}
	}
	return c, nil
}
