package watcher

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/otherjamesbrown/meetsum/pkg/ingest/source"
	"github.com/otherjamesbrown/meetsum/pkg/ingest/storage"
	"github.com/otherjamesbrown/meetsum/pkg/summarize"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) FindTranscriptByFilename(ctx context.Context, filename string) (*storage.Transcript, error) {
	args := m.Called(ctx, filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Transcript), args.Error(1)
}

func (m *mockStore) FindTranscriptByHash(ctx context.Context, hash string) (*storage.Transcript, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Transcript), args.Error(1)
}

func (m *mockStore) FindOrCreateMeeting(ctx context.Context, ownerID uuid.UUID, title string, date time.Time, clock string) (*storage.Meeting, bool, error) {
	args := m.Called(ctx, ownerID, title, date, clock)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*storage.Meeting), args.Bool(1), args.Error(2)
}

func (m *mockStore) CreateTranscript(ctx context.Context, nt storage.NewTranscript) (*storage.Transcript, error) {
	args := m.Called(ctx, nt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Transcript), args.Error(1)
}

func (m *mockStore) ResetTranscriptForRetry(ctx context.Context, id uuid.UUID, content, hash string, meta storage.TranscriptMeta) (*storage.Transcript, error) {
	args := m.Called(ctx, id, content, hash, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Transcript), args.Error(1)
}

func (m *mockStore) MarkTranscriptError(ctx context.Context, id uuid.UUID, msg string) error {
	return m.Called(ctx, id, msg).Error(0)
}

func (m *mockStore) CompleteTranscript(ctx context.Context, ns storage.NewSummary) (*storage.Summary, error) {
	args := m.Called(ctx, ns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Summary), args.Error(1)
}

func (m *mockStore) GetSummaryByTranscriptID(ctx context.Context, transcriptID uuid.UUID) (*storage.Summary, error) {
	args := m.Called(ctx, transcriptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Summary), args.Error(1)
}

type mockSummarizer struct {
	mock.Mock
}

func (m *mockSummarizer) Summarize(ctx context.Context, text string) (*summarize.Result, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*summarize.Result), args.Error(1)
}

type mockWriteBacker struct {
	mock.Mock
}

func (m *mockWriteBacker) WriteBack(ctx context.Context, src source.Source, f source.File, transcriptID uuid.UUID) error {
	return m.Called(ctx, src, f, transcriptID).Error(0)
}

type mockSource struct {
	mock.Mock
}

func (m *mockSource) List(ctx context.Context) ([]source.File, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]source.File), args.Error(1)
}

func (m *mockSource) Read(ctx context.Context, f source.File) ([]byte, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockSource) Write(ctx context.Context, f source.File, data []byte) error {
	return m.Called(ctx, f, data).Error(0)
}

func (m *mockSource) Create(ctx context.Context, name string, data []byte) error {
	return m.Called(ctx, name, data).Error(0)
}

func (m *mockSource) Exists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *mockSource) Kind() string {
	return m.Called().String(0)
}
