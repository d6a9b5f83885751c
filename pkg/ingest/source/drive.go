package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/otherjamesbrown/meetsum/pkg/ingest/extract"
	"github.com/otherjamesbrown/meetsum/pkg/logging"
)

const driveListFields = "nextPageToken, files(id, name, mimeType, size, parents, modifiedTime)"

// DriveConfig configures a DriveSource.
type DriveConfig struct {
	FolderID        string
	CredentialsFile string
}

// DriveSource watches one Google Drive folder.
type DriveSource struct {
	svc      *drive.Service
	folderID string
	logger   logging.Logger
}

// NewDriveSource creates the Drive client. Extra options are appended after
// the credentials, so tests can point the client at a fake endpoint.
func NewDriveSource(ctx context.Context, cfg DriveConfig, logger logging.Logger, opts ...option.ClientOption) (*DriveSource, error) {
	if cfg.FolderID == "" {
		return nil, fmt.Errorf("drive folder ID is not set")
	}

	var clientOpts []option.ClientOption
	if cfg.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	clientOpts = append(clientOpts, option.WithScopes(drive.DriveScope))
	clientOpts = append(clientOpts, opts...)

	svc, err := drive.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating drive client: %w", err)
	}

	return &DriveSource{
		svc:      svc,
		folderID: cfg.FolderID,
		logger:   logger.With(logging.F("component", "drive_source"), logging.F("folder_id", cfg.FolderID)),
	}, nil
}

// Kind implements Source.
func (s *DriveSource) Kind() string {
	return KindDrive
}

// List returns the text, Word and Google Doc files in the folder.
func (s *DriveSource) List(ctx context.Context) ([]File, error) {
	q := fmt.Sprintf(
		"'%s' in parents and trashed = false and (mimeType = '%s' or mimeType = '%s' or mimeType = '%s')",
		escapeQuery(s.folderID), extract.MimeText, extract.MimeDocx, extract.MimeGoogleDoc)

	var files []File
	pageToken := ""
	for {
		call := s.svc.Files.List().Q(q).Fields(driveListFields).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		res, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("listing drive folder: %w", err)
		}

		for _, f := range res.Files {
			if IsSummaryArtifact(f.Name) {
				continue
			}
			files = append(files, fromDriveFile(f))
		}

		if res.NextPageToken == "" {
			break
		}
		pageToken = res.NextPageToken
	}

	s.logger.Debug("Listed drive folder", logging.F("files", len(files)))
	return files, nil
}

func fromDriveFile(f *drive.File) File {
	modified, _ := time.Parse(time.RFC3339, f.ModifiedTime)
	return File{
		ID:         f.Id,
		Name:       f.Name,
		MimeType:   f.MimeType,
		Size:       f.Size,
		ModifiedAt: modified,
	}
}

// Read downloads f, exporting Google Docs as plain text.
func (s *DriveSource) Read(ctx context.Context, f File) ([]byte, error) {
	var (
		resp *http.Response
		err  error
	)
	if f.MimeType == extract.MimeGoogleDoc {
		resp, err = s.svc.Files.Export(f.ID, extract.MimeText).Context(ctx).Download()
	} else {
		resp, err = s.svc.Files.Get(f.ID).Context(ctx).Download()
	}
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", f.Name, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.Name, err)
	}
	return data, nil
}

// Write replaces the media of f with plain text.
func (s *DriveSource) Write(ctx context.Context, f File, data []byte) error {
	_, err := s.svc.Files.Update(f.ID, &drive.File{}).
		Media(bytes.NewReader(data), googleapi.ContentType(extract.MimeText)).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("updating %s: %w", f.Name, err)
	}
	return nil
}

// Create uploads a new plain-text file into the folder.
func (s *DriveSource) Create(ctx context.Context, name string, data []byte) error {
	meta := &drive.File{
		Name:     name,
		Parents:  []string{s.folderID},
		MimeType: extract.MimeText,
	}
	created, err := s.svc.Files.Create(meta).
		Media(bytes.NewReader(data), googleapi.ContentType(extract.MimeText)).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}

	s.logger.Info("Created drive file",
		logging.F("file_id", created.Id),
		logging.F("name", name))
	return nil
}

// Exists reports whether a non-trashed file named name is in the folder.
func (s *DriveSource) Exists(ctx context.Context, name string) (bool, error) {
	q := fmt.Sprintf("name = '%s' and '%s' in parents and trashed = false",
		escapeQuery(name), escapeQuery(s.folderID))

	res, err := s.svc.Files.List().Q(q).Fields("files(id)").PageSize(1).Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", name, err)
	}
	return len(res.Files) > 0, nil
}

// escapeQuery quotes a value for a Drive query string literal.
func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
