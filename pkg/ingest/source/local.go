package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/otherjamesbrown/meetsum/pkg/ingest/extract"
)

// LocalSource watches a single directory. File IDs are absolute paths.
type LocalSource struct {
	dir string
}

// NewLocalSource returns a source for dir, which must exist.
func NewLocalSource(dir string) (*LocalSource, error) {
	if dir == "" {
		return nil, fmt.Errorf("watch directory is not set")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving watch directory: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("watch directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch directory %s is not a directory", abs)
	}
	return &LocalSource{dir: abs}, nil
}

// Dir returns the absolute directory path.
func (s *LocalSource) Dir() string {
	return s.dir
}

// Kind implements Source.
func (s *LocalSource) Kind() string {
	return KindLocal
}

// List returns the regular, non-hidden files in the directory whose extension
// can be extracted, sorted by name. Subdirectories are not descended into.
func (s *LocalSource) List(ctx context.Context) ([]File, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", s.dir, err)
	}

	files := make([]File, 0, len(entries))
	for _, e := range entries {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || IsSummaryArtifact(name) {
			continue
		}
		mimeType := extract.MimeTypeForName(name)
		if !extract.IsSupported(mimeType) {
			continue
		}
		info, err := e.Info()
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", name, err)
		}
		if !info.Mode().IsRegular() {
			continue
		}
		files = append(files, File{
			ID:         filepath.Join(s.dir, name),
			Name:       name,
			MimeType:   mimeType,
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Read implements Source.
func (s *LocalSource) Read(ctx context.Context, f File) ([]byte, error) {
	data, err := os.ReadFile(s.path(f))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.Name, err)
	}
	return data, nil
}

// Write replaces the file content through a temp file and rename, so a
// reader never sees a partially written transcript.
func (s *LocalSource) Write(ctx context.Context, f File, data []byte) error {
	target := s.path(f)

	mode := fs.FileMode(0o644)
	if info, err := os.Stat(target); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".meetsum-*")
	if err != nil {
		return fmt.Errorf("writing %s: %w", f.Name, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", f.Name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", f.Name, err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("writing %s: %w", f.Name, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("writing %s: %w", f.Name, err)
	}
	return nil
}

// Create writes a new file. It fails if name already exists.
func (s *LocalSource) Create(ctx context.Context, name string, data []byte) error {
	if err := checkName(name); err != nil {
		return err
	}
	fh, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}
	if _, err := fh.Write(data); err != nil {
		fh.Close()
		return fmt.Errorf("creating %s: %w", name, err)
	}
	return fh.Close()
}

// Exists implements Source.
func (s *LocalSource) Exists(ctx context.Context, name string) (bool, error) {
	if err := checkName(name); err != nil {
		return false, err
	}
	_, err := os.Stat(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *LocalSource) path(f File) string {
	if f.ID != "" {
		return f.ID
	}
	return filepath.Join(s.dir, f.Name)
}

func checkName(name string) error {
	if name == "" || name != filepath.Base(name) {
		return fmt.Errorf("invalid file name %q", name)
	}
	return nil
}
