// Package staging writes uploaded answers to a local directory until the transcriber has them.
package staging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/target/mmk-interviews/internal/core"
	"github.com/target/mmk-interviews/internal/domain/model"
)

const maxNameLen = 100

// Options configures a Stager.
type Options struct {
	Dir string
	// Now is used for fallback file names.
	Now func() time.Time
}

// Stager implements core.AudioStager on the local filesystem.
type Stager struct {
	dir string
	now func() time.Time
}

var _ core.AudioStager = (*Stager)(nil)

// New creates the staging directory if needed and returns a Stager rooted at it.
func New(opts Options) (*Stager, error) {
	dir := strings.TrimSpace(opts.Dir)
	if dir == "" {
		return nil, errors.New("staging directory is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve staging directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}
	nowFn := opts.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Stager{dir: abs, now: nowFn}, nil
}

// Dir returns the absolute staging directory.
func (s *Stager) Dir() string { return s.dir }

// Stage copies req.Body to a uniquely named file and fsyncs it before returning.
func (s *Stager) Stage(ctx context.Context, req core.StageRequest) (*model.StagedAudio, error) {
	if req.Body == nil {
		return nil, errors.New("audio body is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := uuid.NewString() + "-" + s.safeName(req.Filename)
	path := filepath.Join(s.dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create staged file: %w", err)
	}

	size, err := io.Copy(f, req.Body)
	if err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write staged file: %w", err)
	}

	return &model.StagedAudio{Path: path, MimeType: req.MimeType, Size: size}, nil
}

// Remove deletes a staged file. Missing files are not an error; paths outside the staging
// directory are rejected.
func (s *Stager) Remove(_ context.Context, path string) error {
	if !s.contains(path) {
		return fmt.Errorf("refusing to remove %q outside staging directory", path)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove staged file: %w", err)
	}
	return nil
}

// Sweep removes regular files last modified before olderThan.
func (s *Stager) Sweep(ctx context.Context, olderThan time.Time) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read staging directory: %w", err)
	}

	removed := 0
	var errs []error
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, err)
			}
			continue
		}
		if !info.ModTime().Before(olderThan) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, err)
			}
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

func (s *Stager) contains(path string) bool {
	rel, err := filepath.Rel(s.dir, filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != "." && !strings.HasPrefix(rel, "..") && !strings.ContainsRune(rel, filepath.Separator)
}

// safeName keeps the base name's letters, digits, dots, dashes and underscores.
func (s *Stager) safeName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), "._")
	if len(out) > maxNameLen {
		out = out[len(out)-maxNameLen:]
	}
	if out == "" {
		return "recording-" + s.now().UTC().Format("20060102-150405") + ".webm"
	}
	return out
}
