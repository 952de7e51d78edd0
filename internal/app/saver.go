package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"article-saver/internal/observability"
)

// Saver persists a finished document and returns where it ended up.
type Saver interface {
	Save(ctx context.Context, data []byte, filename string) (string, error)
}

// FileSaver writes documents into Dir. The file appears atomically: it is
// written to a temporary name first and renamed into place.
type FileSaver struct {
	Dir string
}

func (s *FileSaver) Save(ctx context.Context, data []byte, filename string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if filename == "" || filepath.Base(filename) != filename {
		return "", fmt.Errorf("invalid filename %q", filename)
	}

	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".article-saver-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// no-op once the rename succeeded
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close document: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return "", fmt.Errorf("failed to set permissions: %w", err)
	}

	target := filepath.Join(dir, filename)
	if err := os.Rename(tmpName, target); err != nil {
		return "", fmt.Errorf("failed to move document into place: %w", err)
	}
	return target, nil
}

// FallbackSaver tries Primary and, when that fails, Secondary. The save only
// fails when both do.
type FallbackSaver struct {
	Primary   Saver
	Secondary Saver
	Logger    *observability.Logger
}

func (s *FallbackSaver) Save(ctx context.Context, data []byte, filename string) (string, error) {
	path, err := s.Primary.Save(ctx, data, filename)
	if err == nil {
		return path, nil
	}
	if s.Secondary == nil {
		return "", err
	}
	if s.Logger != nil {
		s.Logger.Warn("primary save failed, trying fallback", "filename", filename, "error", err)
	}

	path, fallbackErr := s.Secondary.Save(ctx, data, filename)
	if fallbackErr != nil {
		return "", fmt.Errorf("save failed: %w", errors.Join(err, fallbackErr))
	}
	return path, nil
}
