package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

const tempSuffix = ".tmp"

type fileBackend struct {
	fs   afero.Fs
	path string
}

// NewFileBackend stores progress as a JSON array of ids at path.
func NewFileBackend(fs afero.Fs, path string) *fileBackend {
	return &fileBackend{
		fs:   fs,
		path: path,
	}
}

func (b *fileBackend) Load(_ context.Context) ([]string, error) {
	data, err := afero.ReadFile(b.fs, b.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("cannot read progress file %s: %w", b.path, err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("cannot parse progress file %s: %w", b.path, err)
	}

	return ids, nil
}

// Save replaces the file via a uniquely named temp file and a rename, so the
// file at path always holds a complete snapshot.
func (b *fileBackend) Save(_ context.Context, ids []string) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("cannot encode progress: %w", err)
	}

	if dir := filepath.Dir(b.path); dir != "." {
		if err := b.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create progress dir %s: %w", dir, err)
		}
	}

	tmp := b.path + "." + uuid.NewString() + tempSuffix
	if err := afero.WriteFile(b.fs, tmp, data, 0o644); err != nil {
		b.fs.Remove(tmp)

		return fmt.Errorf("cannot write progress file %s: %w", tmp, err)
	}

	if err := b.fs.Rename(tmp, b.path); err != nil {
		b.fs.Remove(tmp)

		return fmt.Errorf("cannot replace progress file %s: %w", b.path, err)
	}

	return nil
}

func (b *fileBackend) Clear(_ context.Context) error {
	if err := b.fs.Remove(b.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("cannot remove progress file %s: %w", b.path, err)
	}

	return nil
}
