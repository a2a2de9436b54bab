package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var (
	ErrNotFound    = errors.New("file not found")
	ErrInvalidPath = errors.New("invalid file path")
)

// Store keeps media files addressed by slash separated relative paths,
// e.g. "tickets/qrcodes/ticket_7.png".
type Store interface {
	Save(ctx context.Context, name string, r io.Reader) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Exists(ctx context.Context, name string) (bool, error)
	Delete(ctx context.Context, name string) error
}

type FileStore struct {
	root string
}

func NewFileStore(root string) (*FileStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	err = os.MkdirAll(abs, 0o755)
	if err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}

	return &FileStore{root: abs}, nil
}

func (s *FileStore) Root() string {
	return s.root
}

// Save writes to a temporary file first and renames it into place, so readers
// never observe a partially written file.
func (s *FileStore) Save(ctx context.Context, name string, r io.Reader) error {
	full, err := s.resolve(name)
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(full), 0o755)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	_, err = io.Copy(tmp, ctxReader{ctx: ctx, r: r})
	if err != nil {
		tmp.Close()
		return err
	}

	err = tmp.Close()
	if err != nil {
		return err
	}

	return os.Rename(tmp.Name(), full)
}

func (s *FileStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	full, err := s.resolve(name)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	return f, nil
}

func (s *FileStore) Exists(ctx context.Context, name string) (bool, error) {
	full, err := s.resolve(name)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(full)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// Delete removes the file. Deleting a missing file is not an error.
func (s *FileStore) Delete(ctx context.Context, name string) error {
	full, err := s.resolve(name)
	if err != nil {
		return err
	}

	err = os.Remove(full)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}

func (s *FileStore) resolve(name string) (string, error) {
	clean := path.Clean("/" + name)
	if clean == "/" || strings.Contains(name, "\\") {
		return "", ErrInvalidPath
	}

	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}

	return c.r.Read(p)
}
