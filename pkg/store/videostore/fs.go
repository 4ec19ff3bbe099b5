package videostore

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

	"github.com/vodworks/video-delivery/pkg/store"
)

// FsVideoStore implements VideoStore on the local filesystem. Object keys map
// directly to file paths below the root directory.
type FsVideoStore struct {
	rootdir string
	tmpdir  string
}

func NewFsVideoStore(rootdir string, tmpdir string) (*FsVideoStore, error) {
	if err := os.MkdirAll(rootdir, 0755); err != nil {
		return nil, fmt.Errorf("creating root directory: %w", err)
	}
	if err := os.MkdirAll(tmpdir, 0755); err != nil {
		return nil, fmt.Errorf("creating temp directory: %w", err)
	}
	return &FsVideoStore{rootdir, tmpdir}, nil
}

func (b *FsVideoStore) toPath(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return "", fmt.Errorf("unsafe object key: %q", key)
	}
	return path.Join(b.rootdir, key), nil
}

// List implements VideoStore.
func (b *FsVideoStore) List(ctx context.Context) ([]Object, error) {
	var objects []Object
	err := filepath.WalkDir(b.rootdir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		inf, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat file: %w", err)
		}
		key, err := filepath.Rel(b.rootdir, p)
		if err != nil {
			return fmt.Errorf("relativizing path: %w", err)
		}
		objects = append(objects, Object{
			Key:          filepath.ToSlash(key),
			Size:         inf.Size(),
			LastModified: inf.ModTime().UTC(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking root directory: %w", err)
	}
	return objects, nil
}

// Put implements VideoStore. The body is written to the temp directory and
// renamed into place so readers never observe a partial object.
func (b *FsVideoStore) Put(ctx context.Context, key string, contentType string, size int64, body io.Reader) error {
	n, err := b.toPath(key)
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(b.tmpdir, "put-")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(f.Name())

	written, err := io.Copy(f, body)
	if err != nil {
		f.Close()
		return fmt.Errorf("writing object data: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if size >= 0 && written != size {
		return fmt.Errorf("object size mismatch: expected %d bytes, got %d", size, written)
	}

	if err := os.MkdirAll(path.Dir(n), 0755); err != nil {
		return fmt.Errorf("creating intermediate directories: %w", err)
	}
	if err := os.Rename(f.Name(), n); err != nil {
		return fmt.Errorf("moving object into place: %w", err)
	}
	return nil
}

// Get implements VideoStore.
func (b *FsVideoStore) Get(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	n, err := b.toPath(key)
	if err != nil {
		return nil, 0, err
	}

	f, err := os.Open(n)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, store.ErrNotFound
		}
		return nil, 0, fmt.Errorf("opening file: %w", err)
	}

	inf, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("stat file: %w", err)
	}
	return f, inf.Size(), nil
}

var _ VideoStore = (*FsVideoStore)(nil)
