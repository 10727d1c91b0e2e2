package cache

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileStore keeps pages as HTML files under dir/<scope>/<hash>.html. The
// modification time of a file is set to its expiry.
type FileStore struct {
	dir string
	now func() time.Time
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir, now: time.Now}
}

// Path returns the file a page for key is stored in.
func (s *FileStore) Path(key Key) string {
	return filepath.Join(s.dir, key.Scope, key.hash()+".html")
}

func (s *FileStore) Get(_ context.Context, key Key) ([]byte, bool, error) {
	path := s.Path(key)

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if !info.ModTime().After(s.now()) {
		return nil, false, nil
	}

	page, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return page, true, nil
}

func (s *FileStore) Set(_ context.Context, key Key, page []byte, ttl time.Duration) error {
	path := s.Path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	// Readers never see a half written page.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".page-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(page); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	expires := s.now().Add(ttl)
	if err := os.Chtimes(tmp.Name(), expires, expires); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s *FileStore) Clear(_ context.Context, scope string) (int, error) {
	root := s.dir
	if scope != "" {
		root = filepath.Join(s.dir, scope)
	}

	removed, err := s.walk(root, func(fs.FileInfo) bool { return true })
	if err != nil {
		return removed, err
	}
	if scope != "" {
		os.Remove(root)
	}
	return removed, nil
}

// PurgeExpired removes every page whose time to live has passed.
func (s *FileStore) PurgeExpired(_ context.Context) (int, error) {
	now := s.now()
	return s.walk(s.dir, func(info fs.FileInfo) bool {
		return !info.ModTime().After(now)
	})
}

func (s *FileStore) walk(root string, remove func(fs.FileInfo) bool) (int, error) {
	removed := 0
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}

		if info.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}

		if remove(info) {
			if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			removed++
		}
		return nil
	})
	return removed, err
}
