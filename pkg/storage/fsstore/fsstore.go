// Package fsstore provides a storage.PageStore implementation backed by the
// local filesystem. Pages live under <root>/<token>/<n>.pbm; the root
// defaults to the OS temp directory. Reads go through a small LRU cache
// since page bytes never change once written.
package fsstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/kike-0203/watchy-solver-clean/pkg/serrors"
	"github.com/kike-0203/watchy-solver-clean/pkg/storage"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of pages kept in the read cache when
// Options.CacheSize is zero.
const DefaultCacheSize = 128

// pageExt is the file extension of stored pages.
const pageExt = ".pbm"

// Options defines the configuration parameters for the filesystem store.
type Options struct {
	// Root is the directory under which token directories are created.
	// Empty means the OS temp directory.
	Root string
	// CacheSize caps the page read cache. Zero means DefaultCacheSize,
	// negative disables caching.
	CacheSize int
}

// Store implements storage.PageStore and storage.Sweeper on the local
// filesystem. It is safe for concurrent use.
type Store struct {
	root  string
	cache *lru.Cache[string, []byte] // nil when caching is disabled
}

// Compile-time interface checks.
var (
	_ storage.PageStore = (*Store)(nil)
	_ storage.Sweeper   = (*Store)(nil)
)

// New creates a Store rooted at opts.Root, creating the directory if needed.
func New(opts Options) (*Store, error) {
	root := opts.Root
	if root == "" {
		root = os.TempDir()
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("could not create store root: %w", err)
	}

	var cache *lru.Cache[string, []byte]
	if opts.CacheSize >= 0 {
		size := opts.CacheSize
		if size == 0 {
			size = DefaultCacheSize
		}
		c, err := lru.New[string, []byte](size)
		if err != nil {
			return nil, fmt.Errorf("could not create page cache: %w", err)
		}
		cache = c
	}

	return &Store{root: root, cache: cache}, nil
}

// Root returns the directory the store writes under.
func (s *Store) Root() string { return s.root }

// SavePages writes the ordered pages under the token directory. The set is
// staged in a scratch directory and renamed into place so readers never see
// a partially written set.
func (s *Store) SavePages(ctx context.Context, token string, pages [][]byte) error {
	if !storage.ValidToken(token) {
		return fmt.Errorf("%w: %q", storage.ErrInvalidToken, token)
	}
	if len(pages) == 0 {
		return storage.ErrNoPages
	}
	if err := ctx.Err(); err != nil {
		return err //nolint: wrapcheck
	}

	stage, err := os.MkdirTemp(s.root, "."+token+"-")
	if err != nil {
		return fmt.Errorf("could not create staging dir: %w", err)
	}
	defer func() {
		_ = os.RemoveAll(stage)
	}()

	for i, page := range pages {
		name := filepath.Join(stage, strconv.Itoa(i)+pageExt)
		if err := os.WriteFile(name, page, 0o600); err != nil {
			return fmt.Errorf("could not write page %d: %w", i, err)
		}
	}

	final := filepath.Join(s.root, token)
	if err := os.RemoveAll(final); err != nil {
		return fmt.Errorf("could not remove previous page set: %w", err)
	}
	if err := os.Rename(stage, final); err != nil {
		return fmt.Errorf("could not publish page set: %w", err)
	}

	// Drop stale cache entries from any previous set under this token.
	s.evictToken(token)

	return nil
}

// Page returns the raw bytes of one page of the token's set.
func (s *Store) Page(ctx context.Context, token string, page int) ([]byte, error) {
	if !storage.ValidToken(token) || page < 0 {
		return nil, serrors.With(serrors.ErrNotFound, "page not found")
	}
	if err := ctx.Err(); err != nil {
		return nil, err //nolint: wrapcheck
	}

	key := token + "/" + strconv.Itoa(page)
	if s.cache != nil {
		if b, ok := s.cache.Get(key); ok {
			return b, nil
		}
	}

	b, err := os.ReadFile(filepath.Join(s.root, token, strconv.Itoa(page)+pageExt))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, serrors.With(serrors.ErrNotFound, "page not found")
		}

		return nil, fmt.Errorf("could not read page: %w", err)
	}

	if s.cache != nil {
		s.cache.Add(key, b)
	}

	return b, nil
}

// PageCount reports how many pages are stored for the token.
func (s *Store) PageCount(ctx context.Context, token string) (int, error) {
	if !storage.ValidToken(token) {
		return 0, serrors.With(serrors.ErrNotFound, "unknown token")
	}
	if err := ctx.Err(); err != nil {
		return 0, err //nolint: wrapcheck
	}

	entries, err := os.ReadDir(filepath.Join(s.root, token))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, serrors.With(serrors.ErrNotFound, "unknown token")
		}

		return 0, fmt.Errorf("could not read token dir: %w", err)
	}

	count := 0
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == pageExt {
			count++
		}
	}

	return count, nil
}

// Sweep removes token directories whose content is older than olderThan and
// returns how many were removed. Directories that are not valid tokens
// (including in-progress staging dirs) are left alone.
func (s *Store) Sweep(ctx context.Context, olderThan time.Duration) (int, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return 0, fmt.Errorf("could not read store root: %w", err)
	}

	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err //nolint: wrapcheck
		}
		if !e.IsDir() || !storage.ValidToken(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue // raced with a concurrent removal
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.root, e.Name())); err != nil {
			return removed, fmt.Errorf("could not remove %s: %w", e.Name(), err)
		}
		s.evictToken(e.Name())
		removed++
	}

	return removed, nil
}

// evictToken drops all cached pages belonging to the token.
func (s *Store) evictToken(token string) {
	if s.cache == nil {
		return
	}
	prefix := token + "/"
	for _, key := range s.cache.Keys() {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			s.cache.Remove(key)
		}
	}
}
