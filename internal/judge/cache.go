package judge

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/clinicalcore/retrieval-core/internal/textproc"
)

// Cache persists judge call results keyed by a content-addressed digest so
// repeated evaluation runs against the same dataset version never re-spend
// tokens on an unchanged (dimension, query, content) triple.
type Cache interface {
	Get(key string) (string, bool, error)
	Put(key string, value string) error
}

// FileCache is a persistent, one-file-per-key cache under dir — the same
// one-file-per-key layout pipeline.DocIndex uses for companion records,
// keyed here by content hash instead of doc_id so it survives restarts per
// spec.md §6's "Judge cache: one JSON file per sha256(...)" requirement.
type FileCache struct {
	dir string
}

func NewFileCache(dir string) *FileCache {
	return &FileCache{dir: dir}
}

func (c *FileCache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// Get returns the cached value for key, or ("", false, nil) on a miss.
func (c *FileCache) Get(key string) (string, bool, error) {
	b, err := os.ReadFile(c.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("judge.FileCache.Get: %w", err)
	}
	return string(b), true, nil
}

// Put writes value under key, creating the cache directory if necessary.
func (c *FileCache) Put(key string, value string) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("judge.FileCache.Put: %w", err)
	}
	if err := os.WriteFile(c.path(key), []byte(value), 0o644); err != nil {
		return fmt.Errorf("judge.FileCache.Put: %w", err)
	}
	return nil
}

// cacheKey builds the sha256(dimension||query||content) key spec.md §6
// specifies for the judge cache.
func cacheKey(dimension, query, content string) string {
	return textproc.ContentHash(dimension + "||" + query + "||" + content)
}

// NoCache always misses and discards writes, for judge_eval's --no-cache
// flag: every dimension is re-spent against the live LLM rather than
// served from a prior run's persisted responses.
type NoCache struct{}

func (NoCache) Get(key string) (string, bool, error) { return "", false, nil }
func (NoCache) Put(key string, value string) error   { return nil }

var _ Cache = NoCache{}
