package judge

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileCache_PutThenGet(t *testing.T) {
	dir := t.TempDir()
	c := NewFileCache(dir)

	if err := c.Put("somekey", `{"score": 8}`); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	v, hit, err := c.Get("somekey")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !hit {
		t.Fatal("expected a cache hit after Put")
	}
	if v != `{"score": 8}` {
		t.Errorf("Get() = %q, want the stored value", v)
	}

	if _, err := os.Stat(filepath.Join(dir, "somekey.json")); err != nil {
		t.Errorf("expected a file under the cache dir: %v", err)
	}
}

func TestFileCache_MissReturnsFalseNotError(t *testing.T) {
	c := NewFileCache(t.TempDir())
	_, hit, err := c.Get("missing")
	if err != nil {
		t.Fatalf("Get() error on miss: %v", err)
	}
	if hit {
		t.Error("expected a miss")
	}
}

func TestCacheKey_StableForSameInputs(t *testing.T) {
	k1 := cacheKey("groundedness", "question", "content")
	k2 := cacheKey("groundedness", "question", "content")
	if k1 != k2 {
		t.Errorf("cacheKey should be deterministic, got %q and %q", k1, k2)
	}
}

func TestCacheKey_DiffersByDimension(t *testing.T) {
	k1 := cacheKey("groundedness", "question", "content")
	k2 := cacheKey("answer_relevance", "question", "content")
	if k1 == k2 {
		t.Error("cacheKey should differ across dimensions for the same query/content")
	}
}
