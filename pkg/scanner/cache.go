package scanner

import (
	"crypto/sha256"
	"path/filepath"
	"strings"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gnana997/uiusage/pkg/usage"
)

type cacheKey [sha256.Size]byte

// ResultCache keeps recent per-file results keyed by engine, file
// extension and content hash. Identical files (vendored copies, generated
// barrels) and unchanged files across watch rescans are analyzed once.
//
// Results are shared between hits and must be treated as read-only.
type ResultCache struct {
	cache  *lru.Cache[cacheKey, *usage.FileAnalysisResult]
	hits   atomic.Int64
	misses atomic.Int64
}

// NewResultCache returns nil when size <= 0; a nil *ResultCache never hits.
func NewResultCache(size int) (*ResultCache, error) {
	if size <= 0 {
		return nil, nil
	}
	c, err := lru.New[cacheKey, *usage.FileAnalysisResult](size)
	if err != nil {
		return nil, err
	}
	return &ResultCache{cache: c}, nil
}

func resultKey(engine, filePath, content string) cacheKey {
	h := sha256.New()
	h.Write([]byte(engine))
	h.Write([]byte{0})
	h.Write([]byte(strings.ToLower(filepath.Ext(filePath))))
	h.Write([]byte{0})
	h.Write([]byte(content))
	var k cacheKey
	h.Sum(k[:0])
	return k
}

// Get looks up a result.
func (c *ResultCache) Get(engine, filePath, content string) (*usage.FileAnalysisResult, bool) {
	if c == nil {
		return nil, false
	}
	res, ok := c.cache.Get(resultKey(engine, filePath, content))
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return res, ok
}

// Put stores a result.
func (c *ResultCache) Put(engine, filePath, content string, res *usage.FileAnalysisResult) {
	if c == nil {
		return
	}
	c.cache.Add(resultKey(engine, filePath, content), res)
}

// CacheStats reports result cache effectiveness.
type CacheStats struct {
	Entries int
	Hits    int64
	Misses  int64
}

func (c *ResultCache) Stats() CacheStats {
	if c == nil {
		return CacheStats{}
	}
	return CacheStats{Entries: c.cache.Len(), Hits: c.hits.Load(), Misses: c.misses.Load()}
}
