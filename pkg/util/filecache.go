// FileCache gives scan workers read access to source files through
// read-only memory maps, falling back to os.ReadFile when mapping fails.
//
// A one-shot scan maps a file, copies its text out for analysis and calls
// Release. Watch mode keeps mappings alive between rescans and calls
// Invalidate when fsnotify reports a change.
package util

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/edsrzf/mmap-go"
)

// ErrFileTooLarge is returned when a file exceeds FileCacheConfig.MaxFileBytes.
var ErrFileTooLarge = errors.New("file exceeds size limit")

// FileCache is safe for concurrent use.
type FileCache interface {
	// Get returns the mapped file, loading it on first access.
	Get(filePath string) (*MappedFile, error)

	// Content returns the whole file as text.
	Content(filePath string) (string, error)

	// Release unmaps a file without counting it as an invalidation.
	Release(filePath string)

	// Invalidate drops a file whose contents changed on disk.
	Invalidate(filePath string)

	Stats() FileCacheStats

	// Close unmaps all files.
	Close() error
}

// FileCacheConfig controls FileCache limits. Zero means unlimited.
type FileCacheConfig struct {
	// MaxFiles caps simultaneously cached files. Scan workers release files
	// after analysis so this only bounds watch mode.
	MaxFiles int

	// MaxMemoryMB caps mapped virtual memory, not resident memory.
	MaxMemoryMB int

	// MaxFileBytes rejects single files larger than this. Generated bundles
	// are the usual offenders.
	MaxFileBytes int64

	EnableMetrics bool

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultFileCacheConfig returns limits suited to a medium monorepo.
func DefaultFileCacheConfig() *FileCacheConfig {
	return &FileCacheConfig{
		MaxFiles:      10000,
		MaxMemoryMB:   2048,
		MaxFileBytes:  5 << 20,
		EnableMetrics: true,
	}
}

// UnboundedFileCacheConfig disables every limit. Tests use it.
func UnboundedFileCacheConfig() *FileCacheConfig {
	return &FileCacheConfig{EnableMetrics: true}
}

// MappedFile is a cached file. Data is nil for empty files.
type MappedFile struct {
	Path     string
	Data     mmap.MMap
	File     *os.File // nil for fallback entries
	Size     int64
	MappedAt time.Time

	fallback bool
}

// FileCacheStats tracks cache activity. Counters are cumulative except
// FilesCached and TotalMappedMB.
type FileCacheStats struct {
	FilesLoaded   int64
	FilesCached   int
	CacheHits     int64
	CacheMisses   int64
	MmapFailures  int64
	Invalidations int64
	TotalMappedMB float64
}

// NewFileCache creates a FileCache. A nil config uses DefaultFileCacheConfig.
func NewFileCache(config *FileCacheConfig) FileCache {
	if config == nil {
		config = DefaultFileCacheConfig()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &fileCacheImpl{
		config: config,
		logger: logger,
		cache:  make(map[string]*MappedFile),
	}
}

type fileCacheImpl struct {
	config *FileCacheConfig
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[string]*MappedFile

	statsMu sync.Mutex
	stats   FileCacheStats
}

func (fc *fileCacheImpl) Get(filePath string) (*MappedFile, error) {
	fc.mu.RLock()
	if mf, ok := fc.cache[filePath]; ok {
		fc.mu.RUnlock()
		fc.record(func(s *FileCacheStats) { s.CacheHits++ })
		return mf, nil
	}
	fc.mu.RUnlock()

	fc.mu.Lock()
	defer fc.mu.Unlock()

	// Another goroutine may have loaded it while we waited.
	if mf, ok := fc.cache[filePath]; ok {
		fc.record(func(s *FileCacheStats) { s.CacheHits++ })
		return mf, nil
	}
	fc.record(func(s *FileCacheStats) { s.CacheMisses++ })

	stat, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("stat %q: %w", filePath, err)
	}
	if err := fc.checkLimitsLocked(filePath, stat.Size()); err != nil {
		return nil, err
	}

	mf, err := fc.loadFile(filePath)
	if err != nil {
		return nil, err
	}
	fc.cache[filePath] = mf
	fc.record(func(s *FileCacheStats) { s.FilesLoaded++ })
	return mf, nil
}

func (fc *fileCacheImpl) Content(filePath string) (string, error) {
	mf, err := fc.Get(filePath)
	if err != nil {
		return "", err
	}
	return string(mf.Data), nil
}

// checkLimitsLocked must be called with mu held.
func (fc *fileCacheImpl) checkLimitsLocked(filePath string, size int64) error {
	if fc.config.MaxFileBytes > 0 && size > fc.config.MaxFileBytes {
		return fmt.Errorf("%q is %d bytes (limit %d): %w", filePath, size, fc.config.MaxFileBytes, ErrFileTooLarge)
	}
	if fc.config.MaxFiles > 0 && len(fc.cache) >= fc.config.MaxFiles {
		return fmt.Errorf("file cache limit reached: %d files (limit: %d files)", len(fc.cache), fc.config.MaxFiles)
	}
	if fc.config.MaxMemoryMB > 0 && size > 0 {
		current := fc.mappedMBLocked()
		total := current + float64(size)/(1024*1024)
		if total >= float64(fc.config.MaxMemoryMB) {
			return fmt.Errorf("file cache memory limit reached: %.2f MB (limit: %d MB)", total, fc.config.MaxMemoryMB)
		}
	}
	return nil
}

func (fc *fileCacheImpl) loadFile(filePath string) (*MappedFile, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", filePath, err)
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat %q: %w", filePath, err)
	}

	// Zero-length files cannot be mapped.
	if stat.Size() == 0 {
		file.Close()
		return &MappedFile{Path: filePath, MappedAt: time.Now(), fallback: true}, nil
	}

	data, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		file.Close()
		fc.logger.Warn("mmap failed, using fallback", "file", filePath, "size", stat.Size(), "error", err)
		fc.record(func(s *FileCacheStats) { s.MmapFailures++ })

		raw, readErr := os.ReadFile(filePath)
		if readErr != nil {
			return nil, fmt.Errorf("read %q after mmap error %v: %w", filePath, err, readErr)
		}
		return &MappedFile{
			Path:     filePath,
			Data:     mmap.MMap(raw),
			Size:     int64(len(raw)),
			MappedAt: time.Now(),
			fallback: true,
		}, nil
	}

	return &MappedFile{
		Path:     filePath,
		Data:     data,
		File:     file,
		Size:     stat.Size(),
		MappedAt: time.Now(),
	}, nil
}

func (fc *fileCacheImpl) Release(filePath string) {
	fc.drop(filePath)
}

func (fc *fileCacheImpl) Invalidate(filePath string) {
	if fc.drop(filePath) {
		fc.record(func(s *FileCacheStats) { s.Invalidations++ })
	}
}

func (fc *fileCacheImpl) drop(filePath string) bool {
	fc.mu.Lock()
	mf, ok := fc.cache[filePath]
	delete(fc.cache, filePath)
	fc.mu.Unlock()

	if ok {
		if err := unmap(mf); err != nil {
			fc.logger.Warn("failed to release file", "path", filePath, "error", err)
		}
	}
	return ok
}

func (fc *fileCacheImpl) Stats() FileCacheStats {
	fc.mu.RLock()
	cached := len(fc.cache)
	mapped := fc.mappedMBLocked()
	fc.mu.RUnlock()

	fc.statsMu.Lock()
	defer fc.statsMu.Unlock()
	stats := fc.stats
	stats.FilesCached = cached
	stats.TotalMappedMB = mapped
	return stats
}

func (fc *fileCacheImpl) mappedMBLocked() float64 {
	var total int64
	for _, mf := range fc.cache {
		total += mf.Size
	}
	return float64(total) / (1024 * 1024)
}

func (fc *fileCacheImpl) Close() error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	var errs []error
	for path, mf := range fc.cache {
		if err := unmap(mf); err != nil {
			fc.logger.Warn("failed to release file", "path", path, "error", err)
			errs = append(errs, err)
		}
	}
	fc.cache = make(map[string]*MappedFile)

	fc.statsMu.Lock()
	fc.logger.Debug("file cache closed",
		"files_loaded", fc.stats.FilesLoaded,
		"cache_hits", fc.stats.CacheHits,
		"mmap_failures", fc.stats.MmapFailures)
	fc.statsMu.Unlock()

	return errors.Join(errs...)
}

func (fc *fileCacheImpl) record(update func(*FileCacheStats)) {
	if !fc.config.EnableMetrics {
		return
	}
	fc.statsMu.Lock()
	update(&fc.stats)
	fc.statsMu.Unlock()
}

func unmap(mf *MappedFile) error {
	var errs []error
	if !mf.fallback && mf.Data != nil {
		if err := mf.Data.Unmap(); err != nil {
			errs = append(errs, fmt.Errorf("unmap %q: %w", mf.Path, err))
		}
	}
	if mf.File != nil {
		if err := mf.File.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %q: %w", mf.Path, err))
		}
	}
	return errors.Join(errs...)
}
