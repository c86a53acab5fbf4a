// Package scanner discovers source files in codebases, analyzes them in
// parallel with a usage.Engine and folds the results into aggregates.
package scanner

import (
	"errors"
	"fmt"
	"time"

	"github.com/gnana997/uiusage/pkg/usage"
)

// ErrNoFiles is returned alongside an empty report when a codebase has no
// matching source files. Callers treat it as a warning.
var ErrNoFiles = errors.New("no source files found")

// DefaultIncludes applies when a codebase lists no include patterns.
var DefaultIncludes = []string{"**/*.{ts,tsx,js,jsx,mts,cts,mjs,cjs}"}

// DefaultExcludes applies when a codebase lists no exclude patterns.
var DefaultExcludes = []string{
	"**/node_modules/**",
	"**/.git/**",
	"**/dist/**",
	"**/build/**",
	"**/.next/**",
	"**/coverage/**",
	"**/out/**",
	"**/*.d.ts",
	"**/*.test.*",
	"**/*.spec.*",
	"**/*.stories.*",
	"**/__tests__/**",
	"**/__mocks__/**",
}

// Options configures a Scanner.
type Options struct {
	// Workers is the pool size (0 = util.GetOptimalPoolSize).
	Workers int

	// CacheSize is the number of per-file results kept, keyed by content
	// hash (0 disables the result cache).
	CacheSize int

	// MaxMemoryMB and MaxFileBytes bound the mapped file cache.
	MaxMemoryMB  int
	MaxFileBytes int64

	// KeepMapped leaves files mapped after analysis. Watch mode sets it
	// and invalidates files as they change.
	KeepMapped bool

	// Progress, if set, is called from the collecting goroutine after each
	// file completes.
	Progress ProgressCallback
}

// ProgressCallback receives the number of finished files, the total
// discovered and the file just finished.
type ProgressCallback func(done, total int, filePath string)

// ScanStats describes one codebase scan.
type ScanStats struct {
	FilesDiscovered int
	FilesAnalyzed   int
	FilesFailed     int
	// FilesSkipped were discovered but never submitted because the scan
	// was cancelled.
	FilesSkipped int
	CacheHits    int
	WorkerCount  int

	Errors    []FileError
	Cancelled bool

	StartTime       time.Time
	EndTime         time.Time
	DiscoveryTimeMs int64
	AnalysisTimeMs  int64
	TotalTimeMs     int64
	FilesPerSecond  float64
}

// Add folds another scan's counters into s. Times are not summed.
func (s *ScanStats) Add(o ScanStats) {
	s.FilesDiscovered += o.FilesDiscovered
	s.FilesAnalyzed += o.FilesAnalyzed
	s.FilesFailed += o.FilesFailed
	s.FilesSkipped += o.FilesSkipped
	s.CacheHits += o.CacheHits
	s.Errors = append(s.Errors, o.Errors...)
	s.Cancelled = s.Cancelled || o.Cancelled
}

// FileError records a file that contributed nothing to the aggregate.
type FileError struct {
	FilePath string
	Err      error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.FilePath, e.Err)
}

func (e FileError) Unwrap() error { return e.Err }

// CodebaseReport is the result of scanning one codebase.
type CodebaseReport struct {
	Name      string
	Root      string
	Aggregate *usage.AggregateResult
	Stats     ScanStats
}

// ScanReport covers several codebases. Global is the fold of every
// codebase aggregate.
type ScanReport struct {
	Codebases []*CodebaseReport
	Global    *usage.AggregateResult
	Stats     ScanStats
}
