package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gnana997/uiusage/pkg/config"
	"github.com/gnana997/uiusage/pkg/usage"
	"github.com/gnana997/uiusage/pkg/util"
)

// Scanner analyzes codebases with one engine. A file that cannot be read
// or analyzed is recorded in ScanStats.Errors and skipped; it never aborts
// the scan.
type Scanner struct {
	engine usage.Engine
	files  util.FileCache
	cache  *ResultCache
	opts   Options
	logger *slog.Logger
}

// New creates a Scanner. Close releases its file cache.
func New(engine usage.Engine, opts Options, logger *slog.Logger) (*Scanner, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cache, err := NewResultCache(opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create result cache: %w", err)
	}
	fileCfg := util.DefaultFileCacheConfig()
	fileCfg.MaxFiles = 0
	fileCfg.Logger = logger
	if opts.MaxMemoryMB > 0 {
		fileCfg.MaxMemoryMB = opts.MaxMemoryMB
	}
	if opts.MaxFileBytes > 0 {
		fileCfg.MaxFileBytes = opts.MaxFileBytes
	}

	return &Scanner{
		engine: engine,
		files:  util.NewFileCache(fileCfg),
		cache:  cache,
		opts:   opts,
		logger: logger,
	}, nil
}

// OptionsFromConfig maps the scan section of a config file.
func OptionsFromConfig(s config.Scan) Options {
	return Options{
		Workers:      s.Workers,
		CacheSize:    s.CacheSize,
		MaxMemoryMB:  s.MaxMemoryMB,
		MaxFileBytes: int64(s.MaxFileKB) * 1024,
	}
}

// Engine returns the engine the scanner analyzes with.
func (s *Scanner) Engine() usage.Engine { return s.engine }

// Close releases mapped files.
func (s *Scanner) Close() error {
	s.logger.Debug("scanner closed", "result_cache", s.cache.Stats())
	return s.files.Close()
}

// AnalyzeFile analyzes a single file outside a scan.
func (s *Scanner) AnalyzeFile(filePath string) (*usage.FileAnalysisResult, error) {
	res, _, err := s.processFile(filePath)
	return res, err
}

// Invalidate forgets a file's mapping after it changed on disk.
func (s *Scanner) Invalidate(filePath string) {
	s.files.Invalidate(filePath)
}

func (s *Scanner) processFile(filePath string) (*usage.FileAnalysisResult, bool, error) {
	content, err := s.files.Content(filePath)
	if !s.opts.KeepMapped {
		defer s.files.Release(filePath)
	}
	if err != nil {
		return nil, false, fmt.Errorf("read file: %w", err)
	}

	if res, ok := s.cache.Get(s.engine.Name(), filePath, content); ok {
		return res, true, nil
	}
	res, err := s.engine.Analyze(filePath, content)
	if err != nil {
		return nil, false, fmt.Errorf("%s analysis: %w", s.engine.Name(), err)
	}
	s.cache.Put(s.engine.Name(), filePath, content, res)
	return res, false, nil
}

// AnalyzeFiles analyzes files in parallel and folds the results. When ctx
// is cancelled no further files are submitted; results already produced
// are kept and stats.Cancelled is set.
func (s *Scanner) AnalyzeFiles(ctx context.Context, files []string) (*usage.AggregateResult, ScanStats) {
	agg := usage.NewAggregate()
	stats := s.AnalyzeEach(ctx, files, func(_ string, res *usage.FileAnalysisResult) {
		agg.Add(res)
	})
	return agg, stats
}

// AnalyzeEach is AnalyzeFiles for callers that keep per-file results.
// fn is called from a single goroutine for every successfully analyzed
// file.
func (s *Scanner) AnalyzeEach(ctx context.Context, files []string, fn func(filePath string, res *usage.FileAnalysisResult)) ScanStats {
	stats := ScanStats{FilesDiscovered: len(files), StartTime: time.Now()}
	if len(files) == 0 {
		stats.EndTime = stats.StartTime
		return stats
	}

	pool := NewWorkerPool(util.WorkerCount(s.opts.Workers, len(files)), s, s.logger)
	stats.WorkerCount = pool.numWorkers
	pool.Start()

	submitted := make(chan int, 1)
	go func() {
		n := 0
		defer func() {
			pool.Stop()
			submitted <- n
		}()
		for _, f := range files {
			if ctx.Err() != nil {
				return
			}
			if err := pool.Submit(FileJob{FilePath: f}); err != nil {
				return
			}
			n++
		}
	}()

	results, errs := pool.Results(), pool.Errors()
	done := 0
	for results != nil || errs != nil {
		select {
		case r, ok := <-results:
			if !ok {
				results = nil
				continue
			}
			fn(r.FilePath, r.Result)
			stats.FilesAnalyzed++
			if r.Cached {
				stats.CacheHits++
			}
			done++
			s.progress(done, len(files), r.FilePath)
		case fe, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if errors.Is(fe.Err, util.ErrFileTooLarge) {
				s.logger.Debug("skipping file", "file", fe.FilePath, "error", fe.Err)
			} else {
				s.logger.Warn("skipping file", "file", fe.FilePath, "error", fe.Err)
			}
			stats.Errors = append(stats.Errors, fe)
			stats.FilesFailed++
			done++
			s.progress(done, len(files), fe.FilePath)
		}
	}

	stats.FilesSkipped = len(files) - <-submitted
	s.logger.Debug("worker pool drained", "pool", pool.GetStats())
	stats.Cancelled = stats.FilesSkipped > 0
	stats.EndTime = time.Now()
	stats.AnalysisTimeMs = stats.EndTime.Sub(stats.StartTime).Milliseconds()
	if secs := stats.EndTime.Sub(stats.StartTime).Seconds(); secs > 0 {
		stats.FilesPerSecond = float64(stats.FilesAnalyzed) / secs
	}
	return stats
}

func (s *Scanner) progress(done, total int, filePath string) {
	if s.opts.Progress != nil {
		s.opts.Progress(done, total, filePath)
	}
}

// ScanCodebase discovers and analyzes one codebase. A codebase without
// source files yields an empty report together with ErrNoFiles.
func (s *Scanner) ScanCodebase(ctx context.Context, cb config.Codebase) (*CodebaseReport, error) {
	start := time.Now()
	s.logger.Info("scanning codebase", "codebase", cb.Name, "root", cb.Root, "engine", s.engine.Name())

	matcher, err := NewMatcher(cb.Include, cb.Exclude)
	if err != nil {
		return nil, fmt.Errorf("codebase %s: %w", cb.Name, err)
	}
	files, err := DiscoverFiles(cb.Root, matcher)
	if err != nil {
		return nil, fmt.Errorf("codebase %s: %w", cb.Name, err)
	}
	discovery := time.Since(start).Milliseconds()
	s.logger.Debug("file discovery complete", "codebase", cb.Name, "files_found", len(files), "duration_ms", discovery)

	agg, stats := s.AnalyzeFiles(ctx, files)
	stats.StartTime = start
	stats.DiscoveryTimeMs = discovery
	stats.TotalTimeMs = time.Since(start).Milliseconds()

	report := &CodebaseReport{Name: cb.Name, Root: cb.Root, Aggregate: agg, Stats: stats}
	if len(files) == 0 {
		s.logger.Warn("no files found matching criteria", "codebase", cb.Name, "root", cb.Root)
		return report, fmt.Errorf("codebase %s: %w", cb.Name, ErrNoFiles)
	}

	s.logger.Info("codebase scan complete",
		"codebase", cb.Name,
		"files_analyzed", stats.FilesAnalyzed,
		"files_failed", stats.FilesFailed,
		"cache_hits", stats.CacheHits,
		"cancelled", stats.Cancelled,
		"duration_ms", stats.TotalTimeMs,
		"files_per_second", fmt.Sprintf("%.1f", stats.FilesPerSecond))
	return report, nil
}

// ScanAll scans codebases in order and folds them into a global
// aggregate. Empty codebases are kept in the report; cancellation stops
// before the next codebase.
func (s *Scanner) ScanAll(ctx context.Context, codebases []config.Codebase) (*ScanReport, error) {
	report := &ScanReport{Global: usage.NewAggregate()}
	report.Stats.StartTime = time.Now()

	for _, cb := range codebases {
		if ctx.Err() != nil {
			report.Stats.Cancelled = true
			break
		}
		cr, err := s.ScanCodebase(ctx, cb)
		if err != nil && !errors.Is(err, ErrNoFiles) {
			return nil, err
		}
		report.Codebases = append(report.Codebases, cr)
		report.Global.Merge(cr.Aggregate)
		report.Stats.Add(cr.Stats)
	}

	report.Stats.EndTime = time.Now()
	report.Stats.TotalTimeMs = report.Stats.EndTime.Sub(report.Stats.StartTime).Milliseconds()
	return report, nil
}
