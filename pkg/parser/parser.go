// Package parser manages pools of tree-sitter parsers for JavaScript,
// TypeScript and TSX sources.
package parser

import (
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	ts "github.com/tree-sitter/go-tree-sitter"
	ts_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	ts_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/gnana997/uiusage/pkg/util"
)

type grammarKey struct {
	lang  Language
	isTSX bool
}

func (k grammarKey) String() string {
	if k.isTSX {
		return "tsx"
	}
	return k.lang.String()
}

// ParserManager owns one lazily created parser pool per grammar.
// It is safe for concurrent use. Callers own returned trees and must
// Close them.
//
//	pm := parser.NewParserManager(logger, 0)
//	defer pm.Close()
//	tree, err := pm.ParseFile(src, "App.tsx")
type ParserManager struct {
	mu       sync.RWMutex
	pools    map[grammarKey]*grammarPool
	poolSize int
	parses   int
	logger   *slog.Logger
}

// NewParserManager creates a manager. poolSize <= 0 uses
// util.GetOptimalPoolSize so parsers never starve the scan workers.
func NewParserManager(logger *slog.Logger, poolSize int) *ParserManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParserManager{
		pools:    make(map[grammarKey]*grammarPool),
		poolSize: util.GetOptimalPoolSizeWithOverride(poolSize),
		logger:   logger,
	}
}

// Parse parses source with the given grammar. Trees containing syntax
// errors are still returned; partial trees are useful.
func (pm *ParserManager) Parse(source []byte, lang Language, isTSX bool) (*ts.Tree, error) {
	if lang == LanguageUnknown {
		return nil, fmt.Errorf("cannot parse unknown language")
	}
	key := grammarKey{lang: lang, isTSX: isTSX && lang == LanguageTypeScript}

	pool, err := pm.pool(key)
	if err != nil {
		return nil, err
	}
	p, err := pool.acquire()
	if err != nil {
		return nil, err
	}
	tree := p.Parse(source, nil)
	pool.release(p)

	pm.mu.Lock()
	pm.parses++
	pm.mu.Unlock()

	if tree == nil {
		return nil, fmt.Errorf("parse %s: no tree returned", key)
	}
	if tree.RootNode().HasError() {
		pm.logger.Debug("parse tree contains errors", "grammar", key.String())
	}
	return tree, nil
}

// ParseFile picks the grammar from the file extension.
func (pm *ParserManager) ParseFile(source []byte, filePath string) (*ts.Tree, error) {
	lang := DetectLanguage(filePath)
	if lang == LanguageUnknown {
		return nil, fmt.Errorf("unsupported file extension: %s", filePath)
	}
	return pm.Parse(source, lang, IsTSXFile(filePath))
}

// Close releases every pooled parser. The manager is unusable afterwards.
func (pm *ParserManager) Close() error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	closed := 0
	for _, pool := range pm.pools {
		closed += pool.close()
	}
	pm.pools = make(map[grammarKey]*grammarPool)
	pm.logger.Debug("parser manager closed", "parsers_closed", closed, "parses", pm.parses)
	return nil
}

// ParserStats reports pool usage.
type ParserStats struct {
	ParsersCreated int
	ParsesCalled   int
}

// GetStats returns pool usage counters.
func (pm *ParserManager) GetStats() ParserStats {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	created := 0
	for _, pool := range pm.pools {
		created += pool.size()
	}
	return ParserStats{ParsersCreated: created, ParsesCalled: pm.parses}
}

func (pm *ParserManager) pool(key grammarKey) (*grammarPool, error) {
	pm.mu.RLock()
	pool, ok := pm.pools[key]
	pm.mu.RUnlock()
	if ok {
		return pool, nil
	}

	pm.mu.Lock()
	defer pm.mu.Unlock()
	if pool, ok = pm.pools[key]; ok {
		return pool, nil
	}
	grammar, err := grammarFor(key)
	if err != nil {
		return nil, err
	}
	pool = newGrammarPool(key, grammar, pm.poolSize, pm.logger)
	pm.pools[key] = pool
	return pool, nil
}

func grammarFor(key grammarKey) (unsafe.Pointer, error) {
	switch key.lang {
	case LanguageTypeScript:
		if key.isTSX {
			return ts_typescript.LanguageTSX(), nil
		}
		return ts_typescript.LanguageTypescript(), nil
	case LanguageJavaScript:
		return ts_javascript.Language(), nil
	default:
		return nil, fmt.Errorf("unsupported language: %s", key.lang)
	}
}
