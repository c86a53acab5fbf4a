package parser

import (
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// grammarPool hands out tree-sitter parsers bound to one grammar.
// Parsers are created lazily up to maxSize; once that many exist, acquire
// blocks until one is released.
type grammarPool struct {
	parsers chan *ts.Parser
	grammar unsafe.Pointer
	key     grammarKey
	maxSize int

	mu      sync.Mutex
	created int

	logger *slog.Logger
}

func newGrammarPool(key grammarKey, grammar unsafe.Pointer, maxSize int, logger *slog.Logger) *grammarPool {
	return &grammarPool{
		parsers: make(chan *ts.Parser, maxSize),
		grammar: grammar,
		key:     key,
		maxSize: maxSize,
		logger:  logger,
	}
}

func (p *grammarPool) acquire() (*ts.Parser, error) {
	select {
	case parser := <-p.parsers:
		return parser, nil
	default:
	}

	p.mu.Lock()
	if p.created >= p.maxSize {
		p.mu.Unlock()
		return <-p.parsers, nil
	}
	parser := ts.NewParser()
	if err := parser.SetLanguage(ts.NewLanguage(p.grammar)); err != nil {
		p.mu.Unlock()
		parser.Close()
		return nil, fmt.Errorf("set language %s: %w", p.key, err)
	}
	p.created++
	created := p.created
	p.mu.Unlock()

	p.logger.Debug("created parser", "grammar", p.key.String(), "pool_size", created)
	return parser, nil
}

func (p *grammarPool) release(parser *ts.Parser) {
	if parser == nil {
		return
	}
	select {
	case p.parsers <- parser:
	default:
		parser.Close()
		p.logger.Warn("parser pool full, closing excess parser", "grammar", p.key.String())
	}
}

func (p *grammarPool) close() int {
	close(p.parsers)
	n := 0
	for parser := range p.parsers {
		parser.Close()
		n++
	}
	return n
}

func (p *grammarPool) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.created
}
