// Package parser turns WebPipe source into an ast.Program.
//
// The parser is a backtracking recursive-descent parser over a byte cursor.
// Every grammar rule returns (T, bool); false means the rule did not match,
// and attempt rewinds the cursor and any diagnostics the rule recorded. Only
// non-fatal findings are reported, as diagnostics; parsing never fails.
package parser

import (
	"log/slog"
	"strings"
	"time"

	"github.com/aledsdavies/webpipe/pkgs/ast"
	"github.com/aledsdavies/webpipe/pkgs/diag"
	"github.com/aledsdavies/webpipe/pkgs/lexer"
)

// Result is everything a single parse produces
type Result struct {
	Program     *ast.Program
	Diagnostics []diag.Diagnostic
	// PipelineRanges maps named pipeline names to their declaration span
	PipelineRanges map[string]ast.Span
	// VariableRanges maps "type::name" to the variable's declaration span
	VariableRanges map[string]ast.Span
	// TestLets lists every let binding inside describe blocks
	TestLets []ast.LetVariable
	// BlockComments are comments found inside declarations, between steps
	// or test clauses. The tree has no place for them, so formatting would
	// drop them.
	BlockComments []ast.Comment
	// Telemetry is nil unless a telemetry option was given
	Telemetry *ParseTelemetry
}

// Parse parses src into a Program, discarding diagnostics
func Parse(src string, opts ...ParserOpt) *ast.Program {
	return ParseSource(src, opts...).Program
}

// ParseWithDiagnostics parses src and returns the program together with its
// diagnostics sorted by start offset.
func ParseWithDiagnostics(src string, opts ...ParserOpt) (*ast.Program, []diag.Diagnostic) {
	res := ParseSource(src, opts...)
	return res.Program, res.Diagnostics
}

// PipelineRanges returns the span of every named pipeline declaration
func PipelineRanges(src string) map[string]ast.Span {
	return ParseSource(src).PipelineRanges
}

// VariableRanges returns the span of every variable declaration keyed by
// "type::name"
func VariableRanges(src string) map[string]ast.Span {
	return ParseSource(src).VariableRanges
}

// TestLetVariables returns the let bindings declared in describe blocks
func TestLetVariables(src string) []ast.LetVariable {
	return ParseSource(src).TestLets
}

// ParseSource runs a full parse and returns the program, its diagnostics and
// the position indexes built along the way.
func ParseSource(src string, opts ...ParserOpt) *Result {
	config := newConfig(opts)

	var start time.Time
	if config.telemetry == TelemetryTiming {
		start = time.Now()
	}

	p := newParser(src, config)
	prog := p.parseProgram()

	diagnostics := p.diags.Items()
	diag.Sort(diagnostics)

	res := &Result{
		Program:        prog,
		Diagnostics:    diagnostics,
		PipelineRanges: p.pipelineRanges,
		VariableRanges: p.variableRanges,
		TestLets:       p.testLets,
		BlockComments:  p.blockComments(prog),
	}
	if config.telemetry != TelemetryOff {
		t := p.stats
		if config.telemetry == TelemetryTiming {
			t.ParseTime = time.Since(start)
		}
		res.Telemetry = &t
	}
	return res
}

// parser holds the state of one parse. It is never shared between parses.
type parser struct {
	cur    *lexer.Cursor
	diags  diag.Sink
	config *ParserConfig
	logger *slog.Logger

	depth        int
	depthTripped bool
	depthAt      int

	pipelineRanges map[string]ast.Span
	variableRanges map[string]ast.Span
	testLets       []ast.LetVariable
	itemEnds       []int

	// skipped holds every comment passed over by skipSpaces, by offset
	skipped map[int]ast.Comment
	// failed remembers step rules that did not match at an offset and depth
	failed map[stepKey]bool

	stats ParseTelemetry
}

func newParser(src string, config *ParserConfig) *parser {
	return &parser{
		cur:            lexer.NewCursor(src),
		config:         config,
		logger:         config.logger,
		pipelineRanges: make(map[string]ast.Span),
		variableRanges: make(map[string]ast.Span),
		skipped:        make(map[int]ast.Comment),
		failed:         make(map[stepKey]bool),
	}
}

// mark is a restorable parser position
type mark struct {
	pos   int
	diags int
}

func (p *parser) mark() mark {
	return mark{pos: p.cur.Pos(), diags: p.diags.Len()}
}

func (p *parser) reset(m mark) {
	p.cur.SetPos(m.pos)
	p.diags.Truncate(m.diags)
}

// attempt runs rule and rewinds to the starting mark when it does not match
func attempt[T any](p *parser, rule func() (T, bool)) (T, bool) {
	m := p.mark()
	v, ok := rule()
	if !ok {
		p.reset(m)
		p.stats.Backtracks++
	}
	return v, ok
}

// enter claims one nesting level. It reports false, without claiming, once
// the configured limit is reached; the trip is remembered and reported once
// when the parse finishes.
func (p *parser) enter() bool {
	if p.depth >= p.config.maxDepth {
		if !p.depthTripped {
			p.depthTripped = true
			p.depthAt = p.cur.Pos()
			p.logger.Debug("nesting limit reached", "offset", p.depthAt, "max", p.config.maxDepth)
		}
		return false
	}
	p.depth++
	return true
}

func (p *parser) exit() {
	p.depth--
}

// requireInlineSpace consumes at least one space or tab
func (p *parser) requireInlineSpace() bool {
	return p.cur.ConsumeWhile(lexer.IsInlineSpace) != ""
}

// expect skips inline spaces and consumes s
func (p *parser) expect(s string) bool {
	p.cur.SkipInlineSpaces()
	return p.cur.Consume(s)
}

// inlineComment consumes a trailing comment on the current line, returning
// its text with the marker. Nothing is consumed when there is none.
func (p *parser) inlineComment() string {
	m := p.mark()
	p.cur.SkipInlineSpaces()
	if p.cur.AtComment() {
		return strings.TrimRight(p.cur.ConsumeToLineEnd(), " \t\r")
	}
	p.reset(m)
	return ""
}

func (p *parser) span(start int) ast.Span {
	return ast.Span{Start: start, End: p.cur.Pos()}
}
