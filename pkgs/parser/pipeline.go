package parser

import (
	"strconv"
	"strings"

	"github.com/aledsdavies/webpipe/pkgs/ast"
	"github.com/aledsdavies/webpipe/pkgs/diag"
	"github.com/aledsdavies/webpipe/pkgs/lexer"
)

// Keywords that end a nested pipeline. Entries with a trailing colon match
// as plain prefixes; the rest must stand alone as words.
var (
	ifConditionStops = []string{"then:"}
	ifThenStops      = []string{"else:", "end"}
	blockStops       = []string{"end"}
	caseStops        = []string{"case", "default:", "end"}
)

// parsePipeline parses one or more "|> step" entries. It stops before the
// first stop keyword or the first line that does not begin a step.
func (p *parser) parsePipeline(stops ...string) (ast.Pipeline, bool) {
	if !p.enter() {
		return ast.Pipeline{}, false
	}
	defer p.exit()

	var pl ast.Pipeline
	for {
		m := p.mark()
		p.skipSpaces()
		if p.atStop(stops) || !p.cur.MatchPrefix("|>") {
			p.reset(m)
			break
		}
		step, ok := attempt(p, p.parseStep)
		if !ok {
			p.reset(m)
			break
		}
		if len(pl.Steps) == 0 {
			pl.Span.Start = step.Position().Start
		}
		pl.Steps = append(pl.Steps, step)
		pl.Span.End = step.Position().End
	}
	if len(pl.Steps) == 0 {
		return ast.Pipeline{}, false
	}
	return pl, true
}

func (p *parser) atStop(stops []string) bool {
	for _, s := range stops {
		if strings.HasSuffix(s, ":") {
			if p.cur.MatchPrefix(s) {
				return true
			}
		} else if p.cur.MatchKeyword(s) {
			return true
		}
	}
	return false
}

// stepRules are tried in order after "|>"; the regular step is the fallback
func (p *parser) stepRules() []func(int) (ast.Step, bool) {
	return []func(int) (ast.Step, bool){
		p.parseResultStep,
		p.parseIfStep,
		p.parseDispatchStep,
		p.parseForeachStep,
		p.parseRegularStep,
	}
}

// stepKey identifies one step rule tried at an offset and nesting depth
type stepKey struct {
	rule, pos, depth int
}

// parseStep tries each step rule in turn. A rule that already failed at the
// same offset and depth is skipped.
func (p *parser) parseStep() (ast.Step, bool) {
	start := p.cur.Pos()
	if !p.cur.Consume("|>") {
		return nil, false
	}
	p.cur.SkipInlineSpaces()
	for i, rule := range p.stepRules() {
		key := stepKey{rule: i, pos: p.cur.Pos(), depth: p.depth}
		if p.failed[key] {
			continue
		}
		step, ok := attempt(p, func() (ast.Step, bool) { return rule(start) })
		if ok {
			p.stats.Steps++
			return step, true
		}
		p.failed[key] = true
	}
	return nil, false
}

// consumeEnd consumes an optional closing "end"
func (p *parser) consumeEnd() {
	m := p.mark()
	p.skipSpaces()
	if !p.cur.ConsumeKeyword("end") {
		p.reset(m)
	}
}

func (p *parser) parseRegularStep(start int) (ast.Step, bool) {
	name := p.cur.ConsumeIdent()
	if name == "" {
		return nil, false
	}
	step := &ast.RegularStep{Name: name}

	if open := p.cur.Peek(0); open == '(' || open == '[' {
		args, end, ok := splitArgs(p.cur.Source(), p.cur.Pos())
		if !ok {
			return nil, false
		}
		step.Args = args
		p.cur.SetPos(end)
	}

	m := p.mark()
	if p.expect(":") {
		p.cur.SkipInlineSpaces()
		var ok bool
		step.Config, step.ConfigType, ok = p.parseStepConfig()
		if !ok {
			return nil, false
		}
	} else {
		p.reset(m)
	}

	m = p.mark()
	p.cur.SkipInlineSpaces()
	if ch := p.cur.Peek(0); ch == '@' || ch == '(' {
		if cond, ok := attempt(p, p.parseTagExpr); ok {
			step.Condition = cond
		} else {
			p.reset(m)
		}
	} else {
		p.reset(m)
	}

	if name == "join" && step.ConfigType != ast.ConfigNone {
		step.JoinTargets = joinTargets(step.Config)
	}
	step.Span = p.span(start)
	return step, true
}

func (p *parser) parseStepConfig() (string, ast.ConfigType, bool) {
	switch p.cur.Peek(0) {
	case '`':
		s, ok := p.cur.ConsumeBacktick()
		return s, ast.ConfigBacktick, ok
	case '"':
		s, ok := p.cur.ConsumeQuoted()
		return s, ast.ConfigQuoted, ok
	}
	s := p.cur.ConsumeWhile(isConfigIdentChar)
	return s, ast.ConfigIdentifier, s != ""
}

func isConfigIdentChar(ch byte) bool {
	return lexer.IsIdentChar(ch) || ch == '.'
}

func (p *parser) parseResultStep(start int) (ast.Step, bool) {
	if !p.cur.ConsumeKeyword("result") {
		return nil, false
	}
	step := &ast.ResultStep{}
	for {
		b, ok := attempt(p, p.parseResultBranch)
		if !ok {
			break
		}
		step.Branches = append(step.Branches, b)
	}
	if len(step.Branches) == 0 {
		return nil, false
	}
	step.Span = p.span(start)
	return step, true
}

func (p *parser) parseResultBranch() (ast.ResultBranch, bool) {
	p.skipSpaces()
	start := p.cur.Pos()
	name := p.cur.ConsumeIdent()
	if name == "" || !p.cur.Consume("(") {
		return ast.ResultBranch{}, false
	}
	p.cur.SkipInlineSpaces()
	codeStart := p.cur.Pos()
	digits := p.cur.ConsumeWhile(lexer.IsDigit)
	codeEnd := p.cur.Pos()
	if digits == "" || !p.expect(")") || !p.cur.Consume(":") {
		return ast.ResultBranch{}, false
	}
	code, err := strconv.Atoi(digits)
	if err != nil {
		return ast.ResultBranch{}, false
	}
	pl, ok := p.parsePipeline()
	if !ok {
		return ast.ResultBranch{}, false
	}
	if code < 100 || code > 599 {
		p.diags.Add(diag.Errorf(codeStart, codeEnd, "status code %d out of range 100-599", code))
	}
	return ast.ResultBranch{
		Type:       ast.BranchTypeFor(name),
		StatusCode: code,
		Pipeline:   pl,
		Span:       p.span(start),
	}, true
}

func (p *parser) parseIfStep(start int) (ast.Step, bool) {
	if !p.cur.ConsumeKeyword("if") {
		return nil, false
	}
	cond, ok := p.parsePipeline(ifConditionStops...)
	if !ok {
		return nil, false
	}
	p.skipSpaces()
	if !p.cur.Consume("then:") {
		return nil, false
	}
	then, ok := p.parsePipeline(ifThenStops...)
	if !ok {
		return nil, false
	}
	step := &ast.IfStep{Condition: cond, Then: then}

	m := p.mark()
	p.skipSpaces()
	if p.cur.Consume("else:") {
		els, ok := p.parsePipeline(blockStops...)
		if !ok {
			return nil, false
		}
		step.Else = &els
	} else {
		p.reset(m)
	}
	p.consumeEnd()
	step.Span = p.span(start)
	return step, true
}

func (p *parser) parseDispatchStep(start int) (ast.Step, bool) {
	if !p.cur.ConsumeKeyword("dispatch") {
		return nil, false
	}
	step := &ast.DispatchStep{}
	for {
		m := p.mark()
		p.skipSpaces()
		branchStart := p.cur.Pos()
		if !p.cur.ConsumeKeyword("case") {
			p.reset(m)
			break
		}
		p.cur.SkipInlineSpaces()
		cond, ok := attempt(p, p.parseTagExpr)
		if !ok || !p.expect(":") {
			return nil, false
		}
		pl, ok := p.parsePipeline(caseStops...)
		if !ok {
			return nil, false
		}
		step.Branches = append(step.Branches, ast.DispatchBranch{
			Condition: cond,
			Pipeline:  pl,
			Span:      p.span(branchStart),
		})
	}
	if len(step.Branches) == 0 {
		return nil, false
	}

	m := p.mark()
	p.skipSpaces()
	if p.cur.Consume("default:") {
		def, ok := p.parsePipeline(blockStops...)
		if !ok {
			return nil, false
		}
		step.Default = &def
	} else {
		p.reset(m)
	}
	p.consumeEnd()
	step.Span = p.span(start)
	return step, true
}

func (p *parser) parseForeachStep(start int) (ast.Step, bool) {
	if !p.cur.ConsumeKeyword("foreach") || !p.requireInlineSpace() {
		return nil, false
	}
	selStart := p.cur.Pos()
	for !p.cur.EOF() && p.cur.Peek(0) != '\n' && !p.cur.AtComment() {
		p.cur.Advance(1)
	}
	selector := strings.TrimSpace(p.cur.Source()[selStart:p.cur.Pos()])
	if selector == "" {
		return nil, false
	}
	pl, ok := p.parsePipeline(blockStops...)
	if !ok {
		return nil, false
	}
	p.consumeEnd()
	return &ast.ForeachStep{Selector: selector, Pipeline: pl, Span: p.span(start)}, true
}
