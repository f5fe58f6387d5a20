package parser

import (
	"strings"

	"github.com/aledsdavies/webpipe/pkgs/ast"
	"github.com/aledsdavies/webpipe/pkgs/lexer"
)

// Comparison operators of test conditions. Multi-word operators come before
// their prefixes so "is not" is never read as "is".
var comparisons = []string{
	"does not equal",
	"does not contain",
	"does not match",
	"is greater than",
	"is less than",
	"is not",
	"greater than",
	"less than",
	"starts with",
	"ends with",
	"equals",
	"contains",
	"matches",
	"includes",
	"is",
}

func (p *parser) parseDescribe() (ast.Describe, bool) {
	start := p.cur.Pos()
	if !p.cur.ConsumeKeyword("describe") || !p.requireInlineSpace() {
		return ast.Describe{}, false
	}
	name, ok := p.cur.ConsumeQuoted()
	if !ok {
		return ast.Describe{}, false
	}
	d := ast.Describe{Name: name, Line: p.cur.Line(start)}
	end := p.cur.Pos()
	for {
		m := p.mark()
		p.skipSpaces()
		if let, ok := attempt(p, p.parseLet); ok {
			d.Lets = append(d.Lets, let)
		} else if mock, ok := attempt(p, p.parseMock("with")); ok {
			d.Mocks = append(d.Mocks, mock)
		} else if it, ok := attempt(p, p.parseIt); ok {
			d.Tests = append(d.Tests, it)
		} else {
			p.reset(m)
			break
		}
		end = p.cur.Pos()
	}
	d.Span = ast.Span{Start: start, End: end}
	return d, true
}

func (p *parser) parseLet() (ast.LetBinding, bool) {
	start := p.cur.Pos()
	if !p.cur.ConsumeKeyword("let") || !p.requireInlineSpace() {
		return ast.LetBinding{}, false
	}
	name := p.cur.ConsumeIdent()
	if name == "" || !p.expect("=") {
		return ast.LetBinding{}, false
	}
	p.cur.SkipInlineSpaces()
	value, ok := p.parseLetLiteral()
	if !ok {
		return ast.LetBinding{}, false
	}
	return ast.LetBinding{Name: name, Value: value, Span: p.span(start)}, true
}

// parseMock parses "LEAD mock TARGET returning `json`" where LEAD is "with"
// or "and". Targets may span several words, as in "query users".
func (p *parser) parseMock(lead string) func() (ast.Mock, bool) {
	return func() (ast.Mock, bool) {
		start := p.cur.Pos()
		if !p.cur.ConsumeKeyword(lead) || !p.requireInlineSpace() ||
			!p.cur.ConsumeKeyword("mock") || !p.requireInlineSpace() {
			return ast.Mock{}, false
		}
		target, ok := p.words("returning")
		if !ok {
			return ast.Mock{}, false
		}
		p.cur.SkipInlineSpaces()
		returns, ok := p.cur.ConsumeBacktick()
		if !ok {
			return ast.Mock{}, false
		}
		return ast.Mock{Target: target, Returns: returns, Span: p.span(start)}, true
	}
}

// words reads space-separated words up to the keyword terminator, which is
// consumed. The words are joined by single spaces.
func (p *parser) words(terminator string) (string, bool) {
	var ws []string
	for {
		p.cur.SkipInlineSpaces()
		if p.cur.ConsumeKeyword(terminator) {
			break
		}
		if p.cur.AtLineEnd() {
			return "", false
		}
		ws = append(ws, p.cur.ConsumeWhile(lexer.IsNotSpace))
	}
	if len(ws) == 0 {
		return "", false
	}
	return strings.Join(ws, " "), true
}

func (p *parser) parseIt() (ast.It, bool) {
	start := p.cur.Pos()
	if !p.cur.ConsumeKeyword("it") || !p.requireInlineSpace() {
		return ast.It{}, false
	}
	name, ok := p.cur.ConsumeQuoted()
	if !ok {
		return ast.It{}, false
	}
	it := ast.It{Name: name}

	// Setup before the mandatory when clause
	for {
		m := p.mark()
		p.skipSpaces()
		if mock, ok := p.parseItMock(); ok {
			it.Mocks = append(it.Mocks, mock)
		} else if let, ok := attempt(p, p.parseLet); ok {
			it.Lets = append(it.Lets, let)
		} else {
			p.reset(m)
			break
		}
	}

	p.skipSpaces()
	when, ok := attempt(p, p.parseWhen)
	if !ok {
		return ast.It{}, false
	}
	it.When = when

	// Fixtures and late mocks
	for {
		m := p.mark()
		p.skipSpaces()
		if mock, ok := p.parseItMock(); ok {
			it.Mocks = append(it.Mocks, mock)
		} else if !p.parseFixture(&it) {
			p.reset(m)
			break
		}
	}

	for {
		m := p.mark()
		p.skipSpaces()
		cond, ok := attempt(p, p.parseCondition)
		if !ok {
			p.reset(m)
			break
		}
		it.Conditions = append(it.Conditions, cond)
	}
	it.Span = p.span(start)
	return it, true
}

func (p *parser) parseItMock() (ast.Mock, bool) {
	if mock, ok := attempt(p, p.parseMock("with")); ok {
		return mock, true
	}
	return attempt(p, p.parseMock("and"))
}

func (p *parser) parseWhen() (ast.When, bool) {
	if !p.cur.ConsumeKeyword("when") || !p.requireInlineSpace() {
		return nil, false
	}
	switch {
	case p.cur.ConsumeKeyword("calling"):
		if !p.requireInlineSpace() {
			return nil, false
		}
		method := p.cur.ConsumeIdent()
		if !ast.IsMethod(method) || !p.requireInlineSpace() {
			return nil, false
		}
		path := p.cur.ConsumeWhile(lexer.IsNotSpace)
		if path == "" {
			return nil, false
		}
		return &ast.CallingRoute{Method: method, Path: path}, true

	case p.cur.ConsumeKeyword("executing"):
		if !p.requireInlineSpace() {
			return nil, false
		}
		if p.cur.ConsumeKeyword("pipeline") {
			if !p.requireInlineSpace() {
				return nil, false
			}
			name := p.cur.ConsumeIdent()
			return &ast.ExecutingPipeline{Name: name}, name != ""
		}
		if p.cur.ConsumeKeyword("variable") {
			if !p.requireInlineSpace() {
				return nil, false
			}
			varType := p.cur.ConsumeIdent()
			if varType == "" || !p.requireInlineSpace() {
				return nil, false
			}
			name := p.cur.ConsumeIdent()
			return &ast.ExecutingVariable{VarType: varType, Name: name}, name != ""
		}
	}
	return nil, false
}

// parseFixture parses "with KIND `value`" or "and with KIND `value`" into it.
// A fixture kind given twice keeps the last value.
func (p *parser) parseFixture(it *ast.It) bool {
	m := p.mark()
	if p.cur.ConsumeKeyword("and") && !p.requireInlineSpace() {
		p.reset(m)
		return false
	}
	if !p.cur.ConsumeKeyword("with") || !p.requireInlineSpace() {
		p.reset(m)
		return false
	}
	var slot **string
	switch {
	case p.cur.ConsumeKeyword("input"):
		slot = &it.Input
	case p.cur.ConsumeKeyword("body"):
		slot = &it.Body
	case p.cur.ConsumeKeyword("headers"):
		slot = &it.Headers
	case p.cur.ConsumeKeyword("cookies"):
		slot = &it.Cookies
	default:
		p.reset(m)
		return false
	}
	p.cur.SkipInlineSpaces()
	value, ok := p.cur.ConsumeBacktick()
	if !ok {
		p.reset(m)
		return false
	}
	*slot = &value
	return true
}

func (p *parser) parseCondition() (ast.Condition, bool) {
	start := p.cur.Pos()
	if !(p.cur.ConsumeKeyword("then") || p.cur.ConsumeKeyword("and")) || !p.requireInlineSpace() {
		return nil, false
	}
	rules := []func(int) (ast.Condition, bool){
		p.parseHeaderCondition,
		p.parseCallCondition,
		p.parseSelectorCondition,
		p.parseFieldCondition,
	}
	for _, rule := range rules {
		if cond, ok := attempt(p, func() (ast.Condition, bool) { return rule(start) }); ok {
			return cond, true
		}
	}
	return nil, false
}

func (p *parser) parseHeaderCondition(start int) (ast.Condition, bool) {
	if !p.cur.ConsumeKeyword("header") || !p.requireInlineSpace() {
		return nil, false
	}
	header, ok := p.cur.ConsumeQuoted()
	if !ok {
		return nil, false
	}
	op, value, ok := p.comparisonAndValue()
	if !ok {
		return nil, false
	}
	return &ast.HeaderCondition{Header: header, Comparison: op, Value: value, Span: p.span(start)}, true
}

func (p *parser) parseCallCondition(start int) (ast.Condition, bool) {
	if !p.cur.ConsumeKeyword("call") || !p.requireInlineSpace() {
		return nil, false
	}
	target, ok := p.words("with")
	if !ok {
		return nil, false
	}
	p.cur.SkipInlineSpaces()
	with, ok := p.cur.ConsumeBacktick()
	if !ok {
		return nil, false
	}
	return &ast.CallCondition{Target: target, With: with, Span: p.span(start)}, true
}

func (p *parser) parseSelectorCondition(start int) (ast.Condition, bool) {
	if !p.cur.ConsumeKeyword("selector") || !p.requireInlineSpace() {
		return nil, false
	}
	selector, ok := p.cur.ConsumeBacktick()
	if !ok || !p.requireInlineSpace() {
		return nil, false
	}
	cond := &ast.SelectorCondition{Selector: selector}
	switch {
	case p.cur.ConsumeKeyword("exists"):
		cond.Check = ast.SelectorExists
	case p.consumePhrase("does not exist"):
		cond.Check = ast.SelectorExists
		cond.Negated = true
	case p.cur.ConsumeKeyword("text"):
		cond.Check = ast.SelectorText
		cond.Comparison, cond.Value, ok = p.comparisonAndValue()
	case p.cur.ConsumeKeyword("count"):
		cond.Check = ast.SelectorCount
		cond.Comparison, cond.Value, ok = p.comparisonAndValue()
	case p.cur.ConsumeKeyword("attribute"):
		cond.Check = ast.SelectorAttribute
		if !p.requireInlineSpace() {
			return nil, false
		}
		if cond.Attribute, ok = p.cur.ConsumeQuoted(); !ok {
			return nil, false
		}
		cond.Comparison, cond.Value, ok = p.comparisonAndValue()
	default:
		return nil, false
	}
	if !ok {
		return nil, false
	}
	cond.Span = p.span(start)
	return cond, true
}

func (p *parser) parseFieldCondition(start int) (ast.Condition, bool) {
	if ch := p.cur.Peek(0); ch == '`' || ch == '"' {
		return nil, false
	}
	field := p.cur.ConsumeWhile(lexer.IsNotSpace)
	if field == "" {
		return nil, false
	}
	cond := &ast.FieldCondition{Field: field}

	m := p.mark()
	p.cur.SkipInlineSpaces()
	if p.cur.Peek(0) == '`' {
		jq, ok := p.cur.ConsumeBacktick()
		if !ok {
			return nil, false
		}
		cond.JqExpr = &jq
	} else {
		p.reset(m)
	}

	op, value, ok := p.comparisonAndValue()
	if !ok {
		return nil, false
	}
	cond.Comparison, cond.Value = op, value
	cond.Span = p.span(start)
	return cond, true
}

// comparisonAndValue parses " OP VALUE"
func (p *parser) comparisonAndValue() (string, ast.Literal, bool) {
	if !p.requireInlineSpace() {
		return "", ast.Literal{}, false
	}
	op := ""
	for _, c := range comparisons {
		if p.consumePhrase(c) {
			op = c
			break
		}
	}
	if op == "" || !p.requireInlineSpace() {
		return "", ast.Literal{}, false
	}
	value, ok := p.parseLiteral()
	return op, value, ok
}

// consumePhrase consumes a space-separated phrase that must end at a word
// boundary.
func (p *parser) consumePhrase(phrase string) bool {
	if !p.cur.MatchPrefix(phrase) || lexer.IsIdentChar(p.cur.Peek(len(phrase))) {
		return false
	}
	p.cur.Advance(len(phrase))
	return true
}

// parseLiteral reads a backtick, quoted or bare value
func (p *parser) parseLiteral() (ast.Literal, bool) {
	switch p.cur.Peek(0) {
	case '`':
		s, ok := p.cur.ConsumeBacktick()
		return ast.Literal{Value: s, Format: ast.LiteralBacktick}, ok
	case '"':
		s, ok := p.cur.ConsumeQuoted()
		return ast.Literal{Value: s, Format: ast.LiteralQuoted}, ok
	}
	if p.cur.AtComment() {
		return ast.Literal{}, false
	}
	s := p.cur.ConsumeWhile(lexer.IsNotSpace)
	return ast.Literal{Value: s, Format: ast.LiteralBare}, s != ""
}

// parseLetLiteral is parseLiteral restricted to null, booleans and numbers
// when the value is bare.
func (p *parser) parseLetLiteral() (ast.Literal, bool) {
	lit, ok := p.parseLiteral()
	if !ok {
		return ast.Literal{}, false
	}
	if lit.Format == ast.LiteralBare {
		switch lit.Value {
		case "null", "true", "false":
		default:
			if !isNumber(lit.Value) {
				return ast.Literal{}, false
			}
		}
	}
	return lit, true
}

// isNumber matches -?digits[.digits]
func isNumber(s string) bool {
	s = strings.TrimPrefix(s, "-")
	intPart, frac, hasFrac := strings.Cut(s, ".")
	if !allDigits(intPart) {
		return false
	}
	return !hasFrac || allDigits(frac)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !lexer.IsDigit(s[i]) {
			return false
		}
	}
	return true
}
