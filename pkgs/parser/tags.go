package parser

import (
	"strings"

	"github.com/aledsdavies/webpipe/pkgs/ast"
)

// Tag expression grammar:
//
//	expr    = or { tag }          // trailing bare tags are and-ed onto the whole expression
//	or      = and { "or" and }
//	and     = primary { "and" primary }
//	primary = "(" or ")" | tag
//	tag     = "@" ["!"] name [ "(" arg { "," arg } ")" ]
//
// Operators and operands are separated by spaces or tabs only.

func (p *parser) parseTagExpr() (ast.TagExpr, bool) {
	expr, ok := p.parseOrExpr()
	if !ok {
		return nil, false
	}
	for {
		m := p.mark()
		p.cur.SkipInlineSpaces()
		if p.cur.Peek(0) != '@' {
			p.reset(m)
			return expr, true
		}
		tag, ok := attempt(p, p.parseTag)
		if !ok {
			p.reset(m)
			return expr, true
		}
		expr = &ast.And{Left: expr, Right: tag}
	}
}

func (p *parser) parseOrExpr() (ast.TagExpr, bool) {
	left, ok := p.parseAndExpr()
	if !ok {
		return nil, false
	}
	for {
		right, ok := attempt(p, func() (ast.TagExpr, bool) {
			if !p.binaryOperator("or") {
				return nil, false
			}
			return p.parseAndExpr()
		})
		if !ok {
			return left, true
		}
		left = &ast.Or{Left: left, Right: right}
	}
}

func (p *parser) parseAndExpr() (ast.TagExpr, bool) {
	left, ok := p.parsePrimary()
	if !ok {
		return nil, false
	}
	for {
		right, ok := attempt(p, func() (ast.TagExpr, bool) {
			if !p.binaryOperator("and") {
				return nil, false
			}
			return p.parsePrimary()
		})
		if !ok {
			return left, true
		}
		left = &ast.And{Left: left, Right: right}
	}
}

// binaryOperator consumes a spaced operator keyword and the spaces after it
func (p *parser) binaryOperator(op string) bool {
	if !p.requireInlineSpace() || !p.cur.ConsumeKeyword(op) || !p.requireInlineSpace() {
		return false
	}
	return true
}

func (p *parser) parsePrimary() (ast.TagExpr, bool) {
	if p.cur.Peek(0) != '(' {
		tag, ok := p.parseTag()
		if !ok {
			return nil, false
		}
		return tag, true
	}
	if !p.enter() {
		return nil, false
	}
	defer p.exit()

	p.cur.Advance(1)
	p.cur.SkipInlineSpaces()
	expr, ok := p.parseOrExpr()
	if !ok || !p.expect(")") {
		return nil, false
	}
	return expr, true
}

func (p *parser) parseTag() (*ast.Tag, bool) {
	start := p.cur.Pos()
	if !p.cur.Consume("@") {
		return nil, false
	}
	tag := &ast.Tag{Negated: p.cur.Consume("!")}
	tag.Name = p.cur.ConsumeIdent()
	if tag.Name == "" {
		return nil, false
	}
	if p.cur.Consume("(") {
		for {
			p.cur.SkipInlineSpaces()
			arg := strings.TrimSpace(p.cur.ConsumeWhile(isTagArgChar))
			if arg == "" {
				return nil, false
			}
			tag.Args = append(tag.Args, arg)
			if p.cur.Consume(",") {
				continue
			}
			if p.cur.Consume(")") {
				break
			}
			return nil, false
		}
	}
	tag.Span = p.span(start)
	return tag, true
}

func isTagArgChar(ch byte) bool {
	return ch != ',' && ch != ')' && ch != '(' && ch != '\n'
}
