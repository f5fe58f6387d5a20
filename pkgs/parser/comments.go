package parser

import (
	"sort"
	"strings"

	"github.com/aledsdavies/webpipe/pkgs/ast"
)

// skipSpaces skips whitespace and comments like Cursor.SkipSpaces, noting
// each comment it passes. Alternatives that are later rewound may pass the
// same comment again; the offset key keeps one entry.
func (p *parser) skipSpaces() {
	for {
		p.cur.SkipWhitespaceOnly()
		if !p.cur.AtComment() {
			return
		}
		start := p.cur.Pos()
		text := strings.TrimRight(p.cur.ConsumeToLineEnd(), " \t\r")
		if _, seen := p.skipped[start]; !seen {
			p.skipped[start] = ast.Comment{Text: text, Line: p.cur.Line(start), Span: p.span(start)}
		}
	}
}

// blockComments returns the skipped comments that did not end up in the
// tree as standalone comments or as inline comments on a declaration head
func (p *parser) blockComments(prog *ast.Program) []ast.Comment {
	if len(p.skipped) == 0 {
		return nil
	}

	type lineText struct {
		line int
		text string
	}
	kept := make(map[int]bool, len(prog.Comments))
	for _, c := range prog.Comments {
		kept[c.Span.Start] = true
	}
	inline := make(map[lineText]bool)
	note := func(line int, text string) {
		if text != "" {
			inline[lineText{line, text}] = true
		}
	}
	for _, c := range prog.Configs {
		note(c.Line, c.InlineComment)
	}
	for _, pl := range prog.Pipelines {
		note(pl.Line, pl.InlineComment)
	}
	for _, v := range prog.Variables {
		note(v.Line, v.InlineComment)
	}
	for _, r := range prog.Routes {
		note(r.Line, r.InlineComment)
	}
	for _, r := range prog.Queries {
		note(r.Line, r.InlineComment)
	}
	for _, r := range prog.Mutations {
		note(r.Line, r.InlineComment)
	}
	for _, r := range prog.TypeResolvers {
		note(r.Line, r.InlineComment)
	}
	if prog.FeatureFlags != nil {
		note(prog.FeatureFlags.Line, prog.FeatureFlags.InlineComment)
	}

	var out []ast.Comment
	for start, c := range p.skipped {
		if kept[start] || inline[lineText{c.Line, c.Text}] {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Span.Start < out[j].Span.Start })
	return out
}
