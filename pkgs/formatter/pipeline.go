package formatter

import (
	"fmt"
	"strings"

	"github.com/aledsdavies/webpipe/pkgs/ast"
)

// pipeline prints each step as "|> ..." at level
func (p *printer) pipeline(pl ast.Pipeline, level int) {
	for _, step := range pl.Steps {
		p.step(step, level)
	}
}

func (p *printer) step(step ast.Step, level int) {
	switch s := step.(type) {
	case *ast.RegularStep:
		p.line(level, "|> %s", regularStep(s))

	case *ast.ResultStep:
		p.line(level, "|> result")
		for _, b := range s.Branches {
			p.line(level+1, "%s(%d):", b.Type.Label(), b.StatusCode)
			p.pipeline(b.Pipeline, level+2)
		}

	case *ast.IfStep:
		p.line(level, "|> if")
		p.pipeline(s.Condition, level+1)
		p.line(level, "then:")
		p.pipeline(s.Then, level+1)
		if s.Else != nil {
			p.line(level, "else:")
			p.pipeline(*s.Else, level+1)
		}
		p.line(level, "end")

	case *ast.DispatchStep:
		p.line(level, "|> dispatch")
		for _, b := range s.Branches {
			p.line(level+1, "case %s:", TagExpr(b.Condition))
			p.pipeline(b.Pipeline, level+2)
		}
		if s.Default != nil {
			p.line(level+1, "default:")
			p.pipeline(*s.Default, level+2)
		}
		p.line(level, "end")

	case *ast.ForeachStep:
		p.line(level, "|> foreach %s", s.Selector)
		p.pipeline(s.Pipeline, level+1)
		p.line(level, "end")

	default:
		p.line(level, "|> (unknown: %T)", step)
	}
}

func regularStep(s *ast.RegularStep) string {
	var b strings.Builder
	b.WriteString(s.Name)
	if len(s.Args) > 0 {
		b.WriteString("(" + strings.Join(s.Args, ", ") + ")")
	}
	switch s.ConfigType {
	case ast.ConfigBacktick:
		b.WriteString(": `" + s.Config + "`")
	case ast.ConfigQuoted:
		b.WriteString(`: "` + s.Config + `"`)
	case ast.ConfigIdentifier:
		b.WriteString(": " + s.Config)
	}
	if s.Condition != nil {
		b.WriteString(" " + TagExpr(s.Condition))
	}
	return b.String()
}

// TagExpr renders a tag expression. An or inside an and is parenthesized,
// as is any right operand of the same operator, so the result re-parses to
// the same tree.
func TagExpr(e ast.TagExpr) string {
	switch e := e.(type) {
	case *ast.Tag:
		return tag(e)
	case *ast.And:
		left := TagExpr(e.Left)
		if _, ok := e.Left.(*ast.Or); ok {
			left = "(" + left + ")"
		}
		right := TagExpr(e.Right)
		switch e.Right.(type) {
		case *ast.Or, *ast.And:
			right = "(" + right + ")"
		}
		return left + " and " + right
	case *ast.Or:
		right := TagExpr(e.Right)
		if _, ok := e.Right.(*ast.Or); ok {
			right = "(" + right + ")"
		}
		return TagExpr(e.Left) + " or " + right
	default:
		return fmt.Sprintf("(unknown: %T)", e)
	}
}

func tag(t *ast.Tag) string {
	s := "@"
	if t.Negated {
		s += "!"
	}
	s += t.Name
	if len(t.Args) > 0 {
		s += "(" + strings.Join(t.Args, ", ") + ")"
	}
	return s
}
