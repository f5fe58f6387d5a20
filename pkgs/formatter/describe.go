package formatter

import (
	"fmt"

	"github.com/aledsdavies/webpipe/pkgs/ast"
)

func (p *printer) describe(d *ast.Describe) {
	p.line(0, `describe "%s"`, d.Name)
	for _, l := range d.Lets {
		p.let(l, 1)
	}
	for _, m := range d.Mocks {
		p.mock("with", m, 1)
	}
	for i := range d.Tests {
		p.b.WriteByte('\n')
		p.it(&d.Tests[i])
	}
}

func (p *printer) let(l ast.LetBinding, level int) {
	p.line(level, "let %s = %s", l.Name, quote(l.Value.Value, l.Value.Format))
}

func (p *printer) mock(lead string, m ast.Mock, level int) {
	p.line(level, "%s mock %s returning `%s`", lead, m.Target, m.Returns)
}

func (p *printer) it(it *ast.It) {
	p.line(1, `it "%s"`, it.Name)
	for _, m := range it.Mocks {
		p.mock("with", m, 2)
	}
	for _, l := range it.Lets {
		p.let(l, 2)
	}
	p.line(2, "when %s", when(it.When))

	lead := "with"
	for _, f := range []struct {
		kind  string
		value *string
	}{
		{"input", it.Input},
		{"body", it.Body},
		{"headers", it.Headers},
		{"cookies", it.Cookies},
	} {
		if f.value == nil {
			continue
		}
		p.line(2, "%s %s `%s`", lead, f.kind, *f.value)
		lead = "and with"
	}

	lead = "then"
	for _, c := range it.Conditions {
		p.line(2, "%s %s", lead, condition(c))
		lead = "and"
	}
}

func when(w ast.When) string {
	switch w := w.(type) {
	case *ast.CallingRoute:
		return "calling " + w.Method + " " + w.Path
	case *ast.ExecutingPipeline:
		return "executing pipeline " + w.Name
	case *ast.ExecutingVariable:
		return "executing variable " + w.VarType + " " + w.Name
	default:
		return fmt.Sprintf("(unknown: %T)", w)
	}
}

func condition(c ast.Condition) string {
	switch c := c.(type) {
	case *ast.FieldCondition:
		field := c.Field
		if c.JqExpr != nil {
			field += " `" + *c.JqExpr + "`"
		}
		return field + " " + c.Comparison + " " + literal(c.Value)
	case *ast.HeaderCondition:
		return `header "` + c.Header + `" ` + c.Comparison + " " + literal(c.Value)
	case *ast.CallCondition:
		return "call " + c.Target + " with `" + c.With + "`"
	case *ast.SelectorCondition:
		head := "selector `" + c.Selector + "` "
		switch c.Check {
		case ast.SelectorExists:
			if c.Negated {
				return head + "does not exist"
			}
			return head + "exists"
		case ast.SelectorText:
			return head + "text " + c.Comparison + " " + literal(c.Value)
		case ast.SelectorCount:
			return head + "count " + c.Comparison + " " + literal(c.Value)
		default:
			return head + `attribute "` + c.Attribute + `" ` + c.Comparison + " " + literal(c.Value)
		}
	default:
		return fmt.Sprintf("(unknown: %T)", c)
	}
}

func literal(l ast.Literal) string {
	return quote(l.Value, l.Format)
}
