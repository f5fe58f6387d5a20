// Package formatter renders a parsed WebPipe program back to canonical source.
//
// Output re-parses to a structurally equal program: quoting forms are kept,
// block steps always close with "end", and tag expressions are parenthesized
// wherever precedence would otherwise change.
package formatter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aledsdavies/webpipe/pkgs/ast"
)

// Options controls layout
type Options struct {
	// Indent is the number of spaces per nesting level
	Indent int
}

// DefaultOptions returns the standard two-space layout
func DefaultOptions() Options {
	return Options{Indent: 2}
}

// Format renders prog with DefaultOptions
func Format(prog *ast.Program) string {
	return FormatWith(prog, DefaultOptions())
}

// FormatWith renders prog using opts. Declarations are emitted in source line
// order; an empty program renders as "".
func FormatWith(prog *ast.Program, opts Options) string {
	if opts.Indent <= 0 {
		opts.Indent = DefaultOptions().Indent
	}
	p := &printer{indent: strings.Repeat(" ", opts.Indent)}

	items := collect(prog)
	sort.SliceStable(items, func(i, j int) bool { return items[i].line < items[j].line })

	for i, it := range items {
		if i > 0 && separated(items[i-1].kind, it.kind) {
			p.b.WriteByte('\n')
		}
		it.render(p)
	}
	return p.b.String()
}

type itemKind int

const (
	kindComment itemKind = iota
	kindVariable
	kindOther
)

type item struct {
	line   int
	kind   itemKind
	render func(*printer)
}

// separated reports whether a blank line goes between two adjacent items.
// Comments stick to what follows them and variables group together.
func separated(prev, next itemKind) bool {
	if prev == kindComment {
		return false
	}
	return !(prev == kindVariable && next == kindVariable)
}

func collect(prog *ast.Program) []item {
	var items []item
	add := func(line int, kind itemKind, render func(*printer)) {
		items = append(items, item{line: line, kind: kind, render: render})
	}

	for i := range prog.Configs {
		c := &prog.Configs[i]
		add(c.Line, kindOther, func(p *printer) { p.config(c) })
	}
	if s := prog.GraphQLSchema; s != nil {
		add(s.Line, kindOther, func(p *printer) { p.line(0, "graphqlSchema = `%s`", s.SDL) })
	}
	for i := range prog.Pipelines {
		np := &prog.Pipelines[i]
		add(np.Line, kindOther, func(p *printer) {
			p.line(0, "pipeline %s =%s", np.Name, trailing(np.InlineComment))
			p.pipeline(np.Pipeline, 1)
		})
	}
	for i := range prog.Variables {
		v := &prog.Variables[i]
		add(v.Line, kindVariable, func(p *printer) {
			p.line(0, "%s %s = %s%s", v.VarType, v.Name, quote(v.Value, v.Format), trailing(v.InlineComment))
		})
	}
	for i := range prog.Queries {
		r := &prog.Queries[i]
		add(r.Line, kindOther, func(p *printer) { p.resolver("query "+r.Name, r.InlineComment, r.Pipeline) })
	}
	for i := range prog.Mutations {
		r := &prog.Mutations[i]
		add(r.Line, kindOther, func(p *printer) { p.resolver("mutation "+r.Name, r.InlineComment, r.Pipeline) })
	}
	for i := range prog.TypeResolvers {
		r := &prog.TypeResolvers[i]
		add(r.Line, kindOther, func(p *printer) {
			p.resolver("resolver "+r.TypeName+"."+r.FieldName, r.InlineComment, r.Pipeline)
		})
	}
	if f := prog.FeatureFlags; f != nil {
		add(f.Line, kindOther, func(p *printer) { p.resolver("featureFlags", f.InlineComment, f.Pipeline) })
	}
	for i := range prog.Routes {
		r := &prog.Routes[i]
		add(r.Line, kindOther, func(p *printer) { p.route(r) })
	}
	for i := range prog.Describes {
		d := &prog.Describes[i]
		add(d.Line, kindOther, func(p *printer) { p.describe(d) })
	}
	for i := range prog.Comments {
		c := &prog.Comments[i]
		add(c.Line, kindComment, func(p *printer) { p.line(0, "%s", c.Text) })
	}
	return items
}

type printer struct {
	b      strings.Builder
	indent string
}

func (p *printer) line(level int, format string, args ...interface{}) {
	p.b.WriteString(strings.Repeat(p.indent, level))
	fmt.Fprintf(&p.b, format, args...)
	p.b.WriteByte('\n')
}

func trailing(comment string) string {
	if comment == "" {
		return ""
	}
	return " " + comment
}

func (p *printer) config(c *ast.Config) {
	p.line(0, "config %s {%s", c.Name, trailing(c.InlineComment))
	for _, prop := range c.Properties {
		p.line(1, "%s: %s", prop.Key, configValue(prop.Value))
	}
	p.line(0, "}")
}

func configValue(v ast.ConfigValue) string {
	switch v := v.(type) {
	case *ast.StringValue:
		return `"` + v.Value + `"`
	case *ast.EnvValue:
		if v.Default != nil {
			return "$" + v.Name + ` || "` + *v.Default + `"`
		}
		return "$" + v.Name
	case *ast.BoolValue:
		return strconv.FormatBool(v.Value)
	case *ast.NumberValue:
		return v.Raw
	default:
		return fmt.Sprintf("(unknown: %T)", v)
	}
}

func (p *printer) resolver(head, comment string, pl ast.Pipeline) {
	p.line(0, "%s =%s", head, trailing(comment))
	p.pipeline(pl, 1)
}

func (p *printer) route(r *ast.Route) {
	p.line(0, "%s %s%s", r.Method, r.Path, trailing(r.InlineComment))
	switch ref := r.Pipeline.(type) {
	case *ast.Named:
		p.line(1, "|> pipeline: %s", ref.Name)
	case *ast.Inline:
		p.pipeline(ref.Pipeline, 1)
	}
}

// quote renders a literal in the form it was written
func quote(value string, format ast.LiteralFormat) string {
	switch format {
	case ast.LiteralQuoted:
		return `"` + value + `"`
	case ast.LiteralBare:
		return value
	default:
		return "`" + value + "`"
	}
}
