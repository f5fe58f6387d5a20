// Package check is the binding pass that runs after parsing. It resolves
// named pipeline references and cross-checks declarations against each
// other and against the GraphQL schema. It reports diagnostics only; the
// program is never modified.
package check

import (
	"errors"
	"os"
	"strings"

	"github.com/vektah/gqlparser/v2"
	gqlast "github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/aledsdavies/webpipe/pkgs/ast"
	"github.com/aledsdavies/webpipe/pkgs/diag"
)

// Options controls the environment the checks run against
type Options struct {
	// LookupEnv resolves $VAR references in config blocks. Nil means
	// os.LookupEnv.
	LookupEnv func(string) (string, bool)
	// SchemaName labels the GraphQL source in schema error messages
	SchemaName string
}

// Program runs every check and returns the diagnostics sorted by offset
func Program(prog *ast.Program, opts Options) []diag.Diagnostic {
	if opts.LookupEnv == nil {
		opts.LookupEnv = os.LookupEnv
	}
	if opts.SchemaName == "" {
		opts.SchemaName = "graphqlSchema"
	}

	c := &checker{prog: prog, opts: opts}
	c.index()
	c.duplicates()
	c.references()
	c.graphql()
	c.env()
	c.tests()

	out := c.diags.Items()
	diag.Sort(out)
	return out
}

type checker struct {
	prog  *ast.Program
	opts  Options
	diags diag.Sink

	pipelines     map[string]bool
	pipelineNames []string
	variables     map[string]bool
	queries       map[string]bool
	mutations     map[string]bool
}

func (c *checker) index() {
	c.pipelines = make(map[string]bool)
	for _, p := range c.prog.Pipelines {
		if !c.pipelines[p.Name] {
			c.pipelineNames = append(c.pipelineNames, p.Name)
		}
		c.pipelines[p.Name] = true
	}
	c.variables = make(map[string]bool)
	for i := range c.prog.Variables {
		c.variables[c.prog.Variables[i].Key()] = true
	}
	c.queries = names(c.prog.Queries)
	c.mutations = names(c.prog.Mutations)
}

func names(rs []ast.Resolver) map[string]bool {
	m := make(map[string]bool, len(rs))
	for _, r := range rs {
		m[r.Name] = true
	}
	return m
}

// duplicates flags every redeclaration after the first
func (c *checker) duplicates() {
	seen := make(map[string]bool)
	for _, p := range c.prog.Pipelines {
		if seen[p.Name] {
			c.diags.Add(diag.Warnf(p.Span.Start, p.Span.End, "pipeline '%s' is declared more than once", p.Name))
		}
		seen[p.Name] = true
	}

	seen = make(map[string]bool)
	for i := range c.prog.Variables {
		v := &c.prog.Variables[i]
		if seen[v.Key()] {
			c.diags.Add(diag.Warnf(v.Span.Start, v.Span.End, "variable '%s %s' is declared more than once", v.VarType, v.Name))
		}
		seen[v.Key()] = true
	}

	for _, kind := range []struct {
		label     string
		resolvers []ast.Resolver
	}{{"query", c.prog.Queries}, {"mutation", c.prog.Mutations}} {
		seen = make(map[string]bool)
		for _, r := range kind.resolvers {
			if seen[r.Name] {
				c.diags.Add(diag.Warnf(r.Span.Start, r.Span.End, "%s resolver '%s' is declared more than once", kind.label, r.Name))
			}
			seen[r.Name] = true
		}
	}
}

// references resolves Named route references and |> pipeline: NAME steps
func (c *checker) references() {
	for _, r := range c.prog.Routes {
		named, ok := r.Pipeline.(*ast.Named)
		if !ok || c.pipelines[named.Name] {
			continue
		}
		c.diags.Add(diag.Errorf(named.Span.Start, named.Span.End,
			"route %s %s references undefined pipeline '%s'%s",
			r.Method, r.Path, named.Name, diag.DidYouMean(named.Name, c.pipelineNames)))
	}

	ast.Walk(c.prog, func(s ast.Step) bool {
		step, ok := s.(*ast.RegularStep)
		if !ok || step.Name != "pipeline" || step.Config == "" {
			return true
		}
		if !c.pipelines[step.Config] {
			c.diags.Add(diag.Warnf(step.Span.Start, step.Span.End,
				"step references undefined pipeline '%s'%s",
				step.Config, diag.DidYouMean(step.Config, c.pipelineNames)))
		}
		return true
	})
}

// graphql validates the schema and checks that every resolver names a field
// the schema declares
func (c *checker) graphql() {
	resolvers := len(c.prog.Queries) + len(c.prog.Mutations) + len(c.prog.TypeResolvers)
	gs := c.prog.GraphQLSchema
	if gs == nil {
		if resolvers > 0 {
			c.forEachResolver(func(span ast.Span, label string) {
				c.diags.Add(diag.Warnf(span.Start, span.End, "%s has no graphqlSchema to resolve against", label))
			})
		}
		return
	}

	schema, err := gqlparser.LoadSchema(&gqlast.Source{Name: c.opts.SchemaName, Input: gs.SDL})
	if err != nil {
		c.schemaErrors(gs, err)
		return
	}

	for _, q := range c.prog.Queries {
		if !hasField(schema.Query, q.Name) {
			c.diags.Add(diag.Warnf(q.Span.Start, q.Span.End,
				"query '%s' is not a field of the schema's Query type%s", q.Name, diag.DidYouMean(q.Name, fieldNames(schema.Query))))
		}
	}
	for _, m := range c.prog.Mutations {
		if !hasField(schema.Mutation, m.Name) {
			c.diags.Add(diag.Warnf(m.Span.Start, m.Span.End,
				"mutation '%s' is not a field of the schema's Mutation type%s", m.Name, diag.DidYouMean(m.Name, fieldNames(schema.Mutation))))
		}
	}
	for _, tr := range c.prog.TypeResolvers {
		def := schema.Types[tr.TypeName]
		switch {
		case def == nil:
			c.diags.Add(diag.Warnf(tr.Span.Start, tr.Span.End, "resolver type '%s' is not defined in the schema", tr.TypeName))
		case !hasField(def, tr.FieldName):
			c.diags.Add(diag.Warnf(tr.Span.Start, tr.Span.End,
				"resolver field '%s.%s' is not defined in the schema%s", tr.TypeName, tr.FieldName, diag.DidYouMean(tr.FieldName, fieldNames(def))))
		}
	}
}

func (c *checker) forEachResolver(fn func(span ast.Span, label string)) {
	for _, q := range c.prog.Queries {
		fn(q.Span, "query '"+q.Name+"'")
	}
	for _, m := range c.prog.Mutations {
		fn(m.Span, "mutation '"+m.Name+"'")
	}
	for _, tr := range c.prog.TypeResolvers {
		fn(tr.Span, "resolver '"+tr.TypeName+"."+tr.FieldName+"'")
	}
}

// schemaErrors maps gqlparser's line/column locations back into the WebPipe
// source through the SDL start offset
func (c *checker) schemaErrors(gs *ast.GraphQLSchema, err error) {
	var list gqlerror.List
	var single *gqlerror.Error
	switch {
	case errors.As(err, &list):
	case errors.As(err, &single):
		list = gqlerror.List{single}
	default:
		c.diags.Add(diag.Errorf(gs.Span.Start, gs.Span.End, "invalid GraphQL schema: %v", err))
		return
	}

	for _, e := range list {
		start, end := gs.Span.Start, gs.Span.End
		if len(e.Locations) > 0 {
			start = sdlOffset(gs, e.Locations[0].Line, e.Locations[0].Column)
			end = start
			if end < gs.SDLStart+len(gs.SDL) {
				end++
			}
		}
		c.diags.Add(diag.Errorf(start, end, "invalid GraphQL schema: %s", e.Message))
	}
}

// sdlOffset converts a 1-based line and column inside the SDL into a source
// offset, clamped to the SDL
func sdlOffset(gs *ast.GraphQLSchema, line, col int) int {
	off := 0
	for l := 1; l < line; l++ {
		nl := strings.IndexByte(gs.SDL[off:], '\n')
		if nl < 0 {
			off = len(gs.SDL)
			break
		}
		off += nl + 1
	}
	if col > 1 {
		off += col - 1
	}
	if off > len(gs.SDL) {
		off = len(gs.SDL)
	}
	return gs.SDLStart + off
}

func hasField(def *gqlast.Definition, name string) bool {
	return def != nil && def.Fields.ForName(name) != nil
}

func fieldNames(def *gqlast.Definition) []string {
	if def == nil {
		return nil
	}
	out := make([]string, 0, len(def.Fields))
	for _, f := range def.Fields {
		if !strings.HasPrefix(f.Name, "__") {
			out = append(out, f.Name)
		}
	}
	return out
}

// env warns about $VAR config values that have no default and are unset
func (c *checker) env() {
	for _, cfg := range c.prog.Configs {
		for _, prop := range cfg.Properties {
			ev, ok := prop.Value.(*ast.EnvValue)
			if !ok || ev.Default != nil {
				continue
			}
			if _, set := c.opts.LookupEnv(ev.Name); !set {
				c.diags.Add(diag.Warnf(prop.Span.Start, prop.Span.End,
					"config %s.%s: environment variable $%s is not set and has no default", cfg.Name, prop.Key, ev.Name))
			}
		}
	}
}

// tests checks that describe blocks exercise things that exist
func (c *checker) tests() {
	for _, d := range c.prog.Describes {
		for _, m := range d.Mocks {
			c.mock(m)
		}
		for i := range d.Tests {
			it := &d.Tests[i]
			for _, m := range it.Mocks {
				c.mock(m)
			}
			c.when(it)
		}
	}
}

func (c *checker) when(it *ast.It) {
	span := it.Span
	switch w := it.When.(type) {
	case *ast.CallingRoute:
		if !c.routeExists(w.Method, w.Path) {
			c.diags.Add(diag.Warnf(span.Start, span.End, "test '%s' calls %s %s but no route matches", it.Name, w.Method, w.Path))
		}
	case *ast.ExecutingPipeline:
		if !c.pipelines[w.Name] {
			c.diags.Add(diag.Warnf(span.Start, span.End, "test '%s' executes undefined pipeline '%s'%s",
				it.Name, w.Name, diag.DidYouMean(w.Name, c.pipelineNames)))
		}
	case *ast.ExecutingVariable:
		key := w.VarType + "::" + w.Name
		if !c.variables[key] {
			c.diags.Add(diag.Warnf(span.Start, span.End, "test '%s' executes undefined variable '%s %s'", it.Name, w.VarType, w.Name))
		}
	}
}

// mock checks the targets that name WebPipe declarations. Middleware mocks
// such as "pg" or "pg.getUsers" are left alone.
func (c *checker) mock(m ast.Mock) {
	kind, name, ok := strings.Cut(m.Target, " ")
	if !ok {
		return
	}
	var known map[string]bool
	switch kind {
	case "query":
		known = c.queries
	case "mutation":
		known = c.mutations
	case "pipeline":
		known = c.pipelines
	default:
		return
	}
	if !known[name] {
		c.diags.Add(diag.Warnf(m.Span.Start, m.Span.End, "mock targets undefined %s '%s'", kind, name))
	}
}

func (c *checker) routeExists(method, path string) bool {
	path, _, _ = strings.Cut(path, "?")
	for _, r := range c.prog.Routes {
		if r.Method == method && MatchPath(r.Path, path) {
			return true
		}
	}
	return false
}

// MatchPath reports whether a concrete request path matches a route
// pattern. ":name" matches one non-empty segment and "*" matches the rest of
// the path.
func MatchPath(pattern, path string) bool {
	ps := segments(pattern)
	xs := segments(path)
	for i, p := range ps {
		if p == "*" {
			return true
		}
		if i >= len(xs) {
			return false
		}
		if strings.HasPrefix(p, ":") {
			if xs[i] == "" {
				return false
			}
			continue
		}
		if p != xs[i] {
			return false
		}
	}
	return len(ps) == len(xs)
}

func segments(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
