package parser

import (
	"strconv"
	"strings"

	"github.com/aledsdavies/webpipe/pkgs/ast"
	"github.com/aledsdavies/webpipe/pkgs/diag"
	"github.com/aledsdavies/webpipe/pkgs/lexer"
)

const msgUnrecognized = "unrecognized syntax"

// topLevelKeywords are offered as suggestions for unrecognized lines
var topLevelKeywords = append([]string{
	"config", "pipeline", "graphqlSchema", "query", "mutation", "resolver", "featureFlags", "describe",
}, ast.Methods...)

func (p *parser) parseProgram() *ast.Program {
	prog := &ast.Program{}
	for {
		p.cur.SkipWhitespaceOnly()
		if p.cur.EOF() {
			break
		}
		start := p.cur.Pos()
		if p.parseItem(prog) {
			p.stats.Items++
			p.itemEnds = append(p.itemEnds, p.cur.Pos())
			continue
		}
		p.recoverLine(start)
	}
	p.checkBackticks()
	if p.depthTripped {
		p.diags.Add(diag.Errorf(p.depthAt, p.depthAt+1, "nesting exceeds maximum depth of %d", p.config.maxDepth))
	}
	return prog
}

// parseItem tries each top-level declaration in turn. Order matters: more
// specific keyword forms come before the catch-all variable form.
func (p *parser) parseItem(prog *ast.Program) bool {
	return try(p, p.parseComment, func(c ast.Comment) {
		prog.Comments = append(prog.Comments, c)
	}) || try(p, p.parseConfig, func(c ast.Config) {
		prog.Configs = append(prog.Configs, c)
	}) || try(p, p.parseGraphQLSchema, func(s ast.GraphQLSchema) {
		if prog.GraphQLSchema != nil {
			p.diags.Add(diag.Warnf(s.Span.Start, s.Span.End, "graphqlSchema declared more than once; the last declaration wins"))
		}
		prog.GraphQLSchema = &s
	}) || try(p, p.parseResolver("query"), func(r ast.Resolver) {
		prog.Queries = append(prog.Queries, r)
	}) || try(p, p.parseResolver("mutation"), func(r ast.Resolver) {
		prog.Mutations = append(prog.Mutations, r)
	}) || try(p, p.parseTypeResolver, func(r ast.TypeResolver) {
		prog.TypeResolvers = append(prog.TypeResolvers, r)
	}) || try(p, p.parseFeatureFlags, func(f ast.FeatureFlags) {
		if prog.FeatureFlags != nil {
			p.diags.Add(diag.Warnf(f.Span.Start, f.Span.End, "featureFlags declared more than once; the last declaration wins"))
		}
		prog.FeatureFlags = &f
	}) || try(p, p.parseNamedPipeline, func(np ast.NamedPipeline) {
		prog.Pipelines = append(prog.Pipelines, np)
		p.pipelineRanges[np.Name] = np.Span
	}) || try(p, p.parseVariable, func(v ast.Variable) {
		prog.Variables = append(prog.Variables, v)
		p.variableRanges[v.Key()] = v.Span
	}) || try(p, p.parseRoute, func(r ast.Route) {
		prog.Routes = append(prog.Routes, r)
	}) || try(p, p.parseDescribe, func(d ast.Describe) {
		prog.Describes = append(prog.Describes, d)
		p.collectLets(d)
	})
}

// try attempts rule and hands a match to add
func try[T any](p *parser, rule func() (T, bool), add func(T)) bool {
	v, ok := attempt(p, rule)
	if ok {
		add(v)
	}
	return ok
}

// recoverLine records a warning for the line starting at start and skips it
func (p *parser) recoverLine(start int) {
	end := p.cur.LineEnd(start)
	text := strings.TrimRight(p.cur.Source()[start:end], " \t\r")

	p.cur.SetPos(start)
	word := p.cur.ConsumeIdent()
	p.cur.SetPos(end)

	msg := msgUnrecognized
	switch {
	case isKeyword(word):
		msg = msgUnrecognized + ": malformed " + word + " declaration"
	case len(word) >= 3:
		if s := diag.Suggest(word, topLevelKeywords); s != "" {
			msg = msgUnrecognized + ": did you mean '" + s + "'?"
		}
	}
	p.diags.Add(diag.Warnf(start, start+len(text), "%s", msg))
	p.stats.Recoveries++
	p.logger.Debug("skipped unrecognized line", "line", p.cur.Line(start), "text", text)
}

func isKeyword(word string) bool {
	for _, k := range topLevelKeywords {
		if k == word {
			return true
		}
	}
	return false
}

// checkBackticks reports an odd number of backticks once. Recovery warnings
// on lines the dangling string swallowed are replaced by that one error.
func (p *parser) checkBackticks() {
	src := p.cur.Source()
	if strings.Count(src, "`")%2 == 0 {
		return
	}
	last := strings.LastIndexByte(src, '`')
	cutoff := 0
	for _, end := range p.itemEnds {
		if end <= last && end > cutoff {
			cutoff = end
		}
	}
	p.diags.Filter(func(d diag.Diagnostic) bool {
		return !(strings.HasPrefix(d.Message, msgUnrecognized) && d.Start >= cutoff)
	})
	p.diags.Add(diag.Errorf(last, last+1, "unclosed backtick-delimited string"))
}

func (p *parser) parseComment() (ast.Comment, bool) {
	start := p.cur.Pos()
	if !p.cur.AtComment() {
		return ast.Comment{}, false
	}
	text := strings.TrimRight(p.cur.ConsumeToLineEnd(), " \t\r")
	return ast.Comment{Text: text, Line: p.cur.Line(start), Span: p.span(start)}, true
}

func (p *parser) parseConfig() (ast.Config, bool) {
	start := p.cur.Pos()
	if !p.cur.ConsumeKeyword("config") || !p.requireInlineSpace() {
		return ast.Config{}, false
	}
	name := p.cur.ConsumeIdent()
	if name == "" || !p.expect("{") {
		return ast.Config{}, false
	}
	cfg := ast.Config{Name: name, InlineComment: p.inlineComment(), Line: p.cur.Line(start)}
	for {
		p.skipSpaces()
		if p.cur.Consume("}") {
			break
		}
		prop, ok := attempt(p, p.parseConfigProperty)
		if !ok {
			return ast.Config{}, false
		}
		cfg.Properties = append(cfg.Properties, prop)
	}
	cfg.Span = p.span(start)
	return cfg, true
}

func (p *parser) parseConfigProperty() (ast.ConfigProperty, bool) {
	start := p.cur.Pos()
	key := p.cur.ConsumeIdent()
	if key == "" || !p.expect(":") {
		return ast.ConfigProperty{}, false
	}
	p.cur.SkipInlineSpaces()
	value, ok := p.parseConfigValue()
	if !ok {
		return ast.ConfigProperty{}, false
	}
	return ast.ConfigProperty{Key: key, Value: value, Span: p.span(start)}, true
}

func (p *parser) parseConfigValue() (ast.ConfigValue, bool) {
	switch ch := p.cur.Peek(0); {
	case ch == '"':
		s, ok := p.cur.ConsumeQuoted()
		if !ok {
			return nil, false
		}
		return &ast.StringValue{Value: s}, true

	case ch == '$':
		p.cur.Advance(1)
		name := p.cur.ConsumeIdent()
		if name == "" {
			return nil, false
		}
		env := &ast.EnvValue{Name: name}
		m := p.mark()
		if p.expect("||") {
			p.cur.SkipInlineSpaces()
			def, ok := p.cur.ConsumeQuoted()
			if !ok {
				return nil, false
			}
			env.Default = &def
		} else {
			p.reset(m)
		}
		return env, true

	case p.cur.ConsumeKeyword("true"):
		return &ast.BoolValue{Value: true}, true

	case p.cur.ConsumeKeyword("false"):
		return &ast.BoolValue{Value: false}, true

	case ch == '-' || lexer.IsDigit(ch):
		start := p.cur.Pos()
		if ch == '-' {
			p.cur.Advance(1)
		}
		if p.cur.ConsumeWhile(lexer.IsDigit) == "" {
			return nil, false
		}
		if p.cur.Peek(0) == '.' && lexer.IsDigit(p.cur.Peek(1)) {
			p.cur.Advance(1)
			p.cur.ConsumeWhile(lexer.IsDigit)
		}
		if lexer.IsIdentChar(p.cur.Peek(0)) || p.cur.Peek(0) == '.' {
			return nil, false
		}
		raw := p.cur.Source()[start:p.cur.Pos()]
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, false
		}
		return &ast.NumberValue{Raw: raw, Value: n}, true
	}
	return nil, false
}

func (p *parser) parseGraphQLSchema() (ast.GraphQLSchema, bool) {
	start := p.cur.Pos()
	if !p.cur.ConsumeKeyword("graphqlSchema") || !p.expect("=") {
		return ast.GraphQLSchema{}, false
	}
	p.cur.SkipWhitespaceOnly()
	sdlStart := p.cur.Pos() + 1
	sdl, ok := p.cur.ConsumeBacktick()
	if !ok {
		return ast.GraphQLSchema{}, false
	}
	return ast.GraphQLSchema{SDL: sdl, Line: p.cur.Line(start), Span: p.span(start), SDLStart: sdlStart}, true
}

// parseResolver parses "query NAME = pipeline" or "mutation NAME = pipeline"
func (p *parser) parseResolver(keyword string) func() (ast.Resolver, bool) {
	return func() (ast.Resolver, bool) {
		start := p.cur.Pos()
		if !p.cur.ConsumeKeyword(keyword) || !p.requireInlineSpace() {
			return ast.Resolver{}, false
		}
		name := p.cur.ConsumeIdent()
		if name == "" || !p.expect("=") {
			return ast.Resolver{}, false
		}
		comment := p.inlineComment()
		pl, ok := p.parsePipeline()
		if !ok {
			return ast.Resolver{}, false
		}
		return ast.Resolver{
			Name:          name,
			Pipeline:      pl,
			InlineComment: comment,
			Line:          p.cur.Line(start),
			Span:          p.span(start),
		}, true
	}
}

func (p *parser) parseTypeResolver() (ast.TypeResolver, bool) {
	start := p.cur.Pos()
	if !p.cur.ConsumeKeyword("resolver") || !p.requireInlineSpace() {
		return ast.TypeResolver{}, false
	}
	typeName := p.cur.ConsumeIdent()
	if typeName == "" || !p.cur.Consume(".") {
		return ast.TypeResolver{}, false
	}
	field := p.cur.ConsumeIdent()
	if field == "" || !p.expect("=") {
		return ast.TypeResolver{}, false
	}
	comment := p.inlineComment()
	pl, ok := p.parsePipeline()
	if !ok {
		return ast.TypeResolver{}, false
	}
	return ast.TypeResolver{
		TypeName:      typeName,
		FieldName:     field,
		Pipeline:      pl,
		InlineComment: comment,
		Line:          p.cur.Line(start),
		Span:          p.span(start),
	}, true
}

func (p *parser) parseFeatureFlags() (ast.FeatureFlags, bool) {
	start := p.cur.Pos()
	if !p.cur.ConsumeKeyword("featureFlags") || !p.expect("=") {
		return ast.FeatureFlags{}, false
	}
	comment := p.inlineComment()
	pl, ok := p.parsePipeline()
	if !ok {
		return ast.FeatureFlags{}, false
	}
	return ast.FeatureFlags{Pipeline: pl, InlineComment: comment, Line: p.cur.Line(start), Span: p.span(start)}, true
}

func (p *parser) parseNamedPipeline() (ast.NamedPipeline, bool) {
	start := p.cur.Pos()
	if !p.cur.ConsumeKeyword("pipeline") || !p.requireInlineSpace() {
		return ast.NamedPipeline{}, false
	}
	name := p.cur.ConsumeIdent()
	if name == "" || !p.expect("=") {
		return ast.NamedPipeline{}, false
	}
	comment := p.inlineComment()
	pl, ok := p.parsePipeline()
	if !ok {
		return ast.NamedPipeline{}, false
	}
	return ast.NamedPipeline{
		Name:          name,
		Pipeline:      pl,
		InlineComment: comment,
		Line:          p.cur.Line(start),
		Span:          p.span(start),
	}, true
}

func (p *parser) parseVariable() (ast.Variable, bool) {
	start := p.cur.Pos()
	varType := p.cur.ConsumeIdent()
	if varType == "" || !p.requireInlineSpace() {
		return ast.Variable{}, false
	}
	name := p.cur.ConsumeIdent()
	if name == "" || !p.expect("=") {
		return ast.Variable{}, false
	}
	p.cur.SkipInlineSpaces()

	v := ast.Variable{VarType: varType, Name: name, Line: p.cur.Line(start)}
	var ok bool
	switch p.cur.Peek(0) {
	case '`':
		v.Value, ok = p.cur.ConsumeBacktick()
		v.Format = ast.LiteralBacktick
	case '"':
		v.Value, ok = p.cur.ConsumeQuoted()
		v.Format = ast.LiteralQuoted
	}
	if !ok {
		return ast.Variable{}, false
	}
	v.Span = p.span(start)
	v.InlineComment = p.inlineComment()
	return v, true
}

func (p *parser) parseRoute() (ast.Route, bool) {
	start := p.cur.Pos()
	method := p.cur.ConsumeIdent()
	if !ast.IsMethod(method) || !p.requireInlineSpace() || p.cur.Peek(0) != '/' {
		return ast.Route{}, false
	}
	path := p.cur.ConsumeWhile(lexer.IsNotSpace)
	route := ast.Route{Method: method, Path: path, InlineComment: p.inlineComment(), Line: p.cur.Line(start)}

	if named, ok := attempt(p, p.parseNamedRef); ok {
		route.Pipeline = named
	} else {
		pl, ok := p.parsePipeline()
		if !ok {
			return ast.Route{}, false
		}
		route.Pipeline = &ast.Inline{Pipeline: pl}
	}
	route.Span = p.span(start)
	return route, true
}

// parseNamedRef matches a route body made of the single step
// "|> pipeline: NAME" with no guard and nothing after it.
func (p *parser) parseNamedRef() (*ast.Named, bool) {
	p.skipSpaces()
	start := p.cur.Pos()
	if !p.cur.Consume("|>") {
		return nil, false
	}
	p.cur.SkipInlineSpaces()
	if !p.cur.ConsumeKeyword("pipeline") || !p.expect(":") {
		return nil, false
	}
	p.cur.SkipInlineSpaces()
	name := p.cur.ConsumeIdent()
	if name == "" || !p.cur.AtLineEnd() {
		return nil, false
	}
	named := &ast.Named{Name: name, Span: p.span(start)}

	m := p.mark()
	p.skipSpaces()
	more := p.cur.MatchPrefix("|>")
	p.reset(m)
	if more {
		return nil, false
	}
	return named, true
}

// collectLets indexes the let bindings of a parsed describe block
func (p *parser) collectLets(d ast.Describe) {
	for _, l := range d.Lets {
		p.testLets = append(p.testLets, ast.LetVariable{Name: l.Name, Describe: d.Name, Span: l.Span})
	}
	for _, it := range d.Tests {
		for _, l := range it.Lets {
			p.testLets = append(p.testLets, ast.LetVariable{Name: l.Name, Describe: d.Name, Test: it.Name, Span: l.Span})
		}
	}
}
