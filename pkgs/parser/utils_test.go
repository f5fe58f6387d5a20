package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/aledsdavies/webpipe/pkgs/ast"
	"github.com/aledsdavies/webpipe/pkgs/ast/asttest"
)

// TestCase describes a whole-program parse and its expected outcome
type TestCase struct {
	Name     string
	Input    string
	Expected *ast.Program
	// Diagnostics lists the expected diagnostic messages in source order
	Diagnostics []string
}

func RunTestCase(t *testing.T, tc TestCase) {
	t.Run(tc.Name, func(t *testing.T) {
		program, diags := ParseWithDiagnostics(tc.Input)

		var messages []string
		for _, d := range diags {
			messages = append(messages, d.Message)
		}
		if diff := cmp.Diff(tc.Diagnostics, messages, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("diagnostics mismatch (-expected +actual):\n%s", diff)
		}

		if tc.Expected == nil {
			return
		}
		if diff := asttest.Diff(tc.Expected, program); diff != "" {
			t.Errorf("program mismatch (-expected +actual):\n%s", diff)
		}
	})
}

// Program builds an expected program from top-level items
func Program(items ...interface{}) *ast.Program {
	prog := &ast.Program{}
	for _, item := range items {
		switch it := item.(type) {
		case ast.Comment:
			prog.Comments = append(prog.Comments, it)
		case ast.Config:
			prog.Configs = append(prog.Configs, it)
		case ast.NamedPipeline:
			prog.Pipelines = append(prog.Pipelines, it)
		case ast.Variable:
			prog.Variables = append(prog.Variables, it)
		case ast.Route:
			prog.Routes = append(prog.Routes, it)
		case ast.Describe:
			prog.Describes = append(prog.Describes, it)
		case ast.GraphQLSchema:
			prog.GraphQLSchema = &it
		case ast.TypeResolver:
			prog.TypeResolvers = append(prog.TypeResolvers, it)
		case ast.FeatureFlags:
			prog.FeatureFlags = &it
		default:
			panic("unsupported program item")
		}
	}
	return prog
}

func Pipe(steps ...ast.Step) ast.Pipeline {
	return ast.Pipeline{Steps: steps}
}

func Route(method, path string, steps ...ast.Step) ast.Route {
	return ast.Route{Method: method, Path: path, Pipeline: &ast.Inline{Pipeline: Pipe(steps...)}}
}

func NamedRoute(method, path, name string) ast.Route {
	return ast.Route{Method: method, Path: path, Pipeline: &ast.Named{Name: name}}
}

func Pipeline(name string, steps ...ast.Step) ast.NamedPipeline {
	return ast.NamedPipeline{Name: name, Pipeline: Pipe(steps...)}
}

func Var(varType, name, value string) ast.Variable {
	return ast.Variable{VarType: varType, Name: name, Value: value, Format: ast.LiteralBacktick}
}

// Step is a regular step with a backtick config
func Step(name, config string) *ast.RegularStep {
	return &ast.RegularStep{Name: name, Config: config, ConfigType: ast.ConfigBacktick}
}

// Bare is a regular step without config
func Bare(name string) *ast.RegularStep {
	return &ast.RegularStep{Name: name}
}

func Guarded(step *ast.RegularStep, cond ast.TagExpr) *ast.RegularStep {
	step.Condition = cond
	return step
}

func Results(branches ...ast.ResultBranch) *ast.ResultStep {
	return &ast.ResultStep{Branches: branches}
}

func Branch(name string, code int, steps ...ast.Step) ast.ResultBranch {
	return ast.ResultBranch{Type: ast.BranchTypeFor(name), StatusCode: code, Pipeline: Pipe(steps...)}
}

func Tag(name string, args ...string) *ast.Tag {
	return &ast.Tag{Name: name, Args: args}
}

func NotTag(name string, args ...string) *ast.Tag {
	return &ast.Tag{Name: name, Negated: true, Args: args}
}

func And(left, right ast.TagExpr) *ast.And {
	return &ast.And{Left: left, Right: right}
}

func Or(left, right ast.TagExpr) *ast.Or {
	return &ast.Or{Left: left, Right: right}
}

func strPtr(s string) *string {
	return &s
}
