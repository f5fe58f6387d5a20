package parser

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/aledsdavies/webpipe/pkgs/ast"
)

const usersSuite = `describe "users"
  with mock pg returning ` + "`[]`" + `
  let userId = 42

  it "returns a user"
    with mock query users returning ` + "`{\"id\": 1}`" + `
    let verbose = true
    when calling GET /users/1
    with headers ` + "`{\"x\": \"1\"}`" + `
    and with body ` + "`{}`" + `
    then status is 200
    and output ` + "`.id`" + ` equals 1
    and header "Content-Type" contains "json"
    and call query users with ` + "`{\"id\": 1}`" + `
    and selector ` + "`h1`" + ` text equals "Hi"
    and selector ` + "`.item`" + ` does not exist
    and selector ` + "`li`" + ` count is greater than 2
    and selector ` + "`a`" + ` attribute "href" starts with "/"

  it "runs a pipeline"
    when executing pipeline getUser
    with input ` + "`{\"id\": 2}`" + `
    then output does not equal ` + "`null`" + `

  it "renders a variable"
    when executing variable handlebars page
    then output matches "<p>"
`

func TestDescribe(t *testing.T) {
	jq := ".id"
	headers := `{"x": "1"}`
	body := "{}"
	input := `{"id": 2}`

	want := Program(ast.Describe{
		Name:  "users",
		Lets:  []ast.LetBinding{{Name: "userId", Value: ast.Literal{Value: "42", Format: ast.LiteralBare}}},
		Mocks: []ast.Mock{{Target: "pg", Returns: "[]"}},
		Tests: []ast.It{
			{
				Name:    "returns a user",
				Mocks:   []ast.Mock{{Target: "query users", Returns: `{"id": 1}`}},
				Lets:    []ast.LetBinding{{Name: "verbose", Value: ast.Literal{Value: "true", Format: ast.LiteralBare}}},
				When:    &ast.CallingRoute{Method: "GET", Path: "/users/1"},
				Headers: &headers,
				Body:    &body,
				Conditions: []ast.Condition{
					&ast.FieldCondition{Field: "status", Comparison: "is", Value: ast.Literal{Value: "200", Format: ast.LiteralBare}},
					&ast.FieldCondition{Field: "output", JqExpr: &jq, Comparison: "equals", Value: ast.Literal{Value: "1", Format: ast.LiteralBare}},
					&ast.HeaderCondition{Header: "Content-Type", Comparison: "contains", Value: ast.Literal{Value: "json", Format: ast.LiteralQuoted}},
					&ast.CallCondition{Target: "query users", With: `{"id": 1}`},
					&ast.SelectorCondition{Selector: "h1", Check: ast.SelectorText, Comparison: "equals", Value: ast.Literal{Value: "Hi", Format: ast.LiteralQuoted}},
					&ast.SelectorCondition{Selector: ".item", Check: ast.SelectorExists, Negated: true},
					&ast.SelectorCondition{Selector: "li", Check: ast.SelectorCount, Comparison: "is greater than", Value: ast.Literal{Value: "2", Format: ast.LiteralBare}},
					&ast.SelectorCondition{Selector: "a", Check: ast.SelectorAttribute, Attribute: "href", Comparison: "starts with", Value: ast.Literal{Value: "/", Format: ast.LiteralQuoted}},
				},
			},
			{
				Name:  "runs a pipeline",
				When:  &ast.ExecutingPipeline{Name: "getUser"},
				Input: &input,
				Conditions: []ast.Condition{
					&ast.FieldCondition{Field: "output", Comparison: "does not equal", Value: ast.Literal{Value: "null", Format: ast.LiteralBacktick}},
				},
			},
			{
				Name: "renders a variable",
				When: &ast.ExecutingVariable{VarType: "handlebars", Name: "page"},
				Conditions: []ast.Condition{
					&ast.FieldCondition{Field: "output", Comparison: "matches", Value: ast.Literal{Value: "<p>", Format: ast.LiteralQuoted}},
				},
			},
		},
	})

	RunTestCase(t, TestCase{Name: "full suite", Input: usersSuite, Expected: want})
}

func TestDescribeRequiresWhen(t *testing.T) {
	input := "describe \"d\"\n  it \"no when\"\n    then status is 200\n"
	program, diags := ParseWithDiagnostics(input)

	if len(program.Describes) != 1 {
		t.Fatalf("expected the describe header to be recovered, got %d", len(program.Describes))
	}
	if n := len(program.Describes[0].Tests); n != 0 {
		t.Errorf("expected the incomplete test to be dropped, got %d tests", n)
	}
	if len(diags) != 2 {
		t.Errorf("expected a warning for each skipped line, got %v", diags)
	}
}

func TestLetLiterals(t *testing.T) {
	tests := []struct {
		input string
		want  ast.Literal
		ok    bool
	}{
		{"let a = 42", ast.Literal{Value: "42", Format: ast.LiteralBare}, true},
		{"let a = -1.5", ast.Literal{Value: "-1.5", Format: ast.LiteralBare}, true},
		{"let a = null", ast.Literal{Value: "null", Format: ast.LiteralBare}, true},
		{"let a = false", ast.Literal{Value: "false", Format: ast.LiteralBare}, true},
		{`let a = "x"`, ast.Literal{Value: "x", Format: ast.LiteralQuoted}, true},
		{"let a = `{\"k\": 1}`", ast.Literal{Value: `{"k": 1}`, Format: ast.LiteralBacktick}, true},
		{"let a = hello", ast.Literal{}, false},
		{"let a = 1.", ast.Literal{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p := newParser(tt.input, newConfig(nil))
			got, ok := attempt(p, p.parseLet)
			if ok != tt.ok {
				t.Fatalf("parseLet(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && got.Value != tt.want {
				t.Errorf("value = %+v, want %+v", got.Value, tt.want)
			}
		})
	}
}

func TestTestLetVariables(t *testing.T) {
	got := TestLetVariables(usersSuite)
	want := []ast.LetVariable{
		{Name: "userId", Describe: "users"},
		{Name: "verbose", Describe: "users", Test: "returns a user"},
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(ast.LetVariable{}, "Span")); diff != "" {
		t.Errorf("TestLetVariables() mismatch (-want +got):\n%s", diff)
	}

	start := strings.Index(usersSuite, "let userId")
	if got[0].Span != (ast.Span{Start: start, End: start + len("let userId = 42")}) {
		t.Errorf("span = %+v, want it to cover the let binding", got[0].Span)
	}
}
