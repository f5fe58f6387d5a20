package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/aledsdavies/webpipe/pkgs/ast"
	"github.com/aledsdavies/webpipe/pkgs/ast/asttest"
)

func parseTags(input string) (ast.TagExpr, string, bool) {
	p := newParser(input, newConfig(nil))
	expr, ok := attempt(p, p.parseTagExpr)
	return expr, p.cur.Rest(), ok
}

func TestTagExpressions(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     ast.TagExpr
		wantRest string
	}{
		{
			name:  "single tag",
			input: "@dev",
			want:  Tag("dev"),
		},
		{
			name:  "negated tag with arguments",
			input: "@!flag(beta, internal)",
			want:  NotTag("flag", "beta", "internal"),
		},
		{
			name:  "and binds tighter than or",
			input: "@a and @b or @c",
			want:  Or(And(Tag("a"), Tag("b")), Tag("c")),
		},
		{
			name:  "or on the right of and",
			input: "@a or @b and @c",
			want:  Or(Tag("a"), And(Tag("b"), Tag("c"))),
		},
		{
			name:  "parentheses override precedence",
			input: "@a and (@b or @c)",
			want:  And(Tag("a"), Or(Tag("b"), Tag("c"))),
		},
		{
			name:  "operators are left associative",
			input: "@a or @b or @c",
			want:  Or(Or(Tag("a"), Tag("b")), Tag("c")),
		},
		{
			name:  "implicit and",
			input: "@dev @flag(x)",
			want:  And(Tag("dev"), Tag("flag", "x")),
		},
		{
			// Bare trailing tags wrap the whole expression, not the nearest operand
			name:  "implicit and after an or chain",
			input: "@a or @b @c",
			want:  And(Or(Tag("a"), Tag("b")), Tag("c")),
		},
		{
			name:  "implicit and chains to the left",
			input: "@a @b @c",
			want:  And(And(Tag("a"), Tag("b")), Tag("c")),
		},
		{
			name:     "keyword needs a word boundary",
			input:    "@a android",
			want:     Tag("a"),
			wantRest: " android",
		},
		{
			name:     "stops before a colon",
			input:    "@flag(a): |> jq: `.`",
			want:     Tag("flag", "a"),
			wantRest: ": |> jq: `.`",
		},
		{
			name:     "dangling operator is left unconsumed",
			input:    "@a and",
			want:     Tag("a"),
			wantRest: " and",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rest, ok := parseTags(tt.input)
			if !ok {
				t.Fatalf("parseTagExpr(%q) did not match", tt.input)
			}
			if diff := cmp.Diff(tt.want, got, asttest.IgnorePositions); diff != "" {
				t.Errorf("parseTagExpr(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
			if rest != tt.wantRest {
				t.Errorf("remaining input = %q, want %q", rest, tt.wantRest)
			}
		})
	}
}

func TestImplicitAndMatchesExplicitAnd(t *testing.T) {
	implicit, _, ok1 := parseTags("@dev @flag(x)")
	explicit, _, ok2 := parseTags("@dev and @flag(x)")
	if !ok1 || !ok2 {
		t.Fatal("expected both forms to parse")
	}
	if diff := cmp.Diff(explicit, implicit, asttest.IgnorePositions); diff != "" {
		t.Errorf("implicit and differs from explicit and (-explicit +implicit):\n%s", diff)
	}
}

func TestInvalidTagExpressions(t *testing.T) {
	tests := []string{
		"@",
		"@!",
		"@flag()",
		"@flag(a,)",
		"@flag(a,,b)",
		"@flag(a",
		"(@a or @b",
		"()",
		"and @a",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, rest, ok := parseTags(input)
			if ok {
				t.Fatalf("parseTagExpr(%q) should not match", input)
			}
			if rest != input {
				t.Errorf("cursor moved: remaining %q", rest)
			}
		})
	}
}

func TestTagSpans(t *testing.T) {
	got, _, ok := parseTags("@a and @flag(x)")
	if !ok {
		t.Fatal("expected a match")
	}
	and := got.(*ast.And)
	if span := and.Right.(*ast.Tag).Span; span != (ast.Span{Start: 7, End: 15}) {
		t.Errorf("span = %+v, want [7,15)", span)
	}
}
