package check

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/webpipe/pkgs/diag"
	"github.com/aledsdavies/webpipe/pkgs/parser"
)

func run(t *testing.T, src string, env map[string]string) []diag.Diagnostic {
	t.Helper()
	prog, diags := parser.ParseWithDiagnostics(src)
	require.Empty(t, diags, "source should parse cleanly")
	return Program(prog, Options{LookupEnv: func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}})
}

func messages(ds []diag.Diagnostic) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Severity.String() + ": " + d.Message
	}
	return out
}

func TestCleanProgram(t *testing.T) {
	src := "config pg {\n  host: $DB_HOST\n  port: 5432\n}\n" +
		"graphqlSchema = `type Query { users: [String] }`\n" +
		"pipeline load =\n  |> jq: `.`\n" +
		"pg getUsers = `select 1`\n" +
		"query users =\n  |> pipeline: load\n" +
		"GET /users/:id\n  |> pipeline: load\n" +
		"describe \"users\"\n" +
		"  with mock query users returning `[]`\n" +
		"  it \"route\"\n    when calling GET /users/42?full=1\n    then status is 200\n" +
		"  it \"pipeline\"\n    when executing pipeline load\n    then output equals 1\n" +
		"  it \"variable\"\n    when executing variable pg getUsers\n    then output equals 1\n"

	ds := run(t, src, map[string]string{"DB_HOST": "db"})
	assert.Empty(t, messages(ds))
}

func TestReferences(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "undefined named route pipeline",
			src:  "pipeline loadUser =\n  |> jq: `.`\nGET /a\n  |> pipeline: loadUsr\n",
			want: []string{"error: route GET /a references undefined pipeline 'loadUsr'; did you mean 'loadUser'?"},
		},
		{
			name: "undefined pipeline step inside a block",
			src:  "GET /a\n  |> if\n    |> jq: `true`\n  then:\n    |> pipeline: nope\n  end\n",
			want: []string{"warning: step references undefined pipeline 'nope'"},
		},
		{
			name: "duplicate declarations",
			src:  "pipeline p =\n  |> a\npipeline p =\n  |> b\npg v = `1`\npg v = `2`\nmysql v = `3`\n",
			want: []string{
				"warning: pipeline 'p' is declared more than once",
				"warning: variable 'pg v' is declared more than once",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, messages(run(t, tt.src, nil)))
		})
	}
}

func TestNamedRouteSpan(t *testing.T) {
	src := "GET /a\n  |> pipeline: missing\n"
	ds := run(t, src, nil)
	require.Len(t, ds, 1)
	assert.Equal(t, diag.SeverityError, ds[0].Severity)
	assert.Equal(t, "|> pipeline: missing", src[ds[0].Start:ds[0].End])
}

func TestGraphQL(t *testing.T) {
	const schema = "graphqlSchema = `type Query { users: [User] }\ntype User { id: ID posts: [String] }`\n"

	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "resolvers match the schema",
			src:  schema + "query users =\n  |> jq: `[]`\nresolver User.posts =\n  |> jq: `[]`\n",
			want: []string{},
		},
		{
			name: "unknown query field",
			src:  schema + "query user =\n  |> jq: `[]`\n",
			want: []string{"warning: query 'user' is not a field of the schema's Query type; did you mean 'users'?"},
		},
		{
			name: "mutation without a Mutation type",
			src:  schema + "mutation addUser =\n  |> jq: `{}`\n",
			want: []string{"warning: mutation 'addUser' is not a field of the schema's Mutation type"},
		},
		{
			name: "unknown resolver type and field",
			src:  schema + "resolver Post.author =\n  |> jq: `{}`\nresolver User.name =\n  |> jq: `{}`\n",
			want: []string{
				"warning: resolver type 'Post' is not defined in the schema",
				"warning: resolver field 'User.name' is not defined in the schema",
			},
		},
		{
			name: "resolvers without a schema",
			src:  "query users =\n  |> jq: `[]`\n",
			want: []string{"warning: query 'users' has no graphqlSchema to resolve against"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, messages(run(t, tt.src, nil)))
		})
	}
}

func TestGraphQLSyntaxErrorPosition(t *testing.T) {
	src := "# api\ngraphqlSchema = `type Query { users: }`\n"
	ds := run(t, src, nil)
	require.NotEmpty(t, ds)

	d := ds[0]
	assert.Equal(t, diag.SeverityError, d.Severity)
	assert.True(t, strings.HasPrefix(d.Message, "invalid GraphQL schema: "), d.Message)
	assert.Equal(t, strings.Index(src, "}"), d.Start)
}

func TestSDLOffsetSecondLine(t *testing.T) {
	src := "graphqlSchema = `type Query {\n  users: [String]\n}`\n"
	prog := parser.Parse(src)
	require.NotNil(t, prog.GraphQLSchema)

	off := sdlOffset(prog.GraphQLSchema, 2, 3)
	assert.Equal(t, strings.Index(src, "users"), off)

	// Out of range locations clamp to the end of the SDL
	end := sdlOffset(prog.GraphQLSchema, 9, 1)
	assert.Equal(t, prog.GraphQLSchema.SDLStart+len(prog.GraphQLSchema.SDL), end)
}

func TestEnv(t *testing.T) {
	src := "config pg {\n  host: $DB_HOST\n  user: $DB_USER || \"app\"\n  pass: $DB_PASS\n}\n"
	ds := run(t, src, map[string]string{"DB_HOST": "localhost"})
	assert.Equal(t, []string{
		"warning: config pg.pass: environment variable $DB_PASS is not set and has no default",
	}, messages(ds))
}

func TestTestTargets(t *testing.T) {
	src := "GET /users/:id\n  |> jq: `.`\n" +
		"pipeline load =\n  |> jq: `.`\n" +
		"describe \"d\"\n" +
		"  with mock pipeline loda returning `{}`\n" +
		"  it \"wrong method\"\n    when calling POST /users/1\n    then status is 200\n" +
		"  it \"unknown pipeline\"\n    when executing pipeline lod\n    then output equals 1\n" +
		"  it \"unknown variable\"\n    with mock pg.getUsers returning `[]`\n    when executing variable pg getUsers\n    then output equals 1\n"

	assert.Equal(t, []string{
		"warning: mock targets undefined pipeline 'loda'",
		"warning: test 'wrong method' calls POST /users/1 but no route matches",
		"warning: test 'unknown pipeline' executes undefined pipeline 'lod'; did you mean 'load'?",
		"warning: test 'unknown variable' executes undefined variable 'pg getUsers'",
	}, messages(run(t, src, nil)))
}

func TestMatchPath(t *testing.T) {
	tests := []struct {
		pattern, path string
		want          bool
	}{
		{"/users", "/users", true},
		{"/users", "/users/", true},
		{"/users/:id", "/users/7", true},
		{"/users/:id", "/users", false},
		{"/users/:id", "/users/7/posts", false},
		{"/users/:id/posts", "/users/7/posts", true},
		{"/static/*", "/static/css/site.css", true},
		{"/static/*", "/static", true},
		{"/", "/", true},
		{"/", "/a", false},
		{"/a", "/b", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchPath(tt.pattern, tt.path), "%s vs %s", tt.pattern, tt.path)
	}
}
