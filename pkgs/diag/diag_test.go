package diag

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineCol(t *testing.T) {
	src := "ab\ncd\n\nx"
	tests := []struct {
		offset    int
		line, col int
	}{
		{0, 1, 1},
		{1, 1, 2},
		{2, 1, 3},
		{3, 2, 1},
		{7, 4, 1},
		{-5, 1, 1},
		{100, 4, 2},
	}
	for _, tt := range tests {
		line, col := LineCol(src, tt.offset)
		assert.Equal(t, [2]int{tt.line, tt.col}, [2]int{line, col}, "offset %d", tt.offset)
	}
}

func TestFormat(t *testing.T) {
	src := "GET /a\n  |> ???\n"
	d := Warnf(9, 15, "unrecognized syntax")
	assert.Equal(t, "app.wp:2:3: warning: unrecognized syntax", Format("app.wp", src, d))
}

func TestSinkMarks(t *testing.T) {
	var s Sink
	s.Add(Errorf(0, 1, "first"))
	mark := s.Len()
	s.Add(Warnf(2, 3, "second"))
	s.Add(Warnf(4, 5, "third"))

	s.Truncate(mark)
	require.Equal(t, 1, s.Len())
	assert.Equal(t, "first", s.Items()[0].Message)

	// Truncating past the end is a no-op
	s.Truncate(10)
	assert.Equal(t, 1, s.Len())

	items := s.Items()
	items[0].Message = "changed"
	assert.Equal(t, "first", s.Items()[0].Message, "Items returns a copy")
}

func TestSinkFilter(t *testing.T) {
	var s Sink
	s.Add(Warnf(0, 1, "keep"))
	s.Add(Warnf(2, 3, "drop"))
	s.Add(Errorf(4, 5, "keep"))

	s.Filter(func(d Diagnostic) bool { return d.Message == "keep" })
	require.Equal(t, 2, s.Len())
	assert.True(t, HasErrors(s.Items()))
	assert.Equal(t, 1, Count(s.Items(), SeverityWarning))
}

func TestSortIsStable(t *testing.T) {
	ds := []Diagnostic{
		Warnf(5, 6, "b"),
		Errorf(1, 2, "a"),
		Warnf(5, 9, "c"),
	}
	Sort(ds)
	var got []string
	for _, d := range ds {
		got = append(got, d.Message)
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestDiagnosticJSON(t *testing.T) {
	b, err := json.Marshal(Errorf(1, 4, "bad %s", "thing"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"bad thing","start":1,"end":4,"severity":"error"}`, string(b))
}

func TestSuggest(t *testing.T) {
	keywords := []string{"config", "pipeline", "query", "mutation", "resolver", "describe", "GET", "POST"}

	tests := []struct {
		word string
		want string
	}{
		{"confg", "config"},
		{"pipelin", "pipeline"},
		{"configg", "config"},
		{"config", ""},
		{"zzzz", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Suggest(tt.word, keywords), "Suggest(%q)", tt.word)
	}

	assert.Equal(t, "", Suggest("confg", nil))
	assert.Equal(t, "; did you mean 'pipeline'?", DidYouMean("pipelin", keywords))
	assert.Equal(t, "", DidYouMean("zzzz", keywords))
}
