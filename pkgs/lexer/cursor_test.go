package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorKeywords(t *testing.T) {
	c := NewCursor("and android")

	assert.True(t, c.MatchKeyword("and"))
	assert.True(t, c.ConsumeKeyword("and"))
	assert.Equal(t, 3, c.Pos())

	c.SkipInlineSpaces()
	assert.False(t, c.ConsumeKeyword("and"), "keyword must end at a word boundary")
	assert.Equal(t, "android", c.ConsumeIdent())
	assert.True(t, c.EOF())
}

func TestCursorSkipModes(t *testing.T) {
	src := "  \t# comment\n  // other\n\nnext"

	c := NewCursor(src)
	c.SkipInlineSpaces()
	assert.Equal(t, 3, c.Pos())
	assert.True(t, c.AtComment())

	c = NewCursor(src)
	c.SkipWhitespaceOnly()
	assert.Equal(t, 3, c.Pos(), "comments are left for the caller")

	c = NewCursor(src)
	c.SkipSpaces()
	assert.Equal(t, "next", c.Rest())
}

func TestCursorAtLineEnd(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"", true},
		{"   ", true},
		{"  \n x", true},
		{"  # c", true},
		{" // c", true},
		{" / x", false},
		{" x", false},
	}
	for _, tt := range tests {
		c := NewCursor(tt.src)
		assert.Equal(t, tt.want, c.AtLineEnd(), "AtLineEnd(%q)", tt.src)
		assert.Equal(t, 0, c.Pos(), "AtLineEnd must not move the cursor")
	}
}

func TestCursorStrings(t *testing.T) {
	t.Run("backtick spans lines", func(t *testing.T) {
		c := NewCursor("`a\nb` rest")
		s, ok := c.ConsumeBacktick()
		require.True(t, ok)
		assert.Equal(t, "a\nb", s)
		assert.Equal(t, " rest", c.Rest())
	})

	t.Run("unclosed backtick leaves cursor", func(t *testing.T) {
		c := NewCursor("`abc")
		_, ok := c.ConsumeBacktick()
		assert.False(t, ok)
		assert.Equal(t, 0, c.Pos())
	})

	t.Run("quoted keeps escapes raw", func(t *testing.T) {
		c := NewCursor(`"a\"b" x`)
		s, ok := c.ConsumeQuoted()
		require.True(t, ok)
		assert.Equal(t, `a\"b`, s)
		assert.Equal(t, " x", c.Rest())
	})

	t.Run("quoted stops at newline", func(t *testing.T) {
		c := NewCursor("\"abc\n\"")
		_, ok := c.ConsumeQuoted()
		assert.False(t, ok)
		assert.Equal(t, 0, c.Pos())
	})
}

func TestCursorLines(t *testing.T) {
	src := "one\ntwo\n\nfour"
	c := NewCursor(src)

	assert.Equal(t, 1, c.Line(0))
	assert.Equal(t, 1, c.Line(3))
	assert.Equal(t, 2, c.Line(4))
	assert.Equal(t, 3, c.Line(8))
	assert.Equal(t, 4, c.Line(len(src)))

	assert.Equal(t, 4, c.LineStart(6))
	assert.Equal(t, 7, c.LineEnd(5))
	assert.Equal(t, len(src), c.LineEnd(10))
}

func TestCursorBounds(t *testing.T) {
	c := NewCursor("ab")
	c.SetPos(10)
	assert.Equal(t, 2, c.Pos())
	assert.Equal(t, byte(0), c.Peek(0))
	c.SetPos(-1)
	assert.Equal(t, 0, c.Pos())
	assert.Equal(t, byte('b'), c.Peek(1))
}

func TestIdentChars(t *testing.T) {
	for _, ch := range []byte("azAZ09_-") {
		assert.True(t, IsIdentChar(ch), "%q", ch)
	}
	for _, ch := range []byte(" :.@()`\"") {
		assert.False(t, IsIdentChar(ch), "%q", ch)
	}
	assert.True(t, IsIdentChar(0xC3), "bytes of multi-byte runes are identifier bytes")
}
