package lexer

import (
	"sort"
	"strings"
)

// Cursor is a character-level scanner over an immutable source string.
// Offsets are byte offsets. The cursor never fails: reads past the end
// return 0 and advancing past the end clamps to len(source).
type Cursor struct {
	src        string
	pos        int
	lineStarts []int // built lazily by Line
}

// NewCursor creates a cursor positioned at the start of src
func NewCursor(src string) *Cursor {
	return &Cursor{src: src}
}

// Source returns the full input
func (c *Cursor) Source() string { return c.src }

// Pos returns the current byte offset
func (c *Cursor) Pos() int { return c.pos }

// SetPos moves the cursor to an absolute offset (used to restore a saved mark)
func (c *Cursor) SetPos(pos int) {
	switch {
	case pos < 0:
		c.pos = 0
	case pos > len(c.src):
		c.pos = len(c.src)
	default:
		c.pos = pos
	}
}

// EOF reports whether the whole input has been consumed
func (c *Cursor) EOF() bool { return c.pos >= len(c.src) }

// Rest returns the unconsumed input
func (c *Cursor) Rest() string { return c.src[c.pos:] }

// Peek returns the byte at offset from the current position, or 0 past the end
func (c *Cursor) Peek(offset int) byte {
	i := c.pos + offset
	if i < 0 || i >= len(c.src) {
		return 0
	}
	return c.src[i]
}

// Advance moves forward n bytes
func (c *Cursor) Advance(n int) {
	c.SetPos(c.pos + n)
}

// MatchPrefix reports whether the remaining input starts with s
func (c *Cursor) MatchPrefix(s string) bool {
	return strings.HasPrefix(c.src[c.pos:], s)
}

// Consume advances past s if the remaining input starts with it
func (c *Cursor) Consume(s string) bool {
	if !c.MatchPrefix(s) {
		return false
	}
	c.pos += len(s)
	return true
}

// MatchKeyword reports whether the input starts with word and the byte after
// it cannot continue an identifier, so "and" does not match "android".
func (c *Cursor) MatchKeyword(word string) bool {
	if !c.MatchPrefix(word) {
		return false
	}
	return !IsIdentChar(c.Peek(len(word)))
}

// ConsumeKeyword advances past word when MatchKeyword holds
func (c *Cursor) ConsumeKeyword(word string) bool {
	if !c.MatchKeyword(word) {
		return false
	}
	c.pos += len(word)
	return true
}

// ConsumeWhile advances while pred holds and returns the consumed slice
func (c *Cursor) ConsumeWhile(pred func(byte) bool) string {
	start := c.pos
	for c.pos < len(c.src) && pred(c.src[c.pos]) {
		c.pos++
	}
	return c.src[start:c.pos]
}

// ConsumeIdent consumes an identifier, returning "" when none is present
func (c *Cursor) ConsumeIdent() string {
	return c.ConsumeWhile(IsIdentChar)
}

// ConsumeToLineEnd consumes up to (not including) the next newline
func (c *Cursor) ConsumeToLineEnd() string {
	return c.ConsumeWhile(func(ch byte) bool { return ch != '\n' })
}

// AtComment reports whether a # or // comment starts at the cursor
func (c *Cursor) AtComment() bool {
	return c.Peek(0) == '#' || (c.Peek(0) == '/' && c.Peek(1) == '/')
}

// SkipInlineSpaces skips spaces, tabs and carriage returns
func (c *Cursor) SkipInlineSpaces() {
	c.ConsumeWhile(IsInlineSpace)
}

// SkipWhitespaceOnly skips all whitespace including newlines but leaves
// comments in place so they can be captured by the caller.
func (c *Cursor) SkipWhitespaceOnly() {
	c.ConsumeWhile(IsSpace)
}

// SkipSpaces skips whitespace, newlines and comments
func (c *Cursor) SkipSpaces() {
	for {
		c.SkipWhitespaceOnly()
		if !c.AtComment() {
			return
		}
		c.ConsumeToLineEnd()
	}
}

// AtLineEnd reports whether only inline spaces separate the cursor from a
// newline, a comment, or the end of input. The cursor does not move.
func (c *Cursor) AtLineEnd() bool {
	i := c.pos
	for i < len(c.src) && IsInlineSpace(c.src[i]) {
		i++
	}
	if i >= len(c.src) || c.src[i] == '\n' || c.src[i] == '#' {
		return true
	}
	return c.src[i] == '/' && i+1 < len(c.src) && c.src[i+1] == '/'
}

// LineStart returns the offset of the first byte of the line containing offset
func (c *Cursor) LineStart(offset int) int {
	if offset > len(c.src) {
		offset = len(c.src)
	}
	return strings.LastIndexByte(c.src[:offset], '\n') + 1
}

// LineEnd returns the offset of the newline ending the line containing offset,
// or len(source) on the last line.
func (c *Cursor) LineEnd(offset int) int {
	if offset >= len(c.src) {
		return len(c.src)
	}
	if i := strings.IndexByte(c.src[offset:], '\n'); i >= 0 {
		return offset + i
	}
	return len(c.src)
}

// Line returns the 1-based line number of offset
func (c *Cursor) Line(offset int) int {
	if c.lineStarts == nil {
		c.lineStarts = []int{0}
		for i := 0; i < len(c.src); i++ {
			if c.src[i] == '\n' {
				c.lineStarts = append(c.lineStarts, i+1)
			}
		}
	}
	return sort.Search(len(c.lineStarts), func(i int) bool { return c.lineStarts[i] > offset })
}

// ConsumeBacktick consumes a backtick-delimited string and returns its raw
// contents. Backtick strings may span lines and have no escapes. On failure the
// cursor is left unchanged.
func (c *Cursor) ConsumeBacktick() (string, bool) {
	if c.Peek(0) != '`' {
		return "", false
	}
	end := strings.IndexByte(c.src[c.pos+1:], '`')
	if end < 0 {
		return "", false
	}
	body := c.src[c.pos+1 : c.pos+1+end]
	c.pos += end + 2
	return body, true
}

// ConsumeQuoted consumes a double-quoted single-line string and returns its
// raw contents. Backslash escapes are skipped over, never decoded. On failure
// the cursor is left unchanged.
func (c *Cursor) ConsumeQuoted() (string, bool) {
	if c.Peek(0) != '"' {
		return "", false
	}
	for i := c.pos + 1; i < len(c.src); i++ {
		switch c.src[i] {
		case '\\':
			i++
		case '\n':
			return "", false
		case '"':
			body := c.src[c.pos+1 : i]
			c.pos = i + 1
			return body, true
		}
	}
	return "", false
}
