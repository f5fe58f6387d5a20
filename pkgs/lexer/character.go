package lexer

// Character classification lookup tables
var (
	isInlineSpace [256]bool
	isSpace       [256]bool
	isDigit       [256]bool
	isIdentPart   [256]bool
)

func init() {
	for i := 0; i < 256; i++ {
		ch := byte(i)
		isInlineSpace[i] = ch == ' ' || ch == '\t' || ch == '\r'
		isSpace[i] = isInlineSpace[i] || ch == '\n'
		isDigit[i] = '0' <= ch && ch <= '9'
		isIdentPart[i] = ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') ||
			isDigit[i] || ch == '_' || ch == '-' || ch >= 0x80
	}
}

// IsInlineSpace reports whether ch is a space, tab or carriage return
func IsInlineSpace(ch byte) bool { return isInlineSpace[ch] }

// IsSpace reports whether ch is inline space or a newline
func IsSpace(ch byte) bool { return isSpace[ch] }

// IsDigit reports whether ch is an ASCII digit
func IsDigit(ch byte) bool { return isDigit[ch] }

// IsIdentChar reports whether ch may appear in an identifier.
// Bytes of multi-byte UTF-8 sequences are always identifier characters.
func IsIdentChar(ch byte) bool { return isIdentPart[ch] }

// IsNotSpace is the complement of IsSpace, handy for ConsumeWhile
func IsNotSpace(ch byte) bool { return !isSpace[ch] }
