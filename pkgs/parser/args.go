package parser

import (
	"encoding/json"
	"strings"
)

// splitArgs scans the bracketed argument list opening at src[start], which
// must be '(' or '['. Arguments are split on commas at the outermost level
// only; commas inside quotes or nested brackets are kept. It returns the
// trimmed arguments, the offset just past the closing bracket, and whether the
// list was balanced. An empty list yields nil.
func splitArgs(src string, start int) ([]string, int, bool) {
	closer := byte(')')
	if src[start] == '[' {
		closer = ']'
	}

	var (
		args  []string
		stack []byte
		from  = start + 1
	)
	for i := start + 1; i < len(src); i++ {
		switch ch := src[i]; ch {
		case '"', '\'', '`':
			end := skipString(src, i)
			if end < 0 {
				return nil, 0, false
			}
			i = end
		case '(':
			stack = append(stack, ')')
		case '[':
			stack = append(stack, ']')
		case '{':
			stack = append(stack, '}')
		case ')', ']', '}':
			if len(stack) > 0 {
				if stack[len(stack)-1] != ch {
					return nil, 0, false
				}
				stack = stack[:len(stack)-1]
				continue
			}
			if ch != closer {
				return nil, 0, false
			}
			args = append(args, strings.TrimSpace(src[from:i]))
			if len(args) == 1 && args[0] == "" {
				args = nil
			}
			return args, i + 1, true
		case ',':
			if len(stack) == 0 {
				args = append(args, strings.TrimSpace(src[from:i]))
				from = i + 1
			}
		}
	}
	return nil, 0, false
}

// skipString returns the offset of the quote closing the string that opens at
// src[i], or -1. Backticks have no escapes.
func skipString(src string, i int) int {
	quote := src[i]
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			if quote != '`' {
				j++
			}
		case quote:
			return j
		}
	}
	return -1
}

// joinTargets reads the task names of a join step. The config is either a
// JSON array of strings or a comma-separated list.
func joinTargets(config string) []string {
	s := strings.TrimSpace(config)
	if strings.HasPrefix(s, "[") {
		var names []string
		if err := json.Unmarshal([]byte(s), &names); err == nil {
			return names
		}
		s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.Trim(strings.TrimSpace(part), `"'`)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
