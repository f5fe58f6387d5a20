// Package diag holds the non-fatal diagnostics produced while parsing and
// checking WebPipe sources.
package diag

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Severity of a diagnostic
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the severity by name
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Diagnostic is a position-tagged problem that did not stop parsing.
// Start and End are byte offsets into the source, End exclusive.
type Diagnostic struct {
	Message  string   `json:"message"`
	Start    int      `json:"start"`
	End      int      `json:"end"`
	Severity Severity `json:"severity"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%d-%d: %s: %s", d.Start, d.End, d.Severity, d.Message)
}

// Errorf builds an error-severity diagnostic
func Errorf(start, end int, format string, args ...interface{}) Diagnostic {
	return Diagnostic{Message: fmt.Sprintf(format, args...), Start: start, End: end, Severity: SeverityError}
}

// Warnf builds a warning-severity diagnostic
func Warnf(start, end int, format string, args ...interface{}) Diagnostic {
	return Diagnostic{Message: fmt.Sprintf(format, args...), Start: start, End: end, Severity: SeverityWarning}
}

// Sink accumulates diagnostics. Its length doubles as a mark so that a
// backtracking parser can drop diagnostics recorded by a failed alternative.
type Sink struct {
	items []Diagnostic
}

// Add records a diagnostic
func (s *Sink) Add(d Diagnostic) {
	s.items = append(s.items, d)
}

// Len returns the number of recorded diagnostics
func (s *Sink) Len() int { return len(s.items) }

// Truncate drops every diagnostic recorded after mark n
func (s *Sink) Truncate(n int) {
	if n < len(s.items) {
		s.items = s.items[:n]
	}
}

// Filter keeps only the diagnostics for which keep returns true
func (s *Sink) Filter(keep func(Diagnostic) bool) {
	kept := s.items[:0]
	for _, d := range s.items {
		if keep(d) {
			kept = append(kept, d)
		}
	}
	s.items = kept
}

// Items returns a copy of the recorded diagnostics
func (s *Sink) Items() []Diagnostic {
	out := make([]Diagnostic, len(s.items))
	copy(out, s.items)
	return out
}

// HasErrors reports whether any diagnostic in ds is an error
func HasErrors(ds []Diagnostic) bool {
	return Count(ds, SeverityError) > 0
}

// Count returns the number of diagnostics with the given severity
func Count(ds []Diagnostic, sev Severity) int {
	n := 0
	for _, d := range ds {
		if d.Severity == sev {
			n++
		}
	}
	return n
}

// Sort orders diagnostics by start offset, keeping insertion order for ties
func Sort(ds []Diagnostic) {
	sort.SliceStable(ds, func(i, j int) bool { return ds[i].Start < ds[j].Start })
}

// LineCol converts a byte offset into a 1-based line and column
func LineCol(src string, offset int) (line, col int) {
	if offset > len(src) {
		offset = len(src)
	}
	if offset < 0 {
		offset = 0
	}
	before := src[:offset]
	line = strings.Count(before, "\n") + 1
	col = offset - (strings.LastIndexByte(before, '\n') + 1) + 1
	return line, col
}

// Format renders a diagnostic in the conventional file:line:col form
func Format(filename, src string, d Diagnostic) string {
	line, col := LineCol(src, d.Start)
	return fmt.Sprintf("%s:%d:%d: %s: %s", filename, line, col, d.Severity, d.Message)
}
