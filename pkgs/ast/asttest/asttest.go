// Package asttest provides comparison helpers for tests that assert on
// parsed programs.
package asttest

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/aledsdavies/webpipe/pkgs/ast"
)

// positionFields are position-only metadata that never take part in
// structural equality.
var positionFields = map[string]bool{
	"Span":     true,
	"Line":     true,
	"SDLStart": true,
}

// IgnorePositions drops position-only fields from a cmp comparison
var IgnorePositions = cmp.FilterPath(func(p cmp.Path) bool {
	sf, ok := p.Last().(cmp.StructField)
	return ok && positionFields[sf.Name()]
}, cmp.Ignore())

// Options is the standard option set for comparing programs: positions are
// ignored and nil and empty slices compare equal.
var Options = cmp.Options{IgnorePositions, cmpopts.EquateEmpty()}

// Diff returns a human-readable diff between two programs, or "" if they are
// structurally equal.
func Diff(want, got *ast.Program) string {
	return cmp.Diff(want, got, Options)
}
