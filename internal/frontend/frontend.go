// Package frontend declares the boundary between this backend and an
// external lexer/parser/semantic-analysis stage. The backend never
// implements this interface itself; it is satisfied by whatever produces
// a name-resolved, type-checked syntax tree upstream.
package frontend

import "github.com/nwmarino/statim/internal/siir"

// Emitter populates cfg through b. An external front end (lexer, parser,
// name resolution, semantic checking) implements Emitter once it has a
// fully resolved syntax tree for one translation unit; the driver calls
// Emit exactly once per input file, before SSA construction.
type Emitter interface {
	Emit(b *siir.Builder, cfg *siir.CFG) error
}

// EmitterFunc adapts a plain function to the Emitter interface, the same
// convenience shape http.HandlerFunc offers for http.Handler. Tests use
// this to build a CFG inline with a closure rather than a named type.
type EmitterFunc func(b *siir.Builder, cfg *siir.CFG) error

func (f EmitterFunc) Emit(b *siir.Builder, cfg *siir.CFG) error { return f(b, cfg) }
