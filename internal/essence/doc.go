// Package essence owns the mixed-syntax dispatcher.
//
// Ownership boundary:
// - marker classification of raw lines (pure, never evaluates)
// - rule dispatch over the lexed token stream, first match wins
// - per-dispatcher state: variables, channels, ownership, events, memory
//
// Generic evaluation is delegated to internal/expr; this package never
// evaluates text any other way.
package essence
