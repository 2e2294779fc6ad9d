// Package expr implements the constrained expression language behind the
// dispatcher's generic evaluation.
//
// Ownership boundary:
// - lexing a single line into tokens (also used for rule matching)
// - parsing tokens into an AST with a precedence-climbing parser
// - evaluating ASTs against an Env with a whitelisted builtin set
//
// Nothing here reaches the host runtime: there is no reflection-based
// lookup, no I/O, and recursion and sequence sizes are bounded.
package expr
