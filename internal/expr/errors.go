package expr

import (
	"errors"
	"fmt"
)

// LexError is produced when a line cannot be tokenized.
type LexError struct {
	Col int
	Msg string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lexical error at col %d: %s", e.Col, e.Msg)
}

// ParseError is produced when tokens do not form an expression.
type ParseError struct {
	Col int
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at col %d: %s", e.Col, e.Msg)
}

// EvalError is produced while evaluating a well-formed expression.
type EvalError struct {
	Col int
	Msg string
}

func (e *EvalError) Error() string {
	if e.Col <= 0 {
		return "eval error: " + e.Msg
	}
	return fmt.Sprintf("eval error at col %d: %s", e.Col, e.Msg)
}

func newLexError(col int, format string, args ...any) *LexError {
	return &LexError{Col: col, Msg: fmt.Sprintf(format, args...)}
}

func newParseError(col int, format string, args ...any) *ParseError {
	return &ParseError{Col: col, Msg: fmt.Sprintf(format, args...)}
}

func newEvalError(col int, format string, args ...any) *EvalError {
	return &EvalError{Col: col, Msg: fmt.Sprintf(format, args...)}
}

// IsSyntax reports whether err came from the lexer or the parser.
func IsSyntax(err error) bool {
	var lexErr *LexError
	var parseErr *ParseError
	return errors.As(err, &lexErr) || errors.As(err, &parseErr)
}
