package expr

import "fmt"

// TokenType represents the kind of token.
type TokenType int

const (
	// Special
	EOF TokenType = iota

	// Literals & identifiers
	IDENT
	MACRO // "own!", "borrow!", ... (identifier glued to a bang)
	INT
	FLOAT
	STRING

	// Punctuation
	LPAREN   // "("
	RPAREN   // ")"
	LBRACKET // "["
	RBRACKET // "]"
	COMMA    // ","
	COLON    // ":"

	// Operators
	PLUS
	MINUS
	STAR
	SLASH
	PERCENT
	EQ  // "=="
	NEQ // "!="
	LT
	LTE
	GT
	GTE
	AND // "&&" or "and"
	OR  // "||" or "or"
	NOT // "!" or "not"
	QUESTION
	COALESCE // "??"
	DECLARE  // ":="
	SEND     // "<-"
	ARROW    // "=>"

	// Keywords
	TRUE
	FALSE
	NIL
	FOR
	IN
	IF
)

var tokenNames = map[TokenType]string{
	EOF:      "end of input",
	IDENT:    "identifier",
	MACRO:    "macro",
	INT:      "integer",
	FLOAT:    "float",
	STRING:   "string",
	LPAREN:   "'('",
	RPAREN:   "')'",
	LBRACKET: "'['",
	RBRACKET: "']'",
	COMMA:    "','",
	COLON:    "':'",
	PLUS:     "'+'",
	MINUS:    "'-'",
	STAR:     "'*'",
	SLASH:    "'/'",
	PERCENT:  "'%'",
	EQ:       "'=='",
	NEQ:      "'!='",
	LT:       "'<'",
	LTE:      "'<='",
	GT:       "'>'",
	GTE:      "'>='",
	AND:      "'&&'",
	OR:       "'||'",
	NOT:      "'!'",
	QUESTION: "'?'",
	COALESCE: "'??'",
	DECLARE:  "':='",
	SEND:     "'<-'",
	ARROW:    "'=>'",
	TRUE:     "true",
	FALSE:    "false",
	NIL:      "nil",
	FOR:      "for",
	IN:       "in",
	IF:       "if",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("token(%d)", int(t))
}

// Token is a lexical token with optional literal value.
type Token struct {
	Type    TokenType
	Lexeme  string // raw text slice
	Literal any    // parsed value for literals, bare name for macros
	Col     int    // 1-based byte column of the first character
}

var keywords = map[string]TokenType{
	"true":  TRUE,
	"false": FALSE,
	"nil":   NIL,
	"null":  NIL,
	"None":  NIL,
	"and":   AND,
	"or":    OR,
	"not":   NOT,
	"for":   FOR,
	"in":    IN,
	"if":    IF,
}
