package expr

import (
	"strconv"
	"strings"
)

// Lexer scans a single line of source into tokens.
type Lexer struct {
	src    string
	start  int
	cur    int
	tokens []Token
}

// NewLexer creates a new lexer for the given source.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src}
}

// Tokenize lexes src and returns its tokens terminated by EOF.
func Tokenize(src string) ([]Token, error) {
	return NewLexer(src).Scan()
}

// Scan lexes the whole source. The returned slice always ends with EOF on
// success.
func (l *Lexer) Scan() ([]Token, error) {
	for {
		l.skipSpace()
		l.start = l.cur
		if l.isAtEnd() {
			l.add(EOF, nil)
			return l.tokens, nil
		}
		if err := l.scanToken(); err != nil {
			return nil, err
		}
	}
}

func (l *Lexer) isAtEnd() bool { return l.cur >= len(l.src) }

func (l *Lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.src[l.cur]
}

func (l *Lexer) peekN(n int) byte {
	if l.cur+n >= len(l.src) {
		return 0
	}
	return l.src[l.cur+n]
}

func (l *Lexer) advance() byte {
	ch := l.src[l.cur]
	l.cur++
	return ch
}

func (l *Lexer) match(want byte) bool {
	if l.peek() != want || l.isAtEnd() {
		return false
	}
	l.cur++
	return true
}

func (l *Lexer) skipSpace() {
	for !l.isAtEnd() {
		switch l.peek() {
		case ' ', '\t', '\r', '\n':
			l.cur++
		default:
			return
		}
	}
}

func (l *Lexer) add(tt TokenType, lit any) {
	l.tokens = append(l.tokens, Token{
		Type:    tt,
		Lexeme:  l.src[l.start:l.cur],
		Literal: lit,
		Col:     l.start + 1,
	})
}

func (l *Lexer) errorf(format string, args ...any) error {
	return newLexError(l.start+1, format, args...)
}

func (l *Lexer) scanToken() error {
	ch := l.advance()
	switch {
	case isDigit(ch):
		return l.number()
	case isIdentStart(ch):
		return l.identifier()
	}

	switch ch {
	case '(':
		l.add(LPAREN, nil)
	case ')':
		l.add(RPAREN, nil)
	case '[':
		l.add(LBRACKET, nil)
	case ']':
		l.add(RBRACKET, nil)
	case ',':
		l.add(COMMA, nil)
	case '+':
		l.add(PLUS, nil)
	case '-':
		l.add(MINUS, nil)
	case '*':
		l.add(STAR, nil)
	case '/':
		l.add(SLASH, nil)
	case '%':
		l.add(PERCENT, nil)
	case ':':
		if l.match('=') {
			l.add(DECLARE, nil)
		} else {
			l.add(COLON, nil)
		}
	case '?':
		if l.match('?') {
			l.add(COALESCE, nil)
		} else {
			l.add(QUESTION, nil)
		}
	case '=':
		switch {
		case l.match('='):
			l.add(EQ, nil)
		case l.match('>'):
			l.add(ARROW, nil)
		default:
			return l.errorf("unexpected '='; use ':=' to assign or '==' to compare")
		}
	case '!':
		if l.match('=') {
			l.add(NEQ, nil)
		} else {
			l.add(NOT, nil)
		}
	case '<':
		switch {
		case l.match('-'):
			l.add(SEND, nil)
		case l.match('='):
			l.add(LTE, nil)
		default:
			l.add(LT, nil)
		}
	case '>':
		if l.match('=') {
			l.add(GTE, nil)
		} else {
			l.add(GT, nil)
		}
	case '&':
		if !l.match('&') {
			return l.errorf("unexpected '&'")
		}
		l.add(AND, nil)
	case '|':
		if !l.match('|') {
			return l.errorf("unexpected '|'")
		}
		l.add(OR, nil)
	case '"', '\'':
		return l.str(ch)
	default:
		return l.errorf("unexpected character %q", ch)
	}
	return nil
}

func (l *Lexer) number() error {
	isFloat := false
	for isDigit(l.peek()) {
		l.cur++
	}
	if l.peek() == '.' && isDigit(l.peekN(1)) {
		isFloat = true
		l.cur++
		for isDigit(l.peek()) {
			l.cur++
		}
	}
	if c := l.peek(); c == 'e' || c == 'E' {
		save := l.cur
		l.cur++
		if c := l.peek(); c == '+' || c == '-' {
			l.cur++
		}
		if !isDigit(l.peek()) {
			l.cur = save
		} else {
			isFloat = true
			for isDigit(l.peek()) {
				l.cur++
			}
		}
	}

	text := l.src[l.start:l.cur]
	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return l.errorf("invalid number %q", text)
		}
		l.add(FLOAT, f)
		return nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return l.errorf("integer out of range %q", text)
	}
	l.add(INT, n)
	return nil
}

func (l *Lexer) identifier() error {
	for isIdentPart(l.peek()) {
		l.cur++
	}
	name := l.src[l.start:l.cur]

	// "own!(" is a macro, "x != y" is not.
	if l.peek() == '!' && l.peekN(1) != '=' {
		l.cur++
		l.add(MACRO, name)
		return nil
	}
	if kw, ok := keywords[name]; ok {
		switch kw {
		case TRUE:
			l.add(TRUE, true)
		case FALSE:
			l.add(FALSE, false)
		default:
			l.add(kw, nil)
		}
		return nil
	}
	l.add(IDENT, name)
	return nil
}

func (l *Lexer) str(quote byte) error {
	var b strings.Builder
	for {
		if l.isAtEnd() {
			return l.errorf("unterminated string")
		}
		ch := l.advance()
		if ch == quote {
			break
		}
		if ch != '\\' {
			b.WriteByte(ch)
			continue
		}
		if l.isAtEnd() {
			return l.errorf("unterminated string")
		}
		esc := l.advance()
		switch esc {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '0':
			b.WriteByte(0)
		case '\\', '"', '\'':
			b.WriteByte(esc)
		default:
			return newLexError(l.cur-1, "unknown escape sequence '\\%c'", esc)
		}
	}
	l.add(STRING, b.String())
	return nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }
