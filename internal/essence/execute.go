package essence

import (
	"fmt"
	"strings"
	"time"

	"github.com/danmuck/essence/internal/expr"
	"github.com/danmuck/essence/internal/observability"
	"github.com/rs/zerolog/log"
)

// Rule names the executor rule that handled a line.
type Rule string

const (
	RuleAssign   Rule = "assign"
	RuleSend     Rule = "send"
	RuleOwn      Rule = "own"
	RuleBorrow   Rule = "borrow"
	RuleEvent    Rule = "event"
	RuleMalloc   Rule = "malloc"
	RuleCoalesce Rule = "coalesce"
	RuleMove     Rule = "move"
	RuleEval     Rule = "eval"
)

// Result is the outcome of one Execute call. Err is set instead of Value
// when lexing, parsing, evaluation or a state operation failed.
type Result struct {
	Rule  Rule
	Value any
	Err   error
}

// Output renders the value, or the error description when Err is set.
func (r Result) Output() string {
	if r.Err != nil {
		return "error: " + r.Err.Error()
	}
	return expr.FormatValue(r.Value)
}

type rule struct {
	name  Rule
	match func(toks []expr.Token) bool
	run   func(d *Dispatcher, toks []expr.Token) (any, error)
}

// rules in priority order; the first whose shape matches handles the line.
var rules = []rule{
	{name: RuleAssign, match: leadingPair(expr.DECLARE), run: (*Dispatcher).runAssign},
	{name: RuleSend, match: leadingPair(expr.SEND), run: (*Dispatcher).runSend},
	{name: RuleOwn, match: leadingMacro("own"), run: (*Dispatcher).runOwn},
	{name: RuleBorrow, match: leadingMacro("borrow"), run: (*Dispatcher).runBorrow},
	{name: RuleEvent, match: leadingMacro("event"), run: (*Dispatcher).runEvent},
	{name: RuleMalloc, match: leadingMacro("malloc"), run: (*Dispatcher).runMalloc},
	{name: RuleCoalesce, match: coalesceShape, run: (*Dispatcher).runCoalesce},
	{name: RuleMove, match: leadingMacro("move"), run: (*Dispatcher).runMove},
}

// MaxLineLength bounds the bytes accepted by Execute.
const MaxLineLength = 64 << 10

// Execute lexes line once, dispatches on the token shape and returns the
// handling rule with its value or error. It never panics.
func (d *Dispatcher) Execute(line string) Result {
	start := time.Now()
	res := d.execute(strings.TrimSpace(line))
	dur := time.Since(start)
	observability.RecordDispatch(string(res.Rule), res.Err == nil, dur)

	if res.Err != nil {
		log.Warn().
			Str("rule", string(res.Rule)).
			Str("line", clip(line)).
			Err(res.Err).
			Msg("dispatch failed")
		return res
	}
	log.Debug().
		Str("rule", string(res.Rule)).
		Str("line", clip(line)).
		Dur("duration", dur).
		Msg("dispatch executed")
	return res
}

func (d *Dispatcher) execute(line string) (res Result) {
	res.Rule = RuleEval
	defer func() {
		if r := recover(); r != nil {
			res.Value = nil
			res.Err = &expr.EvalError{Msg: fmt.Sprintf("internal fault: %v", r)}
		}
	}()

	if len(line) > MaxLineLength {
		res.Err = fmt.Errorf("%w: %d bytes (limit %d)", ErrLineTooLong, len(line), MaxLineLength)
		return res
	}
	toks, err := expr.Tokenize(line)
	if err != nil {
		res.Err = err
		return res
	}
	for _, r := range rules {
		if !r.match(toks) {
			continue
		}
		res.Rule = r.name
		res.Value, res.Err = r.run(d, toks)
		if res.Err != nil {
			res.Value = nil
		}
		return res
	}
	res.Value, res.Err = d.eval(toks)
	if res.Err != nil {
		res.Value = nil
	}
	return res
}

// Eval evaluates a bare expression against the dispatcher's state without
// rule dispatch.
func (d *Dispatcher) Eval(src string) (any, error) {
	return expr.EvalString(src, d.env)
}

func (d *Dispatcher) eval(toks []expr.Token) (any, error) {
	n, err := expr.ParseTokens(toks)
	if err != nil {
		return nil, err
	}
	return expr.Eval(n, d.env)
}

func (d *Dispatcher) runAssign(toks []expr.Token) (any, error) {
	name := toks[0].Literal.(string)
	v, err := d.eval(toks[2:])
	if err != nil {
		return nil, err
	}
	d.vars.Set(name, v)
	return v, nil
}

func (d *Dispatcher) runSend(toks []expr.Token) (any, error) {
	name := toks[0].Literal.(string)
	v, err := d.eval(toks[2:])
	if err != nil {
		return nil, err
	}
	d.channels.Send(name, v)
	return fmt.Sprintf("sent %s to channel %s", expr.FormatValue(v), name), nil
}

// own!(expr, "name")
func (d *Dispatcher) runOwn(toks []expr.Token) (any, error) {
	args, err := macroArgs(toks, 2)
	if err != nil {
		return nil, err
	}
	name, err := stringArg(toks[0], args[1])
	if err != nil {
		return nil, err
	}
	v, err := d.eval(args[0])
	if err != nil {
		return nil, err
	}
	if err := d.ownership.Own(name, v); err != nil {
		return nil, err
	}
	return fmt.Sprintf("owned %s as %s", expr.FormatValue(v), name), nil
}

// borrow!("name")
func (d *Dispatcher) runBorrow(toks []expr.Token) (any, error) {
	args, err := macroArgs(toks, 1)
	if err != nil {
		return nil, err
	}
	name, err := stringArg(toks[0], args[0])
	if err != nil {
		return nil, err
	}
	v, _ := d.ownership.Borrow(name)
	return v, nil
}

// event!(name, expr)
func (d *Dispatcher) runEvent(toks []expr.Token) (any, error) {
	args, err := macroArgs(toks, 2)
	if err != nil {
		return nil, err
	}
	name, err := nameToken(toks[0], args[0])
	if err != nil {
		return nil, err
	}
	v, err := d.eval(args[1])
	if err != nil {
		return nil, err
	}
	n := d.events.Emit(name, v)
	return fmt.Sprintf("emitted %s to %d listeners", name, n), nil
}

// malloc!(size)
func (d *Dispatcher) runMalloc(toks []expr.Token) (any, error) {
	args, err := macroArgs(toks, 1)
	if err != nil {
		return nil, err
	}
	v, err := d.eval(args[0])
	if err != nil {
		return nil, err
	}
	size, ok := v.(int64)
	if !ok {
		return nil, fmt.Errorf("%w: malloc! size must be int, got %s", ErrMalformedMacro, expr.TypeName(v))
	}
	handle, err := d.memory.Malloc(size)
	if err != nil {
		return nil, err
	}
	return fmt.Sprintf("allocated %d bytes at %s", size, handle), nil
}

// left ?? right: a failing or nil left side falls through to the right side,
// whose own failure is not rescued.
func (d *Dispatcher) runCoalesce(toks []expr.Token) (any, error) {
	i := topLevelIndex(toks, expr.COALESCE)
	left, err := d.eval(toks[:i])
	if err == nil && left != nil {
		return left, nil
	}
	return d.eval(toks[i+1:])
}

// move!("from", "to")
func (d *Dispatcher) runMove(toks []expr.Token) (any, error) {
	args, err := macroArgs(toks, 2)
	if err != nil {
		return nil, err
	}
	from, err := stringArg(toks[0], args[0])
	if err != nil {
		return nil, err
	}
	to, err := stringArg(toks[0], args[1])
	if err != nil {
		return nil, err
	}
	if _, err := d.ownership.Move(from, to); err != nil {
		return nil, err
	}
	return fmt.Sprintf("moved %s to %s", from, to), nil
}

func leadingPair(tt expr.TokenType) func([]expr.Token) bool {
	return func(toks []expr.Token) bool {
		return len(toks) >= 2 && toks[0].Type == expr.IDENT && toks[1].Type == tt
	}
}

func leadingMacro(name string) func([]expr.Token) bool {
	return func(toks []expr.Token) bool {
		return len(toks) > 0 && toks[0].Type == expr.MACRO && toks[0].Literal == name
	}
}

// clip shortens a line for log fields.
func clip(line string) string {
	const max = 200
	if len(line) <= max {
		return line
	}
	return line[:max] + "..."
}

// coalesceShape matches a top-level ?? only when splitting there keeps the
// meaning of the whole line: a top-level ternary or lambda binds looser than
// ?? and is left to the evaluator.
func coalesceShape(toks []expr.Token) bool {
	if topLevelIndex(toks, expr.COALESCE) < 0 {
		return false
	}
	return topLevelIndex(toks, expr.QUESTION) < 0 && topLevelIndex(toks, expr.ARROW) < 0
}

// topLevelIndex finds the first tt outside any parentheses or brackets.
func topLevelIndex(toks []expr.Token, tt expr.TokenType) int {
	depth := 0
	for i, t := range toks {
		switch t.Type {
		case expr.LPAREN, expr.LBRACKET:
			depth++
		case expr.RPAREN, expr.RBRACKET:
			depth--
		case tt:
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// macroArgs splits "name!( a , b )" into want top-level argument runs. The
// closing paren must be the last token before EOF.
func macroArgs(toks []expr.Token, want int) ([][]expr.Token, error) {
	macro := toks[0]
	if len(toks) < 2 || toks[1].Type != expr.LPAREN {
		return nil, fmt.Errorf("%w: expected '(' after %s", ErrMalformedMacro, macro.Lexeme)
	}
	var args [][]expr.Token
	depth := 0
	start := 2
	for i := 2; i < len(toks); i++ {
		t := toks[i]
		switch t.Type {
		case expr.LPAREN, expr.LBRACKET:
			depth++
		case expr.RBRACKET:
			depth--
		case expr.COMMA:
			if depth == 0 {
				args = append(args, toks[start:i])
				start = i + 1
			}
		case expr.RPAREN:
			if depth > 0 {
				depth--
				continue
			}
			if i > start || len(args) > 0 {
				args = append(args, toks[start:i])
			}
			if rest := toks[i+1]; rest.Type != expr.EOF {
				return nil, fmt.Errorf("%w: unexpected %q after %s(...)", ErrMalformedMacro, rest.Lexeme, macro.Lexeme)
			}
			if len(args) != want {
				return nil, fmt.Errorf("%w: %s expects %d argument(s), got %d", ErrMalformedMacro, macro.Lexeme, want, len(args))
			}
			for j, a := range args {
				if len(a) == 0 {
					return nil, fmt.Errorf("%w: %s argument %d is empty", ErrMalformedMacro, macro.Lexeme, j+1)
				}
			}
			return args, nil
		case expr.EOF:
			return nil, fmt.Errorf("%w: missing ')' after %s", ErrMalformedMacro, macro.Lexeme)
		}
	}
	return nil, fmt.Errorf("%w: missing ')' after %s", ErrMalformedMacro, macro.Lexeme)
}

func stringArg(macro expr.Token, arg []expr.Token) (string, error) {
	if len(arg) != 1 || arg[0].Type != expr.STRING {
		return "", fmt.Errorf("%w: %s expects a quoted name", ErrMalformedMacro, macro.Lexeme)
	}
	return arg[0].Literal.(string), nil
}

// nameToken accepts a bare identifier or a quoted string.
func nameToken(macro expr.Token, arg []expr.Token) (string, error) {
	if len(arg) == 1 && (arg[0].Type == expr.IDENT || arg[0].Type == expr.STRING) {
		return arg[0].Literal.(string), nil
	}
	return "", fmt.Errorf("%w: %s expects an event name", ErrMalformedMacro, macro.Lexeme)
}
