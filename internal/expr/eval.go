package expr

import (
	"math"
	"strings"
)

// Evaluation limits. MaxCallDepth bounds lambda recursion, MaxEvalDepth
// bounds nested node evaluation (left-leaning operator chains are built
// without parser recursion) and MaxSteps bounds the total nodes visited by
// one Eval or Apply call.
const (
	MaxCallDepth = 200
	MaxEvalDepth = 4096
	MaxSteps     = 1 << 22
)

// Eval evaluates n against env. Standard builtins are visible unless env
// shadows them. Evaluation never panics; internal faults become *EvalError.
func Eval(n Node, env Env) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			v = nil
			err = newEvalError(n.Col(), "internal fault: %v", r)
		}
	}()
	ev := &evaluator{}
	return ev.eval(n, env)
}

// EvalString parses and evaluates src in one step.
func EvalString(src string, env Env) (any, error) {
	n, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return Eval(n, env)
}

// Apply calls a lambda or builtin with already evaluated arguments.
func Apply(fn any, args []any) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			v = nil
			err = newEvalError(0, "internal fault: %v", r)
		}
	}()
	ev := &evaluator{}
	return ev.call(0, fn, args)
}

type evaluator struct {
	depth int
	nest  int
	steps int
}

func (ev *evaluator) eval(n Node, env Env) (any, error) {
	ev.steps++
	if ev.steps > MaxSteps {
		return nil, newEvalError(n.Col(), "evaluation exceeded %d steps", MaxSteps)
	}
	ev.nest++
	defer func() { ev.nest-- }()
	if ev.nest > MaxEvalDepth {
		return nil, newEvalError(n.Col(), "expression nested too deeply (limit %d)", MaxEvalDepth)
	}
	return ev.evalNode(n, env)
}

func (ev *evaluator) evalNode(n Node, env Env) (any, error) {
	switch n := n.(type) {
	case *Literal:
		return n.Value, nil

	case *Ident:
		if env != nil {
			if v, ok := env.Lookup(n.Name); ok {
				return Normalize(v), nil
			}
		}
		if b, ok := Builtins[n.Name]; ok {
			return b, nil
		}
		return nil, newEvalError(n.At, "undefined name: %s", n.Name)

	case *ListLit:
		out := make([]any, 0, len(n.Elems))
		for _, e := range n.Elems {
			v, err := ev.eval(e, env)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil

	case *Comprehension:
		return ev.comprehension(n, env)

	case *Unary:
		x, err := ev.eval(n.X, env)
		if err != nil {
			return nil, err
		}
		return unary(n, x)

	case *Binary:
		return ev.binary(n, env)

	case *Coalesce:
		left, err := ev.eval(n.L, env)
		if err == nil && left != nil {
			return left, nil
		}
		return ev.eval(n.R, env)

	case *Ternary:
		c, err := ev.eval(n.Cond, env)
		if err != nil {
			return nil, err
		}
		if Truthy(c) {
			return ev.eval(n.Then, env)
		}
		return ev.eval(n.Else, env)

	case *Call:
		fn, err := ev.eval(n.Fn, env)
		if err != nil {
			return nil, err
		}
		args := make([]any, 0, len(n.Args))
		for _, a := range n.Args {
			v, err := ev.eval(a, env)
			if err != nil {
				return nil, err
			}
			args = append(args, v)
		}
		return ev.call(n.At, fn, args)

	case *Index:
		x, err := ev.eval(n.X, env)
		if err != nil {
			return nil, err
		}
		idx, err := ev.eval(n.Index, env)
		if err != nil {
			return nil, err
		}
		return index(n.At, x, idx)

	case *LambdaLit:
		return &Lambda{Params: n.Params, Body: n.Body, Env: env}, nil
	}
	return nil, newEvalError(n.Col(), "unsupported expression %T", n)
}

func (ev *evaluator) call(col int, fn any, args []any) (any, error) {
	switch f := fn.(type) {
	case *Builtin:
		v, err := f.Fn(args)
		if err != nil {
			if _, ok := err.(*EvalError); ok {
				return nil, err
			}
			return nil, newEvalError(col, "%s: %v", f.Name, err)
		}
		return Normalize(v), nil
	case *Lambda:
		if len(args) != len(f.Params) {
			return nil, newEvalError(col, "lambda expects %d argument(s), got %d", len(f.Params), len(args))
		}
		if ev.depth >= MaxCallDepth {
			return nil, newEvalError(col, "maximum call depth %d exceeded", MaxCallDepth)
		}
		vars := make(map[string]any, len(args))
		for i, p := range f.Params {
			vars[p] = args[i]
		}
		ev.depth++
		defer func() { ev.depth-- }()
		return ev.eval(f.Body, &scope{vars: vars, parent: f.Env})
	}
	return nil, newEvalError(col, "%s is not callable", TypeName(fn))
}

func (ev *evaluator) comprehension(n *Comprehension, env Env) (any, error) {
	src, err := ev.eval(n.Iter, env)
	if err != nil {
		return nil, err
	}
	items, err := iterate(n.Iter.Col(), src)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(items))
	for _, item := range items {
		inner := &scope{vars: map[string]any{n.Var: item}, parent: env}
		if n.Cond != nil {
			c, err := ev.eval(n.Cond, inner)
			if err != nil {
				return nil, err
			}
			if !Truthy(c) {
				continue
			}
		}
		v, err := ev.eval(n.Elem, inner)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func iterate(col int, v any) ([]any, error) {
	switch x := v.(type) {
	case []any:
		return x, nil
	case string:
		out := make([]any, 0, len(x))
		for _, r := range x {
			out = append(out, string(r))
		}
		return out, nil
	}
	return nil, newEvalError(col, "cannot iterate over %s", TypeName(v))
}

func unary(n *Unary, x any) (any, error) {
	switch n.Op {
	case NOT:
		return !Truthy(x), nil
	case MINUS:
		switch v := x.(type) {
		case int64:
			return -v, nil
		case float64:
			return -v, nil
		}
		return nil, newEvalError(n.At, "bad operand type for unary -: %s", TypeName(x))
	}
	return nil, newEvalError(n.At, "unknown unary operator %s", n.Op)
}

func (ev *evaluator) binary(n *Binary, env Env) (any, error) {
	left, err := ev.eval(n.L, env)
	if err != nil {
		return nil, err
	}

	// Short-circuit forms return the deciding operand.
	switch n.Op {
	case AND:
		if !Truthy(left) {
			return left, nil
		}
		return ev.eval(n.R, env)
	case OR:
		if Truthy(left) {
			return left, nil
		}
		return ev.eval(n.R, env)
	}

	right, err := ev.eval(n.R, env)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case EQ:
		return Equal(left, right), nil
	case NEQ:
		return !Equal(left, right), nil
	case LT, LTE, GT, GTE:
		return compare(n, left, right)
	case PLUS:
		if ls, ok := left.(string); ok {
			if rs, ok := right.(string); ok {
				if len(ls)+len(rs) > maxSequence {
					return nil, newEvalError(n.At, "concatenated string too large")
				}
				return ls + rs, nil
			}
		}
		if ll, ok := left.([]any); ok {
			if rl, ok := right.([]any); ok {
				if len(ll)+len(rl) > maxSequence {
					return nil, newEvalError(n.At, "concatenated list too large")
				}
				out := make([]any, 0, len(ll)+len(rl))
				out = append(out, ll...)
				return append(out, rl...), nil
			}
		}
		return arith(n, left, right)
	case STAR:
		if s, ok := left.(string); ok {
			if k, ok := right.(int64); ok {
				if k < 0 {
					k = 0
				}
				if k > 0 && int64(len(s)) > maxSequence/k {
					return nil, newEvalError(n.At, "repeated string too large")
				}
				return strings.Repeat(s, int(k)), nil
			}
		}
		return arith(n, left, right)
	case MINUS, SLASH, PERCENT:
		return arith(n, left, right)
	}
	return nil, newEvalError(n.At, "unknown operator %s", n.Op)
}

func arith(n *Binary, left, right any) (any, error) {
	li, lInt := left.(int64)
	ri, rInt := right.(int64)
	if lInt && rInt {
		switch n.Op {
		case PLUS:
			return li + ri, nil
		case MINUS:
			return li - ri, nil
		case STAR:
			return li * ri, nil
		case SLASH:
			if ri == 0 {
				return nil, newEvalError(n.At, "division by zero")
			}
			return li / ri, nil
		case PERCENT:
			if ri == 0 {
				return nil, newEvalError(n.At, "modulo by zero")
			}
			return li % ri, nil
		}
	}

	lf, lok := toFloat(left)
	rf, rok := toFloat(right)
	if !lok || !rok {
		return nil, newEvalError(n.At, "unsupported operand types for %s: %s and %s",
			n.Op, TypeName(left), TypeName(right))
	}
	switch n.Op {
	case PLUS:
		return lf + rf, nil
	case MINUS:
		return lf - rf, nil
	case STAR:
		return lf * rf, nil
	case SLASH:
		if rf == 0 {
			return nil, newEvalError(n.At, "division by zero")
		}
		return lf / rf, nil
	case PERCENT:
		if rf == 0 {
			return nil, newEvalError(n.At, "modulo by zero")
		}
		return math.Mod(lf, rf), nil
	}
	return nil, newEvalError(n.At, "unknown operator %s", n.Op)
}

func compare(n *Binary, left, right any) (any, error) {
	var c int
	lf, lok := toFloat(left)
	rf, rok := toFloat(right)
	ls, lsok := left.(string)
	rs, rsok := right.(string)
	switch {
	case lok && rok:
		switch {
		case lf < rf:
			c = -1
		case lf > rf:
			c = 1
		}
	case lsok && rsok:
		c = strings.Compare(ls, rs)
	default:
		return nil, newEvalError(n.At, "cannot compare %s with %s", TypeName(left), TypeName(right))
	}
	switch n.Op {
	case LT:
		return c < 0, nil
	case LTE:
		return c <= 0, nil
	case GT:
		return c > 0, nil
	default:
		return c >= 0, nil
	}
}

func index(col int, x, idx any) (any, error) {
	i, ok := idx.(int64)
	if !ok {
		return nil, newEvalError(col, "index must be int, got %s", TypeName(idx))
	}
	switch v := x.(type) {
	case []any:
		pos, err := resolveIndex(col, i, len(v))
		if err != nil {
			return nil, err
		}
		return v[pos], nil
	case string:
		pos, err := resolveIndex(col, i, len(v))
		if err != nil {
			return nil, err
		}
		return v[pos : pos+1], nil
	}
	return nil, newEvalError(col, "%s is not indexable", TypeName(x))
}

func resolveIndex(col int, i int64, n int) (int, error) {
	if i < 0 {
		i += int64(n)
	}
	if i < 0 || i >= int64(n) {
		return 0, newEvalError(col, "index out of range: %d (length %d)", i, n)
	}
	return int(i), nil
}
