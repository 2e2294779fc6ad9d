package expr

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// maxSequence caps sizes produced by range and string repetition.
const maxSequence = 1 << 20

// Builtins is the whitelisted function set visible to every expression.
var Builtins = map[string]*Builtin{
	"len":   {Name: "len", Fn: builtinLen},
	"range": {Name: "range", Fn: builtinRange},
	"str":   {Name: "str", Fn: builtinStr},
	"int":   {Name: "int", Fn: builtinInt},
	"float": {Name: "float", Fn: builtinFloat},
	"abs":   {Name: "abs", Fn: builtinAbs},
	"min":   {Name: "min", Fn: func(args []any) (any, error) { return extremum("min", args, -1) }},
	"max":   {Name: "max", Fn: func(args []any) (any, error) { return extremum("max", args, 1) }},
	"sum":   {Name: "sum", Fn: builtinSum},
	"upper": {Name: "upper", Fn: stringFn(strings.ToUpper)},
	"lower": {Name: "lower", Fn: stringFn(strings.ToLower)},
}

func arity(args []any, n int) error {
	if len(args) != n {
		return fmt.Errorf("expected %d argument(s), got %d", n, len(args))
	}
	return nil
}

func builtinLen(args []any) (any, error) {
	if err := arity(args, 1); err != nil {
		return nil, err
	}
	switch x := args[0].(type) {
	case string:
		return int64(len(x)), nil
	case []any:
		return int64(len(x)), nil
	}
	return nil, fmt.Errorf("object of type %s has no len", TypeName(args[0]))
}

// range(stop), range(start, stop), range(start, stop, step)
func builtinRange(args []any) (any, error) {
	if len(args) < 1 || len(args) > 3 {
		return nil, fmt.Errorf("expected 1 to 3 arguments, got %d", len(args))
	}
	nums := make([]int64, len(args))
	for i, a := range args {
		n, ok := a.(int64)
		if !ok {
			return nil, fmt.Errorf("arguments must be int, got %s", TypeName(a))
		}
		nums[i] = n
	}
	start, stop, step := int64(0), nums[0], int64(1)
	if len(nums) >= 2 {
		start, stop = nums[0], nums[1]
	}
	if len(nums) == 3 {
		step = nums[2]
	}
	if step == 0 {
		return nil, fmt.Errorf("step must not be zero")
	}
	out := []any{}
	for i := start; (step > 0 && i < stop) || (step < 0 && i > stop); i += step {
		if len(out) >= maxSequence {
			return nil, fmt.Errorf("range longer than %d elements", maxSequence)
		}
		out = append(out, i)
	}
	return out, nil
}

func builtinStr(args []any) (any, error) {
	if err := arity(args, 1); err != nil {
		return nil, err
	}
	return FormatValue(args[0]), nil
}

func builtinInt(args []any) (any, error) {
	if err := arity(args, 1); err != nil {
		return nil, err
	}
	switch x := args[0].(type) {
	case int64:
		return x, nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("cannot convert %s to int", formatFloat(x))
		}
		return int64(x), nil
	case bool:
		if x {
			return int64(1), nil
		}
		return int64(0), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid literal for int: %q", x)
		}
		return n, nil
	}
	return nil, fmt.Errorf("cannot convert %s to int", TypeName(args[0]))
}

func builtinFloat(args []any) (any, error) {
	if err := arity(args, 1); err != nil {
		return nil, err
	}
	switch x := args[0].(type) {
	case int64:
		return float64(x), nil
	case float64:
		return x, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid literal for float: %q", x)
		}
		return f, nil
	}
	return nil, fmt.Errorf("cannot convert %s to float", TypeName(args[0]))
}

func builtinAbs(args []any) (any, error) {
	if err := arity(args, 1); err != nil {
		return nil, err
	}
	switch x := args[0].(type) {
	case int64:
		if x < 0 {
			return -x, nil
		}
		return x, nil
	case float64:
		return math.Abs(x), nil
	}
	return nil, fmt.Errorf("bad operand type: %s", TypeName(args[0]))
}

// extremum accepts either a single list or several arguments.
func extremum(name string, args []any, sign int) (any, error) {
	items := args
	if len(args) == 1 {
		list, ok := args[0].([]any)
		if !ok {
			return nil, fmt.Errorf("%s of a single argument requires a list", name)
		}
		items = list
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%s of empty sequence", name)
	}
	best := items[0]
	for _, item := range items[1:] {
		c, err := order(best, item)
		if err != nil {
			return nil, err
		}
		if c*sign < 0 {
			best = item
		}
	}
	return best, nil
}

func order(a, b any) (int, error) {
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			switch {
			case af < bf:
				return -1, nil
			case af > bf:
				return 1, nil
			}
			return 0, nil
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.Compare(as, bs), nil
	}
	return 0, fmt.Errorf("cannot compare %s with %s", TypeName(a), TypeName(b))
}

func builtinSum(args []any) (any, error) {
	if err := arity(args, 1); err != nil {
		return nil, err
	}
	list, ok := args[0].([]any)
	if !ok {
		return nil, fmt.Errorf("argument must be a list, got %s", TypeName(args[0]))
	}
	var isum int64
	var fsum float64
	isFloat := false
	for _, item := range list {
		switch x := item.(type) {
		case int64:
			isum += x
		case float64:
			isFloat = true
			fsum += x
		default:
			return nil, fmt.Errorf("unsupported element type %s", TypeName(item))
		}
	}
	if isFloat {
		return fsum + float64(isum), nil
	}
	return isum, nil
}

func stringFn(fn func(string) string) func(args []any) (any, error) {
	return func(args []any) (any, error) {
		if err := arity(args, 1); err != nil {
			return nil, err
		}
		s, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("argument must be a string, got %s", TypeName(args[0]))
		}
		return fn(s), nil
	}
}
