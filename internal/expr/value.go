package expr

import (
	"math"
	"strconv"
	"strings"
)

// Lambda is a closure created by "x => body".
type Lambda struct {
	Params []string
	Body   Node
	Env    Env
}

// Builtin is a whitelisted host function callable from expressions.
type Builtin struct {
	Name string
	Fn   func(args []any) (any, error)
}

// FormatValue renders a value the way the REPL and HTTP API show it.
func FormatValue(v any) string {
	return formatValue(v, false)
}

func formatValue(v any, nested bool) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return formatFloat(x)
	case string:
		if nested {
			return strconv.Quote(x)
		}
		return x
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = formatValue(e, true)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case []byte:
		return strconv.Quote(string(x))
	case *Lambda:
		return "<lambda(" + strings.Join(x.Params, ", ") + ")>"
	case *Builtin:
		return "<builtin " + x.Name + ">"
	default:
		return "<unknown>"
	}
}

func formatFloat(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// TypeName names the dynamic type of v for error messages.
func TypeName(v any) string {
	switch v.(type) {
	case nil:
		return "nil"
	case bool:
		return "bool"
	case int64:
		return "int"
	case float64:
		return "float"
	case string:
		return "string"
	case []any:
		return "list"
	case *Lambda:
		return "lambda"
	case *Builtin:
		return "builtin"
	default:
		return "unknown"
	}
}

// Truthy reports the boolean meaning of v.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case int64:
		return x != 0
	case float64:
		return x != 0
	case string:
		return x != ""
	case []any:
		return len(x) > 0
	default:
		return true
	}
}

// Normalize maps host values handed to the evaluator (ints, float32, string
// slices) onto the evaluator's value set.
func Normalize(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case uint8:
		return int64(x)
	case float32:
		return float64(x)
	case []int:
		out := make([]any, len(x))
		for i, n := range x {
			out[i] = int64(n)
		}
		return out
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out
	default:
		return v
	}
}

// Equal compares two values; ints and floats compare numerically and lists
// compare element-wise.
func Equal(a, b any) bool {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return af == bf
		}
		return false
	}
	switch x := a.(type) {
	case nil:
		return b == nil
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case *Lambda:
		y, ok := b.(*Lambda)
		return ok && x == y
	case *Builtin:
		y, ok := b.(*Builtin)
		return ok && x == y
	default:
		return false
	}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}
