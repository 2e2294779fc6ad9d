package essence

import "github.com/danmuck/essence/internal/expr"

// Snapshot is a point-in-time copy of dispatcher state.
type Snapshot struct {
	Variables map[string]any `json:"variables" yaml:"variables"`
	Channels  map[string]int `json:"channels" yaml:"channels"`
	Owned     []string       `json:"owned" yaml:"owned"`
	Borrowed  []string       `json:"borrowed" yaml:"borrowed"`
	Events    []string       `json:"events" yaml:"events"`
	Memory    int            `json:"memory" yaml:"memory"`
	Handles   int            `json:"handles" yaml:"handles"`
}

// Snapshot copies the current state. Variable values are exported to plain
// JSON/YAML-friendly shapes.
func (d *Dispatcher) Snapshot() Snapshot {
	vars := d.vars.All()
	exported := make(map[string]any, len(vars))
	for name, v := range vars {
		exported[name] = Export(v)
	}
	return Snapshot{
		Variables: exported,
		Channels:  d.channels.Lens(),
		Owned:     d.ownership.Owned(),
		Borrowed:  d.ownership.Borrowed(),
		Events:    d.events.Names(),
		Memory:    d.memory.Len(),
		Handles:   d.memory.Handles(),
	}
}

// Export converts an evaluator value into something encoding/json and yaml
// can serialize; callables become their printed form.
func Export(v any) any {
	switch x := v.(type) {
	case nil, bool, int64, float64, string:
		return x
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Export(e)
		}
		return out
	default:
		return expr.FormatValue(v)
	}
}
