package essence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/danmuck/essence/internal/expr"
	"github.com/danmuck/essence/internal/observability"
	"github.com/rs/zerolog/log"
)

// Config sizes a dispatcher's byte buffer.
type Config struct {
	MemorySize int
	MaxMemory  int
}

func DefaultConfig() Config {
	return Config{
		MemorySize: DefaultMemorySize,
		MaxMemory:  DefaultMaxMemory,
	}
}

// Dispatcher classifies and executes mixed-syntax lines against its own
// state. Each store locks independently, so a Dispatcher may be shared
// between goroutines; a single Execute call is not atomic across stores.
type Dispatcher struct {
	vars      *Variables
	channels  *Channels
	ownership *Ownership
	events    *Events
	memory    *Memory

	env   expr.Env
	tasks sync.WaitGroup
}

// New constructs a dispatcher with empty state.
func New(cfg Config) *Dispatcher {
	d := &Dispatcher{
		vars:      NewVariables(),
		channels:  NewChannels(),
		ownership: NewOwnership(),
		events:    NewEvents(),
		memory:    NewMemory(cfg.MemorySize, cfg.MaxMemory),
	}
	d.env = expr.Chain(d.vars, expr.MapEnv(d.stateBuiltins()))
	return d
}

func (d *Dispatcher) Vars() *Variables      { return d.vars }
func (d *Dispatcher) Channels() *Channels   { return d.channels }
func (d *Dispatcher) Ownership() *Ownership { return d.ownership }
func (d *Dispatcher) Events() *Events       { return d.events }
func (d *Dispatcher) Memory() *Memory       { return d.memory }

// Env is the evaluation environment: variables first, then state builtins.
func (d *Dispatcher) Env() expr.Env { return d.env }

// On registers an event listener.
func (d *Dispatcher) On(name string, cb Callback) {
	d.events.On(name, cb)
}

// Classify runs the classification pass and records it.
func (d *Dispatcher) Classify(line string) Classification {
	c := Classify(line)
	for _, m := range c.Matches {
		observability.RecordClassification(string(m.Essence), string(m.Operation))
	}
	return c
}

// Go runs task on its own goroutine and appends its result to the results
// channel. Results of tasks whose context was cancelled are dropped.
func (d *Dispatcher) Go(ctx context.Context, task func(context.Context) any) {
	if task == nil {
		return
	}
	d.tasks.Add(1)
	go func() {
		defer d.tasks.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Msg("background task panicked")
				d.channels.Send(ResultsChannel, fmt.Sprintf("error: task panicked: %v", r))
			}
		}()
		start := time.Now()
		out := task(ctx)
		if ctx.Err() != nil {
			log.Debug().Err(ctx.Err()).Msg("background task result dropped")
			return
		}
		n := d.channels.Send(ResultsChannel, out)
		log.Debug().
			Int("queue_len", n).
			Dur("duration", time.Since(start)).
			Msg("background task completed")
	}()
}

// Wait blocks until every task started with Go has finished.
func (d *Dispatcher) Wait() {
	d.tasks.Wait()
}

func (d *Dispatcher) stateBuiltins() map[string]any {
	return map[string]any{
		"chan": &expr.Builtin{Name: "chan", Fn: func(args []any) (any, error) {
			name, err := nameArg(args)
			if err != nil {
				return nil, err
			}
			return d.channels.Values(name), nil
		}},
		"owned": &expr.Builtin{Name: "owned", Fn: func(args []any) (any, error) {
			name, err := nameArg(args)
			if err != nil {
				return nil, err
			}
			v, _ := d.ownership.Get(name)
			return v, nil
		}},
		"ptr": &expr.Builtin{Name: "ptr", Fn: func(args []any) (any, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("expected 1 argument(s), got %d", len(args))
			}
			idx, ok := args[0].(int64)
			if !ok {
				return nil, fmt.Errorf("index must be int, got %s", expr.TypeName(args[0]))
			}
			b, ok := d.memory.Read(idx)
			if !ok {
				return nil, nil
			}
			return int64(b), nil
		}},
		"memlen": &expr.Builtin{Name: "memlen", Fn: func(args []any) (any, error) {
			if len(args) != 0 {
				return nil, fmt.Errorf("expected 0 argument(s), got %d", len(args))
			}
			return int64(d.memory.Len()), nil
		}},
	}
}

func nameArg(args []any) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("expected 1 argument(s), got %d", len(args))
	}
	name, ok := args[0].(string)
	if !ok {
		return "", fmt.Errorf("name must be a string, got %s", expr.TypeName(args[0]))
	}
	return name, nil
}
