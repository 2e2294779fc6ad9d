package essence

import (
	"context"
	"fmt"
	"time"

	"github.com/danmuck/essence/internal/expr"
	"github.com/rs/zerolog/log"
)

// DemoLines are executed in order by SeedDemo after the non-textual steps.
var DemoLines = []string{
	`own!([1, 2, 3, 4], "my_array")`,
	`event!(test_event, "Hello from JS-style event!")`,
	`malloc!(64)`,
	`x := 42`,
	`computed := [i * 2 for i in range(5)]`,
	`double := x => x * 2`,
	`result := double(21)`,
}

// SeedDemo populates d with the showcase state served by the demo page: two
// background tasks, an owned array mirrored into variables, an event
// listener, a small allocation stamped with HELLO, and a few assignments.
func SeedDemo(ctx context.Context, d *Dispatcher) error {
	d.Go(ctx, func(ctx context.Context) any {
		select {
		case <-time.After(100 * time.Millisecond):
		case <-ctx.Done():
		}
		return "Go routine completed"
	})
	d.Go(ctx, func(context.Context) any {
		return "Another go routine"
	})

	d.On("test_event", func(v any) {
		log.Info().Str("event", "test_event").Msgf("Event received: %s", expr.FormatValue(v))
	})

	for _, line := range DemoLines {
		res := d.Execute(line)
		if res.Err != nil {
			return fmt.Errorf("seed demo %q: %w", line, res.Err)
		}
	}

	if owned, ok := d.ownership.Get("my_array"); ok {
		d.vars.Set("my_array", owned)
	}
	if err := d.memory.Write(0, []byte("HELLO")); err != nil {
		return fmt.Errorf("seed demo: %w", err)
	}
	return nil
}
