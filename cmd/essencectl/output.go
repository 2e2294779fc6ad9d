package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/danmuck/essence/internal/essence"
	"gopkg.in/yaml.v3"
)

func red(s string) string   { return "\x1b[31m" + s + "\x1b[0m" }
func green(s string) string { return "\x1b[32m" + s + "\x1b[0m" }
func blue(s string) string  { return "\x1b[94m" + s + "\x1b[0m" }

// printer writes results, colouring them only for terminals.
type printer struct {
	out   io.Writer
	errw  io.Writer
	color bool
}

func newPrinter(out, errw io.Writer, color bool) *printer {
	return &printer{out: out, errw: errw, color: color}
}

func (p *printer) paint(fn func(string) string, s string) string {
	if !p.color {
		return s
	}
	return fn(s)
}

func (p *printer) result(res essence.Result) {
	if res.Err != nil {
		fmt.Fprintln(p.errw, p.paint(red, res.Output()))
		return
	}
	fmt.Fprintln(p.out, p.paint(green, res.Output()))
}

func (p *printer) classification(c essence.Classification) {
	if len(c.Matches) == 0 {
		fmt.Fprintln(p.out, "no essence markers")
		return
	}
	for _, m := range c.Matches {
		fmt.Fprintf(p.out, "%s %s (%s)\n", p.paint(blue, string(m.Essence)), m.Operation, m.Marker)
	}
}

func (p *printer) state(snap essence.Snapshot) error {
	data, err := yaml.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	_, err = p.out.Write(data)
	return err
}

// runSource executes every non-blank line that is not a # comment and
// returns how many failed. Execution continues past failures.
func runSource(d *essence.Dispatcher, src string, p *printer) int {
	failed := 0
	for _, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		res := d.Execute(line)
		p.result(res)
		if res.Err != nil {
			failed++
		}
	}
	return failed
}
