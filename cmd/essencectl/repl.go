package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/danmuck/essence/internal/essence"
	"github.com/danmuck/essence/internal/logging"
	"github.com/peterh/liner"
)

const (
	historyFile = ".essence_history"
	promptMain  = "essence> "
	banner      = "essence REPL. Type :help for commands, :quit to exit."
)

const replHelp = `:help              show this message
:state             dump dispatcher state as YAML
:classify <line>   classify a line without executing it
:quit              exit`

func cmdRepl(_ []string) int {
	logging.ConfigureInteractive()
	fmt.Println(banner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	d := essence.New(essence.DefaultConfig())
	p := newPrinter(os.Stdout, os.Stderr, isTerminal(os.Stdout))

	for {
		line, err := ln.Prompt(promptMain)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Println()
			break
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, p.paint(red, err.Error()))
			continue
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ln.AppendHistory(line)

		if strings.HasPrefix(line, ":") {
			if done := replCommand(d, p, line); done {
				break
			}
			continue
		}
		p.result(d.Execute(line))
	}

	d.Wait()
	return 0
}

// replCommand handles a ':' command and reports whether the REPL should exit.
func replCommand(d *essence.Dispatcher, p *printer, line string) bool {
	cmd, rest, _ := strings.Cut(line, " ")
	switch strings.ToLower(cmd) {
	case ":quit", ":q", ":exit":
		return true
	case ":help":
		fmt.Fprintln(p.out, replHelp)
	case ":state":
		if err := p.state(d.Snapshot()); err != nil {
			fmt.Fprintln(p.errw, p.paint(red, err.Error()))
		}
	case ":classify":
		p.classification(d.Classify(strings.TrimSpace(rest)))
	default:
		fmt.Fprintln(p.errw, "unknown command. Type :help for commands.")
	}
	return false
}
