package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/danmuck/essence/internal/config"
	"github.com/danmuck/essence/internal/essence"
	"github.com/danmuck/essence/internal/logging"
	"github.com/danmuck/essence/internal/observability"
	"github.com/danmuck/essence/internal/server"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

const appName = "essencectl"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	switch cmd {
	case "serve":
		os.Exit(cmdServe(os.Args[2:]))
	case "repl":
		os.Exit(cmdRepl(os.Args[2:]))
	case "run":
		os.Exit(cmdRun(os.Args[2:]))
	case "classify":
		os.Exit(cmdClassify(os.Args[2:]))
	case "configgen":
		os.Exit(cmdConfiggen(os.Args[2:]))
	case "version":
		fmt.Println(server.Version)
		return
	case "-h", "--help", "help":
		usage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", appName, cmd)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Printf(`essence %s

Usage:
  %s serve [-config path]                 Serve the HTTP API and demo page.
  %s repl                                 Start the interactive dispatcher.
  %s run [-state] <file>                  Execute each line of a file.
  %s classify <line>                      Print the essences a line imitates.
  %s configgen [-out path] [-force]       Write a config template.
  %s version                              Print the version

`, server.Version, appName, appName, appName, appName, appName, appName)
}

func cmdServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	path := fs.String("config", os.Getenv("ESSENCE_CONFIG"), "path to essence.toml (defaults only when empty)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	observability.InitLogger(appName)
	cfg, err := config.LoadServerConfig(*path)
	if err != nil {
		log.Error().Err(err).Msg("config load failed")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d := essence.New(cfg.DispatcherConfig())
	if cfg.SeedDemo {
		if err := essence.SeedDemo(ctx, d); err != nil {
			log.Error().Err(err).Msg("demo seeding failed")
			return 1
		}
		log.Info().Int("lines", len(essence.DemoLines)).Msg("demo state seeded")
	}

	if err := server.Appear(cfg, d).Serve(ctx); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		return 1
	}
	return 0
}

func cmdRun(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	dumpState := fs.Bool("state", false, "print the final state as YAML")
	memSize := fs.Int("memory", essence.DefaultMemorySize, "initial memory size in bytes")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s run [-state] <file>\n", appName)
		return 2
	}

	file := fs.Arg(0)
	src, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", appName, file, err)
		return 1
	}

	logging.ConfigureInteractive()
	cfg := essence.DefaultConfig()
	cfg.MemorySize = *memSize
	d := essence.New(cfg)
	p := newPrinter(os.Stdout, os.Stderr, isTerminal(os.Stdout))

	failed := runSource(d, string(src), p)
	d.Wait()
	if *dumpState {
		if err := p.state(d.Snapshot()); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
			return 1
		}
	}
	if failed > 0 {
		return 1
	}
	return 0
}

func cmdClassify(args []string) int {
	line := strings.TrimSpace(strings.Join(args, " "))
	if line == "" {
		fmt.Fprintf(os.Stderr, "usage: %s classify <line>\n", appName)
		return 2
	}
	p := newPrinter(os.Stdout, os.Stderr, isTerminal(os.Stdout))
	p.classification(essence.Classify(line))
	return 0
}

func cmdConfiggen(args []string) int {
	fs := flag.NewFlagSet("configgen", flag.ContinueOnError)
	out := fs.String("out", "essence.toml", "output path for config template")
	force := fs.Bool("force", false, "overwrite existing config file")
	validate := fs.String("validate", "", "validate an existing config file instead of writing one")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *validate != "" {
		if _, err := config.LoadServerConfig(*validate); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
			return 1
		}
		fmt.Printf("Validated config at %s\n", *validate)
		return 0
	}
	if err := config.WriteTemplate(*out, *force); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}
	fmt.Printf("Wrote config template to %s\n", *out)
	return 0
}

func isTerminal(f *os.File) bool {
	return os.Getenv("NO_COLOR") == "" && term.IsTerminal(int(f.Fd()))
}
