package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/lhaig/matchlower/internal/compiler"
	"github.com/lhaig/matchlower/internal/config"
	"github.com/lhaig/matchlower/internal/diagnostic"
	"github.com/lhaig/matchlower/internal/interp"
)

const usage = `patlower - lowers pattern matching out of .pat units

Usage:
  patlower lower [-o <out>] <file.pat>    Write the lowered units
  patlower check <file.pat>               Read and lower only, reporting diagnostics
  patlower run <file.pat> '<call>'        Lower, then evaluate one call

Options:
  -o <out>    Output path (default: <file>.lowered.pat next to the input)

Configuration:
  Settings are read from the nearest patlower.yaml at or above the input
  file's directory: concurrency, validate, debug_patterns, color,
  exhaustive_statements and max_steps.

Examples:
  patlower lower shapes.pat                 Write shapes.lowered.pat
  patlower check shapes.pat                 Check for errors without writing
  patlower run shapes.pat '(area (new Circle))'
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	command := os.Args[1]

	var code int
	switch command {
	case "lower":
		code = handleLower(ctx, os.Args[2:])
	case "check":
		code = handleCheck(ctx, os.Args[2:])
	case "run":
		code = handleRun(ctx, os.Args[2:])
	case "help", "--help", "-h":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		fmt.Fprint(os.Stderr, usage)
		code = 1
	}
	stop()
	os.Exit(code)
}

func handleLower(ctx context.Context, args []string) int {
	var filePath, outPath string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-o":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "Error: -o needs a path")
				return 1
			}
			i++
			outPath = args[i]
		case strings.HasPrefix(arg, "-"):
			fmt.Fprintf(os.Stderr, "Unknown option: %s\n", arg)
			return 1
		default:
			filePath = arg
		}
	}
	if filePath == "" {
		fmt.Fprintln(os.Stderr, "Error: no input file specified")
		return 1
	}
	if outPath == "" {
		outPath = compiler.OutputPath(filePath)
	}

	cfg, err := loadConfig(filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return 1
	}

	res, err := compiler.EmitToTarget(ctx, filePath, outPath, cfg, newLogger(), os.Stdout)
	if err != nil {
		if errors.Is(err, compiler.ErrCompilation) && res != nil {
			printDiagnostics(cfg, res.Diagnostics)
			return 1
		}
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return 1
	}
	printDiagnostics(cfg, res.Diagnostics)
	return 0
}

func handleCheck(ctx context.Context, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no input file specified")
		return 1
	}
	filePath := args[0]

	source, err := os.ReadFile(filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %s\n", err)
		return 1
	}
	cfg, err := loadConfig(filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return 1
	}

	diag, err := compiler.Check(ctx, filepath.Base(filePath), string(source), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return 1
	}
	printDiagnostics(cfg, diag)
	if diag.HasErrors() {
		return 1
	}

	fmt.Println("No errors found.")
	return 0
}

func handleRun(ctx context.Context, args []string) int {
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "Error: run takes a file and a call")
		return 1
	}
	filePath, call := args[0], args[1]

	source, err := os.ReadFile(filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %s\n", err)
		return 1
	}
	cfg, err := loadConfig(filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return 1
	}

	v, res, err := compiler.Run(ctx, filepath.Base(filePath), string(source), call, cfg, newLogger())
	if res != nil {
		printDiagnostics(cfg, res.Diagnostics)
	}
	if err != nil {
		var fault *interp.Fault
		switch {
		case errors.Is(err, compiler.ErrCompilation):
		case errors.As(err, &fault):
			fmt.Fprintf(os.Stderr, "Exception: %s\n", fault)
		default:
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		return 1
	}
	fmt.Println(interp.Format(v))
	return 0
}

// loadConfig returns the nearest patlower.yaml above filePath, or the
// defaults when there is none
func loadConfig(filePath string) (*config.Config, error) {
	path, err := config.FindConfig(filepath.Dir(filePath))
	if err != nil {
		return nil, err
	}
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func newLogger() *log.Logger {
	return log.New(os.Stderr, "patlower: ", 0)
}

func printDiagnostics(cfg *config.Config, diag *diagnostic.Diagnostics) {
	if diag == nil || diag.Count() == 0 {
		return
	}
	if useColor(cfg) {
		fmt.Fprintln(os.Stderr, diag.FormatColor())
	} else {
		fmt.Fprintln(os.Stderr, diag.Format())
	}
}

func useColor(cfg *config.Config) bool {
	switch cfg.Color {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
