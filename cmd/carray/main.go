// Command carray builds physics-informed networks on component arrays and
// inspects the files they produce.
//
// Usage:
//
//	carray [flags] <command> [args]
//
// Commands:
//
//	version             Show version
//	init [path]         Write the default problem configuration
//	inspect <file>      Describe a .safetensors array or a snapshot
//	eval <x1,x2,...>    Evaluate every dependent variable at points
//	shell               Interactive session on one network
//
// Flags:
//
//	-config string      Problem configuration file (YAML)
//	-log-level string   Log level: debug, info, warn, error (default "info")
//	-restore string     Snapshot to restore before eval or shell
//	-snapshot string    Write a snapshot after eval
//
// Examples:
//
//	# Evaluate the default heat problem at two points
//	carray eval 0,0.5 0.5,0.5
//
//	# Start a shell on a configured problem
//	carray -config heat.yaml -log-level debug shell
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

const version = "v0.1.0-dev"

// Options holds the command-line flags.
type Options struct {
	ConfigFile string
	LogLevel   string
	Restore    string
	Snapshot   string
}

var opts Options

func init() {
	flag.StringVar(&opts.ConfigFile, "config", "", "Problem configuration file (YAML)")
	flag.StringVar(&opts.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.StringVar(&opts.Restore, "restore", "", "Snapshot to restore before eval or shell")
	flag.StringVar(&opts.Snapshot, "snapshot", "", "Write a snapshot after eval")
	flag.Usage = usage
}

func main() {
	flag.Parse()

	logger := newLogger(os.Stderr, opts.LogLevel)
	if err := run(flag.Args(), opts, logger, os.Stdout); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string, opts Options, logger *slog.Logger, out io.Writer) error {
	if len(args) == 0 {
		usage()
		return nil
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "version":
		fmt.Fprintf(out, "carray %s\n", version)
		return nil
	case "init":
		return cmdInit(rest, out)
	case "inspect":
		return cmdInspect(rest, out)
	case "eval", "shell":
		return withApp(opts, logger, out, func(a runner) error {
			if cmd == "shell" {
				return a.shell()
			}
			return a.eval(rest)
		})
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage: carray [flags] <version|init|inspect|eval|shell> [args]\n\nFlags:\n")
	flag.PrintDefaults()
}

func newLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLevel(level)}))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
