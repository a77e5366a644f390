package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	flag "github.com/spf13/pflag"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	os.Exit(runMain(os.Args, DefaultEnv()))
}

// runMain dispatches the command and returns the process exit code.
// A bare path argument is treated as "convert <path>".
func runMain(args []string, env *Environment) int {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	cmd, rest := args[1], args[2:]
	if !isCommand(cmd) {
		if cmd == "-h" || cmd == "--help" {
			printUsage(env.Stdout)
			return ExitSuccess
		}
		if cmd == "--version" {
			cmd = "version"
		} else {
			cmd, rest = "convert", args[1:]
		}
	}

	switch cmd {
	case "version":
		fmt.Fprintf(env.Stdout, "pdf4ofd %s\n", Version)
		return ExitSuccess
	case "help":
		return runHelp(rest, env)
	case "doctor":
		return runDoctorCmd(rest, env)
	case "completion":
		if err := runCompletion(rest, env); err != nil {
			fmt.Fprintln(env.Stderr, err)
			return exitCodeFor(err)
		}
		return ExitSuccess
	}

	flags, positional, err := parseConvertFlags(rest)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		fmt.Fprintln(env.Stderr, err)
		return ExitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals...)
	defer stop()

	if err := runConvert(ctx, positional, flags, env); err != nil {
		var batch *batchError
		if errors.As(err, &batch) {
			// Each failure was already printed with its hint.
			fmt.Fprintln(env.Stderr, err)
		} else {
			fmt.Fprintf(env.Stderr, "error: %v%s\n", err, errorHint(err, firstArg(positional), flags.fonts.dirs))
		}
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// isCommand reports whether s names a subcommand.
func isCommand(s string) bool {
	switch s {
	case "convert", "doctor", "completion", "version", "help":
		return true
	}
	return false
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
