package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pdf4ofd <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  convert     Convert between PDF, OFD and images (default)")
	fmt.Fprintln(w, "  doctor      Check Chrome, jbig2dec and fonts")
	fmt.Fprintln(w, "  completion  Generate shell completion script")
	fmt.Fprintln(w, "  version     Show version information")
	fmt.Fprintln(w, "  help        Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'pdf4ofd help <command>' for details on a specific command.")
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pdf4ofd convert <input> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert a file or every convertible file in a directory.")
	fmt.Fprintln(w, "  .pdf                 -> .ofd")
	fmt.Fprintln(w, "  .ofd                 -> .pdf (or .png pages with --to png)")
	fmt.Fprintln(w, "  .jpg .png .bmp .tif  -> .ofd (or .pdf with --to pdf)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file or directory")
	fmt.Fprintln(w, "      --to <fmt>            Target format: ofd, pdf, png")
	fmt.Fprintln(w, "      --force               Overwrite existing outputs")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel workers (0 = auto)")
	fmt.Fprintln(w, "  -t, --timeout <d>         Per-file timeout (default 30s)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Conversion:")
	fmt.Fprintln(w, "      --mode <s>            PDF to OFD: text (default) or image")
	fmt.Fprintln(w, "      --fallback            Placeholder PDF for unreadable OFD")
	fmt.Fprintln(w, "      --font-dir <dir>      Font directory, repeatable")
	fmt.Fprintln(w, "      --default-font <s>    Font name or file for missing fonts")
	fmt.Fprintln(w, "      --jbig2dec <path>     jbig2dec executable")
	fmt.Fprintln(w, "      --dpi <f>             Resolution of image inputs (default 200)")
	fmt.Fprintln(w, "      --scale <f>           Pixels per CSS pixel for PNG output (default 2)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Document:")
	fmt.Fprintln(w, "      --title <s>           Document title")
	fmt.Fprintln(w, "      --author <s>          Document author")
	fmt.Fprintln(w, "      --subject <s>         Document subject")
	fmt.Fprintln(w, "      --keywords <a,b>      Keywords")
	fmt.Fprintln(w, "      --date <s>            OFD creation date: \"auto\", \"auto:FORMAT\", or literal")
	fmt.Fprintln(w, "                            Tokens: YYYY, YY, MM, M, DD, D")
	fmt.Fprintln(w, "                            Presets: iso, compact, cn")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show detailed timing")
	fmt.Fprintln(w, "      --log-level <s>       debug, info, warn, error")
	fmt.Fprintln(w, "      --log-format <s>      text, json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  PDF4OFD_CONFIG, PDF4OFD_OUTPUT_DIR, PDF4OFD_TIMEOUT, PDF4OFD_WORKERS,")
	fmt.Fprintln(w, "  PDF4OFD_MODE, PDF4OFD_FONT_DIRS, PDF4OFD_JBIG2DEC, PDF4OFD_LOG_LEVEL,")
	fmt.Fprintln(w, "  PDF4OFD_LOG_FORMAT")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "convert":
		printConvertUsage(env.Stdout)
	case "doctor":
		fmt.Fprintln(env.Stdout, "Usage: pdf4ofd doctor [--json]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Check that Chrome, jbig2dec and CJK fonts are available.")
	case "completion":
		printCompletionUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: pdf4ofd version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: pdf4ofd help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
