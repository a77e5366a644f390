package main

import (
	"os"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config    string
	quiet     bool
	verbose   bool
	logLevel  string
	logFormat string
}

// fontFlags holds font lookup flags.
type fontFlags struct {
	dirs        []string
	defaultFont string
}

// imageFlags holds image and rasterization flags.
type imageFlags struct {
	jbig2dec string
	dpi      float64
	scale    float64
}

// metadataFlags holds document metadata overrides.
type metadataFlags struct {
	title    string
	author   string
	subject  string
	keywords []string
	date     string
}

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	common   commonFlags
	output   string
	to       string
	mode     string
	force    bool
	fallback bool
	workers  int
	timeout  string
	fonts    fontFlags
	images   imageFlags
	metadata metadataFlags
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show detailed timing")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&f.logFormat, "log-format", "", "log format: text, json")
}

// addFontFlags adds font flags to a FlagSet.
func addFontFlags(fs *flag.FlagSet, f *fontFlags) {
	fs.StringArrayVar(&f.dirs, "font-dir", nil, "font directory (repeatable)")
	fs.StringVar(&f.defaultFont, "default-font", "", "font name or file for missing fonts")
}

// addImageFlags adds image flags to a FlagSet.
func addImageFlags(fs *flag.FlagSet, f *imageFlags) {
	fs.StringVar(&f.jbig2dec, "jbig2dec", "", "jbig2dec executable")
	fs.Float64Var(&f.dpi, "dpi", 0, "resolution of image inputs (default 200)")
	fs.Float64Var(&f.scale, "scale", 0, "pixels per CSS pixel for PNG output (default 2)")
}

// addMetadataFlags adds metadata flags to a FlagSet.
func addMetadataFlags(fs *flag.FlagSet, f *metadataFlags) {
	fs.StringVar(&f.title, "title", "", "document title")
	fs.StringVar(&f.author, "author", "", "document author")
	fs.StringVar(&f.subject, "subject", "", "document subject")
	fs.StringSliceVar(&f.keywords, "keywords", nil, "comma-separated keywords")
	fs.StringVar(&f.date, "date", "", "creation date: \"auto\", \"auto:FORMAT\" or literal (OFD only)")
}

// registerConvertFlags registers every convert flag on fs.
func registerConvertFlags(fs *flag.FlagSet, f *convertFlags) {
	fs.StringVarP(&f.output, "output", "o", "", "output file or directory")
	fs.StringVar(&f.to, "to", "", "target format: ofd, pdf, png")
	fs.StringVar(&f.mode, "mode", "", "pdf2ofd mode: text, image")
	fs.BoolVar(&f.force, "force", false, "overwrite existing outputs")
	fs.BoolVar(&f.fallback, "fallback", false, "emit a placeholder PDF for unreadable OFD")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-file timeout (e.g., 30s, 2m)")

	addCommonFlags(fs, &f.common)
	addFontFlags(fs, &f.fonts)
	addImageFlags(fs, &f.images)
	addMetadataFlags(fs, &f.metadata)
}

// parseConvertFlags parses convert command flags and returns positional args.
func parseConvertFlags(args []string) (*convertFlags, []string, error) {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	f := &convertFlags{}
	registerConvertFlags(fs, f)

	fs.Usage = func() { printConvertUsage(os.Stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	return f, fs.Args(), nil
}
