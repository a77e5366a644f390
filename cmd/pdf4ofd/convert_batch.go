package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ranvane/pdf4ofd"
	"github.com/ranvane/pdf4ofd/internal/fileutil"
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// Sentinel errors for batch operations.
var (
	ErrNoInput         = errors.New("no input specified")
	ErrReadInput       = errors.New("failed to read input file")
	ErrWriteOutput     = errors.New("failed to write output file")
	ErrOutputExists    = errors.New("output file already exists")
	ErrCreateOutputDir = errors.New("failed to create output directory")
)

// CLIConverter is the interface for the conversion service.
type CLIConverter interface {
	Convert(ctx context.Context, input pdf4ofd.Input) (*pdf4ofd.ConvertResult, error)
}

// Compile-time interface implementation check.
var _ CLIConverter = (*pdf4ofd.Converter)(nil)

// Pool abstracts converter pool operations for testability.
type Pool interface {
	Acquire() CLIConverter
	Release(CLIConverter)
	Size() int
	Close() error
}

// ConversionResult holds the outcome of a single conversion.
type ConversionResult struct {
	InputPath  string
	OutputPath string
	Outputs    []string // Every file written
	Pages      int
	Fallback   bool
	Warnings   []string
	Err        error
	Duration   time.Duration
}

// conversionParams groups parameters shared across batch/file conversion.
type conversionParams struct {
	mode     pdf4ofd.Mode
	metadata *pdf4ofd.Metadata
	force    bool
}

// convertBatch processes files concurrently using the converter pool.
func convertBatch(ctx context.Context, pool Pool, files []FileToConvert, params *conversionParams) []ConversionResult {
	if len(files) == 0 {
		return nil
	}

	concurrency := min(pool.Size(), len(files))

	results := make([]ConversionResult, len(files))
	var wg sync.WaitGroup
	jobs := make(chan int, len(files))

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			conv := pool.Acquire()
			defer pool.Release(conv)

			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = ConversionResult{
						InputPath: files[idx].InputPath,
						Err:       ctx.Err(),
					}
					continue
				}
				results[idx] = convertFile(ctx, conv, files[idx], params)
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// convertFile processes a single file and returns the result.
func convertFile(ctx context.Context, conv CLIConverter, f FileToConvert, params *conversionParams) ConversionResult {
	start := time.Now()
	result := ConversionResult{
		InputPath:  f.InputPath,
		OutputPath: f.OutputPath,
	}
	fail := func(err error) ConversionResult {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	if !params.force && fileutil.FileExists(f.OutputPath) {
		return fail(fmt.Errorf("%w: %s", ErrOutputExists, f.OutputPath))
	}

	data, err := pdf4ofd.ReadDocument(f.InputPath)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrReadInput, err))
	}

	input := pdf4ofd.Input{
		Direction: f.Direction,
		Mode:      params.mode,
		Metadata:  params.metadata,
	}
	if f.Direction == pdf4ofd.ImagesToOFD || f.Direction == pdf4ofd.ImagesToPDF {
		input.Images = [][]byte{data}
	} else {
		input.Document = data
	}

	outDir := filepath.Dir(f.OutputPath)
	if err := os.MkdirAll(outDir, dirPermissions); err != nil {
		return fail(fmt.Errorf("%w: %w", ErrCreateOutputDir, err))
	}

	res, err := conv.Convert(ctx, input)
	if err != nil {
		return fail(err)
	}
	result.Pages = res.Pages
	result.Fallback = res.Fallback
	result.Warnings = res.Warnings

	contents := [][]byte{res.Output}
	if f.Direction == pdf4ofd.OFDToImages {
		contents = res.Images
	}
	// Page 1 was checked before converting; later pages are known only now.
	if !params.force {
		for i := 1; i < len(contents); i++ {
			if path := pagePath(f.OutputPath, i+1); fileutil.FileExists(path) {
				return fail(fmt.Errorf("%w: %s", ErrOutputExists, path))
			}
		}
	}
	for i, content := range contents {
		path := pagePath(f.OutputPath, i+1)
		// #nosec G306 -- converted documents are meant to be readable
		if err := os.WriteFile(path, content, filePermissions); err != nil {
			return fail(fmt.Errorf("%w: %w", ErrWriteOutput, err))
		}
		result.Outputs = append(result.Outputs, path)
	}

	result.Duration = time.Since(start)
	return result
}

// ResultSummary holds the count of succeeded and failed conversions.
type ResultSummary struct {
	Succeeded int
	Failed    int
	Warnings  int
}

// countResults tallies succeeded and failed conversions.
func countResults(results []ConversionResult) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
			continue
		}
		summary.Succeeded++
		summary.Warnings += len(r.Warnings)
	}
	return summary
}

// printResultsWithWriter outputs conversion results using the provided
// writers and returns the first failure, if any.
func printResultsWithWriter(results []ConversionResult, quiet, verbose bool, fontDirs []string, env *Environment) error {
	summary := countResults(results)
	var first error
	var warnings []string

	for _, r := range results {
		if r.Err != nil {
			if first == nil {
				first = r.Err
			}
			fmt.Fprintf(env.Stderr, "FAILED %s: %v%s\n", r.InputPath, r.Err, errorHint(r.Err, r.InputPath, fontDirs))
			continue
		}

		warnings = append(warnings, r.Warnings...)
		if quiet {
			continue
		}
		for _, w := range r.Warnings {
			fmt.Fprintf(env.Stderr, "warning: %s: %s\n", r.InputPath, w)
		}

		note := ""
		if r.Fallback {
			note = " (placeholder)"
		}
		if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s, %d page(s)%s (%v)\n",
				r.InputPath, r.OutputPath, r.Pages, note, r.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(env.Stdout, "Created %s%s\n", r.OutputPath, note)
		}
	}

	if !quiet {
		if hint := warningHints(warnings, fontDirs); hint != "" {
			fmt.Fprintf(env.Stderr, "warnings were reported%s\n", hint)
		}
		if len(results) > 1 {
			fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", summary.Succeeded, summary.Failed)
		}
	}

	if summary.Failed > 0 {
		return &batchError{failed: summary.Failed, total: len(results), first: first}
	}
	return nil
}

// batchError reports failed conversions. It unwraps to the first failure
// so the exit code reflects its cause.
type batchError struct {
	failed int
	total  int
	first  error
}

func (e *batchError) Error() string {
	if e.total == 1 {
		return "conversion failed"
	}
	return fmt.Sprintf("%d of %d conversion(s) failed", e.failed, e.total)
}

func (e *batchError) Unwrap() error { return e.first }
