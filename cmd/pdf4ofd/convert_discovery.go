package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ranvane/pdf4ofd"
	"github.com/ranvane/pdf4ofd/internal/fileutil"
)

// Sentinel errors for file discovery.
var (
	ErrUnsupportedInput   = errors.New("unsupported input")
	ErrInvalidTarget      = errors.New("invalid target format")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrOutputConflict     = errors.New("output conflict")
)

// Target formats accepted by --to.
const (
	targetOFD = "ofd"
	targetPDF = "pdf"
	targetPNG = "png"
)

// imageExtensions lists the picture formats accepted as input.
var imageExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "bmp": true,
	"tif": true, "tiff": true, "gif": true,
}

// FileToConvert represents a single file to process.
type FileToConvert struct {
	InputPath  string
	OutputPath string // For ofd2img, the path of page 1; see pagePath
	Direction  pdf4ofd.Direction
}

// validateTarget checks the --to value. Empty means auto-detect.
func validateTarget(to string) error {
	switch to {
	case "", targetOFD, targetPDF, targetPNG:
		return nil
	}
	return fmt.Errorf("%w: %q (must be ofd, pdf or png)", ErrInvalidTarget, to)
}

// directionFor picks the conversion for a file from its extension and the
// requested target. It returns the direction and the output extension.
func directionFor(path, to string) (pdf4ofd.Direction, string, error) {
	ext := fileutil.Ext(path)
	switch {
	case ext == "pdf" && (to == "" || to == targetOFD):
		return pdf4ofd.PDFToOFD, targetOFD, nil
	case ext == "ofd" && (to == "" || to == targetPDF):
		return pdf4ofd.OFDToPDF, targetPDF, nil
	case ext == "ofd" && to == targetPNG:
		return pdf4ofd.OFDToImages, targetPNG, nil
	case imageExtensions[ext] && (to == "" || to == targetOFD):
		return pdf4ofd.ImagesToOFD, targetOFD, nil
	case imageExtensions[ext] && to == targetPDF:
		return pdf4ofd.ImagesToPDF, targetPDF, nil
	}
	if to == "" {
		return "", "", fmt.Errorf("%w: %s (want .pdf, .ofd or an image)", ErrUnsupportedInput, path)
	}
	return "", "", fmt.Errorf("%w: cannot convert %s to %s", ErrUnsupportedInput, path, to)
}

// discoverFiles finds all files to convert. A single file must be
// convertible; in a directory, files that are not are skipped, and so are
// files whose output would be another input (a.pdf next to a.ofd). Two
// inputs sharing an output (a.pdf and a.jpg) are an ErrOutputConflict.
func discoverFiles(inputPath, output, to string) ([]FileToConvert, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		dir, ext, err := directionFor(inputPath, to)
		if err != nil {
			return nil, err
		}
		outPath := resolveOutputPath(inputPath, output, "", ext)
		return []FileToConvert{{InputPath: inputPath, OutputPath: outPath, Direction: dir}}, nil
	}

	var files []FileToConvert
	inputs := make(map[string]bool)
	err = filepath.WalkDir(inputPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", path, err)
		}
		if d.IsDir() {
			return nil
		}
		dir, ext, err := directionFor(path, to)
		if err != nil {
			return nil
		}
		inputs[path] = true
		outPath := resolveOutputPath(path, output, inputPath, ext)
		files = append(files, FileToConvert{InputPath: path, OutputPath: outPath, Direction: dir})
		return nil
	})
	if err != nil {
		return nil, err
	}

	kept := files[:0]
	writers := make(map[string]string)
	for _, f := range files {
		if inputs[f.OutputPath] {
			continue
		}
		if prev, ok := writers[f.OutputPath]; ok {
			return nil, fmt.Errorf("%w: %s and %s both convert to %s", ErrOutputConflict, prev, f.InputPath, f.OutputPath)
		}
		writers[f.OutputPath] = f.InputPath
		kept = append(kept, f)
	}
	return kept, nil
}

// resolveOutputPath determines the output path for an input file. An
// output ending in the target extension names the file itself.
func resolveOutputPath(inputPath, output, baseInputDir, ext string) string {
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))

	if output == "" {
		return fileutil.SwapExtension(inputPath, ext)
	}

	if baseInputDir == "" && fileutil.Ext(output) == ext {
		return output
	}

	if baseInputDir != "" {
		relPath, err := filepath.Rel(baseInputDir, inputPath)
		if err == nil {
			relDir := filepath.Dir(relPath)
			return filepath.Join(output, relDir, base+"."+ext)
		}
	}

	return filepath.Join(output, base+"."+ext)
}

// pagePath names the PNG of one page: page 1 keeps the output path, later
// pages gain a "-N" suffix.
func pagePath(outputPath string, page int) string {
	if page <= 1 {
		return outputPath
	}
	ext := filepath.Ext(outputPath)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(outputPath, ext), page, ext)
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > pdf4ofd.MaxPoolSize {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, pdf4ofd.MaxPoolSize)
	}
	return nil
}
