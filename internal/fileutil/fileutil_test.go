package fileutil_test

// Notes:
// - WriteTempFile is exercised with the two payloads it stages in practice:
//   JBIG2 streams handed to jbig2dec and SVG pages loaded by the browser.
// - Disk-full and close failures are not covered; only a missing TMPDIR is
//   simulated, so that test uses t.Setenv and does not run in parallel.

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ranvane/pdf4ofd/internal/fileutil"
)

// ---------------------------------------------------------------------------
// TestWriteTempFile - Staging media for helper programs
// ---------------------------------------------------------------------------

func TestWriteTempFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content []byte
		ext     string
	}{
		{"jbig2 stream for jbig2dec", []byte("\x97JB2\r\n\x1a\n\x00\x00\x00\x01"), "jb2"},
		{"svg page for the browser", []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 210 297"><text>电子发票</text></svg>`), "svg"},
		{"empty page", nil, "svg"},
		{"scanned page", []byte(strings.Repeat("\xff", 1<<20)), "png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path, cleanup, err := fileutil.WriteTempFile(tt.content, tt.ext)
			if err != nil {
				t.Fatalf("WriteTempFile() error: %v", err)
			}

			base := filepath.Base(path)
			if !strings.HasPrefix(base, "pdf4ofd-") || !strings.HasSuffix(base, "."+tt.ext) {
				t.Errorf("temp file name = %q, want pdf4ofd-*.%s", base, tt.ext)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("reading temp file: %v", err)
			}
			if string(data) != string(tt.content) {
				t.Errorf("temp file holds %d bytes, want %d", len(data), len(tt.content))
			}

			cleanup()
			if fileutil.FileExists(path) {
				t.Errorf("%s still present after cleanup", path)
			}
		})
	}
}

func TestWriteTempFile_RejectsUnsafeExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ext     string
		wantErr error
	}{
		{"", fileutil.ErrExtensionEmpty},
		{"../ofd", fileutil.ErrExtensionPathTraversal},
		{`..\pdf`, fileutil.ErrExtensionPathTraversal},
		{"png\x00exe", fileutil.ErrExtensionPathTraversal},
	}

	for _, tt := range tests {
		if err := fileutil.ValidateExtension(tt.ext); !errors.Is(err, tt.wantErr) {
			t.Errorf("ValidateExtension(%q) = %v, want %v", tt.ext, err, tt.wantErr)
		}
		path, cleanup, err := fileutil.WriteTempFile([]byte("x"), tt.ext)
		if !errors.Is(err, tt.wantErr) || path != "" || cleanup != nil {
			t.Errorf("WriteTempFile(%q) = %q, %v; want no file and %v", tt.ext, path, err, tt.wantErr)
		}
	}
}

func TestWriteTempFile_MissingTempDir(t *testing.T) {
	t.Setenv("TMPDIR", filepath.Join(t.TempDir(), "gone"))

	_, cleanup, err := fileutil.WriteTempFile([]byte("page"), "svg")
	if cleanup != nil {
		cleanup()
	}
	if err == nil || !strings.Contains(err.Error(), "creating temp file") {
		t.Errorf("WriteTempFile() error = %v, want a creating temp file error", err)
	}
}

// ---------------------------------------------------------------------------
// TestFileExists - Output collision checks
// ---------------------------------------------------------------------------

func TestFileExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	page := filepath.Join(dir, "invoice-2.png")
	if err := os.WriteFile(page, []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}
	outDir := filepath.Join(dir, "invoice.ofd")
	if err := os.Mkdir(outDir, 0o755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"written page", page, true},
		{"directory named like an output", outDir, false},
		{"page not yet written", filepath.Join(dir, "invoice-3.png"), false},
		{"empty path", "", false},
	}
	for _, tt := range tests {
		if got := fileutil.FileExists(tt.path); got != tt.want {
			t.Errorf("%s: FileExists(%q) = %v, want %v", tt.name, tt.path, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// TestIsFilePath - Font names versus font files
// ---------------------------------------------------------------------------

func TestIsFilePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{"SimSun", false},
		{"宋体", false},
		{"Times-Roman", false},
		{"Source.Han.Serif", false},
		{"Noto_Sans_CJK", false},
		{"", false},
		{"./fonts/simsun.ttf", true},
		{"../shared/simhei.ttf", true},
		{"/usr/share/fonts/truetype/kai.ttf", true},
		{`C:\Windows\Fonts\simsun.ttc`, true},
		{"D:/Fonts/fangsong.ttf", true},
		{"fonts/", true},
	}

	for _, tt := range tests {
		if got := fileutil.IsFilePath(tt.input); got != tt.want {
			t.Errorf("IsFilePath(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// TestSwapExtension - Output naming per direction
// ---------------------------------------------------------------------------

func TestSwapExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		ext  string
		want string
	}{
		{"pdf to ofd", filepath.Join("docs", "invoice.pdf"), "ofd", filepath.Join("docs", "invoice.ofd")},
		{"ofd to pdf", "2024-03 报销单.ofd", "pdf", "2024-03 报销单.pdf"},
		{"ofd to page images", "contract.OFD", "png", "contract.png"},
		{"scan to ofd", "scan.JPG", "ofd", "scan.ofd"},
		{"tiff to pdf", "fax.tiff", "pdf", "fax.pdf"},
		{"dots in name", "fp.2024.01.ofd", "pdf", "fp.2024.01.pdf"},
		{"no extension", "invoice", "ofd", "invoice.ofd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := fileutil.SwapExtension(tt.path, tt.ext); got != tt.want {
				t.Errorf("SwapExtension(%q, %q) = %q, want %q", tt.path, tt.ext, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestExt - Format detection by extension
// ---------------------------------------------------------------------------

func TestExt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{"invoice.PDF", "pdf"},
		{filepath.Join("out.d", "invoice.Ofd"), "ofd"},
		{"scan.Tif", "tif"},
		{"font.TTC", "ttc"},
		{"invoice", ""},
		{".ofd", "ofd"},
	}

	for _, tt := range tests {
		if got := fileutil.Ext(tt.path); got != tt.want {
			t.Errorf("Ext(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
