// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/ranvane/pdf4ofd/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForBrowserConnect returns hints for browser connection errors.
// Detects CI/Docker environment and suggests relevant environment variables.
func ForBrowserConnect() string {
	var hints []string

	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""

	if (inCI || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}

	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use custom Chrome")
	}

	return formatHints(hints)
}

// ForTimeout returns a hint about increasing timeout for slow operations.
func ForTimeout() string {
	return format("for large documents, use --timeout flag")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in the user config directory.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if filepath.Base(filepath.Dir(p)) == "pdf4ofd" {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForOutputExists returns the hint shown when a conversion would overwrite a file.
func ForOutputExists() string {
	return format("use --force to overwrite, or -o to choose another directory")
}

// ForJBIG2Decoder returns hints for OFD images stored as JBIG2 when no
// decoder is installed.
func ForJBIG2Decoder() string {
	install := "install jbig2dec"
	switch runtime.GOOS {
	case "darwin":
		install = "brew install jbig2dec"
	case "linux":
		install = "apt install jbig2dec"
	}
	return format(install + ", or point --jbig2dec at the binary")
}

// ForFontNotFound returns hints for text drawn with a fallback font.
func ForFontNotFound(dirs []string) string {
	hint := "add a font directory with --font-dir or set --default-font"
	if len(dirs) > 0 {
		hint += " (searched " + strings.Join(dirs, ", ") + ")"
	}
	return format(hint)
}

// ForInvalidDocument returns hints for inputs that are not PDF or OFD.
func ForInvalidDocument(ext string) string {
	switch strings.ToLower(ext) {
	case ".ofd":
		return format("OFD files are ZIP packages with an OFD.xml entry; use --fallback to emit a placeholder PDF")
	case ".pdf":
		return format("the file may be encrypted or truncated")
	}
	return ""
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
