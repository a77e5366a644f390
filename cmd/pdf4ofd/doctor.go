package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/launcher"

	"github.com/ranvane/pdf4ofd/internal/fonts"
	"github.com/ranvane/pdf4ofd/internal/imageconv"
	"github.com/ranvane/pdf4ofd/internal/process"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string     `json:"status"` // "ready", "warnings", "errors"
	Chrome   chromeInfo `json:"chrome"`
	JBIG2    toolInfo   `json:"jbig2dec"`
	Fonts    fontsInfo  `json:"fonts"`
	Env      envInfo    `json:"environment"`
	System   systemInfo `json:"system"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
}

// chromeInfo holds Chrome/Chromium detection results.
type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

// toolInfo holds the result of looking up an external program.
type toolInfo struct {
	Found bool   `json:"found"`
	Path  string `json:"path,omitempty"`
}

// fontsInfo holds font directory scan results.
type fontsInfo struct {
	Dirs  []string `json:"dirs"`
	Faces int      `json:"faces"`
	CJK   string   `json:"cjk,omitempty"` // Face used for 宋体, if any
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     string `json:"rod_no_sandbox"`
	BrowserBin    string `json:"rod_browser_bin"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// doctorProbes locates external dependencies. Tests replace them.
type doctorProbes struct {
	lookChrome func() (string, bool)
	lookJBIG2  func() (string, bool)
	fontDirs   []string
}

func defaultProbes() doctorProbes {
	return doctorProbes{
		lookChrome: launcher.LookPath,
		lookJBIG2: func() (string, bool) {
			name := os.Getenv("PDF4OFD_JBIG2DEC")
			if name == "" {
				name = imageconv.DefaultJBIG2Decoder
			}
			return process.Available(name)
		},
		fontDirs: fontDirsFromEnv(),
	}
}

// fontDirsFromEnv lists PDF4OFD_FONT_DIRS followed by the system font
// directories.
func fontDirsFromEnv() []string {
	var dirs []string
	for _, d := range filepath.SplitList(os.Getenv("PDF4OFD_FONT_DIRS")) {
		if d != "" {
			dirs = append(dirs, d)
		}
	}
	return append(dirs, fonts.DefaultDirs()...)
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(args []string, env *Environment) int {
	return doctorCmd(args, env, defaultProbes())
}

func doctorCmd(args []string, env *Environment, probes doctorProbes) int {
	jsonOutput := false
	for _, arg := range args {
		if arg == "--json" {
			jsonOutput = true
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	result := runDoctor(ctx, probes)

	if jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(ctx context.Context, probes doctorProbes) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  os.Getenv("ROD_NO_SANDBOX"),
			BrowserBin: os.Getenv("ROD_BROWSER_BIN"),
		},
	}

	checkChrome(result, probes.lookChrome)
	checkJBIG2(result, probes.lookJBIG2)
	checkFonts(ctx, result, probes.fontDirs)
	checkEnvironment(result)
	checkSystem(result)

	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}

	return result
}

// checkChrome detects Chrome/Chromium. Only PNG output needs it, so a
// missing browser is a warning.
func checkChrome(result *doctorResult, look func() (string, bool)) {
	chromePath := result.Env.BrowserBin

	if chromePath == "" {
		var found bool
		chromePath, found = look()
		if !found {
			result.Warnings = append(result.Warnings,
				"Chrome/Chromium not found; OFD to PNG needs it. Install Chrome or set ROD_BROWSER_BIN")
			return
		}
	}

	if _, err := os.Stat(chromePath); err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Chrome not found at %s", chromePath))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath

	out, err := exec.Command(chromePath, "--version").Output() // #nosec G204 -- located browser binary
	if err == nil {
		result.Chrome.Version = strings.TrimSpace(string(out))
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get Chrome version: %v", err))
	}

	result.Chrome.Sandbox = result.Env.NoSandbox != "1"
}

// checkJBIG2 looks for the JBIG2 decoder used for scanned OFD images.
func checkJBIG2(result *doctorResult, look func() (string, bool)) {
	path, found := look()
	if !found {
		result.Warnings = append(result.Warnings,
			"jbig2dec not found; JBIG2 images in OFD files will be skipped")
		return
	}
	result.JBIG2 = toolInfo{Found: true, Path: path}
}

// checkFonts indexes the font directories and looks for a CJK serif face.
func checkFonts(ctx context.Context, result *doctorResult, dirs []string) {
	reg := fonts.NewRegistry()
	if err := reg.Scan(ctx, dirs...); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Font scan incomplete: %v", err))
	}
	result.Fonts.Dirs = dirs
	result.Fonts.Faces = len(reg.Faces())

	if _, face, err := reg.Resolve("宋体", "SimSun"); err == nil {
		result.Fonts.CJK = face.FullName
		return
	}
	if result.Fonts.Faces == 0 {
		result.Errors = append(result.Errors, "No fonts found; text in PDF output will be unreadable. Use --font-dir")
		return
	}
	result.Warnings = append(result.Warnings,
		"No SimSun-compatible font found; Chinese text falls back to Helvetica. Use --font-dir or --default-font")
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult) {
	result.Env.Container, result.Env.ContainerHint = isContainer()

	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	if (result.Env.Container || result.Env.CI) && result.Env.NoSandbox != "1" && result.Chrome.Found {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1")
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer() (bool, string) {
	if os.Getenv("PDF4OFD_CONTAINER") == "1" {
		return true, "PDF4OFD_CONTAINER=1"
	}
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true, "/.dockerenv"
	}
	if v := os.Getenv("container"); v != "" {
		return true, "container=" + v
	}
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies the temp directory, used for OFD page rendering
// and JBIG2 decoding, is writable.
func checkSystem(result *doctorResult) {
	tmpDir := os.TempDir()
	f, err := os.CreateTemp(tmpDir, "pdf4ofd-doctor-*")
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", tmpDir))
		return
	}
	_ = f.Close()
	_ = os.Remove(f.Name())
	result.System.TempWritable = true
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "pdf4ofd doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Chrome/Chromium (PNG output)")
	if r.Chrome.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Chrome.Path)
		if r.Chrome.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Chrome.Version)
		}
		if r.Chrome.Sandbox {
			fmt.Fprintln(w, "  [OK] Sandbox: enabled")
		} else {
			fmt.Fprintln(w, "  [OK] Sandbox: disabled (ROD_NO_SANDBOX=1)")
		}
	} else {
		fmt.Fprintln(w, "  [WARN] Not found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "jbig2dec (JBIG2 images)")
	if r.JBIG2.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.JBIG2.Path)
	} else {
		fmt.Fprintln(w, "  [WARN] Not found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Fonts")
	fmt.Fprintf(w, "  [OK] %d face(s) in %d director(ies)\n", r.Fonts.Faces, len(r.Fonts.Dirs))
	if r.Fonts.CJK != "" {
		fmt.Fprintf(w, "  [OK] SimSun: %s\n", r.Fonts.CJK)
	} else {
		fmt.Fprintln(w, "  [WARN] SimSun: no match")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to convert")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
