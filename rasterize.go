package pdf4ofd

import (
	"context"
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/ranvane/pdf4ofd/internal/fileutil"
	"github.com/ranvane/pdf4ofd/internal/process"
)

// rasterizer turns one SVG page into PNG bytes. It abstracts the browser
// so conversions can be tested without Chrome.
type rasterizer interface {
	Rasterize(ctx context.Context, svg []byte, widthMM, heightMM float64) ([]byte, error)
	Close() error
}

// cssPixelsPerMM is the CSS reference resolution, 96 px per inch.
const cssPixelsPerMM = 96 / 25.4

// rodRasterizer implements rasterizer using go-rod.
// Rod automatically downloads Chromium on first run if not found.
type rodRasterizer struct {
	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
	timeout  time.Duration
	scale    float64
}

// newRodRasterizer creates a rodRasterizer. scale is the device pixel
// ratio of the screenshots.
func newRodRasterizer(timeout time.Duration, scale float64) *rodRasterizer {
	return &rodRasterizer{timeout: timeout, scale: scale}
}

// ensureBrowser lazily connects to the browser.
func (r *rodRasterizer) ensureBrowser() error {
	if r.browser != nil {
		return nil
	}

	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_BROWSER_BIN") != "" || os.Getenv("ROD_NO_SANDBOX") == "1" {
		l = l.NoSandbox(true)
	}
	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	r.launcher = l

	r.browser = rod.New().ControlURL(u)
	if err := r.browser.Connect(); err != nil {
		r.browser = nil
		r.stopLauncher()
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	return nil
}

// stopLauncher kills the launched browser process tree and removes its
// profile directory.
func (r *rodRasterizer) stopLauncher() {
	if r.launcher == nil {
		return
	}
	if pid := r.launcher.PID(); pid > 0 {
		process.KillProcessGroup(pid)
	}
	r.launcher.Kill()
	r.launcher.Cleanup()
	r.launcher = nil
}

// Close releases browser resources.
func (r *rodRasterizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	r.stopLauncher()
	return err
}

// Rasterize loads the SVG from a temporary file into a viewport the size
// of the page and captures it.
func (r *rodRasterizer) Rasterize(ctx context.Context, svg []byte, widthMM, heightMM float64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, cleanup, err := fileutil.WriteTempFile(svg, "svg")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureBrowser(); err != nil {
		return nil, err
	}

	page, err := r.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer func() { _ = page.Close() }()

	// Wait for page to load with timeout from context or default
	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}
	p := page.Context(ctx).Timeout(timeout)

	err = p.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             cssPixels(widthMM),
		Height:            cssPixels(heightMM),
		DeviceScaleFactor: r.scale,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}

	if err := p.Navigate("file://" + path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	if err := p.WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	png, err := p.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScreenshot, err)
	}
	return png, nil
}

// cssPixels converts millimetres to whole CSS pixels, rounding up so the
// page edge is never cropped.
func cssPixels(mm float64) int {
	return max(1, int(math.Ceil(mm*cssPixelsPerMM)))
}
