// Package process runs external helper programs (jbig2dec, the browser)
// and makes sure nothing they spawn outlives a cancelled conversion.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrNotFound indicates the program is not installed or not on PATH.
var ErrNotFound = errors.New("program not found")

// waitDelay bounds how long Run waits for output pipes after a kill.
const waitDelay = 2 * time.Second

// Run executes name with args in dir and returns its combined output.
// When ctx ends first the whole process group is killed and ctx.Err() is
// returned.
func Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = dir
	Detach(cmd)
	cmd.Cancel = func() error {
		KillProcessGroup(cmd.Process.Pid)
		return nil
	}
	cmd.WaitDelay = waitDelay

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err = cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return out.Bytes(), ctxErr
	}
	if err != nil {
		msg := strings.TrimSpace(out.String())
		if msg == "" {
			return out.Bytes(), fmt.Errorf("running %s: %w", name, err)
		}
		return out.Bytes(), fmt.Errorf("running %s: %w: %s", name, err, msg)
	}
	return out.Bytes(), nil
}

// Available reports whether name resolves to an executable.
func Available(name string) (string, bool) {
	path, err := exec.LookPath(name)
	return path, err == nil
}
