package main

// Notes:
// - Test helpers and mocks shared by the command tests. Not under test
//   themselves.

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ranvane/pdf4ofd"
)

// ---------------------------------------------------------------------------
// Mock Implementations - For unit testing
// ---------------------------------------------------------------------------

// mockConverter records every input and returns a fixed result.
type mockConverter struct {
	mu     sync.Mutex
	inputs []pdf4ofd.Input
	result *pdf4ofd.ConvertResult
	err    error
}

func (m *mockConverter) Convert(_ context.Context, input pdf4ofd.Input) (*pdf4ofd.ConvertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs = append(m.inputs, input)
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &pdf4ofd.ConvertResult{Output: []byte("converted"), Pages: 1}, nil
}

func (m *mockConverter) calls() []pdf4ofd.Input {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]pdf4ofd.Input(nil), m.inputs...)
}

// mockPool hands out a single shared converter.
type mockPool struct {
	conv     *mockConverter
	size     int
	mu       sync.Mutex
	acquired int
	released int
	closed   bool
	opts     []pdf4ofd.Option
}

func (p *mockPool) Acquire() CLIConverter {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.acquired++
	return p.conv
}

func (p *mockPool) Release(CLIConverter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.released++
}

func (p *mockPool) Size() int { return p.size }

func (p *mockPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// testEnv returns an environment writing to buffers, with a fixed clock
// and a pool factory returning pool.
func testEnv(pool *mockPool) (*Environment, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	env := &Environment{
		Now:    func() time.Time { return time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC) },
		Stdout: &stdout,
		Stderr: &stderr,
		NewPool: func(size int, opts ...pdf4ofd.Option) (Pool, error) {
			if pool == nil {
				pool = &mockPool{conv: &mockConverter{}}
			}
			if pool.size == 0 {
				pool.size = size
			}
			pool.opts = opts
			return pool, nil
		},
	}
	return env, &stdout, &stderr
}

// writeFile creates a file under dir and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := writeAll(path, content); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeAll(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
