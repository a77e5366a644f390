package pdf4ofd

import (
	"errors"
	"runtime"
	"sync"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one worker is available.
	MinPoolSize = 1

	// MaxPoolSize caps converters, and so browser instances (~200MB each)
	// when OFD pages are rasterized.
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// ConverterPool manages a pool of Converter instances for parallel processing.
// Each converter has its own browser instance, enabling true parallelism.
// Converters are created lazily on first acquire to avoid startup delay;
// they share one font registry so system fonts are scanned once.
type ConverterPool struct {
	size       int
	opts       []Option
	fonts      *fontSource
	converters []*Converter
	sem        chan *Converter
	mu         sync.Mutex
	created    int
	closed     bool

	build func() (*Converter, error)
}

// NewConverterPool creates a pool with capacity for n converters built
// with opts. The options are checked by building the first converter.
func NewConverterPool(n int, opts ...Option) (*ConverterPool, error) {
	if n < 1 {
		n = 1
	}

	first, err := NewConverter(opts...)
	if err != nil {
		return nil, err
	}

	p := &ConverterPool{
		size:       n,
		opts:       opts,
		fonts:      first.fonts,
		converters: make([]*Converter, 0, n),
		sem:        make(chan *Converter, n),
	}
	p.build = func() (*Converter, error) {
		return NewConverter(append(append([]Option(nil), opts...), withFontSource(first.fonts))...)
	}
	p.converters = append(p.converters, first)
	p.created = 1
	p.sem <- first
	return p, nil
}

// Acquire gets a converter from the pool, creating one if needed.
// Blocks if all converters are in use. If a new converter cannot be
// built, Acquire waits for one already created. Returns nil once the pool
// is closed.
func (p *ConverterPool) Acquire() *Converter {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil
	}

	select {
	case c := <-p.sem:
		return c
	default:
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	if p.created < p.size {
		p.created++
		p.mu.Unlock()

		c, err := p.build()

		p.mu.Lock()
		switch {
		case err != nil:
			p.created--
			p.mu.Unlock()
			return <-p.sem
		case p.closed:
			p.mu.Unlock()
			_ = c.Close()
			return nil
		}
		p.converters = append(p.converters, c)
		p.mu.Unlock()

		return c
	}
	p.mu.Unlock()

	return <-p.sem
}

// Release returns a converter to the pool. The channel holds every
// converter the pool can create, so the send never blocks.
func (p *ConverterPool) Release(c *Converter) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.closed && c != nil {
		p.sem <- c
	}
}

// Close releases all browser resources.
// Returns an aggregated error if multiple converters fail to close.
func (p *ConverterPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.sem)
	converters := p.converters
	p.mu.Unlock()

	var errs []error
	for _, c := range converters {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Size returns the pool capacity.
func (p *ConverterPool) Size() int {
	return p.size
}

// withFontSource shares a font registry between converters.
func withFontSource(s *fontSource) Option {
	return func(c *Converter) {
		c.fonts = s
	}
}

// ResolvePoolSize determines the optimal pool size.
// Priority: explicit workers > GOMAXPROCS-based calculation.
// Exported for use by servers and CLIs.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return min(workers, MaxPoolSize)
	}

	// Auto-calculate based on GOMAXPROCS (adjusted by automaxprocs for containers)
	n := runtime.GOMAXPROCS(0) / cpuDivisor
	return max(MinPoolSize, min(n, MaxPoolSize))
}
