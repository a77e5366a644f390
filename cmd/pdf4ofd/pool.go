package main

import (
	"fmt"

	"github.com/ranvane/pdf4ofd"
)

// poolAdapter adapts *pdf4ofd.ConverterPool to the Pool interface.
type poolAdapter struct {
	pool *pdf4ofd.ConverterPool
}

// Compile-time check that poolAdapter implements Pool.
var _ Pool = (*poolAdapter)(nil)

// newPoolAdapter creates a converter pool of the given size.
func newPoolAdapter(size int, opts ...pdf4ofd.Option) (Pool, error) {
	pool, err := pdf4ofd.NewConverterPool(size, opts...)
	if err != nil {
		return nil, err
	}
	return &poolAdapter{pool: pool}, nil
}

func (a *poolAdapter) Acquire() CLIConverter {
	return a.pool.Acquire()
}

// Release panics if c did not come from this pool (programmer error).
func (a *poolAdapter) Release(c CLIConverter) {
	conv, ok := c.(*pdf4ofd.Converter)
	if !ok {
		panic(fmt.Sprintf("poolAdapter.Release: unexpected type %T", c))
	}
	a.pool.Release(conv)
}

func (a *poolAdapter) Size() int {
	return a.pool.Size()
}

func (a *poolAdapter) Close() error {
	return a.pool.Close()
}
