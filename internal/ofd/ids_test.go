package ofd_test

import (
	"testing"

	"github.com/ranvane/pdf4ofd/internal/ofd"
)

func TestIDAllocator(t *testing.T) {
	t.Parallel()

	a := ofd.NewIDAllocator()
	seen := make(map[int]bool)
	for i := 1; i <= 5; i++ {
		id := a.Next()
		if id != i {
			t.Errorf("Next() = %d, want %d", id, i)
		}
		seen[id] = true
	}

	font, fresh := a.Bind("font:SimSun")
	if !fresh || seen[font] {
		t.Errorf("Bind(new key) = %d, %v, want a fresh id", font, fresh)
	}
	again, fresh := a.Bind("font:SimSun")
	if fresh || again != font {
		t.Errorf("Bind(same key) = %d, %v, want %d, false", again, fresh, font)
	}
	if got, ok := a.Lookup("font:SimSun"); !ok || got != font {
		t.Errorf("Lookup = %d, %v, want %d, true", got, ok, font)
	}
	if _, ok := a.Lookup("font:missing"); ok {
		t.Error("Lookup(missing) reported a binding")
	}

	if got := a.MaxUnitID(); got != font+1 {
		t.Errorf("MaxUnitID() = %d, want %d", got, font+1)
	}
}
