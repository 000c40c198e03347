// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package carray_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/born-ml/carray/backend/cpu"
	"github.com/born-ml/carray/carray"
	"github.com/born-ml/carray/tensor"
)

// TestPublicAPI exercises construction, views and a product through the facade.
func TestPublicAPI(t *testing.T) {
	backend := cpu.New()
	a, err := carray.New(backend,
		carray.Leaf("weight", []float64{1, 2, 3, 4}, 2, 2),
		carray.Leaf("bias", []float64{5, 6}),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	w, err := a.View("weight")
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
	wt, err := carray.Transpose(w)
	if err != nil {
		t.Fatalf("Transpose failed: %v", err)
	}
	b, err := a.View("bias")
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
	x, err := carray.Plain(b)
	if err != nil {
		t.Fatalf("Plain failed: %v", err)
	}

	out, err := carray.Empty[float64](backend, 2)
	if err != nil {
		t.Fatalf("Empty failed: %v", err)
	}
	if err := carray.Mul(out, wt, x, 1, 0); err != nil {
		t.Fatalf("Mul failed: %v", err)
	}
	got, err := out.Host()
	if err != nil {
		t.Fatalf("Host failed: %v", err)
	}
	// Wᵀ·b = [1*5+3*6, 2*5+4*6]
	if got[0] != 23 || got[1] != 34 {
		t.Errorf("Mul = %v, want [23 34]", got)
	}

	if _, err := a.View("missing"); !errors.Is(err, tensor.ErrKeyNotFound) {
		t.Errorf("View(missing) error = %v, want ErrKeyNotFound", err)
	}
}

// TestSaveLoad round-trips an array through the facade.
func TestSaveLoad(t *testing.T) {
	backend := cpu.New()
	a, err := carray.New(backend, carray.Group("g", carray.Value("s", 2.5)))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	var buf bytes.Buffer
	if err := carray.Save(&buf, a, map[string]string{"k": "v"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	b, meta, err := carray.Load[float64](&buf, backend)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if meta["k"] != "v" {
		t.Errorf("metadata = %v", meta)
	}
	if s, err := b.Scalar("g.s"); err != nil || s != 2.5 {
		t.Errorf("Scalar(g.s) = %v, %v", s, err)
	}
}
