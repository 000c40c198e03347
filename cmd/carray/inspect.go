package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/born-ml/carray/internal/backend/cpu"
	"github.com/born-ml/carray/internal/carray"
	"github.com/born-ml/carray/internal/config"
	"github.com/born-ml/carray/internal/nn"
	"github.com/born-ml/carray/internal/pinn"
	"github.com/born-ml/carray/internal/serialization"
	"github.com/born-ml/carray/internal/tensor"
)

func cmdInit(args []string, out io.Writer) error {
	data, err := config.Defaults().Marshal()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		_, err := out.Write(data)
		return err
	}
	if err := os.WriteFile(args[0], data, 0o600); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	fmt.Fprintf(out, "wrote %s\n", args[0])
	return nil
}

func cmdInspect(args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.New("inspect: want exactly one file")
	}
	//nolint:gosec // G304: path comes from the user
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("inspect: %w", err)
	}
	if strings.HasSuffix(args[0], ".safetensors") {
		return describeArray(data, out)
	}
	if s, err := pinn.DecodeSnapshot(data); err == nil {
		return describeSnapshot(s, out)
	}
	return describeArray(data, out)
}

func describeSnapshot(s *pinn.Snapshot, out io.Writer) error {
	fmt.Fprintf(out, "snapshot %s (%s)\n", s.ID, s.DType)
	fmt.Fprintf(out, "system %q: %s -> %s\n", s.System.Name,
		strings.Join(s.System.IndependentVars, ", "), strings.Join(s.System.DependentVars, ", "))
	for _, eq := range s.System.Equations {
		fmt.Fprintf(out, "  %s\n", eq)
	}
	for _, v := range s.System.DependentVars {
		fmt.Fprintf(out, "state %s: %s\n", v, describeState(s.States[v]))
	}
	writeMetadata(out, s.Metadata)
	return describeArray(s.Params, out)
}

func describeState(st nn.LayerState) string {
	names := make([]string, 0, len(st.Children))
	for name := range st.Children {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := []string{fmt.Sprintf("training=%t", st.Training)}
	for _, name := range names {
		if c := st.Children[name]; c.Calls > 0 {
			parts = append(parts, fmt.Sprintf("%s.calls=%d", name, c.Calls))
		}
	}
	return strings.Join(parts, " ")
}

func describeArray(data []byte, out io.Writer) error {
	f, err := serialization.Read(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("inspect: %w", err)
	}
	switch f.DType {
	case tensor.Float32:
		return printArray[float32](data, out)
	case tensor.Float64:
		return printArray[float64](data, out)
	case tensor.Complex64:
		return printArray[complex64](data, out)
	default:
		return printArray[complex128](data, out)
	}
}

func printArray[T tensor.Scalar](data []byte, out io.Writer) error {
	a, meta, err := carray.Load[T](bytes.NewReader(data), cpu.New())
	if err != nil {
		return err
	}
	defer a.Release()
	fmt.Fprint(out, a)
	if n, err := carray.Norm(a, 2); err == nil {
		fmt.Fprintf(out, "norm2=%g\n", n)
	}
	writeMetadata(out, meta)
	return nil
}

func writeMetadata(out io.Writer, meta map[string]string) {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "  %s: %s\n", k, meta[k])
	}
}
