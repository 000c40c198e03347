package serialization

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/born-ml/carray/internal/tensor"
)

const (
	metadataKey = "__metadata__"

	// MetaDType and MetaChecksum are the metadata keys written on every file.
	MetaDType    = "dtype"
	MetaChecksum = "sha256"

	// metaOrder lists the tensor names in data order. JSON objects are
	// unordered, and zero-length tensors share their offsets with a
	// neighbour, so offsets alone cannot place them.
	metaOrder = "leaf_order"
)

// TensorInfo is one leaf: its dotted path, shape and byte range in the data section.
type TensorInfo struct {
	Name  string
	Shape []int
	Begin int64
	End   int64
}

// NumElements returns the number of elements of the shape (1 for scalars).
func (t TensorInfo) NumElements() int {
	return tensor.Shape(t.Shape).NumElements()
}

// File is the decoded content of a SafeTensors file holding one component array.
type File struct {
	DType    tensor.DataType
	Tensors  []TensorInfo // In data order
	Metadata map[string]string
	Data     []byte
}

// safeTensorHeader represents a tensor in the SafeTensors header.
type safeTensorHeader struct {
	DType       string   `json:"dtype"`
	Shape       []int64  `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

// Write encodes f to w.
//
// Format:
// [8 bytes: header_size (uint64 LE)]
// [header_size bytes: JSON header]
// [data: raw bytes]
func Write(w io.Writer, f *File) error {
	dtype, err := dtypeToSafeTensors(f.DType)
	if err != nil {
		return err
	}
	if err := validate(f); err != nil {
		return err
	}

	meta := make(map[string]string, len(f.Metadata)+2)
	for k, v := range f.Metadata {
		meta[k] = v
	}
	meta[MetaDType] = f.DType.String()
	meta[MetaChecksum] = ComputeChecksum(f.Data)
	names := make([]string, len(f.Tensors))
	for i, t := range f.Tensors {
		names[i] = t.Name
	}
	order, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("failed to marshal tensor order: %w", err)
	}
	meta[metaOrder] = string(order)

	header := make(map[string]any, len(f.Tensors)+1)
	header[metadataKey] = meta
	for _, t := range f.Tensors {
		shape := make([]int64, len(t.Shape))
		for i, d := range t.Shape {
			shape[i] = int64(d)
		}
		header[t.Name] = safeTensorHeader{
			DType:       dtype,
			Shape:       shape,
			DataOffsets: [2]int64{t.Begin, t.End},
		}
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	if err := binary.Write(w, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := w.Write(f.Data); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}
	return nil
}

// WriteFile writes f to path, replacing any existing file.
func WriteFile(path string, f *File) error {
	//nolint:gosec // G304: File path comes from user input, which is expected for saving
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	bw := bufio.NewWriter(file)
	if err := Write(bw, f); err != nil {
		_ = file.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to flush: %w", err)
	}
	return file.Close()
}

// Read decodes a file from r and validates it.
func Read(r io.Reader) (*File, error) {
	var headerSize uint64
	if err := binary.Read(r, binary.LittleEndian, &headerSize); err != nil {
		return nil, fmt.Errorf("failed to read header size: %w", err)
	}
	if headerSize > MaxHeaderSize {
		return nil, &ValidationError{
			Err:     ErrHeaderTooLarge,
			Details: fmt.Sprintf("%d bytes, max %d", headerSize, MaxHeaderSize),
		}
	}

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	f, err := parseHeader(headerJSON)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}
	f.Data = data

	if err := validate(f); err != nil {
		return nil, err
	}
	if sum, ok := f.Metadata[MetaChecksum]; ok {
		if err := ValidateChecksum(f.Data, sum); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// ReadFile reads and validates the file at path.
func ReadFile(path string) (*File, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for loading
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()
	return Read(bufio.NewReader(file))
}

func parseHeader(headerJSON []byte) (*File, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(headerJSON, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	f := &File{Metadata: map[string]string{}}
	if m, ok := raw[metadataKey]; ok {
		if err := json.Unmarshal(m, &f.Metadata); err != nil {
			return nil, fmt.Errorf("failed to parse metadata: %w", err)
		}
		delete(raw, metadataKey)
	}

	var dtype string
	for name, msg := range raw {
		var h safeTensorHeader
		if err := json.Unmarshal(msg, &h); err != nil {
			return nil, fmt.Errorf("failed to parse tensor %q: %w", name, err)
		}
		if dtype == "" {
			dtype = h.DType
		} else if h.DType != dtype {
			return nil, &ValidationError{Err: ErrMixedDType, Tensor: name, Details: fmt.Sprintf("%s vs %s", h.DType, dtype)}
		}
		shape := make([]int, len(h.Shape))
		for i, d := range h.Shape {
			if d < 0 {
				return nil, &ValidationError{Err: ErrTensorShape, Tensor: name, Details: fmt.Sprintf("negative dimension %d", d)}
			}
			shape[i] = int(d)
		}
		f.Tensors = append(f.Tensors, TensorInfo{
			Name:  name,
			Shape: shape,
			Begin: h.DataOffsets[0],
			End:   h.DataOffsets[1],
		})
	}

	rank, err := parseOrder(f.Metadata)
	if err != nil {
		return nil, err
	}
	sort.Slice(f.Tensors, func(i, j int) bool {
		a, b := f.Tensors[i], f.Tensors[j]
		if a.Begin != b.Begin {
			return a.Begin < b.Begin
		}
		if a.End != b.End {
			return a.End < b.End
		}
		ra, okA := rank[a.Name]
		rb, okB := rank[b.Name]
		if okA != okB {
			return okA
		}
		if ra != rb {
			return ra < rb
		}
		return a.Name < b.Name
	})

	switch {
	case dtype != "":
		dt, err := dtypeFromSafeTensors(dtype)
		if err != nil {
			return nil, err
		}
		f.DType = dt
	case f.Metadata[MetaDType] != "":
		dt, err := tensor.ParseDataType(f.Metadata[MetaDType])
		if err != nil {
			return nil, err
		}
		f.DType = dt
	default:
		f.DType = tensor.Float32
	}
	return f, nil
}

// parseOrder removes the order entry from meta and returns each listed
// name's position.
func parseOrder(meta map[string]string) (map[string]int, error) {
	v, ok := meta[metaOrder]
	if !ok {
		return nil, nil
	}
	delete(meta, metaOrder)

	var names []string
	if err := json.Unmarshal([]byte(v), &names); err != nil {
		return nil, fmt.Errorf("failed to parse tensor order: %w", err)
	}
	rank := make(map[string]int, len(names))
	for i, name := range names {
		rank[name] = i
	}
	return rank, nil
}

func validate(f *File) error {
	for _, t := range f.Tensors {
		if err := ValidateTensorName(t.Name); err != nil {
			return err
		}
	}
	return ValidateTensorOffsets(f.Tensors, int64(len(f.Data)), f.DType.Size())
}

// dtypeToSafeTensors converts tensor.DataType to SafeTensors dtype string.
func dtypeToSafeTensors(dt tensor.DataType) (string, error) {
	switch dt {
	case tensor.Float32:
		return "F32", nil
	case tensor.Float64:
		return "F64", nil
	case tensor.Complex64:
		return "C64", nil
	case tensor.Complex128:
		return "C128", nil
	default:
		return "", fmt.Errorf("%w: %s", tensor.ErrUnsupportedDType, dt)
	}
}

func dtypeFromSafeTensors(s string) (tensor.DataType, error) {
	switch s {
	case "F32":
		return tensor.Float32, nil
	case "F64":
		return tensor.Float64, nil
	case "C64":
		return tensor.Complex64, nil
	case "C128":
		return tensor.Complex128, nil
	default:
		return 0, fmt.Errorf("%w: safetensors dtype %q", tensor.ErrUnsupportedDType, s)
	}
}
