package serialization

import (
	"bytes"
	"encoding/binary"
	"path/filepath"
	"testing"

	"github.com/born-ml/carray/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFile() *File {
	data := tensor.AsBytes([]float32{1, 2, 3, 4, 5, 6})
	return &File{
		DType: tensor.Float32,
		Tensors: []TensorInfo{
			{Name: "l.weight", Shape: []int{2, 2}, Begin: 0, End: 16},
			{Name: "l.bias", Shape: []int{2}, Begin: 16, End: 24},
		},
		Metadata: map[string]string{"format": "carray"},
		Data:     append([]byte(nil), data...),
	}
}

func TestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleFile()))

	got, err := Read(&buf)
	require.NoError(t, err)

	assert.Equal(t, tensor.Float32, got.DType)
	require.Len(t, got.Tensors, 2)
	// Tensors come back in data order, not name order.
	assert.Equal(t, "l.weight", got.Tensors[0].Name)
	assert.Equal(t, []int{2, 2}, got.Tensors[0].Shape)
	assert.Equal(t, "l.bias", got.Tensors[1].Name)
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, tensor.FromBytes[float32](got.Data))
	assert.Equal(t, "carray", got.Metadata["format"])
	assert.Equal(t, "float32", got.Metadata[MetaDType])
	assert.NotEmpty(t, got.Metadata[MetaChecksum])
}

func TestRoundTripZeroLengthOrder(t *testing.T) {
	f := &File{
		DType: tensor.Float32,
		Tensors: []TensorInfo{
			{Name: "a.w", Shape: []int{1}, Begin: 0, End: 4},
			{Name: "a.z", Shape: []int{0}, Begin: 4, End: 4},
			{Name: "b.y", Shape: []int{0}, Begin: 4, End: 4},
			{Name: "b.q", Shape: []int{1}, Begin: 4, End: 8},
		},
		Data: tensor.AsBytes([]float32{1, 2}),
	}

	// Header objects decode in random order; repeat to cover it.
	for i := 0; i < 50; i++ {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, f))
		got, err := Read(&buf)
		require.NoError(t, err)

		names := make([]string, len(got.Tensors))
		for j, ti := range got.Tensors {
			names[j] = ti.Name
		}
		require.Equal(t, []string{"a.w", "a.z", "b.y", "b.q"}, names)
		assert.NotContains(t, got.Metadata, metaOrder)
	}
}

func TestRoundTripFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.safetensors")
	require.NoError(t, WriteFile(path, sampleFile()))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, got.Tensors, 2)
}

func TestRoundTripEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, &File{DType: tensor.Complex128}))

	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, tensor.Complex128, got.DType)
	assert.Empty(t, got.Tensors)
	assert.Empty(t, got.Data)
}

func TestWriteRejectsBadLayouts(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *File)
		want   error
	}{
		{"overlap", func(f *File) { f.Tensors[1].Begin = 8; f.Tensors[1].End = 16 }, ErrOffsetOverlap},
		{"gap", func(f *File) { f.Data = append(f.Data, 0, 0, 0, 0) }, ErrCoverageGap},
		{"bounds", func(f *File) { f.Tensors[1].End = 28 }, ErrOutOfBounds},
		{"negative", func(f *File) { f.Tensors[0].Begin = -4 }, ErrNegativeOffset},
		{"shape", func(f *File) { f.Tensors[0].Shape = []int{3, 2} }, ErrTensorShape},
		{"name", func(f *File) { f.Tensors[0].Name = "../etc" }, ErrInvalidTensorName},
		{"reserved", func(f *File) { f.Tensors[0].Name = metadataKey }, ErrInvalidTensorName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := sampleFile()
			tt.mutate(f)
			err := Write(&bytes.Buffer{}, f)
			require.ErrorIs(t, err, tt.want)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
		})
	}
}

func TestReadDetectsCorruption(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleFile()))

	raw := buf.Bytes()
	raw[len(raw)-1] ^= 0xFF
	_, err := Read(bytes.NewReader(raw))
	require.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestReadRejectsHugeHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(MaxHeaderSize+1)))
	_, err := Read(&buf)
	require.ErrorIs(t, err, ErrHeaderTooLarge)
}

func TestReadRejectsMixedDTypes(t *testing.T) {
	header := []byte(`{"a":{"dtype":"F32","shape":[1],"data_offsets":[0,4]},"b":{"dtype":"F64","shape":[1],"data_offsets":[4,12]}}`)
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(len(header))))
	buf.Write(header)
	buf.Write(make([]byte, 12))

	_, err := Read(&buf)
	require.ErrorIs(t, err, ErrMixedDType)
}

func TestWriteRejectsUnknownDType(t *testing.T) {
	err := Write(&bytes.Buffer{}, &File{DType: tensor.DataType(42)})
	require.ErrorIs(t, err, tensor.ErrUnsupportedDType)
}
