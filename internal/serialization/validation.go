package serialization

import (
	"fmt"
	"sort"
	"strings"
)

// Validation limits for security and resource protection.
const (
	MaxHeaderSize    = 100 * 1024 * 1024 // 100MB - maximum header size
	MaxTensorCount   = 100_000           // Maximum number of tensors in a file
	MaxTensorNameLen = 4096              // Maximum tensor name length
)

// ValidateTensorOffsets checks that tensors are element aligned, in bounds,
// disjoint and together cover [0, dataSize) exactly.
func ValidateTensorOffsets(tensors []TensorInfo, dataSize int64, elemSize int) error {
	if len(tensors) > MaxTensorCount {
		return &ValidationError{
			Err:     ErrTooManyTensors,
			Details: fmt.Sprintf("got %d, max %d", len(tensors), MaxTensorCount),
		}
	}

	sorted := make([]TensorInfo, len(tensors))
	copy(sorted, tensors)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Begin < sorted[j].Begin
	})

	var pos int64
	for i, t := range sorted {
		if t.Begin < 0 || t.End < t.Begin {
			return &ValidationError{
				Err:     ErrNegativeOffset,
				Tensor:  t.Name,
				Details: fmt.Sprintf("data_offsets [%d, %d]", t.Begin, t.End),
			}
		}
		if t.End > dataSize {
			return &ValidationError{
				Err:     ErrOutOfBounds,
				Tensor:  t.Name,
				Details: fmt.Sprintf("end %d > data_size %d", t.End, dataSize),
			}
		}
		if i > 0 && t.Begin < pos {
			return &ValidationError{
				Err:     ErrOffsetOverlap,
				Tensor:  sorted[i-1].Name,
				Tensor2: t.Name,
				Details: fmt.Sprintf("region [%d-%d] starts before %d", t.Begin, t.End, pos),
			}
		}
		if t.Begin != pos {
			return &ValidationError{
				Err:     ErrCoverageGap,
				Tensor:  t.Name,
				Details: fmt.Sprintf("starts at %d, expected %d", t.Begin, pos),
			}
		}
		if want := int64(t.NumElements() * elemSize); t.End-t.Begin != want {
			return &ValidationError{
				Err:     ErrTensorShape,
				Tensor:  t.Name,
				Details: fmt.Sprintf("shape %v needs %d bytes, range holds %d", t.Shape, want, t.End-t.Begin),
			}
		}
		pos = t.End
	}

	if pos != dataSize {
		return &ValidationError{
			Err:     ErrCoverageGap,
			Details: fmt.Sprintf("tensors cover %d of %d bytes", pos, dataSize),
		}
	}
	return nil
}

// ValidateTensorName checks tensor names for path traversal and malicious patterns.
// The empty name is allowed: it is the single leaf of a flat array.
func ValidateTensorName(name string) error {
	if len(name) > MaxTensorNameLen {
		return &ValidationError{
			Err:     ErrTensorNameTooLong,
			Tensor:  name,
			Details: fmt.Sprintf("length %d > max %d", len(name), MaxTensorNameLen),
		}
	}
	if name == metadataKey {
		return &ValidationError{
			Err:     ErrInvalidTensorName,
			Tensor:  name,
			Details: "reserved for metadata",
		}
	}
	if strings.Contains(name, "..") {
		return &ValidationError{
			Err:     ErrInvalidTensorName,
			Tensor:  name,
			Details: "contains '..'",
		}
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return &ValidationError{
			Err:     ErrInvalidTensorName,
			Tensor:  name,
			Details: "contains a path separator or null byte",
		}
	}
	return nil
}
