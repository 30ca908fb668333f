// Package store persists benchmark artifacts as numeric arrays with an explicit
// shape and dtype, keyed by policy name. A consumer recovers exactly what a
// producer wrote: float64 values round-trip bit for bit.
package store

import (
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/mat"
)

// DType names the element type of an Array.
type DType string

const (
	Float64 DType = "float64"
	Int64   DType = "int64"
	Bool    DType = "bool"
)

// Array is the on-disk form of one artifact.
type Array struct {
	Shape    []int             `json:"shape"`
	DType    DType             `json:"dtype"`
	Meta     map[string]string `json:"meta,omitempty"`
	Data     json.RawMessage   `json:"data"`
	Checksum string            `json:"checksum"`
}

func newArray(shape []int, dtype DType, data any) (*Array, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encoding %s array: %w", dtype, err)
	}
	return &Array{Shape: shape, DType: dtype, Data: raw, Checksum: checksum(raw)}, nil
}

// FloatArray wraps row-major float64 data of the given shape.
func FloatArray(shape []int, data []float64) (*Array, error) {
	return newArray(shape, Float64, data)
}

// IntArray wraps int data of the given shape.
func IntArray(shape []int, data []int) (*Array, error) {
	return newArray(shape, Int64, data)
}

// BoolArray wraps bool data of the given shape.
func BoolArray(shape []int, data []bool) (*Array, error) {
	return newArray(shape, Bool, data)
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Size returns the element count implied by the shape.
func (a *Array) Size() int {
	n := 1
	for _, d := range a.Shape {
		n *= d
	}
	return n
}

func (a *Array) decode(want DType, out any, length func() int) error {
	if a.DType != want {
		return fmt.Errorf("array has dtype %s, want %s", a.DType, want)
	}
	if err := json.Unmarshal(a.Data, out); err != nil {
		return fmt.Errorf("decoding %s array: %w", want, err)
	}
	if n := length(); n != a.Size() {
		return fmt.Errorf("array holds %d elements, shape %v needs %d", n, a.Shape, a.Size())
	}
	return nil
}

// Floats returns the float64 elements.
func (a *Array) Floats() ([]float64, error) {
	var out []float64
	err := a.decode(Float64, &out, func() int { return len(out) })
	return out, err
}

// Ints returns the int64 elements.
func (a *Array) Ints() ([]int, error) {
	var out []int
	err := a.decode(Int64, &out, func() int { return len(out) })
	return out, err
}

// Bools returns the bool elements.
func (a *Array) Bools() ([]bool, error) {
	var out []bool
	err := a.decode(Bool, &out, func() int { return len(out) })
	return out, err
}

// Matrix returns a two-dimensional float64 array as a dense matrix.
func (a *Array) Matrix() (*mat.Dense, error) {
	if len(a.Shape) != 2 || a.Shape[0] == 0 || a.Shape[1] == 0 {
		return nil, fmt.Errorf("shape %v is not a non-empty matrix", a.Shape)
	}
	data, err := a.Floats()
	if err != nil {
		return nil, err
	}
	return mat.NewDense(a.Shape[0], a.Shape[1], data), nil
}

// writeArray stores a as gzip-compressed JSON.
func writeArray(path string, a *Array) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	gz := gzip.NewWriter(file)
	if err := json.NewEncoder(gz).Encode(a); err != nil {
		_ = gz.Close()
		_ = file.Close()
		_ = os.Remove(path) // Clean up on error, ignore result
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := gz.Close(); err != nil {
		_ = file.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return file.Close()
}

// readArray loads and verifies an array written by writeArray.
func readArray(path string) (*Array, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	defer func() { _ = gz.Close() }()

	data, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var a Array
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if checksum(a.Data) != a.Checksum {
		return nil, fmt.Errorf("checksum mismatch for %s", path)
	}
	return &a, nil
}
