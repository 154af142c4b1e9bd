package buffer

import (
	"fmt"
	"reflect"
)

// ElemType identifies the scalar element type of a Buffer. It is part
// of the metadata a Handle carries across process boundaries, so the
// numeric values are stable.
type ElemType uint8

const (
	Uint8 ElemType = iota
	Int32
	Int64
	Float32
	Float64
)

// Size returns the element width in bytes.
func (e ElemType) Size() int {
	switch e {
	case Uint8:
		return 1
	case Int32, Float32:
		return 4
	case Int64, Float64:
		return 8
	default:
		return 0
	}
}

func (e ElemType) String() string {
	switch e {
	case Uint8:
		return "uint8"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return fmt.Sprintf("ElemType(%d)", uint8(e))
	}
}

// Scalar is the set of Go types a Buffer can hold.
type Scalar interface {
	~uint8 | ~int32 | ~int64 | ~float32 | ~float64
}

// ElemOf maps a Go scalar type onto its ElemType tag. Named types
// resolve through their underlying kind.
func ElemOf[T Scalar]() ElemType {
	var zero T
	switch reflect.TypeOf(zero).Kind() {
	case reflect.Uint8:
		return Uint8
	case reflect.Int32:
		return Int32
	case reflect.Int64:
		return Int64
	case reflect.Float32:
		return Float32
	default:
		return Float64
	}
}
