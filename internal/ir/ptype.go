package ir

import "fmt"

// PrimitiveType is one of the closed set of scalar kinds every Constant,
// Variable and typed operand in this IR is tagged with.
type PrimitiveType uint8

const (
	S8 PrimitiveType = iota
	U8
	S16
	U16
	S32
	U32
	S64
	U64
	S128
	U128
	BOOL
	F32
	F64
)

var primitiveNames = [...]string{
	S8:   "s8",
	U8:   "u8",
	S16:  "s16",
	U16:  "u16",
	S32:  "s32",
	U32:  "u32",
	S64:  "s64",
	U64:  "u64",
	S128: "s128",
	U128: "u128",
	BOOL: "bool",
	F32:  "f32",
	F64:  "f64",
}

var primitiveSizes = [...]int{
	S8:   1,
	U8:   1,
	S16:  2,
	U16:  2,
	S32:  4,
	U32:  4,
	S64:  8,
	U64:  8,
	S128: 16,
	U128: 16,
	BOOL: 1,
	F32:  4,
	F64:  8,
}

// String returns the canonical textual name used by the serialiser.
func (t PrimitiveType) String() string {
	if int(t) < len(primitiveNames) {
		return primitiveNames[t]
	}
	return fmt.Sprintf("ptype(%d)", uint8(t))
}

// Size returns the fixed byte width of the primitive type.
func (t PrimitiveType) Size() int {
	if int(t) < len(primitiveSizes) {
		return primitiveSizes[t]
	}
	return 0
}

// Signed reports whether integer arithmetic on this type is two's-complement
// signed (as opposed to unsigned wraparound). Meaningless for BOOL/F32/F64.
func (t PrimitiveType) Signed() bool {
	switch t {
	case S8, S16, S32, S64, S128:
		return true
	default:
		return false
	}
}

// IsFloat reports whether the type is F32 or F64.
func (t PrimitiveType) IsFloat() bool {
	return t == F32 || t == F64
}

// IsInteger reports whether the type is one of the integer kinds (signed or
// unsigned), excluding BOOL and the floating-point kinds.
func (t PrimitiveType) IsInteger() bool {
	switch t {
	case S8, U8, S16, U16, S32, U32, S64, U64, S128, U128:
		return true
	default:
		return false
	}
}

// bitWidth is Size() in bits, used by casting and wraparound arithmetic.
func (t PrimitiveType) bitWidth() uint {
	return uint(t.Size()) * 8
}
