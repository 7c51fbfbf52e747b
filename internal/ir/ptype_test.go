package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrimitiveTypeSizes(t *testing.T) {
	cases := []struct {
		t    PrimitiveType
		size int
	}{
		{S8, 1}, {U8, 1}, {S16, 2}, {U16, 2}, {S32, 4}, {U32, 4},
		{S64, 8}, {U64, 8}, {S128, 16}, {U128, 16}, {BOOL, 1}, {F32, 4}, {F64, 8},
	}
	for _, c := range cases {
		assert.Equal(t, c.size, c.t.Size(), "size of %s", c.t)
	}
}

func TestPrimitiveTypeNames(t *testing.T) {
	cases := map[PrimitiveType]string{
		S8: "s8", U8: "u8", S16: "s16", U16: "u16", S32: "s32", U32: "u32",
		S64: "s64", U64: "u64", S128: "s128", U128: "u128", BOOL: "bool",
		F32: "f32", F64: "f64",
	}
	for ty, name := range cases {
		assert.Equal(t, name, ty.String())
	}
}

func TestPrimitiveTypeSigned(t *testing.T) {
	for _, ty := range []PrimitiveType{S8, S16, S32, S64, S128} {
		assert.True(t, ty.Signed(), "%s should be signed", ty)
	}
	for _, ty := range []PrimitiveType{U8, U16, U32, U64, U128, BOOL, F32, F64} {
		assert.False(t, ty.Signed(), "%s should not be signed", ty)
	}
}

func TestPrimitiveTypeIsFloatIsInteger(t *testing.T) {
	assert.True(t, F32.IsFloat())
	assert.True(t, F64.IsFloat())
	assert.False(t, S32.IsFloat())

	assert.True(t, S32.IsInteger())
	assert.True(t, U128.IsInteger())
	assert.False(t, BOOL.IsInteger())
	assert.False(t, F64.IsInteger())
}
