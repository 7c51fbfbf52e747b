package ir

import (
	"fmt"
	"math"
	"math/big"
)

// Constant is a primitive type paired with a 128-bit integer payload (low
// 64 bits + high 64 bits). F32/F64 values are stored in the low-64 payload
// bit-for-bit; BOOL uses only the low bit.
type Constant struct {
	Type PrimitiveType
	Lo   uint64
	Hi   uint64
}

// IntConst builds a Constant from a signed 64-bit value, sign-extending it
// into the full 128-bit stored payload if t is a signed type.
func IntConst(t PrimitiveType, v int64) Constant {
	return storeValue(big.NewInt(v), t)
}

// UintConst builds a Constant from an unsigned 64-bit value.
func UintConst(t PrimitiveType, v uint64) Constant {
	return storeValue(new(big.Int).SetUint64(v), t)
}

// BoolConst builds a BOOL constant; only the low bit is meaningful.
func BoolConst(b bool) Constant {
	if b {
		return Constant{Type: BOOL, Lo: 1}
	}
	return Constant{Type: BOOL, Lo: 0}
}

// Float32Const stores an F32 bit-for-bit in the low 32 bits of Lo.
func Float32Const(f float32) Constant {
	return Constant{Type: F32, Lo: uint64(math.Float32bits(f))}
}

// Float64Const stores an F64 bit-for-bit in Lo.
func Float64Const(f float64) Constant {
	return Constant{Type: F64, Lo: math.Float64bits(f)}
}

// Bool returns the truth value of a BOOL constant.
func (c Constant) Bool() bool {
	return c.Lo&1 != 0
}

// Float32 reinterprets the low 32 bits of the payload as an IEEE754 float32.
func (c Constant) Float32() float32 {
	return math.Float32frombits(uint32(c.Lo))
}

// Float64 reinterprets the low 64 bits of the payload as an IEEE754 float64.
func (c Constant) Float64() float64 {
	return math.Float64frombits(c.Lo)
}

// IsZero reports whether the payload is entirely zero (used by the
// optimiser's division-by-zero and branch-condition checks).
func (c Constant) IsZero() bool {
	return c.Lo == 0 && c.Hi == 0
}

// big128 composes the raw (unsigned) 128-bit payload as a big.Int.
func big128(lo, hi uint64) *big.Int {
	v := new(big.Int).SetUint64(hi)
	v.Lsh(v, 64)
	v.Or(v, new(big.Int).SetUint64(lo))
	return v
}

// split128 decomposes an unsigned big.Int known to fit in [0, 2^128) into
// its Lo/Hi halves.
func split128(v *big.Int) (lo, hi uint64) {
	mask64 := new(big.Int).SetUint64(^uint64(0))
	lo = new(big.Int).And(v, mask64).Uint64()
	hi = new(big.Int).And(new(big.Int).Rsh(v, 64), mask64).Uint64()
	return
}

// rawPattern returns the raw unsigned bit pattern of the payload truncated
// to the type's bit width, as an unsigned big.Int in [0, 2^width).
func (c Constant) rawPattern() *big.Int {
	width := c.Type.bitWidth()
	v := big128(c.Lo, c.Hi)
	if width >= 128 {
		return v
	}
	mod := new(big.Int).Lsh(big.NewInt(1), width)
	return new(big.Int).Mod(v, mod)
}

// signedValue interprets the payload, truncated to the type's bit width, as
// a two's-complement signed integer.
func (c Constant) signedValue() *big.Int {
	v := c.rawPattern()
	width := c.Type.bitWidth()
	half := new(big.Int).Lsh(big.NewInt(1), width-1)
	if v.Cmp(half) >= 0 {
		mod := new(big.Int).Lsh(big.NewInt(1), width)
		v = new(big.Int).Sub(v, mod)
	}
	return v
}

// logicalValue returns the constant's value as the signed or unsigned
// mathematical integer its type implies.
func (c Constant) logicalValue() *big.Int {
	if c.Type.Signed() {
		return c.signedValue()
	}
	return c.rawPattern()
}

// storeValue wraps a mathematical integer into type t's width (two's
// complement wrap for signed types, modulo wrap for unsigned) and stores
// the result sign-extended (or zero-extended) into a full 128-bit payload.
func storeValue(v *big.Int, t PrimitiveType) Constant {
	width := t.bitWidth()
	var pattern *big.Int
	if width >= 128 {
		mod := new(big.Int).Lsh(big.NewInt(1), 128)
		pattern = new(big.Int).Mod(v, mod)
		if pattern.Sign() < 0 {
			pattern.Add(pattern, mod)
		}
	} else {
		mod := new(big.Int).Lsh(big.NewInt(1), width)
		truncated := new(big.Int).Mod(v, mod)
		if truncated.Sign() < 0 {
			truncated.Add(truncated, mod)
		}
		if t.Signed() {
			half := new(big.Int).Lsh(big.NewInt(1), width-1)
			signed := truncated
			if truncated.Cmp(half) >= 0 {
				signed = new(big.Int).Sub(truncated, mod)
			}
			mod128 := new(big.Int).Lsh(big.NewInt(1), 128)
			pattern = new(big.Int).Mod(signed, mod128)
			if pattern.Sign() < 0 {
				pattern.Add(pattern, mod128)
			}
		} else {
			pattern = truncated
		}
	}
	lo, hi := split128(pattern)
	return Constant{Type: t, Lo: lo, Hi: hi}
}

// Cast implements the constant casting rule used by the MOV unary
// operator: truncate the payload to dst's byte width, sign-extend back to
// the stored 128-bit form for signed destinations, and perform an explicit
// IEEE754 reinterpretation when converting between F32 and F64.
func (c Constant) Cast(dst PrimitiveType) Constant {
	if c.Type.IsFloat() && dst.IsFloat() {
		if c.Type == dst {
			return Constant{Type: dst, Lo: c.Lo, Hi: c.Hi}
		}
		if c.Type == F64 && dst == F32 {
			return Float32Const(float32(c.Float64()))
		}
		// F32 -> F64
		return Float64Const(float64(c.Float32()))
	}
	return storeValue(c.rawReinterpretValue(), dst)
}

// rawReinterpretValue returns the value used as the source of a Cast: the
// float payload bits when c is floating-point (so casting a float to an
// integer type truncates the IEEE754 bit pattern, not the numeric value),
// otherwise the constant's logical (signed/unsigned) value.
func (c Constant) rawReinterpretValue() *big.Int {
	if c.Type.IsFloat() {
		return c.rawPattern()
	}
	return c.logicalValue()
}

// hexString renders the 128-bit payload as `<hexwidth hex digits>` where
// hexwidth is 2x the type's byte width (32 digits for 128-bit types).
func (c Constant) hexString() string {
	digits := c.Type.Size() * 2
	v := c.rawPattern()
	return fmt.Sprintf("%0*x", digits, v)
}
