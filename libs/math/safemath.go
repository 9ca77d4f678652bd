package math

import (
	"errors"
	"math/bits"
)

var ErrOverflowUint64 = errors.New("uint64 overflow")
var ErrUnderflowUint64 = errors.New("uint64 underflow")
var ErrDivideByZero = errors.New("division by zero")

// SafeAddUint64 adds two uint64 integers.
// If there is an overflow it returns ErrOverflowUint64.
func SafeAddUint64(a, b uint64) (uint64, error) {
	c, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrOverflowUint64
	}
	return c, nil
}

// SafeSubUint64 subtracts b from a.
// If b is greater than a it returns ErrUnderflowUint64.
func SafeSubUint64(a, b uint64) (uint64, error) {
	c, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, ErrUnderflowUint64
	}
	return c, nil
}

// SafeMulUint64 multiplies two uint64 integers.
// If the product does not fit in 64 bits it returns ErrOverflowUint64.
func SafeMulUint64(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, ErrOverflowUint64
	}
	return lo, nil
}

// MulDivCeil returns ceil(a * b / d). The product a * b must fit in 64 bits,
// otherwise ErrOverflowUint64 is returned. The rounding step never overflows:
// the result is at most a * b.
func MulDivCeil(a, b, d uint64) (uint64, error) {
	if d == 0 {
		return 0, ErrDivideByZero
	}
	p, err := SafeMulUint64(a, b)
	if err != nil {
		return 0, err
	}
	q := p / d
	if p%d != 0 {
		q++
	}
	return q, nil
}

// MulDivFloor returns floor(a * b / d), using a 128-bit intermediate product.
// ErrOverflowUint64 is returned only if the quotient does not fit in 64 bits.
func MulDivFloor(a, b, d uint64) (uint64, error) {
	if d == 0 {
		return 0, ErrDivideByZero
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= d {
		return 0, ErrOverflowUint64
	}
	q, _ := bits.Div64(hi, lo, d)
	return q, nil
}
