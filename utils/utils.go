package utils

import (
	"golang.org/x/exp/constraints"
)

// Version of trickled from source control.
var Version string = "unknown"

// IdPtr is the pointer version of id: 'a->'a
func IdPtr[T any](value T) *T {
	return &value
}

// If is the ternary operator (eager evaluation)
func If[T any](cond bool, t, f T) T {
	if cond {
		return t
	}
	return f
}

// Min returns the smaller of two ordered values.
func Min[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}

// ClampSub subtracts b from a, clamping at zero for unsigned types.
func ClampSub[T constraints.Unsigned](a, b T) T {
	if a <= b {
		return 0
	}
	return a - b
}
