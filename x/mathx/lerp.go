package mathx

import "golang.org/x/exp/constraints"

// Lerp returns a + (b-a)*t. t is not clamped; callers clamp progress first.
func Lerp[T constraints.Float](a, b, t T) T {
	return a + (b-a)*t
}

// Unit clamps t to [0, 1].
func Unit[T constraints.Float](t T) T {
	return Clamp(t, 0, 1)
}
