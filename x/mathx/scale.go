package mathx

// RoundDiv divides with half-up rounding. Division by zero yields 0.
func RoundDiv[T ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64](a, b T) T {
	if b == 0 {
		return 0
	}
	return (a + b/2) / b
}

// MapU16 rescales x from [inMin,inMax] onto [outMin,outMax], saturating
// outside the input range. The product is taken in 32 bits.
func MapU16(x, inMin, inMax, outMin, outMax uint16) uint16 {
	switch {
	case inMax <= inMin, x <= inMin:
		return outMin
	case x >= inMax:
		return outMax
	}
	span := uint32(outMax) - uint32(outMin)
	return outMin + uint16(uint32(x-inMin)*span/uint32(inMax-inMin))
}
