package common

import (
	"fmt"
	"math"
)

// SafeIntToUint32 safely converts int to uint32 with bounds checking
func SafeIntToUint32(value int) (uint32, error) {
	if value < 0 {
		return 0, fmt.Errorf("value %d is negative, cannot convert to uint32", value)
	}
	if value > math.MaxUint32 {
		return 0, fmt.Errorf("value %d out of range for uint32 (0-%d)", value, math.MaxUint32)
	}
	return uint32(value), nil
}

// SafeUint32ToUint8 safely converts uint32 to uint8 with bounds checking (for color components)
func SafeUint32ToUint8(value uint32) uint8 {
	// For color components, we typically want to clamp rather than error
	if value > math.MaxUint8 {
		return math.MaxUint8
	}
	return uint8(value)
}
