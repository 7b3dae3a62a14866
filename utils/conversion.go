package utils

import (
	"fmt"
)

// MustIntToUint converts int to uint, panics on negative values.
// Only use in contexts where negatives are impossible (parsed path params
// already validated as positive).
func MustIntToUint(val int) uint {
	if val < 0 {
		panic(fmt.Sprintf("unexpected negative value %d in MustIntToUint", val))
	}
	return uint(val)
}
