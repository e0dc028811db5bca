package audio

import "math"

// volumeToPower maps a linear 0..1 level to the exponent effects.Volume expects with
// base 2. Levels at or below 0.01 are treated as silence.
func volumeToPower(vol float64) float64 {
	if vol <= 0.01 {
		return -10
	}
	return math.Log2(vol)
}

func clampLevel(level int) int {
	return max(0, min(100, level))
}
