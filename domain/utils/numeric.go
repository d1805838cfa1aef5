package utils

// Clamp bounds v to [min, max].
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// renormEpsilon is the mass below which a probability vector is treated as
// empty rather than renormalized.
const renormEpsilon = 1e-9

// RenormalizeTo rescales the values so they sum to target while keeping
// their relative proportions. Returns ok=false when the input mass is too
// small to rescale, in which case the caller owns the fallback.
func RenormalizeTo(target float64, values []float64) (ok bool) {
	var sum float64
	for _, v := range values {
		sum += v
	}
	if sum <= renormEpsilon {
		return false
	}
	for i := range values {
		values[i] = target * (values[i] / sum)
	}
	return true
}
