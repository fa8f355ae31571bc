package geom

import "math"

// NormalizeAngle wraps an angle in radians to (-π, π].
func NormalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// AngleDelta returns the shortest signed angular path from a to b.
func AngleDelta(a, b float64) float64 {
	return NormalizeAngle(b - a)
}

// Wrap01 wraps a curve parameter into [0, 1).
func Wrap01(t float64) float64 {
	t = math.Mod(t, 1)
	if t < 0 {
		t++
	}
	return t
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Lerp returns the linear interpolation between a and b by t.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
