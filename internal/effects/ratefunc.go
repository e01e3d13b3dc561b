package effects

import "math"

// RateFunc maps linear progress in [0,1] to eased progress.
type RateFunc func(t float64) float64

// Linear leaves progress untouched.
func Linear(t float64) float64 { return t }

// Smooth is a normalised sigmoid, the default for most effects.
func Smooth(t float64) float64 {
	const inflection = 10.0
	e := sigmoid(-inflection / 2)
	return clamp((sigmoid(inflection*(t-0.5))-e)/(1-2*e), 0, 1)
}

// ThereAndBack goes to 1 at the midpoint and returns to 0.
func ThereAndBack(t float64) float64 {
	if t < 0.5 {
		return Smooth(2 * t)
	}
	return Smooth(2 * (1 - t))
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
