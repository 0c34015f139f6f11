//go:build !fastmath

package spectrum

import "github.com/cwbudde/algo-pitch/dsp/core"

// linearToDB converts a linear magnitude to dB. Zero maps to -Inf.
func linearToDB(x float64) float64 {
	return core.LinearToDB(x)
}
