//go:build fastmath

package spectrum

import (
	"math"

	"github.com/meko-christian/algo-approx"
)

// dbPerNeper converts a natural logarithm of an amplitude ratio to dB.
const dbPerNeper = 20 / math.Ln10

// linearToDB converts a linear magnitude to dB using a fast logarithm.
// Zero maps to -Inf.
func linearToDB(x float64) float64 {
	if x <= 0 {
		if x == 0 {
			return math.Inf(-1)
		}
		return math.NaN()
	}
	return approx.FastLog(x) * dbPerNeper
}
