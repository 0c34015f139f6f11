// Package conv provides the lag-domain correlation used by autocorrelation
// pitch estimation.
//
// Two strategies compute the same raw lag sums
//
//	r[k] = sum_{i=0}^{N-1-k} x[i] * x[i+k],  k = 0..maxLag
//
//   - Direct: O(N*L) time-domain loop, cheapest for short frames or few lags
//   - FFT: zero-padded power spectrum and inverse FFT, O(M log M) with
//     M = nextPow2(N + maxLag)
//
// For repeated frames of the same length, create an [Autocorrelator] once so
// the FFT plan and scratch buffers are reused:
//
//	ac, err := conv.NewAutocorrelator(2048, 1000)
//	r := ac.Compute(nil, frame)
//
// # Performance
//
// For a 2048-sample frame scanned to lag 1000 the direct loop performs about
// two million multiply-adds per frame, while the FFT path runs two 4096-point
// transforms.
package conv

import "errors"

// Errors returned by correlation functions.
var (
	ErrEmptyInput = errors.New("conv: empty input")
	ErrInvalidLag = errors.New("conv: invalid max lag")
)

// nextPowerOf2 returns the next power of 2 >= n.
func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p *= 2
	}
	return p
}
