package conv

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-pitch/dsp/core"
)

// AutoCorrelateDirect returns the raw autocorrelation sums of x for lags
// 0..maxLag. Lags at or beyond len(x) are zero.
func AutoCorrelateDirect(x []float64, maxLag int) ([]float64, error) {
	if len(x) == 0 {
		return nil, ErrEmptyInput
	}
	if maxLag < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLag, maxLag)
	}

	out := make([]float64, maxLag+1)
	autoCorrelateDirectTo(out, x)
	return out, nil
}

func autoCorrelateDirectTo(dst, x []float64) {
	n := len(x)
	for k := range dst {
		if k >= n {
			dst[k] = 0
			continue
		}
		var sum float64
		for i := 0; i < n-k; i++ {
			sum += x[i] * x[i+k]
		}
		dst[k] = sum
	}
}

// AutoCorrelateFFT computes the same sums as [AutoCorrelateDirect] through a
// zero-padded FFT. Results agree with the direct form to within floating
// point rounding.
func AutoCorrelateFFT(x []float64, maxLag int) ([]float64, error) {
	ac, err := NewAutocorrelator(len(x), maxLag)
	if err != nil {
		return nil, err
	}
	return ac.Compute(nil, x), nil
}

// Autocorrelator is a reusable FFT-based autocorrelation engine for frames of
// a fixed maximum length. It is not safe for concurrent use.
type Autocorrelator struct {
	frameLen int
	maxLag   int
	fftSize  int

	plan *algofft.Plan[complex128]

	padded   []complex128
	spectrum []complex128
}

// NewAutocorrelator prepares an FFT plan large enough that lags up to maxLag
// of a frameLen-sample frame do not wrap around.
func NewAutocorrelator(frameLen, maxLag int) (*Autocorrelator, error) {
	if frameLen <= 0 {
		return nil, ErrEmptyInput
	}
	if maxLag < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLag, maxLag)
	}

	fftSize := nextPowerOf2(frameLen + maxLag)

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("conv: failed to create FFT plan: %w", err)
	}

	return &Autocorrelator{
		frameLen: frameLen,
		maxLag:   maxLag,
		fftSize:  fftSize,
		plan:     plan,
		padded:   make([]complex128, fftSize),
		spectrum: make([]complex128, fftSize),
	}, nil
}

// FrameLen returns the largest frame length the engine accepts.
func (a *Autocorrelator) FrameLen() int { return a.frameLen }

// MaxLag returns the largest lag computed.
func (a *Autocorrelator) MaxLag() int { return a.maxLag }

// Compute writes the sums for lags 0..MaxLag into dst (reallocating when dst
// is too short) and returns it. Frames longer than FrameLen are truncated.
// If the FFT backend fails the direct form is used instead.
func (a *Autocorrelator) Compute(dst, x []float64) []float64 {
	dst = core.EnsureLen(dst, a.maxLag+1)
	if len(x) > a.frameLen {
		x = x[:a.frameLen]
	}

	clear(a.padded)
	for i, v := range x {
		a.padded[i] = complex(v, 0)
	}

	if err := a.plan.Forward(a.spectrum, a.padded); err != nil {
		autoCorrelateDirectTo(dst, x)
		return dst
	}

	// Power spectrum: X * conj(X).
	for i, c := range a.spectrum {
		re, im := real(c), imag(c)
		a.spectrum[i] = complex(re*re+im*im, 0)
	}

	if err := a.plan.Inverse(a.padded, a.spectrum); err != nil {
		autoCorrelateDirectTo(dst, x)
		return dst
	}

	for k := range dst {
		if k >= len(x) {
			dst[k] = 0
			continue
		}
		dst[k] = real(a.padded[k])
	}

	return dst
}
