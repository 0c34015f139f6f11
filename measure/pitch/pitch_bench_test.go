package pitch

import (
	"testing"

	"github.com/cwbudde/algo-pitch/internal/testutil"
)

func BenchmarkAutocorrelationDirect(b *testing.B) {
	benchmarkEstimator(b, mustAutocorrelation(b))
}

func BenchmarkAutocorrelationFFT(b *testing.B) {
	benchmarkEstimator(b, mustAutocorrelation(b, WithFFT(true)))
}

func BenchmarkAutocorrelationEnergy(b *testing.B) {
	benchmarkEstimator(b, mustAutocorrelation(b, WithScore(ScoreEnergy), WithFFT(true)))
}

func BenchmarkSpectral(b *testing.B) {
	benchmarkEstimator(b, mustSpectral(b))
}

func benchmarkEstimator(b *testing.B, est Estimator) {
	b.Helper()

	frame := Frame{Samples: testutil.HarmonicTone(140, 44100, 0.3, 5, 2048), SampleRate: 44100}
	est.Estimate(frame)

	b.ReportAllocs()
	b.ResetTimer()

	for b.Loop() {
		est.Estimate(frame)
	}
}
