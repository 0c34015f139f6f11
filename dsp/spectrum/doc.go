// Package spectrum provides the frequency-domain side of pitch analysis.
//
// [Magnitude] and friends operate on complex bins produced by any FFT
// backend. [Analyser] wraps a complete analysis chain modelled on the Web
// Audio AnalyserNode: Blackman window, FFT, per-bin exponential smoothing
// across frames, and conversion to decibels or to the 0..255 byte scale.
// Browser code that read getByteFrequencyData can therefore be ported with
// the same thresholds.
//
// Build with -tags fastmath to use approximate logarithms for the dB
// conversion.
package spectrum
