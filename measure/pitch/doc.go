// Package pitch estimates the fundamental frequency of short audio frames.
//
// Two interchangeable strategies implement [Estimator]:
//
//   - [Autocorrelation] works on time-domain samples. An RMS gate rejects
//     silent frames before any correlation work, then the lag with the
//     strongest self-similarity in [MinLag, MaxLag) gives the period.
//   - [Spectral] picks the loudest bin of a byte-scaled magnitude spectrum,
//     the way browser analyser nodes report it, and rejects peaks below a
//     noise floor.
//
// Both return an [Estimate]. An estimate with Voiced == false means "no
// reliable pitch" and carries a [Reason]. Malformed frames (empty, NaN
// samples, bad sample rate) never panic or return errors; they are reported
// as unvoiced with [ReasonInvalidInput].
//
// # Resolution
//
// The autocorrelation estimate is quantized to whole lags, so its step near
// lag L is sampleRate/(L-1) - sampleRate/L; at 44.1 kHz that is 0.23 Hz at
// 100 Hz and 4.5 Hz at 440 Hz. The spectral estimate is quantized to bins of
// sampleRate/fftSize, 21.5 Hz for a 2048-point transform at 44.1 kHz.
//
// Estimators keep scratch buffers and are not safe for concurrent use.
package pitch
