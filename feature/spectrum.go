package feature

import "gonum.org/v1/gonum/dsp/fourier"

// spectrumAnalyzer computes windowed power spectra of frames no longer than
// its FFT size. Buffers are reused, so it is not safe for concurrent use.
type spectrumAnalyzer struct {
	fft    *fourier.FFT
	window []float64
	buf    []float64
	coeff  []complex128
}

func newSpectrumAnalyzer(fftSize int, window []float64) *spectrumAnalyzer {
	return &spectrumAnalyzer{
		fft:    fourier.NewFFT(fftSize),
		window: window,
		buf:    make([]float64, fftSize),
		coeff:  make([]complex128, fftSize/2+1),
	}
}

// powerInto writes |X[k]|²/N for k = 0..N/2 into dst. The frame is
// multiplied by the analyzer's window, if any, and zero padded to N.
func (a *spectrumAnalyzer) powerInto(frame, dst []float64) {
	clear(a.buf)
	copy(a.buf, frame)
	if a.window != nil {
		for i := range min(len(frame), len(a.window)) {
			a.buf[i] *= a.window[i]
		}
	}
	a.coeff = a.fft.Coefficients(a.coeff, a.buf)
	n := float64(len(a.buf))
	for k, c := range a.coeff {
		dst[k] = (real(c)*real(c) + imag(c)*imag(c)) / n
	}
}

// PowerSpectrum returns the fftSize/2+1 positive-frequency bins of
// |FFT(frame)|²/fftSize. Frames longer than fftSize are truncated.
func PowerSpectrum(frame []float64, fftSize int) []float64 {
	out := make([]float64, fftSize/2+1)
	newSpectrumAnalyzer(fftSize, nil).powerInto(frame[:min(len(frame), fftSize)], out)
	return out
}
