package feature

import (
	"math"
	"testing"
)

func generateSine(n int, freq float64) []float64 {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * freq * float64(i) / 16000)
	}
	return samples
}

func BenchmarkPowerSpectrum_512(b *testing.B) {
	frame := make([]float64, 400)
	for i := range frame {
		frame[i] = math.Sin(2 * math.Pi * 440 * float64(i) / 16000)
	}
	b.ResetTimer()
	for b.Loop() {
		PowerSpectrum(frame, 512)
	}
}

func BenchmarkMelFilterbank_13(b *testing.B) {
	fb := NewMelFilterbank(13, 512, 16000, 0, 8000)
	ps := make([]float64, 257)
	for i := range ps {
		ps[i] = 0.01
	}
	b.ResetTimer()
	for b.Loop() {
		fb.Apply(ps)
	}
}

// A preference trial runs for about 20 seconds.
func benchmarkTrial(b *testing.B, cfg Config) {
	samples := generateSine(20*16000, 440)
	b.ResetTimer()
	for b.Loop() {
		if _, err := Extract(samples, cfg); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkExtractTrial_MFCC(b *testing.B) {
	benchmarkTrial(b, DefaultConfig())
}

func BenchmarkExtractTrial_MFCC_CMVN(b *testing.B) {
	cfg := DefaultConfig()
	cfg.UseCMVN = true
	benchmarkTrial(b, cfg)
}

func BenchmarkExtractTrial_LogMel(b *testing.B) {
	benchmarkTrial(b, LogMelConfig())
}

func BenchmarkAppendDeltas(b *testing.B) {
	base := make([][]float64, 2000)
	for i := range base {
		base[i] = generateSine(13, float64(100+i))
	}
	b.ResetTimer()
	for b.Loop() {
		AppendDeltas(base, 2)
	}
}
