// Package audio loads trial recordings as mono float64 samples at the
// feature extraction rate.
package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/wav"
)

// WAVHeader holds the format of a decoded WAV file.
// NumSamples counts frames, i.e. samples per channel.
type WAVHeader struct {
	SampleRate    uint32
	BitsPerSample uint16
	NumChannels   uint16
	NumSamples    int
}

// ReadWAV decodes 16, 24 or 32-bit PCM and returns samples scaled to
// [-1, 1). Multi-channel audio is mixed down to mono by averaging.
func ReadWAV(r io.ReadSeeker) ([]float64, WAVHeader, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, WAVHeader{}, errors.New("not a valid WAV file")
	}
	h := WAVHeader{SampleRate: d.SampleRate, BitsPerSample: d.BitDepth, NumChannels: d.NumChans}
	if d.WavAudioFormat != 1 {
		return nil, h, fmt.Errorf("unsupported audio format %d (only PCM=1 supported)", d.WavAudioFormat)
	}
	switch h.BitsPerSample {
	case 16, 24, 32:
	default:
		return nil, h, fmt.Errorf("unsupported bits per sample %d", h.BitsPerSample)
	}
	if h.NumChannels == 0 || h.SampleRate == 0 {
		return nil, h, fmt.Errorf("invalid format: %d channels at %d Hz", h.NumChannels, h.SampleRate)
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, h, fmt.Errorf("read PCM data: %w", err)
	}

	channels := int(h.NumChannels)
	h.NumSamples = len(buf.Data) / channels
	samples := make([]float64, h.NumSamples)
	scale := 1 / (float64(int64(1)<<(h.BitsPerSample-1)) * float64(channels))
	for i := range samples {
		var sum int
		for _, v := range buf.Data[i*channels : (i+1)*channels] {
			sum += v
		}
		samples[i] = float64(sum) * scale
	}
	return samples, h, nil
}

// ReadWAVFile decodes the WAV file at path.
func ReadWAVFile(path string) ([]float64, WAVHeader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, WAVHeader{}, err
	}
	defer f.Close()
	return ReadWAV(f)
}

// Load reads a WAV file and resamples it to sampleRate.
func Load(path string, sampleRate int) ([]float64, error) {
	samples, h, err := ReadWAVFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return Resample(samples, int(h.SampleRate), sampleRate), nil
}
