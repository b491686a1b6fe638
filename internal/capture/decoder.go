// SPDX-License-Identifier: MIT
package capture

import (
	"fmt"
	"math"
	"os"

	"codeclab/internal/errs"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Decoder turns a finalized recording into a playable buffer.
type Decoder interface {
	Decode(path string) (*audio.Float32Buffer, error)
}

// WAVDecoder decodes WAV files into normalized mono float samples.
type WAVDecoder struct{}

var _ Decoder = WAVDecoder{}

// Decode reads path fully. An invalid or empty file fails with
// errs.ErrDecodeFailed.
func (WAVDecoder) Decode(path string) (*audio.Float32Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %v", path, errs.ErrDecodeFailed, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%s is not a valid wav file: %w", path, errs.ErrDecodeFailed)
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %v", path, errs.ErrDecodeFailed, err)
	}
	if pcm.NumFrames() == 0 {
		return nil, fmt.Errorf("%s holds no audio: %w", path, errs.ErrDecodeFailed)
	}

	return toMonoFloat(pcm), nil
}

// toMonoFloat normalizes PCM into [-1, 1], averaging channels.
func toMonoFloat(pcm *audio.IntBuffer) *audio.Float32Buffer {
	channels := max(pcm.Format.NumChannels, 1)
	depth := pcm.SourceBitDepth
	if depth == 0 {
		depth = 16
	}
	scale := 1 / (math.Exp2(float64(depth-1)) - 1)

	frames := len(pcm.Data) / channels
	out := &audio.Float32Buffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  pcm.Format.SampleRate,
		},
		Data:           make([]float32, frames),
		SourceBitDepth: depth,
	}
	for i := range frames {
		var sum int
		for c := range channels {
			sum += pcm.Data[i*channels+c]
		}
		out.Data[i] = float32(float64(sum) / float64(channels) * scale)
	}
	return out
}
