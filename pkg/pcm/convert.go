package pcm

import (
	"encoding/binary"
	"fmt"
)

// Convert reinterprets raw bytes as interleaved signed 16-bit
// little-endian samples and de-interleaves them into per-channel planar
// storage, normalizing each sample to [-1.0, 1.0) by dividing by 32768.
// -32768 maps to exactly -1.0; no clipping or dithering is applied.
//
// The byte length must be an exact multiple of the frame size; a
// truncated trailing frame fails with ErrFormat rather than being
// silently dropped.
func Convert(data []byte, f Format) ([][]float32, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	frameBytes := f.FrameBytes()
	if len(data)%frameBytes != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of the %d-byte frame size",
			ErrFormat, len(data), frameBytes)
	}

	frames := len(data) / frameBytes
	channels := make([][]float32, f.Channels)
	for ch := range channels {
		channels[ch] = make([]float32, frames)
	}

	for i := 0; i < frames; i++ {
		off := i * frameBytes
		for ch := 0; ch < f.Channels; ch++ {
			v := int16(binary.LittleEndian.Uint16(data[off+ch*2:]))
			channels[ch][i] = float32(v) / 32768.0
		}
	}

	return channels, nil
}
