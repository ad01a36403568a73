package pcm

import "errors"

// Common errors for payload decoding and sample conversion.
var (
	// Decode errors
	ErrDecode = errors.New("invalid base64 audio payload")

	// Format errors
	ErrFormat = errors.New("PCM data not aligned to frame boundary")

	// Format configuration errors
	ErrInvalidSampleRate = errors.New("invalid sample rate")
	ErrInvalidChannels   = errors.New("invalid number of channels")
	ErrInvalidBitDepth   = errors.New("unsupported bit depth")
)
