package pcm

import (
	"encoding/base64"
	"fmt"
)

// Decode reverses the standard base64 encoding of an audio payload.
// The input must use the standard alphabet with correct padding; invalid
// characters, bad padding, or an empty payload fail with ErrDecode.
func Decode(payload string) ([]byte, error) {
	if payload == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrDecode)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return data, nil
}

// DecodePayload runs the full pipeline on an encoded payload: base64
// decode, sample conversion, and buffer assembly. The raw bytes are
// transient; only the normalized buffer survives.
func DecodePayload(payload string, f Format) (*Buffer, error) {
	data, err := Decode(payload)
	if err != nil {
		return nil, err
	}
	channels, err := Convert(data, f)
	if err != nil {
		return nil, err
	}
	return NewBuffer(channels, f.SampleRate), nil
}
