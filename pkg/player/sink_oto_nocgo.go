//go:build nocgo
// +build nocgo

package player

import (
	"errors"

	"github.com/mossglen/murmur/pkg/pcm"
)

// Stub for builds without CGO; the production sink needs the system
// audio libraries.

func newOtoSink(f pcm.Format) (Sink, error) {
	return nil, errors.New("audio output not available in nocgo build")
}
