// Package pcm decodes textually-encoded PCM narration payloads into
// normalized, channel-planar audio buffers. It covers the full pipeline:
// base64 text to raw bytes, raw bytes to signed 16-bit samples, and
// samples to a playable float buffer.
package pcm
