// Package player drives single-voice playback of decoded narration
// buffers. A Player owns at most one active session at a time and
// guarantees precise sequencing between load, play, stop, and the
// asynchronous completion notification coming back from the audio sink.
// Output devices sit behind the Sink interface, with a production oto
// implementation and a mock for tests and machines without audio.
package player
