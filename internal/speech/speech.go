// Package speech defines the speech-to-text and text-to-speech collaborator
// boundary. The engine only depends on these interfaces; the bundled mocks
// stand in until a real provider (Whisper, a cloud TTS) is plugged in.
package speech

import "context"

// Transcriber converts an opaque audio chunk into text
type Transcriber interface {
	Transcribe(ctx context.Context, chunk []byte) (string, error)
}

// Synthesizer turns text into a playable audio reference
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (string, error)
}
