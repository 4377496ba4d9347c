package speech

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"
)

var mockUtterances = []string{
	"I would use a hash map to solve this problem.",
	"The time complexity would be O(n log n).",
	"Let me write a function to handle this case.",
	"I think we need to consider edge cases here.",
	"This approach uses dynamic programming.",
}

// MockTranscriber returns canned candidate utterances
type MockTranscriber struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewMockTranscriber creates a mock speech-to-text collaborator
func NewMockTranscriber() *MockTranscriber {
	return &MockTranscriber{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Transcribe ignores the audio content and picks a canned line
func (m *MockTranscriber) Transcribe(ctx context.Context, chunk []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	slog.Debug("transcribing audio chunk", "size", len(chunk))

	m.mu.Lock()
	text := mockUtterances[m.rng.Intn(len(mockUtterances))]
	m.mu.Unlock()

	return text, nil
}

// MockSynthesizer returns placeholder audio references
type MockSynthesizer struct{}

// NewMockSynthesizer creates a mock text-to-speech collaborator
func NewMockSynthesizer() *MockSynthesizer {
	return &MockSynthesizer{}
}

// Synthesize returns a mock audio URL for the given text
func (m *MockSynthesizer) Synthesize(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	slog.Debug("generating speech", "chars", len(text))
	return fmt.Sprintf("mock://audio/%d.mp3", time.Now().UnixMilli()), nil
}
