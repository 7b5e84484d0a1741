package editor

import "context"

// TranscriptSource yields finalized speech-to-text segments. Each value on
// the channel becomes one new block in the document.
type TranscriptSource interface {
	// Start begins recognition and returns the transcript stream. The
	// channel closes when recognition stops or ctx is cancelled.
	Start(ctx context.Context) (<-chan string, error)

	// Stop ends recognition and releases the underlying recognizer.
	Stop() error
}
