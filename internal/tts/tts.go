// Package tts defines the interface for the speech-synthesis collaborator.
//
// One synthesis call covers exactly one dialogue turn. The adapter returns
// encoded MP3 bytes; persistence and ordering are the assembler's concern.
package tts

import "context"

// Options selects the voice and locale for one utterance.
type Options struct {
	// Voice is the synthesis voice name (e.g., "en-US-Wavenet-F").
	Voice string

	// LanguageCode is the BCP-47 locale (e.g., "en-US") applied to the turn.
	LanguageCode string
}

// Synthesizer converts one utterance to encoded audio.
type Synthesizer interface {
	// Synthesize returns MP3 bytes for the utterance. The utterance must be
	// non-empty; collaborator errors propagate without retry.
	Synthesize(ctx context.Context, text string, opts Options) ([]byte, error)
}
