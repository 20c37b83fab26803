// Package assemble turns an ordered dialogue into a single podcast MP3.
//
// Step one synthesizes every turn in order through the tts collaborator and
// persists index-tagged clips; step two generates a randomized silence gap
// per turn; step three concatenates clips and gaps with one ffmpeg run.
// Clip order always matches turn order — that is the one hard invariant.
package assemble

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vocacast/vocacast/internal/domain"
	"github.com/vocacast/vocacast/internal/tts"
)

// ArtifactName is the merged podcast file inside the workspace.
const ArtifactName = "podcast_full.mp3"

// SynthesisError reports a failed or empty synthesis call for one turn.
// Any turn failing aborts the whole assembly; no partial podcast survives.
type SynthesisError struct {
	Turn int
	Err  error
}

// Error identifies the failing turn.
func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesize turn %d: %v", e.Turn, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *SynthesisError) Unwrap() error { return e.Err }

// ExportError reports a failure while persisting or concatenating audio.
type ExportError struct {
	Err error
}

// Error formats the export failure.
func (e *ExportError) Error() string { return fmt.Sprintf("export podcast: %v", e.Err) }

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *ExportError) Unwrap() error { return e.Err }

// TurnAudio records one synthesized clip and the pause drawn after it.
type TurnAudio struct {
	Index    int            `json:"index"`
	Speaker  domain.Speaker `json:"speaker"`
	Text     string         `json:"text"`
	ClipPath string         `json:"-"`
	PauseMs  int            `json:"pauseMs"`
	Duration time.Duration  `json:"duration"`
}

// Manifest describes the merged artifact and its per-turn composition.
type Manifest struct {
	ArtifactPath string        `json:"-"`
	Turns        []TurnAudio   `json:"turns"`
	Estimated    time.Duration `json:"estimated"`
}

// Config holds assembly tuning knobs.
type Config struct {
	FFmpegPath string
	MaxPauseMs int
}

// Assembler synthesizes per-turn clips and merges them with ffmpeg.
type Assembler struct {
	synth      tts.Synthesizer
	runner     commandRunner
	ffmpegPath string
	maxPauseMs int
	pause      func(maxMs int) int
	probe      func(path string) (time.Duration, error)
}

// New constructs the production assembler.
func New(synth tts.Synthesizer, cfg Config) *Assembler {
	ffmpegPath := cfg.FFmpegPath
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	maxPause := cfg.MaxPauseMs
	if maxPause < 0 {
		maxPause = 0
	}

	return &Assembler{
		synth:      synth,
		runner:     &execRunner{},
		ffmpegPath: ffmpegPath,
		maxPauseMs: maxPause,
		pause:      drawPause,
		probe:      clipDuration,
	}
}

// NewForTests constructs an assembler with injectable dependencies.
func NewForTests(
	synth tts.Synthesizer,
	cfg Config,
	runner commandRunner,
	pause func(maxMs int) int,
	probe func(path string) (time.Duration, error),
) *Assembler {
	a := New(synth, cfg)
	if runner != nil {
		a.runner = runner
	}
	if pause != nil {
		a.pause = pause
	}
	if probe != nil {
		a.probe = probe
	}
	return a
}

// drawPause picks a gap uniformly from [0, maxMs] milliseconds. Unseeded on
// purpose: the variance is a production behavior, not reproducible output.
func drawPause(maxMs int) int {
	if maxMs <= 0 {
		return 0
	}
	return rand.IntN(maxMs + 1)
}

// Assemble runs the full clip-and-merge algorithm inside dir and returns the
// artifact manifest. A silence gap follows every turn, including the last.
func (a *Assembler) Assemble(ctx context.Context, dir string, dialogue domain.Dialogue, voices domain.VoiceAssignment) (*Manifest, error) {
	if len(dialogue) == 0 {
		return nil, &ExportError{Err: fmt.Errorf("dialogue has no turns")}
	}

	turns := make([]TurnAudio, 0, len(dialogue))
	for i, turn := range dialogue {
		if strings.TrimSpace(turn.Text) == "" {
			return nil, &SynthesisError{Turn: i, Err: fmt.Errorf("turn text is empty")}
		}

		voice := voices.VoiceFor(turn.Speaker)
		audio, err := a.synth.Synthesize(ctx, turn.Text, tts.Options{
			Voice:        voice,
			LanguageCode: voices.LanguageCode,
		})
		if err != nil {
			return nil, &SynthesisError{Turn: i, Err: err}
		}
		if len(audio) == 0 {
			return nil, &SynthesisError{Turn: i, Err: fmt.Errorf("synthesizer returned no audio")}
		}

		clipPath := filepath.Join(dir, fmt.Sprintf("turn_%02d_%s.mp3", i, turn.Speaker))
		if err := os.WriteFile(clipPath, audio, 0o644); err != nil {
			return nil, &ExportError{Err: fmt.Errorf("write clip %d: %w", i, err)}
		}

		duration, probeErr := a.probe(clipPath)
		if probeErr != nil {
			// Informational only; a fake or unusual encoder must not fail the run.
			slog.Warn("could not probe clip duration", "turn", i, "error", probeErr)
			duration = 0
		}

		turns = append(turns, TurnAudio{
			Index:    i,
			Speaker:  turn.Speaker,
			Text:     turn.Text,
			ClipPath: clipPath,
			Duration: duration,
		})
	}

	entries := make([]string, 0, len(turns)*2)
	var estimated time.Duration
	for i := range turns {
		entries = append(entries, filepath.Base(turns[i].ClipPath))
		estimated += turns[i].Duration

		pauseMs := a.pause(a.maxPauseMs)
		turns[i].PauseMs = pauseMs
		estimated += time.Duration(pauseMs) * time.Millisecond
		if pauseMs == 0 {
			continue
		}

		gapPath := filepath.Join(dir, fmt.Sprintf("gap_%02d.mp3", i))
		gapArgs := buildSilenceArgs(pauseMs, gapPath)
		if result, err := a.runner.Run(ctx, a.ffmpegPath, gapArgs...); err != nil {
			return nil, &ExportError{Err: fmt.Errorf("generate %dms gap %d: %s: %w", pauseMs, i, strings.TrimSpace(result.Stderr), err)}
		}
		entries = append(entries, filepath.Base(gapPath))
	}

	listPath := filepath.Join(dir, "concat.txt")
	if err := os.WriteFile(listPath, []byte(concatList(entries)), 0o644); err != nil {
		return nil, &ExportError{Err: fmt.Errorf("write concat list: %w", err)}
	}

	artifactPath := filepath.Join(dir, ArtifactName)
	concatArgs := buildConcatArgs(listPath, artifactPath)
	if result, err := a.runner.Run(ctx, a.ffmpegPath, concatArgs...); err != nil {
		return nil, &ExportError{Err: fmt.Errorf("concatenate podcast: %s: %w", strings.TrimSpace(result.Stderr), err)}
	}
	if _, err := os.Stat(artifactPath); err != nil {
		return nil, &ExportError{Err: fmt.Errorf("ffmpeg completed but artifact is missing: %w", err)}
	}

	slog.Info("podcast assembled", "turns", len(turns), "estimated", estimated, "artifact", artifactPath)
	return &Manifest{
		ArtifactPath: artifactPath,
		Turns:        turns,
		Estimated:    estimated,
	}, nil
}

// buildSilenceArgs builds ffmpeg args producing a mono MP3 silence gap.
func buildSilenceArgs(pauseMs int, outPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-f", "lavfi",
		"-i", "anullsrc=channel_layout=mono:sample_rate=24000",
		"-t", fmt.Sprintf("%.3f", float64(pauseMs)/1000.0),
		"-acodec", "libmp3lame",
		"-q:a", "9",
		outPath,
	}
}

// buildConcatArgs builds ffmpeg args merging the listed clips into one MP3.
// Clips are re-encoded: the synthesized audio and generated silence do not
// share an encoder, so stream copy would produce glitched output.
func buildConcatArgs(listPath, outPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-acodec", "libmp3lame",
		"-q:a", "4",
		outPath,
	}
}

// concatList renders concat-demuxer entries, one file per line, resolved
// relative to the list file's directory.
func concatList(entries []string) string {
	var sb strings.Builder
	for _, entry := range entries {
		sb.WriteString("file '")
		sb.WriteString(entry)
		sb.WriteString("'\n")
	}
	return sb.String()
}
