package script

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/vocacast/vocacast/internal/domain"
)

// ParseError reports a failure to recover the dialogue JSON array from raw
// model output. Raw always carries the full offending text for diagnosis.
type ParseError struct {
	Raw string
	Err error
}

// Error formats the parse failure without dumping the raw payload.
func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dialogue parse: %v", e.Err)
	}
	return "dialogue parse failed"
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *ParseError) Unwrap() error { return e.Err }

// rawTurn mirrors the JSON shape the model is instructed to return.
type rawTurn struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// fenceRe strips leading/trailing triple-backtick fences, optionally tagged
// with a (case-insensitive) json label.
var fenceRe = regexp.MustCompile(`(?i)^` + "```+" + `(?:json)?\s*|\s*` + "```+" + `$`)

// Humanize rewrites the Q&A text as an ordered two-speaker dialogue.
//
// The model is told to return strictly a JSON array, but its output is
// untrusted: fences and stray commentary are tolerated, everything else is a
// *ParseError. No low-level JSON error escapes this package.
func (w *Writer) Humanize(ctx context.Context, qa string) (domain.Dialogue, error) {
	if strings.TrimSpace(qa) == "" {
		return nil, fmt.Errorf("q&a text is empty")
	}

	user := "Here is the original Q&A:\n\n" +
		qa + "\n\n" +
		"Rewrite this as a live conversation between Interviewer and Guest. " +
		"Return strictly a JSON array of objects with fields:\n" +
		"  - speaker: \"Interviewer\" or \"Guest\"\n" +
		"  - text: the utterance\n" +
		"Do not add any extra text—only the JSON array."
	raw, err := w.complete(ctx, w.cfg.Dialogue, user)
	if err != nil {
		return nil, err
	}

	return ParseDialogue(raw)
}

// ParseDialogue recovers the dialogue array from raw model output. Exported
// so the recovery heuristic stays unit-testable against adversarial strings
// without a live client.
func ParseDialogue(raw string) (domain.Dialogue, error) {
	sliced, err := extractJSONArray(raw)
	if err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}

	var turns []rawTurn
	if err := json.Unmarshal([]byte(sliced), &turns); err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}

	dialogue := make(domain.Dialogue, 0, len(turns))
	for i, turn := range turns {
		if strings.TrimSpace(turn.Speaker) == "" {
			return nil, &ParseError{Raw: raw, Err: fmt.Errorf("turn %d has no speaker", i)}
		}
		if strings.TrimSpace(turn.Text) == "" {
			slog.Debug("dropping empty dialogue turn", "index", i, "speaker", turn.Speaker)
			continue
		}
		dialogue = append(dialogue, domain.DialogueTurn{
			Speaker: domain.ParseSpeaker(turn.Speaker),
			Text:    turn.Text,
		})
	}
	if len(dialogue) == 0 {
		return nil, &ParseError{Raw: raw, Err: fmt.Errorf("no usable turns in model output")}
	}
	return dialogue, nil
}

// extractJSONArray strips fence markup and slices from the first '[' to the
// last ']' inclusive, tolerating commentary the model adds around the array.
func extractJSONArray(raw string) (string, error) {
	cleaned := strings.TrimSpace(fenceRe.ReplaceAllString(strings.TrimSpace(raw), ""))

	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("JSON array not found in model output")
	}
	return cleaned[start : end+1], nil
}
