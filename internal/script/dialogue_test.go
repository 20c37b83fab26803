package script

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vocacast/vocacast/internal/domain"
)

// TestParseDialogueCleanArray verifies a well-formed JSON array parses into
// ordered turns with normalized speakers.
func TestParseDialogueCleanArray(t *testing.T) {
	raw := `[
		{"speaker": "Interviewer", "text": "Welcome to the show."},
		{"speaker": "Guest", "text": "Glad to be here."}
	]`

	dialogue, err := ParseDialogue(raw)
	if err != nil {
		t.Fatalf("ParseDialogue: %v", err)
	}
	if len(dialogue) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(dialogue))
	}
	if dialogue[0].Speaker != domain.SpeakerInterviewer {
		t.Errorf("turn 0 speaker = %q", dialogue[0].Speaker)
	}
	if dialogue[1].Speaker != domain.SpeakerGuest {
		t.Errorf("turn 1 speaker = %q", dialogue[1].Speaker)
	}
	if dialogue[0].Text != "Welcome to the show." {
		t.Errorf("turn 0 text = %q", dialogue[0].Text)
	}
}

// TestParseDialogueStripsFences verifies markdown code fences around the
// array are tolerated.
func TestParseDialogueStripsFences(t *testing.T) {
	raw := "```json\n[{\"speaker\": \"Guest\", \"text\": \"hi\"}]\n```"

	dialogue, err := ParseDialogue(raw)
	if err != nil {
		t.Fatalf("ParseDialogue: %v", err)
	}
	if len(dialogue) != 1 || dialogue[0].Text != "hi" {
		t.Fatalf("unexpected dialogue: %+v", dialogue)
	}
}

// TestParseDialogueTrimsCommentary verifies prose before and after the array
// is sliced away.
func TestParseDialogueTrimsCommentary(t *testing.T) {
	raw := "Sure! Here is your dialogue:\n" +
		`[{"speaker": "Interviewer", "text": "So, tell me."}]` +
		"\nLet me know if you need changes."

	dialogue, err := ParseDialogue(raw)
	if err != nil {
		t.Fatalf("ParseDialogue: %v", err)
	}
	if len(dialogue) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(dialogue))
	}
}

// TestParseDialogueSpeakerNormalization verifies anything starting with
// "interviewer" (any case) maps to the interviewer voice and everything else
// maps to the guest.
func TestParseDialogueSpeakerNormalization(t *testing.T) {
	raw := `[
		{"speaker": "INTERVIEWER (host)", "text": "a"},
		{"speaker": "interviewer 2", "text": "b"},
		{"speaker": "Dr. Expert", "text": "c"}
	]`

	dialogue, err := ParseDialogue(raw)
	if err != nil {
		t.Fatalf("ParseDialogue: %v", err)
	}
	want := []domain.Speaker{domain.SpeakerInterviewer, domain.SpeakerInterviewer, domain.SpeakerGuest}
	for i, turn := range dialogue {
		if turn.Speaker != want[i] {
			t.Errorf("turn %d: speaker = %q, want %q", i, turn.Speaker, want[i])
		}
	}
}

// TestParseDialogueDropsEmptyTurns verifies turns with blank text are
// silently dropped while order is preserved.
func TestParseDialogueDropsEmptyTurns(t *testing.T) {
	raw := `[
		{"speaker": "Interviewer", "text": "first"},
		{"speaker": "Guest", "text": "   "},
		{"speaker": "Guest", "text": "second"}
	]`

	dialogue, err := ParseDialogue(raw)
	if err != nil {
		t.Fatalf("ParseDialogue: %v", err)
	}
	if len(dialogue) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(dialogue))
	}
	if dialogue[0].Text != "first" || dialogue[1].Text != "second" {
		t.Fatalf("unexpected turns: %+v", dialogue)
	}
}

// TestParseDialogueNoArray verifies prose with no JSON array yields a
// ParseError carrying the raw output.
func TestParseDialogueNoArray(t *testing.T) {
	raw := "I cannot produce that dialogue."

	_, err := ParseDialogue(raw)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}
	if parseErr.Raw != raw {
		t.Errorf("ParseError.Raw = %q, want %q", parseErr.Raw, raw)
	}
}

// TestParseDialogueMalformedJSON verifies broken JSON inside the brackets is
// a ParseError, not a bare json error.
func TestParseDialogueMalformedJSON(t *testing.T) {
	_, err := ParseDialogue(`[{"speaker": "Guest", "text": }]`)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}
}

// TestParseDialogueMissingSpeaker verifies a turn without a speaker fails the
// whole parse.
func TestParseDialogueMissingSpeaker(t *testing.T) {
	_, err := ParseDialogue(`[{"speaker": "", "text": "hello"}]`)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}
}

// TestParseDialogueAllTurnsEmpty verifies an array with only blank turns is
// rejected rather than producing an empty dialogue.
func TestParseDialogueAllTurnsEmpty(t *testing.T) {
	_, err := ParseDialogue(`[{"speaker": "Guest", "text": ""}]`)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}
}

// TestHumanizePromptAndParse verifies the humanizing round-trip: prompt
// carries the Q&A and fenced model output parses.
func TestHumanizePromptAndParse(t *testing.T) {
	client := &fakeClient{responses: []string{
		"```json\n[{\"speaker\": \"Interviewer\", \"text\": \"So?\"}]\n```",
	}}
	w := newTestWriter(t, client)

	dialogue, err := w.Humanize(context.Background(), "Q: why?\nA: because.")
	if err != nil {
		t.Fatalf("Humanize: %v", err)
	}
	if len(dialogue) != 1 || dialogue[0].Text != "So?" {
		t.Fatalf("unexpected dialogue: %+v", dialogue)
	}

	req := client.requests[0]
	if !strings.Contains(req.User, "Q: why?") {
		t.Errorf("user prompt missing Q&A: %q", req.User)
	}
	if req.MaxTokens != 4096 {
		t.Errorf("unexpected max tokens: %d", req.MaxTokens)
	}
}

// TestHumanizeRejectsEmptyQA verifies a blank Q&A fails before any model
// call.
func TestHumanizeRejectsEmptyQA(t *testing.T) {
	w := newTestWriter(t, &fakeClient{})
	if _, err := w.Humanize(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty q&a")
	}
}
