// Package domain defines the core types flowing through the vocacast pipeline.
package domain

import "strings"

// Speaker identifies one of the two podcast roles.
type Speaker string

const (
	SpeakerInterviewer Speaker = "Interviewer"
	SpeakerGuest       Speaker = "Guest"
)

// ParseSpeaker classifies a raw speaker label from model output.
// Anything that does not start with "interviewer" (case-insensitive)
// is treated as the guest.
func ParseSpeaker(raw string) Speaker {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(raw)), "interviewer") {
		return SpeakerInterviewer
	}
	return SpeakerGuest
}

// DialogueTurn is one utterance by one speaker.
type DialogueTurn struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// Dialogue is the ordered sequence of turns; order is playback order.
type Dialogue []DialogueTurn

// VoiceAssignment maps the two speaker roles to synthesis voice names,
// with one language code applied uniformly to every turn.
type VoiceAssignment struct {
	InterviewerVoice string `json:"interviewer_voice"`
	GuestVoice       string `json:"guest_voice"`
	LanguageCode     string `json:"language_code"`
}

// VoiceFor selects the voice name for one turn's speaker.
func (v VoiceAssignment) VoiceFor(speaker Speaker) string {
	if speaker == SpeakerInterviewer {
		return v.InterviewerVoice
	}
	return v.GuestVoice
}

// JobStatus tracks each pipeline stage for one podcast request.
type JobStatus string

const (
	JobStatusReceived     JobStatus = "received"
	JobStatusGenerating   JobStatus = "generating"
	JobStatusInterviewing JobStatus = "interviewing"
	JobStatusHumanizing   JobStatus = "humanizing"
	JobStatusSynthesizing JobStatus = "synthesizing"
	JobStatusReady        JobStatus = "ready"
	JobStatusDelivered    JobStatus = "delivered"
	JobStatusFailed       JobStatus = "failed"
)

// Active reports whether the status represents a request still in flight.
func (s JobStatus) Active() bool {
	switch s {
	case JobStatusReceived, JobStatusGenerating, JobStatusInterviewing,
		JobStatusHumanizing, JobStatusSynthesizing:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transitions are allowed.
func (s JobStatus) Terminal() bool {
	return s == JobStatusDelivered || s == JobStatusFailed
}

// Job stores identity and lifecycle state for one podcast request.
type Job struct {
	ID         string    `json:"id"`
	Status     JobStatus `json:"status"`
	FailStage  string    `json:"failStage,omitempty"`
	FailReason string    `json:"failReason,omitempty"`
}
