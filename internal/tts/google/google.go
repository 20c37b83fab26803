// Package google implements the Synthesizer interface over the Google Cloud
// Text-to-Speech REST API.
//
// Each call posts one utterance to the text:synthesize endpoint and decodes
// the base64 audioContent payload. The service returns MP3 bytes directly;
// no local transcoding happens here.
package google

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vocacast/vocacast/internal/tts"
)

const defaultEndpoint = "https://texttospeech.googleapis.com/v1/text:synthesize"

// Synthesizer calls the Google Cloud TTS REST API.
type Synthesizer struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// Config holds the settings needed to construct a Synthesizer.
type Config struct {
	APIKey   string
	Endpoint string // override for tests and proxies; empty means production
}

// New validates config and builds the adapter.
func New(cfg Config) (*Synthesizer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("google tts api key missing; provide tts.api_key")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Synthesizer{
		apiKey:   cfg.APIKey,
		endpoint: endpoint,
		client:   &http.Client{},
	}, nil
}

type synthesizeRequest struct {
	Input struct {
		Text string `json:"text"`
	} `json:"input"`
	Voice struct {
		LanguageCode string `json:"languageCode"`
		Name         string `json:"name"`
	} `json:"voice"`
	AudioConfig struct {
		AudioEncoding string `json:"audioEncoding"`
	} `json:"audioConfig"`
}

type synthesizeResponse struct {
	AudioContent string `json:"audioContent"`
}

// Synthesize performs one synchronous synthesis call and returns MP3 bytes.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, opts tts.Options) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("empty text for synthesis")
	}

	var reqBody synthesizeRequest
	reqBody.Input.Text = text
	reqBody.Voice.LanguageCode = opts.LanguageCode
	reqBody.Voice.Name = opts.Voice
	reqBody.AudioConfig.AudioEncoding = "MP3"

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshalling synthesis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"?key="+s.apiKey, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating synthesis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("synthesis failed (status %d): %s", resp.StatusCode, respBody)
	}

	var result synthesizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding synthesis response: %w", err)
	}
	if result.AudioContent == "" {
		return nil, fmt.Errorf("synthesis returned empty audio payload")
	}

	audio, err := base64.StdEncoding.DecodeString(result.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("decoding audio payload: %w", err)
	}

	slog.Debug("synthesis complete", "voice", opts.Voice, "language", opts.LanguageCode, "audio_bytes", len(audio))
	return audio, nil
}
