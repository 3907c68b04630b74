// Package transcribe produces word-level transcripts through a
// Deepgram-compatible speech-to-text API.
package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/clipforge/clipper-api/internal/models"
)

// Config holds the transcription API settings
type Config struct {
	APIURL   string
	APIKey   string
	Model    string
	Language string
	Timeout  time.Duration
}

// Service uploads local media files for transcription
type Service struct {
	cfg    Config
	client *http.Client
}

// New creates a transcription service
func New(cfg Config) *Service {
	if cfg.Timeout == 0 {
		cfg.Timeout = 90 * time.Second
	}
	return &Service{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// transcriptionResponse mirrors the Deepgram pre-recorded response shape,
// reduced to the fields the pipeline consumes
type transcriptionResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
				Words      []struct {
					Word       string  `json:"word"`
					Start      float64 `json:"start"`
					End        float64 `json:"end"`
					Confidence float64 `json:"confidence"`
				} `json:"words"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
	ErrorCode string `json:"err_code,omitempty"`
	ErrorMsg  string `json:"err_msg,omitempty"`
}

// Transcribe streams the media file to the API and returns the transcript
func (s *Service) Transcribe(ctx context.Context, mediaPath string) (*models.Transcript, error) {
	file, err := os.Open(mediaPath)
	if err != nil {
		return nil, fmt.Errorf("opening media file: %w", err)
	}
	defer file.Close()

	endpoint, err := s.buildURL()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, file)
	if err != nil {
		return nil, fmt.Errorf("creating transcription request: %w", err)
	}
	req.Header.Set("Content-Type", "video/mp4")
	req.Header.Set("Authorization", "Token "+s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling transcription API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("reading transcription response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transcription API returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var parsed transcriptionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding transcription response: %w", err)
	}
	if parsed.ErrorCode != "" {
		return nil, fmt.Errorf("transcription API error %s: %s", parsed.ErrorCode, parsed.ErrorMsg)
	}

	return s.toTranscript(&parsed)
}

func (s *Service) buildURL() (string, error) {
	u, err := url.Parse(s.cfg.APIURL)
	if err != nil {
		return "", fmt.Errorf("invalid transcription API URL: %w", err)
	}
	q := u.Query()
	q.Set("model", s.cfg.Model)
	q.Set("language", s.cfg.Language)
	q.Set("punctuate", "true")
	q.Set("smart_format", "true")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *Service) toTranscript(resp *transcriptionResponse) (*models.Transcript, error) {
	if len(resp.Results.Channels) == 0 || len(resp.Results.Channels[0].Alternatives) == 0 {
		return nil, fmt.Errorf("transcription response has no alternatives")
	}

	alt := resp.Results.Channels[0].Alternatives[0]
	words := make([]models.TranscriptWord, len(alt.Words))
	for i, w := range alt.Words {
		words[i] = models.TranscriptWord{
			Text:       w.Word,
			Start:      w.Start,
			End:        w.End,
			Confidence: w.Confidence,
		}
	}

	log.Printf("[DEBUG] Transcription produced %d words (confidence %.2f)", len(words), alt.Confidence)

	return &models.Transcript{
		Text:     alt.Transcript,
		Language: s.cfg.Language,
		Words:    words,
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
