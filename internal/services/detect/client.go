// Package detect finds clip-worthy segments in a transcript using an
// OpenAI-compatible chat completion API.
package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/clipforge/clipper-api/internal/models"
)

// Config holds the detection API settings
type Config struct {
	APIURL      string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration

	MinSegmentSeconds float64
	MaxSegmentSeconds float64
}

// Service calls the detection model and turns its answer into validated,
// non-overlapping segments
type Service struct {
	cfg    Config
	client *http.Client
}

// New creates a detection service
func New(cfg Config) *Service {
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if cfg.MinSegmentSeconds == 0 {
		cfg.MinSegmentSeconds = 30
	}
	if cfg.MaxSegmentSeconds == 0 {
		cfg.MaxSegmentSeconds = 90
	}
	return &Service{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// DetectSegments asks the model for candidate segments, then validates and
// selects the best non-overlapping ones up to maxClips
func (s *Service) DetectSegments(ctx context.Context, transcript *models.Transcript, sourceDuration float64, maxClips int) ([]models.Segment, error) {
	content, err := s.complete(ctx, systemPrompt, userPrompt(transcript, sourceDuration, maxClips, s.cfg.MinSegmentSeconds, s.cfg.MaxSegmentSeconds))
	if err != nil {
		return nil, err
	}

	candidates, err := parseSegments(content)
	if err != nil {
		return nil, fmt.Errorf("parsing detection response: %w", err)
	}
	log.Printf("[DEBUG] Detection model returned %d candidate segments", len(candidates))

	return SelectSegments(candidates, sourceDuration, maxClips, s.cfg.MinSegmentSeconds, s.cfg.MaxSegmentSeconds), nil
}

// complete performs one chat completion round trip
func (s *Service) complete(ctx context.Context, system, user string) (string, error) {
	payload := chatRequest{
		Model:       s.cfg.Model,
		Temperature: s.cfg.Temperature,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling detection request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating detection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling detection API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("reading detection response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("detection API returned status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decoding detection response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("detection API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("detection API returned no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}

const systemPrompt = `You are an expert short-form video editor. You find the most engaging, self-contained moments in long-form video transcripts. Always respond with valid JSON only.`

func userPrompt(transcript *models.Transcript, sourceDuration float64, maxClips int, minLen, maxLen float64) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Find up to %d clip-worthy segments in this transcript of a %.0f second video.\n\n", maxClips, sourceDuration)
	fmt.Fprintf(&sb, "Rules:\n")
	fmt.Fprintf(&sb, "- Each segment must be %.0f to %.0f seconds long\n", minLen, maxLen)
	fmt.Fprintf(&sb, "- Segments must start and end at natural sentence boundaries\n")
	fmt.Fprintf(&sb, "- Score each segment 0-100 for standalone viral potential\n\n")
	sb.WriteString(`Respond with JSON: {"segments": [{"start": <seconds>, "end": <seconds>, "title": "...", "score": <0-100>, "reason": "...", "hook": "..."}]}` + "\n\n")
	sb.WriteString("Transcript with word timings:\n")
	sb.WriteString(timedTranscript(transcript))
	return sb.String()
}

// timedTranscript renders the transcript with a timestamp marker at the
// start of each ~10 second block so the model can anchor boundaries
func timedTranscript(transcript *models.Transcript) string {
	var sb strings.Builder
	nextMark := 0.0
	for _, w := range transcript.Words {
		if w.Start >= nextMark {
			fmt.Fprintf(&sb, "\n[%.1fs] ", w.Start)
			nextMark = w.Start + 10
		}
		sb.WriteString(w.Text)
		sb.WriteByte(' ')
	}
	return sb.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
