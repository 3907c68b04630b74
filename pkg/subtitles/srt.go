// Package subtitles builds SRT files from word-level transcripts and maps
// subtitle styles to ffmpeg force_style strings for burn-in.
package subtitles

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/clipforge/clipper-api/internal/models"
)

const (
	// Words per on-screen cue
	wordsPerCue = 4
	// Longest a single cue may stay on screen
	maxCueSeconds = 3.5
)

// Build renders an SRT document for one segment of a transcript.
// Word timestamps are rebased so the cue timeline starts at zero, matching
// the cut clip rather than the full source video.
func Build(transcript *models.Transcript, segment models.Segment) string {
	words := transcript.WordsBetween(segment.Start, segment.End)
	if len(words) == 0 {
		return ""
	}

	var sb strings.Builder
	index := 1

	for i := 0; i < len(words); i += wordsPerCue {
		end := i + wordsPerCue
		if end > len(words) {
			end = len(words)
		}
		cue := words[i:end]

		cueStart := cue[0].Start - segment.Start
		cueEnd := cue[len(cue)-1].End - segment.Start
		if cueStart < 0 {
			cueStart = 0
		}
		if cueEnd-cueStart > maxCueSeconds {
			cueEnd = cueStart + maxCueSeconds
		}
		if cueEnd <= cueStart {
			cueEnd = cueStart + 0.5
		}

		texts := make([]string, len(cue))
		for j, w := range cue {
			texts[j] = w.Text
		}

		fmt.Fprintf(&sb, "%d\n%s --> %s\n%s\n\n",
			index, formatTimestamp(cueStart), formatTimestamp(cueEnd), strings.Join(texts, " "))
		index++
	}

	return sb.String()
}

// WriteFile writes SRT content next to the given video path and returns the
// subtitle path
func WriteFile(videoPath, content string) (string, error) {
	path := strings.TrimSuffix(videoPath, ".mp4") + ".srt"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("writing subtitle file: %w", err)
	}
	return path, nil
}

// ForceStyle returns the ASS force_style string for a subtitle style
func ForceStyle(style models.SubtitleStyle) string {
	switch style {
	case models.SubtitleStyleBold:
		return "FontName=Arial,FontSize=20,Bold=1,PrimaryColour=&H00FFFFFF,OutlineColour=&H00000000,Outline=3,MarginV=60"
	case models.SubtitleStyleKaraoke:
		return "FontName=Arial,FontSize=18,Bold=1,PrimaryColour=&H0000FFFF,OutlineColour=&H00000000,Outline=2,MarginV=60"
	case models.SubtitleStyleMinimal:
		return "FontName=Helvetica,FontSize=14,PrimaryColour=&H00FFFFFF,Outline=1,MarginV=40"
	default:
		return "FontName=Arial,FontSize=16,PrimaryColour=&H00FFFFFF,OutlineColour=&H00000000,Outline=2,MarginV=50"
	}
}

// formatTimestamp renders seconds as an SRT timestamp (HH:MM:SS,mmm)
func formatTimestamp(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second))
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	ms := int(d.Milliseconds()) % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}
