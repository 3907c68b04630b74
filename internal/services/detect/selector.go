package detect

import (
	"log"
	"sort"

	"github.com/clipforge/clipper-api/internal/models"
)

// SelectSegments picks the best non-overlapping segments from candidates.
// Invalid candidates are dropped, the rest are taken greedily by descending
// score (earlier start wins ties), and any candidate overlapping an already
// chosen segment is skipped. The result is at most maxClips segments in
// acceptance order, so descending score.
func SelectSegments(candidates []models.Segment, sourceDuration float64, maxClips int, minLen, maxLen float64) []models.Segment {
	valid := make([]models.Segment, 0, len(candidates))
	for _, c := range candidates {
		if err := c.Validate(sourceDuration, minLen, maxLen); err != nil {
			log.Printf("[DEBUG] Dropping candidate segment %q: %v", c.Title, err)
			continue
		}
		valid = append(valid, c)
	}

	sort.SliceStable(valid, func(i, j int) bool {
		if valid[i].Score != valid[j].Score {
			return valid[i].Score > valid[j].Score
		}
		return valid[i].Start < valid[j].Start
	})

	var chosen []models.Segment
	for _, c := range valid {
		if maxClips > 0 && len(chosen) >= maxClips {
			break
		}
		overlaps := false
		for _, picked := range chosen {
			if c.Overlaps(picked) {
				overlaps = true
				break
			}
		}
		if !overlaps {
			chosen = append(chosen, c)
		}
	}

	return chosen
}
