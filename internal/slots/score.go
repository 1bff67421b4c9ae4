package slots

import (
	"fmt"
	"sort"
	"strings"
)

// RankedRecommendation is a transient scored view of a candidate slot.
type RankedRecommendation struct {
	Slot      Slot
	Score     int
	Rationale string
}

// Ranking is the outcome of ranking a candidate list. An empty candidate
// list produces a ranking with no recommendations and an explanatory
// message rather than an error.
type Ranking struct {
	Top     []RankedRecommendation
	Message string
}

const noSlotsMessage = "No open slots in the search window."

// Score assigns the heuristic desirability of a slot under a free-text
// preference summary. The checks run in a fixed order so totals are
// reproducible:
//
//	+10 summary names the slot's weekday
//	+5  "morning" and hour in [9,12], else "afternoon" and hour in [13,17]
//	+3  hour in [10,15], regardless of the above
func Score(s Slot, summary string) int {
	lower := strings.ToLower(summary)
	hour := s.Start.UTC().Hour()

	score := 0
	if strings.Contains(lower, strings.ToLower(s.Start.UTC().Weekday().String())) {
		score += 10
	}
	if strings.Contains(lower, "morning") && hour >= 9 && hour <= 12 {
		score += 5
	} else if strings.Contains(lower, "afternoon") && hour >= 13 && hour <= 17 {
		score += 5
	}
	if hour >= 10 && hour <= 15 {
		score += 3
	}
	return score
}

// Rank scores every candidate and returns the top three by descending
// score. Candidates arrive pre-sorted by start, and the sort is stable, so
// equal scores keep the earlier slot first.
func Rank(candidates []Slot, summary string) Ranking {
	if len(candidates) == 0 {
		return Ranking{Message: noSlotsMessage}
	}

	recs := make([]RankedRecommendation, len(candidates))
	for i, s := range candidates {
		score := Score(s, summary)
		recs[i] = RankedRecommendation{
			Slot:      s,
			Score:     score,
			Rationale: rationale(s, score),
		}
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})

	if len(recs) > 3 {
		recs = recs[:3]
	}
	return Ranking{Top: recs}
}

func rationale(s Slot, score int) string {
	start := s.Start.UTC()
	return fmt.Sprintf("%s %s scores %d against your usual scheduling pattern",
		start.Weekday(), start.Format("Jan 2 15:04"), score)
}
