package game

import "math"

const fieldPoints = 10.0

// round2 rounds to two decimal places, the precision SHARED_10 splits use.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// recomputeRoundScores rebuilds the scores of every reviewed submission in a
// round. It runs after any review changes so the whole round always reflects
// the current set of marks.
//
// FIXED_10 awards 10 points per correct field. SHARED_10 splits the 10 points
// of a field evenly among the reviewed-correct submissions whose normalised
// answers match; an empty answer never scores even when marked correct,
// because there is nothing to credit.
func recomputeRoundScores(r *Round, mode ScoringMode) {
	// Group sizes per field for SHARED_10: normalised answer -> count of
	// reviewed submissions marked correct with that answer.
	var groups map[Field]map[string]int
	if mode == ScoringShared10 {
		groups = make(map[Field]map[string]int, len(Fields))
		for _, f := range Fields {
			groups[f] = make(map[string]int)
		}
		for i := range r.Submissions {
			sub := &r.Submissions[i]
			if sub.Review == nil {
				continue
			}
			for _, f := range Fields {
				if !sub.Review.Marks.Get(f) {
					continue
				}
				key := answerKey(sub.Answers.Get(f))
				if key != "" {
					groups[f][key]++
				}
			}
		}
	}

	for i := range r.Submissions {
		sub := &r.Submissions[i]
		if sub.Review == nil {
			continue
		}
		var scores Scores
		total := 0.0
		for _, f := range Fields {
			score := 0.0
			if sub.Review.Marks.Get(f) {
				switch mode {
				case ScoringShared10:
					key := answerKey(sub.Answers.Get(f))
					if key != "" {
						score = round2(fieldPoints / float64(groups[f][key]))
					}
				default:
					score = fieldPoints
				}
			}
			scores.Set(f, score)
			total += score
		}
		scores.Total = round2(total)
		sub.Review.Scores = scores
	}
}
