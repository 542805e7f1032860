package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// endedRound plays one round to completion with the given submissions and
// returns the resulting state. Keys are participant names registered as both
// name and id by startedGame.
func endedRound(t *testing.T, cfg *Config, sheets map[string]Answers) *State {
	t.Helper()
	names := make([]string, 0, len(sheets))
	for name := range sheets {
		if name != HostID {
			names = append(names, name)
		}
	}
	s := startedGame(t, cfg, names...)
	s = openRound(t, s, 1, 10000)
	round := s.Active
	for id, sheet := range sheets {
		round.Drafts[id] = sheet
	}
	next, _, fired := TimerExpired(s, round.EndsAt)
	require.True(t, fired)
	return next
}

func allCorrect() Marks {
	return Marks{Name: true, Animal: true, Place: true, Thing: true, Food: true}
}

func TestScoreSubmission_Fixed10(t *testing.T) {
	s := endedRound(t, nil, map[string]Answers{
		"Bob": {Name: "Anna", Animal: "Ant", Place: "Austria", Thing: "Axe", Food: "Apple"},
	})

	marks := Marks{Name: true, Animal: true, Place: false, Thing: true, Food: false}
	s, ev, err := ScoreSubmission(s, testHostToken, 1, "Bob", marks, 90000)
	require.NoError(t, err)
	assert.Equal(t, EventSubmissionScored, ev.Type)

	review := s.findRound(1).submission("Bob").Review
	require.NotNil(t, review)
	assert.Equal(t, 10.0, review.Scores.Name)
	assert.Equal(t, 10.0, review.Scores.Animal)
	assert.Equal(t, 0.0, review.Scores.Place)
	assert.Equal(t, 30.0, review.Scores.Total)
	assert.Equal(t, HostID, review.MarkedByID)
	assert.Equal(t, "Alice", review.MarkedByName)
}

func TestScoreSubmission_RequiresHostAndSubmission(t *testing.T) {
	s := endedRound(t, nil, map[string]Answers{"Bob": {Name: "Anna"}})

	_, _, err := ScoreSubmission(s, "wrong", 1, "Bob", allCorrect(), 90000)
	requireKind(t, err, KindUnauthorized)

	_, _, err = ScoreSubmission(s, testHostToken, 9, "Bob", allCorrect(), 90000)
	requireKind(t, err, KindNotFound)

	_, _, err = ScoreSubmission(s, testHostToken, 1, "ghost", allCorrect(), 90000)
	requireKind(t, err, KindNotFound)
}

func TestShared10_SplitsDuplicates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScoringMode = ScoringShared10
	s := endedRound(t, &cfg, map[string]Answers{
		HostID:  {Animal: "Lion"},
		"Bob":   {Animal: "lion "}, // same after normalisation
		"Carol": {Animal: "Lemur"},
	})

	for _, id := range []string{HostID, "Bob", "Carol"} {
		next, _, err := ScoreSubmission(s, testHostToken, 1, id, Marks{Animal: true}, 90000)
		require.NoError(t, err)
		s = next
	}

	round := s.findRound(1)
	assert.Equal(t, 5.0, round.submission(HostID).Review.Scores.Animal)
	assert.Equal(t, 5.0, round.submission("Bob").Review.Scores.Animal)
	assert.Equal(t, 10.0, round.submission("Carol").Review.Scores.Animal)
}

func TestShared10_EmptyAnswerNeverScores(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScoringMode = ScoringShared10
	s := endedRound(t, &cfg, map[string]Answers{
		"Bob": {}, // submitted nothing
	})

	// Marked correct by mistake: still zero, there is nothing to credit.
	s, _, err := ScoreSubmission(s, testHostToken, 1, "Bob", allCorrect(), 90000)
	require.NoError(t, err)

	review := s.findRound(1).submission("Bob").Review
	assert.Equal(t, 0.0, review.Scores.Total)
}

func TestShared10_ThreeWaySplitRounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScoringMode = ScoringShared10
	s := endedRound(t, &cfg, map[string]Answers{
		HostID:  {Food: "Fig"},
		"Bob":   {Food: "FIG"},
		"Carol": {Food: "fig"},
	})

	for _, id := range []string{HostID, "Bob", "Carol"} {
		next, _, err := ScoreSubmission(s, testHostToken, 1, id, Marks{Food: true}, 90000)
		require.NoError(t, err)
		s = next
	}

	round := s.findRound(1)
	for _, id := range []string{HostID, "Bob", "Carol"} {
		assert.Equal(t, 3.33, round.submission(id).Review.Scores.Food)
	}
}

func TestShared10_RecomputesOnReReview(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScoringMode = ScoringShared10
	s := endedRound(t, &cfg, map[string]Answers{
		HostID: {Animal: "Lion"},
		"Bob":  {Animal: "Lion"},
	})

	s, _, err := ScoreSubmission(s, testHostToken, 1, HostID, Marks{Animal: true}, 90000)
	require.NoError(t, err)
	assert.Equal(t, 10.0, s.findRound(1).submission(HostID).Review.Scores.Animal,
		"alone in the group until Bob is reviewed")

	s, _, err = ScoreSubmission(s, testHostToken, 1, "Bob", Marks{Animal: true}, 91000)
	require.NoError(t, err)
	round := s.findRound(1)
	assert.Equal(t, 5.0, round.submission(HostID).Review.Scores.Animal,
		"earlier review is recomputed when the group grows")
	assert.Equal(t, 5.0, round.submission("Bob").Review.Scores.Animal)

	// Re-marking Bob incorrect shrinks the group again.
	s, _, err = ScoreSubmission(s, testHostToken, 1, "Bob", Marks{}, 92000)
	require.NoError(t, err)
	round = s.findRound(1)
	assert.Equal(t, 10.0, round.submission(HostID).Review.Scores.Animal)
	assert.Equal(t, 0.0, round.submission("Bob").Review.Scores.Animal)
}

func TestShared10_MixedSheet(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScoringMode = ScoringShared10
	s := endedRound(t, &cfg, map[string]Answers{
		HostID: {Name: "Ada", Animal: "Ant", Place: "Accra", Thing: "Anvil", Food: "Apple"},
		"Bob":  {Name: "Ada", Animal: "Ant", Place: "Austin", Thing: "Axe", Food: "Arepa"},
	})

	for _, id := range []string{HostID, "Bob"} {
		next, _, err := ScoreSubmission(s, testHostToken, 1, id, allCorrect(), 90000)
		require.NoError(t, err)
		s = next
	}

	// Shared name and animal split 5/5; the unique fields keep their 10.
	round := s.findRound(1)
	for _, id := range []string{HostID, "Bob"} {
		scores := round.submission(id).Review.Scores
		assert.Equal(t, 5.0, scores.Name)
		assert.Equal(t, 5.0, scores.Animal)
		assert.Equal(t, 10.0, scores.Place)
		assert.Equal(t, 10.0, scores.Thing)
		assert.Equal(t, 10.0, scores.Food)
		assert.Equal(t, 40.0, scores.Total)
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 3.33, round2(10.0/3))
	assert.Equal(t, 2.5, round2(10.0/4))
	assert.Equal(t, 1.43, round2(10.0/7))
	assert.Equal(t, 0.0, round2(0))
}
