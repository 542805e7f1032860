package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallNumber_OpensRound(t *testing.T) {
	s := startedGame(t, nil, "Bob")

	next, ev, err := CallNumber(s, HostID, 3, 10000)
	require.NoError(t, err)
	require.NotNil(t, next.Active)

	r := next.Active
	assert.Equal(t, 1, r.Number)
	assert.Equal(t, HostID, r.TurnParticipantID)
	assert.Equal(t, 3, r.CalledNumber)
	assert.Equal(t, "C", r.ActiveLetter)
	assert.Equal(t, int64(10000), r.StartedAt)
	assert.Equal(t, int64(13000), r.CountdownEndsAt, "3 second countdown")
	assert.Equal(t, int64(13000+60_000), r.EndsAt, "default 60 second rounds")
	assert.Equal(t, EventTurnCalled, ev.Type)
}

func TestCallNumber_LetterBounds(t *testing.T) {
	s := startedGame(t, nil, "Bob")

	next := openRound(t, s, 1, 10000)
	assert.Equal(t, "A", next.Active.ActiveLetter)

	next = openRound(t, s, 26, 10000)
	assert.Equal(t, "Z", next.Active.ActiveLetter)

	for _, n := range []int{0, 27, -1} {
		_, _, err := CallNumber(s, HostID, n, 10000)
		requireKind(t, err, KindBadRequest)
	}
}

func TestCallNumber_FirstSubmissionHasNoDeadline(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EndRule = EndRuleFirstSubmission
	s := startedGame(t, &cfg, "Bob")

	next := openRound(t, s, 1, 10000)
	assert.Zero(t, next.Active.EndsAt)
}

func TestCallNumber_Preconditions(t *testing.T) {
	s := startedGame(t, nil, "Bob")

	t.Run("not your turn", func(t *testing.T) {
		_, _, err := CallNumber(s, "Bob", 1, 10000)
		requireKind(t, err, KindForbidden)
	})

	t.Run("unknown participant", func(t *testing.T) {
		_, _, err := CallNumber(s, "ghost", 1, 10000)
		requireKind(t, err, KindNotFound)
	})

	t.Run("round already active", func(t *testing.T) {
		active := openRound(t, s, 1, 10000)
		_, _, err := CallNumber(active, HostID, 2, 11000)
		requireKind(t, err, KindConflict)
	})

	t.Run("previous round unpublished", func(t *testing.T) {
		active := openRound(t, s, 1, 10000)
		ended, _, fired := TimerExpired(active, active.Active.EndsAt)
		require.True(t, fired)
		_, _, err := CallNumber(ended, ended.currentCaller(), 2, 80000)
		requireKind(t, err, KindConflict)
	})

	t.Run("number reuse", func(t *testing.T) {
		active := openRound(t, s, 1, 10000)
		ended, _, fired := TimerExpired(active, active.Active.EndsAt)
		require.True(t, fired)
		published, _, err := PublishRound(
			mustScoreAll(t, ended, 1), testHostToken, 1, 80000)
		require.NoError(t, err)
		_, _, err = CallNumber(published, published.currentCaller(), 1, 81000)
		requireKind(t, err, KindConflict)
	})

	t.Run("lobby", func(t *testing.T) {
		lobby := newLobby(t)
		_, _, err := CallNumber(lobby, HostID, 1, 10000)
		requireKind(t, err, KindConflict)
	})
}

// mustScoreAll reviews every submission of a round with all-correct marks.
func mustScoreAll(t *testing.T, s *State, roundNumber int) *State {
	t.Helper()
	round := s.findRound(roundNumber)
	require.NotNil(t, round)
	marks := Marks{Name: true, Animal: true, Place: true, Thing: true, Food: true}
	for _, sub := range round.Submissions {
		next, _, err := ScoreSubmission(s, testHostToken, roundNumber, sub.ParticipantID, marks, 90000)
		require.NoError(t, err)
		s = next
	}
	return s
}

func TestCallNumber_FairRoundCeiling(t *testing.T) {
	s := startedGame(t, nil, "Bob", "Carol", "Dave")
	require.Equal(t, 24, MaxFairRounds(len(s.TurnOrder)))

	// Synthesise 24 published rounds so only the ceiling can reject the call.
	for i := 0; i < 24; i++ {
		s.Completed = append(s.Completed, &Round{
			Number:           i + 1,
			CalledNumber:     i + 1,
			ActiveLetter:     letterFor(i + 1),
			EndedAt:          int64(10000 + i),
			EndReason:        EndReasonTimer,
			ScorePublishedAt: int64(10001 + i),
		})
	}
	s.CurrentTurnIndex = 0

	_, _, err := CallNumber(s, HostID, 25, 90000)
	requireKind(t, err, KindConflict)
	assert.Contains(t, err.Error(), "fair")
}

func TestDraft_CountdownGate(t *testing.T) {
	s := startedGame(t, nil, "Bob")
	s = openRound(t, s, 1, 10000)

	_, _, err := UpdateDraft(s, "Bob", AnswersPatch{Name: strp("Anna")}, 12999)
	requireKind(t, err, KindConflict)

	_, _, err = UpdateDraft(s, "Bob", AnswersPatch{Name: strp("Anna")}, 13000)
	require.NoError(t, err)
}

func TestDraft_MergeAndNormalise(t *testing.T) {
	s := startedGame(t, nil, "Bob")
	s = openRound(t, s, 1, 10000)

	s, _, err := UpdateDraft(s, "Bob", AnswersPatch{Name: strp("  Anna  Lee "), Animal: strp("Ant")}, 14000)
	require.NoError(t, err)
	s, _, err = UpdateDraft(s, "Bob", AnswersPatch{Animal: strp("Alpaca")}, 15000)
	require.NoError(t, err)

	draft := s.Active.Drafts["Bob"]
	assert.Equal(t, "Anna Lee", draft.Name, "whitespace collapses")
	assert.Equal(t, "Alpaca", draft.Animal, "later patch wins")
	assert.Empty(t, draft.Place)
}

func TestSubmit_OverlaysDraft(t *testing.T) {
	s := startedGame(t, nil, "Bob")
	s = openRound(t, s, 1, 10000)

	s, _, err := UpdateDraft(s, "Bob", AnswersPatch{Name: strp("Anna"), Animal: strp("Ant")}, 14000)
	require.NoError(t, err)
	s, ev, err := SubmitAnswers(s, "Bob", AnswersPatch{Animal: strp("Alpaca")}, 15000)
	require.NoError(t, err)

	assert.Equal(t, EventSubmissionReceived, ev.Type)
	assert.Equal(t, "Bob", ev.ParticipantID)

	sub := s.Active.submission("Bob")
	require.NotNil(t, sub)
	assert.Equal(t, "Anna", sub.Answers.Name)
	assert.Equal(t, "Alpaca", sub.Answers.Animal)
	assert.False(t, sub.Forced)
	assert.NotContains(t, s.Active.Drafts, "Bob", "draft is consumed")

	_, _, err = SubmitAnswers(s, "Bob", AnswersPatch{}, 16000)
	requireKind(t, err, KindConflict)
}

func TestSubmit_WhicheverFirstClosesRound(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EndRule = EndRuleWhicheverFirst
	s := startedGame(t, &cfg, "Bob", "Carol")
	s = openRound(t, s, 5, 10000)

	// Carol has a draft but never submits; the host never types anything.
	s, _, err := UpdateDraft(s, "Carol", AnswersPatch{Name: strp("Eve")}, 14000)
	require.NoError(t, err)

	s, ev, err := SubmitAnswers(s, "Bob", AnswersPatch{Name: strp("Edward")}, 15000)
	require.NoError(t, err)

	assert.Equal(t, EventRoundEnded, ev.Type)
	assert.Equal(t, EndReasonFirstSubmission, ev.Reason)
	assert.Equal(t, 1, ev.RoundNumber)
	require.NotNil(t, ev.CompletedRound)

	assert.Nil(t, s.Active)
	require.Len(t, s.Completed, 1)
	round := s.Completed[0]
	assert.Equal(t, EndReasonFirstSubmission, round.EndReason)
	require.Len(t, round.Submissions, 3, "everyone is force-submitted")

	carol := round.submission("Carol")
	require.NotNil(t, carol)
	assert.True(t, carol.Forced)
	assert.Equal(t, "Eve", carol.Answers.Name, "forced submission keeps the draft")

	host := round.submission(HostID)
	require.NotNil(t, host)
	assert.True(t, host.Forced)
	assert.Equal(t, Answers{}, host.Answers)

	assert.Equal(t, 1, s.CurrentTurnIndex, "turn rotates to the next caller")
}

func TestEndRoundEarly_Policies(t *testing.T) {
	tests := []struct {
		name     string
		policy   ManualEndPolicy
		actor    string
		wantKind FailureKind // zero value means allowed
	}{
		{"host under HOST_OR_CALLER", ManualEndHostOrCaller, HostID, ""},
		{"caller under HOST_OR_CALLER", ManualEndHostOrCaller, HostID, ""},
		{"bystander under HOST_OR_CALLER", ManualEndHostOrCaller, "Carol", KindForbidden},
		{"host under CALLER_ONLY when not caller", ManualEndCallerOnly, "Carol", KindForbidden},
		{"nobody under NONE", ManualEndNone, HostID, KindForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.ManualEndPolicy = tt.policy
			s := startedGame(t, &cfg, "Bob", "Carol")
			s = openRound(t, s, 1, 10000) // host calls

			next, ev, err := EndRoundEarly(s, tt.actor, 20000)
			if tt.wantKind != "" {
				requireKind(t, err, tt.wantKind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, EventRoundEnded, ev.Type)
			assert.Equal(t, EndReasonManualEnd, ev.Reason)
			assert.Nil(t, next.Active)
		})
	}
}

func TestEndRoundEarly_CallerUnderCallerOnly(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ManualEndPolicy = ManualEndCallerOnly
	s := startedGame(t, &cfg, "Bob")
	s = openRound(t, s, 1, 10000)

	_, _, err := EndRoundEarly(s, HostID, 20000)
	require.NoError(t, err, "the host is the caller for round one")
}

func TestTimerExpired(t *testing.T) {
	s := startedGame(t, nil, "Bob")
	s = openRound(t, s, 1, 10000)
	deadline := s.Active.EndsAt

	t.Run("before deadline", func(t *testing.T) {
		_, _, fired := TimerExpired(s, deadline-1)
		assert.False(t, fired)
	})

	t.Run("at deadline", func(t *testing.T) {
		next, ev, fired := TimerExpired(s, deadline)
		require.True(t, fired)
		assert.Equal(t, EventRoundEnded, ev.Type)
		assert.Equal(t, EndReasonTimer, ev.Reason)
		assert.Nil(t, next.Active)
		require.Len(t, next.Completed, 1)
		assert.Equal(t, EndReasonTimer, next.Completed[0].EndReason)
		for _, sub := range next.Completed[0].Submissions {
			assert.True(t, sub.Forced)
		}
	})

	t.Run("late fire after round closed", func(t *testing.T) {
		next, _, fired := TimerExpired(s, deadline)
		require.True(t, fired)
		_, _, fired = TimerExpired(next, deadline+1)
		assert.False(t, fired, "a stale tick is dropped silently")
	})

	t.Run("no deadline under FIRST_SUBMISSION", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.EndRule = EndRuleFirstSubmission
		fs := startedGame(t, &cfg, "Bob")
		fs = openRound(t, fs, 1, 10000)
		_, _, fired := TimerExpired(fs, 10_000_000)
		assert.False(t, fired)
	})
}

func TestRoundOpenFor_NonAdmitted(t *testing.T) {
	s := startedGame(t, nil, "Bob")
	s = openRound(t, s, 1, 10000)

	_, _, err := SubmitAnswers(s, "ghost", AnswersPatch{}, 14000)
	requireKind(t, err, KindNotFound)
}
