package room

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexiround/internal/game"
)

const hostToken = "host-token"

// fakeClock is a settable clock shared between the test and the actor.
type fakeClock struct {
	mu  sync.Mutex
	now int64
}

func (c *fakeClock) NowMillis() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) set(ms int64) {
	c.mu.Lock()
	c.now = ms
	c.mu.Unlock()
}

// seqIDs hands out p1, p2, ...
type seqIDs struct{ n atomic.Int64 }

func (s *seqIDs) NewID() string {
	return fmt.Sprintf("p%d", s.n.Add(1))
}

func newTestActor(t *testing.T) (*Actor, *fakeClock) {
	t.Helper()
	state, err := game.NewState("ROOM01", "Alice", 4, hostToken, 1000)
	require.NoError(t, err)
	clock := &fakeClock{now: 1000}
	a := NewActor(state, Options{Clock: clock, IDs: &seqIDs{}})
	t.Cleanup(a.Stop)
	return a, clock
}

func TestActor_JoinAdmitStart(t *testing.T) {
	a, _ := newTestActor(t)

	res, err := a.SubmitJoin("Bob")
	require.NoError(t, err)
	assert.Equal(t, "p1", res.Participant.ID)
	assert.Equal(t, game.StatusPending, res.Participant.Status)
	assert.Equal(t, 2, len(res.Snapshot.Participants))

	snap, err := a.ReviewJoin(hostToken, "p1", true)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Counts.Admitted)

	snap, err = a.StartGame(hostToken, nil)
	require.NoError(t, err)
	assert.Equal(t, game.GameInProgress, snap.Game.Status)
	assert.Equal(t, []string{game.HostID, "p1"}, snap.Game.TurnOrder)
}

func TestActor_RoundFlow(t *testing.T) {
	a, clock := newTestActor(t)
	_, err := a.SubmitJoin("Bob")
	require.NoError(t, err)
	_, err = a.ReviewJoin(hostToken, "p1", true)
	require.NoError(t, err)
	_, err = a.StartGame(hostToken, nil)
	require.NoError(t, err)

	clock.set(10_000)
	snap, err := a.CallNumber(game.HostID, 1)
	require.NoError(t, err)
	require.NotNil(t, snap.Game.ActiveRound)
	assert.Equal(t, "A", snap.Game.ActiveRound.ActiveLetter)

	// Countdown still running.
	err = a.UpdateDraft("p1", game.AnswersPatch{})
	assert.Equal(t, game.KindConflict, game.KindOf(err))

	clock.set(13_000)
	name := "Anna"
	require.NoError(t, a.UpdateDraft("p1", game.AnswersPatch{Name: &name}))

	snap, err = a.SubmitAnswers("p1", game.AnswersPatch{})
	require.NoError(t, err)
	require.Len(t, snap.Game.ActiveRound.Submissions, 1)
	assert.Equal(t, "p1", snap.Game.ActiveRound.Submissions[0].ParticipantID)

	// The host ends the round, which reveals the submitted sheet.
	snap, err = a.EndRoundEarly(game.HostID)
	require.NoError(t, err)
	assert.Nil(t, snap.Game.ActiveRound)
	require.Len(t, snap.Game.CompletedRounds, 1)

	marks := game.Marks{Name: true}
	_, err = a.ScoreSubmission(hostToken, 1, "p1", marks)
	require.NoError(t, err)
	_, err = a.ScoreSubmission(hostToken, 1, game.HostID, game.Marks{})
	require.NoError(t, err)

	snap, err = a.PublishRound(hostToken, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Game.Scoring.PublishedRounds)
	lead := snap.Game.Scoring.Leaderboard
	require.NotEmpty(t, lead)
	assert.Equal(t, "Bob", lead[0].ParticipantName)
	assert.Equal(t, 10.0, lead[0].TotalScore)

	snap, err = a.EndGame(hostToken)
	require.NoError(t, err)
	assert.Equal(t, game.GameFinished, snap.Game.Status)
}

func TestActor_SnapshotAndErrors(t *testing.T) {
	a, _ := newTestActor(t)

	snap, err := a.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "ROOM01", snap.Meta.RoomCode)

	_, err = a.StartGame("wrong", nil)
	assert.Equal(t, game.KindUnauthorized, game.KindOf(err))
}

func TestActor_StopClosesEverything(t *testing.T) {
	a, _ := newTestActor(t)
	sub, err := a.Subscribe()
	require.NoError(t, err)

	a.Stop()

	for range sub.Events() {
		// drain whatever was buffered; the channel must close
	}

	_, err = a.Snapshot()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = a.SubmitJoin("Bob")
	assert.ErrorIs(t, err, ErrClosed)

	a.Stop() // idempotent
}

func TestActor_TerminalIdle(t *testing.T) {
	a, _ := newTestActor(t)
	assert.False(t, a.TerminalIdle(), "lobby is not terminal")

	sub, err := a.Subscribe()
	require.NoError(t, err)

	_, err = a.CancelGame(hostToken)
	require.NoError(t, err)
	assert.False(t, a.TerminalIdle(), "a subscriber keeps the room alive")

	sub.Close()
	assert.True(t, a.TerminalIdle())

	a.Stop()
	assert.True(t, a.TerminalIdle(), "a stopped actor counts as idle")
}
