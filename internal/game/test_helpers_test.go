package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const testHostToken = "secret-token"

func strp(s string) *string { return &s }

// newLobby builds a fresh room with host Alice admitted.
func newLobby(t *testing.T) *State {
	t.Helper()
	s, err := NewState("ROOM01", "Alice", 4, testHostToken, 1000)
	require.NoError(t, err)
	return s
}

// addPlayer files a join request and admits it.
func addPlayer(t *testing.T, s *State, name, id string, now int64) *State {
	t.Helper()
	next, _, err := SubmitJoin(s, name, id, now)
	require.NoError(t, err)
	next, _, err = ReviewJoin(next, testHostToken, id, true, now)
	require.NoError(t, err)
	return next
}

// startedGame builds an in-progress game with the host plus the given players,
// in join order. A nil cfg starts with defaults.
func startedGame(t *testing.T, cfg *Config, players ...string) *State {
	t.Helper()
	s := newLobby(t)
	for i, name := range players {
		s = addPlayer(t, s, name, name, int64(2000+i))
	}
	next, _, err := StartGame(s, testHostToken, cfg, 5000)
	require.NoError(t, err)
	return next
}

// openRound calls a number as the current caller and returns a state where
// the countdown has a known end.
func openRound(t *testing.T, s *State, n int, now int64) *State {
	t.Helper()
	next, _, err := CallNumber(s, s.currentCaller(), n, now)
	require.NoError(t, err)
	return next
}

// requireKind asserts an error is a Failure of the given kind.
func requireKind(t *testing.T, err error, kind FailureKind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, KindOf(err), "unexpected failure kind: %v", err)
}
