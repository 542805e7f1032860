package room

import (
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"lexiround/internal/game"
)

// ErrClosed is returned for commands against a stopped actor.
var ErrClosed = &game.Failure{Kind: game.KindGone, Message: "room is closed"}

// Clock abstracts wall-clock time so transitions stay deterministic in tests.
type Clock interface {
	NowMillis() int64
}

// SystemClock reads the real time.
type SystemClock struct{}

func (SystemClock) NowMillis() int64 { return time.Now().UnixMilli() }

// IDSource produces participant ids.
type IDSource interface {
	NewID() string
}

// UUIDSource issues 128-bit random ids.
type UUIDSource struct{}

func (UUIDSource) NewID() string { return uuid.NewString() }

// Actor is the single logical owner of one room's state. All commands and
// scheduler ticks are serialised through one FIFO queue; subscribers only
// ever see events produced by a completed transition.
type Actor struct {
	code   string
	clock  Clock
	ids    IDSource
	logger *slog.Logger

	cmds chan *command
	stop chan struct{}

	// Loop-owned fields. Nothing outside run() touches them.
	state     *game.State
	subs      map[uint64]*Subscription
	nextSubID uint64
	subBuffer int
	timer     *time.Timer
	armedAt   int64
}

type command struct {
	run  func(a *Actor)
	done chan struct{}
}

// Options tune an actor; zero values fall back to production defaults.
type Options struct {
	Clock            Clock
	IDs              IDSource
	Logger           *slog.Logger
	CommandQueueSize int
	SubscriberBuffer int
}

// NewActor starts the room's command loop over an initial state.
func NewActor(state *game.State, opts Options) *Actor {
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.IDs == nil {
		opts.IDs = UUIDSource{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.CommandQueueSize <= 0 {
		opts.CommandQueueSize = 64
	}
	if opts.SubscriberBuffer < 8 {
		opts.SubscriberBuffer = 32
	}
	a := &Actor{
		code:      state.Code,
		clock:     opts.Clock,
		ids:       opts.IDs,
		logger:    opts.Logger.With("room", state.Code),
		cmds:      make(chan *command, opts.CommandQueueSize),
		stop:      make(chan struct{}),
		state:     state,
		subs:      make(map[uint64]*Subscription),
		subBuffer: opts.SubscriberBuffer,
	}
	go a.run()
	return a
}

// Code returns the room code.
func (a *Actor) Code() string { return a.code }

func (a *Actor) run() {
	for {
		select {
		case <-a.stop:
			a.shutdown()
			return
		case cmd := <-a.cmds:
			cmd.run(a)
			close(cmd.done)
		}
	}
}

func (a *Actor) shutdown() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	for id, sub := range a.subs {
		close(sub.ch)
		delete(a.subs, id)
	}
	// Fail whatever was queued behind the stop signal.
	for {
		select {
		case cmd := <-a.cmds:
			close(cmd.done)
		default:
			return
		}
	}
}

// Stop terminates the command loop and closes every subscriber channel.
// Idempotent.
func (a *Actor) Stop() {
	select {
	case <-a.stop:
	default:
		close(a.stop)
	}
}

// do runs fn inside the command loop and waits for it to complete.
func (a *Actor) do(fn func(a *Actor)) error {
	cmd := &command{run: fn, done: make(chan struct{})}
	select {
	case a.cmds <- cmd:
	case <-a.stop:
		return ErrClosed
	}
	select {
	case <-cmd.done:
		return nil
	case <-a.stop:
		// The loop may still execute the command while draining; wait for
		// the done signal it always closes.
		<-cmd.done
		return nil
	}
}

// transition is the shape shared by all pure command applications.
type transition func(s *game.State, now int64) (*game.State, game.Event, error)

// mutate applies one transition inside the loop. On success the owned state
// reference is swapped, the post-state snapshot is taken and, if the
// transition produced an event, it is broadcast carrying that snapshot.
func (a *Actor) mutate(apply transition) (*game.Snapshot, error) {
	var (
		snap *game.Snapshot
		err  error
	)
	doErr := a.do(func(a *Actor) {
		now := a.clock.NowMillis()
		next, ev, terr := apply(a.state, now)
		if terr != nil {
			err = terr
			return
		}
		a.state = next
		snap = game.Project(next)
		if ev.Type != "" {
			ev.Snapshot = snap
			a.broadcast(ev)
		}
		a.reconcileDeadline()
	})
	if doErr != nil {
		return nil, doErr
	}
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, ErrClosed
	}
	return snap, nil
}

// reconcileDeadline keeps at most one armed deadline matching the active
// round's endsAt. Rearms on change, disarms when no timed round is open.
func (a *Actor) reconcileDeadline() {
	var want int64
	if a.state.Status == game.GameInProgress && a.state.Active != nil {
		want = a.state.Active.EndsAt
	}
	if want == a.armedAt {
		return
	}
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.armedAt = want
	if want == 0 {
		return
	}
	delay := time.Duration(want-a.clock.NowMillis()) * time.Millisecond
	if delay < 0 {
		delay = 0
	}
	a.timer = time.AfterFunc(delay, a.enqueueTimerExpired)
}

// enqueueTimerExpired feeds the deadline back through the command queue so a
// tick never preempts a running transition. A tick that arrives after the
// state moved on is a no-op.
func (a *Actor) enqueueTimerExpired() {
	_ = a.do(func(a *Actor) {
		now := a.clock.NowMillis()
		next, ev, fired := game.TimerExpired(a.state, now)
		if !fired {
			return
		}
		a.state = next
		snap := game.Project(next)
		ev.Snapshot = snap
		a.broadcast(ev)
		a.reconcileDeadline()
	})
}

// Snapshot serves the current projection.
func (a *Actor) Snapshot() (*game.Snapshot, error) {
	var snap *game.Snapshot
	if err := a.do(func(a *Actor) {
		snap = game.Project(a.state)
	}); err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, ErrClosed
	}
	return snap, nil
}

// JoinResult is what a join request hands back to the caller.
type JoinResult struct {
	Participant game.ParticipantView
	Snapshot    *game.Snapshot
}

// SubmitJoin appends a pending join request.
func (a *Actor) SubmitJoin(name string) (*JoinResult, error) {
	id := a.ids.NewID()
	var participant *game.ParticipantView
	snap, err := a.mutate(func(s *game.State, now int64) (*game.State, game.Event, error) {
		next, ev, terr := game.SubmitJoin(s, name, id, now)
		if terr == nil {
			participant = ev.Participant
		}
		return next, ev, terr
	})
	if err != nil {
		return nil, err
	}
	return &JoinResult{Participant: *participant, Snapshot: snap}, nil
}

// ReviewJoin admits or rejects a pending participant.
func (a *Actor) ReviewJoin(hostToken, requestID string, approve bool) (*game.Snapshot, error) {
	return a.mutate(func(s *game.State, now int64) (*game.State, game.Event, error) {
		return game.ReviewJoin(s, hostToken, requestID, approve, now)
	})
}

// StartGame begins play with the given (or default) config.
func (a *Actor) StartGame(hostToken string, cfg *game.Config) (*game.Snapshot, error) {
	return a.mutate(func(s *game.State, now int64) (*game.State, game.Event, error) {
		return game.StartGame(s, hostToken, cfg, now)
	})
}

// CallNumber opens a round for the caller's turn.
func (a *Actor) CallNumber(participantID string, n int) (*game.Snapshot, error) {
	return a.mutate(func(s *game.State, now int64) (*game.State, game.Event, error) {
		return game.CallNumber(s, participantID, n, now)
	})
}

// UpdateDraft stores tentative answers for the open round.
func (a *Actor) UpdateDraft(participantID string, patch game.AnswersPatch) error {
	_, err := a.mutate(func(s *game.State, now int64) (*game.State, game.Event, error) {
		return game.UpdateDraft(s, participantID, patch, now)
	})
	return err
}

// SubmitAnswers finalises a participant's sheet.
func (a *Actor) SubmitAnswers(participantID string, patch game.AnswersPatch) (*game.Snapshot, error) {
	return a.mutate(func(s *game.State, now int64) (*game.State, game.Event, error) {
		return game.SubmitAnswers(s, participantID, patch, now)
	})
}

// EndRoundEarly closes the open round under the manual-end policy.
func (a *Actor) EndRoundEarly(participantID string) (*game.Snapshot, error) {
	return a.mutate(func(s *game.State, now int64) (*game.State, game.Event, error) {
		return game.EndRoundEarly(s, participantID, now)
	})
}

// ScoreSubmission records host marks for one submission.
func (a *Actor) ScoreSubmission(hostToken string, roundNumber int, participantID string, marks game.Marks) (*game.Snapshot, error) {
	return a.mutate(func(s *game.State, now int64) (*game.State, game.Event, error) {
		return game.ScoreSubmission(s, hostToken, roundNumber, participantID, marks, now)
	})
}

// PublishRound finalises a fully reviewed round.
func (a *Actor) PublishRound(hostToken string, roundNumber int) (*game.Snapshot, error) {
	return a.mutate(func(s *game.State, now int64) (*game.State, game.Event, error) {
		return game.PublishRound(s, hostToken, roundNumber, now)
	})
}

// DiscardRound finalises a round with zero contribution.
func (a *Actor) DiscardRound(hostToken string, roundNumber int) (*game.Snapshot, error) {
	return a.mutate(func(s *game.State, now int64) (*game.State, game.Event, error) {
		return game.DiscardRound(s, hostToken, roundNumber, now)
	})
}

// CancelGame aborts the game.
func (a *Actor) CancelGame(hostToken string) (*game.Snapshot, error) {
	return a.mutate(func(s *game.State, now int64) (*game.State, game.Event, error) {
		return game.CancelGame(s, hostToken, now)
	})
}

// EndGame finishes the game, auto-publishing fully reviewed rounds.
func (a *Actor) EndGame(hostToken string) (*game.Snapshot, error) {
	return a.mutate(func(s *game.State, now int64) (*game.State, game.Event, error) {
		return game.EndGame(s, hostToken, now)
	})
}

// TerminalIdle reports whether the game is over and nobody is subscribed, in
// which case the registry may retire the actor. A stopped actor is idle.
func (a *Actor) TerminalIdle() bool {
	idle := false
	if err := a.do(func(a *Actor) {
		idle = a.state.Terminal() && len(a.subs) == 0
	}); errors.Is(err, ErrClosed) {
		return true
	}
	return idle
}
