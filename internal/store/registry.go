package store

import (
	"context"
	"crypto/rand"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"lexiround/internal/game"
	"lexiround/internal/room"
)

// codeAlphabet deliberately omits I, O, 0 and 1 so codes survive being read
// aloud or scribbled on a napkin.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 6

var codePattern = regexp.MustCompile(`^[A-Z0-9]{4,10}$`)

// Registry maps room codes to their actors. Actors are created lazily by
// CreateRoom and retired by the sweeper once their game is terminal and all
// subscribers have disconnected.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*room.Actor

	clock     room.Clock
	actorOpts room.Options
	logger    *slog.Logger
	roomLog   *RoomLog // nil disables persistence

	done      chan struct{}
	closeOnce sync.Once
}

// RegistryOptions configure a registry.
type RegistryOptions struct {
	ActorOptions room.Options
	Logger       *slog.Logger
	RoomLog      *RoomLog
}

// NewRegistry creates an empty registry.
func NewRegistry(opts RegistryOptions) *Registry {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	clock := opts.ActorOptions.Clock
	if clock == nil {
		clock = room.SystemClock{}
	}
	return &Registry{
		rooms:     make(map[string]*room.Actor),
		clock:     clock,
		actorOpts: opts.ActorOptions,
		logger:    opts.Logger,
		roomLog:   opts.RoomLog,
		done:      make(chan struct{}),
	}
}

// CreatedRoom is what room creation returns to the host. This is the only
// message that ever carries the host token.
type CreatedRoom struct {
	RoomCode        string `json:"roomCode"`
	HostName        string `json:"hostName"`
	MaxParticipants int    `json:"maxParticipants"`
	WSPath          string `json:"wsPath"`
	HostToken       string `json:"hostToken"`
}

// CreateRoom generates a unique code, initialises the room actor in LOBBY
// with the host admitted, and best-effort appends a line to the room log.
func (r *Registry) CreateRoom(ctx context.Context, hostName string, maxParticipants int) (*CreatedRoom, error) {
	hostToken := uuid.NewString()
	now := r.clock.NowMillis()

	r.mu.Lock()
	code := generateCode()
	for {
		if _, taken := r.rooms[code]; !taken {
			break
		}
		code = generateCode()
	}
	state, err := game.NewState(code, hostName, maxParticipants, hostToken, now)
	if err != nil {
		r.mu.Unlock()
		return nil, err
	}
	actor := room.NewActor(state, r.actorOpts)
	r.rooms[code] = actor
	r.mu.Unlock()

	r.logger.Info("room created", "room", code, "maxParticipants", maxParticipants)
	if r.roomLog != nil {
		if err := r.roomLog.Append(ctx, code, state.HostName, maxParticipants, string(game.GameLobby), now); err != nil {
			// Persistence is best-effort; the room is already live.
			r.logger.Warn("room log append failed", "room", code, "error", err)
		}
	}
	return &CreatedRoom{
		RoomCode:        code,
		HostName:        state.HostName,
		MaxParticipants: maxParticipants,
		WSPath:          "/ws/" + code,
		HostToken:       hostToken,
	}, nil
}

// NormalizeCode upper-cases a client-supplied room code and validates its
// shape.
func NormalizeCode(raw string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if !codePattern.MatchString(code) {
		return "", &game.Failure{Kind: game.KindBadRequest, Message: "invalid room code"}
	}
	return code, nil
}

// Get resolves a room code to its actor.
func (r *Registry) Get(rawCode string) (*room.Actor, error) {
	code, err := NormalizeCode(rawCode)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	actor, ok := r.rooms[code]
	r.mu.RUnlock()
	if !ok {
		return nil, &game.Failure{Kind: game.KindNotFound, Message: "room " + code + " not found"}
	}
	return actor, nil
}

// Len reports the number of live rooms.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// StartSweeper periodically retires rooms whose game is terminal and whose
// subscribers have all disconnected.
func (r *Registry) StartSweeper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-r.done:
				return
			case <-ticker.C:
				r.Sweep()
			}
		}
	}()
}

// Sweep runs one retirement pass and returns how many rooms were removed.
func (r *Registry) Sweep() int {
	r.mu.RLock()
	actors := make([]*room.Actor, 0, len(r.rooms))
	for _, a := range r.rooms {
		actors = append(actors, a)
	}
	r.mu.RUnlock()

	removed := 0
	for _, a := range actors {
		if !a.TerminalIdle() {
			continue
		}
		a.Stop()
		r.mu.Lock()
		delete(r.rooms, a.Code())
		r.mu.Unlock()
		r.logger.Info("room retired", "room", a.Code())
		removed++
	}
	return removed
}

// Close stops the sweeper and every actor.
func (r *Registry) Close() {
	r.closeOnce.Do(func() { close(r.done) })
	r.mu.Lock()
	defer r.mu.Unlock()
	for code, a := range r.rooms {
		a.Stop()
		delete(r.rooms, code)
	}
}

// generateCode draws 6 characters from the code alphabet.
func generateCode() string {
	b := make([]byte, codeLength)
	rand.Read(b)
	for i := range b {
		b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}
	return string(b)
}
