package game

import "unicode/utf8"

const (
	minNameLen         = 2
	maxNameLen         = 24
	minMaxParticipants = 1
	maxMaxParticipants = 10
	minRoundSeconds    = 5
	maxRoundSeconds    = 120
)

// validName normalises a display name and checks its length bounds.
func validName(raw string) (string, *Failure) {
	name := NormalizeName(raw)
	if n := utf8.RuneCountInString(name); n < minNameLen || n > maxNameLen {
		return "", badRequestf("name must be between %d and %d characters", minNameLen, maxNameLen)
	}
	return name, nil
}

// NewState initialises a room in LOBBY with the host admitted. The caller
// (the registry) supplies the generated room code and host token.
func NewState(code, hostName string, maxParticipants int, hostToken string, now int64) (*State, error) {
	name, ferr := validName(hostName)
	if ferr != nil {
		return nil, ferr
	}
	if maxParticipants < minMaxParticipants || maxParticipants > maxMaxParticipants {
		return nil, badRequestf("maxParticipants must be between %d and %d", minMaxParticipants, maxMaxParticipants)
	}
	return &State{
		Code:            code,
		HostName:        name,
		MaxParticipants: maxParticipants,
		HostToken:       hostToken,
		CreatedAt:       now,
		Status:          GameLobby,
		Config:          DefaultConfig(),
		Participants: []Participant{{
			ID:        HostID,
			Name:      name,
			Status:    StatusAdmitted,
			IsHost:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}},
	}, nil
}

// SubmitJoin appends a PENDING participant with the given id. Only valid
// while the room is still in LOBBY.
func SubmitJoin(s *State, rawName, id string, now int64) (*State, Event, error) {
	if s.Status != GameLobby {
		return nil, Event{}, gonef("room %s is no longer accepting players", s.Code)
	}
	name, ferr := validName(rawName)
	if ferr != nil {
		return nil, Event{}, ferr
	}
	key := nameKey(name)
	for i := range s.Participants {
		if nameKey(s.Participants[i].Name) == key {
			return nil, Event{}, conflictf("name %q is already taken", name)
		}
	}
	if s.admittedCount() >= s.MaxParticipants {
		return nil, Event{}, conflictf("room %s is full", s.Code)
	}

	next := s.clone()
	p := Participant{
		ID:        id,
		Name:      name,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	next.Participants = append(next.Participants, p)
	view := participantView(p)
	return next, Event{Type: EventJoinRequest, Participant: &view}, nil
}

// ReviewJoin admits or rejects a pending participant. Host only.
func ReviewJoin(s *State, hostToken, requestID string, approve bool, now int64) (*State, Event, error) {
	if err := s.authorizeHost(hostToken); err != nil {
		return nil, Event{}, err
	}
	if s.Status != GameLobby {
		return nil, Event{}, conflictf("admissions are closed once the game has started")
	}
	target := s.participant(requestID)
	if target == nil {
		return nil, Event{}, notFoundf("join request %s not found", requestID)
	}
	if target.Status != StatusPending {
		return nil, Event{}, conflictf("join request %s was already reviewed", requestID)
	}
	if approve && s.admittedCount() >= s.MaxParticipants {
		return nil, Event{}, conflictf("room %s is full", s.Code)
	}

	next := s.clone()
	p := next.participant(requestID)
	if approve {
		p.Status = StatusAdmitted
	} else {
		p.Status = StatusRejected
	}
	p.UpdatedAt = now
	view := participantView(*p)
	return next, Event{Type: EventAdmissionUpdate, Participant: &view}, nil
}

// validateConfig checks ranges and the manual-end constraint.
func validateConfig(c Config) *Failure {
	if c.RoundSeconds < minRoundSeconds || c.RoundSeconds > maxRoundSeconds {
		return badRequestf("roundSeconds must be between %d and %d", minRoundSeconds, maxRoundSeconds)
	}
	switch c.EndRule {
	case EndRuleTimer, EndRuleFirstSubmission, EndRuleWhicheverFirst:
	default:
		return badRequestf("unknown endRule %q", c.EndRule)
	}
	switch c.ManualEndPolicy {
	case ManualEndHostOrCaller, ManualEndCallerOnly, ManualEndCallerOrTimer, ManualEndNone:
	default:
		return badRequestf("unknown manualEndPolicy %q", c.ManualEndPolicy)
	}
	switch c.ScoringMode {
	case ScoringFixed10, ScoringShared10:
	default:
		return badRequestf("unknown scoringMode %q", c.ScoringMode)
	}
	if c.ManualEndPolicy == ManualEndCallerOrTimer && c.EndRule == EndRuleFirstSubmission {
		return badRequestf("manualEndPolicy CALLER_OR_TIMER requires an endRule with a timer")
	}
	return nil
}

// StartGame freezes the admitted participants into the turn order and moves
// the game to IN_PROGRESS. Pending requests must have been reviewed first;
// rejected and pending participants are purged.
func StartGame(s *State, hostToken string, cfg *Config, now int64) (*State, Event, error) {
	if err := s.authorizeHost(hostToken); err != nil {
		return nil, Event{}, err
	}
	if s.Status != GameLobby {
		return nil, Event{}, conflictf("game has already started")
	}
	for i := range s.Participants {
		if s.Participants[i].Status == StatusPending {
			return nil, Event{}, conflictf("all join requests must be reviewed before starting")
		}
	}

	config := DefaultConfig()
	if cfg != nil {
		config = *cfg
	}
	if ferr := validateConfig(config); ferr != nil {
		return nil, Event{}, ferr
	}

	admitted := s.admittedCount()
	if admitted < 2 {
		return nil, Event{}, conflictf("need at least 2 admitted players to start")
	}
	if MaxFairRounds(admitted) < 1 {
		return nil, Event{}, conflictf("too many players for a fair rotation")
	}

	next := s.clone()
	kept := next.Participants[:0]
	order := make([]string, 0, admitted)
	for _, p := range next.Participants {
		if p.Status == StatusAdmitted {
			kept = append(kept, p)
			order = append(order, p.ID)
		}
	}
	next.Participants = kept
	next.TurnOrder = order
	next.CurrentTurnIndex = 0
	next.Config = config
	next.Status = GameInProgress
	next.StartedAt = now
	return next, Event{Type: EventGameStarted}, nil
}

// authorizeHost compares the presented token against the room secret. The
// token is only ever compared here, inside the actor; it never leaves the
// state.
func (s *State) authorizeHost(token string) *Failure {
	if token == "" || token != s.HostToken {
		return unauthorizedf("invalid host token")
	}
	return nil
}
