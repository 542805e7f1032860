package game

// ParticipantStatus is the admission state of a participant.
type ParticipantStatus string

const (
	StatusPending  ParticipantStatus = "PENDING"
	StatusAdmitted ParticipantStatus = "ADMITTED"
	StatusRejected ParticipantStatus = "REJECTED"
)

// GameStatus is the lifecycle state of the game inside a room.
type GameStatus string

const (
	GameLobby      GameStatus = "LOBBY"
	GameInProgress GameStatus = "IN_PROGRESS"
	GameCancelled  GameStatus = "CANCELLED"
	GameFinished   GameStatus = "FINISHED"
)

// EndRule decides how an active round can close.
type EndRule string

const (
	EndRuleTimer           EndRule = "TIMER"
	EndRuleFirstSubmission EndRule = "FIRST_SUBMISSION"
	EndRuleWhicheverFirst  EndRule = "WHICHEVER_FIRST"
)

// ManualEndPolicy decides who may end a round early.
type ManualEndPolicy string

const (
	ManualEndHostOrCaller  ManualEndPolicy = "HOST_OR_CALLER"
	ManualEndCallerOnly    ManualEndPolicy = "CALLER_ONLY"
	ManualEndCallerOrTimer ManualEndPolicy = "CALLER_OR_TIMER"
	ManualEndNone          ManualEndPolicy = "NONE"
)

// ScoringMode selects the scoring engine.
type ScoringMode string

const (
	ScoringFixed10  ScoringMode = "FIXED_10"
	ScoringShared10 ScoringMode = "SHARED_10"
)

// EndReason records why a round closed.
type EndReason string

const (
	EndReasonTimer           EndReason = "TIMER"
	EndReasonFirstSubmission EndReason = "FIRST_SUBMISSION"
	EndReasonManualEnd       EndReason = "MANUAL_END"
)

// HostID is the fixed participant id of the room host.
const HostID = "host"

// Countdown between a number being called and inputs unlocking.
const countdownMillis = 3000

// Field names the five answer categories of a round.
type Field string

const (
	FieldName   Field = "name"
	FieldAnimal Field = "animal"
	FieldPlace  Field = "place"
	FieldThing  Field = "thing"
	FieldFood   Field = "food"
)

// Fields is the canonical field order used for scoring and totals.
var Fields = [5]Field{FieldName, FieldAnimal, FieldPlace, FieldThing, FieldFood}

// Answers holds one value per category.
type Answers struct {
	Name   string `json:"name"`
	Animal string `json:"animal"`
	Place  string `json:"place"`
	Thing  string `json:"thing"`
	Food   string `json:"food"`
}

// Get returns the answer for a field.
func (a Answers) Get(f Field) string {
	switch f {
	case FieldName:
		return a.Name
	case FieldAnimal:
		return a.Animal
	case FieldPlace:
		return a.Place
	case FieldThing:
		return a.Thing
	case FieldFood:
		return a.Food
	}
	return ""
}

// Set stores the answer for a field.
func (a *Answers) Set(f Field, v string) {
	switch f {
	case FieldName:
		a.Name = v
	case FieldAnimal:
		a.Animal = v
	case FieldPlace:
		a.Place = v
	case FieldThing:
		a.Thing = v
	case FieldFood:
		a.Food = v
	}
}

// AnswersPatch is a partial set of answers; nil fields are left untouched
// when merged into a draft or submission.
type AnswersPatch struct {
	Name   *string `json:"name,omitempty"`
	Animal *string `json:"animal,omitempty"`
	Place  *string `json:"place,omitempty"`
	Thing  *string `json:"thing,omitempty"`
	Food   *string `json:"food,omitempty"`
}

// Get returns the patch value for a field, or nil if absent.
func (p AnswersPatch) Get(f Field) *string {
	switch f {
	case FieldName:
		return p.Name
	case FieldAnimal:
		return p.Animal
	case FieldPlace:
		return p.Place
	case FieldThing:
		return p.Thing
	case FieldFood:
		return p.Food
	}
	return nil
}

// mergeInto overlays the patch onto base, normalising each provided value.
func (p AnswersPatch) mergeInto(base Answers) Answers {
	for _, f := range Fields {
		if v := p.Get(f); v != nil {
			base.Set(f, NormalizeText(*v))
		}
	}
	return base
}

// Marks holds the host's correct/incorrect verdict per field.
type Marks struct {
	Name   bool `json:"name"`
	Animal bool `json:"animal"`
	Place  bool `json:"place"`
	Thing  bool `json:"thing"`
	Food   bool `json:"food"`
}

// Get returns the mark for a field.
func (m Marks) Get(f Field) bool {
	switch f {
	case FieldName:
		return m.Name
	case FieldAnimal:
		return m.Animal
	case FieldPlace:
		return m.Place
	case FieldThing:
		return m.Thing
	case FieldFood:
		return m.Food
	}
	return false
}

// Scores holds per-field scores and the round total for one submission.
type Scores struct {
	Name   float64 `json:"name"`
	Animal float64 `json:"animal"`
	Place  float64 `json:"place"`
	Thing  float64 `json:"thing"`
	Food   float64 `json:"food"`
	Total  float64 `json:"total"`
}

// Get returns the score for a field.
func (s Scores) Get(f Field) float64 {
	switch f {
	case FieldName:
		return s.Name
	case FieldAnimal:
		return s.Animal
	case FieldPlace:
		return s.Place
	case FieldThing:
		return s.Thing
	case FieldFood:
		return s.Food
	}
	return 0
}

// Set stores the score for a field.
func (s *Scores) Set(f Field, v float64) {
	switch f {
	case FieldName:
		s.Name = v
	case FieldAnimal:
		s.Animal = v
	case FieldPlace:
		s.Place = v
	case FieldThing:
		s.Thing = v
	case FieldFood:
		s.Food = v
	}
}

// Participant is one member of a room. The host is created at room init with
// the literal id "host" and status ADMITTED; everyone else starts PENDING.
type Participant struct {
	ID        string
	Name      string
	Status    ParticipantStatus
	IsHost    bool
	CreatedAt int64
	UpdatedAt int64
}

// Review is the host's verdict on a submission. It may be re-set until the
// round is published or discarded.
type Review struct {
	Marks        Marks
	Scores       Scores
	MarkedByID   string
	MarkedByName string
	MarkedAt     int64
}

// Submission is one participant's answer sheet for a round.
type Submission struct {
	ParticipantID   string
	ParticipantName string
	Answers         Answers
	SubmittedAt     int64
	Forced          bool
	Review          *Review
}

// Round is a single play of a called number. While active (EndedAt == 0) it
// carries per-participant drafts; once ended it is appended to the completed
// list and the drafts are dropped.
type Round struct {
	Number            int
	TurnParticipantID string
	TurnParticipant   string
	CalledNumber      int
	ActiveLetter      string
	StartedAt         int64
	CountdownEndsAt   int64
	EndsAt            int64 // 0 when the end rule is FIRST_SUBMISSION
	Submissions       []Submission
	Drafts            map[string]Answers

	EndedAt          int64
	EndReason        EndReason
	ScorePublishedAt int64 // 0 until published or discarded
}

// submission returns the submission for a participant, or nil.
func (r *Round) submission(participantID string) *Submission {
	for i := range r.Submissions {
		if r.Submissions[i].ParticipantID == participantID {
			return &r.Submissions[i]
		}
	}
	return nil
}

// published reports whether the round has been finalised.
func (r *Round) published() bool {
	return r.ScorePublishedAt != 0
}

// fullyReviewed reports whether every submission carries a review.
func (r *Round) fullyReviewed() bool {
	for i := range r.Submissions {
		if r.Submissions[i].Review == nil {
			return false
		}
	}
	return true
}

// Config is the game configuration, immutable once the game starts.
type Config struct {
	RoundSeconds    int             `json:"roundSeconds"`
	EndRule         EndRule         `json:"endRule"`
	ManualEndPolicy ManualEndPolicy `json:"manualEndPolicy"`
	ScoringMode     ScoringMode     `json:"scoringMode"`
}

// DefaultConfig is used when startGame supplies no configuration.
func DefaultConfig() Config {
	return Config{
		RoundSeconds:    60,
		EndRule:         EndRuleTimer,
		ManualEndPolicy: ManualEndHostOrCaller,
		ScoringMode:     ScoringFixed10,
	}
}

// State is the authoritative record of one room. Transitions treat it as
// immutable: every command clones the state, mutates the clone and returns
// it; the actor swaps its owned reference on success.
type State struct {
	Code            string
	HostName        string
	MaxParticipants int
	HostToken       string
	CreatedAt       int64

	Participants []Participant // join order

	Status      GameStatus
	StartedAt   int64
	CancelledAt int64
	FinishedAt  int64

	Config           Config
	TurnOrder        []string
	CurrentTurnIndex int
	Active           *Round
	Completed        []*Round
}

// clone produces a deep copy so the previous state value stays untouched.
func (s *State) clone() *State {
	c := *s
	c.Participants = append([]Participant(nil), s.Participants...)
	c.TurnOrder = append([]string(nil), s.TurnOrder...)
	if s.Active != nil {
		c.Active = cloneRound(s.Active)
	}
	c.Completed = make([]*Round, len(s.Completed))
	for i, r := range s.Completed {
		c.Completed[i] = cloneRound(r)
	}
	return &c
}

func cloneRound(r *Round) *Round {
	c := *r
	c.Submissions = make([]Submission, len(r.Submissions))
	for i, sub := range r.Submissions {
		c.Submissions[i] = sub
		if sub.Review != nil {
			rv := *sub.Review
			c.Submissions[i].Review = &rv
		}
	}
	if r.Drafts != nil {
		c.Drafts = make(map[string]Answers, len(r.Drafts))
		for k, v := range r.Drafts {
			c.Drafts[k] = v
		}
	}
	return &c
}

// participant returns the participant with the given id, or nil.
func (s *State) participant(id string) *Participant {
	for i := range s.Participants {
		if s.Participants[i].ID == id {
			return &s.Participants[i]
		}
	}
	return nil
}

// admittedCount counts participants whose status is ADMITTED.
func (s *State) admittedCount() int {
	n := 0
	for i := range s.Participants {
		if s.Participants[i].Status == StatusAdmitted {
			n++
		}
	}
	return n
}

// currentCaller returns the id of the participant whose turn it is, or ""
// when the game is not in progress.
func (s *State) currentCaller() string {
	if s.Status != GameInProgress || len(s.TurnOrder) == 0 {
		return ""
	}
	return s.TurnOrder[s.CurrentTurnIndex]
}

// numberUsed reports whether a called number appears in any active or
// completed round.
func (s *State) numberUsed(n int) bool {
	if s.Active != nil && s.Active.CalledNumber == n {
		return true
	}
	for _, r := range s.Completed {
		if r.CalledNumber == n {
			return true
		}
	}
	return false
}

// findRound locates a completed round by round number.
func (s *State) findRound(number int) *Round {
	for _, r := range s.Completed {
		if r.Number == number {
			return r
		}
	}
	return nil
}

// Terminal reports whether the game reached CANCELLED or FINISHED.
func (s *State) Terminal() bool {
	return s.Status == GameCancelled || s.Status == GameFinished
}

// letterFor maps a called number 1..26 to its letter A..Z.
func letterFor(n int) string {
	return string(rune('A' + n - 1))
}
