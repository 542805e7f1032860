package game

import (
	"sort"
	"time"
)

// FormatTime renders an internal millisecond timestamp as an ISO-8601 UTC
// string, the external representation used everywhere on the wire.
func FormatTime(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

func formatOptional(ms int64) string {
	if ms == 0 {
		return ""
	}
	return FormatTime(ms)
}

// MetaView identifies the room.
type MetaView struct {
	RoomCode        string `json:"roomCode"`
	HostName        string `json:"hostName"`
	MaxParticipants int    `json:"maxParticipants"`
}

// ParticipantView is the wire shape of a participant.
type ParticipantView struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Status    ParticipantStatus `json:"status"`
	IsHost    bool              `json:"isHost"`
	CreatedAt string            `json:"createdAt"`
	UpdatedAt string            `json:"updatedAt"`
}

// Counts summarises participants per admission status.
type Counts struct {
	Admitted int `json:"admitted"`
	Pending  int `json:"pending"`
	Rejected int `json:"rejected"`
}

// SubmissionStub is the active-round projection of a submission: the answers
// stay hidden until the round ends.
type SubmissionStub struct {
	ParticipantID   string `json:"participantId"`
	ParticipantName string `json:"participantName"`
	SubmittedAt     string `json:"submittedAt"`
}

// ActiveRoundView projects the running round. Drafts are never exposed.
type ActiveRoundView struct {
	RoundNumber         int              `json:"roundNumber"`
	TurnParticipantID   string           `json:"turnParticipantId"`
	TurnParticipantName string           `json:"turnParticipantName"`
	CalledNumber        int              `json:"calledNumber"`
	ActiveLetter        string           `json:"activeLetter"`
	StartedAt           string           `json:"startedAt"`
	CountdownEndsAt     string           `json:"countdownEndsAt"`
	EndsAt              string           `json:"endsAt,omitempty"`
	Submissions         []SubmissionStub `json:"submissions"`
}

// ReviewView is the wire shape of a host review.
type ReviewView struct {
	Marks        Marks  `json:"marks"`
	Scores       Scores `json:"scores"`
	MarkedByID   string `json:"markedById"`
	MarkedByName string `json:"markedByName"`
	MarkedAt     string `json:"markedAt"`
}

// SubmissionView reveals a completed round's answers and review.
type SubmissionView struct {
	ParticipantID   string      `json:"participantId"`
	ParticipantName string      `json:"participantName"`
	Answers         Answers     `json:"answers"`
	SubmittedAt     string      `json:"submittedAt"`
	Forced          bool        `json:"forced,omitempty"`
	Review          *ReviewView `json:"review,omitempty"`
}

// RoundView is the wire shape of a completed round.
type RoundView struct {
	RoundNumber         int              `json:"roundNumber"`
	TurnParticipantID   string           `json:"turnParticipantId"`
	TurnParticipantName string           `json:"turnParticipantName"`
	CalledNumber        int              `json:"calledNumber"`
	ActiveLetter        string           `json:"activeLetter"`
	StartedAt           string           `json:"startedAt"`
	CountdownEndsAt     string           `json:"countdownEndsAt"`
	EndsAt              string           `json:"endsAt,omitempty"`
	EndedAt             string           `json:"endedAt"`
	EndReason           EndReason        `json:"endReason"`
	ScorePublishedAt    string           `json:"scorePublishedAt,omitempty"`
	Submissions         []SubmissionView `json:"submissions"`
}

// HistoryEntry is one published round in a leaderboard row.
type HistoryEntry struct {
	RoundNumber     int     `json:"roundNumber"`
	CalledNumber    int     `json:"calledNumber"`
	ActiveLetter    string  `json:"activeLetter"`
	Score           float64 `json:"score"`
	CumulativeScore float64 `json:"cumulativeScore"`
	Reviewed        bool    `json:"reviewed"`
}

// LeaderboardEntry is one admitted participant's running total.
type LeaderboardEntry struct {
	ParticipantID   string         `json:"participantId"`
	ParticipantName string         `json:"participantName"`
	TotalScore      float64        `json:"totalScore"`
	History         []HistoryEntry `json:"history"`
}

// ScoringSummary aggregates round bookkeeping and the leaderboard.
type ScoringSummary struct {
	RoundsPerPlayer          int                `json:"roundsPerPlayer"`
	MaxRounds                int                `json:"maxRounds"`
	RoundsPlayed             int                `json:"roundsPlayed"`
	PublishedRounds          int                `json:"publishedRounds"`
	PendingPublicationRounds []int              `json:"pendingPublicationRounds"`
	UsedNumbers              []int              `json:"usedNumbers"`
	AvailableNumbers         []int              `json:"availableNumbers"`
	IsComplete               bool               `json:"isComplete"`
	Leaderboard              []LeaderboardEntry `json:"leaderboard"`
}

// GameView is the game half of the snapshot.
type GameView struct {
	Status                   GameStatus       `json:"status"`
	StartedAt                string           `json:"startedAt,omitempty"`
	CancelledAt              string           `json:"cancelledAt,omitempty"`
	FinishedAt               string           `json:"finishedAt,omitempty"`
	Config                   Config           `json:"config"`
	TurnOrder                []string         `json:"turnOrder"`
	CurrentTurnIndex         int              `json:"currentTurnIndex"`
	CurrentTurnParticipantID string           `json:"currentTurnParticipantId,omitempty"`
	ActiveRound              *ActiveRoundView `json:"activeRound"`
	CompletedRounds          []RoundView      `json:"completedRounds"`
	Scoring                  ScoringSummary   `json:"scoring"`
}

// Snapshot is the canonical client-facing view of a room. It never carries
// the host token or any draft.
type Snapshot struct {
	Meta         MetaView          `json:"meta"`
	Participants []ParticipantView `json:"participants"`
	Counts       Counts            `json:"counts"`
	Game         GameView          `json:"game"`
}

func participantView(p Participant) ParticipantView {
	return ParticipantView{
		ID:        p.ID,
		Name:      p.Name,
		Status:    p.Status,
		IsHost:    p.IsHost,
		CreatedAt: FormatTime(p.CreatedAt),
		UpdatedAt: FormatTime(p.UpdatedAt),
	}
}

func activeRoundView(r *Round) *ActiveRoundView {
	view := &ActiveRoundView{
		RoundNumber:         r.Number,
		TurnParticipantID:   r.TurnParticipantID,
		TurnParticipantName: r.TurnParticipant,
		CalledNumber:        r.CalledNumber,
		ActiveLetter:        r.ActiveLetter,
		StartedAt:           FormatTime(r.StartedAt),
		CountdownEndsAt:     FormatTime(r.CountdownEndsAt),
		EndsAt:              formatOptional(r.EndsAt),
		Submissions:         make([]SubmissionStub, 0, len(r.Submissions)),
	}
	for _, sub := range r.Submissions {
		view.Submissions = append(view.Submissions, SubmissionStub{
			ParticipantID:   sub.ParticipantID,
			ParticipantName: sub.ParticipantName,
			SubmittedAt:     FormatTime(sub.SubmittedAt),
		})
	}
	return view
}

func completedRoundView(r *Round) RoundView {
	view := RoundView{
		RoundNumber:         r.Number,
		TurnParticipantID:   r.TurnParticipantID,
		TurnParticipantName: r.TurnParticipant,
		CalledNumber:        r.CalledNumber,
		ActiveLetter:        r.ActiveLetter,
		StartedAt:           FormatTime(r.StartedAt),
		CountdownEndsAt:     FormatTime(r.CountdownEndsAt),
		EndsAt:              formatOptional(r.EndsAt),
		EndedAt:             FormatTime(r.EndedAt),
		EndReason:           r.EndReason,
		ScorePublishedAt:    formatOptional(r.ScorePublishedAt),
		Submissions:         make([]SubmissionView, 0, len(r.Submissions)),
	}
	for _, sub := range r.Submissions {
		sv := SubmissionView{
			ParticipantID:   sub.ParticipantID,
			ParticipantName: sub.ParticipantName,
			Answers:         sub.Answers,
			SubmittedAt:     FormatTime(sub.SubmittedAt),
			Forced:          sub.Forced,
		}
		if sub.Review != nil {
			sv.Review = &ReviewView{
				Marks:        sub.Review.Marks,
				Scores:       sub.Review.Scores,
				MarkedByID:   sub.Review.MarkedByID,
				MarkedByName: sub.Review.MarkedByName,
				MarkedAt:     FormatTime(sub.Review.MarkedAt),
			}
		}
		view.Submissions = append(view.Submissions, sv)
	}
	return view
}

// Project derives the client-visible snapshot from the internal state.
func Project(s *State) *Snapshot {
	snap := &Snapshot{
		Meta: MetaView{
			RoomCode:        s.Code,
			HostName:        s.HostName,
			MaxParticipants: s.MaxParticipants,
		},
		Participants: make([]ParticipantView, 0, len(s.Participants)),
	}
	for _, p := range s.Participants {
		snap.Participants = append(snap.Participants, participantView(p))
		switch p.Status {
		case StatusAdmitted:
			snap.Counts.Admitted++
		case StatusPending:
			snap.Counts.Pending++
		case StatusRejected:
			snap.Counts.Rejected++
		}
	}

	gv := GameView{
		Status:           s.Status,
		StartedAt:        formatOptional(s.StartedAt),
		CancelledAt:      formatOptional(s.CancelledAt),
		FinishedAt:       formatOptional(s.FinishedAt),
		Config:           s.Config,
		TurnOrder:        append([]string{}, s.TurnOrder...),
		CurrentTurnIndex: s.CurrentTurnIndex,
		CompletedRounds:  make([]RoundView, 0, len(s.Completed)),
	}
	gv.CurrentTurnParticipantID = s.currentCaller()
	if s.Active != nil {
		gv.ActiveRound = activeRoundView(s.Active)
	}
	for _, r := range s.Completed {
		gv.CompletedRounds = append(gv.CompletedRounds, completedRoundView(r))
	}
	gv.Scoring = scoringSummary(s)
	snap.Game = gv
	return snap
}

func scoringSummary(s *State) ScoringSummary {
	admitted := len(s.TurnOrder)
	if admitted == 0 {
		admitted = s.admittedCount()
	}
	maxRounds := MaxFairRounds(admitted)

	summary := ScoringSummary{
		RoundsPerPlayer:          RoundsPerPlayer(admitted),
		MaxRounds:                maxRounds,
		RoundsPlayed:             len(s.Completed),
		PendingPublicationRounds: []int{},
		UsedNumbers:              []int{},
		AvailableNumbers:         []int{},
		Leaderboard:              []LeaderboardEntry{},
	}
	for _, r := range s.Completed {
		if r.published() {
			summary.PublishedRounds++
		} else {
			summary.PendingPublicationRounds = append(summary.PendingPublicationRounds, r.Number)
		}
	}
	sort.Ints(summary.PendingPublicationRounds)
	for n := 1; n <= alphabetSize; n++ {
		if s.numberUsed(n) {
			summary.UsedNumbers = append(summary.UsedNumbers, n)
		} else {
			summary.AvailableNumbers = append(summary.AvailableNumbers, n)
		}
	}
	summary.IsComplete = maxRounds > 0 && len(s.Completed) >= maxRounds
	summary.Leaderboard = leaderboard(s)
	return summary
}

// leaderboard walks the published rounds in round order for each admitted
// participant, accumulating per-round scores into a running total.
func leaderboard(s *State) []LeaderboardEntry {
	published := make([]*Round, 0, len(s.Completed))
	for _, r := range s.Completed {
		if r.published() {
			published = append(published, r)
		}
	}
	sort.Slice(published, func(i, j int) bool { return published[i].Number < published[j].Number })

	entries := make([]LeaderboardEntry, 0, len(s.Participants))
	for _, p := range s.Participants {
		if p.Status != StatusAdmitted {
			continue
		}
		entry := LeaderboardEntry{
			ParticipantID:   p.ID,
			ParticipantName: p.Name,
			History:         []HistoryEntry{},
		}
		cumulative := 0.0
		for _, r := range published {
			score := 0.0
			reviewed := false
			if sub := r.submission(p.ID); sub != nil && sub.Review != nil {
				score = sub.Review.Scores.Total
				reviewed = true
			}
			cumulative = round2(cumulative + score)
			entry.History = append(entry.History, HistoryEntry{
				RoundNumber:     r.Number,
				CalledNumber:    r.CalledNumber,
				ActiveLetter:    r.ActiveLetter,
				Score:           score,
				CumulativeScore: cumulative,
				Reviewed:        reviewed,
			})
		}
		entry.TotalScore = cumulative
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalScore != entries[j].TotalScore {
			return entries[i].TotalScore > entries[j].TotalScore
		}
		return entries[i].ParticipantName < entries[j].ParticipantName
	})
	return entries
}
