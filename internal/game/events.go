package game

// EventType discriminates push-stream messages.
type EventType string

const (
	EventConnected            EventType = "connected"
	EventPresence             EventType = "presence"
	EventSnapshotSync         EventType = "snapshot"
	EventJoinRequest          EventType = "join_request"
	EventAdmissionUpdate      EventType = "admission_update"
	EventGameStarted          EventType = "game_started"
	EventTurnCalled           EventType = "turn_called"
	EventSubmissionReceived   EventType = "submission_received"
	EventRoundEnded           EventType = "round_ended"
	EventSubmissionScored     EventType = "submission_scored"
	EventRoundScoresPublished EventType = "round_scores_published"
	EventRoundScoresDiscarded EventType = "round_scores_discarded"
	EventGameCancelled        EventType = "game_cancelled"
	EventGameEnded            EventType = "game_ended"
)

// Event is a push-stream message. Transitions fill the type and the
// event-specific convenience fields; the actor attaches the post-state
// snapshot before broadcasting. A zero-valued Event (empty Type) means the
// command mutated nothing visible and nothing is broadcast.
type Event struct {
	Type           EventType        `json:"type"`
	Count          int              `json:"count,omitempty"`
	Participant    *ParticipantView `json:"participant,omitempty"`
	ParticipantID  string           `json:"participantId,omitempty"`
	Reason         EndReason        `json:"reason,omitempty"`
	RoundNumber    int              `json:"roundNumber,omitempty"`
	CompletedRound *RoundView       `json:"completedRound,omitempty"`
	Snapshot       *Snapshot        `json:"snapshot,omitempty"`
}
