package game

// unpublishedRound locates a completed round that can still be reviewed.
func (s *State) unpublishedRound(number int) (*Round, *Failure) {
	round := s.findRound(number)
	if round == nil {
		return nil, notFoundf("round %d not found", number)
	}
	if round.published() {
		return nil, conflictf("round %d has already been finalised", number)
	}
	return round, nil
}

// ScoreSubmission records the host's marks for one submission and recomputes
// the scores of every submission in the round so shared-answer splits stay
// consistent. Reviews may be re-set until the round is published.
func ScoreSubmission(s *State, hostToken string, roundNumber int, participantID string, marks Marks, now int64) (*State, Event, error) {
	if err := s.authorizeHost(hostToken); err != nil {
		return nil, Event{}, err
	}
	if _, ferr := s.unpublishedRound(roundNumber); ferr != nil {
		return nil, Event{}, ferr
	}

	next := s.clone()
	round := next.findRound(roundNumber)
	sub := round.submission(participantID)
	if sub == nil {
		return nil, Event{}, notFoundf("no submission from participant %s in round %d", participantID, roundNumber)
	}
	host := next.participant(HostID)
	sub.Review = &Review{
		Marks:        marks,
		MarkedByID:   host.ID,
		MarkedByName: host.Name,
		MarkedAt:     now,
	}
	recomputeRoundScores(round, next.Config.ScoringMode)
	return next, Event{Type: EventSubmissionScored, ParticipantID: participantID, RoundNumber: roundNumber}, nil
}

// PublishRound finalises a fully reviewed round; its scores start counting
// toward the leaderboard and it becomes immutable.
func PublishRound(s *State, hostToken string, roundNumber int, now int64) (*State, Event, error) {
	if err := s.authorizeHost(hostToken); err != nil {
		return nil, Event{}, err
	}
	round, ferr := s.unpublishedRound(roundNumber)
	if ferr != nil {
		return nil, Event{}, ferr
	}
	if !round.fullyReviewed() {
		return nil, Event{}, conflictf("round %d has unreviewed submissions", roundNumber)
	}

	next := s.clone()
	next.findRound(roundNumber).ScorePublishedAt = now
	return next, Event{Type: EventRoundScoresPublished, RoundNumber: roundNumber}, nil
}

// DiscardRound finalises a round with zero contribution: every review is
// cleared and the publication stamp is set. This is terminal, not an undo.
func DiscardRound(s *State, hostToken string, roundNumber int, now int64) (*State, Event, error) {
	if err := s.authorizeHost(hostToken); err != nil {
		return nil, Event{}, err
	}
	if _, ferr := s.unpublishedRound(roundNumber); ferr != nil {
		return nil, Event{}, ferr
	}

	next := s.clone()
	round := next.findRound(roundNumber)
	for i := range round.Submissions {
		round.Submissions[i].Review = nil
	}
	round.ScorePublishedAt = now
	return next, Event{Type: EventRoundScoresDiscarded, RoundNumber: roundNumber}, nil
}

// CancelGame aborts a lobby or a running game. Any active round is dropped.
func CancelGame(s *State, hostToken string, now int64) (*State, Event, error) {
	if err := s.authorizeHost(hostToken); err != nil {
		return nil, Event{}, err
	}
	if s.Status != GameLobby && s.Status != GameInProgress {
		return nil, Event{}, conflictf("game is already over")
	}

	next := s.clone()
	next.Active = nil
	next.Status = GameCancelled
	next.CancelledAt = now
	return next, Event{Type: EventGameCancelled}, nil
}

// EndGame finishes a running game. Completed rounds that are fully reviewed
// but not yet published are auto-published; partially reviewed rounds are
// left unpublished and never count.
func EndGame(s *State, hostToken string, now int64) (*State, Event, error) {
	if err := s.authorizeHost(hostToken); err != nil {
		return nil, Event{}, err
	}
	if s.Status != GameInProgress {
		return nil, Event{}, conflictf("game is not in progress")
	}

	next := s.clone()
	for _, r := range next.Completed {
		if !r.published() && r.fullyReviewed() {
			r.ScorePublishedAt = now
		}
	}
	next.Active = nil
	next.Status = GameFinished
	next.FinishedAt = now
	return next, Event{Type: EventGameEnded}, nil
}
