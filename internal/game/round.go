package game

// CallNumber opens a new round for the caller's turn. The previous round must
// be published or discarded first, the number must be unused, and the fair
// round ceiling must not have been reached.
func CallNumber(s *State, participantID string, n int, now int64) (*State, Event, error) {
	if s.Status != GameInProgress {
		return nil, Event{}, conflictf("game is not in progress")
	}
	caller := s.participant(participantID)
	if caller == nil {
		return nil, Event{}, notFoundf("participant %s not found", participantID)
	}
	if caller.Status != StatusAdmitted {
		return nil, Event{}, forbiddenf("only admitted players may call a number")
	}
	if s.Active != nil {
		return nil, Event{}, conflictf("a round is already in progress")
	}
	for _, r := range s.Completed {
		if !r.published() {
			return nil, Event{}, conflictf("round %d must be published or discarded before the next call", r.Number)
		}
	}
	if n < 1 || n > alphabetSize {
		return nil, Event{}, badRequestf("number must be between 1 and %d", alphabetSize)
	}
	if s.numberUsed(n) {
		return nil, Event{}, conflictf("number %d (letter %s) was already played", n, letterFor(n))
	}
	if len(s.Completed) >= MaxFairRounds(len(s.TurnOrder)) {
		return nil, Event{}, conflictf("maximum fair rounds reached")
	}
	if participantID != s.currentCaller() {
		return nil, Event{}, forbiddenf("it is not your turn to call")
	}

	next := s.clone()
	countdownEnds := now + countdownMillis
	round := &Round{
		Number:            len(next.Completed) + 1,
		TurnParticipantID: caller.ID,
		TurnParticipant:   caller.Name,
		CalledNumber:      n,
		ActiveLetter:      letterFor(n),
		StartedAt:         now,
		CountdownEndsAt:   countdownEnds,
		Drafts:            make(map[string]Answers),
	}
	if next.Config.EndRule != EndRuleFirstSubmission {
		round.EndsAt = countdownEnds + int64(next.Config.RoundSeconds)*1000
	}
	next.Active = round
	return next, Event{Type: EventTurnCalled}, nil
}

// roundOpenFor validates the shared preconditions of draft updates and
// submissions: an active round past its countdown, an admitted participant,
// and no prior submission from them.
func (s *State) roundOpenFor(participantID string, now int64) *Failure {
	if s.Status != GameInProgress || s.Active == nil {
		return conflictf("no round is in progress")
	}
	p := s.participant(participantID)
	if p == nil {
		return notFoundf("participant %s not found", participantID)
	}
	if p.Status != StatusAdmitted {
		return forbiddenf("only admitted players may answer")
	}
	if now < s.Active.CountdownEndsAt {
		return conflictf("the countdown has not finished")
	}
	if s.Active.submission(participantID) != nil {
		return conflictf("answers already submitted for this round")
	}
	return nil
}

// UpdateDraft merges a partial answer sheet into the participant's draft.
// Drafts are private: no event is broadcast and no snapshot reveals them.
func UpdateDraft(s *State, participantID string, patch AnswersPatch, now int64) (*State, Event, error) {
	if ferr := s.roundOpenFor(participantID, now); ferr != nil {
		return nil, Event{}, ferr
	}
	next := s.clone()
	draft := next.Active.Drafts[participantID]
	next.Active.Drafts[participantID] = patch.mergeInto(draft)
	return next, Event{}, nil
}

// SubmitAnswers finalises a participant's sheet for the active round. The
// submitted patch is overlaid on their current draft. Under FIRST_SUBMISSION
// and WHICHEVER_FIRST the first submission closes the round for everyone.
func SubmitAnswers(s *State, participantID string, patch AnswersPatch, now int64) (*State, Event, error) {
	if ferr := s.roundOpenFor(participantID, now); ferr != nil {
		return nil, Event{}, ferr
	}

	next := s.clone()
	round := next.Active
	p := next.participant(participantID)

	answers := patch.mergeInto(round.Drafts[participantID])
	delete(round.Drafts, participantID)
	round.Submissions = append(round.Submissions, Submission{
		ParticipantID:   p.ID,
		ParticipantName: p.Name,
		Answers:         answers,
		SubmittedAt:     now,
	})

	if next.Config.EndRule == EndRuleFirstSubmission || next.Config.EndRule == EndRuleWhicheverFirst {
		completed := next.endActiveRound(EndReasonFirstSubmission, now)
		view := completedRoundView(completed)
		return next, Event{Type: EventRoundEnded, Reason: EndReasonFirstSubmission, RoundNumber: completed.Number, CompletedRound: &view}, nil
	}
	return next, Event{Type: EventSubmissionReceived, ParticipantID: p.ID}, nil
}

// EndRoundEarly closes the active round before its deadline, subject to the
// configured manual-end policy.
func EndRoundEarly(s *State, participantID string, now int64) (*State, Event, error) {
	if s.Status != GameInProgress || s.Active == nil {
		return nil, Event{}, conflictf("no round is in progress")
	}
	p := s.participant(participantID)
	if p == nil {
		return nil, Event{}, notFoundf("participant %s not found", participantID)
	}
	if p.Status != StatusAdmitted {
		return nil, Event{}, forbiddenf("only admitted players may end a round")
	}

	isCaller := participantID == s.Active.TurnParticipantID
	allowed := false
	switch s.Config.ManualEndPolicy {
	case ManualEndHostOrCaller:
		allowed = p.IsHost || isCaller
	case ManualEndCallerOnly, ManualEndCallerOrTimer:
		allowed = isCaller
	case ManualEndNone:
		allowed = false
	}
	if !allowed {
		return nil, Event{}, forbiddenf("you may not end this round early")
	}

	next := s.clone()
	completed := next.endActiveRound(EndReasonManualEnd, now)
	view := completedRoundView(completed)
	return next, Event{Type: EventRoundEnded, Reason: EndReasonManualEnd, RoundNumber: completed.Number, CompletedRound: &view}, nil
}

// TimerExpired is invoked only by the scheduler. A late fire, after the state
// has already moved on, reports fired=false and the caller drops it silently.
func TimerExpired(s *State, now int64) (next *State, ev Event, fired bool) {
	if s.Status != GameInProgress || s.Active == nil {
		return nil, Event{}, false
	}
	if s.Active.EndsAt == 0 || now < s.Active.EndsAt {
		return nil, Event{}, false
	}
	next = s.clone()
	completed := next.endActiveRound(EndReasonTimer, now)
	view := completedRoundView(completed)
	return next, Event{Type: EventRoundEnded, Reason: EndReasonTimer, RoundNumber: completed.Number, CompletedRound: &view}, true
}

// endActiveRound force-submits every admitted participant who has not
// answered (falling back to their draft, else an empty sheet), stamps the end
// reason, appends the round to the completed list and rotates the turn.
// Mutates the receiver; callers pass a clone.
func (s *State) endActiveRound(reason EndReason, now int64) *Round {
	round := s.Active
	for _, id := range s.TurnOrder {
		if round.submission(id) != nil {
			continue
		}
		p := s.participant(id)
		if p == nil || p.Status != StatusAdmitted {
			continue
		}
		round.Submissions = append(round.Submissions, Submission{
			ParticipantID:   p.ID,
			ParticipantName: p.Name,
			Answers:         round.Drafts[id],
			SubmittedAt:     now,
			Forced:          true,
		})
	}
	round.Drafts = nil
	round.EndedAt = now
	round.EndReason = reason
	s.Completed = append(s.Completed, round)
	s.Active = nil
	s.CurrentTurnIndex = (s.CurrentTurnIndex + 1) % len(s.TurnOrder)
	return round
}
