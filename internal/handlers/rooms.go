package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"lexiround/internal/game"
)

type createRoomRequest struct {
	HostName        string `json:"hostName"`
	MaxParticipants int    `json:"maxParticipants"`
}

// CreateRoom provisions a new room and returns the host credentials. This is
// the only response that ever carries the host token.
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	created, err := h.registry.CreateRoom(r.Context(), req.HostName, req.MaxParticipants)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// GetRoom serves the current snapshot.
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.lookup(w, chi.URLParam(r, "code"))
	if !ok {
		return
	}
	snap, err := actor.Snapshot()
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type joinRequest struct {
	Name string `json:"name"`
}

type joinResponse struct {
	RequestID   string                 `json:"requestId"`
	Participant game.ParticipantView   `json:"participant"`
	Status      game.ParticipantStatus `json:"status"`
}

// Join files a pending join request for host review.
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.lookup(w, chi.URLParam(r, "code"))
	if !ok {
		return
	}
	var req joinRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	res, err := actor.SubmitJoin(req.Name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.logger.Info("join request", "room", actor.Code(), "participant", res.Participant.ID)
	writeJSON(w, http.StatusAccepted, joinResponse{
		RequestID:   res.Participant.ID,
		Participant: res.Participant,
		Status:      res.Participant.Status,
	})
}

type admissionRequest struct {
	HostToken string `json:"hostToken"`
	RequestID string `json:"requestId"`
	Approve   *bool  `json:"approve"`
}

// ReviewAdmission admits or rejects a pending participant.
func (h *Handler) ReviewAdmission(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.lookup(w, chi.URLParam(r, "code"))
	if !ok {
		return
	}
	var req admissionRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.Approve == nil {
		h.writeError(w, &game.Failure{Kind: game.KindBadRequest, Message: "approve is required"})
		return
	}
	snap, err := actor.ReviewJoin(req.HostToken, req.RequestID, *req.Approve)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// configPatch lets startGame supply any subset of the game configuration;
// omitted fields keep their defaults.
type configPatch struct {
	RoundSeconds    *int                  `json:"roundSeconds"`
	EndRule         *game.EndRule         `json:"endRule"`
	ManualEndPolicy *game.ManualEndPolicy `json:"manualEndPolicy"`
	ScoringMode     *game.ScoringMode     `json:"scoringMode"`
}

func (p *configPatch) apply(base game.Config) game.Config {
	if p.RoundSeconds != nil {
		base.RoundSeconds = *p.RoundSeconds
	}
	if p.EndRule != nil {
		base.EndRule = *p.EndRule
	}
	if p.ManualEndPolicy != nil {
		base.ManualEndPolicy = *p.ManualEndPolicy
	}
	if p.ScoringMode != nil {
		base.ScoringMode = *p.ScoringMode
	}
	return base
}

type startRequest struct {
	HostToken string       `json:"hostToken"`
	Config    *configPatch `json:"config"`
}

// Start begins the game with the admitted participants.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.lookup(w, chi.URLParam(r, "code"))
	if !ok {
		return
	}
	var req startRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	var cfg *game.Config
	if req.Config != nil {
		c := req.Config.apply(game.DefaultConfig())
		cfg = &c
	}
	snap, err := actor.StartGame(req.HostToken, cfg)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.logger.Info("game started", "room", actor.Code())
	writeJSON(w, http.StatusOK, snap)
}

type callRequest struct {
	ParticipantID string `json:"participantId"`
	Number        int    `json:"number"`
}

// Call opens a round for the caller's number.
func (h *Handler) Call(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.lookup(w, chi.URLParam(r, "code"))
	if !ok {
		return
	}
	var req callRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	snap, err := actor.CallNumber(req.ParticipantID, req.Number)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type answersRequest struct {
	ParticipantID string            `json:"participantId"`
	Answers       game.AnswersPatch `json:"answers"`
}

// Draft saves tentative answers without submitting.
func (h *Handler) Draft(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.lookup(w, chi.URLParam(r, "code"))
	if !ok {
		return
	}
	var req answersRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if err := actor.UpdateDraft(req.ParticipantID, req.Answers); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Submit finalises a participant's answers for the open round.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.lookup(w, chi.URLParam(r, "code"))
	if !ok {
		return
	}
	var req answersRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	snap, err := actor.SubmitAnswers(req.ParticipantID, req.Answers)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type endRequest struct {
	ParticipantID string `json:"participantId"`
}

// End closes the open round ahead of its deadline.
func (h *Handler) End(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.lookup(w, chi.URLParam(r, "code"))
	if !ok {
		return
	}
	var req endRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	snap, err := actor.EndRoundEarly(req.ParticipantID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type scoreRequest struct {
	HostToken     string     `json:"hostToken"`
	RoundNumber   int        `json:"roundNumber"`
	ParticipantID string     `json:"participantId"`
	Marks         game.Marks `json:"marks"`
}

// Score records host marks for one submission.
func (h *Handler) Score(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.lookup(w, chi.URLParam(r, "code"))
	if !ok {
		return
	}
	var req scoreRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	snap, err := actor.ScoreSubmission(req.HostToken, req.RoundNumber, req.ParticipantID, req.Marks)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type roundRequest struct {
	HostToken   string `json:"hostToken"`
	RoundNumber int    `json:"roundNumber"`
}

// Publish finalises a fully reviewed round.
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.lookup(w, chi.URLParam(r, "code"))
	if !ok {
		return
	}
	var req roundRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	snap, err := actor.PublishRound(req.HostToken, req.RoundNumber)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Discard finalises a round with zero contribution.
func (h *Handler) Discard(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.lookup(w, chi.URLParam(r, "code"))
	if !ok {
		return
	}
	var req roundRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	snap, err := actor.DiscardRound(req.HostToken, req.RoundNumber)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type hostRequest struct {
	HostToken string `json:"hostToken"`
}

// Cancel aborts the game.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.lookup(w, chi.URLParam(r, "code"))
	if !ok {
		return
	}
	var req hostRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	snap, err := actor.CancelGame(req.HostToken)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.logger.Info("game cancelled", "room", actor.Code())
	writeJSON(w, http.StatusOK, snap)
}

// Finish ends the game and auto-publishes fully reviewed rounds.
func (h *Handler) Finish(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.lookup(w, chi.URLParam(r, "code"))
	if !ok {
		return
	}
	var req hostRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	snap, err := actor.EndGame(req.HostToken)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.logger.Info("game ended", "room", actor.Code())
	writeJSON(w, http.StatusOK, snap)
}
