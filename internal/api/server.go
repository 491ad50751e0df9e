// Package api is the gateway's HTTP/JSON surface for game UIs: commitment
// building, reveal preparation, transaction submission, instance watching,
// and the SSE intent stream.
//
// The master secret never crosses this boundary during the commit phase;
// only reveal preparation returns derived secrets, and only for the round
// being revealed.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"cosmossdk.io/log"

	"knockoutgames/gateway/internal/apperr"
	"knockoutgames/gateway/internal/commit"
	"knockoutgames/gateway/internal/engine"
	"knockoutgames/gateway/internal/journal"
	"knockoutgames/gateway/internal/ledger"
	"knockoutgames/gateway/internal/secret"
)

// Server holds the handler dependencies.
type Server struct {
	builder     *commit.Builder
	coordinator *commit.Coordinator
	manager     *engine.Manager
	writer      ledger.Writer
	journal     *journal.Store // optional; nil disables the audit trail
	logger      log.Logger
}

// NewServer wires the HTTP surface. journal may be nil.
func NewServer(builder *commit.Builder, coordinator *commit.Coordinator, manager *engine.Manager, writer ledger.Writer, jrnl *journal.Store, logger log.Logger) *Server {
	return &Server{
		builder:     builder,
		coordinator: coordinator,
		manager:     manager,
		writer:      writer,
		journal:     jrnl,
		logger:      logger.With("module", "api"),
	}
}

// Routes builds the route table.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/commitment", s.handleCommitment)
	mux.HandleFunc("POST /v1/reveal", s.handleReveal)
	mux.HandleFunc("POST /v1/reveal-secret", s.handleRevealSecret)
	mux.HandleFunc("POST /v1/submit/commit", s.handleSubmitCommit)
	mux.HandleFunc("POST /v1/submit/reveal", s.handleSubmitReveal)
	mux.HandleFunc("POST /v1/submit/settle", s.handleSubmitSettle)
	mux.HandleFunc("POST /v1/watch", s.handleWatch)
	mux.HandleFunc("DELETE /v1/watch/{token}", s.handleUnwatch)
	mux.HandleFunc("GET /v1/instances/{kind}/{id}", s.handleSnapshot)
	mux.HandleFunc("GET /v1/instances/{kind}/{id}/intents", s.handleIntents)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

// scopeRequest is the optional round scope on commitment and reveal calls.
type scopeRequest struct {
	InstanceID string `json:"instanceId"`
	Round      uint64 `json:"round"`
}

func (r *scopeRequest) toScope(kind string) *secret.Scope {
	if r == nil {
		return nil
	}
	return &secret.Scope{GameKind: kind, InstanceID: r.InstanceID, Round: r.Round}
}

type commitmentRequest struct {
	GameKind    string        `json:"gameKind"`
	ActionValue uint64        `json:"actionValue"`
	PlayerID    string        `json:"playerId"`
	Scope       *scopeRequest `json:"scope,omitempty"`
}

type commitmentResponse struct {
	Commitment string `json:"commitment"`
}

func (s *Server) handleCommitment(w http.ResponseWriter, r *http.Request) {
	var req commitmentRequest
	if !s.decode(w, r, &req) {
		return
	}
	commitment, err := s.builder.Build(commit.Kind(req.GameKind), req.ActionValue, req.Scope.toScope(req.GameKind), req.PlayerID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if s.journal != nil && req.Scope != nil {
		if err := s.journal.RecordCommitment(r.Context(), req.GameKind, req.Scope.InstanceID, req.Scope.Round, req.PlayerID, commitment); err != nil {
			s.logger.Error("commitment journal write failed", "err", err)
		}
	}
	s.writeJSON(w, http.StatusOK, commitmentResponse{Commitment: commitment})
}

type revealRequest struct {
	GameKind    string        `json:"gameKind"`
	ActionValue uint64        `json:"actionValue"`
	Scope       *scopeRequest `json:"scope,omitempty"`
}

func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	var req revealRequest
	if !s.decode(w, r, &req) {
		return
	}
	payload, err := s.coordinator.PrepareReveal(commit.Kind(req.GameKind), req.Scope.toScope(req.GameKind), req.ActionValue)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, payload)
}

type revealSecretRequest struct {
	GameKind string        `json:"gameKind"`
	Scope    *scopeRequest `json:"scope,omitempty"`
}

type revealSecretResponse struct {
	Secret string `json:"secret"`
}

func (s *Server) handleRevealSecret(w http.ResponseWriter, r *http.Request) {
	var req revealSecretRequest
	if !s.decode(w, r, &req) {
		return
	}
	sec, err := s.coordinator.RevealSecret(commit.Kind(req.GameKind), req.Scope.toScope(req.GameKind))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, revealSecretResponse{Secret: sec})
}

type submitCommitRequest struct {
	GameKind   string `json:"gameKind"`
	InstanceID string `json:"instanceId"`
	Round      uint64 `json:"round"`
	Player     string `json:"player"`
	Commitment string `json:"commitment"`
}

func (s *Server) handleSubmitCommit(w http.ResponseWriter, r *http.Request) {
	var req submitCommitRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Commitment == "" {
		s.writeError(w, apperr.Validationf("commitment is required"))
		return
	}
	if err := s.writer.SubmitCommit(r.Context(), req.GameKind, req.InstanceID, req.Round, req.Player, req.Commitment); err != nil {
		s.writeError(w, err)
		return
	}
	// Accepted, not confirmed: the outcome is only observable through
	// subsequent reads.
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "submitted"})
}

type submitRevealRequest struct {
	GameKind    string `json:"gameKind"`
	InstanceID  string `json:"instanceId"`
	Round       uint64 `json:"round"`
	Player      string `json:"player"`
	ActionValue uint64 `json:"actionValue"`
	Secret      string `json:"secret"`
}

func (s *Server) handleSubmitReveal(w http.ResponseWriter, r *http.Request) {
	var req submitRevealRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Secret == "" {
		s.writeError(w, apperr.Validationf("secret is required"))
		return
	}
	if err := s.writer.SubmitReveal(r.Context(), req.GameKind, req.InstanceID, req.Round, req.Player, req.ActionValue, req.Secret); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "submitted"})
}

type submitSettleRequest struct {
	GameKind   string `json:"gameKind"`
	InstanceID string `json:"instanceId"`
	Round      uint64 `json:"round"`
	Caller     string `json:"caller"`
}

func (s *Server) handleSubmitSettle(w http.ResponseWriter, r *http.Request) {
	var req submitSettleRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.writer.SubmitSettle(r.Context(), req.GameKind, req.InstanceID, req.Round, req.Caller); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "submitted"})
}

type watchRequest struct {
	GameKind   string `json:"gameKind"`
	InstanceID string `json:"instanceId"`
	Player     string `json:"player,omitempty"`
}

type watchResponse struct {
	Token string `json:"token"`
}

func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	var req watchRequest
	if !s.decode(w, r, &req) {
		return
	}
	h, err := s.manager.Watch(r.Context(), req.GameKind, req.InstanceID, req.Player)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, watchResponse{Token: h.Token})
}

func (s *Server) handleUnwatch(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Unwatch(r.Context(), r.PathValue("token")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.manager.Snapshot(r.PathValue("kind"), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeError(w, apperr.Validationf("malformed request body: %v", err))
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

type errorResponse struct {
	Error string      `json:"error"`
	Kind  apperr.Kind `json:"kind,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindConfiguration:
		status = http.StatusInternalServerError
	case apperr.KindInconsistentTransition:
		status = http.StatusConflict
	case apperr.KindExternal:
		status = http.StatusBadGateway
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}

	var ae *apperr.Error
	msg := err.Error()
	if errors.As(err, &ae) {
		msg = ae.Msg
	}
	s.writeJSON(w, status, errorResponse{Error: msg, Kind: apperr.KindOf(err)})
}
