package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"crossvote/engine"
	domainerrors "crossvote/engine/domain/errors"
	enginehttp "crossvote/engine/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "crossvote/internal/platform/httpserver/docs"
)

type Server struct {
	mux    *http.ServeMux
	logger *slog.Logger
	addr   string
	engine engine.Module
}

func New(engineModule engine.Module, logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:    http.NewServeMux(),
		logger: logger,
		addr:   addr,
		engine: engineModule,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("POST /api/engine/v1/posts", s.handleSubmitPost)
	s.mux.HandleFunc("POST /api/engine/v1/votes", s.handleCastVote)
	s.mux.HandleFunc("GET /api/engine/v1/posts/{message_id}/tally", s.handlePostTally)

	s.mux.HandleFunc("POST /api/engine/v1/entitlements", s.handleGrantEntitlement)
	s.mux.HandleFunc("GET /api/engine/v1/entitlements/{user_id}", s.handleGetEntitlement)
	s.mux.HandleFunc("DELETE /api/engine/v1/entitlements/{user_id}", s.handleRevokeEntitlement)

	s.mux.HandleFunc("POST /api/engine/v1/bans", s.handleBanUser)
	s.mux.HandleFunc("DELETE /api/engine/v1/bans/{user_id}", s.handleUnbanUser)

	s.mux.HandleFunc("PUT /api/engine/v1/spaces", s.handleConfigureSpace)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, enginehttp.StatusResponse{Status: "ok"})
}

func (s *Server) handleSubmitPost(w http.ResponseWriter, r *http.Request) {
	var req enginehttp.SubmitPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEngineError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.engine.Handler.SubmitPostHandler(r.Context(), req)
	if err != nil {
		writeEngineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	var req enginehttp.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEngineError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.engine.Handler.CastVoteHandler(r.Context(), req)
	if err != nil {
		writeEngineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePostTally(w http.ResponseWriter, r *http.Request) {
	messageID := r.PathValue("message_id")
	resp, err := s.engine.Handler.PostTallyHandler(r.Context(), messageID)
	if err != nil {
		writeEngineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGrantEntitlement(w http.ResponseWriter, r *http.Request) {
	var req enginehttp.GrantEntitlementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEngineError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.engine.Handler.GrantEntitlementHandler(r.Context(), req)
	if err != nil {
		writeEngineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetEntitlement(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	resp, found, err := s.engine.Handler.GetEntitlementHandler(r.Context(), userID)
	if err != nil {
		writeEngineDomainError(w, err)
		return
	}
	if !found {
		writeEngineError(w, http.StatusNotFound, "entitlement_not_found", "no entitlement for user")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRevokeEntitlement(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	if err := s.engine.Handler.RevokeEntitlementHandler(r.Context(), userID); err != nil {
		writeEngineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, enginehttp.StatusResponse{Status: "revoked"})
}

func (s *Server) handleBanUser(w http.ResponseWriter, r *http.Request) {
	var req enginehttp.BanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEngineError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.engine.Handler.BanUserHandler(r.Context(), req); err != nil {
		writeEngineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, enginehttp.StatusResponse{Status: "banned"})
}

func (s *Server) handleUnbanUser(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	if err := s.engine.Handler.UnbanUserHandler(r.Context(), userID); err != nil {
		writeEngineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, enginehttp.StatusResponse{Status: "unbanned"})
}

func (s *Server) handleConfigureSpace(w http.ResponseWriter, r *http.Request) {
	var req enginehttp.ConfigureSpaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEngineError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.engine.Handler.ConfigureSpaceHandler(r.Context(), req); err != nil {
		writeEngineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, enginehttp.StatusResponse{Status: "configured"})
}

func writeEngineDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domainerrors.ErrPostNotFound):
		writeEngineError(w, http.StatusNotFound, "post_not_found", err.Error())
	case errors.Is(err, domainerrors.ErrSelfVoteForbidden):
		writeEngineError(w, http.StatusForbidden, "self_vote_forbidden", err.Error())
	case errors.Is(err, domainerrors.ErrUserBanned):
		writeEngineError(w, http.StatusForbidden, "user_banned", err.Error())
	case errors.Is(err, domainerrors.ErrAlreadyVoted):
		writeEngineError(w, http.StatusConflict, "already_voted", err.Error())
	case errors.Is(err, domainerrors.ErrQuotaExceeded):
		writeEngineError(w, http.StatusTooManyRequests, "quota_exceeded", err.Error())
	case errors.Is(err, domainerrors.ErrSpaceNotConfigured):
		writeEngineError(w, http.StatusConflict, "space_not_configured", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidTier),
		errors.Is(err, domainerrors.ErrInvalidVoteKind),
		errors.Is(err, domainerrors.ErrInvalidPostInput):
		writeEngineError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, domainerrors.ErrDeliveryFailed):
		writeEngineError(w, http.StatusBadGateway, "delivery_failed", err.Error())
	default:
		writeEngineError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeEngineError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, enginehttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
