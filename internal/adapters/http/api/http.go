// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/palmares/internal/domain/types"
	"github.com/okian/palmares/pkg/logger"
)

// Replier renders a failed operation as user-visible text.
type Replier interface {
	Reply(err error) string
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	RankingDependencies
	InteractionDependencies
	AdminDependencies
	MessageDependencies
	StatsProvider
}

// Server wires HTTP routes for the ranking API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	rankingsHandler    *RankingsHandler
	interactionHandler *InteractionsHandler
	adminHandler       *AdminHandler
	messagesHandler    *MessagesHandler
	log                logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, log logger.Logger) *Server {
	rs := responder{replier: deps, log: log}
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		rankingsHandler:    NewRankingsHandler(deps, rs),
		interactionHandler: NewInteractionsHandler(deps, rs),
		adminHandler:       NewAdminHandler(deps, rs),
		messagesHandler:    NewMessagesHandler(deps, rs),
		log:                log,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	route := func(path, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(path, MetricsMiddleware(RecoverMiddleware(h, s.log), endpoint))
	}

	route("/healthz", "healthz", s.healthHandler.HandleHealth)
	route("/stats", "stats", s.statsHandler.HandleStats)
	route("/rankings", "rankings", s.rankingsHandler.HandleCreate)
	route("/reset", "reset", s.rankingsHandler.HandleReset)
	route("/interactions", "interactions", s.interactionHandler.HandleInteraction)
	route("/interactions/press", "interactions_press", s.interactionHandler.HandlePress)
	route("/interactions/confirm", "interactions_confirm", s.interactionHandler.HandleConfirm)
	route("/interactions/submit", "interactions_submit", s.interactionHandler.HandleSubmit)
	route("/admin/grades", "admin_grades", s.adminHandler.HandleGrades)
	route("/messages", "messages", s.messagesHandler.HandleGetMessage)
	route("/standings", "standings", s.messagesHandler.HandleStandings)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// responder turns operation failures into localized error responses.
type responder struct {
	replier Replier
	log     logger.Logger
}

func (rs responder) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	kind := types.Kind(err)
	status := statusFor(kind)

	if errors.Is(kind, types.ErrRateLimited) {
		var ra interface{ RetryAfter() time.Duration }
		if errors.As(err, &ra) {
			secs := int(math.Ceil(ra.RetryAfter().Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
		}
	}
	if status >= http.StatusInternalServerError && rs.log != nil {
		rs.log.Error(r.Context(), "request failed",
			logger.String("op", op),
			logger.String("path", r.URL.Path),
			logger.Error(err),
		)
	}
	writeJSON(w, status, errorResponse{Code: types.Label(err), Message: rs.replier.Reply(err)})
}

// statusFor maps a failure kind to its HTTP status.
func statusFor(kind error) int {
	switch kind {
	case types.ErrInvalidRequest, types.ErrInvalidTitle, types.ErrInvalidScale,
		types.ErrInvalidGrade, types.ErrInvalidControl, types.ErrNotARanking,
		types.ErrEmptyLedger:
		return http.StatusBadRequest
	case types.ErrTargetMissing, types.ErrGradeNotFound:
		return http.StatusNotFound
	case types.ErrAlreadySubmitted, types.ErrDuplicate:
		return http.StatusConflict
	case types.ErrExpired:
		return http.StatusGone
	case types.ErrRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
