package api

import (
	"context"
	"net/http"

	"github.com/okian/palmares/internal/domain/types"
)

// RankingDependencies defines the operations behind ranking creation and reset.
type RankingDependencies interface {
	Replier
	CreateRanking(ctx context.Context, req types.CreateRequest) (types.Result, error)
	Reset(ctx context.Context, req types.ResetRequest) (types.Result, error)
}

// RankingsHandler handles ranking creation and epoch resets.
type RankingsHandler struct {
	deps RankingDependencies
	responder
}

// NewRankingsHandler creates a new rankings handler.
func NewRankingsHandler(deps RankingDependencies, rs responder) *RankingsHandler {
	return &RankingsHandler{deps: deps, responder: rs}
}

// HandleCreate handles POST /rankings requests.
func (h *RankingsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_ranking"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req types.CreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", types.WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.CreateRanking(r.Context(), req)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// HandleReset handles POST /reset requests.
func (h *RankingsHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	const op = "api.reset"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req types.ResetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", types.WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.Reset(r.Context(), req)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
