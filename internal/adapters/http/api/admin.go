package api

import (
	"context"
	"net/http"

	"github.com/okian/palmares/internal/domain/types"
)

// AdminDependencies defines the administrative ledger edits.
type AdminDependencies interface {
	Replier
	Admin(ctx context.Context, req types.AdminRequest) (types.Result, error)
}

// AdminHandler handles operator edits of rankings.
type AdminHandler struct {
	deps AdminDependencies
	responder
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(deps AdminDependencies, rs responder) *AdminHandler {
	return &AdminHandler{deps: deps, responder: rs}
}

// HandleGrades handles POST /admin/grades requests. The op field selects
// between adding and removing a grade.
func (h *AdminHandler) HandleGrades(w http.ResponseWriter, r *http.Request) {
	const op = "api.admin_grades"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req types.AdminRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", types.WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.Admin(r.Context(), req)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
