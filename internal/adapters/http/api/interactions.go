package api

import (
	"context"
	"net/http"

	"github.com/okian/palmares/internal/domain/types"
)

// InteractionDependencies defines the operations behind control interactions.
type InteractionDependencies interface {
	Replier
	Interact(ctx context.Context, req types.InteractionRequest) (types.Result, error)
	PressSubmit(ctx context.Context, req types.PressRequest) (types.Result, error)
	ConfirmSubmit(ctx context.Context, req types.ConfirmRequest) (types.Result, error)
	Submit(ctx context.Context, req types.SubmitRequest) (types.Result, error)
}

// InteractionsHandler handles presses on ranking controls.
type InteractionsHandler struct {
	deps InteractionDependencies
	responder
}

// NewInteractionsHandler creates a new interactions handler.
func NewInteractionsHandler(deps InteractionDependencies, rs responder) *InteractionsHandler {
	return &InteractionsHandler{deps: deps, responder: rs}
}

// HandleInteraction handles POST /interactions; the control text selects
// the operation.
func (h *InteractionsHandler) HandleInteraction(w http.ResponseWriter, r *http.Request) {
	serveInteraction(h, w, r, "api.interact", h.deps.Interact)
}

// HandlePress handles POST /interactions/press requests.
func (h *InteractionsHandler) HandlePress(w http.ResponseWriter, r *http.Request) {
	serveInteraction(h, w, r, "api.press_submit", h.deps.PressSubmit)
}

// HandleConfirm handles POST /interactions/confirm requests.
func (h *InteractionsHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	serveInteraction(h, w, r, "api.confirm_submit", h.deps.ConfirmSubmit)
}

// HandleSubmit handles POST /interactions/submit requests.
func (h *InteractionsHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	serveInteraction(h, w, r, "api.submit", h.deps.Submit)
}

func serveInteraction[Req any](h *InteractionsHandler, w http.ResponseWriter, r *http.Request, op string,
	call func(context.Context, Req) (types.Result, error),
) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req Req
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", types.WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := call(r.Context(), req)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
