package api

import (
	"context"
	"net/http"

	repository "github.com/okian/palmares/internal/adapters/repository"
	"github.com/okian/palmares/internal/domain/types"
)

// MessageDependencies defines the read-only message views.
type MessageDependencies interface {
	Replier
	Message(ctx context.Context, channelID, messageID string) (repository.Message, error)
	Standings(ctx context.Context, channelID, messageID string) (types.Standings, error)
}

// messageResponse is the JSON shape of a platform message.
type messageResponse struct {
	ID          string   `json:"id"`
	ChannelID   string   `json:"channel_id"`
	Content     string   `json:"content"`
	AuthorIsBot bool     `json:"author_is_bot"`
	System      bool     `json:"system"`
	Controls    []string `json:"controls"`
}

// MessagesHandler serves raw ranking posts and their standings.
type MessagesHandler struct {
	deps MessageDependencies
	responder
}

// NewMessagesHandler creates a new messages handler.
func NewMessagesHandler(deps MessageDependencies, rs responder) *MessagesHandler {
	return &MessagesHandler{deps: deps, responder: rs}
}

// HandleGetMessage handles GET /messages?channel_id=&message_id= requests.
func (h *MessagesHandler) HandleGetMessage(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_message"
	channelID, messageID, ok := messageQuery(w, r, op)
	if !ok {
		return
	}
	m, err := h.deps.Message(r.Context(), channelID, messageID)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	controls := m.Controls
	if controls == nil {
		controls = []string{}
	}
	writeJSON(w, http.StatusOK, messageResponse{
		ID:          m.ID,
		ChannelID:   m.ChannelID,
		Content:     m.Content,
		AuthorIsBot: m.AuthorIsBot,
		System:      m.System,
		Controls:    controls,
	})
}

// HandleStandings handles GET /standings?channel_id=&message_id= requests.
func (h *MessagesHandler) HandleStandings(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_standings"
	channelID, messageID, ok := messageQuery(w, r, op)
	if !ok {
		return
	}
	st, err := h.deps.Standings(r.Context(), channelID, messageID)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func messageQuery(w http.ResponseWriter, r *http.Request, op string) (string, string, bool) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return "", "", false
	}
	q := r.URL.Query()
	channelID, messageID := q.Get("channel_id"), q.Get("message_id")
	if channelID == "" || messageID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", types.NewKind(op, ErrBadRequest))
		return "", "", false
	}
	return channelID, messageID, true
}
