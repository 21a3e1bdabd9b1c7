// Package types contains the request and result shapes shared by the
// orchestrator and the HTTP layer.
package types

// CreateRequest asks for a new ranking in a channel.
type CreateRequest struct {
	ChannelID     string  `json:"channel_id"`
	Title         string  `json:"title"`
	Scale         float64 `json:"scale"`
	InteractionID string  `json:"interaction_id"`
}

// ResetRequest starts a new epoch in a channel.
type ResetRequest struct {
	ChannelID     string `json:"channel_id"`
	InteractionID string `json:"interaction_id"`
}

// PressRequest is a user pressing the submit control of a ranking.
type PressRequest struct {
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id"`
	UserID    string `json:"user_id"`
	Control   string `json:"control"`
}

// ConfirmRequest carries the grade a user typed after pressing submit.
// MessageID is the ranking message the control belongs to.
type ConfirmRequest struct {
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id"`
	UserID    string `json:"user_id"`
	Control   string `json:"control"`
	Grade     string `json:"grade"`
}

// SubmitRequest presses and confirms in one call. Control is the
// ranking's submit control.
type SubmitRequest struct {
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id"`
	UserID    string `json:"user_id"`
	Control   string `json:"control"`
	Grade     string `json:"grade"`
}

// InteractionRequest is any control interaction. The control text decides
// which operation runs.
type InteractionRequest struct {
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id"`
	UserID    string `json:"user_id"`
	Control   string `json:"control"`
	Grade     string `json:"grade"`
}

// AdminOp names an administrative ledger edit.
type AdminOp string

// Administrative edits.
const (
	AdminAdd    AdminOp = "add"
	AdminRemove AdminOp = "remove"
)

// AdminRequest edits a ranking's entries directly.
type AdminRequest struct {
	ChannelID string  `json:"channel_id"`
	MessageID string  `json:"message_id"`
	Op        AdminOp `json:"op"`
	Grade     string  `json:"grade"`
}

// Result is the outcome of a successful operation.
type Result struct {
	// Reply is the localized text shown to the user.
	Reply string `json:"reply"`
	// MessageID is the ranking message created or edited.
	MessageID string `json:"message_id,omitempty"`
	// Topic is the channel topic written, if any.
	Topic string `json:"topic,omitempty"`
	// Control is the confirm control to attach to a grade prompt.
	Control string `json:"control,omitempty"`
	// Prompt is the localized grade prompt shown after a press.
	Prompt string `json:"prompt,omitempty"`
	// Position is the 1-based position of an inserted grade.
	Position int `json:"position,omitempty"`
}

// StandingEntry is one row of a ranking.
type StandingEntry struct {
	Position int     `json:"position"`
	Grade    string  `json:"grade"`
	Value    float64 `json:"value"`
}

// Standings is a read-only view of a ranking with summary statistics.
type Standings struct {
	MessageID string          `json:"message_id"`
	Sequence  uint64          `json:"sequence"`
	Title     string          `json:"title"`
	Scale     float64         `json:"scale"`
	Count     int             `json:"count"`
	Min       float64         `json:"min"`
	Max       float64         `json:"max"`
	Mean      float64         `json:"mean"`
	Median    float64         `json:"median"`
	Entries   []StandingEntry `json:"entries"`
}
