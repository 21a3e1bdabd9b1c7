// Package repository defines the chat platform port the ranking core reads
// and writes its state through, and a SQLite implementation of it.
package repository

import "context"

// Message is a platform message as seen by the bot.
type Message struct {
	ID          string
	ChannelID   string
	Content     string
	AuthorIsBot bool
	System      bool
	// Controls are the identifiers of interactive components attached to
	// the message.
	Controls []string
}

// Platform provides the channel topic and message stream of a chat
// platform. Writes are blind overwrites; there is no compare-and-swap.
type Platform interface {
	// Topic returns the channel topic, empty if none was ever set.
	Topic(ctx context.Context, channelID string) (string, error)
	// SetTopic replaces the channel topic.
	// Returns a *RateLimitedError when the channel's topic budget is spent.
	SetTopic(ctx context.Context, channelID, topic string) error

	// PostMessage sends a bot message with optional controls.
	PostMessage(ctx context.Context, channelID, content string, controls ...string) (Message, error)
	// EditMessage replaces a message's content. Returns ErrNotFound if gone.
	EditMessage(ctx context.Context, channelID, messageID, content string) error
	// FetchMessage returns one message. Returns ErrNotFound if gone.
	FetchMessage(ctx context.Context, channelID, messageID string) (Message, error)
	// RecentMessages returns the latest messages of a channel, newest first.
	RecentMessages(ctx context.Context, channelID string) ([]Message, error)

	// DirectChannel returns the private channel between the bot and a user.
	DirectChannel(ctx context.Context, userID string) (string, error)
}
