package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/okian/palmares/pkg/metrics"

	_ "modernc.org/sqlite"
)

// Default store configuration constants. Two topic writes per ten minutes
// is the budget chat platforms commonly grant for channel edits.
const (
	defaultTopicWriteLimit  = 2
	defaultTopicWriteWindow = 10 * time.Minute
	defaultRecentLimit      = 50
	directChannelPrefix     = "dm:"
)

const schema = `
CREATE TABLE IF NOT EXISTS channels (
    id    TEXT PRIMARY KEY,
    topic TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS messages (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    channel_id TEXT NOT NULL,
    author_bot INTEGER NOT NULL DEFAULT 1,
    system     INTEGER NOT NULL DEFAULT 0,
    content    TEXT NOT NULL,
    controls   TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_channel ON messages(channel_id, id);

-- topic_writes: sliding window for the per-channel topic rate limit
CREATE TABLE IF NOT EXISTS topic_writes (
    channel_id TEXT NOT NULL,
    at         INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_topic_writes_channel ON topic_writes(channel_id, at);
`

// SQLiteStore is a self-hosted Platform backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB

	topicWriteLimit  int
	topicWriteWindow time.Duration
	recentLimit      int
	now              func() time.Time
}

var _ Platform = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) the store at path. The special path
// ":memory:" keeps everything in memory.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating store data dir: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening store database: %w", err)
	}
	// One connection serializes writers and keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging store database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating store database: %w", err)
	}

	s := &SQLiteStore{
		db:               db,
		topicWriteLimit:  defaultTopicWriteLimit,
		topicWriteWindow: defaultTopicWriteWindow,
		recentLimit:      defaultRecentLimit,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Topic returns the channel topic.
func (s *SQLiteStore) Topic(ctx context.Context, channelID string) (string, error) {
	defer observe("topic", time.Now())
	if channelID == "" {
		return "", ErrInvalidChannel
	}
	var topic string
	err := s.db.QueryRowContext(ctx, `SELECT topic FROM channels WHERE id = ?`, channelID).Scan(&topic)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading topic: %w", err)
	}
	return topic, nil
}

// SetTopic replaces the channel topic, subject to the sliding-window limit.
func (s *SQLiteStore) SetTopic(ctx context.Context, channelID, topic string) error {
	defer observe("set_topic", time.Now())
	if channelID == "" {
		return ErrInvalidChannel
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin topic write: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := s.now()
	since := now.Add(-s.topicWriteWindow).UnixNano()

	var (
		count  int
		oldest sql.NullInt64
	)
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*), MIN(at) FROM topic_writes WHERE channel_id = ? AND at > ?`,
		channelID, since,
	).Scan(&count, &oldest)
	if err != nil {
		return fmt.Errorf("counting topic writes: %w", err)
	}
	if count >= s.topicWriteLimit && oldest.Valid {
		metrics.RecordTopicRateLimited()
		retry := time.Unix(0, oldest.Int64).Add(s.topicWriteWindow).Sub(now)
		return &RateLimitedError{Retry: retry}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO channels (id, topic) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET topic = excluded.topic`,
		channelID, topic,
	); err != nil {
		return fmt.Errorf("writing topic: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO topic_writes (channel_id, at) VALUES (?, ?)`, channelID, now.UnixNano(),
	); err != nil {
		return fmt.Errorf("recording topic write: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM topic_writes WHERE channel_id = ? AND at <= ?`, channelID, since,
	); err != nil {
		return fmt.Errorf("pruning topic writes: %w", err)
	}
	return tx.Commit()
}

// PostMessage sends a bot-authored message.
func (s *SQLiteStore) PostMessage(ctx context.Context, channelID, content string, controls ...string) (Message, error) {
	return s.PostAs(ctx, channelID, Message{Content: content, AuthorIsBot: true, Controls: controls})
}

// PostAs sends a message with the author flags of m. It lets harnesses
// simulate users and system notices.
func (s *SQLiteStore) PostAs(ctx context.Context, channelID string, m Message) (Message, error) {
	defer observe("post_message", time.Now())
	if channelID == "" {
		return Message{}, ErrInvalidChannel
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (channel_id, author_bot, system, content, controls, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		channelID, m.AuthorIsBot, m.System, m.Content, strings.Join(m.Controls, "\n"), s.now().UnixNano(),
	)
	if err != nil {
		return Message{}, fmt.Errorf("posting message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Message{}, fmt.Errorf("posting message: %w", err)
	}
	m.ID = strconv.FormatInt(id, 10)
	m.ChannelID = channelID
	return m, nil
}

// EditMessage overwrites a message's content.
func (s *SQLiteStore) EditMessage(ctx context.Context, channelID, messageID, content string) error {
	defer observe("edit_message", time.Now())
	id, err := strconv.ParseInt(messageID, 10, 64)
	if err != nil {
		return ErrNotFound
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE messages SET content = ? WHERE id = ? AND channel_id = ?`, content, id, channelID,
	)
	if err != nil {
		return fmt.Errorf("editing message: %w", err)
	}
	return requireRow(res)
}

// DeleteMessage removes a message.
func (s *SQLiteStore) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	defer observe("delete_message", time.Now())
	id, err := strconv.ParseInt(messageID, 10, 64)
	if err != nil {
		return ErrNotFound
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ? AND channel_id = ?`, id, channelID)
	if err != nil {
		return fmt.Errorf("deleting message: %w", err)
	}
	return requireRow(res)
}

// FetchMessage returns one message of a channel.
func (s *SQLiteStore) FetchMessage(ctx context.Context, channelID, messageID string) (Message, error) {
	defer observe("fetch_message", time.Now())
	id, err := strconv.ParseInt(messageID, 10, 64)
	if err != nil {
		return Message{}, ErrNotFound
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, channel_id, content, author_bot, system, controls
		 FROM messages WHERE id = ? AND channel_id = ?`, id, channelID,
	)
	m, err := scanMessage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Message{}, ErrNotFound
	}
	if err != nil {
		return Message{}, fmt.Errorf("fetching message: %w", err)
	}
	return m, nil
}

// RecentMessages returns up to the configured number of latest messages.
func (s *SQLiteStore) RecentMessages(ctx context.Context, channelID string) ([]Message, error) {
	defer observe("recent_messages", time.Now())
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, channel_id, content, author_bot, system, controls
		 FROM messages WHERE channel_id = ? ORDER BY id DESC LIMIT ?`, channelID, s.recentLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("listing messages: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// DirectChannel returns the private channel id for a user.
func (s *SQLiteStore) DirectChannel(_ context.Context, userID string) (string, error) {
	if userID == "" {
		return "", ErrInvalidChannel
	}
	return directChannelPrefix + userID, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMessage(row scanner) (Message, error) {
	var (
		m        Message
		id       int64
		controls string
	)
	if err := row.Scan(&id, &m.ChannelID, &m.Content, &m.AuthorIsBot, &m.System, &controls); err != nil {
		return Message{}, err
	}
	m.ID = strconv.FormatInt(id, 10)
	if controls != "" {
		m.Controls = strings.Split(controls, "\n")
	}
	return m, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func observe(op string, start time.Time) {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Microseconds())/1000)
}
