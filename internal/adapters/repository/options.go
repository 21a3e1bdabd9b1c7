package repository

import "time"

// Option applies a configuration option to the SQLiteStore.
type Option func(*SQLiteStore)

// WithTopicWriteLimit bounds topic writes per channel to limit per window.
func WithTopicWriteLimit(limit int, window time.Duration) Option {
	return func(s *SQLiteStore) {
		if limit > 0 && window > 0 {
			s.topicWriteLimit = limit
			s.topicWriteWindow = window
		}
	}
}

// WithRecentLimit sets how many messages RecentMessages returns.
func WithRecentLimit(n int) Option {
	return func(s *SQLiteStore) {
		if n > 0 {
			s.recentLimit = n
		}
	}
}

// WithClock replaces the time source used for rate limiting.
func WithClock(now func() time.Time) Option {
	return func(s *SQLiteStore) {
		if now != nil {
			s.now = now
		}
	}
}
