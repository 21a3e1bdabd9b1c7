// Package service implements the ranking operations on top of the chat
// platform port. Every operation re-reads the state it needs from the
// platform, mutates it and writes it back; nothing is cached in between.
package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/message"

	repository "github.com/okian/palmares/internal/adapters/repository"
	"github.com/okian/palmares/internal/domain/dedupe"
	"github.com/okian/palmares/internal/domain/ledger"
	"github.com/okian/palmares/internal/domain/types"
	"github.com/okian/palmares/internal/i18n"
	"github.com/okian/palmares/pkg/logger"
	"github.com/okian/palmares/pkg/metrics"
)

// Service implements the API dependencies for the ranking bot.
type Service struct {
	mu sync.RWMutex

	platform repository.Platform

	// interactions drops redelivered create and reset requests.
	interactions dedupe.Deduper

	// Configuration
	defaultScale  float64
	submitRetries int
	locale        string
	newID         func() string

	printer *message.Printer
	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithPlatform sets the chat platform the service reads and writes.
func WithPlatform(p repository.Platform) Option {
	return func(s *Service) {
		s.platform = p
	}
}

// WithDeduper sets the store of handled interaction ids.
func WithDeduper(d dedupe.Deduper) Option {
	return func(s *Service) {
		if d != nil {
			s.interactions = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDefaultScale sets the scale used when a ranking is created without one.
func WithDefaultScale(scale float64) Option {
	return func(s *Service) {
		if scale > 0 && scale <= maxScale {
			s.defaultScale = scale
		}
	}
}

// WithSubmitRetries bounds how often a ledger mutation is re-applied when
// the post changed under us. Zero disables the check.
func WithSubmitRetries(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.submitRetries = n
		}
	}
}

// WithLocale selects the reply language.
func WithLocale(locale string) Option {
	return func(s *Service) {
		s.locale = locale
	}
}

// WithIDGenerator replaces the epoch id generator used when a request
// carries no usable interaction id.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		defaultScale:  ledger.DefaultScale,
		submitRetries: 3,
		locale:        "fr",
		newID:         uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.interactions == nil {
		s.interactions = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(defaultDedupeSize))
	}
	s.printer = i18n.Printer(s.locale)
	return s
}

// Start checks the wiring and makes the service ready to serve.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.platform == nil {
		return ErrNoPlatform
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.started = true
	s.logger.Info(ctx, "ranking service started",
		logger.Float64("defaultScale", s.defaultScale),
		logger.Int("submitRetries", s.submitRetries),
		logger.String("locale", i18n.Tag(s.locale).String()),
	)
	return nil
}

// Stop releases the platform if it owns resources.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if closer, ok := s.platform.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			s.logger.Warn(context.Background(), "closing platform", logger.Error(err))
		}
	}
	s.started = false
	s.logger.Info(context.Background(), "ranking service stopped")
}

// GetStats returns service settings for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"started":       s.started,
		"defaultScale":  s.defaultScale,
		"submitRetries": s.submitRetries,
		"locale":        i18n.Tag(s.locale).String(),
	}
}

func (s *Service) ready(op string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return types.NewKind(op, ErrNotStarted)
	}
	return nil
}

// observe records the outcome of an operation and logs failures.
func (s *Service) observe(ctx context.Context, op string, start time.Time, err error) {
	elapsed := time.Since(start)
	outcome := Outcome(err)
	metrics.RecordOperation(op, outcome)
	metrics.RecordOperationLatency(op, float64(elapsed.Microseconds())/1000)

	if err == nil || errors.Is(err, ErrNotStarted) {
		return
	}
	fields := []logger.Field{
		logger.String("op", op),
		logger.String("outcome", outcome),
		logger.Duration("elapsed", elapsed),
		logger.Error(err),
	}
	switch types.Kind(err) {
	case types.ErrInternal, types.ErrMalformedState:
		s.logger.Error(ctx, "ranking operation failed", fields...)
	default:
		s.logger.Warn(ctx, "ranking operation refused", fields...)
	}
}
