package service

import (
	"context"
	"errors"
	"strings"
	"time"

	repository "github.com/okian/palmares/internal/adapters/repository"
	"github.com/okian/palmares/internal/domain/codec"
	"github.com/okian/palmares/internal/domain/ledger"
	"github.com/okian/palmares/internal/domain/types"
	"github.com/okian/palmares/internal/i18n"
	"github.com/okian/palmares/pkg/logger"
	"github.com/okian/palmares/pkg/metrics"
)

// AdminAddGrade inserts a grade into a ranking on behalf of an operator.
func (s *Service) AdminAddGrade(ctx context.Context, req types.AdminRequest) (res types.Result, err error) {
	const op = "app.admin_add_grade"
	if err := s.ready(op); err != nil {
		return types.Result{}, err
	}
	defer func(start time.Time) { s.observe(ctx, op, start, err) }(time.Now())

	msg, _, err := s.loadRanking(ctx, op, req.ChannelID, req.MessageID)
	if err != nil {
		return types.Result{}, err
	}
	grade, err := ledger.ParseGrade(req.Grade)
	if err != nil {
		return types.Result{}, types.WrapKind(op, types.ErrInvalidGrade, err)
	}

	var position int
	if _, err := s.mutateLedger(ctx, op, req.ChannelID, msg, func(l *ledger.Ledger) error {
		position = l.Insert(grade)
		return nil
	}); err != nil {
		return types.Result{}, err
	}
	return types.Result{
		Reply:     s.printer.Sprintf(i18n.GradeAdded),
		MessageID: msg.ID,
		Position:  position,
	}, nil
}

// AdminRemoveGrade removes the first entry, from the top, whose grade text
// equals the given one.
func (s *Service) AdminRemoveGrade(ctx context.Context, req types.AdminRequest) (res types.Result, err error) {
	const op = "app.admin_remove_grade"
	if err := s.ready(op); err != nil {
		return types.Result{}, err
	}
	defer func(start time.Time) { s.observe(ctx, op, start, err) }(time.Now())

	msg, current, err := s.loadRanking(ctx, op, req.ChannelID, req.MessageID)
	if err != nil {
		return types.Result{}, err
	}
	if current.Len() == 0 {
		return types.Result{}, types.NewKind(op, types.ErrEmptyLedger)
	}
	grade, err := ledger.ParseGrade(req.Grade)
	if err != nil {
		return types.Result{}, types.WrapKind(op, types.ErrInvalidGrade, err)
	}

	if _, err := s.mutateLedger(ctx, op, req.ChannelID, msg, func(l *ledger.Ledger) error {
		if l.Len() == 0 {
			return types.NewKind(op, types.ErrEmptyLedger)
		}
		if !l.RemoveByGrade(grade.Text) {
			return types.NewKind(op, types.ErrGradeNotFound)
		}
		return nil
	}); err != nil {
		return types.Result{}, err
	}
	return types.Result{
		Reply:     s.printer.Sprintf(i18n.GradeRemoved),
		MessageID: msg.ID,
	}, nil
}

// Admin dispatches an administrative edit by its op.
func (s *Service) Admin(ctx context.Context, req types.AdminRequest) (types.Result, error) {
	switch req.Op {
	case types.AdminAdd:
		return s.AdminAddGrade(ctx, req)
	case types.AdminRemove:
		return s.AdminRemoveGrade(ctx, req)
	default:
		return types.Result{}, types.NewKind("app.admin", types.ErrInvalidRequest)
	}
}

// Standings decodes a ranking and summarizes its grades. It never writes.
func (s *Service) Standings(ctx context.Context, channelID, messageID string) (res types.Standings, err error) {
	const op = "app.standings"
	if err := s.ready(op); err != nil {
		return types.Standings{}, err
	}
	defer func(start time.Time) { s.observe(ctx, op, start, err) }(time.Now())

	msg, l, err := s.loadRanking(ctx, op, channelID, messageID)
	if err != nil {
		return types.Standings{}, err
	}
	sum := l.Summary()
	entries := make([]types.StandingEntry, len(l.Entries))
	for i, e := range l.Entries {
		entries[i] = types.StandingEntry{Position: e.Position, Grade: e.Grade.Text, Value: e.Grade.Value}
	}
	return types.Standings{
		MessageID: msg.ID,
		Sequence:  l.Sequence,
		Title:     l.Title,
		Scale:     l.Scale,
		Count:     sum.Count,
		Min:       sum.Min,
		Max:       sum.Max,
		Mean:      sum.Mean,
		Median:    sum.Median,
		Entries:   entries,
	}, nil
}

// Message returns a raw platform message.
func (s *Service) Message(ctx context.Context, channelID, messageID string) (repository.Message, error) {
	const op = "app.message"
	if err := s.ready(op); err != nil {
		return repository.Message{}, err
	}
	m, err := s.platform.FetchMessage(ctx, channelID, messageID)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Message{}, types.WrapKind(op, types.ErrTargetMissing, err)
	}
	if err != nil {
		return repository.Message{}, types.Wrap(op, err)
	}
	return m, nil
}

// loadRanking fetches a message and decodes it as a ranking. Only
// bot-authored, non-system messages are rankings.
func (s *Service) loadRanking(ctx context.Context, op, channelID, messageID string) (repository.Message, *ledger.Ledger, error) {
	if strings.TrimSpace(channelID) == "" || strings.TrimSpace(messageID) == "" {
		return repository.Message{}, nil, types.NewKind(op, types.ErrInvalidRequest)
	}
	msg, err := s.platform.FetchMessage(ctx, channelID, messageID)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Message{}, nil, types.WrapKind(op, types.ErrTargetMissing, err)
	}
	if err != nil {
		return repository.Message{}, nil, types.Wrap(op, err)
	}
	if !msg.AuthorIsBot || msg.System {
		return repository.Message{}, nil, types.NewKind(op, types.ErrNotARanking)
	}
	l, err := codec.DecodeLedger(msg.Content)
	if err != nil {
		return repository.Message{}, nil, types.WrapKind(op, types.ErrMalformedState, err)
	}
	return msg, l, nil
}

// mutateLedger applies mutate to the ranking in msg and writes it back.
// Before writing, the post is fetched again; if it changed since it was
// decoded the mutation is applied to the new text instead, up to
// submitRetries times. The last attempt overwrites blindly.
func (s *Service) mutateLedger(ctx context.Context, op, channelID string, msg repository.Message, mutate func(*ledger.Ledger) error) (*ledger.Ledger, error) {
	body := msg.Content
	for attempt := 0; ; attempt++ {
		l, err := codec.DecodeLedger(body)
		if err != nil {
			return nil, types.WrapKind(op, types.ErrMalformedState, err)
		}
		if err := mutate(l); err != nil {
			return nil, err
		}
		out := codec.EncodeLedger(l)

		if attempt < s.submitRetries {
			latest, err := s.platform.FetchMessage(ctx, channelID, msg.ID)
			if errors.Is(err, repository.ErrNotFound) {
				return nil, types.WrapKind(op, types.ErrTargetMissing, err)
			}
			if err != nil {
				return nil, types.Wrap(op, err)
			}
			if latest.Content != body {
				metrics.RecordLedgerWriteRetry()
				s.logger.Debug(ctx, "ranking changed before write, re-applying",
					logger.String("message", msg.ID),
					logger.Int("attempt", attempt+1),
				)
				body = latest.Content
				continue
			}
		}

		if err := s.platform.EditMessage(ctx, channelID, msg.ID, out); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, types.WrapKind(op, types.ErrTargetMissing, err)
			}
			return nil, types.Wrap(op, err)
		}
		metrics.ObserveLedgerSize(l.Len())
		return l, nil
	}
}
