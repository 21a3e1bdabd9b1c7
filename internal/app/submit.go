package service

import (
	"context"
	"errors"
	"strings"
	"time"

	repository "github.com/okian/palmares/internal/adapters/repository"
	"github.com/okian/palmares/internal/domain/codec"
	"github.com/okian/palmares/internal/domain/epoch"
	"github.com/okian/palmares/internal/domain/ledger"
	"github.com/okian/palmares/internal/domain/tracker"
	"github.com/okian/palmares/internal/domain/types"
	"github.com/okian/palmares/internal/i18n"
	"github.com/okian/palmares/pkg/logger"
	"github.com/okian/palmares/pkg/metrics"
)

// PressSubmit handles a press on a ranking's submit control. It refuses
// expired rankings and users who already submitted, and otherwise returns
// the confirm control to attach to the grade prompt.
func (s *Service) PressSubmit(ctx context.Context, req types.PressRequest) (res types.Result, err error) {
	const op = "app.press_submit"
	if err := s.ready(op); err != nil {
		return types.Result{}, err
	}
	defer func(start time.Time) { s.observe(ctx, op, start, err) }(time.Now())

	if strings.TrimSpace(req.ChannelID) == "" || strings.TrimSpace(req.UserID) == "" {
		return types.Result{}, types.NewKind(op, types.ErrInvalidRequest)
	}
	ctl, err := codec.ParseSubmitControl(req.Control)
	if err != nil {
		return types.Result{}, types.WrapKind(op, types.ErrInvalidControl, err)
	}
	counter, err := s.checkLive(ctx, op, req.ChannelID, ctl.EpochID)
	if err != nil {
		return types.Result{}, err
	}
	if !issued(ctl.Sequence, counter) {
		return types.Result{}, types.NewKind(op, types.ErrInvalidControl)
	}
	msg, _, err := s.loadRanking(ctx, op, req.ChannelID, req.MessageID)
	if err != nil {
		return types.Result{}, err
	}
	own, err := rankingControl(op, msg)
	if err != nil {
		return types.Result{}, err
	}
	if own.EpochID != ctl.EpochID {
		return types.Result{}, types.NewKind(op, types.ErrExpired)
	}
	if own.Sequence != ctl.Sequence {
		return types.Result{}, types.NewKind(op, types.ErrInvalidControl)
	}

	prior, priorID, err := s.findRecord(ctx, req.UserID, ctl.EpochID)
	if err != nil {
		return types.Result{}, types.Wrap(op, err)
	}
	mask := tracker.LoadOrInit(prior, ctl.EpochID)
	if tracker.HasSubmitted(mask, ctl.Sequence) {
		return types.Result{}, types.NewKind(op, types.ErrAlreadySubmitted)
	}

	confirm := codec.ConfirmControl{
		PriorMessageID: priorID,
		EpochID:        ctl.EpochID,
		Mask:           tracker.MarkSubmitted(mask, ctl.Sequence),
	}
	prompt := s.printer.Sprintf(i18n.SubmitPrompt, codec.FormatScale(ctl.Scale))
	return types.Result{
		Reply:     prompt,
		Prompt:    prompt,
		Control:   confirm.Encode(),
		MessageID: req.MessageID,
	}, nil
}

// ConfirmSubmit inserts the typed grade into the ranking the confirm
// control was issued for, then records the submission in the user's
// private channel. Expiry and the user's record are checked again against
// live state since the prompt may have been open for a while.
func (s *Service) ConfirmSubmit(ctx context.Context, req types.ConfirmRequest) (res types.Result, err error) {
	const op = "app.confirm_submit"
	if err := s.ready(op); err != nil {
		return types.Result{}, err
	}
	defer func(start time.Time) { s.observe(ctx, op, start, err) }(time.Now())

	if strings.TrimSpace(req.ChannelID) == "" || strings.TrimSpace(req.UserID) == "" {
		return types.Result{}, types.NewKind(op, types.ErrInvalidRequest)
	}
	ctl, err := codec.ParseConfirmControl(req.Control)
	if err != nil {
		return types.Result{}, types.WrapKind(op, types.ErrInvalidControl, err)
	}
	counter, err := s.checkLive(ctx, op, req.ChannelID, ctl.EpochID)
	if err != nil {
		return types.Result{}, err
	}

	msg, current, err := s.loadRanking(ctx, op, req.ChannelID, req.MessageID)
	if err != nil {
		return types.Result{}, err
	}
	own, err := rankingControl(op, msg)
	if err != nil {
		return types.Result{}, err
	}
	if own.EpochID != ctl.EpochID {
		// The post belongs to a superseded epoch.
		return types.Result{}, types.NewKind(op, types.ErrExpired)
	}
	seq := current.Sequence
	if own.Sequence != seq {
		return types.Result{}, types.NewKind(op, types.ErrMalformedState)
	}
	if !issued(seq, counter) || !tracker.HasSubmitted(ctl.Mask, seq) {
		// The control was issued for another ranking.
		return types.Result{}, types.NewKind(op, types.ErrInvalidControl)
	}

	prior, priorID, err := s.findRecord(ctx, req.UserID, ctl.EpochID)
	if err != nil {
		return types.Result{}, types.Wrap(op, err)
	}
	if prior == nil && ctl.PriorMessageID != "" {
		// The record may have scrolled out of the recent window.
		prior, priorID, err = s.recordAt(ctx, req.UserID, ctl.PriorMessageID, ctl.EpochID)
		if err != nil {
			return types.Result{}, types.Wrap(op, err)
		}
	}
	fresh := tracker.LoadOrInit(prior, ctl.EpochID)
	if tracker.HasSubmitted(fresh, seq) {
		return types.Result{}, types.NewKind(op, types.ErrAlreadySubmitted)
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

	record := tracker.Record{
		EpochID: ctl.EpochID,
		Mask:    tracker.MarkSubmitted(tracker.Merge(fresh, ctl.Mask), seq),
	}
	s.upsertRecord(ctx, req.UserID, priorID, record)

	s.logger.Debug(ctx, "grade submitted",
		logger.String("channel", req.ChannelID),
		logger.String("message", msg.ID),
		logger.Uint64("sequence", seq),
		logger.Int("position", position),
	)
	return types.Result{
		Reply:     s.printer.Sprintf(i18n.GradeSubmitted),
		MessageID: msg.ID,
		Position:  position,
	}, nil
}

// Submit presses the submit control and confirms the grade in one call.
func (s *Service) Submit(ctx context.Context, req types.SubmitRequest) (types.Result, error) {
	press, err := s.PressSubmit(ctx, types.PressRequest{
		ChannelID: req.ChannelID,
		MessageID: req.MessageID,
		UserID:    req.UserID,
		Control:   req.Control,
	})
	if err != nil {
		return types.Result{}, err
	}
	return s.ConfirmSubmit(ctx, types.ConfirmRequest{
		ChannelID: req.ChannelID,
		MessageID: req.MessageID,
		UserID:    req.UserID,
		Control:   press.Control,
		Grade:     req.Grade,
	})
}

// Interact routes a control interaction to the operation its control
// names. A submit control with a grade attached is pressed and confirmed
// at once.
func (s *Service) Interact(ctx context.Context, req types.InteractionRequest) (types.Result, error) {
	const op = "app.interact"
	ctl, err := codec.ParseControl(req.Control)
	if err != nil {
		return types.Result{}, types.WrapKind(op, types.ErrInvalidControl, err)
	}

	switch c := ctl.(type) {
	case codec.SubmitControl:
		if req.Grade == "" {
			return s.PressSubmit(ctx, types.PressRequest{
				ChannelID: req.ChannelID,
				MessageID: req.MessageID,
				UserID:    req.UserID,
				Control:   req.Control,
			})
		}
		return s.Submit(ctx, types.SubmitRequest(req))
	case codec.ConfirmControl:
		return s.ConfirmSubmit(ctx, types.ConfirmRequest(req))
	case codec.AdminControl:
		admin := types.AdminRequest{ChannelID: req.ChannelID, MessageID: c.MessageID, Grade: req.Grade}
		if c.Op == codec.AdminAdd {
			return s.AdminAddGrade(ctx, admin)
		}
		return s.AdminRemoveGrade(ctx, admin)
	default:
		return types.Result{}, types.NewKind(op, types.ErrInvalidControl)
	}
}

// checkLive fails with ErrExpired once the channel topic left epochID and
// returns the live counter otherwise.
func (s *Service) checkLive(ctx context.Context, op, channelID, epochID string) (epoch.Counter, error) {
	topic, err := s.platform.Topic(ctx, channelID)
	if err != nil {
		return epoch.Counter{}, types.Wrap(op, err)
	}
	if !epoch.Live(topic, epochID) {
		return epoch.Counter{}, types.NewKind(op, types.ErrExpired)
	}
	counter, err := codec.DecodeEpoch(topic)
	if err != nil {
		return epoch.Counter{}, types.WrapKind(op, types.ErrMalformedState, err)
	}
	return counter, nil
}

// issued reports whether sequence was allocated in the live epoch.
func issued(sequence uint64, counter epoch.Counter) bool {
	return tracker.Addressable(sequence) && sequence <= counter.Sequence
}

// rankingControl returns the submit control the bot attached to a ranking.
func rankingControl(op string, msg repository.Message) (codec.SubmitControl, error) {
	if len(msg.Controls) == 0 {
		return codec.SubmitControl{}, types.NewKind(op, types.ErrNotARanking)
	}
	ctl, err := codec.ParseSubmitControl(msg.Controls[0])
	if err != nil {
		return codec.SubmitControl{}, types.WrapKind(op, types.ErrMalformedState, err)
	}
	return ctl, nil
}

// findRecord returns the newest bot-authored submission record for epochID
// in the user's private channel, and its message id.
func (s *Service) findRecord(ctx context.Context, userID, epochID string) (*tracker.Record, string, error) {
	dm, err := s.platform.DirectChannel(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	msgs, err := s.platform.RecentMessages(ctx, dm)
	if err != nil {
		return nil, "", err
	}
	for _, m := range msgs {
		rec, ok := codec.DecodeSubmission(m.Content, m.AuthorIsBot)
		if ok && rec.EpochID == epochID {
			return &rec, m.ID, nil
		}
	}
	return nil, "", nil
}

// recordAt decodes the message messageID of the user's private channel as
// the record of epochID. A gone message or one that is not such a record
// yields no record.
func (s *Service) recordAt(ctx context.Context, userID, messageID, epochID string) (*tracker.Record, string, error) {
	dm, err := s.platform.DirectChannel(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	m, err := s.platform.FetchMessage(ctx, dm, messageID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	rec, ok := codec.DecodeSubmission(m.Content, m.AuthorIsBot)
	if !ok || rec.EpochID != epochID {
		return nil, "", nil
	}
	return &rec, m.ID, nil
}

// upsertRecord edits the user's record in place or sends a new one. The
// grade is already in the ranking at this point, so failures are logged
// and not reported to the user.
func (s *Service) upsertRecord(ctx context.Context, userID, priorID string, rec tracker.Record) {
	body := codec.EncodeSubmission(rec)
	dm, err := s.platform.DirectChannel(ctx, userID)
	if err != nil {
		s.recordFailed(ctx, userID, err)
		return
	}

	if priorID != "" {
		err := s.platform.EditMessage(ctx, dm, priorID, body)
		if err == nil {
			metrics.RecordSubmissionRecordWrite("edit")
			return
		}
		if !errors.Is(err, repository.ErrNotFound) {
			s.recordFailed(ctx, userID, err)
			return
		}
	}
	if _, err := s.platform.PostMessage(ctx, dm, body); err != nil {
		s.recordFailed(ctx, userID, err)
		return
	}
	metrics.RecordSubmissionRecordWrite("send")
}

func (s *Service) recordFailed(ctx context.Context, userID string, err error) {
	metrics.RecordSubmissionRecordWrite("failed")
	s.logger.Error(ctx, "writing submission record",
		logger.String("user", userID),
		logger.Error(err),
	)
}
