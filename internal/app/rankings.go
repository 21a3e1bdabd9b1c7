package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	repository "github.com/okian/palmares/internal/adapters/repository"
	"github.com/okian/palmares/internal/domain/codec"
	"github.com/okian/palmares/internal/domain/epoch"
	"github.com/okian/palmares/internal/domain/ledger"
	"github.com/okian/palmares/internal/domain/types"
	"github.com/okian/palmares/internal/i18n"
	"github.com/okian/palmares/pkg/logger"
	"github.com/okian/palmares/pkg/metrics"
)

const (
	maxTitleLength    = 100
	maxScale          = 100
	defaultDedupeSize = 10000
)

// CreateRanking advances the channel's epoch counter and posts an empty
// ranking carrying the new sequence. The topic is written first; when the
// platform refuses it nothing is posted.
func (s *Service) CreateRanking(ctx context.Context, req types.CreateRequest) (res types.Result, err error) {
	const op = "app.create_ranking"
	if err := s.ready(op); err != nil {
		return types.Result{}, err
	}
	defer func(start time.Time) { s.observe(ctx, op, start, err) }(time.Now())

	if strings.TrimSpace(req.ChannelID) == "" {
		return types.Result{}, types.NewKind(op, types.ErrInvalidRequest)
	}
	title, err := validateTitle(req.Title)
	if err != nil {
		return types.Result{}, types.WrapKind(op, types.ErrInvalidTitle, err)
	}
	scale := req.Scale
	if scale == 0 {
		scale = s.defaultScale
	}
	if !(scale > 0 && scale <= maxScale) {
		return types.Result{}, types.NewKind(op, types.ErrInvalidScale)
	}
	release, err := s.claim(ctx, op, req.ChannelID, req.InteractionID)
	if err != nil {
		return types.Result{}, err
	}
	defer func() { release(err) }()

	topic, err := s.platform.Topic(ctx, req.ChannelID)
	if err != nil {
		return types.Result{}, types.Wrap(op, err)
	}
	current := codec.ParseEpochOrDefault(topic, s.epochID(req.InteractionID))
	next, seq := epoch.AllocateNext(current)
	newTopic := codec.EncodeEpoch(next)

	s.logger.Debug(ctx, "allocating ranking",
		logger.String("channel", req.ChannelID),
		logger.String("previousTopic", topic),
		logger.String("topic", newTopic),
	)
	if err := s.platform.SetTopic(ctx, req.ChannelID, newTopic); err != nil {
		return types.Result{}, classifyTopicWrite(op, err)
	}

	l := ledger.New(seq, title, scale)
	ctl := codec.SubmitControl{EpochID: next.ID, Sequence: seq, Scale: scale}
	msg, err := s.platform.PostMessage(ctx, req.ChannelID, codec.EncodeLedger(l), ctl.Encode())
	if err != nil {
		// The counter already moved; the next create simply takes the
		// following sequence.
		s.logger.Error(ctx, "topic advanced but ranking post failed",
			logger.String("channel", req.ChannelID),
			logger.String("topic", newTopic),
			logger.Error(err),
		)
		return types.Result{}, types.Wrap(op, err)
	}
	metrics.ObserveLedgerSize(0)

	return types.Result{
		Reply:     s.printer.Sprintf(i18n.RankingCreated),
		MessageID: msg.ID,
		Topic:     newTopic,
	}, nil
}

// Reset starts a new epoch in the channel. Rankings of the previous epoch
// stay visible but stop accepting submissions.
func (s *Service) Reset(ctx context.Context, req types.ResetRequest) (res types.Result, err error) {
	const op = "app.reset"
	if err := s.ready(op); err != nil {
		return types.Result{}, err
	}
	defer func(start time.Time) { s.observe(ctx, op, start, err) }(time.Now())

	if strings.TrimSpace(req.ChannelID) == "" {
		return types.Result{}, types.NewKind(op, types.ErrInvalidRequest)
	}
	release, err := s.claim(ctx, op, req.ChannelID, req.InteractionID)
	if err != nil {
		return types.Result{}, err
	}
	defer func() { release(err) }()

	topic := codec.EncodeEpoch(epoch.Reset(s.epochID(req.InteractionID)))
	if err := s.platform.SetTopic(ctx, req.ChannelID, topic); err != nil {
		return types.Result{}, classifyTopicWrite(op, err)
	}

	s.logger.Info(ctx, "epoch reset",
		logger.String("channel", req.ChannelID),
		logger.String("topic", topic),
	)
	return types.Result{
		Reply: s.printer.Sprintf(i18n.CounterReset),
		Topic: topic,
	}, nil
}

// claim records the interaction so a redelivery of it is refused with
// ErrDuplicate. The returned release forgets the id again when the
// operation failed, letting the user retry the same interaction.
func (s *Service) claim(ctx context.Context, op, channelID, interactionID string) (func(error), error) {
	if interactionID == "" {
		return func(error) {}, nil
	}
	key := op + "|" + channelID + "|" + interactionID
	if s.interactions.SeenAndRecord(ctx, key) {
		s.logger.Info(ctx, "dropping duplicate interaction",
			logger.String("op", op),
			logger.String("channel", channelID),
			logger.String("interaction", interactionID),
		)
		return nil, types.NewKind(op, types.ErrDuplicate)
	}
	return func(err error) {
		if err != nil {
			s.interactions.Unrecord(ctx, key)
		}
	}, nil
}

// epochID uses the interaction id as the new epoch id when it can be
// embedded in a topic, and a generated id otherwise.
func (s *Service) epochID(interactionID string) string {
	if codec.ValidToken(interactionID) {
		return interactionID
	}
	return s.newID()
}

func validateTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	n := utf8.RuneCountInString(title)
	switch {
	case n == 0:
		return "", errors.New("empty title")
	case n > maxTitleLength:
		return "", errors.New("title too long")
	case strings.ContainsAny(title, "\r\n"):
		return "", errors.New("title spans several lines")
	}
	return title, nil
}

func classifyTopicWrite(op string, err error) error {
	var rl *repository.RateLimitedError
	if errors.As(err, &rl) {
		return types.WrapKind(op, types.ErrRateLimited, err)
	}
	return types.Wrap(op, err)
}

// retryMinutes converts a platform retry delay to the whole minutes shown
// to users, rounding up and adding one minute of slack.
func retryMinutes(err error) int {
	var ra interface{ RetryAfter() time.Duration }
	if !errors.As(err, &ra) {
		return 1
	}
	return int(math.Ceil(ra.RetryAfter().Minutes())) + 1
}
