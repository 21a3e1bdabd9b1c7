package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	repository "github.com/okian/palmares/internal/adapters/repository"
	service "github.com/okian/palmares/internal/app"
	"github.com/okian/palmares/internal/domain/types"
	"github.com/okian/palmares/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

const channel = "ranks"

// newTestService returns a started service over an in-memory store whose
// topic budget is large enough for multi-step scenarios.
func newTestService(storeOpts []repository.Option, opts ...service.Option) (*service.Service, *repository.SQLiteStore) {
	if storeOpts == nil {
		storeOpts = []repository.Option{repository.WithTopicWriteLimit(100, time.Minute)}
	}
	store, err := repository.OpenSQLite(context.Background(), ":memory:", storeOpts...)
	So(err, ShouldBeNil)

	ids := 0
	base := []service.Option{
		service.WithPlatform(store),
		service.WithIDGenerator(func() string {
			ids++
			return fmt.Sprintf("epoch%d", ids)
		}),
	}
	svc := service.New(append(base, opts...)...)
	So(svc.Start(context.Background()), ShouldBeNil)
	Reset(svc.Stop)
	return svc, store
}

// createRanking creates a ranking and returns its message.
func createRanking(svc *service.Service, store *repository.SQLiteStore, title string, scale float64) repository.Message {
	ctx := context.Background()
	res, err := svc.CreateRanking(ctx, types.CreateRequest{ChannelID: channel, Title: title, Scale: scale})
	So(err, ShouldBeNil)
	msg, err := store.FetchMessage(ctx, channel, res.MessageID)
	So(err, ShouldBeNil)
	return msg
}

func submit(svc *service.Service, msg repository.Message, user, grade string) (types.Result, error) {
	return svc.Submit(context.Background(), types.SubmitRequest{
		ChannelID: channel,
		MessageID: msg.ID,
		UserID:    user,
		Control:   msg.Controls[0],
		Grade:     grade,
	})
}

func body(store *repository.SQLiteStore, id string) string {
	msg, err := store.FetchMessage(context.Background(), channel, id)
	So(err, ShouldBeNil)
	return msg.Content
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a service without a platform", t, func() {
		svc := service.New()

		Convey("Then it refuses to start", func() {
			So(svc.Start(context.Background()), ShouldEqual, service.ErrNoPlatform)
		})
	})

	Convey("Given a service that was not started", t, func() {
		store, err := repository.OpenSQLite(context.Background(), ":memory:")
		So(err, ShouldBeNil)
		defer func() { _ = store.Close() }()
		svc := service.New(service.WithPlatform(store))

		Convey("Then operations fail with ErrNotStarted", func() {
			_, err := svc.CreateRanking(context.Background(), types.CreateRequest{ChannelID: channel, Title: "Quiz"})
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})
	})

	Convey("Given a started service", t, func() {
		svc, _ := newTestService(nil, service.WithSubmitRetries(1), service.WithDefaultScale(10))

		Convey("Then its settings are reported", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, true)
			So(stats["submitRetries"], ShouldEqual, 1)
			So(stats["defaultScale"], ShouldEqual, 10.0)
			So(stats["locale"], ShouldEqual, "fr")
		})
	})
}

func TestService_CreateRanking(t *testing.T) {
	Convey("Given a channel without a topic", t, func() {
		svc, store := newTestService(nil)
		ctx := context.Background()

		Convey("When a ranking is created", func() {
			res, err := svc.CreateRanking(ctx, types.CreateRequest{ChannelID: channel, Title: "Quiz", Scale: 20})

			Convey("Then the topic counts one ranking in a fresh epoch", func() {
				So(err, ShouldBeNil)
				So(res.Topic, ShouldEqual, "epoch1:1")
				So(res.Reply, ShouldEqual, "Classement créé !")
				topic, _ := store.Topic(ctx, channel)
				So(topic, ShouldEqual, "epoch1:1")
			})

			Convey("Then an empty ranking carrying a submit control is posted", func() {
				msg, err := store.FetchMessage(ctx, channel, res.MessageID)
				So(err, ShouldBeNil)
				So(msg.Content, ShouldEqual, "[1] Classement **Quiz**\n> **Barème** : 20\n> **Notes** : 0")
				So(msg.Controls, ShouldResemble, []string{"epoch1:1:20"})
			})

			Convey("And a second ranking takes the next sequence in the same epoch", func() {
				res2, err := svc.CreateRanking(ctx, types.CreateRequest{ChannelID: channel, Title: "Oral"})
				So(err, ShouldBeNil)
				So(res2.Topic, ShouldEqual, "epoch1:2")
				So(body(store, res2.MessageID), ShouldStartWith, "[2] Classement **Oral**\n> **Barème** : 20\n")
			})
		})

		Convey("When the interaction id is usable as an epoch id", func() {
			res, err := svc.CreateRanking(ctx, types.CreateRequest{ChannelID: channel, Title: "Quiz", InteractionID: "1234"})

			Convey("Then it names the new epoch", func() {
				So(err, ShouldBeNil)
				So(res.Topic, ShouldEqual, "1234:1")
			})
		})

		Convey("When the topic holds something else", func() {
			So(store.SetTopic(ctx, channel, "welcome to the ranking channel"), ShouldBeNil)
			res, err := svc.CreateRanking(ctx, types.CreateRequest{ChannelID: channel, Title: "Quiz"})

			Convey("Then a fresh epoch is started", func() {
				So(err, ShouldBeNil)
				So(res.Topic, ShouldEqual, "epoch1:1")
			})
		})

		Convey("When the request is invalid", func() {
			long := make([]byte, 101)
			for i := range long {
				long[i] = 'a'
			}
			cases := []struct {
				req  types.CreateRequest
				kind error
			}{
				{types.CreateRequest{ChannelID: channel, Title: "   "}, types.ErrInvalidTitle},
				{types.CreateRequest{ChannelID: channel, Title: string(long)}, types.ErrInvalidTitle},
				{types.CreateRequest{ChannelID: channel, Title: "a\nb"}, types.ErrInvalidTitle},
				{types.CreateRequest{ChannelID: channel, Title: "Quiz", Scale: 150}, types.ErrInvalidScale},
				{types.CreateRequest{ChannelID: channel, Title: "Quiz", Scale: -1}, types.ErrInvalidScale},
				{types.CreateRequest{Title: "Quiz"}, types.ErrInvalidRequest},
			}

			Convey("Then nothing is written", func() {
				for _, tc := range cases {
					_, err := svc.CreateRanking(ctx, tc.req)
					So(errors.Is(err, tc.kind), ShouldBeTrue)
				}
				topic, _ := store.Topic(ctx, channel)
				So(topic, ShouldEqual, "")
				msgs, _ := store.RecentMessages(ctx, channel)
				So(msgs, ShouldBeEmpty)
			})
		})
	})
}

func TestService_RateLimit(t *testing.T) {
	Convey("Given a channel with the default topic budget", t, func() {
		svc, store := newTestService([]repository.Option{})
		ctx := context.Background()

		_, err := svc.CreateRanking(ctx, types.CreateRequest{ChannelID: channel, Title: "One"})
		So(err, ShouldBeNil)
		_, err = svc.CreateRanking(ctx, types.CreateRequest{ChannelID: channel, Title: "Two"})
		So(err, ShouldBeNil)

		Convey("When a third ranking is created within the window", func() {
			_, err := svc.CreateRanking(ctx, types.CreateRequest{ChannelID: channel, Title: "Three"})

			Convey("Then it is refused before anything is posted", func() {
				So(errors.Is(err, types.ErrRateLimited), ShouldBeTrue)
				var rl *repository.RateLimitedError
				So(errors.As(err, &rl), ShouldBeTrue)

				topic, _ := store.Topic(ctx, channel)
				So(topic, ShouldEqual, "epoch1:2")
				msgs, _ := store.RecentMessages(ctx, channel)
				So(len(msgs), ShouldEqual, 2)
			})

			Convey("Then the reply tells when to try again", func() {
				So(svc.Reply(err), ShouldEqual,
					"Impossible de créer un nouveau classement dans ce canal pour le moment. Réessayez dans 11 minutes !")
				So(service.Outcome(err), ShouldEqual, "rate_limited")
			})
		})

		Convey("When a reset is attempted within the window", func() {
			_, err := svc.Reset(ctx, types.ResetRequest{ChannelID: channel, InteractionID: "Y"})

			Convey("Then the reset reply is used", func() {
				So(errors.Is(err, types.ErrRateLimited), ShouldBeTrue)
				So(svc.Reply(err), ShouldStartWith, "Impossible de réinitialiser le compteur")
			})
		})
	})
}

func TestService_DuplicateInteractions(t *testing.T) {
	Convey("Given a channel with a handled create and reset", t, func() {
		svc, store := newTestService(nil)
		ctx := context.Background()

		_, err := svc.Reset(ctx, types.ResetRequest{ChannelID: channel, InteractionID: "R1"})
		So(err, ShouldBeNil)
		created, err := svc.CreateRanking(ctx, types.CreateRequest{ChannelID: channel, Title: "Quiz", InteractionID: "C1"})
		So(err, ShouldBeNil)
		So(created.Topic, ShouldEqual, "R1:1")

		Convey("When the create is delivered again", func() {
			_, err := svc.CreateRanking(ctx, types.CreateRequest{ChannelID: channel, Title: "Quiz", InteractionID: "C1"})

			Convey("Then it is dropped without a second post", func() {
				So(errors.Is(err, types.ErrDuplicate), ShouldBeTrue)
				So(service.Outcome(err), ShouldEqual, "duplicate_interaction")
				So(svc.Reply(err), ShouldEqual, "Cette interaction a déjà été traitée !")
				topic, _ := store.Topic(ctx, channel)
				So(topic, ShouldEqual, "R1:1")
				msgs, _ := store.RecentMessages(ctx, channel)
				So(len(msgs), ShouldEqual, 1)
			})
		})

		Convey("When the reset is delivered again", func() {
			_, err := svc.Reset(ctx, types.ResetRequest{ChannelID: channel, InteractionID: "R1"})

			Convey("Then the counter is not rewound", func() {
				So(errors.Is(err, types.ErrDuplicate), ShouldBeTrue)
				topic, _ := store.Topic(ctx, channel)
				So(topic, ShouldEqual, "R1:1")
			})
		})

		Convey("When the same id arrives for another operation or channel", func() {
			_, err := svc.CreateRanking(ctx, types.CreateRequest{ChannelID: channel, Title: "Other", InteractionID: "R1"})
			So(err, ShouldBeNil)
			_, err = svc.Reset(ctx, types.ResetRequest{ChannelID: "elsewhere", InteractionID: "R1"})

			Convey("Then it is handled", func() {
				So(err, ShouldBeNil)
				topic, _ := store.Topic(ctx, channel)
				So(topic, ShouldEqual, "R1:2")
			})
		})
	})

	Convey("Given a create refused by the topic rate limit", t, func() {
		svc, store := newTestService([]repository.Option{repository.WithTopicWriteLimit(1, time.Minute)})
		ctx := context.Background()
		_, err := svc.CreateRanking(ctx, types.CreateRequest{ChannelID: channel, Title: "One", InteractionID: "C1"})
		So(err, ShouldBeNil)
		_, err = svc.CreateRanking(ctx, types.CreateRequest{ChannelID: channel, Title: "Two", InteractionID: "C2"})
		So(errors.Is(err, types.ErrRateLimited), ShouldBeTrue)

		Convey("When the same interaction is retried", func() {
			_, err := svc.CreateRanking(ctx, types.CreateRequest{ChannelID: channel, Title: "Two", InteractionID: "C2"})

			Convey("Then it is not taken for a duplicate", func() {
				So(errors.Is(err, types.ErrRateLimited), ShouldBeTrue)
				msgs, _ := store.RecentMessages(ctx, channel)
				So(len(msgs), ShouldEqual, 1)
			})
		})
	})
}

func TestService_Submit(t *testing.T) {
	Convey("Given a fresh ranking", t, func() {
		svc, store := newTestService(nil)
		ctx := context.Background()
		msg := createRanking(svc, store, "Quiz", 20)

		Convey("When a user submits 15", func() {
			res, err := submit(svc, msg, "u1", "15")

			Convey("Then the ranking shows one entry", func() {
				So(err, ShouldBeNil)
				So(res.Position, ShouldEqual, 1)
				So(res.Reply, ShouldEqual, "Ta note a bien été ajoutée à ce classement !")
				So(body(store, msg.ID), ShouldEqual,
					"[1] Classement **Quiz**\n> **Barème** : 20\n> **Notes** : 1\n** 1** - 15")
			})

			Convey("Then the user's private channel holds the record", func() {
				dm, _ := store.DirectChannel(ctx, "u1")
				msgs, err := store.RecentMessages(ctx, dm)
				So(err, ShouldBeNil)
				So(len(msgs), ShouldEqual, 1)
				So(msgs[0].Content, ShouldEqual, "epoch1:0x1")
				So(msgs[0].AuthorIsBot, ShouldBeTrue)
			})

			Convey("And submits again to the same ranking", func() {
				before := body(store, msg.ID)
				_, err := submit(svc, msg, "u1", "19")

				Convey("Then it is refused and the ranking is unchanged", func() {
					So(errors.Is(err, types.ErrAlreadySubmitted), ShouldBeTrue)
					So(svc.Reply(err), ShouldEqual, "Tu as déjà soumis ta note à ce classement !")
					So(body(store, msg.ID), ShouldEqual, before)
				})
			})
		})

		Convey("When grades arrive out of order", func() {
			_, err := svc.AdminAddGrade(ctx, types.AdminRequest{ChannelID: channel, MessageID: msg.ID, Grade: "18"})
			So(err, ShouldBeNil)
			_, err = svc.AdminAddGrade(ctx, types.AdminRequest{ChannelID: channel, MessageID: msg.ID, Grade: "12"})
			So(err, ShouldBeNil)
			res, err := submit(svc, msg, "u1", "15")

			Convey("Then each is ranked in descending order", func() {
				So(err, ShouldBeNil)
				So(res.Position, ShouldEqual, 2)
				st, err := svc.Standings(ctx, channel, msg.ID)
				So(err, ShouldBeNil)
				So(st.Count, ShouldEqual, 3)
				So([]string{st.Entries[0].Grade, st.Entries[1].Grade, st.Entries[2].Grade},
					ShouldResemble, []string{"18", "15", "12"})
				So([]int{st.Entries[0].Position, st.Entries[1].Position, st.Entries[2].Position},
					ShouldResemble, []int{1, 2, 3})
				So(st.Max, ShouldEqual, 18)
				So(st.Min, ShouldEqual, 12)
				So(st.Median, ShouldEqual, 15)
				So(st.Mean, ShouldEqual, 15)
			})
		})

		Convey("When the grade uses a decimal comma", func() {
			_, err := submit(svc, msg, "u1", " 12,5 ")

			Convey("Then it is stored with a dot", func() {
				So(err, ShouldBeNil)
				So(body(store, msg.ID), ShouldEndWith, "** 1** - 12.5")
			})
		})

		Convey("When the grade is not a non-negative number", func() {
			for _, grade := range []string{"-3", "abc", "", "1e3"} {
				_, err := submit(svc, msg, "u1", grade)
				So(errors.Is(err, types.ErrInvalidGrade), ShouldBeTrue)
			}

			Convey("Then nothing is recorded", func() {
				So(body(store, msg.ID), ShouldEndWith, "> **Notes** : 0")
				dm, _ := store.DirectChannel(ctx, "u1")
				msgs, _ := store.RecentMessages(ctx, dm)
				So(msgs, ShouldBeEmpty)
			})
		})
	})
}

func TestService_SubmissionRecords(t *testing.T) {
	Convey("Given two rankings in one epoch", t, func() {
		svc, store := newTestService(nil)
		ctx := context.Background()
		first := createRanking(svc, store, "One", 20)
		second := createRanking(svc, store, "Two", 20)
		dm, _ := store.DirectChannel(ctx, "u1")

		Convey("When the user submits to the second ranking", func() {
			_, err := submit(svc, second, "u1", "10")
			So(err, ShouldBeNil)

			Convey("Then bit 1 is set", func() {
				msgs, _ := store.RecentMessages(ctx, dm)
				So(msgs[0].Content, ShouldEqual, "epoch1:0x2")
			})

			Convey("And then to the first one", func() {
				_, err := submit(svc, first, "u1", "11")
				So(err, ShouldBeNil)

				Convey("Then the same record is edited", func() {
					msgs, _ := store.RecentMessages(ctx, dm)
					So(len(msgs), ShouldEqual, 1)
					So(msgs[0].Content, ShouldEqual, "epoch1:0x3")
				})
			})

			Convey("And a press on the first ranking carries the record", func() {
				res, err := svc.PressSubmit(ctx, types.PressRequest{
					ChannelID: channel, MessageID: first.ID, UserID: "u1", Control: first.Controls[0],
				})

				Convey("Then the confirm control references the record and the new bit", func() {
					So(err, ShouldBeNil)
					msgs, _ := store.RecentMessages(ctx, dm)
					So(res.Control, ShouldEqual, msgs[0].ID+":epoch1:0x3")
					So(res.Prompt, ShouldEqual, "Entre ta note sur 20")
				})
			})
		})

		Convey("When the user pressed twice before confirming", func() {
			press := types.PressRequest{ChannelID: channel, MessageID: first.ID, UserID: "u1", Control: first.Controls[0]}
			p1, err := svc.PressSubmit(ctx, press)
			So(err, ShouldBeNil)
			p2, err := svc.PressSubmit(ctx, press)
			So(err, ShouldBeNil)

			_, err = svc.ConfirmSubmit(ctx, types.ConfirmRequest{
				ChannelID: channel, MessageID: first.ID, UserID: "u1", Control: p1.Control, Grade: "12",
			})
			So(err, ShouldBeNil)

			Convey("Then the second confirm is refused", func() {
				_, err := svc.ConfirmSubmit(ctx, types.ConfirmRequest{
					ChannelID: channel, MessageID: first.ID, UserID: "u1", Control: p2.Control, Grade: "13",
				})
				So(errors.Is(err, types.ErrAlreadySubmitted), ShouldBeTrue)
				So(body(store, first.ID), ShouldEndWith, "> **Notes** : 1\n** 1** - 12")
			})
		})

		Convey("When a confirm control is used on another ranking", func() {
			p, err := svc.PressSubmit(ctx, types.PressRequest{
				ChannelID: channel, MessageID: first.ID, UserID: "u1", Control: first.Controls[0],
			})
			So(err, ShouldBeNil)
			_, err = svc.ConfirmSubmit(ctx, types.ConfirmRequest{
				ChannelID: channel, MessageID: second.ID, UserID: "u1", Control: p.Control, Grade: "12",
			})

			Convey("Then it is refused as an invalid control", func() {
				So(errors.Is(err, types.ErrInvalidControl), ShouldBeTrue)
				So(body(store, second.ID), ShouldEndWith, "> **Notes** : 0")
			})
		})

		Convey("When the first ranking's control is used on the second ranking", func() {
			_, err := svc.Submit(ctx, types.SubmitRequest{
				ChannelID: channel, MessageID: second.ID, UserID: "u1", Control: first.Controls[0], Grade: "12",
			})

			Convey("Then it is refused and no state is written", func() {
				So(errors.Is(err, types.ErrInvalidControl), ShouldBeTrue)
				So(body(store, first.ID), ShouldEndWith, "> **Notes** : 0")
				So(body(store, second.ID), ShouldEndWith, "> **Notes** : 0")
				msgs, _ := store.RecentMessages(ctx, dm)
				So(msgs, ShouldBeEmpty)
			})
		})

		Convey("When a control names a sequence the topic never allocated", func() {
			for _, forged := range []string{
				"epoch1:5:20",
				"epoch1:9223372036854775809:20",
				"epoch1:18446744073709551615:20",
			} {
				So(func() {
					_, err := svc.PressSubmit(ctx, types.PressRequest{
						ChannelID: channel, MessageID: second.ID, UserID: "u1", Control: forged,
					})
					So(errors.Is(err, types.ErrInvalidControl), ShouldBeTrue)
				}, ShouldNotPanic)
				So(func() {
					_, err := svc.Submit(ctx, types.SubmitRequest{
						ChannelID: channel, MessageID: first.ID, UserID: "u1", Control: forged, Grade: "12",
					})
					So(errors.Is(err, types.ErrInvalidControl), ShouldBeTrue)
				}, ShouldNotPanic)
			}

			Convey("Then no ranking or record is touched", func() {
				So(body(store, first.ID), ShouldEndWith, "> **Notes** : 0")
				So(body(store, second.ID), ShouldEndWith, "> **Notes** : 0")
				msgs, _ := store.RecentMessages(ctx, dm)
				So(msgs, ShouldBeEmpty)
			})
		})

		Convey("When the user's record is edited away by hand", func() {
			_, err := submit(svc, first, "u1", "10")
			So(err, ShouldBeNil)
			msgs, _ := store.RecentMessages(ctx, dm)
			So(store.DeleteMessage(ctx, dm, msgs[0].ID), ShouldBeNil)

			Convey("Then a later submission sends a new record", func() {
				_, err := submit(svc, second, "u1", "10")
				So(err, ShouldBeNil)
				msgs, _ := store.RecentMessages(ctx, dm)
				So(len(msgs), ShouldEqual, 1)
				So(msgs[0].Content, ShouldEqual, "epoch1:0x2")
			})
		})
	})
}

func TestService_Reset(t *testing.T) {
	Convey("Given a ranking in epoch X", t, func() {
		svc, store := newTestService(nil)
		ctx := context.Background()
		_, err := svc.Reset(ctx, types.ResetRequest{ChannelID: channel, InteractionID: "X"})
		So(err, ShouldBeNil)
		createRanking(svc, store, "One", 20)
		msg := createRanking(svc, store, "Two", 20)
		So(msg.Controls[0], ShouldEqual, "X:2:20")

		_, err = submit(svc, msg, "u1", "14")
		So(err, ShouldBeNil)

		Convey("When the channel is reset to epoch Y", func() {
			res, err := svc.Reset(ctx, types.ResetRequest{ChannelID: channel, InteractionID: "Y"})
			So(err, ShouldBeNil)

			Convey("Then the topic restarts at zero", func() {
				So(res.Topic, ShouldEqual, "Y:0")
				So(res.Reply, ShouldEqual, "Compteur réinitialisé !")
				topic, _ := store.Topic(ctx, channel)
				So(topic, ShouldEqual, "Y:0")
			})

			Convey("Then the stale control is expired", func() {
				_, err := submit(svc, msg, "u2", "12")
				So(errors.Is(err, types.ErrExpired), ShouldBeTrue)
				So(svc.Reply(err), ShouldEqual, "Tu ne peux plus soumettre ta note à ce classement !")
			})

			Convey("Then the old record does not block the new epoch", func() {
				fresh := createRanking(svc, store, "Again", 20)
				So(fresh.Controls[0], ShouldEqual, "Y:1:20")
				_, err := submit(svc, fresh, "u1", "16")
				So(err, ShouldBeNil)

				dm, _ := store.DirectChannel(ctx, "u1")
				msgs, _ := store.RecentMessages(ctx, dm)
				So(len(msgs), ShouldEqual, 2)
				So(msgs[0].Content, ShouldEqual, "Y:0x1")
				So(msgs[1].Content, ShouldEqual, "X:0x2")
			})
		})

		Convey("When a ranking of epoch X is targeted with an epoch Y control", func() {
			_, err := svc.Reset(ctx, types.ResetRequest{ChannelID: channel, InteractionID: "Y"})
			So(err, ShouldBeNil)
			fresh := createRanking(svc, store, "New", 20)
			before := body(store, msg.ID)

			_, err = svc.Submit(ctx, types.SubmitRequest{
				ChannelID: channel, MessageID: msg.ID, UserID: "u2", Control: fresh.Controls[0], Grade: "12",
			})

			Convey("Then the superseded ranking is expired and unchanged", func() {
				So(errors.Is(err, types.ErrExpired), ShouldBeTrue)
				So(body(store, msg.ID), ShouldEqual, before)
				So(body(store, fresh.ID), ShouldEndWith, "> **Notes** : 0")
				dm, _ := store.DirectChannel(ctx, "u2")
				msgs, _ := store.RecentMessages(ctx, dm)
				So(msgs, ShouldBeEmpty)
			})
		})

		Convey("When a confirm control points at the record of epoch X", func() {
			dm, _ := store.DirectChannel(ctx, "u1")
			old, _ := store.RecentMessages(ctx, dm)
			So(old[0].Content, ShouldEqual, "X:0x2")

			_, err := svc.Reset(ctx, types.ResetRequest{ChannelID: channel, InteractionID: "Y"})
			So(err, ShouldBeNil)
			fresh := createRanking(svc, store, "New", 20)

			_, err = svc.ConfirmSubmit(ctx, types.ConfirmRequest{
				ChannelID: channel, MessageID: fresh.ID, UserID: "u1",
				Control: old[0].ID + ":Y:0x1", Grade: "9",
			})

			Convey("Then the epoch X record is left alone and a new record is sent", func() {
				So(err, ShouldBeNil)
				So(body(store, fresh.ID), ShouldEndWith, "> **Notes** : 1\n** 1** - 9")
				msgs, _ := store.RecentMessages(ctx, dm)
				So(len(msgs), ShouldEqual, 2)
				So(msgs[0].Content, ShouldEqual, "Y:0x1")
				So(msgs[1].ID, ShouldEqual, old[0].ID)
				So(msgs[1].Content, ShouldEqual, "X:0x2")
			})
		})

		Convey("When the interaction id cannot be embedded", func() {
			res, err := svc.Reset(ctx, types.ResetRequest{ChannelID: channel, InteractionID: "a:b"})

			Convey("Then a generated id is used", func() {
				So(err, ShouldBeNil)
				So(res.Topic, ShouldStartWith, "epoch")
				So(res.Topic, ShouldEndWith, ":0")
				So(res.Topic, ShouldNotContainSubstring, "a:b")
			})
		})
	})
}

func TestService_Admin(t *testing.T) {
	Convey("Given a ranking with 18.5 and 12", t, func() {
		svc, store := newTestService(nil)
		ctx := context.Background()
		msg := createRanking(svc, store, "Quiz", 20)
		add := func(grade string) {
			_, err := svc.Admin(ctx, types.AdminRequest{ChannelID: channel, MessageID: msg.ID, Op: types.AdminAdd, Grade: grade})
			So(err, ShouldBeNil)
		}
		add("12")
		add("18.5")

		Convey("When 12 is removed", func() {
			res, err := svc.Admin(ctx, types.AdminRequest{ChannelID: channel, MessageID: msg.ID, Op: types.AdminRemove, Grade: "12"})

			Convey("Then only 18.5 remains at position 1", func() {
				So(err, ShouldBeNil)
				So(res.Reply, ShouldEqual, "La note a bien été enlevée de ce classement !")
				So(body(store, msg.ID), ShouldEqual,
					"[1] Classement **Quiz**\n> **Barème** : 20\n> **Notes** : 1\n** 1** - 18.5")
			})

			Convey("And removing 12 again reports it missing", func() {
				_, err := svc.AdminRemoveGrade(ctx, types.AdminRequest{ChannelID: channel, MessageID: msg.ID, Grade: "12"})
				So(errors.Is(err, types.ErrGradeNotFound), ShouldBeTrue)
				So(svc.Reply(err), ShouldEqual, "Cette note n'existe pas dans ce classement !")
			})
		})

		Convey("When a grade is removed by a different spelling", func() {
			_, err := svc.AdminRemoveGrade(ctx, types.AdminRequest{ChannelID: channel, MessageID: msg.ID, Grade: "12.0"})

			Convey("Then it does not match", func() {
				So(errors.Is(err, types.ErrGradeNotFound), ShouldBeTrue)
			})
		})

		Convey("When the removed text is not a number", func() {
			before := body(store, msg.ID)
			_, err := svc.AdminRemoveGrade(ctx, types.AdminRequest{ChannelID: channel, MessageID: msg.ID, Grade: "douze"})

			Convey("Then it is an invalid grade and the ranking is unchanged", func() {
				So(errors.Is(err, types.ErrInvalidGrade), ShouldBeTrue)
				So(service.Outcome(err), ShouldEqual, "invalid_grade")
				So(body(store, msg.ID), ShouldEqual, before)
			})
		})

		Convey("When every grade is removed", func() {
			for _, g := range []string{"12", "18.5"} {
				_, err := svc.AdminRemoveGrade(ctx, types.AdminRequest{ChannelID: channel, MessageID: msg.ID, Grade: g})
				So(err, ShouldBeNil)
			}

			Convey("Then the ranking is back to its created form", func() {
				So(body(store, msg.ID), ShouldEqual, "[1] Classement **Quiz**\n> **Barème** : 20\n> **Notes** : 0")
			})

			Convey("And a further removal reports the empty ranking", func() {
				_, err := svc.AdminRemoveGrade(ctx, types.AdminRequest{ChannelID: channel, MessageID: msg.ID, Grade: "12"})
				So(errors.Is(err, types.ErrEmptyLedger), ShouldBeTrue)
				So(svc.Reply(err), ShouldEqual, "Ce classement ne contient aucune note !")
			})
		})

		Convey("When the op is unknown", func() {
			_, err := svc.Admin(ctx, types.AdminRequest{ChannelID: channel, MessageID: msg.ID, Op: "rename"})

			Convey("Then the request is invalid", func() {
				So(errors.Is(err, types.ErrInvalidRequest), ShouldBeTrue)
			})
		})
	})

	Convey("Given messages that are not rankings", t, func() {
		svc, store := newTestService(nil)
		ctx := context.Background()
		user, err := store.PostAs(ctx, channel, repository.Message{Content: "[1] Classement **Fake**\n> **Barème** : 20\n> **Notes** : 0"})
		So(err, ShouldBeNil)
		system, err := store.PostAs(ctx, channel, repository.Message{Content: "pinned a message", AuthorIsBot: true, System: true})
		So(err, ShouldBeNil)
		garbage, err := store.PostMessage(ctx, channel, "just chatting")
		So(err, ShouldBeNil)

		Convey("Then user and system messages are refused", func() {
			for _, id := range []string{user.ID, system.ID} {
				_, err := svc.AdminAddGrade(ctx, types.AdminRequest{ChannelID: channel, MessageID: id, Grade: "10"})
				So(errors.Is(err, types.ErrNotARanking), ShouldBeTrue)
			}
		})

		Convey("Then a bot message without a ranking header is malformed state", func() {
			_, err := svc.AdminAddGrade(ctx, types.AdminRequest{ChannelID: channel, MessageID: garbage.ID, Grade: "10"})
			So(errors.Is(err, types.ErrMalformedState), ShouldBeTrue)
			So(svc.Reply(err), ShouldEqual, "Une erreur est survenue !")
			So(body(store, garbage.ID), ShouldEqual, "just chatting")
		})

		Convey("Then a deleted message is reported missing", func() {
			_, err := svc.AdminRemoveGrade(ctx, types.AdminRequest{ChannelID: channel, MessageID: "999", Grade: "10"})
			So(errors.Is(err, types.ErrTargetMissing), ShouldBeTrue)
			So(svc.Reply(err), ShouldEqual, "Le message ciblé n'existe plus !")
		})
	})
}

func TestService_Interact(t *testing.T) {
	Convey("Given a ranking", t, func() {
		svc, store := newTestService(nil, service.WithLocale("en"))
		ctx := context.Background()
		msg := createRanking(svc, store, "Quiz", 10)

		Convey("When the submit control is pressed", func() {
			press, err := svc.Interact(ctx, types.InteractionRequest{
				ChannelID: channel, MessageID: msg.ID, UserID: "u1", Control: msg.Controls[0],
			})
			So(err, ShouldBeNil)

			Convey("Then a grade prompt with a confirm control is returned", func() {
				So(press.Prompt, ShouldEqual, "Enter your grade out of 10")
				So(press.Control, ShouldEqual, ":epoch1:0x1")
			})

			Convey("And confirming through the same entry point inserts the grade", func() {
				res, err := svc.Interact(ctx, types.InteractionRequest{
					ChannelID: channel, MessageID: msg.ID, UserID: "u1", Control: press.Control, Grade: "7",
				})
				So(err, ShouldBeNil)
				So(res.Reply, ShouldEqual, "Your grade has been added to this ranking!")
				So(body(store, msg.ID), ShouldEndWith, "** 1** - 7")
			})
		})

		Convey("When an admin control is used", func() {
			res, err := svc.Interact(ctx, types.InteractionRequest{
				ChannelID: channel, Control: "add_grade:" + msg.ID, Grade: "9",
			})

			Convey("Then the grade is added to the targeted message", func() {
				So(err, ShouldBeNil)
				So(res.Reply, ShouldEqual, "The grade has been added to this ranking!")
				So(res.Position, ShouldEqual, 1)
			})
		})

		Convey("When the control is unreadable", func() {
			_, err := svc.Interact(ctx, types.InteractionRequest{ChannelID: channel, Control: "what"})

			Convey("Then it is an invalid control", func() {
				So(errors.Is(err, types.ErrInvalidControl), ShouldBeTrue)
				So(svc.Reply(err), ShouldEqual, "An error occurred!")
			})
		})
	})
}

func TestService_Standings(t *testing.T) {
	Convey("Given a ranking with three grades", t, func() {
		ctx := context.Background()
		svc, store := newTestService(nil)
		msg := createRanking(svc, store, "Albums", 20)
		for user, grade := range map[string]string{"ann": "12", "ben": "18,5", "cid": "7"} {
			_, err := submit(svc, msg, user, grade)
			So(err, ShouldBeNil)
		}

		Convey("Then standings list them best first with a summary", func() {
			st, err := svc.Standings(ctx, channel, msg.ID)
			So(err, ShouldBeNil)
			So(st.Title, ShouldEqual, "Albums")
			So(st.Scale, ShouldEqual, 20)
			So(st.Count, ShouldEqual, 3)
			So(st.Max, ShouldEqual, 18.5)
			So(st.Min, ShouldEqual, 7)
			So(st.Median, ShouldEqual, 12)
			So(st.Entries, ShouldHaveLength, 3)
			So(st.Entries[0].Grade, ShouldEqual, "18.5")
			So(st.Entries[0].Position, ShouldEqual, 1)
			So(st.Entries[2].Grade, ShouldEqual, "7")
		})

		Convey("Then reading them does not touch the post", func() {
			before := body(store, msg.ID)
			_, err := svc.Standings(ctx, channel, msg.ID)
			So(err, ShouldBeNil)
			So(body(store, msg.ID), ShouldEqual, before)
		})

		Convey("Then the raw message is available", func() {
			m, err := svc.Message(ctx, channel, msg.ID)
			So(err, ShouldBeNil)
			So(m.Content, ShouldStartWith, "[1] Classement **Albums**")
		})

		Convey("Then a missing message is reported as such", func() {
			_, err := svc.Message(ctx, channel, "999")
			So(errors.Is(err, types.ErrTargetMissing), ShouldBeTrue)
			_, err = svc.Standings(ctx, channel, "999")
			So(errors.Is(err, types.ErrTargetMissing), ShouldBeTrue)
		})
	})
}
