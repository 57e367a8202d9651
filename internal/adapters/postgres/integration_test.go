package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/clout/internal/adapters/repository"
	"github.com/okian/clout/internal/domain/model"
	"github.com/okian/clout/internal/domain/types"
)

// Runs against a scratch database only when CLOUT_TEST_DATABASE_URL is set.
func TestStoreIntegration(t *testing.T) {
	dsn := os.Getenv("CLOUT_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("CLOUT_TEST_DATABASE_URL not set")
	}

	Convey("Given a migrated database", t, func() {
		ctx := context.Background()
		c, err := New(ctx, ClientConfig{DSN: dsn})
		So(err, ShouldBeNil)
		defer c.Close()
		So(c.RunMigrations(ctx), ShouldBeNil)
		So(c.RunMigrations(ctx), ShouldBeNil)
		s := NewStore(c)

		suffix := uuid.NewString()[:8]
		capper, err := s.CreateUser(ctx, model.User{
			ID: uuid.NewString(), Username: "capper_" + suffix, Email: suffix + "@c.test",
			PasswordHash: "x", Role: model.RoleCapper,
		})
		So(err, ShouldBeNil)
		So(capper.Seq, ShouldBeGreaterThan, 0)

		fan, err := s.CreateUser(ctx, model.User{
			ID: uuid.NewString(), Username: "fan_" + suffix, Email: suffix + "@f.test",
			PasswordHash: "x", Role: model.RoleUser,
		})
		So(err, ShouldBeNil)

		ev := model.Event{
			ID: uuid.NewString(), Name: "Card " + suffix, Organization: model.OrgUFC,
			Date: time.Now().Add(24 * time.Hour), Status: model.EventUpcoming,
			Fights: []model.Fight{{Fighter1: model.Fighter{Name: "A"}, Fighter2: model.Fighter{Name: "B"}}},
		}
		So(s.CreateEvent(ctx, ev), ShouldBeNil)

		idx := 0
		pick := model.Pick{
			ID: uuid.NewString(), CapperID: capper.ID, EventID: ev.ID, FightIndex: &idx,
			Prediction: model.Prediction{Winner: "A", Confidence: 7},
		}
		So(s.CreatePick(ctx, pick), ShouldBeNil)

		Convey("Duplicate emails are rejected case-insensitively", func() {
			_, err := s.CreateUser(ctx, model.User{
				ID: uuid.NewString(), Username: "other_" + suffix, Email: suffix + "@C.TEST",
				PasswordHash: "x", Role: model.RoleUser,
			})
			So(errors.Is(err, repository.ErrDuplicate), ShouldBeTrue)
		})

		Convey("A pick is verified only once", func() {
			o := model.VerifiedOutcome{Winner: "A", Method: model.MethodDecision, VerifiedAt: time.Now(), IsCorrect: true}
			So(s.MarkVerified(ctx, pick.ID, o), ShouldBeNil)
			So(errors.Is(s.MarkVerified(ctx, pick.ID, o), repository.ErrAlreadyVerified), ShouldBeTrue)
			So(errors.Is(s.DeletePick(ctx, pick.ID), repository.ErrPickLocked), ShouldBeTrue)

			got, err := s.FindPick(ctx, pick.ID)
			So(err, ShouldBeNil)
			So(got.Verified(), ShouldBeTrue)
			So(got.VerifiedOutcome.IsCorrect, ShouldBeTrue)
		})

		Convey("Stats updates are visible on the leaderboard", func() {
			u, err := s.UpdateStats(ctx, capper.ID, func(model.User) (model.CapperStats, error) {
				return model.CapperStats{TotalPicks: 1, CorrectPicks: 1, WinRate: 1, CloutScore: 99.99}, nil
			})
			So(err, ShouldBeNil)
			So(u.Stats.CloutScore, ShouldEqual, 99.99)

			e, err := s.CapperRank(ctx, capper.ID)
			So(err, ShouldBeNil)
			So(e.Rank, ShouldBeGreaterThanOrEqualTo, 1)
			So(e.CloutScore, ShouldEqual, 99.99)
		})

		Convey("Follow counters move with the edge", func() {
			So(s.Follow(ctx, fan.ID, capper.ID), ShouldBeNil)
			So(errors.Is(s.Follow(ctx, fan.ID, capper.ID), repository.ErrAlreadyFollowing), ShouldBeTrue)

			got, _ := s.FindUser(ctx, capper.ID)
			So(got.FollowerCount, ShouldEqual, 1)

			followers, total, err := s.ListFollowers(ctx, capper.ID, types.Page{Page: 1, Limit: 10})
			So(err, ShouldBeNil)
			So(total, ShouldEqual, 1)
			So(followers[0].ID, ShouldEqual, fan.ID)

			So(s.Unfollow(ctx, fan.ID, capper.ID), ShouldBeNil)
			got, _ = s.FindUser(ctx, capper.ID)
			So(got.FollowerCount, ShouldEqual, 0)
		})

		Convey("Likes are counted once per user", func() {
			n, err := s.LikePick(ctx, pick.ID, fan.ID)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)
			_, err = s.LikePick(ctx, pick.ID, fan.ID)
			So(errors.Is(err, repository.ErrAlreadyLiked), ShouldBeTrue)
			n, err = s.UnlikePick(ctx, pick.ID, fan.ID)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 0)
		})

		Convey("Completed events without results are not pending verification", func() {
			_, err := s.SetEventStatus(ctx, ev.ID, model.EventCompleted)
			So(err, ShouldBeNil)

			done, err := s.FindCompletedEventsWithResults(ctx)
			So(err, ShouldBeNil)
			for _, e := range done {
				So(e.ID, ShouldNotEqual, ev.ID)
				So(e.HasResults(), ShouldBeTrue)
			}
		})

		Convey("A draw without a winner counts as a result", func() {
			_, err := s.SetFightResult(ctx, ev.ID, 0, model.FightResult{Method: model.MethodDraw})
			So(err, ShouldBeNil)
			_, err = s.SetEventStatus(ctx, ev.ID, model.EventCompleted)
			So(err, ShouldBeNil)

			done, err := s.FindCompletedEventsWithResults(ctx)
			So(err, ShouldBeNil)
			found := false
			for _, e := range done {
				found = found || e.ID == ev.ID
			}
			So(found, ShouldBeTrue)
		})

		Convey("Results and status move the event forward", func() {
			_, err := s.SetFightResult(ctx, ev.ID, 3, model.FightResult{Winner: "A"})
			So(errors.Is(err, repository.ErrInvalidFight), ShouldBeTrue)

			got, err := s.SetFightResult(ctx, ev.ID, 0, model.FightResult{Winner: "A", Method: model.MethodDecision})
			So(err, ShouldBeNil)
			So(got.Fights[0].Result.Winner, ShouldEqual, "A")

			_, err = s.SetEventStatus(ctx, ev.ID, model.EventCompleted)
			So(err, ShouldBeNil)
			_, err = s.SetEventStatus(ctx, ev.ID, model.EventLive)
			So(errors.Is(err, repository.ErrInvalidTransition), ShouldBeTrue)

			done, err := s.FindCompletedEventsWithResults(ctx)
			So(err, ShouldBeNil)
			found := false
			for _, e := range done {
				found = found || e.ID == ev.ID
			}
			So(found, ShouldBeTrue)
		})
	})
}
