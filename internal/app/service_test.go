package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/clout/internal/adapters/repository"
	service "github.com/okian/clout/internal/app"
	"github.com/okian/clout/internal/auth"
	"github.com/okian/clout/internal/domain/model"
	"github.com/okian/clout/internal/domain/types"
	"github.com/okian/clout/internal/domain/verification"
	"github.com/okian/clout/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type fixture struct {
	ctx   context.Context
	clock *clockwork.FakeClock
	store *repository.Memory
	svc   *service.Service
}

func newFixture() *fixture {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	store := repository.NewMemory(repository.WithClock(clock))
	engine := verification.New(store, store, store,
		verification.WithClock(clock),
		verification.WithLogger(logger.Nop()),
	)
	tokens := auth.NewManager(auth.NewMemoryTokenStore(clock))
	svc := service.New(store, engine, tokens,
		service.WithClock(clock),
		service.WithLogger(logger.Nop()),
	)
	return &fixture{ctx: context.Background(), clock: clock, store: store, svc: svc}
}

func (f *fixture) signup(name string, role model.Role) service.Session {
	s, err := f.svc.Signup(f.ctx, service.SignupInput{
		Username: name, Email: name + "@example.com", Password: "password123", Role: role,
	})
	So(err, ShouldBeNil)
	return s
}

func (f *fixture) event() model.Event {
	e, err := f.svc.CreateEvent(f.ctx, service.EventInput{
		Name:         "UFC 300",
		Organization: model.OrgUFC,
		Date:         f.clock.Now().Add(7 * 24 * time.Hour),
		Fights: []model.Fight{
			{Fighter1: model.Fighter{Name: "Pereira"}, Fighter2: model.Fighter{Name: "Hill"}},
			{Fighter1: model.Fighter{Name: "Zhang"}, Fighter2: model.Fighter{Name: "Yan"}},
		},
	})
	So(err, ShouldBeNil)
	return e
}

func (f *fixture) pick(capper model.User, eventID string, fight int, winner string) model.Pick {
	p, err := f.svc.CreatePick(f.ctx, capper, service.PickInput{
		EventID:    eventID,
		FightIndex: fight,
		Prediction: model.Prediction{Winner: winner, Confidence: 8},
	})
	So(err, ShouldBeNil)
	return p
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestSignupAndLogin(t *testing.T) {
	Convey("Given a service", t, func() {
		f := newFixture()

		Convey("Invalid signups are rejected", func() {
			cases := []service.SignupInput{
				{Username: "ab", Email: "a@b.co", Password: "password123"},
				{Username: "bad name", Email: "a@b.co", Password: "password123"},
				{Username: "good_name", Email: "not-an-email", Password: "password123"},
				{Username: "good_name", Email: "a@b.co", Password: "short"},
				{Username: "good_name", Email: "a@b.co", Password: "password123", Role: model.RoleAdmin},
			}
			for _, in := range cases {
				_, err := f.svc.Signup(f.ctx, in)
				So(errors.Is(err, model.ErrInvalidInput), ShouldBeTrue)
			}
		})

		Convey("A signup opens a session", func() {
			s := f.signup("alice", model.RoleCapper)
			So(s.Token, ShouldNotBeEmpty)
			So(s.User.Role, ShouldEqual, model.RoleCapper)
			So(s.User.PasswordHash, ShouldNotEqual, "password123")

			u, err := f.svc.Authenticate(f.ctx, s.Token)
			So(err, ShouldBeNil)
			So(u.ID, ShouldEqual, s.User.ID)

			Convey("The email cannot be reused", func() {
				_, err := f.svc.Signup(f.ctx, service.SignupInput{
					Username: "alice2", Email: "ALICE@example.com", Password: "password123",
				})
				So(errors.Is(err, repository.ErrDuplicate), ShouldBeTrue)
			})

			Convey("Login checks the password", func() {
				_, err := f.svc.Login(f.ctx, "alice@example.com", "wrong-password")
				So(errors.Is(err, auth.ErrInvalidCredentials), ShouldBeTrue)

				_, err = f.svc.Login(f.ctx, "nobody@example.com", "password123")
				So(errors.Is(err, auth.ErrInvalidCredentials), ShouldBeTrue)

				s2, err := f.svc.Login(f.ctx, "alice@example.com", "password123")
				So(err, ShouldBeNil)
				So(s2.Token, ShouldNotEqual, s.Token)
			})

			Convey("Logout ends the session", func() {
				So(f.svc.Logout(f.ctx, s.Token), ShouldBeNil)
				_, err := f.svc.Authenticate(f.ctx, s.Token)
				So(errors.Is(err, auth.ErrUnauthenticated), ShouldBeTrue)
			})

			Convey("Only username and bio are editable", func() {
				name, bio := "alice_v2", "KO artist"
				u, err := f.svc.UpdateProfile(f.ctx, s.User.ID, service.ProfileInput{Username: &name, Bio: &bio})
				So(err, ShouldBeNil)
				So(u.Username, ShouldEqual, "alice_v2")
				So(u.Bio, ShouldEqual, "KO artist")
				So(u.Role, ShouldEqual, model.RoleCapper)
			})
		})
	})
}

func TestPickRules(t *testing.T) {
	Convey("Given a capper, a fan and an upcoming event", t, func() {
		f := newFixture()
		capper := f.signup("capper", model.RoleCapper).User
		fan := f.signup("fan", model.RoleUser).User
		ev := f.event()

		Convey("A capper can pick a fighter on the card", func() {
			p := f.pick(capper, ev.ID, 1, "Zhang")
			So(*p.FightIndex, ShouldEqual, 1)
			So(p.FightEvent.Fighters, ShouldResemble, [2]string{"Zhang", "Yan"})
			So(p.FightEvent.EventName, ShouldEqual, "UFC 300")
		})

		Convey("A plain user cannot post picks", func() {
			_, err := f.svc.CreatePick(f.ctx, fan, service.PickInput{
				EventID: ev.ID, Prediction: model.Prediction{Winner: "Hill", Confidence: 5},
			})
			So(errors.Is(err, model.ErrForbidden), ShouldBeTrue)
		})

		Convey("The winner must be on the chosen fight", func() {
			_, err := f.svc.CreatePick(f.ctx, capper, service.PickInput{
				EventID: ev.ID, FightIndex: 0, Prediction: model.Prediction{Winner: "Zhang", Confidence: 5},
			})
			So(errors.Is(err, model.ErrInvalidInput), ShouldBeTrue)
		})

		Convey("The fight must exist", func() {
			_, err := f.svc.CreatePick(f.ctx, capper, service.PickInput{
				EventID: ev.ID, FightIndex: 5, Prediction: model.Prediction{Winner: "Hill", Confidence: 5},
			})
			So(errors.Is(err, model.ErrInvalidFight), ShouldBeTrue)
		})

		Convey("Confidence and round are bounded", func() {
			round := 13
			_, err := f.svc.CreatePick(f.ctx, capper, service.PickInput{
				EventID: ev.ID, Prediction: model.Prediction{Winner: "Hill", Confidence: 11},
			})
			So(errors.Is(err, model.ErrInvalidInput), ShouldBeTrue)
			_, err = f.svc.CreatePick(f.ctx, capper, service.PickInput{
				EventID: ev.ID, Prediction: model.Prediction{Winner: "Hill", Round: &round, Confidence: 5},
			})
			So(errors.Is(err, model.ErrInvalidInput), ShouldBeTrue)
		})

		Convey("Picks close once the event starts", func() {
			_, err := f.svc.SetEventStatus(f.ctx, ev.ID, model.EventLive)
			So(err, ShouldBeNil)
			_, err = f.svc.CreatePick(f.ctx, capper, service.PickInput{
				EventID: ev.ID, Prediction: model.Prediction{Winner: "Hill", Confidence: 5},
			})
			So(errors.Is(err, model.ErrInvalidInput), ShouldBeTrue)
		})

		Convey("Only the owner may edit or delete a pick", func() {
			p := f.pick(capper, ev.ID, 0, "Hill")
			analysis := "southpaw edge"
			_, err := f.svc.UpdatePick(f.ctx, fan.ID, p.ID, service.PickUpdate{Analysis: &analysis})
			So(errors.Is(err, model.ErrForbidden), ShouldBeTrue)

			got, err := f.svc.UpdatePick(f.ctx, capper.ID, p.ID, service.PickUpdate{Analysis: &analysis})
			So(err, ShouldBeNil)
			So(got.Analysis, ShouldEqual, "southpaw edge")

			So(errors.Is(f.svc.DeletePick(f.ctx, fan.ID, p.ID), model.ErrForbidden), ShouldBeTrue)
			So(f.svc.DeletePick(f.ctx, capper.ID, p.ID), ShouldBeNil)
			_, err = f.svc.GetPick(f.ctx, p.ID)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("Likes are counted once per user", func() {
			p := f.pick(capper, ev.ID, 0, "Hill")
			n, err := f.svc.LikePick(f.ctx, fan.ID, p.ID)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)
			_, err = f.svc.LikePick(f.ctx, fan.ID, p.ID)
			So(errors.Is(err, repository.ErrAlreadyLiked), ShouldBeTrue)
			n, err = f.svc.UnlikePick(f.ctx, fan.ID, p.ID)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 0)
		})
	})
}

func TestVerificationFlow(t *testing.T) {
	Convey("Given a started service with open picks", t, func() {
		f := newFixture()
		So(f.svc.Start(f.ctx), ShouldBeNil)
		defer func() { _ = f.svc.Stop(f.ctx) }()

		capper := f.signup("capper", model.RoleCapper).User
		ev := f.event()
		right := f.pick(capper, ev.ID, 0, "Pereira")
		wrong := f.pick(capper, ev.ID, 1, "Yan")

		Convey("Completing an event with results verifies its picks through the queue", func() {
			round := 1
			_, err := f.svc.RecordFightResult(f.ctx, ev.ID, 0, service.ResultInput{
				Winner: "Pereira", Method: model.MethodKOTKO, Round: &round,
			})
			So(err, ShouldBeNil)
			_, err = f.svc.RecordFightResult(f.ctx, ev.ID, 1, service.ResultInput{
				Winner: "Zhang", Method: model.MethodDecision,
			})
			So(err, ShouldBeNil)

			_, err = f.svc.SetEventStatus(f.ctx, ev.ID, model.EventCompleted)
			So(err, ShouldBeNil)

			So(eventually(func() bool {
				u, _ := f.store.FindUser(f.ctx, capper.ID)
				return u.Stats.TotalPicks == 2
			}), ShouldBeTrue)

			u, _ := f.store.FindUser(f.ctx, capper.ID)
			So(u.Stats.CorrectPicks, ShouldEqual, 1)
			So(u.Stats.WinRate, ShouldEqual, 0.5)
			So(u.Stats.CloutScore, ShouldEqual, 35.0)

			p, _ := f.svc.GetPick(f.ctx, right.ID)
			So(p.VerifiedOutcome.IsCorrect, ShouldBeTrue)
			p, _ = f.svc.GetPick(f.ctx, wrong.ID)
			So(p.VerifiedOutcome.IsCorrect, ShouldBeFalse)

			Convey("A verified pick is locked", func() {
				analysis := "too late"
				_, err := f.svc.UpdatePick(f.ctx, capper.ID, right.ID, service.PickUpdate{Analysis: &analysis})
				So(errors.Is(err, repository.ErrPickLocked), ShouldBeTrue)
			})

			Convey("An admin run afterwards changes nothing", func() {
				rep, err := f.svc.VerifyNow(f.ctx)
				So(err, ShouldBeNil)
				So(rep.Verified, ShouldEqual, 0)

				stats, err := f.svc.RecomputeCapper(f.ctx, capper.ID)
				So(err, ShouldBeNil)
				So(stats.TotalPicks, ShouldEqual, 2)
				So(stats.CloutScore, ShouldEqual, 35.0)
			})
		})
	})
}

func TestDrawResults(t *testing.T) {
	Convey("Given open picks on both fighters of a bout", t, func() {
		f := newFixture()
		capper := f.signup("capper", model.RoleCapper).User
		ev := f.event()
		onPereira := f.pick(capper, ev.ID, 0, "Pereira")
		onHill := f.pick(capper, ev.ID, 0, "Hill")

		Convey("A draw cannot name a winner", func() {
			_, err := f.svc.RecordFightResult(f.ctx, ev.ID, 0, service.ResultInput{
				Winner: "Pereira", Method: model.MethodDraw,
			})
			So(errors.Is(err, model.ErrInvalidInput), ShouldBeTrue)
		})

		Convey("A decision still needs one", func() {
			_, err := f.svc.RecordFightResult(f.ctx, ev.ID, 0, service.ResultInput{Method: model.MethodDecision})
			So(errors.Is(err, model.ErrInvalidInput), ShouldBeTrue)
		})

		Convey("A recorded draw grades every pick on the fight incorrect", func() {
			_, err := f.svc.RecordFightResult(f.ctx, ev.ID, 0, service.ResultInput{Method: model.MethodDraw})
			So(err, ShouldBeNil)
			_, err = f.svc.SetEventStatus(f.ctx, ev.ID, model.EventCompleted)
			So(err, ShouldBeNil)

			rep, err := f.svc.VerifyNow(f.ctx)
			So(err, ShouldBeNil)
			So(rep.Verified, ShouldEqual, 2)
			So(rep.Correct, ShouldEqual, 0)

			for _, id := range []string{onPereira.ID, onHill.ID} {
				p, err := f.svc.GetPick(f.ctx, id)
				So(err, ShouldBeNil)
				So(p.Verified(), ShouldBeTrue)
				So(p.VerifiedOutcome.IsCorrect, ShouldBeFalse)
				So(p.VerifiedOutcome.Method, ShouldEqual, model.MethodDraw)
			}

			u, _ := f.store.FindUser(f.ctx, capper.ID)
			So(u.Stats.TotalPicks, ShouldEqual, 2)
			So(u.Stats.CorrectPicks, ShouldEqual, 0)
			So(u.Stats.CloutScore, ShouldEqual, 0.0)
		})
	})
}

func TestFollowRefreshesClout(t *testing.T) {
	Convey("Given a capper and a fan", t, func() {
		f := newFixture()
		capper := f.signup("capper", model.RoleCapper).User
		fan := f.signup("fan", model.RoleUser).User

		Convey("Following adds the social part of the score", func() {
			u, err := f.svc.Follow(f.ctx, fan.ID, capper.ID)
			So(err, ShouldBeNil)
			So(u.FollowerCount, ShouldEqual, 1)
			So(u.Stats.CloutScore, ShouldEqual, 0.1)

			entries, page, err := f.svc.Leaderboard(f.ctx, types.Page{Page: 1, Limit: 10})
			So(err, ShouldBeNil)
			So(page.Total, ShouldEqual, 1)
			So(entries[0].CloutScore, ShouldEqual, 0.1)

			followers, _, err := f.svc.Followers(f.ctx, capper.ID, types.Page{Page: 1, Limit: 10})
			So(err, ShouldBeNil)
			So(followers[0].ID, ShouldEqual, fan.ID)

			Convey("Unfollowing removes it again", func() {
				u, err := f.svc.Unfollow(f.ctx, fan.ID, capper.ID)
				So(err, ShouldBeNil)
				So(u.FollowerCount, ShouldEqual, 0)
				So(u.Stats.CloutScore, ShouldEqual, 0.0)
			})
		})

		Convey("Following yourself is rejected", func() {
			_, err := f.svc.Follow(f.ctx, fan.ID, fan.ID)
			So(errors.Is(err, repository.ErrSelfFollow), ShouldBeTrue)
		})
	})
}

func TestCapperProfile(t *testing.T) {
	Convey("Given a capper with several picks", t, func() {
		f := newFixture()
		capper := f.signup("capper", model.RoleCapper).User
		ev := f.event()
		for range 7 {
			f.pick(capper, ev.ID, 0, "Hill")
		}

		Convey("The profile shows rank, pending count and the five most recent picks", func() {
			prof, err := f.svc.CapperProfile(f.ctx, capper.ID)
			So(err, ShouldBeNil)
			So(prof.Rank, ShouldEqual, 1)
			So(prof.PendingPicks, ShouldEqual, 7)
			So(prof.RecentPicks, ShouldHaveLength, 5)
		})

		Convey("A plain user has no capper profile", func() {
			fan := f.signup("fan", model.RoleUser).User
			_, err := f.svc.CapperProfile(f.ctx, fan.ID)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestEnqueueVerification(t *testing.T) {
	Convey("Given a service whose workers are not running", t, func() {
		f := newFixture()

		Convey("An event is queued once until a worker releases it", func() {
			So(f.svc.EnqueueVerification(f.ctx, "e1", "test"), ShouldBeTrue)
			So(f.svc.EnqueueVerification(f.ctx, "e1", "test"), ShouldBeFalse)
			So(f.svc.EnqueueVerification(f.ctx, "e2", "test"), ShouldBeTrue)
		})

		Convey("Stats report the configuration before start", func() {
			stats := f.svc.GetStats()
			So(stats["started"], ShouldEqual, false)
			So(stats["workerCount"], ShouldEqual, 1)
		})
	})
}
