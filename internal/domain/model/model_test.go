package model_test

import (
	"testing"

	"github.com/okian/clout/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEventStatusTransitions(t *testing.T) {
	Convey("Given event statuses", t, func() {
		Convey("Then status only moves forward", func() {
			So(model.EventUpcoming.CanTransition(model.EventLive), ShouldBeTrue)
			So(model.EventUpcoming.CanTransition(model.EventCompleted), ShouldBeTrue)
			So(model.EventLive.CanTransition(model.EventCompleted), ShouldBeTrue)
			So(model.EventCompleted.CanTransition(model.EventLive), ShouldBeFalse)
			So(model.EventLive.CanTransition(model.EventLive), ShouldBeFalse)
			So(model.EventUpcoming.CanTransition("cancelled"), ShouldBeFalse)
		})
	})
}

func TestEnums(t *testing.T) {
	Convey("Known values validate and unknown ones do not", t, func() {
		So(model.MethodKOTKO.Valid(), ShouldBeTrue)
		So(model.MethodNoContest.Valid(), ShouldBeTrue)
		So(model.Method("DQ").Valid(), ShouldBeFalse)
		So(model.OrgPFL.Valid(), ShouldBeTrue)
		So(model.Organization("NFL").Valid(), ShouldBeFalse)
		So(model.RoleCapper.Valid(), ShouldBeTrue)
		So(model.Role("root").Valid(), ShouldBeFalse)
	})
}

func TestEventHelpers(t *testing.T) {
	Convey("Given an event with two fights", t, func() {
		e := model.Event{Fights: []model.Fight{
			{Fighter1: model.Fighter{Name: "A"}, Fighter2: model.Fighter{Name: "B"}},
			{Fighter1: model.Fighter{Name: "C"}, Fighter2: model.Fighter{Name: "D"}},
		}}

		Convey("Then it has no results until one is recorded", func() {
			So(e.HasResults(), ShouldBeFalse)
			e.Fights[1].Result = &model.FightResult{Winner: "C", Method: model.MethodDecision}
			So(e.HasResults(), ShouldBeTrue)
			So(e.Fights[1].Result.Complete(), ShouldBeTrue)
		})

		Convey("Then fights are looked up by index with bounds checks", func() {
			f, ok := e.Fight(1)
			So(ok, ShouldBeTrue)
			So(f.HasFighter("D"), ShouldBeTrue)
			So(f.HasFighter("A"), ShouldBeFalse)
			_, ok = e.Fight(2)
			So(ok, ShouldBeFalse)
			_, ok = e.Fight(-1)
			So(ok, ShouldBeFalse)
		})

		Convey("Then a result without a method is incomplete", func() {
			r := &model.FightResult{Winner: "A"}
			So(r.Complete(), ShouldBeFalse)
			var nilResult *model.FightResult
			So(nilResult.Complete(), ShouldBeFalse)
		})

		Convey("Then draws and no contests are complete without a winner", func() {
			So((&model.FightResult{Method: model.MethodDraw}).Complete(), ShouldBeTrue)
			So((&model.FightResult{Method: model.MethodNoContest}).Complete(), ShouldBeTrue)
			So((&model.FightResult{Method: model.MethodDecision}).Complete(), ShouldBeFalse)
			So(model.MethodDraw.NoWinner(), ShouldBeTrue)
			So(model.MethodKOTKO.NoWinner(), ShouldBeFalse)
		})
	})
}

func TestPickVerified(t *testing.T) {
	Convey("A pick is verified once it carries an outcome", t, func() {
		p := model.Pick{}
		So(p.Verified(), ShouldBeFalse)
		p.VerifiedOutcome = &model.VerifiedOutcome{Winner: "A", Method: model.MethodDecision}
		So(p.Verified(), ShouldBeTrue)
	})
}
