package verification

import "github.com/okian/clout/internal/domain/model"

// IsCorrect grades a prediction against an official result. The winner must
// match; method and round count only when they were predicted. Every pick on
// a draw or no contest is incorrect.
func IsCorrect(p model.Prediction, r model.FightResult) bool {
	if r.Method.NoWinner() || p.Winner != r.Winner {
		return false
	}
	if p.Method != nil && *p.Method != r.Method {
		return false
	}
	if p.Round != nil && (r.Round == nil || *p.Round != *r.Round) {
		return false
	}
	return true
}

// Reasons a pick stays open after a pass.
const (
	SkipNoResult         = "no_result"
	SkipFightOutOfRange  = "fight_out_of_range"
	SkipIncompleteResult = "incomplete_result"
	SkipAlreadyVerified  = "already_verified"
)

// resolution is the fight a pick was matched to, or why it was not.
type resolution struct {
	fight      *model.Fight
	index      int
	fellBack   bool
	skipReason string
}

// resolveFight finds the fight a pick refers to. Legacy picks without an
// index resolve to the first fight.
func resolveFight(ev *model.Event, p *model.Pick) resolution {
	res := resolution{}
	if p.FightIndex == nil {
		res.fellBack = true
	} else {
		res.index = *p.FightIndex
	}

	fight, ok := ev.Fight(res.index)
	switch {
	case !ok:
		res.skipReason = SkipFightOutOfRange
	case fight.Result == nil:
		res.skipReason = SkipNoResult
	case !fight.Result.Complete():
		res.skipReason = SkipIncompleteResult
	default:
		res.fight = fight
	}
	return res
}
