package parser

import (
	"fmt"
	"sort"

	"github.com/pable/go-nba-oncourt/internal/clock"
	"github.com/pable/go-nba-oncourt/internal/model"
	"github.com/pable/go-nba-oncourt/internal/nbalive"
)

const actionSubstitution = "substitution"

// ExtractSubstitutions returns the substitution actions of a play-by-play
// feed in feed order. Nothing is reordered or de-duplicated.
func ExtractSubstitutions(pbp *nbalive.PlayByPlay) ([]model.SubstitutionEvent, error) {
	gameID := pbp.Game.GameID
	var out []model.SubstitutionEvent

	for i, a := range pbp.Game.Actions {
		if a.ActionType != actionSubstitution {
			continue
		}
		path := fmt.Sprintf("game.actions[%d]", i)

		var dir model.Direction
		switch a.SubType {
		case "in":
			dir = model.In
		case "out":
			dir = model.Out
		default:
			return nil, &model.StructuralError{
				GameID: gameID,
				Path:   path + ".subType",
				Reason: fmt.Sprintf("unexpected value %q", a.SubType),
			}
		}
		if a.PersonID == nil {
			return nil, &model.StructuralError{GameID: gameID, Path: path + ".personId", Reason: "missing"}
		}
		if a.Period == nil {
			return nil, &model.StructuralError{GameID: gameID, Path: path + ".period", Reason: "missing"}
		}
		if a.Clock == nil {
			return nil, &model.StructuralError{GameID: gameID, Path: path + ".clock", Reason: "missing"}
		}

		out = append(out, model.SubstitutionEvent{
			EventIndex:   i,
			ActionNumber: a.ActionNumber,
			Period:       *a.Period,
			ClockText:    *a.Clock,
			PlayerID:     model.PersonID(*a.PersonID),
			Direction:    dir,
		})
	}
	return out, nil
}

// SortChronologically stable-sorts events by period, then by time remaining
// descending. Events whose clock cannot be parsed keep their relative position
// at the end of their period; the builder reports them.
func SortChronologically(events []model.SubstitutionEvent) {
	remaining := func(e model.SubstitutionEvent) (float64, bool) {
		d, err := clock.ParseRemaining(e.ClockText)
		if err != nil {
			return 0, false
		}
		return d.Seconds(), true
	}
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.Period != b.Period {
			return a.Period < b.Period
		}
		ra, okA := remaining(a)
		rb, okB := remaining(b)
		if !okA || !okB {
			return okA && !okB
		}
		return ra > rb
	})
}
