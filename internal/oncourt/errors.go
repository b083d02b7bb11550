package oncourt

import (
	"fmt"

	"github.com/pable/go-nba-oncourt/internal/model"
)

// SequenceKind classifies an impossible substitution sequence.
type SequenceKind int

const (
	// DoubleIn is an "in" for a player who is already on the court.
	DoubleIn SequenceKind = iota + 1
	// UnmatchedOut is an "out" for a player who is not on the court.
	UnmatchedOut
	// Regressed is an event timestamped before the player's previous transition.
	Regressed
)

func (k SequenceKind) String() string {
	switch k {
	case DoubleIn:
		return "double in"
	case UnmatchedOut:
		return "unmatched out"
	case Regressed:
		return "clock regressed"
	default:
		return "unknown"
	}
}

// SequenceError reports a substitution that contradicts the player's current
// state. It is fatal to that player's timeline only.
type SequenceError struct {
	GameID     string
	PlayerID   model.PersonID
	Kind       SequenceKind
	EventIndex int
	// PriorIndex is the event that opened the player's current interval for
	// DoubleIn, or the event of the previous transition for Regressed.
	// -1 means the interval was seeded at tip-off for a starter.
	PriorIndex int
	Period     int
	ClockText  string
	Elapsed    int
}

func (e *SequenceError) Error() string {
	msg := fmt.Sprintf("game %s: player %s: %s at event %d (period %d, clock %s, elapsed %d)",
		e.GameID, e.PlayerID, e.Kind, e.EventIndex, e.Period, e.ClockText, e.Elapsed)
	switch e.Kind {
	case DoubleIn, Regressed:
		if e.PriorIndex < 0 {
			msg += ", on court since tip-off"
		} else {
			msg += fmt.Sprintf(", after event %d", e.PriorIndex)
		}
	}
	return msg
}

// AnomalyKind classifies a non-fatal data oddity.
type AnomalyKind int

const (
	// ClockRange is an elapsed time outside [0, game length].
	ClockRange AnomalyKind = iota + 1
	// LineupSize is a team with more than five players on the court.
	LineupSize
)

func (k AnomalyKind) String() string {
	switch k {
	case ClockRange:
		return "clock out of range"
	case LineupSize:
		return "lineup size"
	default:
		return "unknown"
	}
}

// Anomaly is a warning recorded while building; processing continues.
type Anomaly struct {
	Kind       AnomalyKind
	EventIndex int // -1 for the tip-off lineup check
	Period     int
	ClockText  string
	Elapsed    int    // raw computed value for ClockRange
	Team       string // LineupSize only
	OnCourt    int    // LineupSize only
}

func (a Anomaly) String() string {
	switch a.Kind {
	case ClockRange:
		return fmt.Sprintf("%s: event %d period %d clock %s elapsed %d",
			a.Kind, a.EventIndex, a.Period, a.ClockText, a.Elapsed)
	case LineupSize:
		return fmt.Sprintf("%s: %s has %d on court at elapsed %d (after event %d)",
			a.Kind, a.Team, a.OnCourt, a.Elapsed, a.EventIndex)
	default:
		return a.Kind.String()
	}
}
