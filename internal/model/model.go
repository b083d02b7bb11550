package model

import (
	"fmt"
	"strconv"
)

// Side represents which bench a player sits on.
type Side int

const (
	SideUnknown Side = 0
	SideAway    Side = 1
	SideHome    Side = 2
)

func (s Side) String() string {
	switch s {
	case SideAway:
		return "away"
	case SideHome:
		return "home"
	default:
		return "?"
	}
}

// PersonID is the stats provider's player identifier, unique across both rosters of a game.
type PersonID int64

func (id PersonID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Team is the per-game team header taken from the box score.
type Team struct {
	Tricode string
	Score   int
	Side    Side
}

// Player is created once from box-score data and never mutated afterwards.
type Player struct {
	ID        PersonID
	TeamCode  string
	Side      Side
	Name      string // nameI, e.g. "J. Tatum"
	IsStarter bool
}

// Roster maps every player of both teams by id.
type Roster map[PersonID]Player

// ---- Substitution events ----

// Direction is whether a substitution brings a player onto or off the court.
type Direction int

const (
	In  Direction = 1
	Out Direction = 2
)

func (d Direction) String() string {
	switch d {
	case In:
		return "in"
	case Out:
		return "out"
	default:
		return "?"
	}
}

// SubstitutionEvent is one "in" or "out" action taken from the play-by-play feed.
type SubstitutionEvent struct {
	EventIndex   int // index within game.actions
	ActionNumber int
	Period       int
	ClockText    string // e.g. "PT11M30.00S"
	PlayerID     PersonID
	Direction    Direction
}

// ---- Intervals ----

// Bound is the end of an on-court interval: either still open or closed at a
// number of elapsed seconds. The zero value is open.
type Bound struct {
	seconds int
	closed  bool
}

// Open returns the bound of an interval whose player is still on the court.
func Open() Bound { return Bound{} }

// ClosedAt returns a bound closed at the given elapsed seconds.
func ClosedAt(seconds int) Bound { return Bound{seconds: seconds, closed: true} }

// IsOpen reports whether the interval is still running.
func (b Bound) IsOpen() bool { return !b.closed }

// Seconds returns the closing time and whether the bound is closed.
func (b Bound) Seconds() (int, bool) { return b.seconds, b.closed }

func (b Bound) String() string {
	if !b.closed {
		return "open"
	}
	return strconv.Itoa(b.seconds)
}

// Interval is an in-progress on-court span used while a timeline is being built.
type Interval struct {
	Begin int
	End   Bound
}

// Span is a finalized on-court interval in elapsed seconds since tip-off.
type Span struct {
	Begin int `json:"begin"`
	End   int `json:"end"`
}

// Seconds returns the length of the span.
func (s Span) Seconds() int { return s.End - s.Begin }

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d]", s.Begin, s.End)
}

// Timelines is the finalized per-player interval map, ordered by Begin within each player.
type Timelines map[PersonID][]Span

// ---- Game header ----

// GameSummary is the box-score header stored alongside a built game.
type GameSummary struct {
	GameID        string
	GameTimeLocal string // as provided, e.g. "2024-05-19T20:00:00-04:00"
	GameStatus    int    // 3 = final
	Period        int    // final period
	Home          Team
	Away          Team
}

// Final reports whether the box score describes a finished game.
func (g GameSummary) Final() bool { return g.GameStatus == 3 }

// Day returns the local calendar day of the game, or "" when the time is missing.
func (g GameSummary) Day() string {
	if len(g.GameTimeLocal) < 10 {
		return ""
	}
	return g.GameTimeLocal[:10]
}

// PlayerGame is one player's line in one stored game.
type PlayerGame struct {
	Game    GameSummary
	Player  Player
	Stints  int
	Seconds int
	Failed  bool // timeline dropped by a sequence failure
}
