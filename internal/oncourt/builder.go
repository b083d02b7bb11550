// Package oncourt reconstructs per-player on-court intervals from a game's
// starters and its ordered substitution stream.
package oncourt

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/pable/go-nba-oncourt/internal/clock"
	"github.com/pable/go-nba-oncourt/internal/model"
)

// MaxOnCourt is the number of players a team fields.
const MaxOnCourt = 5

// Input is one game's seed state and substitution stream.
type Input struct {
	GameID      string
	Timelines   map[model.PersonID][]model.Interval // seed; not modified
	Roster      model.Roster
	Events      []model.SubstitutionEvent // chronological
	FinalPeriod int
}

// Result is the finalized output of Build. It shares no memory with the Input.
type Result struct {
	GameID     string
	MaxElapsed int
	Timelines  model.Timelines
	Anomalies  []Anomaly
	Failures   []*SequenceError
}

// Err joins every sequence failure, or returns nil when all players were rebuilt.
func (r *Result) Err() error {
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Builder runs the substitution state machine.
type Builder struct {
	log *slog.Logger
}

// New returns a Builder logging anomalies to log (slog.Default when nil).
func New(log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}
	return &Builder{log: log.With(slog.String("component", "oncourt"))}
}

// playerState is the builder's private working copy of one timeline.
type playerState struct {
	intervals []model.Interval
	lastEvent int // event that caused the latest transition, -1 for the tip-off seed
	failed    bool
}

func (st *playerState) onCourt() bool {
	n := len(st.intervals)
	return n > 0 && st.intervals[n-1].End.IsOpen()
}

// apply performs one transition, or describes why it is impossible.
func (st *playerState) apply(ev model.SubstitutionEvent, elapsed int) *SequenceError {
	fail := func(kind SequenceKind) *SequenceError {
		return &SequenceError{
			PlayerID:   ev.PlayerID,
			Kind:       kind,
			EventIndex: ev.EventIndex,
			PriorIndex: st.lastEvent,
			Period:     ev.Period,
			ClockText:  ev.ClockText,
			Elapsed:    elapsed,
		}
	}

	n := len(st.intervals)
	switch ev.Direction {
	case model.In:
		if st.onCourt() {
			return fail(DoubleIn)
		}
		if n > 0 {
			if end, _ := st.intervals[n-1].End.Seconds(); elapsed < end {
				return fail(Regressed)
			}
		}
		st.intervals = append(st.intervals, model.Interval{Begin: elapsed, End: model.Open()})
	case model.Out:
		if !st.onCourt() {
			return fail(UnmatchedOut)
		}
		if elapsed < st.intervals[n-1].Begin {
			return fail(Regressed)
		}
		st.intervals[n-1].End = model.ClosedAt(elapsed)
	default:
		panic(fmt.Sprintf("oncourt: unknown direction %d", ev.Direction))
	}
	st.lastEvent = ev.EventIndex
	return nil
}

// Build replays the events over the seeded timelines and closes every
// interval still open at the end of the game's final period.
//
// Structural problems (unparseable clock, unknown player, short game) abort the
// game and are returned as *model.StructuralError. Impossible sequences only
// drop the affected player; they are reported in Result.Failures.
func (b *Builder) Build(in Input) (*Result, error) {
	maxElapsed, err := clock.MaxElapsed(in.FinalPeriod)
	if err != nil {
		return nil, &model.StructuralError{GameID: in.GameID, Path: "game.period", Reason: "cannot derive game length", Err: err}
	}

	work := make(map[model.PersonID]*playerState, len(in.Roster))
	for id := range in.Roster {
		seed := in.Timelines[id]
		intervals := make([]model.Interval, len(seed))
		copy(intervals, seed)
		work[id] = &playerState{intervals: intervals, lastEvent: -1}
	}

	res := &Result{GameID: in.GameID, MaxElapsed: maxElapsed}
	log := b.log.With(slog.String("game", in.GameID))

	// ---- Replay substitutions in feed order. ----

	stamp, stampEvent := 0, -1
	for _, ev := range in.Events {
		st, ok := work[ev.PlayerID]
		if !ok {
			return nil, &model.StructuralError{
				GameID: in.GameID,
				Path:   fmt.Sprintf("game.actions[%d].personId", ev.EventIndex),
				Reason: fmt.Sprintf("person %s is on neither roster", ev.PlayerID),
			}
		}
		elapsed, err := clock.Elapsed(ev.Period, ev.ClockText)
		if err != nil {
			return nil, &model.StructuralError{
				GameID: in.GameID,
				Path:   fmt.Sprintf("game.actions[%d].clock", ev.EventIndex),
				Reason: "unparseable clock",
				Err:    err,
			}
		}

		if elapsed < 0 || elapsed > maxElapsed {
			a := Anomaly{Kind: ClockRange, EventIndex: ev.EventIndex, Period: ev.Period, ClockText: ev.ClockText, Elapsed: elapsed}
			res.Anomalies = append(res.Anomalies, a)
			log.Warn("elapsed outside game",
				slog.Int("event", ev.EventIndex),
				slog.Int("period", ev.Period),
				slog.String("clock", ev.ClockText),
				slog.Int("elapsed", elapsed),
				slog.Int("max", maxElapsed))
			elapsed = min(max(elapsed, 0), maxElapsed)
		}

		// Lineups are only meaningful once every substitution sharing a
		// timestamp has been applied.
		if elapsed != stamp {
			res.Anomalies = append(res.Anomalies, checkLineups(log, in.Roster, work, stamp, stampEvent)...)
		}
		stamp, stampEvent = elapsed, ev.EventIndex

		if st.failed {
			continue
		}
		if serr := st.apply(ev, elapsed); serr != nil {
			serr.GameID = in.GameID
			st.failed = true
			res.Failures = append(res.Failures, serr)
			log.Warn("dropping player timeline", slog.Any("err", serr))
		}
	}
	res.Anomalies = append(res.Anomalies, checkLineups(log, in.Roster, work, stamp, stampEvent)...)

	// ---- Finalize. ----

	res.Timelines = make(model.Timelines, len(work))
	for id, st := range work {
		if st.failed {
			continue
		}
		spans := make([]model.Span, 0, len(st.intervals))
		for _, iv := range st.intervals {
			end, closed := iv.End.Seconds()
			if !closed {
				end = maxElapsed
			}
			spans = append(spans, model.Span{Begin: iv.Begin, End: end})
		}
		res.Timelines[id] = spans
	}
	return res, nil
}

// checkLineups reports every team with more than MaxOnCourt players on the
// court once all events at elapsed have been applied. eventIndex is the last
// of those events, -1 at tip-off.
func checkLineups(log *slog.Logger, roster model.Roster, work map[model.PersonID]*playerState, elapsed, eventIndex int) []Anomaly {
	counts := make(map[string]int)
	for id, st := range work {
		if !st.failed && st.onCourt() {
			counts[roster[id].TeamCode]++
		}
	}
	teams := make([]string, 0, len(counts))
	for team, n := range counts {
		if n > MaxOnCourt {
			teams = append(teams, team)
		}
	}
	sort.Strings(teams)

	var out []Anomaly
	for _, team := range teams {
		log.Warn("too many players on court",
			slog.String("team", team),
			slog.Int("on_court", counts[team]),
			slog.Int("elapsed", elapsed))
		out = append(out, Anomaly{
			Kind:       LineupSize,
			EventIndex: eventIndex,
			Elapsed:    elapsed,
			Team:       team,
			OnCourt:    counts[team],
		})
	}
	return out
}
