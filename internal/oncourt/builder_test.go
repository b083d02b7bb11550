package oncourt

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"reflect"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/pable/go-nba-oncourt/internal/clock"
	"github.com/pable/go-nba-oncourt/internal/model"
)

// Away starters 101-105, bench 106-108; home starters 201-205, bench 206-208.
func testRoster() model.Roster {
	r := make(model.Roster)
	for _, team := range []struct {
		code string
		base model.PersonID
		side model.Side
	}{{"BOS", 100, model.SideAway}, {"DAL", 200, model.SideHome}} {
		for i := model.PersonID(1); i <= 8; i++ {
			id := team.base + i
			r[id] = model.Player{ID: id, TeamCode: team.code, Side: team.side, Name: fmt.Sprintf("%s-%d", team.code, i), IsStarter: i <= 5}
		}
	}
	return r
}

func seed(r model.Roster) map[model.PersonID][]model.Interval {
	out := make(map[model.PersonID][]model.Interval, len(r))
	for id, p := range r {
		if p.IsStarter {
			out[id] = []model.Interval{{Begin: 0, End: model.Open()}}
		} else {
			out[id] = []model.Interval{}
		}
	}
	return out
}

// clockFor returns the period and clock text that map back to elapsed.
func clockFor(elapsed int) (int, string) {
	period := 1
	for elapsed > clock.PeriodEnd(period) {
		period++
	}
	left := clock.PeriodEnd(period) - elapsed
	return period, fmt.Sprintf("PT%02dM%02d.00S", left/60, left%60)
}

func sub(idx, elapsed int, id model.PersonID, dir model.Direction) model.SubstitutionEvent {
	period, text := clockFor(elapsed)
	return model.SubstitutionEvent{EventIndex: idx, Period: period, ClockText: text, PlayerID: id, Direction: dir}
}

func quietBuilder() *Builder {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func build(t *testing.T, events []model.SubstitutionEvent, finalPeriod int) *Result {
	t.Helper()
	r := testRoster()
	res, err := quietBuilder().Build(Input{
		GameID:      "0022300001",
		Timelines:   seed(r),
		Roster:      r,
		Events:      events,
		FinalPeriod: finalPeriod,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return res
}

func TestBuildNoEvents(t *testing.T) {
	for _, period := range []int{4, 6} {
		res := build(t, nil, period)
		gameLen, _ := clock.MaxElapsed(period)

		if res.MaxElapsed != gameLen {
			t.Errorf("MaxElapsed = %d, want %d", res.MaxElapsed, gameLen)
		}
		for id, p := range testRoster() {
			spans, ok := res.Timelines[id]
			if !ok {
				t.Errorf("player %s missing from output", id)
				continue
			}
			if p.IsStarter {
				want := []model.Span{{Begin: 0, End: gameLen}}
				if !reflect.DeepEqual(spans, want) {
					t.Errorf("starter %s: got %v, want %v", id, spans, want)
				}
			} else if len(spans) != 0 {
				t.Errorf("bench %s: expected empty timeline, got %v", id, spans)
			}
		}
		if len(res.Anomalies) != 0 || len(res.Failures) != 0 {
			t.Errorf("unexpected issues: %v %v", res.Anomalies, res.Failures)
		}
	}
}

func TestBuildInThenOut(t *testing.T) {
	res := build(t, []model.SubstitutionEvent{
		sub(10, 100, 101, model.Out),
		sub(11, 100, 106, model.In),
		sub(40, 500, 106, model.Out),
		sub(41, 500, 101, model.In),
	}, 4)

	if got, want := res.Timelines[106], []model.Span{{Begin: 100, End: 500}}; !reflect.DeepEqual(got, want) {
		t.Errorf("bench player: got %v, want %v", got, want)
	}
	if got, want := res.Timelines[101], []model.Span{{Begin: 0, End: 100}, {Begin: 500, End: 2880}}; !reflect.DeepEqual(got, want) {
		t.Errorf("starter: got %v, want %v", got, want)
	}
	if err := res.Err(); err != nil {
		t.Errorf("unexpected failures: %v", err)
	}
}

func TestBuildClosesAtFinalPeriodNotLastEvent(t *testing.T) {
	// Last substitution in the fourth quarter, game ends after one overtime.
	res := build(t, []model.SubstitutionEvent{
		sub(5, 2800, 205, model.Out),
		sub(6, 2800, 207, model.In),
	}, 5)

	if got, want := res.Timelines[207], []model.Span{{Begin: 2800, End: 3180}}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestBuildDoubleIn(t *testing.T) {
	res := build(t, []model.SubstitutionEvent{
		sub(3, 200, 102, model.Out),
		sub(4, 200, 106, model.In),
		sub(9, 300, 106, model.In),
		sub(12, 400, 106, model.Out),
		sub(13, 400, 203, model.Out),
		sub(14, 400, 206, model.In),
	}, 4)

	if len(res.Failures) != 1 {
		t.Fatalf("expected 1 failure, got %v", res.Failures)
	}
	f := res.Failures[0]
	if f.Kind != DoubleIn || f.PlayerID != 106 || f.EventIndex != 9 || f.PriorIndex != 4 {
		t.Errorf("unexpected failure: %+v", f)
	}
	if f.GameID != "0022300001" || f.Period != 1 || f.ClockText != "PT07M00.00S" {
		t.Errorf("missing context: %+v", f)
	}

	if _, ok := res.Timelines[106]; ok {
		t.Error("failed player should be excluded from output")
	}
	// Other players are unaffected, including a later event for another team.
	if got, want := res.Timelines[206], []model.Span{{Begin: 400, End: 2880}}; !reflect.DeepEqual(got, want) {
		t.Errorf("unrelated player: got %v, want %v", got, want)
	}

	var serr *SequenceError
	if !errors.As(res.Err(), &serr) || serr.PlayerID != 106 {
		t.Errorf("Err() should expose the SequenceError, got %v", res.Err())
	}
}

func TestBuildStarterDoubleIn(t *testing.T) {
	res := build(t, []model.SubstitutionEvent{sub(0, 50, 201, model.In)}, 4)

	if len(res.Failures) != 1 {
		t.Fatalf("expected 1 failure, got %v", res.Failures)
	}
	if f := res.Failures[0]; f.Kind != DoubleIn || f.PriorIndex != -1 {
		t.Errorf("unexpected failure: %+v", f)
	}
}

func TestBuildUnmatchedOut(t *testing.T) {
	res := build(t, []model.SubstitutionEvent{
		sub(7, 900, 108, model.Out),
	}, 4)

	if len(res.Failures) != 1 || res.Failures[0].Kind != UnmatchedOut || res.Failures[0].PlayerID != 108 {
		t.Fatalf("expected unmatched out for 108, got %v", res.Failures)
	}
}

func TestBuildRegressedClock(t *testing.T) {
	res := build(t, []model.SubstitutionEvent{
		sub(1, 600, 104, model.Out),
		sub(2, 500, 104, model.In),
	}, 4)

	if len(res.Failures) != 1 || res.Failures[0].Kind != Regressed || res.Failures[0].PriorIndex != 1 {
		t.Fatalf("expected regressed failure, got %v", res.Failures)
	}
}

func TestBuildClockRangeAnomaly(t *testing.T) {
	// Period 5 reading in a game that ended in regulation.
	events := []model.SubstitutionEvent{
		{EventIndex: 0, Period: 5, ClockText: "PT01M00.00S", PlayerID: 105, Direction: model.Out},
	}
	res := build(t, events, 4)

	if len(res.Anomalies) != 1 {
		t.Fatalf("expected 1 anomaly, got %v", res.Anomalies)
	}
	a := res.Anomalies[0]
	if a.Kind != ClockRange || a.Elapsed != 3120 || a.Period != 5 || a.ClockText != "PT01M00.00S" {
		t.Errorf("unexpected anomaly: %+v", a)
	}
	// Clamped so the interval stays inside the game.
	if got, want := res.Timelines[105], []model.Span{{Begin: 0, End: 2880}}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if res.Err() != nil {
		t.Errorf("clock anomaly must not fail the player: %v", res.Err())
	}
}

func TestBuildSubSecondOverLengthClock(t *testing.T) {
	// Half a second more than the quarter holds.
	events := []model.SubstitutionEvent{
		{EventIndex: 3, Period: 1, ClockText: "PT12M00.50S", PlayerID: 105, Direction: model.Out},
	}
	res := build(t, events, 4)

	if len(res.Anomalies) != 1 {
		t.Fatalf("expected 1 anomaly, got %v", res.Anomalies)
	}
	if a := res.Anomalies[0]; a.Kind != ClockRange || a.Elapsed != -1 || a.EventIndex != 3 {
		t.Errorf("unexpected anomaly: %+v", a)
	}
	if got, want := res.Timelines[105], []model.Span{{Begin: 0, End: 0}}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestBuildLineupAnomaly(t *testing.T) {
	res := build(t, []model.SubstitutionEvent{
		sub(0, 100, 106, model.In),
		sub(1, 130, 101, model.Out),
	}, 4)

	var lineup []Anomaly
	for _, a := range res.Anomalies {
		if a.Kind == LineupSize {
			lineup = append(lineup, a)
		}
	}
	if len(lineup) != 1 {
		t.Fatalf("expected 1 lineup anomaly, got %v", res.Anomalies)
	}
	if a := lineup[0]; a.Team != "BOS" || a.OnCourt != 6 || a.Elapsed != 100 || a.EventIndex != 0 {
		t.Errorf("unexpected anomaly: %+v", a)
	}
}

func TestBuildSameStampInBeforeOutIsFine(t *testing.T) {
	res := build(t, []model.SubstitutionEvent{
		sub(0, 100, 106, model.In),
		sub(1, 100, 101, model.Out),
	}, 4)
	if len(res.Anomalies) != 0 {
		t.Errorf("unexpected anomalies: %v", res.Anomalies)
	}
}

func TestBuildStructuralErrors(t *testing.T) {
	r := testRoster()
	cases := []struct {
		name   string
		events []model.SubstitutionEvent
		period int
		path   string
	}{
		{"unknown player", []model.SubstitutionEvent{sub(8, 10, 999, model.In)}, 4, "game.actions[8].personId"},
		{"bad clock", []model.SubstitutionEvent{{EventIndex: 2, Period: 1, ClockText: "12:00", PlayerID: 101, Direction: model.Out}}, 4, "game.actions[2].clock"},
		{"short game", nil, 3, "game.period"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := quietBuilder().Build(Input{GameID: "g", Timelines: seed(r), Roster: r, Events: c.events, FinalPeriod: c.period})
			var se *model.StructuralError
			if !errors.As(err, &se) || se.Path != c.path {
				t.Errorf("expected structural error at %s, got %v", c.path, err)
			}
		})
	}
}

func TestBuildDoesNotMutateSeed(t *testing.T) {
	r := testRoster()
	s := seed(r)
	_, err := quietBuilder().Build(Input{GameID: "g", Timelines: s, Roster: r, Events: []model.SubstitutionEvent{
		sub(0, 60, 101, model.Out),
	}, FinalPeriod: 4})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !s[101][0].End.IsOpen() {
		t.Error("seed interval was closed by Build")
	}
}

// rotation generates a plausible substitution stream: at random stoppages one
// on-court player of a team is swapped for a bench player.
func rotation(seedValue int64, finalPeriod int) []model.SubstitutionEvent {
	rng := rand.New(rand.NewSource(seedValue))
	gameLen, _ := clock.MaxElapsed(finalPeriod)

	onCourt := map[model.PersonID][]model.PersonID{
		100: {101, 102, 103, 104, 105},
		200: {201, 202, 203, 204, 205},
	}
	bench := map[model.PersonID][]model.PersonID{
		100: {106, 107, 108},
		200: {206, 207, 208},
	}

	var events []model.SubstitutionEvent
	idx := 0
	for elapsed := 30 + rng.Intn(60); elapsed < gameLen; elapsed += 20 + rng.Intn(90) {
		team := model.PersonID(100)
		if rng.Intn(2) == 1 {
			team = 200
		}
		i, j := rng.Intn(5), rng.Intn(3)
		out, in := onCourt[team][i], bench[team][j]
		events = append(events, sub(idx, elapsed, out, model.Out), sub(idx+1, elapsed, in, model.In))
		idx += 2
		onCourt[team][i], bench[team][j] = in, out
	}
	return events
}

func TestBuildInvariants(t *testing.T) {
	for _, c := range []struct {
		seed   int64
		period int
	}{{1, 4}, {2, 5}, {3, 7}} {
		events := rotation(c.seed, c.period)
		res := build(t, events, c.period)
		roster := testRoster()

		if len(res.Failures) != 0 || len(res.Anomalies) != 0 {
			t.Fatalf("seed %d: unexpected issues %v %v", c.seed, res.Failures, res.Anomalies)
		}

		for id, spans := range res.Timelines {
			for i, s := range spans {
				if s.End < s.Begin {
					t.Errorf("player %s: span %v ends before it begins", id, s)
				}
				if s.Begin < 0 || s.End > res.MaxElapsed {
					t.Errorf("player %s: span %v outside game", id, s)
				}
				if i > 0 && s.Begin < spans[i-1].End {
					t.Errorf("player %s: span %v overlaps %v", id, s, spans[i-1])
				}
			}
			if roster[id].IsStarter && (len(spans) == 0 || spans[0].Begin != 0) {
				t.Errorf("starter %s does not begin at 0: %v", id, spans)
			}
		}

		// Sample just after every event timestamp.
		stamps := map[int]bool{0: true}
		for _, e := range events {
			el, _ := clock.Elapsed(e.Period, e.ClockText)
			stamps[el] = true
		}
		for at := range stamps {
			count := map[string]int{}
			for id, spans := range res.Timelines {
				for _, s := range spans {
					if s.Begin <= at && at < s.End {
						count[roster[id].TeamCode]++
					}
				}
			}
			for team, n := range count {
				if n != MaxOnCourt {
					t.Errorf("seed %d: %s has %d on court at %d", c.seed, team, n, at)
				}
			}
		}

		// Every team plays five players for the whole game.
		total := 0
		for _, spans := range res.Timelines {
			for _, s := range spans {
				total += s.Seconds()
			}
		}
		if want := 2 * MaxOnCourt * res.MaxElapsed; total != want {
			t.Errorf("seed %d: total on-court seconds %d, want %d", c.seed, total, want)
		}
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	events := rotation(42, 5)
	a := build(t, events, 5)
	b := build(t, events, 5)

	ja, err := json.Marshal(a.Timelines)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	jb, _ := json.Marshal(b.Timelines)
	if !bytes.Equal(ja, jb) {
		t.Error("two builds over the same input produced different output")
	}

	if !reflect.DeepEqual(a, b) {
		t.Error("results differ between runs")
	}
	if len(a.Timelines) != 16 {
		t.Errorf("expected 16 players in output, got %d", len(a.Timelines))
	}
}
