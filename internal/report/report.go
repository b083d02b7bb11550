package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/go-nba-oncourt/internal/clock"
	"github.com/pable/go-nba-oncourt/internal/model"
	"github.com/pable/go-nba-oncourt/internal/oncourt"
)

// Summarize returns total on-court seconds per player.
func Summarize(t model.Timelines) map[model.PersonID]int {
	totals := make(map[model.PersonID]int, len(t))
	for id, spans := range t {
		total := 0
		for _, s := range spans {
			total += s.Seconds()
		}
		totals[id] = total
	}
	return totals
}

// Row is one player's line in the on-court table.
type Row struct {
	ID      model.PersonID
	Team    string
	Side    model.Side
	Name    string
	Starter bool
	Stints  int
	Seconds int
}

// Rows joins timelines with the roster, ordered away team first, then
// starters, then by seconds played descending, then by name. Players missing
// from the roster are listed last under their raw id.
func Rows(roster model.Roster, t model.Timelines) []Row {
	totals := Summarize(t)
	rows := make([]Row, 0, len(t))
	for id, spans := range t {
		p, ok := roster[id]
		if !ok {
			p = model.Player{ID: id, Name: id.String()}
		}
		rows = append(rows, Row{
			ID:      id,
			Team:    p.TeamCode,
			Side:    p.Side,
			Name:    p.Name,
			Starter: p.IsStarter,
			Stints:  len(spans),
			Seconds: totals[id],
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if sideRank(a.Side) != sideRank(b.Side) {
			return sideRank(a.Side) < sideRank(b.Side)
		}
		if a.Starter != b.Starter {
			return a.Starter
		}
		if a.Seconds != b.Seconds {
			return a.Seconds > b.Seconds
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
	return rows
}

func sideRank(s model.Side) int {
	switch s {
	case model.SideAway:
		return 0
	case model.SideHome:
		return 1
	default:
		return 2
	}
}

// Minutes formats seconds as M:SS.
func Minutes(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
}

// PrintGameSummary prints a one-line header for the game.
func PrintGameSummary(w io.Writer, g model.GameSummary) {
	periods := "regulation"
	if g.Period > clock.RegulationPeriods {
		periods = fmt.Sprintf("%dOT", g.Period-clock.RegulationPeriods)
	}
	fmt.Fprintf(w, "\nGame: %s  |  %s %d @ %s %d  |  %s  |  Local: %s\n\n",
		g.GameID, g.Away.Tricode, g.Away.Score, g.Home.Tricode, g.Home.Score, periods, g.GameTimeLocal)
}

// PrintOnCourtTable prints the per-player on-court totals.
func PrintOnCourtTable(w io.Writer, roster model.Roster, t model.Timelines) {
	table := newTable(w)
	table.Header("TEAM", "PLAYER", "ID", "START", "STINTS", "SECONDS", "MIN")

	for _, r := range Rows(roster, t) {
		start := ""
		if r.Starter {
			start = "*"
		}
		table.Append(
			r.Team,
			r.Name,
			r.ID.String(),
			start,
			strconv.Itoa(r.Stints),
			strconv.Itoa(r.Seconds),
			Minutes(r.Seconds),
		)
	}
	table.Render()
}

// PrintStints lists every interval of every player as game-clock readings.
func PrintStints(w io.Writer, roster model.Roster, t model.Timelines) {
	for _, r := range Rows(roster, t) {
		parts := make([]string, 0, len(t[r.ID]))
		for _, s := range t[r.ID] {
			parts = append(parts, fmt.Sprintf("%s → %s", clock.Format(s.Begin), clock.Format(s.End)))
		}
		fmt.Fprintf(w, "%-4s %-22s %6s  %s\n", r.Team, r.Name, Minutes(r.Seconds), strings.Join(parts, ", "))
	}
}

// PrintIssues prints anomalies and sequence failures. Nothing is printed when there are none.
func PrintIssues(w io.Writer, anomalies []oncourt.Anomaly, failures []*oncourt.SequenceError) {
	if len(anomalies) == 0 && len(failures) == 0 {
		return
	}
	fmt.Fprintf(w, "\n--- Issues ---\n\n")
	table := newTable(w)
	table.Header("SEVERITY", "KIND", "EVENT", "PERIOD", "CLOCK", "ELAPSED", "DETAIL")

	for _, f := range failures {
		table.Append(
			"error",
			f.Kind.String(),
			strconv.Itoa(f.EventIndex),
			strconv.Itoa(f.Period),
			f.ClockText,
			strconv.Itoa(f.Elapsed),
			fmt.Sprintf("player %s dropped", f.PlayerID),
		)
	}
	for _, a := range anomalies {
		period, clockText, detail := "—", "—", ""
		switch a.Kind {
		case oncourt.ClockRange:
			period, clockText = strconv.Itoa(a.Period), a.ClockText
			detail = "clamped"
		case oncourt.LineupSize:
			detail = fmt.Sprintf("%s has %d on court", a.Team, a.OnCourt)
		}
		table.Append(
			"warn",
			a.Kind.String(),
			strconv.Itoa(a.EventIndex),
			period,
			clockText,
			strconv.Itoa(a.Elapsed),
			detail,
		)
	}
	table.Render()
}

// PrintGameList prints stored games grouped by local day, newest day first.
// Games that are not final are marked.
func PrintGameList(w io.Writer, games []model.GameSummary) {
	byDay := make(map[string][]model.GameSummary)
	var days []string
	for _, g := range games {
		d := g.Day()
		if _, ok := byDay[d]; !ok {
			days = append(days, d)
		}
		byDay[d] = append(byDay[d], g)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))

	for _, d := range days {
		fmt.Fprintf(w, "\n%s\n", d)
		table := newTable(w)
		table.Header("GAME", "AWAY", "SCORE", "HOME", "PERIODS", "STATUS")
		for _, g := range byDay[d] {
			status := "final"
			if !g.Final() {
				status = "in progress"
			}
			table.Append(
				g.GameID,
				g.Away.Tricode,
				fmt.Sprintf("%d-%d", g.Away.Score, g.Home.Score),
				g.Home.Tricode,
				strconv.Itoa(g.Period),
				status,
			)
		}
		table.Render()
	}
}

// PrintPlayerHistory prints a player's minutes game by game, with a total line.
func PrintPlayerHistory(w io.Writer, lines []model.PlayerGame) {
	if len(lines) == 0 {
		return
	}
	p := lines[len(lines)-1].Player
	fmt.Fprintf(w, "\n%s (%s)  |  %d games\n\n", p.Name, p.ID, len(lines))

	table := newTable(w)
	table.Header("DATE", "GAME", "TEAM", "OPP", "START", "STINTS", "MIN", "NOTE")
	var total, played int
	for _, l := range lines {
		opp := l.Game.Home.Tricode
		if l.Player.Side == model.SideHome {
			opp = l.Game.Away.Tricode
		}
		start, note := "", ""
		if l.Player.IsStarter {
			start = "*"
		}
		if l.Failed {
			note = "dropped"
		} else {
			total += l.Seconds
			if l.Seconds > 0 {
				played++
			}
		}
		table.Append(
			l.Game.Day(),
			l.Game.GameID,
			l.Player.TeamCode,
			opp,
			start,
			strconv.Itoa(l.Stints),
			Minutes(l.Seconds),
			note,
		)
	}
	table.Render()

	avg := 0
	if played > 0 {
		avg = total / played
	}
	fmt.Fprintf(w, "\nTotal %s over %d games played, %s per game\n", Minutes(total), played, Minutes(avg))
}
