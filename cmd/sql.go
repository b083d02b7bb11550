package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the on-court database",
	Long: `Run an arbitrary SQL query against the database and print results as a table.

Schema overview:
  games(game_id, game_time_local, game_status, period, max_elapsed,
    home_tricode, home_score, away_tricode, away_score)
  players(game_id, person_id, team, side, name, starter)
  intervals(game_id, person_id, seq, begin_s, end_s)
  anomalies(game_id, seq, kind, event_index, period, clock, elapsed, team, on_court)
  failures(game_id, person_id, kind, event_index, prior_index, period, clock, elapsed)

side: 1 = away, 2 = home. begin_s/end_s are seconds since tip-off.
Example: oncourt sql "SELECT name, SUM(end_s-begin_s)/60 AS min FROM intervals JOIN players USING(game_id, person_id) GROUP BY person_id ORDER BY min DESC LIMIT 10"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("(no rows)")
		return nil
	}

	table := tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))

	colsAny := make([]any, len(cols))
	for i, c := range cols {
		colsAny[i] = c
	}
	table.Header(colsAny...)

	for _, row := range rows {
		rowAny := make([]any, len(row))
		for i, v := range row {
			rowAny[i] = v
		}
		table.Append(rowAny...)
	}
	table.Render()
	fmt.Fprintf(os.Stdout, "\n(%d rows)\n", len(rows))
	return nil
}
