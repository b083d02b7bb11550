package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-nba-oncourt/internal/report"
	"github.com/pable/go-nba-oncourt/internal/storage"
)

var showStints bool

var showCmd = &cobra.Command{
	Use:   "show <game-id-prefix>",
	Short: "Show the stored on-court intervals of a game",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showStints, "stints", false, "also list every interval")
}

func runShow(cmd *cobra.Command, args []string) error {
	prefix := args[0]

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	rec, err := db.GetGameByPrefix(prefix)
	if err != nil {
		return fmt.Errorf("query game: %w", err)
	}
	if rec == nil {
		fmt.Fprintf(os.Stderr, "No game found with id prefix %q\n", prefix)
		return nil
	}
	printRecord(*rec, showStints)
	return nil
}

// printRecord prints the summary, on-court table and issues of a built game.
func printRecord(rec storage.GameRecord, stints bool) {
	report.PrintGameSummary(os.Stdout, rec.Summary)
	report.PrintOnCourtTable(os.Stdout, rec.Roster, rec.Timelines)
	if stints {
		fmt.Fprintln(os.Stdout)
		report.PrintStints(os.Stdout, rec.Roster, rec.Timelines)
	}
	report.PrintIssues(os.Stdout, rec.Anomalies, rec.Failures)
}
