package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-nba-oncourt/internal/oncourt"
)

// summaryCmd displays a high-level database overview.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show a high-level overview of the database",
	Long: `Display aggregate statistics about every stored game: game count, date range,
players seen, intervals, and how many anomalies and sequence failures the
source feeds produced.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func runSummary(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ov, err := db.GetOverview()
	if err != nil {
		return fmt.Errorf("get overview: %w", err)
	}
	if ov.Games == 0 {
		fmt.Fprintln(os.Stdout, "No games stored yet. Run 'oncourt game <game-id>' or 'oncourt day' to add some.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "\n=== Database Summary ===\n\n")
	fmt.Fprintf(os.Stdout, "  Games stored  : %d (%d final)\n", ov.Games, ov.Finished)
	fmt.Fprintf(os.Stdout, "  Date range    : %s → %s\n", ov.FirstDay, ov.LastDay)
	fmt.Fprintf(os.Stdout, "  Players seen  : %d\n", ov.Players)
	fmt.Fprintf(os.Stdout, "  Intervals     : %d\n", ov.Intervals)

	fmt.Fprintf(os.Stdout, "\n--- Feed issues ---\n\n")
	for _, k := range []oncourt.AnomalyKind{oncourt.ClockRange, oncourt.LineupSize} {
		fmt.Fprintf(os.Stdout, "  %-14s: %d\n", k, ov.Anomalies[k])
	}
	for _, k := range []oncourt.SequenceKind{oncourt.DoubleIn, oncourt.UnmatchedOut, oncourt.Regressed} {
		fmt.Fprintf(os.Stdout, "  %-14s: %d\n", k, ov.Failures[k])
	}
	return nil
}
