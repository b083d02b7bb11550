package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-nba-oncourt/internal/pipeline"
)

var exportFile string

var exportCmd = &cobra.Command{
	Use:   "export <game-id-prefix>",
	Short: "Export a stored game's on-court intervals as JSON",
	Long: `Re-emits the per-player interval map of a stored game, the same document
written to games/<gameId>/poc.json when the game was built.

Example:
  oncourt export 0042300311 --file poc.json`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFile, "file", "o", "", "output file (default: stdout)")
}

func runExport(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	rec, err := db.GetGameByPrefix(args[0])
	if err != nil {
		return fmt.Errorf("query game: %w", err)
	}
	if rec == nil {
		return fmt.Errorf("no game found with id prefix %q", args[0])
	}

	data, err := pipeline.EncodeTimelines(rec.Timelines)
	if err != nil {
		return err
	}
	if exportFile == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(exportFile, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", exportFile, err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %s (%s, %d players)\n", exportFile, rec.Summary.GameID, len(rec.Timelines))
	return nil
}
