package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-nba-oncourt/internal/cache"
	"github.com/pable/go-nba-oncourt/internal/nbalive"
	"github.com/pable/go-nba-oncourt/internal/pipeline"
)

var (
	gameRefresh    bool
	gameSortEvents bool
)

var gameCmd = &cobra.Command{
	Use:   "game <game-id>...",
	Short: "Fetch and build one or more games by id",
	Long: `Downloads the box score and play-by-play of each game from the NBA live-data
CDN (through the local payload cache), rebuilds its on-court intervals, stores
the result and writes the per-game artifacts.

Example:
  oncourt game 0042300311 0042300312`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGame,
}

func init() {
	gameCmd.Flags().BoolVar(&gameRefresh, "refresh", false, "ignore cached payloads and download again")
	gameCmd.Flags().BoolVar(&gameSortEvents, "sort-events", false, "sort substitutions by game clock instead of trusting feed order")
}

func runGame(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	c, err := cache.Open(cacheDir)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer c.Close()

	p := pipeline.New(db, c, nbalive.NewClient(), logger, pipeline.Options{
		OutDir:     outDir,
		SortEvents: gameSortEvents,
		Refresh:    gameRefresh,
	})

	if len(args) == 1 {
		out, err := p.ProcessRemote(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("game %s: %w", args[0], err)
		}
		printRecord(out.Record, false)
		if out.ArtifactDir != "" {
			fmt.Fprintf(os.Stdout, "\nArtifacts: %s\n", out.ArtifactDir)
		}
		return nil
	}
	return p.ProcessBatch(cmd.Context(), args, os.Stdout)
}
