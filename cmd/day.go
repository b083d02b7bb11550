package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/go-nba-oncourt/internal/cache"
	"github.com/pable/go-nba-oncourt/internal/nbalive"
	"github.com/pable/go-nba-oncourt/internal/pipeline"
)

// finishedStatus is the scoreboard GAME_STATUS_ID of a final game.
const finishedStatus = 3

var (
	dayDate       string
	dayForce      bool
	daySortEvents bool
)

var dayCmd = &cobra.Command{
	Use:   "day",
	Short: "Build every finished game of a day",
	Long: `Reads the stats.nba.com scoreboard for a date and builds every finished game
on it. Games already stored are skipped unless --force is given. A failing game
is reported and does not stop the others.

Example:
  oncourt day --date 2024-05-22`,
	Args: cobra.NoArgs,
	RunE: runDay,
}

func init() {
	dayCmd.Flags().StringVar(&dayDate, "date", "", "game date YYYY-MM-DD (default: yesterday)")
	dayCmd.Flags().BoolVarP(&dayForce, "force", "f", false, "rebuild games that are already stored")
	dayCmd.Flags().BoolVar(&daySortEvents, "sort-events", false, "sort substitutions by game clock instead of trusting feed order")
}

func runDay(cmd *cobra.Command, args []string) error {
	date := dayDate
	if date == "" {
		date = time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("invalid --date %q: want YYYY-MM-DD", date)
	}

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

	// The scoreboard of a day changes until its games finish.
	if err := c.Delete(cache.KindScoreboard, date); err != nil {
		return err
	}

	p := pipeline.New(db, c, nbalive.NewClient(), logger, pipeline.Options{
		OutDir:     outDir,
		SortEvents: daySortEvents,
	})
	headers, err := p.GamesOfDay(cmd.Context(), date)
	if err != nil {
		return err
	}

	var ids []string
	for _, h := range headers {
		if h.GameStatusID != finishedStatus {
			fmt.Fprintf(os.Stdout, "  [skip] %s: %s\n", h.GameID, h.GameStatusText)
			continue
		}
		if !dayForce {
			exists, err := db.GameExists(h.GameID)
			if err != nil {
				return fmt.Errorf("check game: %w", err)
			}
			if exists {
				fmt.Fprintf(os.Stdout, "  [skip] %s: already stored\n", h.GameID)
				continue
			}
		}
		ids = append(ids, h.GameID)
	}
	if len(ids) == 0 {
		fmt.Fprintf(os.Stdout, "Nothing to build for %s.\n", date)
		return nil
	}
	return p.ProcessBatch(cmd.Context(), ids, os.Stdout)
}
