package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-nba-oncourt/internal/pipeline"
)

var (
	buildBoxScore   string
	buildPlayByPlay string
	buildSortEvents bool
	buildStints     bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a game from local box-score and play-by-play files",
	Args:  cobra.NoArgs,
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&buildBoxScore, "boxscore", "", "box-score JSON file (required)")
	buildCmd.Flags().StringVar(&buildPlayByPlay, "playbyplay", "", "play-by-play JSON file (required)")
	buildCmd.Flags().BoolVar(&buildSortEvents, "sort-events", false, "sort substitutions by game clock instead of trusting feed order")
	buildCmd.Flags().BoolVar(&buildStints, "stints", false, "also list every interval")
	_ = buildCmd.MarkFlagRequired("boxscore")
	_ = buildCmd.MarkFlagRequired("playbyplay")
}

func runBuild(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	p := pipeline.New(db, nil, nil, logger, pipeline.Options{OutDir: outDir, SortEvents: buildSortEvents})
	out, err := p.ProcessFiles(buildBoxScore, buildPlayByPlay)
	if err != nil {
		return fmt.Errorf("build game: %w", err)
	}

	printRecord(out.Record, buildStints)
	if out.ArtifactDir != "" {
		fmt.Fprintf(os.Stdout, "\nArtifacts: %s\n", out.ArtifactDir)
	}
	return nil
}
