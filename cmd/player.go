package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pable/go-nba-oncourt/internal/model"
	"github.com/pable/go-nba-oncourt/internal/report"
	"github.com/pable/go-nba-oncourt/internal/storage"
)

// playerCmd prints a player's on-court minutes across every stored game.
var playerCmd = &cobra.Command{
	Use:   "player <person-id> [<person-id>...]",
	Short: "Game-by-game on-court minutes for one or more players",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPlayer,
}

func runPlayer(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	for _, arg := range args {
		id, err := parsePersonID(arg)
		if err != nil {
			return err
		}
		if err := printPlayer(db, id); err != nil {
			return err
		}
	}
	return nil
}

func parsePersonID(s string) (model.PersonID, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid person id %q", s)
	}
	return model.PersonID(id), nil
}

func printPlayer(db *storage.DB, id model.PersonID) error {
	lines, err := db.GetPlayerHistory(id)
	if err != nil {
		return fmt.Errorf("query player %s: %w", id, err)
	}
	if len(lines) == 0 {
		fmt.Fprintf(os.Stderr, "No data found for person %s\n", id)
		return nil
	}
	report.PrintPlayerHistory(os.Stdout, lines)
	return nil
}
