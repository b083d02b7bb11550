package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var dropForce bool

// dropCmd deletes one stored game, or the whole database.
var dropCmd = &cobra.Command{
	Use:   "drop [game-id]",
	Short: "Delete a stored game or the whole database",
	Long: `With a game id, removes that game's rows from the database. Without one,
permanently deletes the SQLite database; rebuild games afterwards with
'oncourt game' or 'oncourt day' (cached payloads are kept).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDrop,
}

func init() {
	dropCmd.Flags().BoolVarP(&dropForce, "force", "f", false, "skip confirmation prompt")
}

func runDrop(cmd *cobra.Command, args []string) error {
	target := dbPath
	if len(args) == 1 {
		target = "game " + args[0] + " from " + dbPath
	}
	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will permanently delete: %s\n", target)
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}

	if len(args) == 1 {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		exists, err := db.GameExists(args[0])
		if err != nil {
			return fmt.Errorf("check game: %w", err)
		}
		if !exists {
			fmt.Fprintf(os.Stdout, "Game %s is not stored, nothing to drop.\n", args[0])
			return nil
		}
		if err := db.DeleteGame(args[0]); err != nil {
			return fmt.Errorf("delete game: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Deleted game %s\n", args[0])
		return nil
	}

	if err := os.Remove(dbPath); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(os.Stdout, "Database does not exist, nothing to drop.")
			return nil
		}
		return fmt.Errorf("remove database: %w", err)
	}
	// WAL side files.
	os.Remove(dbPath + "-wal")
	os.Remove(dbPath + "-shm")
	fmt.Fprintf(os.Stdout, "Deleted: %s\n", dbPath)
	return nil
}
