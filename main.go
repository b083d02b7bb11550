// Package main is the entry point for the oncourt CLI tool, which rebuilds
// per-player on-court intervals of NBA games from the live-data feeds.
package main

import "github.com/pable/go-nba-oncourt/cmd"

func main() {
	cmd.Execute()
}
