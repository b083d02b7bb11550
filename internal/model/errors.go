package model

import "fmt"

// StructuralError reports a missing or malformed field in a box-score or
// play-by-play payload. It is fatal to the game being processed.
type StructuralError struct {
	GameID string
	Path   string // e.g. "game.actions[17].clock"
	Reason string
	Err    error
}

func (e *StructuralError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Path, e.Reason)
	if e.GameID != "" {
		msg = "game " + e.GameID + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StructuralError) Unwrap() error { return e.Err }
