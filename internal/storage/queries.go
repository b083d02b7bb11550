package storage

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/pable/go-nba-oncourt/internal/model"
	"github.com/pable/go-nba-oncourt/internal/oncourt"
)

// GameRecord is everything stored for one built game.
type GameRecord struct {
	Summary    model.GameSummary
	MaxElapsed int
	Roster     model.Roster
	Timelines  model.Timelines
	Anomalies  []oncourt.Anomaly
	Failures   []*oncourt.SequenceError
}

// GameExists returns true if a game with the given id is already stored.
func (db *DB) GameExists(gameID string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(1) FROM games WHERE game_id = ?", gameID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// SaveGame replaces every row of a game in one transaction, so rebuilding a
// game is idempotent.
func (db *DB) SaveGame(rec GameRecord) error {
	s := rec.Summary
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := clearGame(tx, s.GameID); err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO games(game_id, game_time_local, game_status, period, max_elapsed,
		                  home_tricode, home_score, away_tricode, away_score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.GameID, s.GameTimeLocal, s.GameStatus, s.Period, rec.MaxElapsed,
		s.Home.Tricode, s.Home.Score, s.Away.Tricode, s.Away.Score,
	)
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}

	playerStmt, err := tx.Prepare(`
		INSERT INTO players(game_id, person_id, team, side, name, starter) VALUES (?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer playerStmt.Close()
	for _, id := range sortedIDs(rec.Roster) {
		p := rec.Roster[id]
		if _, err := playerStmt.Exec(s.GameID, int64(p.ID), p.TeamCode, int(p.Side), p.Name, boolInt(p.IsStarter)); err != nil {
			return fmt.Errorf("insert player %s: %w", p.ID, err)
		}
	}

	intervalStmt, err := tx.Prepare(`
		INSERT INTO intervals(game_id, person_id, seq, begin_s, end_s) VALUES (?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer intervalStmt.Close()
	for id, spans := range rec.Timelines {
		for i, span := range spans {
			if _, err := intervalStmt.Exec(s.GameID, int64(id), i, span.Begin, span.End); err != nil {
				return fmt.Errorf("insert interval for %s: %w", id, err)
			}
		}
	}

	for i, a := range rec.Anomalies {
		_, err := tx.Exec(`
			INSERT INTO anomalies(game_id, seq, kind, event_index, period, clock, elapsed, team, on_court)
			VALUES (?,?,?,?,?,?,?,?,?)`,
			s.GameID, i, int(a.Kind), a.EventIndex, a.Period, a.ClockText, a.Elapsed, a.Team, a.OnCourt)
		if err != nil {
			return fmt.Errorf("insert anomaly: %w", err)
		}
	}

	for _, f := range rec.Failures {
		_, err := tx.Exec(`
			INSERT INTO failures(game_id, person_id, kind, event_index, prior_index, period, clock, elapsed)
			VALUES (?,?,?,?,?,?,?,?)`,
			s.GameID, int64(f.PlayerID), int(f.Kind), f.EventIndex, f.PriorIndex, f.Period, f.ClockText, f.Elapsed)
		if err != nil {
			return fmt.Errorf("insert failure for %s: %w", f.PlayerID, err)
		}
	}
	return tx.Commit()
}

const gameColumns = `game_id, game_time_local, game_status, period, max_elapsed,
	home_tricode, home_score, away_tricode, away_score`

func scanGame(row interface{ Scan(...any) error }) (model.GameSummary, int, error) {
	var s model.GameSummary
	var maxElapsed int
	err := row.Scan(&s.GameID, &s.GameTimeLocal, &s.GameStatus, &s.Period, &maxElapsed,
		&s.Home.Tricode, &s.Home.Score, &s.Away.Tricode, &s.Away.Score)
	s.Home.Side = model.SideHome
	s.Away.Side = model.SideAway
	return s, maxElapsed, err
}

// ListGames returns all stored games, newest first.
func (db *DB) ListGames() ([]model.GameSummary, error) {
	rows, err := db.conn.Query(`SELECT ` + gameColumns + ` FROM games ORDER BY game_time_local DESC, game_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.GameSummary
	for rows.Next() {
		s, _, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetGameByPrefix loads the first game whose id starts with prefix, or nil if none does.
func (db *DB) GetGameByPrefix(prefix string) (*GameRecord, error) {
	s, maxElapsed, err := scanGame(db.conn.QueryRow(
		`SELECT `+gameColumns+` FROM games WHERE game_id LIKE ? ORDER BY game_id LIMIT 1`, prefix+"%"))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rec := &GameRecord{Summary: s, MaxElapsed: maxElapsed}
	if rec.Roster, err = db.GetRoster(s.GameID); err != nil {
		return nil, fmt.Errorf("get roster: %w", err)
	}
	if rec.Failures, err = db.GetFailures(s.GameID); err != nil {
		return nil, fmt.Errorf("get failures: %w", err)
	}
	if rec.Timelines, err = db.GetTimelines(s.GameID); err != nil {
		return nil, fmt.Errorf("get timelines: %w", err)
	}
	if rec.Anomalies, err = db.GetAnomalies(s.GameID); err != nil {
		return nil, fmt.Errorf("get anomalies: %w", err)
	}
	return rec, nil
}

// GetRoster returns the players stored for a game.
func (db *DB) GetRoster(gameID string) (model.Roster, error) {
	rows, err := db.conn.Query(`
		SELECT person_id, team, side, name, starter FROM players WHERE game_id = ?`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roster := make(model.Roster)
	for rows.Next() {
		var p model.Player
		var id int64
		var side, starter int
		if err := rows.Scan(&id, &p.TeamCode, &side, &p.Name, &starter); err != nil {
			return nil, err
		}
		p.ID = model.PersonID(id)
		p.Side = model.Side(side)
		p.IsStarter = starter != 0
		roster[p.ID] = p
	}
	return roster, rows.Err()
}

// GetTimelines returns the finalized intervals of a game. Every stored player
// without a sequence failure is present, with an empty slice if they never played.
func (db *DB) GetTimelines(gameID string) (model.Timelines, error) {
	rows, err := db.conn.Query(`
		SELECT p.person_id, i.begin_s, i.end_s
		FROM players p
		LEFT JOIN intervals i ON i.game_id = p.game_id AND i.person_id = p.person_id
		WHERE p.game_id = ?
		  AND p.person_id NOT IN (SELECT person_id FROM failures WHERE game_id = ?)
		ORDER BY p.person_id, i.seq`, gameID, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(model.Timelines)
	for rows.Next() {
		var id int64
		var begin, end sql.NullInt64
		if err := rows.Scan(&id, &begin, &end); err != nil {
			return nil, err
		}
		pid := model.PersonID(id)
		if _, ok := out[pid]; !ok {
			out[pid] = []model.Span{}
		}
		if begin.Valid && end.Valid {
			out[pid] = append(out[pid], model.Span{Begin: int(begin.Int64), End: int(end.Int64)})
		}
	}
	return out, rows.Err()
}

// GetAnomalies returns a game's anomalies in the order they were recorded.
func (db *DB) GetAnomalies(gameID string) ([]oncourt.Anomaly, error) {
	rows, err := db.conn.Query(`
		SELECT kind, event_index, period, clock, elapsed, team, on_court
		FROM anomalies WHERE game_id = ? ORDER BY seq`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []oncourt.Anomaly
	for rows.Next() {
		var a oncourt.Anomaly
		var kind int
		if err := rows.Scan(&kind, &a.EventIndex, &a.Period, &a.ClockText, &a.Elapsed, &a.Team, &a.OnCourt); err != nil {
			return nil, err
		}
		a.Kind = oncourt.AnomalyKind(kind)
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetFailures returns a game's sequence failures ordered by event.
func (db *DB) GetFailures(gameID string) ([]*oncourt.SequenceError, error) {
	rows, err := db.conn.Query(`
		SELECT person_id, kind, event_index, prior_index, period, clock, elapsed
		FROM failures WHERE game_id = ? ORDER BY event_index, person_id`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*oncourt.SequenceError
	for rows.Next() {
		f := &oncourt.SequenceError{GameID: gameID}
		var id int64
		var kind int
		if err := rows.Scan(&id, &kind, &f.EventIndex, &f.PriorIndex, &f.Period, &f.ClockText, &f.Elapsed); err != nil {
			return nil, err
		}
		f.PlayerID = model.PersonID(id)
		f.Kind = oncourt.SequenceKind(kind)
		out = append(out, f)
	}
	return out, rows.Err()
}

// DeleteGame removes every row of a game. Deleting an unknown game is not an error.
func (db *DB) DeleteGame(gameID string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := clearGame(tx, gameID); err != nil {
		return err
	}
	return tx.Commit()
}

// clearGame deletes child rows before the game row so it works with or
// without foreign-key enforcement.
func clearGame(tx *sql.Tx, gameID string) error {
	for _, table := range []string{"intervals", "players", "anomalies", "failures", "games"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE game_id = ?", gameID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

func sortedIDs(r model.Roster) []model.PersonID {
	ids := make([]model.PersonID, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
