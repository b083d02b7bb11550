package storage

import (
	"fmt"

	"github.com/pable/go-nba-oncourt/internal/model"
	"github.com/pable/go-nba-oncourt/internal/oncourt"
)

// Overview is a high-level summary of the database.
type Overview struct {
	Games     int
	Finished  int
	FirstDay  string
	LastDay   string
	Players   int // distinct person ids
	Intervals int
	Anomalies map[oncourt.AnomalyKind]int
	Failures  map[oncourt.SequenceKind]int
}

// GetOverview returns aggregate counts over every stored game.
func (db *DB) GetOverview() (Overview, error) {
	ov := Overview{
		Anomalies: make(map[oncourt.AnomalyKind]int),
		Failures:  make(map[oncourt.SequenceKind]int),
	}
	err := db.conn.QueryRow(`
		SELECT COUNT(1),
		       COALESCE(SUM(CASE WHEN game_status = 3 THEN 1 ELSE 0 END), 0),
		       COALESCE(MIN(substr(game_time_local, 1, 10)), ''),
		       COALESCE(MAX(substr(game_time_local, 1, 10)), '')
		FROM games`).Scan(&ov.Games, &ov.Finished, &ov.FirstDay, &ov.LastDay)
	if err != nil {
		return ov, fmt.Errorf("count games: %w", err)
	}
	if err := db.conn.QueryRow(`SELECT COUNT(DISTINCT person_id) FROM players`).Scan(&ov.Players); err != nil {
		return ov, fmt.Errorf("count players: %w", err)
	}
	if err := db.conn.QueryRow(`SELECT COUNT(1) FROM intervals`).Scan(&ov.Intervals); err != nil {
		return ov, fmt.Errorf("count intervals: %w", err)
	}

	for _, q := range []struct {
		query string
		add   func(kind, n int)
	}{
		{`SELECT kind, COUNT(1) FROM anomalies GROUP BY kind`, func(k, n int) { ov.Anomalies[oncourt.AnomalyKind(k)] = n }},
		{`SELECT kind, COUNT(1) FROM failures GROUP BY kind`, func(k, n int) { ov.Failures[oncourt.SequenceKind(k)] = n }},
	} {
		rows, err := db.conn.Query(q.query)
		if err != nil {
			return ov, err
		}
		for rows.Next() {
			var kind, n int
			if err := rows.Scan(&kind, &n); err != nil {
				rows.Close()
				return ov, err
			}
			q.add(kind, n)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return ov, err
		}
	}
	return ov, nil
}

// GetPlayerHistory returns one line per stored game the player appears in,
// oldest game first.
func (db *DB) GetPlayerHistory(id model.PersonID) ([]model.PlayerGame, error) {
	rows, err := db.conn.Query(`
		SELECT g.game_id, g.game_time_local, g.game_status, g.period,
		       g.home_tricode, g.home_score, g.away_tricode, g.away_score,
		       p.team, p.side, p.name, p.starter,
		       COUNT(i.seq), COALESCE(SUM(i.end_s - i.begin_s), 0),
		       EXISTS(SELECT 1 FROM failures f WHERE f.game_id = p.game_id AND f.person_id = p.person_id)
		FROM players p
		JOIN games g ON g.game_id = p.game_id
		LEFT JOIN intervals i ON i.game_id = p.game_id AND i.person_id = p.person_id
		WHERE p.person_id = ?
		GROUP BY p.game_id
		ORDER BY g.game_time_local, g.game_id`, int64(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PlayerGame
	for rows.Next() {
		var pg model.PlayerGame
		var side, starter, failed int
		g := &pg.Game
		if err := rows.Scan(&g.GameID, &g.GameTimeLocal, &g.GameStatus, &g.Period,
			&g.Home.Tricode, &g.Home.Score, &g.Away.Tricode, &g.Away.Score,
			&pg.Player.TeamCode, &side, &pg.Player.Name, &starter,
			&pg.Stints, &pg.Seconds, &failed); err != nil {
			return nil, err
		}
		g.Home.Side, g.Away.Side = model.SideHome, model.SideAway
		pg.Player.ID = id
		pg.Player.Side = model.Side(side)
		pg.Player.IsStarter = starter != 0
		pg.Failed = failed != 0
		out = append(out, pg)
	}
	return out, rows.Err()
}

// QueryRaw runs an arbitrary query and returns its columns and rows as text.
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var out [][]string
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			switch v := v.(type) {
			case nil:
				row[i] = "NULL"
			case []byte:
				row[i] = string(v)
			default:
				row[i] = fmt.Sprint(v)
			}
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}
