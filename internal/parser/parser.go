// Package parser decodes box-score and play-by-play snapshots and turns them
// into the roster, seed timelines and substitution stream of one game.
package parser

import (
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/pable/go-nba-oncourt/internal/model"
	"github.com/pable/go-nba-oncourt/internal/nbalive"
)

// Game is everything the interval builder needs for one game.
type Game struct {
	Summary   model.GameSummary
	Roster    model.Roster
	Timelines map[model.PersonID][]model.Interval // starters seeded open at 0
	Events    []model.SubstitutionEvent
}

// DecodeBoxScore decodes a box-score payload.
func DecodeBoxScore(data []byte) (*nbalive.BoxScore, error) {
	var box nbalive.BoxScore
	if err := json.Unmarshal(data, &box); err != nil {
		return nil, fmt.Errorf("decode boxscore: %w", err)
	}
	return &box, nil
}

// DecodePlayByPlay decodes a play-by-play payload.
func DecodePlayByPlay(data []byte) (*nbalive.PlayByPlay, error) {
	var pbp nbalive.PlayByPlay
	if err := json.Unmarshal(data, &pbp); err != nil {
		return nil, fmt.Errorf("decode playbyplay: %w", err)
	}
	return &pbp, nil
}

// ParseGame decodes both snapshots of a game and extracts roster, seed
// timelines and substitution events.
func ParseGame(boxData, pbpData []byte) (*Game, error) {
	box, err := DecodeBoxScore(boxData)
	if err != nil {
		return nil, err
	}
	pbp, err := DecodePlayByPlay(pbpData)
	if err != nil {
		return nil, err
	}
	if pbp.Game.GameID != "" && box.Game.GameID != "" && pbp.Game.GameID != box.Game.GameID {
		return nil, &model.StructuralError{
			GameID: box.Game.GameID,
			Path:   "game.gameId",
			Reason: fmt.Sprintf("play-by-play is for game %s", pbp.Game.GameID),
		}
	}

	summary, err := Summarize(box)
	if err != nil {
		return nil, err
	}
	timelines, roster, err := InitRoster(box)
	if err != nil {
		return nil, err
	}
	events, err := ExtractSubstitutions(pbp)
	if err != nil {
		return nil, err
	}
	return &Game{
		Summary:   summary,
		Roster:    roster,
		Timelines: timelines,
		Events:    events,
	}, nil
}

// Summarize extracts the game header from a box score.
func Summarize(box *nbalive.BoxScore) (model.GameSummary, error) {
	g := box.Game
	if g.GameID == "" {
		return model.GameSummary{}, &model.StructuralError{Path: "game.gameId", Reason: "missing"}
	}
	if g.Period == nil {
		return model.GameSummary{}, &model.StructuralError{GameID: g.GameID, Path: "game.period", Reason: "missing"}
	}
	home, err := teamHeader(g.GameID, "game.homeTeam", g.HomeTeam, model.SideHome)
	if err != nil {
		return model.GameSummary{}, err
	}
	away, err := teamHeader(g.GameID, "game.awayTeam", g.AwayTeam, model.SideAway)
	if err != nil {
		return model.GameSummary{}, err
	}
	return model.GameSummary{
		GameID:        g.GameID,
		GameTimeLocal: g.GameTimeLocal,
		GameStatus:    g.GameStatus,
		Period:        *g.Period,
		Home:          home,
		Away:          away,
	}, nil
}

func teamHeader(gameID, path string, t *nbalive.Team, side model.Side) (model.Team, error) {
	if t == nil {
		return model.Team{}, &model.StructuralError{GameID: gameID, Path: path, Reason: "missing"}
	}
	if t.TeamTricode == nil || *t.TeamTricode == "" {
		return model.Team{}, &model.StructuralError{GameID: gameID, Path: path + ".teamTricode", Reason: "missing"}
	}
	return model.Team{Tricode: *t.TeamTricode, Score: t.Score, Side: side}, nil
}
