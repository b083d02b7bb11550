package parser

import (
	"fmt"

	"github.com/pable/go-nba-oncourt/internal/model"
	"github.com/pable/go-nba-oncourt/internal/nbalive"
)

// InitRoster unions both rosters of a box score and seeds every starter with
// one open interval beginning at tip-off. Bench players start with an empty
// timeline.
func InitRoster(box *nbalive.BoxScore) (map[model.PersonID][]model.Interval, model.Roster, error) {
	g := box.Game
	timelines := make(map[model.PersonID][]model.Interval)
	roster := make(model.Roster)

	// Away first, matching the order the box score is usually read in.
	teams := []struct {
		path string
		team *nbalive.Team
		side model.Side
	}{
		{"game.awayTeam", g.AwayTeam, model.SideAway},
		{"game.homeTeam", g.HomeTeam, model.SideHome},
	}

	for _, tt := range teams {
		header, err := teamHeader(g.GameID, tt.path, tt.team, tt.side)
		if err != nil {
			return nil, nil, err
		}
		for i, p := range tt.team.Players {
			path := fmt.Sprintf("%s.players[%d]", tt.path, i)
			if p.PersonID == nil {
				return nil, nil, &model.StructuralError{GameID: g.GameID, Path: path + ".personId", Reason: "missing"}
			}
			id := model.PersonID(*p.PersonID)

			var starter bool
			switch {
			case p.Starter == nil:
				return nil, nil, &model.StructuralError{GameID: g.GameID, Path: path + ".starter", Reason: "missing"}
			case *p.Starter == "1":
				starter = true
			case *p.Starter == "0":
			default:
				return nil, nil, &model.StructuralError{
					GameID: g.GameID,
					Path:   path + ".starter",
					Reason: fmt.Sprintf("unexpected value %q", *p.Starter),
				}
			}

			if prev, dup := roster[id]; dup {
				return nil, nil, &model.StructuralError{
					GameID: g.GameID,
					Path:   path + ".personId",
					Reason: fmt.Sprintf("person %s already listed for %s", id, prev.TeamCode),
				}
			}

			roster[id] = model.Player{
				ID:        id,
				TeamCode:  header.Tricode,
				Side:      tt.side,
				Name:      p.NameI,
				IsStarter: starter,
			}
			if starter {
				timelines[id] = []model.Interval{{Begin: 0, End: model.Open()}}
			} else {
				timelines[id] = []model.Interval{}
			}
		}
	}
	return timelines, roster, nil
}
