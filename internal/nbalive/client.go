// Package nbalive provides a minimal client for the NBA live-data CDN and the
// stats.nba.com scoreboard, plus the wire structs of their payloads.
package nbalive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

const (
	// LiveBaseURL is the root of the live-data CDN.
	LiveBaseURL = "https://cdn.nba.com/static/json/liveData"
	// StatsBaseURL is the root of the stats API.
	StatsBaseURL = "https://stats.nba.com/stats"
)

// Client fetches raw payloads. Bodies are returned undecoded so callers can cache them verbatim.
type Client struct {
	liveURL  string
	statsURL string
	http     *http.Client
}

// NewClient returns a client against the public endpoints.
func NewClient() *Client {
	return New(LiveBaseURL, StatsBaseURL)
}

// New returns a client against custom base URLs (used by tests).
func New(liveURL, statsURL string) *Client {
	return &Client{
		liveURL:  strings.TrimSuffix(liveURL, "/"),
		statsURL: strings.TrimSuffix(statsURL, "/"),
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

// get performs a GET with the browser-like headers stats.nba.com insists on
// and returns the response body.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Referer", "https://www.nba.com/")
	req.Header.Set("Origin", "https://www.nba.com")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: HTTP %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return body, nil
}

// BoxScore returns the raw box-score JSON for a game.
func (c *Client) BoxScore(ctx context.Context, gameID string) ([]byte, error) {
	return c.get(ctx, fmt.Sprintf("%s/boxscore/boxscore_%s.json", c.liveURL, gameID))
}

// PlayByPlay returns the raw play-by-play JSON for a game.
func (c *Client) PlayByPlay(ctx context.Context, gameID string) ([]byte, error) {
	return c.get(ctx, fmt.Sprintf("%s/playbyplay/playbyplay_%s.json", c.liveURL, gameID))
}

// Scoreboard returns the raw ScoreboardV2 JSON for a date (YYYY-MM-DD).
func (c *Client) Scoreboard(ctx context.Context, date string) ([]byte, error) {
	return c.get(ctx, fmt.Sprintf("%s/scoreboardv2?GameDate=%s&LeagueID=00&DayOffset=0", c.statsURL, date))
}

// ParseGameHeaders extracts the GameHeader result set from a ScoreboardV2 payload.
func ParseGameHeaders(data []byte) ([]GameHeader, error) {
	var resp struct {
		ResultSets []resultSet `json:"resultSets"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode scoreboard: %w", err)
	}

	for _, rs := range resp.ResultSets {
		if rs.Name != "GameHeader" {
			continue
		}
		col := make(map[string]int, len(rs.Headers))
		for i, h := range rs.Headers {
			col[h] = i
		}
		if _, ok := col["GAME_ID"]; !ok {
			return nil, fmt.Errorf("GameHeader: missing GAME_ID column")
		}

		headers := make([]GameHeader, 0, len(rs.RowSet))
		for _, row := range rs.RowSet {
			cell := func(name string) interface{} {
				i, ok := col[name]
				if !ok || i >= len(row) {
					return nil
				}
				return row[i]
			}
			id := asString(cell("GAME_ID"))
			if id == "" {
				continue
			}
			headers = append(headers, GameHeader{
				GameID:         id,
				GameStatusID:   asInt(cell("GAME_STATUS_ID")),
				GameStatusText: asString(cell("GAME_STATUS_TEXT")),
				GameDateEST:    asString(cell("GAME_DATE_EST")),
				HomeTeamID:     asInt(cell("HOME_TEAM_ID")),
				VisitorTeamID:  asInt(cell("VISITOR_TEAM_ID")),
			})
		}
		return headers, nil
	}
	return nil, fmt.Errorf("scoreboard: no GameHeader result set")
}

func asInt(v interface{}) int {
	if f, ok := v.(float64); ok {
		return int(f)
	}
	return 0
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}
