package nbalive

// Fields the reconstruction cannot do without are pointers so a missing key can
// be told apart from a zero value.

// BoxScore is the /liveData/boxscore payload.
type BoxScore struct {
	Game BoxScoreGame `json:"game"`
}

// BoxScoreGame holds the game header and both rosters.
type BoxScoreGame struct {
	GameID        string `json:"gameId"`
	GameTimeLocal string `json:"gameTimeLocal"`
	GameStatus    int    `json:"gameStatus"`
	Period        *int   `json:"period"`
	HomeTeam      *Team  `json:"homeTeam"`
	AwayTeam      *Team  `json:"awayTeam"`
}

// Team is one side of the box score.
type Team struct {
	TeamID      int      `json:"teamId"`
	TeamTricode *string  `json:"teamTricode"`
	Score       int      `json:"score"`
	Players     []Player `json:"players"`
}

// Player is a box-score roster entry.
type Player struct {
	PersonID  *int64  `json:"personId"`
	Starter   *string `json:"starter"` // "1" or "0"
	NameI     string  `json:"nameI"`
	Name      string  `json:"name"`
	JerseyNum string  `json:"jerseyNum"`
	Played    string  `json:"played"`
}

// PlayByPlay is the /liveData/playbyplay payload.
type PlayByPlay struct {
	Game PlayByPlayGame `json:"game"`
}

// PlayByPlayGame holds the ordered action log.
type PlayByPlayGame struct {
	GameID  string   `json:"gameId"`
	Actions []Action `json:"actions"`
}

// Action is one play-by-play entry. Only substitutions are consumed.
type Action struct {
	ActionNumber int     `json:"actionNumber"`
	ActionType   string  `json:"actionType"`
	SubType      string  `json:"subType"`
	PersonID     *int64  `json:"personId"`
	Period       *int    `json:"period"`
	Clock        *string `json:"clock"`
	TeamTricode  string  `json:"teamTricode"`
	PlayerName   string  `json:"playerName"`
}

// resultSet is the column/row encoding used by stats.nba.com endpoints.
type resultSet struct {
	Name    string          `json:"name"`
	Headers []string        `json:"headers"`
	RowSet  [][]interface{} `json:"rowSet"`
}

// GameHeader is one row of the ScoreboardV2 GameHeader result set.
type GameHeader struct {
	GameID         string
	GameStatusID   int
	GameStatusText string
	GameDateEST    string
	HomeTeamID     int
	VisitorTeamID  int
}
