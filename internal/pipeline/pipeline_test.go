package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/pable/go-nba-oncourt/internal/cache"
	"github.com/pable/go-nba-oncourt/internal/model"
	"github.com/pable/go-nba-oncourt/internal/storage"
)

// boxJSON builds a final four-period box score: away ids 100..106, home ids
// 200..206, the first five of each team starting.
func boxJSON(gameID string) string {
	team := func(tricode string, base, score int) string {
		var players []string
		for i := 0; i < 7; i++ {
			starter := "0"
			if i < 5 {
				starter = "1"
			}
			players = append(players, fmt.Sprintf(
				`{"personId":%d,"starter":"%s","nameI":"%s. P%d"}`, base+i, starter, tricode[:1], i))
		}
		return fmt.Sprintf(`{"teamTricode":"%s","score":%d,"players":[%s]}`,
			tricode, score, strings.Join(players, ","))
	}
	return fmt.Sprintf(`{"game":{"gameId":"%s","gameTimeLocal":"2024-05-22T20:30:00-05:00","gameStatus":3,"period":4,"awayTeam":%s,"homeTeam":%s}}`,
		gameID, team("DAL", 100, 108), team("MIN", 200, 105))
}

func pbpJSON(gameID string, actions ...string) string {
	return fmt.Sprintf(`{"game":{"gameId":"%s","actions":[%s]}}`, gameID, strings.Join(actions, ","))
}

func sub(period int, clock string, personID int, subType string) string {
	return fmt.Sprintf(`{"actionType":"substitution","subType":"%s","personId":%d,"period":%d,"clock":"%s"}`,
		subType, personID, period, clock)
}

func goodPBP(gameID string) string {
	return pbpJSON(gameID,
		sub(1, "PT06M00.00S", 100, "out"),
		sub(1, "PT06M00.00S", 105, "in"),
		sub(2, "PT12M00.00S", 105, "out"),
		sub(2, "PT12M00.00S", 100, "in"),
	)
}

type fakeFeed struct {
	mu         sync.Mutex
	box, pbp   map[string]string
	scoreboard string
	calls      int
}

func (f *fakeFeed) lookup(m map[string]string, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	data, ok := m[key]
	if !ok {
		return nil, fmt.Errorf("HTTP 404 for %s", key)
	}
	return []byte(data), nil
}

func (f *fakeFeed) BoxScore(_ context.Context, id string) ([]byte, error) {
	return f.lookup(f.box, id)
}

func (f *fakeFeed) PlayByPlay(_ context.Context, id string) ([]byte, error) {
	return f.lookup(f.pbp, id)
}

func (f *fakeFeed) Scoreboard(_ context.Context, date string) ([]byte, error) {
	return f.lookup(map[string]string{"2024-05-22": f.scoreboard}, date)
}

func newTestPipeline(t *testing.T, feed Fetcher, opts Options) (*Pipeline, *storage.DB) {
	t.Helper()
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	c, err := cache.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return New(db, c, feed, slog.New(slog.NewTextHandler(io.Discard, nil)), opts), db
}

func TestProcessStoresAndWritesArtifacts(t *testing.T) {
	out := t.TempDir()
	p, db := newTestPipeline(t, nil, Options{OutDir: out})

	res, err := p.Process([]byte(boxJSON("0042300311")), []byte(goodPBP("0042300311")))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.ArtifactDir != filepath.Join(out, "games", "0042300311") {
		t.Errorf("ArtifactDir = %s", res.ArtifactDir)
	}
	for _, name := range []string{BoxScoreFile, PlayByPlayFile, OnCourtFile} {
		if _, err := os.Stat(filepath.Join(res.ArtifactDir, name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}

	var poc map[string][]model.Span
	data, err := os.ReadFile(filepath.Join(res.ArtifactDir, OnCourtFile))
	if err != nil {
		t.Fatalf("read poc: %v", err)
	}
	if err := json.Unmarshal(data, &poc); err != nil {
		t.Fatalf("decode poc: %v", err)
	}
	want100 := []model.Span{{Begin: 0, End: 360}, {Begin: 720, End: 2880}}
	if fmt.Sprint(poc["100"]) != fmt.Sprint(want100) {
		t.Errorf("poc[100] = %v, want %v", poc["100"], want100)
	}
	if fmt.Sprint(poc["105"]) != fmt.Sprint([]model.Span{{Begin: 360, End: 720}}) {
		t.Errorf("poc[105] = %v", poc["105"])
	}
	if got, ok := poc["206"]; !ok || len(got) != 0 {
		t.Errorf("bench player without minutes should map to [], got %v (present=%v)", got, ok)
	}

	stored, err := db.GetGameByPrefix("0042300311")
	if err != nil || stored == nil {
		t.Fatalf("stored game = %v, %v", stored, err)
	}
	if stored.MaxElapsed != 2880 || len(stored.Timelines) != 14 {
		t.Errorf("stored MaxElapsed=%d players=%d", stored.MaxElapsed, len(stored.Timelines))
	}
}

func TestProcessIsByteStable(t *testing.T) {
	out1, out2 := t.TempDir(), t.TempDir()
	p1, _ := newTestPipeline(t, nil, Options{OutDir: out1})
	p2, _ := newTestPipeline(t, nil, Options{OutDir: out2})

	box, pbp := []byte(boxJSON("0042300311")), []byte(goodPBP("0042300311"))
	r1, err := p1.Process(box, pbp)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	r2, err := p2.Process(box, pbp)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	a, _ := os.ReadFile(filepath.Join(r1.ArtifactDir, OnCourtFile))
	b, _ := os.ReadFile(filepath.Join(r2.ArtifactDir, OnCourtFile))
	if len(a) == 0 || !bytes.Equal(a, b) {
		t.Errorf("poc.json differs between runs:\n%s\n---\n%s", a, b)
	}
}

func TestProcessKeepsGameWithSequenceFailure(t *testing.T) {
	p, db := newTestPipeline(t, nil, Options{})
	pbp := pbpJSON("0042300311",
		sub(1, "PT06M00.00S", 100, "in"), // starter already on court
	)
	res, err := p.Process([]byte(boxJSON("0042300311")), []byte(pbp))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(res.Record.Failures) != 1 || res.Record.Failures[0].PlayerID != 100 {
		t.Fatalf("failures = %v", res.Record.Failures)
	}
	if _, ok := res.Record.Timelines[100]; ok {
		t.Error("failed player should be excluded from timelines")
	}
	if res.ArtifactDir != "" {
		t.Errorf("artifacts written with empty OutDir: %s", res.ArtifactDir)
	}
	if exists, _ := db.GameExists("0042300311"); !exists {
		t.Error("game with a failed player should still be stored")
	}
}

func TestProcessStructuralError(t *testing.T) {
	p, db := newTestPipeline(t, nil, Options{})
	pbp := pbpJSON("0042300311", sub(1, "PT06M00.00S", 999, "in"))
	_, err := p.Process([]byte(boxJSON("0042300311")), []byte(pbp))
	var se *model.StructuralError
	if !errors.As(err, &se) {
		t.Fatalf("expected StructuralError, got %v", err)
	}
	if exists, _ := db.GameExists("0042300311"); exists {
		t.Error("game with structural error should not be stored")
	}
}

func TestProcessFiles(t *testing.T) {
	dir := t.TempDir()
	boxPath := filepath.Join(dir, "box.json")
	pbpPath := filepath.Join(dir, "pbp.json")
	if err := os.WriteFile(boxPath, []byte(boxJSON("0042300311")), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(pbpPath, []byte(goodPBP("0042300311")), 0644); err != nil {
		t.Fatal(err)
	}
	p, _ := newTestPipeline(t, nil, Options{})
	if _, err := p.ProcessFiles(boxPath, pbpPath); err != nil {
		t.Fatalf("ProcessFiles: %v", err)
	}
	if _, err := p.ProcessFiles(filepath.Join(dir, "nope.json"), pbpPath); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFetchGoesThroughCache(t *testing.T) {
	feed := &fakeFeed{
		box: map[string]string{"0042300311": boxJSON("0042300311")},
		pbp: map[string]string{"0042300311": goodPBP("0042300311")},
	}
	p, _ := newTestPipeline(t, feed, Options{})

	for i := 0; i < 2; i++ {
		if _, err := p.ProcessRemote(context.Background(), "0042300311"); err != nil {
			t.Fatalf("ProcessRemote: %v", err)
		}
	}
	if feed.calls != 2 {
		t.Errorf("expected 2 remote calls (box + pbp once), got %d", feed.calls)
	}
}

func TestProcessBatchIsolatesFailures(t *testing.T) {
	feed := &fakeFeed{
		box: map[string]string{
			"0042300311": boxJSON("0042300311"),
			"0042300312": boxJSON("0042300312"),
		},
		pbp: map[string]string{
			"0042300311": goodPBP("0042300311"),
			"0042300312": pbpJSON("0042300312", sub(1, "bogus", 100, "out")),
		},
	}
	p, db := newTestPipeline(t, feed, Options{})

	var buf bytes.Buffer
	err := p.ProcessBatch(context.Background(), []string{"0042300312", "0042300399", "0042300311"}, &buf)
	if err == nil {
		t.Fatal("expected summary error")
	}
	if !strings.Contains(err.Error(), "2 of 3 games failed") {
		t.Errorf("unexpected summary: %v", err)
	}
	var se *model.StructuralError
	if !errors.As(err, &se) || se.GameID != "0042300312" {
		t.Errorf("summary should wrap the structural error, got %v", err)
	}
	if !strings.Contains(buf.String(), "[fail] 0042300399") {
		t.Errorf("missing failure line in output:\n%s", buf.String())
	}
	if exists, _ := db.GameExists("0042300311"); !exists {
		t.Error("healthy game after failures was not built")
	}
}

// cancelingFeed cancels the batch context on its first box-score request.
type cancelingFeed struct {
	*fakeFeed
	cancel context.CancelFunc
}

func (f cancelingFeed) BoxScore(ctx context.Context, id string) ([]byte, error) {
	f.cancel()
	return f.fakeFeed.BoxScore(ctx, id)
}

func TestProcessBatchCancelKeepsFailures(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	feed := cancelingFeed{fakeFeed: &fakeFeed{
		box: map[string]string{"0042300311": boxJSON("0042300311")},
		pbp: map[string]string{"0042300311": goodPBP("0042300311")},
	}, cancel: cancel}
	p, db := newTestPipeline(t, feed, Options{})

	var buf bytes.Buffer
	err := p.ProcessBatch(ctx, []string{"0042300399", "0042300311"}, &buf)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !strings.Contains(err.Error(), "game 0042300399") {
		t.Errorf("failure collected before cancel was lost: %v", err)
	}
	if exists, _ := db.GameExists("0042300311"); exists {
		t.Error("batch kept going after cancel")
	}
}

func TestGamesOfDay(t *testing.T) {
	feed := &fakeFeed{scoreboard: `{"resultSets":[{"name":"GameHeader",
		"headers":["GAME_ID","GAME_STATUS_ID","GAME_STATUS_TEXT"],
		"rowSet":[["0042300311",3,"Final"]]}]}`}
	p, _ := newTestPipeline(t, feed, Options{})

	headers, err := p.GamesOfDay(context.Background(), "2024-05-22")
	if err != nil {
		t.Fatalf("GamesOfDay: %v", err)
	}
	if len(headers) != 1 || headers[0].GameID != "0042300311" || headers[0].GameStatusID != 3 {
		t.Errorf("headers = %+v", headers)
	}
}

func TestEncodeTimelinesSortedKeys(t *testing.T) {
	data, err := EncodeTimelines(model.Timelines{
		300: {{Begin: 0, End: 10}},
		12:  {},
	})
	if err != nil {
		t.Fatalf("EncodeTimelines: %v", err)
	}
	s := string(data)
	i12, i300 := strings.Index(s, `"12"`), strings.Index(s, `"300"`)
	if i12 < 0 || i300 < 0 || i12 > i300 {
		t.Errorf("keys not sorted:\n%s", s)
	}
	if !strings.Contains(s, `"begin": 0`) || !strings.Contains(s, `"12": []`) {
		t.Errorf("unexpected encoding:\n%s", s)
	}
}
