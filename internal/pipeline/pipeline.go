// Package pipeline runs one game end to end: load snapshots, rebuild the
// on-court timelines, store the result and write the per-game artifacts.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/pable/go-nba-oncourt/internal/cache"
	"github.com/pable/go-nba-oncourt/internal/model"
	"github.com/pable/go-nba-oncourt/internal/nbalive"
	"github.com/pable/go-nba-oncourt/internal/oncourt"
	"github.com/pable/go-nba-oncourt/internal/parser"
	"github.com/pable/go-nba-oncourt/internal/storage"
)

// Artifact file names under <out>/games/<gameId>/.
const (
	BoxScoreFile   = "boxscore.json"
	PlayByPlayFile = "playbyplay.json"
	OnCourtFile    = "poc.json"
)

// Fetcher is the subset of nbalive.Client the pipeline needs.
type Fetcher interface {
	BoxScore(ctx context.Context, gameID string) ([]byte, error)
	PlayByPlay(ctx context.Context, gameID string) ([]byte, error)
	Scoreboard(ctx context.Context, date string) ([]byte, error)
}

// Options controls a pipeline run.
type Options struct {
	OutDir     string // artifacts root; empty disables artifact output
	SortEvents bool   // sort substitutions chronologically instead of trusting feed order
	Refresh    bool   // bypass the payload cache
}

// Pipeline wires the fetch, build and store stages.
type Pipeline struct {
	db      *storage.DB
	cache   *cache.Dir
	fetcher Fetcher
	builder *oncourt.Builder
	log     *slog.Logger
	opts    Options
}

// New returns a Pipeline. cache and fetcher may be nil when only local
// snapshots are processed.
func New(db *storage.DB, c *cache.Dir, f Fetcher, log *slog.Logger, opts Options) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		db:      db,
		cache:   c,
		fetcher: f,
		builder: oncourt.New(log),
		log:     log.With(slog.String("component", "pipeline")),
		opts:    opts,
	}
}

// Outcome is the result of processing one game.
type Outcome struct {
	Record      storage.GameRecord
	ArtifactDir string // empty when artifacts are disabled
}

// Process builds a game from its two raw snapshots, stores it and writes its
// artifacts. Sequence failures do not fail the game; they are carried in the
// record.
func (p *Pipeline) Process(boxData, pbpData []byte) (*Outcome, error) {
	game, err := parser.ParseGame(boxData, pbpData)
	if err != nil {
		return nil, err
	}
	if p.opts.SortEvents {
		parser.SortChronologically(game.Events)
	}

	res, err := p.builder.Build(oncourt.Input{
		GameID:      game.Summary.GameID,
		Timelines:   game.Timelines,
		Roster:      game.Roster,
		Events:      game.Events,
		FinalPeriod: game.Summary.Period,
	})
	if err != nil {
		return nil, err
	}

	out := &Outcome{Record: storage.GameRecord{
		Summary:    game.Summary,
		MaxElapsed: res.MaxElapsed,
		Roster:     game.Roster,
		Timelines:  res.Timelines,
		Anomalies:  res.Anomalies,
		Failures:   res.Failures,
	}}
	if p.db != nil {
		if err := p.db.SaveGame(out.Record); err != nil {
			return nil, fmt.Errorf("save game %s: %w", game.Summary.GameID, err)
		}
	}
	if p.opts.OutDir != "" {
		dir, err := WriteArtifacts(p.opts.OutDir, game.Summary.GameID, boxData, pbpData, res.Timelines)
		if err != nil {
			return nil, err
		}
		out.ArtifactDir = dir
	}

	p.log.Info("game built",
		slog.String("game", game.Summary.GameID),
		slog.Int("players", len(res.Timelines)),
		slog.Int("anomalies", len(res.Anomalies)),
		slog.Int("failures", len(res.Failures)))
	return out, nil
}

// ProcessFiles builds a game from snapshot files on disk.
func (p *Pipeline) ProcessFiles(boxPath, pbpPath string) (*Outcome, error) {
	boxData, err := os.ReadFile(boxPath)
	if err != nil {
		return nil, fmt.Errorf("read boxscore: %w", err)
	}
	pbpData, err := os.ReadFile(pbpPath)
	if err != nil {
		return nil, fmt.Errorf("read playbyplay: %w", err)
	}
	return p.Process(boxData, pbpData)
}

// Fetch returns both snapshots of a game, from the cache when possible. The
// two downloads run concurrently.
func (p *Pipeline) Fetch(ctx context.Context, gameID string) (boxData, pbpData []byte, err error) {
	if p.fetcher == nil {
		return nil, nil, errors.New("no remote client configured")
	}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		boxData, err = p.cached(cache.KindBoxScore, gameID, func() ([]byte, error) {
			return p.fetcher.BoxScore(ctx, gameID)
		})
		if err != nil {
			return fmt.Errorf("fetch boxscore: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		pbpData, err = p.cached(cache.KindPlayByPlay, gameID, func() ([]byte, error) {
			return p.fetcher.PlayByPlay(ctx, gameID)
		})
		if err != nil {
			return fmt.Errorf("fetch playbyplay: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return boxData, pbpData, nil
}

func (p *Pipeline) cached(kind, key string, fetch func() ([]byte, error)) ([]byte, error) {
	if p.cache == nil {
		return fetch()
	}
	return p.cache.Fetch(kind, key, p.opts.Refresh, fetch)
}

// ProcessRemote fetches and builds one game.
func (p *Pipeline) ProcessRemote(ctx context.Context, gameID string) (*Outcome, error) {
	boxData, pbpData, err := p.Fetch(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return p.Process(boxData, pbpData)
}

// GamesOfDay returns the scoreboard game headers for a date (YYYY-MM-DD).
func (p *Pipeline) GamesOfDay(ctx context.Context, date string) ([]nbalive.GameHeader, error) {
	if p.fetcher == nil {
		return nil, errors.New("no remote client configured")
	}
	data, err := p.cached(cache.KindScoreboard, date, func() ([]byte, error) {
		return p.fetcher.Scoreboard(ctx, date)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch scoreboard %s: %w", date, err)
	}
	return nbalive.ParseGameHeaders(data)
}

// ProcessBatch builds every game in ids. A failing game is reported on w and
// does not stop the others; the returned error summarizes all failures.
func (p *Pipeline) ProcessBatch(ctx context.Context, ids []string, w io.Writer) error {
	var errs []error
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		fmt.Fprintf(w, "[%d/%d] %s\n", i+1, len(ids), id)
		out, err := p.ProcessRemote(ctx, id)
		if err != nil {
			fmt.Fprintf(w, "  [fail] %s: %v\n", id, err)
			errs = append(errs, fmt.Errorf("game %s: %w", id, err))
			continue
		}
		rec := out.Record
		fmt.Fprintf(w, "  %s @ %s  %d-%d  players=%d anomalies=%d failures=%d\n",
			rec.Summary.Away.Tricode, rec.Summary.Home.Tricode,
			rec.Summary.Away.Score, rec.Summary.Home.Score,
			len(rec.Timelines), len(rec.Anomalies), len(rec.Failures))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d of %d games failed: %w", len(errs), len(ids), errors.Join(errs...))
	}
	return nil
}

// EncodeTimelines renders the per-player interval map. Keys are sorted, so
// the output is byte-stable for the same timelines.
func EncodeTimelines(t model.Timelines) ([]byte, error) {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode timelines: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteArtifacts writes the two snapshots and the interval map under
// <outDir>/games/<gameID>/ and returns that directory.
func WriteArtifacts(outDir, gameID string, boxData, pbpData []byte, t model.Timelines) (string, error) {
	dir := filepath.Join(outDir, "games", gameID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}
	poc, err := EncodeTimelines(t)
	if err != nil {
		return "", err
	}
	for name, data := range map[string][]byte{
		BoxScoreFile:   boxData,
		PlayByPlayFile: pbpData,
		OnCourtFile:    poc,
	} {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			return "", fmt.Errorf("write %s: %w", name, err)
		}
	}
	return dir, nil
}
