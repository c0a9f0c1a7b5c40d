// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline sequences one sync run: fetch, enrich, aggregate and
// write. A run ends in StateDone with a fresh artifact set, or in
// StateFailed with the previous artifacts left as they were.
//
// Only fetching and writing can fail a run. Enrichment of each record is
// isolated: a record that panics is logged, counted as failed and skipped.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/thesis-sync/internal/aggregate"
	"github.com/pdiddy/thesis-sync/internal/enrich"
	"github.com/pdiddy/thesis-sync/internal/entity"
	"github.com/pdiddy/thesis-sync/internal/geocode"
	"github.com/pdiddy/thesis-sync/internal/ledger"
	"github.com/pdiddy/thesis-sync/internal/logging"
	"github.com/pdiddy/thesis-sync/internal/publish"
	"github.com/pdiddy/thesis-sync/internal/pure"
	"github.com/pdiddy/thesis-sync/pkg/types"
)

// State is a step of a run.
type State string

// Run states in order. StateFailed is reachable from fetching and writing.
const (
	StateFetching    State = "fetching"
	StateEnriching   State = "enriching"
	StateAggregating State = "aggregating"
	StateWriting     State = "writing"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// Fatal error classes.
var (
	ErrFetch = errors.New("fetch failed")
	ErrWrite = errors.New("write failed")
)

// Fetcher retrieves the source records that pass pred.
type Fetcher interface {
	FetchAll(ctx context.Context, pred pure.Predicate) ([]types.SourceProject, pure.FetchStats, error)
}

// Enricher derives one output record, or nil for an excluded record.
type Enricher interface {
	Enrich(ctx context.Context, raw types.SourceProject) (*types.EnrichedProject, error)
}

// Result describes a finished run.
type Result struct {
	RunID      string
	State      State
	States     []State
	StartedAt  time.Time
	FinishedAt time.Time
	Summary    types.RunSummary
	Artifacts  []types.ArtifactInfo

	// Report is the path of the run report, empty if it was not written.
	Report string
}

// Runner executes sync runs. Build one with New; the exported fields may
// be replaced before Run for testing.
type Runner struct {
	Config   types.SyncConfig
	Logger   *log.Logger
	Fetcher  Fetcher
	Enricher Enricher
	Writer   *publish.Writer

	// Cache and Geocoder feed the summary counters. Either may be nil.
	Cache    *entity.Cache
	Geocoder *geocode.Geocoder

	// Ledger records run history. Nil disables it.
	Ledger *ledger.Ledger

	Now   func() time.Time
	NewID func() string
}

// New wires a Runner from cfg: one upstream client, a run-scoped entity
// cache, the geocoder when enabled, the enricher, the writer and the
// ledger when a path is configured. A ledger that cannot be opened is
// logged and skipped. A nil logger uses log.Default().
func New(cfg types.SyncConfig, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	client := pure.NewClient(cfg.Pure, logger)
	cache := entity.New(client, logger)

	r := &Runner{
		Config:  cfg,
		Logger:  logger,
		Fetcher: client,
		Writer:  publish.NewWriter(cfg.Output.Dir, logger),
		Cache:   cache,
		Now:     time.Now,
		NewID:   uuid.NewString,
	}

	var geocoder enrich.Geocoder
	if cfg.Geocode.Enabled {
		r.Geocoder = geocode.New(cfg.Geocode, logger)
		geocoder = r.Geocoder
	}
	r.Enricher = enrich.New(cfg.Enrich, cache, geocoder, logger)

	if cfg.Ledger.Path != "" {
		l, err := ledger.Open(cfg.Ledger.Path)
		if err != nil {
			logger.Warn("run history disabled", "path", cfg.Ledger.Path, "err", err)
		} else {
			r.Ledger = l
		}
	}
	return r
}

// Close releases the ledger.
func (r *Runner) Close() error {
	if r.Ledger == nil {
		return nil
	}
	return r.Ledger.Close()
}

// run carries the mutable state of one Run call.
type run struct {
	*Result
	logger *log.Logger
}

func (x *run) enter(s State) {
	x.State = s
	x.States = append(x.States, s)
	x.logger.Info("state", "state", string(s))
}

// Run executes one sync. The returned error wraps ErrFetch or ErrWrite
// for fatal failures; Result is populated in every case.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	now := r.now()
	newID := r.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	x := &run{Result: &Result{RunID: newID(), StartedAt: now()}}
	x.logger = r.Logger.With("run", x.RunID)
	total := logging.Start(x.logger)

	if r.Ledger != nil {
		if err := r.Ledger.Start(ctx, x.RunID, x.StartedAt); err != nil {
			x.logger.Warn("recording run start", "err", err)
		}
	}

	err := r.execute(ctx, x)
	x.FinishedAt = now()
	r.countCache(&x.Summary)

	if err != nil {
		x.enter(StateFailed)
		x.logger.Error("sync failed", "err", err,
			"fetched", x.Summary.Fetched, "included", x.Summary.Included)
	} else {
		x.enter(StateDone)
		x.Report = r.writeReport(x)
		total.Done("sync complete",
			"included", x.Summary.Included,
			"organizations", x.Summary.Organizations,
			"failed", x.Summary.Failed)
	}

	if r.Ledger != nil {
		// The run's context may be cancelled; the outcome is still recorded.
		if lerr := r.Ledger.Finish(context.WithoutCancel(ctx), x.RunID, x.FinishedAt, x.Summary, x.Artifacts, err); lerr != nil {
			x.logger.Warn("recording run outcome", "err", lerr)
		}
	}
	return *x.Result, err
}

func (r *Runner) execute(ctx context.Context, x *run) error {
	x.enter(StateFetching)
	timer := logging.Start(x.logger)
	sources, stats, err := r.Fetcher.FetchAll(ctx, types.SourceProject.HasCollaboration)
	x.Summary.Total = stats.Total
	x.Summary.Pages = stats.Pages
	x.Summary.Fetched = stats.Fetched
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFetch, err)
	}
	x.Summary.Candidates = len(sources)
	timer.Done("fetched", "total", stats.Total, "pages", stats.Pages, "candidates", len(sources))

	x.enter(StateEnriching)
	timer = logging.Start(x.logger)
	projects, err := r.enrichAll(ctx, x, sources)
	if err != nil {
		return err
	}
	kv := []any{"included", x.Summary.Included, "excluded", x.Summary.Excluded, "failed", x.Summary.Failed}
	if r.Cache != nil {
		orgs, persons := r.Cache.Len()
		kv = append(kv, "cached_orgs", orgs, "cached_persons", persons)
	}
	timer.Done("enriched", kv...)

	x.enter(StateAggregating)
	ds := aggregate.Build(projects, aggregate.Options{
		Version:      r.Config.Output.Version,
		Now:          r.Now,
		PartnerLimit: r.Config.Output.PartnerLimit,
	})
	x.Summary.Organizations = ds.Organizations.TotalCount

	x.enter(StateWriting)
	arts, err := r.Writer.Write(ds)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	x.Artifacts = arts
	return nil
}

// enrichAll enriches sources in order. With more than one worker the
// records are processed by a bounded errgroup and placed by index, so the
// output order is the fetch order either way.
func (r *Runner) enrichAll(ctx context.Context, x *run, sources []types.SourceProject) ([]types.EnrichedProject, error) {
	var counts tally
	results := make([]*types.EnrichedProject, len(sources))

	workers := r.Config.Workers
	if workers <= 1 {
		for i, raw := range sources {
			p, err := r.enrichOne(ctx, raw)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			results[i] = p
			r.record(x, &counts, p, err, len(sources))
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i, raw := range sources {
			i, raw := i, raw
			g.Go(func() error {
				p, err := r.enrichOne(gctx, raw)
				if gctx.Err() != nil {
					return gctx.Err()
				}
				results[i] = p
				r.record(x, &counts, p, err, len(sources))
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	x.Summary.Processed = int(counts.processed.Load())
	x.Summary.Included = int(counts.included.Load())
	x.Summary.Excluded = int(counts.excluded.Load())
	x.Summary.Failed = int(counts.failed.Load())

	projects := make([]types.EnrichedProject, 0, x.Summary.Included)
	for _, p := range results {
		if p != nil {
			projects = append(projects, *p)
		}
	}
	return projects, nil
}

// enrichOne runs the enricher on one record, turning a panic into an error.
func (r *Runner) enrichOne(ctx context.Context, raw types.SourceProject) (p *types.EnrichedProject, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			p, err = nil, fmt.Errorf("panic enriching %s: %v", raw.UUID, rec)
		}
	}()
	return r.Enricher.Enrich(ctx, raw)
}

type tally struct {
	processed, included, excluded, failed atomic.Int64
}

func (r *Runner) record(x *run, t *tally, p *types.EnrichedProject, err error, total int) {
	switch {
	case err != nil:
		t.failed.Add(1)
		x.logger.Error("skipping record", "err", err)
	case p == nil:
		t.excluded.Add(1)
	default:
		t.included.Add(1)
	}

	n := t.processed.Add(1)
	every := int64(r.Config.ProgressEvery)
	if every > 0 && n%every == 0 {
		kv := []any{"processed", n, "of", total, "included", t.included.Load()}
		if r.Cache != nil {
			s := r.Cache.Stats()
			kv = append(kv, "org_lookups", s.OrgLookups, "person_lookups", s.PersonLookups, "cache_hits", s.Hits)
		}
		x.logger.Info("progress", kv...)
	}
}

func (r *Runner) countCache(s *types.RunSummary) {
	if r.Cache != nil {
		cs := r.Cache.Stats()
		s.OrgLookups = cs.OrgLookups
		s.PersonLookups = cs.PersonLookups
		s.CacheHits = cs.Hits
		s.LookupFailures = cs.Failures
	}
	if r.Geocoder != nil {
		s.Geocoded = r.Geocoder.Calls()
	}
}

// writeReport writes the run report. A failure is only logged: the
// artifacts are already published.
func (r *Runner) writeReport(x *run) string {
	states := make([]string, len(x.States))
	for i, s := range x.States {
		states[i] = string(s)
	}
	path, err := r.Writer.WriteReport(publish.Report{
		RunID:      x.RunID,
		Version:    r.Config.Output.Version,
		StartedAt:  x.StartedAt,
		FinishedAt: x.FinishedAt,
		Duration:   x.FinishedAt.Sub(x.StartedAt).Round(time.Millisecond).String(),
		States:     states,
		Summary:    x.Summary,
		Artifacts:  x.Artifacts,
	})
	if err != nil {
		x.logger.Warn("writing run report", "err", err)
		return ""
	}
	return path
}

func (r *Runner) now() func() time.Time {
	if r.Now != nil {
		return r.Now
	}
	return time.Now
}
