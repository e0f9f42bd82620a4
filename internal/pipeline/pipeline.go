// Package pipeline runs one end-to-end ingestion pass: fetch, filter, dedup,
// verify, gate, persist, notify and record the run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/amishk599/jobsync/internal/ai"
	"github.com/amishk599/jobsync/internal/dedup"
	"github.com/amishk599/jobsync/internal/lock"
	"github.com/amishk599/jobsync/internal/model"
	"github.com/amishk599/jobsync/internal/source"
)

// ErrRunInProgress is reported when another run holds the run lock.
var ErrRunInProgress = errors.New("run already in progress")

// Stage names a step of a run, used in logs and panic reports.
type Stage string

const (
	StageFetching      Stage = "fetching"
	StageFiltering     Stage = "filtering"
	StageDeduplicating Stage = "deduplicating"
	StageVerifying     Stage = "verifying"
	StagePersisting    Stage = "persisting"
	StageNotifying     Stage = "notifying"
	StageLogging       Stage = "logging"
	StageDone          Stage = "done"
)

// Defaults for Options fields left at zero.
const (
	DefaultMaxItems          = 10
	DefaultSourceConcurrency = 4
)

// Verifier judges one raw item. Implementations never fail; an unusable
// response is reported as a fallback result.
type Verifier interface {
	Verify(ctx context.Context, item model.RawItem) model.VerificationResult
}

// Options holds the per-run limits.
type Options struct {
	MaxItems          int           // unique items verified per run
	Threshold         int           // acceptance gate confidence
	VerifyConcurrency int           // parallel verifier calls
	SourceConcurrency int           // parallel source fetches
	StoreTimeout      time.Duration // per write; zero means no extra bound
}

func (o Options) withDefaults() Options {
	if o.MaxItems <= 0 {
		o.MaxItems = DefaultMaxItems
	}
	if o.Threshold <= 0 {
		o.Threshold = ai.DefaultThreshold
	}
	if o.VerifyConcurrency <= 0 {
		o.VerifyConcurrency = 1
	}
	if o.SourceConcurrency <= 0 {
		o.SourceConcurrency = DefaultSourceConcurrency
	}
	return o
}

// Pipeline owns every dependency of a run. It is safe to call Run from
// several goroutines; the locker decides whether runs may overlap.
type Pipeline struct {
	fetchers []model.SourceFetcher
	filter   model.ItemFilter
	deduper  *dedup.Deduplicator
	verifier Verifier
	repo     model.JobRepository
	notifier model.Notifier
	locker   lock.Locker
	opts     Options
	logger   *slog.Logger
	now      func() time.Time
}

// NewPipeline creates a pipeline wired with all its dependencies. filter,
// notifier and locker may be nil.
func NewPipeline(
	fetchers []model.SourceFetcher,
	filter model.ItemFilter,
	deduper *dedup.Deduplicator,
	verifier Verifier,
	repo model.JobRepository,
	notifier model.Notifier,
	locker lock.Locker,
	opts Options,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		fetchers: fetchers,
		filter:   filter,
		deduper:  deduper,
		verifier: verifier,
		repo:     repo,
		notifier: notifier,
		locker:   locker,
		opts:     opts.withDefaults(),
		logger:   logger,
		now:      time.Now,
	}
}

// runStats carries the counters of one run.
type runStats struct {
	started   time.Time
	collected int
	processed int
	approved  int
	persisted int
}

// Run executes one pass and reports its outcome. It never panics: a panic in
// any stage is recovered and reported as a failed summary.
func (p *Pipeline) Run(ctx context.Context) (summary model.RunSummary) {
	if p.locker != nil {
		release, acquired, err := p.locker.TryLock(ctx)
		if err != nil {
			p.logger.Error("run lock unavailable", "error", err)
			return model.RunSummary{Error: fmt.Sprintf("acquiring run lock: %v", err)}
		}
		if !acquired {
			p.logger.Warn("skipping run, another run holds the lock")
			return model.RunSummary{Error: ErrRunInProgress.Error()}
		}
		defer release()
	}

	stage := StageFetching
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("pipeline panicked",
				"stage", stage,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			summary = model.RunSummary{Error: fmt.Sprintf("panic during %s: %v", stage, r)}
		}
	}()

	stats, err := p.run(ctx, &stage)
	if err != nil {
		p.logger.Error("run failed", "stage", stage, "error", err)
		return model.RunSummary{
			ItemsCollected: stats.collected,
			ItemsVerified:  stats.approved,
			Error:          err.Error(),
		}
	}

	return model.RunSummary{
		Success:        true,
		ItemsCollected: stats.collected,
		ItemsVerified:  stats.approved,
	}
}

// RunAutomationPipeline is Run under the name used by trigger callers.
func (p *Pipeline) RunAutomationPipeline(ctx context.Context) model.RunSummary {
	return p.Run(ctx)
}

func (p *Pipeline) run(ctx context.Context, stage *Stage) (runStats, error) {
	stats := runStats{started: p.now()}
	enter := func(s Stage) {
		*stage = s
		p.logger.Debug("pipeline stage", "stage", s)
	}

	enter(StageFetching)
	items := source.FetchAll(ctx, p.fetchers, p.opts.SourceConcurrency, p.logger)
	stats.collected = len(items)

	enter(StageFiltering)
	items = p.applyFilter(items)

	enter(StageDeduplicating)
	unique := p.deduper.Dedupe(ctx, items)
	stats.processed = len(unique)

	batch := unique
	if len(batch) > p.opts.MaxItems {
		p.logger.Info("capping verification batch",
			"unique", len(unique),
			"max_items", p.opts.MaxItems,
		)
		batch = batch[:p.opts.MaxItems]
	}

	enter(StageVerifying)
	results, err := p.verifyAll(ctx, batch)
	if err != nil {
		return stats, err
	}

	var accepted []model.VerifiedJob
	for i, u := range batch {
		r := results[i]
		if r == nil {
			continue
		}
		if !ai.Accept(*r, p.opts.Threshold) {
			p.logger.Info("item rejected",
				"title", u.Item.Title,
				"source", u.Item.Source,
				"legitimate", r.IsLegitimate,
				"confidence", r.Confidence,
				"red_flags", r.RedFlags,
			)
			continue
		}
		accepted = append(accepted, ai.ToVerifiedJob(u.Item, u.Hash, *r))
	}
	stats.approved = len(accepted)

	enter(StagePersisting)
	persisted := p.persist(ctx, accepted)
	stats.persisted = len(persisted)

	enter(StageNotifying)
	if p.notifier != nil && len(persisted) > 0 {
		if err := p.notifier.Notify(persisted); err != nil {
			p.logger.Warn("notification failed", "jobs", len(persisted), "error", err)
		}
	}

	enter(StageLogging)
	p.appendRunLog(ctx, stats)

	enter(StageDone)
	p.logger.Info("run complete",
		"collected", stats.collected,
		"processed", stats.processed,
		"verified", len(batch),
		"approved", stats.approved,
		"persisted", stats.persisted,
		"duration", p.now().Sub(stats.started).String(),
	)

	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("run interrupted: %w", err)
	}
	return stats, nil
}

func (p *Pipeline) applyFilter(items []model.RawItem) []model.RawItem {
	if p.filter == nil {
		return items
	}
	kept := items[:0:0]
	for _, item := range items {
		if p.filter.Match(item) {
			kept = append(kept, item)
		}
	}
	if dropped := len(items) - len(kept); dropped > 0 {
		p.logger.Debug("filtered raw items", "kept", len(kept), "dropped", dropped)
	}
	return kept
}

// verifyAll verifies batch with bounded concurrency. results[i] belongs to
// batch[i] and stays nil for items skipped after cancellation.
func (p *Pipeline) verifyAll(ctx context.Context, batch []dedup.Unique) ([]*model.VerificationResult, error) {
	results := make([]*model.VerificationResult, len(batch))

	var g errgroup.Group
	g.SetLimit(p.opts.VerifyConcurrency)
	for i, u := range batch {
		if ctx.Err() != nil {
			p.logger.Warn("run cancelled, skipping remaining verifications", "skipped", len(batch)-i)
			break
		}
		i, u := i, u
		g.Go(func() (err error) {
			if ctx.Err() != nil {
				return nil
			}
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("verifying %q: panic: %v", u.Item.Title, r)
				}
			}()
			r := p.verifier.Verify(ctx, u.Item)
			results[i] = &r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// persist inserts jobs one by one and returns those actually stored. A failed
// insert is logged and the loop continues.
func (p *Pipeline) persist(ctx context.Context, jobs []model.VerifiedJob) []model.VerifiedJob {
	var stored []model.VerifiedJob
	for i := range jobs {
		if ctx.Err() != nil {
			p.logger.Warn("run cancelled, skipping remaining inserts", "skipped", len(jobs)-i)
			break
		}
		job := jobs[i]
		err := p.withStoreTimeout(ctx, func(ctx context.Context) error {
			return p.repo.InsertJob(ctx, &job)
		})
		switch {
		case err == nil:
			stored = append(stored, job)
		case errors.Is(err, model.ErrDuplicate):
			p.logger.Info("job already stored", "post", job.PostName, "hash", job.ContentHash)
		default:
			p.logger.Error("failed to persist job, it may be lost",
				"post", job.PostName,
				"organization", job.Organization,
				"hash", job.ContentHash,
				"source_link", job.SourceLink,
				"error", err,
			)
		}
	}
	return stored
}

func (p *Pipeline) appendRunLog(ctx context.Context, stats runStats) {
	entry := &model.RunLog{
		Type:           model.RunLogType,
		Timestamp:      stats.started.UTC(),
		Duration:       p.now().Sub(stats.started).Seconds(),
		ItemsCollected: stats.collected,
		ItemsProcessed: stats.processed,
		ItemsApproved:  stats.approved,
	}
	// The run log is written even when the run was interrupted.
	err := p.withStoreTimeout(context.WithoutCancel(ctx), func(ctx context.Context) error {
		return p.repo.AppendRunLog(ctx, entry)
	})
	if err != nil {
		p.logger.Error("failed to append run log", "error", err)
	}
}

func (p *Pipeline) withStoreTimeout(ctx context.Context, fn func(context.Context) error) error {
	if p.opts.StoreTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.StoreTimeout)
		defer cancel()
	}
	return fn(ctx)
}
