// Package pipeline runs one collect, dedup, assemble and publish cycle.
package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/deusflow/freegames/internal/games"
	"github.com/deusflow/freegames/internal/metrics"
	"github.com/deusflow/freegames/internal/telegram"
)

// Collector yields a source's candidates and never fails.
type Collector interface {
	Name() string
	Collect(ctx context.Context) []games.RawCandidate
}

// Ledger is the set of already announced keys.
type Ledger interface {
	Load(ctx context.Context)
	Contains(key games.CanonicalKey) bool
	Record(key games.CanonicalKey)
	Persist(ctx context.Context) error
}

// Publisher delivers announcements and reports per-announcement outcomes.
type Publisher interface {
	Publish(ctx context.Context, anns []games.Announcement) telegram.Report
}

// Assembler turns a candidate into an announcement.
type Assembler interface {
	Assemble(ctx context.Context, c games.RawCandidate, key games.CanonicalKey) games.Announcement
}

// Pipeline is not safe for concurrent Run calls; callers serialise runs.
type Pipeline struct {
	collectors []Collector
	ledger     Ledger
	assembler  Assembler
	publisher  Publisher
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

func New(collectors []Collector, ledger Ledger, assembler Assembler, publisher Publisher, logger *slog.Logger, m *metrics.Metrics) *Pipeline {
	if m == nil {
		m = metrics.New()
	}
	return &Pipeline{
		collectors: collectors,
		ledger:     ledger,
		assembler:  assembler,
		publisher:  publisher,
		logger:     logger,
		metrics:    m,
	}
}

// WithLogger returns a copy of p that logs to logger.
func (p *Pipeline) WithLogger(logger *slog.Logger) *Pipeline {
	cp := *p
	cp.logger = logger
	return &cp
}

// Run announces every game not seen before and returns what it announced.
// Announced ids are recorded whatever the delivery outcome; only a ledger
// persist failure is returned as an error.
func (p *Pipeline) Run(ctx context.Context) ([]games.Announcement, error) {
	start := time.Now()
	defer func() { p.metrics.RecordProcessingTime(time.Since(start)) }()

	p.ledger.Load(ctx)

	candidates := p.collect(ctx)
	p.logger.Info("Collected candidates from all sources", "sources", len(p.collectors), "candidates", len(candidates))

	anns := p.fresh(ctx, candidates)
	if len(anns) == 0 {
		p.logger.Info("No new free games this run")
		p.metrics.SetLastRun()
		return nil, nil
	}

	report := p.publisher.Publish(ctx, anns)
	if len(report.Failures) > 0 {
		failed := make([]string, len(report.Failures))
		for i, f := range report.Failures {
			failed[i] = string(f.ID)
		}
		p.logger.Error("Some announcements were not delivered", "failed_ids", failed, "error", report.Err())
	}

	for _, a := range anns {
		p.ledger.Record(a.ID)
	}
	if err := p.ledger.Persist(ctx); err != nil {
		p.logger.Error("Failed to persist ledger", "error", err)
		p.metrics.SetError(err.Error())
		return anns, err
	}

	p.metrics.SetLastRun()
	p.logger.Info("Run complete", "announced", len(anns), "delivered", len(report.Sent))
	return anns, nil
}

// collect runs every collector concurrently and concatenates the results in
// declaration order.
func (p *Pipeline) collect(ctx context.Context) []games.RawCandidate {
	results := make([][]games.RawCandidate, len(p.collectors))
	var wg sync.WaitGroup
	for i, c := range p.collectors {
		wg.Add(1)
		go func(i int, c Collector) {
			defer wg.Done()
			results[i] = c.Collect(ctx)
		}(i, c)
	}
	wg.Wait()

	var all []games.RawCandidate
	for _, r := range results {
		all = append(all, r...)
	}
	return all
}

func (p *Pipeline) fresh(ctx context.Context, candidates []games.RawCandidate) []games.Announcement {
	seen := make(map[games.CanonicalKey]struct{})
	var out []games.Announcement
	for _, c := range candidates {
		if !c.HasIdentity() {
			continue
		}
		key := games.Normalize(c.SourceTitle)
		if key == "" {
			p.logger.Debug("Title normalises to nothing, skipping", "title", c.SourceTitle, "source", c.Source)
			continue
		}
		if p.ledger.Contains(key) {
			p.logger.Debug("Already announced", "key", key, "source", c.Source)
			p.metrics.IncrementDuplicatesFiltered()
			continue
		}
		if _, dup := seen[key]; dup {
			p.logger.Debug("Duplicate within this run", "key", key, "source", c.Source)
			p.metrics.IncrementDuplicatesFiltered()
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p.assembler.Assemble(ctx, c, key))
	}
	return out
}
