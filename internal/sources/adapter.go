package sources

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/deusflow/freegames/internal/games"
	"github.com/deusflow/freegames/internal/metrics"
)

// DefaultFetchTimeout bounds a single upstream fetch.
const DefaultFetchTimeout = 15 * time.Second

// MaxConcurrentProbes bounds link checks in flight per source.
const MaxConcurrentProbes = 4

// URLValidator reports whether a link is live.
type URLValidator interface {
	Valid(ctx context.Context, rawURL string) bool
}

// Adapter isolates one Source: its failures never escape Collect, and only
// candidates with a title and a live link come out.
type Adapter struct {
	source    Source
	validator URLValidator
	timeout   time.Duration
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// NewAdapter wraps src. A nil validator accepts every link; a nil metrics
// disables counting.
func NewAdapter(src Source, validator URLValidator, timeout time.Duration, logger *slog.Logger, m *metrics.Metrics) *Adapter {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Adapter{
		source:    src,
		validator: validator,
		timeout:   timeout,
		logger:    logger.With("source", src.Name()),
		metrics:   m,
	}
}

func (a *Adapter) Name() string { return a.source.Name() }

// Collect fetches, filters and validates the upstream's candidates. It
// returns an empty slice when the upstream fails.
func (a *Adapter) Collect(ctx context.Context) []games.RawCandidate {
	fetchCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	raw, err := a.source.Fetch(fetchCtx)
	if err != nil {
		a.logger.Warn("Source unavailable, skipping this run", "error", err)
		if a.metrics != nil {
			a.metrics.IncrementSourceFailures()
		}
		return nil
	}

	var kept []games.RawCandidate
	for _, c := range raw {
		if !c.HasIdentity() {
			a.logger.Debug("Dropping candidate without title or link", "title", c.SourceTitle, "url", c.SourceURL)
			continue
		}
		c.SourceTitle = strings.TrimSpace(c.SourceTitle)
		c.SourceURL = strings.TrimSpace(c.SourceURL)
		c.Source = a.source.Name()
		kept = append(kept, c)
	}

	out := a.validate(ctx, kept)
	if a.metrics != nil {
		a.metrics.AddCandidatesFetched(len(out))
	}
	a.logger.Info("Collected candidates", "fetched", len(raw), "kept", len(out))
	return out
}

// validate probes links concurrently and keeps survivors in input order.
func (a *Adapter) validate(ctx context.Context, in []games.RawCandidate) []games.RawCandidate {
	if a.validator == nil || len(in) == 0 {
		return in
	}

	ok := make([]bool, len(in))
	var g errgroup.Group
	g.SetLimit(MaxConcurrentProbes)
	for i := range in {
		g.Go(func() error {
			ok[i] = a.validator.Valid(ctx, in[i].SourceURL)
			return nil
		})
	}
	g.Wait()

	out := make([]games.RawCandidate, 0, len(in))
	for i, c := range in {
		if !ok[i] {
			a.logger.Debug("Dropping candidate with dead link", "title", c.SourceTitle, "url", c.SourceURL)
			continue
		}
		out = append(out, c)
	}
	return out
}
