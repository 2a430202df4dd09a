package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"testing"

	"github.com/deusflow/freegames/internal/games"
	"github.com/deusflow/freegames/internal/ledger"
	"github.com/deusflow/freegames/internal/metrics"
	"github.com/deusflow/freegames/internal/storage"
	"github.com/deusflow/freegames/internal/telegram"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memStore struct {
	keys    []string
	saves   int
	saveErr error
}

func (s *memStore) Load(context.Context) ([]string, error) {
	if s.keys == nil {
		return nil, storage.ErrNotFound
	}
	return append([]string(nil), s.keys...), nil
}

func (s *memStore) Save(_ context.Context, keys []string) error {
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.keys = append([]string(nil), keys...)
	return nil
}

type fixedCollector struct {
	name  string
	items []games.RawCandidate
}

func (c fixedCollector) Name() string { return c.name }

func (c fixedCollector) Collect(context.Context) []games.RawCandidate {
	out := make([]games.RawCandidate, len(c.items))
	for i, it := range c.items {
		it.Source = c.name
		out[i] = it
	}
	return out
}

type recordingPublisher struct {
	calls [][]games.Announcement
	fail  bool
}

func (p *recordingPublisher) Publish(_ context.Context, anns []games.Announcement) telegram.Report {
	p.calls = append(p.calls, anns)
	var r telegram.Report
	for _, a := range anns {
		if p.fail {
			r.Failures = append(r.Failures, telegram.Failure{ID: a.ID, Err: errors.New("chat not found")})
		} else {
			r.Sent = append(r.Sent, a.ID)
		}
	}
	return r
}

func candidate(title, url string) games.RawCandidate {
	return games.RawCandidate{SourceTitle: title, SourceURL: url, SourcePlatformLabel: "PC"}
}

func newPipeline(store *memStore, pub Publisher, m *metrics.Metrics, collectors ...Collector) *Pipeline {
	return New(collectors, ledger.New(store, quietLogger()), games.NewAssembler(), pub, quietLogger(), m)
}

func TestRunNightingaleScenario(t *testing.T) {
	store := &memStore{}
	pub := &recordingPublisher{}
	a := fixedCollector{name: "epic", items: []games.RawCandidate{
		candidate("Nightingale (Epic Games) Giveaway", "https://store.epicgames.com/p/nightingale"),
	}}
	p := newPipeline(store, pub, nil, a)

	anns, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(anns) != 1 || anns[0].ID != games.Normalize("nightingale") {
		t.Fatalf("first run = %+v", anns)
	}
	if len(store.keys) != 1 || store.keys[0] != string(games.Normalize("nightingale")) {
		t.Errorf("ledger = %v", store.keys)
	}

	anns, err = p.Run(context.Background())
	if err != nil || len(anns) != 0 {
		t.Fatalf("second run = %+v, %v", anns, err)
	}
	if len(pub.calls) != 1 {
		t.Errorf("publisher called %d times, want 1", len(pub.calls))
	}
	if store.saves != 1 {
		t.Errorf("ledger saved %d times, want 1", store.saves)
	}
}

func TestRunCrossSourceFirstWins(t *testing.T) {
	store := &memStore{}
	pub := &recordingPublisher{}
	m := metrics.New()
	epic := fixedCollector{name: "epic", items: []games.RawCandidate{
		candidate("Hades", "https://store.epicgames.com/p/hades"),
		candidate("Celeste", "https://store.epicgames.com/p/celeste"),
	}}
	giveaways := fixedCollector{name: "gamerpower", items: []games.RawCandidate{
		candidate("Hades Giveaway (Steam)", "https://www.gamerpower.com/hades"),
		candidate("", "https://www.gamerpower.com/untitled"),
		candidate("Untracked", ""),
		candidate("Outer Wilds", "https://www.gamerpower.com/outer-wilds"),
	}}

	anns, err := newPipeline(store, pub, m, epic, giveaways).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	var urls []string
	for _, a := range anns {
		urls = append(urls, a.URL)
	}
	want := []string{
		"https://store.epicgames.com/p/hades",
		"https://store.epicgames.com/p/celeste",
		"https://www.gamerpower.com/outer-wilds",
	}
	if len(urls) != len(want) {
		t.Fatalf("urls = %v, want %v", urls, want)
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Errorf("urls[%d] = %q, want %q", i, urls[i], want[i])
		}
	}
	if m.DuplicatesFiltered != 1 {
		t.Errorf("DuplicatesFiltered = %d", m.DuplicatesFiltered)
	}
	for _, k := range store.keys {
		if k == "" {
			t.Error("empty key reached the ledger")
		}
	}
}

func TestRunSkipsLedgerHits(t *testing.T) {
	store := &memStore{keys: []string{string(games.Normalize("Hades"))}}
	pub := &recordingPublisher{}
	c := fixedCollector{name: "epic", items: []games.RawCandidate{
		candidate("Hades - Deluxe Edition", "https://store.epicgames.com/p/hades"),
	}}

	anns, err := newPipeline(store, pub, nil, c).Run(context.Background())
	if err != nil || len(anns) != 0 {
		t.Fatalf("Run() = %+v, %v", anns, err)
	}
	if len(pub.calls) != 0 || store.saves != 0 {
		t.Errorf("empty run published %d times and saved %d times", len(pub.calls), store.saves)
	}
}

func TestRunRecordsDespiteDeliveryFailure(t *testing.T) {
	store := &memStore{}
	pub := &recordingPublisher{fail: true}
	c := fixedCollector{name: "epic", items: []games.RawCandidate{
		candidate("Hades", "https://a.example/hades"),
		candidate("Celeste", "https://a.example/celeste"),
	}}

	anns, err := newPipeline(store, pub, nil, c).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(anns) != 2 {
		t.Fatalf("announced %d", len(anns))
	}
	got := append([]string(nil), store.keys...)
	sort.Strings(got)
	if len(got) != 2 {
		t.Errorf("ledger = %v, want both ids recorded", got)
	}
}

func TestRunPersistFailure(t *testing.T) {
	store := &memStore{saveErr: errors.New("disk full")}
	m := metrics.New()
	c := fixedCollector{name: "epic", items: []games.RawCandidate{candidate("Hades", "https://a.example/hades")}}

	anns, err := newPipeline(store, &recordingPublisher{}, m, c).Run(context.Background())
	if err == nil {
		t.Fatal("Run() error = nil when the ledger cannot be saved")
	}
	if len(anns) != 1 {
		t.Errorf("announced %d", len(anns))
	}
	if m.Healthy() {
		t.Error("metrics still healthy after a persist failure")
	}
}

func TestRunWithNoSources(t *testing.T) {
	store := &memStore{}
	pub := &recordingPublisher{}
	anns, err := newPipeline(store, pub, nil).Run(context.Background())
	if err != nil || anns != nil {
		t.Errorf("Run() = %v, %v", anns, err)
	}
}
