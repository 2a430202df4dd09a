package ledger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/deusflow/freegames/internal/games"
	"github.com/deusflow/freegames/internal/storage"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memStore struct {
	keys    []string
	loadErr error
	saveErr error
	saves   int
}

func (m *memStore) Load(context.Context) ([]string, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.keys, nil
}

func (m *memStore) Save(_ context.Context, keys []string) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.keys = append([]string(nil), keys...)
	return nil
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := storage.NewFileStore(filepath.Join(t.TempDir(), "sent_games.json"))

	l := New(store, quietLogger())
	l.Load(ctx)
	l.Record("game:b")
	l.Record("game:a")
	if err := l.Persist(ctx); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}

	fresh := New(store, quietLogger())
	fresh.Load(ctx)
	want := []games.CanonicalKey{"game:a", "game:b"}
	if got := fresh.Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
	if !fresh.Contains("game:a") || fresh.Contains("game:c") {
		t.Error("Contains() mismatch after reload")
	}
}

func TestLoadDegradesToEmpty(t *testing.T) {
	tests := []struct {
		name  string
		store *memStore
	}{
		{"missing", &memStore{loadErr: storage.ErrNotFound}},
		{"corrupt", &memStore{loadErr: errors.New("unmarshal ledger: invalid character")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(tt.store, quietLogger())
			l.Record("game:stale")
			l.Load(context.Background())
			if l.Len() != 0 {
				t.Errorf("Len() = %d, want 0", l.Len())
			}
		})
	}
}

func TestRecordIsIdempotent(t *testing.T) {
	store := &memStore{keys: []string{"game:a", ""}}
	l := New(store, quietLogger())
	l.Load(context.Background())

	l.Record("game:a")
	l.Record("game:a")
	l.Record("")
	if l.Len() != 1 {
		t.Errorf("Len() = %d, want 1", l.Len())
	}
}

func TestPersistError(t *testing.T) {
	store := &memStore{saveErr: errors.New("disk full")}
	l := New(store, quietLogger())
	l.Record("game:a")
	err := l.Persist(context.Background())
	if err == nil || !errors.Is(err, store.saveErr) {
		t.Fatalf("Persist() error = %v, want wrapped disk full", err)
	}
	if !l.Contains("game:a") {
		t.Error("in-memory set lost after failed persist")
	}
}

// flakyStore fails the first Load and serves its keys afterwards.
type flakyStore struct {
	memStore
	loads int
}

func (f *flakyStore) Load(ctx context.Context) ([]string, error) {
	f.loads++
	if f.loads == 1 {
		return nil, errors.New("storage: 503 backend unavailable")
	}
	return f.memStore.Load(ctx)
}

func TestPersistMergesAfterFailedLoad(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{memStore: memStore{keys: []string{"game:a", "game:b"}}}
	l := New(store, quietLogger())

	l.Load(ctx)
	if l.Len() != 0 {
		t.Fatalf("Len() = %d after a failed load", l.Len())
	}
	l.Record("game:c")
	if err := l.Persist(ctx); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}
	want := []string{"game:a", "game:b", "game:c"}
	if !reflect.DeepEqual(store.keys, want) {
		t.Errorf("saved %v, want %v", store.keys, want)
	}
}

func TestPersistOverwritesCorruptLedger(t *testing.T) {
	store := &memStore{loadErr: errors.New("unmarshal ledger: invalid character")}
	l := New(store, quietLogger())
	l.Load(context.Background())
	l.Record("game:a")

	if err := l.Persist(context.Background()); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}
	if !reflect.DeepEqual(store.keys, []string{"game:a"}) {
		t.Errorf("saved %v", store.keys)
	}
}
