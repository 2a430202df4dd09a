package translate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/deusflow/freegames/internal/cache"
	"github.com/deusflow/freegames/internal/metrics"
	"github.com/deusflow/freegames/internal/ratelimit"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeProvider struct {
	name  string
	out   string
	err   error
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Translate(_ context.Context, text, _, _ string) (string, error) {
	f.calls++
	return f.out, f.err
}

func TestChainFallsThrough(t *testing.T) {
	broken := &fakeProvider{name: "google", err: errors.New("HTTP 429")}
	echo := &fakeProvider{name: "gemini", out: "Explore the world."}
	good := &fakeProvider{name: "openai", out: "Note: machine translation.\nEsplora il mondo."}
	m := metrics.New()

	c := NewChain("en", "it", []Provider{broken, echo, good}, quietLogger(), WithMetrics(m))
	if got := c.Transform(context.Background(), "Explore the world."); got != "Esplora il mondo." {
		t.Errorf("Transform() = %q", got)
	}
	if broken.calls != 1 || echo.calls != 1 || good.calls != 1 {
		t.Errorf("calls = %d/%d/%d", broken.calls, echo.calls, good.calls)
	}
	if m.SuccessfulTranslations != 1 {
		t.Errorf("SuccessfulTranslations = %d", m.SuccessfulTranslations)
	}
}

func TestChainIdentityCases(t *testing.T) {
	p := &fakeProvider{name: "google", err: errors.New("down")}
	m := metrics.New()
	tests := []struct {
		name  string
		chain *Chain
		in    string
		want  string
	}{
		{"all fail", NewChain("en", "it", []Provider{p}, quietLogger(), WithMetrics(m)), "Hello", "Hello"},
		{"disabled", NewChain("en", "", []Provider{p}, quietLogger()), "Hello", "Hello"},
		{"same language", NewChain("it", "IT", []Provider{p}, quietLogger()), "Ciao", "Ciao"},
		{"empty", NewChain("en", "it", []Provider{p}, quietLogger()), "  ", ""},
		{"no providers", NewChain("en", "it", nil, quietLogger()), "Hello", "Hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.chain.Transform(context.Background(), tt.in); got != tt.want {
				t.Errorf("Transform(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
	if p.calls != 1 {
		t.Errorf("provider called %d times, want only for the enabled chain", p.calls)
	}
	if m.FailedTranslations != 1 {
		t.Errorf("FailedTranslations = %d", m.FailedTranslations)
	}
}

func TestChainCacheAndLimiter(t *testing.T) {
	gem := &fakeProvider{name: "gemini", out: "Ciao mondo"}
	memo := cache.New[string](time.Hour)
	defer memo.Close()
	budget := ratelimit.New(map[string]int{"gemini": 1}, quietLogger())

	c := NewChain("en", "it", []Provider{gem}, quietLogger(), WithCache(memo, time.Hour), WithLimiter(budget))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if got := c.Transform(ctx, "Hello world"); got != "Ciao mondo" {
			t.Fatalf("Transform() = %q on call %d", got, i+1)
		}
	}
	if gem.calls != 1 {
		t.Errorf("provider called %d times, want 1 (cached)", gem.calls)
	}

	if got := c.Transform(ctx, "Goodbye"); got != "Goodbye" {
		t.Errorf("Transform() = %q past the budget, want original", got)
	}
	if gem.calls != 1 {
		t.Errorf("provider called past its budget")
	}
}

func TestGoogle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("sl") != "en" || q.Get("tl") != "it" || q.Get("client") != "gtx" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		io.WriteString(w, `[[["Gioco gratis. ","Free game. ",null,null,1],["Prendilo ora.","Grab it now.",null,null,1]],null,"en"]`)
	}))
	defer srv.Close()

	g := NewGoogle(srv.Client(), srv.URL)
	got, err := g.Translate(context.Background(), "Free game. Grab it now.", "en", "it")
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if got != "Gioco gratis. Prendilo ora." {
		t.Errorf("Translate() = %q", got)
	}

	if _, err := g.Translate(context.Background(), "x", "en", "de"); err == nil {
		t.Error("Translate() error = nil on HTTP 400")
	}
}

func TestParseGoogleResponseErrors(t *testing.T) {
	for _, body := range []string{`[]`, `{"a":1}`, `["x"]`} {
		if _, err := parseGoogleResponse([]byte(body)); err == nil {
			t.Errorf("parseGoogleResponse(%s) error = nil", body)
		}
	}
}

type promptRecorder struct{ prompt string }

func (p *promptRecorder) Generate(_ context.Context, prompt string) (string, error) {
	p.prompt = prompt
	return "ok", nil
}

func TestLLMPrompt(t *testing.T) {
	rec := &promptRecorder{}
	llm := NewLLM("gemini", rec)
	if _, err := llm.Translate(context.Background(), "Explore  a\nvast world.", "en", "it"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(rec.prompt, "English") || !strings.Contains(rec.prompt, "Italian") {
		t.Errorf("prompt missing language names: %q", rec.prompt)
	}
	if !strings.HasSuffix(rec.prompt, "Explore a vast world.") {
		t.Errorf("prompt text not normalised: %q", rec.prompt)
	}
	if llm.Name() != "gemini" {
		t.Errorf("Name() = %q", llm.Name())
	}
	if LanguageName("xx") != "xx" {
		t.Errorf("unknown code not passed through")
	}
}
