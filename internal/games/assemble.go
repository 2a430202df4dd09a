package games

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// DefaultMaxDescription is the display cap for descriptions, in runes.
	DefaultMaxDescription = 200
	// Ellipsis marks a truncated description.
	Ellipsis = "..."
	// ExpiryUnspecified is shown when the source gives no end date.
	ExpiryUnspecified = "Unspecified"
	// ExpiryLayout renders parsed end dates.
	ExpiryLayout = "02/01/2006 15:04"

	defaultDescription = "Free for a limited time."
)

// TextTransformer localises a description. Implementations return the input
// unchanged when they cannot do better.
type TextTransformer interface {
	Transform(ctx context.Context, text string) string
}

// Assembler turns surviving candidates into announcements.
type Assembler struct {
	maxDescription int
	location       *time.Location
	transformer    TextTransformer
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithMaxDescription overrides the description cap.
func WithMaxDescription(n int) AssemblerOption {
	return func(a *Assembler) {
		if n > 0 {
			a.maxDescription = n
		}
	}
}

// WithLocation sets the zone expiry dates are rendered in.
func WithLocation(loc *time.Location) AssemblerOption {
	return func(a *Assembler) {
		if loc != nil {
			a.location = loc
		}
	}
}

// WithTransformer enables description localisation.
func WithTransformer(t TextTransformer) AssemblerOption {
	return func(a *Assembler) {
		a.transformer = t
	}
}

// NewAssembler returns an Assembler with the default cap, UTC rendering and
// no localisation.
func NewAssembler(opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		maxDescription: DefaultMaxDescription,
		location:       time.UTC,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble builds the announcement for one candidate.
func (a *Assembler) Assemble(ctx context.Context, c RawCandidate, key CanonicalKey) Announcement {
	return Announcement{
		ID:          key,
		Title:       DisplayTitle(c.SourceTitle),
		Description: a.description(ctx, c),
		Genre:       InferGenre(c.SourceTitle, c.RawCategories),
		Platform:    trimmed(c.SourcePlatformLabel),
		ExpiryText:  a.expiry(c),
		URL:         trimmed(c.SourceURL),
		ImageURL:    trimmed(c.ImageURL),
	}
}

func (a *Assembler) description(ctx context.Context, c RawCandidate) string {
	desc := strings.Join(strings.Fields(c.SourceDescription), " ")
	if desc == "" {
		if d := trimmed(c.DefaultDescription); d != "" {
			return d
		}
		return defaultDescription
	}
	if a.transformer != nil {
		if out := strings.TrimSpace(a.transformer.Transform(ctx, desc)); out != "" {
			desc = out
		}
	}
	return Truncate(desc, a.maxDescription)
}

func (a *Assembler) expiry(c RawCandidate) string {
	raw := trimmed(c.RawEnd)
	if raw == "" {
		return ExpiryUnspecified
	}
	// zone-less layouts are upstream wall-clock times in the display zone
	for _, layout := range c.DateLayouts {
		if t, err := time.ParseInLocation(layout, raw, a.location); err == nil {
			return t.In(a.location).Format(ExpiryLayout)
		}
	}
	return raw
}

// Truncate caps s at max runes, appending Ellipsis when it cut anything.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + Ellipsis
}
