package telegram

import (
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/deusflow/freegames/internal/games"
)

// Telegram limits, in characters.
const (
	MaxMessageLength = 4096
	MaxCaptionLength = 1024
)

// Labels are the fixed strings of a message.
type Labels struct {
	Genre       string
	Platform    string
	Expires     string
	Unspecified string
	Download    string
	Digest      string
}

var labelSets = map[string]Labels{
	"en": {
		Genre:       "Genre",
		Platform:    "Platform",
		Expires:     "Expires",
		Unspecified: "Not specified",
		Download:    "Get it free",
		Digest:      "Free games",
	},
	"it": {
		Genre:       "Genere",
		Platform:    "Piattaforma",
		Expires:     "Scade",
		Unspecified: "Data non specificata",
		Download:    "Scarica Gratis",
		Digest:      "Giochi gratis",
	},
}

// LabelsFor returns the label set for an ISO 639-1 code, defaulting to English.
func LabelsFor(lang string) Labels {
	if l, ok := labelSets[strings.ToLower(lang)]; ok {
		return l
	}
	return labelSets["en"]
}

// Formatter renders announcements as Telegram HTML.
type Formatter struct {
	Labels    Labels
	Signature string
	Location  *time.Location
}

// Message renders a single announcement.
func (f Formatter) Message(a games.Announcement) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎮 <b>%s</b>\n\n", esc(a.Title))
	if a.Description != "" {
		fmt.Fprintf(&b, "📝 %s\n\n", esc(a.Description))
	}
	if a.Genre != "" {
		fmt.Fprintf(&b, "🎯 %s: %s\n", f.Labels.Genre, esc(a.Genre))
	}
	if a.Platform != "" {
		fmt.Fprintf(&b, "🏷️ %s: %s\n", f.Labels.Platform, esc(a.Platform))
	}
	fmt.Fprintf(&b, "⏰ %s: %s\n", f.Labels.Expires, esc(f.expiry(a)))
	fmt.Fprintf(&b, "\n🔗 <a href=\"%s\">%s</a>", esc(a.URL), f.Labels.Download)
	if f.Signature != "" {
		fmt.Fprintf(&b, "\n\n💬 %s", esc(f.Signature))
	}
	return b.String()
}

// Caption renders an announcement within the photo caption limit, shortening
// the description when needed.
func (f Formatter) Caption(a games.Announcement) string {
	caption := f.Message(a)
	over := utf8.RuneCountInString(caption) - MaxCaptionLength
	if over <= 0 {
		return caption
	}
	desc := []rune(a.Description)
	keep := len(desc) - over - len(games.Ellipsis)
	if keep < 0 {
		keep = 0
	}
	a.Description = ""
	if keep > 0 {
		a.Description = strings.TrimSpace(string(desc[:keep])) + games.Ellipsis
	}
	caption = f.Message(a)
	if utf8.RuneCountInString(caption) > MaxCaptionLength {
		return ""
	}
	return caption
}

// Digest renders all announcements as one or more messages, each within
// MaxMessageLength. The header opens the first message and the signature
// closes the last. The second return value lists the ids each message carries.
func (f Formatter) Digest(anns []games.Announcement, now time.Time) ([]string, [][]games.CanonicalKey) {
	if len(anns) == 0 {
		return nil, nil
	}
	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}

	var (
		msgs []string
		ids  [][]games.CanonicalKey
		cur  strings.Builder
		curI []games.CanonicalKey
	)
	fmt.Fprintf(&cur, "🎁 <b>%s %s</b>\n", f.Labels.Digest, now.In(loc).Format("02/01/2006"))

	flush := func() {
		if len(curI) == 0 {
			return
		}
		msgs = append(msgs, strings.TrimRight(cur.String(), "\n"))
		ids = append(ids, curI)
		cur.Reset()
		curI = nil
	}

	for _, a := range anns {
		entry := f.digestEntry(a)
		if len(curI) > 0 && utf8.RuneCountInString(cur.String())+utf8.RuneCountInString(entry) > MaxMessageLength {
			flush()
		}
		cur.WriteString(entry)
		curI = append(curI, a.ID)
	}
	if f.Signature != "" {
		tail := "\n💬 " + esc(f.Signature)
		if utf8.RuneCountInString(cur.String())+utf8.RuneCountInString(tail) <= MaxMessageLength {
			cur.WriteString(tail)
		}
	}
	flush()
	return msgs, ids
}

func (f Formatter) digestEntry(a games.Announcement) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n🎮 <b>%s</b>", esc(a.Title))
	var meta []string
	for _, m := range []string{a.Platform, a.Genre} {
		if m != "" {
			meta = append(meta, esc(m))
		}
	}
	if len(meta) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(meta, ", "))
	}
	fmt.Fprintf(&b, "\n⏰ %s: %s\n", f.Labels.Expires, esc(f.expiry(a)))
	fmt.Fprintf(&b, "🔗 <a href=\"%s\">%s</a>\n", esc(a.URL), f.Labels.Download)
	return b.String()
}

func (f Formatter) expiry(a games.Announcement) string {
	if a.ExpiryText == "" || a.ExpiryText == games.ExpiryUnspecified {
		return f.Labels.Unspecified
	}
	return a.ExpiryText
}

func esc(s string) string {
	return html.EscapeString(s)
}
