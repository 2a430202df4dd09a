package games

import (
	"regexp"
	"strings"
	"unicode"
)

// KeyPrefix namespaces every canonical key.
const KeyPrefix = "game:"

var (
	giveawayRe    = regexp.MustCompile(`(?i)giveaway`)
	bracketedRe   = regexp.MustCompile(`\([^()]*\)|\[[^\[\]]*\]`)
	trailingSepRe = regexp.MustCompile(`[\s\-:|,–—]+$`)
)

// marketingSuffixes are stripped from the end of a normalised title, in order.
var marketingSuffixes = []string{
	"free",
	"gratis",
	"epic games",
	"steam",
	"edition",
	"deluxe",
	"premium",
	"standard",
	"ultimate",
	"complete",
	"pack",
	"game",
}

// Normalize maps an upstream title to its canonical dedup key.
//
// "Foo: Deluxe Edition (Epic Games) Giveaway" and "Foo" both become "game:foo".
// An empty or whitespace-only title yields an empty key.
func Normalize(title string) CanonicalKey {
	s := stripDecorations(title)
	s = strings.ToLower(s)
	s = stripPunctuation(s)

	words := strings.Fields(s)
	words = stripSuffixes(words)
	if len(words) == 0 {
		return ""
	}
	return CanonicalKey(KeyPrefix + strings.Join(words, " "))
}

// DisplayTitle applies the giveaway and bracket cleanup of Normalize while
// keeping the original casing.
func DisplayTitle(title string) string {
	s := stripDecorations(title)
	s = strings.Join(strings.Fields(s), " ")
	s = trailingSepRe.ReplaceAllString(s, "")
	if s == "" {
		return trimmed(title)
	}
	return s
}

func stripDecorations(title string) string {
	if loc := giveawayRe.FindStringIndex(title); loc != nil {
		title = title[:loc[0]]
	}
	// nested brackets are peeled from the inside out
	for {
		next := bracketedRe.ReplaceAllString(title, " ")
		if next == title {
			break
		}
		title = next
	}
	return title
}

func stripPunctuation(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return b.String()
}

// stripSuffixes removes trailing marketing words until none match. The last
// remaining word is always kept so a title never collapses to nothing.
func stripSuffixes(words []string) []string {
	for {
		stripped := false
		for _, suffix := range marketingSuffixes {
			sw := strings.Fields(suffix)
			if len(words) <= len(sw) || !hasTokenSuffix(words, sw) {
				continue
			}
			words = words[:len(words)-len(sw)]
			stripped = true
			break
		}
		if !stripped {
			return words
		}
	}
}

func hasTokenSuffix(words, suffix []string) bool {
	offset := len(words) - len(suffix)
	for i, w := range suffix {
		if words[offset+i] != w {
			return false
		}
	}
	return true
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
