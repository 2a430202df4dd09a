package translate

import (
	"regexp"
	"strings"
)

var (
	// (Note: ...) or [Translation: ...] anywhere in the text
	inlineDisclaimerRe = regexp.MustCompile(`(?i)[\(\[]\s*(note|nota|translation|translated|traduzione|machine translation)\b[^\)\]]*[\)\]]`)
	// whole lines that are a disclaimer or a preamble
	disclaimerLineRe = regexp.MustCompile(`(?i)^\s*(note|nota|disclaimer)\s*:`)
	preambleLineRe   = regexp.MustCompile(`(?i)^\s*(here is|here's|ecco)\b.*(translation|traduzione).*:\s*$`)
	labelPrefixRe    = regexp.MustCompile(`(?i)^\s*(translation|traduzione|text|testo)\s*:\s*`)
)

// SanitizeAIText strips the disclaimers, preambles and wrapping quotes that
// language models add around a translation.
func SanitizeAIText(s string) string {
	s = inlineDisclaimerRe.ReplaceAllString(s, "")

	var kept []string
	for _, line := range strings.Split(s, "\n") {
		if disclaimerLineRe.MatchString(line) || preambleLineRe.MatchString(line) {
			continue
		}
		line = labelPrefixRe.ReplaceAllString(line, "")
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}

	out := strings.Join(strings.Fields(strings.Join(kept, " ")), " ")
	return trimQuotes(out)
}

func trimQuotes(s string) string {
	pairs := [][2]string{{`"`, `"`}, {"“", "”"}, {"«", "»"}, {"'", "'"}}
	for _, p := range pairs {
		if len(s) < len(p[0])+len(p[1]) || !strings.HasPrefix(s, p[0]) || !strings.HasSuffix(s, p[1]) {
			continue
		}
		inner := s[len(p[0]) : len(s)-len(p[1])]
		if !strings.Contains(inner, p[0]) && !strings.Contains(inner, p[1]) {
			return strings.TrimSpace(inner)
		}
	}
	return s
}
