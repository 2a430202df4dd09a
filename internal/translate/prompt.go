package translate

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// maxInput bounds the text sent in one request, in runes.
const maxInput = 4000

// Generator produces free text from a prompt. Both LLM clients implement it.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// LLM turns a Generator into a translation Provider.
type LLM struct {
	name string
	gen  Generator
}

func NewLLM(name string, gen Generator) *LLM {
	return &LLM{name: name, gen: gen}
}

func (l *LLM) Name() string { return l.name }

func (l *LLM) Translate(ctx context.Context, text, from, to string) (string, error) {
	return l.gen.Generate(ctx, Prompt(text, from, to))
}

// Prompt builds the translation instruction.
func Prompt(text, from, to string) string {
	return fmt.Sprintf(`Translate the following %s video game store description to %s.
Keep game titles, studio names and platform names unchanged.
Reply with the translation only, without notes, quotes or comments.

Text:
%s`, LanguageName(from), LanguageName(to), clip(text))
}

var languages = map[string]string{
	"en": "English",
	"it": "Italian",
	"de": "German",
	"fr": "French",
	"es": "Spanish",
	"pt": "Portuguese",
	"nl": "Dutch",
	"da": "Danish",
	"sv": "Swedish",
	"no": "Norwegian",
	"pl": "Polish",
	"uk": "Ukrainian",
}

// LanguageName maps an ISO 639-1 code to an English language name, passing
// unknown codes through.
func LanguageName(code string) string {
	if name, ok := languages[strings.ToLower(code)]; ok {
		return name
	}
	return code
}

func clip(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) > maxInput {
		text = string([]rune(text)[:maxInput])
	}
	return text
}
