package games

import (
	"regexp"
	"strings"
)

// DefaultGenre is used when neither the source nor the title hints at a genre.
const DefaultGenre = "Various"

type genreRule struct {
	genre    string
	keywords []string
}

// genreRules are tried in order over the title; first match wins.
var genreRules = []genreRule{
	{"Simulation", []string{"simulator", "simulation", "sim", "tycoon", "farming", "farm", "flight", "truck"}},
	{"Racing", []string{"racing", "racer", "race", "rally", "drift", "kart", "motorsport", "speed"}},
	{"Role-Playing", []string{"rpg", "role-playing", "roleplaying", "dungeon", "quest", "saga", "legends"}},
	{"Survival", []string{"survival", "survive", "survivor", "zombie", "dead", "outbreak"}},
	{"Puzzle", []string{"puzzle", "puzzles", "riddle", "match", "tetris"}},
	{"Strategy", []string{"strategy", "tactics", "tactical", "empire", "civilization", "kingdom", "tower defense"}},
	{"Action", []string{"shooter", "action", "war", "combat", "fight", "fighter", "battle", "gun", "ninja", "assault"}},
	{"Adventure", []string{"adventure", "journey", "explore", "exploration", "odyssey", "island", "tales"}},
}

// categoryAliases maps upstream category/genre labels onto known genres.
var categoryAliases = map[string]string{
	"simulation":   "Simulation",
	"simulator":    "Simulation",
	"racing":       "Racing",
	"driving":      "Racing",
	"rpg":          "Role-Playing",
	"role-playing": "Role-Playing",
	"role playing": "Role-Playing",
	"survival":     "Survival",
	"puzzle":       "Puzzle",
	"strategy":     "Strategy",
	"rts":          "Strategy",
	"action":       "Action",
	"shooter":      "Action",
	"fps":          "Action",
	"adventure":    "Adventure",
	"platformer":   "Action",
	"horror":       "Survival",
	"indie":        "Indie",
	"casual":       "Casual",
	"sports":       "Sports",
}

var wordPatterns = map[string]*regexp.Regexp{}

func init() {
	for _, r := range genreRules {
		for _, k := range r.keywords {
			switch {
			case strings.Contains(k, " "):
			case len(k) <= 3:
				wordPatterns[k] = regexp.MustCompile(`\b` + regexp.QuoteMeta(k) + `\b`)
			default:
				wordPatterns[k] = regexp.MustCompile(`\b` + regexp.QuoteMeta(k))
			}
		}
	}
}

// InferGenre picks a genre for a game. A known explicit category takes
// precedence over keyword inference on the title.
func InferGenre(title string, categories []string) string {
	for _, c := range categories {
		if g, ok := lookupCategory(c); ok {
			return g
		}
	}

	text := strings.ToLower(title)
	for _, r := range genreRules {
		if containsAny(text, r.keywords) {
			return r.genre
		}
	}
	return DefaultGenre
}

func lookupCategory(c string) (string, bool) {
	c = strings.ToLower(strings.TrimSpace(c))
	if c == "" {
		return "", false
	}
	if g, ok := categoryAliases[c]; ok {
		return g, true
	}
	// epic ships paths like "games/edition/base"; only the last segment can name a genre
	if i := strings.LastIndex(c, "/"); i >= 0 {
		g, ok := categoryAliases[c[i+1:]]
		return g, ok
	}
	return "", false
}

// containsAny matches phrases as substrings, words as word prefixes and short
// words (three letters or fewer) as whole words, so "sim" does not match
// "simple" and "race" does not match "grace".
func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if re, ok := wordPatterns[k]; ok {
			if re.MatchString(text) {
				return true
			}
			continue
		}
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
