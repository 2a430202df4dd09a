package translate

import (
	"strings"
	"testing"
)

func TestSanitizeAIText_RemovesInlineParenthesizedDisclaimer(t *testing.T) {
	in := "Esplora un mondo vasto.\n(Note: This translation is a machine translation and may contain errors.) Combatti contro nemici leggendari."
	out := SanitizeAIText(in)
	if out == "" {
		t.Fatalf("got empty output")
	}
	if strings.Contains(strings.ToLower(out), "note:") {
		t.Errorf("output still contains 'Note:' disclaimer: %q", out)
	}
	if !strings.Contains(out, "Combatti contro nemici leggendari.") {
		t.Errorf("expected content preserved after disclaimer removal, got: %q", out)
	}
}

func TestSanitizeAIText_RemovesFullLineNote(t *testing.T) {
	in := "Note: This translation is a machine translation and may contain errors.\nGioco gratuito per un tempo limitato."
	out := SanitizeAIText(in)
	if strings.Contains(strings.ToLower(out), "note:") {
		t.Errorf("disclaimer line was not removed: %q", out)
	}
	if out != "Gioco gratuito per un tempo limitato." {
		t.Errorf("expected content line to remain: %q", out)
	}
}

func TestSanitizeAIText_RemovesBracketedDisclaimer(t *testing.T) {
	in := "[Note: Machine translation] Questa è una riga di prova."
	out := SanitizeAIText(in)
	if strings.Contains(strings.ToLower(out), "note") {
		t.Errorf("bracketed disclaimer was not removed: %q", out)
	}
	if out != "Questa è una riga di prova." {
		t.Errorf("expected text preserved, got %q", out)
	}
}

func TestSanitizeAIText_PreambleAndQuotes(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Here is the translation:\n\"Sopravvivi nella foresta.\"", "Sopravvivi nella foresta."},
		{"Traduzione: Costruisci la tua città.", "Costruisci la tua città."},
		{"«Corri più veloce»", "Corri più veloce"},
		{`"Hades" è un gioco di "Supergiant"`, `"Hades" è un gioco di "Supergiant"`},
		{"Testo normale (con parentesi).", "Testo normale (con parentesi)."},
	}
	for _, tt := range tests {
		if got := SanitizeAIText(tt.in); got != tt.want {
			t.Errorf("SanitizeAIText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
