package tokenizer

import (
	"reflect"
	"testing"
)

func TestTokenizeAccentsAndStopwords(t *testing.T) {
	got := Tokenize("Le jus d'orange est tres realiste", true)
	want := []string{"jus", "orange", "realiste"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestTokenizeAccentNormalization(t *testing.T) {
	got := Tokenize("réaliste événement", false)
	want := []string{"realiste", "evenement"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestTokenizeHyphenSplit(t *testing.T) {
	got := Tokenize("Le jus-de-fruits presse a froid", true)
	want := []string{"jus", "fruits", "presse", "froid"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestTokenizeDropsShortTokens(t *testing.T) {
	got := Tokenize("a I am ok", true)
	for _, tok := range got {
		if len(tok) < 2 {
			t.Errorf("unexpected short token %q in %v", tok, got)
		}
	}
}

func TestTokenizeDeterministic(t *testing.T) {
	text := "Deploy v19.0.2 on VPS Odoo"
	a := Tokenize(text, true)
	b := Tokenize(text, true)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("tokenizer not deterministic: %v vs %v", a, b)
	}
}

func TestTokenizeNoStopwordRemoval(t *testing.T) {
	got := Tokenize("the quick fox", false)
	want := []string{"the", "quick", "fox"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
