package synthetic

import "testing"

func TestExtractKeywords_CapitalizedAndUnits(t *testing.T) {
	keywords := extractKeywords("Sculptra is dosed at 2ml per session, repeated every 4 weeks.")
	found := map[string]bool{}
	for _, k := range keywords {
		found[k] = true
	}
	if !found["Sculptra"] {
		t.Errorf("expected Sculptra among keywords, got %v", keywords)
	}
	if !found["2ml"] {
		t.Errorf("expected 2ml among keywords, got %v", keywords)
	}
}

func TestExtractKeywords_KnownProduct(t *testing.T) {
	keywords := extractKeywords("profhilo is a bio-remodeling treatment for skin laxity.")
	found := false
	for _, k := range keywords {
		if k == "profhilo" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected profhilo (lowercase product name) among keywords, got %v", keywords)
	}
}

func TestExtractKeywords_NoDuplicates(t *testing.T) {
	keywords := extractKeywords("Sculptra Sculptra Sculptra is dosed at 2ml.")
	count := 0
	for _, k := range keywords {
		if k == "Sculptra" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected Sculptra to appear once, got %d times in %v", count, keywords)
	}
}

func TestExtractKeywords_CapsAtMax(t *testing.T) {
	text := "Alpha Bravo Charlie Delta Echo Foxtrot Golf Hotel India Juliet Kilo"
	keywords := extractKeywords(text)
	if len(keywords) > maxExpectedKeywords {
		t.Errorf("len(keywords) = %d, want <= %d", len(keywords), maxExpectedKeywords)
	}
}
