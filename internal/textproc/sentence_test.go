package textproc

import "testing"

func TestSplitSentences_AbbreviationsDoNotSplit(t *testing.T) {
	cases := []struct {
		name string
		text string
		want int
	}{
		{"title", "Administered by Dr. Smith. Results were positive.", 2},
		{"latin", "Common side effects include bruising, e.g. redness. It resolves quickly.", 2},
		{"dose unit", "Inject 2 ml. into the perioral region. Repeat after 4 weeks.", 2},
		{"trademark", "Apply Newest®. Results appear within 2 weeks.", 1},
		{"etc", "Suitable for face, neck, hands, etc. Consult a provider first.", 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := SplitSentences(tc.text)
			if len(got) != tc.want {
				t.Errorf("SplitSentences(%q) = %d sentences %v, want %d", tc.text, len(got), got, tc.want)
			}
		})
	}
}

func TestSplitSentences_PlainBoundaries(t *testing.T) {
	text := "This is sentence one. This is sentence two! Is this sentence three?"
	got := SplitSentences(text)
	if len(got) != 3 {
		t.Fatalf("got %d sentences, want 3: %v", len(got), got)
	}
}

func TestExtractProtocolInfo(t *testing.T) {
	text := "The recommended protocol is 3 sessions every 4 weeks. Inject 2 ml per session over 12 weeks."
	info := ExtractProtocolInfo(text)
	if info.Sessions == "" {
		t.Error("expected Sessions to be extracted")
	}
	if info.Frequency == "" {
		t.Error("expected Frequency to be extracted")
	}
	if info.Dosage == "" {
		t.Error("expected Dosage to be extracted")
	}
	if info.Duration == "" {
		t.Error("expected Duration to be extracted")
	}
	if !info.HasAny() {
		t.Error("HasAny() = false, want true")
	}
}

func TestCanonicalSection(t *testing.T) {
	cases := map[string]string{
		"Treatment Areas":    "Indications",
		"approved uses":      "Indications",
		"Contraindications":  "Contraindications",
		"Precautions":        "Contraindications",
		"Dosage and Administration": "Dosage",
		"Mechanism of Action": "Mechanism",
		"Something Else":      "Something Else",
	}
	for in, want := range cases {
		if got := CanonicalSection(in); got != want {
			t.Errorf("CanonicalSection(%q) = %q, want %q", in, got, want)
		}
	}
}
