package textproc

import (
	"regexp"
	"strings"
)

// ProtocolInfo is the verbatim protocol data extracted from a document's
// text, copied into every chunk's metadata per invariant I5.
type ProtocolInfo struct {
	Sessions  string
	Frequency string
	Dosage    string
	Duration  string
}

// HasAny reports whether any field was extracted.
func (p ProtocolInfo) HasAny() bool {
	return p.Sessions != "" || p.Frequency != "" || p.Dosage != "" || p.Duration != ""
}

// Summary renders a one-line verbatim summary, used by ProtocolAwareChunker
// to prefix oversized protocol sections that had to be split so that each
// resulting chunk still carries the protocol facts.
func (p ProtocolInfo) Summary() string {
	if !p.HasAny() {
		return ""
	}
	var parts []string
	if p.Sessions != "" {
		parts = append(parts, p.Sessions)
	}
	if p.Frequency != "" {
		parts = append(parts, p.Frequency)
	}
	if p.Dosage != "" {
		parts = append(parts, p.Dosage)
	}
	if p.Duration != "" {
		parts = append(parts, p.Duration)
	}
	return "Protocol: " + strings.Join(parts, "; ")
}

var (
	sessionsRe  = regexp.MustCompile(`(?i)\b(\d+(?:-\d+)?)\s+sessions?\b`)
	frequencyRe = regexp.MustCompile(`(?i)\bevery\s+(\d+(?:-\d+)?)\s+(days?|weeks?)\b`)
	dosageRe    = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s?(ml|mg|mcg|iu)\b`)
	durationRe  = regexp.MustCompile(`(?i)\bover\s+(\d+(?:-\d+)?)\s+(days?|weeks?|months?)\b`)
)

// ExtractProtocolInfo runs once per document against its normalized text
// and returns the first match of each pattern, verbatim as it appears in
// the source (not normalized/rewritten), per C5's protocol-info extractor.
func ExtractProtocolInfo(text string) ProtocolInfo {
	var info ProtocolInfo
	if m := sessionsRe.FindString(text); m != "" {
		info.Sessions = strings.TrimSpace(m)
	}
	if m := frequencyRe.FindString(text); m != "" {
		info.Frequency = strings.TrimSpace(m)
	}
	if m := dosageRe.FindString(text); m != "" {
		info.Dosage = strings.TrimSpace(m)
	}
	if m := durationRe.FindString(text); m != "" {
		info.Duration = strings.TrimSpace(m)
	}
	return info
}

// sectionHeadingRe recognizes markdown-style or all-caps headings used by
// SectionBasedChunker and ProtocolAwareChunker to detect section
// boundaries.
var sectionHeadingRe = regexp.MustCompile(`(?m)^(#{1,3}\s*.+|[A-Z][A-Z \-/]{3,60})$`)

// ExtractSectionTitle returns a normalized heading if para looks like a
// section title (markdown '#' prefix, or a short all-caps line), else "".
func ExtractSectionTitle(para string) string {
	trimmed := strings.TrimSpace(para)
	if trimmed == "" || len(trimmed) > 80 {
		return ""
	}
	if strings.HasPrefix(trimmed, "#") {
		title := strings.TrimSpace(strings.TrimLeft(trimmed, "# "))
		if title != "" {
			return title
		}
		return ""
	}
	if sectionHeadingRe.MatchString(trimmed) && trimmed == strings.ToUpper(trimmed) {
		return titleCase(trimmed)
	}
	return ""
}

// titleCase upper-cases the first letter of each word, used to render a
// recognized all-caps heading in display form.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// sectionAliases canonicalizes heading variation into a controlled
// vocabulary: {"indications", "treatment areas", "approved uses"} all
// canonicalize to "Indications", and similarly for the other families
// SectionBasedChunker recognizes.
var sectionAliases = map[string]string{
	"indications":       "Indications",
	"treatment areas":   "Indications",
	"approved uses":     "Indications",
	"contraindications": "Contraindications",
	"contra-indications": "Contraindications",
	"precautions":       "Contraindications",
	"dosage":            "Dosage",
	"dosage and administration": "Dosage",
	"posology":          "Dosage",
	"composition":       "Composition",
	"ingredients":        "Composition",
	"formulation":        "Composition",
	"mechanism":         "Mechanism",
	"mechanism of action": "Mechanism",
	"how it works":       "Mechanism",
}

// CanonicalSection maps a raw heading to its canonical family name, or
// returns the title-cased heading unchanged if it is not a recognized
// variation.
func CanonicalSection(heading string) string {
	key := strings.ToLower(strings.TrimSpace(heading))
	if canon, ok := sectionAliases[key]; ok {
		return canon
	}
	return heading
}

// protocolHeadingKeywords are the section-heading substrings
// ProtocolAwareChunker uses to detect protocol-relevant sections.
var protocolHeadingKeywords = []string{
	"treatment protocol", "dosage and administration", "administration schedule",
	"treatment schedule", "injection protocol", "protocol",
}

// IsProtocolHeading reports whether a section heading signals
// protocol-relevant content.
func IsProtocolHeading(heading string) bool {
	lower := strings.ToLower(heading)
	for _, kw := range protocolHeadingKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
