package queryrouter

import (
	"testing"

	"github.com/clinicalcore/retrieval-core/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		question string
		want     QueryType
	}{
		{"What is the difference between Sculptra and Radiesse?", Comparison},
		{"Sculptra vs Radiesse for cheek volume", Comparison},
		{"Is Radiesse contraindicated in pregnancy?", Safety},
		{"What are the side effects of Sculptra?", Safety},
		{"How many sessions of Sculptra are typically needed?", Protocol},
		{"What is the recommended dosage per vial?", Protocol},
		{"What injection depth is used for the malar region?", Technique},
		{"What is the mechanism of action of Sculptra?", Mechanism},
		{"Is Radiesse indicated for hand rejuvenation?", Indication},
		{"Can this be used off-label for breast augmentation?", RefusalCandidate},
		{"What is Sculptra?", ProductInfo},
		{"Tell me about Radiesse", ProductInfo},
		{"What is this clinic's return policy?", GenericFactual},
	}

	for _, tc := range tests {
		t.Run(tc.question, func(t *testing.T) {
			if got := Classify(tc.question); got != tc.want {
				t.Errorf("Classify(%q) = %q, want %q", tc.question, got, tc.want)
			}
		})
	}
}

func TestPolicyFor_Defaults(t *testing.T) {
	p := PolicyFor(GenericFactual, "What is Sculptra made of?")
	if p.RetrievalMultiplier != defaultMultiplier {
		t.Errorf("RetrievalMultiplier = %d, want %d", p.RetrievalMultiplier, defaultMultiplier)
	}
	if p.VectorWeight != defaultVectorWeight || p.LexicalWeight != defaultLexicalWeight {
		t.Errorf("weights = %v/%v, want %v/%v", p.VectorWeight, p.LexicalWeight, defaultVectorWeight, defaultLexicalWeight)
	}
	if len(p.Boosts) != 0 {
		t.Errorf("expected no boosts for GENERIC_FACTUAL, got %d", len(p.Boosts))
	}
}

func TestPolicyFor_Safety_ShiftsWeights(t *testing.T) {
	p := PolicyFor(Safety, "Is Radiesse contraindicated in pregnancy?")
	if p.VectorWeight != safetyVectorWeight || p.LexicalWeight != safetyLexicalWeight {
		t.Errorf("weights = %v/%v, want %v/%v", p.VectorWeight, p.LexicalWeight, safetyVectorWeight, safetyLexicalWeight)
	}
}

func TestPolicyFor_ProductInfo_BoostsFactsheetAndBrochure(t *testing.T) {
	p := PolicyFor(ProductInfo, "What is Sculptra?")
	if len(p.Boosts) != 1 {
		t.Fatalf("expected 1 boost (doc_type), got %d", len(p.Boosts))
	}

	factsheetChunk := &model.ScoredChunk{Chunk: model.Chunk{DocType: model.DocTypeFactsheet}}
	if !p.Boosts[0].Predicate(factsheetChunk, "") {
		t.Error("expected doc_type boost to match a factsheet chunk")
	}
	caseStudyChunk := &model.ScoredChunk{Chunk: model.Chunk{DocType: model.DocTypeCaseStudy}}
	if p.Boosts[0].Predicate(caseStudyChunk, "") {
		t.Error("expected doc_type boost not to match a case study chunk")
	}
}

func TestPolicyFor_Comparison_BoostsAndExpansions(t *testing.T) {
	p := PolicyFor(Comparison, "What is the difference between Sculptra and Radiesse?")

	if p.RetrievalMultiplier != comparisonMultiplier {
		t.Errorf("RetrievalMultiplier = %d, want %d", p.RetrievalMultiplier, comparisonMultiplier)
	}
	if len(p.Boosts) != 2 {
		t.Fatalf("expected 2 boosts (doc_type + product match), got %d", len(p.Boosts))
	}

	factsheetChunk := &model.ScoredChunk{Chunk: model.Chunk{DocType: model.DocTypeFactsheet}}
	if !p.Boosts[0].Predicate(factsheetChunk, "") {
		t.Error("expected doc_type boost to match a factsheet chunk")
	}
	caseStudyChunk := &model.ScoredChunk{Chunk: model.Chunk{DocType: model.DocTypeCaseStudy}}
	if p.Boosts[0].Predicate(caseStudyChunk, "") {
		t.Error("expected doc_type boost not to match a case study chunk")
	}

	sculptraChunk := &model.ScoredChunk{Chunk: model.Chunk{DocID: "sculptra-factsheet"}}
	if !p.Boosts[1].Predicate(sculptraChunk, "") {
		t.Error("expected product boost to match a doc_id containing a detected product")
	}
	unrelatedChunk := &model.ScoredChunk{Chunk: model.Chunk{DocID: "juvederm-factsheet"}}
	if p.Boosts[1].Predicate(unrelatedChunk, "") {
		t.Error("expected product boost not to match a doc_id for a product absent from the question")
	}

	var hasSculptra, hasRadiesse bool
	for _, e := range p.QueryExpansions {
		if e == "sculptra" {
			hasSculptra = true
		}
		if e == "radiesse" {
			hasRadiesse = true
		}
	}
	if !hasSculptra || !hasRadiesse {
		t.Errorf("expected query expansions to include both detected products, got %v", p.QueryExpansions)
	}
}

func TestRouter_Route(t *testing.T) {
	r := NewRouter()
	p := r.Route("Is Radiesse contraindicated in pregnancy?")
	if p.QueryType != Safety {
		t.Errorf("QueryType = %q, want %q", p.QueryType, Safety)
	}
}
