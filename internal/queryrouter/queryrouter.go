// Package queryrouter implements the query router (C8): deterministic
// regex/keyword classification of a question into one of nine types,
// each emitting a model.RetrievalPolicy the retrieval orchestrator (C9)
// consumes. Grounded in shape on the teacher's internal/rbac package —
// a declarative table of rules evaluated in order rather than a chain of
// if/else branches — generalized here from role→permitted-tools lookups
// to predicate→policy classification.
package queryrouter

import (
	"regexp"
	"strings"

	"github.com/clinicalcore/retrieval-core/internal/model"
)

// rule pairs a classification predicate with the QueryType it produces.
// Rules are evaluated in order; the first matching rule wins, mirroring
// rbac.HasToolPermission's first-match lookup generalized from an exact
// map key to a regex/keyword predicate.
type rule struct {
	queryType QueryType
	matches   func(lower string) bool
}

type QueryType = model.QueryType

const (
	ProductInfo      = model.QueryProductInfo
	Protocol         = model.QueryProtocol
	Safety           = model.QuerySafety
	Technique        = model.QueryTechnique
	Comparison       = model.QueryComparison
	Indication       = model.QueryIndication
	Mechanism        = model.QueryMechanism
	GenericFactual   = model.QueryGenericFactual
	RefusalCandidate = model.QueryRefusalCandidate
)

var (
	comparisonPattern  = regexp.MustCompile(`\bdifference between\b|\bcompare[sd]?\b|\bversus\b|\bvs\.?\b`)
	protocolPattern    = regexp.MustCompile(`\bhow many sessions\b|\bprotocol\b|\bdosage\b|\bfrequency\b|\bhow often\b`)
	safetyPattern      = regexp.MustCompile(`\bcontraindicat|\bside effect|\badverse|\bsafe(ty)?\b|\brisk\b`)
	techniquePattern   = regexp.MustCompile(`\btechnique\b|\binjection (site|depth|angle)\b|\bhow (to|do i) (inject|apply|perform)\b`)
	mechanismPattern   = regexp.MustCompile(`\bmechanism of action\b|\bhow does it work\b|\bhow it works\b|\bbiodegrad|\bmetaboli[sz]`)
	indicationPattern  = regexp.MustCompile(`\bindicat(ed|ion)|\bused for\b|\btreats?\b|\bapproved for\b`)
	refusalPattern     = regexp.MustCompile(`\boff-label\b|\bunapproved\b|\bexperimental\b|\bnot (fda )?approved\b`)
	productInfoPattern = regexp.MustCompile(`\bwhat\s+(is|are)\b|\bwhat'?s\b|\btell me about\b`)
)

// isProductInfo matches a bare product-identity question ("what is
// Sculptra?", "tell me about Radiesse") — the identity pattern alone is
// too broad (it also matches "what is the mechanism of action"), so it
// only fires once a known product name is actually mentioned; every more
// specific rule above already runs first in the table and claims those
// questions first.
func isProductInfo(lower string) bool {
	return productInfoPattern.MatchString(lower) && len(extractProducts(lower)) > 0
}

// rules is the declarative classification table. Comparison and safety
// checks run before protocol/indication so a comparison question that
// also mentions dosage ("compare the dosage of X and Y") still classifies
// as COMPARISON, matching spec.md's worked example.
var rules = []rule{
	{Comparison, comparisonPattern.MatchString},
	{RefusalCandidate, refusalPattern.MatchString},
	{Safety, safetyPattern.MatchString},
	{Protocol, protocolPattern.MatchString},
	{Technique, techniquePattern.MatchString},
	{Mechanism, mechanismPattern.MatchString},
	{Indication, indicationPattern.MatchString},
	{ProductInfo, isProductInfo},
}

// Classify applies the rule table to question and returns the first
// matching QueryType, or GENERIC_FACTUAL when no rule matches.
func Classify(question string) QueryType {
	lower := strings.ToLower(question)
	for _, r := range rules {
		if r.matches(lower) {
			return r.queryType
		}
	}
	return GenericFactual
}
