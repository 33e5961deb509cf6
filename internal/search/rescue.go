package search

import "strings"

// questionWords are stripped from the front of a query when generating a
// rescue rewrite, since they carry intent but not retrieval signal.
var questionWords = []string{"how", "what", "where", "when", "why", "does", "do", "can", "is", "are"}

// rescueMargin is how much a rescue result's score must exceed the prior
// top score by to replace it; small rewrites shouldn't churn a result set
// that was only marginally low-confidence.
const rescueMargin = 0.05

// rescueRewrites generates at most 3 generic "implementation-oriented"
// rewrites of a query, used to retry the semantic channel when the
// original query's top result looks unreliable.
func rescueRewrites(query string) []string {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil
	}

	stripped := stripLeadingQuestionWords(trimmed)

	rewrites := make([]string, 0, 3)
	if stripped != "" && stripped != trimmed {
		rewrites = append(rewrites, stripped)
	}
	rewrites = append(rewrites, "implementation of "+stripped)
	rewrites = append(rewrites, "function that "+stripped)

	if len(rewrites) > 3 {
		rewrites = rewrites[:3]
	}
	return rewrites
}

// stripLeadingQuestionWords removes a leading question word (and a
// trailing '?') from query, e.g. "how does auth work?" -> "auth work".
func stripLeadingQuestionWords(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return query
	}
	first := strings.ToLower(strings.Trim(fields[0], "?"))
	for _, qw := range questionWords {
		if first == qw {
			rest := strings.Join(fields[1:], " ")
			return strings.TrimSuffix(strings.TrimSpace(rest), "?")
		}
	}
	return strings.TrimSuffix(query, "?")
}

// preciseRescueMargin widens the rescue trigger for edit/refactor/migrate
// profiles, which need a confidently singular answer more than an
// open-ended explore query does.
const preciseRescueMargin = 0.10

// needsRescue decides whether a ranked, filtered result set warrants a
// low-confidence rescue attempt: the top score is weak, the top hit is a
// test file for a query that isn't itself about tests, or (for
// edit/refactor/migrate profiles) the top-3 results are too ambiguous to
// call a clear winner.
func needsRescue(results []*SearchResult, query string, profile Profile) bool {
	if len(results) == 0 {
		return false
	}
	top := results[0]
	threshold := lowConfidenceThreshold
	if isPreciseProfile(profile) {
		threshold += preciseRescueMargin
	}
	if top.Score < threshold {
		return true
	}
	if !isTestingQuery(query) && top.Chunk != nil && IsTestFile(top.Chunk.FilePath) {
		return true
	}
	if isPreciseProfile(profile) && isAmbiguousTop3(results, profileAmbiguityThreshold) {
		return true
	}
	return false
}
