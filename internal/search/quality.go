package search

import "strings"

// testingKeywords is the closed list used to decide whether a query is
// itself about tests, so the test-file penalty and quality signals don't
// punish someone who is actually looking for tests.
var testingKeywords = []string{
	"test", "tests", "testing", "unit", "integration", "spec",
	"jest", "vitest", "jasmine", "playwright", "cypress", "mock", "spy",
	"coverage", "e2e", "testbed",
}

// isTestingQuery reports whether query is itself about tests.
func isTestingQuery(query string) bool {
	lower := strings.ToLower(query)
	for _, kw := range testingKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

const (
	lowTopScoreThreshold   = 0.30
	weakAverageThreshold   = 0.32
	tightSpreadThreshold   = 0.03
	lowConfidenceThreshold = 0.35

	// profileAmbiguityThreshold is the wider top-3 spread below which
	// edit/refactor/migrate profiles treat the result set as ambiguous,
	// since those intents need one clearly-right answer more than an
	// open-ended explore query does.
	profileAmbiguityThreshold = 0.08
)

// isPreciseProfile reports whether profile is one of the targeted-change
// intents (edit/refactor/migrate), which demand less ambiguity than
// open-ended exploration.
func isPreciseProfile(profile Profile) bool {
	switch profile {
	case ProfileEdit, ProfileRefactor, ProfileMigrate:
		return true
	default:
		return false
	}
}

// isAmbiguousTop3 reports whether the top 3 results are too close in score
// to confidently call a winner.
func isAmbiguousTop3(results []*SearchResult, threshold float64) bool {
	if len(results) < 3 {
		return false
	}
	return results[0].Score-results[2].Score < threshold
}

// AssessQuality computes a SearchQuality summary for a ranked, filtered
// result set. results must already be in final rank order.
func AssessQuality(results []*SearchResult, query string, profile Profile) *SearchQuality {
	if len(results) == 0 {
		return &SearchQuality{
			Status:     "low_confidence",
			Confidence: 0,
			Signals:    []string{"no results"},
			NextSteps:  []string{"broaden the query or check whether the index is up to date"},
		}
	}

	topScore := results[0].Score
	topK := results
	if len(topK) > 10 {
		topK = topK[:10]
	}

	var sum float64
	for _, r := range topK {
		sum += r.Score
	}
	avg := sum / float64(len(topK))

	spread := 0.0
	if len(topK) >= 3 {
		spread = topK[0].Score - topK[2].Score
	}

	testingQuery := isTestingQuery(query)
	testArtifactCount := 0
	for _, r := range topK {
		if r.Chunk != nil && IsTestFile(r.Chunk.FilePath) {
			testArtifactCount++
		}
	}
	testArtifactsDominate := !testingQuery && len(topK) > 0 &&
		float64(testArtifactCount)/float64(len(topK)) >= 2.0/3.0

	var signals []string
	var penalty float64

	if topScore < lowTopScoreThreshold {
		signals = append(signals, "low top score")
		penalty += 0.15
	}
	if avg < weakAverageThreshold {
		signals = append(signals, "weak top-k average")
		penalty += 0.1
	}
	if len(topK) >= 3 && spread < tightSpreadThreshold {
		signals = append(signals, "tight top spread")
		penalty += 0.1
	}
	if testArtifactsDominate {
		signals = append(signals, "test artifacts dominate top-k")
		penalty += 0.15
	}
	if isPreciseProfile(profile) && isAmbiguousTop3(results, profileAmbiguityThreshold) {
		signals = append(signals, "ambiguous top-3 for "+string(profile)+" profile")
		penalty += 0.1
	}

	confidence := topScore - penalty
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	status := "ok"
	var nextSteps []string
	if len(signals) >= 2 || confidence < lowConfidenceThreshold {
		status = "low_confidence"
		nextSteps = append(nextSteps, "try a more specific query naming the function, type, or file you expect")
		if testArtifactsDominate {
			nextSteps = append(nextSteps, "add --filter code or exclude test paths")
		}
	}

	return &SearchQuality{
		Status:     status,
		Confidence: confidence,
		Signals:    signals,
		NextSteps:  nextSteps,
	}
}
