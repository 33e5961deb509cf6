package intelligence

import (
	"time"

	"github.com/sourcelens-dev/sourcelens/internal/graph"
	"github.com/sourcelens-dev/sourcelens/internal/pattern"
)

// ConvergenceThreshold is how many independent signals (impact radius,
// pattern consensus, golden-file membership, index freshness) must agree
// on a non-trivial verdict before Build marks the card evidence-locked.
// Below this, the card is still returned but flagged as advisory only.
const ConvergenceThreshold = 2

// Builder assembles Preflight cards from the indexer's graph and pattern
// state. It holds no mutable state of its own and is safe for concurrent
// reads once the index it wraps has finished building.
type Builder struct {
	Graph    *graph.InternalFileGraph
	Patterns *pattern.Detector
	Golden   map[string]bool
	IndexAge time.Duration
}

// Build produces the full evidence-lock card for filePath.
func (b *Builder) Build(filePath string) Preflight {
	pf := Preflight{
		FilePath:        filePath,
		Impact:          b.impact(filePath),
		IsGoldenFile:    b.Golden[filePath],
		IndexConfidence: confidenceFor(b.IndexAge),
		GeneratedAt:     timeNow(),
	}
	pf.PreferPatterns, pf.AvoidPatterns = b.patternGuidance()
	pf.Risk = riskFor(pf)

	signals := 0
	if len(pf.Impact) > 0 {
		signals++
	}
	if len(pf.PreferPatterns) > 0 || len(pf.AvoidPatterns) > 0 {
		signals++
	}
	if pf.IsGoldenFile {
		signals++
	}
	if pf.IndexConfidence == ConfidenceFresh {
		signals++
	}

	pf.EvidenceLocked = signals >= ConvergenceThreshold
	if !pf.EvidenceLocked {
		pf.LockReason = "fewer than two independent signals available; treat this card as advisory"
	}

	return pf
}

// BuildLite produces the cheap, single-signal card for explore-profile
// queries.
func (b *Builder) BuildLite(filePath string) Lite {
	var top string
	if b.Patterns != nil {
		if cats := b.Patterns.Categories(); len(cats) > 0 {
			if cat, ok := b.Patterns.CategoryState(cats[0]); ok && cat.Consensus != nil && cat.Consensus.Primary != nil {
				top = cat.Consensus.Primary.Name
			}
		}
	}
	return Lite{
		FilePath:        filePath,
		TopPattern:      top,
		IndexConfidence: confidenceFor(b.IndexAge),
	}
}

// impact walks the internal file graph to hop-1 (direct importers) and
// hop-2 (importers of those importers) of filePath.
func (b *Builder) impact(filePath string) []ImpactEntry {
	if b.Graph == nil {
		return nil
	}

	var out []ImpactEntry
	hop1 := make(map[string]bool)
	for from, imports := range b.Graph.Edges {
		for _, imp := range imports {
			if imp.ToFile == filePath {
				hop1[from] = true
			}
		}
	}
	for f := range hop1 {
		out = append(out, ImpactEntry{FilePath: f, Hops: 1})
	}

	hop2 := make(map[string]bool)
	for from, imports := range b.Graph.Edges {
		if hop1[from] {
			continue
		}
		for _, imp := range imports {
			if hop1[imp.ToFile] {
				hop2[from] = true
			}
		}
	}
	for f := range hop2 {
		out = append(out, ImpactEntry{FilePath: f, Hops: 2})
	}

	return out
}

// patternGuidance splits every category's consensus pattern into prefer
// (rising or stable, strong consensus) and avoid (declining) lists.
func (b *Builder) patternGuidance() (prefer, avoid []PatternGuidance) {
	if b.Patterns == nil {
		return nil, nil
	}
	for _, name := range b.Patterns.Categories() {
		cat, ok := b.Patterns.CategoryState(name)
		if !ok || cat.Consensus == nil || cat.Consensus.Primary == nil {
			continue
		}
		g := PatternGuidance{
			Category:  string(cat.Category),
			Consensus: cat.Consensus.Primary.Name,
			Guidance:  pattern.Guidance(&cat),
		}
		if cat.Consensus.Primary.Trend == pattern.TrendDeclining {
			avoid = append(avoid, g)
		} else {
			prefer = append(prefer, g)
		}
	}
	return prefer, avoid
}

func riskFor(pf Preflight) RiskLevel {
	switch {
	case pf.IsGoldenFile || len(pf.Impact) > 10:
		return RiskHigh
	case len(pf.Impact) > 2:
		return RiskMedium
	default:
		return RiskLow
	}
}

func confidenceFor(age time.Duration) IndexConfidence {
	switch {
	case age <= time.Hour:
		return ConfidenceFresh
	case age <= 24*time.Hour:
		return ConfidenceAging
	default:
		return ConfidenceStale
	}
}

// timeNow is a seam so tests can fix the clock without the package
// reaching for a live wall-clock read mid-assertion.
var timeNow = time.Now
