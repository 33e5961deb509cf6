package pattern

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// timeNow is a seam so trend classification doesn't reach for a live
// wall-clock read mid-test.
var timeNow = time.Now

// maxAlternatives is how many runner-up names getConsensus reports
// alongside the primary.
const maxAlternatives = 3

// Detector accumulates pattern occurrences as the indexer walks the
// repository and answers consensus/trend/guidance queries once indexing
// completes. It is not safe for concurrent writes; the indexing pipeline
// feeds it occurrences through a single aggregator goroutine.
type Detector struct {
	categories map[Category]*CategoryState
}

// NewDetector returns an empty Detector.
func NewDetector() *Detector {
	return &Detector{categories: make(map[Category]*CategoryState)}
}

// Track records one observed pattern occurrence.
func (d *Detector) Track(o Occurrence) {
	cat, ok := d.categories[o.Category]
	if !ok {
		cat = &CategoryState{Category: o.Category, Names: make(map[string]*NameState)}
		d.categories[o.Category] = cat
	}

	ns, ok := cat.Names[o.Name]
	if !ok {
		ns = &NameState{Category: o.Category, Name: o.Name}
		cat.Names[o.Name] = ns
	}
	ns.Count++
	ns.Occurrences = append(ns.Occurrences, o)
}

// CategoryState returns a snapshot of one category's aggregated state.
func (d *Detector) CategoryState(cat Category) (CategoryState, bool) {
	c, ok := d.categories[cat]
	if !ok {
		return CategoryState{}, false
	}
	return *c, true
}

// Categories returns every tracked category name in stable sorted order.
func (d *Detector) Categories() []Category {
	out := make([]Category, 0, len(d.categories))
	for c := range d.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Finalize computes the canonical example and consensus (primary name, top
// alternatives, per-name trend and guidance) for every tracked category.
// Call once after all occurrences are tracked.
func (d *Detector) Finalize() {
	for _, cat := range d.categories {
		for _, ns := range cat.Names {
			selectCanonicalExample(ns)
		}
		cat.Consensus = getConsensus(cat)
	}
}

// getConsensus computes the primary name (the strict leader by count, or
// nil if tied) plus up to maxAlternatives runner-ups, each with its own
// frequency, trend, and guidance sentence.
func getConsensus(cat *CategoryState) *Consensus {
	if len(cat.Names) == 0 {
		return nil
	}

	total := 0
	ranked := make([]*NameState, 0, len(cat.Names))
	for _, ns := range cat.Names {
		total += ns.Count
		ranked = append(ranked, ns)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Name < ranked[j].Name
	})

	if len(ranked) > 1 && ranked[0].Count == ranked[1].Count {
		// Tied for the lead: no convention has won yet.
		return nil
	}

	alternatives := ranked[1:]
	if len(alternatives) > maxAlternatives {
		alternatives = alternatives[:maxAlternatives]
	}

	hasRisingAlt := false
	for _, ns := range alternatives {
		if trendFor(ns) == TrendRising {
			hasRisingAlt = true
			break
		}
	}

	primary := buildConsensusEntry(ranked[0], total, false, hasRisingAlt)

	var alsoDetected []*PatternConsensusEntry
	for _, ns := range alternatives {
		alsoDetected = append(alsoDetected, buildConsensusEntry(ns, total, true, hasRisingAlt))
	}

	return &Consensus{Primary: primary, AlsoDetected: alsoDetected}
}

// buildConsensusEntry renders one name's consensus entry: frequency share,
// trend, and the guidance sentence from the guidance table.
func buildConsensusEntry(ns *NameState, total int, isAlt, hasRisingAlt bool) *PatternConsensusEntry {
	entry := &PatternConsensusEntry{
		Name:         ns.Name,
		Count:        ns.Count,
		FrequencyPct: percentOf(ns.Count, total),
		Trend:        trendFor(ns),
	}
	if ns.CanonicalFile != "" {
		entry.CanonicalExample = &CanonicalExample{FilePath: ns.CanonicalFile, Line: ns.CanonicalLine}
	}
	entry.Guidance = guidanceFor(entry, isAlt, hasRisingAlt)
	return entry
}

// percentOf rounds count/total to the nearest whole percent.
func percentOf(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count) / float64(total) * 100)
}

// trendFor classifies a name's trend from the P90-newest occurrence
// timestamp: occurrences are sorted newest-first and the timestamp at index
// floor(n*0.1) is used (index 0 when n < 5), so that mutating up to 10% of a
// pattern's files to today's date can't by itself flip the trend.
func trendFor(ns *NameState) Trend {
	t, ok := p90NewestModTime(ns.Occurrences)
	if !ok {
		return ""
	}
	return calculateTrend(t)
}

func p90NewestModTime(occurrences []Occurrence) (time.Time, bool) {
	if len(occurrences) == 0 {
		return time.Time{}, false
	}
	sorted := make([]Occurrence, len(occurrences))
	copy(sorted, occurrences)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ModTime.After(sorted[j].ModTime) })

	idx := 0
	if len(sorted) >= 5 {
		idx = int(math.Floor(float64(len(sorted)) * 0.1))
		if idx >= len(sorted) {
			idx = len(sorted) - 1
		}
	}
	return sorted[idx].ModTime, true
}

// calculateTrend maps a timestamp's age to a trend bucket: within the last
// 90 days is rising, 90-365 days is stable, older is declining. A zero
// timestamp (no date available) is left undefined.
func calculateTrend(date time.Time) Trend {
	if date.IsZero() {
		return ""
	}
	age := timeNow().Sub(date)
	switch {
	case age <= 90*24*time.Hour:
		return TrendRising
	case age <= 365*24*time.Hour:
		return TrendStable
	default:
		return TrendDeclining
	}
}

// selectCanonicalExample picks the representative occurrence for a name:
// prefer one from a core/shared directory, and among equally-eligible
// candidates prefer the one with the shorter file path (usually closer to
// a package root, and so a more "canonical" location).
func selectCanonicalExample(ns *NameState) {
	if len(ns.Occurrences) == 0 {
		return
	}

	var best Occurrence
	haveBest := false
	for _, occ := range ns.Occurrences {
		if !haveBest {
			best = occ
			haveBest = true
			continue
		}
		if occ.InCoreDir && !best.InCoreDir {
			best = occ
			continue
		}
		if occ.InCoreDir == best.InCoreDir && len(occ.FilePath) < len(best.FilePath) {
			best = occ
		}
	}

	ns.CanonicalFile = best.FilePath
	ns.CanonicalLine = best.Line
}

// guidanceFor renders the guidance sentence for one consensus entry,
// following the guidance table: isAlt distinguishes an alternative from the
// primary, hasRisingAlt tells a declining primary whether a rising
// alternative exists (making it a CAUTION rather than a plain PREFER).
func guidanceFor(entry *PatternConsensusEntry, isAlt, hasRisingAlt bool) string {
	name := entry.Name
	p := formatPct(entry.FrequencyPct)
	trend := entry.Trend

	trendSuffix := ""
	if trend != "" {
		trendSuffix = ", " + string(trend)
	}

	switch {
	case isAlt && trend == TrendRising:
		return fmt.Sprintf("USE: %s – %s%%, rising (migration target)", name, p)
	case !isAlt && trend == TrendDeclining && hasRisingAlt:
		return fmt.Sprintf("CAUTION: %s – %s%%, declining (legacy)", name, p)
	case !isAlt && entry.FrequencyPct >= 80 && trend != TrendDeclining:
		return fmt.Sprintf("USE: %s – %s%% adoption%s", name, p, trendSuffix)
	case !isAlt && entry.FrequencyPct >= 80 && trend == TrendDeclining:
		return fmt.Sprintf("PREFER: %s – %s%% adoption, declining", name, p)
	case !isAlt && entry.FrequencyPct >= 50:
		return fmt.Sprintf("PREFER: %s – %s%% adoption%s", name, p, trendSuffix)
	case isAlt && trend == TrendDeclining:
		return fmt.Sprintf("AVOID: %s – %s%%, declining (legacy)", name, p)
	case isAlt && entry.FrequencyPct < 20:
		return fmt.Sprintf("CAUTION: %s – %s%% minority pattern%s", name, p, trendSuffix)
	default:
		return fmt.Sprintf("%s – %s%%%s", name, p, trendSuffix)
	}
}

func formatPct(pct float64) string {
	return fmt.Sprintf("%d", int(pct))
}

// Guidance renders the primary consensus entry's guidance sentence for a
// category, or a "no convention yet" message when nothing has a strict
// lead.
func Guidance(cat *CategoryState) string {
	if cat.Consensus == nil || cat.Consensus.Primary == nil {
		return "No single convention has emerged for " + string(cat.Category) + " yet."
	}
	return cat.Consensus.Primary.Guidance
}

// complementaryPairs lists categories that reinforce each other when both
// converge on strong consensus, e.g. dependency injection style and test
// mocking style usually travel together.
var complementaryPairs = map[Category][]Category{
	"dependency-injection": {"testing-framework"},
	"error-handling":       {"logging"},
}

// conflictingPairs lists categories whose simultaneous strong consensus
// signals an unresolved split rather than agreement, e.g. two competing
// HTTP routers both in heavy use.
var conflictingPairs = map[Category][]Category{
	"http-router": {"http-router-legacy"},
}

// Complementary reports the categories expected to reinforce cat.
func Complementary(cat Category) []Category { return complementaryPairs[cat] }

// Conflicting reports the categories that compete with cat.
func Conflicting(cat Category) []Category { return conflictingPairs[cat] }

// DetectedConflict names two categories whose simultaneous strong consensus
// signals an unresolved split rather than agreement.
type DetectedConflict struct {
	CategoryA Category
	CategoryB Category
}

// conflictStrongThreshold is the primary-consensus share above which a
// category's convention is considered "decided" enough for a simultaneous
// strong consensus on a conflicting category to count as a genuine split.
const conflictStrongThreshold = 50.0

// Conflicts reports every conflicting category pair (per the
// conflictingPairs registry) where both sides have reached a strong
// (>= conflictStrongThreshold) primary consensus, in stable sorted order.
func (d *Detector) Conflicts() []DetectedConflict {
	strong := func(cat Category) bool {
		c, ok := d.categories[cat]
		return ok && c.Consensus != nil && c.Consensus.Primary != nil &&
			c.Consensus.Primary.FrequencyPct >= conflictStrongThreshold
	}

	seen := make(map[[2]Category]bool)
	var out []DetectedConflict
	for catName := range d.categories {
		if !strong(catName) {
			continue
		}
		for _, other := range Conflicting(catName) {
			if !strong(other) {
				continue
			}
			pair := [2]Category{catName, other}
			if pair[0] > pair[1] {
				pair[0], pair[1] = pair[1], pair[0]
			}
			if seen[pair] {
				continue
			}
			seen[pair] = true
			out = append(out, DetectedConflict{CategoryA: pair[0], CategoryB: pair[1]})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CategoryA != out[j].CategoryA {
			return out[i].CategoryA < out[j].CategoryA
		}
		return out[i].CategoryB < out[j].CategoryB
	})
	return out
}

// TestingFrameworkSuperset reports whether candidate names, taken together,
// form a typical Go testing superset (stdlib testing plus an assertion
// library), which should be tracked as one "testing-framework" convention
// rather than flagged as a conflict between "testing" and "testify".
func TestingFrameworkSuperset(names []string) bool {
	hasStdlib, hasAssertLib := false, false
	for _, n := range names {
		lower := strings.ToLower(n)
		if lower == "testing" {
			hasStdlib = true
		}
		if strings.Contains(lower, "testify") || strings.Contains(lower, "gomega") {
			hasAssertLib = true
		}
	}
	return hasStdlib && hasAssertLib
}
