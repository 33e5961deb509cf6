package pattern

import "sort"

// GoldenFile is a file singled out as an unusually strong example of the
// codebase's conventions: it hosts canonical examples for several
// categories at once and sits in a core/shared location.
type GoldenFile struct {
	FilePath string
	Score    int
	Reasons  []string
}

// GoldenFiles ranks files by how many categories they hold the canonical
// example for, weighting core/shared directories more heavily, and
// returns the top n.
func (d *Detector) GoldenFiles(n int) []GoldenFile {
	scores := make(map[string]*GoldenFile)

	for _, cat := range d.categories {
		for _, ns := range cat.Names {
			if ns.CanonicalFile == "" || cat.Consensus == nil || cat.Consensus.Primary == nil || cat.Consensus.Primary.Name != ns.Name {
				continue
			}
			gf, ok := scores[ns.CanonicalFile]
			if !ok {
				gf = &GoldenFile{FilePath: ns.CanonicalFile}
				scores[ns.CanonicalFile] = gf
			}
			weight := 1
			for _, occ := range ns.Occurrences {
				if occ.FilePath == ns.CanonicalFile && occ.InCoreDir {
					weight = 2
					break
				}
			}
			gf.Score += weight
			gf.Reasons = append(gf.Reasons, "canonical example of "+string(cat.Category)+":"+ns.Name)
		}
	}

	out := make([]GoldenFile, 0, len(scores))
	for _, gf := range scores {
		out = append(out, *gf)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].FilePath < out[j].FilePath
	})

	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
