package graph

import "sort"

// Cycle is one import cycle, listed starting from its lexicographically
// smallest member so that the same cycle found from different starting
// points (A->B->C->A vs B->C->A->B) de-duplicates to one entry.
type Cycle struct {
	Files []string
}

// FindCycles runs DFS with an explicit recursion stack over every file,
// collecting any cycle it walks into, then canonicalizes each cycle by
// rotating it to start at its smallest element and de-duplicates.
func (g *InternalFileGraph) FindCycles() []Cycle {
	color := make(map[string]int) // 0=white 1=gray 2=black
	var stack []string
	seen := make(map[string]bool)
	var cycles []Cycle

	var visit func(file string)
	visit = func(file string) {
		color[file] = 1
		stack = append(stack, file)

		for _, imp := range g.Edges[file] {
			switch color[imp.ToFile] {
			case 0:
				visit(imp.ToFile)
			case 1:
				cyc := extractCycle(stack, imp.ToFile)
				key := canonicalKey(cyc)
				if !seen[key] {
					seen[key] = true
					cycles = append(cycles, Cycle{Files: cyc})
				}
			}
		}

		stack = stack[:len(stack)-1]
		color[file] = 2
	}

	files := make([]string, 0, len(g.Files))
	for f := range g.Files {
		files = append(files, f)
	}
	sort.Strings(files)

	for _, f := range files {
		if color[f] == 0 {
			visit(f)
		}
	}

	return cycles
}

// extractCycle slices the recursion stack from the first occurrence of
// target to the top, which is exactly the cycle just closed.
func extractCycle(stack []string, target string) []string {
	for i, f := range stack {
		if f == target {
			cyc := append([]string(nil), stack[i:]...)
			return cyc
		}
	}
	return nil
}

// canonicalKey rotates a cycle to start at its smallest element (a cycle
// has no fixed starting point) so that repeated discovery of the same
// cycle from different entry files collapses to one key.
func canonicalKey(cycle []string) string {
	if len(cycle) == 0 {
		return ""
	}
	minIdx := 0
	for i, f := range cycle {
		if f < cycle[minIdx] {
			minIdx = i
		}
	}
	rotated := append(append([]string(nil), cycle[minIdx:]...), cycle[:minIdx]...)
	key := ""
	for _, f := range rotated {
		key += f + "->"
	}
	return key
}
