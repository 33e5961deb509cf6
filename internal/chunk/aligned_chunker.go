package chunk

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// chunkAligned implements the AST-aligned chunking algorithm: build the
// symbol containment tree, emit one chunk per top-level unit (splitting at
// child-symbol boundaries when a unit exceeds MaxLines), emit filler chunks
// for the package-level code between units, then merge anything left under
// MinLines into its nearest neighbor.
func (c *CodeChunker) chunkAligned(symbolNodes []*symbolNodeInfo, tree *Tree, file *FileInput, fileContext string) ([]*Chunk, error) {
	roots := buildContainmentTree(symbolNodes)
	now := time.Now()

	var chunks []*Chunk
	var prevEnd uint32

	for i, root := range roots {
		// Filler/header chunk for the gap before this root.
		if filler := c.fillerChunk(tree.Source, prevEnd, root.info.node.StartByte, file, fileContext, now, i == 0); filler != nil {
			chunks = append(chunks, filler)
		}

		chunks = append(chunks, c.chunksForUnit(root, nil, tree, file, fileContext, now)...)
		prevEnd = root.info.node.EndByte
	}

	// Footer chunk for whatever trails the last root.
	if footer := c.fillerChunk(tree.Source, prevEnd, uint32(len(tree.Source)), file, fileContext, now, false); footer != nil {
		chunks = append(chunks, footer)
	}

	return mergeUndersized(chunks, c.options.MinLines), nil
}

// fillerChunk turns the gap [start,end) into a chunk when it holds more than
// two non-blank lines (package-level vars, consts, or a substantial doc
// block between declarations); isHeader marks the leading gap of the file.
func (c *CodeChunker) fillerChunk(source []byte, start, end uint32, file *FileInput, fileContext string, now time.Time, isHeader bool) *Chunk {
	if end <= start {
		return nil
	}
	raw := string(source[start:end])
	if nonBlankLineCount(raw) <= 2 {
		return nil
	}

	startLine := 1 + strings.Count(string(source[:start]), "\n")
	endLine := startLine + strings.Count(raw, "\n")

	strategy := "filler"
	if isHeader {
		strategy = "header"
	} else if end == uint32(len(source)) {
		strategy = "footer"
	}

	return &Chunk{
		ID:          generateChunkID(file.Path, raw),
		FilePath:    file.Path,
		Content:     combineContextAndContent(fileContext, raw),
		RawContent:  raw,
		Context:     fileContext,
		ContentType: ContentTypeCode,
		Language:    file.Language,
		StartLine:   startLine,
		EndLine:     endLine,
		Metadata:    map[string]string{"chunkStrategy": strategy},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// chunksForUnit turns one containment-tree node into one or more chunks. If
// the node's raw content fits within MaxLines it becomes a single chunk;
// otherwise it is split at its children's boundaries (recursing into them),
// with each fragment carrying a scope-prefix comment describing its place
// in the containment tree and fragment numbering for traceability.
func (c *CodeChunker) chunksForUnit(n *symbolTreeNode, scopePath []string, tree *Tree, file *FileInput, fileContext string, now time.Time) []*Chunk {
	node := n.info.node
	raw := string(tree.Source[node.StartByte:node.EndByte])
	path := append(append([]string(nil), scopePath...), n.info.symbol.Name)

	if lineCount(raw) <= c.options.MaxLines {
		chunk := c.unitChunk(n, path, tree.Source, file, fileContext, now, "")
		return []*Chunk{chunk}
	}

	// A leaf symbol (no nested children to split at) that still exceeds
	// MaxLines must be hard-split rather than emitted oversized.
	if len(n.children) == 0 {
		return c.splitOversizedUnit(n, path, tree.Source, file, fileContext, now)
	}

	// Split at child boundaries: the node's own header (signature, fields
	// not covered by a child) plus one chunk per child subtree.
	var out []*Chunk
	fragment := 1

	if lead := string(tree.Source[node.StartByte:n.children[0].info.node.StartByte]); nonBlankLineCount(lead) > 2 {
		out = append(out, c.fragmentChunk(n, path, lead, node.StartByte, file, fileContext, now, fragment))
		fragment++
	}

	for idx, child := range n.children {
		childChunks := c.chunksForUnit(child, path, tree, file, fileContext, now)
		out = append(out, childChunks...)

		var gapEnd uint32
		if idx+1 < len(n.children) {
			gapEnd = n.children[idx+1].info.node.StartByte
		} else {
			gapEnd = node.EndByte
		}
		if gap := string(tree.Source[child.info.node.EndByte:gapEnd]); nonBlankLineCount(gap) > 2 {
			out = append(out, c.fragmentChunk(n, path, gap, child.info.node.EndByte, file, fileContext, now, fragment))
			fragment++
		}
	}

	return out
}

// unitChunk builds the chunk for a containment-tree node that fits within
// MaxLines as-is, prefixing a scope comment when it is nested.
func (c *CodeChunker) unitChunk(n *symbolTreeNode, path []string, source []byte, file *FileInput, fileContext string, now time.Time, suffix string) *Chunk {
	node := n.info.node
	raw := string(source[node.StartByte:node.EndByte])

	docComment := n.info.symbol.DocComment
	if docComment != "" {
		raw = c.getRawContentWithDocComment(node, source, docComment)
	}

	content := raw
	if len(path) > 1 {
		content = scopePrefixComment(path[:len(path)-1], file.Language) + "\n" + raw
	}

	startLine := int(node.StartPoint.Row) + 1
	endLine := int(node.EndPoint.Row) + 1

	meta := map[string]string{
		"chunkStrategy": "component",
		"symbolPath":    strings.Join(path, "."),
	}
	if len(path) > 1 {
		meta["parentSymbol"] = path[len(path)-2]
	}
	meta["componentName"] = path[len(path)-1]

	id := n.info.symbol.Name + suffix
	return &Chunk{
		ID:          generateChunkID(file.Path, file.Path+":"+id+":"+raw),
		FilePath:    file.Path,
		Content:     combineContextAndContent(fileContext, content),
		RawContent:  raw,
		Context:     fileContext,
		ContentType: ContentTypeCode,
		Language:    file.Language,
		StartLine:   startLine,
		EndLine:     endLine,
		Symbols:     []*Symbol{n.info.symbol},
		Metadata:    meta,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// splitOversizedUnit hard-splits a leaf unit (no child symbols) that exceeds
// MaxLines into bounded fragments, recursing until every piece fits, and
// renumbers them name:1, name:2, ... in source order.
func (c *CodeChunker) splitOversizedUnit(n *symbolTreeNode, path []string, source []byte, file *FileInput, fileContext string, now time.Time) []*Chunk {
	node := n.info.node
	raw := string(source[node.StartByte:node.EndByte])
	startLine := int(node.StartPoint.Row) + 1

	fragments := splitLinesBounded(raw, c.options.MaxLines)

	out := make([]*Chunk, 0, len(fragments))
	lineOffset := 0
	for idx, frag := range fragments {
		fragStartLine := startLine + lineOffset
		fragEndLine := fragStartLine + strings.Count(frag, "\n")
		lineOffset += strings.Count(frag, "\n") + 1

		name := fmt.Sprintf("%s:%d", n.info.symbol.Name, idx+1)
		content := scopePrefixComment(path, file.Language) + "\n" + frag

		meta := map[string]string{
			"chunkStrategy": "line-or-component",
			"symbolPath":    strings.Join(path, "."),
			"fragment":      strconv.Itoa(idx + 1),
			"componentName": name,
		}
		if len(path) > 1 {
			meta["parentSymbol"] = path[len(path)-2]
		}

		out = append(out, &Chunk{
			ID:          generateChunkID(file.Path, file.Path+":"+name+":"+frag),
			FilePath:    file.Path,
			Content:     combineContextAndContent(fileContext, content),
			RawContent:  frag,
			Context:     fileContext,
			ContentType: ContentTypeCode,
			Language:    file.Language,
			StartLine:   fragStartLine,
			EndLine:     fragEndLine,
			Symbols:     []*Symbol{n.info.symbol},
			Metadata:    meta,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	return out
}

// splitLinesBounded splits content into line-bounded fragments no larger
// than maxLines, preferring a blank-line boundary near the midpoint and
// falling back to a hard split at the midpoint when no nearby blank line
// exists. Recurses until every fragment is within bounds.
func splitLinesBounded(content string, maxLines int) []string {
	lines := strings.Split(content, "\n")
	if len(lines) <= maxLines {
		return []string{content}
	}

	mid := len(lines) / 2
	splitAt := nearestBlankLine(lines, mid)
	if splitAt <= 0 || splitAt >= len(lines) {
		splitAt = mid
	}

	first := strings.Join(lines[:splitAt], "\n")
	second := strings.Join(lines[splitAt:], "\n")

	out := splitLinesBounded(first, maxLines)
	return append(out, splitLinesBounded(second, maxLines)...)
}

// nearestBlankLine searches outward from mid for a blank line within a small
// window, so a hard split doesn't land in the middle of a statement when a
// natural gap is nearby. Falls back to mid itself when none is found.
func nearestBlankLine(lines []string, mid int) int {
	const window = 10
	for offset := 0; offset <= window; offset++ {
		for _, idx := range [2]int{mid + offset, mid - offset} {
			if idx <= 0 || idx >= len(lines) {
				continue
			}
			if strings.TrimSpace(lines[idx]) == "" {
				return idx
			}
		}
	}
	return mid
}

// fragmentChunk builds a chunk for a byte range that belongs to a unit but
// isn't covered by one of its children (the unit's own header/trailer code
// when the unit had to be split).
func (c *CodeChunker) fragmentChunk(n *symbolTreeNode, path []string, raw string, startByte uint32, file *FileInput, fileContext string, now time.Time, fragment int) *Chunk {
	startLine := 1 + countNewlinesBefore(file.Content, startByte)
	endLine := startLine + strings.Count(raw, "\n")

	content := scopePrefixComment(path, file.Language) + "\n" + raw
	meta := map[string]string{
		"chunkStrategy": "split-fragment",
		"symbolPath":    strings.Join(path, "."),
		"fragment":      strconv.Itoa(fragment),
	}

	return &Chunk{
		ID:          generateChunkID(file.Path, fmt.Sprintf("%s:%d:%s", file.Path, fragment, raw)),
		FilePath:    file.Path,
		Content:     combineContextAndContent(fileContext, content),
		RawContent:  raw,
		Context:     fileContext,
		ContentType: ContentTypeCode,
		Language:    file.Language,
		StartLine:   startLine,
		EndLine:     endLine,
		Metadata:    meta,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// scopePrefixComment renders the containment chain as a language-appropriate
// comment so a reader of an isolated chunk knows where it lives, e.g.
// "// Inside Server.Router" for Go or "# Inside Server.Router" for Python.
func scopePrefixComment(path []string, language string) string {
	marker := "//"
	if language == "python" {
		marker = "#"
	}
	return fmt.Sprintf("%s Inside %s", marker, strings.Join(path, "."))
}

func countNewlinesBefore(source []byte, pos uint32) int {
	return strings.Count(string(source[:pos]), "\n")
}

func nonBlankLineCount(s string) int {
	count := 0
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	return count
}

func lineCount(s string) int {
	return strings.Count(s, "\n") + 1
}

// mergeUndersized folds any chunk under minLines into the following chunk
// (or, if it's the last one, the preceding chunk), preserving source order.
// Filler/header/footer chunks are the common case for this since they hold
// whatever non-declaration code is left between symbols.
func mergeUndersized(chunks []*Chunk, minLines int) []*Chunk {
	if len(chunks) < 2 {
		return chunks
	}

	merged := make([]*Chunk, 0, len(chunks))
	for i := 0; i < len(chunks); i++ {
		cur := chunks[i]
		size := cur.EndLine - cur.StartLine + 1
		if size >= minLines || len(merged) == 0 {
			merged = append(merged, cur)
			continue
		}
		prev := merged[len(merged)-1]
		merged[len(merged)-1] = mergeChunks(prev, cur)
	}

	// A final undersized chunk merges backward into its predecessor.
	if len(merged) >= 2 {
		last := merged[len(merged)-1]
		if last.EndLine-last.StartLine+1 < minLines {
			merged[len(merged)-2] = mergeChunks(merged[len(merged)-2], last)
			merged = merged[:len(merged)-1]
		}
	}

	return merged
}

func mergeChunks(a, b *Chunk) *Chunk {
	merged := *a
	merged.RawContent = a.RawContent + "\n" + b.RawContent
	merged.Content = a.Content + "\n" + b.RawContent
	merged.EndLine = b.EndLine
	merged.Symbols = append(append([]*Symbol(nil), a.Symbols...), b.Symbols...)
	merged.ID = generateChunkID(a.FilePath, merged.RawContent)
	if merged.Metadata == nil {
		merged.Metadata = map[string]string{}
	}
	merged.Metadata["chunkStrategy"] = "merged"
	return &merged
}
