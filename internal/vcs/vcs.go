// Package vcs extracts per-file last-modified timestamps from git history,
// so the pattern detector's trend analysis reflects real commit recency
// instead of chunk re-processing time.
package vcs

import (
	"bufio"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// History maps repository-relative file paths to the commit time of the
// most recent change touching that file.
type History struct {
	lastModified map[string]time.Time

	// For testing: override command execution.
	execCommand func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// Available reports whether root looks like a git working tree.
func Available(root string) bool {
	_, err := os.Stat(filepath.Join(root, ".git"))
	return err == nil
}

// Load walks `git log --name-only` once and records, for each path, the
// commit time of its first (i.e. most recent) appearance. If root isn't a
// git repository, or git isn't on PATH, it returns an empty History rather
// than an error: callers fall back to filesystem mtime per-file.
func Load(ctx context.Context, root string) (*History, error) {
	h := &History{
		lastModified: map[string]time.Time{},
		execCommand:  exec.CommandContext,
	}
	if !Available(root) {
		return h, nil
	}

	cmd := h.execCommand(ctx, "git", "log", "--name-only", "--format=commit:%cI")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return h, nil
	}

	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var current time.Time
	for scanner.Scan() {
		line := scanner.Text()
		if ts, ok := strings.CutPrefix(line, "commit:"); ok {
			if t, err := time.Parse(time.RFC3339, ts); err == nil {
				current = t
			}
			continue
		}
		path := strings.TrimSpace(line)
		if path == "" {
			continue
		}
		if _, seen := h.lastModified[path]; !seen {
			h.lastModified[path] = current
		}
	}

	return h, nil
}

// ModTime returns the most recent commit time for path. If git has no
// record of the file (untracked, or History is empty), it falls back to
// the file's mtime on disk; if that also fails, it returns the zero time.
func (h *History) ModTime(root, path string) time.Time {
	if h != nil {
		if t, ok := h.lastModified[path]; ok {
			return t
		}
	}
	if info, err := os.Stat(filepath.Join(root, path)); err == nil {
		return info.ModTime()
	}
	return time.Time{}
}
