package workspace

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wardenlabs/warden/internal/agenterr"
)

// ListTree renders the workspace as an ASCII tree. Children are sorted
// directories first, then files, alphabetically within each group. Hidden
// directories and __pycache__ are excluded.
func (w *Workspace) ListTree() (string, error) {
	if err := w.admit("list_tree"); err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString(filepath.Base(w.root) + "/\n")
	if err := w.renderTree(&sb, w.root, ""); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (w *Workspace) renderTree(sb *strings.Builder, dir, prefix string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return agenterr.Wrap(agenterr.KindWorkspace, "cannot read directory", err)
	}

	kept := entries[:0]
	for _, e := range entries {
		if e.IsDir() && skipDir(e.Name()) {
			continue
		}
		kept = append(kept, e)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].IsDir() != kept[j].IsDir() {
			return kept[i].IsDir()
		}
		return kept[i].Name() < kept[j].Name()
	})

	for i, e := range kept {
		connector := "├── "
		childPrefix := prefix + "│   "
		if i == len(kept)-1 {
			connector = "└── "
			childPrefix = prefix + "    "
		}
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		sb.WriteString(prefix + connector + name + "\n")
		if e.IsDir() {
			if err := w.renderTree(sb, filepath.Join(dir, e.Name()), childPrefix); err != nil {
				return err
			}
		}
	}
	return nil
}
