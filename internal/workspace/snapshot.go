package workspace

import (
	"os"
	"path/filepath"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/wardenlabs/warden/internal/agenterr"
)

// FileSnapshot is one file captured for analysis: relative path plus content,
// possibly truncated.
type FileSnapshot struct {
	Path      string
	Content   string
	Truncated bool
}

// SnapshotFiles walks the workspace (same exclusions as ListFilesRecursive)
// and returns up to maxFiles files, newest first, each truncated to maxChars
// characters. Counts as a single operation against the rate limiter: the
// analysis tool consumes it as one logical read.
func (w *Workspace) SnapshotFiles(maxFiles, maxChars int) ([]FileSnapshot, error) {
	if err := w.admit("snapshot_files"); err != nil {
		return nil, err
	}
	if maxFiles <= 0 {
		maxFiles = 10
	}
	if maxChars <= 0 {
		maxChars = 2048
	}

	type candidate struct {
		rel   string
		abs   string
		mtime time.Time
	}
	var files []candidate
	filepath.WalkDir(w.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != w.root && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(w.root, path)
		if err != nil {
			return nil
		}
		files = append(files, candidate{rel: rel, abs: path, mtime: info.ModTime()})
		return nil
	})
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].mtime.After(files[j].mtime)
	})
	if len(files) > maxFiles {
		files = files[:maxFiles]
	}

	snaps := make([]FileSnapshot, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f.abs)
		if err != nil {
			continue
		}
		content := string(data)
		truncated := false
		if len(content) > maxChars {
			// Back off to a rune boundary so the cut never produces
			// invalid UTF-8.
			cut := maxChars
			for cut > 0 && !utf8.RuneStart(content[cut]) {
				cut--
			}
			content = content[:cut]
			truncated = true
		}
		snaps = append(snaps, FileSnapshot{Path: f.rel, Content: content, Truncated: truncated})
	}
	if len(snaps) == 0 {
		return nil, agenterr.New(agenterr.KindFileNotFound, "workspace contains no readable files")
	}
	return snaps, nil
}
