// Package workspace implements the sandboxed file primitives every tool is
// built on. All operations are confined to a single canonicalized root
// directory: paths with traversal components are rejected, symlinks are
// refused anywhere on the resolved path, reads and writes are size-capped,
// and a sliding-window rate limiter bounds operation frequency.
package workspace

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wardenlabs/warden/internal/agenterr"
)

// WriteMode selects write_file behavior.
type WriteMode string

const (
	ModeOverwrite WriteMode = "overwrite"
	ModeAppend    WriteMode = "append"
)

// LatestFilePlaceholder is resolved by the tool executor to the newest file.
const LatestFilePlaceholder = "LATEST_FILE"

// Options configures a Workspace.
type Options struct {
	MaxRead   int64 // max file size for reads; 0 → 10 MiB
	MaxWrite  int64 // max payload size for writes; 0 → 10 MiB
	RateLimit int   // ops per sliding second; 0 → 10
	Logger    *zap.Logger
}

// Workspace is a rooted, canonicalized directory with path-safe operations.
// Safe for concurrent use.
type Workspace struct {
	root     string
	maxRead  int64
	maxWrite int64
	limiter  *rateLimiter
	log      *zap.Logger
}

// skip lists directories excluded from recursive walks and trees.
func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "__pycache__"
}

// New canonicalizes root and returns a Workspace bound to it.
func New(root string, opts Options) (*Workspace, error) {
	if root == "" {
		return nil, agenterr.New(agenterr.KindWorkspace, "workspace root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, agenterr.Wrap(agenterr.KindWorkspace, "cannot resolve workspace root", err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return nil, agenterr.Newf(agenterr.KindWorkspace, "workspace root %q does not exist or is not a directory", root)
	}

	if opts.MaxRead <= 0 {
		opts.MaxRead = 10 << 20
	}
	if opts.MaxWrite <= 0 {
		opts.MaxWrite = 10 << 20
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 10
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Workspace{
		root:     abs,
		maxRead:  opts.MaxRead,
		maxWrite: opts.MaxWrite,
		limiter:  newRateLimiter(opts.RateLimit, time.Second),
		log:      opts.Logger.Named("workspace"),
	}, nil
}

// Root returns the canonicalized workspace root.
func (w *Workspace) Root() string { return w.root }

// admit charges one operation against the rate limiter.
func (w *Workspace) admit(op string) error {
	if !w.limiter.Allow() {
		w.log.Warn("rate limit exceeded", zap.String("op", op))
		return agenterr.Newf(agenterr.KindRateLimit, "rate limit exceeded: too many operations, try again shortly").
			WithSuggestions("Wait a moment before retrying", "Batch related operations into fewer calls")
	}
	return nil
}

// validateName rejects anything that is not a bare filename.
func validateName(name string) error {
	if name == "" {
		return agenterr.New(agenterr.KindInvalidArgument, "filename cannot be empty")
	}
	if name == "." || name == ".." {
		return agenterr.Newf(agenterr.KindPathTraversal, "filename %q is not allowed", name)
	}
	if strings.ContainsAny(name, `/\:`) {
		return agenterr.Newf(agenterr.KindInvalidArgument, "filename %q must not contain path separators", name).
			WithSuggestions("Pass a bare filename; directories are not addressable here")
	}
	return nil
}

// safeJoin validates a single-segment name and returns the canonical
// candidate path, guaranteed to be a descendant of root with no symlink on
// the resolved path.
func (w *Workspace) safeJoin(name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	return w.confine(filepath.Join(w.root, name))
}

// resolveRelative canonicalizes a relative path (directory components
// allowed) under root. Used by read_file_by_path.
func (w *Workspace) resolveRelative(rel string) (string, error) {
	if rel == "" {
		return "", agenterr.New(agenterr.KindInvalidArgument, "path cannot be empty")
	}
	if filepath.IsAbs(rel) {
		return "", agenterr.Newf(agenterr.KindPathTraversal, "absolute path %q is not allowed", rel)
	}
	return w.confine(filepath.Join(w.root, rel))
}

// confine canonicalizes candidate and enforces the two sandbox invariants:
// the path is a descendant of root, and no component from root downward is a
// symlink.
func (w *Workspace) confine(candidate string) (string, error) {
	clean := filepath.Clean(candidate)

	// Descendant check with separator suffix to prevent prefix collisions
	// ("/ws" vs "/ws-evil").
	if clean != w.root && !strings.HasPrefix(clean, w.root+string(os.PathSeparator)) {
		return "", agenterr.Newf(agenterr.KindPathTraversal, "path %q escapes the workspace", candidate).
			WithSuggestions("Use paths relative to the workspace root")
	}

	// Symlink denial on every component below root. Missing components are
	// fine (writes create files); existing ones must not be links.
	rel, err := filepath.Rel(w.root, clean)
	if err != nil {
		return "", agenterr.Wrap(agenterr.KindWorkspace, "cannot relativize path", err)
	}
	if rel != "." {
		cur := w.root
		for _, part := range strings.Split(rel, string(os.PathSeparator)) {
			cur = filepath.Join(cur, part)
			info, err := os.Lstat(cur)
			if err != nil {
				break // component does not exist yet
			}
			if info.Mode()&os.ModeSymlink != 0 {
				return "", agenterr.Newf(agenterr.KindSymlink, "path %q contains a symlink component", candidate).
					WithSuggestions("Symlinks are not allowed inside the workspace")
			}
		}
	}
	return clean, nil
}

// entryInfo pairs a directory entry with its modification time.
type entryInfo struct {
	name  string
	isDir bool
	size  int64
	mtime time.Time
}

// listEntries reads the root directory and returns entries sorted by
// modification time descending (newest first).
func (w *Workspace) listEntries() ([]entryInfo, error) {
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return nil, agenterr.Wrap(agenterr.KindWorkspace, "cannot read workspace directory", err)
	}
	out := make([]entryInfo, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, entryInfo{name: e.Name(), isDir: e.IsDir(), size: info.Size(), mtime: info.ModTime()})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].mtime.After(out[j].mtime)
	})
	return out, nil
}

// ListFiles returns top-level regular files, newest first.
func (w *Workspace) ListFiles() ([]string, error) {
	if err := w.admit("list_files"); err != nil {
		return nil, err
	}
	entries, err := w.listEntries()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.isDir {
			names = append(names, e.name)
		}
	}
	return names, nil
}

// ListDirectories returns top-level directories, newest first.
func (w *Workspace) ListDirectories() ([]string, error) {
	if err := w.admit("list_directories"); err != nil {
		return nil, err
	}
	entries, err := w.listEntries()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.isDir {
			names = append(names, e.name)
		}
	}
	return names, nil
}

// ListAll returns top-level files and directories, newest first, with
// directories suffixed by "/".
func (w *Workspace) ListAll() ([]string, error) {
	if err := w.admit("list_all"); err != nil {
		return nil, err
	}
	entries, err := w.listEntries()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.isDir {
			names = append(names, e.name+"/")
		} else {
			names = append(names, e.name)
		}
	}
	return names, nil
}

// ListFilesRecursive walks the workspace (excluding hidden directories and
// __pycache__) and returns relative file paths, newest first.
func (w *Workspace) ListFilesRecursive() ([]string, error) {
	if err := w.admit("list_files_recursive"); err != nil {
		return nil, err
	}
	type fileStamp struct {
		rel   string
		mtime time.Time
	}
	var files []fileStamp
	err := filepath.WalkDir(w.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
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
		files = append(files, fileStamp{rel: rel, mtime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, agenterr.Wrap(agenterr.KindWorkspace, "recursive listing failed", err)
	}
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].mtime.After(files[j].mtime)
	})
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.rel
	}
	return out, nil
}

// ReadFile reads a top-level file, enforcing the read size cap.
func (w *Workspace) ReadFile(name string) (string, error) {
	if err := w.admit("read_file"); err != nil {
		return "", err
	}
	path, err := w.safeJoin(name)
	if err != nil {
		return "", err
	}
	return w.readAt(path, name)
}

// ReadFileByPath reads a file addressed by a relative path (subdirectories
// allowed), enforcing the same sandbox and size invariants.
func (w *Workspace) ReadFileByPath(rel string) (string, error) {
	if err := w.admit("read_file_by_path"); err != nil {
		return "", err
	}
	path, err := w.resolveRelative(rel)
	if err != nil {
		return "", err
	}
	return w.readAt(path, rel)
}

func (w *Workspace) readAt(path, display string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", agenterr.Newf(agenterr.KindFileNotFound, "file %q not found", display).
			WithSuggestions("Use list_files to see available files", "Check the filename spelling")
	}
	if info.IsDir() {
		return "", agenterr.Newf(agenterr.KindInvalidArgument, "%q is a directory, not a file", display).
			WithSuggestions("Use list_directories or list_tree for directories")
	}
	if info.Size() > w.maxRead {
		return "", agenterr.Newf(agenterr.KindSizeLimitExceeded, "file %q is %d bytes, read limit is %d", display, info.Size(), w.maxRead).
			WithContext("size", strconv.FormatInt(info.Size(), 10)).
			WithContext("limit", strconv.FormatInt(w.maxRead, 10))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", agenterr.Wrap(agenterr.KindWorkspace, "read failed", err)
	}
	w.log.Debug("read file", zap.String("name", display), zap.Int("bytes", len(data)))
	return string(data), nil
}

// WriteFile writes UTF-8 content to a top-level file. Overwrite mode is
// create-or-replace via temp file + rename, so no partial write is ever
// visible. Append mode concatenates.
func (w *Workspace) WriteFile(name, content string, mode WriteMode) error {
	if err := w.admit("write_file"); err != nil {
		return err
	}
	if mode != ModeOverwrite && mode != ModeAppend {
		return agenterr.Newf(agenterr.KindInvalidMode, "invalid write mode %q", string(mode)).
			WithSuggestions(`Use "overwrite" or "append"`)
	}
	if int64(len(content)) > w.maxWrite {
		return agenterr.Newf(agenterr.KindSizeLimitExceeded, "payload is %d bytes, write limit is %d", len(content), w.maxWrite).
			WithContext("size", strconv.FormatInt(int64(len(content)), 10)).
			WithContext("limit", strconv.FormatInt(w.maxWrite, 10))
	}
	path, err := w.safeJoin(name)
	if err != nil {
		return err
	}

	if mode == ModeAppend {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return agenterr.Wrap(agenterr.KindWorkspace, "append failed", err)
		}
		defer f.Close()
		if _, err := f.WriteString(content); err != nil {
			return agenterr.Wrap(agenterr.KindWorkspace, "append failed", err)
		}
		w.log.Debug("appended file", zap.String("name", name), zap.Int("bytes", len(content)))
		return nil
	}

	tmp, err := os.CreateTemp(w.root, ".warden-write-*")
	if err != nil {
		return agenterr.Wrap(agenterr.KindWorkspace, "write failed", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return agenterr.Wrap(agenterr.KindWorkspace, "write failed", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return agenterr.Wrap(agenterr.KindWorkspace, "write failed", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return agenterr.Wrap(agenterr.KindWorkspace, "write failed", err)
	}
	w.log.Debug("wrote file", zap.String("name", name), zap.Int("bytes", len(content)))
	return nil
}

// DeleteFile removes a top-level file.
func (w *Workspace) DeleteFile(name string) error {
	if err := w.admit("delete_file"); err != nil {
		return err
	}
	path, err := w.safeJoin(name)
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return agenterr.Newf(agenterr.KindFileNotFound, "file %q not found", name).
			WithSuggestions("Use list_files to see available files")
	}
	if info.IsDir() {
		return agenterr.Newf(agenterr.KindInvalidArgument, "%q is a directory; directory deletion is not supported", name)
	}
	if err := os.Remove(path); err != nil {
		return agenterr.Wrap(agenterr.KindWorkspace, "delete failed", err)
	}
	w.log.Info("deleted file", zap.String("name", name))
	return nil
}

// Exists reports whether a top-level file exists. Not rate-limited: it is a
// cheap internal predicate, not a surfaced operation.
func (w *Workspace) Exists(name string) bool {
	path, err := w.safeJoin(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// FindFileByName searches the workspace recursively for files whose name
// matches exactly, returning relative paths.
func (w *Workspace) FindFileByName(name string) ([]string, error) {
	if err := w.admit("find_file_by_name"); err != nil {
		return nil, err
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	var matches []string
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
		if d.Name() == name {
			if rel, err := filepath.Rel(w.root, path); err == nil {
				matches = append(matches, rel)
			}
		}
		return nil
	})
	return matches, nil
}

// FindLargestFile returns the name and size of the largest top-level file.
func (w *Workspace) FindLargestFile() (string, int64, error) {
	if err := w.admit("find_largest_file"); err != nil {
		return "", 0, err
	}
	entries, err := w.listEntries()
	if err != nil {
		return "", 0, err
	}
	var best string
	var bestSize int64 = -1
	for _, e := range entries {
		if e.isDir {
			continue
		}
		if e.size > bestSize {
			best, bestSize = e.name, e.size
		}
	}
	if best == "" {
		return "", 0, agenterr.New(agenterr.KindFileNotFound, "workspace contains no files")
	}
	return best, bestSize, nil
}
