package datastore

import (
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/aleister1102/mirrorinc/internal/common"
)

// ConfirmFunc asks whether a non-empty output directory may be cleared.
type ConfirmFunc func(dir string) bool

// OutputTree owns the output directory of one run. Every local path may be
// written exactly once.
type OutputTree struct {
	root        string
	fileManager *common.FileManager
	logger      zerolog.Logger

	mu      sync.Mutex
	written map[string]int64
}

// NewOutputTree creates a tree rooted at root. Nothing is touched on disk until Prepare or Write.
func NewOutputTree(root string, logger zerolog.Logger) *OutputTree {
	return &OutputTree{
		root:        filepath.Clean(root),
		fileManager: common.NewFileManager(logger),
		logger:      logger.With().Str("component", "OutputTree").Str("root", root).Logger(),
		written:     make(map[string]int64),
	}
}

// Root returns the output directory.
func (t *OutputTree) Root() string {
	return t.root
}

// Prepare creates the output directory. An existing non-empty directory is
// cleared only when force is set or confirm approves it.
func (t *OutputTree) Prepare(force bool, confirm ConfirmFunc) error {
	if t.fileManager.FileExists(t.root) {
		empty, err := t.fileManager.IsDirEmpty(t.root)
		if err != nil {
			return err
		}
		if !empty {
			if !force && (confirm == nil || !confirm(t.root)) {
				return common.NewValidationError("output_dir", t.root, "directory exists and is not empty; use --force to overwrite")
			}
			t.logger.Warn().Msg("Clearing existing output directory")
			if err := t.fileManager.RemoveContents(t.root); err != nil {
				return err
			}
		}
	}
	return t.fileManager.EnsureDirectory(t.root, 0755)
}

// CleanLocalPath validates a slash-separated path relative to the root.
func CleanLocalPath(localPath string) (string, error) {
	if localPath == "" {
		return "", common.NewValidationError("local_path", localPath, "path is empty")
	}
	if strings.HasPrefix(localPath, "/") || filepath.IsAbs(localPath) {
		return "", common.NewValidationError("local_path", localPath, "path must be relative")
	}
	cleaned := path.Clean(localPath)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", common.NewValidationError("local_path", localPath, "path escapes the output directory")
	}
	return cleaned, nil
}

// Write stores data at localPath. A second write to the same path within the
// run fails with common.ErrAlreadyWritten; paths differing only in case count
// as the same path.
func (t *OutputTree) Write(localPath string, data []byte) error {
	cleaned, err := CleanLocalPath(localPath)
	if err != nil {
		return err
	}
	key := strings.ToLower(cleaned)

	t.mu.Lock()
	if _, exists := t.written[key]; exists {
		t.mu.Unlock()
		return common.WrapErrorf(common.ErrAlreadyWritten, "write %s", cleaned)
	}
	t.written[key] = int64(len(data))
	t.mu.Unlock()

	target := filepath.Join(t.root, filepath.FromSlash(cleaned))
	if err := t.fileManager.WriteFile(target, data, common.DefaultFileWriteOptions()); err != nil {
		t.mu.Lock()
		delete(t.written, key)
		t.mu.Unlock()
		return err
	}
	return nil
}

// Abs returns the filesystem path of a local path.
func (t *OutputTree) Abs(localPath string) string {
	return filepath.Join(t.root, filepath.FromSlash(localPath))
}

// Written returns the written local paths (lowercased), sorted.
func (t *OutputTree) Written() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	paths := make([]string, 0, len(t.written))
	for p := range t.written {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// BytesWritten returns the total bytes written through the tree.
func (t *OutputTree) BytesWritten() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	var total int64
	for _, n := range t.written {
		total += n
	}
	return total
}

// ReadFile reads back a file from the tree.
func (t *OutputTree) ReadFile(localPath string) ([]byte, error) {
	data, err := os.ReadFile(t.Abs(localPath))
	if err != nil {
		return nil, common.NewFilesystemError("read", localPath, err)
	}
	return data, nil
}
