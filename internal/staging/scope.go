package staging

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"stickerbot/internal/logging"
)

// ScopePrefix marks directories created by NewScope.
const ScopePrefix = "job-"

var (
	removePath = os.Remove
	removeAll  = os.RemoveAll
)

// Scope tracks temporary files created for a single job.
type Scope struct {
	dir    string
	logger *slog.Logger

	mu     sync.Mutex
	paths  []string
	closed bool
}

// NewScope creates <root>/job-<id> and returns a scope rooted there.
func NewScope(root, id string, logger *slog.Logger) (*Scope, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("staging: empty work dir")
	}
	id = strings.TrimSpace(id)
	if id == "" || strings.ContainsAny(id, `/\`) {
		return nil, fmt.Errorf("staging: invalid scope id %q", id)
	}
	dir := filepath.Join(root, ScopePrefix+id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("staging: create scope dir: %w", err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scope{dir: dir, logger: logger}, nil
}

// Dir returns the scope directory.
func (s *Scope) Dir() string { return s.dir }

// Path registers and returns a file path inside the scope. The file itself is
// not created.
func (s *Scope) Path(name string) string {
	path := filepath.Join(s.dir, filepath.Base(name))
	s.mu.Lock()
	s.paths = append(s.paths, path)
	s.mu.Unlock()
	return path
}

// Paths returns the registered paths in acquisition order.
func (s *Scope) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.paths...)
}

// Close removes every registered path and the scope directory. Failures are
// logged and never returned. Close is idempotent.
func (s *Scope) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	paths := append([]string(nil), s.paths...)
	s.mu.Unlock()

	for _, path := range paths {
		if err := removePath(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.warn(path, err)
		}
	}
	if err := removeAll(s.dir); err != nil {
		s.warn(s.dir, err)
	}
}

func (s *Scope) warn(path string, err error) {
	logging.WarnWithContext(s.logger, "temp file cleanup failed", "staging_cleanup_failed",
		logging.String("path", path),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check work_dir permissions"),
		logging.String(logging.FieldImpact, "disk space not reclaimed until next start"),
	)
}
