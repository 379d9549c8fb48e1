// Package fs stores each key as one file in a directory, optionally versioned
// with git.
package fs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/akavel/dodo/pkg/core"
	"github.com/akavel/dodo/pkg/git"
)

const (
	// DefaultSystemDir holds lock files and is ignored by git.
	DefaultSystemDir = ".dodo"
	// DefaultExt is the extension appended to keys.
	DefaultExt = ".json"

	lockRetryDelay = 10 * time.Millisecond
	gitLockName    = "git-index.flock" // never collides with "<key>.lock"
)

// ErrReadOnly is returned by writes to a read-only store.
var ErrReadOnly = errors.New("store is in read-only mode")

// Config holds the configuration for the filesystem store.
type Config struct {
	Path      string
	AutoInit  bool // git init when versioning and no repository exists
	MustExist bool
	// Versioning commits every write to a git repository rooted at Path.
	Versioning bool
	ReadOnly   bool
	Logger     *slog.Logger
	SystemDir  string // e.g. ".dodo"
	Ext        string // e.g. ".json"; should match the bridge codec
	// ErrorHandler receives errors from the Watch loop.
	ErrorHandler func(error)
}

// Store implements core.Store on the filesystem.
type Store struct {
	Path   string
	git    *git.Client
	config Config

	mu            sync.RWMutex
	watcherActive bool
	lastWrite     *time.Time
}

// NewStore creates a new filesystem-backed store.
func NewStore(config Config) *Store {
	if config.SystemDir == "" {
		config.SystemDir = DefaultSystemDir
	}
	if config.Ext == "" {
		config.Ext = DefaultExt
	}
	if !strings.HasPrefix(config.Ext, ".") {
		config.Ext = "." + config.Ext
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		Path:   config.Path,
		git:    git.NewClient(config.Path, config.Logger),
		config: config,
	}
}

// Initialize prepares the directory and, with versioning, the git repository.
func (s *Store) Initialize(ctx context.Context) error {
	if s.config.ReadOnly || s.config.MustExist {
		info, err := os.Stat(s.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("store path does not exist: %s", s.Path)
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("store path is not a directory: %s", s.Path)
		}
	} else {
		if err := os.MkdirAll(s.Path, 0755); err != nil {
			return fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	if s.config.ReadOnly {
		return nil
	}

	if err := os.MkdirAll(filepath.Join(s.Path, s.config.SystemDir), 0755); err != nil {
		return fmt.Errorf("failed to create system directory: %w", err)
	}

	if !s.config.Versioning {
		return nil
	}

	if !git.IsInstalled() {
		return fmt.Errorf("git is not installed")
	}

	wasNewRepo := false
	if !s.git.IsRepo() {
		if !s.config.AutoInit {
			return fmt.Errorf("path is not a git repository: %s", s.Path)
		}
		if err := s.git.Init(ctx); err != nil {
			return fmt.Errorf("failed to git init: %w", err)
		}
		wasNewRepo = true
	}

	mod, err := s.ensureIgnore()
	if err != nil {
		return fmt.Errorf("failed to ensure .gitignore: %w", err)
	}

	if mod && wasNewRepo {
		if err := s.git.Add(ctx, ".gitignore"); err != nil {
			return fmt.Errorf("failed to add .gitignore: %w", err)
		}
		if err := s.git.Commit(ctx, git.FormatCommitMessage(git.CommitTypeChore, "", "configure "+s.config.SystemDir+" ignore", "")); err != nil {
			return fmt.Errorf("failed to commit .gitignore: %w", err)
		}
	}
	return nil
}

func (s *Store) ensureIgnore() (bool, error) {
	ignorePath := filepath.Join(s.Path, ".gitignore")
	ignoreEntry := s.config.SystemDir + "/"

	content, err := os.ReadFile(ignorePath)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}

	for _, line := range strings.Split(string(content), "\n") {
		if strings.TrimSpace(line) == ignoreEntry {
			return false, nil
		}
	}

	f, err := os.OpenFile(ignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		if _, err := f.WriteString("\n"); err != nil {
			return false, err
		}
	}
	if _, err := f.WriteString(ignoreEntry + "\n"); err != nil {
		return false, err
	}
	return true, nil
}

// SetItem writes value to the key's file atomically.
//
// Workflow:
//  1. Validate the key and take the key's file lock.
//  2. Write to a temp file and rename it over the target.
//  3. (If versioning) 'git add' and 'git commit' when the file changed.
func (s *Store) SetItem(ctx context.Context, key string, value []byte) error {
	if s.config.ReadOnly {
		return ErrReadOnly
	}
	filename, err := s.filename(key)
	if err != nil {
		return err
	}

	unlock, err := s.lock(ctx, key, false)
	if err != nil {
		return err
	}
	defer unlock()
	core.Entered(ctx)

	if err := writeFileAtomic(filepath.Join(s.Path, filename), value, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	s.recordWrite()

	if !s.config.Versioning {
		return nil
	}

	// The git index is shared by every key of the repository.
	unlockGit, err := s.lockFile(ctx, gitLockName, false)
	if err != nil {
		return err
	}
	defer unlockGit()

	status, err := s.git.Status(ctx, filename)
	if err != nil {
		return fmt.Errorf("failed to git status: %w", err)
	}
	if status == "" {
		return nil
	}
	if err := s.git.Add(ctx, filename); err != nil {
		return fmt.Errorf("failed to git add: %w", err)
	}

	msg := git.FormatCommitMessage(git.CommitTypeChore, "state", "save "+key, "")
	if val, ok := ctx.Value(ChangeReasonKey).(string); ok && val != "" {
		msg = git.AppendFooter(val)
	}
	if err := s.git.Commit(ctx, msg); err != nil {
		return fmt.Errorf("failed to git commit: %w", err)
	}
	return nil
}

// GetItem reads the key's file, returning (nil, nil) if it does not exist.
func (s *Store) GetItem(ctx context.Context, key string) ([]byte, error) {
	filename, err := s.filename(key)
	if err != nil {
		return nil, err
	}

	if !s.config.ReadOnly {
		unlock, err := s.lock(ctx, key, true)
		if err != nil {
			return nil, err
		}
		defer unlock()
	}
	core.Entered(ctx)

	data, err := os.ReadFile(filepath.Join(s.Path, filename))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

type contextKey string

// ChangeReasonKey is the context key carrying the commit message of a
// versioned SetItem.
const ChangeReasonKey contextKey = "change_reason"

func (s *Store) filename(key string) (string, error) {
	if key == "" || key == "." || key == ".." {
		return "", fmt.Errorf("invalid key %q", key)
	}
	if strings.ContainsAny(key, `/\`) || key == s.config.SystemDir || strings.HasPrefix(key, TempFilePrefix) {
		return "", fmt.Errorf("invalid key %q: must be a plain file name", key)
	}
	return key + s.config.Ext, nil
}

// lock takes the advisory lock of key. It keeps a reader from observing a
// file mid-replacement across processes; it does not make read-modify-write
// sequences atomic.
func (s *Store) lock(ctx context.Context, key string, shared bool) (func(), error) {
	return s.lockFile(ctx, key+".lock", shared)
}

func (s *Store) lockFile(ctx context.Context, name string, shared bool) (func(), error) {
	fl := flock.New(filepath.Join(s.Path, s.config.SystemDir, name))

	var ok bool
	var err error
	if shared {
		ok, err = fl.TryRLockContext(ctx, lockRetryDelay)
	} else {
		ok, err = fl.TryLockContext(ctx, lockRetryDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("failed to acquire lock %s", name)
	}
	return func() {
		if err := fl.Unlock(); err != nil {
			s.config.Logger.Warn("failed to release lock", "lock", name, "error", err)
		}
	}, nil
}

func (s *Store) recordWrite() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.lastWrite = &now
}

// IsGitInstalled checks if git is available in the system path.
func IsGitInstalled() bool {
	return git.IsInstalled()
}

var _ core.Store = (*Store)(nil)
var _ core.Initializer = (*Store)(nil)
