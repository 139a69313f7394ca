// Package clones manages local checkouts of trending repositories: cloning
// with go-git, listing what is checked out, removing checkouts by name and
// opening them in an editor.
package clones

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"

	"github.com/rshade/ghtrend/internal/logging"
	"github.com/rshade/ghtrend/internal/upstream/trending"
)

// Errors returned by Manager.
var (
	ErrUnsafeName   = errors.New("unsafe repository directory name")
	ErrNotACheckout = errors.New("not a git checkout")
	ErrDeclined     = errors.New("declined by user")
)

// UnknownRemote is reported when a checkout has no readable origin.
const UnknownRemote = "unknown"

// Cloner fetches a remote repository into dir. depth 0 clones full history.
type Cloner interface {
	Clone(ctx context.Context, url, dir string, depth int) error
}

// GitCloner clones with go-git.
type GitCloner struct{}

// Clone implements Cloner.
func (GitCloner) Clone(ctx context.Context, url, dir string, depth int) error {
	opts := &gogit.CloneOptions{URL: url}
	if depth > 0 {
		opts.Depth = depth
		opts.SingleBranch = true
	}
	if _, err := gogit.PlainCloneContext(ctx, dir, false, opts); err != nil {
		return fmt.Errorf("cloning %s: %w", url, err)
	}
	return nil
}

// ConfirmFunc asks the user a yes/no question. It returns false when the
// answer is no or no answer can be read.
type ConfirmFunc func(question string) bool

// Checkout is one repository found in the clone directory.
type Checkout struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Remote string `json:"remote"`
	Size   int64  `json:"size"`
}

// Slug returns the remote as "owner/name" when it points at GitHub.
func (c Checkout) Slug() string {
	s := strings.TrimPrefix(c.Remote, "https://github.com/")
	return strings.TrimSuffix(s, ".git")
}

// Manager operates on one clone directory.
type Manager struct {
	dir     string
	cloner  Cloner
	confirm ConfirmFunc
	editor  Launcher
}

// Option configures a Manager.
type Option func(*Manager)

// WithCloner replaces the go-git cloner.
func WithCloner(c Cloner) Option {
	return func(m *Manager) { m.cloner = c }
}

// WithConfirm sets the overwrite prompt. Without one, existing directories
// are never overwritten.
func WithConfirm(f ConfirmFunc) Option {
	return func(m *Manager) { m.confirm = f }
}

// WithLauncher replaces the process launcher used by Explore.
func WithLauncher(l Launcher) Option {
	return func(m *Manager) { m.editor = l }
}

// NewManager returns a Manager rooted at dir ("" means the working directory).
func NewManager(dir string, opts ...Option) *Manager {
	if dir == "" {
		dir = "."
	}
	m := &Manager{
		dir:     dir,
		cloner:  GitCloner{},
		confirm: func(string) bool { return false },
		editor:  ExecLauncher{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Dir returns the clone directory.
func (m *Manager) Dir() string { return m.dir }

// PathFor returns where repo is checked out.
func (m *Manager) PathFor(repo trending.Repo) string {
	return filepath.Join(m.dir, repo.Name)
}

// Clone checks repo out into the clone directory. An existing directory is
// replaced only when the user confirms; otherwise ErrDeclined is returned.
// A failed clone leaves no partial directory behind.
func (m *Manager) Clone(ctx context.Context, repo trending.Repo, shallow bool) (string, error) {
	log := logging.FromContext(ctx).With().
		Str("component", "clones").
		Str("operation", "clone").
		Str("repo", repo.FullName()).
		Logger()

	if repo.Owner == "" || repo.Name == "" {
		return "", fmt.Errorf("invalid repository %q", repo.FullName())
	}
	if _, err := SanitizeName(repo.Name); err != nil {
		return "", err
	}

	path := m.PathFor(repo)
	if _, err := os.Stat(path); err == nil {
		if !m.confirm(fmt.Sprintf("Directory already exists: %s. Overwrite?", path)) {
			return path, ErrDeclined
		}
		if err := removeTree(path); err != nil {
			return path, fmt.Errorf("removing %s: %w", path, err)
		}
	}
	if err := os.MkdirAll(m.dir, 0o750); err != nil {
		return path, fmt.Errorf("creating clone directory: %w", err)
	}

	depth := 0
	if shallow {
		depth = 1
	}
	log.Info().Ctx(ctx).Str("path", path).Int("depth", depth).Msg("cloning")
	if err := m.cloner.Clone(ctx, repo.CloneURL(), path, depth); err != nil {
		_ = removeTree(path)
		return path, err
	}
	return path, nil
}

// List returns every git checkout directly under the clone directory,
// sorted by name. A missing clone directory yields no checkouts.
func (m *Manager) List(ctx context.Context) ([]Checkout, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading clone directory: %w", err)
	}

	var out []Checkout
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		path := filepath.Join(m.dir, e.Name())
		if !isCheckout(path) {
			continue
		}
		size, sizeErr := DirSize(path)
		if sizeErr != nil {
			logging.FromContext(ctx).Debug().
				Ctx(ctx).
				Str("component", "clones").
				Str("path", path).
				Err(sizeErr).
				Msg("could not size checkout")
		}
		out = append(out, Checkout{
			Name:   e.Name(),
			Path:   path,
			Remote: originURL(path),
			Size:   size,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Remove deletes the checkout called name. The name must be a plain
// directory name that resolves inside the clone directory and holds a .git
// directory.
func (m *Manager) Remove(ctx context.Context, name string) (string, error) {
	safe, err := SanitizeName(name)
	if err != nil {
		return "", err
	}

	root, err := filepath.Abs(m.dir)
	if err != nil {
		return "", fmt.Errorf("resolving clone directory: %w", err)
	}
	path := filepath.Join(root, safe)
	if rel, relErr := filepath.Rel(root, path); relErr != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return path, fmt.Errorf("%w: %q is outside %s", ErrUnsafeName, name, root)
	}
	if !isCheckout(path) {
		return path, fmt.Errorf("%w: %s", ErrNotACheckout, path)
	}

	if err := removeTree(path); err != nil {
		return path, fmt.Errorf("removing %s: %w", path, err)
	}
	logging.FromContext(ctx).Info().
		Ctx(ctx).
		Str("component", "clones").
		Str("operation", "remove").
		Str("path", path).
		Msg("checkout removed")
	return path, nil
}

// SanitizeName validates a checkout directory name given on the command line.
func SanitizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "", name == ".", name == "..":
		return "", fmt.Errorf("%w: %q", ErrUnsafeName, name)
	case strings.ContainsAny(name, `/\`):
		return "", fmt.Errorf("%w: %q contains a path separator", ErrUnsafeName, name)
	case strings.HasPrefix(name, "~"):
		return "", fmt.Errorf("%w: %q starts with ~", ErrUnsafeName, name)
	}
	return name, nil
}

// DirSize sums the sizes of regular files under path. Files that vanish or
// cannot be read are skipped; the first walk error is returned with the
// partial total.
func DirSize(path string) (int64, error) {
	var total int64
	var firstErr error
	walkErr := filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return nil
		}
		if d.Type().IsRegular() {
			if info, infoErr := d.Info(); infoErr == nil {
				total += info.Size()
			}
		}
		return nil
	})
	if walkErr != nil {
		return total, walkErr
	}
	return total, firstErr
}

func isCheckout(path string) bool {
	info, err := os.Stat(filepath.Join(path, ".git"))
	return err == nil && info.IsDir()
}

func originURL(path string) string {
	repo, err := gogit.PlainOpen(path)
	if err != nil {
		return UnknownRemote
	}
	remote, err := repo.Remote("origin")
	if err != nil {
		return UnknownRemote
	}
	if urls := remote.Config().URLs; len(urls) > 0 {
		return urls[0]
	}
	return UnknownRemote
}

// removeTree deletes path, making read-only entries writable and retrying
// when the first attempt fails.
func removeTree(path string) error {
	if err := os.RemoveAll(path); err == nil {
		return nil
	}
	_ = filepath.WalkDir(path, func(p string, _ fs.DirEntry, err error) error {
		if err == nil {
			_ = os.Chmod(p, 0o700) //nolint:gosec // Owner-only, about to be removed.
		}
		return nil
	})
	return os.RemoveAll(path)
}
