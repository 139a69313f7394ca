package clones

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/rshade/ghtrend/internal/logging"
	"github.com/rshade/ghtrend/internal/upstream/trending"
)

// DefaultEditor is used when no editor is configured.
const DefaultEditor = "code"

// LocalReadmeLines is how many README lines explore --show-readme prints.
const LocalReadmeLines = 50

// ErrEditorNotFound is returned when the editor binary is not on PATH.
var ErrEditorNotFound = errors.New("editor not found in PATH")

// readmeNames are checked in order by LocalReadme.
//
//nolint:gochecknoglobals // Lookup order.
var readmeNames = []string{"README.md", "readme.md", "README.rst", "README.txt", "README"}

// Launcher starts editor processes.
type Launcher interface {
	// Run starts the program and waits for it to exit.
	Run(ctx context.Context, name string, args ...string) error
	// Start starts the program without waiting.
	Start(name string, args ...string) error
}

// ExecLauncher runs programs with os/exec.
type ExecLauncher struct{}

// Run implements Launcher.
func (ExecLauncher) Run(ctx context.Context, name string, args ...string) error {
	bin, err := lookEditor(name)
	if err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, bin, args...) //nolint:gosec // Editor comes from the user's config.
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	return cmd.Run()
}

// Start implements Launcher. The child is released so it outlives ghtrend.
func (ExecLauncher) Start(name string, args ...string) error {
	bin, err := lookEditor(name)
	if err != nil {
		return err
	}
	cmd := exec.Command(bin, args...) //nolint:gosec,noctx // Detached on purpose.
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}

func lookEditor(name string) (string, error) {
	bin, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrEditorNotFound, name)
	}
	return bin, nil
}

// EditorArgs builds the editor's arguments. VS Code gets a new window and,
// when wait is set, blocks until that window closes.
func EditorArgs(editor, path string, wait bool) []string {
	if filepath.Base(editor) != DefaultEditor {
		return []string{path}
	}
	args := []string{"-n"}
	if wait {
		args = append(args, "-w")
	}
	return append(args, path)
}

// ExploreOptions configures Explore.
type ExploreOptions struct {
	Editor  string
	Shallow bool
	// AutoCleanup waits for the editor to exit, then removes the checkout.
	AutoCleanup bool
	// OnCloned, if set, runs after the clone and before the editor opens.
	OnCloned func(path string)
}

// Explore clones repo and opens it in an editor. With AutoCleanup the
// checkout is removed once the editor exits, even when the editor failed.
func (m *Manager) Explore(ctx context.Context, repo trending.Repo, opts ExploreOptions) (string, error) {
	path, err := m.Clone(ctx, repo, opts.Shallow)
	if err != nil {
		return path, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	editor := opts.Editor
	if editor == "" {
		editor = DefaultEditor
	}
	args := EditorArgs(editor, abs, opts.AutoCleanup)
	if opts.OnCloned != nil {
		opts.OnCloned(abs)
	}

	if !opts.AutoCleanup {
		if err := m.editor.Start(editor, args...); err != nil {
			return abs, fmt.Errorf("opening %s: %w", editor, err)
		}
		return abs, nil
	}

	runErr := m.editor.Run(ctx, editor, args...)
	if err := removeTree(abs); err != nil {
		logging.FromContext(ctx).Warn().
			Ctx(ctx).
			Str("component", "clones").
			Str("operation", "explore").
			Str("path", abs).
			Err(err).
			Msg("auto-cleanup failed")
		return abs, errors.Join(runErr, fmt.Errorf("removing %s: %w", abs, err))
	}
	if runErr != nil {
		return abs, fmt.Errorf("running %s: %w", editor, runErr)
	}
	return abs, nil
}

// LocalReadme reads the README of a checkout. It returns the file name and
// content, or ok=false when the checkout has none.
func LocalReadme(path string) (name, content string, ok bool) {
	for _, n := range readmeNames {
		data, err := os.ReadFile(filepath.Join(path, n)) //nolint:gosec // Inside a checkout.
		if err == nil {
			return n, string(data), true
		}
	}
	return "", "", false
}
