package gh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/rshade/ghtrend/internal/logging"
)

// DefaultTimeout bounds a single gh invocation.
const DefaultTimeout = 30 * time.Second

// CommandRunner executes an external command and returns its stdout, stderr, and error.
// This interface enables testing without spawning real subprocesses.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout []byte, stderr []byte, err error)
}

// ExecRunner is the default CommandRunner that uses exec.CommandContext.
type ExecRunner struct{}

// Run implements CommandRunner. The binary is resolved with FindBinary so a
// missing gh reports ErrGHNotFound.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	bin, err := FindBinary(name)
	if err != nil {
		return nil, nil, err
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Env = append(os.Environ(), "GH_PROMPT_DISABLED=1", "GH_NO_UPDATE_NOTIFIER=1", "NO_COLOR=1")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// FindBinary locates the gh binary, honoring an explicit path.
// Returns the full path to the binary or ErrGHNotFound if not found.
func FindBinary(name string) (string, error) {
	if name == "" {
		name = "gh"
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", ErrGHNotFound
	}
	return path, nil
}

// cmdConfig holds the configuration for running one gh command.
type cmdConfig struct {
	operation string
	repo      string
	args      []string
}

// run executes gh with a timeout, logging, and error classification.
func (c *Client) run(ctx context.Context, cfg cmdConfig) ([]byte, error) {
	log := logging.FromContext(ctx)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	log.Debug().
		Ctx(ctx).
		Str("component", "gh").
		Str("operation", cfg.operation).
		Str("repo", cfg.repo).
		Strs("args", cfg.args).
		Msg("running gh")

	started := time.Now()
	stdout, stderr, err := c.runner.Run(ctx, c.binary, cfg.args...)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, ErrGHNotFound) {
			return nil, ErrGHNotFound
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				return nil, fmt.Errorf("gh %s timed out after %s: %w", cfg.operation, c.timeout, ctxErr)
			}
			return nil, ctxErr
		}

		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		cmdErr := newCommandError(cfg.operation, cfg.args, exitCode, string(stderr))
		log.Debug().
			Ctx(ctx).
			Str("component", "gh").
			Str("operation", cfg.operation).
			Int("exit_code", exitCode).
			Err(cmdErr).
			Msg("gh command failed")
		return nil, cmdErr
	}

	log.Debug().
		Ctx(ctx).
		Str("component", "gh").
		Str("operation", cfg.operation).
		Int("output_bytes", len(stdout)).
		Dur("elapsed", time.Since(started)).
		Msgf("gh %s completed", cfg.operation)

	return stdout, nil
}
