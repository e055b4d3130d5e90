package task

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// DefaultCommandTimeout bounds a single external command run.
const DefaultCommandTimeout = 30 * time.Second

// commandWaitDelay bounds how long Run waits for output pipes after the
// program is killed. Grandchildren may keep them open.
const commandWaitDelay = 500 * time.Millisecond

// ErrCommandTimeout is returned when a command exceeds its timeout.
var ErrCommandTimeout = errors.New("command timed out")

// Command runs an external program. The run succeeds when the program
// exits with status 0 before Timeout elapses.
type Command struct {
	Path    string
	Args    []string
	Timeout time.Duration
}

// NewCommand creates a command task with the default timeout.
func NewCommand(path string, args ...string) *Command {
	return &Command{Path: path, Args: args, Timeout: DefaultCommandTimeout}
}

// Name returns the base name of the program.
func (c *Command) Name() string {
	return filepath.Base(c.Path)
}

// Run executes the program, discarding stdout. Stderr is included in the
// error on failure.
func (c *Command) Run(ctx context.Context) error {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, c.Path, c.Args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.WaitDelay = commandWaitDelay

	err := cmd.Run()
	if err == nil {
		return nil
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%w after %v", ErrCommandTimeout, timeout)
	}

	msg := strings.TrimSpace(stderr.String())
	if msg != "" {
		return fmt.Errorf("%s failed: %w: %s", c.Name(), err, msg)
	}
	return fmt.Errorf("%s failed: %w", c.Name(), err)
}
