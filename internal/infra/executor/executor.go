package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/enginrect/ovs-bridge-agent/internal/domain"
)

// Executor runs one command and returns its stdout. A non-zero exit is
// reported as *CommandError.
type Executor interface {
	Run(ctx context.Context, argv []string) (string, error)
}

// CommandError carries the captured output of a failed command.
type CommandError struct {
	Argv     []string
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("failed to run '%s' (exit %d)", strings.Join(e.Argv, " "), e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *CommandError) Is(target error) bool { return target == domain.ErrCommandFailure }

func (e *CommandError) Unwrap() error { return e.Err }

type SubprocessExecutor struct{}

func (SubprocessExecutor) Run(ctx context.Context, argv []string) (string, error) {
	if len(argv) == 0 {
		return "", errors.New("executor: empty command")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return "", &CommandError{
			Argv:     argv,
			ExitCode: code,
			Stdout:   out.String(),
			Stderr:   errb.String(),
			Err:      err,
		}
	}
	return out.String(), nil
}

// WithTimeout derives a per-command context. A non-positive d only adds cancellation.
func WithTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, d)
}
