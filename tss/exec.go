package tss

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultMaxOutput = 1 << 20

// Exec runs the routing tool as a child process.
type Exec struct {
	Binary  string        // name or path of the executable
	Timeout time.Duration // per invocation, zero for none
	Stdin   io.Reader     // the tool asks for confirmation on very large exhaustive runs
	Echo    io.Writer     // optional copy of the tool's stdout and stderr
	Logger  *zap.Logger

	// MaxOutput bounds the captured output kept for logging and errors.
	MaxOutput int64

	path     string // absolute path resolved by Check
	lookPath func(string) (string, error)
	command  func(ctx context.Context, name string, args ...string) *exec.Cmd
}

func NewExec(binary string, logger *zap.Logger) *Exec {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exec{
		Binary:    binary,
		Logger:    logger,
		MaxOutput: defaultMaxOutput,
		lookPath:  exec.LookPath,
		command:   exec.CommandContext,
	}
}

// Check resolves the binary so a missing tool is reported before any work starts. The path is
// made absolute because the tool runs in a different working directory.
func (e *Exec) Check() (string, error) {
	p, err := e.lookPath(e.Binary)
	if err != nil {
		return "", fmt.Errorf("locating routing tool %q: %w", e.Binary, err)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolving routing tool %q: %w", p, err)
	}
	e.path = abs
	return abs, nil
}

// ExitError is returned when the tool exits with a non-zero status.
type ExitError struct {
	Code   int
	Args   []string
	Output string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("routing tool exited with status %d (%s)", e.Code, strings.Join(e.Args, " "))
	if tail := lastLines(e.Output, 5); tail != "" {
		msg += ": " + tail
	}
	return msg
}

func (e *Exec) Run(ctx context.Context, dir string, opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	if e.path == "" {
		if _, err := e.Check(); err != nil {
			return err
		}
	}
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	args := opts.Args()
	cmd := e.command(ctx, e.path, args...)
	cmd.Dir = dir
	cmd.Stdin = e.Stdin
	cmd.WaitDelay = time.Second

	var buf bytes.Buffer
	var out io.Writer = &limitedWriter{w: &buf, max: e.MaxOutput}
	if e.Echo != nil {
		out = io.MultiWriter(out, e.Echo)
	}
	cmd.Stdout = out
	cmd.Stderr = out

	log := e.Logger.With(zap.String("dir", dir), zap.Stringer("opts", opts))
	log.Debug("starting routing tool", zap.String("binary", e.path))

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	scanner := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			log.Debug("tool: " + line)
		}
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				return fmt.Errorf("routing tool killed after %s: %w", e.Timeout, ctxErr)
			}
			return fmt.Errorf("routing tool canceled: %w", ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Code: exitErr.ExitCode(), Args: args, Output: buf.String()}
		}
		return fmt.Errorf("running routing tool %q: %w", e.path, err)
	}
	log.Debug("routing tool finished", zap.Duration("took", elapsed))
	return nil
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, " | "))
}

// limitedWriter keeps at most max bytes and silently drops the rest.
type limitedWriter struct {
	w       io.Writer
	max     int64
	written int64
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	remaining := lw.max - lw.written
	if remaining <= 0 {
		return n, nil
	}
	if int64(n) > remaining {
		p = p[:remaining]
	}
	written, err := lw.w.Write(p)
	lw.written += int64(written)
	if err != nil {
		return written, err
	}
	return n, nil
}
