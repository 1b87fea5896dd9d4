package classifier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

const (
	claudeTimeout   = 60 * time.Second
	claudeMaxOutput = 10 << 20
)

// ClaudeCLI runs the `claude` command line tool in print mode. The input is
// piped through stdin so it never needs shell escaping.
type ClaudeCLI struct {
	Binary  string
	Model   string
	Timeout time.Duration

	// command is swapped out in tests.
	command func(ctx context.Context, name string, args ...string) *exec.Cmd
}

var _ Backend = (*ClaudeCLI)(nil)

// NewClaudeCLI creates a backend for model. An empty model lets the CLI pick.
func NewClaudeCLI(model string) *ClaudeCLI {
	return &ClaudeCLI{
		Binary:  "claude",
		Model:   model,
		Timeout: claudeTimeout,
		command: exec.CommandContext,
	}
}

func (c *ClaudeCLI) Name() string { return EngineClaude }

func (c *ClaudeCLI) args(req Request) []string {
	args := []string{
		"-p", req.Instructions,
		"--output-format", "json",
		"--json-schema", req.Schema,
		"--no-session-persistence",
	}
	if c.Model != "" {
		args = append(args, "--model", c.Model)
	}
	return args
}

// Complete runs the CLI once.
func (c *ClaudeCLI) Complete(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	cmd := c.command(ctx, c.Binary, c.args(req)...)
	cmd.Stdin = strings.NewReader(req.Input)

	stdout := &limitedBuffer{max: claudeMaxOutput}
	var stderr bytes.Buffer
	cmd.Stdout = stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("claude CLI: %w", ctx.Err())
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("claude CLI failed: %w\n%s", err, msg)
		}
		return "", fmt.Errorf("claude CLI failed: %w", err)
	}
	return stdout.String(), nil
}

var errOutputTooLarge = errors.New("output exceeds buffer limit")

// limitedBuffer fails writes past max bytes.
type limitedBuffer struct {
	buf bytes.Buffer
	max int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if b.buf.Len()+len(p) > b.max {
		return 0, errOutputTooLarge
	}
	return b.buf.Write(p)
}

func (b *limitedBuffer) String() string { return b.buf.String() }

var _ io.Writer = (*limitedBuffer)(nil)
