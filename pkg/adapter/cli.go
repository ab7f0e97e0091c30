package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/zen-systems/wallbounce/pkg/artifact"
)

// CLIAdapter runs a local model CLI as a subprocess. The prompt is written to
// stdin and stdout becomes the response content.
type CLIAdapter struct {
	name    string
	command []string
	workdir string
}

// NewCLIAdapter creates an adapter that spawns command for every call.
func NewCLIAdapter(name string, command []string, workdir string) (*CLIAdapter, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("cli adapter requires a command")
	}
	if name == "" {
		name = "cli:" + command[0]
	}
	return &CLIAdapter{name: name, command: append([]string{}, command...), workdir: workdir}, nil
}

// Name returns the adapter identifier.
func (a *CLIAdapter) Name() string {
	return a.name
}

// Models returns the configured command as the only "model".
func (a *CLIAdapter) Models() []string {
	return []string{a.command[0]}
}

// Generate runs the command and returns its stdout. There is no timeout beyond
// ctx; model CLIs may legitimately run for minutes.
func (a *CLIAdapter) Generate(ctx context.Context, model string, prompt string) (*Response, error) {
	args := append([]string{}, a.command[1:]...)
	if model != "" && model != a.command[0] {
		args = append(args, "--model", model)
	}

	cmd := exec.CommandContext(ctx, a.command[0], args...)
	if a.workdir != "" {
		cmd.Dir = a.workdir
	}
	cmd.Stdin = strings.NewReader(prompt)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				msg = fmt.Sprintf("exit status %d", exitErr.ExitCode())
			}
			return nil, &AdapterError{Adapter: a.name, Err: fmt.Errorf("%s exited with status %d: %s", a.command[0], exitErr.ExitCode(), msg)}
		}
		return nil, &AdapterError{Adapter: a.name, Err: fmt.Errorf("failed to run %s: %w", a.command[0], err)}
	}

	content := strings.TrimSpace(stdout.String())
	if content == "" {
		return nil, &AdapterError{Adapter: a.name, Err: fmt.Errorf("%s produced no output", a.command[0])}
	}

	return &Response{
		Artifact: artifact.New(content, a.name, model, prompt),
		Usage:    &Usage{},
	}, nil
}
