package media

import (
	"bytes"
	"context"
	"io"
	"os/exec"
)

// RunOptions configures a single external command invocation.
type RunOptions struct {
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
}

// RunResult holds the captured output of a finished command.
type RunResult struct {
	Stdout []byte
	Stderr []byte
}

// Runner executes external binaries. The ffmpeg and ffprobe integrations
// go through it so tests can substitute a fake.
type Runner interface {
	Run(ctx context.Context, command string, args []string, opts RunOptions) (RunResult, error)
}

// CmdRunner runs commands with os/exec.
type CmdRunner struct{}

// Run implements Runner. The process is killed when ctx is done.
func (CmdRunner) Run(ctx context.Context, command string, args []string, opts RunOptions) (RunResult, error) {
	// #nosec G204 - command paths come from service configuration
	cmd := exec.CommandContext(ctx, command, args...)
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = io.Writer(&stdoutBuf)
	if opts.Stdout != nil {
		cmd.Stdout = io.MultiWriter(&stdoutBuf, opts.Stdout)
	}
	cmd.Stderr = io.Writer(&stderrBuf)
	if opts.Stderr != nil {
		cmd.Stderr = io.MultiWriter(&stderrBuf, opts.Stderr)
	}

	err := cmd.Run()
	return RunResult{Stdout: stdoutBuf.Bytes(), Stderr: stderrBuf.Bytes()}, err
}

var _ Runner = CmdRunner{}
