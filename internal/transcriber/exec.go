package transcriber

import (
	"context"
	"fmt"
	"strings"

	execute "github.com/alexellis/go-execute/v2"
)

// RunResult is the captured output of an external command.
type RunResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner runs external binaries (ffmpeg, ffprobe, whisper-cli).
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (RunResult, error)
}

// ExecRunner runs commands on the host.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) (RunResult, error) {
	task := execute.ExecTask{
		Command: name,
		Args:    args,
	}

	res, err := task.Execute(ctx)
	out := RunResult{Stdout: res.Stdout, Stderr: res.Stderr, ExitCode: res.ExitCode}
	if err != nil {
		return out, fmt.Errorf("%s: %w", name, err)
	}
	if res.ExitCode != 0 {
		return out, fmt.Errorf("%s exited with code %d: %s", name, res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return out, nil
}
