package deps

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/leonardotrapani/audiodiary/internal/transcriber"
)

// Status represents the installation status of a dependency
type Status struct {
	Installed bool
	Path      string
	Version   string
}

// Tool is an external binary the pipeline shells out to.
type Tool struct {
	Name        string
	VersionFlag string
	Purpose     string
}

var (
	FFmpeg     = Tool{Name: "ffmpeg", VersionFlag: "-version", Purpose: "audio chunking and conversion"}
	FFprobe    = Tool{Name: "ffprobe", VersionFlag: "-version", Purpose: "audio duration"}
	WhisperCli = Tool{Name: "whisper-cli", VersionFlag: "--version", Purpose: "local transcription"}
)

// Tools lists every checked binary in display order.
var Tools = []Tool{FFmpeg, FFprobe, WhisperCli}

// Checker looks tools up on PATH and asks them for their version.
type Checker struct {
	LookPath func(file string) (string, error)
	Runner   transcriber.Runner
}

var defaultChecker = Checker{LookPath: exec.LookPath, Runner: transcriber.ExecRunner{}}

func (c Checker) Check(ctx context.Context, tool Tool) Status {
	path, err := c.LookPath(tool.Name)
	if err != nil {
		return Status{Installed: false}
	}

	status := Status{
		Installed: true,
		Path:      path,
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// version info is on the first line
	res, err := c.Runner.Run(ctx, path, tool.VersionFlag)
	if err == nil {
		lines := strings.Split(res.Stdout, "\n")
		if len(lines) > 0 {
			status.Version = strings.TrimSpace(lines[0])
		}
	}

	return status
}

// Result pairs a tool with its status.
type Result struct {
	Tool   Tool
	Status Status
}

func (c Checker) CheckAll(ctx context.Context) []Result {
	results := make([]Result, 0, len(Tools))
	for _, t := range Tools {
		results = append(results, Result{Tool: t, Status: c.Check(ctx, t)})
	}
	return results
}

// CheckWhisperCli checks if whisper-cli is installed and returns its status
func CheckWhisperCli() Status {
	return defaultChecker.Check(context.Background(), WhisperCli)
}

// CheckFFmpeg checks if ffmpeg is installed and returns its status
func CheckFFmpeg() Status {
	return defaultChecker.Check(context.Background(), FFmpeg)
}

func CheckFFprobe() Status {
	return defaultChecker.Check(context.Background(), FFprobe)
}

// CheckAll checks every tool on the host.
func CheckAll() []Result {
	return defaultChecker.CheckAll(context.Background())
}
