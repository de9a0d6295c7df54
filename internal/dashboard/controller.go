package dashboard

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/leonardotrapani/audiodiary/internal/bus"
)

// ProcessStatus is the scheduler process as seen through the PID file.
type ProcessStatus struct {
	Running bool
	PID     int
}

// Controller starts and stops the scheduler process.
type Controller interface {
	Status() ProcessStatus
	Start(ctx context.Context) error
	Stop() error
	RunNow() error
}

// ProcessController runs the scheduler as a detached "audiodiary run" child
// and talks to it over the control socket.
type ProcessController struct {
	Executable string
	ConfigPath string
	LogFile    string
}

func (p ProcessController) Status() ProcessStatus {
	pid, alive := bus.ReadPid()
	return ProcessStatus{Running: alive, PID: pid}
}

func (p ProcessController) Start(ctx context.Context) error {
	exe := p.Executable
	if exe == "" {
		var err error
		if exe, err = os.Executable(); err != nil {
			return err
		}
	}
	args := []string{"run"}
	if p.ConfigPath != "" {
		args = append(args, "--config", p.ConfigPath)
	}

	cmd := exec.Command(exe, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if p.LogFile != "" {
		f, err := os.OpenFile(p.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		cmd.Stdout, cmd.Stderr = f, f
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	// reap the child when it exits; the dashboard does not wait on it
	go cmd.Wait()
	return nil
}

func (p ProcessController) Stop() error {
	return bus.StopDaemon()
}

func (p ProcessController) RunNow() error {
	resp, err := bus.SendCommand(bus.CmdRunNow)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(resp, "OK") {
		return fmt.Errorf("scheduler replied %q", strings.TrimSpace(resp))
	}
	return nil
}
