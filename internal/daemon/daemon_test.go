package daemon

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/leonardotrapani/audiodiary/internal/bus"
	"github.com/leonardotrapani/audiodiary/internal/logging"
	"github.com/leonardotrapani/audiodiary/internal/scheduler"
)

type fakeScheduler struct {
	mu     sync.Mutex
	runNow int
	once   bool
}

func (f *fakeScheduler) Run(ctx context.Context) error {
	if f.once {
		return nil
	}
	<-ctx.Done()
	return nil
}

func (f *fakeScheduler) RunNow() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runNow++
	return f.runNow == 1
}

func (f *fakeScheduler) Status() scheduler.Status {
	return scheduler.Status{
		State:   scheduler.Sleeping,
		NextRun: time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC),
		Cycles:  2,
	}
}

func useTempDir(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	old := bus.Dir
	bus.Dir = func() string { return dir }
	t.Cleanup(func() { bus.Dir = old })
}

func startDaemon(t *testing.T, s Scheduler) <-chan error {
	t.Helper()
	d := New(s, logging.Discard())
	errCh := make(chan error, 1)
	go func() { errCh <- d.Run() }()

	maxAttempts := 100
	for i := 0; i < maxAttempts; i++ {
		if _, err := bus.SendCommand(bus.CmdVersion); err == nil {
			break
		}
		if i == maxAttempts-1 {
			t.Fatal("daemon failed to start within timeout")
		}
		time.Sleep(10 * time.Millisecond)
	}
	return errCh
}

func waitExit(t *testing.T, errCh <-chan error) {
	t.Helper()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run() = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("daemon did not exit within timeout")
	}
}

func TestCommands(t *testing.T) {
	useTempDir(t)
	fs := &fakeScheduler{}
	errCh := startDaemon(t, fs)

	pid, alive := bus.ReadPid()
	if pid != os.Getpid() || !alive {
		t.Errorf("ReadPid() = %d, %v", pid, alive)
	}
	if err := bus.CheckExistingDaemon(); err == nil {
		t.Error("CheckExistingDaemon should report the running daemon")
	}

	tests := []struct {
		cmd  byte
		want string
	}{
		{bus.CmdStatus, "STATUS state=sleeping next=2026-10-19T15:00:00Z cycles=2\n"},
		{bus.CmdVersion, "STATUS proto=" + bus.ProtoVer + "\n"},
		{bus.CmdRunNow, "OK run-now\n"},
		{bus.CmdRunNow, "OK already-pending\n"},
		{'x', "ERR unknown='x'\n"},
	}
	for _, tt := range tests {
		got, err := bus.SendCommand(tt.cmd)
		if err != nil {
			t.Fatalf("command %c: %v", tt.cmd, err)
		}
		if got != tt.want {
			t.Errorf("command %c = %q, want %q", tt.cmd, got, tt.want)
		}
	}

	if got, err := bus.SendCommand(bus.CmdQuit); err != nil || !strings.HasPrefix(got, "OK") {
		t.Fatalf("quit = %q, %v", got, err)
	}
	waitExit(t, errCh)

	if _, err := os.Stat(bus.PidPath()); !os.IsNotExist(err) {
		t.Error("PID file should be removed on exit")
	}
}

func TestExitsWhenSchedulerReturns(t *testing.T) {
	useTempDir(t)
	d := New(&fakeScheduler{once: true}, logging.Discard())

	errCh := make(chan error, 1)
	go func() { errCh <- d.Run() }()
	waitExit(t, errCh)

	if _, err := os.Stat(bus.PidPath()); !os.IsNotExist(err) {
		t.Error("PID file should be removed on exit")
	}
}
