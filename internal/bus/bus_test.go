package bus

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"
)

func useTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old := Dir
	Dir = func() string { return dir }
	t.Cleanup(func() { Dir = old })
	return dir
}

func TestPidManagerBasics(t *testing.T) {
	tempDir := t.TempDir()
	pm := &pidManager{path: filepath.Join(tempDir, PidName)}

	t.Run("create and remove PID file", func(t *testing.T) {
		if err := pm.create(); err != nil {
			t.Fatalf("create failed: %v", err)
		}

		pidData, err := os.ReadFile(pm.path)
		if err != nil {
			t.Fatalf("failed to read PID file: %v", err)
		}
		if want := strconv.Itoa(os.Getpid()); string(pidData) != want {
			t.Errorf("PID file contains %q, expected %q", pidData, want)
		}
		if _, err := os.Stat(pm.path + ".tmp"); !os.IsNotExist(err) {
			t.Error("temp PID file left behind")
		}

		if err := pm.remove(); err != nil {
			t.Fatalf("remove failed: %v", err)
		}
		if _, err := os.Stat(pm.path); !os.IsNotExist(err) {
			t.Error("PID file should not exist after removal")
		}
		if err := pm.remove(); err != nil {
			t.Errorf("removing a missing PID file should not fail: %v", err)
		}
	})

	t.Run("checkExisting with no PID file", func(t *testing.T) {
		if err := pm.checkExisting(); err != nil {
			t.Errorf("checkExisting should not error when no PID file exists: %v", err)
		}
	})

	t.Run("checkExisting with current process", func(t *testing.T) {
		if err := pm.create(); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		defer pm.remove()

		if err := pm.checkExisting(); err == nil {
			t.Error("checkExisting should fail when process is running")
		}
		pid, alive := pm.read()
		if pid != os.Getpid() || !alive {
			t.Errorf("read() = %d, %v", pid, alive)
		}
	})

	for _, content := range []string{"99999999", "invalid", ""} {
		t.Run(fmt.Sprintf("checkExisting with stale PID %q", content), func(t *testing.T) {
			if err := os.WriteFile(pm.path, []byte(content), 0o600); err != nil {
				t.Fatal(err)
			}
			if err := pm.checkExisting(); err != nil {
				t.Errorf("checkExisting should succeed with stale PID: %v", err)
			}
			if _, err := os.Stat(pm.path); !os.IsNotExist(err) {
				t.Error("stale PID file should be removed")
			}
		})
	}
}

func TestProcessAlive(t *testing.T) {
	if !processAlive(os.Getpid()) {
		t.Error("current process should be alive")
	}
	if processAlive(99999999) {
		t.Error("non-existent process should not be alive")
	}
}

func TestSendCommand(t *testing.T) {
	useTempDir(t)

	listener, err := Listen()
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	defer listener.Close()

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				buf := make([]byte, 2)
				if n, err := c.Read(buf); err != nil || n != 2 {
					return
				}
				switch buf[0] {
				case CmdStatus:
					fmt.Fprint(c, "STATUS state=sleeping next=- cycles=3\n")
				case CmdVersion:
					fmt.Fprintf(c, "STATUS proto=%s\n", ProtoVer)
				case CmdQuit:
					fmt.Fprint(c, "OK quitting\n")
				default:
					fmt.Fprintf(c, "ERR unknown=%q\n", buf[0])
				}
			}(conn)
		}
	}()

	tests := []struct {
		cmd      byte
		expected string
	}{
		{CmdStatus, "STATUS state=sleeping next=- cycles=3\n"},
		{CmdVersion, fmt.Sprintf("STATUS proto=%s\n", ProtoVer)},
		{CmdQuit, "OK quitting\n"},
		{'x', "ERR unknown='x'\n"},
	}

	for _, tt := range tests {
		resp, err := SendCommand(tt.cmd)
		if err != nil {
			t.Errorf("command %c: %v", tt.cmd, err)
			continue
		}
		if resp != tt.expected {
			t.Errorf("command %c: got %q, expected %q", tt.cmd, resp, tt.expected)
		}
	}
}

func TestSendCommandWithoutListener(t *testing.T) {
	useTempDir(t)
	if _, err := SendCommand(CmdStatus); err == nil {
		t.Error("SendCommand should fail when no listener exists")
	}
}

func TestStopDaemon(t *testing.T) {
	useTempDir(t)

	t.Run("not running", func(t *testing.T) {
		if err := StopDaemon(); err != ErrNotRunning {
			t.Errorf("StopDaemon() = %v, want ErrNotRunning", err)
		}
	})

	t.Run("quits over socket", func(t *testing.T) {
		listener, err := Listen()
		if err != nil {
			t.Fatal(err)
		}
		defer listener.Close()

		got := make(chan byte, 1)
		go func() {
			c, err := listener.Accept()
			if err != nil {
				return
			}
			defer c.Close()
			buf := make([]byte, 2)
			c.Read(buf)
			got <- buf[0]
			fmt.Fprint(c, "OK quitting\n")
		}()

		if err := StopDaemon(); err != nil {
			t.Fatalf("StopDaemon() = %v", err)
		}
		select {
		case cmd := <-got:
			if cmd != CmdQuit {
				t.Errorf("daemon received %q", cmd)
			}
		case <-time.After(time.Second):
			t.Fatal("daemon never received a command")
		}
	})
}

func TestParseReply(t *testing.T) {
	got := ParseReply("STATUS state=sleeping next=2026-10-19T15:00:00Z cycles=2\n")
	want := map[string]string{"state": "sleeping", "next": "2026-10-19T15:00:00Z", "cycles": "2"}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %q, want %q", k, got[k], v)
		}
	}
}

func TestPaths(t *testing.T) {
	dir := useTempDir(t)
	if got := SockPath(); got != filepath.Join(dir, SockName) {
		t.Errorf("SockPath() = %q", got)
	}
	if got := PidPath(); got != filepath.Join(dir, PidName) {
		t.Errorf("PidPath() = %q", got)
	}
}
