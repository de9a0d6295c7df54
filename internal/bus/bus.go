package bus

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/adrg/xdg"
)

const SockName = "control.sock"
const PidName = "scheduler.pid"
const ProtoVer = "0.1"

// Commands understood by the daemon.
const (
	CmdStatus  byte = 's'
	CmdRunNow  byte = 'n'
	CmdVersion byte = 'v'
	CmdQuit    byte = 'q'
)

var ErrNotRunning = errors.New("scheduler is not running")

// Dir is the runtime directory holding the socket and PID file,
// $XDG_CACHE_HOME/audiodiary by default.
var Dir = func() string {
	return filepath.Join(xdg.CacheHome, "audiodiary")
}

// ~/.cache/audiodiary/control.sock
func SockPath() string {
	return filepath.Join(Dir(), SockName)
}

// ~/.cache/audiodiary/scheduler.pid
func PidPath() string {
	return filepath.Join(Dir(), PidName)
}

func Listen() (net.Listener, error) {
	sp := SockPath()
	if err := os.MkdirAll(filepath.Dir(sp), 0o700); err != nil {
		return nil, err
	}
	_ = os.Remove(sp) // stale socket from last run
	return net.Listen("unix", sp)
}

func Dial() (net.Conn, error) {
	return net.DialTimeout("unix", SockPath(), 2*time.Second)
}

func SendCommand(cmd byte) (string, error) {
	c, err := Dial()
	if err != nil {
		return "", err
	}
	defer c.Close()

	_, err = c.Write([]byte{cmd, '\n'})
	if err != nil {
		return "", err
	}

	resp, err := bufio.NewReader(c).ReadString('\n')
	return resp, err
}

// ParseReply splits a "STATUS k=v k=v" reply into its fields.
func ParseReply(line string) map[string]string {
	fields := map[string]string{}
	for _, f := range strings.Fields(strings.TrimSpace(line)) {
		if k, v, ok := strings.Cut(f, "="); ok {
			fields[k] = v
		}
	}
	return fields
}

type pidManager struct {
	path string
}

func defaultPid() *pidManager {
	return &pidManager{path: PidPath()}
}

func CheckExistingDaemon() error { return defaultPid().checkExisting() }
func CreatePidFile() error       { return defaultPid().create() }
func RemovePidFile() error       { return defaultPid().remove() }

// ReadPid returns the recorded PID and whether that process is alive.
func ReadPid() (int, bool) { return defaultPid().read() }

// StopDaemon asks the daemon to quit over the socket and falls back to
// SIGTERM when the socket does not answer.
func StopDaemon() error {
	if _, err := SendCommand(CmdQuit); err == nil {
		return nil
	}
	pid, alive := ReadPid()
	if !alive {
		return ErrNotRunning
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal PID %d: %w", pid, err)
	}
	return nil
}

func (p *pidManager) read() (int, bool) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, processAlive(pid)
}

func (p *pidManager) checkExisting() error {
	pid, alive := p.read()
	if !alive {
		return p.remove() // missing, invalid or stale pid file
	}
	return fmt.Errorf("scheduler already running with PID %d", pid)
}

func (p *pidManager) create() error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o700); err != nil {
		return err
	}
	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(strconv.Itoa(os.Getpid())), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, p.path)
}

func (p *pidManager) remove() error {
	err := os.Remove(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
