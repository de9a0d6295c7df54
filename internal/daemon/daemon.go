package daemon

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/leonardotrapani/audiodiary/internal/bus"
	"github.com/leonardotrapani/audiodiary/internal/scheduler"
)

// Scheduler is the part of *scheduler.Scheduler the daemon drives.
type Scheduler interface {
	Run(ctx context.Context) error
	RunNow() bool
	Status() scheduler.Status
}

type Daemon struct {
	sched Scheduler
	log   *log.Logger

	ctx    context.Context
	cancel context.CancelFunc

	wg sync.WaitGroup
}

func New(s Scheduler, logger *log.Logger) *Daemon {
	ctx, cancel := context.WithCancel(context.Background())
	return &Daemon{
		sched:  s,
		log:    logger.WithPrefix("daemon"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Run owns the PID file and control socket for the life of the scheduler.
// It returns when the scheduler finishes, a signal arrives or a client sends
// the quit command.
func (d *Daemon) Run() error {
	if err := bus.CheckExistingDaemon(); err != nil {
		return err
	}

	ln, err := bus.Listen()
	if err != nil {
		return err
	}
	defer ln.Close()

	if err := bus.CreatePidFile(); err != nil {
		return fmt.Errorf("failed to create PID file: %w", err)
	}
	defer bus.RemovePidFile()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			d.log.Info("received signal, shutting down", "signal", sig)
			d.cancel()
		case <-d.ctx.Done():
		}
	}()

	// Close the listener when context is done
	go func() {
		<-d.ctx.Done()
		ln.Close()
	}()

	var schedErr error
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		schedErr = d.sched.Run(d.ctx)
		d.cancel()
	}()

	d.log.Info("daemon started", "pid", os.Getpid(), "socket", bus.SockPath())

	for {
		c, err := ln.Accept()
		if err != nil {
			if d.ctx.Err() != nil {
				break
			}
			d.log.Error("accept failed", "err", err)
			d.cancel()
			d.wg.Wait()
			return fmt.Errorf("accept failed: %w", err)
		}
		go d.handle(c)
	}

	d.wg.Wait()
	d.log.Info("daemon stopped")
	return schedErr
}

// Stop cancels the daemon from inside the process.
func (d *Daemon) Stop() {
	d.cancel()
}

func (d *Daemon) handle(c net.Conn) {
	defer c.Close()

	line, err := bufio.NewReader(c).ReadString('\n')
	if err != nil {
		d.log.Warn("client read error", "err", err)
		fmt.Fprintf(c, "ERR read_error: %v\n", err)
		return
	}
	if len(line) == 0 {
		fmt.Fprint(c, "ERR empty\n")
		return
	}
	cmd := line[0]

	switch cmd {
	case bus.CmdStatus:
		st := d.sched.Status()
		fmt.Fprintf(c, "STATUS state=%s next=%s cycles=%d\n", st.State, formatTime(st.NextRun), st.Cycles)
	case bus.CmdRunNow:
		if d.sched.RunNow() {
			d.log.Info("run requested over socket")
			fmt.Fprint(c, "OK run-now\n")
		} else {
			fmt.Fprint(c, "OK already-pending\n")
		}
	case bus.CmdVersion:
		fmt.Fprintf(c, "STATUS proto=%s\n", bus.ProtoVer)
	case bus.CmdQuit:
		fmt.Fprint(c, "OK quitting\n")
		d.log.Info("quit requested over socket")
		d.cancel()
	default:
		d.log.Warn("unknown command", "cmd", string(cmd))
		fmt.Fprintf(c, "ERR unknown=%q\n", cmd)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.RFC3339)
}
