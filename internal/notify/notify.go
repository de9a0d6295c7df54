package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	execute "github.com/alexellis/go-execute/v2"
	"github.com/charmbracelet/log"
)

const appName = "Audio Diary"

type Notifier interface {
	CycleFinished(ok bool, summary string)
	Error(msg string)
}

// New returns a Desktop notifier when enabled and Nop otherwise.
func New(enabled bool, logger *log.Logger) Notifier {
	if !enabled {
		return Nop{}
	}
	return Desktop{log: logger.WithPrefix("notify")}
}

// Desktop sends notifications through notify-send.
type Desktop struct {
	log *log.Logger
}

func (d Desktop) CycleFinished(ok bool, summary string) {
	urgency := "normal"
	title := appName + ": diary updated"
	if !ok {
		urgency = "critical"
		title = appName + ": cycle had errors"
	}
	d.send("-a", appName, "-u", urgency, title, summary)
}

func (d Desktop) Error(msg string) {
	d.send("-a", appName, "-u", "critical", msg)
}

func (d Desktop) send(args ...string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	task := execute.ExecTask{
		Command: "notify-send",
		Args:    args,
	}
	res, err := task.Execute(ctx)
	if err == nil && res.ExitCode != 0 {
		err = fmt.Errorf("notify-send exited with code %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	if err != nil && d.log != nil {
		d.log.Warn("failed to send notification", "err", err)
	}
}

// Nop is a Notifier that does absolutely nothing.
// Useful in unit tests or headless builds.
type Nop struct{}

func (Nop) CycleFinished(ok bool, summary string) {}
func (Nop) Error(msg string)                      {}
