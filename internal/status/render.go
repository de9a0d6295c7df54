package status

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/muesli/termenv"

	"github.com/leonardotrapani/audiodiary/internal/tui"
)

// ColorEnabled reports whether stdout can show colours and the user did not
// opt out.
func ColorEnabled(noColor bool) bool {
	if noColor {
		return false
	}
	return termenv.NewOutput(os.Stdout).ColorProfile() != termenv.Ascii
}

// Render writes the report. Without colour every style degrades to plain
// text.
func Render(w io.Writer, r *Report, color bool) {
	if !color {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	fmt.Fprintln(w, tui.Logo())

	section(w, "Scheduler")
	s := r.Scheduler
	state := tui.StyleFailed.Render("not running")
	if s.Running {
		state = tui.StyleDone.Render(fmt.Sprintf("running (pid %d)", s.PID))
	}
	field(w, "State", state)
	if s.Once {
		field(w, "Cadence", "single run (runsPerDay = 0)")
	} else {
		field(w, "Cadence", fmt.Sprintf("%d runs per day, every %s", s.RunsPerDay, s.Interval))
	}
	if s.LastStart.IsZero() {
		field(w, "Last run", tui.StyleFaded.Render("never"))
	} else {
		field(w, "Last run", fmt.Sprintf("%s (%s)", s.LastStart.Format("2006-01-02 15:04"), humanize.RelTime(s.LastStart, r.GeneratedAt, "ago", "from now")))
	}
	if !s.NextRun.IsZero() {
		next := fmt.Sprintf("%s (%s)", s.NextRun.Format("2006-01-02 15:04"), humanize.RelTime(s.NextRun, r.GeneratedAt, "ago", "from now"))
		if s.NextRun.Before(r.GeneratedAt) {
			next = tui.StylePending.Render(next + " overdue")
		}
		field(w, "Next run", next)
	}
	field(w, "Diary date", s.CurrentDate)
	field(w, "Log file", tui.StyleFaded.Render(s.LogFile))

	section(w, "Transcription")
	field(w, "Model", tui.StyleChosen.Render(r.Model.Type))
	field(w, "Endpoint", r.Model.Endpoint)
	for _, p := range r.Model.Params {
		field(w, p[0], p[1])
	}

	section(w, "Organizer")
	o := r.Organizer
	field(w, "Model", tui.StyleChosen.Render(o.Model))
	field(w, "Sampling", fmt.Sprintf("temperature %v, top_p %v, max %d tokens", o.Temperature, o.TopP, o.MaxTokens))
	field(w, "Retries", fmt.Sprintf("%d attempts, cache %s", o.MaxAttempts, onOff(o.EnableCache)))

	section(w, "API key")
	if r.APIKey.Masked == "" {
		field(w, "OpenAI", tui.StyleFailed.Render("missing"))
	} else {
		field(w, "OpenAI", fmt.Sprintf("%s from %s", r.APIKey.Masked, r.APIKey.Source))
	}

	section(w, "Tools")
	for _, t := range r.Tools {
		if t.Status.Installed {
			field(w, t.Tool.Name, tui.StyleDone.Render("✓ ")+tui.StyleFaded.Render(firstNonEmpty(t.Status.Version, t.Status.Path)))
		} else {
			field(w, t.Tool.Name, tui.StylePending.Render("✗ not found")+tui.StyleHint.Render(" ("+t.Tool.Purpose+")"))
		}
	}

	if f := r.Files; f != nil {
		section(w, "Files")
		field(w, "Waiting audio", fmt.Sprint(f.Downloads))
		field(w, "Processed audio", fmt.Sprint(f.Processed))
		field(w, "Transcripts", fmt.Sprintf("%d%s", f.Audits, breakdown(f.AuditsByModel)))
		field(w, "Diary files", fmt.Sprintf("%d (%s)", f.DiaryFiles, humanize.Bytes(uint64(f.DiaryBytes))))
		field(w, "To-do items", fmt.Sprint(f.Todos))
		if f.InboxBytes > 0 {
			field(w, "Pending inbox", tui.StylePending.Render(humanize.Bytes(uint64(f.InboxBytes))))
		} else {
			field(w, "Pending inbox", "empty")
		}
	}

	if len(r.Costs) > 0 {
		section(w, "Cost estimates")
		fmt.Fprintln(w, tui.StyleFaded.Render(fmt.Sprintf("  USD per 1K tokens (input / output), typical %s-token entry", humanize.Comma(TypicalEntryTokens))))
		for _, c := range r.Costs {
			line := fmt.Sprintf("$%.3f / $%.3f   ~$%.4f per entry", c.Input, c.Output, c.Typical)
			if c.Model == o.Model {
				line = tui.StyleCurrent.Render(line + "  (current)")
			}
			field(w, c.Model, line)
		}
	}
	fmt.Fprintln(w)
}

func section(w io.Writer, title string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, tui.Section(title))
}

func field(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %s %s\n", tui.StyleLabel.Render(fmt.Sprintf("%-16s", label+":")), value)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func breakdown(byModel map[string]int) string {
	if len(byModel) == 0 {
		return ""
	}
	names := make([]string, 0, len(byModel))
	for n := range byModel {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, n := range names {
		parts = append(parts, fmt.Sprintf("%s: %d", n, byModel[n]))
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

// Age is a short humanized duration since t, used by other reports.
func Age(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
