package dashboard

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/leonardotrapani/audiodiary/internal/config"
)

const (
	DefaultLogLimit = 20
	MaxLogLimit     = 200
)

// RunsStore is the part of the config store the dashboard edits.
type RunsStore interface {
	Load() (*config.Config, error)
	SetRunsPerDay(n int) (*config.Config, error)
}

type Server struct {
	store   RunsStore
	control Controller
	actions ActionLog
	log     *log.Logger
	engine  *gin.Engine
}

func NewServer(store RunsStore, control Controller, actions ActionLog, logger *log.Logger) *Server {
	s := &Server{
		store:   store,
		control: control,
		actions: actions,
		log:     logger.WithPrefix("dashboard"),
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/", s.index)
	api := r.Group("/api")
	api.GET("/status", s.status)
	api.POST("/toggle", s.toggle)
	api.POST("/run-now", s.runNow)
	api.PUT("/runs-per-day", s.setRunsPerDay)
	api.GET("/logs", s.logs)

	s.engine = r
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("dashboard listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"took", time.Since(start),
		)
	}
}

func (s *Server) status(c *gin.Context) {
	ctx := c.Request.Context()
	ps := s.control.Status()

	body := gin.H{
		"is_running":   ps.Running,
		"pid":          nil,
		"last_started": nil,
		"last_stopped": nil,
		"runs_per_day": nil,
		"current_date": nil,
	}
	if ps.Running {
		body["pid"] = ps.PID
	}
	if t, ok, err := s.actions.Last(ctx, ActionStart); err == nil && ok {
		body["last_started"] = t.Format(time.RFC3339)
	}
	if t, ok, err := s.actions.Last(ctx, ActionStop); err == nil && ok {
		body["last_stopped"] = t.Format(time.RFC3339)
	}

	cfg, err := s.store.Load()
	if err != nil {
		s.log.Warn("failed to load config", "error", err)
		body["error"] = err.Error()
	} else {
		body["runs_per_day"] = cfg.Scheduler.RunsPerDay
		body["current_date"] = cfg.DiaryManager.CurrentDate
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) toggle(c *gin.Context) {
	ctx := c.Request.Context()

	if s.control.Status().Running {
		if err := s.control.Stop(); err != nil {
			s.log.Error("failed to stop scheduler", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		s.record(ctx, ActionStop, "")
		c.JSON(http.StatusOK, gin.H{"is_running": false})
		return
	}

	if err := s.control.Start(ctx); err != nil {
		s.log.Error("failed to start scheduler", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.record(ctx, ActionStart, "")
	c.JSON(http.StatusOK, gin.H{"is_running": true})
}

func (s *Server) runNow(c *gin.Context) {
	if !s.control.Status().Running {
		c.JSON(http.StatusConflict, gin.H{"error": "scheduler is not running"})
		return
	}
	if err := s.control.RunNow(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.record(c.Request.Context(), ActionRunNow, "")
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type runsRequest struct {
	RunsPerDay *int `json:"runs_per_day"`
}

func (s *Server) setRunsPerDay(c *gin.Context) {
	var req runsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RunsPerDay == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be {\"runs_per_day\": <int>}"})
		return
	}
	if *req.RunsPerDay < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "runs_per_day must be >= 0"})
		return
	}

	cfg, err := s.store.SetRunsPerDay(*req.RunsPerDay)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.record(c.Request.Context(), ActionUpdateRuns, strconv.Itoa(cfg.Scheduler.RunsPerDay))
	c.JSON(http.StatusOK, gin.H{"runs_per_day": cfg.Scheduler.RunsPerDay})
}

func (s *Server) logs(c *gin.Context) {
	limit := DefaultLogLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, MaxLogLimit)
	}

	actions, err := s.actions.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"actions": actions})
}

// record never fails the request; the action already happened.
func (s *Server) record(ctx context.Context, kind, detail string) {
	if err := s.actions.Record(ctx, kind, detail); err != nil {
		s.log.Warn("failed to record action", "action", kind, "error", err)
	}
}

func (s *Server) index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexPage))
}

const indexPage = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>audiodiary</title></head>
<body style="font-family: sans-serif; max-width: 40em; margin: 2em auto">
<h1>audiodiary</h1>
<pre id="status">loading...</pre>
<button onclick="post('/api/toggle')">start / stop</button>
<button onclick="post('/api/run-now')">run now</button>
<p>
  runs per day <input id="runs" type="number" min="0" style="width: 5em">
  <button onclick="setRuns()">save</button>
</p>
<h2>recent actions</h2>
<pre id="logs"></pre>
<script>
async function refresh() {
  const s = await (await fetch('/api/status')).json();
  document.getElementById('status').textContent = JSON.stringify(s, null, 2);
  if (s.runs_per_day !== null) document.getElementById('runs').value = s.runs_per_day;
  const l = await (await fetch('/api/logs')).json();
  document.getElementById('logs').textContent =
    (l.actions || []).map(a => a.timestamp + '  ' + a.action + (a.detail ? ' ' + a.detail : '')).join('\n');
}
async function post(path) { await fetch(path, {method: 'POST'}); refresh(); }
async function setRuns() {
  const n = parseInt(document.getElementById('runs').value, 10);
  await fetch('/api/runs-per-day', {method: 'PUT', headers: {'Content-Type': 'application/json'},
    body: JSON.stringify({runs_per_day: n})});
  refresh();
}
refresh();
setInterval(refresh, 5000);
</script>
</body>
</html>
`
