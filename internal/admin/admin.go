// Package admin serves the single-page administration UI: run the cleanup,
// set its schedule and read or clear the report history.
package admin

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cleanmeta/internal/cleaner"
	"cleanmeta/internal/model"
)

//go:embed templates/page.html
var templateFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templateFS, "templates/page.html"))

// Runner runs a full batch cleanup.
type Runner interface {
	CleanAll(ctx context.Context, opts cleaner.RunOptions) (string, error)
}

// History is the report log shown on the page.
type History interface {
	List(ctx context.Context) ([]model.LogEntry, error)
	Clear(ctx context.Context) error
}

// Schedule reads and changes the recurring cleanup.
type Schedule interface {
	Config(ctx context.Context) (model.ScheduleConfig, error)
	Update(ctx context.Context, days int) error
	NextRun() (time.Time, bool)
}

// Server is the admin HTTP surface.
type Server struct {
	runner   Runner
	history  History
	schedule Schedule
	log      *slog.Logger

	Username string
	Password string
}

// New creates a Server. Basic auth is enforced when Username or Password is set.
func New(runner Runner, history History, schedule Schedule, log *slog.Logger) *Server {
	return &Server{
		runner:   runner,
		history:  history,
		schedule: schedule,
		log:      log,
	}
}

// Handler returns the HTTP handler of the admin page.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.basicAuth(s.handlePage))
	mux.HandleFunc("POST /{$}", s.basicAuth(s.handleAction))
	return mux
}

// Run serves the admin page on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("admin page listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve admin: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown admin: %w", err)
		}
		return nil
	}
}

type notice struct {
	Status  model.ReportStatus
	Message string
}

type pageData struct {
	Notices      []notice
	ScheduleDays int
	HasNextRun   bool
	NextRun      string
	Logs         []model.LogEntry
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	var notices []notice
	if r.URL.Query().Has("cleared") {
		notices = append(notices, notice{Status: model.StatusSuccess, Message: "Logs cleared."})
	}
	s.render(w, r, notices)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ctx := r.Context()

	if r.PostForm.Has("clear_log") {
		if err := s.history.Clear(ctx); err != nil {
			s.log.Error("clear log", "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, "/?cleared=1", http.StatusSeeOther)
		return
	}

	var notices []notice
	if r.PostForm.Has("clean_now") {
		if _, err := s.runner.CleanAll(ctx, cleaner.RunOptions{Record: true}); err != nil {
			s.log.Error("manual cleanup", "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		notices = append(notices, notice{Status: model.StatusSuccess, Message: "Manual cleanup complete."})
	}

	if r.PostForm.Has("schedule_days") {
		days, err := strconv.Atoi(strings.TrimSpace(r.PostForm.Get("schedule_days")))
		if err != nil || days <= 0 {
			notices = append(notices, notice{Status: model.StatusError, Message: "Schedule must be a positive number of days."})
		} else if err := s.schedule.Update(ctx, days); err != nil {
			s.log.Error("update schedule", "days", days, "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		} else {
			notices = append(notices, notice{Status: model.StatusSuccess, Message: fmt.Sprintf("Cleanup scheduled every %d days.", days)})
		}
	}

	s.render(w, r, notices)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, notices []notice) {
	ctx := r.Context()

	cfg, err := s.schedule.Config(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	logs, err := s.history.List(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := pageData{
		Notices:      notices,
		ScheduleDays: cfg.IntervalDays,
		Logs:         logs,
	}
	if next, ok := s.schedule.NextRun(); ok {
		data.HasNextRun = true
		data.NextRun = next.Format(model.LogTimeLayout)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTmpl.Execute(w, data); err != nil {
		s.log.Error("render admin page", "error", err)
	}
}

func (s *Server) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" {
			next(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
