// Package web serves the deck, review, and source management UI.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/yonase/langcard/internal/deck"
	"github.com/yonase/langcard/internal/review"
	"github.com/yonase/langcard/internal/schedule"
	"github.com/yonase/langcard/internal/storage"
	syncer "github.com/yonase/langcard/internal/sync"
)

//go:embed all:static
var staticFiles embed.FS

//go:embed all:templates
var templateFiles embed.FS

// Server holds the dependencies for the HTTP server. A single mutex
// serializes every handler that touches the store or the review session:
// this is a single-user tool and the session model assumes one logical
// owner at a time.
type Server struct {
	db        *storage.DB
	store     *deck.Store
	session   *review.Session
	sched     *schedule.Scheduler
	syncer    *syncer.Syncer
	log       *slog.Logger
	templates *template.Template
	router    *http.ServeMux
	mu        sync.Mutex
}

// NewServer creates and configures a new server.
func NewServer(db *storage.DB, store *deck.Store, session *review.Session, sched *schedule.Scheduler, sy *syncer.Syncer, log *slog.Logger) (*Server, error) {
	if log == nil {
		log = slog.Default()
	}
	tpl, err := template.ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		db:        db,
		store:     store,
		session:   session,
		sched:     sched,
		syncer:    sy,
		log:       log,
		templates: tpl,
		router:    http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		// embed guarantees the directory exists
		panic(err)
	}
	s.router.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	s.router.HandleFunc("GET /{$}", s.handleDeck)
	s.router.HandleFunc("GET /cards/new", s.handleCardForm)
	s.router.HandleFunc("POST /cards", s.handleCardSave)
	s.router.HandleFunc("GET /cards/{id}/edit", s.handleCardForm)
	s.router.HandleFunc("POST /cards/{id}", s.handleCardSave)
	s.router.HandleFunc("POST /cards/{id}/archive", s.handleCardArchive)
	s.router.HandleFunc("POST /cards/{id}/delete", s.handleCardDelete)

	s.router.HandleFunc("GET /posts", s.handlePosts)
	s.router.HandleFunc("POST /posts/{id}/texts/{index}/front", s.handleDeriveFront)
	s.router.HandleFunc("POST /posts/{id}/texts/{index}/back", s.handleDeriveBack)

	s.router.HandleFunc("GET /review", s.handleReview)
	s.router.HandleFunc("POST /review/flip", s.handleReviewFlip)
	s.router.HandleFunc("POST /review/answer", s.handleReviewAnswer)

	s.router.HandleFunc("GET /sources", s.handleSources)
	s.router.HandleFunc("POST /sources", s.handleSourceAdd)
	s.router.HandleFunc("POST /sources/{id}/delete", s.handleSourceDelete)
	s.router.HandleFunc("POST /sync", s.handleSync)

	s.router.HandleFunc("GET /export", s.handleExport)
	s.router.HandleFunc("POST /import", s.handleImport)
}

// StartJobs runs the background schedule: the review session is refreshed
// just after midnight so the new day's due set is ready, and sources are
// synced on the configured interval.
func (s *Server) StartJobs(autoSyncEvery time.Duration) *gocron.Scheduler {
	jobs := gocron.NewScheduler(time.Local)

	jobs.Every(1).Day().At("00:00").Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.session.Refresh()
		s.log.Info("review session refreshed for new day", "due", s.session.Len())
	})

	if autoSyncEvery > 0 {
		jobs.Every(autoSyncEvery).Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, err := s.syncer.RunAll(); err != nil {
				s.log.Error("scheduled sync failed", "error", err)
			}
		})
	}

	jobs.StartAsync()
	return jobs
}

func (s *Server) render(w http.ResponseWriter, name string, data interface{}) {
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.log.Error("template render failed", "template", name, "error", err)
	}
}

func (s *Server) internalError(w http.ResponseWriter, msg string, err error) {
	s.log.Error(msg, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
