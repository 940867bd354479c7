package web

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/yonase/langcard/internal/transfer"
)

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.db.AllSources()
	if err != nil {
		s.internalError(w, "failed to list sources", err)
		return
	}
	s.render(w, "sources", map[string]interface{}{
		"Sources": sources,
	})
}

func (s *Server) handleSourceAdd(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSpace(r.PostFormValue("path"))
	if path == "" {
		http.Error(w, "Path cannot be empty", http.StatusBadRequest)
		return
	}

	existing, err := s.db.FindSourceByPath(path)
	if err != nil {
		s.internalError(w, "failed to check source", err)
		return
	}
	if existing == nil {
		if _, err := s.db.InsertSource(path); err != nil {
			s.internalError(w, "failed to add source", err)
			return
		}
	}
	http.Redirect(w, r, "/sources", http.StatusSeeOther)
}

func (s *Server) handleSourceDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid source ID", http.StatusBadRequest)
		return
	}
	if err := s.db.DeleteSource(id); err != nil {
		s.internalError(w, "failed to delete source", err)
		return
	}
	http.Redirect(w, r, "/sources", http.StatusSeeOther)
}

// handleSync runs a full sync in the foreground so the redirect lands on an
// up-to-date source list.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.syncer.RunAll(); err != nil {
		s.internalError(w, "sync failed", err)
		return
	}
	http.Redirect(w, r, "/sources", http.StatusSeeOther)
}

// handleExport downloads the full journal as a JSON payload.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts, err := s.db.AllPosts()
	if err != nil {
		s.internalError(w, "failed to load posts for export", err)
		return
	}
	now := s.sched.Now()
	data, err := transfer.Export(s.store.All(), posts, now)
	if err != nil {
		s.internalError(w, "failed to build export", err)
		return
	}

	filename := fmt.Sprintf("langcard-export-%s.json", s.sched.Today())
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(data)
}

// handleImport merges an uploaded export file.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing upload", http.StatusBadRequest)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		s.internalError(w, "failed to read upload", err)
		return
	}
	payload, err := transfer.Parse(data)
	if err != nil {
		http.Error(w, "Not a recognizable export file", http.StatusBadRequest)
		return
	}
	cards, posts, err := s.syncer.MergePayload(payload)
	if err != nil {
		s.internalError(w, "failed to merge import", err)
		return
	}
	s.log.Info("import merged", "cards", cards, "posts", posts)
	http.Redirect(w, r, "/sources", http.StatusSeeOther)
}
