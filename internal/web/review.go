package web

import (
	"errors"
	"net/http"

	"github.com/yonase/langcard/internal/deck"
	"github.com/yonase/langcard/internal/review"
)

// handleReview renders the current state of today's review pass.
func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session.Refresh()
	data := map[string]interface{}{
		"State":     s.session.State().String(),
		"Position":  s.session.Position(),
		"Total":     s.session.Len(),
		"ShowFront": s.session.ShowingFront(),
	}
	if card := s.session.Current(); card != nil {
		data["Card"] = card
	}
	s.render(w, "review", data)
}

func (s *Server) handleReviewFlip(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.session.Flip()
	s.mu.Unlock()
	http.Redirect(w, r, "/review", http.StatusSeeOther)
}

// handleReviewAnswer records know/dont_know for the current card. The
// session has already advanced when persistence fails, so the failure is
// logged and the user keeps reviewing.
func (s *Server) handleReviewAnswer(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	outcome := review.Know
	if r.PostFormValue("outcome") == "dont_know" {
		outcome = review.DontKnow
	}
	if err := s.session.Answer(outcome); err != nil {
		if errors.Is(err, deck.ErrPersistence) {
			s.log.Error("failed to persist review answer", "error", err)
		} else {
			s.internalError(w, "failed to record answer", err)
			return
		}
	}
	http.Redirect(w, r, "/review", http.StatusSeeOther)
}
