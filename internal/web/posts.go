package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/yonase/langcard/internal/deck"
	"github.com/yonase/langcard/internal/domain"
)

// postView pairs a post with the cards already derived from it, so the
// template can offer them as back-entry targets.
type postView struct {
	Post  domain.Post
	Cards []domain.VocabularyCard
}

// handlePosts renders the journal with per-fragment derivation controls.
func (s *Server) handlePosts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts, err := s.db.AllPosts()
	if err != nil {
		s.internalError(w, "failed to load posts", err)
		return
	}
	views := make([]postView, 0, len(posts))
	for _, p := range posts {
		if p.IsDeleted {
			continue
		}
		views = append(views, postView{Post: p, Cards: s.store.CardsFromPost(p.ID)})
	}
	s.render(w, "posts", map[string]interface{}{
		"Posts": views,
	})
}

func (s *Server) postAndIndex(w http.ResponseWriter, r *http.Request) (*domain.Post, int, bool) {
	postID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid post ID", http.StatusBadRequest)
		return nil, 0, false
	}
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		http.Error(w, "Invalid text index", http.StatusBadRequest)
		return nil, 0, false
	}
	post, err := s.db.PostByID(postID)
	if err != nil {
		s.internalError(w, "failed to load post", err)
		return nil, 0, false
	}
	return post, index, true
}

// handleDeriveFront makes a fragment the front of a card. Deriving the same
// fragment again just lands on the existing card's editor.
func (s *Server) handleDeriveFront(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, index, ok := s.postAndIndex(w, r)
	if !ok {
		return
	}
	card, err := s.store.AddFrontFromPost(post, index)
	if err != nil {
		s.internalError(w, "failed to derive card front", err)
		return
	}
	if card == nil {
		// deleted post or blank fragment
		http.Redirect(w, r, "/posts", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/cards/%d/edit", card.ID), http.StatusSeeOther)
}

// handleDeriveBack appends a fragment to a card's back side. The target is
// either an existing card picked in the form or a brand new card created
// from a typed front.
func (s *Server) handleDeriveBack(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, index, ok := s.postAndIndex(w, r)
	if !ok {
		return
	}

	if idStr := r.PostFormValue("card_id"); idStr != "" {
		cardID, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			http.Error(w, "Invalid card ID", http.StatusBadRequest)
			return
		}
		if _, err := s.store.AppendBackFromPost(cardID, post, index); err != nil {
			if errors.Is(err, deck.ErrCardNotFound) {
				http.NotFound(w, r)
				return
			}
			s.internalError(w, "failed to append back entry", err)
			return
		}
		http.Redirect(w, r, "/posts", http.StatusSeeOther)
		return
	}

	front := strings.TrimSpace(r.PostFormValue("front"))
	if front == "" {
		http.Error(w, "Pick a card or type a front for a new one", http.StatusBadRequest)
		return
	}
	if _, err := s.store.CreateWithBack(front, nil, post, index); err != nil {
		if errors.Is(err, deck.ErrInvalidCard) {
			http.Error(w, "The new card needs a front", http.StatusBadRequest)
			return
		}
		s.internalError(w, "failed to create card", err)
		return
	}
	http.Redirect(w, r, "/posts", http.StatusSeeOther)
}
