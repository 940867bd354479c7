package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/yonase/langcard/internal/clock"
	"github.com/yonase/langcard/internal/deck"
	"github.com/yonase/langcard/internal/domain"
	"github.com/yonase/langcard/internal/schedule"
)

var allSpeakers = []domain.Speaker{domain.SpeakerNone, domain.SpeakerMe, domain.SpeakerFriend, domain.SpeakerStaff, domain.SpeakerOther}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// handleDeck renders the card list with the active filter and sort order.
func (s *Server) handleDeck(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := r.URL.Query()
	filter := deck.Filter{
		Query:           q.Get("q"),
		Language:        q.Get("language"),
		Speaker:         domain.Speaker(q.Get("speaker")),
		IncludeArchived: q.Get("archived") == "1",
	}
	order := deck.ParseSortOrder(q.Get("sort"))
	cards := s.store.Select(filter, order)

	today := s.sched.Today()
	data := map[string]interface{}{
		"Cards":    cards,
		"Total":    s.store.Count(),
		"DueCount": len(schedule.DueCards(s.store.All(), today)),
		"Today":    today,
		"Query":    q.Get("q"),
		"Language": q.Get("language"),
		"Speaker":  q.Get("speaker"),
		"Archived": filter.IncludeArchived,
		"Sort":     q.Get("sort"),
		"Speakers": allSpeakers,
	}
	s.render(w, "deck", data)
}

// handleCardForm renders the editor, blank for /cards/new.
func (s *Server) handleCardForm(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := map[string]interface{}{
		"Card":      domain.VocabularyCard{},
		"Speakers":  allSpeakers,
		"BlankRows": make([]int, 3),
	}
	if idStr := r.PathValue("id"); idStr != "" {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			http.Error(w, "Invalid card ID", http.StatusBadRequest)
			return
		}
		card, err := s.store.Get(id)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		data["Card"] = card
		data["BlankRows"] = make([]int, 1)
	}
	s.render(w, "card_edit", data)
}

// handleCardSave creates or updates a card from the editor form. The full
// validity gate applies here: a card needs a front and at least one
// non-blank back to be saved directly.
func (s *Server) handleCardSave(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad form", http.StatusBadRequest)
		return
	}

	var card domain.VocabularyCard
	if idStr := r.PathValue("id"); idStr != "" {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			http.Error(w, "Invalid card ID", http.StatusBadRequest)
			return
		}
		existing, err := s.store.Get(id)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		card = existing
	}

	card.Front = strings.TrimSpace(r.PostFormValue("front"))
	card.FrontLanguage = r.PostFormValue("front_language")
	card.FrontPronunciation = r.PostFormValue("front_pronunciation")
	card.FrontSpeaker = domain.Speaker(r.PostFormValue("front_speaker"))
	card.Tags = splitTags(r.PostFormValue("tags"))
	card.IsArchived = r.PostFormValue("archived") == "1"

	next := clock.DayKey(strings.TrimSpace(r.PostFormValue("next_review_date")))
	if !next.IsZero() && !next.Valid() {
		http.Error(w, "Invalid review date", http.StatusBadRequest)
		return
	}
	card.NextReviewDate = next

	contents := r.PostForm["back_content"]
	languages := r.PostForm["back_language"]
	pronunciations := r.PostForm["back_pronunciation"]
	speakers := r.PostForm["back_speaker"]
	card.Back = nil
	for i, content := range contents {
		if strings.TrimSpace(content) == "" {
			continue
		}
		e := domain.BackEntry{Content: content}
		if i < len(languages) {
			e.Language = languages[i]
		}
		if i < len(pronunciations) {
			e.Pronunciation = pronunciations[i]
		}
		if i < len(speakers) {
			e.Speaker = domain.Speaker(speakers[i])
		}
		card.Back = append(card.Back, e)
	}

	saved, err := s.store.Save(card)
	if err != nil {
		if errors.Is(err, deck.ErrInvalidCard) {
			http.Error(w, "A card needs a front and at least one back entry", http.StatusBadRequest)
			return
		}
		s.internalError(w, "failed to save card", err)
		return
	}
	if saved.IsArchived {
		s.session.HandleDelete(saved.ID)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleCardArchive(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid card ID", http.StatusBadRequest)
		return
	}
	card, err := s.store.Get(id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := s.store.SetArchived(id, !card.IsArchived); err != nil {
		s.internalError(w, "failed to toggle archive", err)
		return
	}
	if !card.IsArchived {
		// Archiving removes the card from the current review pass too.
		s.session.HandleDelete(id)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleCardDelete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid card ID", http.StatusBadRequest)
		return
	}
	if err := s.store.Delete(id); err != nil {
		if errors.Is(err, deck.ErrCardNotFound) {
			http.NotFound(w, r)
			return
		}
		s.internalError(w, "failed to delete card", err)
		return
	}
	s.session.HandleDelete(id)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func splitTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
