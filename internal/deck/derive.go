package deck

import (
	"fmt"
	"strings"

	"github.com/yonase/langcard/internal/clock"
	"github.com/yonase/langcard/internal/domain"
)

// FindFrontCard looks a card up by front source. Deriving a front from the
// same (postId, textIndex) twice must never create two cards; callers route
// the user to the returned card instead.
func (s *Store) FindFrontCard(postID int64, textIndex int) *domain.VocabularyCard {
	for i := range s.cards {
		if s.cards[i].HasFrontSource(postID, textIndex) {
			c := s.cards[i].Clone()
			return &c
		}
	}
	return nil
}

// AddFrontFromPost turns a post fragment into a new card front. A nil or
// deleted post, or a blank fragment, is a silent no-op returning (nil, nil).
// When a card for the same fragment already exists it is returned unchanged.
//
// The new card starts with an empty back, remember count zero, and today as
// its review date. It is persisted immediately; the back-entry requirement
// binds the editor save path, not derivation.
func (s *Store) AddFrontFromPost(post *domain.Post, textIndex int) (*domain.VocabularyCard, error) {
	if post == nil || post.IsDeleted {
		return nil, nil
	}
	content := post.FragmentContent(textIndex)
	if content == "" {
		return nil, nil
	}
	if existing := s.FindFrontCard(post.ID, textIndex); existing != nil {
		return existing, nil
	}

	text := post.Text(textIndex)
	now := s.now()
	card := domain.VocabularyCard{
		ID:                 s.allocID(),
		Front:              content,
		FrontLanguage:      text.Language,
		FrontPronunciation: text.Pronunciation,
		FrontSpeaker:       text.Speaker.Normalize(),
		FrontSource:        &domain.SourceRef{PostID: post.ID, TextIndex: textIndex},
		FromPostID:         post.ID,
		Back:               nil,
		RememberCount:      0,
		NextReviewDate:     clock.Today(s.clock),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.persist(card); err != nil {
		return nil, err
	}
	s.upsert(card)
	c := card.Clone()
	return &c, nil
}

// BackEntryFromPost builds a back entry from a post fragment. Returns nil for
// missing or blank fragments.
func BackEntryFromPost(post *domain.Post, textIndex int) *domain.BackEntry {
	text := post.Text(textIndex)
	if text == nil || strings.TrimSpace(text.Content) == "" {
		return nil
	}
	idx := textIndex
	return &domain.BackEntry{
		Content:       strings.TrimSpace(text.Content),
		Language:      text.Language,
		Pronunciation: text.Pronunciation,
		Speaker:       text.Speaker.Normalize(),
		FromPostID:    post.ID,
		TextIndex:     &idx,
	}
}

// AppendBackFromPost pushes a fragment onto an existing card's back side.
// Blank fragments and deleted posts are silent no-ops. Re-adding the same
// fragment is allowed but logged, since the UI never dedupes backs.
func (s *Store) AppendBackFromPost(cardID int64, post *domain.Post, textIndex int) (*domain.VocabularyCard, error) {
	if post == nil || post.IsDeleted {
		return nil, nil
	}
	entry := BackEntryFromPost(post, textIndex)
	if entry == nil {
		return nil, nil
	}
	c := s.find(cardID)
	if c == nil {
		return nil, fmt.Errorf("%w: id %d", ErrCardNotFound, cardID)
	}

	for _, b := range c.Back {
		if b.SameSource(post.ID, textIndex) {
			s.log.Warn("back entry already derived from this fragment",
				"cardId", cardID, "postId", post.ID, "textIndex", textIndex)
			break
		}
	}

	c.Back = append(c.Back, *entry)
	if c.NextReviewDate.IsZero() {
		c.NextReviewDate = clock.Today(s.clock)
	}
	c.UpdatedAt = s.now()
	if err := s.persist(*c); err != nil {
		return nil, err
	}
	out := c.Clone()
	return &out, nil
}

// CreateWithBack creates a card whose sole back entry comes from a fragment,
// with a caller-supplied front. This is the path taken when a back is added
// from a post that has no card yet: a back-only card is never persisted, so
// the front is mandatory here.
func (s *Store) CreateWithBack(front string, frontRef *domain.SourceRef, post *domain.Post, textIndex int) (*domain.VocabularyCard, error) {
	if post == nil || post.IsDeleted {
		return nil, nil
	}
	front = strings.TrimSpace(front)
	if front == "" {
		return nil, fmt.Errorf("%w: front must not be empty", ErrInvalidCard)
	}
	entry := BackEntryFromPost(post, textIndex)
	if entry == nil {
		return nil, nil
	}

	now := s.now()
	card := domain.VocabularyCard{
		ID:             s.allocID(),
		Front:          front,
		FrontSource:    frontRef,
		FromPostID:     post.ID,
		Back:           []domain.BackEntry{*entry},
		NextReviewDate: clock.Today(s.clock),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if frontRef != nil {
		if text := post.Text(frontRef.TextIndex); text != nil {
			card.FrontLanguage = text.Language
			card.FrontPronunciation = text.Pronunciation
			card.FrontSpeaker = text.Speaker.Normalize()
		}
	}
	if err := s.persist(card); err != nil {
		return nil, err
	}
	s.upsert(card)
	out := card.Clone()
	return &out, nil
}

// CardsFromPost returns the non-archived cards originating from a post, used
// to infer the target card when a back entry is added without one.
func (s *Store) CardsFromPost(postID int64) []domain.VocabularyCard {
	var out []domain.VocabularyCard
	for i := range s.cards {
		if s.cards[i].FromPostID == postID && !s.cards[i].IsArchived {
			out = append(out, s.cards[i].Clone())
		}
	}
	return out
}
