// Package deck holds the vocabulary card collection: identity assignment,
// the persistence round-trip, derivation of cards from journal fragments,
// and the filtered/sorted views used by the management UI.
package deck

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/yonase/langcard/internal/clock"
	"github.com/yonase/langcard/internal/domain"
)

// Persister is the storage collaborator. The store treats it as synchronous
// and authoritative but does not care about its format.
type Persister interface {
	LoadAll() ([]domain.VocabularyCard, error)
	SaveCard(domain.VocabularyCard) error
	DeleteCard(id int64) error
}

// Store owns the card collection. There is no ambient singleton: every
// component that needs cards takes a *Store explicitly. A single logical
// owner mutates it at a time; multi-goroutine hosts must serialize access.
type Store struct {
	persister Persister
	clock     clock.Clock
	log       *slog.Logger

	cards  []domain.VocabularyCard
	nextID int64
}

// NewStore loads the full collection from the persister. Identity assignment
// resumes above the highest loaded id.
func NewStore(p Persister, c clock.Clock, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	cards, err := p.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: loading cards: %v", ErrPersistence, err)
	}
	s := &Store{persister: p, clock: c, log: log, cards: cards, nextID: 1}
	for _, card := range cards {
		if card.ID >= s.nextID {
			s.nextID = card.ID + 1
		}
	}
	return s, nil
}

// Count returns the number of cards in the collection.
func (s *Store) Count() int { return len(s.cards) }

// All returns a copy of every card in load order.
func (s *Store) All() []domain.VocabularyCard {
	out := make([]domain.VocabularyCard, len(s.cards))
	for i, c := range s.cards {
		out[i] = c.Clone()
	}
	return out
}

// Get returns a copy of the card with the given id.
func (s *Store) Get(id int64) (domain.VocabularyCard, error) {
	if c := s.find(id); c != nil {
		return c.Clone(), nil
	}
	return domain.VocabularyCard{}, fmt.Errorf("%w: id %d", ErrCardNotFound, id)
}

// Save upserts a card through the editor path. It enforces the full
// persistence precondition: non-empty front and at least one back entry with
// content. New cards (id 0) are assigned the next id.
func (s *Store) Save(card domain.VocabularyCard) (domain.VocabularyCard, error) {
	card.FrontSpeaker = card.FrontSpeaker.Normalize()
	for i := range card.Back {
		card.Back[i].Speaker = card.Back[i].Speaker.Normalize()
	}
	if err := domain.ValidateCard(card); err != nil {
		return domain.VocabularyCard{}, err
	}

	now := s.clock.Now()
	if card.ID == 0 {
		card.ID = s.allocID()
		if card.CreatedAt.IsZero() {
			card.CreatedAt = now
		}
	} else if card.ID >= s.nextID {
		s.nextID = card.ID + 1
	}
	card.UpdatedAt = now

	if err := s.persist(card); err != nil {
		return domain.VocabularyCard{}, err
	}
	s.upsert(card)
	return card.Clone(), nil
}

// Mutate applies fn to the card in place, bumps UpdatedAt, and persists.
// It is the path the scheduler and archive toggles go through; it does not
// re-run the editor validation gate.
func (s *Store) Mutate(id int64, fn func(*domain.VocabularyCard)) (domain.VocabularyCard, error) {
	c := s.find(id)
	if c == nil {
		return domain.VocabularyCard{}, fmt.Errorf("%w: id %d", ErrCardNotFound, id)
	}
	fn(c)
	c.UpdatedAt = s.clock.Now()
	if err := s.persist(*c); err != nil {
		// Memory keeps the change; the caller decides what to do.
		return c.Clone(), err
	}
	return c.Clone(), nil
}

// SetArchived flips the archive flag. Archived cards drop out of due sets
// and default list views but stay in the collection.
func (s *Store) SetArchived(id int64, archived bool) error {
	_, err := s.Mutate(id, func(c *domain.VocabularyCard) {
		c.IsArchived = archived
	})
	return err
}

// Delete removes a card permanently.
func (s *Store) Delete(id int64) error {
	idx := -1
	for i := range s.cards {
		if s.cards[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: id %d", ErrCardNotFound, id)
	}
	if err := s.persister.DeleteCard(id); err != nil {
		return fmt.Errorf("%w: deleting card %d: %v", ErrPersistence, id, err)
	}
	s.cards = append(s.cards[:idx], s.cards[idx+1:]...)
	return nil
}

// Replace swaps in an externally merged card (import/sync). The id is kept;
// ids above the current counter advance it.
func (s *Store) Replace(card domain.VocabularyCard) error {
	if card.ID == 0 {
		card.ID = s.allocID()
	} else if card.ID >= s.nextID {
		s.nextID = card.ID + 1
	}
	if err := s.persist(card); err != nil {
		return err
	}
	s.upsert(card)
	return nil
}

func (s *Store) allocID() int64 {
	id := s.nextID
	s.nextID++
	return id
}

func (s *Store) find(id int64) *domain.VocabularyCard {
	for i := range s.cards {
		if s.cards[i].ID == id {
			return &s.cards[i]
		}
	}
	return nil
}

func (s *Store) upsert(card domain.VocabularyCard) {
	if c := s.find(card.ID); c != nil {
		*c = card
		return
	}
	s.cards = append(s.cards, card)
}

func (s *Store) persist(card domain.VocabularyCard) error {
	if err := s.persister.SaveCard(card); err != nil {
		return fmt.Errorf("%w: saving card %d: %v", ErrPersistence, card.ID, err)
	}
	return nil
}

func (s *Store) now() time.Time { return s.clock.Now() }
