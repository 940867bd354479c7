// Package schedule decides when a card is next due and which cards are due
// today.
//
// The schedule is a fixed lookup keyed by the remember count after the
// answer: counts 0 and 1 reschedule one day out, 2 reschedules seven days
// out, and everything from 3 up reschedules thirty days out. The table
// plateaus on purpose: once a card reaches the thirty-day tier every further
// "know" stays at thirty days. This is a deliberate simplification over
// adaptive spaced-repetition algorithms, not a bug to grow past.
package schedule

import (
	"time"

	"github.com/yonase/langcard/internal/clock"
	"github.com/yonase/langcard/internal/domain"
)

// Scheduler applies the due-date table to cards.
type Scheduler struct {
	clock clock.Clock
}

// New returns a Scheduler reading "today" from the given clock.
func New(c clock.Clock) *Scheduler {
	return &Scheduler{clock: c}
}

// offsetDays returns the scheduling offset for the remember count reached
// after an answer.
func offsetDays(rememberCount int) int {
	switch {
	case rememberCount <= 1:
		return 1
	case rememberCount == 2:
		return 7
	default:
		return 30
	}
}

// NextReviewDate returns today plus the table offset for the given count.
func (s *Scheduler) NextReviewDate(rememberCount int) clock.DayKey {
	return clock.Today(s.clock).AddDays(offsetDays(rememberCount))
}

// OnKnow records a successful answer: the remember count increments and the
// card is rescheduled by the table offset for the new count.
func (s *Scheduler) OnKnow(card *domain.VocabularyCard) {
	card.RememberCount++
	card.NextReviewDate = s.NextReviewDate(card.RememberCount)
	card.UpdatedAt = s.clock.Now()
}

// OnDontKnow records a failed answer: the remember count resets to zero and
// the card comes back tomorrow.
func (s *Scheduler) OnDontKnow(card *domain.VocabularyCard) {
	card.RememberCount = 0
	card.NextReviewDate = clock.Today(s.clock).AddDays(1)
	card.UpdatedAt = s.clock.Now()
}

// IsDue reports whether the card should be reviewed on the given day.
// Unscheduled cards are due immediately; archived cards are never due.
func IsDue(card domain.VocabularyCard, today clock.DayKey) bool {
	if card.IsArchived {
		return false
	}
	return card.NextReviewDate.IsZero() || card.NextReviewDate <= today
}

// DueCards returns the cards due on the given day. Order is unspecified;
// the review session shuffles its own snapshot.
func DueCards(cards []domain.VocabularyCard, today clock.DayKey) []domain.VocabularyCard {
	var due []domain.VocabularyCard
	for _, c := range cards {
		if IsDue(c, today) {
			due = append(due, c)
		}
	}
	return due
}

// Today returns the scheduler's current calendar day.
func (s *Scheduler) Today() clock.DayKey {
	return clock.Today(s.clock)
}

// Now returns the scheduler's current instant.
func (s *Scheduler) Now() time.Time {
	return s.clock.Now()
}
