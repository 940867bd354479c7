// Package review walks one day's due cards: a shuffled snapshot, a cursor,
// and a front/back flip flag.
package review

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/yonase/langcard/internal/clock"
	"github.com/yonase/langcard/internal/deck"
	"github.com/yonase/langcard/internal/domain"
	"github.com/yonase/langcard/internal/schedule"
)

// State is the session's position in the day.
type State int

const (
	// Empty means no cards are due.
	Empty State = iota
	// Reviewing means the cursor points at a card.
	Reviewing
	// Finished means the cursor walked past the end of the snapshot.
	Finished
)

func (s State) String() string {
	switch s {
	case Empty:
		return "Empty"
	case Reviewing:
		return "Reviewing"
	case Finished:
		return "Finished"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Outcome is the user's answer to the current card.
type Outcome int

const (
	// Know marks a successful recall.
	Know Outcome = iota + 1
	// DontKnow marks a failed recall.
	DontKnow
)

func (o Outcome) String() string {
	switch o {
	case Know:
		return "know"
	case DontKnow:
		return "dont_know"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Session is the ephemeral review state. It is not persisted; only the card
// mutations it triggers are. One logical owner drives it at a time.
type Session struct {
	store *deck.Store
	sched *schedule.Scheduler
	clock clock.Clock
	rng   *rand.Rand

	todayList      []int64
	todayIndex     int
	showFront      bool
	lastLoadedDate clock.DayKey
}

// Option configures a Session.
type Option func(*Session)

// WithRand overrides the shuffle source for deterministic tests.
func WithRand(r *rand.Rand) Option {
	return func(s *Session) { s.rng = r }
}

// NewSession creates a session over the given store and scheduler. The due
// snapshot is loaded lazily on the first Refresh.
func NewSession(store *deck.Store, sched *schedule.Scheduler, c clock.Clock, opts ...Option) *Session {
	s := &Session{
		store:     store,
		sched:     sched,
		clock:     c,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		showFront: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Refresh loads the day's snapshot when needed. The snapshot is taken once
// per calendar day and shuffled once, so answering a card never reorders the
// rest. It is recomputed early only when there is nothing left to review
// (empty or finished) and new cards have since become due.
func (s *Session) Refresh() {
	today := clock.Today(s.clock)
	if s.lastLoadedDate != today {
		s.load(today)
		return
	}
	if len(s.todayList) == 0 || s.todayIndex >= len(s.todayList) {
		if len(schedule.DueCards(s.store.All(), today)) > 0 {
			s.load(today)
		}
	}
}

func (s *Session) load(today clock.DayKey) {
	due := schedule.DueCards(s.store.All(), today)
	ids := make([]int64, len(due))
	for i, c := range due {
		ids[i] = c.ID
	}
	s.rng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
	s.todayList = ids
	s.todayIndex = 0
	s.showFront = true
	s.lastLoadedDate = today
}

// State reports the session's current state.
func (s *Session) State() State {
	switch {
	case len(s.todayList) == 0:
		return Empty
	case s.todayIndex >= len(s.todayList):
		return Finished
	default:
		return Reviewing
	}
}

// Current returns the card under the cursor, or nil when the session is
// empty or finished. Cards deleted behind the session's back are excised on
// the way.
func (s *Session) Current() *domain.VocabularyCard {
	for s.todayIndex < len(s.todayList) {
		card, err := s.store.Get(s.todayList[s.todayIndex])
		if err == nil {
			return &card
		}
		s.todayList = append(s.todayList[:s.todayIndex], s.todayList[s.todayIndex+1:]...)
	}
	return nil
}

// ShowingFront reports which face is up.
func (s *Session) ShowingFront() bool { return s.showFront }

// Position returns the 1-based cursor position for display, 0 when idle.
func (s *Session) Position() int {
	if s.State() != Reviewing {
		return 0
	}
	return s.todayIndex + 1
}

// Len returns the size of the day's snapshot.
func (s *Session) Len() int { return len(s.todayList) }

// Flip toggles the visible face. It never moves the cursor.
func (s *Session) Flip() {
	if s.State() == Reviewing {
		s.showFront = !s.showFront
	}
}

// Answer records the outcome for the current card and advances the cursor.
// With no current card it is a no-op. The sequence is mutate, persist,
// advance; a persistence failure is returned after the cursor has moved, and
// the in-memory change is kept (single-user tool, partial state beats a
// stuck session).
func (s *Session) Answer(outcome Outcome) error {
	card := s.Current()
	if card == nil {
		return nil
	}

	var err error
	switch outcome {
	case DontKnow:
		_, err = s.store.Mutate(card.ID, s.sched.OnDontKnow)
	default:
		_, err = s.store.Mutate(card.ID, s.sched.OnKnow)
	}

	s.todayIndex++
	s.showFront = true
	return err
}

// HandleDelete repairs the snapshot after a card is deleted mid-session.
// The cursor is clamped so the session never points past the new length.
func (s *Session) HandleDelete(cardID int64) {
	for i, id := range s.todayList {
		if id != cardID {
			continue
		}
		s.todayList = append(s.todayList[:i], s.todayList[i+1:]...)
		if i < s.todayIndex {
			s.todayIndex--
		} else if i == s.todayIndex {
			s.showFront = true
		}
		break
	}
	if s.todayIndex > len(s.todayList) {
		s.todayIndex = len(s.todayList)
	}
}

// Snapshot returns a copy of the remaining card ids, current first.
func (s *Session) Snapshot() []int64 {
	return append([]int64(nil), s.todayList...)
}
