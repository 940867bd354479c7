package review

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/yonase/langcard/internal/clock"
	"github.com/yonase/langcard/internal/deck"
	"github.com/yonase/langcard/internal/domain"
	"github.com/yonase/langcard/internal/schedule"
)

type memPersister struct {
	cards   map[int64]domain.VocabularyCard
	failing bool
}

func newMemPersister() *memPersister {
	return &memPersister{cards: map[int64]domain.VocabularyCard{}}
}

func (p *memPersister) LoadAll() ([]domain.VocabularyCard, error) {
	out := make([]domain.VocabularyCard, 0, len(p.cards))
	for _, c := range p.cards {
		out = append(out, c)
	}
	return out, nil
}

func (p *memPersister) SaveCard(c domain.VocabularyCard) error {
	if p.failing {
		return errors.New("disk full")
	}
	p.cards[c.ID] = c
	return nil
}

func (p *memPersister) DeleteCard(id int64) error {
	delete(p.cards, id)
	return nil
}

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time { return f.t }

func dueCard(id int64, date clock.DayKey) domain.VocabularyCard {
	return domain.VocabularyCard{
		ID:             id,
		Front:          "front",
		Back:           []domain.BackEntry{{Content: "back"}},
		NextReviewDate: date,
		CreatedAt:      time.Date(2024, 4, 1, 0, 0, 0, 0, time.Local),
		UpdatedAt:      time.Date(2024, 4, 1, 0, 0, 0, 0, time.Local),
	}
}

func newTestSession(t *testing.T, clk *fakeClock, cards ...domain.VocabularyCard) (*Session, *deck.Store, *memPersister) {
	t.Helper()
	p := newMemPersister()
	for _, c := range cards {
		p.cards[c.ID] = c
	}
	store, err := deck.NewStore(p, clk, nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	sched := schedule.New(clk)
	sess := NewSession(store, sched, clk, WithRand(rand.New(rand.NewSource(1))))
	return sess, store, p
}

func TestEmptyWhenNothingDue(t *testing.T) {
	clk := &fakeClock{t: time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)}
	sess, _, _ := newTestSession(t, clk, dueCard(1, "2024-05-02"))

	sess.Refresh()
	if got := sess.State(); got != Empty {
		t.Errorf("Expected state Empty but got %v", got)
	}
	if card := sess.Current(); card != nil {
		t.Errorf("Expected no current card but got id %d", card.ID)
	}
}

func TestSnapshotStableWithinDay(t *testing.T) {
	clk := &fakeClock{t: time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)}
	sess, _, _ := newTestSession(t, clk,
		dueCard(1, "2024-05-01"),
		dueCard(2, "2024-04-20"),
		dueCard(3, ""),
	)

	sess.Refresh()
	before := sess.Snapshot()
	if len(before) != 3 {
		t.Fatalf("Expected 3 cards in snapshot but got %d", len(before))
	}

	if err := sess.Answer(Know); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	sess.Refresh()
	after := sess.Snapshot()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("Expected snapshot order %v to survive an answer but got %v", before, after)
		}
	}
	if got := sess.Position(); got != 2 {
		t.Errorf("Expected position 2 after one answer but got %d", got)
	}
}

func TestFlipAndAnswer(t *testing.T) {
	clk := &fakeClock{t: time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)}
	sess, store, _ := newTestSession(t, clk, dueCard(1, "2024-05-01"))
	sess.Refresh()

	if !sess.ShowingFront() {
		t.Fatal("Expected a fresh session to show the front face")
	}
	sess.Flip()
	if sess.ShowingFront() {
		t.Error("Expected Flip to show the back face")
	}
	if got := sess.Position(); got != 1 {
		t.Errorf("Expected Flip to keep position 1 but got %d", got)
	}

	if err := sess.Answer(Know); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if !sess.ShowingFront() {
		t.Error("Expected Answer to reset to the front face")
	}
	if got := sess.State(); got != Finished {
		t.Errorf("Expected state Finished but got %v", got)
	}

	card, err := store.Get(1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if card.RememberCount != 1 {
		t.Errorf("Expected rememberCount 1 but got %d", card.RememberCount)
	}
	if card.NextReviewDate != "2024-05-02" {
		t.Errorf("Expected next review 2024-05-02 but got %s", card.NextReviewDate)
	}
}

func TestDontKnowResets(t *testing.T) {
	clk := &fakeClock{t: time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)}
	c := dueCard(1, "2024-05-01")
	c.RememberCount = 4
	sess, store, _ := newTestSession(t, clk, c)
	sess.Refresh()

	if err := sess.Answer(DontKnow); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	card, err := store.Get(1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if card.RememberCount != 0 {
		t.Errorf("Expected rememberCount reset to 0 but got %d", card.RememberCount)
	}
	if card.NextReviewDate != "2024-05-02" {
		t.Errorf("Expected next review 2024-05-02 but got %s", card.NextReviewDate)
	}
}

func TestAnswerNoOpWhenIdle(t *testing.T) {
	clk := &fakeClock{t: time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)}
	sess, _, _ := newTestSession(t, clk)
	sess.Refresh()

	if err := sess.Answer(Know); err != nil {
		t.Errorf("Expected Answer on an empty session to be a no-op but got %v", err)
	}
	sess.Flip()
	if !sess.ShowingFront() {
		t.Error("Expected Flip on an empty session to be a no-op")
	}
}

func TestDayChangeReloads(t *testing.T) {
	clk := &fakeClock{t: time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)}
	sess, _, _ := newTestSession(t, clk, dueCard(1, "2024-05-01"), dueCard(2, "2024-05-02"))
	sess.Refresh()

	if got := sess.Len(); got != 1 {
		t.Fatalf("Expected 1 due card on day one but got %d", got)
	}
	if err := sess.Answer(DontKnow); err != nil {
		t.Fatalf("Answer: %v", err)
	}

	clk.t = clk.t.Add(24 * time.Hour)
	sess.Refresh()
	if got := sess.Len(); got != 2 {
		t.Errorf("Expected 2 due cards after the day rolled over but got %d", got)
	}
	if got := sess.State(); got != Reviewing {
		t.Errorf("Expected state Reviewing but got %v", got)
	}
}

func TestReloadWhenFinishedAndNewDue(t *testing.T) {
	clk := &fakeClock{t: time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)}
	sess, store, _ := newTestSession(t, clk, dueCard(1, "2024-05-01"))
	sess.Refresh()

	if err := sess.Answer(Know); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	sess.Refresh()
	if got := sess.State(); got != Finished {
		t.Fatalf("Expected state Finished but got %v", got)
	}

	// A card edited to be due today mid-session.
	late := dueCard(2, "2024-05-01")
	if _, err := store.Save(late); err != nil {
		t.Fatalf("Save: %v", err)
	}
	sess.Refresh()
	if got := sess.State(); got != Reviewing {
		t.Errorf("Expected state Reviewing after a new card became due but got %v", got)
	}
	if card := sess.Current(); card == nil || card.ID != 2 {
		t.Errorf("Expected current card 2 but got %+v", card)
	}
}

func TestHandleDelete(t *testing.T) {
	clk := &fakeClock{t: time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)}
	sess, store, _ := newTestSession(t, clk,
		dueCard(1, "2024-05-01"),
		dueCard(2, "2024-05-01"),
		dueCard(3, "2024-05-01"),
	)
	sess.Refresh()

	order := sess.Snapshot()
	if err := sess.Answer(Know); err != nil {
		t.Fatalf("Answer: %v", err)
	}

	// Delete the already-answered card: cursor shifts back with the list.
	if err := store.Delete(order[0]); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	sess.HandleDelete(order[0])
	if got := sess.Position(); got != 1 {
		t.Errorf("Expected position 1 after deleting behind the cursor but got %d", got)
	}
	if card := sess.Current(); card == nil || card.ID != order[1] {
		t.Fatalf("Expected current card %d but got %+v", order[1], card)
	}

	// Delete the current card: next card takes its place.
	if err := store.Delete(order[1]); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	sess.HandleDelete(order[1])
	if card := sess.Current(); card == nil || card.ID != order[2] {
		t.Fatalf("Expected current card %d but got %+v", order[2], card)
	}

	// Delete the last remaining card: session drains without panicking.
	if err := store.Delete(order[2]); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	sess.HandleDelete(order[2])
	if card := sess.Current(); card != nil {
		t.Errorf("Expected no current card but got id %d", card.ID)
	}
	if got := sess.State(); got != Empty {
		t.Errorf("Expected state Empty but got %v", got)
	}
}

func TestAnswerAdvancesOnPersistFailure(t *testing.T) {
	clk := &fakeClock{t: time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)}
	sess, store, p := newTestSession(t, clk, dueCard(1, "2024-05-01"), dueCard(2, "2024-05-01"))
	sess.Refresh()

	p.failing = true
	err := sess.Answer(Know)
	if !errors.Is(err, deck.ErrPersistence) {
		t.Fatalf("Expected ErrPersistence but got %v", err)
	}
	if got := sess.Position(); got != 2 {
		t.Errorf("Expected cursor to advance past the failed card but got position %d", got)
	}

	// The in-memory mutation is kept even though the write failed.
	first := sess.Snapshot()[0]
	card, getErr := store.Get(first)
	if getErr != nil {
		t.Fatalf("Get: %v", getErr)
	}
	if card.RememberCount != 1 {
		t.Errorf("Expected in-memory rememberCount 1 but got %d", card.RememberCount)
	}
}
