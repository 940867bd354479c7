package schedule

import (
	"testing"
	"time"

	"github.com/yonase/langcard/internal/clock"
	"github.com/yonase/langcard/internal/domain"
)

func fixedClock(key string) clock.Fixed {
	t, err := time.ParseInLocation("2006-01-02", key, time.Local)
	if err != nil {
		panic(err)
	}
	return clock.Fixed{T: t.Add(10 * time.Hour)}
}

func TestOffsetSequence(t *testing.T) {
	// Consecutive "know" answers must produce offsets [1,7,30,30,...] from
	// each day's today: the offset follows the count after the increment,
	// and the table plateaus at the 30-day tier.
	s := New(fixedClock("2024-05-01"))
	expectedOffsets := []int{1, 7, 30, 30, 30, 30, 30}

	card := domain.VocabularyCard{RememberCount: 0}
	for i, want := range expectedOffsets {
		s.OnKnow(&card)
		if card.RememberCount != i+1 {
			t.Fatalf("Expected rememberCount %d after know, but got %d", i+1, card.RememberCount)
		}
		expected := clock.DayKey("2024-05-01").AddDays(want)
		if card.NextReviewDate != expected {
			t.Errorf("Answer %d: expected next review %s (+%d days), but got %s", i+1, expected, want, card.NextReviewDate)
		}
	}
}

func TestOnDontKnowResets(t *testing.T) {
	s := New(fixedClock("2024-05-01"))
	testCases := []struct {
		name  string
		count int
	}{
		{name: "fresh card", count: 0},
		{name: "plateaued card", count: 9},
		{name: "mid schedule", count: 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			card := domain.VocabularyCard{RememberCount: tc.count, NextReviewDate: "2024-09-01"}
			s.OnDontKnow(&card)
			if card.RememberCount != 0 {
				t.Errorf("Expected rememberCount to reset to 0, but got %d", card.RememberCount)
			}
			if card.NextReviewDate != "2024-05-02" {
				t.Errorf("Expected next review tomorrow (2024-05-02), but got %s", card.NextReviewDate)
			}
		})
	}
}

func TestKnowThenForgetScenario(t *testing.T) {
	// Know on day D, know again on D+1, then forget on D+8.
	card := domain.VocabularyCard{}

	s := New(fixedClock("2024-05-01"))
	s.OnKnow(&card)
	if card.RememberCount != 1 || card.NextReviewDate != "2024-05-02" {
		t.Fatalf("Day D: expected count 1 due 2024-05-02, but got count %d due %s", card.RememberCount, card.NextReviewDate)
	}

	s = New(fixedClock("2024-05-02"))
	s.OnKnow(&card)
	if card.RememberCount != 2 || card.NextReviewDate != "2024-05-09" {
		t.Fatalf("Day D+1: expected count 2 due 2024-05-09, but got count %d due %s", card.RememberCount, card.NextReviewDate)
	}

	s = New(fixedClock("2024-05-09"))
	s.OnDontKnow(&card)
	if card.RememberCount != 0 || card.NextReviewDate != "2024-05-10" {
		t.Fatalf("Day D+8: expected count 0 due 2024-05-10, but got count %d due %s", card.RememberCount, card.NextReviewDate)
	}
}

func TestIsDue(t *testing.T) {
	today := clock.DayKey("2024-05-10")
	testCases := []struct {
		name     string
		card     domain.VocabularyCard
		expected bool
	}{
		{name: "unscheduled is due immediately", card: domain.VocabularyCard{}, expected: true},
		{name: "due today", card: domain.VocabularyCard{NextReviewDate: "2024-05-10"}, expected: true},
		{name: "overdue", card: domain.VocabularyCard{NextReviewDate: "2024-04-01"}, expected: true},
		{name: "due tomorrow is not due", card: domain.VocabularyCard{NextReviewDate: "2024-05-11"}, expected: false},
		{name: "archived overdue is never due", card: domain.VocabularyCard{NextReviewDate: "2024-04-01", IsArchived: true}, expected: false},
		{name: "archived unscheduled is never due", card: domain.VocabularyCard{IsArchived: true}, expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsDue(tc.card, today); got != tc.expected {
				t.Errorf("Expected IsDue to be %v, but got %v", tc.expected, got)
			}
		})
	}
}

func TestDueCards(t *testing.T) {
	// 3 cards, 1 archived and overdue: only the other 2 count as due.
	today := clock.DayKey("2024-05-10")
	cards := []domain.VocabularyCard{
		{ID: 1, NextReviewDate: "2024-05-10"},
		{ID: 2},
		{ID: 3, NextReviewDate: "2024-05-01", IsArchived: true},
	}

	due := DueCards(cards, today)
	if len(due) != 2 {
		t.Fatalf("Expected 2 due cards, but got %d", len(due))
	}
	for _, c := range due {
		if c.ID == 3 {
			t.Error("Expected the archived card to be excluded from the due set")
		}
	}
}
