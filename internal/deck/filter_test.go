package deck

import (
	"testing"
	"time"

	"github.com/yonase/langcard/internal/domain"
)

func sampleCards() []domain.VocabularyCard {
	at := func(day int) time.Time {
		return time.Date(2024, 5, day, 12, 0, 0, 0, time.Local)
	}
	return []domain.VocabularyCard{
		{
			ID:    1,
			Front: "注文したいとき",
			Back: []domain.BackEntry{
				{Content: "주문할게요", Language: "ko-KR", Speaker: domain.SpeakerMe},
			},
			NextReviewDate: "2024-05-03",
			CreatedAt:      at(1),
			UpdatedAt:      at(4),
		},
		{
			ID:    2,
			Front: "Ordering coffee",
			Back: []domain.BackEntry{
				{Content: "One coffee please", Language: "en-US", Speaker: domain.SpeakerStaff},
			},
			CreatedAt: at(2),
			UpdatedAt: at(2),
		},
		{
			ID:    3,
			Front: "archived phrase",
			Back: []domain.BackEntry{
				{Content: "보관", Language: "ko-KR", Speaker: domain.SpeakerFriend},
			},
			NextReviewDate: "2024-05-01",
			IsArchived:     true,
			CreatedAt:      at(3),
		},
	}
}

func TestFilterMatch(t *testing.T) {
	cards := sampleCards()
	testCases := []struct {
		name     string
		filter   Filter
		expected []int64
	}{
		{name: "no criteria excludes archived", filter: Filter{}, expected: []int64{1, 2}},
		{name: "include archived", filter: Filter{IncludeArchived: true}, expected: []int64{1, 2, 3}},
		{name: "query matches front case-insensitively", filter: Filter{Query: "ordering"}, expected: []int64{2}},
		{name: "query matches back content", filter: Filter{Query: "주문"}, expected: []int64{1}},
		{name: "query with surrounding space", filter: Filter{Query: "  coffee "}, expected: []int64{2}},
		{name: "language matches any back entry", filter: Filter{Language: "ko-KR"}, expected: []int64{1}},
		{name: "speaker filter", filter: Filter{Speaker: domain.SpeakerStaff}, expected: []int64{2}},
		{name: "criteria combine with AND", filter: Filter{Query: "coffee", Language: "ko-KR"}, expected: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var got []int64
			for _, c := range cards {
				if tc.filter.Match(c) {
					got = append(got, c.ID)
				}
			}
			if len(got) != len(tc.expected) {
				t.Fatalf("Expected ids %v, but got %v", tc.expected, got)
			}
			for i := range got {
				if got[i] != tc.expected[i] {
					t.Fatalf("Expected ids %v, but got %v", tc.expected, got)
				}
			}
		})
	}
}

func TestSortCards(t *testing.T) {
	testCases := []struct {
		name     string
		order    SortOrder
		expected []int64
	}{
		// Card 3 has no UpdatedAt, so its CreatedAt (day 3) is used.
		{name: "updated descending", order: SortUpdated, expected: []int64{1, 3, 2}},
		{name: "created descending", order: SortCreated, expected: []int64{3, 2, 1}},
		// Card 2 is unscheduled and sorts last.
		{name: "next ascending with unset last", order: SortNext, expected: []int64{3, 1, 2}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cards := sampleCards()
			SortCards(cards, tc.order)
			for i, want := range tc.expected {
				if cards[i].ID != want {
					t.Errorf("Position %d: expected card %d, but got %d", i, want, cards[i].ID)
				}
			}
		})
	}
}

func TestParseSortOrder(t *testing.T) {
	if got := ParseSortOrder("bogus"); got != SortUpdated {
		t.Errorf("Expected unknown values to default to updated, but got %s", got)
	}
	if got := ParseSortOrder("next"); got != SortNext {
		t.Errorf("Expected next, but got %s", got)
	}
}
