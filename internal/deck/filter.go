package deck

import (
	"sort"
	"strings"
	"time"

	"github.com/yonase/langcard/internal/domain"
)

// Filter is an AND-combined predicate over the card collection. Zero fields
// match everything; archived cards are excluded unless IncludeArchived.
type Filter struct {
	Query           string
	Language        string
	Speaker         domain.Speaker
	IncludeArchived bool
}

// Match reports whether the card passes every set criterion. The query is a
// case-insensitive substring match across the front and all back contents;
// language and speaker match against any back entry.
func (f Filter) Match(card domain.VocabularyCard) bool {
	if !f.IncludeArchived && card.IsArchived {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		parts := []string{card.Front}
		for _, b := range card.Back {
			parts = append(parts, b.Content)
		}
		haystack := strings.ToLower(strings.Join(parts, " "))
		if !strings.Contains(haystack, q) {
			return false
		}
	}
	if f.Language != "" {
		found := false
		for _, b := range card.Back {
			if b.Language == f.Language {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Speaker != "" {
		found := false
		for _, b := range card.Back {
			if b.Speaker == f.Speaker {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// SortOrder selects the ordering of a card listing.
type SortOrder string

const (
	// SortUpdated orders by most recently updated, falling back to the
	// creation time. Default.
	SortUpdated SortOrder = "updated"
	// SortCreated orders by most recently created.
	SortCreated SortOrder = "created"
	// SortNext orders by ascending next review date, unscheduled last.
	SortNext SortOrder = "next"
)

// ParseSortOrder maps a query value to a sort order, defaulting to updated.
func ParseSortOrder(s string) SortOrder {
	switch SortOrder(s) {
	case SortCreated:
		return SortCreated
	case SortNext:
		return SortNext
	default:
		return SortUpdated
	}
}

// Select returns the cards passing the filter in the given order. The result
// is a copy; sorting never disturbs the store.
func (s *Store) Select(f Filter, order SortOrder) []domain.VocabularyCard {
	var out []domain.VocabularyCard
	for i := range s.cards {
		if f.Match(s.cards[i]) {
			out = append(out, s.cards[i].Clone())
		}
	}
	SortCards(out, order)
	return out
}

// SortCards sorts in place by the given order.
func SortCards(cards []domain.VocabularyCard, order SortOrder) {
	switch order {
	case SortCreated:
		sort.SliceStable(cards, func(i, j int) bool {
			return cards[j].CreatedAt.Before(cards[i].CreatedAt)
		})
	case SortNext:
		sort.SliceStable(cards, func(i, j int) bool {
			a, b := cards[i].NextReviewDate, cards[j].NextReviewDate
			if a.IsZero() {
				return false
			}
			if b.IsZero() {
				return true
			}
			return a < b
		})
	default:
		sort.SliceStable(cards, func(i, j int) bool {
			return effectiveUpdated(cards[j]).Before(effectiveUpdated(cards[i]))
		})
	}
}

func effectiveUpdated(c domain.VocabularyCard) time.Time {
	if c.UpdatedAt.IsZero() {
		return c.CreatedAt
	}
	return c.UpdatedAt
}
