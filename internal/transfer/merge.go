package transfer

import (
	"time"

	"github.com/yonase/langcard/internal/domain"
)

// lastTouched is the merge clock: updatedAt when set, else createdAt.
func lastTouched(updatedAt, createdAt time.Time) time.Time {
	if !updatedAt.IsZero() {
		return updatedAt
	}
	return createdAt
}

// MergeCards combines two card sets by id. Existing order is preserved,
// unknown incoming ids are appended, and on a collision the more recently
// touched record wins. Nothing is ever deleted here: a payload that lacks a
// card says nothing about whether that card should exist.
func MergeCards(existing, incoming []domain.VocabularyCard) []domain.VocabularyCard {
	out := make([]domain.VocabularyCard, len(existing))
	copy(out, existing)
	index := make(map[int64]int, len(out))
	for i, c := range out {
		index[c.ID] = i
	}
	for _, in := range incoming {
		i, ok := index[in.ID]
		if !ok {
			index[in.ID] = len(out)
			out = append(out, in)
			continue
		}
		if lastTouched(in.UpdatedAt, in.CreatedAt).After(lastTouched(out[i].UpdatedAt, out[i].CreatedAt)) {
			out[i] = in
		}
	}
	return out
}

// MergePosts combines two post sets by id with the same last-write-wins
// rule as MergeCards.
func MergePosts(existing, incoming []domain.Post) []domain.Post {
	out := make([]domain.Post, len(existing))
	copy(out, existing)
	index := make(map[int64]int, len(out))
	for i, p := range out {
		index[p.ID] = i
	}
	for _, in := range incoming {
		i, ok := index[in.ID]
		if !ok {
			index[in.ID] = len(out)
			out = append(out, in)
			continue
		}
		if lastTouched(in.UpdatedAt, in.CreatedAt).After(lastTouched(out[i].UpdatedAt, out[i].CreatedAt)) {
			out[i] = in
		}
	}
	return out
}
