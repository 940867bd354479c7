package deck

import (
	"errors"

	"github.com/yonase/langcard/internal/domain"
)

// Sentinel errors for the deck package. Check with errors.Is.
var (
	// ErrCardNotFound is returned when an id resolves to no card.
	ErrCardNotFound = errors.New("deck: card not found")
	// ErrPersistence wraps failures from the persistence collaborator.
	// In-memory state is not rolled back when it is returned; the caller
	// decides whether to retry or discard.
	ErrPersistence = errors.New("deck: persistence failure")
)

// ErrInvalidCard is re-exported so callers only need the deck package.
var ErrInvalidCard = domain.ErrInvalidCard
