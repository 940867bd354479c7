package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidCard is returned when a card fails the persistence precondition:
// a card saved directly must have a non-empty front and at least one back
// entry with non-empty content.
var ErrInvalidCard = errors.New("invalid vocabulary card")

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateCard checks the full persistence precondition. Derivation paths
// that legitimately produce empty-back front cards use ValidateFront instead.
func ValidateCard(c VocabularyCard) error {
	if err := ValidateFront(c); err != nil {
		return err
	}
	if len(c.ValidBackEntries()) == 0 {
		return fmt.Errorf("%w: at least one back entry with content is required", ErrInvalidCard)
	}
	return nil
}

// ValidateFront checks everything except the back-entry requirement.
func ValidateFront(c VocabularyCard) error {
	if strings.TrimSpace(c.Front) == "" {
		return fmt.Errorf("%w: front must not be empty", ErrInvalidCard)
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCard, err)
	}
	return nil
}
