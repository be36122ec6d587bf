package service

import (
	"errors"
	"fmt"

	"invoicehub/internal/billing"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when an owner-scoped record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when an operation does not fit the record's current state.
	ErrConflict = errors.New("conflict")
	// ErrNotEditable is returned when a paid or cancelled invoice would be modified.
	ErrNotEditable = errors.New("invoice is not editable")
)

func lookupErr(entity string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %w", entity, ErrNotFound)
	}
	return fmt.Errorf("failed to load %s: %w", entity, err)
}

func conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &billing.ValidationError{Field: field, Message: "must be a valid id"}
	}
	return id, nil
}
