package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyInput       = errors.New("empty input")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrIndexing         = errors.New("indexing failed")
	ErrGeneration       = errors.New("generation failed")
	ErrUnknownStrategy  = errors.New("unknown strategy")
	ErrDocumentNotFound = errors.New("document not found")
	ErrTemporary        = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
