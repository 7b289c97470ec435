package simindex

import (
	"errors"
	"fmt"

	"github.com/hupe1980/simindex/minhash"
)

var (
	// ErrEmptyCharacteristics is returned when a record or signature is
	// requested for an empty characteristic set.
	ErrEmptyCharacteristics = minhash.ErrEmptyInput

	// ErrBandCountMismatch is returned when two frequency sequences with
	// different band counts are compared. This indicates a programming
	// error, not a recoverable runtime condition: frequency sequences are
	// only meaningful against the index configuration that produced them.
	ErrBandCountMismatch = errors.New("band count mismatch")
)

// ErrInvalidShape indicates an invalid index dimension parameter.
type ErrInvalidShape struct {
	Param string
	Value int
}

func (e *ErrInvalidShape) Error() string {
	return fmt.Sprintf("invalid %s: %d", e.Param, e.Value)
}
