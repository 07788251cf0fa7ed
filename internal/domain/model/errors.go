package model

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds for domain errors. These allow errors.Is/As from callers
// and map one-to-one onto machine-readable API codes.
var (
	ErrValidation        = errors.New("validation failed")
	ErrInvalidRating     = errors.New("invalid rating")
	ErrInvalidSnapshot   = errors.New("invalid snapshot")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrProjectNotVetting = errors.New("project not in vetting")
	ErrVoteLimitExceeded = errors.New("vote limit exceeded")
	ErrForbidden         = errors.New("forbidden")
)

// ValidationError lists every violated field of a submission.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Fields, ", "))
}

// Is makes errors.Is(err, ErrValidation) hold for any ValidationError.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// RatingError lists every ballot category outside [1,5].
type RatingError struct {
	Categories []string
}

func (e *RatingError) Error() string {
	return fmt.Sprintf("invalid rating for: %s", strings.Join(e.Categories, ", "))
}

func (e *RatingError) Is(target error) bool { return target == ErrInvalidRating }

// SnapshotError lists every out-of-bounds snapshot field.
type SnapshotError struct {
	Fields []string
}

func (e *SnapshotError) Error() string {
	return fmt.Sprintf("invalid snapshot: %s", strings.Join(e.Fields, ", "))
}

func (e *SnapshotError) Is(target error) bool { return target == ErrInvalidSnapshot }

// TransitionError reports a rejected status transition.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }
