package errors

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions
var (
	// ErrOutOfRange is returned when a line, word, character, rank or shift index
	// falls outside its current valid bounds
	ErrOutOfRange = errors.New("index out of range")

	// ErrMalformedInput is returned by the input reader when source data cannot be read
	ErrMalformedInput = errors.New("malformed input")

	// ErrIndexNotFound is returned when an index is not found
	ErrIndexNotFound = errors.New("index not found")

	// ErrIndexAlreadyExists is returned when trying to create an index that already exists
	ErrIndexAlreadyExists = errors.New("index already exists")

	// ErrJobNotFound is returned when a job is not found
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidPhase is returned when an operation is not allowed in the index's current phase
	ErrInvalidPhase = errors.New("operation not allowed in current phase")
)

// Range kinds reported by OutOfRangeError
const (
	KindLine      = "line"
	KindWord      = "word"
	KindCharacter = "character"
	KindRank      = "rank"
	KindShift     = "shift"
)

// OutOfRangeError reports which coordinate was out of bounds.
// Limit is the number of valid positions at the time of the call.
type OutOfRangeError struct {
	Kind  string
	Index int
	Limit int
}

func (e *OutOfRangeError) Error() string {
	if e.Limit == 0 {
		return fmt.Sprintf("%s index %d out of range (no %ss)", e.Kind, e.Index, e.Kind)
	}
	return fmt.Sprintf("%s index %d out of range [0, %d)", e.Kind, e.Index, e.Limit)
}

func (e *OutOfRangeError) Is(target error) bool {
	return target == ErrOutOfRange
}

// NewOutOfRangeError creates a new OutOfRangeError
func NewOutOfRangeError(kind string, index, limit int) *OutOfRangeError {
	return &OutOfRangeError{Kind: kind, Index: index, Limit: limit}
}

// MalformedInputError represents unreadable source data with its position
type MalformedInputError struct {
	Source string
	Line   int // 1-based physical line, 0 when unknown
	Reason string
}

func (e *MalformedInputError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed input in '%s' at line %d: %s", e.Source, e.Line, e.Reason)
	}
	return fmt.Sprintf("malformed input in '%s': %s", e.Source, e.Reason)
}

func (e *MalformedInputError) Is(target error) bool {
	return target == ErrMalformedInput
}

// NewMalformedInputError creates a new MalformedInputError
func NewMalformedInputError(source string, line int, reason string) *MalformedInputError {
	return &MalformedInputError{Source: source, Line: line, Reason: reason}
}

// IndexNotFoundError represents an index not found error with context
type IndexNotFoundError struct {
	IndexName string
}

func (e *IndexNotFoundError) Error() string {
	return fmt.Sprintf("index named '%s' not found", e.IndexName)
}

func (e *IndexNotFoundError) Is(target error) bool {
	return target == ErrIndexNotFound
}

// NewIndexNotFoundError creates a new IndexNotFoundError
func NewIndexNotFoundError(indexName string) *IndexNotFoundError {
	return &IndexNotFoundError{IndexName: indexName}
}

// IndexAlreadyExistsError represents an index already exists error with context
type IndexAlreadyExistsError struct {
	IndexName string
}

func (e *IndexAlreadyExistsError) Error() string {
	return fmt.Sprintf("index named '%s' already exists", e.IndexName)
}

func (e *IndexAlreadyExistsError) Is(target error) bool {
	return target == ErrIndexAlreadyExists
}

// NewIndexAlreadyExistsError creates a new IndexAlreadyExistsError
func NewIndexAlreadyExistsError(indexName string) *IndexAlreadyExistsError {
	return &IndexAlreadyExistsError{IndexName: indexName}
}

// JobNotFoundError represents a job not found error with context
type JobNotFoundError struct {
	JobID string
}

func (e *JobNotFoundError) Error() string {
	return fmt.Sprintf("job with ID '%s' not found", e.JobID)
}

func (e *JobNotFoundError) Is(target error) bool {
	return target == ErrJobNotFound
}

// NewJobNotFoundError creates a new JobNotFoundError
func NewJobNotFoundError(jobID string) *JobNotFoundError {
	return &JobNotFoundError{JobID: jobID}
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// PhaseError is returned when an index is asked to do something its phase forbids,
// e.g. appending lines after the ranking was built.
type PhaseError struct {
	IndexName string
	Current   string
	Want      string
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("index '%s' is in phase '%s', operation requires phase '%s'", e.IndexName, e.Current, e.Want)
}

func (e *PhaseError) Is(target error) bool {
	return target == ErrInvalidPhase
}

// NewPhaseError creates a new PhaseError
func NewPhaseError(indexName, current, want string) *PhaseError {
	return &PhaseError{IndexName: indexName, Current: current, Want: want}
}

// IsCancellation reports whether err stems from a cancelled or expired context.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
