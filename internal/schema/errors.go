package schema

import (
	"errors"
	"fmt"
)

// SynthesisError represents an invariant violation detected while
// declaring templates or materializing partitions.
//
// Synthesis errors include:
//   - Configuration: a template or placeholder is misdeclared
//   - Name collision: the deterministic name is already bound to
//     something else in the catalog
//   - Missing manager: a placeholder's owner template has no manager
//   - Not implemented: a keyer extension point was never overridden
//
// SynthesisError includes structured fields for diagnostics. The engine
// never retries and never swallows one of these - every failure aborts
// the in-progress call and propagates with full context.
type SynthesisError struct {
	// Code identifies the error category.
	Code SynthesisErrorCode

	// Message is a human-readable description.
	Message string

	// Entity identifies the affected template or partition entity.
	Entity string

	// Key identifies the partition key, when one is in play.
	Key string

	// Field identifies the affected field, for placeholder errors.
	Field string
}

// SynthesisErrorCode categorizes synthesis errors.
type SynthesisErrorCode string

const (
	// ErrCodeConfig indicates a misdeclared template or placeholder
	// (non-abstract owner, multi-target fan-out, duplicate manager).
	ErrCodeConfig SynthesisErrorCode = "CONFIG_INVALID"

	// ErrCodeNameCollision indicates the deterministic partition name is
	// already bound to a distinct object in the catalog.
	ErrCodeNameCollision SynthesisErrorCode = "NAME_COLLISION"

	// ErrCodeMissingManager indicates a placeholder's owner template has
	// no partition manager attached.
	ErrCodeMissingManager SynthesisErrorCode = "MISSING_MANAGER"

	// ErrCodeNotImplemented indicates a keyer extension point was invoked
	// but never overridden.
	ErrCodeNotImplemented SynthesisErrorCode = "NOT_IMPLEMENTED"
)

// Error implements the error interface.
func (e *SynthesisError) Error() string {
	switch {
	case e.Entity != "" && e.Key != "":
		return fmt.Sprintf("%s: %s (entity=%s, key=%s)", e.Code, e.Message, e.Entity, e.Key)
	case e.Entity != "" && e.Field != "":
		return fmt.Sprintf("%s: %s (entity=%s, field=%s)", e.Code, e.Message, e.Entity, e.Field)
	case e.Entity != "":
		return fmt.Sprintf("%s: %s (entity=%s)", e.Code, e.Message, e.Entity)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// IsConfigError reports whether err is a configuration error.
// Uses errors.As to handle wrapped errors.
func IsConfigError(err error) bool { return hasCode(err, ErrCodeConfig) }

// IsNameCollision reports whether err is a name collision error.
func IsNameCollision(err error) bool { return hasCode(err, ErrCodeNameCollision) }

// IsMissingManager reports whether err is a missing manager error.
func IsMissingManager(err error) bool { return hasCode(err, ErrCodeMissingManager) }

// IsNotImplemented reports whether err is a not-implemented error.
func IsNotImplemented(err error) bool { return hasCode(err, ErrCodeNotImplemented) }

func hasCode(err error, code SynthesisErrorCode) bool {
	var se *SynthesisError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// NewConfigError creates a SynthesisError for a misdeclared entity.
func NewConfigError(entity, message string) *SynthesisError {
	return &SynthesisError{
		Code:    ErrCodeConfig,
		Message: message,
		Entity:  entity,
	}
}

// NewFieldConfigError creates a SynthesisError for a misdeclared placeholder.
func NewFieldConfigError(entity, field, message string) *SynthesisError {
	return &SynthesisError{
		Code:    ErrCodeConfig,
		Message: message,
		Entity:  entity,
		Field:   field,
	}
}

// NewNameCollisionError creates a SynthesisError for a catalog name clash.
func NewNameCollisionError(entity, key string) *SynthesisError {
	return &SynthesisError{
		Code:    ErrCodeNameCollision,
		Message: "name already bound to a different object in the catalog",
		Entity:  entity,
		Key:     key,
	}
}

// NewMissingManagerError creates a SynthesisError for a dependent template
// that declared a partitioned foreign key but has no manager of its own.
func NewMissingManagerError(owner, target string) *SynthesisError {
	return &SynthesisError{
		Code:    ErrCodeMissingManager,
		Message: fmt.Sprintf("template references %s but has no partition manager", target),
		Entity:  owner,
	}
}

// NewNotImplementedError creates a SynthesisError for an unoverridden
// keyer extension point.
func NewNotImplementedError(entity, method string) *SynthesisError {
	return &SynthesisError{
		Code:    ErrCodeNotImplemented,
		Message: fmt.Sprintf("%s is not implemented for this manager", method),
		Entity:  entity,
	}
}
