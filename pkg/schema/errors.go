package schema

import (
	"errors"
	"fmt"
)

// Error codes for structured error reporting.
const (
	ErrCodeValidation = "VALIDATION_ERROR"
	ErrCodeNotFound   = "NOT_FOUND"
	ErrCodeConflict   = "CONFLICT"
	ErrCodeStore      = "STORE_ERROR"
	ErrCodeParse      = "PARSE_ERROR"

	// Fatal import errors.
	ErrCodeNoDiagram          = "NO_DIAGRAM"
	ErrCodeNoPlane            = "NO_PLANE"
	ErrCodeNoDisplayCandidate = "NO_DISPLAY_CANDIDATE"
	ErrCodeUnsupportedRoot    = "UNSUPPORTED_ROOT"
	ErrCodeDiagramNotInDefs   = "DIAGRAM_NOT_IN_DEFINITIONS"
	ErrCodeNotYetDrawn        = "NOT_YET_DRAWN"

	// Per-element import warnings.
	ErrCodeAlreadyRendered     = "ALREADY_RENDERED"
	ErrCodeNoElementReferenced = "NO_ELEMENT_REFERENCED"
	ErrCodeMultipleDI          = "MULTIPLE_DI"
	ErrCodeUnrecognizedElement = "UNRECOGNIZED_ELEMENT"
	ErrCodeRootInferred        = "ROOT_INFERRED"
	ErrCodeUnknownDI           = "UNKNOWN_DI"
	ErrCodeInvalidExpression   = "INVALID_EXPRESSION"
	ErrCodeUnresolvedReference = "UNRESOLVED_REFERENCE"
	ErrCodeDuplicateID         = "DUPLICATE_ID"

	// Editing errors.
	ErrCodeNoParentForElement = "NO_PARENT_FOR_ELEMENT"
	ErrCodeRuleRejected       = "RULE_REJECTED"
	ErrCodeUnknownCommand     = "UNKNOWN_COMMAND"
)

// VdmlError is the structured error type for all vdmlio operations.
type VdmlError struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	ElementID string         `json:"element_id,omitempty"`
	Cause     error          `json:"-"`
}

func (e *VdmlError) Error() string {
	if e.ElementID != "" {
		return fmt.Sprintf("[%s] element %s: %s", e.Code, e.ElementID, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *VdmlError) Unwrap() error {
	return e.Cause
}

// NewError creates a new VdmlError.
func NewError(code, message string) *VdmlError {
	return &VdmlError{Code: code, Message: message}
}

// NewErrorf creates a new VdmlError with a formatted message.
func NewErrorf(code, format string, args ...any) *VdmlError {
	return &VdmlError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithElement attaches the ID of the offending element.
func (e *VdmlError) WithElement(id string) *VdmlError {
	e.ElementID = id
	return e
}

// WithCause attaches an underlying cause.
func (e *VdmlError) WithCause(err error) *VdmlError {
	e.Cause = err
	return e
}

// WithDetails attaches key-value details.
func (e *VdmlError) WithDetails(details map[string]any) *VdmlError {
	e.Details = details
	return e
}

// IsCode reports whether any error in err's chain is a VdmlError with the given code.
func IsCode(err error, code string) bool {
	var verr *VdmlError
	for err != nil {
		if errors.As(err, &verr) {
			if verr.Code == code {
				return true
			}
			err = verr.Cause
			continue
		}
		return false
	}
	return false
}

// CodeOf returns the code of the first VdmlError in err's chain, or "".
func CodeOf(err error) string {
	var verr *VdmlError
	if errors.As(err, &verr) {
		return verr.Code
	}
	return ""
}
