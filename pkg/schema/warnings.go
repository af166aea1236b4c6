package schema

import (
	"fmt"
	"strings"
)

// Warning is a recoverable problem found while reading or importing a document.
// ElementID locates the offending node; ContextID names the element it was
// being processed for, when different.
type Warning struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	ElementID string `json:"element_id,omitempty"`
	ContextID string `json:"context_id,omitempty"`
	Cause     error  `json:"-"`
}

func (w Warning) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", w.Code, w.Message)
	if w.Cause != nil {
		fmt.Fprintf(&b, ": %v", w.Cause)
	}
	return b.String()
}

// WarningFromError converts err into a Warning, keeping the code and element
// of a VdmlError when present.
func WarningFromError(err error, elementID string) Warning {
	w := Warning{Code: CodeOf(err), Message: err.Error(), ElementID: elementID, Cause: err}
	if w.Code == "" {
		w.Code = ErrCodeValidation
	}
	return w
}

// Warnings accumulates warnings in the order they were reported.
type Warnings []Warning

// Add appends a warning.
func (ws *Warnings) Add(code, elementID, format string, args ...any) {
	*ws = append(*ws, Warning{
		Code:      code,
		Message:   fmt.Sprintf(format, args...),
		ElementID: elementID,
	})
}

// Append appends already built warnings.
func (ws *Warnings) Append(more ...Warning) {
	*ws = append(*ws, more...)
}

// Count returns how many warnings carry code.
func (ws Warnings) Count(code string) int {
	n := 0
	for _, w := range ws {
		if w.Code == code {
			n++
		}
	}
	return n
}

// ByCode groups the warnings by code.
func (ws Warnings) ByCode() map[string]int {
	m := make(map[string]int)
	for _, w := range ws {
		m[w.Code]++
	}
	return m
}
