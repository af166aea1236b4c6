package schema

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVdmlError_Format(t *testing.T) {
	err := NewError(ErrCodeNoDiagram, "no diagram to display")
	assert.Equal(t, "[NO_DIAGRAM] no diagram to display", err.Error())

	err = NewErrorf(ErrCodeAlreadyRendered, "already rendered %s", "Task_1").WithElement("Task_1")
	assert.Equal(t, "[ALREADY_RENDERED] element Task_1: already rendered Task_1", err.Error())
}

func TestVdmlError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewError(ErrCodeStore, "save failed").WithCause(cause)
	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("outer: %w", err)
	var verr *VdmlError
	require.ErrorAs(t, wrapped, &verr)
	assert.Equal(t, ErrCodeStore, verr.Code)
}

func TestIsCode(t *testing.T) {
	inner := NewError(ErrCodeNotYetDrawn, "host not drawn")
	outer := NewError(ErrCodeValidation, "import failed").WithCause(inner)

	assert.True(t, IsCode(outer, ErrCodeValidation))
	assert.True(t, IsCode(outer, ErrCodeNotYetDrawn))
	assert.False(t, IsCode(outer, ErrCodeNoPlane))
	assert.False(t, IsCode(errors.New("plain"), ErrCodeNoPlane))
	assert.False(t, IsCode(nil, ErrCodeNoPlane))
}

func TestWarnings(t *testing.T) {
	var ws Warnings
	ws.Add(ErrCodeMultipleDI, "Task_1", "multiple DI elements defined for %s", "Task_1")
	ws.Add(ErrCodeNoElementReferenced, "Shape_9", "no element referenced")
	ws.Append(WarningFromError(NewError(ErrCodeMultipleDI, "again"), "Task_2"))

	assert.Len(t, ws, 3)
	assert.Equal(t, 2, ws.Count(ErrCodeMultipleDI))
	assert.Equal(t, map[string]int{ErrCodeMultipleDI: 2, ErrCodeNoElementReferenced: 1}, ws.ByCode())
	assert.Equal(t, "Task_2", ws[2].ElementID)

	plain := WarningFromError(errors.New("x"), "")
	assert.Equal(t, ErrCodeValidation, plain.Code)
}
