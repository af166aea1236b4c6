package expressions

import (
	"sync"

	"github.com/mrajende/vdmlio/pkg/schema"
)

// programs caches compiled programs of one language by expression text.
// Conditions are few and repeat across imports, so entries are never evicted.
type programs[P any] struct {
	lang    string
	compile func(expression string) (P, error)

	mu      sync.RWMutex
	entries map[string]P
}

func newPrograms[P any](lang string, compile func(string) (P, error)) *programs[P] {
	return &programs[P]{lang: lang, compile: compile, entries: make(map[string]P)}
}

func (c *programs[P]) get(expression string) (P, error) {
	var zero P
	if expression == "" {
		return zero, schema.NewErrorf(schema.ErrCodeInvalidExpression, "empty %s expression", c.lang)
	}
	c.mu.RLock()
	p, ok := c.entries[expression]
	c.mu.RUnlock()
	if ok {
		return p, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.entries[expression]; ok {
		return p, nil
	}
	p, err := c.compile(expression)
	if err != nil {
		return zero, err
	}
	c.entries[expression] = p
	return p, nil
}

func (c *programs[P]) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// invalid wraps an engine failure at stage (compile, evaluate) as an
// INVALID_EXPRESSION error.
func invalid(lang, stage, expression string, err error) error {
	return schema.NewErrorf(schema.ErrCodeInvalidExpression,
		"%s %s failed for %q: %s", lang, stage, expression, err.Error()).
		WithCause(err).
		WithDetails(map[string]any{"expression": expression, "language": lang})
}
