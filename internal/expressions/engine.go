// Package expressions compiles and evaluates the condition expressions
// carried by sequence flows. Three languages are supported: expr (the
// default), CEL and jq. Every engine sees the same two variables: data, the
// caller supplied values, and flow, a description of the flow being tested.
package expressions

import (
	"context"
	"sort"
	"strings"

	"github.com/mrajende/vdmlio/internal/model"
	"github.com/mrajende/vdmlio/pkg/schema"
)

// DefaultLanguage is used for expressions without a language attribute.
const DefaultLanguage = "expr"

// Engine compiles and evaluates expressions of one language.
type Engine interface {
	Name() string
	// Compile checks expression without evaluating it.
	Compile(expression string) error
	Evaluate(ctx context.Context, expression string, scope Scope) (any, error)
}

// Registry maps language names to engines.
type Registry struct {
	engines map[string]Engine
	aliases map[string]string
}

// NewRegistry returns a registry holding the expr, CEL and jq engines.
func NewRegistry() (*Registry, error) {
	celEngine, err := NewCELEngine()
	if err != nil {
		return nil, err
	}
	r := &Registry{engines: make(map[string]Engine), aliases: make(map[string]string)}
	r.Register(NewExprEngine())
	r.Register(celEngine)
	r.Register(NewGoJQEngine(), "gojq")
	return r, nil
}

// Register adds e under its name and the given aliases.
func (r *Registry) Register(e Engine, aliases ...string) {
	r.engines[e.Name()] = e
	for _, a := range aliases {
		r.aliases[a] = e.Name()
	}
}

// Languages lists the registered language names.
func (r *Registry) Languages() []string {
	out := make([]string, 0, len(r.engines))
	for name := range r.engines {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Engine returns the engine for language. An empty language selects the
// default. Matching ignores case.
func (r *Registry) Engine(language string) (Engine, error) {
	lang := strings.ToLower(strings.TrimSpace(language))
	if lang == "" {
		lang = DefaultLanguage
	}
	if alias, ok := r.aliases[lang]; ok {
		lang = alias
	}
	e, ok := r.engines[lang]
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeInvalidExpression, "unsupported expression language %q", language).
			WithDetails(map[string]any{"language": language, "supported": r.Languages()})
	}
	return e, nil
}

// Lint compiles the condition of every node in doc and reports the ones that
// do not compile.
func (r *Registry) Lint(doc *model.Document) schema.Warnings {
	var warnings schema.Warnings
	doc.Definitions.Walk(func(n *model.Node) bool {
		c := n.ConditionExpression
		if c == nil || strings.TrimSpace(c.Body) == "" {
			return true
		}
		e, err := r.Engine(c.Language)
		if err == nil {
			err = e.Compile(c.Body)
		}
		if err != nil {
			w := schema.WarningFromError(err, n.ID)
			w.Code = schema.ErrCodeInvalidExpression
			w.Message = "invalid condition on " + n.ID + ": " + err.Error()
			warnings.Append(w)
		}
		return true
	})
	return warnings
}

// EvaluateCondition evaluates the condition of flow against data. A flow
// without a condition is always taken. A condition that does not produce a
// boolean is an error.
func (r *Registry) EvaluateCondition(ctx context.Context, flow *model.Node, data map[string]any) (bool, error) {
	c := flow.ConditionExpression
	if c == nil || strings.TrimSpace(c.Body) == "" {
		return true, nil
	}
	e, err := r.Engine(c.Language)
	if err != nil {
		return false, err
	}
	out, err := e.Evaluate(ctx, c.Body, NewScope(flow, data))
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, schema.NewErrorf(schema.ErrCodeInvalidExpression,
			"condition of %s evaluated to %T, not a boolean", flow.ID, out).
			WithElement(flow.ID).
			WithDetails(map[string]any{"expression": c.Body, "result": out})
	}
	return b, nil
}
