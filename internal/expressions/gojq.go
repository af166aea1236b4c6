package expressions

import (
	"context"

	"github.com/itchyny/gojq"
)

// GoJQEngine evaluates jq conditions. The input document is the scope
// object, so conditions read .data and .flow.
type GoJQEngine struct {
	programs *programs[*gojq.Code]
}

// NewGoJQEngine creates a jq engine. Queries cannot read $ENV.
func NewGoJQEngine() *GoJQEngine {
	noEnv := gojq.WithEnvironLoader(func() []string { return nil })
	return &GoJQEngine{programs: newPrograms("jq", func(s string) (*gojq.Code, error) {
		query, err := gojq.Parse(s)
		if err != nil {
			return nil, invalid("jq", "parse", s, err)
		}
		code, err := gojq.Compile(query, noEnv)
		if err != nil {
			return nil, invalid("jq", "compile", s, err)
		}
		return code, nil
	})}
}

func (e *GoJQEngine) Name() string { return "jq" }

func (e *GoJQEngine) Compile(expression string) error {
	_, err := e.programs.get(expression)
	return err
}

// Evaluate returns the single output of expression, nil for none and a
// slice when the query emits several values.
func (e *GoJQEngine) Evaluate(ctx context.Context, expression string, scope Scope) (any, error) {
	code, err := e.programs.get(expression)
	if err != nil {
		return nil, err
	}

	var results []any
	iter := code.RunWithContext(ctx, jqValue(scope.vars()))
	for v, ok := iter.Next(); ok; v, ok = iter.Next() {
		if err, isErr := v.(error); isErr {
			return nil, invalid("jq", "evaluation", expression, err)
		}
		results = append(results, v)
	}
	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0], nil
	}
	return results, nil
}

// jqValue rewrites Go integers as float64, the number type gojq arithmetic
// works on.
func jqValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, item := range x {
			m[k] = jqValue(item)
		}
		return m
	case []any:
		s := make([]any, len(x))
		for i, item := range x {
			s[i] = jqValue(item)
		}
		return s
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case float32:
		return float64(x)
	}
	return v
}

var _ Engine = (*GoJQEngine)(nil)
