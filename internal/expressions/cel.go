package expressions

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"
)

// CELEngine evaluates Common Expression Language conditions.
type CELEngine struct {
	programs *programs[cel.Program]
}

// NewCELEngine creates a CEL engine whose environment declares data and flow
// as dynamic maps.
func NewCELEngine() (*CELEngine, error) {
	dyn := cel.MapType(cel.StringType, cel.DynType)
	env, err := cel.NewEnv(cel.Variable("data", dyn), cel.Variable("flow", dyn))
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}
	return &CELEngine{programs: newPrograms("cel", func(s string) (cel.Program, error) {
		ast, issues := env.Compile(s)
		if issues != nil && issues.Err() != nil {
			return nil, invalid("cel", "compile", s, issues.Err())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, invalid("cel", "program", s, err)
		}
		return prg, nil
	})}, nil
}

func (e *CELEngine) Name() string { return "cel" }

func (e *CELEngine) Compile(expression string) error {
	_, err := e.programs.get(expression)
	return err
}

func (e *CELEngine) Evaluate(ctx context.Context, expression string, scope Scope) (any, error) {
	prg, err := e.programs.get(expression)
	if err != nil {
		return nil, err
	}
	out, _, err := prg.ContextEval(ctx, scope.vars())
	if err != nil {
		return nil, invalid("cel", "evaluation", expression, err)
	}
	return out.Value(), nil
}

var _ Engine = (*CELEngine)(nil)
