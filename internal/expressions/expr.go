package expressions

import (
	"context"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ExprEngine evaluates expr-lang conditions. It is the engine used when a
// condition names no language.
type ExprEngine struct {
	programs *programs[*vm.Program]
}

// NewExprEngine creates an expr engine.
func NewExprEngine() *ExprEngine {
	env := expr.Env(Scope{}.vars())
	return &ExprEngine{programs: newPrograms("expr", func(s string) (*vm.Program, error) {
		prg, err := expr.Compile(s, env)
		if err != nil {
			return nil, invalid("expr", "compile", s, err)
		}
		return prg, nil
	})}
}

func (e *ExprEngine) Name() string { return "expr" }

func (e *ExprEngine) Compile(expression string) error {
	_, err := e.programs.get(expression)
	return err
}

func (e *ExprEngine) Evaluate(ctx context.Context, expression string, scope Scope) (any, error) {
	prg, err := e.programs.get(expression)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := vm.Run(prg, scope.vars())
	if err != nil {
		return nil, invalid("expr", "evaluation", expression, err)
	}
	return out, nil
}

var _ Engine = (*ExprEngine)(nil)
