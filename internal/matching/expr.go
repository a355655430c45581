package matching

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ExprEnv is the set of request facts visible to an expression leaf.
type ExprEnv struct {
	Method  string              `expr:"method"`
	Path    string              `expr:"path"`
	Query   map[string][]string `expr:"query"`
	Headers map[string][]string `expr:"headers"`
	Body    string              `expr:"body"`
	JSON    any                 `expr:"json"`
}

// CompileExpr compiles a boolean expr-lang expression at rule build time,
// type-checked against ExprEnv.
func CompileExpr(expression string) (*vm.Program, error) {
	if expression == "" {
		return nil, fmt.Errorf("expression is empty")
	}
	program, err := expr.Compile(expression, expr.Env(ExprEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", expression, err)
	}
	return program, nil
}

// RunExpr evaluates a compiled expression.
func RunExpr(program *vm.Program, env ExprEnv) (bool, error) {
	out, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("eval: %w", err)
	}
	matched, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("eval: result is %T, not bool", out)
	}
	return matched, nil
}
