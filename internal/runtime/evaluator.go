package runtime

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultProgramCacheSize bounds the compiled-program cache. Expressions
// are compiled after variable substitution, so a variable that changes
// every tick yields a new source text every tick.
const DefaultProgramCacheSize = 256

// ExprEvaluator evaluates boolean expressions with expr. Variables have
// already been substituted into the text, so programs run without an
// environment. Recently compiled programs are cached by source text.
type ExprEvaluator struct {
	programs *lru.Cache[string, *vm.Program]
}

// NewExprEvaluator creates an evaluator with an empty cache.
func NewExprEvaluator() *ExprEvaluator {
	// New only fails for a non-positive size.
	programs, _ := lru.New[string, *vm.Program](DefaultProgramCacheSize)
	return &ExprEvaluator{programs: programs}
}

// EvaluateBool compiles (once while cached) and runs expression.
// Non-boolean results are errors.
func (e *ExprEvaluator) EvaluateBool(expression string) (bool, error) {
	program, err := e.program(expression)
	if err != nil {
		return false, err
	}
	out, err := expr.Run(program, nil)
	if err != nil {
		return false, fmt.Errorf("evaluate %q: %w", expression, err)
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("evaluate %q: result is %T, not bool", expression, out)
	}
	return b, nil
}

func (e *ExprEvaluator) program(expression string) (*vm.Program, error) {
	if p, ok := e.programs.Get(expression); ok {
		return p, nil
	}
	p, err := expr.Compile(expression, expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", expression, err)
	}
	e.programs.Add(expression, p)
	return p, nil
}

// Cached returns the number of compiled programs held.
func (e *ExprEvaluator) Cached() int {
	return e.programs.Len()
}
