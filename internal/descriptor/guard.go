package descriptor

import (
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/zenohflow/runtime/internal/zferrors"
)

// Guard is a compiled CEL link guard. It is evaluated against the value an
// upstream node produced on a port ("output") and a configuration map
// supplied by the caller ("ctx"); a link only forwards data when Evaluate returns
// true. This is the declarative half of the output rule described by the
// token/rule engine: an unguarded link always forwards, a guarded one
// forwards conditionally without requiring a recompiled plug-in.
type Guard struct {
	expression string
	program    cel.Program
}

// GuardCompiler compiles CEL guard expressions, caching compiled programs
// by source text the way the teacher's condition.Evaluator caches
// compiled CEL programs per expression string.
type GuardCompiler struct {
	mu    sync.RWMutex
	cache map[string]*Guard
	env   *cel.Env
}

// NewGuardCompiler builds a GuardCompiler with the "output" and "ctx"
// dynamic variables available to every guard expression.
func NewGuardCompiler() (*GuardCompiler, error) {
	env, err := cel.NewEnv(
		cel.Variable("output", cel.DynType),
		cel.Variable("ctx", cel.DynType),
	)
	if err != nil {
		return nil, zferrors.Wrap(zferrors.GenericError, err, "creating CEL environment")
	}
	return &GuardCompiler{
		cache: make(map[string]*Guard),
		env:   env,
	}, nil
}

// Compile returns the cached Guard for expression, compiling it on first
// use.
func (c *GuardCompiler) Compile(expression string) (*Guard, error) {
	c.mu.RLock()
	if g, ok := c.cache[expression]; ok {
		c.mu.RUnlock()
		return g, nil
	}
	c.mu.RUnlock()

	ast, issues := c.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, zferrors.Wrap(zferrors.ParsingError, issues.Err(), "compiling link guard %q", expression)
	}
	program, err := c.env.Program(ast)
	if err != nil {
		return nil, zferrors.Wrap(zferrors.ParsingError, err, "building link guard program %q", expression)
	}

	g := &Guard{expression: expression, program: program}
	c.mu.Lock()
	c.cache[expression] = g
	c.mu.Unlock()
	return g, nil
}

// CacheSize reports how many distinct guard expressions have been
// compiled so far.
func (c *GuardCompiler) CacheSize() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// Evaluate runs the guard against output/ctx, returning its boolean
// result.
func (g *Guard) Evaluate(output interface{}, ctx Configuration) (bool, error) {
	out, _, err := g.program.Eval(map[string]interface{}{
		"output": output,
		"ctx":    map[string]interface{}(ctx),
	})
	if err != nil {
		return false, zferrors.Wrap(zferrors.GenericError, err, "evaluating link guard %q", g.expression)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, zferrors.New(zferrors.GenericError, "link guard %q did not evaluate to a boolean", g.expression)
	}
	return result, nil
}

// Expression returns the guard's original CEL source text.
func (g *Guard) Expression() string {
	return g.expression
}
