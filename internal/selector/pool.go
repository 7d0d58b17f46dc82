package selector

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// Pool caches compiled step filters.
type Pool struct {
	mu       sync.RWMutex
	programs map[string]cel.Program
	env      *cel.Env
}

// NewPool creates a pool over the default step filter environment.
func NewPool() (*Pool, error) {
	env, err := NewEnvironment()
	if err != nil {
		return nil, fmt.Errorf("failed to create environment: %w", err)
	}
	return &Pool{env: env, programs: make(map[string]cel.Program)}, nil
}

// Compile returns the program for expr, compiling it on first use.
// The expression must evaluate to a bool.
func (p *Pool) Compile(expr string) (cel.Program, error) {
	p.mu.RLock()
	if prg, ok := p.programs[expr]; ok {
		p.mu.RUnlock()
		return prg, nil
	}
	p.mu.RUnlock()

	ast, issues := p.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile step filter %q: %w", expr, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("step filter %q must evaluate to bool, not %s", expr, ast.OutputType())
	}

	prg, err := p.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for %q: %w", expr, err)
	}

	p.mu.Lock()
	p.programs[expr] = prg
	p.mu.Unlock()

	return prg, nil
}

// Match reports whether a probe file with the given ids passes expr.
func (p *Pool) Match(expr string, step, group int) (bool, error) {
	prg, err := p.Compile(expr)
	if err != nil {
		return false, err
	}

	out, _, err := prg.Eval(map[string]any{
		VarStep:  int64(step),
		VarGroup: int64(group),
	})
	if err != nil {
		return false, fmt.Errorf("step filter %q: %w", expr, err)
	}

	ok, isBool := out.Value().(bool)
	if !isBool {
		return false, fmt.Errorf("step filter %q returned %T, not bool", expr, out.Value())
	}
	return ok, nil
}

// Predicate compiles expr once and returns a matcher bound to it.
func (p *Pool) Predicate(expr string) (func(step, group int) (bool, error), error) {
	if _, err := p.Compile(expr); err != nil {
		return nil, err
	}
	return func(step, group int) (bool, error) {
		return p.Match(expr, step, group)
	}, nil
}
