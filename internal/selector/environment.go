// Package selector evaluates CEL predicates that pick probe files by their
// step and group ids, e.g.
//
//	step >= 1000 && step % 10 == 0
//	group == 2 && between(step, 500, 900)
package selector

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// Variables visible to a step filter.
const (
	VarStep  = "step"
	VarGroup = "group"
)

// NewEnvironment creates the CEL environment step filters are compiled in.
func NewEnvironment() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable(VarStep, cel.IntType),
		cel.Variable(VarGroup, cel.IntType),
		RangeFunctions(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return env, nil
}

// RangeFunctions registers between(x, lo, hi), true when lo <= x <= hi.
func RangeFunctions() cel.EnvOption {
	return cel.Lib(&rangeLib{})
}

type rangeLib struct{}

func (*rangeLib) CompileOptions() []cel.EnvOption {
	return []cel.EnvOption{
		cel.Function("between",
			cel.Overload("between_int_int_int", []*cel.Type{cel.IntType, cel.IntType, cel.IntType}, cel.BoolType,
				cel.FunctionBinding(func(args ...ref.Val) ref.Val {
					x, ok1 := args[0].(types.Int)
					lo, ok2 := args[1].(types.Int)
					hi, ok3 := args[2].(types.Int)
					if !ok1 || !ok2 || !ok3 {
						return types.NewErr("arguments to between must be integers")
					}
					return types.Bool(lo <= x && x <= hi)
				}),
			),
		),
	}
}

func (*rangeLib) ProgramOptions() []cel.ProgramOption {
	return nil
}
