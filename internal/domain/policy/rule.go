package policy

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// RuleInput is the data exposed to approval rule expressions.
type RuleInput struct {
	DaysSinceSale int
	MaxReturnDays int
	TotalRefund   int64
	ItemCount     int
	DamagedCount  int
}

func (in RuleInput) vars() map[string]any {
	return map[string]any{
		"days_since_sale": int64(in.DaysSinceSale),
		"max_return_days": int64(in.MaxReturnDays),
		"total_refund":    in.TotalRefund,
		"item_count":      int64(in.ItemCount),
		"damaged_count":   int64(in.DamagedCount),
	}
}

// RuleEngine compiles and caches approval rule expressions.
type RuleEngine struct {
	env *cel.Env

	mu       sync.Mutex
	programs map[string]cel.Program
}

// NewRuleEngine declares the rule variables.
func NewRuleEngine() (*RuleEngine, error) {
	env, err := cel.NewEnv(
		cel.Variable("days_since_sale", cel.IntType),
		cel.Variable("max_return_days", cel.IntType),
		cel.Variable("total_refund", cel.IntType),
		cel.Variable("item_count", cel.IntType),
		cel.Variable("damaged_count", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	return &RuleEngine{env: env, programs: make(map[string]cel.Program)}, nil
}

// Compile checks that expr is a boolean expression over the rule variables.
func (e *RuleEngine) Compile(expr string) (cel.Program, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if prg, ok := e.programs[expr]; ok {
		return prg, nil
	}

	ast, iss := e.env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("compile approval rule: %w", iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("approval rule must be boolean, got %s", ast.OutputType())
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program approval rule: %w", err)
	}
	e.programs[expr] = prg
	return prg, nil
}

// RequiresApproval evaluates expr; an empty expression never requires approval.
func (e *RuleEngine) RequiresApproval(expr string, in RuleInput) (bool, error) {
	if expr == "" {
		return false, nil
	}
	prg, err := e.Compile(expr)
	if err != nil {
		return false, err
	}
	out, _, err := prg.Eval(in.vars())
	if err != nil {
		return false, fmt.Errorf("eval approval rule: %w", err)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("approval rule returned %T", out.Value())
	}
	return b, nil
}
