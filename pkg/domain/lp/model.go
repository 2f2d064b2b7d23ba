// Package lp describes linear programs independently of the engine that
// solves them. The allocation pipeline builds a Model; a Solver returns one
// value per variable.
package lp

import (
	"context"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInfeasible is returned when no assignment satisfies the constraints
	ErrInfeasible = errors.New("lp: infeasible")
	// ErrUnbounded is returned when the objective can decrease without limit
	ErrUnbounded = errors.New("lp: unbounded")
	// ErrNumerical covers singular bases, cycling and other engine failures
	ErrNumerical = errors.New("lp: numerical failure")
)

// Sense is the optimization direction
type Sense int

const (
	Minimize Sense = iota
	Maximize
)

// Relation is the comparison used by a constraint row
type Relation int

const (
	LessEq Relation = iota
	GreaterEq
	Equal
)

// String method for Relation enum
func (r Relation) String() string {
	switch r {
	case LessEq:
		return "<="
	case GreaterEq:
		return ">="
	case Equal:
		return "="
	default:
		return "?"
	}
}

// Variable is a continuous decision variable with lower bound zero
type Variable struct {
	Name  string
	Upper float64 // +Inf when unbounded; 0 fixes the variable at zero
}

// Fixed reports whether the variable is pinned at zero
func (v Variable) Fixed() bool {
	return v.Upper == 0
}

// Term is a coefficient applied to a variable
type Term struct {
	Var  int
	Coef float64
}

// Constraint is a single linear row
type Constraint struct {
	Name     string
	Terms    []Term
	Relation Relation
	RHS      float64
}

// Model is a linear program over non-negative variables
type Model struct {
	Variables   []Variable
	Constraints []Constraint
	Objective   []Term
	Sense       Sense
}

// NewModel creates an empty model with the given sense
func NewModel(sense Sense) *Model {
	return &Model{Sense: sense}
}

// AddVariable appends a variable and returns its index
func (m *Model) AddVariable(name string, upper float64) int {
	m.Variables = append(m.Variables, Variable{Name: name, Upper: upper})
	return len(m.Variables) - 1
}

// AddConstraint appends a constraint row and returns its index
func (m *Model) AddConstraint(name string, terms []Term, rel Relation, rhs float64) int {
	m.Constraints = append(m.Constraints, Constraint{Name: name, Terms: terms, Relation: rel, RHS: rhs})
	return len(m.Constraints) - 1
}

// Validate checks that every term references a known variable and every
// coefficient and bound is usable by a solver
func (m *Model) Validate() error {
	check := func(where string, terms []Term) error {
		for _, term := range terms {
			if term.Var < 0 || term.Var >= len(m.Variables) {
				return fmt.Errorf("%s: variable index %d out of range", where, term.Var)
			}
			if math.IsNaN(term.Coef) || math.IsInf(term.Coef, 0) {
				return fmt.Errorf("%s: coefficient for %s is not finite", where, m.Variables[term.Var].Name)
			}
		}
		return nil
	}

	for _, v := range m.Variables {
		if math.IsNaN(v.Upper) || v.Upper < 0 {
			return fmt.Errorf("variable %s: invalid upper bound %v", v.Name, v.Upper)
		}
	}
	if err := check("objective", m.Objective); err != nil {
		return err
	}
	for _, c := range m.Constraints {
		if math.IsNaN(c.RHS) || math.IsInf(c.RHS, 0) {
			return fmt.Errorf("constraint %s: right-hand side is not finite", c.Name)
		}
		if err := check("constraint "+c.Name, c.Terms); err != nil {
			return err
		}
	}
	return nil
}

// Assignment holds one value per model variable, indexed like Model.Variables
type Assignment []float64

// Evaluate returns Σ coef·value over the terms
func (a Assignment) Evaluate(terms []Term) float64 {
	var total float64
	for _, term := range terms {
		total += term.Coef * a[term.Var]
	}
	return total
}

// Satisfies reports whether the assignment meets every constraint and bound
// within tol
func (m *Model) Satisfies(a Assignment, tol float64) bool {
	if len(a) != len(m.Variables) {
		return false
	}
	for i, v := range m.Variables {
		if a[i] < -tol || a[i] > v.Upper+tol {
			return false
		}
	}
	for _, c := range m.Constraints {
		lhs := a.Evaluate(c.Terms)
		switch c.Relation {
		case LessEq:
			if lhs > c.RHS+tol {
				return false
			}
		case GreaterEq:
			if lhs < c.RHS-tol {
				return false
			}
		case Equal:
			if math.Abs(lhs-c.RHS) > tol {
				return false
			}
		}
	}
	return true
}

// Solver is the engine boundary. Implementations return an optimal
// non-negative assignment, or an error wrapping one of the sentinels above.
type Solver interface {
	Solve(ctx context.Context, model *Model) (Assignment, error)
}

// SolverFunc adapts a function to the Solver interface
type SolverFunc func(ctx context.Context, model *Model) (Assignment, error)

// Solve calls f(ctx, model)
func (f SolverFunc) Solve(ctx context.Context, model *Model) (Assignment, error) {
	return f(ctx, model)
}
