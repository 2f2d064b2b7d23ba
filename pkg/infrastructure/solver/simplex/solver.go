// Package simplex solves lp.Model values with gonum's simplex implementation.
package simplex

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"
	gonumlp "gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/vsinha/linealloc/pkg/domain/lp"
)

// DefaultTolerance is the simplex pivot tolerance
const DefaultTolerance = 1e-10

// Config holds solver settings
type Config struct {
	Tolerance float64
}

// Solver converts a model into standard form (Ax = b, x >= 0) and runs the
// simplex method on it
type Solver struct {
	config Config
}

// Verify interface compliance
var _ lp.Solver = (*Solver)(nil)

// NewSolver creates a solver with the default tolerance
func NewSolver() *Solver {
	return NewSolverWithConfig(Config{Tolerance: DefaultTolerance})
}

// NewSolverWithConfig creates a solver with custom settings
func NewSolverWithConfig(config Config) *Solver {
	if config.Tolerance <= 0 {
		config.Tolerance = DefaultTolerance
	}
	return &Solver{config: config}
}

// simplexFn points to the engine entry point. Tests override it to simulate
// engine failures.
var simplexFn = gonumlp.Simplex

// row is one constraint restricted to the variables that can move
type row struct {
	coefs map[int]float64
	rel   lp.Relation
	rhs   float64
}

// standardForm is the matrix problem handed to the engine for one block of
// the model, plus the mapping back to model variables
type standardForm struct {
	c      []float64
	a      *mat.Dense
	b      []float64
	column []int     // model variable index for each structural column
	scale  []float64 // model value = engine value × scale, per structural column
}

// Solve returns an optimal assignment for the model. Rows that share no
// variable are split into independent blocks, each solved on its own. The
// engine call itself cannot be interrupted; the context is checked before
// and after every block.
func (s *Solver) Solve(ctx context.Context, model *lp.Model) (lp.Assignment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", lp.ErrNumerical, err)
	}

	assignment := make(lp.Assignment, len(model.Variables))

	cost, rows, err := prepare(model)
	if err != nil {
		return nil, err
	}

	for _, block := range splitBlocks(rows) {
		form, err := buildStandardForm(cost, block)
		if err != nil {
			return nil, err
		}

		_, x, err := simplexFn(form.c, form.a, form.b, s.config.Tolerance, nil)
		if err != nil {
			return nil, translateError(err)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for col, v := range form.column {
			value := x[col] * form.scale[col]
			if value < 0 {
				value = 0
			}
			assignment[v] = value
		}
	}
	return assignment, nil
}

// prepare returns the minimization cost vector and the rows over non-fixed
// variables. Finite upper bounds become rows of their own.
func prepare(model *lp.Model) ([]float64, []row, error) {
	cost := make([]float64, len(model.Variables))
	for _, term := range model.Objective {
		cost[term.Var] += term.Coef
	}
	if model.Sense == lp.Maximize {
		for i := range cost {
			cost[i] = -cost[i]
		}
	}

	var rows []row
	used := make([]bool, len(model.Variables))

	for _, c := range model.Constraints {
		coefs := make(map[int]float64, len(c.Terms))
		for _, term := range c.Terms {
			if model.Variables[term.Var].Fixed() || term.Coef == 0 {
				continue
			}
			coefs[term.Var] += term.Coef
		}
		for v, coef := range coefs {
			if coef == 0 {
				delete(coefs, v)
			}
		}
		if len(coefs) == 0 {
			if !holdsAtZero(c.Relation, c.RHS) {
				return nil, nil, fmt.Errorf("%w: constraint %s cannot be met", lp.ErrInfeasible, c.Name)
			}
			continue
		}
		for v := range coefs {
			used[v] = true
		}
		rows = append(rows, row{coefs: coefs, rel: c.Relation, rhs: c.RHS})
	}
	for i, v := range model.Variables {
		if v.Fixed() || math.IsInf(v.Upper, 1) {
			continue
		}
		used[i] = true
		rows = append(rows, row{coefs: map[int]float64{i: 1}, rel: lp.LessEq, rhs: v.Upper})
	}

	// A variable that appears in no row is only driven by its cost.
	for i, v := range model.Variables {
		if !v.Fixed() && !used[i] && cost[i] < 0 {
			return nil, nil, fmt.Errorf("%w: variable %s has no constraint", lp.ErrUnbounded, v.Name)
		}
	}
	return cost, rows, nil
}

// splitBlocks groups rows into connected components: two rows are in the
// same block when they share a variable. Blocks keep the order of their
// first row.
func splitBlocks(rows []row) [][]row {
	parent := make([]int, len(rows))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}

	owner := make(map[int]int)
	for i, r := range rows {
		for v := range r.coefs {
			if j, ok := owner[v]; ok {
				if ri, rj := find(i), find(j); ri != rj {
					parent[max(ri, rj)] = min(ri, rj)
				}
			} else {
				owner[v] = i
			}
		}
	}

	index := make(map[int]int)
	var blocks [][]row
	for i, r := range rows {
		root := find(i)
		b, ok := index[root]
		if !ok {
			b = len(blocks)
			index[root] = b
			blocks = append(blocks, nil)
		}
		blocks[b] = append(blocks[b], r)
	}
	return blocks
}

// buildStandardForm converts one block into Ax = b, x >= 0 with a slack or
// surplus column per inequality. The problem is rescaled so gonum's absolute
// tolerances hold: every column is divided by its largest coefficient, every
// row by its largest remaining coefficient, and b by its largest entry.
func buildStandardForm(cost []float64, rows []row) (*standardForm, error) {
	var column []int
	colOf := make(map[int]int)
	for _, r := range rows {
		for v := range r.coefs {
			if _, ok := colOf[v]; !ok {
				colOf[v] = len(column)
				column = append(column, v)
			}
		}
	}
	// map iteration order must not leak into the engine's pivoting
	slices.Sort(column)
	for col, v := range column {
		colOf[v] = col
	}

	colScale := make([]float64, len(column))
	for _, r := range rows {
		for v, coef := range r.coefs {
			col := colOf[v]
			colScale[col] = max(colScale[col], math.Abs(coef))
		}
	}

	slacks := 0
	for _, r := range rows {
		if r.rel != lp.Equal {
			slacks++
		}
	}
	nCols := len(column) + slacks
	if len(rows) > nCols {
		return nil, fmt.Errorf("%w: %d rows exceed %d columns", lp.ErrNumerical, len(rows), nCols)
	}

	a := mat.NewDense(len(rows), nCols, nil)
	b := make([]float64, len(rows))
	slack := len(column)
	for i, r := range rows {
		rowScale := 0.0
		for v, coef := range r.coefs {
			rowScale = max(rowScale, math.Abs(coef)/colScale[colOf[v]])
		}
		// rows are flipped so b >= 0
		dir := 1.0
		if r.rhs < 0 {
			dir = -1
		}
		for v, coef := range r.coefs {
			col := colOf[v]
			a.Set(i, col, dir*coef/colScale[col]/rowScale)
		}
		switch r.rel {
		case lp.LessEq:
			a.Set(i, slack, dir)
			slack++
		case lp.GreaterEq:
			a.Set(i, slack, -dir)
			slack++
		}
		b[i] = dir * r.rhs / rowScale
	}

	c := make([]float64, nCols)
	scale := make([]float64, len(column))
	for col, v := range column {
		c[col] = cost[v] / colScale[col]
		scale[col] = 1 / colScale[col]
	}

	// Dividing b by a constant divides every solution value by it.
	if top := slices.Max(b); top > 1 {
		for i := range b {
			b[i] /= top
		}
		for col := range scale {
			scale[col] *= top
		}
	}

	return &standardForm{c: c, a: a, b: b, column: column, scale: scale}, nil
}

func holdsAtZero(rel lp.Relation, rhs float64) bool {
	switch rel {
	case lp.LessEq:
		return rhs >= 0
	case lp.GreaterEq:
		return rhs <= 0
	default:
		return rhs == 0
	}
}

func translateError(err error) error {
	switch {
	case errors.Is(err, gonumlp.ErrInfeasible):
		return fmt.Errorf("%w: %v", lp.ErrInfeasible, err)
	case errors.Is(err, gonumlp.ErrUnbounded):
		return fmt.Errorf("%w: %v", lp.ErrUnbounded, err)
	default:
		return fmt.Errorf("%w: %v", lp.ErrNumerical, err)
	}
}
