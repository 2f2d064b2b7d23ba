package simplex

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
	gonumlp "gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/vsinha/linealloc/pkg/domain/lp"
)

const tol = 1e-6

func near(a, b float64) bool {
	return math.Abs(a-b) <= tol
}

func TestSolver_CoverAtMinimumHours(t *testing.T) {
	// Two lines making one product: the faster line is preferred until its
	// capacity is spent.
	m := lp.NewModel(lp.Minimize)
	fast := m.AddVariable("fast", math.Inf(1))
	slow := m.AddVariable("slow", math.Inf(1))
	m.AddConstraint("demand", []lp.Term{{Var: fast, Coef: 10}, {Var: slow, Coef: 2}}, lp.GreaterEq, 120)
	m.AddConstraint("cap_fast", []lp.Term{{Var: fast, Coef: 1}}, lp.LessEq, 10)
	m.Objective = []lp.Term{{Var: fast, Coef: 1}, {Var: slow, Coef: 1}}

	a, err := NewSolver().Solve(context.Background(), m)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if !near(a[fast], 10) {
		t.Errorf("Expected fast line at 10h, got %v", a[fast])
	}
	if !near(a[slow], 10) {
		t.Errorf("Expected slow line at 10h, got %v", a[slow])
	}
	if !m.Satisfies(a, tol) {
		t.Error("Expected assignment to satisfy the model")
	}
}

func TestSolver_FixedVariablesStayZero(t *testing.T) {
	m := lp.NewModel(lp.Minimize)
	x := m.AddVariable("x", math.Inf(1))
	pinned := m.AddVariable("pinned", 0)
	m.AddConstraint("demand", []lp.Term{{Var: x, Coef: 1}, {Var: pinned, Coef: 100}}, lp.GreaterEq, 5)
	m.Objective = []lp.Term{{Var: x, Coef: 1}, {Var: pinned, Coef: 1}}

	a, err := NewSolver().Solve(context.Background(), m)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if a[pinned] != 0 {
		t.Errorf("Expected pinned variable at 0, got %v", a[pinned])
	}
	if !near(a[x], 5) {
		t.Errorf("Expected x at 5, got %v", a[x])
	}
}

func TestSolver_UpperBound(t *testing.T) {
	m := lp.NewModel(lp.Maximize)
	x := m.AddVariable("x", 3)
	y := m.AddVariable("y", math.Inf(1))
	m.AddConstraint("total", []lp.Term{{Var: x, Coef: 1}, {Var: y, Coef: 1}}, lp.LessEq, 4)
	m.Objective = []lp.Term{{Var: x, Coef: 2}, {Var: y, Coef: 1}}

	a, err := NewSolver().Solve(context.Background(), m)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if !near(a[x], 3) || !near(a[y], 1) {
		t.Errorf("Expected (3, 1), got (%v, %v)", a[x], a[y])
	}
}

func TestSolver_EmptyModel(t *testing.T) {
	a, err := NewSolver().Solve(context.Background(), lp.NewModel(lp.Minimize))
	if err != nil {
		t.Fatalf("Expected empty model to solve, got %v", err)
	}
	if len(a) != 0 {
		t.Errorf("Expected empty assignment, got %v", a)
	}
}

func TestSolver_Infeasible(t *testing.T) {
	m := lp.NewModel(lp.Minimize)
	x := m.AddVariable("x", math.Inf(1))
	m.AddConstraint("need", []lp.Term{{Var: x, Coef: 1}}, lp.GreaterEq, 10)
	m.AddConstraint("cap", []lp.Term{{Var: x, Coef: 1}}, lp.LessEq, 5)
	m.Objective = []lp.Term{{Var: x, Coef: 1}}

	_, err := NewSolver().Solve(context.Background(), m)
	if !errors.Is(err, lp.ErrInfeasible) {
		t.Errorf("Expected ErrInfeasible, got %v", err)
	}
}

func TestSolver_InfeasibleWithoutVariables(t *testing.T) {
	m := lp.NewModel(lp.Minimize)
	pinned := m.AddVariable("pinned", 0)
	m.AddConstraint("need", []lp.Term{{Var: pinned, Coef: 1}}, lp.GreaterEq, 1)

	_, err := NewSolver().Solve(context.Background(), m)
	if !errors.Is(err, lp.ErrInfeasible) {
		t.Errorf("Expected ErrInfeasible, got %v", err)
	}
}

func TestSolver_UnconstrainedNegativeCost(t *testing.T) {
	m := lp.NewModel(lp.Maximize)
	x := m.AddVariable("x", math.Inf(1))
	m.Objective = []lp.Term{{Var: x, Coef: 1}}

	_, err := NewSolver().Solve(context.Background(), m)
	if !errors.Is(err, lp.ErrUnbounded) {
		t.Errorf("Expected ErrUnbounded, got %v", err)
	}
}

func TestSolver_EngineFailureIsTranslated(t *testing.T) {
	original := simplexFn
	defer func() { simplexFn = original }()

	tests := []struct {
		name   string
		engine error
		want   error
	}{
		{"infeasible", gonumlp.ErrInfeasible, lp.ErrInfeasible},
		{"unbounded", gonumlp.ErrUnbounded, lp.ErrUnbounded},
		{"singular", gonumlp.ErrSingular, lp.ErrNumerical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			simplexFn = func(c []float64, A mat.Matrix, b []float64, tol float64, initialBasic []int) (float64, []float64, error) {
				return 0, nil, tt.engine
			}
			m := lp.NewModel(lp.Minimize)
			x := m.AddVariable("x", math.Inf(1))
			m.AddConstraint("need", []lp.Term{{Var: x, Coef: 1}}, lp.GreaterEq, 1)
			m.Objective = []lp.Term{{Var: x, Coef: 1}}

			_, err := NewSolver().Solve(context.Background(), m)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSolver_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSolver().Solve(ctx, lp.NewModel(lp.Minimize))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestSolver_BadlyScaledCover(t *testing.T) {
	// A slow line with a huge demand needs about 1e11 hours.
	m := lp.NewModel(lp.Minimize)
	line := m.AddVariable("line", math.Inf(1))
	slow := m.AddVariable("slow", math.Inf(1))
	m.AddConstraint("demand", []lp.Term{{Var: line, Coef: 5}, {Var: slow, Coef: 0.01}}, lp.GreaterEq, 1e9)
	m.AddConstraint("cap_line", []lp.Term{{Var: line, Coef: 1}}, lp.LessEq, 10)
	m.Objective = []lp.Term{{Var: line, Coef: 1}, {Var: slow, Coef: 1}}

	a, err := NewSolver().Solve(context.Background(), m)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if !near(a[line], 10) {
		t.Errorf("Expected line at 10h, got %v", a[line])
	}
	want := (1e9 - 50) / 0.01
	if math.Abs(a[slow]-want) > 1e-9*want {
		t.Errorf("Expected slow line at %v h, got %v", want, a[slow])
	}
}

func TestSolver_IndependentBlocks(t *testing.T) {
	calls := 0
	original := simplexFn
	defer func() { simplexFn = original }()
	simplexFn = func(c []float64, A mat.Matrix, b []float64, tol float64, initialBasic []int) (float64, []float64, error) {
		calls++
		return original(c, A, b, tol, initialBasic)
	}

	m := lp.NewModel(lp.Minimize)
	var xs []int
	for i := range 3 {
		x := m.AddVariable(fmt.Sprintf("x%d", i), math.Inf(1))
		y := m.AddVariable(fmt.Sprintf("y%d", i), math.Inf(1))
		m.AddConstraint(fmt.Sprintf("need%d", i), []lp.Term{{Var: x, Coef: 2}, {Var: y, Coef: 1}}, lp.GreaterEq, float64(10*(i+1)))
		m.AddConstraint(fmt.Sprintf("cap%d", i), []lp.Term{{Var: x, Coef: 1}}, lp.LessEq, 4)
		m.Objective = append(m.Objective, lp.Term{Var: x, Coef: 1}, lp.Term{Var: y, Coef: 1})
		xs = append(xs, x, y)
	}

	a, err := NewSolver().Solve(context.Background(), m)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 engine calls, got %d", calls)
	}
	for i := range 3 {
		x, y := a[xs[2*i]], a[xs[2*i+1]]
		wantY := float64(10*(i+1)) - 8
		if !near(x, 4) || !near(y, wantY) {
			t.Errorf("Block %d: expected x=4 y=%v, got x=%v y=%v", i, wantY, x, y)
		}
	}
	if !m.Satisfies(a, tol) {
		t.Error("Expected assignment to satisfy the model")
	}
}

func TestSolver_NegativeRightHandSide(t *testing.T) {
	// -x <= -3 is x >= 3
	m := lp.NewModel(lp.Minimize)
	x := m.AddVariable("x", math.Inf(1))
	m.AddConstraint("floor", []lp.Term{{Var: x, Coef: -1}}, lp.LessEq, -3)
	m.Objective = []lp.Term{{Var: x, Coef: 1}}

	a, err := NewSolver().Solve(context.Background(), m)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if !near(a[x], 3) {
		t.Errorf("Expected x at 3, got %v", a[x])
	}
}
