package register

import (
	"errors"
	"strings"
	"testing"

	"montagereg/internal/dewarp"
	"montagereg/internal/opt"
)

func TestRegisterRequiresInitialize(t *testing.T) {
	cost := NewConvolutionCostFunction(dewarp.NewPolyModel())
	_, err := Register(cost, opt.NewAmoeba(), dewarp.NewPolyModel().IdentityParameters(), nil)
	if !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("Register error = %v, want ErrNotInitialized", err)
	}
}

func TestRegisterRejectsWrongStartLength(t *testing.T) {
	cost := initializedCost(t, 1, 2)
	if _, err := Register(cost, opt.NewAmoeba(), []float64{1, 2, 3}, nil); err == nil {
		t.Fatal("expected error for a 3-element start on a 14-parameter model")
	}
}

func TestRegisterHonorsEvaluationBudget(t *testing.T) {
	cost := initializedCost(t, 1, 2)
	amoeba := opt.NewAmoeba()
	amoeba.MaximumNumberOfIterations = 40

	var calls int
	result, err := Register(cost, amoeba, dewarp.NewPolyModel().IdentityParameters(), func(evaluation int, bestScore float64) {
		calls++
		if evaluation != calls {
			t.Errorf("progress evaluation = %d, want %d", evaluation, calls)
		}
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if result.Evaluations > 40 {
		t.Errorf("Evaluations = %d, exceeds budget of 40", result.Evaluations)
	}
	if calls != result.Evaluations {
		t.Errorf("progress called %d times for %d evaluations", calls, result.Evaluations)
	}
	if len(result.BestParameters) != 14 {
		t.Errorf("BestParameters has %d entries, want 14", len(result.BestParameters))
	}
	// The starting vector is a simplex vertex, so the best score can never
	// fall below the initial score.
	if result.BestScore < result.InitialScore {
		t.Errorf("BestScore %g below InitialScore %g", result.BestScore, result.InitialScore)
	}
	if result.StopCondition == "" {
		t.Error("StopCondition is empty")
	}
}

func TestRegisterCancellation(t *testing.T) {
	cost := initializedCost(t, 1, 2)
	amoeba := opt.NewAmoeba()

	result, err := Register(cost, amoeba, dewarp.NewPolyModel().IdentityParameters(), func(evaluation int, bestScore float64) {
		if evaluation == 3 {
			amoeba.Cancel()
		}
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if !strings.Contains(result.StopCondition, "cancelled") {
		t.Errorf("StopCondition = %q, want a cancellation notice", result.StopCondition)
	}
	if result.Evaluations != 3 {
		t.Errorf("Evaluations = %d, want 3", result.Evaluations)
	}
	if result.BestParameters == nil {
		t.Error("BestParameters is nil after cancellation")
	}
}
