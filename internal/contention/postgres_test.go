package contention

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/yigit/courseenroll/internal/app/repositories"
	"github.com/yigit/courseenroll/internal/app/services"
	"github.com/yigit/courseenroll/internal/db/dbtest"
)

func TestRunnerKeepsInvariantsOnPostgres(t *testing.T) {
	database := dbtest.Open(t)
	txManager := repositories.NewPostgresTxManager(database, 5*time.Second)
	router := services.NewDefaultEnrollmentStrategyRouter(txManager, zerolog.Nop())
	enrollments := services.NewEnrollmentService(router, services.StrategyAtomic, zerolog.Nop())

	runner, err := NewRunner(txManager, enrollments, smallOptions(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	results, err := runner.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != len(services.AllStrategyTypes())*2 {
		t.Fatalf("got %d results", len(results))
	}

	for _, r := range results {
		if !r.Passed() {
			t.Errorf("%s/%s failed: %+v", r.Scenario, r.Strategy, r.Verdicts)
		}
		if r.Successes+sum(r.Failures) != r.Requests {
			t.Errorf("%s/%s: %d successes + %v != %d requests", r.Scenario, r.Strategy, r.Successes, r.Failures, r.Requests)
		}

		switch r.Scenario {
		case ScenarioHotCourse:
			if r.Successes < 1 || r.ActiveRows > 3 {
				t.Errorf("%s: hot course successes=%d active=%d", r.Strategy, r.Successes, r.ActiveRows)
			}
		case ScenarioSingleStudent:
			if r.Successes != 1 {
				t.Errorf("%s: single student successes = %d, want 1", r.Strategy, r.Successes)
			}
		}
	}
}
