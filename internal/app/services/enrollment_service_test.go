package services

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
)

func TestEnrollmentServiceRoutesCalls(t *testing.T) {
	t.Parallel()

	registered := stubs()
	service := NewEnrollmentService(MustNewEnrollmentStrategyRouter(stubList(registered)...), StrategyOptimistic, zerolog.Nop())
	ctx := context.Background()

	if _, err := service.Enroll(ctx, 1, 100); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if _, err := service.EnrollPessimistic(ctx, 1, 101); err != nil {
		t.Fatalf("enroll pessimistic: %v", err)
	}
	if _, err := service.EnrollAtomic(ctx, 1, 102); err != nil {
		t.Fatalf("enroll atomic: %v", err)
	}
	if _, err := service.EnrollSeparated(ctx, 1, 103); err != nil {
		t.Fatalf("enroll separated: %v", err)
	}
	if err := service.Cancel(ctx, 55); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	expectations := map[StrategyType][]int64{
		StrategyOptimistic:  {100},
		StrategyPessimistic: {101},
		StrategyAtomic:      {102},
		StrategySeparated:   {103},
	}
	for strategyType, want := range expectations {
		got := registered[strategyType].enrolls
		if len(got) != len(want) || got[0] != want[0] {
			t.Fatalf("%s received %v, want %v", strategyType, got, want)
		}
	}
	if cancels := registered[StrategyOptimistic].cancels; len(cancels) != 1 || cancels[0] != 55 {
		t.Fatalf("cancel should go through the default strategy, got %v", cancels)
	}
	if service.DefaultStrategy() != StrategyOptimistic {
		t.Fatalf("unexpected default strategy %s", service.DefaultStrategy())
	}
}

func TestEnrollmentServiceRejectsUnknownDefault(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for an unregistered default strategy")
		}
	}()
	NewEnrollmentService(MustNewEnrollmentStrategyRouter(stubList(stubs())...), "BATCH", zerolog.Nop())
}
