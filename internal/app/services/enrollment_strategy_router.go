package services

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yigit/courseenroll/internal/app/repositories"
)

// EnrollmentStrategyRouter maps every StrategyType to its implementation.
// It is built once at startup and never changes afterwards.
type EnrollmentStrategyRouter struct {
	strategies map[StrategyType]EnrollmentStrategy
}

// NewEnrollmentStrategyRouter registers strategies and fails when a type is
// claimed twice or left without an implementation.
func NewEnrollmentStrategyRouter(strategies ...EnrollmentStrategy) (*EnrollmentStrategyRouter, error) {
	registry := make(map[StrategyType]EnrollmentStrategy, len(strategies))
	for _, strategy := range strategies {
		strategyType := strategy.Type()
		if _, taken := registry[strategyType]; taken {
			return nil, fmt.Errorf("duplicate enrollment strategy %s", strategyType)
		}
		registry[strategyType] = strategy
	}

	for _, strategyType := range AllStrategyTypes() {
		if _, ok := registry[strategyType]; !ok {
			return nil, fmt.Errorf("missing enrollment strategy %s", strategyType)
		}
	}
	if len(registry) != len(AllStrategyTypes()) {
		return nil, fmt.Errorf("unsupported enrollment strategy registered")
	}

	return &EnrollmentStrategyRouter{strategies: registry}, nil
}

// MustNewEnrollmentStrategyRouter is NewEnrollmentStrategyRouter that panics on error
func MustNewEnrollmentStrategyRouter(strategies ...EnrollmentStrategy) *EnrollmentStrategyRouter {
	router, err := NewEnrollmentStrategyRouter(strategies...)
	if err != nil {
		panic(err)
	}
	return router
}

// NewDefaultEnrollmentStrategyRouter wires all four strategies on txManager
// with a shared validator and cancellation processor.
func NewDefaultEnrollmentStrategyRouter(txManager repositories.TxManager, logger zerolog.Logger) *EnrollmentStrategyRouter {
	validator := NewEnrollmentRuleValidator()
	canceller := NewEnrollmentCancellationProcessor(txManager, logger)

	return MustNewEnrollmentStrategyRouter(
		NewPessimisticEnrollmentStrategy(txManager, validator, canceller, logger),
		NewOptimisticEnrollmentStrategy(txManager, validator, canceller, logger),
		NewAtomicEnrollmentStrategy(txManager, validator, canceller, logger),
		NewSeparatedEnrollmentStrategy(txManager, validator, canceller, logger),
	)
}

// Get returns the strategy for strategyType. Asking for a type the router
// was not built with is a programming error and panics; use
// ParseStrategyType for untrusted input.
func (r *EnrollmentStrategyRouter) Get(strategyType StrategyType) EnrollmentStrategy {
	strategy, ok := r.strategies[strategyType]
	if !ok {
		panic(fmt.Sprintf("enrollment strategy %q is not registered", strategyType))
	}
	return strategy
}
