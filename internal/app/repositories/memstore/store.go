// Package memstore is an in-memory implementation of the repository ports.
// It mimics the PostgreSQL behaviour the enrollment strategies depend on:
// row locks held until commit, READ COMMITTED visibility, lock timeouts,
// wait-for cycle detection and the partial unique index on ACTIVE
// enrollments.
package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yigit/courseenroll/internal/app/models"
	"github.com/yigit/courseenroll/internal/app/repositories"
)

// DefaultLockTimeout applies when New is given a non-positive timeout.
const DefaultLockTimeout = 3 * time.Second

// Store holds every table. A single mutex guards all state; lock waits
// release it while blocked.
type Store struct {
	mu          sync.Mutex
	lockTimeout time.Duration

	departments *table[models.Department]
	professors  *table[models.Professor]
	students    *table[models.Student]
	courses     *table[models.Course]
	enrollments *table[models.Enrollment]
}

// New creates an empty store.
func New(lockTimeout time.Duration) *Store {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &Store{
		lockTimeout: lockTimeout,
		departments: newTable[models.Department](),
		professors:  newTable[models.Professor](),
		students:    newTable[models.Student](),
		courses:     newTable[models.Course](),
		enrollments: newTable[models.Enrollment](),
	}
}

// WithTx implements repositories.TxManager.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, repos repositories.TxRepositories) error) (err error) {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	tx := &memTx{store: s, done: make(chan struct{})}
	repos := repositories.TxRepositories{
		Courses:     &courseStore{tx: tx},
		Students:    &studentStore{tx: tx},
		Enrollments: &enrollmentStore{tx: tx},
		Catalog:     &catalogStore{tx: tx},
	}

	defer func() {
		if r := recover(); r != nil {
			tx.finish(false)
			panic(r)
		}
	}()

	if err := fn(ctx, repos); err != nil {
		tx.finish(false)
		return err
	}

	tx.finish(true)
	return nil
}

// memTx is one unit of work. waitingFor is guarded by Store.mu.
type memTx struct {
	store      *Store
	done       chan struct{}
	waitingFor *memTx
	finalizers []func(commit bool)
	finished   bool
}

func (tx *memTx) finish(commit bool) {
	s := tx.store
	s.mu.Lock()
	if tx.finished {
		s.mu.Unlock()
		return
	}
	tx.finished = true
	for _, f := range tx.finalizers {
		f(commit)
	}
	tx.finalizers = nil
	s.mu.Unlock()
	close(tx.done)
}

// waitFor blocks until owner finishes. It is called with s.mu held and
// returns with s.mu held.
func (tx *memTx) waitFor(ctx context.Context, owner *memTx, deadline time.Time) error {
	s := tx.store
	for cur := owner; cur != nil; cur = cur.waitingFor {
		if cur == tx {
			return repositories.ErrDeadlock
		}
	}

	remaining := time.Until(deadline)
	if remaining <= 0 {
		return repositories.ErrLockTimeout
	}

	tx.waitingFor = owner
	timer := time.NewTimer(remaining)
	s.mu.Unlock()

	var err error
	select {
	case <-owner.done:
	case <-timer.C:
		err = repositories.ErrLockTimeout
	case <-ctx.Done():
		err = ctx.Err()
	}
	timer.Stop()

	s.mu.Lock()
	tx.waitingFor = nil
	return err
}

func (tx *memTx) checkUsable() error {
	if tx.finished {
		return fmt.Errorf("transaction already finished")
	}
	return nil
}
