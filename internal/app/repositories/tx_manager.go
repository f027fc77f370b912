package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/yigit/courseenroll/internal/db"
)

// PostgresTxManager runs units of work in READ COMMITTED transactions and
// applies the configured lock_timeout to each of them.
type PostgresTxManager struct {
	db          *db.PostgresDB
	lockTimeout time.Duration
}

// NewPostgresTxManager creates a transaction manager. A zero lockTimeout
// leaves the server default in place.
func NewPostgresTxManager(database *db.PostgresDB, lockTimeout time.Duration) *PostgresTxManager {
	return &PostgresTxManager{db: database, lockTimeout: lockTimeout}
}

// WithTx implements TxManager
func (m *PostgresTxManager) WithTx(ctx context.Context, fn func(ctx context.Context, repos TxRepositories) error) error {
	opts := pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

	return m.db.WithTransaction(ctx, opts, func(ctx context.Context, tx pgx.Tx) error {
		if m.lockTimeout > 0 {
			timeout := fmt.Sprintf("%dms", m.lockTimeout.Milliseconds())
			if _, err := tx.Exec(ctx, `SELECT set_config('lock_timeout', $1, true)`, timeout); err != nil {
				return translateError("set lock_timeout", err)
			}
		}

		return fn(ctx, NewTxRepositories(tx))
	})
}

// NewTxRepositories binds the PostgreSQL stores to q
func NewTxRepositories(q DBTX) TxRepositories {
	return TxRepositories{
		Courses:     NewCourseRepository(q),
		Students:    NewStudentRepository(q),
		Enrollments: NewEnrollmentRepository(q),
		Catalog:     NewCatalogRepository(q),
	}
}
