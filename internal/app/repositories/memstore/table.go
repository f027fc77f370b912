package memstore

import (
	"context"
	"sort"
	"time"
)

// row keeps the committed image plus the image written by the transaction
// currently holding the row lock. committed is nil for an uncommitted insert.
type row[T any] struct {
	id        int64
	committed *T
	pending   *T
	deleted   bool
	owner     *memTx
}

type table[T any] struct {
	rows   map[int64]*row[T]
	nextID int64
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[int64]*row[T])}
}

// visible returns the image tx sees under READ COMMITTED, or nil.
func (r *row[T]) visible(tx *memTx) *T {
	if r.owner == tx {
		if r.deleted {
			return nil
		}
		if r.pending != nil {
			return r.pending
		}
	}
	return r.committed
}

// get returns a copy of the visible image of id.
func (t *table[T]) get(tx *memTx, id int64) (T, bool) {
	var zero T
	r, ok := t.rows[id]
	if !ok {
		return zero, false
	}
	img := r.visible(tx)
	if img == nil {
		return zero, false
	}
	return *img, true
}

// scan returns copies of every visible image in id order.
func (t *table[T]) scan(tx *memTx, keep func(T) bool) []T {
	ids := make([]int64, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []T
	for _, id := range ids {
		img := t.rows[id].visible(tx)
		if img != nil && keep(*img) {
			out = append(out, *img)
		}
	}
	return out
}

// lock acquires the row lock on id, waiting for the current owner. It
// returns nil when no row is visible to tx. Called with s.mu held.
func (t *table[T]) lock(ctx context.Context, tx *memTx, id int64) (*row[T], error) {
	deadline := time.Now().Add(tx.store.lockTimeout)
	for {
		r, ok := t.rows[id]
		if !ok {
			return nil, nil
		}
		if r.owner == tx {
			if r.deleted {
				return nil, nil
			}
			return r, nil
		}
		if r.committed == nil {
			// another transaction's insert is not visible yet
			return nil, nil
		}
		if r.owner == nil {
			t.own(tx, r)
			return r, nil
		}
		if err := tx.waitFor(ctx, r.owner, deadline); err != nil {
			return nil, err
		}
	}
}

// insert adds a row owned by tx. build receives the new id.
func (t *table[T]) insert(tx *memTx, build func(id int64) T) int64 {
	t.nextID++
	value := build(t.nextID)
	r := &row[T]{id: t.nextID, pending: &value}
	t.rows[r.id] = r
	t.own(tx, r)
	return r.id
}

// own registers the commit/rollback finalizer for r.
func (t *table[T]) own(tx *memTx, r *row[T]) {
	r.owner = tx
	tx.finalizers = append(tx.finalizers, func(commit bool) {
		switch {
		case commit && r.deleted:
			delete(t.rows, r.id)
		case commit && r.pending != nil:
			r.committed = r.pending
		case !commit && r.committed == nil:
			delete(t.rows, r.id)
		}
		r.pending = nil
		r.deleted = false
		r.owner = nil
	})
}

// write replaces the image of a row locked by tx.
func (r *row[T]) write(value T) {
	r.pending = &value
}

// current returns the image a lock holder sees.
func (r *row[T]) current() T {
	if r.pending != nil {
		return *r.pending
	}
	return *r.committed
}
