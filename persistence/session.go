/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package persistence provides an explicit unit of work over Bun.
//
// A Session tracks the entities it has loaded or saved in an identity map
// and queues writes until Flush. Statements that bypass the session, such as
// repository bulk updates, are not reflected in managed entities: call Clear
// (or Refresh) afterwards to read the new state.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"github.com/tomoncle/roster/database"
	"github.com/tomoncle/roster/types"
	"github.com/uptrace/bun"
)

type opKind int

const (
	opPersist opKind = iota
	opRemove
)

func (k opKind) String() string {
	if k == opRemove {
		return "remove"
	}
	return "persist"
}

type operation struct {
	kind   opKind
	entity types.Identifiable
}

type entityKey struct {
	typ reflect.Type
	id  int64
}

func keyOf(e types.Identifiable) entityKey {
	return entityKey{typ: reflect.TypeOf(e), id: e.PrimaryKey()}
}

// Session is a unit of work bound to a bun.IDB. It is safe to call from
// several goroutines but flushes are serialized.
type Session struct {
	id      string
	db      bun.IDB
	logger  database.Logger
	mu      sync.Mutex
	managed map[entityKey]types.Identifiable
	pending []operation
}

func NewSession(db bun.IDB, logger database.Logger) *Session {
	if logger == nil {
		logger = database.GetLogger()
	}
	return &Session{
		id:      uuid.NewString(),
		db:      db,
		logger:  logger,
		managed: make(map[entityKey]types.Identifiable),
	}
}

func (s *Session) ID() string { return s.id }

// DB returns the connection or transaction the session writes through.
func (s *Session) DB() bun.IDB { return s.db }

// Persist schedules an insert for new entities and an update for stored ones.
// Scheduling the same instance twice is a no-op.
func (s *Session) Persist(entities ...types.Identifiable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entities {
		if e == nil || s.isPending(e, opPersist) {
			continue
		}
		s.pending = append(s.pending, operation{kind: opPersist, entity: e})
	}
}

// Remove schedules a delete. Removing an entity that was never stored only
// cancels its pending insert.
func (s *Session) Remove(e types.Identifiable) {
	if e == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.PrimaryKey() == 0 {
		s.dropPending(e)
		return
	}
	if !s.isPending(e, opRemove) {
		s.pending = append(s.pending, operation{kind: opRemove, entity: e})
	}
}

func (s *Session) isPending(e types.Identifiable, kind opKind) bool {
	for _, op := range s.pending {
		if op.kind == kind && op.entity == e {
			return true
		}
	}
	return false
}

func (s *Session) dropPending(e types.Identifiable) {
	kept := s.pending[:0]
	for _, op := range s.pending {
		if op.entity != e {
			kept = append(kept, op)
		}
	}
	s.pending = kept
}

// Pending returns the number of queued writes.
func (s *Session) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Flush executes queued writes in order. On failure the failed write and
// those after it stay queued.
func (s *Session) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, op := range s.pending {
		var err error
		switch op.kind {
		case opPersist:
			err = s.save(ctx, op.entity)
		case opRemove:
			err = s.delete(ctx, op.entity)
		}
		if err != nil {
			s.pending = s.pending[i:]
			s.logger.Error("Session flush failed",
				"session", s.id,
				"operation", op.kind.String(),
				"entity", fmt.Sprintf("%T", op.entity),
				"error", err,
			)
			return err
		}
	}
	if n := len(s.pending); n > 0 {
		s.logger.Debug("Session flushed", "session", s.id, "operations", n)
	}
	s.pending = nil
	return nil
}

func (s *Session) save(ctx context.Context, e types.Identifiable) error {
	if e.PrimaryKey() != 0 {
		res, err := s.db.NewUpdate().Model(e).WherePK().Exec(ctx)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			s.managed[keyOf(e)] = e
			return nil
		}
		// MySQL reports 0 affected rows for an update that changed nothing.
		exists, err := s.db.NewSelect().Model(e).WherePK().Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			s.managed[keyOf(e)] = e
			return nil
		}
	}
	if _, err := s.db.NewInsert().Model(e).Exec(ctx); err != nil {
		return err
	}
	s.managed[keyOf(e)] = e
	return nil
}

func (s *Session) delete(ctx context.Context, e types.Identifiable) error {
	if _, err := s.db.NewDelete().Model(e).WherePK().Exec(ctx); err != nil {
		return err
	}
	delete(s.managed, keyOf(e))
	return nil
}

// Find returns the managed instance of T with the given id, loading it from
// storage on first access. Repeated calls return the same pointer until the
// entity is detached or the session cleared.
func Find[T any](ctx context.Context, s *Session, id int64) (*T, bool, error) {
	key := entityKey{typ: reflect.TypeOf((*T)(nil)), id: id}

	s.mu.Lock()
	if e, ok := s.managed[key]; ok {
		s.mu.Unlock()
		return any(e).(*T), true, nil
	}
	s.mu.Unlock()

	entity := new(T)
	err := s.db.NewSelect().Model(entity).Where("?PKs = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	e, ok := any(entity).(types.Identifiable)
	if !ok {
		return entity, true, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.managed[key]; ok {
		return any(existing).(*T), true, nil
	}
	s.managed[key] = e
	return entity, true, nil
}

// Refresh reloads e from storage in place.
func (s *Session) Refresh(ctx context.Context, e types.Identifiable) error {
	if err := s.db.NewSelect().Model(e).WherePK().Scan(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	s.managed[keyOf(e)] = e
	s.mu.Unlock()
	return nil
}

// Contains reports whether e is the managed instance for its id.
func (s *Session) Contains(e types.Identifiable) bool {
	if e == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.managed[keyOf(e)] == e
}

// Detach stops tracking e and drops its queued writes.
func (s *Session) Detach(e types.Identifiable) {
	if e == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.managed[keyOf(e)] == e {
		delete(s.managed, keyOf(e))
	}
	s.dropPending(e)
}

// Clear detaches every entity and discards queued writes.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.managed = make(map[entityKey]types.Identifiable)
	s.pending = nil
}

// RunInTx runs fn with a session bound to a new transaction, flushes it and
// commits. The transaction is rolled back when fn or the flush fails.
func RunInTx(ctx context.Context, db *bun.DB, fn func(ctx context.Context, s *Session) error) error {
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		s := NewSession(tx, nil)
		if err := fn(ctx, s); err != nil {
			return err
		}
		return s.Flush(ctx)
	})
}
