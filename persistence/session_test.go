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

package persistence

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/roster/database"
	"github.com/tomoncle/roster/entity"
	"github.com/tomoncle/roster/repository"
	"github.com/uptrace/bun"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	ctx := context.Background()

	cfg := database.DefaultConnectionConfig()
	cfg.DBName = filepath.Join(t.TempDir(), "roster")
	cfg.HealthCheckInterval = 0

	dm := database.NewDatabaseManager(cfg)
	require.NoError(t, dm.Connect(ctx))
	t.Cleanup(func() { _ = dm.Disconnect() })
	require.NoError(t, dm.RunMigrations(ctx, database.MigrateOptions{}))
	return dm.GetDB()
}

func TestFlushAndIdentityMap(t *testing.T) {
	ctx := context.Background()
	s := NewSession(newTestDB(t), nil)
	assert.NotEmpty(t, s.ID())

	team := entity.NewTeam("teamA")
	m := entity.NewMember("member1", 10, team)
	s.Persist(team, m, m)
	assert.Equal(t, 2, s.Pending())

	require.NoError(t, s.Flush(ctx))
	assert.Zero(t, s.Pending())
	require.NotZero(t, m.ID)
	assert.Equal(t, team.ID, m.TeamID)
	assert.True(t, s.Contains(m))

	found, ok, err := Find[entity.Member](ctx, s, m.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Same(t, m, found)

	s.Detach(m)
	assert.False(t, s.Contains(m))
	reloaded, ok, err := Find[entity.Member](ctx, s, m.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotSame(t, m, reloaded)
	assert.Equal(t, "member1", reloaded.Username)

	again, _, err := Find[entity.Member](ctx, s, m.ID)
	require.NoError(t, err)
	assert.Same(t, reloaded, again)

	missing, ok, err := Find[entity.Member](ctx, s, m.ID+100)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, missing)
}

func TestPersistUnchangedManagedEntity(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s := NewSession(db, nil)

	m := entity.NewMember("member1", 10, nil)
	s.Persist(m)
	require.NoError(t, s.Flush(ctx))
	id := m.ID

	s.Persist(m)
	require.NoError(t, s.Flush(ctx))
	assert.Equal(t, id, m.ID)

	count, err := repository.NewMemberRepository(db).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s := NewSession(db, nil)

	m := entity.NewMember("member1", 10, nil)
	s.Persist(m)
	require.NoError(t, s.Flush(ctx))

	s.Remove(m)
	require.NoError(t, s.Flush(ctx))
	assert.False(t, s.Contains(m))

	count, err := repository.NewMemberRepository(db).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	transient := entity.NewMember("never-stored", 1, nil)
	s.Persist(transient)
	s.Remove(transient)
	assert.Zero(t, s.Pending())
}

func TestBulkUpdateNeedsClear(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	err := RunInTx(ctx, db, func(ctx context.Context, s *Session) error {
		members := repository.NewMemberRepository(s.DB())
		var m5 *entity.Member
		for i, age := range []int{10, 19, 20, 21, 40} {
			m := entity.NewMember(fmt.Sprintf("member%d", i+1), age, nil)
			s.Persist(m)
			m5 = m
		}
		require.NoError(t, s.Flush(ctx))

		n, err := members.BulkAgePlus(ctx, 20)
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		stale, _, err := Find[entity.Member](ctx, s, m5.ID)
		require.NoError(t, err)
		assert.Same(t, m5, stale)
		assert.Equal(t, 40, stale.Age)

		s.Clear()
		fresh, _, err := Find[entity.Member](ctx, s, m5.ID)
		require.NoError(t, err)
		assert.NotSame(t, m5, fresh)
		assert.Equal(t, 41, fresh.Age)

		require.NoError(t, s.Refresh(ctx, m5))
		assert.Equal(t, 41, m5.Age)
		return nil
	})
	require.NoError(t, err)
}

func TestRunInTxRollsBack(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	boom := errors.New("boom")

	err := RunInTx(ctx, db, func(ctx context.Context, s *Session) error {
		s.Persist(entity.NewMember("member1", 10, nil))
		require.NoError(t, s.Flush(ctx))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	err = RunInTx(ctx, db, func(ctx context.Context, s *Session) error {
		s.Persist(entity.NewTeam("teamA"), entity.NewTeam("teamA"))
		return nil
	})
	require.Error(t, err)
	assert.True(t, database.IsDuplicateKey(err))

	count, err := repository.NewMemberRepository(db).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	teams, err := repository.NewTeamRepository(db).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, teams)
}

func TestRunInTxCommitsPendingWrites(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	err := RunInTx(ctx, db, func(ctx context.Context, s *Session) error {
		s.Persist(entity.NewMember("member1", 10, nil))
		return nil
	})
	require.NoError(t, err)

	count, err := repository.NewMemberRepository(db).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
