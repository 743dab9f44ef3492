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

package roster

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/roster/database"
	"github.com/tomoncle/roster/entity"
	"github.com/tomoncle/roster/repository"
	"github.com/tomoncle/roster/types"
	"github.com/uptrace/bun"
)

// initTestDB initializes the global database with a migrated SQLite file.
func initTestDB(t *testing.T) *bun.DB {
	t.Helper()
	conn := database.DefaultConnectionConfig()
	conn.DBName = filepath.Join(t.TempDir(), "roster")
	conn.HealthCheckInterval = 0

	db, err := database.InitDB(context.Background(), &database.Config{
		ConnectionConfig:  *conn,
		DataMigrateConfig: database.MigrateOptions{EnableMigrateOnStartup: true, EnableForeignKey: true},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.CloseDB() })
	return db
}

func TestGenericService(t *testing.T) {
	ctx := context.Background()
	initTestDB(t)
	svc := NewService[entity.Member]()

	for i := 1; i <= 5; i++ {
		_, err := svc.Save(ctx, entity.NewMember(fmt.Sprintf("member%d", i), i*10, nil))
		require.NoError(t, err)
	}
	require.NoError(t, svc.SaveAll(ctx, entity.NewNamedMember("late1"), entity.NewNamedMember("late2")))

	count, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, count)

	m, ok, err := svc.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "member1", m.Username)

	page, err := svc.Page(ctx, types.NewPageRequestWithOrders(0, 3, types.SortBy(types.Asc, "member_id")))
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalPages())
	assert.True(t, page.HasNext())

	slice, err := svc.Slice(ctx, types.NewDefaultPageRequest(2, 3))
	require.NoError(t, err)
	assert.Equal(t, 1, slice.NumberOfElements())
	assert.False(t, slice.HasNext())

	require.NoError(t, svc.Delete(ctx, m.ID))
	require.NoError(t, svc.Delete(ctx, m.ID))
	_, ok, err = svc.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestServiceWithTx(t *testing.T) {
	ctx := context.Background()
	db := initTestDB(t)
	svc := NewService[entity.Team]()

	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := svc.WithTx(tx).Save(ctx, entity.NewTeam("teamA"))
		require.NoError(t, err)
		return fmt.Errorf("rollback")
	})
	require.Error(t, err)

	count, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestJoinAndRoster(t *testing.T) {
	ctx := context.Background()
	svc := NewMemberService(initTestDB(t))

	m1, err := svc.Join(ctx, "member1", 10, "teamA")
	require.NoError(t, err)
	m2, err := svc.Join(ctx, "member2", 20, "teamA")
	require.NoError(t, err)
	loner, err := svc.Join(ctx, "loner", 30, "")
	require.NoError(t, err)

	assert.NotZero(t, m1.TeamID)
	assert.Equal(t, m1.TeamID, m2.TeamID)
	assert.Zero(t, loner.TeamID)

	team, err := svc.Roster(ctx, m1.TeamID)
	require.NoError(t, err)
	assert.Equal(t, "teamA", team.Name)
	require.Len(t, team.Members, 2)
	assert.Equal(t, m1.ID, team.Members[0].ID)

	_, err = svc.Roster(ctx, 404)
	assert.ErrorIs(t, err, ErrTeamNotFound)

	_, err = svc.CreateTeam(ctx, "teamA")
	assert.ErrorIs(t, err, ErrDuplicateTeam)

	dir, err := svc.Directory(ctx)
	require.NoError(t, err)
	assert.Len(t, dir, 2)
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()
	svc := NewMemberService(initTestDB(t))

	m, err := svc.Join(ctx, "member1", 10, "teamA")
	require.NoError(t, err)
	teamB, err := svc.CreateTeam(ctx, "teamB")
	require.NoError(t, err)

	moved, err := svc.Transfer(ctx, m.ID, teamB.ID)
	require.NoError(t, err)
	assert.Equal(t, teamB.ID, moved.TeamID)
	assert.True(t, moved.Team.HasMember(moved))

	roster, err := svc.Roster(ctx, teamB.ID)
	require.NoError(t, err)
	require.Len(t, roster.Members, 1)
	assert.Equal(t, m.ID, roster.Members[0].ID)

	same, err := svc.Transfer(ctx, m.ID, teamB.ID)
	require.NoError(t, err)
	assert.Equal(t, teamB.ID, same.TeamID)
	roster, err = svc.Roster(ctx, teamB.ID)
	require.NoError(t, err)
	assert.Len(t, roster.Members, 1)

	old, err := svc.Roster(ctx, m.TeamID)
	require.NoError(t, err)
	assert.Empty(t, old.Members)

	detached, err := svc.Transfer(ctx, m.ID, 0)
	require.NoError(t, err)
	assert.Nil(t, detached.Team)

	_, err = svc.Transfer(ctx, 404, teamB.ID)
	assert.ErrorIs(t, err, ErrMemberNotFound)
	_, err = svc.Transfer(ctx, m.ID, 404)
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

func TestRaiseAges(t *testing.T) {
	ctx := context.Background()
	db := initTestDB(t)
	svc := NewMemberService(db)
	for i, age := range []int{10, 20, 30, 40, 50, 60} {
		_, err := svc.Join(ctx, fmt.Sprintf("member%d", i+1), age, "")
		require.NoError(t, err)
	}

	n, err := svc.RaiseAges(ctx, 20)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	older, err := repository.NewMemberRepository(db).FindBy(ctx, repository.Ge("age", 21))
	require.NoError(t, err)
	assert.Len(t, older, 5)
}
