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

package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tomoncle/roster/database"
	"github.com/tomoncle/roster/entity"
	"github.com/uptrace/bun"
)

// newTestDB returns a migrated SQLite database in a temp dir.
func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	ctx := context.Background()

	cfg := database.DefaultConnectionConfig()
	cfg.DBName = filepath.Join(t.TempDir(), "roster")
	cfg.HealthCheckInterval = 0

	dm := database.NewDatabaseManager(cfg)
	require.NoError(t, dm.Connect(ctx))
	t.Cleanup(func() { _ = dm.Disconnect() })
	require.NoError(t, dm.RunMigrations(ctx, database.MigrateOptions{EnableForeignKey: true}))
	return dm.GetDB()
}

func saveTeam(t *testing.T, db bun.IDB, name string) *entity.Team {
	t.Helper()
	team, err := NewTeamRepository(db).Save(context.Background(), entity.NewTeam(name))
	require.NoError(t, err)
	return team
}

func saveMember(t *testing.T, repo MemberRepository, username string, age int, team *entity.Team) *entity.Member {
	t.Helper()
	m, err := repo.Save(context.Background(), entity.NewMember(username, age, team))
	require.NoError(t, err)
	require.NotZero(t, m.ID)
	return m
}
