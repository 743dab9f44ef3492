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

package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type widget struct {
	bun.BaseModel `bun:"table:widget,alias:w"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name,notnull,unique"`
}

func newSQLiteManager(t *testing.T) AbstractDatabaseManager {
	t.Helper()
	cfg := DefaultConnectionConfig()
	cfg.DBName = filepath.Join(t.TempDir(), "roster")
	cfg.HealthCheckInterval = 0

	dm := NewDatabaseManager(cfg)
	require.NoError(t, dm.Connect(context.Background()))
	t.Cleanup(func() { _ = dm.Disconnect() })
	return dm
}

func countWidgets(t *testing.T, db bun.IDB) int {
	t.Helper()
	n, err := db.NewSelect().Model((*widget)(nil)).Count(context.Background())
	require.NoError(t, err)
	return n
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestManagerHealthAndStats(t *testing.T) {
	dm := newSQLiteManager(t)
	ctx := context.Background()

	require.NoError(t, dm.Ping(ctx))
	status := dm.HealthCheck(ctx)
	assert.True(t, status.Healthy)
	assert.True(t, status.Connected)
	assert.Equal(t, 1, dm.GetStats().MaxOpenConns)

	require.NoError(t, dm.Disconnect())
	assert.Error(t, dm.Ping(ctx))
	assert.False(t, dm.HealthCheck(ctx).Healthy)
}

func TestUnsupportedType(t *testing.T) {
	dm := NewDatabaseManager(&ConnectionConfig{Type: "oracle"})
	err := dm.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type")
}

func TestMigrations(t *testing.T) {
	dm := newSQLiteManager(t)
	ctx := context.Background()
	mm := NewMigrationManager(dm.GetDB(), nil, MigrateOptions{}).WithModels((*widget)(nil))

	require.NoError(t, mm.RunMigrations(ctx))
	require.NoError(t, mm.RunMigrations(ctx), "second run must be a no-op")

	_, err := dm.GetDB().NewInsert().Model(&widget{Name: "a"}).Exec(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, countWidgets(t, dm.GetDB()))

	applied, err := mm.GetAppliedMigrations(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, applied)
	assert.Equal(t, "001", applied[0].Version)

	require.NoError(t, mm.RollbackMigration(ctx, "001"))
	_, err = dm.GetDB().NewSelect().Model((*widget)(nil)).Count(ctx)
	ok, kind := IsSqlError(err)
	assert.True(t, ok)
	assert.Equal(t, NoTableErr, kind)

	assert.Error(t, mm.RollbackMigration(ctx, "404"))
}

func TestDuplicateKeyFromSQLite(t *testing.T) {
	dm := newSQLiteManager(t)
	ctx := context.Background()
	require.NoError(t, NewMigrationManager(dm.GetDB(), nil, MigrateOptions{}).WithModels((*widget)(nil)).RunMigrations(ctx))

	_, err := dm.GetDB().NewInsert().Model(&widget{Name: "dup"}).Exec(ctx)
	require.NoError(t, err)
	_, err = dm.GetDB().NewInsert().Model(&widget{Name: "dup"}).Exec(ctx)
	require.Error(t, err)
	assert.True(t, IsDuplicateKey(err))
}

func TestSQLInitOrdersCommonBeforeEnvironment(t *testing.T) {
	dm := newSQLiteManager(t)
	ctx := context.Background()
	require.NoError(t, NewMigrationManager(dm.GetDB(), nil, MigrateOptions{}).WithModels((*widget)(nil)).RunMigrations(ctx))

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "common", "010_second.sql"),
		"INSERT INTO widget (name) VALUES ('common-10');\n")
	writeFile(t, filepath.Join(root, "common", "002_first.sql"),
		"-- seed\nINSERT INTO widget (name)\nVALUES ('{{.ENVIRONMENT}}');\n")
	writeFile(t, filepath.Join(root, "environments", "test", "001_env.sql"),
		"INSERT INTO widget (name) VALUES ('env-1');\nINSERT INTO widget (name) VALUES ('env-2');\n")
	writeFile(t, filepath.Join(root, "environments", "prod", "001_prod.sql"),
		"INSERT INTO widget (name) VALUES ('prod');\n")

	s := NewSQLInitManager(dm.GetDB(), "test", nil)
	s.SetSQLRootPath(root)

	files, err := s.GetSQLFiles()
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "002_first.sql", files[0].Name)
	assert.Equal(t, "010_second.sql", files[1].Name)
	assert.Equal(t, "001_env.sql", files[2].Name)

	require.NoError(t, s.ExecuteInitialization(ctx))
	assert.Equal(t, 4, countWidgets(t, dm.GetDB()))

	exists, err := dm.GetDB().NewSelect().Model((*widget)(nil)).Where("name = ?", "test").Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSQLInitRollsBackFailedFile(t *testing.T) {
	dm := newSQLiteManager(t)
	ctx := context.Background()
	require.NoError(t, NewMigrationManager(dm.GetDB(), nil, MigrateOptions{}).WithModels((*widget)(nil)).RunMigrations(ctx))

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "common", "001_bad.sql"),
		"INSERT INTO widget (name) VALUES ('x');\nINSERT INTO widget (name) VALUES ('x');\n")

	s := NewSQLInitManager(dm.GetDB(), "test", nil)
	s.SetSQLRootPath(root)
	require.Error(t, s.ExecuteInitialization(ctx))
	assert.Equal(t, 0, countWidgets(t, dm.GetDB()))
}

func TestSeedOnMigration(t *testing.T) {
	dm := newSQLiteManager(t)
	ctx := context.Background()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "common", "001_seed.sql"), "INSERT INTO widget (name) VALUES ('seed');\n")

	mm := NewMigrationManager(dm.GetDB(), nil, MigrateOptions{SeedOnMigration: true}).WithModels((*widget)(nil))
	mm.SetDataInit(DataInitConfig{Filepath: root})
	require.NoError(t, mm.RunMigrations(ctx))
	require.NoError(t, mm.RunMigrations(ctx))
	assert.Equal(t, 1, countWidgets(t, dm.GetDB()))
}

func TestSplitSQLStatements(t *testing.T) {
	stmts := splitSQLStatements(`
-- header
CREATE TABLE a (
  id int
);

INSERT INTO a VALUES (1); 
SELECT 1`)
	require.Len(t, stmts, 3)
	assert.Equal(t, "CREATE TABLE a ( id int );", stmts[0])
	assert.Equal(t, "INSERT INTO a VALUES (1);", stmts[1])
	assert.Equal(t, "SELECT 1", stmts[2])
}

func TestParseFileOrder(t *testing.T) {
	assert.Equal(t, 7, parseFileOrder("007_members.sql"))
	assert.Equal(t, 999, parseFileOrder("members.sql"))
}
