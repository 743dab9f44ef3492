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
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
)

func TestIsSqlError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want SQLError
	}{
		{"pgx unique", &pgconn.PgError{Code: "23505"}, DuplicateKeyErr},
		{"pgx fk wrapped", fmt.Errorf("save: %w", &pgconn.PgError{Code: "23503"}), ForeignKeyViolationErr},
		{"pgx undefined table", &pgconn.PgError{Code: "42P01"}, NoTableErr},
		{"mysql duplicate", &mysql.MySQLError{Number: 1062}, DuplicateKeyErr},
		{"mysql not null", &mysql.MySQLError{Number: 1048}, NotNullViolationErr},
		{"no rows", fmt.Errorf("find: %w", sql.ErrNoRows), NoRowsErr},
		{"sqlite unique", errors.New("UNIQUE constraint failed: team.name"), DuplicateKeyErr},
		{"lib/pq unique", errors.New(`pq: duplicate key value violates unique constraint "team_name_key"`), DuplicateKeyErr},
		{"sqlite no table", errors.New("SQL logic error: no such table: member (1)"), NoTableErr},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, kind := IsSqlError(tc.err)
			assert.True(t, ok)
			assert.Equal(t, tc.want, kind)
		})
	}

	ok, _ := IsSqlError(nil)
	assert.False(t, ok)
	ok, _ = IsSqlError(errors.New("boom"))
	assert.False(t, ok)
	assert.False(t, IsDuplicateKey(errors.New("boom")))
}

func TestModelRegistryOrder(t *testing.T) {
	type a struct{}
	type b struct{}
	type c struct{}

	r := newModelRegistry()
	r.Register(NewModelAdapter((*c)(nil), 2))
	r.Register(NewModelAdapter((*b)(nil), 1))
	r.Register(NewModelAdapter((*a)(nil), 2))
	r.Register(NewModelAdapter((*b)(nil), 0))

	models := r.Models()
	assert.Len(t, models, 3)
	assert.IsType(t, (*b)(nil), models[0].Instance())
	assert.Equal(t, 0, models[0].Priority())
	assert.IsType(t, (*a)(nil), models[1].Instance())
	assert.IsType(t, (*c)(nil), models[2].Instance())
}

func TestFactoryEnvOverride(t *testing.T) {
	t.Setenv("ROSTER_DB_TYPE", "postgres")
	t.Setenv("ROSTER_DB_DRIVER", "pgx")
	t.Setenv("ROSTER_DB_PORT", "6543")
	t.Setenv("ROSTER_DB_CONN_MAX_LIFETIME", "90")
	t.Setenv("ROSTER_DB_ENABLE_QUERY_LOG", "true")

	cfg := DefaultConnectionConfig()
	f := NewDatabaseFactory()
	m, err := f.CreateFromConfig(cfg)
	assert.NoError(t, err)
	assert.NotNil(t, m)
	assert.Equal(t, "postgres", cfg.Type)
	assert.Equal(t, "pgx", cfg.Driver)
	assert.Equal(t, 6543, cfg.Port)
	assert.Equal(t, 90*time.Second, cfg.ConnMaxLifetime)
	assert.True(t, cfg.EnableQueryLog)
	assert.Nil(t, f.GetDB())

	t.Setenv("ROSTER_DB_TYPE", "oracle")
	_, err = f.CreateFromConfig(DefaultConnectionConfig())
	assert.Error(t, err)
}

func TestApplyDefaults(t *testing.T) {
	cfg := &ConnectionConfig{Type: "postgres", MaxOpenConns: 4}
	cfg.ApplyDefaults()
	assert.Equal(t, "postgres", cfg.Type)
	assert.Equal(t, 4, cfg.MaxOpenConns)
	assert.Equal(t, 10, cfg.MaxIdleConns)
	assert.Equal(t, "roster", cfg.DBName)
	assert.Equal(t, QueryLogPlain, cfg.QueryLogStyle)
}

func TestQueryHook(t *testing.T) {
	var buf bytes.Buffer
	ctx := context.Background()

	quiet := NewQueryHook(&buf, false)
	quiet.AfterQuery(ctx, &bun.QueryEvent{Query: "SELECT 1", StartTime: time.Now()})
	assert.Empty(t, buf.String())

	quiet.AfterQuery(ctx, &bun.QueryEvent{Query: "SELECT 2", StartTime: time.Now(), Err: errors.New("no such table: x")})
	assert.Contains(t, buf.String(), "SELECT 2")
	assert.Contains(t, buf.String(), "no such table: x")

	buf.Reset()
	verbose := NewQueryHook(&buf, true)
	EnableBunSqlSilent(true)
	verbose.AfterQuery(ctx, &bun.QueryEvent{Query: "SELECT 3", StartTime: time.Now()})
	EnableBunSqlSilent(false)
	assert.Empty(t, buf.String())

	verbose.AfterQuery(ctx, &bun.QueryEvent{Query: "UPDATE member SET age = age + 1", StartTime: time.Now()})
	assert.Contains(t, buf.String(), "UPDATE member SET age = age + 1")
	assert.Contains(t, buf.String(), "[ROSTER]")
}

func TestToFields(t *testing.T) {
	fields := toFields([]interface{}{"a", 1, "b", "two", "dangling"})
	assert.Equal(t, 1, fields["a"])
	assert.Equal(t, "two", fields["b"])
	assert.Equal(t, "dangling", fields["extra"])
}
