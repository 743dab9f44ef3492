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

	"github.com/tomoncle/roster/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

// CrudRepository defines basic CRUD operations for a generic entity type.
type CrudRepository[T any] interface {
	// Save inserts entity when it has no primary key yet, otherwise updates
	// it; an update that touches no row falls back to an insert.
	Save(ctx context.Context, entity *T) (*T, error)

	// FindByID reports a missing row as (nil, false, nil).
	FindByID(ctx context.Context, id int64) (*T, bool, error)

	FindAll(ctx context.Context) ([]*T, error)

	Count(ctx context.Context) (int, error)

	List(ctx context.Context, filter *types.QueryFilter) ([]*T, error)

	Query(ctx context.Context, query string, args ...interface{}) ([]*T, error)

	Create(ctx context.Context, entity ...*T) error

	Upsert(ctx context.Context, fields []string, duplicateKeys []string, entity ...*T) error

	Update(ctx context.Context, entity *T) error

	// Delete and DeleteByID succeed when the row does not exist.
	Delete(ctx context.Context, entity *T) error

	DeleteByID(ctx context.Context, id int64) error
}

// PageQueryRepository defines pagination functionality for listing entities.
type PageQueryRepository[T any] interface {
	Page(ctx context.Context, page *types.PageRequest) (*types.Page[T], error)
	Slice(ctx context.Context, page *types.PageRequest) (*types.Slice[T], error)
}

// Repository combines CRUD and pagination and exposes Bun query builders for
// advanced use cases. It runs against whatever bun.IDB it was built with, so
// a repository created from a bun.Tx takes part in that transaction.
type Repository[T any] interface {
	CrudRepository[T]
	PageQueryRepository[T]
	DB() bun.IDB
	Dialect() schema.Dialect
	NewSelect() *bun.SelectQuery
	NewInsert() *bun.InsertQuery
	NewUpdate() *bun.UpdateQuery
	NewDelete() *bun.DeleteQuery
}
