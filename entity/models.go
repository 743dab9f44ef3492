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

package entity

import (
	"context"

	"github.com/tomoncle/roster/database"
	"github.com/uptrace/bun"
)

// Table creation order: team before member, which references it.
const (
	teamPriority   = 10
	memberPriority = 20
)

var memberIndexes = map[string]string{
	"idx_member_age":      "age",
	"idx_member_username": "username",
}

func init() {
	database.RegisteredModel(database.NewModelAdapter((*Team)(nil), teamPriority))
	database.RegisteredModel(database.NewModelAdapter((*Member)(nil), memberPriority))
	database.RegisterMigration(database.MigrationItem{
		Version:     "002",
		Name:        "create_member_indexes",
		Description: "Index member.age and member.username for the finder queries",
		Up:          createMemberIndexes,
		Down:        dropMemberIndexes,
	})
}

func createMemberIndexes(ctx context.Context, db bun.IDB) error {
	for name, column := range memberIndexes {
		if _, err := db.NewCreateIndex().
			Model((*Member)(nil)).
			Index(name).
			Column(column).
			Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

func dropMemberIndexes(ctx context.Context, db bun.IDB) error {
	for name := range memberIndexes {
		if _, err := db.NewDropIndex().
			Model((*Member)(nil)).
			IfExists().
			Index(name).
			Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}
