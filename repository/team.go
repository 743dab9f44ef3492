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
	"database/sql"
	"errors"

	"github.com/tomoncle/roster/entity"
	"github.com/uptrace/bun"
)

type TeamRepository interface {
	Repository[entity.Team]

	FindByName(ctx context.Context, name string) (*entity.Team, bool, error)
	// FindWithMembers loads a team and its members ordered by member id.
	FindWithMembers(ctx context.Context, id int64) (*entity.Team, bool, error)
}

type teamRepositoryImpl struct {
	Repository[entity.Team]
	db bun.IDB
}

func NewTeamRepository(db bun.IDB) TeamRepository {
	return &teamRepositoryImpl{Repository: NewRepository[entity.Team](db), db: db}
}

func (r *teamRepositoryImpl) FindByName(ctx context.Context, name string) (*entity.Team, bool, error) {
	team := new(entity.Team)
	err := r.db.NewSelect().Model(team).Where("t.name = ?", name).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return team, true, nil
}

func (r *teamRepositoryImpl) FindWithMembers(ctx context.Context, id int64) (*entity.Team, bool, error) {
	team := new(entity.Team)
	err := r.db.NewSelect().
		Model(team).
		Relation("Members", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("m.member_id ASC")
		}).
		Where("t.team_id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	for _, m := range team.Members {
		m.Team = team
	}
	return team, true, nil
}
