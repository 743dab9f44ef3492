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

	"github.com/tomoncle/roster/entity"
	"github.com/tomoncle/roster/types"
	"github.com/uptrace/bun"
)

// MemberRepository is the member facade: generic CRUD plus the member finders.
type MemberRepository interface {
	Repository[entity.Member]

	// FindByPage returns members of the given age ordered by username
	// descending, skipping offset rows and returning at most limit.
	FindByPage(ctx context.Context, age, offset, limit int) ([]*entity.Member, error)
	// TotalCount counts members of the given age.
	TotalCount(ctx context.Context, age int) (int, error)
	// BulkAgePlus increments the age of every member at least age years old
	// directly in storage and returns the number of affected rows. Entities
	// already loaded in memory are not refreshed.
	BulkAgePlus(ctx context.Context, age int) (int, error)

	FindBy(ctx context.Context, criteria ...Criterion) ([]*entity.Member, error)
	FindByUsername(ctx context.Context, username string) ([]*entity.Member, error)
	FindUser(ctx context.Context, username string, age int) ([]*entity.Member, error)
	FindByNames(ctx context.Context, names []string) ([]*entity.Member, error)
	FindListByUsername(ctx context.Context, username string) ([]*entity.Member, error)
	// FindMemberByUsername returns nil when absent and ErrNonUniqueResult
	// when more than one member has the username.
	FindMemberByUsername(ctx context.Context, username string) (*entity.Member, error)
	FindOptionalByUsername(ctx context.Context, username string) (*entity.Member, bool, error)
	FindByAge(ctx context.Context, age int, page *types.PageRequest) (*types.Page[entity.Member], error)
	FindByAgeSlice(ctx context.Context, age int, page *types.PageRequest) (*types.Slice[entity.Member], error)
	FindUsernameList(ctx context.Context) ([]string, error)
	FindMemberDto(ctx context.Context) ([]*entity.MemberDto, error)
	// FindAllWithTeam loads members and their teams in one query. Members of
	// the same team share one Team instance.
	FindAllWithTeam(ctx context.Context) ([]*entity.Member, error)
	// LoadTeam fetches the team of m on demand and links both sides.
	LoadTeam(ctx context.Context, m *entity.Member) (*entity.Team, error)
}

type memberRepositoryImpl struct {
	Repository[entity.Member]
	db bun.IDB
}

func NewMemberRepository(db bun.IDB) MemberRepository {
	return &memberRepositoryImpl{Repository: NewRepository[entity.Member](db), db: db}
}

// FindByPage returns at most limit members. bun drops LIMIT 0 from the
// query, so a non-positive limit short-circuits to an empty result.
func (r *memberRepositoryImpl) FindByPage(ctx context.Context, age, offset, limit int) ([]*entity.Member, error) {
	members := make([]*entity.Member, 0)
	if limit <= 0 {
		return members, nil
	}
	if offset < 0 {
		offset = 0
	}
	err := r.db.NewSelect().
		Model(&members).
		Where("m.age = ?", age).
		Order("m.username DESC").
		Offset(offset).
		Limit(limit).
		Scan(ctx)
	return members, err
}

func (r *memberRepositoryImpl) TotalCount(ctx context.Context, age int) (int, error) {
	return r.db.NewSelect().Model((*entity.Member)(nil)).Where("m.age = ?", age).Count(ctx)
}

func (r *memberRepositoryImpl) BulkAgePlus(ctx context.Context, age int) (int, error) {
	res, err := r.db.NewUpdate().
		Model((*entity.Member)(nil)).
		Set("age = age + 1").
		Where("age >= ?", age).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *memberRepositoryImpl) FindBy(ctx context.Context, criteria ...Criterion) ([]*entity.Member, error) {
	members := make([]*entity.Member, 0)
	query, err := applyCriteria(r.db.NewSelect().Model(&members), criteria)
	if err != nil {
		return nil, err
	}
	if err := query.Order("m.member_id ASC").Scan(ctx); err != nil {
		return nil, err
	}
	return members, nil
}

func (r *memberRepositoryImpl) FindByUsername(ctx context.Context, username string) ([]*entity.Member, error) {
	return r.FindBy(ctx, Eq("username", username))
}

func (r *memberRepositoryImpl) FindUser(ctx context.Context, username string, age int) ([]*entity.Member, error) {
	return r.FindBy(ctx, Eq("username", username), Eq("age", age))
}

func (r *memberRepositoryImpl) FindByNames(ctx context.Context, names []string) ([]*entity.Member, error) {
	if len(names) == 0 {
		return make([]*entity.Member, 0), nil
	}
	return r.FindBy(ctx, In("username", names))
}

func (r *memberRepositoryImpl) FindListByUsername(ctx context.Context, username string) ([]*entity.Member, error) {
	return r.FindByUsername(ctx, username)
}

func (r *memberRepositoryImpl) FindMemberByUsername(ctx context.Context, username string) (*entity.Member, error) {
	members := make([]*entity.Member, 0, 2)
	query, err := applyCriteria(r.db.NewSelect().Model(&members), []Criterion{Eq("username", username)})
	if err != nil {
		return nil, err
	}
	if err := query.Order("m.member_id ASC").Limit(2).Scan(ctx); err != nil {
		return nil, err
	}
	switch len(members) {
	case 0:
		return nil, nil
	case 1:
		return members[0], nil
	default:
		return nil, ErrNonUniqueResult
	}
}

func (r *memberRepositoryImpl) FindOptionalByUsername(ctx context.Context, username string) (*entity.Member, bool, error) {
	m, err := r.FindMemberByUsername(ctx, username)
	if err != nil {
		return nil, false, err
	}
	return m, m != nil, nil
}

func (r *memberRepositoryImpl) ageRequest(age int, page *types.PageRequest) (*types.PageRequest, error) {
	if page == nil {
		page = types.NewDefaultPageRequest(0, types.DefaultPageSize)
	}
	filter, err := Eq("age", age).Filter()
	if err != nil {
		return nil, err
	}
	return page.WithFilter(filter), nil
}

func (r *memberRepositoryImpl) FindByAge(ctx context.Context, age int, page *types.PageRequest) (*types.Page[entity.Member], error) {
	req, err := r.ageRequest(age, page)
	if err != nil {
		return nil, err
	}
	return r.Page(ctx, req)
}

func (r *memberRepositoryImpl) FindByAgeSlice(ctx context.Context, age int, page *types.PageRequest) (*types.Slice[entity.Member], error) {
	req, err := r.ageRequest(age, page)
	if err != nil {
		return nil, err
	}
	return r.Slice(ctx, req)
}

func (r *memberRepositoryImpl) FindUsernameList(ctx context.Context) ([]string, error) {
	names := make([]string, 0)
	err := r.db.NewSelect().
		Model((*entity.Member)(nil)).
		Column("username").
		Order("m.member_id ASC").
		Scan(ctx, &names)
	return names, err
}

func (r *memberRepositoryImpl) FindMemberDto(ctx context.Context) ([]*entity.MemberDto, error) {
	dtos := make([]*entity.MemberDto, 0)
	err := r.db.NewSelect().
		Model((*entity.Member)(nil)).
		ColumnExpr("m.member_id AS id").
		ColumnExpr("m.username AS username").
		ColumnExpr("t.name AS team_name").
		Join("JOIN team AS t ON t.team_id = m.team_id").
		Order("m.member_id ASC").
		Scan(ctx, &dtos)
	return dtos, err
}

func (r *memberRepositoryImpl) FindAllWithTeam(ctx context.Context) ([]*entity.Member, error) {
	members := make([]*entity.Member, 0)
	err := r.db.NewSelect().
		Model(&members).
		Relation("Team").
		Order("m.member_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	linkTeams(members)
	return members, nil
}

func (r *memberRepositoryImpl) LoadTeam(ctx context.Context, m *entity.Member) (*entity.Team, error) {
	if m == nil || m.TeamID == 0 {
		return nil, nil
	}
	if m.Team != nil && m.Team.ID == m.TeamID {
		return m.Team, nil
	}
	team, found, err := NewTeamRepository(r.db).FindByID(ctx, m.TeamID)
	if err != nil || !found {
		return nil, err
	}
	m.ChangeTeam(team)
	return team, nil
}

// linkTeams replaces the per-row Team copies produced by the join with one
// instance per team id and fills each team's Members.
func linkTeams(members []*entity.Member) {
	teams := make(map[int64]*entity.Team)
	for _, m := range members {
		loaded := m.Team
		m.Team = nil
		if loaded == nil || loaded.ID == 0 {
			continue
		}
		team, ok := teams[loaded.ID]
		if !ok {
			team = loaded
			team.Members = nil
			teams[loaded.ID] = team
		}
		m.ChangeTeam(team)
	}
}
