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

	"github.com/tomoncle/roster/database"
	"github.com/tomoncle/roster/entity"
	"github.com/tomoncle/roster/persistence"
	"github.com/tomoncle/roster/repository"
	"github.com/uptrace/bun"
)

// MemberService runs the member workflows, each in its own transaction.
type MemberService struct {
	db     *bun.DB
	logger database.Logger
}

// NewMemberService binds the service to db; a nil db means the global
// connection from database.InitDB.
func NewMemberService(db *bun.DB) *MemberService {
	if db == nil {
		db = database.GetDB()
	}
	return &MemberService{db: db, logger: database.GetLogger()}
}

// CreateTeam stores a new team. A taken name yields ErrDuplicateTeam.
func (s *MemberService) CreateTeam(ctx context.Context, name string) (*entity.Team, error) {
	team, err := repository.NewTeamRepository(s.db).Save(ctx, entity.NewTeam(name))
	if err != nil {
		return nil, s.mapError(err)
	}
	return team, nil
}

// Join stores a new member in the named team, creating the team when it
// does not exist yet. An empty teamName stores a member without a team.
func (s *MemberService) Join(ctx context.Context, username string, age int, teamName string) (*entity.Member, error) {
	var member *entity.Member
	err := persistence.RunInTx(ctx, s.db, func(ctx context.Context, session *persistence.Session) error {
		var team *entity.Team
		if teamName != "" {
			existing, found, err := repository.NewTeamRepository(session.DB()).FindByName(ctx, teamName)
			if err != nil {
				return err
			}
			if found {
				team = existing
			} else {
				team = entity.NewTeam(teamName)
				session.Persist(team)
			}
		}
		member = entity.NewMember(username, age, team)
		session.Persist(member)
		return nil
	})
	if err != nil {
		return nil, s.mapError(err)
	}
	s.logger.Info("Member joined", "member", member.String(), "team", teamName)
	return member, nil
}

// Transfer moves a member to another team. teamID 0 removes the member from
// its team.
func (s *MemberService) Transfer(ctx context.Context, memberID, teamID int64) (*entity.Member, error) {
	var member *entity.Member
	err := persistence.RunInTx(ctx, s.db, func(ctx context.Context, session *persistence.Session) error {
		m, found, err := persistence.Find[entity.Member](ctx, session, memberID)
		if err != nil {
			return err
		}
		if !found {
			return ErrMemberNotFound
		}
		var team *entity.Team
		if teamID != 0 {
			t, found, err := persistence.Find[entity.Team](ctx, session, teamID)
			if err != nil {
				return err
			}
			if !found {
				return ErrTeamNotFound
			}
			team = t
		}
		m.ChangeTeam(team)
		session.Persist(m)
		member = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// RaiseAges adds one year to every member at least threshold years old and
// returns how many were changed.
func (s *MemberService) RaiseAges(ctx context.Context, threshold int) (int, error) {
	var affected int
	err := persistence.RunInTx(ctx, s.db, func(ctx context.Context, session *persistence.Session) error {
		if err := session.Flush(ctx); err != nil {
			return err
		}
		n, err := repository.NewMemberRepository(session.DB()).BulkAgePlus(ctx, threshold)
		if err != nil {
			return err
		}
		session.Clear()
		affected = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("Member ages raised", "threshold", threshold, "rows_affected", affected)
	return affected, nil
}

// Roster returns a team with its members ordered by id.
func (s *MemberService) Roster(ctx context.Context, teamID int64) (*entity.Team, error) {
	team, found, err := repository.NewTeamRepository(s.db).FindWithMembers(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrTeamNotFound
	}
	return team, nil
}

// Directory lists every member that belongs to a team, with the team name.
func (s *MemberService) Directory(ctx context.Context) ([]*entity.MemberDto, error) {
	return repository.NewMemberRepository(s.db).FindMemberDto(ctx)
}

func (s *MemberService) mapError(err error) error {
	if database.IsDuplicateKey(err) {
		return fmt.Errorf("%w: %v", ErrDuplicateTeam, err)
	}
	return err
}
