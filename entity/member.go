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

// Package entity holds the Member and Team table models and the helpers that
// keep both sides of their association consistent in memory.
package entity

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// Member belongs to at most one Team. TeamID is the owning side of the
// association and is written as NULL when zero.
type Member struct {
	bun.BaseModel `bun:"table:member,alias:m"`

	ID       int64  `bun:"member_id,pk,autoincrement" json:"id"`
	Username string `bun:"username" json:"username"`
	Age      int    `bun:"age" json:"age"`
	TeamID   int64  `bun:"team_id,nullzero" json:"team_id,omitempty"`
	Team     *Team  `bun:"rel:belongs-to,join:team_id=team_id" json:"-"`
}

var _ bun.BeforeAppendModelHook = (*Member)(nil)

// NewMember creates a member and, when team is not nil, joins it.
func NewMember(username string, age int, team *Team) *Member {
	m := &Member{Username: username, Age: age}
	if team != nil {
		m.ChangeTeam(team)
	}
	return m
}

// NewNamedMember creates a member with no age and no team yet.
func NewNamedMember(username string) *Member {
	return &Member{Username: username}
}

// PrimaryKey returns the generated member id, 0 before the first insert.
func (m *Member) PrimaryKey() int64 {
	return m.ID
}

// ChangeTeam moves m to team and keeps team.Members in step: m is removed
// from the previous team's members and appears exactly once in the new one.
// A nil team detaches the member.
func (m *Member) ChangeTeam(team *Team) {
	if m.Team != nil && m.Team != team {
		m.Team.removeMember(m)
	}
	m.Team = team
	if team == nil {
		m.TeamID = 0
		return
	}
	m.TeamID = team.ID
	if !team.HasMember(m) {
		team.Members = append(team.Members, m)
	}
}

// BeforeAppendModel copies the team id, which may have been assigned after
// ChangeTeam, into TeamID before the row is written.
func (m *Member) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.InsertQuery, *bun.UpdateQuery:
		if m.Team != nil {
			m.TeamID = m.Team.ID
		}
	}
	return nil
}

func (m *Member) String() string {
	return fmt.Sprintf("Member{id=%d, username=%s, age=%d}", m.ID, m.Username, m.Age)
}
