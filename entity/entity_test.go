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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func TestNewMemberJoinsTeam(t *testing.T) {
	teamA := NewTeam("teamA")
	m := NewMember("member1", 10, teamA)

	assert.Same(t, teamA, m.Team)
	require.Len(t, teamA.Members, 1)
	assert.Same(t, m, teamA.Members[0])

	solo := NewMember("member2", 20, nil)
	assert.Nil(t, solo.Team)
	assert.Zero(t, solo.TeamID)
}

func TestChangeTeamMovesMember(t *testing.T) {
	teamA := &Team{ID: 1, Name: "teamA"}
	teamB := &Team{ID: 2, Name: "teamB"}
	m := NewMember("member1", 10, teamA)

	m.ChangeTeam(teamB)
	assert.Same(t, teamB, m.Team)
	assert.Equal(t, int64(2), m.TeamID)
	assert.Empty(t, teamA.Members)
	assert.True(t, teamB.HasMember(m))

	m.ChangeTeam(teamB)
	assert.Len(t, teamB.Members, 1, "joining the same team twice must not duplicate")

	m.ChangeTeam(nil)
	assert.Nil(t, m.Team)
	assert.Zero(t, m.TeamID)
	assert.Empty(t, teamB.Members)
}

func TestHasMemberMatchesStoredRows(t *testing.T) {
	team := &Team{ID: 1, Members: []*Member{{ID: 7, Username: "loaded"}}}
	assert.True(t, team.HasMember(&Member{ID: 7}))
	assert.False(t, team.HasMember(&Member{}))
	assert.Equal(t, "loaded", team.MemberByID(7).Username)
	assert.Nil(t, team.MemberByID(8))

	m := &Member{ID: 7}
	m.ChangeTeam(team)
	assert.Len(t, team.Members, 1)
}

func TestBeforeAppendModelSyncsTeamID(t *testing.T) {
	team := NewTeam("teamA")
	m := NewMember("member1", 10, team)
	team.ID = 42

	require.NoError(t, m.BeforeAppendModel(context.Background(), &bun.InsertQuery{}))
	assert.Equal(t, int64(42), m.TeamID)

	team.ID = 43
	require.NoError(t, m.BeforeAppendModel(context.Background(), &bun.SelectQuery{}))
	assert.Equal(t, int64(42), m.TeamID)
}

func TestMemberString(t *testing.T) {
	m := NewMember("member1", 10, NewTeam("teamA"))
	m.ID = 3
	assert.Equal(t, "Member{id=3, username=member1, age=10}", m.String())
	assert.Equal(t, "member1", NewNamedMember("member1").Username)
}

func TestNewMemberDto(t *testing.T) {
	m := NewMember("member1", 10, NewTeam("teamA"))
	m.ID = 5
	assert.Equal(t, &MemberDto{ID: 5, Username: "member1", TeamName: "teamA"}, NewMemberDto(m))
	assert.Equal(t, "", NewMemberDto(NewNamedMember("solo")).TeamName)
}
