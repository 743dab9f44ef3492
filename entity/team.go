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
	"github.com/uptrace/bun"
)

// Team groups members. Members is informational: membership is stored in
// member.team_id and is only loaded on request.
type Team struct {
	bun.BaseModel `bun:"table:team,alias:t"`

	ID      int64     `bun:"team_id,pk,autoincrement" json:"id"`
	Name    string    `bun:"name,notnull,unique" json:"name"`
	Members []*Member `bun:"rel:has-many,join:team_id=team_id" json:"members,omitempty"`
}

func NewTeam(name string) *Team {
	return &Team{Name: name}
}

func (t *Team) PrimaryKey() int64 {
	return t.ID
}

// HasMember reports whether m is in the team's loaded members, either as the
// same instance or as a stored row with the same id.
func (t *Team) HasMember(m *Member) bool {
	return t.indexOf(m) >= 0
}

// MemberByID returns the loaded member with the given id, or nil.
func (t *Team) MemberByID(id int64) *Member {
	for _, m := range t.Members {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func (t *Team) indexOf(m *Member) int {
	for i, x := range t.Members {
		if x == m || (m.ID != 0 && x.ID == m.ID) {
			return i
		}
	}
	return -1
}

func (t *Team) removeMember(m *Member) {
	if i := t.indexOf(m); i >= 0 {
		t.Members = append(t.Members[:i], t.Members[i+1:]...)
	}
}
