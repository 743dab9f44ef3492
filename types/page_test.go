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

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct{ n int }

func items(n int) []*item {
	out := make([]*item, n)
	for i := range out {
		out[i] = &item{i}
	}
	return out
}

func TestPageRequestDefaults(t *testing.T) {
	req := NewDefaultPageRequest(-3, 0)
	assert.Equal(t, 0, req.GetPage())
	assert.Equal(t, DefaultPageSize, req.GetPageSize())
	assert.Equal(t, 0, req.GetOffset())

	req = NewDefaultPageRequest(2, 3)
	assert.Equal(t, 6, req.GetOffset())
	assert.Equal(t, 3, req.Next().GetPage())
}

func TestWithFilterKeepsExistingFilter(t *testing.T) {
	req := NewPageRequestWithFilter(1, 5, NewQueryFilter("m.username LIKE ?", "member%"))
	narrowed := req.WithFilter(NewQueryFilter("m.age = ?", 10))

	require.NotNil(t, narrowed.GetFilter())
	assert.Equal(t, "(m.username LIKE ?) AND (m.age = ?)", narrowed.GetFilter().Schema)
	assert.Equal(t, []interface{}{"member%", 10}, narrowed.GetFilter().Args)
	assert.Equal(t, 5, narrowed.GetOffset())
	assert.Equal(t, "m.username LIKE ?", req.GetFilter().Schema)

	plain := NewDefaultPageRequest(0, 5).WithFilter(NewQueryFilter("m.age = ?", 10))
	assert.Equal(t, "m.age = ?", plain.GetFilter().Schema)
}

func TestPageNavigation(t *testing.T) {
	req := NewPageRequestWithOrders(0, 3, SortBy(Desc, "username"))
	first := NewPage(req, items(3), 6)
	assert.Equal(t, 2, first.TotalPages())
	assert.True(t, first.IsFirst())
	assert.True(t, first.HasNext())
	assert.False(t, first.HasPrevious())

	second := NewPage(req.Next(), items(3), 6)
	assert.False(t, second.IsFirst())
	assert.False(t, second.HasNext())
	assert.True(t, second.IsLast())
}

func TestPageTotalPagesRoundsUp(t *testing.T) {
	p := NewPage(NewDefaultPageRequest(0, 4), items(4), 9)
	assert.Equal(t, 3, p.TotalPages())

	empty := NewPage[item](NewDefaultPageRequest(0, 4), nil, 0)
	assert.Equal(t, 0, empty.TotalPages())
	assert.False(t, empty.HasNext())
	assert.NotNil(t, empty.Content)
}

func TestMapPage(t *testing.T) {
	p := NewPage(NewDefaultPageRequest(1, 2), items(2), 5)
	mapped := MapPage(p, func(i *item) *string {
		s := string(rune('a' + i.n))
		return &s
	})
	require.Len(t, mapped.Content, 2)
	assert.Equal(t, "a", *mapped.Content[0])
	assert.Equal(t, p.TotalPages(), mapped.TotalPages())
	assert.Equal(t, 1, mapped.Number)
}

func TestSliceLookAhead(t *testing.T) {
	req := NewDefaultPageRequest(0, 3)
	s := NewSlice(req, items(4))
	assert.True(t, s.HasNext())
	assert.Equal(t, 3, s.NumberOfElements())

	s = NewSlice(req, items(2))
	assert.False(t, s.HasNext())
	assert.Equal(t, 2, s.NumberOfElements())
}

func TestDirection(t *testing.T) {
	assert.Equal(t, []string{"username DESC", "age DESC"}, SortBy(Desc, "username", "age"))
	d, err := ParseDirection("desc")
	require.NoError(t, err)
	assert.Equal(t, Desc, d)
	_, err = ParseDirection("sideways")
	assert.Error(t, err)
	assert.False(t, Direction(7).IsValid())
	assert.Equal(t, IllegalName, Direction(7).Name())
}
