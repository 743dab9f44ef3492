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
	"fmt"

	"github.com/tomoncle/roster/types"
	"github.com/uptrace/bun"
)

// Predicate is a comparison a derived finder can apply to one column.
type Predicate int

const (
	Equal Predicate = iota
	NotEqual
	GreaterThan
	GreaterOrEqual
	LessThan
	LessOrEqual
	Within
	Like
	Null
	NotNull
)

var _ types.BaseEnum = Predicate(0)

type predicateSpec struct {
	name   string
	desc   string
	clause string // ? placeholders: column identifier, then value
	unary  bool
}

var predicateTable = [...]predicateSpec{
	Equal:          {"EQ", "equal to", "?TableAlias.? = ?", false},
	NotEqual:       {"NE", "not equal to", "?TableAlias.? <> ?", false},
	GreaterThan:    {"GT", "greater than", "?TableAlias.? > ?", false},
	GreaterOrEqual: {"GE", "greater than or equal to", "?TableAlias.? >= ?", false},
	LessThan:       {"LT", "less than", "?TableAlias.? < ?", false},
	LessOrEqual:    {"LE", "less than or equal to", "?TableAlias.? <= ?", false},
	Within:         {"IN", "one of", "?TableAlias.? IN (?)", false},
	Like:           {"LIKE", "matching pattern", "?TableAlias.? LIKE ?", false},
	Null:           {"NULL", "is null", "?TableAlias.? IS NULL", true},
	NotNull:        {"NOT_NULL", "is not null", "?TableAlias.? IS NOT NULL", true},
}

func (p Predicate) IsValid() bool { return p >= Equal && int(p) < len(predicateTable) }

func (p Predicate) Number() int {
	if !p.IsValid() {
		return types.IllegalValue
	}
	return int(p)
}

func (p Predicate) Name() string {
	if !p.IsValid() {
		return types.IllegalName
	}
	return predicateTable[p].name
}

func (p Predicate) Desc() string {
	if !p.IsValid() {
		return types.IllegalDesc
	}
	return predicateTable[p].desc
}

func (p Predicate) String() string { return p.Name() }

// Criterion restricts one column of the queried model. Field is a column
// name of the model's own table.
type Criterion struct {
	Field     string
	Predicate Predicate
	Value     interface{}
}

func NewCriterion(field string, predicate Predicate, value interface{}) Criterion {
	return Criterion{Field: field, Predicate: predicate, Value: value}
}

func Eq(field string, value interface{}) Criterion { return NewCriterion(field, Equal, value) }

func Ge(field string, value interface{}) Criterion { return NewCriterion(field, GreaterOrEqual, value) }

func Lt(field string, value interface{}) Criterion { return NewCriterion(field, LessThan, value) }

// In matches any of values, which must be a slice.
func In(field string, values interface{}) Criterion { return NewCriterion(field, Within, values) }

// Filter renders the criterion as a WHERE clause for bun.
func (c Criterion) Filter() (*types.QueryFilter, error) {
	if !c.Predicate.IsValid() {
		return nil, fmt.Errorf("invalid predicate %d for field %q", int(c.Predicate), c.Field)
	}
	if c.Field == "" {
		return nil, fmt.Errorf("criterion field cannot be empty")
	}
	def := predicateTable[c.Predicate]
	switch {
	case def.unary:
		return types.NewQueryFilter(def.clause, bun.Ident(c.Field)), nil
	case c.Predicate == Within:
		return types.NewQueryFilter(def.clause, bun.Ident(c.Field), bun.In(c.Value)), nil
	default:
		return types.NewQueryFilter(def.clause, bun.Ident(c.Field), c.Value), nil
	}
}

func (c Criterion) String() string {
	if c.Predicate.IsValid() && predicateTable[c.Predicate].unary {
		return fmt.Sprintf("%s %s", c.Field, c.Predicate)
	}
	return fmt.Sprintf("%s %s %v", c.Field, c.Predicate, c.Value)
}

// applyCriteria ANDs every criterion onto query.
func applyCriteria(query *bun.SelectQuery, criteria []Criterion) (*bun.SelectQuery, error) {
	for _, c := range criteria {
		filter, err := c.Filter()
		if err != nil {
			return nil, err
		}
		query = query.Where(filter.Schema, filter.Args...)
	}
	return query, nil
}

// CombineFilters ANDs criteria into a single filter for PageRequest use.
func CombineFilters(criteria ...Criterion) (*types.QueryFilter, error) {
	if len(criteria) == 0 {
		return nil, nil
	}
	schema := ""
	var args []interface{}
	for i, c := range criteria {
		filter, err := c.Filter()
		if err != nil {
			return nil, err
		}
		if i > 0 {
			schema += " AND "
		}
		schema += "(" + filter.Schema + ")"
		args = append(args, filter.Args...)
	}
	return types.NewQueryFilter(schema, args...), nil
}
