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

// DefaultPageSize is used when a PageRequest carries no usable size.
const DefaultPageSize = 10

// QueryFilter describes a WHERE clause schema and its argument values.
type QueryFilter struct {
	Schema string
	Args   []interface{}
}

// NewQueryFilter creates a new query filter with schema and args.
func NewQueryFilter(schema string, args ...interface{}) *QueryFilter {
	return &QueryFilter{schema, args}
}

// And joins f and other with AND. A nil side yields the other unchanged.
func (f *QueryFilter) And(other *QueryFilter) *QueryFilter {
	if f == nil {
		return other
	}
	if other == nil {
		return f
	}
	args := make([]interface{}, 0, len(f.Args)+len(other.Args))
	args = append(append(args, f.Args...), other.Args...)
	return &QueryFilter{"(" + f.Schema + ") AND (" + other.Schema + ")", args}
}

// PageRequest describes a zero-based page window, an optional filter and ordering.
type PageRequest struct {
	page     int
	pageSize int
	filter   *QueryFilter
	orders   []string // "username DESC", "member_id ASC"
}

func (p *PageRequest) GetPageSize() int {
	if p.pageSize < 1 {
		p.pageSize = DefaultPageSize
	}
	return p.pageSize
}

// GetPage returns the zero-based page number.
func (p *PageRequest) GetPage() int {
	if p.page < 0 {
		p.page = 0
	}
	return p.page
}

func (p *PageRequest) GetOffset() int {
	return p.GetPage() * p.GetPageSize()
}

func (p *PageRequest) GetFilter() *QueryFilter {
	return p.filter
}

func (p *PageRequest) GetOrders() []string {
	return p.orders
}

// WithFilter returns a copy of the request narrowed by filter. An existing
// filter is kept and ANDed with the new one.
func (p *PageRequest) WithFilter(filter *QueryFilter) *PageRequest {
	return &PageRequest{p.page, p.pageSize, p.filter.And(filter), p.orders}
}

// Next returns the request for the following page.
func (p *PageRequest) Next() *PageRequest {
	return &PageRequest{p.GetPage() + 1, p.GetPageSize(), p.filter, p.orders}
}

// NewPageRequest constructs a PageRequest with filter and order settings.
func NewPageRequest(page int, pageSize int, filter *QueryFilter, orders []string) *PageRequest {
	return &PageRequest{page, pageSize, filter, orders}
}

// NewPageRequestWithFilter constructs a PageRequest with a filter only.
func NewPageRequestWithFilter(page int, pageSize int, filter *QueryFilter) *PageRequest {
	return NewPageRequest(page, pageSize, filter, make([]string, 0))
}

// NewPageRequestWithOrders constructs a PageRequest with ordering only.
func NewPageRequestWithOrders(page int, pageSize int, orders []string) *PageRequest {
	return NewPageRequest(page, pageSize, nil, orders)
}

// NewDefaultPageRequest constructs a PageRequest with no filter or ordering.
func NewDefaultPageRequest(page int, pageSize int) *PageRequest {
	return NewPageRequest(page, pageSize, nil, make([]string, 0))
}

// Page is a window of results plus the total number of matching rows.
type Page[T any] struct {
	Content       []*T
	Number        int
	Size          int
	TotalElements int
}

// NewPage constructs a page for the given request.
func NewPage[T any](request *PageRequest, content []*T, total int) *Page[T] {
	if content == nil {
		content = make([]*T, 0)
	}
	return &Page[T]{
		Content:       content,
		Number:        request.GetPage(),
		Size:          request.GetPageSize(),
		TotalElements: total,
	}
}

// TotalPages is ceil(TotalElements / Size).
func (p *Page[T]) TotalPages() int {
	if p.Size < 1 {
		return 0
	}
	return (p.TotalElements + p.Size - 1) / p.Size
}

func (p *Page[T]) NumberOfElements() int { return len(p.Content) }

func (p *Page[T]) IsFirst() bool { return p.Number == 0 }

func (p *Page[T]) IsLast() bool { return !p.HasNext() }

func (p *Page[T]) HasNext() bool { return p.Number+1 < p.TotalPages() }

func (p *Page[T]) HasPrevious() bool { return p.Number > 0 }

// MapPage converts the content of a page and keeps its metadata.
func MapPage[T, R any](p *Page[T], fn func(*T) *R) *Page[R] {
	content := make([]*R, 0, len(p.Content))
	for _, item := range p.Content {
		content = append(content, fn(item))
	}
	return &Page[R]{
		Content:       content,
		Number:        p.Number,
		Size:          p.Size,
		TotalElements: p.TotalElements,
	}
}

// Slice is a window of results that only knows whether another window follows.
type Slice[T any] struct {
	Content []*T
	Number  int
	Size    int
	hasNext bool
}

// NewSlice builds a slice from rows fetched with one extra look-ahead row.
func NewSlice[T any](request *PageRequest, fetched []*T) *Slice[T] {
	size := request.GetPageSize()
	s := &Slice[T]{Number: request.GetPage(), Size: size}
	if len(fetched) > size {
		s.hasNext = true
		fetched = fetched[:size]
	}
	if fetched == nil {
		fetched = make([]*T, 0)
	}
	s.Content = fetched
	return s
}

func (s *Slice[T]) IsFirst() bool { return s.Number == 0 }

func (s *Slice[T]) HasNext() bool { return s.hasNext }

func (s *Slice[T]) NumberOfElements() int { return len(s.Content) }
