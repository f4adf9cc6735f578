package viewmodel

import (
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/noah-isme/stellarfs-api/internal/models"
)

// DefaultRecentLimit is the number of records kept by the recent tab.
const DefaultRecentLimit = 5

// Result is the outcome of a full view computation.
type Result[T any] struct {
	Items  []T
	Total  int
	Stats  models.Aggregates
	Params models.ViewParameters
}

// Engine derives views from record collections of one kind. It holds no
// mutable state and never modifies the slices it is given.
type Engine[T any] struct {
	schema      Schema[T]
	fields      map[string]Field[T]
	searchable  []Field[T]
	tabs        map[models.Tab]struct{}
	recentLimit int
}

// NewEngine validates the schema and builds an engine for it.
func NewEngine[T any](schema Schema[T], recentLimit int) (*Engine[T], error) {
	fields, err := schema.index()
	if err != nil {
		return nil, err
	}
	if recentLimit <= 0 {
		recentLimit = DefaultRecentLimit
	}
	searchable := make([]Field[T], 0, len(schema.Searchable))
	for _, name := range schema.Searchable {
		searchable = append(searchable, fields[name])
	}
	tabs := map[models.Tab]struct{}{models.TabAll: {}}
	for _, tab := range schema.Tabs {
		tabs[tab] = struct{}{}
	}
	return &Engine[T]{
		schema:      schema,
		fields:      fields,
		searchable:  searchable,
		tabs:        tabs,
		recentLimit: recentLimit,
	}, nil
}

// MustNewEngine is NewEngine for statically declared schemas.
func MustNewEngine[T any](schema Schema[T], recentLimit int) *Engine[T] {
	e, err := NewEngine(schema, recentLimit)
	if err != nil {
		panic(err)
	}
	return e
}

// Kind returns the resource kind the engine serves.
func (e *Engine[T]) Kind() models.ResourceKind {
	return e.schema.Kind
}

// Columns lists the declared field names in schema order.
func (e *Engine[T]) Columns() []string {
	cols := make([]string, 0, len(e.schema.Fields))
	for _, f := range e.schema.Fields {
		cols = append(cols, f.Name)
	}
	return cols
}

// Row renders every declared field of r as text, keyed by field name.
func (e *Engine[T]) Row(r T) map[string]string {
	row := make(map[string]string, len(e.schema.Fields))
	for _, f := range e.schema.Fields {
		row[f.Name] = f.Text(r)
	}
	return row
}

// SizeField returns the name of the size field, or "" when records carry no size.
func (e *Engine[T]) SizeField() string {
	return e.schema.SizeField
}

// TimeField returns the name of the field the recent tab orders by.
func (e *Engine[T]) TimeField() string {
	return e.schema.TimeField
}

// Normalize fills the defaults of unset parameters.
func Normalize(params models.ViewParameters) models.ViewParameters {
	if params.Type == "" {
		params.Type = models.TypeAll
	}
	if params.Tab == "" {
		params.Tab = models.TabAll
	}
	if params.SortBy != "" && params.SortDir == "" {
		params.SortDir = models.SortAsc
	}
	return params
}

// Validate reports the first parameter the engine would reject.
func (e *Engine[T]) Validate(params models.ViewParameters) error {
	params = Normalize(params)
	if err := e.checkFilters(params.Filters); err != nil {
		return err
	}
	if _, ok := e.tabs[params.Tab]; !ok {
		return e.unknownTab(params.Tab)
	}
	if params.SortBy != "" {
		if _, err := e.sortField(params.SortBy, params.SortDir); err != nil {
			return err
		}
	}
	return checkPage(params.Page, params.PageSize)
}

// Filter keeps records matching the type, search term and extra field filters,
// preserving input order.
func (e *Engine[T]) Filter(records []T, params models.ViewParameters) ([]T, error) {
	if err := e.checkFilters(params.Filters); err != nil {
		return nil, err
	}
	return e.filter(records, params), nil
}

func (e *Engine[T]) filter(records []T, params models.ViewParameters) []T {
	typeField := e.fields[e.schema.TypeField]
	needle := strings.ToLower(params.Search)
	filterAll := params.Type == "" || params.Type == models.TypeAll

	extras := e.activeFilters(params.Filters)

	out := make([]T, 0, len(records))
	for _, r := range records {
		if !filterAll && typeField.str(r) != params.Type {
			continue
		}
		if needle != "" && !e.matchesSearch(r, needle) {
			continue
		}
		if !matchesAll(r, extras) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// ScopeToTab narrows records to the subset a tab selects.
func (e *Engine[T]) ScopeToTab(records []T, tab models.Tab, currentUser string) ([]T, error) {
	if tab == "" {
		tab = models.TabAll
	}
	if _, ok := e.tabs[tab]; !ok {
		return nil, e.unknownTab(tab)
	}
	return e.scope(records, tab, currentUser), nil
}

func (e *Engine[T]) scope(records []T, tab models.Tab, currentUser string) []T {
	switch tab {
	case models.TabRecent:
		timeField := e.fields[e.schema.TimeField]
		out := slices.Clone(records)
		slices.SortStableFunc(out, func(a, b T) int {
			return -timeField.compare(a, b)
		})
		if len(out) > e.recentLimit {
			out = out[:e.recentLimit]
		}
		return slices.Clip(out)
	case models.TabMine:
		owner := e.fields[e.schema.OwnerField]
		out := make([]T, 0, len(records))
		for _, r := range records {
			if v := owner.str(r); v != "" && v == currentUser {
				out = append(out, r)
			}
		}
		return out
	default:
		return slices.Clone(records)
	}
}

// Sort orders records by a declared field. Equal keys keep their input order
// in both directions.
func (e *Engine[T]) Sort(records []T, key string, direction models.SortDirection) ([]T, error) {
	if direction == "" {
		direction = models.SortAsc
	}
	field, err := e.sortField(key, direction)
	if err != nil {
		return nil, err
	}
	return sortStable(records, field, direction), nil
}

func sortStable[T any](records []T, field Field[T], direction models.SortDirection) []T {
	out := slices.Clone(records)
	if direction == models.SortDesc {
		slices.SortStableFunc(out, func(a, b T) int { return -field.compare(a, b) })
	} else {
		slices.SortStableFunc(out, field.compare)
	}
	return out
}

// Paginate returns the zero-based page of records.
func (e *Engine[T]) Paginate(records []T, page, pageSize int) ([]T, error) {
	return Paginate(records, page, pageSize)
}

// Aggregate computes collection statistics.
func (e *Engine[T]) Aggregate(records []T) models.Aggregates {
	stats := models.Aggregates{Count: len(records), ByType: map[string]int{}}
	typeField := e.fields[e.schema.TypeField]
	size, hasSize := e.fields[e.schema.SizeField]
	tagField, hasTags := e.fields[e.schema.TagsField]
	tags := map[string]struct{}{}

	for _, r := range records {
		stats.ByType[typeField.str(r)]++
		if hasSize {
			stats.TotalSize += size.i64(r)
		}
		if hasTags {
			for _, tag := range tagField.list(r) {
				if tag != "" {
					tags[tag] = struct{}{}
				}
			}
		}
	}
	stats.UniqueTypes = len(stats.ByType)
	stats.UniqueTags = len(tags)
	return stats
}

// Compute runs filter, tab scoping, sorting and pagination in that order.
// Total and Stats describe the scoped collection before pagination.
func (e *Engine[T]) Compute(records []T, params models.ViewParameters, currentUser string) (*Result[T], error) {
	params = Normalize(params)
	if err := e.Validate(params); err != nil {
		return nil, err
	}

	scoped := e.scope(e.filter(records, params), params.Tab, currentUser)
	sorted := scoped
	if params.SortBy != "" {
		sorted = sortStable(scoped, e.fields[params.SortBy], params.SortDir)
	}

	return &Result[T]{
		Items:  pageOf(sorted, params.Page, params.PageSize),
		Total:  len(scoped),
		Stats:  e.Aggregate(scoped),
		Params: params,
	}, nil
}

// Paginate returns records[page*pageSize : min((page+1)*pageSize, len)].
// A page past the end yields an empty slice.
func Paginate[T any](records []T, page, pageSize int) ([]T, error) {
	if err := checkPage(page, pageSize); err != nil {
		return nil, err
	}
	return pageOf(records, page, pageSize), nil
}

// pageOf assumes checkPage passed. The page count is compared before
// multiplying so huge page numbers cannot overflow.
func pageOf[T any](records []T, n, size int) []T {
	pages := len(records) / size
	if len(records)%size != 0 {
		pages++
	}
	if n >= pages {
		return []T{}
	}
	start := n * size
	end := start + min(size, len(records)-start)
	return slices.Clone(records[start:end])
}

func checkPage(page, pageSize int) error {
	if pageSize <= 0 {
		return invalidParam("page_size", strconv.Itoa(pageSize), "must be positive")
	}
	if page < 0 {
		return invalidParam("page", strconv.Itoa(page), "must not be negative")
	}
	return nil
}

func (e *Engine[T]) sortField(key string, direction models.SortDirection) (Field[T], error) {
	if direction != models.SortAsc && direction != models.SortDesc {
		return Field[T]{}, invalidParam("sort_dir", string(direction), "must be asc or desc")
	}
	field, ok := e.fields[key]
	if !ok {
		return Field[T]{}, invalidParam("sort_by", key, "unknown field for "+string(e.schema.Kind))
	}
	if field.Kind == KindList {
		return Field[T]{}, invalidParam("sort_by", key, "list fields are not sortable")
	}
	return field, nil
}

func (e *Engine[T]) unknownTab(tab models.Tab) error {
	allowed := make([]string, 0, len(e.tabs))
	for t := range e.tabs {
		allowed = append(allowed, string(t))
	}
	sort.Strings(allowed)
	return invalidParam("tab", string(tab), "expected one of "+strings.Join(allowed, ", "))
}

func (e *Engine[T]) checkFilters(filters map[string]string) error {
	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		field, ok := e.fields[name]
		if !ok {
			return invalidParam("filter", name, "unknown field for "+string(e.schema.Kind))
		}
		if field.Kind != KindString && field.Kind != KindList {
			return invalidParam("filter", name, "only text fields can be filtered")
		}
	}
	return nil
}

type fieldFilter[T any] struct {
	field Field[T]
	value string
}

func (e *Engine[T]) activeFilters(filters map[string]string) []fieldFilter[T] {
	active := make([]fieldFilter[T], 0, len(filters))
	for name, value := range filters {
		if value == "" || value == models.TypeAll {
			continue
		}
		active = append(active, fieldFilter[T]{field: e.fields[name], value: value})
	}
	return active
}

func (e *Engine[T]) matchesSearch(r T, needle string) bool {
	for _, f := range e.searchable {
		if f.containsFold(r, needle) {
			return true
		}
	}
	return false
}

func matchesAll[T any](r T, filters []fieldFilter[T]) bool {
	for _, f := range filters {
		if !f.field.equals(r, f.value) {
			return false
		}
	}
	return true
}
