package viewmodel

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/stellarfs-api/internal/models"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newFileEngine(t *testing.T) *Engine[models.File] {
	t.Helper()
	e, err := NewEngine(FileSchema(), DefaultRecentLimit)
	require.NoError(t, err)
	return e
}

func sampleFiles() []models.File {
	return []models.File{
		{ID: "1", Name: "Report.pdf", Type: "pdf", Size: 2000, Owner: "Jane Smith", Path: "/docs", LastModified: baseTime.Add(-3 * time.Hour), Permissions: []string{"read"}},
		{ID: "2", Name: "photo.png", Type: "image", Size: 1000, Owner: "John Doe", Path: "/pictures", LastModified: baseTime.Add(-1 * time.Hour), Permissions: []string{"read", "write"}},
		{ID: "3", Name: "notes.pdf", Type: "pdf", Size: 500, Owner: "John Doe", Path: "/docs", LastModified: baseTime.Add(-2 * time.Hour), Permissions: []string{"read", "delete"}},
	}
}

func numberedFiles(n int) []models.File {
	files := make([]models.File, n)
	for i := range files {
		files[i] = models.File{
			ID:           fmt.Sprintf("r%d", i),
			Name:         fmt.Sprintf("file-%d.txt", i),
			Type:         "text",
			Size:         int64(100 * (i + 1)),
			LastModified: baseTime.Add(time.Duration(i) * time.Minute),
		}
	}
	return files
}

func ids(files []models.File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.ID
	}
	return out
}

func TestNewEngineRejectsBrokenSchema(t *testing.T) {
	schema := FileSchema()
	schema.TimeField = "name"
	_, err := NewEngine(schema, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "time field")

	schema = FileSchema()
	schema.Searchable = append(schema.Searchable, "missing")
	_, err = NewEngine(schema, 0)
	require.Error(t, err)

	users := UserSchema()
	users.Tabs = append(users.Tabs, models.TabMine)
	_, err = NewEngine(users, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "owner field")
}

func TestBuiltinSchemasAreValid(t *testing.T) {
	_, err := NewEngine(FileSchema(), 0)
	require.NoError(t, err)
	_, err = NewEngine(MetadataSchema(), 0)
	require.NoError(t, err)
	_, err = NewEngine(UserSchema(), 0)
	require.NoError(t, err)
	_, err = NewEngine(NodeSchema(), 0)
	require.NoError(t, err)
}

func TestFilterByType(t *testing.T) {
	e := newFileEngine(t)
	records := sampleFiles()

	out, err := e.Filter(records, models.ViewParameters{Type: "pdf"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3"}, ids(out))
	for _, f := range out {
		assert.Equal(t, "pdf", f.Type)
	}
	assert.Equal(t, int64(2500), e.Aggregate(out).TotalSize)
}

func TestFilterEmptySearchKeepsEverything(t *testing.T) {
	e := newFileEngine(t)
	records := sampleFiles()

	out, err := e.Filter(records, models.ViewParameters{Type: models.TypeAll})
	require.NoError(t, err)
	assert.Len(t, out, len(records))

	out, err = e.Filter(records, models.ViewParameters{})
	require.NoError(t, err)
	assert.Equal(t, ids(records), ids(out))
}

func TestFilterSearchIsCaseInsensitiveAcrossFields(t *testing.T) {
	e := newFileEngine(t)
	records := sampleFiles()

	out, err := e.Filter(records, models.ViewParameters{Search: "REPORT"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, ids(out))

	out, err = e.Filter(records, models.ViewParameters{Search: "john"})
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "3"}, ids(out))

	out, err = e.Filter(records, models.ViewParameters{Search: "/DOCS", Type: "pdf"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3"}, ids(out))

	out, err = e.Filter(records, models.ViewParameters{Search: "nothing-matches"})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestFilterSearchMatchesTags(t *testing.T) {
	e, err := NewEngine(MetadataSchema(), 0)
	require.NoError(t, err)
	entries := []models.MetadataEntry{
		{ID: "m1", Filename: "a.pdf", Type: "PDF", Tags: []string{"Finance", "Q1"}},
		{ID: "m2", Filename: "b.png", Type: "Image", Tags: []string{"marketing"}},
	}

	out, err := e.Filter(entries, models.ViewParameters{Search: "finan"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "m1", out[0].ID)
}

func TestFilterExtraFields(t *testing.T) {
	e, err := NewEngine(NodeSchema(), 0)
	require.NoError(t, err)
	nodes := []models.Node{
		{ID: "n1", Name: "alpha", Status: models.NodeStatusOnline, Location: "US East", NodeType: "storage"},
		{ID: "n2", Name: "beta", Status: models.NodeStatusWarning, Location: "US East", NodeType: "storage"},
		{ID: "n3", Name: "gamma", Status: models.NodeStatusOnline, Location: "EU West", NodeType: "compute"},
	}

	out, err := e.Filter(nodes, models.ViewParameters{Filters: map[string]string{"status": "online", "location": "all"}})
	require.NoError(t, err)
	assert.Len(t, out, 2)

	out, err = e.Filter(nodes, models.ViewParameters{Filters: map[string]string{"status": "online", "location": "US East"}})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "n1", out[0].ID)

	_, err = e.Filter(nodes, models.ViewParameters{Filters: map[string]string{"colour": "red"}})
	var invalid *InvalidParameterError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "filter", invalid.Param)

	_, err = e.Filter(nodes, models.ViewParameters{Filters: map[string]string{"cpu_usage": "10"}})
	require.ErrorAs(t, err, &invalid)
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	e := newFileEngine(t)
	records := sampleFiles()
	before := ids(records)

	_, err := e.Filter(records, models.ViewParameters{Type: "pdf"})
	require.NoError(t, err)
	_, err = e.Sort(records, "size", models.SortAsc)
	require.NoError(t, err)
	_, err = e.ScopeToTab(records, models.TabRecent, "")
	require.NoError(t, err)

	assert.Equal(t, before, ids(records))
}

func TestScopeToTabRecent(t *testing.T) {
	e := newFileEngine(t)
	records := numberedFiles(8)

	out, err := e.ScopeToTab(records, models.TabRecent, "")
	require.NoError(t, err)
	require.Len(t, out, 5)
	assert.Equal(t, []string{"r7", "r6", "r5", "r4", "r3"}, ids(out))
	for i := 1; i < len(out); i++ {
		assert.False(t, out[i].LastModified.After(out[i-1].LastModified))
	}

	few, err := e.ScopeToTab(records[:3], models.TabRecent, "")
	require.NoError(t, err)
	assert.Len(t, few, 3)
}

func TestScopeToTabRecentHonoursLimit(t *testing.T) {
	e, err := NewEngine(FileSchema(), 2)
	require.NoError(t, err)

	out, err := e.ScopeToTab(numberedFiles(4), models.TabRecent, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"r3", "r2"}, ids(out))
}

func TestScopeToTabMine(t *testing.T) {
	e := newFileEngine(t)
	records := append(sampleFiles(), models.File{ID: "4", Name: "orphan.txt", Type: "text"})

	out, err := e.ScopeToTab(records, models.TabMine, "John Doe")
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "3"}, ids(out))

	out, err = e.ScopeToTab(records, models.TabMine, "")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestScopeToTabAllIsIdentity(t *testing.T) {
	e := newFileEngine(t)
	records := sampleFiles()

	out, err := e.ScopeToTab(records, models.TabAll, "anyone")
	require.NoError(t, err)
	assert.Equal(t, ids(records), ids(out))
}

func TestScopeToTabUnknown(t *testing.T) {
	e := newFileEngine(t)

	_, err := e.ScopeToTab(sampleFiles(), models.Tab("shared"), "")
	var invalid *InvalidParameterError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "tab", invalid.Param)
	assert.Equal(t, "shared", invalid.Value)

	nodes, err := NewEngine(NodeSchema(), 0)
	require.NoError(t, err)
	_, err = nodes.ScopeToTab(nil, models.TabMine, "me")
	require.ErrorAs(t, err, &invalid)
}

func TestSortByKinds(t *testing.T) {
	e := newFileEngine(t)
	records := sampleFiles()

	out, err := e.Sort(records, "size", models.SortAsc)
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "2", "1"}, ids(out))

	out, err = e.Sort(records, "size", models.SortDesc)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, ids(out))

	out, err = e.Sort(records, "last_modified", models.SortAsc)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3", "2"}, ids(out))

	out, err = e.Sort(records, "name", models.SortAsc)
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "2", "1"}, ids(out))
}

func TestSortNumbersAreNotLexicographic(t *testing.T) {
	e := newFileEngine(t)
	records := []models.File{
		{ID: "a", Size: 100},
		{ID: "b", Size: 9},
		{ID: "c", Size: 20},
	}

	out, err := e.Sort(records, "size", models.SortAsc)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, ids(out))
}

func TestSortIsStableInBothDirections(t *testing.T) {
	e := newFileEngine(t)
	records := []models.File{
		{ID: "a", Type: "pdf", Name: "x"},
		{ID: "b", Type: "image", Name: "y"},
		{ID: "c", Type: "PDF", Name: "z"},
		{ID: "d", Type: "image", Name: "w"},
	}

	out, err := e.Sort(records, "type", models.SortAsc)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "d", "a", "c"}, ids(out))

	out, err = e.Sort(records, "type", models.SortDesc)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "b", "d"}, ids(out))
}

func TestSortRejectsUnknownKeyAndDirection(t *testing.T) {
	e := newFileEngine(t)
	var invalid *InvalidParameterError

	_, err := e.Sort(sampleFiles(), "colour", models.SortAsc)
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "sort_by", invalid.Param)

	_, err = e.Sort(sampleFiles(), "permissions", models.SortAsc)
	require.ErrorAs(t, err, &invalid)

	_, err = e.Sort(sampleFiles(), "size", models.SortDirection("up"))
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "sort_dir", invalid.Param)
}

func TestSortThenPaginateIsDeterministic(t *testing.T) {
	e := newFileEngine(t)
	records := numberedFiles(10)

	run := func() []string {
		sorted, err := e.Sort(records, "name", models.SortDesc)
		require.NoError(t, err)
		page, err := e.Paginate(sorted, 1, 3)
		require.NoError(t, err)
		return ids(page)
	}
	assert.Equal(t, run(), run())
}

func TestPaginate(t *testing.T) {
	records := numberedFiles(10)

	page, err := Paginate(records, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"r4", "r5", "r6", "r7"}, ids(page))

	page, err = Paginate(records, 2, 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"r8", "r9"}, ids(page))

	page, err = Paginate(records[:3], 5, 10)
	require.NoError(t, err)
	assert.NotNil(t, page)
	assert.Empty(t, page)
}

func TestPaginateRejectsInvalidSizes(t *testing.T) {
	var invalid *InvalidParameterError

	_, err := Paginate(numberedFiles(3), 0, 0)
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "page_size", invalid.Param)

	_, err = Paginate(numberedFiles(3), 0, -1)
	require.ErrorAs(t, err, &invalid)

	_, err = Paginate(numberedFiles(3), -1, 5)
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "page", invalid.Param)
}

func TestPaginateCompleteness(t *testing.T) {
	for _, size := range []int{1, 3, 4, 7, 10, 12} {
		records := numberedFiles(10)
		pages := (len(records) + size - 1) / size
		var joined []models.File
		for p := 0; p < pages; p++ {
			page, err := Paginate(records, p, size)
			require.NoError(t, err)
			joined = append(joined, page...)
		}
		assert.Equal(t, ids(records), ids(joined), "page size %d", size)
	}
}

func TestPaginateHugePageIsEmpty(t *testing.T) {
	records := numberedFiles(3)
	for _, page := range []int{math.MaxInt, math.MaxInt / 2, math.MaxInt/4 + 1} {
		assert.NotPanics(t, func() {
			out, err := Paginate(records, page, 4)
			require.NoError(t, err)
			assert.Empty(t, out, "page %d", page)
		})
	}

	out, err := Paginate(records, 0, math.MaxInt)
	require.NoError(t, err)
	assert.Equal(t, ids(records), ids(out))

	out, err = Paginate(records, 1, math.MaxInt)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestComputeHugePageIsEmpty(t *testing.T) {
	e := newFileEngine(t)
	records := numberedFiles(3)

	for _, page := range []int{math.MaxInt, math.MaxInt / 2} {
		assert.NotPanics(t, func() {
			result, err := e.Compute(records, models.ViewParameters{Page: page, PageSize: 4}, "")
			require.NoError(t, err)
			assert.Empty(t, result.Items)
			assert.Equal(t, 3, result.Total)
			assert.Equal(t, 3, result.Stats.Count)
		})
	}
}

func TestAggregate(t *testing.T) {
	e := newFileEngine(t)
	records := sampleFiles()

	stats := e.Aggregate(records)
	assert.Equal(t, 3, stats.Count)
	assert.Equal(t, int64(3500), stats.TotalSize)
	assert.Equal(t, 2, stats.UniqueTypes)
	assert.Equal(t, 3, stats.UniqueTags)
	assert.Equal(t, map[string]int{"pdf": 2, "image": 1}, stats.ByType)

	empty := e.Aggregate(nil)
	assert.Equal(t, 0, empty.Count)
	assert.Equal(t, int64(0), empty.TotalSize)
}

func TestAggregateTotalSizeIsExactBeyondFloatPrecision(t *testing.T) {
	e := newFileEngine(t)
	records := []models.File{
		{ID: "a", Type: "bin", Size: 1 << 53},
		{ID: "b", Type: "bin", Size: 1<<53 + 1},
		{ID: "c", Type: "bin", Size: 1},
	}

	assert.Equal(t, int64(1<<53+1), e.Aggregate(records[1:2]).TotalSize)
	assert.Equal(t, int64(1<<54+2), e.Aggregate(records).TotalSize)

	// a and b are equal as float64; ordering must still tell them apart.
	sorted, err := e.Sort(records, "size", models.SortDesc)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, ids(sorted))
	assert.Equal(t, "9007199254740993", e.Row(records[1])["size"])
}

func TestAggregateNodeUsedBytes(t *testing.T) {
	e, err := NewEngine(NodeSchema(), 0)
	require.NoError(t, err)
	nodes := []models.Node{
		{ID: "n1", NodeType: "storage", UsedBytes: math.MaxInt64 / 2},
		{ID: "n2", NodeType: "storage", UsedBytes: 7},
	}

	assert.Equal(t, int64(math.MaxInt64/2+7), e.Aggregate(nodes).TotalSize)
}

func TestSchemaSizeFieldMustBeInteger(t *testing.T) {
	schema := FileSchema()
	for i, f := range schema.Fields {
		if f.Name == "size" {
			schema.Fields[i] = NumberField("size", func(f models.File) float64 { return float64(f.Size) })
		}
	}

	_, err := NewEngine(schema, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IntField")
}

func TestAggregateCountsEmptyType(t *testing.T) {
	e := newFileEngine(t)
	records := []models.File{
		{ID: "a", Type: "pdf"},
		{ID: "b", Type: ""},
		{ID: "c", Type: ""},
	}

	stats := e.Aggregate(records)
	assert.Equal(t, 2, stats.UniqueTypes)
	assert.Equal(t, map[string]int{"pdf": 1, "": 2}, stats.ByType)
}

func TestAggregateWithoutSizeField(t *testing.T) {
	e, err := NewEngine(UserSchema(), 0)
	require.NoError(t, err)
	users := []models.User{
		{ID: "u1", Roles: []string{"ADMIN"}, Permissions: []string{"READ", "WRITE"}},
		{ID: "u2", Roles: []string{"USER"}, Permissions: []string{"READ"}},
		{ID: "u3", Roles: []string{"USER"}},
	}

	stats := e.Aggregate(users)
	assert.Equal(t, 3, stats.Count)
	assert.Equal(t, int64(0), stats.TotalSize)
	assert.Equal(t, 2, stats.UniqueTypes)
	assert.Equal(t, 2, stats.UniqueTags)
}

func TestComputeRunsStagesInOrder(t *testing.T) {
	e := newFileEngine(t)
	records := numberedFiles(8)
	records[7].Type = "pdf"

	result, err := e.Compute(records, models.ViewParameters{
		Type:     "text",
		Tab:      models.TabRecent,
		SortBy:   "size",
		SortDir:  models.SortAsc,
		Page:     0,
		PageSize: 3,
	}, "")
	require.NoError(t, err)

	// recent of the seven text records is r6..r2, then sorted by size ascending.
	assert.Equal(t, 5, result.Total)
	assert.Equal(t, []string{"r2", "r3", "r4"}, ids(result.Items))
	assert.Equal(t, 5, result.Stats.Count)
	assert.Equal(t, int64(300+400+500+600+700), result.Stats.TotalSize)
}

func TestComputeDefaultsAndErrors(t *testing.T) {
	e := newFileEngine(t)
	records := numberedFiles(3)

	result, err := e.Compute(records, models.ViewParameters{PageSize: 10}, "")
	require.NoError(t, err)
	assert.Equal(t, ids(records), ids(result.Items))
	assert.Equal(t, models.TabAll, result.Params.Tab)
	assert.Equal(t, models.TypeAll, result.Params.Type)

	result, err = e.Compute(records, models.ViewParameters{Page: 5, PageSize: 10}, "")
	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.Equal(t, 3, result.Total)

	var invalid *InvalidParameterError
	_, err = e.Compute(records, models.ViewParameters{PageSize: 0}, "")
	require.ErrorAs(t, err, &invalid)

	_, err = e.Compute(records, models.ViewParameters{PageSize: 5, SortBy: "bogus"}, "")
	require.ErrorAs(t, err, &invalid)

	_, err = e.Compute(records, models.ViewParameters{PageSize: 5, Tab: "shared"}, "")
	require.ErrorAs(t, err, &invalid)

	_, err = e.Compute(records, models.ViewParameters{PageSize: 5, Filters: map[string]string{"bogus": "x"}}, "")
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "filter", invalid.Param)
	assert.Equal(t, "bogus", invalid.Value)

	_, err = e.Compute(records, models.ViewParameters{PageSize: 5, SortBy: "size", SortDir: "sideways"}, "")
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "sort_dir", invalid.Param)
}

func TestRowAndColumns(t *testing.T) {
	e := newFileEngine(t)
	f := sampleFiles()[1]

	cols := e.Columns()
	assert.Equal(t, "id", cols[0])
	row := e.Row(f)
	assert.Equal(t, "photo.png", row["name"])
	assert.Equal(t, "1000", row["size"])
	assert.Equal(t, "read, write", row["permissions"])
	assert.Equal(t, f.LastModified.UTC().Format(time.RFC3339), row["last_modified"])
	assert.Equal(t, "size", e.SizeField())
}
