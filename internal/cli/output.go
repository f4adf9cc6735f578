package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/noah-isme/stellarfs-api/internal/models"
	"github.com/noah-isme/stellarfs-api/internal/viewmodel"
)

const (
	outputAuto  = "auto"
	outputTable = "table"
	outputTSV   = "tsv"
	outputJSON  = "json"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).PaddingRight(2)
	cellStyle   = lipgloss.NewStyle().PaddingRight(2)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
)

// resolveOutput turns auto into table on a terminal and tsv otherwise.
func resolveOutput(mode string, w io.Writer) (string, error) {
	switch strings.ToLower(mode) {
	case outputTable:
		return outputTable, nil
	case outputTSV:
		return outputTSV, nil
	case outputJSON:
		return outputJSON, nil
	case outputAuto, "":
		if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
			return outputTable, nil
		}
		return outputTSV, nil
	default:
		return "", fmt.Errorf("unknown output format %q: expected auto, table, tsv or json", mode)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type viewOutput[T any] struct {
	Items      []T                   `json:"items"`
	Pagination models.Pagination     `json:"pagination"`
	Stats      models.Aggregates     `json:"stats"`
	Params     models.ViewParameters `json:"params"`
}

func writeView[T any](w io.Writer, mode string, engine *viewmodel.Engine[T], result *viewmodel.Result[T], now time.Time) error {
	switch mode {
	case outputJSON:
		return writeJSON(w, viewOutput[T]{
			Items: result.Items,
			Pagination: models.Pagination{
				Page:       result.Params.Page,
				PageSize:   result.Params.PageSize,
				TotalCount: result.Total,
			},
			Stats:  result.Stats,
			Params: result.Params,
		})
	case outputTSV:
		writeTSV(w, engine, result.Items)
		return nil
	default:
		if len(result.Items) == 0 {
			fmt.Fprintln(w, mutedStyle.Render("no records"))
		} else {
			fmt.Fprintln(w, renderTable(engine, result.Items, now))
		}
		fmt.Fprintln(w, mutedStyle.Render(summaryLine(result, engine.SizeField() != "")))
		return nil
	}
}

func renderTable[T any](engine *viewmodel.Engine[T], items []T, now time.Time) string {
	columns := engine.Columns()
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		row := engine.Row(item)
		cells := make([]string, len(columns))
		for i, col := range columns {
			cells[i] = displayCell(engine, col, row[col], now)
		}
		rows = append(rows, cells)
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		BorderColumn(false).
		BorderLeft(false).
		BorderRight(false).
		Headers(columns...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Rows(rows...).
		Render()
}

// displayCell humanizes sizes and timestamps for terminal output.
func displayCell[T any](engine *viewmodel.Engine[T], column, value string, now time.Time) string {
	if value == "" {
		return value
	}
	switch column {
	case engine.SizeField():
		if n, err := strconv.ParseFloat(value, 64); err == nil {
			return viewmodel.FormatFileSize(int64(n))
		}
	case engine.TimeField():
		if t, err := time.Parse(time.RFC3339, value); err == nil {
			return humanize.RelTime(t, now, "ago", "from now")
		}
	}
	return value
}

func writeTSV[T any](w io.Writer, engine *viewmodel.Engine[T], items []T) {
	columns := engine.Columns()
	fmt.Fprintln(w, strings.Join(columns, "\t"))
	for _, item := range items {
		row := engine.Row(item)
		cells := make([]string, len(columns))
		for i, col := range columns {
			cells[i] = tsvEscaper.Replace(row[col])
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
}

var tsvEscaper = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")

func summaryLine[T any](result *viewmodel.Result[T], withSize bool) string {
	pages := 1
	if size := result.Params.PageSize; size > 0 && result.Total > size {
		pages = (result.Total + size - 1) / size
	}
	parts := []string{
		fmt.Sprintf("page %d/%d", result.Params.Page+1, pages),
		fmt.Sprintf("%d records", result.Total),
	}
	if withSize {
		parts = append(parts, viewmodel.FormatFileSize(result.Stats.TotalSize))
	}
	parts = append(parts,
		fmt.Sprintf("%d types", result.Stats.UniqueTypes),
		fmt.Sprintf("%d tags", result.Stats.UniqueTags),
	)
	return strings.Join(parts, " · ")
}

func writeStats(w io.Writer, mode string, stats models.Aggregates, withSize bool) error {
	if mode == outputJSON {
		return writeJSON(w, stats)
	}

	rows := [][]string{{"count", strconv.Itoa(stats.Count)}}
	if withSize {
		size := strconv.FormatInt(stats.TotalSize, 10)
		if mode == outputTable {
			size = viewmodel.FormatFileSize(stats.TotalSize)
		}
		rows = append(rows, []string{"total_size", size})
	}
	rows = append(rows,
		[]string{"unique_types", strconv.Itoa(stats.UniqueTypes)},
		[]string{"unique_tags", strconv.Itoa(stats.UniqueTags)},
	)
	types := make([]string, 0, len(stats.ByType))
	for t := range stats.ByType {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		rows = append(rows, []string{"type:" + t, strconv.Itoa(stats.ByType[t])})
	}

	if mode == outputTSV {
		for _, row := range rows {
			fmt.Fprintln(w, strings.Join(row, "\t"))
		}
		return nil
	}
	fmt.Fprintln(w, table.New().
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return mutedStyle.PaddingRight(2)
			}
			return cellStyle
		}).
		Rows(rows...).
		Render())
	return nil
}
