package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noah-isme/stellarfs-api/internal/models"
	"github.com/noah-isme/stellarfs-api/internal/viewmodel"
)

const defaultPageSize = 10

type viewOptions struct {
	kind     string
	input    string
	user     string
	search   string
	recType  string
	tab      string
	filters  map[string]string
	sortBy   string
	sortDir  string
	page     int
	pageSize int
}

func newViewCmd(root *rootOptions) *cobra.Command {
	opts := &viewOptions{}
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Print one page of a record view",
		Example: `  stellarctl view --kind files --input files.yaml --tab recent
  stellarctl view -k nodes -i nodes.json --sort-by cpu_usage --sort-dir desc -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, root, false)
		},
	}
	opts.bindSelection(cmd)
	cmd.Flags().StringVar(&opts.sortBy, "sort-by", "", "Field to sort by")
	cmd.Flags().StringVar(&opts.sortDir, "sort-dir", "", "Sort direction: asc or desc")
	cmd.Flags().IntVar(&opts.page, "page", 0, "Zero-based page index")
	cmd.Flags().IntVar(&opts.pageSize, "page-size", defaultPageSize, "Records per page (config: page_size)")
	return cmd
}

func newStatsCmd(root *rootOptions) *cobra.Command {
	opts := &viewOptions{}
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print aggregates of the selected records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, root, true)
		},
	}
	opts.bindSelection(cmd)
	return cmd
}

// bindSelection registers the flags shared by view and stats.
func (o *viewOptions) bindSelection(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&o.kind, "kind", "k", string(models.ResourceFiles), "Record kind: files, metadata, users or nodes")
	flags.StringVarP(&o.input, "input", "i", "", "YAML or JSON file with a list of records, - for stdin")
	flags.StringVar(&o.user, "user", "", "Display name used by the mine tab (config: user)")
	flags.StringVarP(&o.search, "search", "s", "", "Case-insensitive search term")
	flags.StringVar(&o.recType, "type", models.TypeAll, "Record type, all disables the filter")
	flags.StringVar(&o.tab, "tab", string(models.TabAll), "Tab: all, recent or mine")
	flags.StringToStringVar(&o.filters, "filter", nil, "Exact field filter, e.g. --filter owner=Ada")
}

func (o *viewOptions) parameters(cmd *cobra.Command, cfg *Config) models.ViewParameters {
	params := models.ViewParameters{
		Search:   o.search,
		Type:     o.recType,
		Tab:      models.Tab(strings.ToLower(o.tab)),
		SortBy:   o.sortBy,
		SortDir:  models.SortDirection(strings.ToLower(o.sortDir)),
		Page:     o.page,
		PageSize: o.pageSize,
	}
	if len(o.filters) > 0 {
		params.Filters = o.filters
	}
	if f := cmd.Flags().Lookup("page-size"); f != nil && !f.Changed && cfg.PageSize > 0 {
		params.PageSize = cfg.PageSize
	}
	return params
}

func (o *viewOptions) currentUser(cfg *Config) string {
	if o.user != "" {
		return o.user
	}
	return cfg.User
}

func (o *viewOptions) run(cmd *cobra.Command, root *rootOptions, statsOnly bool) error {
	switch models.ResourceKind(strings.ToLower(o.kind)) {
	case models.ResourceFiles:
		return runView(cmd, root, o, viewmodel.FileSchema(), statsOnly)
	case models.ResourceMetadata:
		return runView(cmd, root, o, viewmodel.MetadataSchema(), statsOnly)
	case models.ResourceUsers:
		return runView(cmd, root, o, viewmodel.UserSchema(), statsOnly)
	case models.ResourceNodes:
		return runView(cmd, root, o, viewmodel.NodeSchema(), statsOnly)
	default:
		return fmt.Errorf("unknown kind %q: expected files, metadata, users or nodes", o.kind)
	}
}

func runView[T any](cmd *cobra.Command, root *rootOptions, o *viewOptions, schema viewmodel.Schema[T], statsOnly bool) error {
	out := cmd.OutOrStdout()
	mode, err := resolveOutput(root.output, out)
	if err != nil {
		return err
	}
	engine, err := viewmodel.NewEngine(schema, root.cfg.RecentLimit)
	if err != nil {
		return err
	}
	records, err := readRecords[T](o.input, cmd.InOrStdin())
	if err != nil {
		return err
	}

	params := o.parameters(cmd, root.cfg)
	if statsOnly {
		params.Page, params.PageSize = 0, 1
	}
	result, err := engine.Compute(records, params, o.currentUser(root.cfg))
	if err != nil {
		return err
	}

	if statsOnly {
		return writeStats(out, mode, result.Stats, engine.SizeField() != "")
	}
	return writeView(out, mode, engine, result, root.now())
}
