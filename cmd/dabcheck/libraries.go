package dabcheck

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	semver "github.com/blang/semver/v4"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/dabcheck/dabcheck/internal/metadata"
)

func init() {
	cmd := &cobra.Command{
		Use:   "libraries",
		Short: "Inspect the DABC tables",
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List known libraries and where their tables live",
		Args:  cobra.NoArgs,
		RunE:  runLibrariesList,
	}
	show := &cobra.Command{
		Use:   "show <library>",
		Short: "Print a library's DABC table, oldest breaking version first",
		Args:  cobra.ExactArgs(1),
		RunE:  runLibrariesShow,
	}
	rootCmd.AddCommand(cmd)
	cmd.AddCommand(list, show)
}

func libraryStore(cmd *cobra.Command) (*metadata.Store, error) {
	s, err := resolve(cmd, ".")
	if err != nil {
		return nil, err
	}
	return metadata.NewStore(metadata.StoreConfig{Extra: s.cfg.ExtraLibraries, Logger: s.logger})
}

func runLibrariesList(cmd *cobra.Command, _ []string) error {
	store, err := libraryStore(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, name := range store.Libraries() {
		res, _ := store.Resource(name)
		where := res.Path
		if res.Embedded {
			where = "bundled"
		}
		fmt.Fprintf(out, "%-12s %s\n", name, where)
	}
	return nil
}

type tableRow struct {
	Key     string   `json:"key"`
	Params  []string `json:"params"`
	Version string   `json:"version"`
}

func runLibrariesShow(cmd *cobra.Command, args []string) error {
	store, err := libraryStore(cmd)
	if err != nil {
		return err
	}
	table, err := store.Load(args[0])
	if err != nil {
		return fmt.Errorf("library %s: %w", args[0], err)
	}
	rows := sortedRows(table)
	out := cmd.OutOrStdout()
	if flagJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}
	tw := tablewriter.NewWriter(out)
	tw.Header("Call", "Parameters", "Version")
	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		data = append(data, []string{r.Key, strings.Join(r.Params, ", "), r.Version})
	}
	if err := tw.Bulk(data); err != nil {
		return err
	}
	return tw.Render()
}

// sortedRows orders entries by breaking version, then key. Versions that do
// not parse sort last.
func sortedRows(t metadata.Table) []tableRow {
	rows := make([]tableRow, 0, len(t))
	for _, key := range t.Keys() {
		md := t[key]
		rows = append(rows, tableRow{Key: key, Params: md.Params, Version: md.Version})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		vi, ei := semver.ParseTolerant(rows[i].Version)
		vj, ej := semver.ParseTolerant(rows[j].Version)
		switch {
		case ei != nil || ej != nil:
			return ei == nil && ej != nil
		case !vi.EQ(vj):
			return vi.LT(vj)
		}
		return false
	})
	return rows
}
