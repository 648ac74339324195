package cmd

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

func newLeaguesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "leagues",
		Short: "List the configured leagues and their teams.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"League", "Slug", "#", "Teams"})
			for _, l := range a.cfg.Leagues {
				t.AppendRow(table.Row{l.Name, l.Slug, len(l.Teams), strings.Join(l.Teams, ", ")})
				t.AppendSeparator()
			}
			t.SetColumnConfigs([]table.ColumnConfig{
				{Number: 4, WidthMax: 72, WidthMaxEnforcer: text.WrapSoft},
			})
			t.SetStyle(table.StyleRounded)
			t.Render()
			return nil
		},
	}
}
