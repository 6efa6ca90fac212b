package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/deepnoodle-ai/stackmap/analysis"
	"github.com/deepnoodle-ai/stackmap/internal/table"
)

func (a *app) maxsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "maxs FILE",
		Short: "Compare declared stack and locals sizes with computed ones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			methods, err := a.load(args[0])
			if err != nil {
				return err
			}
			analyzer := analysis.New[analysis.BasicValue](analysis.BasicInterpreter{}, a.analysisOptions()...)
			var rows [][]string
			for _, m := range methods {
				if !m.HasCode() {
					continue
				}
				result, err := analyzer.AnalyzeAndComputeMaxs(m)
				if err != nil {
					return err
				}
				rows = append(rows, []string{
					m.String(),
					strconv.Itoa(m.MaxStack()),
					strconv.Itoa(result.MaxStack()),
					strconv.Itoa(m.MaxLocals()),
					strconv.Itoa(result.MaxLocals()),
				})
			}
			table.NewTable(a.out).
				WithHeader([]string{"METHOD", "DECLARED STACK", "STACK", "DECLARED LOCALS", "LOCALS"}).
				WithColumnAlignment([]table.Alignment{
					table.AlignLeft,
					table.AlignRight,
					table.AlignRight,
					table.AlignRight,
					table.AlignRight,
				}).
				WithRows(rows).
				Render()
			return nil
		},
	}
}
