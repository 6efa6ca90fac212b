package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deepnoodle-ai/stackmap/analysis"
	"github.com/deepnoodle-ai/stackmap/cfg"
)

func (a *app) cfgCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cfg FILE",
		Short: "Print the control flow graph of a method in DOT format",
		Long:  "Print the basic blocks and edges of one method as a Graphviz digraph.\nUse --method when the file holds more than one method.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			methods, err := a.load(args[0])
			if err != nil {
				return err
			}
			if len(methods) != 1 {
				return fmt.Errorf("%s has %d methods, select one with --method", args[0], len(methods))
			}
			g, _, err := cfg.Analyze[analysis.BasicValue](methods[0], analysis.BasicInterpreter{}, a.analysisOptions()...)
			if err != nil {
				return err
			}
			a.logger.Debug().
				Str("method", methods[0].String()).
				Int("blocks", g.BlockCount()).
				Int("edges", len(g.Edges())).
				Msg("graph built")
			return g.WriteDOT(a.out)
		},
	}
}
