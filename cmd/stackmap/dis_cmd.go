package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/deepnoodle-ai/stackmap/dis"
)

func (a *app) disCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dis FILE",
		Short: "Disassemble the methods of a listing or class document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			methods, err := a.load(args[0])
			if err != nil {
				return err
			}
			bold := color.New(color.Bold).SprintFunc()
			for i, m := range methods {
				if i > 0 {
					fmt.Fprintln(a.out)
				}
				fmt.Fprintf(a.out, "%s  %s\n", bold(m.String()), m.Access())
				if !m.HasCode() {
					fmt.Fprintln(a.out, "no code")
					continue
				}
				dis.Print(dis.Disassemble(m), a.out)
			}
			return nil
		},
	}
}
