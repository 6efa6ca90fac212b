package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/deepnoodle-ai/stackmap/analysis"
	"github.com/deepnoodle-ai/stackmap/bytecode"
	"github.com/deepnoodle-ai/stackmap/errors"
)

// checkOutcome is the result of checking one method.
type checkOutcome struct {
	method *bytecode.Method
	frames int
	err    error
}

func (a *app) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE...",
		Short: "Analyze every method and report the ones that fail",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			methods, err := a.loadAll(args)
			if err != nil {
				return err
			}
			domain, err := a.domain()
			if err != nil {
				return err
			}
			var outcomes []checkOutcome
			switch domain {
			case "source":
				outcomes = checkAll[analysis.SourceValue](cmd, a, methods, analysis.SourceInterpreter{})
			default:
				outcomes = checkAll[analysis.BasicValue](cmd, a, methods, analysis.BasicInterpreter{})
			}
			return a.report(outcomes)
		},
	}
}

func checkAll[V analysis.Value](cmd *cobra.Command, a *app, methods []*bytecode.Method, interp analysis.Interpreter[V]) []checkOutcome {
	// Per-method failures are reported from the results.
	results, _ := analysis.AnalyzeAll(commandContext(cmd), methods, interp, a.analysisOptions()...)
	outcomes := make([]checkOutcome, len(results))
	for i, r := range results {
		outcomes[i] = checkOutcome{method: r.Method, err: r.Err}
		if r.Result != nil {
			outcomes[i].frames = r.Result.FrameCount()
		}
	}
	return outcomes
}

func (a *app) report(outcomes []checkOutcome) error {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	formatter := errors.NewFormatter(!color.NoColor)
	failed := 0
	for _, o := range outcomes {
		if o.err == nil {
			fmt.Fprintf(a.out, "%s %s (%d frames)\n", green("ok  "), o.method, o.frames)
			continue
		}
		failed++
		fmt.Fprintf(a.out, "%s %s\n", red("FAIL"), o.method)
		fmt.Fprint(a.out, formatter.FormatError(o.err))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d methods failed", failed, len(outcomes))
	}
	fmt.Fprintf(a.out, "%d methods ok\n", len(outcomes))
	return nil
}
