package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/deepnoodle-ai/stackmap/analysis"
	"github.com/deepnoodle-ai/stackmap/bytecode"
	"github.com/deepnoodle-ai/stackmap/dis"
)

// methodFrames is the JSON form of one analyzed method.
type methodFrames struct {
	Method    string          `json:"method"`
	MaxStack  int             `json:"maxStack"`
	MaxLocals int             `json:"maxLocals"`
	Frames    []dis.FrameInfo `json:"frames"`
}

func (a *app) framesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "frames FILE",
		Short: "Print the frame before every instruction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			computeMaxs, _ := cmd.Flags().GetBool("compute-maxs")
			if format != "text" && format != "json" {
				return fmt.Errorf("unknown output format: %s", format)
			}
			methods, err := a.load(args[0])
			if err != nil {
				return err
			}
			domain, err := a.domain()
			if err != nil {
				return err
			}
			var out []methodFrames
			switch domain {
			case "source":
				out, err = analyzeFrames[analysis.SourceValue](a, methods, analysis.SourceInterpreter{}, computeMaxs)
			default:
				out, err = analyzeFrames[analysis.BasicValue](a, methods, analysis.BasicInterpreter{}, computeMaxs)
			}
			if err != nil {
				return err
			}
			if format == "json" {
				return a.printJSON(out)
			}
			printFramesText(a.out, out)
			return nil
		},
	}
	cmd.Flags().StringP("format", "o", "text", "output format (text or json)")
	cmd.Flags().Bool("compute-maxs", false, "ignore the declared maximums and recompute them")
	return cmd
}

func analyzeFrames[V analysis.Value](a *app, methods []*bytecode.Method, interp analysis.Interpreter[V], computeMaxs bool) ([]methodFrames, error) {
	analyzer := analysis.New(interp, a.analysisOptions()...)
	out := make([]methodFrames, 0, len(methods))
	for _, m := range methods {
		var result *analysis.Result[V]
		var err error
		if computeMaxs {
			result, err = analyzer.AnalyzeAndComputeMaxs(m)
		} else {
			result, err = analyzer.Analyze(m)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, methodFrames{
			Method:    m.String(),
			MaxStack:  result.MaxStack(),
			MaxLocals: result.MaxLocals(),
			Frames:    dis.Frames(result),
		})
	}
	return out, nil
}

func printFramesText(w io.Writer, methods []methodFrames) {
	bold := color.New(color.Bold).SprintFunc()
	for i, m := range methods {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s  stack=%d locals=%d\n", bold(m.Method), m.MaxStack, m.MaxLocals)
		if len(m.Frames) == 0 {
			fmt.Fprintln(w, "no code")
			continue
		}
		dis.PrintFrames(m.Frames, w)
	}
}
