// Package analysis computes, for every instruction of a method body, the
// symbolic state of the operand stack and local variables reachable at that
// point.
//
// The Analyzer executes the method's control-flow graph with an
// Interpreter until the per-instruction frames stop changing. The value
// domain is chosen by the caller: BasicInterpreter tracks basic
// verification types, SourceInterpreter tracks which instructions produced
// each value, and any other Interpreter implementation can be plugged in.
//
// Example:
//
//	a := analysis.New[analysis.SourceValue](analysis.SourceInterpreter{})
//	result, err := a.Analyze(method)
//	if err != nil {
//		return err
//	}
//	for i := 0; i < result.FrameCount(); i++ {
//		if f := result.Frame(i); f != nil {
//			fmt.Println(i, f)
//		}
//	}
//
// A single Analyze call is synchronous and owns all of its state. Distinct
// methods may be analyzed concurrently, either with separate Analyzers or
// with AnalyzeAll; the shipped interpreters are stateless and safe to share.
package analysis
