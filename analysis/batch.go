package analysis

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/deepnoodle-ai/stackmap/bytecode"
	"github.com/deepnoodle-ai/stackmap/errors"
)

// MethodResult is the outcome of analyzing one method of a batch. Exactly
// one of Result and Err is set.
type MethodResult[V Value] struct {
	Method *bytecode.Method
	Result *Result[V]
	Err    error
}

// AnalyzeAll analyzes every method, at most WithConcurrency at a time, and
// returns one MethodResult per method in input order. A failing method does
// not stop the others; the returned error combines every failure and is nil
// when all methods were analyzed.
//
// The context is checked before each method starts. Methods not started
// when it is canceled fail with the context's error.
func AnalyzeAll[V Value](ctx context.Context, methods []*bytecode.Method, interp Interpreter[V], opts ...Option) ([]MethodResult[V], error) {
	cfg := newConfig(opts)
	runID, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	logger := cfg.logger.With().Str("run", runID.String()).Logger()
	a := New(interp, append(opts, WithLogger(logger))...)

	results := make([]MethodResult[V], len(methods))
	var g errgroup.Group
	g.SetLimit(cfg.concurrency)
	for i, m := range methods {
		i, m := i, m
		g.Go(func() error {
			results[i] = analyzeOne(ctx, a, m)
			return nil
		})
	}
	_ = g.Wait()

	var merr *multierror.Error
	for _, r := range results {
		if r.Err == nil {
			continue
		}
		if _, ok := errors.AsAnalysisError(r.Err); ok {
			merr = multierror.Append(merr, r.Err)
		} else {
			merr = multierror.Append(merr, fmt.Errorf("%s: %w", r.Method, r.Err))
		}
	}
	failed := 0
	if merr != nil {
		failed = len(merr.Errors)
	}
	logger.Debug().
		Int("methods", len(methods)).
		Int("failed", failed).
		Int("concurrency", cfg.concurrency).
		Msg("batch complete")
	return results, merr.ErrorOrNil()
}

func analyzeOne[V Value](ctx context.Context, a *Analyzer[V], m *bytecode.Method) (out MethodResult[V]) {
	out.Method = m
	if err := ctx.Err(); err != nil {
		out.Err = err
		return out
	}
	defer func() {
		if p := recover(); p != nil {
			out.Result = nil
			out.Err = fmt.Errorf("panic during analysis: %v", p)
		}
	}()
	out.Result, out.Err = a.Analyze(m)
	return out
}
