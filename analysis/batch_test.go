package analysis

import (
	"bytes"
	"context"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/stackmap/bytecode"
	"github.com/deepnoodle-ai/stackmap/errors"
	"github.com/deepnoodle-ai/stackmap/op"
)

func underflowMethod(t *testing.T) *bytecode.Method {
	b := bytecode.NewBuilder("C", "broken", "()V", bytecode.AccStatic).MaxStack(1).MaxLocals(0)
	b.Op(op.Pop).Op(op.Return)
	return build(t, b)
}

func TestAnalyzeAll(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(zerolog.SyncWriter(&buf)).Level(zerolog.DebugLevel)
	methods := []*bytecode.Method{
		countdownMethod(t),
		underflowMethod(t),
		dupX2Method(t),
	}

	results, err := AnalyzeAll[BasicValue](context.Background(), methods, BasicInterpreter{},
		WithConcurrency(2), WithLogger(logger))
	require.Error(t, err)
	require.Len(t, results, 3)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	require.Len(t, merr.Errors, 1)

	for i, r := range results {
		require.Same(t, methods[i], r.Method)
	}
	require.NoError(t, results[0].Err)
	require.NotNil(t, results[0].Result)
	require.Nil(t, results[1].Result)
	ae := requireCode(t, results[1].Err, errors.E2001)
	require.Equal(t, "C.broken()V", ae.Method)
	require.NoError(t, results[2].Err)

	require.Contains(t, buf.String(), `"message":"batch complete"`)
	require.Contains(t, buf.String(), `"failed":1`)
	require.Contains(t, buf.String(), `"run":`)
}

func TestAnalyzeAllCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	methods := []*bytecode.Method{countdownMethod(t), dupX2Method(t)}

	results, err := AnalyzeAll[BasicValue](ctx, methods, BasicInterpreter{})
	require.Error(t, err)
	for _, r := range results {
		require.ErrorIs(t, r.Err, context.Canceled)
		require.Nil(t, r.Result)
	}
	require.Contains(t, err.Error(), "C.count(I)I: context canceled")
}

// panickyInterpreter panics on every constant.
type panickyInterpreter struct {
	BasicInterpreter
}

func (panickyInterpreter) NewOperation(Insn) (BasicValue, error) {
	panic("no constants")
}

func TestAnalyzeAllRecoversPanics(t *testing.T) {
	methods := []*bytecode.Method{countdownMethod(t), underflowMethod(t)}
	results, err := AnalyzeAll[BasicValue](context.Background(), methods, panickyInterpreter{}, WithConcurrency(1))
	require.Error(t, err)
	require.ErrorContains(t, results[0].Err, "panic during analysis: no constants")
	requireCode(t, results[1].Err, errors.E2001)
}

func TestAnalyzeAllEmpty(t *testing.T) {
	results, err := AnalyzeAll[SourceValue](context.Background(), nil, SourceInterpreter{})
	require.NoError(t, err)
	require.Empty(t, results)
}
