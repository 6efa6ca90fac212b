// Package cfg recovers the control-flow graph of a method from the edges
// the analyzer follows. Only reachable code is part of the graph, and every
// edge in it was actually propagated by the analysis, including subroutine
// calls and returns and exception edges.
package cfg

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/deepnoodle-ai/stackmap/analysis"
	"github.com/deepnoodle-ai/stackmap/bytecode"
)

// Kind classifies an edge between blocks.
type Kind uint8

const (
	Fallthrough Kind = iota
	Jump
	Call
	Return
	Exception
)

func (k Kind) String() string {
	switch k {
	case Fallthrough:
		return "fallthrough"
	case Jump:
		return "jump"
	case Call:
		return "call"
	case Return:
		return "return"
	case Exception:
		return "exception"
	default:
		return "unknown"
	}
}

func kindOf(k analysis.EdgeKind) Kind {
	switch k {
	case analysis.EdgeJump:
		return Jump
	case analysis.EdgeCall:
		return Call
	case analysis.EdgeReturn:
		return Return
	default:
		return Fallthrough
	}
}

// Edge connects two blocks, identified by their IDs.
type Edge struct {
	From int
	To   int
	Kind Kind
}

func (e Edge) String() string {
	return fmt.Sprintf("B%d -> B%d (%s)", e.From, e.To, e.Kind)
}

// Block is a maximal run of reachable instructions [Start, End) that is
// entered only at Start and left only after End-1. Exception edges leave a
// block from any instruction without splitting it.
type Block struct {
	ID    int
	Start int
	End   int
	succs []Edge
	preds []Edge
}

// Len returns the number of instructions in the block.
func (b *Block) Len() int {
	return b.End - b.Start
}

// Contains reports whether instruction i belongs to the block.
func (b *Block) Contains(i int) bool {
	return i >= b.Start && i < b.End
}

// Successors returns the edges leaving the block.
func (b *Block) Successors() []Edge {
	return slices.Clone(b.succs)
}

// Predecessors returns the edges entering the block.
func (b *Block) Predecessors() []Edge {
	return slices.Clone(b.preds)
}

// Name returns "B" followed by the block ID.
func (b *Block) Name() string {
	return fmt.Sprintf("B%d", b.ID)
}

func (b *Block) String() string {
	return fmt.Sprintf("%s[%d,%d)", b.Name(), b.Start, b.End)
}

// Graph is the block graph of one method. Blocks are ordered by their
// first instruction and block 0, when present, is the entry.
type Graph struct {
	method  *bytecode.Method
	blocks  []*Block
	blockOf []int
	edges   []Edge
}

// Analyze runs the analyzer on m and builds the graph of the edges it
// followed. Any observer in opts is replaced by the graph's recorder.
func Analyze[V analysis.Value](m *bytecode.Method, interp analysis.Interpreter[V], opts ...analysis.Option) (*Graph, *analysis.Result[V], error) {
	rec := NewRecorder()
	opts = append(slices.Clone(opts), analysis.WithObserver(rec))
	result, err := analysis.New(interp, opts...).Analyze(m)
	if err != nil {
		return nil, nil, err
	}
	return Build(result, rec), result, nil
}

// Build groups the reachable instructions of result into blocks connected
// by the edges rec recorded during the analysis that produced result.
func Build[V analysis.Value](result *analysis.Result[V], rec *Recorder) *Graph {
	n := result.FrameCount()
	g := &Graph{method: result.Method(), blockOf: make([]int, n)}

	out := make([][]insnEdge, n)
	in := make([][]insnEdge, n)
	handler := make([]bool, n)
	for _, e := range rec.order {
		if e.kind == Exception {
			handler[e.to] = true
			continue
		}
		out[e.from] = append(out[e.from], e)
		in[e.to] = append(in[e.to], e)
	}

	straight := func(i int) bool {
		want := insnEdge{from: i - 1, to: i, kind: Fallthrough}
		return len(out[i-1]) == 1 && out[i-1][0] == want &&
			len(in[i]) == 1 && in[i][0] == want
	}

	var cur *Block
	for i := 0; i < n; i++ {
		g.blockOf[i] = -1
		if !result.Reachable(i) {
			cur = nil
			continue
		}
		if cur == nil || handler[i] || !straight(i) {
			cur = &Block{ID: len(g.blocks), Start: i}
			g.blocks = append(g.blocks, cur)
		}
		g.blockOf[i] = cur.ID
		cur.End = i + 1
	}

	seen := map[Edge]bool{}
	for _, e := range rec.order {
		from, to := g.blockOf[e.from], g.blockOf[e.to]
		if from < 0 || to < 0 || g.blocks[to].Start != e.to {
			continue
		}
		edge := Edge{From: from, To: to, Kind: e.kind}
		if seen[edge] {
			continue
		}
		seen[edge] = true
		g.edges = append(g.edges, edge)
	}
	slices.SortFunc(g.edges, func(a, b Edge) int {
		if c := cmp.Compare(a.From, b.From); c != 0 {
			return c
		}
		if c := cmp.Compare(a.To, b.To); c != 0 {
			return c
		}
		return cmp.Compare(a.Kind, b.Kind)
	})
	for _, e := range g.edges {
		g.blocks[e.From].succs = append(g.blocks[e.From].succs, e)
		g.blocks[e.To].preds = append(g.blocks[e.To].preds, e)
	}
	return g
}

// Method returns the method the graph was built for.
func (g *Graph) Method() *bytecode.Method {
	return g.method
}

// BlockCount returns the number of blocks.
func (g *Graph) BlockCount() int {
	return len(g.blocks)
}

// Block returns the block with the given ID.
func (g *Graph) Block(id int) *Block {
	return g.blocks[id]
}

// Blocks returns the blocks in instruction order.
func (g *Graph) Blocks() []*Block {
	return slices.Clone(g.blocks)
}

// BlockOf returns the block holding instruction i. It returns false for
// unreachable instructions.
func (g *Graph) BlockOf(i int) (*Block, bool) {
	if i < 0 || i >= len(g.blockOf) || g.blockOf[i] < 0 {
		return nil, false
	}
	return g.blocks[g.blockOf[i]], true
}

// Edges returns every edge, ordered by source, target and kind.
func (g *Graph) Edges() []Edge {
	return slices.Clone(g.edges)
}
