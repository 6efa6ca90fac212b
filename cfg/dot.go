package cfg

import (
	"fmt"
	"io"
	"strings"

	"github.com/emicklei/dot"
)

// DOT renders the graph in Graphviz format. Each block is a box listing its
// instructions. Exception edges are dashed, subroutine edges dotted, and
// every edge other than a fall-through is labeled with its kind.
func (g *Graph) DOT() *dot.Graph {
	d := dot.NewGraph(dot.Directed)
	if g.method != nil {
		d.Attr("label", g.method.String())
	}
	nodes := make([]dot.Node, len(g.blocks))
	for i, b := range g.blocks {
		nodes[i] = d.Node(b.Name()).Box().Attr("label", g.blockLabel(b))
	}
	for _, e := range g.edges {
		edge := d.Edge(nodes[e.From], nodes[e.To])
		switch e.Kind {
		case Exception:
			edge.Attr("style", "dashed")
		case Call, Return:
			edge.Attr("style", "dotted")
		}
		if e.Kind != Fallthrough {
			edge.Attr("label", e.Kind.String())
		}
	}
	return d
}

// WriteDOT writes the DOT rendering of the graph to w.
func (g *Graph) WriteDOT(w io.Writer) error {
	_, err := io.WriteString(w, g.DOT().String())
	return err
}

func (g *Graph) blockLabel(b *Block) string {
	var sb strings.Builder
	sb.WriteString(b.Name())
	for i := b.Start; i < b.End; i++ {
		fmt.Fprintf(&sb, "\n%d: %s", i, g.method.InstructionAt(i))
	}
	return sb.String()
}
