package cfg

import "github.com/deepnoodle-ai/stackmap/analysis"

// insnEdge is an edge between two instruction indexes.
type insnEdge struct {
	from, to int
	kind     Kind
}

// Recorder is an analysis.Observer that remembers every distinct edge the
// analyzer propagates. A Recorder serves a single analysis run and is not
// safe for concurrent use.
type Recorder struct {
	analysis.NoOpObserver
	seen  map[insnEdge]bool
	order []insnEdge
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{seen: map[insnEdge]bool{}}
}

// OnEdge records a normal edge.
func (r *Recorder) OnEdge(e analysis.EdgeEvent) {
	r.add(insnEdge{from: e.From, to: e.To, kind: kindOf(e.Kind)})
}

// OnExceptionEdge records the edge and keeps it.
func (r *Recorder) OnExceptionEdge(e analysis.ExceptionEdgeEvent) bool {
	r.add(insnEdge{from: e.From, to: e.Handler.Handler, kind: Exception})
	return true
}

// EdgeCount returns the number of distinct instruction edges recorded.
func (r *Recorder) EdgeCount() int {
	return len(r.order)
}

func (r *Recorder) add(e insnEdge) {
	if r.seen[e] {
		return
	}
	r.seen[e] = true
	r.order = append(r.order, e)
}

var _ analysis.Observer = (*Recorder)(nil)
