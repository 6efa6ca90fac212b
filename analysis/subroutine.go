package analysis

import "slices"

// subroutine is the context of instructions reached through a jsr. The
// main code of a method has no subroutine.
type subroutine struct {
	// start is the index of the subroutine's first instruction, or -1 for
	// the pseudo subroutine used while discovering the real ones.
	start int

	// localsUsed records the locals read or written inside the subroutine.
	localsUsed []bool

	// callers holds the indexes of the jsr instructions that call it.
	callers []int
}

func newSubroutine(start, maxLocals, caller int) *subroutine {
	s := &subroutine{start: start, localsUsed: make([]bool, maxLocals)}
	if caller >= 0 {
		s.callers = append(s.callers, caller)
	}
	return s
}

func (s *subroutine) copy() *subroutine {
	return &subroutine{
		start:      s.start,
		localsUsed: slices.Clone(s.localsUsed),
		callers:    slices.Clone(s.callers),
	}
}

// markUsed records that local i is used, ignoring indexes out of range.
func (s *subroutine) markUsed(i int) {
	if i >= 0 && i < len(s.localsUsed) {
		s.localsUsed[i] = true
	}
}

// merge folds other into s and reports whether s changed. Callers are only
// merged between contexts of the same subroutine.
func (s *subroutine) merge(other *subroutine) bool {
	changed := false
	for i, used := range other.localsUsed {
		if used && !s.localsUsed[i] {
			s.localsUsed[i] = true
			changed = true
		}
	}
	if other.start == s.start {
		for _, c := range other.callers {
			if !slices.Contains(s.callers, c) {
				s.callers = append(s.callers, c)
				changed = true
			}
		}
	}
	return changed
}
