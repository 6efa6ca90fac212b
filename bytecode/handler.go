package bytecode

import "fmt"

// ExceptionHandler describes one entry of a method's exception table.
type ExceptionHandler struct {
	Start   int    // index of the first guarded instruction
	End     int    // index just past the last guarded instruction
	Handler int    // index of the handler's first instruction
	Type    string // internal name of the caught class ("" catches everything)
}

// Covers reports whether the instruction at index is guarded by h.
func (h ExceptionHandler) Covers(index int) bool {
	return index >= h.Start && index < h.End
}

// CatchType returns the internal name of the caught class, defaulting to
// java/lang/Throwable for catch-all handlers.
func (h ExceptionHandler) CatchType() string {
	if h.Type == "" {
		return "java/lang/Throwable"
	}
	return h.Type
}

func (h ExceptionHandler) String() string {
	typ := h.Type
	if typ == "" {
		typ = "any"
	}
	return fmt.Sprintf("[%d, %d) -> %d %s", h.Start, h.End, h.Handler, typ)
}
