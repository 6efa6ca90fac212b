package bytecode

// copyInts returns a copy of the given int slice.
func copyInts(src []int) []int {
	if src == nil {
		return nil
	}
	dst := make([]int, len(src))
	copy(dst, src)
	return dst
}

// copyKeys returns a copy of the given switch key slice.
func copyKeys(src []int32) []int32 {
	if src == nil {
		return nil
	}
	dst := make([]int32, len(src))
	copy(dst, src)
	return dst
}

// copyInstructions returns a deep copy of the given instruction slice.
func copyInstructions(src []Instruction) []Instruction {
	if src == nil {
		return nil
	}
	dst := make([]Instruction, len(src))
	for i, insn := range src {
		insn.Targets = copyInts(insn.Targets)
		insn.Keys = copyKeys(insn.Keys)
		dst[i] = insn
	}
	return dst
}

// copyHandlers returns a copy of the given exception handler slice.
func copyHandlers(src []ExceptionHandler) []ExceptionHandler {
	if src == nil {
		return nil
	}
	dst := make([]ExceptionHandler, len(src))
	copy(dst, src)
	return dst
}
