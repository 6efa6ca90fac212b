package op

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetInfo(t *testing.T) {
	info := GetInfo(DupX2)
	require.Equal(t, "dup_x2", info.Name)
	require.Equal(t, KindStack, info.Kind)
	require.Equal(t, OperandNone, info.Operand)
	require.Equal(t, DupX2, info.Code)
}

func TestGetInfoSelected(t *testing.T) {
	tests := []struct {
		code    Code
		name    string
		kind    Kind
		operand Operand
	}{
		{Nop, "nop", KindNop, OperandNone},
		{IconstM1, "iconst_m1", KindConst, OperandNone},
		{Bipush, "bipush", KindConst, OperandInt},
		{Ldc, "ldc", KindConst, OperandConst},
		{Lload, "lload", KindLoad, OperandVar},
		{Astore, "astore", KindStore, OperandVar},
		{Iinc, "iinc", KindArith, OperandIinc},
		{IfAcmpne, "if_acmpne", KindBranch, OperandJump},
		{Jsr, "jsr", KindSubroutine, OperandJump},
		{Ret, "ret", KindSubroutine, OperandVar},
		{Tableswitch, "tableswitch", KindSwitch, OperandTableSwitch},
		{Lookupswitch, "lookupswitch", KindSwitch, OperandLookupSwitch},
		{Getfield, "getfield", KindField, OperandField},
		{Invokeinterface, "invokeinterface", KindInvoke, OperandMethod},
		{Invokedynamic, "invokedynamic", KindInvoke, OperandInvokeDynamic},
		{Multianewarray, "multianewarray", KindAlloc, OperandMultiANewArray},
		{Ifnonnull, "ifnonnull", KindBranch, OperandJump},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := GetInfo(tt.code)
			require.Equal(t, tt.name, info.Name)
			require.Equal(t, tt.kind, info.Kind)
			require.Equal(t, tt.operand, info.Operand)
		})
	}
}

func TestOpcodeNamesUnique(t *testing.T) {
	seen := map[string]Code{}
	count := 0
	for i := 0; i < 256; i++ {
		info := GetInfo(Code(i))
		if info.Kind == KindInvalid {
			require.Empty(t, info.Name)
			continue
		}
		count++
		require.Equal(t, Code(i), info.Code)
		prev, dup := seen[info.Name]
		require.False(t, dup, "%s used by %d and %d", info.Name, prev, i)
		seen[info.Name] = Code(i)
	}
	require.Equal(t, 157, count)
}

func TestExpandedFormsAreInvalid(t *testing.T) {
	// iload_0, ldc_w, wide, goto_w
	for _, c := range []Code{26, 19, 196, 200, 201, 202, 254} {
		require.False(t, c.Valid(), "opcode %d", c)
		require.Equal(t, "<invalid>", c.String())
	}
}

func TestLookup(t *testing.T) {
	c, ok := Lookup("dup2_x1")
	require.True(t, ok)
	require.Equal(t, Dup2X1, c)

	_, ok = Lookup("DUP2_X1")
	require.False(t, ok)
	_, ok = Lookup("iload_0")
	require.False(t, ok)
}

func TestTerminates(t *testing.T) {
	for _, c := range []Code{Goto, Ret, Tableswitch, Lookupswitch, Athrow, Ireturn, Return} {
		require.True(t, c.Terminates(), c.String())
	}
	for _, c := range []Code{Jsr, Ifeq, Iadd, Invokestatic, Nop} {
		require.False(t, c.Terminates(), c.String())
	}
}

func TestIsWide(t *testing.T) {
	require.True(t, Lload.IsWide())
	require.True(t, Dstore.IsWide())
	require.False(t, Iload.IsWide())
	require.False(t, Astore.IsWide())
}

func TestKindString(t *testing.T) {
	require.Equal(t, "stack", KindStack.String())
	require.Equal(t, "subroutine", KindSubroutine.String())
	require.Equal(t, "", Kind(200).String())
}

func TestNames(t *testing.T) {
	names := Names()
	require.Len(t, names, 157)
	require.Equal(t, "nop", names[0])
	require.Equal(t, "ifnonnull", names[len(names)-1])
	for _, name := range names {
		code, ok := Lookup(name)
		require.True(t, ok, name)
		require.Equal(t, name, code.String())
	}
}
