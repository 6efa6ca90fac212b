// Package op defines the opcodes of the JVM instruction set as seen by the
// analyzer, along with per-opcode metadata.
//
// Short forms that the class-file layer expands (iload_0, ldc_w, goto_w,
// wide, ...) have no opcode here: an instruction source always hands the
// analyzer the canonical form with an explicit operand.
package op

// Code is a JVM opcode.
type Code uint8

const (
	Nop        Code = 0
	AconstNull Code = 1
	IconstM1   Code = 2
	Iconst0    Code = 3
	Iconst1    Code = 4
	Iconst2    Code = 5
	Iconst3    Code = 6
	Iconst4    Code = 7
	Iconst5    Code = 8
	Lconst0    Code = 9
	Lconst1    Code = 10
	Fconst0    Code = 11
	Fconst1    Code = 12
	Fconst2    Code = 13
	Dconst0    Code = 14
	Dconst1    Code = 15
	Bipush     Code = 16
	Sipush     Code = 17
	Ldc        Code = 18

	// Local loads
	Iload Code = 21
	Lload Code = 22
	Fload Code = 23
	Dload Code = 24
	Aload Code = 25

	// Array loads
	Iaload Code = 46
	Laload Code = 47
	Faload Code = 48
	Daload Code = 49
	Aaload Code = 50
	Baload Code = 51
	Caload Code = 52
	Saload Code = 53

	// Local stores
	Istore Code = 54
	Lstore Code = 55
	Fstore Code = 56
	Dstore Code = 57
	Astore Code = 58

	// Array stores
	Iastore Code = 79
	Lastore Code = 80
	Fastore Code = 81
	Dastore Code = 82
	Aastore Code = 83
	Bastore Code = 84
	Castore Code = 85
	Sastore Code = 86

	// Stack
	Pop    Code = 87
	Pop2   Code = 88
	Dup    Code = 89
	DupX1  Code = 90
	DupX2  Code = 91
	Dup2   Code = 92
	Dup2X1 Code = 93
	Dup2X2 Code = 94
	Swap   Code = 95

	// Arithmetic
	Iadd  Code = 96
	Ladd  Code = 97
	Fadd  Code = 98
	Dadd  Code = 99
	Isub  Code = 100
	Lsub  Code = 101
	Fsub  Code = 102
	Dsub  Code = 103
	Imul  Code = 104
	Lmul  Code = 105
	Fmul  Code = 106
	Dmul  Code = 107
	Idiv  Code = 108
	Ldiv  Code = 109
	Fdiv  Code = 110
	Ddiv  Code = 111
	Irem  Code = 112
	Lrem  Code = 113
	Frem  Code = 114
	Drem  Code = 115
	Ineg  Code = 116
	Lneg  Code = 117
	Fneg  Code = 118
	Dneg  Code = 119
	Ishl  Code = 120
	Lshl  Code = 121
	Ishr  Code = 122
	Lshr  Code = 123
	Iushr Code = 124
	Lushr Code = 125
	Iand  Code = 126
	Land  Code = 127
	Ior   Code = 128
	Lor   Code = 129
	Ixor  Code = 130
	Lxor  Code = 131
	Iinc  Code = 132

	// Conversions
	I2l Code = 133
	I2f Code = 134
	I2d Code = 135
	L2i Code = 136
	L2f Code = 137
	L2d Code = 138
	F2i Code = 139
	F2l Code = 140
	F2d Code = 141
	D2i Code = 142
	D2l Code = 143
	D2f Code = 144
	I2b Code = 145
	I2c Code = 146
	I2s Code = 147

	// Comparisons
	Lcmp  Code = 148
	Fcmpl Code = 149
	Fcmpg Code = 150
	Dcmpl Code = 151
	Dcmpg Code = 152

	// Control transfer
	Ifeq         Code = 153
	Ifne         Code = 154
	Iflt         Code = 155
	Ifge         Code = 156
	Ifgt         Code = 157
	Ifle         Code = 158
	IfIcmpeq     Code = 159
	IfIcmpne     Code = 160
	IfIcmplt     Code = 161
	IfIcmpge     Code = 162
	IfIcmpgt     Code = 163
	IfIcmple     Code = 164
	IfAcmpeq     Code = 165
	IfAcmpne     Code = 166
	Goto         Code = 167
	Jsr          Code = 168
	Ret          Code = 169
	Tableswitch  Code = 170
	Lookupswitch Code = 171
	Ireturn      Code = 172
	Lreturn      Code = 173
	Freturn      Code = 174
	Dreturn      Code = 175
	Areturn      Code = 176
	Return       Code = 177

	// Fields and invocation
	Getstatic       Code = 178
	Putstatic       Code = 179
	Getfield        Code = 180
	Putfield        Code = 181
	Invokevirtual   Code = 182
	Invokespecial   Code = 183
	Invokestatic    Code = 184
	Invokeinterface Code = 185
	Invokedynamic   Code = 186

	// Objects
	New            Code = 187
	Newarray       Code = 188
	Anewarray      Code = 189
	Arraylength    Code = 190
	Athrow         Code = 191
	Checkcast      Code = 192
	Instanceof     Code = 193
	Monitorenter   Code = 194
	Monitorexit    Code = 195
	Multianewarray Code = 197
	Ifnull         Code = 198
	Ifnonnull      Code = 199
)

// Array element type codes used as the operand of Newarray.
const (
	TBoolean = 4
	TChar    = 5
	TFloat   = 6
	TDouble  = 7
	TByte    = 8
	TShort   = 9
	TInt     = 10
	TLong    = 11
)

// Kind groups opcodes by the shape of the transfer function they need.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindNop
	KindConst
	KindLoad
	KindStore
	KindArrayLoad
	KindArrayStore
	KindStack
	KindArith
	KindConvert
	KindCompare
	KindBranch
	KindGoto
	KindSubroutine
	KindSwitch
	KindReturn
	KindField
	KindInvoke
	KindAlloc
	KindObject
	KindThrow
	KindMonitor
)

var kindNames = [...]string{
	KindInvalid:    "invalid",
	KindNop:        "nop",
	KindConst:      "const",
	KindLoad:       "load",
	KindStore:      "store",
	KindArrayLoad:  "array-load",
	KindArrayStore: "array-store",
	KindStack:      "stack",
	KindArith:      "arith",
	KindConvert:    "convert",
	KindCompare:    "compare",
	KindBranch:     "branch",
	KindGoto:       "goto",
	KindSubroutine: "subroutine",
	KindSwitch:     "switch",
	KindReturn:     "return",
	KindField:      "field",
	KindInvoke:     "invoke",
	KindAlloc:      "alloc",
	KindObject:     "object",
	KindThrow:      "throw",
	KindMonitor:    "monitor",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return ""
}

// Operand describes which operand fields of an instruction an opcode uses.
type Operand uint8

const (
	OperandNone Operand = iota
	OperandVar
	OperandInt
	OperandIinc
	OperandConst
	OperandJump
	OperandTableSwitch
	OperandLookupSwitch
	OperandField
	OperandMethod
	OperandInvokeDynamic
	OperandType
	OperandMultiANewArray
)

// Info contains information about an opcode.
type Info struct {
	Code    Code
	Name    string
	Kind    Kind
	Operand Operand
}

var (
	infos  [256]Info
	byName = map[string]Code{}
)

func init() {
	type opInfo struct {
		op      Code
		name    string
		kind    Kind
		operand Operand
	}
	ops := []opInfo{
		{Nop, "nop", KindNop, OperandNone},
		{AconstNull, "aconst_null", KindConst, OperandNone},
		{IconstM1, "iconst_m1", KindConst, OperandNone},
		{Iconst0, "iconst_0", KindConst, OperandNone},
		{Iconst1, "iconst_1", KindConst, OperandNone},
		{Iconst2, "iconst_2", KindConst, OperandNone},
		{Iconst3, "iconst_3", KindConst, OperandNone},
		{Iconst4, "iconst_4", KindConst, OperandNone},
		{Iconst5, "iconst_5", KindConst, OperandNone},
		{Lconst0, "lconst_0", KindConst, OperandNone},
		{Lconst1, "lconst_1", KindConst, OperandNone},
		{Fconst0, "fconst_0", KindConst, OperandNone},
		{Fconst1, "fconst_1", KindConst, OperandNone},
		{Fconst2, "fconst_2", KindConst, OperandNone},
		{Dconst0, "dconst_0", KindConst, OperandNone},
		{Dconst1, "dconst_1", KindConst, OperandNone},
		{Bipush, "bipush", KindConst, OperandInt},
		{Sipush, "sipush", KindConst, OperandInt},
		{Ldc, "ldc", KindConst, OperandConst},
		{Iload, "iload", KindLoad, OperandVar},
		{Lload, "lload", KindLoad, OperandVar},
		{Fload, "fload", KindLoad, OperandVar},
		{Dload, "dload", KindLoad, OperandVar},
		{Aload, "aload", KindLoad, OperandVar},
		{Iaload, "iaload", KindArrayLoad, OperandNone},
		{Laload, "laload", KindArrayLoad, OperandNone},
		{Faload, "faload", KindArrayLoad, OperandNone},
		{Daload, "daload", KindArrayLoad, OperandNone},
		{Aaload, "aaload", KindArrayLoad, OperandNone},
		{Baload, "baload", KindArrayLoad, OperandNone},
		{Caload, "caload", KindArrayLoad, OperandNone},
		{Saload, "saload", KindArrayLoad, OperandNone},
		{Istore, "istore", KindStore, OperandVar},
		{Lstore, "lstore", KindStore, OperandVar},
		{Fstore, "fstore", KindStore, OperandVar},
		{Dstore, "dstore", KindStore, OperandVar},
		{Astore, "astore", KindStore, OperandVar},
		{Iastore, "iastore", KindArrayStore, OperandNone},
		{Lastore, "lastore", KindArrayStore, OperandNone},
		{Fastore, "fastore", KindArrayStore, OperandNone},
		{Dastore, "dastore", KindArrayStore, OperandNone},
		{Aastore, "aastore", KindArrayStore, OperandNone},
		{Bastore, "bastore", KindArrayStore, OperandNone},
		{Castore, "castore", KindArrayStore, OperandNone},
		{Sastore, "sastore", KindArrayStore, OperandNone},
		{Pop, "pop", KindStack, OperandNone},
		{Pop2, "pop2", KindStack, OperandNone},
		{Dup, "dup", KindStack, OperandNone},
		{DupX1, "dup_x1", KindStack, OperandNone},
		{DupX2, "dup_x2", KindStack, OperandNone},
		{Dup2, "dup2", KindStack, OperandNone},
		{Dup2X1, "dup2_x1", KindStack, OperandNone},
		{Dup2X2, "dup2_x2", KindStack, OperandNone},
		{Swap, "swap", KindStack, OperandNone},
		{Iadd, "iadd", KindArith, OperandNone},
		{Ladd, "ladd", KindArith, OperandNone},
		{Fadd, "fadd", KindArith, OperandNone},
		{Dadd, "dadd", KindArith, OperandNone},
		{Isub, "isub", KindArith, OperandNone},
		{Lsub, "lsub", KindArith, OperandNone},
		{Fsub, "fsub", KindArith, OperandNone},
		{Dsub, "dsub", KindArith, OperandNone},
		{Imul, "imul", KindArith, OperandNone},
		{Lmul, "lmul", KindArith, OperandNone},
		{Fmul, "fmul", KindArith, OperandNone},
		{Dmul, "dmul", KindArith, OperandNone},
		{Idiv, "idiv", KindArith, OperandNone},
		{Ldiv, "ldiv", KindArith, OperandNone},
		{Fdiv, "fdiv", KindArith, OperandNone},
		{Ddiv, "ddiv", KindArith, OperandNone},
		{Irem, "irem", KindArith, OperandNone},
		{Lrem, "lrem", KindArith, OperandNone},
		{Frem, "frem", KindArith, OperandNone},
		{Drem, "drem", KindArith, OperandNone},
		{Ineg, "ineg", KindArith, OperandNone},
		{Lneg, "lneg", KindArith, OperandNone},
		{Fneg, "fneg", KindArith, OperandNone},
		{Dneg, "dneg", KindArith, OperandNone},
		{Ishl, "ishl", KindArith, OperandNone},
		{Lshl, "lshl", KindArith, OperandNone},
		{Ishr, "ishr", KindArith, OperandNone},
		{Lshr, "lshr", KindArith, OperandNone},
		{Iushr, "iushr", KindArith, OperandNone},
		{Lushr, "lushr", KindArith, OperandNone},
		{Iand, "iand", KindArith, OperandNone},
		{Land, "land", KindArith, OperandNone},
		{Ior, "ior", KindArith, OperandNone},
		{Lor, "lor", KindArith, OperandNone},
		{Ixor, "ixor", KindArith, OperandNone},
		{Lxor, "lxor", KindArith, OperandNone},
		{Iinc, "iinc", KindArith, OperandIinc},
		{I2l, "i2l", KindConvert, OperandNone},
		{I2f, "i2f", KindConvert, OperandNone},
		{I2d, "i2d", KindConvert, OperandNone},
		{L2i, "l2i", KindConvert, OperandNone},
		{L2f, "l2f", KindConvert, OperandNone},
		{L2d, "l2d", KindConvert, OperandNone},
		{F2i, "f2i", KindConvert, OperandNone},
		{F2l, "f2l", KindConvert, OperandNone},
		{F2d, "f2d", KindConvert, OperandNone},
		{D2i, "d2i", KindConvert, OperandNone},
		{D2l, "d2l", KindConvert, OperandNone},
		{D2f, "d2f", KindConvert, OperandNone},
		{I2b, "i2b", KindConvert, OperandNone},
		{I2c, "i2c", KindConvert, OperandNone},
		{I2s, "i2s", KindConvert, OperandNone},
		{Lcmp, "lcmp", KindCompare, OperandNone},
		{Fcmpl, "fcmpl", KindCompare, OperandNone},
		{Fcmpg, "fcmpg", KindCompare, OperandNone},
		{Dcmpl, "dcmpl", KindCompare, OperandNone},
		{Dcmpg, "dcmpg", KindCompare, OperandNone},
		{Ifeq, "ifeq", KindBranch, OperandJump},
		{Ifne, "ifne", KindBranch, OperandJump},
		{Iflt, "iflt", KindBranch, OperandJump},
		{Ifge, "ifge", KindBranch, OperandJump},
		{Ifgt, "ifgt", KindBranch, OperandJump},
		{Ifle, "ifle", KindBranch, OperandJump},
		{IfIcmpeq, "if_icmpeq", KindBranch, OperandJump},
		{IfIcmpne, "if_icmpne", KindBranch, OperandJump},
		{IfIcmplt, "if_icmplt", KindBranch, OperandJump},
		{IfIcmpge, "if_icmpge", KindBranch, OperandJump},
		{IfIcmpgt, "if_icmpgt", KindBranch, OperandJump},
		{IfIcmple, "if_icmple", KindBranch, OperandJump},
		{IfAcmpeq, "if_acmpeq", KindBranch, OperandJump},
		{IfAcmpne, "if_acmpne", KindBranch, OperandJump},
		{Goto, "goto", KindGoto, OperandJump},
		{Jsr, "jsr", KindSubroutine, OperandJump},
		{Ret, "ret", KindSubroutine, OperandVar},
		{Tableswitch, "tableswitch", KindSwitch, OperandTableSwitch},
		{Lookupswitch, "lookupswitch", KindSwitch, OperandLookupSwitch},
		{Ireturn, "ireturn", KindReturn, OperandNone},
		{Lreturn, "lreturn", KindReturn, OperandNone},
		{Freturn, "freturn", KindReturn, OperandNone},
		{Dreturn, "dreturn", KindReturn, OperandNone},
		{Areturn, "areturn", KindReturn, OperandNone},
		{Return, "return", KindReturn, OperandNone},
		{Getstatic, "getstatic", KindField, OperandField},
		{Putstatic, "putstatic", KindField, OperandField},
		{Getfield, "getfield", KindField, OperandField},
		{Putfield, "putfield", KindField, OperandField},
		{Invokevirtual, "invokevirtual", KindInvoke, OperandMethod},
		{Invokespecial, "invokespecial", KindInvoke, OperandMethod},
		{Invokestatic, "invokestatic", KindInvoke, OperandMethod},
		{Invokeinterface, "invokeinterface", KindInvoke, OperandMethod},
		{Invokedynamic, "invokedynamic", KindInvoke, OperandInvokeDynamic},
		{New, "new", KindAlloc, OperandType},
		{Newarray, "newarray", KindAlloc, OperandInt},
		{Anewarray, "anewarray", KindAlloc, OperandType},
		{Arraylength, "arraylength", KindObject, OperandNone},
		{Athrow, "athrow", KindThrow, OperandNone},
		{Checkcast, "checkcast", KindObject, OperandType},
		{Instanceof, "instanceof", KindObject, OperandType},
		{Monitorenter, "monitorenter", KindMonitor, OperandNone},
		{Monitorexit, "monitorexit", KindMonitor, OperandNone},
		{Multianewarray, "multianewarray", KindAlloc, OperandMultiANewArray},
		{Ifnull, "ifnull", KindBranch, OperandJump},
		{Ifnonnull, "ifnonnull", KindBranch, OperandJump},
	}
	for _, o := range ops {
		infos[o.op] = Info{
			Code:    o.op,
			Name:    o.name,
			Kind:    o.kind,
			Operand: o.operand,
		}
		byName[o.name] = o.op
	}
}

// GetInfo returns information about the given opcode. Undefined opcodes
// report KindInvalid and an empty name.
func GetInfo(op Code) Info {
	return infos[op]
}

// Lookup returns the opcode with the given lower-case mnemonic.
func Lookup(name string) (Code, bool) {
	c, ok := byName[name]
	return c, ok
}

// Valid reports whether the opcode is part of the instruction set.
func (c Code) Valid() bool {
	return infos[c].Kind != KindInvalid
}

// String returns the opcode mnemonic.
func (c Code) String() string {
	if name := infos[c].Name; name != "" {
		return name
	}
	return "<invalid>"
}

// Terminates reports whether control never falls through to the next
// instruction after c. Jsr does fall through: the instruction after it is
// where the matching ret resumes.
func (c Code) Terminates() bool {
	switch c {
	case Goto, Ret, Tableswitch, Lookupswitch, Athrow,
		Ireturn, Lreturn, Freturn, Dreturn, Areturn, Return:
		return true
	}
	return false
}

// IsWide reports whether a load or store opcode moves a two-slot value.
func (c Code) IsWide() bool {
	switch c {
	case Lload, Dload, Lstore, Dstore:
		return true
	}
	return false
}

// Names returns every mnemonic in opcode order.
func Names() []string {
	var names []string
	for _, info := range infos {
		if info.Kind != KindInvalid {
			names = append(names, info.Name)
		}
	}
	return names
}
