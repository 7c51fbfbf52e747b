package ir

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintFunctionHeaderAndDecls(t *testing.T) {
	f := NewFunction("my_fn")
	f.CreateParam("p", S32)
	b := f.CreateBlock("entry")
	x := f.CreateVariable("x", S64)
	x2 := VarOperand(f.Params()[0])
	b.AppendUnary(x, OpMov, x2)
	val := VarOperand(x)
	b.AppendReturn(&val)

	out := Print(f)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	require.GreaterOrEqual(t, len(lines), 5)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(lines[0]), "; build "))
	assert.Equal(t, "function %my_fn", strings.TrimSpace(lines[1]))
	assert.Contains(t, out, "var s64 %x")
	assert.Contains(t, out, "arg %p")
	assert.Contains(t, out, "code <entry>")
	assert.Contains(t, out, "mov %x, %p")
	assert.Contains(t, out, "return %x")
}

func TestPrintSSAFunctionCarriesSSAPrefix(t *testing.T) {
	f := NewFunction("f")
	b := f.CreateBlock("entry")
	val := VarOperand(f.CreateParam("p", S32))
	b.AppendReturn(&val)

	ToSSA(f)
	out := Print(f)

	assert.Contains(t, out, "ssa function %f")
}

func TestPrintConstantOperandsUseSectionSixGrammar(t *testing.T) {
	f := NewFunction("f")
	b := f.CreateBlock("entry")
	x := f.CreateVariable("x", S32)
	b.AppendUnary(x, OpMov, ConstOperand(IntConst(S32, 5)))
	val := VarOperand(x)
	b.AppendReturn(&val)

	out := Print(f)
	assert.Contains(t, out, "s32'0x")
}

func TestPrintBoolConstantsRenderAsWords(t *testing.T) {
	f := NewFunction("f")
	b := f.CreateBlock("entry")
	x := f.CreateVariable("x", BOOL)
	b.AppendUnary(x, OpMov, ConstOperand(BoolConst(true)))
	val := VarOperand(x)
	b.AppendReturn(&val)

	out := Print(f)
	assert.Contains(t, out, "bool'true")
}

func TestPrintFloatConstantsAppendDecimalComment(t *testing.T) {
	f := NewFunction("f")
	b := f.CreateBlock("entry")
	x := f.CreateVariable("x", F64)
	b.AppendUnary(x, OpMov, ConstOperand(Float64Const(3.5)))
	val := VarOperand(x)
	b.AppendReturn(&val)

	out := Print(f)
	assert.Contains(t, out, "f64'0x")
	assert.Contains(t, out, "/* 3.5 */")
}

func TestPrintBranchRendersTargetBlockName(t *testing.T) {
	f := NewFunction("f")
	entry := f.CreateBlock("entry")
	tgt := f.CreateBlock("tgt")
	fallthru := f.CreateBlock("fallthru")
	entry.AppendBranch(ConstOperand(BoolConst(true)), tgt)
	val := VarOperand(f.CreateParam("p", S32))
	tgt.AppendReturn(&val)
	val2 := VarOperand(f.Params()[0])
	fallthru.AppendReturn(&val2)

	out := Print(f)
	assert.Contains(t, out, "branch bool'true, <tgt>")
}

func TestPrintIsStableAcrossANoOpRecalcFlow(t *testing.T) {
	f := NewFunction("f")
	a := f.CreateBlock("a")
	b := f.CreateBlock("b")
	a.AppendJump(b)
	val := VarOperand(f.CreateParam("p", S32))
	b.AppendReturn(&val)

	before := Print(f)
	RecalcFlow(f)
	after := Print(f)

	assert.Equal(t, before, after, "serialising twice after a no-op recalc_flow must produce identical output")
}

func TestPrintCallsRenderLabelAndArgs(t *testing.T) {
	f := NewFunction("f")
	b := f.CreateBlock("entry")
	fp := f.CreateVariable("fp", S64)
	x := f.CreateVariable("x", S32)
	b.AppendUndefined(fp)
	b.AppendUndefined(x)
	b.AppendCallDirect("abort", nil)
	b.AppendCallDirect("log_value", []Operand{VarOperand(x)})
	b.AppendCallPtr(fp, []Operand{ConstOperand(IntConst(S32, 1))})
	b.AppendReturn(nil)

	out := Print(f)
	assert.Contains(t, out, "call_direct <abort>\n", "a zero-argument call renders without a trailing comma")
	assert.Contains(t, out, "call_direct <log_value>, %x")
	assert.Contains(t, out, "call_ptr %fp, s32'0x00000001")
}
