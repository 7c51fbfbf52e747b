package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToSSAIsIdempotent(t *testing.T) {
	f := NewFunction("f")
	_, l, r, m := buildDiamond(f)
	x := f.CreateVariable("x", S32)
	l.instructions = nil // drop the jumps so x's assignments can precede them
	r.instructions = nil
	l.AppendUnary(x, OpMov, ConstOperand(IntConst(S32, 1)))
	l.AppendJump(m)
	r.AppendUnary(x, OpMov, ConstOperand(IntConst(S32, 2)))
	r.AppendJump(m)
	ret := VarOperand(x)
	m.AppendReturn(&ret)

	ToSSA(f)
	require.True(t, f.IsSSA())
	before := Print(f)

	ToSSA(f) // no-op: SSA flag already set
	after := Print(f)

	assert.Equal(t, before, after)
}

func TestToSSAInsertsPhiAtJoinWhenRead(t *testing.T) {
	// diamond where x is assigned in both l and r and read
	// in m. After ToSSA, m begins with a phi whose entries trace back to
	// the renamed definitions in l and r.
	f := NewFunction("f")
	_, l, r, m := buildDiamond(f)
	x := f.CreateVariable("x", S32)
	l.instructions = nil // drop the jumps so x's assignments can precede them
	r.instructions = nil
	l.AppendUnary(x, OpMov, ConstOperand(IntConst(S32, 1)))
	l.AppendJump(m)
	r.AppendUnary(x, OpMov, ConstOperand(IntConst(S32, 2)))
	r.AppendJump(m)
	ret := VarOperand(x)
	m.AppendReturn(&ret)

	ToSSA(f)

	insns := m.Instructions()
	require.NotEmpty(t, insns)
	phi, ok := insns[0].(*PhiInstr)
	require.True(t, ok, "m must begin with a phi for x's two incoming definitions")
	assert.Len(t, phi.Entries, 2)

	for _, e := range phi.Entries {
		assert.True(t, e.Value.IsVar(), "phi entries must reference the renamed per-branch definitions, not the original x")
	}

	retInst, ok := m.Terminator().(*ReturnInstr)
	require.True(t, ok)
	assert.True(t, retInst.Value.IsVar())
	assert.Same(t, phi.dest, retInst.Value.Var, "the return must read the phi's fresh destination")
}

func TestToSSAPrunesUnreadPhis(t *testing.T) {
	// x assigned in both l and r but read only within l's
	// own subtree, never in m. No phi should appear at m.
	f := NewFunction("f")
	entry, l, r, m := buildDiamond(f)
	x := f.CreateVariable("x", S32)
	y := f.CreateVariable("y", S32)
	l.instructions = nil // rebuild l to both assign and read x before its jump
	l.AppendUnary(x, OpMov, ConstOperand(IntConst(S32, 1)))
	l.AppendUnary(y, OpMov, VarOperand(x))
	l.AppendJump(m)
	r.instructions = nil // likewise for r, which only assigns x
	r.AppendUnary(x, OpMov, ConstOperand(IntConst(S32, 2)))
	r.AppendJump(m)
	// m does not read x at all.
	m.AppendReturn(nil)
	_ = entry

	ToSSA(f)

	for _, inst := range m.Instructions() {
		_, isPhi := inst.(*PhiInstr)
		assert.False(t, isPhi, "no phi should be inserted at m: x is assigned on both incoming paths but never read at or past m")
	}
}

func TestToSSAEnforcesSingleAssignmentAfterConversion(t *testing.T) {
	f := NewFunction("f")
	b := f.CreateBlock("entry")
	x := f.CreateVariable("x", S32)
	b.AppendUnary(x, OpMov, ConstOperand(IntConst(S32, 1)))
	val := VarOperand(x)
	b.AppendReturn(&val)

	ToSSA(f)
	assert.True(t, f.IsSSA())

	fresh := f.Variables()[len(f.Variables())-1]
	// a block without a terminator, so the only violation is the second
	// assignment to fresh.
	b2 := f.CreateBlock("b2")
	assert.Panics(t, func() {
		b2.AppendUndefined(fresh)
	})
}

func TestToSSAParametersAreExemptFromSingleAssignmentBound(t *testing.T) {
	f := NewFunction("f")
	b := f.CreateBlock("entry")
	p := f.CreateParam("p", S32)
	val := VarOperand(p)
	b.AppendReturn(&val)

	assert.NotPanics(t, func() {
		ToSSA(f)
		extra := f.CreateBlock("extra")
		extra.AppendUndefined(p)
		extra.AppendUndefined(p)
	})
}
