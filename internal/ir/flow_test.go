package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildDiamond builds entry -> {l, r} -> m, a branch-then-join CFG, and
// returns the blocks for convenience. entry's branch targets r on true and
// falls through to l; both l and r jump to m.
func buildDiamond(f *Function) (entry, l, r, m *CodeBlock) {
	entry = f.CreateBlock("entry")
	l = f.CreateBlock("l")
	r = f.CreateBlock("r")
	m = f.CreateBlock("m")

	cond := f.CreateParam("cond", BOOL)
	// true -> r (explicit target); false -> l (implicit fallthrough to the
	// next block in textual creation order, which is l).
	entry.AppendBranch(VarOperand(cond), r)
	l.AppendJump(m)
	r.AppendJump(m)
	return
}

func TestRecalcFlowRebuildsMutualEdges(t *testing.T) {
	f := NewFunction("f")
	_, l, r, m := buildDiamond(f)

	RecalcFlow(f)

	assert.Contains(t, m.Pred(), l)
	assert.Contains(t, m.Pred(), r)
	assert.Contains(t, l.Succ(), m)
	assert.Contains(t, r.Succ(), m)
}

func TestRecalcFlowClearsStaleEdgesFirst(t *testing.T) {
	f := NewFunction("f")
	a := f.CreateBlock("a")
	b := f.CreateBlock("b")
	c := f.CreateBlock("c")
	a.AppendJump(b)

	// Manually stale-wire a -> c, simulating an edge that's no longer
	// implied by any terminator; RecalcFlow must drop it.
	a.addSucc(c)
	c.addPred(a)

	RecalcFlow(f)

	assert.NotContains(t, a.Succ(), c)
	assert.Contains(t, a.Succ(), b)
}

func TestComputeDominanceDiamond(t *testing.T) {
	f := NewFunction("f")
	entry, l, r, m := buildDiamond(f)
	RecalcFlow(f)

	dom := ComputeDominance(f)

	idomL, ok := dom.IDom(l)
	require.True(t, ok)
	assert.Same(t, entry, idomL)

	idomR, ok := dom.IDom(r)
	require.True(t, ok)
	assert.Same(t, entry, idomR)

	idomM, ok := dom.IDom(m)
	require.True(t, ok)
	assert.Same(t, entry, idomM, "m is reached from both l and r, so its idom is their common ancestor, entry")

	_, hasEntryIdom := dom.IDom(entry)
	assert.False(t, hasEntryIdom, "entry's immediate dominator is undefined (sentinel)")

	assert.Contains(t, dom.Frontier(l), m)
	assert.Contains(t, dom.Frontier(r), m)
}

func TestComputeDominanceExcludesUnreachableBlocks(t *testing.T) {
	f := NewFunction("f")
	entry := f.CreateBlock("entry")
	val := VarOperand(f.CreateParam("x", S32))
	entry.AppendReturn(&val)
	orphan := f.CreateBlock("orphan")
	orphanVal := VarOperand(f.Params()[0])
	orphan.AppendReturn(&orphanVal)

	RecalcFlow(f)
	dom := ComputeDominance(f)

	assert.False(t, dom.Reachable(orphan))
	_, ok := dom.IDom(orphan)
	assert.False(t, ok)
	assert.Empty(t, dom.Frontier(orphan))
}

func TestComputeDominanceLinearChainHasNoFrontiers(t *testing.T) {
	f := NewFunction("f")
	a := f.CreateBlock("a")
	b := f.CreateBlock("b")
	c := f.CreateBlock("c")
	a.AppendJump(b)
	b.AppendJump(c)

	RecalcFlow(f)
	dom := ComputeDominance(f)

	idomB, _ := dom.IDom(b)
	assert.Same(t, a, idomB)
	idomC, _ := dom.IDom(c)
	assert.Same(t, b, idomC)
	assert.Empty(t, dom.Frontier(a))
	assert.Empty(t, dom.Frontier(b))
}
