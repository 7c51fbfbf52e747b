package ir

// This file is the SSA builder: per-variable φ-insertion at dominance
// frontiers (with use-pruning, so the result is minimal SSA) followed by
// dominator-tree-ordered renaming.

// ToSSA implements to_ssa(function): idempotent, a no-op if the function's
// SSA flag is already set. Otherwise it computes dominance, inserts φ-nodes
// for every pre-existing variable at the dominance frontiers of its
// assigning blocks (pruned to blocks that actually read the variable), and
// renames every definition and use into a fresh SSA variable, before
// setting the SSA flag.
func ToSSA(f *Function) {
	defer f.lock()()
	if f.ssa {
		return
	}

	recalcFlowLocked(f)
	dom := computeDominanceLocked(f)
	domChildren := buildDomTree(f, dom)

	// Parameters are already-defined at entry: their single implicit
	// definition is the initial current-definition used by renameVariable,
	// and they are walked through the same φ-insertion/renaming pass as any
	// other pre-existing variable.
	for _, v := range f.Variables() {
		blockPhi := insertPhisForVariable(f, v, dom)
		renameVariable(f, v, domChildren, blockPhi)
	}

	f.ssa = true
}

func buildDomTree(f *Function, dom *Dominance) map[*CodeBlock][]*CodeBlock {
	children := make(map[*CodeBlock][]*CodeBlock)
	for _, b := range f.blocks {
		idom, ok := dom.IDom(b)
		if !ok {
			continue
		}
		children[idom] = append(children[idom], b)
	}
	return children
}

// insertPhisForVariable places φ-nodes for a single variable at the
// iterated dominance frontier of its assigning blocks, pruned to blocks
// that can still reach a read of v. It returns, for every block that
// received a φ for v, the φ instruction itself, so renaming can find it
// without a type-keyed lookup.
func insertPhisForVariable(f *Function, v *Variable, dom *Dominance) map[*CodeBlock]*PhiInstr {
	reads := directReaders(v)
	usesV := propagateUse(f, reads)
	if !anyTrue(usesV) {
		return nil
	}

	assignBlocks := assigningBlocks(v)

	blockPhi := make(map[*CodeBlock]*PhiInstr)
	queued := make(map[*CodeBlock]bool)
	var worklist []*CodeBlock
	for b := range assignBlocks {
		for _, d := range dom.Frontier(b) {
			if !queued[d] {
				queued[d] = true
				worklist = append(worklist, d)
			}
		}
	}

	for len(worklist) > 0 {
		b := worklist[0]
		worklist = worklist[1:]
		if !usesV[b] || blockPhi[b] != nil {
			continue
		}
		phiDest := f.createVariableLocked("", v.ptype, false)
		entries := make([]PhiEntry, len(b.pred))
		zero := ConstOperand(zeroConstant(v.ptype))
		for idx, p := range b.pred {
			entries[idx] = PhiEntry{Pred: p, Value: zero}
		}
		phi := appendCombinatorLocked(b, phiDest, entries)
		blockPhi[b] = phi

		for _, d := range dom.Frontier(b) {
			if !queued[d] {
				queued[d] = true
				worklist = append(worklist, d)
			}
		}
	}
	return blockPhi
}

// directReaders returns the set of blocks containing an instruction that
// reads v in some operand position.
func directReaders(v *Variable) map[*CodeBlock]bool {
	out := make(map[*CodeBlock]bool)
	for i := range v.uses {
		out[i.Block()] = true
	}
	return out
}

// propagateUse computes, for every block, whether v is read in that block
// or in any block reachable from it over the CFG, via fixed-point
// propagation over successor edges so that loops are handled correctly.
func propagateUse(f *Function, direct map[*CodeBlock]bool) map[*CodeBlock]bool {
	usesV := make(map[*CodeBlock]bool, len(f.blocks))
	for _, b := range f.blocks {
		usesV[b] = direct[b]
	}
	for changed := true; changed; {
		changed = false
		for _, b := range f.blocks {
			if usesV[b] {
				continue
			}
			for _, s := range b.succ {
				if usesV[s] {
					usesV[b] = true
					changed = true
					break
				}
			}
		}
	}
	return usesV
}

func anyTrue(m map[*CodeBlock]bool) bool {
	for _, v := range m {
		if v {
			return true
		}
	}
	return false
}

func assigningBlocks(v *Variable) map[*CodeBlock]bool {
	out := make(map[*CodeBlock]bool)
	for _, i := range v.defs {
		out[i.Block()] = true
	}
	return out
}

// zeroConstant returns the zero value of t, used as the placeholder operand
// for a φ-entry before renaming fills in the real reaching definition.
func zeroConstant(t PrimitiveType) Constant {
	switch t {
	case BOOL:
		return BoolConst(false)
	case F32:
		return Float32Const(0)
	case F64:
		return Float64Const(0)
	default:
		return IntConst(t, 0)
	}
}

// renameVariable is the renaming half of SSA conversion for a single
// pre-existing variable:
// a dominator-tree DFS that rewrites every operand referencing v to the
// current reaching definition, swings every assignment to v onto a fresh
// variable, and patches the entry for this block in every CFG successor's
// φ for v.
func renameVariable(f *Function, v *Variable, domChildren map[*CodeBlock][]*CodeBlock, blockPhi map[*CodeBlock]*PhiInstr) {
	if f.entry == nil {
		return
	}
	renameBlock(f, f.entry, v, v, domChildren, blockPhi)
}

func renameBlock(f *Function, b *CodeBlock, v *Variable, curDef *Variable, domChildren map[*CodeBlock][]*CodeBlock, blockPhi map[*CodeBlock]*PhiInstr) {
	cur := curDef
	if phi, ok := blockPhi[b]; ok {
		// The φ for v at the head of b is itself v's reaching definition
		// from this point on; its entries are filled in by predecessors,
		// not rewritten here.
		cur = phi.dest
	}

	for _, inst := range b.Instructions() {
		if p, ok := inst.(*PhiInstr); ok && p == blockPhi[b] {
			continue
		}
		touched := false
		for _, slot := range inst.operandSlots() {
			if slot.refersTo(v) {
				*slot = VarOperand(cur)
				touched = true
			}
		}
		if cp, ok := inst.(*CallPtrInstr); ok && cp.Addr == v {
			cp.Addr = cur
			touched = true
		}
		if touched {
			v.removeUse(inst)
			cur.addUse(inst)
		}

		if inst.Dest() == v {
			fresh := f.createVariableLocked("", v.ptype, false)
			switch t := inst.(type) {
			case *UnaryInstr:
				t.dest = fresh
			case *BinaryInstr:
				t.dest = fresh
			case *UndefInstr:
				t.dest = fresh
			case *PhiInstr:
				t.dest = fresh
			}
			v.removeDef(inst)
			fresh.addDef(inst)
			cur = fresh
		}
	}

	for _, s := range b.succ {
		if phi, ok := blockPhi[s]; ok {
			for idx := range phi.Entries {
				if phi.Entries[idx].Pred == b {
					old := phi.Entries[idx].Value
					if old.IsVar() {
						old.Var.removeUse(phi)
					}
					phi.Entries[idx].Value = VarOperand(cur)
					cur.addUse(phi)
				}
			}
		}
	}

	for _, child := range domChildren[b] {
		renameBlock(f, child, v, cur, domChildren, blockPhi)
	}
}
