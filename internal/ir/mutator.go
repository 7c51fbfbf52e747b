package ir

// This file is the mutator API: the only sanctioned way to add, replace,
// or delete instructions, variables, and blocks. Every entry point
// maintains the bidirectional use/def and predecessor/successor indexes.
// Inside the package, the SSA builder (ssa.go) also rewrites use/def
// entries, and flow recalculation (flow.go) and block merging
// (optimize.go) rewrite predecessor/successor sets directly.

func checkNotTerminated(b *CodeBlock) {
	if b.Terminator() != nil {
		bug(BugTerminatorAlreadyPresent, "block %q already has a terminator", b.name)
	}
}

func checkSameFunction(f *Function, op Operand) {
	if op.IsVar() && op.Var.function != f {
		bug(BugForeignVariable, "operand variable %%%s belongs to a different function", op.Var.Name())
	}
}

// registerOperandUse adds i to the use-set of op's variable, if any.
func registerOperandUse(op Operand, i Instruction) {
	if op.IsVar() {
		op.Var.addUse(i)
	}
}

// registerDef attaches i as dest's defining instruction, enforcing the SSA
// single-assignment bound.
func registerDef(dest *Variable, i Instruction) {
	if dest == nil {
		return
	}
	if dest.function.ssa && !dest.isParam && len(dest.defs) >= 1 {
		bug(BugSecondSSAAssignment, "variable %%%s assigned more than once in SSA function %q", dest.name, dest.function.name)
	}
	dest.addDef(i)
}

// ---- Expression appends -------------------------------------------------

// AppendCombinator appends a φ-node at the head of b, one entry per
// predecessor supplied in entries; the entries must exactly match b's
// current predecessor set.
func (b *CodeBlock) AppendCombinator(dest *Variable, entries []PhiEntry) *PhiInstr {
	defer b.function.lock()()
	return appendCombinatorLocked(b, dest, entries)
}

// Unlike the tail appends, a combinator goes at the head of the block, so a
// terminator being present already is not a conflict -- SSA conversion
// inserts phis into blocks that are long since complete.
func appendCombinatorLocked(b *CodeBlock, dest *Variable, entries []PhiEntry) *PhiInstr {
	f := b.function

	if len(entries) != len(b.pred) {
		bug(BugPhiArity, "phi for %%%s supplies %d entries but block %q has %d predecessors",
			dest.name, len(entries), b.name, len(b.pred))
	}
	for _, e := range entries {
		if !containsBlock(b.pred, e.Pred) {
			bug(BugPhiArity, "phi for %%%s has an entry from %q which is not a predecessor of %q",
				dest.name, e.Pred.name, b.name)
		}
		checkSameFunction(f, e.Value)
		if e.Value.Type() != dest.ptype {
			bug(BugTypeMismatch, "phi operand type %s does not match destination type %s", e.Value.Type(), dest.ptype)
		}
	}

	inst := &PhiInstr{block: b, dest: dest, Entries: append([]PhiEntry(nil), entries...)}
	b.instructions = append([]Instruction{inst}, b.instructions...)
	for _, e := range entries {
		registerOperandUse(e.Value, inst)
	}
	registerDef(dest, inst)
	return inst
}

// AppendUnary appends a unary expression to the tail of b.
func (b *CodeBlock) AppendUnary(dest *Variable, op UnaryOp, src Operand) *UnaryInstr {
	defer b.function.lock()()
	return appendUnaryLocked(b, dest, op, src)
}

func appendUnaryLocked(b *CodeBlock, dest *Variable, op UnaryOp, src Operand) *UnaryInstr {
	f := b.function
	checkNotTerminated(b)
	checkSameFunction(f, src)

	switch op {
	case OpMov:
		// implicit cast: any source/destination type pair is legal.
	case OpSeqz, OpSnez:
		if dest.ptype != BOOL {
			bug(BugTypeMismatch, "%s destination must be BOOL, got %s", op, dest.ptype)
		}
	default: // NEG, BNEG, LNOT
		if src.Type() != dest.ptype {
			bug(BugTypeMismatch, "%s operand type %s does not match destination type %s", op, src.Type(), dest.ptype)
		}
	}

	inst := &UnaryInstr{block: b, dest: dest, Op: op, Src: src}
	b.instructions = append(b.instructions, inst)
	registerOperandUse(src, inst)
	registerDef(dest, inst)
	return inst
}

// AppendBinary appends a binary expression to the tail of b.
func (b *CodeBlock) AppendBinary(dest *Variable, op BinaryOp, lhs, rhs Operand) *BinaryInstr {
	defer b.function.lock()()
	return appendBinaryLocked(b, dest, op, lhs, rhs)
}

func appendBinaryLocked(b *CodeBlock, dest *Variable, op BinaryOp, lhs, rhs Operand) *BinaryInstr {
	f := b.function
	checkNotTerminated(b)
	checkSameFunction(f, lhs)
	checkSameFunction(f, rhs)

	if lhs.Type() != rhs.Type() {
		bug(BugTypeMismatch, "%s operand types differ: %s vs %s", op, lhs.Type(), rhs.Type())
	}
	if op.isLogical() {
		if dest.ptype != BOOL || lhs.Type() != BOOL {
			bug(BugTypeMismatch, "%s is defined only on BOOL", op)
		}
	} else if !op.isComparison() {
		if lhs.Type() != dest.ptype {
			bug(BugTypeMismatch, "%s operand type %s does not match destination type %s", op, lhs.Type(), dest.ptype)
		}
	}

	inst := &BinaryInstr{block: b, dest: dest, Op: op, Lhs: lhs, Rhs: rhs}
	b.instructions = append(b.instructions, inst)
	registerOperandUse(lhs, inst)
	registerOperandUse(rhs, inst)
	registerDef(dest, inst)
	return inst
}

// AppendUndefined marks dest as having an unspecified value.
func (b *CodeBlock) AppendUndefined(dest *Variable) *UndefInstr {
	defer b.function.lock()()
	return appendUndefinedLocked(b, dest)
}

func appendUndefinedLocked(b *CodeBlock, dest *Variable) *UndefInstr {
	checkNotTerminated(b)

	inst := &UndefInstr{block: b, dest: dest}
	b.instructions = append(b.instructions, inst)
	registerDef(dest, inst)
	return inst
}

// ---- Flow appends --------------------------------------------------------

// AppendJump appends an unconditional jump terminator and updates the
// mutual predecessor/successor edge between b and target.
func (b *CodeBlock) AppendJump(target *CodeBlock) *JumpInstr {
	defer b.function.lock()()
	return appendJumpLocked(b, target)
}

func appendJumpLocked(b *CodeBlock, target *CodeBlock) *JumpInstr {
	checkNotTerminated(b)

	inst := &JumpInstr{block: b, Target: target}
	b.instructions = append(b.instructions, inst)
	b.addSucc(target)
	target.addPred(b)
	return inst
}

// AppendBranch appends a conditional branch terminator. The true edge goes
// to target; the false edge is the implicit fallthrough to the next block
// in textual order. The fallthrough edge is wired here if the next block
// already exists, and again by RecalcFlow once the full block list is in
// place.
func (b *CodeBlock) AppendBranch(cond Operand, target *CodeBlock) *BranchInstr {
	defer b.function.lock()()
	return appendBranchLocked(b, cond, target)
}

func appendBranchLocked(b *CodeBlock, cond Operand, target *CodeBlock) *BranchInstr {
	f := b.function
	checkNotTerminated(b)
	checkSameFunction(f, cond)
	if cond.Type() != BOOL {
		bug(BugTypeMismatch, "branch condition must be BOOL, got %s", cond.Type())
	}

	inst := &BranchInstr{block: b, Cond: cond, Target: target}
	b.instructions = append(b.instructions, inst)
	registerOperandUse(cond, inst)
	b.addSucc(target)
	target.addPred(b)
	if ft := f.fallthroughTarget(b); ft != nil {
		b.addSucc(ft)
		ft.addPred(b)
	}
	return inst
}

// AppendCallDirect appends a direct call by symbolic label.
func (b *CodeBlock) AppendCallDirect(label string, args []Operand) *CallDirectInstr {
	defer b.function.lock()()
	return appendCallDirectLocked(b, label, args)
}

func appendCallDirectLocked(b *CodeBlock, label string, args []Operand) *CallDirectInstr {
	f := b.function
	checkNotTerminated(b)
	for _, a := range args {
		checkSameFunction(f, a)
	}

	inst := &CallDirectInstr{block: b, Label: label, Args: append([]Operand(nil), args...)}
	b.instructions = append(b.instructions, inst)
	for _, a := range inst.Args {
		registerOperandUse(a, inst)
	}
	return inst
}

// AppendCallPtr appends an indirect call through a variable-held address.
func (b *CodeBlock) AppendCallPtr(addr *Variable, args []Operand) *CallPtrInstr {
	defer b.function.lock()()
	return appendCallPtrLocked(b, addr, args)
}

func appendCallPtrLocked(b *CodeBlock, addr *Variable, args []Operand) *CallPtrInstr {
	f := b.function
	checkNotTerminated(b)
	if addr.function != f {
		bug(BugForeignVariable, "call_ptr address %%%s belongs to a different function", addr.name)
	}
	for _, a := range args {
		checkSameFunction(f, a)
	}

	inst := &CallPtrInstr{block: b, Addr: addr, Args: append([]Operand(nil), args...)}
	b.instructions = append(b.instructions, inst)
	addr.addUse(inst)
	for _, a := range inst.Args {
		registerOperandUse(a, inst)
	}
	return inst
}

// AppendReturn appends a return terminator, optionally carrying one operand.
func (b *CodeBlock) AppendReturn(val *Operand) *ReturnInstr {
	defer b.function.lock()()
	return appendReturnLocked(b, val)
}

func appendReturnLocked(b *CodeBlock, val *Operand) *ReturnInstr {
	f := b.function
	checkNotTerminated(b)
	if val != nil {
		checkSameFunction(f, *val)
	}

	var stored *Operand
	if val != nil {
		v := *val
		stored = &v
	}
	inst := &ReturnInstr{block: b, Value: stored}
	b.instructions = append(b.instructions, inst)
	if stored != nil {
		registerOperandUse(*stored, inst)
	}
	return inst
}

// ---- Graph-editing primitives --------------------------------------------

// DeleteInstruction removes i from its block's instruction list, from the
// use-sets of every operand variable it references, and -- if i is an
// expression -- from the def-list of its destination. It does not cascade
// to predecessor/successor sets; callers
// that delete flow instructions directly are expected to call RecalcFlow
// afterward (this is what the optimiser's dead_code pass does).
func (f *Function) DeleteInstruction(i Instruction) {
	defer f.lock()()
	f.deleteInstructionLocked(i)
}

func (f *Function) deleteInstructionLocked(i Instruction) {
	b := i.Block()
	if b == nil || b.function != f {
		bug(BugNotOwned, "instruction does not belong to this function")
	}
	removed := false
	for idx, x := range b.instructions {
		if x == i {
			b.instructions = append(b.instructions[:idx], b.instructions[idx+1:]...)
			removed = true
			break
		}
	}
	if !removed {
		return
	}
	for _, slot := range i.operandSlots() {
		if slot.IsVar() {
			slot.Var.removeUse(i)
		}
	}
	if cp, ok := i.(*CallPtrInstr); ok {
		cp.Addr.removeUse(i)
	}
	if dest := i.Dest(); dest != nil {
		dest.removeDef(i)
	}
}

// ReplaceVariable substitutes operand for v in every operand slot of every
// current use of v, then updates use-sets accordingly. Aborts fatally if
// operand itself refers to v -- that guard is load-bearing for termination
// of callers like the φ-collapse in DeleteBlock.
func (f *Function) ReplaceVariable(v *Variable, operand Operand) {
	defer f.lock()()
	f.replaceVariableLocked(v, operand)
}

func (f *Function) replaceVariableLocked(v *Variable, operand Operand) {
	if operand.refersTo(v) {
		bug(BugSelfReplace, "variable_replace(%%%s, ...) would replace %%%s with itself", v.name, v.name)
	}
	uses := v.Uses()
	for _, i := range uses {
		touched := false
		for _, slot := range i.operandSlots() {
			if slot.refersTo(v) {
				*slot = operand
				touched = true
			}
		}
		if cp, ok := i.(*CallPtrInstr); ok && cp.Addr == v {
			if !operand.IsVar() {
				bug(BugTypeMismatch, "call_ptr address %%%s cannot be replaced with a constant", v.name)
			}
			cp.Addr = operand.Var
			touched = true
			operand.Var.addUse(i)
		}
		if touched {
			v.removeUse(i)
			if operand.IsVar() {
				operand.Var.addUse(i)
			}
		}
	}
}

// DeleteVariable deletes every instruction in v's union of use-set and
// def-list, then removes v from its function's variable list.
func (f *Function) DeleteVariable(v *Variable) {
	defer f.lock()()
	f.deleteVariableLocked(v)
}

func (f *Function) deleteVariableLocked(v *Variable) {
	if v.function != f {
		bug(BugNotOwned, "variable %%%s does not belong to this function", v.name)
	}
	seen := make(map[Instruction]struct{})
	var toDelete []Instruction
	for _, i := range v.Uses() {
		if _, ok := seen[i]; !ok {
			seen[i] = struct{}{}
			toDelete = append(toDelete, i)
		}
	}
	for _, i := range v.Defs() {
		if _, ok := seen[i]; !ok {
			seen[i] = struct{}{}
			toDelete = append(toDelete, i)
		}
	}
	for _, i := range toDelete {
		f.deleteInstructionLocked(i)
	}
	f.removeVariableFromList(v)
}

// DeleteBlock deletes b's own instructions, deletes predecessor
// terminators that targeted b, rewrites successor φ-nodes to drop the edge
// from b (collapsing any φ left with a single entry), and finally removes
// b from the function.
func (f *Function) DeleteBlock(b *CodeBlock) {
	defer f.lock()()
	f.deleteBlockLocked(b)
}

func (f *Function) deleteBlockLocked(b *CodeBlock) {
	if b.function != f {
		bug(BugNotOwned, "block %q does not belong to this function", b.name)
	}

	// Capture neighbours before any mutation; the loops below edit both
	// sets as they go.
	preds := b.Pred()
	succs := b.Succ()

	for _, i := range b.Instructions() {
		f.deleteInstructionLocked(i)
	}

	for _, p := range preds {
		if term := p.Terminator(); term != nil {
			switch t := term.(type) {
			case *JumpInstr:
				if t.Target == b {
					f.deleteInstructionLocked(t)
				}
			case *BranchInstr:
				if t.Target == b {
					f.deleteInstructionLocked(t)
				}
			}
		}
		p.removeSucc(b)
	}

	for _, s := range succs {
		f.rewritePhisForDeletedPred(s, b)
		s.removePred(b)
	}

	f.removeBlockFromList(b)
}

// rewritePhisForDeletedPred removes the entry sourced from b in every φ at
// the head of s, collapsing any φ left with exactly one entry by replacing
// its destination with the surviving operand.
func (f *Function) rewritePhisForDeletedPred(s *CodeBlock, b *CodeBlock) {
	for _, i := range s.Instructions() {
		phi, ok := i.(*PhiInstr)
		if !ok {
			break // phis are only ever at the head
		}
		idx := -1
		for ei, e := range phi.Entries {
			if e.Pred == b {
				idx = ei
				break
			}
		}
		if idx < 0 {
			continue
		}
		dropped := phi.Entries[idx].Value
		phi.Entries = append(phi.Entries[:idx], phi.Entries[idx+1:]...)
		if dropped.IsVar() {
			still := false
			for _, e := range phi.Entries {
				if e.Value.refersTo(dropped.Var) {
					still = true
					break
				}
			}
			if !still {
				dropped.Var.removeUse(phi)
			}
		}
		if len(phi.Entries) == 1 {
			f.replaceVariableLocked(phi.dest, phi.Entries[0].Value)
			f.deleteInstructionLocked(phi)
		} else if len(phi.Entries) == 0 {
			f.deleteInstructionLocked(phi)
		}
	}
}
