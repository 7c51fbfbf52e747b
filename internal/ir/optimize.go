package ir

import (
	"math"
	"math/big"
)

// This file is the optimiser: a fixed-point pipeline of four passes run in
// the fixed order unused_vars -> const_prop -> dead_code -> branches.

// PipelineConfig toggles individual passes. The four passes' relative
// order is fixed: this is an ordered sequence with independently
// toggleable members, not an arbitrary list of pass objects.
type PipelineConfig struct {
	UnusedVars bool
	ConstProp  bool
	DeadCode   bool
	Branches   bool
}

// DefaultPipeline enables every pass.
func DefaultPipeline() PipelineConfig {
	return PipelineConfig{UnusedVars: true, ConstProp: true, DeadCode: true, Branches: true}
}

// PassOption mutates a PipelineConfig; used by Optimize's variadic form.
type PassOption func(*PipelineConfig)

func WithUnusedVars(enabled bool) PassOption { return func(c *PipelineConfig) { c.UnusedVars = enabled } }
func WithConstProp(enabled bool) PassOption  { return func(c *PipelineConfig) { c.ConstProp = enabled } }
func WithDeadCode(enabled bool) PassOption   { return func(c *PipelineConfig) { c.DeadCode = enabled } }
func WithBranches(enabled bool) PassOption   { return func(c *PipelineConfig) { c.Branches = enabled } }

// Optimize runs unused_vars -> const_prop -> dead_code -> branches to
// fixed point, and reports whether any pass changed the program.
func Optimize(f *Function, opts ...PassOption) bool {
	defer f.lock()()
	cfg := DefaultPipeline()
	for _, o := range opts {
		o(&cfg)
	}
	return optimizeLocked(f, cfg)
}

func optimizeLocked(f *Function, cfg PipelineConfig) bool {
	changed := false
	for {
		round := false
		if cfg.UnusedVars && unusedVarsPass(f) {
			round = true
		}
		if cfg.ConstProp && constPropPass(f) {
			round = true
		}
		if cfg.DeadCode && deadCodePass(f) {
			round = true
		}
		if cfg.Branches && branchesPass(f) {
			round = true
		}
		if !round {
			break
		}
		changed = true
	}
	return changed
}

// unusedVarsPass deletes every non-parameter variable with an empty
// use-set, to an inner fixed point (deleting one variable's defining
// expression can empty out another variable's use-set in turn).
func unusedVarsPass(f *Function) bool {
	changed := false
	for {
		progressed := false
		for _, v := range f.Variables() {
			if v.IsParam() || v.UseCount() > 0 {
				continue
			}
			f.deleteVariableLocked(v)
			progressed = true
		}
		if !progressed {
			break
		}
		changed = true
	}
	return changed
}

// constPropPass folds every single-assignment variable whose defining
// expression has become all-constant, substitutes the folded value at
// every use site, and deletes the now-unreferenced variable. Inner fixed
// point, since folding one variable can make its consumer's expression
// all-constant in turn.
func constPropPass(f *Function) bool {
	changed := false
	for {
		progressed := false
		for _, v := range f.Variables() {
			if v.IsParam() {
				continue
			}
			defs := v.Defs()
			if len(defs) != 1 {
				continue
			}
			result, ok := foldDef(v, defs[0])
			if !ok {
				continue
			}
			if usedAsCallAddr(v) {
				// a call_ptr address slot can only hold a variable, so the
				// folded constant has nowhere to go.
				continue
			}
			f.replaceVariableLocked(v, ConstOperand(result))
			f.deleteVariableLocked(v)
			progressed = true
		}
		if !progressed {
			break
		}
		changed = true
	}
	return changed
}

func usedAsCallAddr(v *Variable) bool {
	for i := range v.uses {
		if cp, ok := i.(*CallPtrInstr); ok && cp.Addr == v {
			return true
		}
	}
	return false
}

func foldDef(v *Variable, inst Instruction) (Constant, bool) {
	switch t := inst.(type) {
	case *UnaryInstr:
		if t.Src.IsConst() {
			return evalUnary(t.Op, t.Src.Const, v.ptype), true
		}
	case *BinaryInstr:
		if t.Lhs.IsConst() && t.Rhs.IsConst() {
			return evalBinary(t.Op, t.Lhs.Const, t.Rhs.Const, v.ptype), true
		}
	}
	return Constant{}, false
}

// deadCodePass: constant branch conditions are simplified to an explicit
// unconditional jump (so a folded branch never leaves its block
// terminator-less with dangling flow edges), then every block unreached
// from entry is deleted, to an inner fixed point.
func deadCodePass(f *Function) bool {
	changed := false
	for {
		round := false
		for _, b := range f.Blocks() {
			br, ok := b.Terminator().(*BranchInstr)
			if !ok || !br.Cond.IsConst() {
				continue
			}
			var jumpTo *CodeBlock
			if br.Cond.Const.Bool() {
				jumpTo = br.Target
			} else {
				jumpTo = f.fallthroughTarget(b)
			}
			f.deleteInstructionLocked(br)
			if jumpTo != nil {
				appendJumpLocked(b, jumpTo)
			}
			round = true
		}
		recalcFlowLocked(f)

		reachable := dfsReachable(f)
		for _, b := range f.Blocks() {
			if !reachable[b] {
				f.deleteBlockLocked(b)
				round = true
			}
		}
		recalcFlowLocked(f)

		if !round {
			break
		}
		changed = true
	}
	return changed
}

func dfsReachable(f *Function) map[*CodeBlock]bool {
	seen := make(map[*CodeBlock]bool)
	if f.entry == nil {
		return seen
	}
	stack := []*CodeBlock{f.entry}
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[b] {
			continue
		}
		seen[b] = true
		stack = append(stack, b.succ...)
	}
	return seen
}

// branchesPass is a DFS from entry that merges any
// block with exactly one successor into that successor, when the successor
// has exactly one predecessor (the block being merged into it).
func branchesPass(f *Function) bool {
	changed := false
	visited := make(map[*CodeBlock]bool)
	var walk func(b *CodeBlock)
	walk = func(b *CodeBlock) {
		if visited[b] {
			return
		}
		visited[b] = true
		for len(b.succ) == 1 {
			succ := b.succ[0]
			if succ == b || len(succ.pred) != 1 {
				break
			}
			mergeStraightLine(f, b, succ)
			changed = true
		}
		for _, s := range append([]*CodeBlock(nil), b.succ...) {
			walk(s)
		}
	}
	if f.entry != nil {
		walk(f.entry)
	}
	if changed {
		recalcFlowLocked(f)
	}
	return changed
}

// mergeStraightLine absorbs succ into b: removes b's terminator,
// reparents and concatenates succ's instructions onto b, retargets succ's
// outgoing edges (and any φ-entries keyed on succ) to originate from b, and
// removes succ from the function.
func mergeStraightLine(f *Function, b, succ *CodeBlock) {
	if term := b.Terminator(); term != nil {
		f.deleteInstructionLocked(term)
	}
	for _, inst := range succ.instructions {
		inst.setBlock(b)
	}
	b.instructions = append(b.instructions, succ.instructions...)
	succ.instructions = nil

	newSucc := append([]*CodeBlock(nil), succ.succ...)
	b.succ = removeBlock(b.succ, succ)
	for _, s := range newSucc {
		b.addSucc(s)
		s.removePred(succ)
		s.addPred(b)
		for _, inst := range s.Instructions() {
			phi, ok := inst.(*PhiInstr)
			if !ok {
				break
			}
			for idx := range phi.Entries {
				if phi.Entries[idx].Pred == succ {
					phi.Entries[idx].Pred = b
				}
			}
		}
	}
	succ.succ = nil
	succ.pred = nil

	f.removeBlockFromList(succ)
}

// ---- Constant arithmetic -------------------------------------------------

func evalUnary(op UnaryOp, src Constant, destType PrimitiveType) Constant {
	switch op {
	case OpMov:
		return src.Cast(destType)
	case OpSeqz:
		return BoolConst(src.IsZero())
	case OpSnez:
		return BoolConst(!src.IsZero())
	case OpNeg:
		if destType.IsFloat() {
			if destType == F32 {
				return Float32Const(-src.Float32())
			}
			return Float64Const(-src.Float64())
		}
		return storeValue(new(big.Int).Neg(src.logicalValue()), destType)
	case OpBneg:
		return storeValue(new(big.Int).Not(src.rawPattern()), destType)
	case OpLnot:
		return BoolConst(!src.Bool())
	default:
		return src
	}
}

func evalBinary(op BinaryOp, lhs, rhs Constant, destType PrimitiveType) Constant {
	if lhs.Type.IsFloat() {
		if c, ok := evalFloatBinary(op, lhs, rhs, destType); ok {
			return c
		}
	}
	switch op {
	case OpAdd:
		return storeValue(new(big.Int).Add(lhs.logicalValue(), rhs.logicalValue()), destType)
	case OpSub:
		return storeValue(new(big.Int).Sub(lhs.logicalValue(), rhs.logicalValue()), destType)
	case OpMul:
		return storeValue(new(big.Int).Mul(lhs.logicalValue(), rhs.logicalValue()), destType)
	case OpDiv:
		if rhs.IsZero() {
			return storeValue(big.NewInt(0), destType) // division by zero yields zero
		}
		return storeValue(new(big.Int).Quo(lhs.logicalValue(), rhs.logicalValue()), destType)
	case OpMod:
		if rhs.IsZero() {
			return storeValue(big.NewInt(0), destType)
		}
		return storeValue(new(big.Int).Rem(lhs.logicalValue(), rhs.logicalValue()), destType)
	case OpShl:
		n := shiftAmount(rhs)
		return storeValue(new(big.Int).Lsh(lhs.rawPattern(), n), destType)
	case OpShr:
		n := shiftAmount(rhs)
		if destType.Signed() {
			return storeValue(new(big.Int).Rsh(lhs.signedValue(), n), destType)
		}
		return storeValue(new(big.Int).Rsh(lhs.rawPattern(), n), destType)
	case OpBand:
		return storeValue(new(big.Int).And(lhs.rawPattern(), rhs.rawPattern()), destType)
	case OpBor:
		return storeValue(new(big.Int).Or(lhs.rawPattern(), rhs.rawPattern()), destType)
	case OpBxor:
		return storeValue(new(big.Int).Xor(lhs.rawPattern(), rhs.rawPattern()), destType)
	case OpLand:
		return BoolConst(lhs.Bool() && rhs.Bool())
	case OpLor:
		return BoolConst(lhs.Bool() || rhs.Bool())
	case OpSgt:
		return BoolConst(lhs.logicalValue().Cmp(rhs.logicalValue()) > 0)
	case OpSle:
		return BoolConst(lhs.logicalValue().Cmp(rhs.logicalValue()) <= 0)
	case OpSlt:
		return BoolConst(lhs.logicalValue().Cmp(rhs.logicalValue()) < 0)
	case OpSge:
		return BoolConst(lhs.logicalValue().Cmp(rhs.logicalValue()) >= 0)
	case OpSeq:
		return BoolConst(lhs.logicalValue().Cmp(rhs.logicalValue()) == 0)
	case OpSne:
		return BoolConst(lhs.logicalValue().Cmp(rhs.logicalValue()) != 0)
	case OpScs, OpScc:
		width := lhs.Type.bitWidth()
		sum := new(big.Int).Add(lhs.rawPattern(), rhs.rawPattern())
		mod := new(big.Int).Lsh(big.NewInt(1), width)
		carry := sum.Cmp(mod) >= 0
		if op == OpScc {
			carry = !carry
		}
		return BoolConst(carry)
	default:
		return Constant{}
	}
}

// evalFloatBinary folds the operators with IEEE754 semantics when the
// operands are floating-point. Operators with no float meaning (shifts,
// bitwise, logical, carry compares) fall through to the integer path, which
// operates on the raw payload bits.
func evalFloatBinary(op BinaryOp, lhs, rhs Constant, destType PrimitiveType) (Constant, bool) {
	var a, b float64
	if lhs.Type == F32 {
		a, b = float64(lhs.Float32()), float64(rhs.Float32())
	} else {
		a, b = lhs.Float64(), rhs.Float64()
	}

	storeFloat := func(v float64) Constant {
		if destType == F32 {
			return Float32Const(float32(v))
		}
		return Float64Const(v)
	}

	switch op {
	case OpAdd:
		return storeFloat(a + b), true
	case OpSub:
		return storeFloat(a - b), true
	case OpMul:
		return storeFloat(a * b), true
	case OpDiv:
		if b == 0 {
			return storeFloat(0), true // division by zero yields zero, same as the integer rule
		}
		return storeFloat(a / b), true
	case OpMod:
		if b == 0 {
			return storeFloat(0), true
		}
		return storeFloat(math.Mod(a, b)), true
	case OpSgt:
		return BoolConst(a > b), true
	case OpSle:
		return BoolConst(a <= b), true
	case OpSlt:
		return BoolConst(a < b), true
	case OpSge:
		return BoolConst(a >= b), true
	case OpSeq:
		return BoolConst(a == b), true
	case OpSne:
		return BoolConst(a != b), true
	default:
		return Constant{}, false
	}
}

// shiftAmount clamps an oversized shift count: any amount at or beyond 256
// bits produces the same truncated result as the type's own bit width would
// (everything shifted out), so there is no need to let big.Int chew on an
// enormous exponent pulled from an adversarial 128-bit shift operand.
func shiftAmount(rhs Constant) uint {
	raw := rhs.rawPattern()
	if !raw.IsUint64() {
		return 256
	}
	n := raw.Uint64()
	if n > 256 {
		return 256
	}
	return uint(n)
}
