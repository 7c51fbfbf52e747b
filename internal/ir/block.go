package ir

// CodeBlock is owned by a function: a maximal straight-line sequence of
// instructions ending, if present, in a single terminator. Predecessor and
// successor sets are insertion-ordered (dominance computation iterates
// predecessors in that order), deduplicated on insertion.
type CodeBlock struct {
	function     *Function
	name         string
	instructions []Instruction
	pred         []*CodeBlock
	succ         []*CodeBlock
}

// Name returns the block's display name.
func (b *CodeBlock) Name() string { return b.name }

// Function returns the owning function.
func (b *CodeBlock) Function() *Function { return b.function }

// Instructions returns the block's instruction list in program order. The
// returned slice is a snapshot.
func (b *CodeBlock) Instructions() []Instruction {
	out := make([]Instruction, len(b.instructions))
	copy(out, b.instructions)
	return out
}

// Pred returns the predecessor set, insertion order.
func (b *CodeBlock) Pred() []*CodeBlock {
	out := make([]*CodeBlock, len(b.pred))
	copy(out, b.pred)
	return out
}

// Succ returns the successor set, insertion order.
func (b *CodeBlock) Succ() []*CodeBlock {
	out := make([]*CodeBlock, len(b.succ))
	copy(out, b.succ)
	return out
}

// Terminator returns the block's terminator instruction, or nil if the
// block does not yet end in one. A block holds at most one terminator and
// it is always last, so only the final element needs checking.
func (b *CodeBlock) Terminator() Instruction {
	if len(b.instructions) == 0 {
		return nil
	}
	last := b.instructions[len(b.instructions)-1]
	if last.IsTerminator() {
		return last
	}
	return nil
}

func containsBlock(list []*CodeBlock, b *CodeBlock) bool {
	for _, x := range list {
		if x == b {
			return true
		}
	}
	return false
}

func (b *CodeBlock) addPred(p *CodeBlock) {
	if !containsBlock(b.pred, p) {
		b.pred = append(b.pred, p)
	}
}

func (b *CodeBlock) addSucc(s *CodeBlock) {
	if !containsBlock(b.succ, s) {
		b.succ = append(b.succ, s)
	}
}

func removeBlock(list []*CodeBlock, b *CodeBlock) []*CodeBlock {
	for idx, x := range list {
		if x == b {
			return append(list[:idx], list[idx+1:]...)
		}
	}
	return list
}

func (b *CodeBlock) removePred(p *CodeBlock) {
	b.pred = removeBlock(b.pred, p)
}

func (b *CodeBlock) removeSucc(s *CodeBlock) {
	b.succ = removeBlock(b.succ, s)
}

func (b *CodeBlock) clearFlow() {
	b.pred = nil
	b.succ = nil
}
