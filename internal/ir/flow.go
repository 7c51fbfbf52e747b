package ir

// RecalcFlow clears every block's
// predecessor/successor sets, then walks every terminator and reinstates
// the mutual edges it implies. Jump and Branch each contribute an edge to
// Target; Branch additionally contributes its implicit fallthrough edge to
// the next block in textual order.
func RecalcFlow(f *Function) {
	defer f.lock()()
	recalcFlowLocked(f)
}

func recalcFlowLocked(f *Function) {
	for _, b := range f.blocks {
		b.clearFlow()
	}
	for _, b := range f.blocks {
		switch t := b.Terminator().(type) {
		case *JumpInstr:
			b.addSucc(t.Target)
			t.Target.addPred(b)
		case *BranchInstr:
			b.addSucc(t.Target)
			t.Target.addPred(b)
			if ft := f.fallthroughTarget(b); ft != nil {
				b.addSucc(ft)
				ft.addPred(b)
			}
		}
	}
}

// Dominance is the result of ComputeDominance: an immediate-dominator
// index and a dominance-frontier set, both keyed by block and restricted to
// blocks reachable from the entry block by the entry-rooted DFS.
type Dominance struct {
	order    []*CodeBlock
	idom     map[*CodeBlock]*CodeBlock
	frontier map[*CodeBlock][]*CodeBlock
}

// IDom returns b's immediate dominator and true, or (nil, false) if b is
// the entry block or unreachable.
func (d *Dominance) IDom(b *CodeBlock) (*CodeBlock, bool) {
	idom, ok := d.idom[b]
	return idom, ok
}

// Frontier returns b's dominance frontier, or nil if b is unreachable.
func (d *Dominance) Frontier(b *CodeBlock) []*CodeBlock {
	out := d.frontier[b]
	cp := make([]*CodeBlock, len(out))
	copy(cp, out)
	return cp
}

// Reachable reports whether the entry-rooted DFS numbered b.
func (d *Dominance) Reachable(b *CodeBlock) bool {
	_, ok := d.idom[b]
	return ok || (len(d.order) > 0 && b == d.order[0])
}

// ltState carries the dfnum-indexed working arrays of the simple (path-
// compression-only, no union-by-rank) Lengauer-Tarjan algorithm.
type ltState struct {
	order    []*CodeBlock
	dfnum    map[*CodeBlock]int
	parent   []int
	semi     []int
	ancestor []int
	label    []int
	bucket   [][]int
}

// ComputeDominance computes the dominator tree and dominance frontiers:
// Lengauer-Tarjan in its simple form, over the current predecessor/
// successor sets.
// Callers must have an up-to-date CFG (RecalcFlow, if instructions were
// edited directly rather than through the Mutator API's append/delete
// paths, which maintain edges incrementally).
func ComputeDominance(f *Function) *Dominance {
	defer f.lock()()
	return computeDominanceLocked(f)
}

func computeDominanceLocked(f *Function) *Dominance {
	entry := f.entry
	st := &ltState{dfnum: make(map[*CodeBlock]int)}
	if entry == nil {
		return &Dominance{idom: map[*CodeBlock]*CodeBlock{}, frontier: map[*CodeBlock][]*CodeBlock{}}
	}

	// Step 1: DFS from entry, numbering blocks and recording parents.
	dfsNumber(st, entry, -1)
	n := len(st.order)
	st.semi = make([]int, n)
	st.ancestor = make([]int, n)
	st.label = make([]int, n)
	st.bucket = make([][]int, n)
	idomNum := make([]int, n)
	for i := 0; i < n; i++ {
		st.semi[i] = i
		st.ancestor[i] = -1
		st.label[i] = i
		idomNum[i] = -1
	}

	// Step 2: process in reverse DFS order, skipping the entry (index 0).
	for i := n - 1; i >= 1; i-- {
		w := st.order[i]
		for _, v := range w.pred {
			vn, ok := st.dfnum[v]
			if !ok {
				continue // unreachable predecessor
			}
			u := st.eval(vn)
			if st.semi[u] < st.semi[i] {
				st.semi[i] = st.semi[u]
			}
		}
		semiBlock := st.semi[i]
		st.bucket[semiBlock] = append(st.bucket[semiBlock], i)
		st.link(st.parent[i], i)

		pbucket := st.bucket[st.parent[i]]
		st.bucket[st.parent[i]] = nil
		for _, v := range pbucket {
			u := st.eval(v)
			if st.semi[u] < st.semi[v] {
				idomNum[v] = u
			} else {
				idomNum[v] = st.parent[i]
			}
		}
	}

	// Step 3: resolve immediate dominators in forward order.
	for i := 1; i < n; i++ {
		if idomNum[i] != st.semi[i] {
			idomNum[i] = idomNum[idomNum[i]]
		}
	}

	d := &Dominance{
		order:    st.order,
		idom:     make(map[*CodeBlock]*CodeBlock, n),
		frontier: make(map[*CodeBlock][]*CodeBlock, n),
	}
	for i := 1; i < n; i++ {
		d.idom[st.order[i]] = st.order[idomNum[i]]
	}

	// Step 4: dominance frontiers.
	for _, b := range st.order {
		if len(b.pred) < 2 {
			continue
		}
		ib, hasIdom := d.idom[b]
		for _, p := range b.pred {
			if _, ok := st.dfnum[p]; !ok {
				continue // unreachable predecessor
			}
			runner := p
			for runner != ib {
				d.frontier[runner] = appendBlockSet(d.frontier[runner], b)
				next, ok := d.idom[runner]
				if !ok {
					break // runner is the entry block
				}
				runner = next
			}
			_ = hasIdom
		}
	}

	return d
}

func dfsNumber(st *ltState, b *CodeBlock, parentNum int) {
	if _, seen := st.dfnum[b]; seen {
		return
	}
	num := len(st.order)
	st.dfnum[b] = num
	st.order = append(st.order, b)
	st.parent = append(st.parent, parentNum)
	for _, s := range b.succ {
		dfsNumber(st, s, num)
	}
}

func (st *ltState) eval(v int) int {
	if st.ancestor[v] < 0 {
		return st.label[v]
	}
	st.compress(v)
	return st.label[v]
}

func (st *ltState) compress(v int) {
	a := st.ancestor[v]
	if st.ancestor[a] < 0 {
		return
	}
	st.compress(a)
	if st.semi[st.label[a]] < st.semi[st.label[v]] {
		st.label[v] = st.label[a]
	}
	st.ancestor[v] = st.ancestor[a]
}

func (st *ltState) link(parent, child int) {
	st.ancestor[child] = parent
}

func appendBlockSet(list []*CodeBlock, b *CodeBlock) []*CodeBlock {
	if containsBlock(list, b) {
		return list
	}
	return append(list, b)
}
