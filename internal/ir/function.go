package ir

import (
	"strconv"

	"github.com/sasha-s/go-deadlock"
	"github.com/segmentio/ksuid"
)

// Reentrant or concurrent use of a Function is detected by go-deadlock,
// whose report is routed into the standard bug path here: the process dies
// with IR0008 like any other invariant violation, instead of go-deadlock's
// default os.Exit.
func init() {
	deadlock.Opts.OnPotentialDeadlock = func() {
		bug(BugReentrant, "reentrant or concurrent use of a function detected")
	}
}

// Function owns a list of variables, a list of code blocks, a list of
// argument variables (each typed by its CreateParam call; there is no
// default argument type), a designated entry block, and an
// SSA-enforcement flag.
type Function struct {
	name    string
	buildID ksuid.KSUID

	params    []*Variable
	variables []*Variable
	blocks    []*CodeBlock
	entry     *CodeBlock
	ssa       bool

	varOrdinal   int
	blockOrdinal int

	// mu guards every externally-callable entry point against accidental
	// concurrent or reentrant use; the API is single-threaded and
	// non-reentrant. It never blocks correct single-threaded use;
	// go-deadlock surfaces a misuse as a detected deadlock/panic instead
	// of silent corruption.
	mu deadlock.Mutex
}

// NewFunction creates an empty function with the given display name. The
// entry block is not created automatically -- callers create it via
// CreateBlock and it becomes the entry the first time a block is created.
func NewFunction(name string) *Function {
	return &Function{
		name:    sanitizeName(name),
		buildID: ksuid.New(),
	}
}

// Name returns the function's display name.
func (f *Function) Name() string { return f.name }

// BuildID returns the build-scoped identifier stamped at construction,
// surfaced in the serialised header comment so a golden file can be
// correlated back to the exact build that produced it. Fatal bug messages
// do not include it.
func (f *Function) BuildID() string { return f.buildID.String() }

// IsSSA reports whether the function's SSA-enforcement flag is set.
func (f *Function) IsSSA() bool { return f.ssa }

// Entry returns the designated entry block, the first element of the
// block list.
func (f *Function) Entry() *CodeBlock { return f.entry }

// Blocks returns the function's code blocks in creation order, entry first.
func (f *Function) Blocks() []*CodeBlock {
	out := make([]*CodeBlock, len(f.blocks))
	copy(out, f.blocks)
	return out
}

// Variables returns every variable owned by the function (parameters and
// locals alike), in creation order.
func (f *Function) Variables() []*Variable {
	out := make([]*Variable, len(f.variables))
	copy(out, f.variables)
	return out
}

// Params returns the function's argument variables, in declaration order.
func (f *Function) Params() []*Variable {
	out := make([]*Variable, len(f.params))
	copy(out, f.params)
	return out
}

func (f *Function) lock() func() {
	f.mu.Lock()
	return f.mu.Unlock
}

// nextVarName returns the variable's ordinal-based default name, guaranteed
// unique at creation time.
func (f *Function) nextVarName() string {
	n := strconv.Itoa(f.varOrdinal)
	f.varOrdinal++
	return n
}

func (f *Function) nextBlockName() string {
	n := "b" + strconv.Itoa(f.blockOrdinal)
	f.blockOrdinal++
	return n
}

// CreateVariable creates a variable owned by f. An empty name requests the
// ordinal default; a non-empty name is sanitised (value.go's sanitizeName)
// before use.
func (f *Function) CreateVariable(name string, t PrimitiveType) *Variable {
	defer f.lock()()
	return f.createVariableLocked(name, t, false)
}

func (f *Function) createVariableLocked(name string, t PrimitiveType, isParam bool) *Variable {
	if name == "" {
		name = f.nextVarName()
	} else {
		name = sanitizeName(name)
	}
	v := &Variable{function: f, name: name, ptype: t, isParam: isParam}
	f.variables = append(f.variables, v)
	return v
}

// CreateParam creates and registers an argument variable. It may be called
// at any point, before or after blocks exist; parameters are exempt from the SSA ≤1
// def-list bound because their single definition is the call signature,
// not an instruction.
func (f *Function) CreateParam(name string, t PrimitiveType) *Variable {
	defer f.lock()()
	v := f.createVariableLocked(name, t, true)
	f.params = append(f.params, v)
	return v
}

// CreateBlock creates a block owned by f. The first block created becomes
// the entry block.
func (f *Function) CreateBlock(name string) *CodeBlock {
	defer f.lock()()
	if name == "" {
		name = f.nextBlockName()
	} else {
		name = sanitizeName(name)
	}
	b := &CodeBlock{function: f, name: name}
	f.blocks = append(f.blocks, b)
	if f.entry == nil {
		f.entry = b
	}
	return b
}

// blockIndex returns b's position in f.blocks, or -1.
func (f *Function) blockIndex(b *CodeBlock) int {
	for idx, x := range f.blocks {
		if x == b {
			return idx
		}
	}
	return -1
}

// fallthroughTarget returns the block immediately following b in textual
// block order, or nil if b is last. This realises a Branch's implicit
// false-edge: an untaken branch falls through to the next block.
func (f *Function) fallthroughTarget(b *CodeBlock) *CodeBlock {
	idx := f.blockIndex(b)
	if idx < 0 || idx+1 >= len(f.blocks) {
		return nil
	}
	return f.blocks[idx+1]
}

func (f *Function) removeVariableFromList(v *Variable) {
	for idx, x := range f.variables {
		if x == v {
			f.variables = append(f.variables[:idx], f.variables[idx+1:]...)
			return
		}
	}
}

func (f *Function) removeBlockFromList(b *CodeBlock) {
	for idx, x := range f.blocks {
		if x == b {
			f.blocks = append(f.blocks[:idx], f.blocks[idx+1:]...)
			if f.entry == b {
				if len(f.blocks) > 0 {
					f.entry = f.blocks[0]
				} else {
					f.entry = nil
				}
			}
			return
		}
	}
}
