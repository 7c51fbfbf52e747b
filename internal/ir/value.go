package ir

import (
	"strings"

	"github.com/iancoleman/strcase"
)

// Variable is owned by a function. Its use-set and def-list are
// bidirectional indexes that are part of the IR itself, not a convenience
// cache -- every mutation to them goes through mutator.go or the SSA
// builder in ssa.go.
type Variable struct {
	function *Function
	name     string
	ptype    PrimitiveType
	isParam  bool

	// uses is the use-*set*: membership exactly tracks "i textually
	// references v in an operand position".
	uses map[Instruction]struct{}

	// defs is the def-*list*: bounded to length <=1 for non-parameter
	// variables once the owning function is SSA.
	defs []Instruction
}

// Name returns the variable's display name.
func (v *Variable) Name() string { return v.name }

// Type returns the variable's primitive type.
func (v *Variable) Type() PrimitiveType { return v.ptype }

// Function returns the owning function.
func (v *Variable) Function() *Function { return v.function }

// IsParam reports whether v is one of its function's parameters.
func (v *Variable) IsParam() bool { return v.isParam }

// Uses returns the instructions that currently reference v in some operand
// position. The returned slice is a snapshot; callers that mutate the
// program while iterating must capture it before the first deletion.
func (v *Variable) Uses() []Instruction {
	out := make([]Instruction, 0, len(v.uses))
	for i := range v.uses {
		out = append(out, i)
	}
	return out
}

// UseCount reports |use-set|.
func (v *Variable) UseCount() int { return len(v.uses) }

// Defs returns the def-list (assigning expressions) for v.
func (v *Variable) Defs() []Instruction {
	out := make([]Instruction, len(v.defs))
	copy(out, v.defs)
	return out
}

// addUse/removeUse/addDef/removeDef are invoked only from mutator.go and
// ssa.go, so that every mutation path that touches an index also
// maintains it.

func (v *Variable) addUse(i Instruction) {
	if v.uses == nil {
		v.uses = make(map[Instruction]struct{})
	}
	v.uses[i] = struct{}{}
}

func (v *Variable) removeUse(i Instruction) {
	delete(v.uses, i)
}

func (v *Variable) addDef(i Instruction) {
	v.defs = append(v.defs, i)
}

func (v *Variable) removeDef(i Instruction) {
	for idx, d := range v.defs {
		if d == i {
			v.defs = append(v.defs[:idx], v.defs[idx+1:]...)
			return
		}
	}
}

// sanitizeName canonicalises a front-end-supplied display name so that it
// cannot break the bare-word `%<vname>`/`<<bname>>` tokens of the textual
// serialisation. Names containing only identifier-safe characters pass
// through untouched; anything else is rewritten to snake_case.
func sanitizeName(name string) string {
	safe := func(r rune) bool {
		return r == '_' || r == '.' || r == '\'' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
	}
	clean := true
	for _, r := range name {
		if !safe(r) {
			clean = false
			break
		}
	}
	if clean {
		return name
	}
	// snake_case the name, then squash anything strcase passed through
	// (punctuation other than space/hyphen/dot survives ToSnake).
	var b strings.Builder
	for _, r := range strcase.ToSnake(name) {
		if safe(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
