package ir

// OperandKind discriminates the two members of the Operand tagged union.
type OperandKind uint8

const (
	OperandConst OperandKind = iota
	OperandVar
)

// Operand is a tagged union: either a constant or a non-owning reference to
// a Variable belonging to the same function as the instruction holding it.
type Operand struct {
	Kind  OperandKind
	Const Constant
	Var   *Variable
}

// ConstOperand wraps a Constant as an operand.
func ConstOperand(c Constant) Operand {
	return Operand{Kind: OperandConst, Const: c}
}

// VarOperand wraps a variable reference as an operand.
func VarOperand(v *Variable) Operand {
	return Operand{Kind: OperandVar, Var: v}
}

// IsConst reports whether the operand is a constant.
func (o Operand) IsConst() bool { return o.Kind == OperandConst }

// IsVar reports whether the operand references a variable.
func (o Operand) IsVar() bool { return o.Kind == OperandVar }

// Type returns the primitive type of whichever member is active.
func (o Operand) Type() PrimitiveType {
	if o.Kind == OperandConst {
		return o.Const.Type
	}
	return o.Var.Type()
}

// refersTo reports whether this operand is a variable reference to v.
func (o Operand) refersTo(v *Variable) bool {
	return o.Kind == OperandVar && o.Var == v
}

// String renders the operand: `%<vname>` for a variable reference,
// `<ptype>'0x<hex>` (or `bool'true`/`bool'false`) for a constant.
func (o Operand) String() string {
	if o.Kind == OperandVar {
		return "%" + o.Var.Name()
	}
	return formatConstOperand(o.Const)
}
