package ir

import (
	"fmt"
	"strings"
)

// formatConstOperand renders a constant operand as
// `<ptype>'0x<hexpayload>`, with BOOL rendered as
// `bool'true`/`bool'false` and F32/F64 additionally appending a
// `/* <decimal> */` comment so a reader does not have to decode IEEE754 hex
// by eye.
func formatConstOperand(c Constant) string {
	switch c.Type {
	case BOOL:
		if c.Bool() {
			return "bool'true"
		}
		return "bool'false"
	case F32:
		return fmt.Sprintf("f32'0x%s /* %g */", c.hexString(), c.Float32())
	case F64:
		return fmt.Sprintf("f64'0x%s /* %g */", c.hexString(), c.Float64())
	default:
		return c.Type.String() + "'0x" + c.hexString()
	}
}

// Printer renders a Function as human-readable text for debugging and
// golden-file testing. It accumulates into a strings.Builder and exposes a
// handful of small write helpers rather than formatting everything through
// one long Sprintf.
type Printer struct {
	b      strings.Builder
	indent int
}

// Print renders f and returns the resulting text. Every call starts from a
// fresh Printer, so it is safe to call concurrently on distinct functions.
func Print(f *Function) string {
	p := &Printer{}
	p.printFunction(f)
	return p.b.String()
}

func (p *Printer) write(s string) {
	p.b.WriteString(s)
}

func (p *Printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.b.WriteString("    ")
	}
}

func (p *Printer) writeLine(s string) {
	p.writeIndent()
	p.b.WriteString(s)
	p.b.WriteByte('\n')
}

func (p *Printer) printFunction(f *Function) {
	p.writeLine(fmt.Sprintf("; build %s", f.BuildID()))

	ssaPrefix := ""
	if f.IsSSA() {
		ssaPrefix = "ssa "
	}
	p.writeLine(ssaPrefix + "function %" + f.Name())

	p.indent++
	isParam := make(map[*Variable]bool, len(f.Params()))
	for _, v := range f.Params() {
		isParam[v] = true
	}
	for _, v := range f.Variables() {
		if isParam[v] {
			continue
		}
		p.writeLine("var " + v.Type().String() + " %" + v.Name())
	}
	for _, v := range f.Params() {
		p.writeLine("arg %" + v.Name())
	}
	p.indent--

	for _, b := range f.Blocks() {
		p.printBlock(b)
	}
}

func (p *Printer) printBlock(b *CodeBlock) {
	p.writeLine("code <" + b.Name() + ">")
	p.indent++
	for _, i := range b.Instructions() {
		p.writeLine(i.String())
	}
	p.indent--
}
