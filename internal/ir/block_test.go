package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTerminatorIsNilUntilAppended(t *testing.T) {
	f := NewFunction("f")
	b := f.CreateBlock("entry")
	assert.Nil(t, b.Terminator())

	ret := b.AppendReturn(nil)
	assert.Same(t, ret, b.Terminator())
}

func TestPredSuccAreMutual(t *testing.T) {
	f := NewFunction("f")
	a := f.CreateBlock("a")
	b := f.CreateBlock("b")

	a.AppendJump(b)

	assert.Equal(t, []*CodeBlock{b}, a.Succ())
	assert.Equal(t, []*CodeBlock{a}, b.Pred())
}

func TestAppendAfterTerminatorIsFatal(t *testing.T) {
	f := NewFunction("f")
	a := f.CreateBlock("a")
	b := f.CreateBlock("b")
	a.AppendJump(b)

	assert.Panics(t, func() {
		a.AppendJump(b)
	}, "a second terminator must be rejected")
}
