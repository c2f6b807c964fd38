package bytecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkWriteAndLine(t *testing.T) {
	c := NewChunk()
	c.WriteOp(OpNil, 1)
	c.Write(0xFF, 1)
	c.WriteOp(OpReturn, 2)

	assert.Equal(t, []byte{byte(OpNil), 0xFF, byte(OpReturn)}, c.Code)
	assert.Equal(t, 1, c.Line(0))
	assert.Equal(t, 1, c.Line(1))
	assert.Equal(t, 2, c.Line(2))
}

func TestChunkLineOutOfRange(t *testing.T) {
	c := NewChunk()
	assert.Equal(t, -1, c.Line(0))
	assert.Equal(t, -1, c.Line(-1))
}

func TestChunkAddConstant(t *testing.T) {
	c := NewChunk()
	i0 := c.AddConstant(Number(1))
	i1 := c.AddConstant(Number(2))
	assert.Equal(t, 0, i0)
	assert.Equal(t, 1, i1)
	assert.Equal(t, 2, len(c.Constants))
}

func TestOpcodeString(t *testing.T) {
	assert.Equal(t, "OP_CONSTANT", OpConstant.String())
	assert.Equal(t, "OP_RETURN", OpReturn.String())
	assert.Equal(t, "OP_UNKNOWN", Op(255).String())
}
