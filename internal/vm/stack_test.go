package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStack(t *testing.T) {
	assert := assert.New(t)

	var s Stack
	assert.True(s.Empty())

	for i := 0; i < StackSize; i++ {
		require.NoError(t, s.Push(uint16(0x200+2*i)))
	}
	assert.True(s.Full())
	assert.Equal(StackSize, s.Depth())

	assert.ErrorIs(s.Push(0x300), ErrStackOverflow)
	assert.Equal(StackSize, s.Depth())

	for i := StackSize - 1; i >= 0; i-- {
		addr, err := s.Pop()
		require.NoError(t, err)
		assert.Equal(uint16(0x200+2*i), addr)
	}
	assert.True(s.Empty())

	_, err := s.Pop()
	assert.ErrorIs(err, ErrStackUnderflow)
	assert.Equal(0, s.Depth())
}

func TestStack_Reset(t *testing.T) {
	var s Stack
	require.NoError(t, s.Push(0x202))

	s.Reset()

	assert.True(t, s.Empty())
	_, err := s.Pop()
	assert.ErrorIs(t, err, ErrStackUnderflow)
}
