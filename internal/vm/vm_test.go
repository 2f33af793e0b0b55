package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assemble lays out opcode words as big-endian program bytes.
func assemble(words ...uint16) []byte {
	program := make([]byte, 0, 2*len(words))
	for _, w := range words {
		program = append(program, byte(w>>8), byte(w))
	}
	return program
}

func newTestVM(t *testing.T, cfg Config, words ...uint16) *VM {
	t.Helper()

	machine, err := New(assemble(words...), cfg)
	require.NoError(t, err)
	return machine
}

func stepN(t *testing.T, machine *VM, n int) {
	t.Helper()

	for i := 0; i < n; i++ {
		_, err := machine.Step()
		require.NoError(t, err, "step %d at pc 0x%04x", i, machine.PC())
	}
}

// fixedRandom replays its bytes in order.
type fixedRandom struct {
	values []uint8
	next   int
}

func (r *fixedRandom) Byte() uint8 {
	v := r.values[r.next%len(r.values)]
	r.next++
	return v
}

func TestNew(t *testing.T) {
	assert := assert.New(t)

	machine := newTestVM(t, Config{}, 0x00E0)

	assert.Equal(ProgramStart, machine.PC())
	assert.Equal(uint16(0), machine.Index())
	assert.Equal([RegisterCount]uint8{}, machine.Registers())
	assert.Equal(0, machine.StackDepth())
	assert.False(machine.SoundOn())

	fb := machine.Framebuffer()
	assert.True(fb.IsClear())

	b, err := machine.ReadMemory(ProgramStart)
	assert.NoError(err)
	assert.Equal(uint8(0x00), b)
	b, err = machine.ReadMemory(ProgramStart + 1)
	assert.NoError(err)
	assert.Equal(uint8(0xE0), b)
}

func TestNew_ProgramTooLarge(t *testing.T) {
	_, err := New(make([]byte, MaxProgramSize+1), Config{})
	assert.ErrorIs(t, err, ErrOutOfBounds)

	_, err = New(make([]byte, MaxProgramSize), Config{})
	assert.NoError(t, err)
}

func TestNew_DoesNotAliasProgram(t *testing.T) {
	program := assemble(0x6005)
	machine, err := New(program, Config{})
	require.NoError(t, err)

	program[1] = 0x07
	machine.Reset()
	stepN(t, machine, 1)

	assert.Equal(t, uint8(5), machine.Register(0))
}

func TestExampleProgram(t *testing.T) {
	assert := assert.New(t)

	machine := newTestVM(t, Config{}, 0x00E0, 0x6005, 0x7003)
	stepN(t, machine, 3)

	fb := machine.Framebuffer()
	assert.True(fb.IsClear())
	assert.Equal(uint8(8), machine.Register(0))
	assert.Equal(uint8(0), machine.Register(FlagRegister))
	assert.Equal(uint16(0x206), machine.PC())
}

func TestReset(t *testing.T) {
	assert := assert.New(t)

	machine := newTestVM(t, Config{}, 0x6005, 0xA300, 0x2208, 0x0000, 0x610A, 0xF115, 0xD015)
	stepN(t, machine, 6)
	machine.Keypad().Press(Key3)

	assert.NotEqual(uint8(0), machine.Register(0))
	assert.Equal(1, machine.StackDepth())

	machine.Reset()

	assert.Equal(ProgramStart, machine.PC())
	assert.Equal(uint16(0), machine.Index())
	assert.Equal([RegisterCount]uint8{}, machine.Registers())
	assert.Equal(0, machine.StackDepth())
	assert.Equal(uint8(0), machine.DelayTimer())
	assert.False(machine.Keypad().IsPressed(Key3))

	fb := machine.Framebuffer()
	assert.True(fb.IsClear())

	glyph, err := machine.ReadMemory(FontStart)
	assert.NoError(err)
	assert.Equal(uint8(0xF0), glyph)
}

func TestStep_FetchOutOfBounds(t *testing.T) {
	assert := assert.New(t)

	machine := newTestVM(t, Config{}, 0x1FFF)
	stepN(t, machine, 1)
	assert.Equal(uint16(0xFFF), machine.PC())

	_, err := machine.Step()
	assert.ErrorIs(err, ErrOutOfBounds)

	var execErr *ExecError
	if assert.ErrorAs(err, &execErr) {
		assert.Equal(uint16(0xFFF), execErr.PC)
		assert.False(execErr.Fetched)
		assert.Contains(execErr.Error(), "fetch")
		assert.NotContains(execErr.Error(), "unknown")
	}
	assert.Equal(uint16(0xFFF), machine.PC())
}
