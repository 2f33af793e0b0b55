package vm

import (
	"fmt"
	"log/slog"
)

const (
	MemorySize    = 4096
	StackSize     = 16
	RegisterCount = 16
	ScreenWidth   = 64
	ScreenHeight  = 32
	KeyCount      = 16

	ProgramStart    = uint16(0x200)
	FontStart       = uint16(0x050)
	FontGlyphSize   = 5
	InstructionSize = 2
	FlagRegister    = 0x0F

	MaxProgramSize = MemorySize - int(ProgramStart)
)

// VM holds the complete machine state of one CHIP-8 interpreter.
// A VM is owned by a single goroutine; separate instances share nothing.
type VM struct {
	memory    Memory               // Memory (4k)
	registers [RegisterCount]uint8 // V registers (V0-VF)
	stack     Stack                // Call stack

	pc    uint16 // Program counter
	index uint16 // Index register

	delayTimer uint8 // Delay timer
	soundTimer uint8 // Sound timer

	gfx      Framebuffer // Graphics buffer
	keypad   Keypad      // Keypad
	drawFlag bool        // Indicates a draw has occurred

	quirks        Quirks
	unknownOpcode UnknownOpcodePolicy
	rand          RandomSource

	program []byte
}

// Config is resolved once when the machine is constructed.
type Config struct {
	Quirks        Quirks
	UnknownOpcode UnknownOpcodePolicy

	// Random defaults to a PCG source seeded with DefaultSeed.
	Random RandomSource
}

// New creates a machine with the program loaded at ProgramStart.
func New(program []byte, cfg Config) (*VM, error) {
	if len(program) > MaxProgramSize {
		return nil, fmt.Errorf("program is %d bytes, at most %d fit: %w", len(program), MaxProgramSize, ErrOutOfBounds)
	}

	if cfg.Random == nil {
		cfg.Random = NewRandomSource(DefaultSeed)
	}

	vm := &VM{
		quirks:        cfg.Quirks,
		unknownOpcode: cfg.UnknownOpcode,
		rand:          cfg.Random,
		program:       append([]byte(nil), program...),
	}
	vm.Reset()
	return vm, nil
}

// Reset zeroes registers, stack, timers, keypad and framebuffer, then reloads
// the font and the program.
func (vm *VM) Reset() {
	vm.pc = ProgramStart
	vm.index = 0

	// Clear the display
	vm.gfx.Clear()
	vm.drawFlag = true

	slog.Debug("clear stack", "n", StackSize)
	vm.stack.Reset()

	slog.Debug("clear keypad", "n", KeyCount)
	vm.keypad.Reset()

	slog.Debug("clear registers", "n", RegisterCount)
	vm.registers = [RegisterCount]uint8{}

	slog.Debug("clear memory", "n", MemorySize)
	vm.memory = Memory{}

	slog.Debug("load font", "at", fmt.Sprintf("0x%04x", FontStart), "n", len(chip8Font))
	vm.memory.load(FontStart, chip8Font[:])

	slog.Debug("load program", "at", fmt.Sprintf("0x%04x", ProgramStart), "n", len(vm.program))
	vm.memory.load(ProgramStart, vm.program)

	// Reset timers
	vm.delayTimer = 0
	vm.soundTimer = 0
}

// Step fetches, decodes and executes the instruction at PC and applies the
// resulting PC policy. Failures are reported as *ExecError.
func (vm *VM) Step() (Result, error) {
	pc := vm.pc

	opcode, err := vm.fetchOpcode()
	if err != nil {
		return Result{Policy: PCHold}, &ExecError{PC: pc, Opcode: opcode, Err: err}
	}

	res, err := vm.executeOpcode(opcode)
	vm.apply(res)

	if err != nil {
		return res, &ExecError{PC: pc, Opcode: opcode, Fetched: true, Err: err}
	}
	return res, nil
}

func (vm *VM) fetchOpcode() (uint16, error) {
	return vm.memory.ReadWord(vm.pc)
}

func (vm *VM) apply(res Result) {
	if res.DisplayDirty {
		vm.drawFlag = true
	}

	switch res.Policy {
	case PCAdvance:
		vm.pc += InstructionSize
	case PCSkip:
		vm.pc += 2 * InstructionSize
	case PCJump:
		vm.pc = res.Target
	case PCAwaitKey, PCHold:
		// PC stays on the current instruction
	}
}

// completeKeyWait finishes a pending wait-for-key instruction.
func (vm *VM) completeKeyWait(register uint8, key Key) {
	vm.registers[register&0x0F] = uint8(key)
	vm.pc += InstructionSize
}

// tickTimers performs one 60Hz timer decrement.
func (vm *VM) tickTimers() {
	if vm.delayTimer > 0 {
		vm.delayTimer--
	}

	if vm.soundTimer > 0 {
		vm.soundTimer--
	}
}

func (vm *VM) PC() uint16 {
	return vm.pc
}

func (vm *VM) Index() uint16 {
	return vm.index
}

// Register returns the value of Vn; n is taken modulo 16.
func (vm *VM) Register(n uint8) uint8 {
	return vm.registers[n&0x0F]
}

func (vm *VM) Registers() [RegisterCount]uint8 {
	return vm.registers
}

func (vm *VM) StackDepth() int {
	return vm.stack.Depth()
}

func (vm *VM) DelayTimer() uint8 {
	return vm.delayTimer
}

func (vm *VM) SoundTimer() uint8 {
	return vm.soundTimer
}

// SoundOn reports whether the tone should currently be produced.
func (vm *VM) SoundOn() bool {
	return vm.soundTimer > 0
}

// Framebuffer returns a copy of the current display.
func (vm *VM) Framebuffer() Framebuffer {
	return vm.gfx
}

// Keypad is the key state written by the input provider.
func (vm *VM) Keypad() *Keypad {
	return &vm.keypad
}

// ReadMemory returns the byte at addr.
func (vm *VM) ReadMemory(addr uint16) (uint8, error) {
	return vm.memory.Read(addr)
}

func (vm *VM) Quirks() Quirks {
	return vm.quirks
}
