package vm

import (
	"context"
	"fmt"
	"log/slog"
)

// PCPolicy tells the caller how to move the program counter after an
// instruction has executed.
type PCPolicy uint8

const (
	PCAdvance  PCPolicy = iota // PC += 2
	PCSkip                     // PC += 4
	PCJump                     // PC = Result.Target
	PCAwaitKey                 // PC stays until a key-down edge arrives
	PCHold                     // PC stays; the machine cannot continue
)

// Result is the outcome of executing one instruction.
type Result struct {
	Policy   PCPolicy
	Target   uint16 // jump target for PCJump
	Register uint8  // destination register for PCAwaitKey

	DisplayDirty bool // framebuffer changed
	SoundSet     bool // sound timer was written
	Looped       bool // jump to its own address
}

var (
	advance = Result{Policy: PCAdvance}
	skip    = Result{Policy: PCSkip}
)

func jumpTo(addr uint16) Result {
	return Result{Policy: PCJump, Target: addr}
}

func skipIf(cond bool) Result {
	if cond {
		return skip
	}
	return advance
}

type instruction func(vm *VM, in Instruction) (Result, error)

var instructions [opCount]instruction

func init() {
	instructions = [opCount]instruction{
		OpUnknown: unknownInstruction,
		OpCls:     clsInstruction,
		OpRet:     retInstruction,
		OpJp:      jpInstruction,
		OpCall:    callInstruction,
		OpSeImm:   seImmInstruction,
		OpSneImm:  sneImmInstruction,
		OpSeReg:   seRegInstruction,
		OpLdImm:   ldImmInstruction,
		OpAddImm:  addImmInstruction,
		OpLdReg:   ldRegInstruction,
		OpOr:      orInstruction,
		OpAnd:     andInstruction,
		OpXor:     xorInstruction,
		OpAddReg:  addRegInstruction,
		OpSub:     subInstruction,
		OpShr:     shrInstruction,
		OpSubn:    subnInstruction,
		OpShl:     shlInstruction,
		OpSneReg:  sneRegInstruction,
		OpLdI:     ldIInstruction,
		OpJpV0:    jpV0Instruction,
		OpRnd:     rndInstruction,
		OpDrw:     drwInstruction,
		OpSkp:     skpInstruction,
		OpSknp:    sknpInstruction,
		OpLdVxDT:  ldVxDTInstruction,
		OpLdKey:   ldKeyInstruction,
		OpLdDTVx:  ldDTVxInstruction,
		OpLdSTVx:  ldSTVxInstruction,
		OpAddI:    addIInstruction,
		OpLdF:     ldFInstruction,
		OpLdB:     ldBInstruction,
		OpStore:   storeInstruction,
		OpLoad:    loadInstruction,
	}
}

func (vm *VM) executeOpcode(opcode uint16) (Result, error) {
	in := Decode(opcode)

	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		slog.Debug(
			"exec",
			"pc", fmt.Sprintf("0x%04x", vm.pc),
			"opcode", fmt.Sprintf("0x%04x", opcode),
			"instr", in.Format(vm.quirks),
		)
	}

	return vm.Execute(in)
}

// Execute applies a decoded instruction to the machine state. It never moves
// PC itself; the returned Result carries the PC policy. A failed instruction
// leaves registers, memory and stack untouched. Operand fields are masked to
// their encoded widths, so instructions not built by Decode are safe too.
func (vm *VM) Execute(in Instruction) (Result, error) {
	in.X &= 0x0F
	in.Y &= 0x0F
	in.N &= 0x0F
	in.NNN &= 0x0FFF

	if in.Op >= opCount {
		return unknownInstruction(vm, in)
	}
	return instructions[in.Op](vm, in)
}

func unknownInstruction(vm *VM, in Instruction) (Result, error) {
	res := advance
	if vm.unknownOpcode == UnknownOpcodeHalt {
		res = Result{Policy: PCHold}
	}
	return res, fmt.Errorf("0x%04X: %w", in.Encode(), ErrUnrecognizedOpcode)
}

// 00E0	cls	Clear the screen
func clsInstruction(vm *VM, _ Instruction) (Result, error) {
	vm.gfx.Clear()

	res := advance
	res.DisplayDirty = true
	return res, nil
}

// 00EE	ret	Return from subroutine call
func retInstruction(vm *VM, _ Instruction) (Result, error) {
	addr, err := vm.stack.Pop()
	if err != nil {
		return advance, err
	}
	return jumpTo(addr), nil
}

// 1NNN	jp NNN	Jump to address NNN
func jpInstruction(vm *VM, in Instruction) (Result, error) {
	res := jumpTo(in.NNN)
	res.Looped = in.NNN == vm.pc
	return res, nil
}

// 2NNN	call NNN	Push the address of the next instruction, jump to NNN
func callInstruction(vm *VM, in Instruction) (Result, error) {
	if err := vm.stack.Push(vm.pc + InstructionSize); err != nil {
		return advance, err
	}
	return jumpTo(in.NNN), nil
}

// 3XNN	se VX, NN	Skip if VX == NN
func seImmInstruction(vm *VM, in Instruction) (Result, error) {
	return skipIf(vm.registers[in.X] == in.NN), nil
}

// 4XNN	sne VX, NN	Skip if VX != NN
func sneImmInstruction(vm *VM, in Instruction) (Result, error) {
	return skipIf(vm.registers[in.X] != in.NN), nil
}

// 5XY0	se VX, VY	Skip if VX == VY
func seRegInstruction(vm *VM, in Instruction) (Result, error) {
	return skipIf(vm.registers[in.X] == vm.registers[in.Y]), nil
}

// 9XY0	sne VX, VY	Skip if VX != VY
func sneRegInstruction(vm *VM, in Instruction) (Result, error) {
	return skipIf(vm.registers[in.X] != vm.registers[in.Y]), nil
}

// 6XNN	ld VX, NN
func ldImmInstruction(vm *VM, in Instruction) (Result, error) {
	vm.registers[in.X] = in.NN
	return advance, nil
}

// 7XNN	add VX, NN	No carry generated
func addImmInstruction(vm *VM, in Instruction) (Result, error) {
	vm.registers[in.X] += in.NN
	return advance, nil
}

// 8XY0	ld VX, VY
func ldRegInstruction(vm *VM, in Instruction) (Result, error) {
	vm.registers[in.X] = vm.registers[in.Y]
	return advance, nil
}

// 8XY1	or VX, VY
func orInstruction(vm *VM, in Instruction) (Result, error) {
	vm.registers[in.X] |= vm.registers[in.Y]
	return advance, nil
}

// 8XY2	and VX, VY
func andInstruction(vm *VM, in Instruction) (Result, error) {
	vm.registers[in.X] &= vm.registers[in.Y]
	return advance, nil
}

// 8XY3	xor VX, VY
func xorInstruction(vm *VM, in Instruction) (Result, error) {
	vm.registers[in.X] ^= vm.registers[in.Y]
	return advance, nil
}

// setWithFlag writes the result first and VF last, so VF holds the flag
// even when it is also the destination.
func (vm *VM) setWithFlag(x uint8, value uint8, flag bool) {
	vm.registers[x] = value
	if flag {
		vm.registers[FlagRegister] = 1
	} else {
		vm.registers[FlagRegister] = 0
	}
}

// 8XY4	add VX, VY	VF = 1 on carry
func addRegInstruction(vm *VM, in Instruction) (Result, error) {
	x, y := vm.registers[in.X], vm.registers[in.Y]
	sum := uint16(x) + uint16(y)

	vm.setWithFlag(in.X, uint8(sum), sum > 0xFF)
	return advance, nil
}

// 8XY5	sub VX, VY	VF = 1 when there is no borrow
func subInstruction(vm *VM, in Instruction) (Result, error) {
	x, y := vm.registers[in.X], vm.registers[in.Y]

	vm.setWithFlag(in.X, x-y, x >= y)
	return advance, nil
}

// 8XY7	subn VX, VY	VX = VY - VX, VF = 1 when there is no borrow
func subnInstruction(vm *VM, in Instruction) (Result, error) {
	x, y := vm.registers[in.X], vm.registers[in.Y]

	vm.setWithFlag(in.X, y-x, y >= x)
	return advance, nil
}

func (vm *VM) shiftSource(in Instruction) uint8 {
	if vm.quirks.LegacyShift {
		return vm.registers[in.Y]
	}
	return vm.registers[in.X]
}

// 8XY6	shr VX {, VY}	VF = bit 0 before the shift
func shrInstruction(vm *VM, in Instruction) (Result, error) {
	src := vm.shiftSource(in)

	vm.setWithFlag(in.X, src>>1, src&0x01 != 0)
	return advance, nil
}

// 8XYE	shl VX {, VY}	VF = bit 7 before the shift
func shlInstruction(vm *VM, in Instruction) (Result, error) {
	src := vm.shiftSource(in)

	vm.setWithFlag(in.X, src<<1, src&0x80 != 0)
	return advance, nil
}

// ANNN	ld I, NNN
func ldIInstruction(vm *VM, in Instruction) (Result, error) {
	vm.index = in.NNN
	return advance, nil
}

// BNNN	jp V0, NNN	Jump to NNN + V0 (or + VX with JumpWithVX)
func jpV0Instruction(vm *VM, in Instruction) (Result, error) {
	offset := vm.registers[0]
	if vm.quirks.JumpWithVX {
		offset = vm.registers[in.X]
	}
	return jumpTo(in.NNN + uint16(offset)), nil
}

// CXNN	rnd VX, NN	VX = random byte & NN
func rndInstruction(vm *VM, in Instruction) (Result, error) {
	vm.registers[in.X] = vm.rand.Byte() & in.NN
	return advance, nil
}

// DXYN	drw VX, VY, N
// Draws the N bytes at I as 8-pixel rows with XOR at (VX, VY).
// VF is set to 1 if any set pixel is cleared, 0 otherwise. I is unchanged.
func drwInstruction(vm *VM, in Instruction) (Result, error) {
	height := int(in.N)
	if err := checkReadable(vm.index, height); err != nil {
		return advance, err
	}

	var rows [15]uint8
	copy(rows[:height], vm.memory[vm.index:])

	collision := vm.gfx.drawSprite(vm.registers[in.X], vm.registers[in.Y], rows[:height], vm.quirks.ClipSprites)
	if collision {
		vm.registers[FlagRegister] = 1
	} else {
		vm.registers[FlagRegister] = 0
	}

	res := advance
	res.DisplayDirty = true
	return res, nil
}

// EX9E	skp VX	Skip if the key in VX is pressed
func skpInstruction(vm *VM, in Instruction) (Result, error) {
	return skipIf(vm.keypad.IsPressed(Key(vm.registers[in.X]))), nil
}

// EXA1	sknp VX	Skip if the key in VX is not pressed
func sknpInstruction(vm *VM, in Instruction) (Result, error) {
	return skipIf(!vm.keypad.IsPressed(Key(vm.registers[in.X]))), nil
}

// FX07	ld VX, DT
func ldVxDTInstruction(vm *VM, in Instruction) (Result, error) {
	vm.registers[in.X] = vm.delayTimer
	return advance, nil
}

// FX0A	ld VX, K	Wait for a key press, store the key in VX
func ldKeyInstruction(_ *VM, in Instruction) (Result, error) {
	return Result{Policy: PCAwaitKey, Register: in.X}, nil
}

// FX15	ld DT, VX
func ldDTVxInstruction(vm *VM, in Instruction) (Result, error) {
	vm.delayTimer = vm.registers[in.X]
	return advance, nil
}

// FX18	ld ST, VX
func ldSTVxInstruction(vm *VM, in Instruction) (Result, error) {
	vm.soundTimer = vm.registers[in.X]

	res := advance
	res.SoundSet = true
	return res, nil
}

// FX1E	add I, VX
// With IndexOverflowFlag, VF = 1 when I+VX > 0xFFF, and 0 otherwise.
func addIInstruction(vm *VM, in Instruction) (Result, error) {
	sum := uint32(vm.index) + uint32(vm.registers[in.X])
	vm.index = uint16(sum)

	if vm.quirks.IndexOverflowFlag {
		if sum > 0x0FFF {
			vm.registers[FlagRegister] = 1
		} else {
			vm.registers[FlagRegister] = 0
		}
	}
	return advance, nil
}

// FX29	ld F, VX	Point I at the font glyph for the low nibble of VX
func ldFInstruction(vm *VM, in Instruction) (Result, error) {
	vm.index = fontAddr(vm.registers[in.X])
	return advance, nil
}

// FX33	ld B, VX	Store the BCD digits of VX at I, I+1, I+2. I is unchanged.
func ldBInstruction(vm *VM, in Instruction) (Result, error) {
	x := vm.registers[in.X]
	if err := vm.memory.Write(vm.index, x/100, (x/10)%10, x%10); err != nil {
		return advance, err
	}
	return advance, nil
}

// FX55	ld [I], VX	Store V0..VX at I onwards
func storeInstruction(vm *VM, in Instruction) (Result, error) {
	n := uint16(in.X)
	if err := vm.memory.Write(vm.index, vm.registers[:n+1]...); err != nil {
		return advance, err
	}

	// On the original interpreter, when the operation is done, I = I + X + 1.
	if vm.quirks.IncrementIndexOnBlockIO {
		vm.index += n + 1
	}
	return advance, nil
}

// FX65	ld VX, [I]	Load V0..VX from I onwards
func loadInstruction(vm *VM, in Instruction) (Result, error) {
	n := uint16(in.X)
	if err := checkReadable(vm.index, int(n)+1); err != nil {
		return advance, err
	}

	for i := uint16(0); i <= n; i++ {
		vm.registers[i] = vm.memory[vm.index+i]
	}

	if vm.quirks.IncrementIndexOnBlockIO {
		vm.index += n + 1
	}
	return advance, nil
}
