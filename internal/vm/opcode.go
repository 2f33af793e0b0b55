package vm

import (
	"fmt"

	"github.com/retroenv/retrogolib/arch/cpu/chip8"
)

// Op identifies an instruction class.
type Op uint8

const (
	OpUnknown Op = iota

	OpCls    // 00E0 - Clear screen
	OpRet    // 00EE - Return from subroutine
	OpJp     // 1NNN - Jump to NNN
	OpCall   // 2NNN - Call subroutine at NNN
	OpSeImm  // 3XNN - Skip if VX == NN
	OpSneImm // 4XNN - Skip if VX != NN
	OpSeReg  // 5XY0 - Skip if VX == VY
	OpLdImm  // 6XNN - VX = NN
	OpAddImm // 7XNN - VX += NN, no carry
	OpLdReg  // 8XY0 - VX = VY
	OpOr     // 8XY1 - VX |= VY
	OpAnd    // 8XY2 - VX &= VY
	OpXor    // 8XY3 - VX ^= VY
	OpAddReg // 8XY4 - VX += VY, VF = carry
	OpSub    // 8XY5 - VX -= VY, VF = not borrow
	OpShr    // 8XY6 - VX >>= 1, VF = bit shifted out
	OpSubn   // 8XY7 - VX = VY - VX, VF = not borrow
	OpShl    // 8XYE - VX <<= 1, VF = bit shifted out
	OpSneReg // 9XY0 - Skip if VX != VY
	OpLdI    // ANNN - I = NNN
	OpJpV0   // BNNN - Jump to NNN + V0
	OpRnd    // CXNN - VX = random & NN
	OpDrw    // DXYN - Draw N-row sprite at (VX, VY)
	OpSkp    // EX9E - Skip if key VX pressed
	OpSknp   // EXA1 - Skip if key VX not pressed
	OpLdVxDT // FX07 - VX = delay timer
	OpLdKey  // FX0A - Wait for key, VX = key
	OpLdDTVx // FX15 - delay timer = VX
	OpLdSTVx // FX18 - sound timer = VX
	OpAddI   // FX1E - I += VX
	OpLdF    // FX29 - I = font glyph for VX
	OpLdB    // FX33 - BCD of VX at I, I+1, I+2
	OpStore  // FX55 - Store V0..VX at I
	OpLoad   // FX65 - Load V0..VX from I

	opCount
)

// layout describes which operand fields an instruction class uses.
type layout uint8

const (
	layoutNone layout = iota // fixed word, e.g. 00E0
	layoutNNN                // ?NNN
	layoutXNN                // ?XNN
	layoutXY                 // ?XY?
	layoutXYN                // ?XYN
	layoutX                  // ?X?? with a fixed low byte
)

type opInfo struct {
	name   string
	layout layout
}

// Mnemonics come from the retrogolib CHIP-8 instruction set.
var opInfos = [opCount]opInfo{
	OpUnknown: {"unknown", layoutNNN},
	OpCls:     {chip8.Cls.Name, layoutNone},
	OpRet:     {chip8.Ret.Name, layoutNone},
	OpJp:      {chip8.Jp.Name, layoutNNN},
	OpCall:    {chip8.Call.Name, layoutNNN},
	OpSeImm:   {chip8.Se.Name, layoutXNN},
	OpSneImm:  {chip8.Sne.Name, layoutXNN},
	OpSeReg:   {chip8.Se.Name, layoutXY},
	OpLdImm:   {chip8.Ld.Name, layoutXNN},
	OpAddImm:  {chip8.Add.Name, layoutXNN},
	OpLdReg:   {chip8.Ld.Name, layoutXY},
	OpOr:      {chip8.Or.Name, layoutXY},
	OpAnd:     {chip8.And.Name, layoutXY},
	OpXor:     {chip8.Xor.Name, layoutXY},
	OpAddReg:  {chip8.Add.Name, layoutXY},
	OpSub:     {chip8.Sub.Name, layoutXY},
	OpShr:     {chip8.Shr.Name, layoutXY},
	OpSubn:    {chip8.Subn.Name, layoutXY},
	OpShl:     {chip8.Shl.Name, layoutXY},
	OpSneReg:  {chip8.Sne.Name, layoutXY},
	OpLdI:     {chip8.Ld.Name, layoutNNN},
	OpJpV0:    {chip8.Jp.Name, layoutNNN},
	OpRnd:     {chip8.Rnd.Name, layoutXNN},
	OpDrw:     {chip8.Drw.Name, layoutXYN},
	OpSkp:     {chip8.Skp.Name, layoutX},
	OpSknp:    {chip8.Sknp.Name, layoutX},
	OpLdVxDT:  {chip8.Ld.Name, layoutX},
	OpLdKey:   {chip8.Ld.Name, layoutX},
	OpLdDTVx:  {chip8.Ld.Name, layoutX},
	OpLdSTVx:  {chip8.Ld.Name, layoutX},
	OpAddI:    {chip8.Add.Name, layoutX},
	OpLdF:     {chip8.Ld.Name, layoutX},
	OpLdB:     {chip8.Ld.Name, layoutX},
	OpStore:   {chip8.Ld.Name, layoutX},
	OpLoad:    {chip8.Ld.Name, layoutX},
}

func (op Op) Name() string {
	if op >= opCount {
		return fmt.Sprintf("Op(%d)", uint8(op))
	}
	return opInfos[op].name
}

// Instruction is a decoded opcode. Every operand field is extracted from the
// word regardless of class; Op says which of them are meaningful.
type Instruction struct {
	Op    Op
	Class uint8  // top nibble
	X     uint8  // second nibble
	Y     uint8  // third nibble
	N     uint8  // low nibble
	NN    uint8  // low byte
	NNN   uint16 // low 12 bits
}

// Decode maps any 16-bit word to an instruction; words outside the
// instruction set decode with Op set to OpUnknown.
func Decode(opcode uint16) Instruction {
	return Instruction{
		Op:    decodeOp(opcode),
		Class: uint8((opcode & 0xF000) >> 12),
		X:     uint8((opcode & 0x0F00) >> 8),
		Y:     uint8((opcode & 0x00F0) >> 4),
		N:     uint8(opcode & 0x000F),
		NN:    uint8(opcode & 0x00FF),
		NNN:   opcode & 0x0FFF,
	}
}

func decodeOp(opcode uint16) Op {
	switch opcode & 0xF000 {
	case 0x0000:
		switch opcode {
		case 0x00E0:
			return OpCls
		case 0x00EE:
			return OpRet
		}

	case 0x1000:
		return OpJp

	case 0x2000:
		return OpCall

	case 0x3000:
		return OpSeImm

	case 0x4000:
		return OpSneImm

	case 0x5000:
		if opcode&0x000F == 0 {
			return OpSeReg
		}

	case 0x6000:
		return OpLdImm

	case 0x7000:
		return OpAddImm

	case 0x8000:
		switch opcode & 0x000F {
		case 0x0000:
			return OpLdReg
		case 0x0001:
			return OpOr
		case 0x0002:
			return OpAnd
		case 0x0003:
			return OpXor
		case 0x0004:
			return OpAddReg
		case 0x0005:
			return OpSub
		case 0x0006:
			return OpShr
		case 0x0007:
			return OpSubn
		case 0x000E:
			return OpShl
		}

	case 0x9000:
		if opcode&0x000F == 0 {
			return OpSneReg
		}

	case 0xA000:
		return OpLdI

	case 0xB000:
		return OpJpV0

	case 0xC000:
		return OpRnd

	case 0xD000:
		return OpDrw

	case 0xE000:
		switch opcode & 0x00FF {
		case 0x009E:
			return OpSkp
		case 0x00A1:
			return OpSknp
		}

	case 0xF000:
		switch opcode & 0x00FF {
		case 0x0007:
			return OpLdVxDT
		case 0x000A:
			return OpLdKey
		case 0x0015:
			return OpLdDTVx
		case 0x0018:
			return OpLdSTVx
		case 0x001E:
			return OpAddI
		case 0x0029:
			return OpLdF
		case 0x0033:
			return OpLdB
		case 0x0055:
			return OpStore
		case 0x0065:
			return OpLoad
		}
	}

	return OpUnknown
}

// Encode rebuilds the opcode word from the class nibble and the operand
// fields used by the instruction's layout.
func (in Instruction) Encode() uint16 {
	class := uint16(in.Class&0x0F) << 12
	x := uint16(in.X&0x0F) << 8
	y := uint16(in.Y&0x0F) << 4
	n := uint16(in.N & 0x0F)

	var l layout
	if in.Op < opCount {
		l = opInfos[in.Op].layout
	}

	switch l {
	case layoutXNN, layoutX:
		return class | x | uint16(in.NN)
	case layoutXY, layoutXYN:
		return class | x | y | n
	default:
		return class | in.NNN&0x0FFF
	}
}

// Format disassembles the instruction as it executes under q.
func (in Instruction) Format(q Quirks) string {
	if in.Op == OpJpV0 && q.JumpWithVX {
		return fmt.Sprintf("%s V%X, $%03X", in.Op.Name(), in.X&0x0F, in.NNN)
	}
	return in.String()
}

// String disassembles the instruction.
func (in Instruction) String() string {
	name := in.Op.Name()

	switch in.Op {
	case OpCls, OpRet:
		return name
	case OpJp, OpCall:
		return fmt.Sprintf("%s $%03X", name, in.NNN)
	case OpSeImm, OpSneImm, OpLdImm, OpAddImm, OpRnd:
		return fmt.Sprintf("%s V%X, $%02X", name, in.X, in.NN)
	case OpSeReg, OpSneReg, OpLdReg, OpOr, OpAnd, OpXor, OpAddReg, OpSub, OpShr, OpSubn, OpShl:
		return fmt.Sprintf("%s V%X, V%X", name, in.X, in.Y)
	case OpLdI:
		return fmt.Sprintf("%s I, $%03X", name, in.NNN)
	case OpJpV0:
		return fmt.Sprintf("%s V0, $%03X", name, in.NNN)
	case OpDrw:
		return fmt.Sprintf("%s V%X, V%X, $%X", name, in.X, in.Y, in.N)
	case OpSkp, OpSknp:
		return fmt.Sprintf("%s V%X", name, in.X)
	case OpLdVxDT:
		return fmt.Sprintf("%s V%X, DT", name, in.X)
	case OpLdKey:
		return fmt.Sprintf("%s V%X, K", name, in.X)
	case OpLdDTVx:
		return fmt.Sprintf("%s DT, V%X", name, in.X)
	case OpLdSTVx:
		return fmt.Sprintf("%s ST, V%X", name, in.X)
	case OpAddI:
		return fmt.Sprintf("%s I, V%X", name, in.X)
	case OpLdF:
		return fmt.Sprintf("%s F, V%X", name, in.X)
	case OpLdB:
		return fmt.Sprintf("%s B, V%X", name, in.X)
	case OpStore:
		return fmt.Sprintf("%s [I], V%X", name, in.X)
	case OpLoad:
		return fmt.Sprintf("%s V%X, [I]", name, in.X)
	default:
		return fmt.Sprintf("%s $%04X", name, in.Encode())
	}
}
