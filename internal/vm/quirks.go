package vm

import "fmt"

// Quirks selects between behaviors on which historical interpreters disagree.
// The zero value is the modern behavior.
type Quirks struct {
	// 8XY6/8XYE shift VY into VX instead of shifting VX in place.
	LegacyShift bool
	// FX55/FX65 leave I pointing past the last register transferred.
	IncrementIndexOnBlockIO bool
	// FX1E sets VF when I+VX leaves the 12-bit address space.
	IndexOverflowFlag bool
	// BNNN adds VX (X being the top nibble of NNN) instead of V0.
	JumpWithVX bool
	// DXYN drops pixels beyond the screen edge instead of wrapping them.
	ClipSprites bool
}

func ModernQuirks() Quirks {
	return Quirks{}
}

// COSMACQuirks mirrors the original COSMAC VIP interpreter.
func COSMACQuirks() Quirks {
	return Quirks{
		LegacyShift:             true,
		IncrementIndexOnBlockIO: true,
	}
}

// QuirksByName resolves a preset name.
func QuirksByName(name string) (Quirks, error) {
	switch name {
	case "modern", "":
		return ModernQuirks(), nil
	case "cosmac", "vip":
		return COSMACQuirks(), nil
	default:
		return Quirks{}, fmt.Errorf("unknown quirks preset %q", name)
	}
}

// UnknownOpcodePolicy decides where PC goes after an unrecognized opcode.
type UnknownOpcodePolicy uint8

const (
	// UnknownOpcodeSkip treats the word as a no-op and advances PC.
	UnknownOpcodeSkip UnknownOpcodePolicy = iota
	// UnknownOpcodeHalt leaves PC on the word and halts the scheduler.
	UnknownOpcodeHalt
)

func ParseUnknownOpcodePolicy(s string) (UnknownOpcodePolicy, error) {
	switch s {
	case "skip", "":
		return UnknownOpcodeSkip, nil
	case "halt":
		return UnknownOpcodeHalt, nil
	default:
		return 0, fmt.Errorf("unknown opcode policy %q", s)
	}
}

func (p UnknownOpcodePolicy) String() string {
	switch p {
	case UnknownOpcodeSkip:
		return "skip"
	case UnknownOpcodeHalt:
		return "halt"
	default:
		return fmt.Sprintf("UnknownOpcodePolicy(%d)", uint8(p))
	}
}
