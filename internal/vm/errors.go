package vm

import (
	"errors"
	"fmt"
)

var (
	ErrUnrecognizedOpcode = errors.New("unrecognized opcode")
	ErrStackOverflow      = errors.New("stack overflow")
	ErrStackUnderflow     = errors.New("stack underflow")
	ErrOutOfBounds        = errors.New("out of bounds access")
	ErrHalted             = errors.New("machine halted")

	// Frontend requests surfaced through HAL calls.
	ErrReboot = errors.New("reboot")
	ErrQuit   = errors.New("quit")
)

// AccessError reports a memory access outside the addressable range, or a
// write into the reserved interpreter region.
type AccessError struct {
	Addr  uint16
	Write bool
}

func (err *AccessError) Error() string {
	if err.Write {
		return fmt.Sprintf("write to 0x%04x: %v", err.Addr, ErrOutOfBounds)
	}
	return fmt.Sprintf("read from 0x%04x: %v", err.Addr, ErrOutOfBounds)
}

func (err *AccessError) Unwrap() error {
	return ErrOutOfBounds
}

// ExecError locates a failure of a single execute step. Fetched is false when
// the opcode itself could not be read, and Opcode is then meaningless.
type ExecError struct {
	PC      uint16
	Opcode  uint16
	Fetched bool
	Err     error
}

func (err *ExecError) Error() string {
	if !err.Fetched {
		return fmt.Sprintf("pc 0x%04x: fetch: %v", err.PC, err.Err)
	}
	return fmt.Sprintf("pc 0x%04x opcode 0x%04x (%v): %v", err.PC, err.Opcode, Decode(err.Opcode), err.Err)
}

func (err *ExecError) Unwrap() error {
	return err.Err
}
