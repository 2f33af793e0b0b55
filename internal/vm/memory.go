package vm

// Memory is the flat 4K address space. 0x000-0x1FF is reserved for the
// interpreter and holds the font; programs load at ProgramStart.
type Memory [MemorySize]uint8

var chip8Font = [16 * FontGlyphSize]uint8{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// fontAddr returns the address of the glyph for the low nibble of digit.
func fontAddr(digit uint8) uint16 {
	return FontStart + uint16(digit&0x0F)*FontGlyphSize
}

func (m *Memory) Read(addr uint16) (uint8, error) {
	if int(addr) >= MemorySize {
		return 0, &AccessError{Addr: addr}
	}
	return m[addr], nil
}

// ReadWord reads the big-endian word at addr.
func (m *Memory) ReadWord(addr uint16) (uint16, error) {
	if int(addr)+1 >= MemorySize {
		return 0, &AccessError{Addr: addr}
	}

	hi := m[addr]
	lo := m[addr+1]
	return uint16(hi)<<8 | uint16(lo), nil
}

// Write stores data starting at addr. Nothing is written unless the whole
// range lies in program space.
func (m *Memory) Write(addr uint16, data ...uint8) error {
	if len(data) == 0 {
		return nil
	}
	if err := checkWritable(addr, len(data)); err != nil {
		return err
	}
	copy(m[addr:], data)
	return nil
}

// checkReadable verifies that n bytes starting at addr are addressable.
func checkReadable(addr uint16, n int) error {
	if n == 0 {
		return nil
	}
	if last := int(addr) + n - 1; last >= MemorySize {
		return &AccessError{Addr: uint16(last)}
	}
	return nil
}

// checkWritable verifies that n bytes starting at addr lie in program space.
func checkWritable(addr uint16, n int) error {
	if n == 0 {
		return nil
	}
	if addr < ProgramStart {
		return &AccessError{Addr: addr, Write: true}
	}
	if last := int(addr) + n - 1; last >= MemorySize {
		return &AccessError{Addr: uint16(last), Write: true}
	}
	return nil
}

// load copies data without the reserved-region check; used on reset only.
func (m *Memory) load(addr uint16, data []byte) {
	copy(m[addr:], data)
}
