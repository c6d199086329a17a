// Package memory implements the CPU and PPU address spaces of the console,
// plus a generic bankable window primitive mappers can build on.
package memory

// Memory represents the NES CPU memory map.
type Memory struct {
	ram [0x800]uint8 // 2KB internal RAM, mirrored four times up to 0x1FFF

	ppuRegisters PPUInterface
	apuRegisters APUInterface
	inputSystem  InputInterface
	cartridge    CartridgeInterface

	dmaCallback func(uint8)

	// openBusValue latches the last value read from the bus and is kept in
	// save states; reads from unmapped addresses return 0, not this latch.
	openBusValue uint8
}

// PPUMemory represents the PPU's own 14-bit address space: pattern tables
// (delegated to the mapper), nametables, and palette RAM.
type PPUMemory struct {
	vram       [0x1000]uint8 // 4KB VRAM backing up to four logical nametables
	paletteRAM [32]uint8
	cartridge  CartridgeInterface
	mirroring  MirrorMode
}

// MirrorMode represents nametable mirroring mode.
type MirrorMode uint8

const (
	MirrorHorizontal MirrorMode = iota
	MirrorVertical
	MirrorSingleScreen0
	MirrorSingleScreen1
	MirrorFourScreen
)

// PPUInterface defines the interface for PPU register access.
type PPUInterface interface {
	ReadRegister(address uint16) uint8
	WriteRegister(address uint16, value uint8)
}

// APUInterface defines the interface for APU register access.
type APUInterface interface {
	WriteRegister(address uint16, value uint8)
	ReadStatus() uint8
}

// InputInterface defines the interface for input system access.
type InputInterface interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// CartridgeInterface defines the interface for cartridge access.
type CartridgeInterface interface {
	ReadPRG(address uint16) uint8
	WritePRG(address uint16, value uint8)
	ReadCHR(address uint16) uint8
	WriteCHR(address uint16, value uint8)
}

// New creates a new Memory instance.
func New(ppu PPUInterface, apu APUInterface, cart CartridgeInterface) *Memory {
	return &Memory{
		ppuRegisters: ppu,
		apuRegisters: apu,
		cartridge:    cart,
	}
}

// SetInputSystem sets the input system for controller access.
func (m *Memory) SetInputSystem(input InputInterface) {
	m.inputSystem = input
}

// SetDMACallback sets the DMA callback function.
func (m *Memory) SetDMACallback(callback func(uint8)) {
	m.dmaCallback = callback
}

// Read reads a byte from the given address.
func (m *Memory) Read(address uint16) uint8 {
	var value uint8

	switch {
	case address < 0x2000:
		value = m.ram[address&0x07FF]

	case address < 0x4000:
		value = m.ppuRegisters.ReadRegister(0x2000 + (address & 0x0007))

	case address < 0x4020:
		switch address {
		case 0x4015:
			value = m.apuRegisters.ReadStatus()
		case 0x4016, 0x4017:
			if m.inputSystem != nil {
				value = m.inputSystem.Read(address)
			}
		default:
			value = 0
		}

	case address >= 0x6000 && address < 0x8000:
		if m.cartridge != nil {
			value = m.cartridge.ReadPRG(address)
		} else {
			value = 0
		}

	case address < 0x8000:
		value = 0

	default:
		if m.cartridge != nil {
			value = m.cartridge.ReadPRG(address)
		} else {
			value = 0
		}
	}

	m.openBusValue = value
	return value
}

// Write writes a byte to the given address.
func (m *Memory) Write(address uint16, value uint8) {
	switch {
	case address < 0x2000:
		m.ram[address&0x07FF] = value

	case address < 0x4000:
		m.ppuRegisters.WriteRegister(0x2000+(address&0x0007), value)

	case address < 0x4020:
		switch {
		case address == 0x4014:
			if m.dmaCallback != nil {
				m.dmaCallback(value)
			} else {
				m.performOAMDMA(value)
			}
		case address == 0x4016:
			if m.inputSystem != nil {
				m.inputSystem.Write(address, value)
			}
		case address >= 0x4000 && address <= 0x4013, address == 0x4015, address == 0x4017:
			m.apuRegisters.WriteRegister(address, value)
		}
		// Test-mode registers ($4018-$401F) are ignored.

	case address >= 0x6000 && address < 0x8000:
		if m.cartridge != nil {
			m.cartridge.WritePRG(address, value)
		}

	case address < 0x8000:
		// Cartridge expansion area, unmapped.

	default:
		if m.cartridge != nil {
			m.cartridge.WritePRG(address, value)
		}
	}
}

// performOAMDMA is the fallback path when no DMA callback is installed;
// production wiring goes through the bus's stall-aware callback instead.
func (m *Memory) performOAMDMA(page uint8) {
	base := uint16(page) << 8
	for i := uint16(0); i < 256; i++ {
		m.ppuRegisters.WriteRegister(0x2004, m.Read(base+i))
	}
}

// NewPPUMemory creates a new PPU memory instance.
func NewPPUMemory(cart CartridgeInterface, mirroring MirrorMode) *PPUMemory {
	mem := &PPUMemory{
		cartridge: cart,
		mirroring: mirroring,
	}
	for i := 0; i < 32; i += 4 {
		mem.paletteRAM[i] = 0x0F
	}
	return mem
}

// SetMirroring updates the active nametable mirroring mode; mappers with
// cartridge-side nametable control (e.g. MMC1) call this on bank writes.
func (pm *PPUMemory) SetMirroring(mode MirrorMode) {
	pm.mirroring = mode
}

// Read reads from PPU memory space ($0000-$3FFF).
func (pm *PPUMemory) Read(address uint16) uint8 {
	address &= 0x3FFF

	switch {
	case address < 0x2000:
		return pm.cartridge.ReadCHR(address)
	case address < 0x3000:
		return pm.readNametable(address)
	case address < 0x3F00:
		return pm.readNametable(address - 0x1000)
	default:
		return pm.readPalette(address)
	}
}

// Write writes to PPU memory space ($0000-$3FFF).
func (pm *PPUMemory) Write(address uint16, value uint8) {
	address &= 0x3FFF

	switch {
	case address < 0x2000:
		pm.cartridge.WriteCHR(address, value)
	case address < 0x3000:
		pm.writeNametable(address, value)
	case address < 0x3F00:
		pm.writeNametable(address-0x1000, value)
	default:
		pm.writePalette(address, value)
	}
}

func (pm *PPUMemory) readNametable(address uint16) uint8 {
	return pm.vram[pm.getNametableIndex(address)]
}

func (pm *PPUMemory) writeNametable(address uint16, value uint8) {
	pm.vram[pm.getNametableIndex(address)] = value
}

// getNametableIndex calculates the actual VRAM index based on mirroring mode.
func (pm *PPUMemory) getNametableIndex(address uint16) uint16 {
	address &= 0x0FFF
	nametable := (address >> 10) & 3
	offset := address & 0x3FF

	switch pm.mirroring {
	case MirrorHorizontal:
		if nametable >= 2 {
			return 0x400 + offset
		}
		return offset
	case MirrorVertical:
		if nametable == 1 || nametable == 3 {
			return 0x400 + offset
		}
		return offset
	case MirrorSingleScreen0:
		return offset
	case MirrorSingleScreen1:
		return 0x400 + offset
	case MirrorFourScreen:
		return uint16(nametable)*0x400 + offset
	default:
		return offset
	}
}

func (pm *PPUMemory) readPalette(address uint16) uint8 {
	index := (address - 0x3F00) & 0x1F
	if index&0x13 == 0x10 {
		index &= 0x0F
	}
	return pm.paletteRAM[index]
}

func (pm *PPUMemory) writePalette(address uint16, value uint8) {
	index := (address - 0x3F00) & 0x1F
	if index&0x13 == 0x10 {
		index &= 0x0F
	}
	pm.paletteRAM[index] = value
}

// Palette exposes the raw 32-byte palette RAM, used by save/restore and by
// the debug-frame renderer.
func (pm *PPUMemory) Palette() [32]uint8 {
	return pm.paletteRAM
}

// SetPalette restores the raw 32-byte palette RAM from a snapshot.
func (pm *PPUMemory) SetPalette(p [32]uint8) {
	pm.paletteRAM = p
}

// VRAM exposes the raw 4KB nametable VRAM for save/restore.
func (pm *PPUMemory) VRAM() [0x1000]uint8 {
	return pm.vram
}

// SetVRAM restores the raw 4KB nametable VRAM from a snapshot.
func (pm *PPUMemory) SetVRAM(v [0x1000]uint8) {
	pm.vram = v
}

// RAM exposes the raw 2KB CPU work RAM for save/restore.
func (m *Memory) RAM() [0x800]uint8 {
	return m.ram
}

// SetRAM restores the raw 2KB CPU work RAM from a snapshot.
func (m *Memory) SetRAM(r [0x800]uint8) {
	m.ram = r
}

// OpenBusValue exposes the last-read latch for save/restore.
func (m *Memory) OpenBusValue() uint8 { return m.openBusValue }

// SetOpenBusValue restores the last-read latch from a snapshot.
func (m *Memory) SetOpenBusValue(v uint8) { m.openBusValue = v }
