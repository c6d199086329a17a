package cartridge

// NROM (mapper 0): no bank switching. 16KB PRG-ROM mirrors to fill the
// 32KB window; 32KB PRG-ROM maps directly. CHR is a single fixed 8KB bank,
// ROM or RAM depending on the header.
type NROM struct {
	cart     *Cartridge
	prgBanks int
}

// NewNROM creates a new NROM mapper.
func NewNROM(cart *Cartridge) *NROM {
	return &NROM{cart: cart, prgBanks: len(cart.prgROM) / 0x4000}
}

func (m *NROM) ReadPRG(address uint16) uint8 {
	switch {
	case address >= 0x8000:
		if len(m.cart.prgROM) == 0 {
			return 0
		}
		offset := address - 0x8000
		if m.prgBanks <= 1 {
			offset &= 0x3FFF
		}
		if int(offset) < len(m.cart.prgROM) {
			return m.cart.prgROM[offset]
		}
		return 0
	case address >= 0x6000:
		return m.cart.sram[address-0x6000]
	default:
		return 0
	}
}

func (m *NROM) WritePRG(address uint16, value uint8) {
	if address >= 0x6000 && address < 0x8000 {
		m.cart.sram[address-0x6000] = value
	}
}

func (m *NROM) ReadCHR(address uint16) uint8 {
	if address < 0x2000 && int(address) < len(m.cart.chrROM) {
		return m.cart.chrROM[address]
	}
	return 0
}

func (m *NROM) WriteCHR(address uint16, value uint8) {
	if address < 0x2000 && m.cart.hasCHRRAM && int(address) < len(m.cart.chrROM) {
		m.cart.chrROM[address] = value
	}
}
