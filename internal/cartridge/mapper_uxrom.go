package cartridge

// UxROM (mapper 2): writes anywhere in 0x8000-0xFFFF select the 16KB PRG
// bank switched in at 0x8000; 0xC000 is hardwired to the last bank. CHR is
// always a single fixed 8KB bank (almost always CHR-RAM on real boards).
type UxROM struct {
	cart    *Cartridge
	prgBank uint8
}

// NewUxROM creates a new UxROM mapper.
func NewUxROM(cart *Cartridge) *UxROM {
	return &UxROM{cart: cart}
}

func (m *UxROM) ReadPRG(address uint16) uint8 {
	total := len(m.cart.prgROM) / 0x4000
	switch {
	case address >= 0xC000:
		if total == 0 {
			return 0
		}
		return m.cart.prgROM[(total-1)*0x4000+int(address-0xC000)]
	case address >= 0x8000:
		if total == 0 {
			return 0
		}
		bank := int(m.prgBank) % total
		return m.cart.prgROM[bank*0x4000+int(address-0x8000)]
	case address >= 0x6000:
		return m.cart.sram[address-0x6000]
	default:
		return 0
	}
}

func (m *UxROM) WritePRG(address uint16, value uint8) {
	switch {
	case address >= 0x8000:
		m.prgBank = value
	case address >= 0x6000:
		m.cart.sram[address-0x6000] = value
	}
}

func (m *UxROM) ReadCHR(address uint16) uint8 {
	if address < 0x2000 && int(address) < len(m.cart.chrROM) {
		return m.cart.chrROM[address]
	}
	return 0
}

func (m *UxROM) WriteCHR(address uint16, value uint8) {
	if address < 0x2000 && m.cart.hasCHRRAM && int(address) < len(m.cart.chrROM) {
		m.cart.chrROM[address] = value
	}
}

// Snapshot implements stateSnapshotter.
func (m *UxROM) Snapshot() any { return m.prgBank }

// Restore implements stateSnapshotter.
func (m *UxROM) Restore(state any) {
	if b, ok := state.(uint8); ok {
		m.prgBank = b
	}
}
