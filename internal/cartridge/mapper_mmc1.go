package cartridge

// MMC1 (mapper 1): a 5-bit serial shift register clocked by writes to
// 0x8000-0xFFFF. A reset write (bit 7 set) clears the shift register and
// ORs control with 0x0C (PRG mode 3; the CHR mode bit is left as it was).
// Otherwise, after the fifth
// bit has been shifted in, the accumulated value commits to one of four
// internal registers selected by address bits 13-14 (§4.2).
type MMC1 struct {
	cart *Cartridge

	control  uint8 // bit0-1 mirroring, bit2-3 PRG mode, bit4 CHR mode
	chrBank0 uint8
	chrBank1 uint8
	prgBank  uint8

	loadRegister uint8
	writeCount   uint8

	prgRAMDisabled bool
}

// NewMMC1 creates a new MMC1 mapper with its post-reset control value.
func NewMMC1(cart *Cartridge) *MMC1 {
	return &MMC1{cart: cart, control: 0x0C}
}

func (m *MMC1) WritePRG(address uint16, value uint8) {
	if address < 0x6000 {
		return
	}
	if address < 0x8000 {
		m.cart.sram[address-0x6000] = value
		return
	}

	if value&0x80 != 0 {
		m.loadRegister = 0
		m.writeCount = 0
		m.control |= 0x0C
		return
	}

	m.loadRegister = (m.loadRegister >> 1) | ((value & 1) << 4)
	m.writeCount++
	if m.writeCount < 5 {
		return
	}

	switch (address >> 13) & 3 {
	case 0:
		m.control = m.loadRegister & 0x1F
	case 1:
		m.chrBank0 = m.loadRegister & 0x1F
	case 2:
		m.chrBank1 = m.loadRegister & 0x1F
	case 3:
		m.prgBank = m.loadRegister & 0x1F
		m.prgRAMDisabled = m.loadRegister&0x10 != 0
	}
	m.loadRegister = 0
	m.writeCount = 0
}

func (m *MMC1) ReadPRG(address uint16) uint8 {
	switch {
	case address >= 0x8000:
		bank, offset := m.prgBankFor(address)
		idx := bank*0x4000 + offset
		if idx >= 0 && idx < len(m.cart.prgROM) {
			return m.cart.prgROM[idx]
		}
		return 0
	case address >= 0x6000:
		if m.prgRAMDisabled {
			return 0
		}
		return m.cart.sram[address-0x6000]
	default:
		return 0
	}
}

func (m *MMC1) WriteCHR(address uint16, value uint8) {
	if address >= 0x2000 || !m.cart.hasCHRRAM {
		return
	}
	idx := m.chrIndex(address)
	if idx < len(m.cart.chrROM) {
		m.cart.chrROM[idx] = value
	}
}

func (m *MMC1) ReadCHR(address uint16) uint8 {
	if address >= 0x2000 {
		return 0
	}
	idx := m.chrIndex(address)
	if idx < len(m.cart.chrROM) {
		return m.cart.chrROM[idx]
	}
	return 0
}

func (m *MMC1) prgBankFor(address uint16) (bank, offset int) {
	totalBanks16k := len(m.cart.prgROM) / 0x4000
	if totalBanks16k == 0 {
		return 0, int(address - 0x8000)
	}
	prgMode := (m.control >> 2) & 3

	switch prgMode {
	case 0, 1:
		// 32KB mode: low bit of prgBank is ignored.
		bank32 := int(m.prgBank>>1) % (totalBanks16k / 2)
		if address < 0xC000 {
			return bank32 * 2, int(address - 0x8000)
		}
		return bank32*2 + 1, int(address - 0xC000)
	case 2:
		if address < 0xC000 {
			return 0, int(address - 0x8000)
		}
		return int(m.prgBank) % totalBanks16k, int(address - 0xC000)
	default: // 3
		if address < 0xC000 {
			return int(m.prgBank) % totalBanks16k, int(address - 0x8000)
		}
		return totalBanks16k - 1, int(address - 0xC000)
	}
}

func (m *MMC1) chrIndex(address uint16) int {
	chrMode := (m.control >> 4) & 1
	if chrMode == 0 {
		bank8 := int(m.chrBank0 >> 1)
		return bank8*0x2000 + int(address)
	}
	if address < 0x1000 {
		return int(m.chrBank0)*0x1000 + int(address)
	}
	return int(m.chrBank1)*0x1000 + int(address-0x1000)
}

// Mirroring implements the mirroringOverrider interface: MMC1's control
// register bits 0-1 select one of four nametable arrangements.
func (m *MMC1) Mirroring() MirrorMode {
	switch m.control & 3 {
	case 0:
		return MirrorSingleScreen0
	case 1:
		return MirrorSingleScreen1
	case 2:
		return MirrorVertical
	default:
		return MirrorHorizontal
	}
}

// mmc1State is the serializable subset of MMC1 mutable state.
type mmc1State struct {
	Control, CHRBank0, CHRBank1, PRGBank uint8
	LoadRegister, WriteCount             uint8
	PRGRAMDisabled                       bool
}

// Snapshot implements the stateSnapshotter interface for save/restore.
func (m *MMC1) Snapshot() any {
	return mmc1State{
		Control: m.control, CHRBank0: m.chrBank0, CHRBank1: m.chrBank1, PRGBank: m.prgBank,
		LoadRegister: m.loadRegister, WriteCount: m.writeCount, PRGRAMDisabled: m.prgRAMDisabled,
	}
}

// Restore implements the stateSnapshotter interface for save/restore.
func (m *MMC1) Restore(state any) {
	s, ok := state.(mmc1State)
	if !ok {
		return
	}
	m.control, m.chrBank0, m.chrBank1, m.prgBank = s.Control, s.CHRBank0, s.CHRBank1, s.PRGBank
	m.loadRegister, m.writeCount, m.prgRAMDisabled = s.LoadRegister, s.WriteCount, s.PRGRAMDisabled
}
