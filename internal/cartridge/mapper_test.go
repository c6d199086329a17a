package cartridge

import "testing"

func newCartWithPRGBanks(t *testing.T, mapperID uint8, banks16k uint8) *Cartridge {
	t.Helper()
	cart, err := NewTestROMBuilder().WithMapper(mapperID).WithPRGSize(banks16k).WithCHRSize(0).BuildCartridge()
	if err != nil {
		t.Fatalf("build mapper %d rom: %v", mapperID, err)
	}
	// Stamp a distinguishing first byte into every 16KB bank so bank
	// switches are observable.
	for b := 0; b < int(banks16k); b++ {
		cart.prgROM[b*0x4000] = uint8(b)
	}
	return cart
}

func TestMMC1BankSwitchScenario(t *testing.T) {
	cart := newCartWithPRGBanks(t, 1, 4)

	// Five consecutive writes of 1,0,0,0,0 to 0xE000 set the PRG bank
	// register to 1 (§8 scenario 4).
	for _, bit := range []uint8{1, 0, 0, 0, 0} {
		cart.WritePRG(0xE000, bit)
	}

	if got := cart.ReadPRG(0x8000); got != 1 {
		t.Fatalf("expected 0x8000 to read PRG bank 1's first byte (1), got %d", got)
	}
	lastBank := 3 // banks16k=4 -> last bank index 3
	if got := cart.ReadPRG(0xC000); got != uint8(lastBank) {
		t.Fatalf("expected 0xC000 to still read the fixed last bank (%d), got %d", lastBank, got)
	}
}

func TestMMC1ResetResyncsShiftRegister(t *testing.T) {
	cart := newCartWithPRGBanks(t, 1, 4)
	cart.WritePRG(0x8000, 1) // partial write into shift register
	cart.WritePRG(0x8000, 0x80) // reset bit set: must clear the shift register
	for _, bit := range []uint8{1, 0, 0, 0, 0} {
		cart.WritePRG(0xE000, bit)
	}
	if got := cart.ReadPRG(0x8000); got != 1 {
		t.Fatalf("expected clean commit after reset, got %d", got)
	}
}

func TestMMC1MirroringFromControl(t *testing.T) {
	cart := newCartWithPRGBanks(t, 1, 2)
	m := cart.mapper.(*MMC1)
	writeMMC1(cart, 0x8000, 0x02) // control = 2 -> vertical
	if m.Mirroring() != MirrorVertical {
		t.Fatalf("expected vertical mirroring, got %v", m.Mirroring())
	}
	writeMMC1(cart, 0x8000, 0x03) // control = 3 -> horizontal
	if m.Mirroring() != MirrorHorizontal {
		t.Fatalf("expected horizontal mirroring, got %v", m.Mirroring())
	}
}

func writeMMC1(cart *Cartridge, addr uint16, value5bit uint8) {
	for i := 0; i < 5; i++ {
		cart.WritePRG(addr, (value5bit>>uint(i))&1)
	}
}

func TestUxROMBankSwitchAndFixedLast(t *testing.T) {
	cart := newCartWithPRGBanks(t, 2, 4)
	cart.WritePRG(0x8000, 2)
	if got := cart.ReadPRG(0x8000); got != 2 {
		t.Fatalf("expected switched bank 2, got %d", got)
	}
	if got := cart.ReadPRG(0xC000); got != 3 {
		t.Fatalf("expected fixed last bank (3), got %d", got)
	}
}

func TestMapper71BankSwitchAndFixedLast(t *testing.T) {
	cart := newCartWithPRGBanks(t, 71, 4)
	cart.WritePRG(0xC000, 1)
	if got := cart.ReadPRG(0x8000); got != 1 {
		t.Fatalf("expected switched bank 1, got %d", got)
	}
	if got := cart.ReadPRG(0xC000); got != 3 {
		t.Fatalf("expected fixed last bank (3), got %d", got)
	}
}

func TestMapper71SingleScreenMirroringOverride(t *testing.T) {
	cart := newCartWithPRGBanks(t, 71, 2)
	m := cart.mapper.(*Mapper71)
	cart.WritePRG(0x9000, 0x10)
	if m.Mirroring() != MirrorSingleScreen1 {
		t.Fatalf("expected single-screen-1, got %v", m.Mirroring())
	}
	cart.WritePRG(0x9000, 0x00)
	if m.Mirroring() != MirrorSingleScreen0 {
		t.Fatalf("expected single-screen-0, got %v", m.Mirroring())
	}
}
