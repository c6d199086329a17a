package cartridge

import "testing"

func romWithMapper(t *testing.T, mapperID uint8) *Cartridge {
	t.Helper()
	cart, err := NewTestROMBuilder().WithMapper(mapperID).WithPRGSize(2).WithCHRSize(1).BuildCartridge()
	if err != nil {
		t.Fatalf("build mapper %d rom: %v", mapperID, err)
	}
	return cart
}

func TestLoadRejectsBadMagic(t *testing.T) {
	data := make([]byte, 16+16384)
	copy(data, []byte("BAD\x1A"))
	data[4] = 1
	if _, err := LoadFromBytes(data); err == nil {
		t.Fatal("expected error for bad magic")
	}
}

func TestLoadRejectsZeroPRGSize(t *testing.T) {
	data := make([]byte, 16)
	copy(data, []byte("NES\x1A"))
	if _, err := LoadFromBytes(data); err == nil {
		t.Fatal("expected error for zero PRG size")
	}
}

func TestUnsupportedMapperAbortsLoad(t *testing.T) {
	_, err := NewTestROMBuilder().WithMapper(99).BuildCartridge()
	if err == nil {
		t.Fatal("expected UnsupportedMapperError")
	}
	var target *UnsupportedMapperError
	if !asUnsupported(err, &target) {
		t.Fatalf("expected UnsupportedMapperError, got %v", err)
	}
	if target.MapperID != 99 {
		t.Fatalf("expected mapper id 99, got %d", target.MapperID)
	}
}

func asUnsupported(err error, target **UnsupportedMapperError) bool {
	if e, ok := err.(*UnsupportedMapperError); ok {
		*target = e
		return true
	}
	return false
}

func TestNROMLoadsAndMirrors16KB(t *testing.T) {
	cart, err := NewTestROMBuilder().WithPRGSize(1).BuildCartridge()
	if err != nil {
		t.Fatalf("build rom: %v", err)
	}
	if cart.MapperID() != 0 {
		t.Fatalf("expected mapper 0, got %d", cart.MapperID())
	}
	cart.prgROM[0] = 0xA5
	if got := cart.ReadPRG(0x8000); got != 0xA5 {
		t.Fatalf("ReadPRG(0x8000) = 0x%02X, want 0xA5", got)
	}
	if got := cart.ReadPRG(0xC000); got != 0xA5 {
		t.Fatalf("ReadPRG(0xC000) = 0x%02X, want 0xA5 (16KB mirrored)", got)
	}
}

func TestHeaderDrivenCHRRAMDetection(t *testing.T) {
	cart, err := NewTestROMBuilder().WithPRGSize(1).WithCHRSize(0).BuildCartridge()
	if err != nil {
		t.Fatalf("build rom: %v", err)
	}
	if !cart.HasCHRRAM() {
		t.Fatal("expected CHR-RAM when header CHR size is zero")
	}
	cart.WriteCHR(0x0000, 0x42)
	if got := cart.ReadCHR(0x0000); got != 0x42 {
		t.Fatalf("expected CHR-RAM write to stick, got 0x%02X", got)
	}
}

func TestCHRROMIsReadOnly(t *testing.T) {
	cart := romWithMapper(t, 0)
	before := cart.ReadCHR(0x0000)
	cart.WriteCHR(0x0000, before^0xFF)
	if got := cart.ReadCHR(0x0000); got != before {
		t.Fatalf("expected CHR-ROM write to be ignored, got 0x%02X want 0x%02X", got, before)
	}
}

func TestSRAMRoundTrips(t *testing.T) {
	cart := romWithMapper(t, 0)
	cart.WritePRG(0x6000, 0x7A)
	if got := cart.ReadPRG(0x6000); got != 0x7A {
		t.Fatalf("expected SRAM write to stick, got 0x%02X", got)
	}
}

func TestMirroringFromHeader(t *testing.T) {
	cart, err := NewTestROMBuilder().WithMirroring(MirrorVertical).BuildCartridge()
	if err != nil {
		t.Fatalf("build rom: %v", err)
	}
	if cart.GetMirrorMode() != MirrorVertical {
		t.Fatalf("expected vertical mirroring, got %v", cart.GetMirrorMode())
	}
}
