package ppu

import (
	"testing"

	"gones/internal/memory"
)

// MockCartridge implements a simple cartridge for testing.
type MockCartridge struct {
	chrData [0x2000]uint8
}

func NewMockCartridge() *MockCartridge { return &MockCartridge{} }

func (m *MockCartridge) ReadPRG(address uint16) uint8        { return 0 }
func (m *MockCartridge) WritePRG(address uint16, value uint8) {}
func (m *MockCartridge) ReadCHR(address uint16) uint8 {
	return m.chrData[address&0x1FFF]
}
func (m *MockCartridge) WriteCHR(address uint16, value uint8) {
	m.chrData[address&0x1FFF] = value
}
func (m *MockCartridge) SetCHRByte(address uint16, value uint8) {
	m.chrData[address&0x1FFF] = value
}

func newTestPPUMemory() (*memory.PPUMemory, *MockCartridge) {
	mockCart := NewMockCartridge()
	ppuMem := memory.NewPPUMemory(mockCart, memory.MirrorHorizontal)
	return ppuMem, mockCart
}

func TestPPUCreation(t *testing.T) {
	p := New()
	if p.scanline != -1 {
		t.Errorf("expected initial scanline -1, got %d", p.scanline)
	}
	if p.cycle != 0 {
		t.Errorf("expected initial cycle 0, got %d", p.cycle)
	}
}

func TestPPUResetPowerUpStatus(t *testing.T) {
	p := New()
	p.ppuStatus = 0
	p.v, p.t, p.x, p.w = 0x2000, 0x1000, 7, true
	p.Reset()

	if p.ppuStatus != 0xA0 {
		t.Errorf("expected PPUSTATUS 0xA0 after reset, got %02X", p.ppuStatus)
	}
	if p.v != 0 || p.t != 0 || p.x != 0 || p.w != false {
		t.Error("expected v/t/x/w cleared after reset")
	}
}

func TestPPUStatusReadClearsVBlankAndLatchOnly(t *testing.T) {
	p := New()
	p.Reset()
	p.ppuStatus = 0x80
	p.w = true
	p.sprite0Hit = true

	status := p.ReadRegister(0x2002)
	if status&0x80 == 0 {
		t.Error("expected vblank bit set in read value")
	}
	if p.ppuStatus&0x80 != 0 {
		t.Error("expected vblank flag cleared after status read")
	}
	if p.w {
		t.Error("expected write latch cleared after status read")
	}
	if !p.sprite0Hit {
		t.Error("status read must not clear sprite-0-hit; that only clears at pre-render dot 1")
	}
}

func TestPPUControlWriteUpdatesTAndTriggersImmediateNMI(t *testing.T) {
	p := New()
	p.Reset()
	p.ppuStatus = 0x80 // vblank already active

	nmiCount := 0
	p.SetNMICallback(func() { nmiCount++ })

	p.WriteRegister(0x2000, 0x93)
	if p.ppuCtrl != 0x93 {
		t.Errorf("expected PPUCTRL 0x93, got %02X", p.ppuCtrl)
	}
	expectedT := uint16(0x93&0x03) << 10
	if p.t&0x0C00 != expectedT {
		t.Errorf("expected t nametable bits %04X, got %04X", expectedT, p.t&0x0C00)
	}
	if nmiCount != 1 {
		t.Errorf("expected toggling NMI-enable while vblank is set to fire NMI once, got %d", nmiCount)
	}
}

func TestPPUMaskWriteUpdatesRenderingFlags(t *testing.T) {
	p := New()
	p.Reset()
	p.WriteRegister(0x2001, 0x1E)
	if !p.backgroundEnabled || !p.spritesEnabled || !p.renderingEnabled {
		t.Error("expected background, sprite, and overall rendering enabled")
	}
}

func TestOAMAddressAndDataRegisters(t *testing.T) {
	p := New()
	p.Reset()
	p.WriteRegister(0x2003, 0x10)
	p.WriteRegister(0x2004, 0xAB)
	if p.oam[0x10] != 0xAB {
		t.Errorf("expected OAM[0x10]=0xAB, got %02X", p.oam[0x10])
	}
	if p.oamAddr != 0x11 {
		t.Errorf("expected OAMADDR auto-increment to 0x11, got %02X", p.oamAddr)
	}
	p.oamAddr = 0x10
	if data := p.ReadRegister(0x2004); data != 0xAB {
		t.Errorf("expected OAM read 0xAB, got %02X", data)
	}
}

func TestPPUScrollWriteSequence(t *testing.T) {
	p := New()
	p.Reset()
	p.WriteRegister(0x2005, 0x7D) // 0111 1101
	if p.t&0x001F != 0x0F {
		t.Errorf("expected coarse X 0x0F, got %02X", p.t&0x001F)
	}
	if p.x != 0x05 {
		t.Errorf("expected fine X 5, got %d", p.x)
	}
	if !p.w {
		t.Error("expected write latch set after first PPUSCROLL write")
	}

	p.WriteRegister(0x2005, 0xB6) // 1011 0110
	if p.t&0x03E0 != uint16(0xB6&0xF8)<<2 {
		t.Errorf("unexpected coarse Y bits %04X", p.t&0x03E0)
	}
	if p.t&0x7000 != uint16(0xB6&0x07)<<12 {
		t.Errorf("unexpected fine Y bits %04X", p.t&0x7000)
	}
	if p.w {
		t.Error("expected write latch cleared after second PPUSCROLL write")
	}
}

func TestPPUAddrWriteSequence(t *testing.T) {
	p := New()
	p.Reset()
	p.WriteRegister(0x2006, 0x23)
	if !p.w {
		t.Error("expected write latch set after first PPUADDR write")
	}
	p.WriteRegister(0x2006, 0x45)
	want := uint16(0x23&0x3F)<<8 | 0x45
	if p.v != want || p.t != want {
		t.Errorf("expected v=t=%04X, got v=%04X t=%04X", want, p.v, p.t)
	}
	if p.w {
		t.Error("expected write latch cleared after second PPUADDR write")
	}
}

func TestPPUDataReadIsBufferedExceptForPalette(t *testing.T) {
	ppuMem, _ := newTestPPUMemory()
	ppuMem.Write(0x2000, 0x11)
	ppuMem.Write(0x3F00, 0x33)

	p := New()
	p.SetMemory(ppuMem)
	p.Reset()

	p.v = 0x2000
	if first := p.ReadRegister(0x2007); first != 0 {
		t.Errorf("expected first buffered read to return stale 0, got %02X", first)
	}
	if second := p.ReadRegister(0x2007); second != 0x11 {
		t.Errorf("expected second read to return buffered 0x11, got %02X", second)
	}

	p.v = 0x3F00
	if paletteRead := p.ReadRegister(0x2007); paletteRead != 0x33 {
		t.Errorf("expected immediate palette read 0x33, got %02X", paletteRead)
	}
}

func TestPPUDataIncrementModes(t *testing.T) {
	p := New()
	p.SetMemory(nil)
	p.Reset()

	p.ppuCtrl = 0x00
	p.v = 0x2000
	p.WriteRegister(0x2007, 0x42)
	if p.v != 0x2001 {
		t.Errorf("expected increment by 1, got %04X", p.v)
	}

	p.ppuCtrl = 0x04
	p.v = 0x2000
	p.WriteRegister(0x2007, 0x42)
	if p.v != 0x2020 {
		t.Errorf("expected increment by 32, got %04X", p.v)
	}
}

func TestPPUAddressWrapsAt14Bits(t *testing.T) {
	p := New()
	p.SetMemory(nil)
	p.Reset()
	p.v = 0x3FFF
	p.WriteRegister(0x2007, 0x42)
	if p.v != 0x0000 {
		t.Errorf("expected address to wrap to 0x0000, got %04X", p.v)
	}
}

// TestScanlineCycleWraparound checks the 341-dot, 262-scanline frame shape.
func TestScanlineCycleWraparound(t *testing.T) {
	p := New()
	p.Reset()
	for i := 0; i < 341; i++ {
		p.Step()
	}
	if p.scanline != 0 || p.cycle != 0 {
		t.Errorf("expected wraparound to scanline 0 cycle 0 after 341 dots, got scanline=%d cycle=%d", p.scanline, p.cycle)
	}
}

func TestFrameCompletesAfterFullFrame(t *testing.T) {
	p := New()
	p.Reset()
	completed := false
	p.SetFrameCompleteCallback(func() { completed = true })

	totalDots := 341 * 262
	for i := 0; i < totalDots; i++ {
		p.Step()
	}
	if !completed {
		t.Error("expected frame-complete callback after one full frame")
	}
	if p.GetFrameCount() != 1 {
		t.Errorf("expected frame count 1, got %d", p.GetFrameCount())
	}
}

func TestVBlankSetsAndTriggersNMIAtScanline241Dot1(t *testing.T) {
	p := New()
	p.Reset()
	p.ppuCtrl = 0x80
	nmiFired := false
	p.SetNMICallback(func() { nmiFired = true })

	dotsToScanline241Dot1 := 341*242 + 1
	for i := 0; i < dotsToScanline241Dot1; i++ {
		p.Step()
	}
	if !p.IsVBlank() {
		t.Error("expected vblank flag set at scanline 241 dot 1")
	}
	if !nmiFired {
		t.Error("expected NMI to fire at vblank start when NMI-enable is set")
	}
}

func TestSprite0HitAndOverflowClearAtPreRenderDot1(t *testing.T) {
	p := New()
	p.Reset()
	p.sprite0Hit = true
	p.spriteOverflow = true
	p.scanline, p.cycle = -1, 0
	p.Step()
	if p.sprite0Hit || p.spriteOverflow {
		t.Error("expected sprite-0-hit and sprite-overflow cleared at pre-render dot 1")
	}
}

// TestSprite0HitScenario reproduces a sprite-0 hit at a known scanline/dot:
// an opaque background pixel and an opaque sprite-0 pixel overlapping at
// x=16 on scanline 30 must assert PPUSTATUS bit 6.
func TestSprite0HitScenario(t *testing.T) {
	ppuMem, mockCart := newTestPPUMemory()
	p := New()
	p.SetMemory(ppuMem)
	p.Reset()
	p.WriteRegister(0x2001, 0x18) // background + sprites enabled

	// Opaque background tile (pattern 1, all 8 rows) covering the whole
	// nametable, so scanline 30 has an opaque background pixel at x=16.
	for row := uint16(0); row < 8; row++ {
		mockCart.SetCHRByte(0x0010+row, 0xFF)
		mockCart.SetCHRByte(0x0018+row, 0x00)
	}
	for i := uint16(0); i < 960; i++ {
		ppuMem.Write(0x2000+i, 0x01)
	}
	ppuMem.Write(0x3F00, 0x0F)
	ppuMem.Write(0x3F01, 0x16)

	// Sprite 0: opaque pattern tile 2 at x=16, y=29 (appears on row 30).
	mockCart.SetCHRByte(0x0020, 0xFF)
	mockCart.SetCHRByte(0x0028, 0x00)
	p.oam[0] = 29
	p.oam[1] = 2
	p.oam[2] = 0x00
	p.oam[3] = 16

	dotsToLine30 := 341 * 31
	for i := 0; i < dotsToLine30; i++ {
		p.Step()
	}
	for i := 0; i < 341; i++ {
		p.Step()
		if hit, _ := p.SpriteFlags(); hit {
			return
		}
	}
	t.Fatal("expected sprite-0 hit to be asserted on scanline 30")
}

func TestOAMDMAWritesLandInOAM(t *testing.T) {
	p := New()
	p.Reset()
	data := []uint8{0x10, 0x20, 0x30, 0x40}
	for i, b := range data {
		p.WriteOAM(uint8(i), b)
	}
	for i, want := range data {
		if p.oam[i] != want {
			t.Errorf("OAM[%d]: expected %02X, got %02X", i, want, p.oam[i])
		}
	}
}

func TestWriteOnlyRegistersReadAsStatusLowBits(t *testing.T) {
	p := New()
	p.Reset()
	p.ppuStatus = 0xE5
	for _, reg := range []uint16{0x2000, 0x2001, 0x2003, 0x2005, 0x2006} {
		if data := p.ReadRegister(reg); data != p.ppuStatus&0x1F {
			t.Errorf("register %04X: expected %02X, got %02X", reg, p.ppuStatus&0x1F, data)
		}
	}
}

func TestSaveRestoreRoundTripsInternalState(t *testing.T) {
	p := New()
	p.Reset()
	p.SetInternalRegisters(0x1234, 0x0ABC, 5, true)
	p.SetRegisterState(0x80, 0x1E, 0xE0, 0x20)
	p.SetScanAndCycle(100, 200)
	p.SetFrameCount(42)
	oam := p.OAM()
	oam[5] = 0x99
	p.SetOAM(oam)

	v, tReg, x, w := p.InternalRegisters()
	if v != 0x1234 || tReg != 0x0ABC || x != 5 || !w {
		t.Error("internal registers did not round-trip")
	}
	ctrl, mask, status, oamAddr := p.RegisterState()
	if ctrl != 0x80 || mask != 0x1E || status != 0xE0 || oamAddr != 0x20 {
		t.Error("register state did not round-trip")
	}
	if p.GetScanline() != 100 || p.GetCycle() != 200 {
		t.Error("scanline/cycle did not round-trip")
	}
	if p.GetFrameCount() != 42 {
		t.Error("frame count did not round-trip")
	}
	if p.OAM()[5] != 0x99 {
		t.Error("OAM did not round-trip")
	}
}
