package console

import (
	"os"
	"testing"

	"gones/internal/cartridge"
	"gones/internal/debug"
)

// newLoopCartridge builds a minimal cartridge whose reset vector lands on
// an infinite NOP/JMP loop, matching the pattern used by the bus package's
// own cycle-sync tests.
func newLoopCartridge() *cartridge.MockCartridge {
	rom := make([]uint8, 0x8000)
	rom[0x0000] = 0xEA // NOP
	rom[0x0001] = 0x4C // JMP $8000
	rom[0x0002] = 0x00
	rom[0x0003] = 0x80
	rom[0x7FFC] = 0x00 // reset vector low
	rom[0x7FFD] = 0x80 // reset vector high

	cart := cartridge.NewMockCartridge()
	cart.LoadPRG(rom)
	return cart
}

func TestNewRejectsNilCartridge(t *testing.T) {
	if _, err := New(nil, nil, nil); err == nil {
		t.Fatal("expected an error constructing a console with a nil cartridge")
	}
}

func TestNewAndResetRunsWithoutController(t *testing.T) {
	c, err := New(newLoopCartridge(), nil, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	c.Reset()
	c.TickN(100)
	if c.Bus().GetCycleCount() == 0 {
		t.Error("expected cycle count to advance after ticking")
	}
}

func TestDebugResetForcesTestVectorPC(t *testing.T) {
	c, err := New(newLoopCartridge(), nil, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	c.DebugReset()
	if pc := c.Bus().CPU.PC; pc != 0xC000 {
		t.Errorf("debug_reset PC = %#04x, want 0xC000", pc)
	}
}

func TestTickFramePollsController(t *testing.T) {
	polled := 0
	src := controllerFunc(func() ([8]bool, [8]bool) {
		polled++
		var p1 [8]bool
		p1[0] = true // A held
		return p1, [8]bool{}
	})

	c, err := New(newLoopCartridge(), src, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	c.Reset()
	c.TickFrame()

	if polled != 1 {
		t.Fatalf("expected controller to be polled once per tick_frame, got %d", polled)
	}
	if !c.Bus().Input.Controller1.IsPressed(1) {
		t.Error("expected polled A-button state to reach controller 1")
	}
}

type controllerFunc func() (port1, port2 [8]bool)

func (f controllerFunc) Poll() ([8]bool, [8]bool) { return f() }

func TestGetFrameIsBGRAOrder(t *testing.T) {
	got := bgraBytes([]uint32{0x00112233})
	want := []byte{0x33, 0x22, 0x11, 0xFF}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("bgraBytes(0x00112233) = %v, want %v", got, want)
		}
	}
}

func TestGetFrameAndDebugFrameSizes(t *testing.T) {
	c, err := New(newLoopCartridge(), nil, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if got, want := len(c.GetFrame()), 256*240*4; got != want {
		t.Errorf("GetFrame length = %d, want %d", got, want)
	}
	if got, want := len(c.GetDebugFrame()), 512*480*4; got != want {
		t.Errorf("GetDebugFrame length = %d, want %d", got, want)
	}
}

func TestPPURenderingInfo(t *testing.T) {
	c, _ := New(newLoopCartridge(), nil, nil)
	info := c.PPURenderingInfo()
	if info.Width != 256 || info.Height != 240 {
		t.Errorf("PPURenderingInfo = %+v, want {256 240}", info)
	}
}

func TestLoadPaletteParsesRGBTriples(t *testing.T) {
	data := make([]byte, 64*3)
	// Entry 0: pure red; entry 1: pure green.
	data[0], data[1], data[2] = 0xFF, 0x00, 0x00
	data[3], data[4], data[5] = 0x00, 0xFF, 0x00

	f, err := os.CreateTemp(t.TempDir(), "palette-*.pal")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	if _, err := f.Write(data); err != nil {
		t.Fatalf("Write: %v", err)
	}
	f.Close()

	c, _ := New(newLoopCartridge(), nil, nil)
	if err := c.LoadPalette(f.Name()); err != nil {
		t.Fatalf("LoadPalette: %v", err)
	}

	if got := c.Bus().PPU.NESColorToRGB(0); got&0x00FFFFFF != 0x00FF0000 {
		t.Errorf("color 0 = %#08x, want red (0x00FF0000)", got)
	}
	if got := c.Bus().PPU.NESColorToRGB(1); got&0x00FFFFFF != 0x0000FF00 {
		t.Errorf("color 1 = %#08x, want green (0x0000FF00)", got)
	}
}

func TestLoadPaletteRejectsShortFile(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "palette-*.pal")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	f.Write([]byte{1, 2, 3})
	f.Close()

	c, _ := New(newLoopCartridge(), nil, nil)
	if err := c.LoadPalette(f.Name()); err == nil {
		t.Fatal("expected an error loading a too-short palette file")
	}
}

func TestSaveLoadStateRoundTrip(t *testing.T) {
	const k = 1000

	baseline, err := New(newLoopCartridge(), nil, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	baseline.Reset()
	baseline.TickN(k)
	baseline.TickN(k)
	baselineFrame := baseline.GetFrame()

	roundTrip, err := New(newLoopCartridge(), nil, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	roundTrip.Reset()
	roundTrip.TickN(k)
	saved := roundTrip.SaveState()
	roundTrip.TickN(k) // diverge from the saved point
	roundTrip.LoadState(saved)
	roundTrip.TickN(k) // replay the same K ticks from the restored point

	if roundTrip.Bus().GetCycleCount() != baseline.Bus().GetCycleCount() {
		t.Fatalf("cycle count mismatch: got %d, want %d",
			roundTrip.Bus().GetCycleCount(), baseline.Bus().GetCycleCount())
	}
	if roundTrip.Bus().CPU.PC != baseline.Bus().CPU.PC {
		t.Fatalf("PC mismatch: got %#04x, want %#04x", roundTrip.Bus().CPU.PC, baseline.Bus().CPU.PC)
	}

	roundTripFrame := roundTrip.GetFrame()
	for i := range baselineFrame {
		if baselineFrame[i] != roundTripFrame[i] {
			t.Fatalf("frame buffer diverged at byte %d after save/load round-trip", i)
			break
		}
	}
}

func TestDebugEventMuteStopsAudioPush(t *testing.T) {
	var pushed int
	sink := sinkFunc(func(float32) { pushed++ })

	c, err := New(newLoopCartridge(), nil, sink)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	c.Reset()
	c.TickFrame()
	if pushed == 0 {
		t.Fatal("expected at least one sample pushed before muting")
	}

	c.DebugEvent(debug.EventToggleMute)
	pushed = 0
	c.TickFrame()
	if pushed != 0 {
		t.Errorf("expected no samples pushed while muted, got %d", pushed)
	}

	c.DebugEvent(debug.EventToggleMute)
	c.TickFrame()
	if pushed == 0 {
		t.Error("expected samples to resume after un-muting")
	}
}

type sinkFunc func(float32)

func (f sinkFunc) PushSample(sample float32) { f(sample) }

func TestDebugEventDumpsDoNotPanicWithoutCartridgeAccessors(t *testing.T) {
	c, err := New(newLoopCartridge(), nil, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	c.Reset()
	for _, kind := range []debug.EventKind{
		debug.EventDumpWRAM, debug.EventDumpPalette, debug.EventDumpAPU, debug.EventDumpMapper,
	} {
		c.DebugEvent(kind)
	}
}

func TestSetCPUDebugInstallsAndClearsHook(t *testing.T) {
	c, err := New(newLoopCartridge(), nil, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	c.Reset()
	c.SetCPUDebug(true)
	c.TickN(1)
	c.SetCPUDebug(false)
	c.TickN(1)
}
