// Package console is the public emulator facade (§6): it wires a loaded
// cartridge, an input-polling source, and an audio sink to the shared bus
// and exposes the tick/frame/debug/save-state operations a front-end
// drives the emulation through.
package console

import (
	"errors"
	"fmt"
	"os"

	"gones/internal/apu"
	"gones/internal/bus"
	"gones/internal/cartridge"
	"gones/internal/cpu"
	"gones/internal/debug"
	"gones/internal/input"
	"gones/internal/memory"
	"gones/internal/ppu"
)

// ErrPaletteIO is returned by LoadPalette on any filesystem or format
// failure (§7: "Palette I/O failure").
var ErrPaletteIO = errors.New("console: palette load failed")

// AudioSink is the external audio-output collaborator (§6): a
// sample-by-sample push interface accepting f32 roughly in [-1, +1].
type AudioSink interface {
	PushSample(sample float32)
}

// ControllerSource is the external input-polling-source collaborator
// (§6). TickFrame polls it once, after the PPU frame completes.
type ControllerSource interface {
	Poll() (port1, port2 [8]bool)
}

// RenderingInfo reports the dimensions of the frame get_frame() returns
// (§6 ppu_rendering_info()).
type RenderingInfo struct {
	Width, Height int
}

// Console is the public facade: cartridge + controller + audio sink wired
// to the bus that drives the CPU/PPU/APU master clock.
type Console struct {
	bus        *bus.Bus
	cart       memory.CartridgeInterface
	controller ControllerSource
	sink       AudioSink
	dumper     *debug.Dumper
}

// Load reads an iNES/NES2.0 ROM from disk and constructs a Console from
// it, surfacing the cartridge package's unsupported-mapper/malformed-ROM
// errors (§7) before any emulation state exists.
func Load(romPath string, controller ControllerSource, sink AudioSink) (*Console, error) {
	cart, err := cartridge.LoadFromFile(romPath)
	if err != nil {
		return nil, err
	}
	return New(cart, controller, sink)
}

// New constructs a Console from an already-loaded cartridge, an
// input-polling source, and an audio sink (§6: new(cart, controller,
// audio_sink)). controller and sink may be nil; a nil controller means
// tick_frame never touches input state, and a nil sink means samples are
// discarded rather than pushed anywhere.
func New(cart memory.CartridgeInterface, controller ControllerSource, sink AudioSink) (*Console, error) {
	if cart == nil {
		return nil, cartridge.ErrMalformedROM
	}

	b := bus.New()
	b.LoadCartridge(cart)

	c := &Console{bus: b, cart: cart, controller: controller, sink: sink}
	c.dumper = debug.NewDumper(os.Stdout, c.debugSources())
	return c, nil
}

// Reset performs a normal power-on reset (§6 reset()).
func (c *Console) Reset() {
	c.bus.Reset()
}

// DebugReset performs a power-on reset and then forces the program
// counter to 0xC000, the standard automated test ROM's entry vector
// (e.g. nestest.nes run in its non-interactive mode), instead of reading
// the cartridge's own reset vector (§6 debug_reset()).
func (c *Console) DebugReset() {
	c.bus.Reset()
	c.bus.CPU.SetPC(0xC000)
}

// LoadPalette replaces the active 64-entry NES color palette from a raw
// 64x3-byte RGB-triple file, loaded eagerly into the PPU (§6 §6.2).
func (c *Console) LoadPalette(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPaletteIO, err)
	}
	if len(data) < 64*3 {
		return fmt.Errorf("%w: expected 192 bytes, got %d", ErrPaletteIO, len(data))
	}

	var table [64]uint32
	for i := 0; i < 64; i++ {
		r := uint32(data[i*3+0])
		g := uint32(data[i*3+1])
		b := uint32(data[i*3+2])
		table[i] = (r << 16) | (g << 8) | b
	}

	c.bus.PPU.SetColorTable(table)
	return nil
}

// Tick advances the master clock by one CPU instruction (and its
// corresponding 3x PPU dots / 1x APU cycles), then drains any audio
// samples produced to the sink (§6 tick()).
func (c *Console) Tick() {
	c.bus.Step()
	c.pumpAudio()
}

// TickN advances the master clock by n instructions (§6 tick_n(n)).
func (c *Console) TickN(n int) {
	for i := 0; i < n; i++ {
		c.bus.Step()
	}
	c.pumpAudio()
}

// TickScanline runs until the PPU crosses its next scanline boundary
// (§6 tick_scanline()).
func (c *Console) TickScanline() {
	start := c.bus.PPU.GetScanline()
	for c.bus.PPU.GetScanline() == start {
		c.bus.Step()
	}
	c.pumpAudio()
}

// TickFrame runs until the PPU frame ends, then polls the controller
// (§6 tick_frame()).
func (c *Console) TickFrame() {
	c.bus.Run(1)
	c.pumpAudio()
	c.pollController()
}

func (c *Console) pollController() {
	if c.controller == nil {
		return
	}
	p1, p2 := c.controller.Poll()
	c.bus.SetControllerButtons(1, p1)
	c.bus.SetControllerButtons(2, p2)
}

func (c *Console) pumpAudio() {
	if c.sink == nil || (c.dumper != nil && c.dumper.IsMuted()) {
		c.bus.GetAudioSamples() // drain so the buffer doesn't grow unbounded
		return
	}
	for _, sample := range c.bus.GetAudioSamples() {
		c.sink.PushSample(sample)
	}
}

// GetFrame returns the current fully-rendered frame: row-major, 4 bytes
// per pixel in blue/green/red/alpha order with alpha=255 (§6 get_frame()).
func (c *Console) GetFrame() []byte {
	fb := c.bus.PPU.GetFrameBuffer()
	return bgraBytes(fb[:])
}

// GetDebugFrame returns a diagnostic frame showing all four nametables,
// laid out as a 2x2 grid (512x480 pixels), in the same BGRA byte layout
// as GetFrame (§6 get_debug_frame()).
func (c *Console) GetDebugFrame() []byte {
	nt := c.bus.PPU.DebugNametables()
	return bgraBytes(nt[:])
}

func bgraBytes(px []uint32) []byte {
	out := make([]byte, len(px)*4)
	for i, p := range px {
		out[i*4+0] = uint8(p)       // blue
		out[i*4+1] = uint8(p >> 8)  // green
		out[i*4+2] = uint8(p >> 16) // red
		out[i*4+3] = 255            // alpha
	}
	return out
}

// PPURenderingInfo returns the dimensions of the frame GetFrame() returns
// (§6 ppu_rendering_info()).
func (c *Console) PPURenderingInfo() RenderingInfo {
	return RenderingInfo{Width: 256, Height: 240}
}

// SetCPUDebug enables or disables a per-instruction CPU trace line
// (§6 set_cpu_debug(flag)).
func (c *Console) SetCPUDebug(enable bool) {
	c.bus.EnableCPUDebug(enable)
	if !enable {
		c.bus.CPU.SetDebugHook(nil)
		return
	}
	c.bus.CPU.SetDebugHook(func(pc uint16, opcode uint8, mnemonic string, a, x, y, sp uint8, flags string) {
		fmt.Println(debug.CPUTraceLine(pc, opcode, mnemonic, a, x, y, sp, flags))
	})
}

// DebugEvent services one debug_event(kind) request: a WRAM, palette, APU,
// or mapper dump, or a mute toggle (§6 debug_event(kind)).
func (c *Console) DebugEvent(kind debug.EventKind) {
	c.dumper.SetSources(c.debugSources())
	c.dumper.Handle(kind)
}

func (c *Console) debugSources() debug.Sources {
	src := debug.Sources{
		WRAM:      func() [0x800]uint8 { return c.bus.Memory.RAM() },
		Palette:   func() [32]uint8 { return c.bus.PPU.Memory().Palette() },
		APUStatus: func() uint8 { return c.bus.APU.ReadStatus() },
	}
	if cart, ok := c.cart.(*cartridge.Cartridge); ok {
		src.MapperID = cart.MapperID
		src.MapperState = cart.MapperState
	}
	return src
}

// State is the opaque snapshot save_state()/load_state(s) operate on
// (§6). It covers every component whose state affects future ticks: the
// CPU and PPU internal pipelines, the APU channels, the bus's own
// scheduling counters, both controllers' shift registers, and the raw
// WRAM/VRAM/palette/SRAM/mapper-bank contents.
type State struct {
	CPU         cpu.Snapshot
	PPU         ppu.Snapshot
	APU         apu.Snapshot
	Bus         bus.Snapshot
	Controller1 input.Snapshot
	Controller2 input.Snapshot

	RAM     [0x800]uint8
	VRAM    [0x1000]uint8
	Palette [32]uint8
	OpenBus uint8

	HasCartridgeState bool
	SRAM              [0x2000]uint8
	MapperState       any
}

// SaveState captures a full snapshot of emulator state (§6 save_state()).
func (c *Console) SaveState() State {
	s := State{
		CPU:         c.bus.CPU.Snapshot(),
		PPU:         c.bus.PPU.Snapshot(),
		APU:         c.bus.APU.Snapshot(),
		Bus:         c.bus.Snapshot(),
		Controller1: c.bus.Input.Controller1.Snapshot(),
		Controller2: c.bus.Input.Controller2.Snapshot(),
		RAM:         c.bus.Memory.RAM(),
		VRAM:        c.bus.PPU.Memory().VRAM(),
		Palette:     c.bus.PPU.Memory().Palette(),
		OpenBus:     c.bus.Memory.OpenBusValue(),
	}
	if cart, ok := c.cart.(*cartridge.Cartridge); ok {
		s.HasCartridgeState = true
		s.SRAM = cart.SRAM()
		s.MapperState = cart.MapperState()
	}
	return s
}

// LoadState restores a snapshot previously returned by SaveState
// (§6 load_state(s)).
func (c *Console) LoadState(s State) {
	c.bus.CPU.Restore(s.CPU)
	c.bus.PPU.Restore(s.PPU)
	c.bus.APU.Restore(s.APU)
	c.bus.RestoreSnapshot(s.Bus)
	c.bus.Input.Controller1.Restore(s.Controller1)
	c.bus.Input.Controller2.Restore(s.Controller2)
	c.bus.Memory.SetRAM(s.RAM)
	c.bus.PPU.Memory().SetVRAM(s.VRAM)
	c.bus.PPU.Memory().SetPalette(s.Palette)
	c.bus.Memory.SetOpenBusValue(s.OpenBus)

	if s.HasCartridgeState {
		if cart, ok := c.cart.(*cartridge.Cartridge); ok {
			cart.SetSRAM(s.SRAM)
			cart.RestoreMapperState(s.MapperState)
		}
	}
}

// Bus exposes the underlying system bus for front-ends that need direct
// access (e.g. to wire a graphics backend's input polling before the
// first TickFrame). Most callers should prefer the Console methods above.
func (c *Console) Bus() *bus.Bus { return c.bus }
