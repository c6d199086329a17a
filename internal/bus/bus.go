// Package bus implements the system bus connecting the CPU, PPU, APU,
// input, and cartridge/memory components, and coordinates their relative
// clock rates.
package bus

import (
	"gones/internal/apu"
	"gones/internal/cartridge"
	"gones/internal/cpu"
	"gones/internal/input"
	"gones/internal/memory"
	"gones/internal/ppu"
)

// Bus connects all NES components together and drives the master clock:
// one CPU instruction per Step, with the PPU advanced 3 dots and the APU
// advanced 1 cycle per CPU cycle consumed (§4.8).
type Bus struct {
	CPU    *cpu.CPU
	PPU    *ppu.PPU
	APU    *apu.APU
	Memory *memory.Memory
	Input  *input.InputState

	totalCycles uint64
	cpuCycles   uint64
	ppuCycles   uint64
	frameCount  uint64

	dmaSuspendCycles uint64
	dmaInProgress    bool
	nmiPending       bool

	cyclesPerFrame uint64
	oddFrame       bool

	executionLog   []BusExecutionEvent
	loggingEnabled bool
}

// New creates a new system bus with all components wired together.
func New() *Bus {
	bus := &Bus{
		PPU:   ppu.New(),
		APU:   apu.New(),
		Input: input.NewInputState(),

		cyclesPerFrame: 89342,
	}

	bus.Memory = memory.New(bus.PPU, bus.APU, nil)
	bus.Memory.SetInputSystem(bus.Input)
	bus.CPU = cpu.New(bus.Memory)

	bus.PPU.SetNMICallback(bus.triggerNMI)
	bus.PPU.SetFrameCompleteCallback(bus.handleFrameComplete)
	bus.Memory.SetDMACallback(bus.TriggerOAMDMA)

	bus.Reset()
	return bus
}

// Reset resets all components to their initial state.
func (b *Bus) Reset() {
	b.CPU.Reset()
	b.PPU.Reset()
	b.APU.Reset()
	b.Input.Reset()

	b.totalCycles = 0
	b.cpuCycles = 0
	b.ppuCycles = 0
	b.frameCount = 0
	b.dmaSuspendCycles = 0
	b.dmaInProgress = false
	b.nmiPending = false
	b.oddFrame = false

	b.PPU.SetFrameCount(0)
	b.executionLog = make([]BusExecutionEvent, 0)
	b.loggingEnabled = false
}

func (b *Bus) triggerNMI() { b.nmiPending = true }

func (b *Bus) handleFrameComplete() {
	b.frameCount = b.PPU.GetFrameCount()
}

// Step executes one CPU instruction (or one DMA stall cycle) and advances
// the PPU and APU by the corresponding number of dots/cycles.
func (b *Bus) Step() {
	var cpuCycles uint64

	preFrameCount := b.frameCount
	prePC := b.CPU.PC
	var preOpcode uint8
	if b.Memory != nil {
		preOpcode = b.Memory.Read(prePC)
	}

	if b.dmaSuspendCycles > 0 {
		cpuCycles = 1
		b.dmaSuspendCycles--
		if b.dmaSuspendCycles == 0 {
			b.dmaInProgress = false
		}
	} else {
		if b.nmiPending {
			b.CPU.TriggerNMI()
			b.nmiPending = false
		}
		cpuCycles = b.CPU.Step()
	}

	ppuCyclesToRun := cpuCycles * 3
	for i := uint64(0); i < ppuCyclesToRun; i++ {
		b.PPU.Step()
		b.ppuCycles++
	}

	for i := uint64(0); i < cpuCycles; i++ {
		b.APU.Step()
	}

	b.cpuCycles += cpuCycles
	b.totalCycles += cpuCycles

	if b.loggingEnabled {
		event := BusExecutionEvent{
			StepNumber:    len(b.executionLog) + 1,
			CPUCycles:     b.cpuCycles,
			PPUCycles:     b.cpuCycles * 3,
			FrameCount:    b.frameCount,
			DMAActive:     b.dmaInProgress,
			NMIProcessed:  b.frameCount > preFrameCount,
			PCValue:       prePC,
			InstructionOp: preOpcode,
		}
		b.executionLog = append(b.executionLog, event)
	}
}

// TriggerOAMDMA initiates a 256-byte OAM DMA transfer from the given CPU
// page, suspending the CPU for 513 cycles (514 if starting on an odd CPU
// cycle) per the real 2A03's DMA unit (§4.6).
func (b *Bus) TriggerOAMDMA(sourcePage uint8) {
	if b.dmaInProgress {
		return
	}

	dmaCycles := uint64(513)
	if b.cpuCycles%2 == 1 {
		dmaCycles = 514
	}
	b.dmaInProgress = true
	b.dmaSuspendCycles = dmaCycles

	sourceAddress := uint16(sourcePage) << 8
	for i := 0; i < 256; i++ {
		data := b.Memory.Read(sourceAddress + uint16(i))
		b.PPU.WriteOAM(uint8(i), data)
	}
}

// LoadCartridge loads a cartridge into the system, rebuilding the memory
// maps and resetting the CPU from the new reset vector.
func (b *Bus) LoadCartridge(cart memory.CartridgeInterface) {
	b.Memory = memory.New(b.PPU, b.APU, cart)
	b.Memory.SetInputSystem(b.Input)
	b.CPU = cpu.New(b.Memory)

	mirrorMode := memory.MirrorHorizontal
	if c, ok := cart.(*cartridge.Cartridge); ok {
		switch c.GetMirrorMode() {
		case cartridge.MirrorHorizontal:
			mirrorMode = memory.MirrorHorizontal
		case cartridge.MirrorVertical:
			mirrorMode = memory.MirrorVertical
		case cartridge.MirrorSingleScreen0:
			mirrorMode = memory.MirrorSingleScreen0
		case cartridge.MirrorSingleScreen1:
			mirrorMode = memory.MirrorSingleScreen1
		case cartridge.MirrorFourScreen:
			mirrorMode = memory.MirrorFourScreen
		}
	}

	ppuMemory := memory.NewPPUMemory(cart, mirrorMode)
	b.PPU.SetMemory(ppuMemory)

	b.PPU.SetNMICallback(b.triggerNMI)
	b.Memory.SetDMACallback(b.TriggerOAMDMA)

	b.CPU.Reset()
}

// Run runs the emulator for a specified number of frames.
func (b *Bus) Run(frames int) {
	targetFrames := b.frameCount + uint64(frames)
	for b.frameCount < targetFrames {
		b.Step()
	}
}

// RunCycles runs the emulator for a specified number of CPU cycles.
func (b *Bus) RunCycles(cycles uint64) {
	targetCycles := b.cpuCycles + cycles
	for b.cpuCycles < targetCycles {
		b.Step()
	}
}

// Frame executes one complete NTSC frame's worth of CPU cycles.
func (b *Bus) Frame() {
	targetCycles := b.cpuCycles + 29781
	for b.cpuCycles < targetCycles {
		b.Step()
	}
}

// GetFrameRate returns the NTSC frame rate in Hz.
func (b *Bus) GetFrameRate() float64 {
	cpuFrequency := 1789773.0
	cpuCyclesPerFrame := cpuFrequency / 60.098803
	return cpuFrequency / cpuCyclesPerFrame
}

// GetFrameBuffer returns the current PPU frame buffer.
func (b *Bus) GetFrameBuffer() []uint32 {
	frameBuffer := b.PPU.GetFrameBuffer()
	return frameBuffer[:]
}

// GetAudioSamples returns the queued audio samples from the APU.
func (b *Bus) GetAudioSamples() []float32 { return b.APU.GetSamples() }

// SetAudioSampleRate sets the target audio sample rate for the APU.
func (b *Bus) SetAudioSampleRate(rate int) { b.APU.SetSampleRate(rate) }

// GetCycleCount returns the current CPU cycle count.
func (b *Bus) GetCycleCount() uint64 { return b.cpuCycles }

// GetFrameCount returns the current frame count.
func (b *Bus) GetFrameCount() uint64 { return b.frameCount }

// IsDMAInProgress returns whether DMA is currently in progress.
func (b *Bus) IsDMAInProgress() bool { return b.dmaInProgress }

func (b *Bus) isRenderingEnabled() bool {
	return b.PPU.IsRenderingEnabled()
}

// SetControllerButton sets the state of a single controller button.
func (b *Bus) SetControllerButton(controller int, button input.Button, pressed bool) {
	switch controller {
	case 0, 1:
		b.Input.Controller1.SetButton(button, pressed)
	case 2:
		b.Input.Controller2.SetButton(button, pressed)
	}
}

// SetControllerButtons sets all 8 button states for a controller at once.
func (b *Bus) SetControllerButtons(controller int, buttons [8]bool) {
	switch controller {
	case 0, 1:
		b.Input.SetButtons1(buttons)
	case 2:
		b.Input.SetButtons2(buttons)
	}
}

// GetInputState returns the input state for direct access.
func (b *Bus) GetInputState() *input.InputState { return b.Input }

// GetExecutionLog returns the execution log recorded while logging was
// enabled, for test and debug tooling.
func (b *Bus) GetExecutionLog() []BusExecutionEvent { return b.executionLog }

// EnableExecutionLogging enables per-step execution logging.
func (b *Bus) EnableExecutionLogging() { b.loggingEnabled = true }

// DisableExecutionLogging disables per-step execution logging.
func (b *Bus) DisableExecutionLogging() { b.loggingEnabled = false }

// ClearExecutionLog clears the accumulated execution log.
func (b *Bus) ClearExecutionLog() { b.executionLog = make([]BusExecutionEvent, 0) }

// BusExecutionEvent represents a single execution step, for test tooling.
type BusExecutionEvent struct {
	StepNumber    int
	CPUCycles     uint64
	PPUCycles     uint64
	FrameCount    uint64
	DMAActive     bool
	NMIProcessed  bool
	PCValue       uint16
	InstructionOp uint8
}

// GetCPUState returns a snapshot of CPU state for test tooling.
func (b *Bus) GetCPUState() CPUState {
	return CPUState{
		PC:     b.CPU.PC,
		A:      b.CPU.A,
		X:      b.CPU.X,
		Y:      b.CPU.Y,
		SP:     b.CPU.SP,
		Cycles: b.cpuCycles,
		Flags: CPUFlags{
			N: b.CPU.N,
			V: b.CPU.V,
			B: b.CPU.B,
			D: b.CPU.D,
			I: b.CPU.I,
			Z: b.CPU.Z,
			C: b.CPU.C,
		},
	}
}

// CPUState is a CPU state snapshot for test tooling.
type CPUState struct {
	PC      uint16
	A, X, Y uint8
	SP      uint8
	Cycles  uint64
	Flags   CPUFlags
}

// CPUFlags is a CPU status-flag snapshot for test tooling.
type CPUFlags struct {
	N, V, B, D, I, Z, C bool
}

// GetPPUState returns a snapshot of PPU state for test tooling.
func (b *Bus) GetPPUState() PPUState {
	scanline := int((b.ppuCycles % b.cyclesPerFrame) / 341)
	cycle := int((b.ppuCycles % b.cyclesPerFrame) % 341)

	return PPUState{
		Scanline:    scanline,
		Cycle:       cycle,
		FrameCount:  b.frameCount,
		VBlankFlag:  b.PPU.IsVBlank(),
		RenderingOn: b.isRenderingEnabled(),
	}
}

// PPUState is a PPU state snapshot for test tooling.
type PPUState struct {
	Scanline    int
	Cycle       int
	FrameCount  uint64
	VBlankFlag  bool
	RenderingOn bool
}

// EnableCPUDebug enables or disables CPU instruction tracing and loop
// detection (§6 SetCPUDebug).
func (b *Bus) EnableCPUDebug(enable bool) {
	if b.CPU != nil {
		b.CPU.EnableDebugLogging(enable)
		b.CPU.EnableLoopDetection(enable)
	}
}

// Snapshot captures the scheduling state the bus itself owns (cycle
// counters, DMA-stall progress, pending NMI latch, frame parity) so a
// save state can reproduce the exact master-clock phase on restore.
type Snapshot struct {
	TotalCycles      uint64
	CPUCycles        uint64
	PPUCycles        uint64
	FrameCount       uint64
	DMASuspendCycles uint64
	DMAInProgress    bool
	NMIPending       bool
	OddFrame         bool
}

// Snapshot returns the bus's own scheduling state for save-state support.
func (b *Bus) Snapshot() Snapshot {
	return Snapshot{
		TotalCycles:      b.totalCycles,
		CPUCycles:        b.cpuCycles,
		PPUCycles:        b.ppuCycles,
		FrameCount:       b.frameCount,
		DMASuspendCycles: b.dmaSuspendCycles,
		DMAInProgress:    b.dmaInProgress,
		NMIPending:       b.nmiPending,
		OddFrame:         b.oddFrame,
	}
}

// RestoreSnapshot applies a previously captured Snapshot.
func (b *Bus) RestoreSnapshot(s Snapshot) {
	b.totalCycles = s.TotalCycles
	b.cpuCycles = s.CPUCycles
	b.ppuCycles = s.PPUCycles
	b.frameCount = s.FrameCount
	b.dmaSuspendCycles = s.DMASuspendCycles
	b.dmaInProgress = s.DMAInProgress
	b.nmiPending = s.NMIPending
	b.oddFrame = s.OddFrame
	b.PPU.SetFrameCount(s.FrameCount)
}
