// Package app provides emulator integration for the main application.
package app

import (
	"fmt"
	"time"

	"gones/internal/bus"
)

// Emulator drives the bus at a fixed NTSC frame rate (29,781 CPU cycles per
// frame) and exposes the resulting frame buffer and audio samples to the
// front-end.
type Emulator struct {
	bus    *bus.Bus
	config *Config

	targetFrameTime time.Duration
	cyclesPerFrame  uint64

	frameBuffer  []uint32
	audioSamples []float32

	actualFrameTime time.Duration
	emulationTime   time.Duration
	cycleCount      uint64
	frameCount      uint64

	isRunning     bool
	lastResetTime time.Time
}

// NewEmulator creates a new emulator instance with fixed timing for accuracy
func NewEmulator(bus *bus.Bus, config *Config) *Emulator {
	emulator := &Emulator{
		bus:             bus,
		config:          config,
		targetFrameTime: time.Duration(16666667) * time.Nanosecond, // Precise 60 FPS (16.666ms)
		cyclesPerFrame:  29781,                                     // NTSC: exactly 29,781 CPU cycles per frame
		frameBuffer:     make([]uint32, 256*240),
		audioSamples:    make([]float32, 0, 1024),
		isRunning:       false,
		lastResetTime:   time.Now(),
	}

	emulator.Reset()
	return emulator
}

// Reset resets the emulator state
func (e *Emulator) Reset() {
	e.actualFrameTime = 0
	e.emulationTime = 0
	e.cycleCount = 0
	e.frameCount = 0
	e.lastResetTime = time.Now()

	for i := range e.frameBuffer {
		e.frameBuffer[i] = 0
	}
	e.audioSamples = e.audioSamples[:0]
}

// Start starts the emulator
func (e *Emulator) Start() {
	e.isRunning = true
}

// Stop stops the emulator
func (e *Emulator) Stop() {
	e.isRunning = false
}

// Update runs exactly one frame of emulation, called once per real-time
// frame tick (e.g. by the Ebitengine update callback at 60Hz).
func (e *Emulator) Update() error {
	if !e.isRunning {
		return nil
	}

	frameStartTime := time.Now()
	if err := e.runFrame(); err != nil {
		return fmt.Errorf("frame execution error: %v", err)
	}
	e.actualFrameTime = time.Since(frameStartTime)

	return nil
}

// runFrame executes exactly one frame worth of emulation (29,781 CPU cycles
// for NTSC) and copies the resulting frame buffer and audio samples out.
func (e *Emulator) runFrame() error {
	emulationStart := time.Now()

	startCycles := e.bus.GetCycleCount()
	targetCycles := startCycles + e.cyclesPerFrame
	for e.bus.GetCycleCount() < targetCycles {
		e.bus.Step()
	}
	e.frameCount++

	nesFrameBuffer := e.bus.GetFrameBuffer()
	if len(nesFrameBuffer) == len(e.frameBuffer) {
		copy(e.frameBuffer, nesFrameBuffer)
	}

	nesSamples := e.bus.GetAudioSamples()
	if len(nesSamples) > 0 {
		if cap(e.audioSamples) < len(nesSamples) {
			e.audioSamples = make([]float32, len(nesSamples))
		} else {
			e.audioSamples = e.audioSamples[:len(nesSamples)]
		}
		copy(e.audioSamples, nesSamples)
	}

	e.emulationTime = time.Since(emulationStart)
	e.cycleCount = e.bus.GetCycleCount()

	return nil
}

// GetFrameBuffer returns the current frame buffer
func (e *Emulator) GetFrameBuffer() []uint32 {
	return e.frameBuffer
}

// GetAudioSamples returns the current audio samples
func (e *Emulator) GetAudioSamples() []float32 {
	return e.audioSamples
}

// GetFrameCount returns the current frame count
func (e *Emulator) GetFrameCount() uint64 {
	return e.frameCount
}

// GetCycleCount returns the current CPU cycle count
func (e *Emulator) GetCycleCount() uint64 {
	return e.cycleCount
}

// GetEmulationTime returns the time spent in emulation for the last frame
func (e *Emulator) GetEmulationTime() time.Duration {
	return e.emulationTime
}

// GetActualFrameTime returns the actual frame time including rendering
func (e *Emulator) GetActualFrameTime() time.Duration {
	return e.actualFrameTime
}

// StepFrame executes exactly one frame of emulation
func (e *Emulator) StepFrame() error {
	if e.bus == nil {
		return fmt.Errorf("bus not initialized")
	}
	return e.runFrame()
}

// StepInstruction executes one CPU instruction
func (e *Emulator) StepInstruction() error {
	if e.bus == nil {
		return fmt.Errorf("bus not initialized")
	}

	e.bus.Step()
	e.cycleCount = e.bus.GetCycleCount()

	return nil
}

// GetCPUState returns the current CPU state for debugging
func (e *Emulator) GetCPUState() bus.CPUState {
	if e.bus == nil {
		return bus.CPUState{}
	}
	return e.bus.GetCPUState()
}

// GetPPUState returns the current PPU state for debugging
func (e *Emulator) GetPPUState() bus.PPUState {
	if e.bus == nil {
		return bus.PPUState{}
	}
	return e.bus.GetPPUState()
}

// IsRunning returns whether the emulator is running
func (e *Emulator) IsRunning() bool {
	return e.isRunning
}

// GetUptime returns the emulator uptime since last reset
func (e *Emulator) GetUptime() time.Duration {
	return time.Since(e.lastResetTime)
}

// Cleanup cleans up emulator resources
func (e *Emulator) Cleanup() error {
	e.Stop()
	e.frameBuffer = nil
	e.audioSamples = nil
	return nil
}
