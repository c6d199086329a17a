// Package ppu implements the NES Picture Processing Unit (2C02): a
// dot-clocked scanline state machine driving background fetches, sprite
// evaluation, sprite-0 hit detection, and pixel composition.
package ppu

import (
	"gones/internal/memory"
)

// DebugHook receives diagnostic events when debug tracing is enabled; see
// SetDebugHook. It never gates correctness, only observability.
type DebugHook func(event string, detail string)

// PPU represents the NES Picture Processing Unit (2C02).
type PPU struct {
	ppuCtrl   uint8 // $2000
	ppuMask   uint8 // $2001
	ppuStatus uint8 // $2002
	oamAddr   uint8 // $2003

	// Canonical scroll/address state (§3).
	v uint16 // current VRAM address (15 bits)
	t uint16 // temporary VRAM address (15 bits)
	x uint8  // fine X scroll (3 bits)
	w bool   // write toggle

	memory *memory.PPUMemory

	scanline   int // -1 (pre-render) through 260
	cycle      int // 0 through 340
	frameCount uint64
	oddFrame   bool
	readBuffer uint8

	// Background pipeline: two 16-bit shift registers carry pattern bits
	// for the current and next tile; two 8-bit latches/shifters carry the
	// attribute palette bits. Fetch latches hold the in-progress tile's
	// data until the 8-dot boundary when they're loaded into the shifters
	// (§4.5).
	bgShiftPatternLo uint16
	bgShiftPatternHi uint16
	bgShiftAttrLo    uint16
	bgShiftAttrHi    uint16

	ntLatch   uint8
	atLatch   uint8
	ptLoLatch uint8
	ptHiLatch uint8

	// Sprite unit: 8 output units, each with a pattern shifter pair, an
	// X countdown, an attribute byte, and an is-sprite-0 flag (§3).
	oam            [256]uint8
	secondaryOAM   [32]uint8
	spriteCount    int
	spritePatLo    [8]uint8
	spritePatHi    [8]uint8
	spriteX        [8]uint8
	spriteAttr     [8]uint8
	spriteIsZero   [8]bool
	spriteZeroSlot int
	sprite0OnLine  bool
	sprite0Hit     bool
	spriteOverflow bool

	frameBuffer [256 * 240]uint32 // 0x00RRGGBB per pixel

	nmiCallback           func()
	frameCompleteCallback func()

	debugHook DebugHook

	backgroundEnabled bool
	spritesEnabled    bool
	renderingEnabled  bool

	cycleCount uint64

	colorTable [64]uint32 // active NES color palette, 0x00RRGGBB per entry
}

// New creates a new PPU instance.
func New() *PPU {
	return &PPU{scanline: -1, colorTable: nesColorPalette}
}

// Reset resets the PPU to its power-on state.
func (p *PPU) Reset() {
	*p = PPU{
		scanline:              -1,
		memory:                p.memory,
		nmiCallback:           p.nmiCallback,
		frameCompleteCallback: p.frameCompleteCallback,
		debugHook:             p.debugHook,
		colorTable:            p.colorTable,
	}
	p.ppuStatus = 0xA0
}

// SetColorTable replaces the active 64-entry NES color palette used to
// convert composed pixel indices into frame-buffer RGB (§6 load_palette).
func (p *PPU) SetColorTable(table [64]uint32) { p.colorTable = table }

// SetMemory sets the PPU memory interface.
func (p *PPU) SetMemory(mem *memory.PPUMemory) { p.memory = mem }

// Memory returns the PPU's own address space, for save-state and debug
// tooling that needs direct access to palette RAM/VRAM.
func (p *PPU) Memory() *memory.PPUMemory { return p.memory }

// SetNMICallback sets the NMI callback function.
func (p *PPU) SetNMICallback(callback func()) { p.nmiCallback = callback }

// SetFrameCompleteCallback sets the frame complete callback.
func (p *PPU) SetFrameCompleteCallback(callback func()) { p.frameCompleteCallback = callback }

// SetDebugHook installs (or clears, with nil) the diagnostic sink used by
// debug_event(kind) at the console layer (§6, §7).
func (p *PPU) SetDebugHook(hook DebugHook) { p.debugHook = hook }

func (p *PPU) trace(event, detail string) {
	if p.debugHook != nil {
		p.debugHook(event, detail)
	}
}

// ReadRegister reads from a PPU register (CPU $2000-$2007).
func (p *PPU) ReadRegister(address uint16) uint8 {
	switch address {
	case 0x2002:
		status := p.ppuStatus
		p.ppuStatus &= 0x7F // clear vblank only; w latch also clears (§3 invariant)
		p.w = false
		return status
	case 0x2004:
		return p.oam[p.oamAddr]
	case 0x2007:
		return p.readPPUData()
	default:
		return p.ppuStatus & 0x1F
	}
}

// WriteRegister writes to a PPU register (CPU $2000-$2007).
func (p *PPU) WriteRegister(address uint16, value uint8) {
	switch address {
	case 0x2000:
		p.ppuCtrl = value
		p.t = (p.t & 0xF3FF) | ((uint16(value) & 0x03) << 10)
		p.updateRenderingFlags()
		p.checkNMI()
	case 0x2001:
		p.ppuMask = value
		p.updateRenderingFlags()
	case 0x2003:
		p.oamAddr = value
	case 0x2004:
		p.oam[p.oamAddr] = value
		p.oamAddr++
	case 0x2005:
		p.writePPUScroll(value)
	case 0x2006:
		p.writePPUAddr(value)
	case 0x2007:
		p.writePPUData(value)
	}
}

// WriteOAM writes to OAM at the specified address (used by OAM-DMA).
func (p *PPU) WriteOAM(address uint8, value uint8) { p.oam[address] = value }

// Step advances the PPU by one dot.
func (p *PPU) Step() {
	p.cycleCount++
	p.cycle++
	if p.cycle > 340 {
		p.cycle = 0
		p.scanline++
		if p.scanline > 260 {
			p.scanline = -1
			p.frameCount++
			p.oddFrame = !p.oddFrame
			if p.frameCompleteCallback != nil {
				p.frameCompleteCallback()
			}
		}
	}

	if p.scanline == 241 && p.cycle == 1 {
		p.ppuStatus |= 0x80
		if p.ppuCtrl&0x80 != 0 && p.nmiCallback != nil {
			p.nmiCallback()
		}
	}

	if p.scanline == -1 && p.cycle == 1 {
		// Vblank, sprite-0-hit, and sprite-overflow all clear at the
		// start of the pre-render scanline (§4.5, §3 invariant).
		p.ppuStatus &= 0x1F
		p.sprite0Hit = false
		p.spriteOverflow = false
	}

	if p.scanline >= -1 && p.scanline < 240 {
		p.renderCycle()
	}
}

// renderCycle implements the per-dot background/sprite microcycle. Rather
// than modeling the fetcher, evaluator, and composer as concurrent units,
// each is a deterministic slot consulted from the single (scanline,cycle)
// state machine, per §9 "PPU pseudo-threads".
func (p *PPU) renderCycle() {
	preRender := p.scanline == -1
	visible := p.scanline >= 0 && p.scanline < 240

	if p.renderingEnabled {
		if (p.cycle >= 1 && p.cycle <= 256) || (p.cycle >= 321 && p.cycle <= 336) {
			p.backgroundFetchCycle()
		}
		if p.cycle == 256 {
			p.incrementY()
		}
		if p.cycle == 257 {
			p.copyX()
			p.loadSpritesForNextScanline()
		}
		if preRender && p.cycle >= 280 && p.cycle <= 304 {
			p.copyY()
		}
		if p.cycle == 65 {
			p.evaluateSprites()
		}
	}

	if visible && p.cycle >= 1 && p.cycle <= 256 {
		p.composePixel(p.cycle-1, p.scanline)
	}

	if p.renderingEnabled && ((p.cycle >= 1 && p.cycle <= 256) || (p.cycle >= 321 && p.cycle <= 336)) {
		p.shiftBackgroundRegisters()
	}
	if visible && p.cycle >= 1 && p.cycle <= 256 {
		p.shiftSpriteRegisters()
	}
}

// backgroundFetchCycle runs the four-memory-access microcycle (NT, AT, PT
// low, PT high) across every 8-dot tile boundary and loads the latched
// tile into the shift registers (§4.5).
func (p *PPU) backgroundFetchCycle() {
	switch p.cycle % 8 {
	case 1:
		p.loadBackgroundShiftRegisters()
		p.ntLatch = p.memory.Read(0x2000 | (p.v & 0x0FFF))
	case 3:
		attrAddr := 0x23C0 | (p.v & 0x0C00) | ((p.v >> 4) & 0x38) | ((p.v >> 2) & 0x07)
		attr := p.memory.Read(attrAddr)
		shift := ((p.v >> 4) & 4) | (p.v & 2)
		p.atLatch = (attr >> shift) & 0x03
	case 5:
		base := uint16(0)
		if p.ppuCtrl&0x10 != 0 {
			base = 0x1000
		}
		p.ptLoLatch = p.memory.Read(base + uint16(p.ntLatch)*16 + uint16(p.getFineY()))
	case 7:
		base := uint16(0)
		if p.ppuCtrl&0x10 != 0 {
			base = 0x1000
		}
		p.ptHiLatch = p.memory.Read(base + uint16(p.ntLatch)*16 + uint16(p.getFineY()) + 8)
	case 0:
		p.incrementX()
	}
}

// loadBackgroundShiftRegisters latches the just-fetched tile into the
// upper byte of the pattern shifters and expands the 2-bit attribute into
// the attribute shifters.
func (p *PPU) loadBackgroundShiftRegisters() {
	p.bgShiftPatternLo = (p.bgShiftPatternLo & 0xFF00) | uint16(p.ptLoLatch)
	p.bgShiftPatternHi = (p.bgShiftPatternHi & 0xFF00) | uint16(p.ptHiLatch)

	var lo, hi uint16
	if p.atLatch&0x01 != 0 {
		lo = 0xFF
	}
	if p.atLatch&0x02 != 0 {
		hi = 0xFF
	}
	p.bgShiftAttrLo = (p.bgShiftAttrLo & 0xFF00) | lo
	p.bgShiftAttrHi = (p.bgShiftAttrHi & 0xFF00) | hi
}

func (p *PPU) shiftBackgroundRegisters() {
	p.bgShiftPatternLo <<= 1
	p.bgShiftPatternHi <<= 1
	p.bgShiftAttrLo <<= 1
	p.bgShiftAttrHi <<= 1
}

func (p *PPU) shiftSpriteRegisters() {
	for i := 0; i < p.spriteCount; i++ {
		if p.spriteX[i] > 0 {
			p.spriteX[i]--
			continue
		}
		p.spritePatLo[i] <<= 1
		p.spritePatHi[i] <<= 1
	}
}

// evaluateSprites clears secondary OAM and selects up to 8 in-range
// sprites for the next scanline, setting sprite overflow on a ninth (§4.5).
func (p *PPU) evaluateSprites() {
	for i := range p.secondaryOAM {
		p.secondaryOAM[i] = 0xFF
	}
	p.spriteCount = 0
	p.sprite0OnLine = false

	spriteHeight := 8
	if p.ppuCtrl&0x20 != 0 {
		spriteHeight = 16
	}
	// A sprite's first row is drawn on the line after its OAM Y byte, so it
	// is in range for the next scanline when the current one is within it.
	line := p.scanline

	found := 0
	for i := 0; i < 64; i++ {
		y := int(p.oam[i*4])
		if line < y || line >= y+spriteHeight {
			continue
		}
		if found < 8 {
			copy(p.secondaryOAM[found*4:found*4+4], p.oam[i*4:i*4+4])
			if i == 0 {
				p.sprite0OnLine = true
				p.spriteZeroSlot = found
			}
			found++
		} else {
			p.spriteOverflow = true
			break
		}
	}
	p.spriteCount = found
}

// loadSpritesForNextScanline fetches pattern data for the sprites selected
// by evaluateSprites into their shift registers and X counters (§4.5 dots
// 257-320).
func (p *PPU) loadSpritesForNextScanline() {
	spriteHeight := 8
	if p.ppuCtrl&0x20 != 0 {
		spriteHeight = 16
	}
	for i := 0; i < p.spriteCount; i++ {
		y := int(p.secondaryOAM[i*4])
		tile := p.secondaryOAM[i*4+1]
		attr := p.secondaryOAM[i*4+2]
		x := p.secondaryOAM[i*4+3]

		// Row within the sprite for the next scanline (drawn at OAM Y + 1).
		row := p.scanline - y
		flipV := attr&0x80 != 0
		flipH := attr&0x40 != 0
		if flipV {
			row = spriteHeight - 1 - row
		}

		var base uint16
		var patternTile uint8
		if spriteHeight == 16 {
			base = uint16(tile&0x01) * 0x1000
			patternTile = tile &^ 1
			if row >= 8 {
				patternTile++
				row -= 8
			}
		} else {
			patternTile = tile
			if p.ppuCtrl&0x08 != 0 {
				base = 0x1000
			}
		}

		lo := p.memory.Read(base + uint16(patternTile)*16 + uint16(row))
		hi := p.memory.Read(base + uint16(patternTile)*16 + uint16(row) + 8)
		if flipH {
			lo = reverseBits(lo)
			hi = reverseBits(hi)
		}

		p.spritePatLo[i] = lo
		p.spritePatHi[i] = hi
		p.spriteAttr[i] = attr
		p.spriteX[i] = x
		p.spriteIsZero[i] = p.sprite0OnLine && i == p.spriteZeroSlot
	}
	for i := p.spriteCount; i < 8; i++ {
		p.spritePatLo[i], p.spritePatHi[i] = 0, 0
		p.spriteIsZero[i] = false
	}
}

func reverseBits(b uint8) uint8 {
	var r uint8
	for i := 0; i < 8; i++ {
		r <<= 1
		r |= b & 1
		b >>= 1
	}
	return r
}

// composePixel determines the background and sprite pixel for (x,y),
// resolves priority and sprite-0 hit, and writes the final color (§4.5).
func (p *PPU) composePixel(x, y int) {
	bgIndex, bgOpaque := p.backgroundPixel()
	sprIndex, sprOpaque, sprPriorityFront, sprIsZero := p.spritePixel(x)

	if bgOpaque && sprOpaque && sprIsZero && x != 255 {
		p.sprite0Hit = true
		p.ppuStatus |= 0x40
	}

	var paletteIndex uint8
	switch {
	case sprOpaque && (sprPriorityFront || !bgOpaque):
		paletteIndex = 0x10 + sprIndex
	case bgOpaque:
		paletteIndex = bgIndex
	default:
		paletteIndex = 0
	}

	var colorIndex uint8
	if p.memory != nil {
		colorIndex = p.memory.Read(0x3F00 + uint16(paletteIndex))
	}
	if p.ppuMask&0x01 != 0 {
		colorIndex &= 0x30
	}
	p.frameBuffer[y*256+x] = p.colorTable[colorIndex&0x3F] & 0x00FFFFFF
}

// backgroundPixel reads the muxed pixel (fine-X selected) out of the
// background shift registers. Index 0 means transparent.
func (p *PPU) backgroundPixel() (index uint8, opaque bool) {
	if !p.backgroundEnabled {
		return 0, false
	}
	mux := uint16(0x8000) >> p.x
	lo := uint8(0)
	hi := uint8(0)
	if p.bgShiftPatternLo&mux != 0 {
		lo = 1
	}
	if p.bgShiftPatternHi&mux != 0 {
		hi = 1
	}
	palLo := uint8(0)
	palHi := uint8(0)
	if p.bgShiftAttrLo&mux != 0 {
		palLo = 1
	}
	if p.bgShiftAttrHi&mux != 0 {
		palHi = 1
	}
	pixel := hi<<1 | lo
	if pixel == 0 {
		return 0, false
	}
	return (palHi<<1|palLo)<<2 | pixel, true
}

// spritePixel scans the 8 sprite output units for the first with X==0 and
// a non-transparent pixel.
func (p *PPU) spritePixel(x int) (index uint8, opaque bool, front bool, isZero bool) {
	if !p.spritesEnabled {
		return 0, false, false, false
	}
	for i := 0; i < p.spriteCount; i++ {
		if p.spriteX[i] != 0 {
			continue
		}
		lo := (p.spritePatLo[i] >> 7) & 1
		hi := (p.spritePatHi[i] >> 7) & 1
		pixel := hi<<1 | lo
		if pixel == 0 {
			continue
		}
		palette := p.spriteAttr[i] & 0x03
		return palette<<2 | pixel, true, p.spriteAttr[i]&0x20 == 0, p.spriteIsZero[i]
	}
	return 0, false, false, false
}

func (p *PPU) updateRenderingFlags() {
	p.backgroundEnabled = p.ppuMask&0x08 != 0
	p.spritesEnabled = p.ppuMask&0x10 != 0
	p.renderingEnabled = p.backgroundEnabled || p.spritesEnabled
}

func (p *PPU) checkNMI() {
	if p.ppuCtrl&0x80 != 0 && p.ppuStatus&0x80 != 0 && p.nmiCallback != nil {
		p.nmiCallback()
	}
}

func (p *PPU) writePPUScroll(value uint8) {
	if !p.w {
		p.t = (p.t & 0xFFE0) | (uint16(value) >> 3)
		p.x = value & 0x07
		p.w = true
	} else {
		p.t = (p.t & 0x8FFF) | ((uint16(value) & 0x07) << 12)
		p.t = (p.t & 0xFC1F) | ((uint16(value) & 0xF8) << 2)
		p.w = false
	}
}

func (p *PPU) writePPUAddr(value uint8) {
	if !p.w {
		p.t = (p.t & 0x80FF) | ((uint16(value) & 0x3F) << 8)
		p.w = true
	} else {
		p.t = (p.t & 0xFF00) | uint16(value)
		p.v = p.t
		p.w = false
	}
}

func (p *PPU) readPPUData() uint8 {
	var data uint8
	if p.memory == nil {
		data = 0
	} else if p.v >= 0x3F00 {
		data = p.memory.Read(p.v)
		p.readBuffer = p.memory.Read(p.v & 0x2FFF)
	} else {
		data = p.readBuffer
		p.readBuffer = p.memory.Read(p.v)
	}
	p.advanceVRAMAddress()
	return data
}

func (p *PPU) writePPUData(value uint8) {
	if p.memory != nil {
		p.memory.Write(p.v, value)
	}
	p.advanceVRAMAddress()
}

func (p *PPU) advanceVRAMAddress() {
	if p.ppuCtrl&0x04 != 0 {
		p.v += 32
	} else {
		p.v += 1
	}
	p.v &= 0x3FFF
}

// GetFrameBuffer returns the current frame buffer (0x00RRGGBB per pixel).
func (p *PPU) GetFrameBuffer() [256 * 240]uint32 { return p.frameBuffer }

// DebugNametables renders all four logical nametables into a single
// 512x480 image laid out as a 2x2 grid, using the currently selected
// background pattern table (§6 get_debug_frame). Unlike composePixel this
// reads tile/attribute/pattern data directly rather than through the
// per-dot shift-register pipeline, since it has no scanline to wait for.
func (p *PPU) DebugNametables() [512 * 480]uint32 {
	var out [512 * 480]uint32

	patternBase := uint16(0)
	if p.ppuCtrl&0x10 != 0 {
		patternBase = 0x1000
	}

	for quadrant := 0; quadrant < 4; quadrant++ {
		baseNT := uint16(0x2000 + quadrant*0x400)
		originX := (quadrant % 2) * 256
		originY := (quadrant / 2) * 240

		for tileY := 0; tileY < 30; tileY++ {
			for tileX := 0; tileX < 32; tileX++ {
				tileIndex := p.memory.Read(baseNT + uint16(tileY*32+tileX))

				attrAddr := baseNT + 0x3C0 + uint16((tileY/4)*8+(tileX/4))
				attrByte := p.memory.Read(attrAddr)
				shift := uint(((tileY%4)/2)*4 + ((tileX%4)/2)*2)
				attrBits := (attrByte >> shift) & 0x03

				patternAddr := patternBase + uint16(tileIndex)*16
				for row := 0; row < 8; row++ {
					lo := p.memory.Read(patternAddr + uint16(row))
					hi := p.memory.Read(patternAddr + uint16(row) + 8)
					for col := 0; col < 8; col++ {
						bit := uint(7 - col)
						pixel := ((hi>>bit)&1)<<1 | ((lo >> bit) & 1)

						var colorIndex uint8
						if pixel == 0 {
							colorIndex = p.memory.Read(0x3F00)
						} else {
							colorIndex = p.memory.Read(0x3F00 + uint16(attrBits)*4 + uint16(pixel))
						}

						px := originX + tileX*8 + col
						py := originY + tileY*8 + row
						out[py*512+px] = p.colorTable[colorIndex&0x3F] & 0x00FFFFFF
					}
				}
			}
		}
	}

	return out
}

// GetFrameCount returns the number of completed frames.
func (p *PPU) GetFrameCount() uint64 { return p.frameCount }

// SetFrameCount restores the frame counter (save/restore).
func (p *PPU) SetFrameCount(count uint64) { p.frameCount = count }

// GetScanline returns the current scanline (-1 to 260).
func (p *PPU) GetScanline() int { return p.scanline }

// GetCycle returns the current dot within the scanline (0 to 340).
func (p *PPU) GetCycle() int { return p.cycle }

// IsRenderingEnabled reports whether background or sprite rendering is on.
func (p *PPU) IsRenderingEnabled() bool { return p.renderingEnabled }

// IsVBlank reports whether the PPUSTATUS vblank flag is currently set.
func (p *PPU) IsVBlank() bool { return p.ppuStatus&0x80 != 0 }

// GetCycleCount returns the total number of PPU dots executed.
func (p *PPU) GetCycleCount() uint64 { return p.cycleCount }

// NESColorToRGB converts a NES color index to RGB value (0x00RRGGBB).
func NESColorToRGB(colorIndex uint8) uint32 {
	if colorIndex >= 64 {
		return 0
	}
	return nesColorPalette[colorIndex] & 0x00FFFFFF
}

// NESColorToRGB is the PPU-bound convenience form, using this PPU's
// currently active color table rather than the default.
func (p *PPU) NESColorToRGB(colorIndex uint8) uint32 {
	if colorIndex >= 64 {
		return 0
	}
	return p.colorTable[colorIndex] & 0x00FFFFFF
}

var nesColorPalette = [64]uint32{
	0xFF666666, 0xFF002A88, 0xFF1412A7, 0xFF3B00A4, 0xFF5C007E, 0xFF6E0040, 0xFF6C0600, 0xFF561D00,
	0xFF333500, 0xFF0B4800, 0xFF005200, 0xFF004F08, 0xFF00404D, 0xFF000000, 0xFF000000, 0xFF000000,
	0xFFADADAD, 0xFF155FD9, 0xFF4240FF, 0xFF7527FE, 0xFFA01ACC, 0xFFB71E7B, 0xFFB53120, 0xFF994E00,
	0xFF6B6D00, 0xFF388700, 0xFF0C9300, 0xFF008F32, 0xFF007C8D, 0xFF000000, 0xFF000000, 0xFF000000,
	0xFFFFFEFF, 0xFF64B0FF, 0xFF9290FF, 0xFFC676FF, 0xFFF36AFF, 0xFFFE6ECC, 0xFFFE8170, 0xFFEA9E22,
	0xFFBCBE00, 0xFF88D800, 0xFF5CE430, 0xFF45E082, 0xFF48CDDE, 0xFF4F4F4F, 0xFF000000, 0xFF000000,
	0xFFFFFEFF, 0xFFC0DFFF, 0xFFD3D2FF, 0xFFE8C8FF, 0xFFFBC2FF, 0xFFFEC4EA, 0xFFFECCC5, 0xFFF7D8A5,
	0xFFE4E594, 0xFFCFF29B, 0xFFBEFBB3, 0xFFB8F8D8, 0xFFB8F8F8, 0xFF000000, 0xFF000000, 0xFF000000,
}

// Helper methods for VRAM address manipulation (§4.5).

func (p *PPU) getFineY() int { return int((p.v >> 12) & 0x0007) }

func (p *PPU) incrementX() {
	if p.v&0x001F == 31 {
		p.v &= ^uint16(0x001F)
		p.v ^= 0x0400
	} else {
		p.v++
	}
}

func (p *PPU) incrementY() {
	if p.v&0x7000 != 0x7000 {
		p.v += 0x1000
	} else {
		p.v &= ^uint16(0x7000)
		y := (p.v & 0x03E0) >> 5
		switch y {
		case 29:
			y = 0
			p.v ^= 0x0800
		case 31:
			y = 0
		default:
			y++
		}
		p.v = (p.v &^ uint16(0x03E0)) | (y << 5)
	}
}

func (p *PPU) copyX() { p.v = (p.v & 0xFBE0) | (p.t & 0x041F) }
func (p *PPU) copyY() { p.v = (p.v & 0x841F) | (p.t & 0x7BE0) }

// OAM exposes the raw 256-byte OAM for save/restore and debug dumps.
func (p *PPU) OAM() [256]uint8 { return p.oam }

// SetOAM restores the raw 256-byte OAM from a snapshot.
func (p *PPU) SetOAM(oam [256]uint8) { p.oam = oam }

// InternalRegisters exposes v,t,x,w for save/restore.
func (p *PPU) InternalRegisters() (v, t uint16, x uint8, w bool) { return p.v, p.t, p.x, p.w }

// SetInternalRegisters restores v,t,x,w from a snapshot.
func (p *PPU) SetInternalRegisters(v, t uint16, x uint8, w bool) {
	p.v, p.t, p.x, p.w = v, t, x, w
}

// SetScanAndCycle restores the (scanline, cycle) position from a snapshot.
func (p *PPU) SetScanAndCycle(scanline, cycle int) { p.scanline, p.cycle = scanline, cycle }

// RegisterState exposes PPUCTRL/PPUMASK/PPUSTATUS/OAMADDR for save/restore.
func (p *PPU) RegisterState() (ctrl, mask, status, oamAddr uint8) {
	return p.ppuCtrl, p.ppuMask, p.ppuStatus, p.oamAddr
}

// SetRegisterState restores PPUCTRL/PPUMASK/PPUSTATUS/OAMADDR and
// recomputes the derived rendering-enabled flags.
func (p *PPU) SetRegisterState(ctrl, mask, status, oamAddr uint8) {
	p.ppuCtrl, p.ppuMask, p.ppuStatus, p.oamAddr = ctrl, mask, status, oamAddr
	p.updateRenderingFlags()
}

// SpriteFlags exposes sprite-0-hit and sprite-overflow for debug dumps.
func (p *PPU) SpriteFlags() (hit, overflow bool) { return p.sprite0Hit, p.spriteOverflow }

// Snapshot is a full internal-state copy of the PPU, covering the pixel
// pipeline (shift registers, fetch latches, sprite line buffers) that the
// piecemeal RegisterState/InternalRegisters/OAM accessors don't reach, so
// a save state resumes mid-scanline exactly where it left off.
type Snapshot struct {
	Ctrl, Mask, Status, OAMAddr uint8
	V, T                        uint16
	X                           uint8
	W                           bool
	Scanline, Cycle             int
	FrameCount                  uint64
	OddFrame                    bool
	ReadBuffer                  uint8

	BgShiftPatternLo, BgShiftPatternHi uint16
	BgShiftAttrLo, BgShiftAttrHi       uint16
	NTLatch, ATLatch                   uint8
	PTLoLatch, PTHiLatch               uint8

	OAM          [256]uint8
	SecondaryOAM [32]uint8
	SpriteCount  int
	SpritePatLo  [8]uint8
	SpritePatHi  [8]uint8
	SpriteX      [8]uint8
	SpriteAttr   [8]uint8
	SpriteIsZero [8]bool
	SpriteZeroSlot int
	Sprite0OnLine  bool
	Sprite0Hit     bool
	SpriteOverflow bool

	FrameBuffer [256 * 240]uint32
	ColorTable  [64]uint32

	BackgroundEnabled bool
	SpritesEnabled    bool
	RenderingEnabled  bool
	CycleCount        uint64
}

// Snapshot captures the PPU's full internal state for save-state support.
func (p *PPU) Snapshot() Snapshot {
	return Snapshot{
		Ctrl: p.ppuCtrl, Mask: p.ppuMask, Status: p.ppuStatus, OAMAddr: p.oamAddr,
		V: p.v, T: p.t, X: p.x, W: p.w,
		Scanline: p.scanline, Cycle: p.cycle, FrameCount: p.frameCount,
		OddFrame: p.oddFrame, ReadBuffer: p.readBuffer,

		BgShiftPatternLo: p.bgShiftPatternLo, BgShiftPatternHi: p.bgShiftPatternHi,
		BgShiftAttrLo: p.bgShiftAttrLo, BgShiftAttrHi: p.bgShiftAttrHi,
		NTLatch: p.ntLatch, ATLatch: p.atLatch,
		PTLoLatch: p.ptLoLatch, PTHiLatch: p.ptHiLatch,

		OAM: p.oam, SecondaryOAM: p.secondaryOAM, SpriteCount: p.spriteCount,
		SpritePatLo: p.spritePatLo, SpritePatHi: p.spritePatHi,
		SpriteX: p.spriteX, SpriteAttr: p.spriteAttr, SpriteIsZero: p.spriteIsZero,
		SpriteZeroSlot: p.spriteZeroSlot, Sprite0OnLine: p.sprite0OnLine,
		Sprite0Hit: p.sprite0Hit, SpriteOverflow: p.spriteOverflow,

		FrameBuffer: p.frameBuffer, ColorTable: p.colorTable,

		BackgroundEnabled: p.backgroundEnabled, SpritesEnabled: p.spritesEnabled,
		RenderingEnabled: p.renderingEnabled, CycleCount: p.cycleCount,
	}
}

// Restore applies a previously captured Snapshot.
func (p *PPU) Restore(s Snapshot) {
	p.ppuCtrl, p.ppuMask, p.ppuStatus, p.oamAddr = s.Ctrl, s.Mask, s.Status, s.OAMAddr
	p.v, p.t, p.x, p.w = s.V, s.T, s.X, s.W
	p.scanline, p.cycle, p.frameCount = s.Scanline, s.Cycle, s.FrameCount
	p.oddFrame, p.readBuffer = s.OddFrame, s.ReadBuffer

	p.bgShiftPatternLo, p.bgShiftPatternHi = s.BgShiftPatternLo, s.BgShiftPatternHi
	p.bgShiftAttrLo, p.bgShiftAttrHi = s.BgShiftAttrLo, s.BgShiftAttrHi
	p.ntLatch, p.atLatch = s.NTLatch, s.ATLatch
	p.ptLoLatch, p.ptHiLatch = s.PTLoLatch, s.PTHiLatch

	p.oam, p.secondaryOAM, p.spriteCount = s.OAM, s.SecondaryOAM, s.SpriteCount
	p.spritePatLo, p.spritePatHi = s.SpritePatLo, s.SpritePatHi
	p.spriteX, p.spriteAttr, p.spriteIsZero = s.SpriteX, s.SpriteAttr, s.SpriteIsZero
	p.spriteZeroSlot, p.sprite0OnLine = s.SpriteZeroSlot, s.Sprite0OnLine
	p.sprite0Hit, p.spriteOverflow = s.Sprite0Hit, s.SpriteOverflow

	p.frameBuffer, p.colorTable = s.FrameBuffer, s.ColorTable

	p.backgroundEnabled, p.spritesEnabled = s.BackgroundEnabled, s.SpritesEnabled
	p.renderingEnabled, p.cycleCount = s.RenderingEnabled, s.CycleCount
}
