package debug

import (
	"bytes"
	"strings"
	"testing"
)

func TestEventKindString(t *testing.T) {
	cases := map[EventKind]string{
		EventDumpWRAM:     "wram",
		EventDumpPalette:  "palette",
		EventDumpAPU:      "apu",
		EventDumpMapper:   "mapper",
		EventToggleMute:   "mute",
		EventKind(99):     "unknown",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("EventKind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}

func TestDumpWRAMUnavailableWithoutSource(t *testing.T) {
	var buf bytes.Buffer
	d := NewDumper(&buf, Sources{})

	d.Handle(EventDumpWRAM)

	if !strings.Contains(buf.String(), "unavailable") {
		t.Errorf("expected unavailable message, got %q", buf.String())
	}
}

func TestDumpWRAMRendersBytes(t *testing.T) {
	var buf bytes.Buffer
	ram := [0x800]uint8{}
	ram[0] = 0xAB
	ram[16] = 0xCD

	d := NewDumper(&buf, Sources{WRAM: func() [0x800]uint8 { return ram }})
	d.Handle(EventDumpWRAM)

	out := buf.String()
	if !strings.Contains(out, "AB") || !strings.Contains(out, "CD") {
		t.Errorf("expected dump to contain written bytes, got %q", out)
	}
}

func TestDumpPaletteSplitsBackgroundAndSprite(t *testing.T) {
	var buf bytes.Buffer
	pal := [32]uint8{}
	pal[0] = 0x0F
	pal[16] = 0x30

	d := NewDumper(&buf, Sources{Palette: func() [32]uint8 { return pal }})
	d.Handle(EventDumpPalette)

	out := buf.String()
	if !strings.Contains(out, "bg :") || !strings.Contains(out, "spr:") {
		t.Errorf("expected bg/spr sections, got %q", out)
	}
}

func TestDumpAPUDecodesStatusBits(t *testing.T) {
	var buf bytes.Buffer
	d := NewDumper(&buf, Sources{APUStatus: func() uint8 { return 0x15 }}) // pulse1+triangle+DMC

	d.Handle(EventDumpAPU)

	out := buf.String()
	if !strings.Contains(out, "pulse1=1") || !strings.Contains(out, "DMC=1") {
		t.Errorf("expected decoded status bits, got %q", out)
	}
}

func TestDumpMapperIncludesID(t *testing.T) {
	var buf bytes.Buffer
	d := NewDumper(&buf, Sources{
		MapperID:    func() uint16 { return 1 },
		MapperState: func() any { return struct{ Bank int }{Bank: 3} },
	})

	d.Handle(EventDumpMapper)

	out := buf.String()
	if !strings.Contains(out, "mapper 1") {
		t.Errorf("expected mapper ID in dump, got %q", out)
	}
}

func TestToggleMuteFlipsState(t *testing.T) {
	var buf bytes.Buffer
	d := NewDumper(&buf, Sources{})

	if d.IsMuted() {
		t.Fatal("should start unmuted")
	}
	d.Handle(EventToggleMute)
	if !d.IsMuted() {
		t.Error("first toggle should mute")
	}
	d.Handle(EventToggleMute)
	if d.IsMuted() {
		t.Error("second toggle should unmute")
	}
}

func TestCPUTraceLineFormat(t *testing.T) {
	line := CPUTraceLine(0xC000, 0x4C, "JMP", 0x00, 0x00, 0x00, 0xFD, "NV-BDIZC")
	if !strings.Contains(line, "C000") || !strings.Contains(line, "JMP") {
		t.Errorf("trace line missing expected fields: %q", line)
	}
}
