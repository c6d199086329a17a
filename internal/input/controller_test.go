package input

import "testing"

func TestNewControllerDefaultState(t *testing.T) {
	c := New()
	if c.buttons != 0 || c.shiftRegister != 0 || c.strobe {
		t.Fatalf("expected zeroed controller, got %+v", c)
	}
}

func TestSetButtonIndividual(t *testing.T) {
	c := New()
	for _, b := range []Button{ButtonA, ButtonB, ButtonSelect, ButtonStart, ButtonUp, ButtonDown, ButtonLeft, ButtonRight} {
		c.SetButton(b, true)
		if !c.IsPressed(b) {
			t.Errorf("button %d should be pressed", b)
		}
		c.SetButton(b, false)
		if c.IsPressed(b) {
			t.Errorf("button %d should be released", b)
		}
	}
}

func TestSetButtonsArrayOrder(t *testing.T) {
	c := New()
	c.SetButtons([8]bool{true, false, false, true, false, false, false, true})
	if !c.IsPressed(ButtonA) || !c.IsPressed(ButtonStart) || !c.IsPressed(ButtonRight) {
		t.Fatal("expected A, Start, Right pressed")
	}
	if c.IsPressed(ButtonB) || c.IsPressed(ButtonSelect) {
		t.Fatal("expected B, Select released")
	}
}

func TestStrobeHighAlwaysReturnsA(t *testing.T) {
	c := New()
	c.SetButton(ButtonA, true)
	c.Write(0x01)
	for i := 0; i < 3; i++ {
		if v := c.Read(); v != 1 {
			t.Errorf("read %d during strobe: expected 1, got %d", i, v)
		}
	}
}

func TestStrobeLatchesReadSequence(t *testing.T) {
	c := New()
	c.SetButton(ButtonA, true)
	c.SetButton(ButtonStart, true)
	c.Write(0x01)
	c.Write(0x00)

	expected := []uint8{1, 0, 0, 1, 0, 0, 0, 0} // A,B,Select,Start,Up,Down,Left,Right
	for i, want := range expected {
		if got := c.Read(); got != want {
			t.Errorf("read %d: expected %d, got %d", i, want, got)
		}
	}
}

func TestReadPastEighthBitReturnsOne(t *testing.T) {
	c := New()
	c.SetButton(ButtonA, true)
	c.Write(0x01)
	c.Write(0x00)
	for i := 0; i < 8; i++ {
		c.Read()
	}
	if v := c.Read(); v != 1 {
		t.Errorf("expected open-bus 1 past 8 reads, got %d", v)
	}
}

func TestButtonChangeDuringStrobeUsesLiveState(t *testing.T) {
	c := New()
	c.SetButton(ButtonA, true)
	c.Write(0x01)
	c.SetButton(ButtonA, false)
	if v := c.Read(); v != 0 {
		t.Errorf("expected live state (A released) while strobe high, got %d", v)
	}
}

func TestResetClearsState(t *testing.T) {
	c := New()
	c.SetButton(ButtonA, true)
	c.Write(0x01)
	c.Reset()
	if c.buttons != 0 || c.shiftRegister != 0 || c.strobe {
		t.Fatal("expected reset to zero all state")
	}
}

func TestInputStateRoutesToControllers(t *testing.T) {
	is := NewInputState()
	is.Controller1.SetButton(ButtonA, true)
	is.Controller2.SetButton(ButtonB, true)
	is.Write(0x4016, 0x01)
	is.Write(0x4016, 0x00)

	if v := is.Read(0x4016); v != 0x01 {
		t.Errorf("controller 1 expected bit0=1, got 0x%02X", v)
	}
	if v := is.Read(0x4017); v != 0x40 {
		t.Errorf("controller 2 expected open-bus bit6 set with B not bit0, got 0x%02X", v)
	}
}

func TestInputStateWriteDrivesBothPorts(t *testing.T) {
	is := NewInputState()
	is.Write(0x4016, 0x01)
	if !is.Controller1.strobe || !is.Controller2.strobe {
		t.Fatal("expected strobe write to affect both controllers")
	}
}

func TestStandardStrobeSequence(t *testing.T) {
	c := New()
	c.SetButton(ButtonA, true)
	c.SetButton(ButtonStart, true)
	c.SetButton(ButtonRight, true)
	c.Write(0x01)
	c.Write(0x00)

	expected := []uint8{1, 0, 0, 1, 0, 0, 0, 1}
	for i, want := range expected {
		if got := c.Read(); got != want {
			t.Errorf("position %d: expected %d, got %d", i, want, got)
		}
	}
}
