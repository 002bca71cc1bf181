package emulator

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Button is a joypad button, the values are libretro joypad ids.
type Button uint8

const (
	ButtonB Button = iota
	ButtonY
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
	ButtonA
	ButtonX
	ButtonL
	ButtonR
	buttonCount
)

var buttonNames = [buttonCount]string{
	"B", "Y", "SELECT", "START", "UP", "DOWN", "LEFT", "RIGHT", "A", "X", "L", "R",
}

func (b Button) String() string {
	if b < buttonCount {
		return buttonNames[b]
	}
	return fmt.Sprintf("Button(%d)", uint8(b))
}

// ParseButton finds a button by its case-insensitive name.
func ParseButton(name string) (Button, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for i, n := range buttonNames {
		if n == name {
			return Button(i), nil
		}
	}
	return 0, fmt.Errorf("unknown button %q", name)
}

func (b *Button) UnmarshalText(text []byte) error {
	v, err := ParseButton(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

func (b Button) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

// Joypad is the shared pressed-buttons state.
// Writers flip single bits, the core reads the whole mask.
type Joypad struct {
	state atomic.Uint32
}

func (j *Joypad) Set(b Button, pressed bool) {
	if b >= buttonCount {
		return
	}
	bit := uint32(1) << b
	for {
		old := j.state.Load()
		v := old &^ bit
		if pressed {
			v = old | bit
		}
		if v == old || j.state.CompareAndSwap(old, v) {
			return
		}
	}
}

func (j *Joypad) IsPressed(b Button) bool { return j.state.Load()&(1<<b) != 0 }

// Bitmask returns pressed buttons as bits by their ids.
func (j *Joypad) Bitmask() uint16 { return uint16(j.state.Load()) }
