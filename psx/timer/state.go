package timer

import "github.com/valerio/go-psxcore/psx/addr"

// State owns all three counters and dispatches the 0x1F801100..0x1F801128
// register window to the right timer/sub-register, mirroring the
// original source's TimerState word/half read/write dispatch.
type State struct {
	Timers [3]*Timer
}

func NewState() *State {
	return &State{Timers: [3]*Timer{New(Timer0), New(Timer1), New(Timer2)}}
}

func (s *State) Reset() {
	for _, t := range s.Timers {
		t.Reset()
	}
}

func (s *State) ReadWord(address uint32) uint32 {
	idx := (address - addr.TimerStart) / 0x10
	reg := (address - addr.TimerStart) % 0x10
	t := s.Timers[idx]
	switch reg {
	case 0x0:
		return t.ReadValue()
	case 0x4:
		return t.ReadMode()
	case 0x8:
		return t.ReadTarget()
	default:
		return 0
	}
}

func (s *State) WriteWord(address uint32, value uint32) {
	idx := (address - addr.TimerStart) / 0x10
	reg := (address - addr.TimerStart) % 0x10
	t := s.Timers[idx]
	switch reg {
	case 0x0:
		t.value = value & 0xFFFF
	case 0x4:
		t.WriteMode(value)
	case 0x8:
		t.WriteTarget(value)
	}
}
