// Package debug provides an optional terminal inspector for the
// emulator core: CPU registers, GPU status, and a half-block VRAM
// preview, driven by tcell the same way go-jeebie's terminal backend
// drives its Game Boy framebuffer view. Not part of the guest-facing
// GDB remote-serial debug surface; this is a host-side developer tool.
package debug

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/valerio/go-psxcore/psx"
	"github.com/valerio/go-psxcore/psx/sio"
)

const (
	vramPreviewWidth  = 128
	vramPreviewHeight = 64
	registerPanelRows = 12
)

// TUI owns the tcell screen and drives one emulator.
type TUI struct {
	screen tcell.Screen
	emu    *psx.Emulator
}

func New(emu *psx.Emulator) (*TUI, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("initializing terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("initializing terminal: %w", err)
	}
	screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	screen.Clear()
	return &TUI{screen: screen, emu: emu}, nil
}

// Run drives the field loop until the user quits, rendering after
// every field. Ctrl-C, Esc, and 'q' all exit cleanly.
func (t *TUI) Run() {
	defer t.screen.Fini()

	buttons := sio.ButtonState{}
	running := true
	for running {
		buttons = sio.ButtonState{} // terminal key events carry no release notice; re-latch every field
		for t.screen.HasPendingEvent() {
			switch ev := t.screen.PollEvent().(type) {
			case *tcell.EventKey:
				running = t.handleKey(ev, &buttons)
			case *tcell.EventResize:
				t.screen.Sync()
			}
		}

		t.emu.SetButtons(buttons)
		t.emu.RunUntilFrame()
		t.render()
		t.screen.Show()
		time.Sleep(time.Second / 60)
	}
}

func (t *TUI) handleKey(ev *tcell.EventKey, buttons *sio.ButtonState) bool {
	switch ev.Key() {
	case tcell.KeyCtrlC, tcell.KeyEscape:
		return false
	case tcell.KeyUp:
		buttons.Up = true
	case tcell.KeyDown:
		buttons.Down = true
	case tcell.KeyLeft:
		buttons.Left = true
	case tcell.KeyRight:
		buttons.Right = true
	}
	switch ev.Rune() {
	case 'q':
		return false
	case ' ':
		if t.emu.GetDebuggerState() == psx.DebuggerPaused {
			t.emu.DebuggerResume()
		} else {
			t.emu.DebuggerPause()
		}
	case 'n':
		t.emu.DebuggerStepInstruction()
	case 'f':
		t.emu.DebuggerStepFrame()
	}
	return true
}

func (t *TUI) render() {
	t.screen.Clear()
	t.drawVRAM(0, 1)
	t.drawRegisters(vramPreviewWidth+2, 1)
	t.drawHelp()
}

// drawVRAM renders the top-left corner of VRAM as half-block
// characters, converting each ARGB1555 pixel to a tcell RGB color with
// ch8 = ch5*8, the same half-block trick go-jeebie's
// terminal renderer uses for the Game Boy framebuffer.
func (t *TUI) drawVRAM(originX, originY int) {
	vram := t.emu.GetVRAM()
	const stride = 1024
	for row := 0; row < vramPreviewHeight; row += 2 {
		for col := 0; col < vramPreviewWidth; col++ {
			top := vram[row*stride+col]
			bottom := uint16(0)
			if row+1 < vramPreviewHeight {
				bottom = vram[(row+1)*stride+col]
			}
			style := tcell.StyleDefault.Foreground(color15(top)).Background(color15(bottom))
			t.screen.SetContent(originX+col, originY+row/2, '▀', nil, style)
		}
	}
}

func color15(px uint16) tcell.Color {
	r := uint8(px&0x1F) * 8
	g := uint8((px>>5)&0x1F) * 8
	b := uint8((px>>10)&0x1F) * 8
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

func (t *TUI) drawRegisters(x, y int) {
	cpu := t.emu.GetCPU()
	style := tcell.StyleDefault.Foreground(tcell.ColorBlue)

	lines := []string{
		fmt.Sprintf("PC:  0x%08X", cpu.GetPC()),
		fmt.Sprintf("HI:  0x%08X  LO: 0x%08X", cpu.HI(), cpu.LO()),
		fmt.Sprintf("STATUS: 0x%08X", cpu.Status()),
		fmt.Sprintf("instructions: %d", t.emu.GetInstructionCount()),
		fmt.Sprintf("fields: %d", t.emu.GetFrameCount()),
		fmt.Sprintf("state: %s", debuggerStateName(t.emu.GetDebuggerState())),
	}
	for i, line := range lines {
		if i >= registerPanelRows {
			break
		}
		t.drawString(x, y+i, line, style)
	}

	regY := y + len(lines) + 1
	for row := 0; row < 8; row++ {
		line := ""
		for col := 0; col < 4; col++ {
			idx := row*4 + col
			line += fmt.Sprintf("r%-2d=%08X ", idx, cpu.Reg(idx))
		}
		t.drawString(x, regY+row, line, style)
	}
}

func debuggerStateName(s psx.DebuggerState) string {
	switch s {
	case psx.DebuggerPaused:
		return "paused"
	case psx.DebuggerStep:
		return "step"
	case psx.DebuggerStepFrame:
		return "step-frame"
	default:
		return "running"
	}
}

func (t *TUI) drawHelp() {
	_, h := t.screen.Size()
	style := tcell.StyleDefault.Foreground(tcell.ColorGray)
	t.drawString(0, h-1, " space=pause/resume  n=step  f=step-field  q/esc=quit ", style)
}

func (t *TUI) drawString(x, y int, s string, style tcell.Style) {
	for i, r := range s {
		t.screen.SetContent(x+i, y, r, nil, style)
	}
}
