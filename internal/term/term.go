//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

// Package term is a terminal frontend: the framebuffer is drawn with block
// characters, keys are read from a raw-mode stdin and the sound signal rings
// the terminal bell.
package term

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/kapitanov/chip8i/internal/vm"
	"golang.org/x/sys/unix"
)

const (
	frameDuration = time.Second / 60

	// Terminals report no key releases; a key counts as held for this many
	// frames after its last byte arrived. Auto-repeat refreshes it.
	holdFrames = 6
)

type Terminal struct {
	fd      int
	restore unix.Termios
	out     *bufio.Writer

	held [vm.KeyCount]int
	buf  [64]byte
}

var _ vm.HAL = (*Terminal)(nil)

func New() (*Terminal, error) {
	return newTerminal(int(os.Stdin.Fd()), os.Stdout)
}

func newTerminal(fd int, w io.Writer) (*Terminal, error) {
	termios, err := unix.IoctlGetTermios(fd, ioctlReadTermios)
	if err != nil {
		return nil, fmt.Errorf("failed to read terminal state: %w", err)
	}

	t := &Terminal{
		fd:      fd,
		restore: *termios,
		out:     bufio.NewWriter(w),
	}

	termstate := *termios
	termstate.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.INLCR | unix.ICRNL | unix.IXON
	termstate.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.IEXTEN | unix.ISIG
	termstate.Cflag &^= unix.CSIZE | unix.PARENB
	termstate.Cflag |= unix.CS8

	// Reads return immediately, with or without input.
	termstate.Cc[unix.VMIN] = 0
	termstate.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, ioctlWriteTermios, &termstate); err != nil {
		return nil, fmt.Errorf("failed to enter raw mode: %w", err)
	}
	slog.Debug("term: raw mode")

	// Hide the cursor and clear the screen.
	fmt.Fprint(t.out, "\x1b[?25l\x1b[2J")
	return t, t.out.Flush()
}

func (t *Terminal) Shutdown() {
	fmt.Fprint(t.out, "\x1b[?25h\r\n")
	if err := t.out.Flush(); err != nil {
		slog.Error("failed to flush terminal", "err", err)
	}

	if err := unix.IoctlSetTermios(t.fd, ioctlWriteTermios, &t.restore); err != nil {
		slog.Error("failed to restore terminal", "err", err)
	}
}

func (t *Terminal) ReadInput(keypad *vm.Keypad) error {
	for i := range t.held {
		if t.held[i] > 0 {
			t.held[i]--
			if t.held[i] == 0 {
				keypad.Release(vm.Key(i))
			}
		}
	}

	for {
		n, err := unix.Read(t.fd, t.buf[:])
		if err == unix.EINTR || err == unix.EAGAIN {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read terminal input: %w", err)
		}
		if n == 0 {
			return nil
		}

		for _, c := range t.buf[:n] {
			if err := t.processByte(c, keypad); err != nil {
				return err
			}
		}
	}
}

func (t *Terminal) processByte(c byte, keypad *vm.Keypad) error {
	switch c {
	case 0x03: // Ctrl-C
		slog.Debug("term: exit requested")
		return vm.ErrQuit
	case 0x12: // Ctrl-R
		slog.Debug("term: reboot requested")
		return vm.ErrReboot
	}

	key, ok := keyMap(c)
	if !ok {
		return nil
	}

	keypad.Press(key)
	t.held[key] = holdFrames
	return nil
}

func keyMap(c byte) (vm.Key, bool) {
	// Physical                Logical
	// ================        =================
	// | 1 | 2 | 3 | 4 |       | 1 | 2 | 3 | C |
	// | q | w | e | r |       | 4 | 5 | 6 | D |
	// | a | s | d | f |  <=>  | 7 | 8 | 9 | E |
	// | z | x | c | v |       | A | 0 | B | F |
	// ================        =================

	switch c {
	case 'x', 'X':
		return vm.Key0, true
	case '1':
		return vm.Key1, true
	case '2':
		return vm.Key2, true
	case '3':
		return vm.Key3, true
	case 'q', 'Q':
		return vm.Key4, true
	case 'w', 'W':
		return vm.Key5, true
	case 'e', 'E':
		return vm.Key6, true
	case 'a', 'A':
		return vm.Key7, true
	case 's', 'S':
		return vm.Key8, true
	case 'd', 'D':
		return vm.Key9, true
	case 'z', 'Z':
		return vm.KeyA, true
	case 'c', 'C':
		return vm.KeyB, true
	case '4':
		return vm.KeyC, true
	case 'r', 'R':
		return vm.KeyD, true
	case 'f', 'F':
		return vm.KeyE, true
	case 'v', 'V':
		return vm.KeyF, true
	default:
		return 0, false
	}
}

func (t *Terminal) Draw(fb *vm.Framebuffer) error {
	fmt.Fprint(t.out, "\x1b[H")
	render(t.out, fb)

	if err := t.out.Flush(); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

// render writes two pixel rows per text line using half-block characters.
func render(w *bufio.Writer, fb *vm.Framebuffer) {
	for y := 0; y < vm.ScreenHeight; y += 2 {
		for x := 0; x < vm.ScreenWidth; x++ {
			top, bottom := fb.Pixel(x, y), fb.Pixel(x, y+1)

			switch {
			case top && bottom:
				w.WriteString("█")
			case top:
				w.WriteString("▀")
			case bottom:
				w.WriteString("▄")
			default:
				w.WriteByte(' ')
			}
		}
		w.WriteString("\r\n")
	}
}

func (t *Terminal) SetSound(on bool) error {
	if !on {
		return nil
	}

	if _, err := t.out.WriteString("\a"); err != nil {
		return err
	}
	return t.out.Flush()
}

func (t *Terminal) WaitForNextFrame() error {
	time.Sleep(frameDuration)
	return nil
}
