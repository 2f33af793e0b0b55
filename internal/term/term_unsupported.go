//go:build !(linux || darwin || dragonfly || freebsd || netbsd || openbsd)

package term

import (
	"errors"

	"github.com/kapitanov/chip8i/internal/vm"
)

var ErrUnsupported = errors.New("terminal frontend is not supported on this platform")

type Terminal struct{}

func New() (*Terminal, error) {
	return nil, ErrUnsupported
}

func (t *Terminal) Shutdown() {}

func (t *Terminal) ReadInput(*vm.Keypad) error { return ErrUnsupported }

func (t *Terminal) Draw(*vm.Framebuffer) error { return ErrUnsupported }

func (t *Terminal) SetSound(bool) error { return ErrUnsupported }

func (t *Terminal) WaitForNextFrame() error { return ErrUnsupported }
