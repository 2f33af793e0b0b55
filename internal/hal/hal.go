package hal

import (
	"fmt"
	"log/slog"
	"time"
	"unsafe"

	"github.com/kapitanov/chip8i/internal/vm"
	"github.com/veandco/go-sdl2/sdl"
)

const (
	WindowWidth  = 1024
	WindowHeight = 512

	frameDuration = time.Second / 60

	offColor = uint32(0x000000)
	onColor  = uint32(0xbea700)
)

// keyScancodes places the keypad on the left of a QWERTY keyboard:
//
//	1 2 3 4        1 2 3 C
//	Q W E R   ->   4 5 6 D
//	A S D F        7 8 9 E
//	Z X C V        A 0 B F
var keyScancodes = [vm.KeyCount]sdl.Scancode{
	vm.Key0: sdl.SCANCODE_X,
	vm.Key1: sdl.SCANCODE_1,
	vm.Key2: sdl.SCANCODE_2,
	vm.Key3: sdl.SCANCODE_3,
	vm.Key4: sdl.SCANCODE_Q,
	vm.Key5: sdl.SCANCODE_W,
	vm.Key6: sdl.SCANCODE_E,
	vm.Key7: sdl.SCANCODE_A,
	vm.Key8: sdl.SCANCODE_S,
	vm.Key9: sdl.SCANCODE_D,
	vm.KeyA: sdl.SCANCODE_Z,
	vm.KeyB: sdl.SCANCODE_C,
	vm.KeyC: sdl.SCANCODE_4,
	vm.KeyD: sdl.SCANCODE_R,
	vm.KeyE: sdl.SCANCODE_F,
	vm.KeyF: sdl.SCANCODE_V,
}

// HAL is the SDL frontend: window renderer, keyboard input and beeper.
type HAL struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture

	pixels [vm.ScreenWidth * vm.ScreenHeight]uint32

	beeper *beeper
}

var _ vm.HAL = (*HAL)(nil)

func New() (*HAL, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_AUDIO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("failed to init sdl: %w", err)
	}

	hal := &HAL{}
	if err := hal.createVideo(); err != nil {
		hal.Shutdown()
		return nil, err
	}

	b, err := newBeeper()
	if err != nil {
		// Sound is optional; keep running silently.
		slog.Warn("hal: audio unavailable", "err", err)
	} else {
		slog.Debug("hal: open audio device")
		hal.beeper = b
	}

	return hal, nil
}

func (hal *HAL) createVideo() error {
	var err error

	hal.window, err = sdl.CreateWindow("CHIP-8", sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, WindowWidth, WindowHeight, sdl.WINDOW_SHOWN|sdl.WINDOW_UTILITY)
	if err != nil {
		return fmt.Errorf("failed to create sdl window: %w", err)
	}
	slog.Debug("hal: create window", "w", WindowWidth, "h", WindowHeight)

	hal.renderer, err = sdl.CreateRenderer(hal.window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		return fmt.Errorf("failed to create sdl renderer: %w", err)
	}
	if err := hal.renderer.SetLogicalSize(WindowWidth, WindowHeight); err != nil {
		return fmt.Errorf("failed to resize sdl renderer: %w", err)
	}
	slog.Debug("hal: create renderer")

	hal.texture, err = hal.renderer.CreateTexture(sdl.PIXELFORMAT_ARGB8888, sdl.TEXTUREACCESS_STREAMING, vm.ScreenWidth, vm.ScreenHeight)
	if err != nil {
		return fmt.Errorf("failed to create sdl texture: %w", err)
	}
	slog.Debug("hal: create texture", "w", vm.ScreenWidth, "h", vm.ScreenHeight)

	return nil
}

// Shutdown releases whatever New managed to create.
func (hal *HAL) Shutdown() {
	if hal.beeper != nil {
		hal.beeper.Close()
	}

	if hal.texture != nil {
		if err := hal.texture.Destroy(); err != nil {
			slog.Error("failed to destroy sdl texture", "err", err)
		}
	}

	if hal.renderer != nil {
		if err := hal.renderer.Destroy(); err != nil {
			slog.Error("failed to destroy sdl renderer", "err", err)
		}
	}

	if hal.window != nil {
		if err := hal.window.Destroy(); err != nil {
			slog.Error("failed to destroy sdl window", "err", err)
		}
	}

	sdl.Quit()
}

// ReadInput drains the event queue and then overwrites the keypad with the
// current keyboard state. Key-down events are applied first so a tap shorter
// than a frame still reaches a pending wait-for-key.
func (hal *HAL) ReadInput(keypad *vm.Keypad) error {
	for e := sdl.PollEvent(); e != nil; e = sdl.PollEvent() {
		switch e.GetType() {
		case sdl.QUIT:
			slog.Debug("hal: exit requested")
			return vm.ErrQuit
		case sdl.KEYDOWN:
			if err := onKeyDown(e.(*sdl.KeyboardEvent).Keysym.Scancode, keypad); err != nil {
				return err
			}
		}
	}

	keypad.SetKeys(keyboardState())
	return nil
}

func onKeyDown(scancode sdl.Scancode, keypad *vm.Keypad) error {
	switch scancode {
	case sdl.SCANCODE_BACKSPACE:
		slog.Debug("hal: reboot requested")
		return vm.ErrReboot
	case sdl.SCANCODE_ESCAPE:
		slog.Debug("hal: exit requested")
		return vm.ErrQuit
	}

	if key, ok := keyFor(scancode); ok {
		keypad.Press(key)
	}
	return nil
}

func keyFor(scancode sdl.Scancode) (vm.Key, bool) {
	for key, sc := range keyScancodes {
		if sc == scancode {
			return vm.Key(key), true
		}
	}
	return 0, false
}

func keyboardState() [vm.KeyCount]bool {
	state := sdl.GetKeyboardState()

	var keys [vm.KeyCount]bool
	for key, sc := range keyScancodes {
		keys[key] = int(sc) < len(state) && state[sc] != 0
	}
	return keys
}

func (hal *HAL) Draw(fb *vm.Framebuffer) error {
	for i, pixel := range fb {
		if pixel != 0 {
			hal.pixels[i] = onColor
		} else {
			hal.pixels[i] = offColor
		}
	}

	pitch := vm.ScreenWidth * int(unsafe.Sizeof(hal.pixels[0]))
	if err := hal.texture.Update(nil, unsafe.Pointer(&hal.pixels[0]), pitch); err != nil {
		return fmt.Errorf("failed to update sdl texture: %w", err)
	}

	if err := hal.renderer.Clear(); err != nil {
		return fmt.Errorf("failed to clear sdl renderer: %w", err)
	}
	if err := hal.renderer.Copy(hal.texture, nil, nil); err != nil {
		return fmt.Errorf("failed to copy sdl texture to renderer: %w", err)
	}

	hal.renderer.Present()
	return nil
}

func (hal *HAL) SetSound(on bool) error {
	if hal.beeper == nil {
		return nil
	}

	slog.Debug("hal: sound", "on", on)
	return hal.beeper.Set(on)
}

func (hal *HAL) WaitForNextFrame() error {
	if hal.beeper != nil {
		if err := hal.beeper.Feed(); err != nil {
			return err
		}
	}

	time.Sleep(frameDuration)
	return nil
}

// WaitForQuit keeps the last frame on screen until the window is closed.
func (hal *HAL) WaitForQuit() error {
	if err := hal.SetSound(false); err != nil {
		return err
	}

	for {
		for e := sdl.PollEvent(); e != nil; e = sdl.PollEvent() {
			switch e.GetType() {
			case sdl.QUIT:
				return nil
			case sdl.KEYDOWN:
				if e.(*sdl.KeyboardEvent).Keysym.Scancode == sdl.SCANCODE_ESCAPE {
					return nil
				}
			}
		}

		time.Sleep(frameDuration)
	}
}
