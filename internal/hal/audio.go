package hal

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"
)

const (
	audioFrequency = 44100
	toneFrequency  = 441 // divides audioFrequency, so chunks join without clicks
	toneChunk      = audioFrequency / 30
)

// beeper plays a square wave through a queued SDL audio device.
type beeper struct {
	device sdl.AudioDeviceID
	tone   []byte
	on     bool
}

func newBeeper() (*beeper, error) {
	desired := &sdl.AudioSpec{
		Freq:     audioFrequency,
		Format:   sdl.AUDIO_U8,
		Channels: 1,
		Samples:  512,
	}

	device, err := sdl.OpenAudioDevice("", false, desired, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open sdl audio device: %w", err)
	}

	const period = audioFrequency / toneFrequency
	tone := make([]byte, toneChunk-toneChunk%period)
	for i := range tone {
		if i%period < period/2 {
			tone[i] = 0xA0
		} else {
			tone[i] = 0x60
		}
	}

	return &beeper{device: device, tone: tone}, nil
}

func (b *beeper) Set(on bool) error {
	if on == b.on {
		return nil
	}
	b.on = on

	if !on {
		sdl.PauseAudioDevice(b.device, true)
		sdl.ClearQueuedAudio(b.device)
		return nil
	}

	if err := b.Feed(); err != nil {
		return err
	}
	sdl.PauseAudioDevice(b.device, false)
	return nil
}

// Feed keeps about two chunks queued while the tone is on.
func (b *beeper) Feed() error {
	if !b.on {
		return nil
	}

	for sdl.GetQueuedAudioSize(b.device) < uint32(2*len(b.tone)) {
		if err := sdl.QueueAudio(b.device, b.tone); err != nil {
			return fmt.Errorf("failed to queue sdl audio: %w", err)
		}
	}
	return nil
}

func (b *beeper) Close() {
	sdl.CloseAudioDevice(b.device)
}
