package vm

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	TimerRate   = 60
	TimerPeriod = time.Second / TimerRate

	DefaultInstructionRate = 700
	// MaxInstructionRate keeps the instruction period at one nanosecond or more.
	MaxInstructionRate = int(time.Second)

	// maxFrameLag caps how much host time a single frame may catch up on,
	// so a stalled host does not trigger a burst of instructions.
	maxFrameLag = 250 * time.Millisecond
)

// HAL is implemented by frontends: the renderer, the audio device and the
// input provider in one. ReadInput writes the current key state into keypad,
// either as Press/Release events or as a SetKeys snapshot.
type HAL interface {
	ReadInput(keypad *Keypad) error
	Draw(fb *Framebuffer) error
	SetSound(on bool) error
	WaitForNextFrame() error
}

type Mode uint8

const (
	ModeRunning Mode = iota
	ModeAwaitingKey
	ModeHalted
)

func (m Mode) String() string {
	switch m {
	case ModeRunning:
		return "running"
	case ModeAwaitingKey:
		return "awaiting-key"
	case ModeHalted:
		return "halted"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

type SchedulerConfig struct {
	// InstructionRate is the number of instruction slots per second.
	InstructionRate int
	// HaltOnError stops the run at the first failed instruction. When unset,
	// failures are logged and execution continues with the next instruction.
	HaltOnError bool
}

func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		InstructionRate: DefaultInstructionRate,
		HaltOnError:     true,
	}
}

// Events summarizes what changed during an Advance call.
type Events struct {
	DisplayDirty bool
	SoundChanged bool
	SoundOn      bool
	Looped       bool
}

// Scheduler owns a VM for the duration of a run and drives the instruction
// cadence and the 60Hz timer cadence from one simulated clock.
type Scheduler struct {
	vm  *VM
	cfg SchedulerConfig

	cyclePeriod time.Duration
	now         time.Duration // simulated time since start
	nextCycle   time.Duration
	nextTimer   time.Duration

	mode         Mode
	waitRegister uint8
	looped       bool
	soundOn      bool
}

func NewScheduler(machine *VM, cfg SchedulerConfig) (*Scheduler, error) {
	if cfg.InstructionRate <= 0 || cfg.InstructionRate > MaxInstructionRate {
		return nil, fmt.Errorf("instruction rate must be in 1..%d, got %d", MaxInstructionRate, cfg.InstructionRate)
	}

	s := &Scheduler{
		vm:          machine,
		cfg:         cfg,
		cyclePeriod: time.Second / time.Duration(cfg.InstructionRate),
	}
	s.resetClock()
	s.soundOn = machine.SoundOn()
	return s, nil
}

func (s *Scheduler) resetClock() {
	s.now = 0
	s.nextCycle = 0
	s.nextTimer = TimerPeriod
	s.mode = ModeRunning
	s.waitRegister = 0
	s.looped = false
}

// Reset resets the machine and the scheduler to their initial state. A tone
// that was playing is reported as stopped by the next Advance.
func (s *Scheduler) Reset() {
	s.vm.Reset()
	s.resetClock()
}

func (s *Scheduler) VM() *VM {
	return s.vm
}

func (s *Scheduler) Mode() Mode {
	return s.mode
}

// Looped reports whether the program has executed a jump to itself.
func (s *Scheduler) Looped() bool {
	return s.looped
}

// Elapsed returns the simulated time consumed so far.
func (s *Scheduler) Elapsed() time.Duration {
	return s.now
}

// Advance runs every instruction slot and timer slot due within d of
// simulated time, in deadline order. Timer slots win ties. On a halting error
// it returns early with the events gathered so far.
func (s *Scheduler) Advance(d time.Duration) (Events, error) {
	var ev Events
	if s.mode == ModeHalted {
		return s.finish(ev), ErrHalted
	}

	target := s.now + d
	for {
		next := min(s.nextCycle, s.nextTimer)
		if next > target {
			break
		}
		s.now = next

		if s.nextTimer <= s.nextCycle {
			s.nextTimer += TimerPeriod
			s.vm.tickTimers()
			s.updateSound(&ev)
			continue
		}

		s.nextCycle += s.cyclePeriod
		if err := s.cycle(&ev); err != nil {
			return s.finish(ev), err
		}
	}
	s.now = target

	return s.finish(ev), nil
}

func (s *Scheduler) finish(ev Events) Events {
	s.updateSound(&ev)
	ev.DisplayDirty = ev.DisplayDirty || s.vm.drawFlag
	s.vm.drawFlag = false
	ev.SoundOn = s.soundOn
	ev.Looped = s.looped
	return ev
}

func (s *Scheduler) updateSound(ev *Events) {
	if on := s.vm.SoundOn(); on != s.soundOn {
		s.soundOn = on
		ev.SoundChanged = true
	}
}

// cycle spends one instruction slot.
func (s *Scheduler) cycle(ev *Events) error {
	if s.mode == ModeAwaitingKey {
		key, ok := s.vm.keypad.takeEdge()
		if !ok {
			return nil
		}

		s.vm.completeKeyWait(s.waitRegister, key)
		s.mode = ModeRunning
		return nil
	}

	res, err := s.vm.Step()

	if res.Policy == PCAwaitKey {
		s.mode = ModeAwaitingKey
		s.waitRegister = res.Register
		s.vm.keypad.clearEdges()
	}

	if res.Looped && !s.looped {
		s.looped = true
		slog.Info("program looped", "pc", fmt.Sprintf("0x%04x", s.vm.pc))
	}

	if res.SoundSet {
		s.updateSound(ev)
	}

	if err != nil {
		if res.Policy == PCHold || s.cfg.HaltOnError {
			s.mode = ModeHalted
			return err
		}
		slog.Warn("continuing past error", "err", err)
	}

	return nil
}

// Run drives the scheduler from the host clock, one frontend frame at a time,
// until the context is done, the frontend reports an error, or the machine
// halts.
func (s *Scheduler) Run(ctx context.Context, hal HAL) error {
	last := time.Now()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := hal.ReadInput(&s.vm.keypad); err != nil {
			return err
		}

		now := time.Now()
		elapsed := min(now.Sub(last), maxFrameLag)
		last = now

		ev, runErr := s.Advance(elapsed)

		if ev.DisplayDirty {
			fb := s.vm.Framebuffer()
			if err := hal.Draw(&fb); err != nil {
				return err
			}
		}

		if ev.SoundChanged {
			if err := hal.SetSound(ev.SoundOn); err != nil {
				return err
			}
		}

		if runErr != nil {
			return runErr
		}

		if err := hal.WaitForNextFrame(); err != nil {
			return err
		}
	}
}
