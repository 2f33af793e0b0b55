// Package headless runs a machine without a frontend, on simulated time, and
// reports the final framebuffer. It is meant for compatibility test ROMs.
package headless

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/kapitanov/chip8i/internal/vm"
)

const frameDuration = time.Second / 60

// Report is the outcome of a headless run.
type Report struct {
	Elapsed     time.Duration
	Looped      bool
	Mode        vm.Mode
	Framebuffer vm.Framebuffer
}

// Run advances s frame by frame until duration of simulated time has
// passed, the program loops, or the machine halts.
func Run(ctx context.Context, s *vm.Scheduler, duration time.Duration) (Report, error) {
	var runErr error

	for s.Elapsed() < duration {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		step := min(frameDuration, duration-s.Elapsed())
		ev, err := s.Advance(step)
		if err != nil {
			runErr = err
			break
		}

		if ev.Looped {
			slog.Debug("headless: stopping on loop", "elapsed", s.Elapsed())
			break
		}
	}

	return Report{
		Elapsed:     s.Elapsed(),
		Looped:      s.Looped(),
		Mode:        s.Mode(),
		Framebuffer: s.VM().Framebuffer(),
	}, runErr
}

// WriteReport prints a summary line followed by the framebuffer dump.
func WriteReport(w io.Writer, r Report) error {
	if _, err := fmt.Fprintf(w, "elapsed=%s looped=%t mode=%s\n", r.Elapsed, r.Looped, r.Mode); err != nil {
		return err
	}

	_, err := io.WriteString(w, r.Framebuffer.String())
	return err
}
