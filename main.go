package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/kapitanov/chip8i/internal/hal"
	"github.com/kapitanov/chip8i/internal/headless"
	"github.com/kapitanov/chip8i/internal/term"
	"github.com/kapitanov/chip8i/internal/vm"
	"github.com/spf13/cobra"
)

type options struct {
	verbose bool

	rate            int
	preset          string
	unknownOpcode   string
	continueOnError bool
	seed            uint64

	legacyShift    bool
	incrementIndex bool
	indexOverflow  bool
	jumpVX         bool
	clip           bool

	frontend string
	duration time.Duration
}

func main() {
	cmd := &cobra.Command{
		Use:           fmt.Sprintf("%s PATH_TO_ROM_FILE", filepath.Base(os.Args[0])),
		Short:         "Run a CHIP-8 program",
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	var opts options
	flags := cmd.Flags()
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose logging")
	flags.IntVar(&opts.rate, "rate", vm.DefaultInstructionRate, "instructions per second")
	flags.StringVar(&opts.preset, "quirks", "modern", "quirks preset: modern, cosmac")
	flags.StringVar(&opts.unknownOpcode, "unknown-opcode", "skip", "on unrecognized opcodes: skip, halt")
	flags.BoolVar(&opts.continueOnError, "continue-on-error", false, "log execution errors and keep running")
	flags.Uint64Var(&opts.seed, "seed", vm.DefaultSeed, "random number generator seed")
	flags.BoolVar(&opts.legacyShift, "legacy-shift", false, "8XY6/8XYE shift VY into VX")
	flags.BoolVar(&opts.incrementIndex, "increment-index", false, "FX55/FX65 advance I")
	flags.BoolVar(&opts.indexOverflow, "index-overflow", false, "FX1E sets VF on overflow past 0xFFF")
	flags.BoolVar(&opts.jumpVX, "jump-vx", false, "BNNN jumps to NNN+VX")
	flags.BoolVar(&opts.clip, "clip", false, "clip sprites at the screen edge")
	flags.StringVar(&opts.frontend, "frontend", "sdl", "frontend: sdl, term, headless")
	flags.DurationVar(&opts.duration, "duration", 10*time.Second, "simulated run time for the headless frontend")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		loggerOpts := &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}
		if opts.verbose {
			loggerOpts.Level = slog.LevelDebug
		}

		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, loggerOpts)))

		quirks, err := resolveQuirks(cmd, opts)
		if err != nil {
			return err
		}

		policy, err := vm.ParseUnknownOpcodePolicy(opts.unknownOpcode)
		if err != nil {
			return err
		}

		path := args[0]
		bs, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("unable to load file %q: %w", path, err)
		}

		machine, err := vm.New(bs, vm.Config{
			Quirks:        quirks,
			UnknownOpcode: policy,
			Random:        vm.NewRandomSource(opts.seed),
		})
		if err != nil {
			return fmt.Errorf("unable to load program %q: %w", path, err)
		}

		sched, err := vm.NewScheduler(machine, vm.SchedulerConfig{
			InstructionRate: opts.rate,
			HaltOnError:     !opts.continueOnError,
		})
		if err != nil {
			return err
		}

		slog.Info("start", "rom", path, "n", len(bs), "rate", opts.rate, "quirks", fmt.Sprintf("%+v", quirks), "frontend", opts.frontend)

		ctx := cmd.Context()
		switch opts.frontend {
		case "headless":
			return runHeadless(ctx, sched, opts.duration)
		case "term":
			t, err := term.New()
			if err != nil {
				return fmt.Errorf("unable to initialize terminal: %w", err)
			}
			defer t.Shutdown()

			return run(ctx, sched, t)
		case "sdl":
			h, err := hal.New()
			if err != nil {
				return fmt.Errorf("unable to initialize hal: %w", err)
			}
			defer h.Shutdown()

			err = run(ctx, sched, h)
			if isMachineError(err) {
				slog.Error("machine halted", "err", err)
				return h.WaitForQuit()
			}
			return err
		default:
			return fmt.Errorf("unknown frontend %q", opts.frontend)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd.SetArgs(os.Args[1:])
	if err := cmd.ExecuteContext(ctx); err != nil {
		slog.Error("fatal error", "err", err)
		stop()
		os.Exit(1)
	}
}

// resolveQuirks starts from the preset and applies explicitly set flags.
func resolveQuirks(cmd *cobra.Command, opts options) (vm.Quirks, error) {
	quirks, err := vm.QuirksByName(opts.preset)
	if err != nil {
		return vm.Quirks{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("legacy-shift") {
		quirks.LegacyShift = opts.legacyShift
	}
	if flags.Changed("increment-index") {
		quirks.IncrementIndexOnBlockIO = opts.incrementIndex
	}
	if flags.Changed("index-overflow") {
		quirks.IndexOverflowFlag = opts.indexOverflow
	}
	if flags.Changed("jump-vx") {
		quirks.JumpWithVX = opts.jumpVX
	}
	if flags.Changed("clip") {
		quirks.ClipSprites = opts.clip
	}

	return quirks, nil
}

// run drives the scheduler, rebooting the machine on request.
func run(ctx context.Context, sched *vm.Scheduler, h vm.HAL) error {
	for {
		err := sched.Run(ctx, h)

		if errors.Is(err, vm.ErrQuit) || errors.Is(err, context.Canceled) {
			return nil
		}

		if errors.Is(err, vm.ErrReboot) {
			slog.Info("reboot")
			sched.Reset()
			continue
		}

		return err
	}
}

func runHeadless(ctx context.Context, sched *vm.Scheduler, duration time.Duration) error {
	report, err := headless.Run(ctx, sched, duration)
	if werr := headless.WriteReport(os.Stdout, report); werr != nil {
		return werr
	}
	return err
}

func isMachineError(err error) bool {
	var execErr *vm.ExecError
	return errors.As(err, &execErr)
}
