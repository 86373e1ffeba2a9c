// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package provision

import (
	"context"
	"log/slog"
	"time"

	"github.com/aibor/vmprovision/internal/console"
)

const (
	// DefaultLongSettle is the delay after slow commands, like starting a
	// service.
	DefaultLongSettle = 10 * time.Second

	// DefaultChunkSize is the size of the pieces the public key is typed in.
	DefaultChunkSize = 32
)

// Sequencer is the provisioning state machine.
//
// Exactly one marker is armed at a time. When it is found in the console
// output, the action of the current state is run and the next state is
// entered. The console buffer is cleared on each transition, so output seen
// before cannot trigger the next phase.
//
// A Sequencer is not safe for concurrent use. All methods must be called from
// the same goroutine.
type Sequencer struct {
	// LongSettle is the delay after steps marked as slow.
	LongSettle time.Duration

	// ChunkSize is the size of the pieces blobs are sent in.
	ChunkSize int

	// Logger receives phase transitions. If nil, [slog.Default] is used.
	Logger *slog.Logger

	// OutputBarrier, if set, is called once all setup commands have been
	// sent, right before a fresh prompt is requested. Console output read
	// before the call was printed while setup was running and must not be
	// fed anymore, as the prompts in it answer setup commands.
	OutputBarrier func()

	script   Script
	injector *console.Injector
	scanner  *console.Scanner
	state    State
	install  installPhase
	visited  []State
}

// NewSequencer creates a new [Sequencer] in state [AwaitingLogin], armed with
// the login marker of the script.
func NewSequencer(script Script, injector *console.Injector) *Sequencer {
	return &Sequencer{
		LongSettle: DefaultLongSettle,
		ChunkSize:  DefaultChunkSize,
		script:     script,
		injector:   injector,
		scanner:    console.NewScanner(script.Markers.Login),
		state:      AwaitingLogin,
		visited:    []State{AwaitingLogin},
	}
}

// State returns the current state.
func (s *Sequencer) State() State {
	return s.state
}

// Visited returns all states entered so far in order.
func (s *Sequencer) Visited() []State {
	visited := make([]State, len(s.visited))
	copy(visited, s.visited)

	return visited
}

// Done returns true once the shutdown command has been sent.
func (s *Sequencer) Done() bool {
	return s.state == Terminal
}

// KeystrokesDue returns true while package installation is running and
// periodic keystrokes must be sent by calling [Sequencer.Tick].
func (s *Sequencer) KeystrokesDue() bool {
	return s.state == AwaitingInstallProgress && s.install == installRunning
}

// Feed passes console output to the scanner and runs the current state's
// action if the armed marker has been found.
//
// Errors writing to the console are returned as [*PhaseError].
func (s *Sequencer) Feed(ctx context.Context, chunk []byte) error {
	if s.state == Terminal {
		return nil
	}

	if !s.scanner.Feed(chunk) {
		return nil
	}

	s.logger().Debug("Marker found",
		slog.String("state", s.state.String()),
		slog.String("marker", s.scanner.Marker()),
	)

	err := s.fire(ctx)
	if err != nil {
		return &PhaseError{State: s.state, Err: err}
	}

	return nil
}

// Tick sends a single keystroke if [Sequencer.KeystrokesDue]. Otherwise it
// does nothing.
func (s *Sequencer) Tick() error {
	if !s.KeystrokesDue() {
		return nil
	}

	err := s.injector.Keystroke()
	if err != nil {
		return &PhaseError{State: s.state, Err: err}
	}

	return nil
}

func (s *Sequencer) fire(ctx context.Context) error {
	switch s.state {
	case AwaitingLogin:
		err := s.injector.Send(ctx, s.script.Identity)
		if err != nil {
			return err
		}

		s.scanner.Arm(s.script.Markers.Prompt)
		s.enter(AwaitingFirstPrompt)

	case AwaitingFirstPrompt:
		// The prompt is printed again after each setup command. Those are
		// dropped and a new one is requested by an empty line.
		err := s.run(ctx, s.script.Setup)
		if err != nil {
			return err
		}

		s.scanner.Arm(s.script.Markers.Prompt)

		if s.OutputBarrier != nil {
			s.OutputBarrier()
		}

		err = s.injector.Keystroke()
		if err != nil {
			return err
		}

		s.enter(AwaitingPackageInstallPrompt)

	case AwaitingPackageInstallPrompt:
		err := s.run(ctx, []Step{s.script.Install})
		if err != nil {
			return err
		}

		s.scanner.Arm(s.script.Markers.Progress)
		s.install = installPending
		s.enter(AwaitingInstallProgress)

	case AwaitingInstallProgress:
		if s.install == installPending {
			s.logger().Info("Package installation running")
			s.install = installRunning

			// Output following the first marker may already carry the
			// second one.
			if !s.scanner.Consume() {
				return nil
			}

			return s.fire(ctx)
		}

		s.logger().Info("Package installation finished")
		s.scanner.Arm("")
		s.enter(Finalizing)

		err := s.run(ctx, s.script.Finalize)
		if err != nil {
			return err
		}

		s.enter(Terminal)

	case Finalizing, Terminal:
	}

	return nil
}

func (s *Sequencer) run(ctx context.Context, steps []Step) error {
	for _, step := range steps {
		var err error

		switch {
		case step.Blob != "":
			err = s.injector.SendChunked(ctx, step.Blob, s.ChunkSize)
		case step.Slow:
			err = s.injector.SendWait(ctx, step.Line, s.LongSettle)
		default:
			err = s.injector.Send(ctx, step.Line)
		}

		if err != nil {
			return err
		}
	}

	return nil
}

func (s *Sequencer) enter(state State) {
	s.logger().Info("Provisioning phase", slog.String("state", state.String()))

	s.state = state
	s.visited = append(s.visited, state)
}

func (s *Sequencer) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}

	return s.Logger
}
