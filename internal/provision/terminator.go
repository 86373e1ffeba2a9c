// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package provision

import (
	"fmt"
	"log/slog"
	"time"
)

// DefaultShutdownTimeout is the time the guest has to power off after the
// shutdown command has been sent.
const DefaultShutdownTimeout = 30 * time.Second

// Killer kills a process.
type Killer interface {
	Kill() error
}

// Terminator bounds the wait for the emulator to exit after the shutdown
// command has been sent. If the bound elapses, the process is killed.
//
// A Terminator is not safe for concurrent use.
type Terminator struct {
	Process Killer
	Timeout time.Duration
	Logger  *slog.Logger

	timer  *time.Timer
	killed bool
}

// Start arms the timer. It must be called at most once.
func (t *Terminator) Start() {
	timeout := t.Timeout
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}

	t.logger().Info("Waiting for emulator to exit", slog.Duration("timeout", timeout))
	t.timer = time.NewTimer(timeout)
}

// Started returns true if [Terminator.Start] has been called.
func (t *Terminator) Started() bool {
	return t.timer != nil
}

// C returns the channel that receives once the timeout has elapsed. Before
// [Terminator.Start] it returns nil, which blocks forever in a select.
func (t *Terminator) C() <-chan time.Time {
	if t.timer == nil {
		return nil
	}

	return t.timer.C
}

// Expire kills the process. Subsequent calls do nothing.
func (t *Terminator) Expire() error {
	if t.killed {
		return nil
	}

	t.killed = true

	t.logger().Warn("Guest did not shut down in time, killing emulator")

	err := t.Process.Kill()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrKill, err)
	}

	return nil
}

// Exited stops the timer and returns true if the exit was forced by
// [Terminator.Expire].
func (t *Terminator) Exited() bool {
	if t.timer != nil {
		t.timer.Stop()
	}

	if t.killed {
		t.logger().Warn("Emulator exit forced")
	} else {
		t.logger().Info("Emulator exited gracefully")
	}

	return t.killed
}

func (t *Terminator) logger() *slog.Logger {
	if t.Logger == nil {
		return slog.Default()
	}

	return t.Logger
}
