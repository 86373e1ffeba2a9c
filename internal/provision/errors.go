// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package provision

import (
	"errors"
	"fmt"
)

var (
	// ErrFlavorNotSupported is returned for an unknown guest OS flavor.
	ErrFlavorNotSupported = errors.New("os flavor not supported")

	// ErrInvalidScript is returned if the script configuration is incomplete
	// or contains values that are unsafe to type into a shell.
	ErrInvalidScript = errors.New("invalid script")

	// ErrMarkerInInput is returned if a command echoed by the guest would
	// contain the marker armed at that time.
	ErrMarkerInInput = errors.New("marker contained in input")

	// ErrUnexpectedExit is returned if the emulator exits before the shutdown
	// command has been sent.
	ErrUnexpectedExit = errors.New("emulator exited unexpectedly")

	// ErrKill is returned if the emulator could not be killed.
	ErrKill = errors.New("kill emulator")
)

// PhaseError wraps an error that occurred while running the action of a
// provisioning phase.
type PhaseError struct {
	State State
	Err   error
}

// Error implements the [error] interface.
func (e *PhaseError) Error() string {
	return fmt.Sprintf("phase %s: %v", e.State, e.Err)
}

// Is implements the [errors.Is] interface.
func (*PhaseError) Is(other error) bool {
	_, ok := other.(*PhaseError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *PhaseError) Unwrap() error {
	return e.Err
}
