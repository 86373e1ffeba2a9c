// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package provision drives a booted guest through its serial console until
// remote access is set up, packages are installed and the guest is shut down.
//
// The [Sequencer] is a state machine on top of a [console.Scanner]. It reacts
// to markers in the console output by writing the commands of a [Script]
// through a [console.Injector]. The [Session] owns the emulator process and
// serializes console output, keystroke ticks and the exit notification into a
// single loop.
package provision
