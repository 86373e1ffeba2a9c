// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package console treats the raw byte stream of a serial console as a very
// simple protocol.
//
// The console has no framing and does not acknowledge input. [Scanner] detects
// literal marker strings in the output, no matter how the output is split into
// chunks. [Injector] writes input and waits a fixed settle time after each
// write, as there is no other way to know when the guest consumed it.
package console
