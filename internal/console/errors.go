// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package console

import "errors"

var (
	// ErrWrite is returned if input could not be written to the console.
	ErrWrite = errors.New("console write failed")

	// ErrInvalidChunkSize is returned if a chunk size less than 1 is given.
	ErrInvalidChunkSize = errors.New("chunk size must be positive")
)
