// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"
	"time"
)

// PositiveDurationValue is a [pflag.Value] for durations greater than zero.
type PositiveDurationValue struct {
	Value *time.Duration
}

// String implements [pflag.Value].
func (d *PositiveDurationValue) String() string {
	if d.Value == nil {
		return "0s"
	}

	return d.Value.String()
}

// Set implements [pflag.Value].
func (d *PositiveDurationValue) Set(s string) error {
	value, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	if value <= 0 {
		return fmt.Errorf("%s <= 0: %w", value, ErrValueOutOfRange)
	}

	if d.Value == nil {
		d.Value = new(time.Duration)
	}

	*d.Value = value

	return nil
}

// Type implements [pflag.Value].
func (*PositiveDurationValue) Type() string {
	return "duration"
}
