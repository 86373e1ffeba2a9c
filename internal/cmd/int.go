// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
)

// LimitedUintValue is a [pflag.Value] for unsigned integers within the
// inclusive range from Lower to Upper. A zero bound is not checked.
type LimitedUintValue struct {
	Value        *uint64
	Lower, Upper uint64
}

// String implements [pflag.Value].
func (u *LimitedUintValue) String() string {
	if u.Value == nil {
		return "0"
	}

	return strconv.FormatUint(*u.Value, 10)
}

// Set implements [pflag.Value].
func (u *LimitedUintValue) Set(s string) error {
	value, err := strconv.ParseUint(s, 10, 0)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	return u.set(value)
}

// Type implements [pflag.Value].
func (*LimitedUintValue) Type() string {
	return "uint"
}

func (u *LimitedUintValue) set(value uint64) error {
	if u.Lower > 0 && value < u.Lower {
		return fmt.Errorf("%d < %d: %w", value, u.Lower, ErrValueOutOfRange)
	}

	if u.Upper > 0 && value > u.Upper {
		return fmt.Errorf("%d > %d: %w", value, u.Upper, ErrValueOutOfRange)
	}

	if u.Value == nil {
		u.Value = new(uint64)
	}

	*u.Value = value

	return nil
}

// MemoryValue is a [pflag.Value] for memory sizes stored in MiB.
//
// Plain numbers are taken as MiB. Values with unit, like "2GiB" or "512M", are
// parsed with [humanize.ParseBytes] and rounded down to full MiB.
type MemoryValue LimitedUintValue

// String implements [pflag.Value].
func (m *MemoryValue) String() string {
	if m.Value == nil || *m.Value == 0 {
		return "0"
	}

	return humanize.IBytes(*m.Value * humanize.MiByte)
}

// Set implements [pflag.Value].
func (m *MemoryValue) Set(s string) error {
	limited := (*LimitedUintValue)(m)

	mib, err := strconv.ParseUint(s, 10, 0)
	if err == nil {
		return limited.set(mib)
	}

	bytes, err := humanize.ParseBytes(s)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	return limited.set(bytes / humanize.MiByte)
}

// Type implements [pflag.Value].
func (*MemoryValue) Type() string {
	return "size"
}
