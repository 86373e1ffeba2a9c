// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd_test

import (
	"strconv"
	"testing"

	"github.com/aibor/vmprovision/internal/cmd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimitedUintValue_Set(t *testing.T) {
	ptr := func(n uint64) *uint64 {
		return &n
	}

	tests := []struct {
		name        string
		value       cmd.LimitedUintValue
		input       string
		expected    *uint64
		expectedErr error
	}{
		{
			name:        "empty",
			expectedErr: strconv.ErrSyntax,
		},
		{
			name:        "not a number",
			input:       "dwdfwef",
			expectedErr: strconv.ErrSyntax,
		},
		{
			name:        "signed int",
			input:       "-1",
			expectedErr: strconv.ErrSyntax,
		},
		{
			name:        "longer than 64bit",
			input:       "184467440737095516151111111111111111111",
			expectedErr: strconv.ErrRange,
		},
		{
			name:  "zero",
			input: "0",
			value: cmd.LimitedUintValue{
				Value: ptr(42),
			},
			expected: ptr(0),
		},
		{
			name:  "is lower",
			input: "42",
			value: cmd.LimitedUintValue{
				Value: ptr(0),
				Lower: 42,
				Upper: 43,
			},
			expected: ptr(42),
		},
		{
			name:  "is upper",
			input: "42",
			value: cmd.LimitedUintValue{
				Value: ptr(0),
				Lower: 41,
				Upper: 42,
			},
			expected: ptr(42),
		},
		{
			name:  "is below",
			input: "42",
			value: cmd.LimitedUintValue{
				Lower: 43,
				Upper: 44,
			},
			expectedErr: cmd.ErrValueOutOfRange,
		},
		{
			name:  "is above",
			input: "42",
			value: cmd.LimitedUintValue{
				Lower: 40,
				Upper: 41,
			},
			expectedErr: cmd.ErrValueOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.value.Set(tt.input)
			require.ErrorIs(t, err, tt.expectedErr)
			assert.Equal(t, tt.expected, tt.value.Value)
		})
	}
}

func TestMemoryValue_Set(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    uint64
		expectedErr error
		fails       bool
	}{
		{
			name:     "plain MiB",
			input:    "512",
			expected: 512,
		},
		{
			name:     "GiB",
			input:    "2GiB",
			expected: 2048,
		},
		{
			name:     "MiB with unit",
			input:    "768MiB",
			expected: 768,
		},
		{
			name:     "SI unit rounded down",
			input:    "1G",
			expected: 953,
		},
		{
			name:        "below minimum",
			input:       "64MiB",
			expectedErr: cmd.ErrValueOutOfRange,
		},
		{
			name:        "above maximum",
			input:       "32GiB",
			expectedErr: cmd.ErrValueOutOfRange,
		},
		{
			name:  "garbage",
			input: "lots",
			fails: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var actual uint64

			value := cmd.MemoryValue{Value: &actual, Lower: 128, Upper: 16384}

			err := value.Set(tt.input)
			if tt.fails {
				require.Error(t, err)
				return
			}

			require.ErrorIs(t, err, tt.expectedErr)
			assert.Equal(t, tt.expected, actual)
		})
	}
}

func TestMemoryValue_String(t *testing.T) {
	mem := uint64(2048)
	value := cmd.MemoryValue{Value: &mem}

	assert.Equal(t, "2.0 GiB", value.String())
	assert.Equal(t, "0", (&cmd.MemoryValue{}).String())
}
