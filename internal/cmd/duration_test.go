// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd_test

import (
	"testing"
	"time"

	"github.com/aibor/vmprovision/internal/cmd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositiveDurationValue_Set(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    time.Duration
		expectedErr error
		fails       bool
	}{
		{
			name:     "seconds",
			input:    "5s",
			expected: 5 * time.Second,
		},
		{
			name:     "milliseconds",
			input:    "1ms",
			expected: time.Millisecond,
		},
		{
			name:        "zero",
			input:       "0",
			expectedErr: cmd.ErrValueOutOfRange,
		},
		{
			name:        "negative",
			input:       "-1s",
			expectedErr: cmd.ErrValueOutOfRange,
		},
		{
			name:  "no unit",
			input: "5",
			fails: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value := time.Hour
			d := cmd.PositiveDurationValue{Value: &value}

			err := d.Set(tt.input)

			switch {
			case tt.expectedErr != nil:
				require.ErrorIs(t, err, tt.expectedErr)
				assert.Equal(t, time.Hour, value, "value unchanged")
			case tt.fails:
				require.Error(t, err)
				assert.Equal(t, time.Hour, value, "value unchanged")
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.expected, value)
				assert.Equal(t, tt.expected.String(), d.String())
			}
		})
	}
}

func TestPositiveDurationValue_Nil(t *testing.T) {
	var d cmd.PositiveDurationValue

	assert.Equal(t, "0s", d.String())
	assert.Equal(t, "duration", d.Type())

	require.NoError(t, d.Set("2s"))
	assert.Equal(t, 2*time.Second, *d.Value)
}
