// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package console_test

import (
	"strings"
	"testing"

	"github.com/aibor/vmprovision/internal/console"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIHd8R2Nh3ZHxn0XjVm0mxQ0F9zAU5TqKJ1rZQyEw8x0l user@host"

func TestChunk(t *testing.T) {
	tests := []struct {
		name     string
		blob     string
		size     int
		expected int
	}{
		{name: "empty", blob: "", size: 32, expected: 0},
		{name: "shorter", blob: "abc", size: 32, expected: 1},
		{name: "exact", blob: strings.Repeat("a", 64), size: 32, expected: 2},
		{name: "remainder", blob: strings.Repeat("a", 65), size: 32, expected: 3},
		{name: "key", blob: testKey, size: 32, expected: (len(testKey) + 31) / 32},
		{name: "single bytes", blob: testKey, size: 1, expected: len(testKey)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := console.Chunk(tt.blob, tt.size)
			require.NoError(t, err)

			assert.Len(t, chunks, tt.expected)
			assert.Equal(t, tt.blob, strings.Join(chunks, ""))

			for _, chunk := range chunks {
				assert.LessOrEqual(t, len(chunk), tt.size)
				assert.NotEmpty(t, chunk)
			}
		})
	}
}

func TestChunk_InvalidSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		_, err := console.Chunk("abc", size)
		assert.ErrorIs(t, err, console.ErrInvalidChunkSize)
	}
}
