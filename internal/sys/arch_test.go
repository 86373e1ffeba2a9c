// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sys_test

import (
	"testing"

	"github.com/aibor/vmprovision/internal/sys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArch_Set(t *testing.T) {
	tests := []struct {
		input       string
		expected    sys.Arch
		expectedErr error
	}{
		{input: "amd64", expected: sys.AMD64},
		{input: "x86_64", expected: sys.AMD64},
		{input: "i386", expected: sys.I386},
		{input: "i686", expected: sys.I386},
		{input: "arm64", expected: sys.ARM64},
		{input: "aarch64", expected: sys.ARM64},
		{input: "riscv64", expected: sys.RISCV64},
		{input: "mips", expectedErr: sys.ErrArchNotSupported},
		{input: "", expectedErr: sys.ErrArchNotSupported},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var arch sys.Arch

			err := arch.Set(tt.input)
			require.ErrorIs(t, err, tt.expectedErr)

			assert.Equal(t, tt.expected, arch)
		})
	}
}

func TestArch_IsNative(t *testing.T) {
	arch := sys.Native
	assert.True(t, arch.IsNative())

	for _, other := range []sys.Arch{sys.AMD64, sys.I386, sys.ARM64, sys.RISCV64} {
		if other == sys.Native {
			continue
		}

		assert.False(t, other.IsNative(), other)
		assert.False(t, other.KVMAvailable(), other)
	}
}

func TestArch_UnmarshalText(t *testing.T) {
	var arch sys.Arch

	require.NoError(t, arch.UnmarshalText([]byte("aarch64")))
	assert.Equal(t, sys.ARM64, arch)

	require.ErrorIs(t, arch.UnmarshalText([]byte("sparc")), sys.ErrArchNotSupported)
}
