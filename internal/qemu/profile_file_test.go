// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu_test

import (
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/aibor/vmprovision/internal/qemu"
	"github.com/aibor/vmprovision/internal/sys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProfileFile(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		expected    qemu.LaunchProfile
		expectedErr error
	}{
		{
			name:     "empty",
			expected: qemu.LaunchProfile{CPU: "max", Memory: 256},
		},
		{
			name: "overlay",
			content: "arch: aarch64\n" +
				"bios: /usr/share/AAVMF/AAVMF_CODE.fd\n" +
				"memory: 2048\n" +
				"hostPort: 10022\n",
			expected: qemu.LaunchProfile{
				Arch:     sys.ARM64,
				CPU:      "max",
				BIOS:     "/usr/share/AAVMF/AAVMF_CODE.fd",
				Memory:   2048,
				HostPort: 10022,
			},
		},
		{
			name:        "unknown key",
			content:     "ram: 2048\n",
			expectedErr: qemu.ErrProfileFile,
		},
		{
			name:        "invalid arch",
			content:     "arch: sparc\n",
			expectedErr: sys.ErrArchNotSupported,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := fstest.MapFS{
				"profile.yaml": &fstest.MapFile{Data: []byte(tt.content)},
			}

			profile := qemu.LaunchProfile{CPU: "max", Memory: 256}

			err := qemu.LoadProfileFile(fsys, "profile.yaml", &profile)
			require.ErrorIs(t, err, tt.expectedErr)

			if tt.expectedErr == nil {
				assert.Equal(t, tt.expected, profile)
			}
		})
	}

	t.Run("missing", func(t *testing.T) {
		var profile qemu.LaunchProfile

		err := qemu.LoadProfileFile(fstest.MapFS{}, "profile.yaml", &profile)
		require.ErrorIs(t, err, qemu.ErrProfileFile)
		require.ErrorIs(t, err, fs.ErrNotExist)
	})
}
