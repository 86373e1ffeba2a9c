// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/aibor/vmprovision/internal/qemu"
	"github.com/aibor/vmprovision/internal/sys"
)

// validateProfile checks that all files required by the profile are present
// before the emulator is started.
func validateProfile(profile *qemu.LaunchProfile) error {
	_, err := exec.LookPath(profile.Executable)
	if err != nil {
		return fmt.Errorf("%w: qemu binary: %w", ErrMissingArtifact, err)
	}

	err = sys.ValidateFilePath(profile.Image)
	if err != nil {
		return fmt.Errorf("%w: disk image: %w", ErrMissingArtifact, err)
	}

	// Plain firmware names are looked up by QEMU in its data directories.
	if strings.ContainsRune(profile.BIOS, filepath.Separator) {
		err := sys.ValidateFilePath(profile.BIOS)
		if err != nil {
			return fmt.Errorf("%w: bios: %w", ErrMissingArtifact, err)
		}
	}

	return nil
}
