// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"gopkg.in/yaml.v3"
)

// LoadProfileFile decodes the YAML file at the given path in fsys onto the
// given profile. Only keys present in the file overwrite profile fields, so
// the file acts as an overlay. Unknown keys are rejected.
//
// An empty file is accepted and leaves the profile untouched.
func LoadProfileFile(fsys fs.FS, path string, profile *LaunchProfile) error {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProfileFile, err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	err = decoder.Decode(profile)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %s: %w", ErrProfileFile, path, err)
	}

	return nil
}
