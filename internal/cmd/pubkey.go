// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"bytes"
	"fmt"
	"io/fs"
	"strings"

	"golang.org/x/crypto/ssh"
)

// publicKey is an authorized key line that is written into the guest.
type publicKey struct {
	line        string
	keyType     string
	fingerprint string
}

// loadPublicKey reads the first authorized key from the given file. Comment
// and empty lines are skipped. The key is normalized to a single line with its
// comment preserved.
func loadPublicKey(fsys fs.FS, path string) (publicKey, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return publicKey{}, fmt.Errorf("%w: public key: %w", ErrMissingArtifact, err)
	}

	key, comment, _, _, err := ssh.ParseAuthorizedKey(bytes.TrimSpace(data))
	if err != nil {
		return publicKey{}, fmt.Errorf("%w: %s: %w", ErrInvalidPublicKey, path, err)
	}

	line := strings.TrimSpace(string(ssh.MarshalAuthorizedKey(key)))
	if comment != "" {
		line += " " + comment
	}

	return publicKey{
		line:        line,
		keyType:     key.Type(),
		fingerprint: ssh.FingerprintSHA256(key),
	}, nil
}
