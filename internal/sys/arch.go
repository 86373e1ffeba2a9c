// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sys

import (
	"os"
	"runtime"
)

// Arch is a guest CPU architecture.
type Arch string

// Supported guest architectures.
const (
	AMD64   Arch = "amd64"
	I386    Arch = "i386"
	ARM64   Arch = "arm64"
	RISCV64 Arch = "riscv64"
)

// Native is the architecture of the host. Using the same architecture for the
// guest allows using KVM, if available. Use [Arch.KVMAvailable] to check.
var Native = goArchs[runtime.GOARCH]

// goArchs maps GOARCH values to their [Arch].
var goArchs = map[string]Arch{
	"amd64":   AMD64,
	"386":     I386,
	"arm64":   ARM64,
	"riscv64": RISCV64,
}

// archAliases are alternative names used by QEMU and most distributions.
var archAliases = map[string]Arch{
	"amd64":   AMD64,
	"x86_64":  AMD64,
	"i386":    I386,
	"i686":    I386,
	"386":     I386,
	"arm64":   ARM64,
	"aarch64": ARM64,
	"riscv64": RISCV64,
}

// String implements [fmt.Stringer].
func (a *Arch) String() string {
	return string(*a)
}

// Set implements [pflag.Value]. It accepts known aliases, like "x86_64" and
// "aarch64".
func (a *Arch) Set(s string) error {
	arch, exists := archAliases[s]
	if !exists {
		return ErrArchNotSupported
	}

	*a = arch

	return nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (a *Arch) UnmarshalText(text []byte) error {
	return a.Set(string(text))
}

// Type implements [pflag.Value].
func (*Arch) Type() string {
	return "arch"
}

// IsNative returns true if the architecture matches the host architecture.
func (a *Arch) IsNative() bool {
	return Native != "" && Native == *a
}

// KVMAvailable checks if KVM support is available for the given architecture.
func (a *Arch) KVMAvailable() bool {
	if !a.IsNative() {
		return false
	}

	f, err := os.OpenFile("/dev/kvm", os.O_WRONLY, 0)
	if err != nil {
		return false
	}

	_ = f.Close()

	return true
}
