// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aibor/vmprovision/internal/sys"
)

// SSHGuestPort is the guest port the host port is forwarded to.
const SSHGuestPort = 22

const (
	defaultMemory      = 512
	defaultSMP         = 2
	defaultHostPort    = 2222
	defaultImageFormat = "qcow2"
)

const (
	machineTypePC   = "pc"
	machineTypeVirt = "virt"
)

// archPreset are the launch parameters that depend on the guest architecture.
type archPreset struct {
	executable string
	machine    string
	cpu        string
	bios       string
}

var archPresets = map[sys.Arch]archPreset{
	sys.AMD64: {
		executable: "qemu-system-x86_64",
		machine:    machineTypePC,
		cpu:        "qemu64",
		bios:       "/usr/share/qemu/OVMF.fd",
	},
	sys.I386: {
		executable: "qemu-system-i386",
		machine:    machineTypePC,
		cpu:        "Penryn",
		bios:       "/usr/share/qemu/OVMF.fd",
	},
	sys.ARM64: {
		executable: "qemu-system-aarch64",
		machine:    machineTypeVirt + ",gic-version=3",
		cpu:        "cortex-a72",
		bios:       "edk2-aarch64-code.fd",
	},
	sys.RISCV64: {
		executable: "qemu-system-riscv64",
		machine:    machineTypeVirt,
		cpu:        "rv64",
		bios:       "opensbi-riscv64-generic-fw_dynamic.bin",
	},
}

// LaunchProfile defines the parameters for booting a disk image.
//
// The zero value is not usable. Call [LaunchProfile.AddDefaultsFor] to fill in
// the architecture specific values that are not set explicitly.
type LaunchProfile struct {
	// Guest architecture.
	Arch sys.Arch `yaml:"arch"`

	// Path to or name of the qemu-system binary.
	Executable string `yaml:"executable"`

	// QEMU machine type to use. Depends on the QEMU binary used.
	Machine string `yaml:"machine"`

	// CPU type to use. Depends on machine type and QEMU binary used.
	CPU string `yaml:"cpu"`

	// Firmware file. Plain names are looked up by QEMU in its data
	// directories.
	BIOS string `yaml:"bios"`

	// Memory for the machine in MiB.
	Memory uint64 `yaml:"memory"`

	// Number of CPUs for the guest.
	SMP uint64 `yaml:"smp"`

	// Path to the disk image to boot and provision.
	Image string `yaml:"image"`

	// Format of the disk image.
	ImageFormat string `yaml:"imageFormat"`

	// Host TCP port forwarded to the guest's SSH port.
	HostPort uint16 `yaml:"hostPort"`

	// Disable KVM support.
	NoKVM bool `yaml:"noKVM"`

	// ExtraArgs are extra arguments that are passed to the QEMU command.
	// They must not interfere with the essential arguments set by the profile
	// itself or an error will be returned by [LaunchProfile.Arguments].
	ExtraArgs []Argument `yaml:"-"`
}

// AddDefaultsFor adds architecture specific default values to the profile if
// the fields are not set yet.
func (p *LaunchProfile) AddDefaultsFor(arch sys.Arch) error {
	preset, exists := archPresets[arch]
	if !exists {
		return sys.ErrArchNotSupported
	}

	p.Arch = arch

	setDefault(&p.Executable, preset.executable)
	setDefault(&p.Machine, preset.machine)
	setDefault(&p.CPU, preset.cpu)
	setDefault(&p.BIOS, preset.bios)
	setDefault(&p.ImageFormat, defaultImageFormat)

	if p.Memory == 0 {
		p.Memory = defaultMemory
	}

	if p.SMP == 0 {
		p.SMP = defaultSMP
	}

	if p.HostPort == 0 {
		p.HostPort = defaultHostPort
	}

	if !p.NoKVM {
		p.NoKVM = !arch.KVMAvailable()
	}

	return nil
}

// WithBinDir resolves the executable in the given QEMU bin directory, unless
// the executable is already given as path.
func (p *LaunchProfile) WithBinDir(dir string) {
	if dir == "" || strings.ContainsRune(p.Executable, filepath.Separator) {
		return
	}

	p.Executable = filepath.Join(dir, p.Executable)
}

// Validate checks for values QEMU would fail on late or not at all.
func (p *LaunchProfile) Validate() error {
	switch {
	case p.Executable == "":
		return &ArgumentError{"no emulator executable"}
	case p.Image == "":
		return &ArgumentError{"no disk image"}
	case p.Memory == 0:
		return &ArgumentError{"memory must not be 0"}
	case p.SMP == 0:
		return &ArgumentError{"smp must not be 0"}
	case p.HostPort == 0:
		return &ArgumentError{"host port must not be 0"}
	}

	return nil
}

// Arguments compiles the argument list for the QEMU command.
func (p *LaunchProfile) Arguments() ([]Argument, error) {
	err := p.Validate()
	if err != nil {
		return nil, err
	}

	args := []Argument{
		UniqueArg("machine", p.Machine),
	}

	if p.CPU != "" {
		args = append(args, UniqueArg("cpu", p.CPU))
	}

	args = append(args,
		UniqueArg("smp", strconv.FormatUint(p.SMP, 10)),
		UniqueArg("m", strconv.FormatUint(p.Memory, 10)),
	)

	if p.BIOS != "" {
		args = append(args, UniqueArg("bios", p.BIOS))
	}

	if !p.NoKVM {
		args = append(args, UniqueArg("enable-kvm"))
	}

	hostForward := fmt.Sprintf("hostfwd=tcp::%d-:%d", p.HostPort, SSHGuestPort)

	args = append(args,
		// No graphical output. Serial console and monitor are multiplexed
		// on stdio.
		UniqueArg("nographic"),
		RepeatableArg("drive",
			"file="+p.Image,
			"format="+p.ImageFormat,
			"if=virtio",
		),
		RepeatableArg("netdev", "user", "id=net0", hostForward),
		RepeatableArg("device", "virtio-net", "netdev=net0"),
	)

	args = append(args, p.ExtraArgs...)

	return args, nil
}

// CommandLine returns the complete command as it would be executed.
func (p *LaunchProfile) CommandLine() ([]string, error) {
	args, err := p.Arguments()
	if err != nil {
		return nil, err
	}

	argStrings, err := BuildArgumentStrings(args)
	if err != nil {
		return nil, err
	}

	return append([]string{p.Executable}, argStrings...), nil
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
