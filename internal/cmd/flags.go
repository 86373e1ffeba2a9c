// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/aibor/vmprovision/internal/console"
	"github.com/aibor/vmprovision/internal/provision"
	"github.com/aibor/vmprovision/internal/qemu"
	"github.com/aibor/vmprovision/internal/sys"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	name = "vmprovision"

	localConfigFile = ".vmprovision-args"

	memMin = 128
	memMax = 16384

	smpMin = 1
	smpMax = 16

	portMin = 1
	portMax = 65535

	chunkSizeMin = 1
	chunkSizeMax = 1024

	usageMessage = `Boot a disk image with QEMU and provision it through its serial console.

The guest is logged in as root, SSH is enabled with the given public key, a
service account with passwordless sudo is created, packages are installed and
the guest is shut down again. Afterwards the image is ready to be used with
SSH.

Arguments after "--" are passed to QEMU as is:
	vmprovision --image disk.qcow2 --pubkey id_ed25519.pub -- -rtc base=utc

All flags can also be provided via environment variable VMPROVISION_ARGS:
	VMPROVISION_ARGS="--arch aarch64 --debug" vmprovision ...

All flags can also be provided via file ./.vmprovision-args, with one
argument per line.`
)

// ErrHelp is returned if help or version information was requested.
var ErrHelp = pflag.ErrHelp

type flags struct {
	launch      qemu.LaunchProfile
	script      provision.ScriptConfig
	session     provision.Config
	qemuDir     string
	profileFile string
	pubkeyPath  string
	port        uint64
	chunkSize   uint64
	extraArgs   []string
	debug       bool

	flagSet *pflag.FlagSet
}

func newFlags() *flags {
	return &flags{
		launch: qemu.LaunchProfile{
			Arch: sys.Native,
		},
		script: provision.ScriptConfig{
			Flavor:   provision.FreeBSD,
			User:     provision.DefaultUser,
			Packages: provision.DefaultPackages,
		},
		session: provision.Config{
			Settle:            console.DefaultSettle,
			LongSettle:        provision.DefaultLongSettle,
			KeystrokeInterval: provision.DefaultKeystrokeInterval,
			ShutdownTimeout:   provision.DefaultShutdownTimeout,
		},
		chunkSize: provision.DefaultChunkSize,
	}
}

// parseArgs parses the given arguments. It returns [ErrHelp] if help or
// version information has been printed and nothing is left to do.
func parseArgs(args []string, cfg IO) (*flags, error) {
	flags := newFlags()
	parsed := false

	cmd := &cobra.Command{
		Use: name + " [flags] --image IMAGE --pubkey KEYFILE " +
			"[-- qemu-args...]",
		Short:         "Provision a disk image through its serial console",
		Long:          usageMessage,
		Version:       version(),
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed = true
			flags.extraArgs = args
			flags.flagSet = cmd.Flags()

			return nil
		},
	}

	cmd.SetArgs(args)
	cmd.SetOut(cfg.Stdout)
	cmd.SetErr(cfg.Stderr)

	flags.register(cmd)

	err := cmd.Execute()
	if err != nil {
		fmt.Fprintln(cfg.Stderr, "Error:", err)
		cmd.SetOut(cfg.Stderr)
		_ = cmd.Usage()

		return nil, &ParseArgsError{msg: "parse args", err: err}
	}

	if !parsed {
		return nil, ErrHelp
	}

	return flags, nil
}

func (f *flags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.SortFlags = false

	fs.VarP(&f.launch.Arch, "arch", "a",
		"guest architecture: amd64, i386, arm64, riscv64 "+
			"(default is the host architecture)")
	fs.StringVar(&f.launch.Image, "image", "",
		"disk image to provision")
	fs.StringVar(&f.launch.ImageFormat, "image-format", "",
		"disk image format (default qcow2)")
	fs.StringVar(&f.pubkeyPath, "pubkey", "",
		"public key file to authorize for root and the service account")
	fs.StringVar(&f.qemuDir, "qemu-dir", "",
		"directory the QEMU binaries are looked up in (default is $PATH)")
	fs.StringVar(&f.launch.Executable, "qemu-bin", "",
		"QEMU binary to use (default depends on arch: qemu-system-*)")
	fs.StringVar(&f.launch.Machine, "machine", "",
		"QEMU machine type to use (default depends on arch)")
	fs.StringVar(&f.launch.CPU, "cpu", "",
		"QEMU CPU type to use (default depends on arch)")
	fs.StringVar(&f.launch.BIOS, "bios", "",
		"firmware file (default depends on arch)")
	fs.Var(&MemoryValue{Value: &f.launch.Memory, Lower: memMin, Upper: memMax},
		"memory", "memory for the VM in MiB or with unit, like 2GiB (default 512)")
	fs.Var(&LimitedUintValue{Value: &f.launch.SMP, Lower: smpMin, Upper: smpMax},
		"smp", "number of CPUs for the VM (default 2)")
	fs.Var(&LimitedUintValue{Value: &f.port, Lower: portMin, Upper: portMax},
		"port", "host port forwarded to the guest's SSH port (default 2222)")
	fs.BoolVar(&f.launch.NoKVM, "nokvm", false,
		"disable hardware support (default is enabled if present and arch "+
			"matches the host arch)")
	fs.StringVar(&f.profileFile, "profile", "",
		"YAML file with launch profile values. Flags take precedence.")

	fs.Var(&f.script.Flavor, "os",
		"guest operating system: freebsd, debian")
	fs.StringVar(&f.script.User, "user", f.script.User,
		"name of the service account to create")
	fs.StringSliceVar(&f.script.Packages, "package", f.script.Packages,
		"package to install. Flag may be used more than once.")
	fs.StringVar(&f.script.Markers.Login, "login-marker", "",
		"console output that indicates the login prompt (default depends on os)")
	fs.StringVar(&f.script.Markers.Prompt, "prompt-marker", "",
		"console output that indicates the root shell prompt "+
			"(default depends on os)")
	fs.StringVar(&f.script.Markers.Progress, "progress-marker", "",
		"console output the package manager prints while extracting "+
			"(default depends on os)")

	fs.Var(&PositiveDurationValue{Value: &f.session.Settle}, "settle",
		"delay after each command sent to the console")
	fs.Var(&PositiveDurationValue{Value: &f.session.LongSettle}, "long-settle",
		"delay after slow commands, like starting services")
	fs.Var(&PositiveDurationValue{Value: &f.session.KeystrokeInterval},
		"keystroke-interval",
		"interval of keystrokes sent while packages are installed")
	fs.Var(&PositiveDurationValue{Value: &f.session.ShutdownTimeout},
		"shutdown-timeout",
		"time the guest has to power off before it is killed")
	fs.Var(&LimitedUintValue{
		Value: &f.chunkSize,
		Lower: chunkSizeMin,
		Upper: chunkSizeMax,
	}, "chunk-size", "size of the pieces the public key is typed in")
	fs.BoolVarP(&f.session.Quiet, "quiet", "q", false,
		"do not print the guest console output")
	fs.BoolVar(&f.debug, "debug", false,
		"enable debug output")

	_ = cmd.MarkFlagRequired("pubkey")
}

// changed returns true if the flag has been given explicitly.
func (f *flags) changed(name string) bool {
	return f.flagSet != nil && f.flagSet.Changed(name)
}

// launchProfile builds the [qemu.LaunchProfile] from the profile file, if
// given, with explicitly set flags applied on top and defaults for anything
// still missing.
func (f *flags) launchProfile() (*qemu.LaunchProfile, error) {
	profile := &qemu.LaunchProfile{}

	if f.profileFile != "" {
		dir, file, err := splitPath(f.profileFile)
		if err != nil {
			return nil, fmt.Errorf("profile file: %w", err)
		}

		err = qemu.LoadProfileFile(os.DirFS(dir), file, profile)
		if err != nil {
			return nil, err
		}
	}

	f.applyChanged(profile)

	arch := profile.Arch
	if arch == "" {
		arch = f.launch.Arch
	}

	err := profile.AddDefaultsFor(arch)
	if err != nil {
		return nil, fmt.Errorf("launch defaults for %q: %w", arch, err)
	}

	profile.WithBinDir(f.qemuDir)

	extraArgs, err := qemu.ParseExtraArgs(f.extraArgs)
	if err != nil {
		return nil, fmt.Errorf("qemu args: %w", err)
	}

	profile.ExtraArgs = append(profile.ExtraArgs, extraArgs...)

	if profile.Image != "" {
		profile.Image, err = sys.AbsolutePath(profile.Image)
		if err != nil {
			return nil, fmt.Errorf("disk image: %w", err)
		}
	}

	return profile, nil
}

func (f *flags) applyChanged(profile *qemu.LaunchProfile) {
	overlay := []struct {
		flag  string
		apply func()
	}{
		{"arch", func() { profile.Arch = f.launch.Arch }},
		{"image", func() { profile.Image = f.launch.Image }},
		{"image-format", func() { profile.ImageFormat = f.launch.ImageFormat }},
		{"qemu-bin", func() { profile.Executable = f.launch.Executable }},
		{"machine", func() { profile.Machine = f.launch.Machine }},
		{"cpu", func() { profile.CPU = f.launch.CPU }},
		{"bios", func() { profile.BIOS = f.launch.BIOS }},
		{"memory", func() { profile.Memory = f.launch.Memory }},
		{"smp", func() { profile.SMP = f.launch.SMP }},
		{"port", func() { profile.HostPort = uint16(f.port) }},
		{"nokvm", func() { profile.NoKVM = f.launch.NoKVM }},
	}

	for _, o := range overlay {
		if f.changed(o.flag) {
			o.apply()
		}
	}
}

func (f *flags) sessionConfig(consoleOut io.Writer) provision.Config {
	cfg := f.session
	cfg.ChunkSize = int(f.chunkSize)
	cfg.Console = consoleOut

	return cfg
}

// splitPath returns the directory and file name of the absolute path of the
// given file, as required for [os.DirFS] based access.
func splitPath(path string) (string, string, error) {
	abs, err := sys.AbsolutePath(path)
	if err != nil {
		return "", "", err //nolint:wrapcheck
	}

	return filepath.Dir(abs), filepath.Base(abs), nil
}

func version() string {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return "(unknown)"
	}

	return buildInfo.Main.Version
}
