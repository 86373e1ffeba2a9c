// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aibor/vmprovision/internal/provision"
	"github.com/aibor/vmprovision/internal/qemu"
)

// IO provides output details for the command.
type IO struct {
	Stdout io.Writer
	Stderr io.Writer
}

func loadFlags(args []string, cfg IO) (*flags, error) {
	args, err := MergedArgs(args, os.DirFS("."), localConfigFile)
	if err != nil {
		return nil, err
	}

	return parseArgs(args, cfg)
}

func newScript(flags *flags) (provision.Script, error) {
	dir, file, err := splitPath(flags.pubkeyPath)
	if err != nil {
		return provision.Script{}, fmt.Errorf("%w: public key: %w",
			ErrMissingArtifact, err)
	}

	key, err := loadPublicKey(os.DirFS(dir), file)
	if err != nil {
		return provision.Script{}, err
	}

	slog.Info("Public key loaded",
		slog.String("type", key.keyType),
		slog.String("fingerprint", key.fingerprint),
	)

	scriptCfg := flags.script
	scriptCfg.PublicKey = key.line

	script, err := provision.NewScript(scriptCfg)
	if err != nil {
		return provision.Script{}, fmt.Errorf("script: %w", err)
	}

	return script, nil
}

func run(ctx context.Context, flags *flags, cfg IO) error {
	profile, err := flags.launchProfile()
	if err != nil {
		return err
	}

	err = profile.Validate()
	if err != nil {
		return fmt.Errorf("launch profile: %w", err)
	}

	err = validateProfile(profile)
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	script, err := newScript(flags)
	if err != nil {
		return err
	}

	cmdline, err := profile.CommandLine()
	if err != nil {
		return fmt.Errorf("qemu command: %w", err)
	}

	slog.Debug("QEMU command", slog.String("command", strings.Join(cmdline, " ")))

	process, err := qemu.Launch(ctx, *profile, cfg.Stderr)
	if err != nil {
		return err //nolint:wrapcheck
	}
	defer process.Close()

	session := provision.NewSession(
		process,
		script,
		flags.sessionConfig(cfg.Stdout),
		slog.Default(),
	)

	err = session.Run(ctx)

	if waitErr := process.Err(); waitErr != nil {
		slog.Debug("Emulator wait", slog.Any("error", waitErr))
	}

	if err != nil {
		return fmt.Errorf("provision: %w", err)
	}

	slog.Info("Image provisioned",
		slog.String("image", profile.Image),
		slog.String("user", flags.script.User),
		slog.Int("ssh_port", int(profile.HostPort)),
	)

	return nil
}

func handleParseArgsError(err error) int {
	// [ErrHelp] is returned when help is requested. So exit without error
	// in this case.
	if errors.Is(err, ErrHelp) {
		return 0
	}

	// ParseArgs already prints errors, so we just exit without an error.
	if !errors.Is(err, &ParseArgsError{}) {
		slog.Error(err.Error())
	}

	return -1
}

func handleRunError(err error) int {
	exitCode := -1

	var qemuErr *qemu.CommandError
	if errors.As(err, &qemuErr) {
		if qemuErr.ExitCode != 0 {
			exitCode = qemuErr.ExitCode
		}
	}

	var phaseErr *provision.PhaseError
	if errors.As(err, &phaseErr) {
		slog.Warn("Provisioning aborted, the image is partially configured",
			slog.String("phase", phaseErr.State.String()))
	}

	if errors.Is(err, provision.ErrUnexpectedExit) {
		slog.Warn("Guest stopped before provisioning finished, " +
			"check console output")
	}

	slog.Error(err.Error())

	return exitCode
}

// Run is the main entry point for the CLI command.
func Run(ctx context.Context, args []string, cfg IO) int {
	setupLogging(cfg.Stderr, false)

	flags, err := loadFlags(args, cfg)
	if err != nil {
		return handleParseArgsError(err)
	}

	setupLogging(cfg.Stderr, flags.debug)

	err = run(ctx, flags, cfg)
	if err != nil {
		return handleRunError(err)
	}

	return 0
}
