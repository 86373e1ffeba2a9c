// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package provision_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aibor/vmprovision/internal/console"
	"github.com/aibor/vmprovision/internal/provision"
	"github.com/stretchr/testify/require"
)

const testKey = "ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIHd8R2Nh3ZHxn0XjVm0mxQ0F9zAU5TqKJ1rZQyEw8x0l user@host"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noSleep(context.Context, time.Duration) error {
	return nil
}

func testScript(t *testing.T, flavor provision.Flavor) provision.Script {
	t.Helper()

	script, err := provision.NewScript(provision.ScriptConfig{
		Flavor:    flavor,
		User:      "deploy",
		Packages:  []string{"sudo", "python3"},
		PublicKey: testKey,
	})
	require.NoError(t, err)

	return script
}

func testInjector(w io.Writer) *console.Injector {
	return &console.Injector{
		Writer: w,
		Logger: discardLogger(),
		Sleep:  noSleep,
	}
}
