// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu_test

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"testing"
	"time"

	"github.com/aibor/vmprovision/internal/qemu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireExecutable(t *testing.T, name string) {
	t.Helper()

	_, err := exec.LookPath(name)
	if err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
}

func waitDone(t *testing.T, process *qemu.Process) {
	t.Helper()

	select {
	case <-process.Done():
	case <-time.After(5 * time.Second):
		require.Fail(t, "process did not exit")
	}
}

func TestStart_Echo(t *testing.T) {
	requireExecutable(t, "cat")

	process, err := qemu.Start(context.Background(), "cat", nil, nil)
	require.NoError(t, err)

	t.Cleanup(func() { _ = process.Close() })

	assert.Equal(t, -1, process.ExitCode(), "exit code while running")

	_, err = process.Write([]byte("root\n"))
	require.NoError(t, err)

	buf := make([]byte, 5)
	_, err = io.ReadFull(process.Output(), buf)
	require.NoError(t, err)
	assert.Equal(t, "root\n", string(buf))

	require.NoError(t, process.Kill())
	waitDone(t, process)

	require.NoError(t, process.Kill(), "kill after exit must be a no-op")

	_, err = io.ReadAll(process.Output())
	require.NoError(t, err, "output must end with EOF")
}

func TestStart_ExitCode(t *testing.T) {
	requireExecutable(t, "sh")

	var stderr bytes.Buffer

	process, err := qemu.Start(
		context.Background(),
		"sh",
		[]string{"-c", "echo booting; echo oops >&2; exit 3"},
		&stderr,
	)
	require.NoError(t, err)

	t.Cleanup(func() { _ = process.Close() })

	output, err := io.ReadAll(process.Output())
	require.NoError(t, err)

	waitDone(t, process)

	assert.Equal(t, "booting\n", string(output))
	assert.Equal(t, "oops\n", stderr.String())
	assert.Equal(t, 3, process.ExitCode())
	assert.Error(t, process.Err())
}

func TestStart_ContextCancel(t *testing.T) {
	requireExecutable(t, "sleep")

	ctx, cancel := context.WithCancel(context.Background())

	process, err := qemu.Start(ctx, "sleep", []string{"60"}, nil)
	require.NoError(t, err)

	t.Cleanup(func() { _ = process.Close() })

	cancel()
	waitDone(t, process)

	assert.Equal(t, -1, process.ExitCode(), "killed by signal")
}

func TestStart_LaunchError(t *testing.T) {
	_, err := qemu.Start(
		context.Background(),
		"/nonexistent/qemu-system-x86_64",
		nil,
		nil,
	)
	require.ErrorIs(t, err, qemu.ErrLaunch)
	require.ErrorIs(t, err, &qemu.CommandError{})
}

func TestLaunch_InvalidProfile(t *testing.T) {
	_, err := qemu.Launch(context.Background(), qemu.LaunchProfile{}, nil)
	require.ErrorIs(t, err, &qemu.ArgumentError{})
}
