// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package console_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/aibor/vmprovision/internal/console"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedSleeps []time.Duration

func (r *recordedSleeps) sleep(_ context.Context, d time.Duration) error {
	*r = append(*r, d)
	return nil
}

func newTestInjector(w io.Writer, sleeps *recordedSleeps) *console.Injector {
	return &console.Injector{
		Writer: w,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Sleep:  sleeps.sleep,
	}
}

func TestInjector_Send(t *testing.T) {
	var (
		buf    bytes.Buffer
		sleeps recordedSleeps
	)

	injector := newTestInjector(&buf, &sleeps)

	require.NoError(t, injector.Send(context.Background(), "root"))
	require.NoError(t, injector.SendWait(context.Background(), "service sshd start", 10*time.Second))

	assert.Equal(t, "root\nservice sshd start\n", buf.String())
	assert.Equal(t, recordedSleeps{console.DefaultSettle, 10 * time.Second}, sleeps)
}

func TestInjector_CustomSettle(t *testing.T) {
	var (
		buf    bytes.Buffer
		sleeps recordedSleeps
	)

	injector := newTestInjector(&buf, &sleeps)
	injector.Settle = 5 * time.Millisecond

	require.NoError(t, injector.Send(context.Background(), "id"))
	assert.Equal(t, recordedSleeps{5 * time.Millisecond}, sleeps)
}

func TestInjector_SendChunked(t *testing.T) {
	var (
		buf    bytes.Buffer
		sleeps recordedSleeps
	)

	injector := newTestInjector(&buf, &sleeps)

	require.NoError(t, injector.SendChunked(context.Background(), testKey, 32))

	assert.Equal(t, testKey, buf.String(), "no delimiters injected")
	assert.Len(t, sleeps, (len(testKey)+31)/32)
}

func TestInjector_SendChunkedInvalidSize(t *testing.T) {
	var (
		buf    bytes.Buffer
		sleeps recordedSleeps
	)

	injector := newTestInjector(&buf, &sleeps)

	err := injector.SendChunked(context.Background(), testKey, 0)
	require.ErrorIs(t, err, console.ErrInvalidChunkSize)
	assert.Zero(t, buf.Len())
}

func TestInjector_Keystroke(t *testing.T) {
	var (
		buf    bytes.Buffer
		sleeps recordedSleeps
	)

	injector := newTestInjector(&buf, &sleeps)

	require.NoError(t, injector.Keystroke())
	require.NoError(t, injector.Keystroke())

	assert.Equal(t, "\n\n", buf.String())
	assert.Empty(t, sleeps)
}

func TestInjector_WriteError(t *testing.T) {
	var sleeps recordedSleeps

	errBroken := errors.New("broken pipe")
	injector := newTestInjector(errWriter(errBroken), &sleeps)

	err := injector.Send(context.Background(), "root")
	require.ErrorIs(t, err, console.ErrWrite)
	require.ErrorIs(t, err, errBroken)
	assert.Empty(t, sleeps, "no settle after failed write")
}

func TestInjector_Logs(t *testing.T) {
	var (
		buf, logs bytes.Buffer
		sleeps    recordedSleeps
	)

	injector := newTestInjector(&buf, &sleeps)
	injector.Logger = slog.New(slog.NewTextHandler(&logs, nil))

	require.NoError(t, injector.Send(context.Background(), "root"))
	assert.True(t, strings.Contains(logs.String(), `input="root\n"`), logs.String())
}

func TestSleep(t *testing.T) {
	require.NoError(t, console.Sleep(context.Background(), time.Millisecond))
	require.NoError(t, console.Sleep(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, console.Sleep(ctx, time.Hour), context.Canceled)
}

func TestInjector_SleepCanceled(t *testing.T) {
	var buf bytes.Buffer

	injector := &console.Injector{
		Writer: &buf,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Settle: time.Hour,
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := injector.Send(ctx, "root")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "root\n", buf.String())
}

// errWriter returns an [io.Writer] whose Write always fails with err.
func errWriter(err error) io.Writer {
	return &failingWriter{err: err}
}

type failingWriter struct {
	err error
}

func (w *failingWriter) Write([]byte) (int, error) {
	return 0, w.err
}
