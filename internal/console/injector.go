// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package console

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// DefaultSettle is the time waited after ordinary input.
const DefaultSettle = time.Second

// LineTerminator is appended to each line sent by the [Injector].
const LineTerminator = "\n"

// SleepFunc blocks for the given duration or until the context is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default [SleepFunc].
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Injector writes input to the console.
//
// Each write is followed by a settle delay, as the console does not signal
// when input has been consumed. All writes are logged.
type Injector struct {
	// Writer is the console input.
	Writer io.Writer

	// Settle is the delay after ordinary writes. If zero, [DefaultSettle] is
	// used.
	Settle time.Duration

	// Logger receives a record for each write. If nil, [slog.Default] is
	// used.
	Logger *slog.Logger

	// Sleep is used for settle delays. If nil, [Sleep] is used.
	Sleep SleepFunc
}

// Send writes the text followed by [LineTerminator] and waits for the default
// settle time.
func (i *Injector) Send(ctx context.Context, text string) error {
	return i.SendWait(ctx, text, i.settle())
}

// SendWait writes the text followed by [LineTerminator] and waits for the
// given settle time. Use it for commands known to take longer.
func (i *Injector) SendWait(
	ctx context.Context,
	text string,
	settle time.Duration,
) error {
	return i.SendRaw(ctx, text+LineTerminator, settle)
}

// SendRaw writes the text as is and waits for the given settle time.
func (i *Injector) SendRaw(
	ctx context.Context,
	text string,
	settle time.Duration,
) error {
	err := i.write(text)
	if err != nil {
		return err
	}

	return i.sleep(ctx, settle)
}

// SendChunked splits the blob into pieces of the given size and writes each
// piece as is with its own default settle delay. Use it for long input that
// could overrun the line editing buffer of the guest.
func (i *Injector) SendChunked(ctx context.Context, blob string, size int) error {
	chunks, err := Chunk(blob, size)
	if err != nil {
		return err
	}

	for _, chunk := range chunks {
		err := i.SendRaw(ctx, chunk, i.settle())
		if err != nil {
			return err
		}
	}

	return nil
}

// Keystroke writes a bare [LineTerminator] without any settle delay.
func (i *Injector) Keystroke() error {
	return i.write(LineTerminator)
}

func (i *Injector) write(text string) error {
	i.logger().Info("Console input", slog.String("input", text))

	_, err := io.WriteString(i.Writer, text)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	return nil
}

func (i *Injector) sleep(ctx context.Context, d time.Duration) error {
	sleep := i.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	err := sleep(ctx, d)
	if err != nil {
		return fmt.Errorf("settle: %w", err)
	}

	return nil
}

func (i *Injector) settle() time.Duration {
	if i.Settle == 0 {
		return DefaultSettle
	}

	return i.Settle
}

func (i *Injector) logger() *slog.Logger {
	if i.Logger == nil {
		return slog.Default()
	}

	return i.Logger
}
