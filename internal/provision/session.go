// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package provision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/aibor/vmprovision/internal/console"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultKeystrokeInterval is the interval keystrokes are sent in while
	// packages are installed.
	DefaultKeystrokeInterval = 5 * time.Second

	readBufferSize   = 4096
	chunkChannelSize = 64
)

// Process is the emulator process a [Session] drives.
type Process interface {
	io.Writer
	Killer

	// Output returns the console output stream. It must return [io.EOF] once
	// the process exited and all output has been read.
	Output() io.Reader

	// Done returns a channel that is closed once the process exited.
	Done() <-chan struct{}

	// ExitCode returns the exit code once the process exited.
	ExitCode() int
}

// Config is the timing and output configuration of a [Session].
type Config struct {
	// Settle is the delay after ordinary commands.
	Settle time.Duration

	// LongSettle is the delay after slow commands.
	LongSettle time.Duration

	// KeystrokeInterval is the interval keystrokes are sent in while
	// packages are installed.
	KeystrokeInterval time.Duration

	// ShutdownTimeout bounds the wait for the emulator to exit after the
	// shutdown command has been sent.
	ShutdownTimeout time.Duration

	// ChunkSize is the size of the pieces the public key is typed in.
	ChunkSize int

	// Console receives the console output of the guest.
	Console io.Writer

	// Quiet suppresses writing console output to Console.
	Quiet bool

	// Sleep overrides the settle delay implementation.
	Sleep console.SleepFunc
}

// Session is a single provisioning run of one emulator process.
type Session struct {
	ID         uuid.UUID
	Process    Process
	Sequencer  *Sequencer
	Terminator *Terminator

	keystrokeInterval time.Duration
	console           io.Writer
	quiet             bool
	logger            *slog.Logger

	// read counts the output chunks read so far. Chunks with a sequence
	// number up to stale are only mirrored.
	read  atomic.Uint64
	stale uint64
}

// outputChunk is a piece of console output with its read sequence number.
type outputChunk struct {
	seq  uint64
	data []byte
}

// NewSession creates a new [Session] for the given process and script. All
// log records of the session carry its ID.
func NewSession(
	process Process,
	script Script,
	cfg Config,
	logger *slog.Logger,
) *Session {
	id := uuid.New()

	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With(slog.String("session", id.String()))

	injector := &console.Injector{
		Writer: process,
		Settle: cfg.Settle,
		Logger: logger,
		Sleep:  cfg.Sleep,
	}

	sequencer := NewSequencer(script, injector)
	sequencer.Logger = logger

	if cfg.LongSettle > 0 {
		sequencer.LongSettle = cfg.LongSettle
	}

	if cfg.ChunkSize > 0 {
		sequencer.ChunkSize = cfg.ChunkSize
	}

	keystrokeInterval := cfg.KeystrokeInterval
	if keystrokeInterval <= 0 {
		keystrokeInterval = DefaultKeystrokeInterval
	}

	consoleOut := cfg.Console
	if consoleOut == nil {
		consoleOut = io.Discard
	}

	session := &Session{
		ID:        id,
		Process:   process,
		Sequencer: sequencer,
		Terminator: &Terminator{
			Process: process,
			Timeout: cfg.ShutdownTimeout,
			Logger:  logger,
		},
		keystrokeInterval: keystrokeInterval,
		console:           consoleOut,
		quiet:             cfg.Quiet,
		logger:            logger,
	}

	sequencer.OutputBarrier = session.dropOutputRead

	return session
}

// Run drives the guest until it exited after the shutdown command.
//
// Console output, keystroke ticks, the shutdown timeout and the exit
// notification are all handled by the calling goroutine. Only reading the
// console output happens in a separate goroutine. Output read while the setup
// commands were sent is mirrored but not fed to the [Sequencer]. On error, the
// process is killed.
func (s *Session) Run(ctx context.Context) error {
	s.logger.Info("Provisioning session started")

	chunks := make(chan outputChunk, chunkChannelSize)

	var readers errgroup.Group

	readers.Go(func() error {
		defer close(chunks)
		return readChunks(s.Process.Output(), &s.read, chunks)
	})

	loopErr := s.loop(ctx, chunks)
	if loopErr != nil {
		if err := s.Process.Kill(); err != nil {
			s.logger.Error("Kill emulator", slog.Any("error", err))
		}
	}

	// Pass remaining output to the console so the reader can finish.
	for chunk := range chunks {
		s.mirror(chunk.data)
	}

	readErr := readers.Wait()
	if readErr != nil {
		readErr = fmt.Errorf("console output: %w", readErr)
	}

	return errors.Join(loopErr, readErr)
}

func (s *Session) loop(ctx context.Context, chunks <-chan outputChunk) error {
	var ticker *time.Ticker

	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	for {
		var tick <-chan time.Time

		switch {
		case s.Sequencer.KeystrokesDue() && ticker == nil:
			ticker = time.NewTicker(s.keystrokeInterval)
			tick = ticker.C
		case s.Sequencer.KeystrokesDue():
			tick = ticker.C
		case ticker != nil:
			ticker.Stop()
			ticker = nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case chunk, ok := <-chunks:
			if !ok {
				// Output closed. The exit notification follows.
				chunks = nil
				continue
			}

			s.mirror(chunk.data)

			if chunk.seq <= s.stale {
				continue
			}

			err := s.Sequencer.Feed(ctx, chunk.data)
			if err != nil {
				return err
			}

			if s.Sequencer.Done() && !s.Terminator.Started() {
				s.Terminator.Start()
			}
		case <-tick:
			err := s.Sequencer.Tick()
			if err != nil {
				return err
			}
		case <-s.Terminator.C():
			err := s.Terminator.Expire()
			if err != nil {
				return err
			}
		case <-s.Process.Done():
			return s.exited()
		}
	}
}

func (s *Session) exited() error {
	exitCode := s.Process.ExitCode()
	state := s.Sequencer.State()

	if state != Terminal {
		return fmt.Errorf("%w in phase %s (exit code %d)",
			ErrUnexpectedExit, state, exitCode)
	}

	forced := s.Terminator.Exited()

	s.logger.Info("Provisioning session finished",
		slog.Int("exit_code", exitCode),
		slog.Bool("forced", forced),
	)

	return nil
}

// dropOutputRead marks all output chunks read so far as stale. It is called
// from [Sequencer.Feed], so on the loop goroutine.
func (s *Session) dropOutputRead() {
	s.stale = s.read.Load()
	s.logger.Debug("Dropping console output read so far",
		slog.Uint64("chunks", s.stale))
}

func (s *Session) mirror(chunk []byte) {
	if s.quiet {
		return
	}

	_, err := s.console.Write(chunk)
	if err != nil {
		s.logger.Debug("Console mirror write failed", slog.Any("error", err))
	}
}

// readChunks reads from r until [io.EOF] and sends copies of all chunks read,
// numbered by read. The number of chunks read so far is kept in count.
func readChunks(
	r io.Reader,
	count *atomic.Uint64,
	chunks chan<- outputChunk,
) error {
	buf := make([]byte, readBufferSize)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := outputChunk{
				seq:  count.Add(1),
				data: make([]byte, n),
			}
			copy(chunk.data, buf[:n])
			chunks <- chunk
		}

		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return err //nolint:wrapcheck
		}
	}
}
