// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"
)

// Process is a running emulator process.
//
// Its console is exposed as raw byte streams: [Process.Output] for everything
// the guest prints and [Process.Write] for input. The console does not
// acknowledge input in any way.
type Process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *os.File

	done     chan struct{}
	exitCode int
	waitErr  error
}

// Launch starts the emulator for the given [LaunchProfile].
//
// Emulator error messages are written to stderr. If stderr is nil, they are
// discarded.
func Launch(
	ctx context.Context,
	profile LaunchProfile,
	stderr io.Writer,
) (*Process, error) {
	cmdline, err := profile.CommandLine()
	if err != nil {
		return nil, fmt.Errorf("build command: %w", err)
	}

	return Start(ctx, cmdline[0], cmdline[1:], stderr)
}

// Start starts the given executable with the given arguments as [Process].
//
// The process is killed if the context is cancelled.
func Start(
	ctx context.Context,
	executable string,
	args []string,
	stderr io.Writer,
) (*Process, error) {
	cmd := exec.CommandContext(ctx, executable, args...)
	cmd.Stderr = stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &CommandError{Err: fmt.Errorf("stdin pipe: %w", err)}
	}

	// Use an explicit pipe instead of [exec.Cmd.StdoutPipe], as the latter is
	// closed by [exec.Cmd.Wait] which runs concurrently with reading.
	readPipe, writePipe, err := os.Pipe()
	if err != nil {
		return nil, &CommandError{Err: fmt.Errorf("stdout pipe: %w", err)}
	}

	cmd.Stdout = writePipe

	err = cmd.Start()

	// The child has its own copy now. Once it exits, reads return EOF.
	_ = writePipe.Close()

	if err != nil {
		_ = readPipe.Close()
		_ = stdin.Close()

		return nil, &CommandError{
			Err:      fmt.Errorf("%w: %w", ErrLaunch, err),
			ExitCode: -1,
		}
	}

	slog.Debug("Emulator started",
		slog.String("command", cmd.String()),
		slog.Int("pid", cmd.Process.Pid))

	process := &Process{
		cmd:      cmd,
		stdin:    stdin,
		stdout:   readPipe,
		done:     make(chan struct{}),
		exitCode: -1,
	}

	go process.wait()

	return process, nil
}

func (p *Process) wait() {
	p.waitErr = p.cmd.Wait()
	p.exitCode = p.cmd.ProcessState.ExitCode()

	slog.Info("Emulator exited", slog.Int("exit_code", p.exitCode))

	close(p.done)
}

// Output returns the console output of the guest. It returns [io.EOF] once the
// process exited and all output has been read.
func (p *Process) Output() io.Reader {
	return p.stdout
}

// Write writes the given bytes to the console input of the guest.
func (p *Process) Write(data []byte) (int, error) {
	n, err := p.stdin.Write(data)
	if err != nil {
		return n, fmt.Errorf("console input: %w", err)
	}

	return n, nil
}

// Done returns a channel that is closed once the process exited.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// ExitCode returns the exit code of the process. It is -1 while the process is
// still running or if it was terminated by a signal.
func (p *Process) ExitCode() int {
	select {
	case <-p.done:
		return p.exitCode
	default:
		return -1
	}
}

// Err returns the error returned by waiting for the process. It is nil while
// the process is still running.
func (p *Process) Err() error {
	select {
	case <-p.done:
		return p.waitErr
	default:
		return nil
	}
}

// Kill terminates the process forcefully. It is a no-op if the process
// already exited.
func (p *Process) Kill() error {
	select {
	case <-p.done:
		return nil
	default:
	}

	err := p.cmd.Process.Signal(unix.SIGKILL)
	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		return &CommandError{Err: fmt.Errorf("kill: %w", err)}
	}

	return nil
}

// Close releases the console output pipe. Pending reads on
// [Process.Output] fail afterwards.
func (p *Process) Close() error {
	return p.stdout.Close() //nolint:wrapcheck
}
