// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package qemu provides utilities for composing and running QEMU system
// virtualization commands as needed by vmprovision. It expects the required
// QEMU binary and firmware files to be present on the system.
//
// The guest system is booted from a disk image with graphical output disabled,
// so its primary console is multiplexed onto the standard streams of the QEMU
// process. [Process] exposes those streams as raw byte input and output. A
// user mode network device forwards a host TCP port to the guest's SSH port.
package qemu
