// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package provision

import "strconv"

// State is a provisioning phase. Phases are passed strictly in the order of
// their values.
type State int

// Provisioning phases.
const (
	AwaitingLogin State = iota
	AwaitingFirstPrompt
	AwaitingPackageInstallPrompt
	AwaitingInstallProgress
	Finalizing
	Terminal
)

// String implements [fmt.Stringer].
func (s State) String() string {
	switch s {
	case AwaitingLogin:
		return "AwaitingLogin"
	case AwaitingFirstPrompt:
		return "AwaitingFirstPrompt"
	case AwaitingPackageInstallPrompt:
		return "AwaitingPackageInstallPrompt"
	case AwaitingInstallProgress:
		return "AwaitingInstallProgress"
	case Finalizing:
		return "Finalizing"
	case Terminal:
		return "Terminal"
	default:
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
}

// installPhase is the sub-state of [AwaitingInstallProgress].
type installPhase int

const (
	installPending installPhase = iota
	installRunning
)
