// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package provision

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultUser is the name of the service account created in the guest.
const DefaultUser = "provision"

// DefaultPackages are installed if no packages are given.
var DefaultPackages = []string{"sudo"}

// Identity is the account logged in on the console.
const Identity = "root"

// heredocDelimiter terminates the authorized keys here-document.
const heredocDelimiter = "EOF"

var (
	userNamePattern    = regexp.MustCompile(`^[a-z_][a-z0-9_-]{0,31}$`)
	packageNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9+._:/@-]*$`)
)

// Markers are the literal console output strings the [Sequencer] waits for.
type Markers struct {
	// Login is printed by the guest when it waits for a user name.
	Login string `yaml:"login"`

	// Prompt is the root shell prompt.
	Prompt string `yaml:"prompt"`

	// Progress is printed by the package manager while it extracts packages.
	Progress string `yaml:"progress"`
}

// withDefaults returns a copy with empty markers replaced by the given
// defaults.
func (m Markers) withDefaults(defaults Markers) Markers {
	if m.Login == "" {
		m.Login = defaults.Login
	}

	if m.Prompt == "" {
		m.Prompt = defaults.Prompt
	}

	if m.Progress == "" {
		m.Progress = defaults.Progress
	}

	return m
}

// ScriptConfig is the input for [NewScript].
type ScriptConfig struct {
	Flavor    Flavor
	User      string
	Packages  []string
	PublicKey string
	Markers   Markers
}

// Step is a single input for the guest console.
type Step struct {
	// Line is sent followed by a line terminator.
	Line string

	// Blob is sent in chunks without line terminator. It is used instead of
	// Line if not empty.
	Blob string

	// Slow marks commands that need the long settle delay.
	Slow bool
}

// Text returns what is typed into the console for the step.
func (s Step) Text() string {
	if s.Blob != "" {
		return s.Blob
	}

	return s.Line
}

// Script is the complete console input for a provisioning run grouped by the
// phase it is sent in.
type Script struct {
	Markers  Markers
	Identity string
	Setup    []Step
	Install  Step
	Finalize []Step
}

// NewScript builds the script for the given configuration and validates it.
func NewScript(cfg ScriptConfig) (Script, error) {
	if cfg.Flavor == "" {
		cfg.Flavor = FreeBSD
	}

	cmds, exists := flavorTable[cfg.Flavor]
	if !exists {
		return Script{}, fmt.Errorf("%w: %s", ErrFlavorNotSupported, cfg.Flavor)
	}

	if len(cfg.Packages) == 0 {
		cfg.Packages = DefaultPackages
	}

	err := cfg.validate()
	if err != nil {
		return Script{}, err
	}

	user := cfg.User
	home := "/home/" + user
	key := strings.TrimSpace(cfg.PublicKey) + "\n"

	script := Script{
		Markers:  cfg.Markers.withDefaults(cmds.markers),
		Identity: Identity,
	}

	for _, cmd := range cmds.enableSSH {
		script.Setup = append(script.Setup, Step{Line: cmd})
	}

	script.Setup = append(script.Setup,
		Step{Line: "mkdir -p /root/.ssh && chmod 700 /root/.ssh"},
		Step{Line: "cat > /root/.ssh/authorized_keys <<" + heredocDelimiter},
		Step{Blob: key},
		Step{Line: heredocDelimiter},
		Step{Line: "chmod 600 /root/.ssh/authorized_keys"},
	)

	for _, cmd := range cmds.startSSH {
		script.Setup = append(script.Setup, Step{Line: cmd, Slow: true})
	}

	script.Setup = append(script.Setup,
		Step{Line: cmds.addUser(user)},
		Step{Line: "mkdir -p " + home + "/.ssh"},
		Step{Line: "cp /root/.ssh/authorized_keys " + home + "/.ssh/authorized_keys"},
		Step{Line: "chown -R " + user + ":" + user + " " + home + "/.ssh"},
		Step{Line: "chmod 700 " + home + "/.ssh && chmod 600 " + home + "/.ssh/authorized_keys"},
		Step{Line: cmds.adminGroup(user)},
	)

	script.Install = Step{
		Line: cmds.installPackage(strings.Join(cfg.Packages, " ")),
		Slow: true,
	}

	script.Finalize = []Step{
		{Line: "echo '" + user + " ALL=(ALL) NOPASSWD: ALL' >> " + cmds.sudoersFile},
		{Line: cmds.shutdown},
	}

	err = script.Validate()
	if err != nil {
		return Script{}, err
	}

	return script, nil
}

func (cfg ScriptConfig) validate() error {
	if !userNamePattern.MatchString(cfg.User) {
		return fmt.Errorf("%w: user name %q", ErrInvalidScript, cfg.User)
	}

	for _, pkg := range cfg.Packages {
		if !packageNamePattern.MatchString(pkg) {
			return fmt.Errorf("%w: package name %q", ErrInvalidScript, pkg)
		}
	}

	key := strings.TrimSpace(cfg.PublicKey)
	if key == "" {
		return fmt.Errorf("%w: empty public key", ErrInvalidScript)
	}

	if strings.ContainsAny(key, "\r\n") {
		return fmt.Errorf("%w: public key spans multiple lines", ErrInvalidScript)
	}

	if key == heredocDelimiter {
		return fmt.Errorf("%w: public key equals heredoc delimiter", ErrInvalidScript)
	}

	return nil
}

// Validate checks that all markers are set and that no input contains the
// marker that is armed while the guest echoes it. Otherwise the echo would be
// taken for guest output.
func (s Script) Validate() error {
	for name, marker := range map[string]string{
		"login":    s.Markers.Login,
		"prompt":   s.Markers.Prompt,
		"progress": s.Markers.Progress,
	} {
		if marker == "" {
			return fmt.Errorf("%w: empty %s marker", ErrInvalidScript, name)
		}
	}

	check := func(text, marker string) error {
		if strings.Contains(text, marker) {
			return fmt.Errorf("%w: %q contains %q", ErrMarkerInInput, text, marker)
		}

		return nil
	}

	err := check(s.Identity, s.Markers.Prompt)
	if err != nil {
		return err
	}

	for _, step := range s.Setup {
		err := check(step.Text(), s.Markers.Prompt)
		if err != nil {
			return err
		}
	}

	return check(s.Install.Text(), s.Markers.Progress)
}
