// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package provision

import "slices"

// Flavor is the guest operating system family. It determines the commands
// typed into the console and the default markers.
type Flavor string

// Supported guest flavors.
const (
	FreeBSD Flavor = "freebsd"
	Debian  Flavor = "debian"
)

// Flavors lists all supported flavors.
var Flavors = []Flavor{FreeBSD, Debian}

// String implements [fmt.Stringer].
func (f *Flavor) String() string {
	return string(*f)
}

// Set implements [pflag.Value].
func (f *Flavor) Set(s string) error {
	if !slices.Contains(Flavors, Flavor(s)) {
		return ErrFlavorNotSupported
	}

	*f = Flavor(s)

	return nil
}

// Type implements [pflag.Value].
func (*Flavor) Type() string {
	return "os"
}

// flavorCommands are the flavor specific building blocks of a [Script].
type flavorCommands struct {
	markers        Markers
	enableSSH      []string
	startSSH       []string
	addUser        func(user string) string
	adminGroup     func(user string) string
	installPackage func(pkgs string) string
	sudoersFile    string
	shutdown       string
}

var flavorTable = map[Flavor]flavorCommands{
	FreeBSD: {
		markers: Markers{
			Login:    "login:",
			Prompt:   "root@freebsd:~ #",
			Progress: "Extracting",
		},
		enableSSH: []string{
			`echo 'sshd_enable="YES"' >> /etc/rc.conf`,
			`echo 'PermitRootLogin yes' >> /etc/ssh/sshd_config`,
		},
		startSSH: []string{
			"service sshd start",
			"service sshd restart",
		},
		addUser: func(user string) string {
			return "pw useradd " + user + " -m -s /bin/sh"
		},
		adminGroup: func(user string) string {
			return "pw groupmod wheel -m " + user
		},
		installPackage: func(pkgs string) string {
			return "env ASSUME_ALWAYS_YES=yes pkg install -y " + pkgs
		},
		sudoersFile: "/usr/local/etc/sudoers",
		shutdown:    "shutdown -p now",
	},
	Debian: {
		markers: Markers{
			Login:    "login:",
			Prompt:   "root@debian:~#",
			Progress: "Unpacking",
		},
		enableSSH: []string{
			`echo 'PermitRootLogin yes' >> /etc/ssh/sshd_config`,
			"systemctl enable ssh",
		},
		startSSH: []string{
			"systemctl start ssh",
			"systemctl restart ssh",
		},
		addUser: func(user string) string {
			return "useradd -m -s /bin/sh " + user
		},
		adminGroup: func(user string) string {
			return "usermod -aG sudo " + user
		},
		installPackage: func(pkgs string) string {
			return "apt-get update && DEBIAN_FRONTEND=noninteractive apt-get install -y " + pkgs
		},
		sudoersFile: "/etc/sudoers",
		shutdown:    "poweroff",
	},
}
