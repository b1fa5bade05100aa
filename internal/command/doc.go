// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package command defines the CLI for rdsprops. It wires flags, validators
// and the patch, lookup and completion actions.
package command
