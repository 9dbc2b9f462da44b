// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package command

// Success indicates a successful command execution.
const Success int = 0

// The following error group is intended for issues within the command's execution.
const (
	// FlagParseError indicates that a command was unable to successfully parse the flags/arguments provided to it.
	FlagParseError int = iota + 16

	// ConfigError indicates an invalid HCL configuration or an invalid combination of policy flags.
	ConfigError

	// InputError indicates the input bundle could not be read or decoded.
	InputError

	// TransformError indicates that the entities do not fit the document, e.g. overlapping or out of bounds spans.
	TransformError

	// OutputError indicates an error writing the transformed document.
	OutputError
)
