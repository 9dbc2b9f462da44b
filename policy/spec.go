// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package policy

import (
	"errors"
	"fmt"
	"strings"
)

// Name is one of the supported substitution policies.
type Name string

const (
	Passthrough Name = "passthrough"
	Redact      Name = "redact"
	Label       Name = "label"
	Annotate    Name = "annotate"
	Custom      Name = "custom"
	Hash        Name = "hash"
	Placeholder Name = "placeholder"
	Synthetic   Name = "synthetic"
)

// DefaultName is used when no default policy is configured, and as the fallback when a synthetic value cannot be
// produced and the configured default is itself synthetic.
const DefaultName = Label

// Names lists every supported policy.
var Names = []Name{Passthrough, Redact, Label, Annotate, Custom, Hash, Placeholder, Synthetic}

// templates holds the policies that are plain templates.
var templates = map[Name]string{
	Passthrough: "{value}",
	Redact:      "<PII>",
	Label:       "<{type}>",
	Annotate:    "<{type}:{value}>",
}

var (
	ErrUnknownPolicy   = errors.New("unknown policy")
	ErrMissingKey      = errors.New("hash policy needs a key")
	ErrMissingTemplate = errors.New("custom policy needs a template")
	ErrInvalidSpec     = errors.New("invalid policy")
)

// Spec describes one policy and its parameters.
type Spec struct {
	Name Name
	// Key is the secret mixed into hash digests.
	Key string
	// Size is the number of digest bytes kept by the hash policy; zero means DefaultHashSize.
	Size int
	// Template is the format string of the custom policy.
	Template string
}

// ParseName returns the policy named s, ignoring case.
func ParseName(s string) (Name, error) {
	n := Name(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Names {
		if n == known {
			return n, nil
		}
	}
	return "", fmt.Errorf("%w: '%s'", ErrUnknownPolicy, s)
}

// FromParam builds a Spec from a policy name and its single parameter: the key for hash, the template for custom.
// The parameter is ignored by other policies.
func FromParam(name, param string) (Spec, error) {
	n, err := ParseName(name)
	if err != nil {
		return Spec{}, err
	}
	s := Spec{Name: n}
	switch n {
	case Hash:
		s.Key = param
	case Custom:
		s.Template = param
	}
	return s, s.Validate()
}

// Validate checks the spec without building it.
func (s Spec) Validate() error {
	n, err := ParseName(string(s.Name))
	if err != nil {
		return err
	}
	switch n {
	case Hash:
		if s.Key == "" {
			return ErrMissingKey
		}
		if s.Size < 0 {
			return fmt.Errorf("%w: negative hash size %d", ErrInvalidSpec, s.Size)
		}
	case Custom:
		if s.Template == "" {
			return ErrMissingTemplate
		}
		if _, err := parseTemplate(s.Template); err != nil {
			return err
		}
	}
	return nil
}

// String never includes the hash key.
func (s Spec) String() string {
	switch s.Name {
	case Hash:
		return fmt.Sprintf("hash(size=%d)", s.Size)
	case Custom:
		return fmt.Sprintf("custom(%q)", s.Template)
	default:
		return string(s.Name)
	}
}
