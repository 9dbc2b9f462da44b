// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package placeholder

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
)

// AnyKey is the wildcard key used at the language and country levels of a Table.
const AnyKey = "any"

// maxDepth is the number of nesting levels below a category: language, then country.
const maxDepth = 2

var ErrInvalidTable = errors.New("invalid placeholder table")

//go:embed default_table.json
var defaultTableJSON []byte

// Kind tells which shape an Entry holds.
type Kind int

const (
	Constant Kind = iota
	Choices
	Nested
)

// Entry is one node of a placeholder Table: a constant label, a list of candidates to rotate through, or a map keyed
// by language (first level) or country (second level).
type Entry struct {
	Kind     Kind
	Value    string
	Choices  []string
	Children map[string]*Entry
}

func NewConstant(v string) *Entry {
	return &Entry{Kind: Constant, Value: v}
}

func NewChoices(v ...string) *Entry {
	return &Entry{Kind: Choices, Choices: v}
}

func NewNested(children map[string]*Entry) *Entry {
	n := &Entry{Kind: Nested, Children: make(map[string]*Entry, len(children))}
	for k, c := range children {
		n.Children[strings.ToLower(k)] = c
	}
	return n
}

// UnmarshalJSON accepts a string, a list of strings, or an object of entries.
func (e *Entry) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*e = *NewConstant(s)
		return nil
	}
	var l []string
	if err := json.Unmarshal(b, &l); err == nil {
		*e = *NewChoices(l...)
		return nil
	}
	var m map[string]*Entry
	if err := json.Unmarshal(b, &m); err != nil {
		return fmt.Errorf("%w: entry must be a string, a list of strings or an object: %s", ErrInvalidTable, err)
	}
	*e = *NewNested(m)
	return nil
}

// empty reports whether e holds no placeholder: nil, an empty constant, or a list or map without elements.
func (e *Entry) empty() bool {
	if e == nil {
		return true
	}
	switch e.Kind {
	case Constant:
		return e.Value == ""
	case Choices:
		return len(e.Choices) == 0
	default:
		return len(e.Children) == 0
	}
}

func (e *Entry) validate(path string, depth int) error {
	if e == nil {
		return fmt.Errorf("%w: empty entry at '%s'", ErrInvalidTable, path)
	}
	switch e.Kind {
	case Constant:
		return nil
	case Choices:
		if len(e.Choices) == 0 {
			return fmt.Errorf("%w: empty candidate list at '%s'", ErrInvalidTable, path)
		}
		return nil
	case Nested:
		if depth >= maxDepth {
			return fmt.Errorf("%w: entry nested too deep at '%s'", ErrInvalidTable, path)
		}
		for k, c := range e.Children {
			if err := c.validate(path+"."+k, depth+1); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown entry kind %d at '%s'", ErrInvalidTable, e.Kind, path)
	}
}

// Table maps a category name to its placeholder Entry.
type Table map[string]*Entry

// Validate checks that every entry is well-formed and no deeper than category/language/country.
func (t Table) Validate() error {
	for k, e := range t {
		if err := e.validate(k, 0); err != nil {
			return err
		}
	}
	return nil
}

// Merge returns a new table with the entries of other layered over t, per category.
func (t Table) Merge(other Table) Table {
	out := make(Table, len(t)+len(other))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range other {
		out[strings.ToUpper(k)] = v
	}
	return out
}

// ParseTable decodes a JSON document into a validated Table.
func ParseTable(b []byte) (Table, error) {
	var raw map[string]*Entry
	if err := json.Unmarshal(b, &raw); err != nil {
		if errors.Is(err, ErrInvalidTable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidTable, err)
	}
	t := make(Table, len(raw))
	for k, v := range raw {
		t[strings.ToUpper(k)] = v
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// LoadFile reads a JSON placeholder table from path. A leading ~ is expanded to the user's home directory.
func LoadFile(path string) (Table, error) {
	p, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("unable to read placeholder file: %w", err)
	}
	t, err := ParseTable(b)
	if err != nil {
		return nil, fmt.Errorf("placeholder file '%s': %w", p, err)
	}
	return t, nil
}

// DefaultTable returns a fresh copy of the built-in table.
func DefaultTable() Table {
	t, err := ParseTable(defaultTableJSON)
	if err != nil {
		// The embedded table is part of the build.
		panic(err)
	}
	return t
}
