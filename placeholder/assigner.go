// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package placeholder assigns human-readable stand-in labels to PII entities. Labels come from a Table that can be
// specialized per category, language and country. When a Table entry lists several candidates, they are handed out
// in rotation to each new distinct value, and a value seen again gets the same candidate it got before for as long
// as it stays in the bounded LRU cache.
package placeholder

import (
	"fmt"
	"strings"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/hashicorp/pii-transform/pii"
)

// DefaultCacheSize is how many distinct values keep their assigned candidate.
const DefaultCacheSize = 200

type Config struct {
	// Table to use. When nil, DefaultTable() is used.
	Table Table
	// CacheSize bounds the value->candidate memory. Zero means DefaultCacheSize.
	CacheSize int
}

// Assigner is not safe for concurrent use.
type Assigner struct {
	table Table
	size  int

	// index holds the next rotation position for each composite key; it survives Reset.
	index map[string]int
	// assigned remembers which rotation position each (composite key, value) pair received.
	assigned *simplelru.LRU[assignKey, int]
}

type assignKey struct {
	key   string
	value string
}

func New(cfg Config) (*Assigner, error) {
	table := cfg.Table
	if table == nil {
		table = DefaultTable()
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	size := cfg.CacheSize
	if size == 0 {
		size = DefaultCacheSize
	}
	if size < 0 {
		return nil, fmt.Errorf("placeholder cache size must be positive, got %d", size)
	}
	cache, err := simplelru.NewLRU[assignKey, int](size, nil)
	if err != nil {
		return nil, err
	}
	return &Assigner{
		table:    table,
		size:     size,
		index:    make(map[string]int),
		assigned: cache,
	}, nil
}

func (a *Assigner) String() string {
	return fmt.Sprintf("<Placeholder #%d>", len(a.table))
}

// Render returns the placeholder for e. It never fails: categories missing from the table render as their own name.
func (a *Assigner) Render(e *pii.Entity) (string, error) {
	entry := a.lookup(e)
	if entry == nil {
		return string(e.Category), nil
	}
	if entry.Kind == Constant {
		return entry.Value, nil
	}

	ak := assignKey{key: compositeKey(e), value: e.Value}
	if idx, ok := a.assigned.Get(ak); ok {
		return entry.Choices[idx%len(entry.Choices)], nil
	}
	idx := a.index[ak.key] % len(entry.Choices)
	a.index[ak.key] = (idx + 1) % len(entry.Choices)
	a.assigned.Add(ak, idx)
	return entry.Choices[idx], nil
}

// Reset forgets every remembered assignment. Rotation positions are kept, so new values continue the rotation
// instead of starting over at the first candidate.
func (a *Assigner) Reset() {
	a.assigned.Purge()
}

// Remembered is the number of values currently holding an assignment.
func (a *Assigner) Remembered() int {
	return a.assigned.Len()
}

// lookup walks category -> language -> country, falling back to AnyKey at each level. It returns nil when no usable
// constant or candidate list is found.
func (a *Assigner) lookup(e *pii.Entity) *Entry {
	entry := a.table[string(e.Category)]
	for _, k := range []string{e.Lang, e.Country} {
		if entry == nil || entry.Kind != Nested {
			break
		}
		entry = child(entry, k)
	}
	if entry == nil || entry.Kind == Nested {
		return nil
	}
	if entry.Kind == Constant && entry.Value == "" {
		return nil
	}
	if entry.Kind == Choices && len(entry.Choices) == 0 {
		return nil
	}
	return entry
}

// child picks the entry for key, or the AnyKey entry when key is missing or holds nothing usable.
func child(e *Entry, key string) *Entry {
	if key != "" {
		if c := e.Children[strings.ToLower(key)]; !c.empty() {
			return c
		}
	}
	return e.Children[AnyKey]
}

func compositeKey(e *pii.Entity) string {
	return strings.Join([]string{string(e.Category), strings.ToLower(e.Lang), strings.ToLower(e.Country)}, "/")
}
