// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package pii

import "github.com/samber/lo"

// Collection holds the entities detected in one document. No ordering is assumed: entities may arrive unsorted and
// interleaved across chunks.
type Collection struct {
	entities []*Entity
}

func NewCollection(entities ...*Entity) *Collection {
	c := &Collection{}
	c.Add(entities...)
	return c
}

// Add appends entities, skipping nils.
func (c *Collection) Add(entities ...*Entity) {
	for _, e := range entities {
		if e != nil {
			c.entities = append(c.entities, e)
		}
	}
}

func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entities)
}

// Entities returns the entities in arrival order.
func (c *Collection) Entities() []*Entity {
	if c == nil {
		return nil
	}
	return c.entities
}

// ByChunk groups the entities by chunk id in a single pass. Within each group, arrival order is preserved.
func (c *Collection) ByChunk() map[string][]*Entity {
	if c == nil {
		return map[string][]*Entity{}
	}
	return lo.GroupBy(c.entities, func(e *Entity) string {
		return e.ChunkID
	})
}
