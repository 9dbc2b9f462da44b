// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package pii

import (
	"strconv"
	"unicode/utf8"
)

// Action is a decision taken upstream about a detected entity.
type Action string

// ActionDiscard tells the transformer to leave the entity's span untouched.
const ActionDiscard Action = "discard"

// Decision carries metadata attached to an entity by the upstream decider.
type Decision struct {
	Action Action `json:"action,omitempty" yaml:"action,omitempty"`
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Entity is one detected span of personal data inside a chunk. Pos and Length count characters (runes), not bytes.
// Entities are produced upstream and are never modified by this module.
type Entity struct {
	Category Category  `json:"type" yaml:"type"`
	Value    string    `json:"value" yaml:"value"`
	Pos      int       `json:"pos" yaml:"pos"`
	Length   int       `json:"length,omitempty" yaml:"length,omitempty"`
	ChunkID  string    `json:"chunkid" yaml:"chunkid"`
	Lang     string    `json:"lang,omitempty" yaml:"lang,omitempty"`
	Country  string    `json:"country,omitempty" yaml:"country,omitempty"`
	Decision *Decision `json:"decision,omitempty" yaml:"decision,omitempty"`
}

// Len is the span length in runes. When Length was not supplied it falls back to the length of Value.
func (e *Entity) Len() int {
	if e.Length > 0 {
		return e.Length
	}
	return utf8.RuneCountInString(e.Value)
}

// End is the rune offset just past the entity's span.
func (e *Entity) End() int {
	return e.Pos + e.Len()
}

// Discarded reports whether the upstream decider marked this entity to be left as-is.
func (e *Entity) Discarded() bool {
	return e.Decision != nil && e.Decision.Action == ActionDiscard
}

// Fields renders the entity as the named values available to substitution templates.
func (e *Entity) Fields() map[string]string {
	return map[string]string{
		"type":    string(e.Category),
		"value":   e.Value,
		"chunkid": e.ChunkID,
		"start":   strconv.Itoa(e.Pos),
		"end":     strconv.Itoa(e.End()),
		"length":  strconv.Itoa(e.Len()),
		"lang":    e.Lang,
		"country": e.Country,
	}
}
