// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package policy decides which substitution text replaces each PII entity. A Dispatcher holds a default policy and
// optional per-category overrides, built once per transformation session.
package policy

import (
	"github.com/hashicorp/pii-transform/pii"
	"github.com/hashicorp/pii-transform/placeholder"
	"github.com/hashicorp/pii-transform/synthetic"
)

// Policy produces the substitute text for an entity.
type Policy interface {
	Render(e *pii.Entity) (string, error)
}

// Resetter is implemented by policies holding per-value consistency caches.
type Resetter interface {
	Reset()
}

var (
	_ Policy   = &placeholder.Assigner{}
	_ Resetter = &placeholder.Assigner{}
	_ Policy   = &synthetic.Generator{}
	_ Resetter = &synthetic.Generator{}
)
