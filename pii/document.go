// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package pii

import (
	"fmt"

	"github.com/mitchellh/copystructure"
)

// Chunk is an independently addressable piece of document text.
type Chunk struct {
	ID      string         `json:"id" yaml:"id"`
	Text    string         `json:"data" yaml:"data"`
	Context map[string]any `json:"context,omitempty" yaml:"context,omitempty"`
}

// Document is an ordered sequence of chunks plus free-form metadata.
type Document struct {
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Chunks   []Chunk        `json:"chunks" yaml:"chunks"`
}

// NewDocument returns an empty document carrying a deep copy of metadata.
func NewDocument(metadata map[string]any) (*Document, error) {
	meta, err := deepCopy(metadata)
	if err != nil {
		return nil, fmt.Errorf("unable to clone document metadata: %w", err)
	}
	return &Document{Metadata: meta}, nil
}

// AddChunk appends a chunk whose context is deep-copied from the one given.
func (d *Document) AddChunk(c Chunk) error {
	ctx, err := deepCopy(c.Context)
	if err != nil {
		return fmt.Errorf("unable to clone context for chunk '%s': %w", c.ID, err)
	}
	c.Context = ctx
	d.Chunks = append(d.Chunks, c)
	return nil
}

func deepCopy(m map[string]any) (map[string]any, error) {
	if m == nil {
		return nil, nil
	}
	out, err := copystructure.Copy(m)
	if err != nil {
		return nil, err
	}
	return out.(map[string]any), nil
}
