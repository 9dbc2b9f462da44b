// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package bundle reads and writes documents, together with their detected entities, as YAML or JSON files.
package bundle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"github.com/hashicorp/pii-transform/pii"
)

// Bundle is a document plus the entities detected in it.
type Bundle struct {
	pii.Document `yaml:",inline"`
	Entities     []*pii.Entity `json:"entities,omitempty" yaml:"entities,omitempty"`
}

// Collection wraps the bundle's entities.
func (b *Bundle) Collection() *pii.Collection {
	return pii.NewCollection(b.Entities...)
}

// Validate checks that chunk ids are unique.
func (b *Bundle) Validate() error {
	seen := make(map[string]struct{}, len(b.Chunks))
	for i, c := range b.Chunks {
		if _, ok := seen[c.ID]; ok {
			return fmt.Errorf("chunk %d: duplicate chunk id '%s'", i, c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	for i, e := range b.Entities {
		if e == nil {
			return fmt.Errorf("entity %d: empty entry", i)
		}
	}
	return nil
}

// Load reads a bundle from path. JSON files are read too, as YAML is a superset of JSON.
func Load(path string) (*Bundle, error) {
	p, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("unable to read bundle: %w", err)
	}
	var b Bundle
	if err := yaml.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("unable to decode bundle '%s': %w", p, err)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("bundle '%s': %w", p, err)
	}
	return &b, nil
}

// Write stores doc at path, as JSON when the file extension is .json and as YAML otherwise.
func Write(path string, doc *pii.Document) error {
	p, err := homedir.Expand(path)
	if err != nil {
		return err
	}
	out, err := Marshal(doc, filepath.Ext(p))
	if err != nil {
		return err
	}
	if err := os.WriteFile(p, out, 0644); err != nil {
		return fmt.Errorf("unable to write document: %w", err)
	}
	return nil
}

// Marshal encodes doc for a file with the given extension.
func Marshal(doc *pii.Document, ext string) ([]byte, error) {
	if strings.EqualFold(ext, ".json") {
		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(out, '\n'), nil
	}
	return yaml.Marshal(doc)
}
