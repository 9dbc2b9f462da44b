// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package transform rewrites documents by replacing detected PII spans with the text chosen by a substitution
// policy, leaving everything else untouched.
package transform

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp/pii-transform/pii"
)

// Substituter chooses substitute text and can forget its per-value consistency state. *policy.Dispatcher
// implements it.
type Substituter interface {
	Render(e *pii.Entity) (string, error)
	Reset()
}

type Options struct {
	// Reset is the reset scope; empty means DefaultResetScope.
	Reset  ResetScope
	Logger hclog.Logger
}

// Transformer applies a Substituter to whole documents. It lives for one transformation session and is not safe
// for concurrent use.
type Transformer struct {
	l     hclog.Logger
	subst Substituter
	scope ResetScope
	stats Stats
}

// Stats counts what a Transformer has done during its session.
type Stats struct {
	Documents   int                  `json:"documents"`
	Chunks      int                  `json:"chunks"`
	Substituted int                  `json:"substituted"`
	Discarded   int                  `json:"discarded"`
	Orphaned    int                  `json:"orphaned"`
	ByCategory  map[pii.Category]int `json:"by_category"`
}

// Categories returns the categories with at least one substitution, sorted.
func (s Stats) Categories() []pii.Category {
	out := make([]pii.Category, 0, len(s.ByCategory))
	for c := range s.ByCategory {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func New(subst Substituter, opts Options) (*Transformer, error) {
	if subst == nil {
		return nil, fmt.Errorf("transformer needs a substituter")
	}
	scope := opts.Reset
	if scope == "" {
		scope = DefaultResetScope
	}
	if _, err := ParseResetScope(string(scope)); err != nil {
		return nil, err
	}
	l := opts.Logger
	if l == nil {
		l = hclog.NewNullLogger()
	}
	l = l.With("session", uuid.NewString())
	l.Debug("transformer ready", "reset", scope)

	return &Transformer{
		l:     l,
		subst: subst,
		scope: scope,
		stats: Stats{ByCategory: make(map[pii.Category]int)},
	}, nil
}

// Stats returns a copy of the session counters.
func (t *Transformer) Stats() Stats {
	s := t.stats
	s.ByCategory = make(map[pii.Category]int, len(t.stats.ByCategory))
	for k, v := range t.stats.ByCategory {
		s.ByCategory[k] = v
	}
	return s
}

// Transform returns a new document with the same metadata and chunk ids and contexts as doc, where every
// non-discarded entity of piic has been substituted. Entities are matched to chunks by chunk id; their order in
// piic does not matter. Any out-of-bounds or overlapping span aborts the whole document.
func (t *Transformer) Transform(doc *pii.Document, piic *pii.Collection) (*pii.Document, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}
	out, err := pii.NewDocument(doc.Metadata)
	if err != nil {
		return nil, err
	}

	byChunk := piic.ByChunk()
	if t.scope == ResetDocument {
		t.reset("document")
	}

	seen := make(map[string]struct{}, len(doc.Chunks))
	for _, chunk := range doc.Chunks {
		seen[chunk.ID] = struct{}{}
		if t.scope == ResetChunk {
			t.reset("chunk")
		}
		nc, err := t.TransformChunk(chunk, byChunk[chunk.ID])
		if err != nil {
			return nil, err
		}
		if err := out.AddChunk(nc); err != nil {
			return nil, err
		}
	}

	for id, ents := range byChunk {
		if _, ok := seen[id]; !ok {
			t.stats.Orphaned += len(ents)
			t.l.Warn("entities reference a chunk missing from the document", "chunk", id, "count", len(ents))
		}
	}

	t.stats.Documents++
	t.l.Debug("document transformed", "chunks", len(doc.Chunks), "entities", piic.Len())
	return out, nil
}

// TransformChunk substitutes entities, all belonging to chunk, and returns a chunk with the same id and context.
// No reset is performed.
func (t *Transformer) TransformChunk(chunk pii.Chunk, entities []*pii.Entity) (pii.Chunk, error) {
	counted := make(map[pii.Category]int)
	substituted := 0
	text, err := Chunk(chunk.Text, entities, func(e *pii.Entity) (string, error) {
		t.l.Trace("substituting", "chunk", chunk.ID, "category", e.Category, "pos", e.Pos, "length", e.Len())
		s, err := t.subst.Render(e)
		if err != nil {
			return "", err
		}
		counted[e.Category]++
		substituted++
		return s, nil
	})
	if err != nil {
		return pii.Chunk{}, fmt.Errorf("chunk '%s': %w", chunk.ID, err)
	}

	for c, n := range counted {
		t.stats.ByCategory[c] += n
	}
	t.stats.Substituted += substituted
	t.stats.Discarded += len(entities) - substituted
	t.stats.Chunks++

	return pii.Chunk{ID: chunk.ID, Text: text, Context: chunk.Context}, nil
}

// textChunkID is the id of the single chunk TransformText works on.
const textChunkID = "0"

// TransformText substitutes entities in a single text buffer, as if it were a one-chunk document. Reset follows the
// document scope.
func (t *Transformer) TransformText(text string, entities []*pii.Entity) (string, error) {
	if t.scope != ResetNever {
		t.reset("text")
	}
	c, err := t.TransformChunk(pii.Chunk{ID: textChunkID, Text: text}, entities)
	if err != nil {
		return "", err
	}
	return c.Text, nil
}

func (t *Transformer) reset(at string) {
	t.l.Trace("resetting substitution caches", "at", at)
	t.subst.Reset()
}
