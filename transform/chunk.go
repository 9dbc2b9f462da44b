// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package transform

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hashicorp/pii-transform/pii"
)

var (
	ErrOutOfBounds = errors.New("entity span outside chunk text")
	ErrOverlap     = errors.New("overlapping entity spans")
	ErrNilDocument = errors.New("no document to transform")
)

// SubstFunc returns the substitute text for an entity.
type SubstFunc func(e *pii.Entity) (string, error)

// Chunk replaces each entity's span in text with the output of subst. Entities are applied in position order; an
// empty span goes before a non-empty one starting at the same position, other ties keep their arrival order.
// Discarded entities keep their original text. Text outside the replaced spans is copied byte for byte. Positions
// and lengths count runes.
func Chunk(text string, entities []*pii.Entity, subst SubstFunc) (string, error) {
	if len(entities) == 0 {
		return text, nil
	}

	sorted := make([]*pii.Entity, len(entities))
	copy(sorted, entities)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Pos == sorted[j].Pos {
			return sorted[i].Len() == 0 && sorted[j].Len() > 0
		}
		return sorted[i].Pos < sorted[j].Pos
	})

	offsets := runeOffsets(text)
	runes := len(offsets) - 1

	var b strings.Builder
	b.Grow(len(text))
	cursor := 0
	for _, e := range sorted {
		if e.Pos < 0 || e.Length < 0 || e.End() > runes {
			return "", fmt.Errorf("%w: %s at [%d,%d) in chunk '%s' of %d characters",
				ErrOutOfBounds, e.Category, e.Pos, e.End(), e.ChunkID, runes)
		}
		if e.Discarded() {
			continue
		}
		if e.Pos < cursor {
			return "", fmt.Errorf("%w: %s at [%d,%d) in chunk '%s' starts before offset %d",
				ErrOverlap, e.Category, e.Pos, e.End(), e.ChunkID, cursor)
		}
		s, err := subst(e)
		if err != nil {
			return "", err
		}
		b.WriteString(text[offsets[cursor]:offsets[e.Pos]])
		b.WriteString(s)
		cursor = e.End()
	}
	b.WriteString(text[offsets[cursor]:])
	return b.String(), nil
}

// runeOffsets maps each rune index of s to its byte offset, plus a final entry for len(s). Invalid UTF-8 bytes count
// as one rune each, so slicing on these offsets never alters the input bytes.
func runeOffsets(s string) []int {
	offsets := make([]int, 0, len(s)+1)
	for i := 0; i < len(s); {
		offsets = append(offsets, i)
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return append(offsets, len(s))
}
