// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package transform

import (
	"errors"
	"fmt"
	"strings"
)

// ResetScope sets how often the substitution consistency caches are cleared.
type ResetScope string

const (
	// ResetDocument clears the caches before each document.
	ResetDocument ResetScope = "document"
	// ResetChunk clears the caches before each chunk.
	ResetChunk ResetScope = "chunk"
	// ResetNever keeps consistency for the whole session.
	ResetNever ResetScope = "never"
)

// DefaultResetScope is used when no scope is configured.
const DefaultResetScope = ResetDocument

var ErrInvalidScope = errors.New("invalid reset scope")

// ParseResetScope accepts document, chunk, never, and collection as an alias of never. An empty string is the default.
func ParseResetScope(s string) (ResetScope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DefaultResetScope, nil
	case string(ResetDocument):
		return ResetDocument, nil
	case string(ResetChunk):
		return ResetChunk, nil
	case string(ResetNever), "collection":
		return ResetNever, nil
	default:
		return "", fmt.Errorf("%w: '%s' (must be document, chunk or never)", ErrInvalidScope, s)
	}
}
