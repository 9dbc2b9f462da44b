// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package policy

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/hashicorp/pii-transform/pii"
)

// DefaultHashSize is the number of digest bytes kept by a Hasher.
const DefaultHashSize = 16

// hashGroup is the number of bytes in each dash-separated group of the output.
const hashGroup = 4

// Hasher replaces a value by a keyed SHA-512 digest of its category and value. The key is never part of the output
// and is not printed by String.
type Hasher struct {
	key  string
	size int
}

var _ Policy = &Hasher{}

func NewHasher(key string, size int) (*Hasher, error) {
	if key == "" {
		return nil, ErrMissingKey
	}
	if size == 0 {
		size = DefaultHashSize
	}
	if size < 0 || size > sha512.Size {
		return nil, fmt.Errorf("%w: hash size must be between 1 and %d, got %d", ErrInvalidSpec, sha512.Size, size)
	}
	return &Hasher{key: key, size: size}, nil
}

func (h *Hasher) Render(e *pii.Entity) (string, error) {
	sum := sha512.Sum512([]byte(h.key + string(e.Category) + e.Value))
	return groupHex(sum[:h.size]), nil
}

func (h *Hasher) String() string {
	return fmt.Sprintf("<Hasher size=%d>", h.size)
}

// GoString keeps the key out of %#v output.
func (h *Hasher) GoString() string {
	return h.String()
}

// groupHex hex-encodes b in groups of hashGroup bytes joined by '-'. Groups are counted from the end, so a short
// leading group holds the remainder.
func groupHex(b []byte) string {
	s := hex.EncodeToString(b)
	width := hashGroup * 2
	var parts []string
	for end := len(s); end > 0; end -= width {
		start := end - width
		if start < 0 {
			start = 0
		}
		parts = append([]string{s[start:end]}, parts...)
	}
	return strings.Join(parts, "-")
}
