// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package policy

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp/pii-transform/pii"
)

func TestHasher_Render(t *testing.T) {
	tcs := []struct {
		name     string
		size     int
		category pii.Category
		expect   string
	}{
		{name: "credit card", category: pii.CreditCard, expect: "9d88a82f-5cd3fca6-fec5af44-71b67293"},
		{name: "blockchain address", category: pii.BlockchainAddress, expect: "28634212-2f18d4fc-04ee8744-4a34c8e2"},
		{name: "person", category: pii.Person, expect: "ed27c985-3862e8c5-af773237-3220f92b"},
		{name: "short credit card", size: 10, category: pii.CreditCard, expect: "9d88-a82f5cd3-fca6fec5"},
		{name: "short blockchain address", size: 10, category: pii.BlockchainAddress, expect: "2863-42122f18-d4fc04ee"},
		{name: "short person", size: 10, category: pii.Person, expect: "ed27-c9853862-e8c5af77"},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			h, err := NewHasher("abcde", tc.size)
			require.NoError(t, err)
			out, err := h.Render(&pii.Entity{Category: tc.category, Value: "1234 5678", ChunkID: "43", Pos: 23, Lang: "en"})
			require.NoError(t, err)
			assert.Equal(t, tc.expect, out)
		})
	}
}

func TestHasher_deterministic(t *testing.T) {
	a, err := NewHasher("k", 0)
	require.NoError(t, err)
	b, err := NewHasher("k", 0)
	require.NoError(t, err)
	other, err := NewHasher("k2", 0)
	require.NoError(t, err)

	e := &pii.Entity{Category: pii.EmailAddress, Value: "me@example.com"}
	x, _ := a.Render(e)
	_, _ = a.Render(&pii.Entity{Category: pii.Person, Value: "someone else"})
	y, _ := a.Render(e)
	z, _ := b.Render(e)
	w, _ := other.Render(e)

	assert.Equal(t, x, y)
	assert.Equal(t, x, z)
	assert.NotEqual(t, x, w)
}

func TestHasher_keyIsNotPrinted(t *testing.T) {
	h, err := NewHasher("sup3r-s3cret", 8)
	require.NoError(t, err)
	for _, f := range []string{"%v", "%+v", "%s", "%#v"} {
		assert.NotContains(t, fmt.Sprintf(f, h), "sup3r-s3cret", f)
	}
	assert.NotContains(t, Spec{Name: Hash, Key: "sup3r-s3cret"}.String(), "sup3r-s3cret")
}

func TestNewHasher_invalid(t *testing.T) {
	_, err := NewHasher("", 0)
	assert.ErrorIs(t, err, ErrMissingKey)
	_, err = NewHasher("k", 65)
	assert.ErrorIs(t, err, ErrInvalidSpec)
	_, err = NewHasher("k", -1)
	assert.ErrorIs(t, err, ErrInvalidSpec)
}

func TestGroupHex(t *testing.T) {
	assert.Equal(t, "", groupHex(nil))
	assert.Equal(t, "0a", groupHex([]byte{0x0a}))
	assert.Equal(t, "00010203", groupHex([]byte{0, 1, 2, 3}))
	assert.Equal(t, "04-00010203", groupHex([]byte{4, 0, 1, 2, 3}))
}
