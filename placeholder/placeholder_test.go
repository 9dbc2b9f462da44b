// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package placeholder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp/pii-transform/pii"
)

const testTableJSON = `{
  "CREDIT_CARD": ["0123 0123 0123 0123", "9999 9999 9999 9999", "0000 0000 0000 0000"],
  "BLOCKCHAIN_ADDRESS": "abc",
  "PERSON": {
    "en": {"any": "John Doe", "GB": "Joe Bloggs"},
    "es": {"any": ["Fulano Pérez", "Mengano de Tal"]}
  }
}`

func newTestAssigner(t *testing.T, table string, size int) *Assigner {
	t.Helper()
	tbl, err := ParseTable([]byte(table))
	require.NoError(t, err)
	a, err := New(Config{Table: tbl, CacheSize: size})
	require.NoError(t, err)
	return a
}

func entity(c pii.Category, value, lang, country string) *pii.Entity {
	return &pii.Entity{Category: c, Value: value, ChunkID: "43", Pos: 23, Lang: lang, Country: country}
}

func render(t *testing.T, a *Assigner, e *pii.Entity) string {
	t.Helper()
	out, err := a.Render(e)
	require.NoError(t, err)
	return out
}

func TestParseTable(t *testing.T) {
	tcs := []struct {
		name  string
		input string
		err   bool
	}{
		{name: "valid", input: testTableJSON},
		{name: "empty object", input: `{}`},
		{name: "number", input: `{"PERSON": 3}`, err: true},
		{name: "empty list", input: `{"PERSON": []}`, err: true},
		{name: "mixed list", input: `{"PERSON": ["a", 1]}`, err: true},
		{name: "null entry", input: `{"PERSON": null}`, err: true},
		{name: "too deep", input: `{"PERSON": {"en": {"gb": {"x": "y"}}}}`, err: true},
		{name: "not json", input: `PERSON = 1`, err: true},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseTable([]byte(tc.input))
			if tc.err {
				assert.ErrorIs(t, err, ErrInvalidTable)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "placeholder.json")
	require.NoError(t, os.WriteFile(path, []byte(testTableJSON), 0o600))

	tbl, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, tbl, 3)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestTable_Merge(t *testing.T) {
	base := Table{"PERSON": NewConstant("someone"), "IP_ADDRESS": NewConstant("0.0.0.0")}
	merged := base.Merge(Table{"person": NewConstant("nobody")})
	assert.Equal(t, "nobody", merged["PERSON"].Value)
	assert.Equal(t, "0.0.0.0", merged["IP_ADDRESS"].Value)
	assert.Equal(t, "someone", base["PERSON"].Value, "merge does not modify the receiver")
}

func TestAssigner_constant(t *testing.T) {
	a := newTestAssigner(t, testTableJSON, 0)
	assert.Equal(t, "abc", render(t, a, entity(pii.BlockchainAddress, "1234", "", "")))
	assert.Equal(t, "abc", render(t, a, entity(pii.BlockchainAddress, "5678", "en", "")))
	assert.Equal(t, 0, a.Remembered(), "constants are not cached")
}

func TestAssigner_unknownCategory(t *testing.T) {
	a := newTestAssigner(t, testTableJSON, 0)
	assert.Equal(t, "MEDICAL", render(t, a, entity(pii.Medical, "1234", "", "")))
}

func TestAssigner_rotation(t *testing.T) {
	a := newTestAssigner(t, testTableJSON, 0)

	steps := []struct {
		value  string
		expect string
	}{
		{"1234 5678", "0123 0123 0123 0123"},
		{"1234 5678", "0123 0123 0123 0123"},
		{"1234 567x", "9999 9999 9999 9999"},
		{"1234 5678", "0123 0123 0123 0123"},
		{"1234 567y", "0000 0000 0000 0000"},
		{"1234 567z", "0123 0123 0123 0123"},
	}
	for i, s := range steps {
		assert.Equal(t, s.expect, render(t, a, entity(pii.CreditCard, s.value, "", "")), "step %d", i)
	}
}

func TestAssigner_rotationPerCompositeKey(t *testing.T) {
	a := newTestAssigner(t, testTableJSON, 0)
	assert.Equal(t, "0123 0123 0123 0123", render(t, a, entity(pii.CreditCard, "a", "", "")))
	assert.Equal(t, "9999 9999 9999 9999", render(t, a, entity(pii.CreditCard, "b", "", "")))
	// Another language is a separate rotation.
	assert.Equal(t, "0123 0123 0123 0123", render(t, a, entity(pii.CreditCard, "a", "en", "")))
}

func TestAssigner_nested(t *testing.T) {
	a := newTestAssigner(t, testTableJSON, 0)

	tcs := []struct {
		name   string
		e      *pii.Entity
		expect string
	}{
		{name: "no language and no any key", e: entity(pii.Person, "Henry James", "", ""), expect: "PERSON"},
		{name: "language, any country", e: entity(pii.Person, "Kurt Vonnegut", "en", ""), expect: "John Doe"},
		{name: "language and country", e: entity(pii.Person, "Kurt Vonnegut", "en", "gb"), expect: "Joe Bloggs"},
		{name: "unknown country uses any", e: entity(pii.Person, "Kurt Vonnegut", "en", "nz"), expect: "John Doe"},
		{name: "language list", e: entity(pii.Person, "Julio Cortázar", "es", ""), expect: "Fulano Pérez"},
		{name: "language list rotates", e: entity(pii.Person, "Augusto Monterroso", "es", ""), expect: "Mengano de Tal"},
		{name: "unknown language", e: entity(pii.Person, "Goethe", "de", ""), expect: "PERSON"},
	}
	for _, tc := range tcs {
		assert.Equal(t, tc.expect, render(t, a, tc.e), tc.name)
	}
}

func TestAssigner_emptyEntryUsesAny(t *testing.T) {
	a := newTestAssigner(t, `{
		"PERSON": {"en": {"gb": "", "any": "Someone"}, "fr": {}, "any": {"any": "Anyone"}},
		"PHONE_NUMBER": {"en": "", "any": ["555-0000"]}
	}`, 0)

	tcs := []struct {
		name   string
		e      *pii.Entity
		expect string
	}{
		{name: "empty country constant", e: entity(pii.Person, "x", "en", "gb"), expect: "Someone"},
		{name: "empty language map", e: entity(pii.Person, "x", "fr", ""), expect: "Anyone"},
		{name: "empty language constant", e: entity(pii.PhoneNumber, "1", "en", ""), expect: "555-0000"},
	}
	for _, tc := range tcs {
		assert.Equal(t, tc.expect, render(t, a, tc.e), tc.name)
	}
}

func TestAssigner_eviction(t *testing.T) {
	a := newTestAssigner(t, `{"PERSON": ["A", "B", "C", "D"]}`, 2)

	assert.Equal(t, "A", render(t, a, entity(pii.Person, "x", "", "")))
	assert.Equal(t, "B", render(t, a, entity(pii.Person, "y", "", "")))
	assert.Equal(t, "C", render(t, a, entity(pii.Person, "z", "", "")))
	assert.Equal(t, 2, a.Remembered())

	// "x" was the least recently used value and lost its assignment.
	assert.Equal(t, "D", render(t, a, entity(pii.Person, "x", "", "")))
	// "z" is still remembered.
	assert.Equal(t, "C", render(t, a, entity(pii.Person, "z", "", "")))
}

func TestAssigner_recentUseProtectsFromEviction(t *testing.T) {
	a := newTestAssigner(t, `{"PERSON": ["A", "B", "C", "D"]}`, 2)

	assert.Equal(t, "A", render(t, a, entity(pii.Person, "x", "", "")))
	assert.Equal(t, "B", render(t, a, entity(pii.Person, "y", "", "")))
	assert.Equal(t, "A", render(t, a, entity(pii.Person, "x", "", "")))
	assert.Equal(t, "C", render(t, a, entity(pii.Person, "z", "", "")))
	assert.Equal(t, "A", render(t, a, entity(pii.Person, "x", "", "")), "x was referenced after y")
}

func TestAssigner_resetKeepsRotation(t *testing.T) {
	a := newTestAssigner(t, `{"PERSON": ["A", "B", "C"]}`, 0)

	assert.Equal(t, "A", render(t, a, entity(pii.Person, "x", "", "")))
	assert.Equal(t, "B", render(t, a, entity(pii.Person, "y", "", "")))

	a.Reset()
	assert.Equal(t, 0, a.Remembered())
	assert.Equal(t, "C", render(t, a, entity(pii.Person, "x", "", "")))
	assert.Equal(t, "A", render(t, a, entity(pii.Person, "y", "", "")))
}

func TestAssigner_defaultTable(t *testing.T) {
	a, err := New(Config{})
	require.NoError(t, err)

	assert.Equal(t, "0123 0123 0123 0123", render(t, a, entity(pii.CreditCard, "1234 5678", "en", "")))
	assert.Equal(t, "BLOCKCHAIN_ADDRESS", render(t, a, entity(pii.BlockchainAddress, "1234 5678", "en", "")))
	assert.Equal(t, "John Doe", render(t, a, entity(pii.Person, "1234 5678", "en", "")))
}

func TestNew_invalid(t *testing.T) {
	_, err := New(Config{CacheSize: -1})
	assert.Error(t, err)

	_, err = New(Config{Table: Table{"PERSON": NewChoices()}})
	assert.ErrorIs(t, err, ErrInvalidTable)
}
