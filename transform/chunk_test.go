// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package transform

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp/pii-transform/pii"
)

func label(e *pii.Entity) (string, error) {
	return "<" + string(e.Category) + ">", nil
}

func annotate(e *pii.Entity) (string, error) {
	return "<" + string(e.Category) + ":" + e.Value + ">", nil
}

func TestChunk(t *testing.T) {
	text := "Call John at 555-1234 today"
	person := &pii.Entity{Category: pii.Person, Value: "John", Pos: 5, Length: 4}
	phone := &pii.Entity{Category: pii.PhoneNumber, Value: "555-1234", Pos: 13, Length: 8}

	tcs := []struct {
		name     string
		entities []*pii.Entity
		subst    SubstFunc
		expected string
	}{
		{
			name:     "Test label",
			entities: []*pii.Entity{person, phone},
			subst:    label,
			expected: "Call <PERSON> at <PHONE_NUMBER> today",
		},
		{
			name:     "Test annotate",
			entities: []*pii.Entity{person, phone},
			subst:    annotate,
			expected: "Call <PERSON:John> at <PHONE_NUMBER:555-1234> today",
		},
		{
			name:     "Test unsorted entities",
			entities: []*pii.Entity{phone, person},
			subst:    label,
			expected: "Call <PERSON> at <PHONE_NUMBER> today",
		},
		{
			name: "Test discarded entity is left as-is",
			entities: []*pii.Entity{
				person,
				{Category: pii.PhoneNumber, Value: "555-1234", Pos: 13, Length: 8, Decision: &pii.Decision{Action: pii.ActionDiscard}},
			},
			subst:    label,
			expected: "Call <PERSON> at 555-1234 today",
		},
		{
			name:     "Test no entities",
			subst:    label,
			expected: text,
		},
		{
			name:     "Test length from value",
			entities: []*pii.Entity{{Category: pii.Person, Value: "John", Pos: 5}},
			subst:    label,
			expected: "Call <PERSON> at 555-1234 today",
		},
		{
			name:     "Test span at start and end",
			entities: []*pii.Entity{{Category: pii.Other, Value: "Call", Pos: 0, Length: 4}, {Category: pii.Other, Value: "today", Pos: 22, Length: 5}},
			subst:    label,
			expected: "<OTHER> John at 555-1234 <OTHER>",
		},
		{
			name:     "Test adjacent spans",
			entities: []*pii.Entity{{Category: pii.Other, Value: "Ca", Pos: 0, Length: 2}, {Category: pii.Other, Value: "ll", Pos: 2, Length: 2}},
			subst:    label,
			expected: "<OTHER><OTHER> John at 555-1234 today",
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Chunk(text, tc.entities, tc.subst)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, out)
		})
	}
}

func TestChunkErrors(t *testing.T) {
	text := "Call John at 555-1234 today"

	tcs := []struct {
		name     string
		entities []*pii.Entity
		expected error
	}{
		{
			name: "Test overlap",
			entities: []*pii.Entity{
				{Category: pii.Person, Value: "John at", Pos: 5, Length: 7},
				{Category: pii.Other, Value: "at 555", Pos: 10, Length: 6},
			},
			expected: ErrOverlap,
		},
		{
			name: "Test same start",
			entities: []*pii.Entity{
				{Category: pii.Person, Value: "John", Pos: 5, Length: 4},
				{Category: pii.Other, Value: "Jo", Pos: 5, Length: 2},
			},
			expected: ErrOverlap,
		},
		{
			name:     "Test past the end",
			entities: []*pii.Entity{{Category: pii.Other, Value: "today!", Pos: 22, Length: 6}},
			expected: ErrOutOfBounds,
		},
		{
			name:     "Test negative position",
			entities: []*pii.Entity{{Category: pii.Other, Value: "x", Pos: -1, Length: 1}},
			expected: ErrOutOfBounds,
		},
		{
			name:     "Test negative length",
			entities: []*pii.Entity{{Category: pii.Other, Value: "x", Pos: 1, Length: -1}},
			expected: ErrOutOfBounds,
		},
		{
			name: "Test discarded entity out of bounds",
			entities: []*pii.Entity{
				{Category: pii.Other, Value: "x", Pos: 40, Length: 1, Decision: &pii.Decision{Action: pii.ActionDiscard}},
			},
			expected: ErrOutOfBounds,
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Chunk(text, tc.entities, label)
			assert.ErrorIs(t, err, tc.expected)
			assert.Empty(t, out)
		})
	}
}

func TestChunkDiscardedOverlapIgnored(t *testing.T) {
	text := "Call John at 555-1234 today"
	entities := []*pii.Entity{
		{Category: pii.Person, Value: "John at", Pos: 5, Length: 7},
		{Category: pii.Other, Value: "at 555", Pos: 10, Length: 6, Decision: &pii.Decision{Action: pii.ActionDiscard}},
	}
	out, err := Chunk(text, entities, label)
	require.NoError(t, err)
	assert.Equal(t, "Call <PERSON> 555-1234 today", out)
}

func TestChunkSubstError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Chunk("abc", []*pii.Entity{{Category: pii.Other, Value: "b", Pos: 1}}, func(*pii.Entity) (string, error) {
		return "", boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestChunkUnicode(t *testing.T) {
	text := "Señor José Núñez vive en Cáceres 😀 ok"
	entities := []*pii.Entity{
		{Category: pii.Person, Value: "José Núñez", Pos: 6, Length: 10},
		{Category: pii.Location, Value: "Cáceres", Pos: 25, Length: 7},
	}
	out, err := Chunk(text, entities, label)
	require.NoError(t, err)
	assert.Equal(t, "Señor <PERSON> vive en <LOCATION> 😀 ok", out)
}

func TestChunkInvalidUTF8Preserved(t *testing.T) {
	text := "a\xffb John c"
	out, err := Chunk(text, []*pii.Entity{{Category: pii.Person, Value: "John", Pos: 4}}, label)
	require.NoError(t, err)
	assert.Equal(t, "a\xffb <PERSON> c", out)
}

func TestChunkLength(t *testing.T) {
	text := "Call John at 555-1234 today, or mail john@example.com"
	entities := []*pii.Entity{
		{Category: pii.Person, Value: "John", Pos: 5},
		{Category: pii.PhoneNumber, Value: "555-1234", Pos: 13},
		{Category: pii.EmailAddress, Value: "john@example.com", Pos: 37},
	}
	out, err := Chunk(text, entities, annotate)
	require.NoError(t, err)

	expected := utf8.RuneCountInString(text)
	for _, e := range entities {
		s, _ := annotate(e)
		expected += utf8.RuneCountInString(s) - e.Len()
	}
	assert.Equal(t, expected, utf8.RuneCountInString(out))
	assert.True(t, strings.HasSuffix(out, "<EMAIL_ADDRESS:john@example.com>"))
}

func TestRuneOffsets(t *testing.T) {
	assert.Equal(t, []int{0}, runeOffsets(""))
	assert.Equal(t, []int{0, 1, 2}, runeOffsets("ab"))
	assert.Equal(t, []int{0, 2, 3}, runeOffsets("ñb"))
	assert.Equal(t, []int{0, 1, 2}, runeOffsets("\xffb"))
}

func TestChunkEmptySpan(t *testing.T) {
	text := "Call John"
	entities := []*pii.Entity{
		{Category: pii.Person, Value: "John", Pos: 5},
		{Category: pii.Other, Pos: 5},
	}
	out, err := Chunk(text, entities, label)
	require.NoError(t, err)
	assert.Equal(t, "Call <OTHER><PERSON>", out)
}
