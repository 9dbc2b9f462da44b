// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package policy

import (
	"fmt"
	"strings"

	"github.com/hashicorp/pii-transform/pii"
)

// Template renders a string with {name} placeholders filled from the entity's fields. Unknown names render as the
// empty string. Literal braces are written as {{ and }}.
type Template struct {
	raw  string
	segs []segment
}

type segment struct {
	text  string
	field string
}

var _ Policy = &Template{}

func NewTemplate(raw string) (*Template, error) {
	segs, err := parseTemplate(raw)
	if err != nil {
		return nil, err
	}
	return &Template{raw: raw, segs: segs}, nil
}

func mustTemplate(raw string) *Template {
	t, err := NewTemplate(raw)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Template) Render(e *pii.Entity) (string, error) {
	return t.Execute(e.Fields()), nil
}

// Execute fills the template from fields.
func (t *Template) Execute(fields map[string]string) string {
	var b strings.Builder
	for _, s := range t.segs {
		if s.field == "" {
			b.WriteString(s.text)
			continue
		}
		b.WriteString(fields[s.field])
	}
	return b.String()
}

func (t *Template) String() string {
	return t.raw
}

func parseTemplate(raw string) ([]segment, error) {
	var segs []segment
	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			segs = append(segs, segment{text: text.String()})
			text.Reset()
		}
	}

	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c == '{' && i+1 < len(raw) && raw[i+1] == '{':
			text.WriteByte('{')
			i++
		case c == '}' && i+1 < len(raw) && raw[i+1] == '}':
			text.WriteByte('}')
			i++
		case c == '{':
			end := strings.IndexByte(raw[i+1:], '}')
			if end < 0 {
				return nil, fmt.Errorf("%w: unclosed '{' at offset %d in template %q", ErrInvalidSpec, i, raw)
			}
			name := raw[i+1 : i+1+end]
			// A format spec or conversion after the name is accepted and ignored.
			if j := strings.IndexAny(name, ":!"); j >= 0 {
				name = name[:j]
			}
			name = strings.TrimSpace(name)
			if name == "" || strings.ContainsRune(name, '{') {
				return nil, fmt.Errorf("%w: bad placeholder at offset %d in template %q", ErrInvalidSpec, i, raw)
			}
			flush()
			segs = append(segs, segment{field: name})
			i += end + 1
		case c == '}':
			return nil, fmt.Errorf("%w: single '}' at offset %d in template %q", ErrInvalidSpec, i, raw)
		default:
			text.WriteByte(c)
		}
	}
	flush()
	return segs, nil
}
