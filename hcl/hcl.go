// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package hcl

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/mitchellh/go-homedir"
	"github.com/zclconf/go-cty/cty"

	"github.com/hashicorp/pii-transform/pii"
	"github.com/hashicorp/pii-transform/placeholder"
	"github.com/hashicorp/pii-transform/policy"
	"github.com/hashicorp/pii-transform/synthetic"
	"github.com/hashicorp/pii-transform/transform"
)

// DefaultTarget is the policy block label that sets the default policy.
const DefaultTarget = "default"

type HCL struct {
	Transform   *Transform   `hcl:"transform,block" json:"transform"`
	Policies    []*Policy    `hcl:"policy,block" json:"policies"`
	Placeholder *Placeholder `hcl:"placeholder,block" json:"placeholder"`
	Synthetic   *Synthetic   `hcl:"synthetic,block" json:"synthetic"`
}

type Transform struct {
	DefaultPolicy string `hcl:"default_policy,optional"`
	Reset         string `hcl:"reset,optional"`
	Seed          *int64 `hcl:"seed,optional"`
}

type Policy struct {
	Target   string `hcl:"target,label"`
	Name     string `hcl:"name"`
	Key      string `hcl:"key,optional"`
	Size     int    `hcl:"size,optional"`
	Template string `hcl:"template,optional"`
}

// GoString keeps hash keys out of debug output.
func (p Policy) GoString() string {
	return fmt.Sprintf("hcl.Policy{Target:%q, Name:%q, Size:%d, Template:%q}", p.Target, p.Name, p.Size, p.Template)
}

type Placeholder struct {
	File      string    `hcl:"file,optional"`
	CacheSize int       `hcl:"cache_size,optional"`
	Values    cty.Value `hcl:"values,optional"`
}

type Synthetic struct {
	CacheSize int    `hcl:"cache_size,optional"`
	Seed      *int64 `hcl:"seed,optional"`
}

// Parse takes a file path and decodes the file from disk into HCL types. A leading ~ is expanded.
func Parse(path string) (HCL, error) {
	p, err := homedir.Expand(path)
	if err != nil {
		return HCL{}, err
	}
	var h HCL
	err = hclsimple.DecodeFile(p, nil, &h)
	if err != nil {
		return HCL{}, err
	}
	return h, nil
}

// MapPolicy turns one policy block into a policy.Spec.
func MapPolicy(p Policy) (policy.Spec, error) {
	n, err := policy.ParseName(p.Name)
	if err != nil {
		return policy.Spec{}, err
	}
	s := policy.Spec{
		Name:     n,
		Key:      p.Key,
		Size:     p.Size,
		Template: p.Template,
	}
	return s, s.Validate()
}

// PolicyConfig builds the dispatcher configuration described by the file. Every invalid block is reported.
func (h HCL) PolicyConfig(l hclog.Logger) (policy.Config, error) {
	var errs *multierror.Error
	cfg := policy.Config{
		Policies: make(map[pii.Category]policy.Spec),
		Logger:   l,
	}

	defaultSet := false
	if h.Transform != nil && h.Transform.DefaultPolicy != "" {
		s, err := MapPolicy(Policy{Name: h.Transform.DefaultPolicy})
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("transform.default_policy: %w", err))
		}
		cfg.Default = s
		defaultSet = true
	}

	for _, p := range h.Policies {
		s, err := MapPolicy(*p)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("policy '%s': %w", p.Target, err))
			continue
		}
		if strings.EqualFold(p.Target, DefaultTarget) {
			if defaultSet {
				errs = multierror.Append(errs, fmt.Errorf("policy '%s': default policy set more than once", p.Target))
				continue
			}
			cfg.Default = s
			defaultSet = true
			continue
		}
		c, err := pii.ParseCategory(p.Target)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("policy '%s': %w", p.Target, err))
			continue
		}
		if _, ok := cfg.Policies[c]; ok {
			errs = multierror.Append(errs, fmt.Errorf("policy '%s': duplicate policy for %s", p.Target, c))
			continue
		}
		cfg.Policies[c] = s
	}

	pcfg, err := h.PlaceholderConfig()
	if err != nil {
		errs = multierror.Append(errs, err)
	}
	cfg.Placeholder = pcfg
	cfg.Synthetic = h.SyntheticConfig()

	if err := errs.ErrorOrNil(); err != nil {
		return policy.Config{}, err
	}
	return cfg, nil
}

// PlaceholderConfig layers the placeholder file, then the inline values, over the built-in table.
func (h HCL) PlaceholderConfig() (placeholder.Config, error) {
	var cfg placeholder.Config
	if h.Placeholder == nil {
		return cfg, nil
	}
	cfg.CacheSize = h.Placeholder.CacheSize

	table := placeholder.DefaultTable()
	if h.Placeholder.File != "" {
		ft, err := placeholder.LoadFile(h.Placeholder.File)
		if err != nil {
			return cfg, err
		}
		table = table.Merge(ft)
	}
	vt, err := MapPlaceholderValues(h.Placeholder.Values)
	if err != nil {
		return cfg, err
	}
	table = table.Merge(vt)
	if err := table.Validate(); err != nil {
		return cfg, err
	}
	cfg.Table = table
	return cfg, nil
}

// SyntheticConfig falls back to the transform seed when the synthetic block has none.
func (h HCL) SyntheticConfig() synthetic.Config {
	var cfg synthetic.Config
	if h.Synthetic != nil {
		cfg.CacheSize = h.Synthetic.CacheSize
		cfg.Seed = h.Synthetic.Seed
	}
	if cfg.Seed == nil && h.Transform != nil {
		cfg.Seed = h.Transform.Seed
	}
	return cfg
}

// ResetScope returns the configured reset scope, or the default one.
func (h HCL) ResetScope() (transform.ResetScope, error) {
	if h.Transform == nil {
		return transform.DefaultResetScope, nil
	}
	return transform.ParseResetScope(h.Transform.Reset)
}

// MapPlaceholderValues converts an HCL object of category -> string | list of strings | object into a table.
func MapPlaceholderValues(v cty.Value) (placeholder.Table, error) {
	if v.IsNull() {
		return placeholder.Table{}, nil
	}
	ty := v.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return nil, fmt.Errorf("%w: placeholder values must be an object, got %s", placeholder.ErrInvalidTable, ty.FriendlyName())
	}
	attrs := attributes(v)
	t := make(placeholder.Table, len(attrs))
	for _, a := range attrs {
		e, err := mapEntry(a.key, a.value)
		if err != nil {
			return nil, err
		}
		t[strings.ToUpper(a.key)] = e
	}
	return t, t.Validate()
}

func mapEntry(path string, v cty.Value) (*placeholder.Entry, error) {
	if v.IsNull() || !v.IsWhollyKnown() {
		return nil, fmt.Errorf("%w: empty entry at '%s'", placeholder.ErrInvalidTable, path)
	}
	ty := v.Type()
	switch {
	case ty == cty.String:
		return placeholder.NewConstant(v.AsString()), nil
	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		var choices []string
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			if ev.IsNull() || ev.Type() != cty.String {
				return nil, fmt.Errorf("%w: candidates at '%s' must be strings", placeholder.ErrInvalidTable, path)
			}
			choices = append(choices, ev.AsString())
		}
		return placeholder.NewChoices(choices...), nil
	case ty.IsObjectType() || ty.IsMapType():
		attrs := attributes(v)
		children := make(map[string]*placeholder.Entry, len(attrs))
		for _, a := range attrs {
			c, err := mapEntry(path+"."+a.key, a.value)
			if err != nil {
				return nil, err
			}
			children[a.key] = c
		}
		return placeholder.NewNested(children), nil
	default:
		return nil, fmt.Errorf("%w: unsupported %s at '%s'", placeholder.ErrInvalidTable, ty.FriendlyName(), path)
	}
}

type attribute struct {
	key   string
	value cty.Value
}

// attributes lists the elements of an object or map value, sorted by key.
func attributes(v cty.Value) []attribute {
	var out []attribute
	for it := v.ElementIterator(); it.Next(); {
		k, ev := it.Element()
		out = append(out, attribute{key: k.AsString(), value: ev})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out
}
