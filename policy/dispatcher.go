// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package policy

import (
	"errors"
	"fmt"
	"sort"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/hashicorp/pii-transform/pii"
	"github.com/hashicorp/pii-transform/placeholder"
	"github.com/hashicorp/pii-transform/synthetic"
)

type Config struct {
	// Default applies to categories without an entry in Policies. A zero Spec means DefaultName.
	Default  Spec
	Policies map[pii.Category]Spec

	Placeholder placeholder.Config
	Synthetic   synthetic.Config

	Logger hclog.Logger
}

// Dispatcher routes each entity to its category's policy. The stateful placeholder and synthetic policies are
// created at most once and shared by every category using them. A Dispatcher is not safe for concurrent use.
type Dispatcher struct {
	l        hclog.Logger
	cfg      Config
	def      resolved
	fallback resolved
	policies map[pii.Category]resolved

	placeholder *placeholder.Assigner
	synthetic   *synthetic.Generator
}

type resolved struct {
	spec   Spec
	policy Policy
}

// New validates and builds every configured policy. All problems found are reported together.
func New(cfg Config) (*Dispatcher, error) {
	l := cfg.Logger
	if l == nil {
		l = hclog.NewNullLogger()
	}
	d := &Dispatcher{
		l:        l,
		cfg:      cfg,
		policies: make(map[pii.Category]resolved, len(cfg.Policies)),
	}

	var errs *multierror.Error

	def := cfg.Default
	if def.Name == "" {
		def.Name = DefaultName
	}
	r, err := d.build(def)
	if err != nil {
		errs = multierror.Append(errs, fmt.Errorf("default policy: %w", err))
	}
	d.def = r

	cats := make([]pii.Category, 0, len(cfg.Policies))
	for c := range cfg.Policies {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	for _, c := range cats {
		r, err := d.build(cfg.Policies[c])
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("policy for %s: %w", c, err))
			continue
		}
		d.policies[c] = r
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	d.fallback = d.def
	if d.def.spec.Name == Synthetic {
		d.fallback, _ = d.build(Spec{Name: DefaultName})
	}

	l.Debug("policies ready", "default", d.def.spec, "overrides", len(d.policies))
	return d, nil
}

func (d *Dispatcher) build(s Spec) (resolved, error) {
	n, err := ParseName(string(s.Name))
	if err != nil {
		return resolved{}, err
	}
	s.Name = n
	if err := s.Validate(); err != nil {
		return resolved{}, err
	}
	r := resolved{spec: s}
	switch s.Name {
	case Hash:
		h, err := NewHasher(s.Key, s.Size)
		if err != nil {
			return resolved{}, err
		}
		r.policy = h
	case Custom:
		t, err := NewTemplate(s.Template)
		if err != nil {
			return resolved{}, err
		}
		r.policy = t
	case Placeholder:
		if d.placeholder == nil {
			a, err := placeholder.New(d.cfg.Placeholder)
			if err != nil {
				return resolved{}, err
			}
			d.placeholder = a
		}
		r.policy = d.placeholder
	case Synthetic:
		if d.synthetic == nil {
			scfg := d.cfg.Synthetic
			if scfg.Logger == nil {
				scfg.Logger = d.l.Named("synthetic")
			}
			g, err := synthetic.New(scfg)
			if err != nil {
				return resolved{}, err
			}
			d.synthetic = g
		}
		r.policy = d.synthetic
	default:
		raw, ok := templates[s.Name]
		if !ok {
			return resolved{}, fmt.Errorf("%w: '%s'", ErrUnknownPolicy, s.Name)
		}
		r.policy = mustTemplate(raw)
	}
	return r, nil
}

// Default returns the policy used for categories without their own.
func (d *Dispatcher) Default() Spec {
	return d.def.spec
}

// PolicyFor returns the policy that applies to c, before any synthetic fallback.
func (d *Dispatcher) PolicyFor(c pii.Category) Spec {
	if r, ok := d.policies[c]; ok {
		return r.spec
	}
	return d.def.spec
}

// Render returns the substitute text for e. A synthetic policy that cannot produce a value for e's category or
// language falls back to the default policy, or to DefaultName if the default is synthetic too.
func (d *Dispatcher) Render(e *pii.Entity) (string, error) {
	r, ok := d.policies[e.Category]
	if !ok {
		r = d.def
	}
	if r.spec.Name == Synthetic && !d.synthetic.Has(e.Category) {
		d.l.Trace("no synthetic provider, using fallback", "category", e.Category, "fallback", d.fallback.spec)
		r = d.fallback
	}

	out, err := r.policy.Render(e)
	if errors.Is(err, synthetic.ErrUnimplemented) {
		d.l.Trace("synthetic value unavailable, using fallback", "category", e.Category, "fallback", d.fallback.spec, "reason", err)
		return d.fallback.policy.Render(e)
	}
	if err != nil {
		return "", fmt.Errorf("policy %s for %s: %w", r.spec, e.Category, err)
	}
	return out, nil
}

// Reset clears the consistency caches of the stateful policies. Placeholder rotation positions are kept.
func (d *Dispatcher) Reset() {
	for _, r := range d.resetters() {
		r.Reset()
	}
}

func (d *Dispatcher) resetters() []Resetter {
	var out []Resetter
	if d.placeholder != nil {
		out = append(out, d.placeholder)
	}
	if d.synthetic != nil {
		out = append(out, d.synthetic)
	}
	return out
}

func (d *Dispatcher) String() string {
	return fmt.Sprintf("<Dispatcher #%d>", len(d.policies)+1)
}
