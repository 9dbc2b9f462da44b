// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package synthetic replaces PII values with realistic fake values of the same category. Values are generated per
// locale, derived from the entity's language and country, and cached so the same original value keeps the same
// replacement until it is evicted or the cache is reset.
package synthetic

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/golang-lru/v2/simplelru"
	"github.com/samber/lo"

	"github.com/hashicorp/pii-transform/pii"
)

// DefaultCacheSize is how many distinct original values keep their generated replacement.
const DefaultCacheSize = 200

// defaultLang is used when an entity has no language or the wildcard one.
const defaultLang = "en"

// ErrUnimplemented is returned when no value can be generated for an entity's category or language.
var ErrUnimplemented = errors.New("synthetic value unimplemented")

// countries lists the locales fake values can be generated for, as language -> countries.
var countries = map[string][]string{
	"de": {"AT", "CH", "DE"},
	"en": {"AU", "CA", "GB", "IE", "IN", "NZ", "PH", "US"},
	"es": {"AR", "CL", "CO", "ES", "MX"},
	"fr": {"BE", "CA", "CH", "FR"},
	"it": {"IT"},
	"nl": {"BE", "NL"},
	"pt": {"BR", "PT"},
	"ro": {"RO"},
}

type Config struct {
	// CacheSize bounds the number of remembered values. Zero means DefaultCacheSize.
	CacheSize int
	// Seed makes generation reproducible. When nil, every Generator produces different values.
	Seed *int64
	// Providers overrides the built-in provider table. When nil, DefaultProviders() is used.
	Providers ProviderTable
	Logger    hclog.Logger
}

// Generator is not safe for concurrent use.
type Generator struct {
	l         hclog.Logger
	providers ProviderTable
	rnd       *rand.Rand
	fakers    map[string]*gofakeit.Faker
	cache     *simplelru.LRU[cacheKey, string]
}

type cacheKey struct {
	category pii.Category
	lang     string
	country  string
	value    string
}

func New(cfg Config) (*Generator, error) {
	providers := cfg.Providers
	if providers == nil {
		providers = DefaultProviders()
	}
	for c, p := range providers {
		if err := p.validate(c); err != nil {
			return nil, err
		}
	}

	size := cfg.CacheSize
	if size == 0 {
		size = DefaultCacheSize
	}
	if size < 0 {
		return nil, fmt.Errorf("synthetic cache size must be positive, got %d", size)
	}
	cache, err := simplelru.NewLRU[cacheKey, string](size, nil)
	if err != nil {
		return nil, err
	}

	seed := time.Now().UnixNano()
	if cfg.Seed != nil {
		seed = *cfg.Seed
	}

	l := cfg.Logger
	if l == nil {
		l = hclog.NewNullLogger()
	}

	return &Generator{
		l:         l,
		providers: providers,
		rnd:       rand.New(rand.NewSource(seed)),
		fakers:    make(map[string]*gofakeit.Faker),
		cache:     cache,
	}, nil
}

func (g *Generator) String() string {
	return "<Synthetic>"
}

// Has reports whether a provider is registered for c.
func (g *Generator) Has(c pii.Category) bool {
	_, ok := g.providers[c]
	return ok
}

// Render returns the synthetic replacement for e, generating and caching it on first sight.
func (g *Generator) Render(e *pii.Entity) (string, error) {
	key := cacheKey{
		category: e.Category,
		lang:     strings.ToLower(e.Lang),
		country:  strings.ToLower(e.Country),
		value:    e.Value,
	}
	if v, ok := g.cache.Get(key); ok {
		return v, nil
	}
	v, err := g.generate(e)
	if err != nil {
		return "", err
	}
	g.cache.Add(key, v)
	return v, nil
}

// Reset forgets every generated value.
func (g *Generator) Reset() {
	g.cache.Purge()
}

// Cached is the number of values currently remembered.
func (g *Generator) Cached() int {
	return g.cache.Len()
}

func (g *Generator) generate(e *pii.Entity) (string, error) {
	p, ok := g.providers[e.Category]
	if !ok {
		return "", fmt.Errorf("%w: no provider for %s", ErrUnimplemented, e.Category)
	}
	locale, err := g.locale(e.Lang, e.Country)
	if err != nil {
		return "", err
	}

	var op Operation
	switch {
	case p.Func != nil:
		op = p.Func
	case len(p.ByLocale) > 0:
		name, ok := p.ByLocale[locale]
		if !ok {
			locale = g.choose(sortedKeys(p.ByLocale))
			name = p.ByLocale[locale]
		}
		op = operations[name]
	default:
		op = operations[p.Op]
	}

	g.l.Trace("generating synthetic value", "category", e.Category, "locale", locale)
	return op(g.faker(locale)), nil
}

// locale builds a lang_COUNTRY tag. Unknown or missing countries are replaced by a random one of the language.
func (g *Generator) locale(lang, country string) (string, error) {
	lang = strings.ToLower(lang)
	if lang == "" || lang == "any" {
		lang = defaultLang
	}
	available, ok := countries[lang]
	if !ok {
		return "", fmt.Errorf("%w: no countries available for language '%s'", ErrUnimplemented, lang)
	}
	country = strings.ToUpper(country)
	if !lo.Contains(available, country) {
		country = g.choose(available)
	}
	return lang + "_" + country, nil
}

// faker returns the faker for a locale, creating it with a seed drawn from the generator's random source.
func (g *Generator) faker(locale string) *gofakeit.Faker {
	f, ok := g.fakers[locale]
	if !ok {
		seed := g.rnd.Int63()
		if seed == 0 {
			// gofakeit treats 0 as "seed from crypto/rand"
			seed = 1
		}
		f = gofakeit.New(seed)
		g.fakers[locale] = f
	}
	return f
}

func (g *Generator) choose(options []string) string {
	return options[g.rnd.Intn(len(options))]
}

func sortedKeys(m map[string]string) []string {
	out := lo.Keys(m)
	sort.Strings(out)
	return out
}
