package format

import (
	"strings"
	"time"

	"gofinances/internal/cache"
)

// Registry hands out one Formatter per locale and currency pair. Building a
// Locale resolves CLDR data, so instances are cached.
type Registry struct {
	fallback Formatter
	currency string
	cache    *cache.LRUCache[Formatter]
}

// NewRegistry returns a registry whose Default is locale/currencyCode.
// Lookups without an explicit currency reuse currencyCode.
func NewRegistry(locale, currencyCode string, size int, ttl time.Duration) (*Registry, error) {
	def, err := New(locale, currencyCode)
	if err != nil {
		return nil, err
	}
	r := &Registry{
		fallback: def,
		currency: currencyCode,
		cache:    cache.NewLRUCache[Formatter](size, ttl),
	}
	r.cache.Set(key(def.Locale(), currencyCode), def)
	return r, nil
}

func (r *Registry) Default() Formatter {
	return r.fallback
}

// Lookup returns the formatter for locale. An empty locale yields Default.
func (r *Registry) Lookup(locale string) (Formatter, error) {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return r.fallback, nil
	}
	return r.cache.GetOrCreate(key(locale, r.currency), func() (Formatter, error) {
		return New(locale, r.currency)
	})
}

// Cache exposes the backing cache so a janitor can sweep it.
func (r *Registry) Cache() cache.Cleaner {
	return r.cache
}

func key(locale, currencyCode string) string {
	return strings.ToLower(locale) + "|" + strings.ToUpper(currencyCode)
}
