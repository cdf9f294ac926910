package textanalysis

import (
	"fmt"
	"log/slog"
	"sync"
)

// ═══════════════════════════════════════════════════════════════════════════════
// RESOURCE CACHE
// ═══════════════════════════════════════════════════════════════════════════════
// Building a text analyzer config means parsing options, resolving the locale
// and, usually, reading a stopword directory. The cache does that once per
// config string and shares the result:
//
//	Get(json, `{"locale":"en"}`)  → parse + load <root>/en   (miss, inserted)
//	Get(json, `{"locale":"en"}`)  → same *CompiledTextConfig (hit)
//	Get(json, `{"locale": "en"}`) → parse + load again     (different bytes, different key)
//
// INVARIANTS:
// -----------
//   - At most one entry per key; the first successful build wins.
//   - Entries are never replaced or evicted.
//   - A failed build inserts nothing, so a later Get retries it.
//
// One mutex covers the whole lookup-or-build sequence, stopword I/O included.
// Per-analyzer resources (segmenter, normalizer, stemmer) are built outside the
// cache by each TextAnalyzer.
// ═══════════════════════════════════════════════════════════════════════════════

// CompiledTextConfig is an immutable, shareable text analyzer config.
type CompiledTextConfig struct {
	options   TextOptions
	locale    Locale
	stopwords StopwordSet
}

// Options returns the parsed options.
func (c *CompiledTextConfig) Options() TextOptions { return c.options }

// Locale returns the resolved locale.
func (c *CompiledTextConfig) Locale() Locale { return c.locale }

// Stopwords returns the resolved stopword set. Callers must not modify it.
func (c *CompiledTextConfig) Stopwords() StopwordSet { return c.stopwords }

// CompileTextConfig parses args and resolves its locale and stopwords without
// any caching.
func CompileTextConfig(format Format, args string, resolver *StopwordResolver) (*CompiledTextConfig, error) {
	opts, err := ParseTextOptions(format, args)
	if err != nil {
		return nil, err
	}
	locale, err := ParseLocale(opts.Locale)
	if err != nil {
		return nil, err
	}
	stopwords, err := resolver.Resolve(opts, locale.Language)
	if err != nil {
		return nil, err
	}
	return &CompiledTextConfig{
		options:   opts,
		locale:    locale,
		stopwords: stopwords,
	}, nil
}

type cacheKey struct {
	format Format
	args   string
}

// ResourceCache shares compiled text analyzer configs by their verbatim config
// string. It is safe for concurrent use.
type ResourceCache struct {
	mu      sync.Mutex
	entries map[cacheKey]*CompiledTextConfig

	resolver *StopwordResolver
	logger   *slog.Logger
}

// NewResourceCache creates an empty cache. A nil resolver reads the process
// environment and working directory.
func NewResourceCache(resolver *StopwordResolver, logger *slog.Logger) *ResourceCache {
	if resolver == nil {
		resolver = &StopwordResolver{Logger: logger}
	}
	return &ResourceCache{
		entries:  make(map[cacheKey]*CompiledTextConfig),
		resolver: resolver,
		logger:   loggerOrDefault(logger),
	}
}

// Get returns the compiled config for (format, args), building and inserting
// it on first use.
func (c *ResourceCache) Get(format Format, args string) (*CompiledTextConfig, error) {
	key := cacheKey{format: format, args: args}

	c.mu.Lock()
	defer c.mu.Unlock()

	if cfg, ok := c.entries[key]; ok {
		return cfg, nil
	}

	cfg, err := CompileTextConfig(format, args, c.resolver)
	if err != nil {
		c.logger.Warn("failed to compile text analyzer config",
			slog.String("format", string(format)),
			slog.String("args", args),
			slog.Any("error", err))
		return nil, fmt.Errorf("compile %s config: %w", KindText, err)
	}

	c.entries[key] = cfg
	c.logger.Debug("cached text analyzer config",
		slog.String("format", string(format)),
		slog.String("args", args),
		slog.Int("stopwords", len(cfg.stopwords)),
		slog.Int("entries", len(c.entries)))
	return cfg, nil
}

// Len returns the number of cached configs.
func (c *ResourceCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Resolver returns the stopword resolver used for builds.
func (c *ResourceCache) Resolver() *StopwordResolver {
	return c.resolver
}
