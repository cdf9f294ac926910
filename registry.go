package textanalysis

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Factory builds an analyzer from a config string in one format.
type Factory func(args string) (TokenStream, error)

// Registry maps analyzer kinds to factories, one per supported format.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]map[Format]Factory

	cache  *ResourceCache
	logger *slog.Logger
}

// NewRegistry creates a Registry with the built-in analyzers registered. Text
// analyzers share compiled configs through cache; a nil cache gets a fresh one.
func NewRegistry(cache *ResourceCache, logger *slog.Logger) *Registry {
	logger = loggerOrDefault(logger)
	if cache == nil {
		cache = NewResourceCache(nil, logger)
	}
	r := &Registry{
		factories: make(map[string]map[Format]Factory),
		cache:     cache,
		logger:    logger,
	}

	for _, format := range []Format{FormatJSON, FormatText} {
		f := format // each factory keeps its own format
		r.mustRegister(KindDelimiter, f, func(args string) (TokenStream, error) {
			return stream(NewDelimitedAnalyzerFromConfig(f, args, logger))
		})
		r.mustRegister(KindStem, f, func(args string) (TokenStream, error) {
			return stream(NewStemmingAnalyzerFromConfig(f, args, logger))
		})
		r.mustRegister(KindText, f, func(args string) (TokenStream, error) {
			return stream(NewTextAnalyzerFromConfig(cache, f, args, logger))
		})
		r.mustRegister(KindIdentity, f, func(string) (TokenStream, error) {
			return NewIdentityAnalyzer(), nil
		})
	}
	r.mustRegister(KindNGram, FormatJSON, func(args string) (TokenStream, error) {
		return stream(NewNGramAnalyzerFromConfig(FormatJSON, args, logger))
	})
	return r
}

// stream drops the typed nil a failed constructor returns.
func stream(ts TokenStream, err error) (TokenStream, error) {
	if err != nil {
		return nil, err
	}
	return ts, nil
}

func (r *Registry) mustRegister(kind string, format Format, f Factory) {
	if err := r.Register(kind, format, f); err != nil {
		panic(err)
	}
}

// Register adds a factory for kind in format.
func (r *Registry) Register(kind string, format Format, f Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	byFormat, ok := r.factories[kind]
	if !ok {
		byFormat = make(map[Format]Factory)
		r.factories[kind] = byFormat
	}
	if _, exists := byFormat[format]; exists {
		return fmt.Errorf("analyzer already registered: %q (%s)", kind, format)
	}
	byFormat[format] = f
	return nil
}

// Get builds an analyzer of the given kind from args.
func (r *Registry) Get(kind string, format Format, args string) (TokenStream, error) {
	r.mu.RLock()
	byFormat, ok := r.factories[kind]
	var f Factory
	if ok {
		f = byFormat[format]
	}
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAnalyzer, kind)
	}
	if f == nil {
		return nil, fmt.Errorf("%w: %s for %s", ErrUnsupportedFormat, format, kind)
	}

	return f(args)
}

// Normalize builds an analyzer and renders its config back in the same
// format, giving the canonical spelling of a definition.
func (r *Registry) Normalize(kind string, format Format, args string) (string, error) {
	ts, err := r.Get(kind, format, args)
	if err != nil {
		return "", err
	}
	out, ok := ts.Serialize(format)
	if !ok {
		return "", fmt.Errorf("%w: %s cannot render %s", ErrUnsupportedFormat, kind, format)
	}
	return out, nil
}

// Kinds returns the registered analyzer kinds, sorted.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// Cache returns the resource cache shared by text analyzers.
func (r *Registry) Cache() *ResourceCache {
	return r.cache
}
