// Package resource provides a restricted key to content store backed by a
// fixed directory of named files. Names are logical identifiers, never paths:
// the registry resolves them against a single base directory and refuses
// anything that would escape it.
package resource

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
)

// NotFoundError is returned when a name is not in the registered closed set.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resource not found: %s", e.Name)
}

// AccessError is returned when resolving a name would escape the base
// directory. Containment is checked by allow-listing the resolved path, not
// by pattern-matching the input.
type AccessError struct {
	Name string
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("resource access denied: %s", e.Name)
}

// entry holds one registered resource. Content is read lazily and memoized;
// the sync.Once guarantees at-most-once population under concurrent access.
type entry struct {
	path    string
	once    sync.Once
	content []byte
	err     error
}

// Registry maps logical resource names to files under a fixed base directory.
// The set of names is closed at construction time; content is cached after
// the first successful read and invalidated only by process restart. The
// cache is unbounded but scoped to the small registered set, so no eviction
// is needed.
type Registry struct {
	baseDir string
	entries map[string]*entry

	// reads counts underlying file reads. Exposed for tests that assert
	// at-most-once population.
	reads atomic.Int64
}

// NewRegistry creates a registry rooted at baseDir with the given
// name -> relative file mappings. A mapping whose resolved path lies outside
// baseDir is rejected up front with AccessError.
func NewRegistry(baseDir string, files map[string]string) (*Registry, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolving base directory: %w", err)
	}
	r := &Registry{baseDir: abs, entries: make(map[string]*entry, len(files))}
	for name, rel := range files {
		path, err := r.contain(rel)
		if err != nil {
			return nil, fmt.Errorf("registering resource %q: %w", name, err)
		}
		r.entries[name] = &entry{path: path}
	}
	return r, nil
}

// contain resolves rel against the base directory and verifies the result
// stays inside it.
func (r *Registry) contain(rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return "", &AccessError{Name: rel}
	}
	path := filepath.Join(r.baseDir, rel)
	relBack, err := filepath.Rel(r.baseDir, path)
	if err != nil || relBack == ".." || strings.HasPrefix(relBack, ".."+string(filepath.Separator)) {
		return "", &AccessError{Name: rel}
	}
	return path, nil
}

// Names returns the registered resource names. Order is not specified.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	return names
}

// Resolve returns the content registered under name, reading the backing file
// at most once. Unregistered names fail with NotFoundError. Read failures are
// memoized as well: a missing file does not get retried per call.
func (r *Registry) Resolve(name string) ([]byte, error) {
	e, ok := r.entries[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	e.once.Do(func() {
		r.reads.Add(1)
		e.content, e.err = os.ReadFile(e.path)
		if e.err != nil {
			e.err = fmt.Errorf("reading resource %q: %w", name, e.err)
		}
	})
	if e.err != nil {
		return nil, e.err
	}
	return e.content, nil
}

// ResolveString is Resolve with a string result, the common case for text
// resources consumed in prompts.
func (r *Registry) ResolveString(name string) (string, error) {
	b, err := r.Resolve(name)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Reads reports how many underlying file reads have occurred.
func (r *Registry) Reads() int64 { return r.reads.Load() }
