// Package prompt manages named prompt templates with strict placeholder
// substitution. Templates use {name} placeholders; formatting is all or
// nothing and fails loudly on a missing variable instead of substituting
// partially.
package prompt

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

var placeholderRe = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// NotFoundError is returned when a template name is unregistered.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("prompt template not found: %s", e.Name)
}

// DuplicateNameError is returned when registering an already taken name.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("prompt template already registered: %s", e.Name)
}

// MissingVariableError reports a placeholder absent from the supplied
// variables. Formatting never silently substitutes around it.
type MissingVariableError struct {
	Placeholder string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("missing template variable: %s", e.Placeholder)
}

// Template is a named template string plus the placeholder set it requires,
// computed once at registration.
type Template struct {
	Name         string
	Text         string
	Placeholders []string
}

// Registry is an explicitly constructed key -> template store. Like the
// capability registry it has no ambient global instance; callers build one
// and hand it to the agents that compose instructions from it.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Template
}

// NewRegistry returns an empty prompt registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Template)}
}

// Register stores a template under name, scanning its required placeholders.
func (r *Registry) Register(name, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[name]; exists {
		return &DuplicateNameError{Name: name}
	}
	r.entries[name] = Template{
		Name:         name,
		Text:         text,
		Placeholders: placeholders(text),
	}
	return nil
}

// MustRegister registers templates and panics on duplicates; startup wiring only.
func (r *Registry) MustRegister(pairs map[string]string) {
	for name, text := range pairs {
		if err := r.Register(name, text); err != nil {
			panic(err)
		}
	}
}

// Get returns the registered template or NotFoundError.
func (r *Registry) Get(name string) (Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.entries[name]
	if !ok {
		return Template{}, &NotFoundError{Name: name}
	}
	return t, nil
}

// Names returns the registered template names sorted lexicographically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Format renders the named template with vars. It fails with NotFoundError
// for unregistered templates and MissingVariableError for any required
// placeholder absent from vars. Extra variables are ignored.
func (r *Registry) Format(name string, vars map[string]any) (string, error) {
	t, err := r.Get(name)
	if err != nil {
		return "", err
	}
	return format(t, vars)
}

// FormatString renders an inline template string with the same all-or-nothing
// semantics as Format. Used by callers supplying raw template text.
func FormatString(text string, vars map[string]any) (string, error) {
	t := Template{Text: text, Placeholders: placeholders(text)}
	return format(t, vars)
}

func format(t Template, vars map[string]any) (string, error) {
	// Check every placeholder before substituting anything.
	for _, ph := range t.Placeholders {
		if _, ok := vars[ph]; !ok {
			return "", &MissingVariableError{Placeholder: ph}
		}
	}
	out := placeholderRe.ReplaceAllStringFunc(t.Text, func(m string) string {
		key := strings.Trim(m, "{}")
		return fmt.Sprintf("%v", vars[key])
	})
	return out, nil
}

// placeholders extracts the deduplicated placeholder names in first-seen order.
func placeholders(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range placeholderRe.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}
