// Package mcpmesh provides a high-level façade over the capability dispatch
// protocol and the orchestration agents built on top of it. Most applications
// interact with this package by:
//  1. Creating a Mesh via New() (supplying a model and, optionally, search
//     clients and a resource directory)
//  2. Dispatching capabilities directly (Dispatch) or running full
//     orchestrated queries (Query)
//  3. Registering additional capabilities (Register) before serving traffic
//
// The façade wires the capability registry, the prompt registry, the resource
// registry and the dispatcher together so that every collaborator call flows
// through one dispatch path. All defaults are safe for local development and
// testing; production deployments typically supply a real model provider and
// a structured logger.
package mcpmesh

import (
	"context"

	"github.com/hupe1980/mcpmesh/agent"
	"github.com/hupe1980/mcpmesh/capability"
	"github.com/hupe1980/mcpmesh/dispatch"
	"github.com/hupe1980/mcpmesh/logging"
	"github.com/hupe1980/mcpmesh/model"
	"github.com/hupe1980/mcpmesh/prompt"
	"github.com/hupe1980/mcpmesh/resource"
	"github.com/hupe1980/mcpmesh/search"
)

// Version is reported by the HTTP health endpoint.
const Version = "0.1.0"

// Options configures the Mesh instance.
type Options struct {
	// Model backs the generate_completion capability and the agents.
	// Defaults to a MockModel so the mesh is usable without credentials.
	Model model.Model

	// WebSearcher backs the web_search capability. Defaults to DuckDuckGo.
	WebSearcher search.WebSearcher

	// Encyclopedia backs the wikipedia capability. Defaults to the
	// Wikipedia REST client.
	Encyclopedia search.Encyclopedia

	// Prompts is the template registry. Defaults to the built-in templates.
	Prompts *prompt.Registry

	// ResourceDir and ResourceFiles describe the file-backed resources
	// served by the file_reader capability. When ResourceFiles is empty no
	// file_reader capability is registered.
	ResourceDir   string
	ResourceFiles map[string]string

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Mesh is the high-level façade aggregating the registries, the dispatcher
// and the orchestration agents.
type Mesh struct {
	opts         Options
	registry     *capability.Registry
	prompts      *prompt.Registry
	resources    *resource.Registry
	dispatcher   *dispatch.Dispatcher
	orchestrator *agent.Orchestrator
}

// New creates a new Mesh with the built-in capabilities registered. Any unset
// collaborator is initialized with a local default.
func New(optFns ...func(o *Options)) (*Mesh, error) {
	opts := Options{
		Model:        model.NewMockModel(),
		WebSearcher:  search.NewDuckDuckGo(),
		Encyclopedia: search.NewWikipedia(),
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Prompts == nil {
		opts.Prompts = prompt.NewBuiltinRegistry()
	}

	registry := capability.NewRegistry()

	var resources *resource.Registry
	if len(opts.ResourceFiles) > 0 {
		var err error
		resources, err = resource.NewRegistry(opts.ResourceDir, opts.ResourceFiles)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(capability.NewFileReader(resources)); err != nil {
			return nil, err
		}
	}

	builtins := []capability.Capability{
		capability.NewWebSearch(opts.WebSearcher),
		capability.NewWikipedia(opts.Encyclopedia),
		capability.NewCompletion(opts.Model),
		capability.NewFormatPrompt(opts.Prompts),
		capability.NewProcessData(),
	}
	for _, c := range builtins {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	dispatcher := dispatch.NewDispatcher(registry, func(o *dispatch.Options) {
		o.Logger = opts.Logger
	})

	orchestrator := agent.NewOrchestrator(dispatcher, opts.Prompts, func(o *agent.OrchestratorOptions) {
		o.Logger = opts.Logger
	})

	return &Mesh{
		opts:         opts,
		registry:     registry,
		prompts:      opts.Prompts,
		resources:    resources,
		dispatcher:   dispatcher,
		orchestrator: orchestrator,
	}, nil
}

// Register adds a capability to the underlying registry.
func (m *Mesh) Register(c capability.Capability) error { return m.registry.Register(c) }

// Dispatch routes a single capability invocation and returns its envelope.
func (m *Mesh) Dispatch(ctx context.Context, name string, params map[string]any) *dispatch.Envelope {
	return m.dispatcher.Dispatch(ctx, name, params)
}

// Query runs the full classify, execute and synthesize pipeline.
func (m *Mesh) Query(ctx context.Context, query string) *agent.Synthesis {
	return m.orchestrator.HandleQuery(ctx, query)
}

// Dispatcher exposes the underlying dispatcher, mainly for transports.
func (m *Mesh) Dispatcher() *dispatch.Dispatcher { return m.dispatcher }

// Orchestrator exposes the orchestration agent.
func (m *Mesh) Orchestrator() *agent.Orchestrator { return m.orchestrator }

// Capabilities lists the registered capability descriptors sorted by name.
func (m *Mesh) Capabilities() []capability.Descriptor { return m.registry.List() }

// Prompts exposes the prompt template registry.
func (m *Mesh) Prompts() *prompt.Registry { return m.prompts }
