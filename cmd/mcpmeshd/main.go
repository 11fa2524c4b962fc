// Command mcpmeshd serves the capability dispatch protocol over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/hupe1980/mcpmesh"
	"github.com/hupe1980/mcpmesh/config"
	"github.com/hupe1980/mcpmesh/logging"
	"github.com/hupe1980/mcpmesh/model"
	antmodel "github.com/hupe1980/mcpmesh/model/anthropic"
	"github.com/hupe1980/mcpmesh/model/gemini"
	oaimodel "github.com/hupe1980/mcpmesh/model/openai"
	"github.com/hupe1980/mcpmesh/search"
	"github.com/hupe1980/mcpmesh/server"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	addr := flag.String("addr", "", "listen address, overrides config")
	flag.Parse()

	if err := run(*configPath, *addr); err != nil {
		fmt.Fprintln(os.Stderr, "mcpmeshd:", err)
		os.Exit(1)
	}
}

func run(configPath, addr string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	logger := logging.NewSlogLogger(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format, os.Stderr)

	m, err := buildModel(context.Background(), cfg.Model)
	if err != nil {
		return err
	}

	mesh, err := mcpmesh.New(func(o *mcpmesh.Options) {
		o.Model = m
		o.Logger = logger
		o.ResourceDir = cfg.Resources.Dir
		o.ResourceFiles = cfg.Resources.Files
		if cfg.Search.Enabled {
			o.WebSearcher = search.NewDuckDuckGo(func(so *search.DuckDuckGoOptions) {
				so.Timeout = cfg.Search.Timeout
			})
			o.Encyclopedia = search.NewWikipedia(func(so *search.WikipediaOptions) {
				so.Timeout = cfg.Search.Timeout
			})
		}
	})
	if err != nil {
		return err
	}

	srv := server.New(mesh.Dispatcher(), mesh.Orchestrator(), func(o *server.Options) {
		o.Logger = logger
		o.Version = mcpmesh.Version
		o.EnableCORS = cfg.Server.EnableCORS
	})

	logger.Info("mcpmeshd.start", "addr", cfg.Server.Addr, "provider", cfg.Model.Provider)
	return srv.Run(cfg.Server.Addr)
}

func buildModel(ctx context.Context, cfg config.ModelConfig) (model.Model, error) {
	switch cfg.Provider {
	case "gemini", "":
		return gemini.NewModel(ctx, func(o *gemini.Options) {
			if cfg.Name != "" {
				o.Model = cfg.Name
			}
			o.APIKey = cfg.APIKey
			if cfg.MaxTokens > 0 {
				o.MaxTokens = cfg.MaxTokens
			}
		})
	case "openai":
		optFn := func(o *oaimodel.Options) {
			if cfg.Name != "" {
				o.Model = cfg.Name
			}
			if cfg.MaxTokens > 0 {
				o.MaxCompletionTokens = cfg.MaxTokens
			}
		}
		if cfg.APIKey != "" {
			client := openai.NewClient(option.WithAPIKey(cfg.APIKey))
			return oaimodel.NewModelFromClient(&client, optFn), nil
		}
		return oaimodel.NewModel(optFn), nil
	case "anthropic":
		return antmodel.NewModel(func(o *antmodel.Options) {
			if cfg.Name != "" {
				o.Model = anthropic.Model(cfg.Name)
			}
			o.APIKey = cfg.APIKey
			if cfg.MaxTokens > 0 {
				o.MaxTokens = cfg.MaxTokens
			}
		}), nil
	case "mock":
		return model.NewMockModel(), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}
